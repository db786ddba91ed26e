package solver

import (
	"bottle/material"
)

// Convection is approximated, not simulated: fluid phases get an empirically
// enlarged effective conductivity so heat spreads the way bulk mixing would
// spread it, without resolving any velocity field. Ice conducts as a solid.
func (s *Simulation) effectiveConductivity(c *Cell) float32 {
	k := s.props.Lookup(c.Phase).Conductivity
	switch c.Phase {
	case material.Water:
		return k * s.convWater
	case material.Air:
		return k * s.convAir
	default:
		return k
	}
}

// 两相邻单元之间的实际等效导热系数，调和平均
func harmonicMean(k1, k2 float32) float32 {
	if k1+k2 == 0 {
		return 0
	}
	return 2 * k1 * k2 / (k1 + k2)
}
