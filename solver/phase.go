package solver

import (
	"bottle/material"

	log "github.com/sirupsen/logrus"
)

// Enthalpy method for melting: an ice cell that has reached the melting point
// banks incoming energy in StoredLatent instead of its temperature. Crossing
// density·latent·volume flips the cell to water, and any surplus beyond the
// threshold carries forward as sensible heat of the new water so no energy is
// discarded at the transition. Water never re-freezes in this core.
func (s *Simulation) applyEnergy(i int, deltaE float32) {
	c := s.grid.Cell(i)
	pr := s.props.Lookup(c.Phase)
	mass := s.grid.Mass(c)

	if c.Phase != material.Ice {
		c.Temperature += deltaE / (mass * pr.SpecificHeat)
		return
	}

	melting := pr.MeltingPoint
	if c.Temperature < melting {
		if deltaE <= 0 {
			c.Temperature += deltaE / (mass * pr.SpecificHeat)
			return
		}
		// 先升温到熔点，剩余能量转入潜热
		need := mass * pr.SpecificHeat * (melting - c.Temperature)
		if deltaE <= need {
			c.Temperature += deltaE / (mass * pr.SpecificHeat)
			return
		}
		c.Temperature = melting
		deltaE -= need
	}

	if deltaE < 0 {
		// Cooling drains the accumulator before it touches temperature; the
		// cell stays ice either way.
		if c.StoredLatent+deltaE >= 0 {
			c.StoredLatent += deltaE
			return
		}
		deltaE += c.StoredLatent
		c.StoredLatent = 0
		c.Temperature += deltaE / (mass * pr.SpecificHeat)
		return
	}

	c.StoredLatent += deltaE
	threshold := pr.Density * pr.LatentHeat * s.grid.CellVolume()
	if c.StoredLatent < threshold {
		return
	}

	surplus := c.StoredLatent - threshold
	c.Phase = material.Water
	c.StoredLatent = 0

	water := s.props.Lookup(material.Water)
	waterMass := water.Density * s.grid.CellVolume()
	c.Temperature = melting + surplus/(waterMass*water.SpecificHeat)

	s.meltedCells++
	if s.grid.CountPhase(material.Ice) == 0 {
		log.WithFields(log.Fields{
			"tick":        s.tick,
			"timeSeconds": s.timeSeconds,
			"melted":      s.meltedCells,
		}).Info("all ice melted")
	}
}
