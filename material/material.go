package material

import (
	log "github.com/sirupsen/logrus"
)

// 三相物性参数：冰、水、空气

type Phase uint8

const (
	Ice Phase = iota
	Water
	Air

	phaseCount = 3
)

func (p Phase) String() string {
	switch p {
	case Ice:
		return "ice"
	case Water:
		return "water"
	case Air:
		return "air"
	}
	return "unknown"
}

// Properties are the constants the solver needs per phase.
// MeltingPoint and LatentHeat are only meaningful for Ice.
type Properties struct {
	Density      float32 // kg/m3
	SpecificHeat float32 // J/(kg·K)
	Conductivity float32 // W/(m·K)
	MeltingPoint float32 // ℃
	LatentHeat   float32 // J/kg
}

// 默认物性参数，常压下的常用值
var defaults = [phaseCount]Properties{
	Ice: {
		Density:      917.0,
		SpecificHeat: 2100.0,
		Conductivity: 2.22,
		MeltingPoint: 0.0,
		LatentHeat:   334000.0,
	},
	Water: {
		Density:      998.0,
		SpecificHeat: 4186.0,
		Conductivity: 0.6,
	},
	Air: {
		Density:      1.2,
		SpecificHeat: 1005.0,
		Conductivity: 0.026,
	},
}

// Table resolves a phase tag to its properties. Lookup is pure; overrides are
// applied once at construction time and the table is read-only afterwards.
type Table struct {
	props [phaseCount]Properties
}

func NewTable() *Table {
	t := &Table{}
	t.props = defaults
	return t
}

// Override replaces the properties of one phase, typically from the
// SimulationConfig before the grid is built.
func (t *Table) Override(p Phase, props Properties) {
	if int(p) >= phaseCount {
		log.WithFields(log.Fields{"phase": p}).Warn("override for unknown phase ignored")
		return
	}
	t.props[p] = props
	log.WithFields(log.Fields{
		"phase":        p.String(),
		"density":      props.Density,
		"specificHeat": props.SpecificHeat,
		"conductivity": props.Conductivity,
	}).Info("material properties overridden")
}

// Lookup returns the properties for the given phase. The phase set is closed,
// so the fallback branch is unreachable with a valid grid.
func (t *Table) Lookup(p Phase) Properties {
	if int(p) >= phaseCount {
		return t.props[Air]
	}
	return t.props[p]
}
