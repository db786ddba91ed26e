package solver

import (
	"bottle/material"
	"bottle/model"
)

// BuildData assembles the committed snapshot for the renderer. It shares the
// field mutex with Step, so a push never observes a half-applied tick.
func (s *Simulation) BuildData() *model.FieldData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buildDataLocked()
}

func (s *Simulation) buildDataLocked() *model.FieldData {
	data := &model.FieldData{
		Columns:     s.grid.Columns,
		Rows:        s.grid.Rows,
		Tick:        s.tick,
		TimeSeconds: s.timeSeconds,
		IceCells:    s.grid.CountPhase(material.Ice),
		Cells:       make([]model.CellData, len(s.grid.Cells)),
	}
	s.grid.ForEach(func(i int, c *Cell) {
		data.Cells[i] = model.CellData{
			X:           c.X,
			Y:           c.Y,
			Temperature: c.Temperature,
			Phase:       c.Phase.String(),
		}
	})
	return data
}

// BuildDelta assembles the compact periodic push: tick metadata plus the
// delta-encoded temperature stream, an order of magnitude smaller than the
// full snapshot on large grids.
func (s *Simulation) BuildDelta() *model.FieldDelta {
	s.mu.Lock()
	defer s.mu.Unlock()
	enc := EncodeField(s.buildDataLocked())
	return &model.FieldDelta{
		Tick:        s.tick,
		TimeSeconds: s.timeSeconds,
		IceCells:    s.grid.CountPhase(material.Ice),
		Start:       enc.Start,
		Deltas:      enc.Deltas,
	}
}
