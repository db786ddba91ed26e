package solver

// The bottle wall is the system's only energy source and sink. Every
// boundary-tagged cell picks up a convective term h·A·(Tamb − T) per exposed
// face; everything else in a step is internal redistribution.
func (s *Simulation) accumulateBoundary(firstRow, lastRow int, deltaT float32, buf []float32) {
	g := s.grid
	for y := firstRow; y < lastRow; y++ {
		for x := 0; x < g.Columns; x++ {
			i := g.Index(x, y)
			if !g.IsBoundary(i) {
				continue
			}
			c := g.Cell(i)
			area := float32(g.ExposedFaces(i)) * g.CellSize
			buf[i] += s.wallH * area * (s.ambient - c.Temperature) * deltaT
		}
	}
}
