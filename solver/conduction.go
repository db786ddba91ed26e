package solver

// Diffusive exchange between adjacent cells, explicit forward-time
// centered-space. Each edge is visited exactly once (right and up neighbor of
// the lower-indexed cell), and the signed energy is written to both ends, so
// whatever leaves one cell enters its neighbor and internal conduction is
// conservative to rounding.
//
// accumulateConduction only touches rows [firstRow, lastRow); the up-edge of
// the band's top row writes into the row above, which is safe because every
// worker accumulates into its own buffer.
func (s *Simulation) accumulateConduction(firstRow, lastRow int, deltaT float32, buf []float32) {
	g := s.grid
	faceOverDist := float32(1.0) // A/d = (cellSize*1)/cellSize
	for y := firstRow; y < lastRow; y++ {
		for x := 0; x < g.Columns; x++ {
			i := g.Index(x, y)
			ci := g.Cell(i)
			ki := s.effectiveConductivity(ci)

			if x < g.Columns-1 {
				j := g.Index(x+1, y)
				cj := g.Cell(j)
				q := harmonicMean(ki, s.effectiveConductivity(cj)) * faceOverDist * (ci.Temperature - cj.Temperature) * deltaT
				buf[i] -= q
				buf[j] += q
			}
			if y < g.Rows-1 {
				j := g.Index(x, y+1)
				cj := g.Cell(j)
				q := harmonicMean(ki, s.effectiveConductivity(cj)) * faceOverDist * (ci.Temperature - cj.Temperature) * deltaT
				buf[i] -= q
				buf[j] += q
			}
		}
	}
}
