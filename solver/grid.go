package solver

import (
	"bottle/material"
)

// Cell is the atomic simulation unit. Position and the boundary tag are fixed
// at construction; temperature, phase and the latent accumulator are mutated
// in place by the integrator every tick.
type Cell struct {
	X, Y         int
	Temperature  float32
	Phase        material.Phase
	StoredLatent float32 // J，已吸收但尚未完成融化的潜热
	Boundary     bool
}

// Grid discretizes the container cross-section into Columns x Rows cells with
// 4-adjacency. Cell index = y*Columns + x, row 0 at the bottom of the bottle.
// The fill order follows the bottle: water at the bottom, ice floating above,
// air on top.
type Grid struct {
	Columns  int
	Rows     int
	CellSize float32

	Cells     []Cell
	neighbors [][]int

	props *material.Table
}

func NewGrid(cfg Config, props *material.Table) (*Grid, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	g := &Grid{
		Columns:  cfg.Columns,
		Rows:     cfg.Rows,
		CellSize: cfg.CellSize,
		Cells:    make([]Cell, cfg.Columns*cfg.Rows),
		props:    props,
	}

	for y := 0; y < g.Rows; y++ {
		phase, temperature := regionOf(cfg, y)
		for x := 0; x < g.Columns; x++ {
			i := g.Index(x, y)
			g.Cells[i] = Cell{
				X:           x,
				Y:           y,
				Temperature: temperature,
				Phase:       phase,
				Boundary:    x == 0 || y == 0 || x == g.Columns-1 || y == g.Rows-1,
			}
		}
	}

	g.neighbors = make([][]int, len(g.Cells))
	for y := 0; y < g.Rows; y++ {
		for x := 0; x < g.Columns; x++ {
			i := g.Index(x, y)
			adj := make([]int, 0, 4)
			if x > 0 {
				adj = append(adj, g.Index(x-1, y))
			}
			if x < g.Columns-1 {
				adj = append(adj, g.Index(x+1, y))
			}
			if y > 0 {
				adj = append(adj, g.Index(x, y-1))
			}
			if y < g.Rows-1 {
				adj = append(adj, g.Index(x, y+1))
			}
			g.neighbors[i] = adj
		}
	}

	return g, nil
}

func regionOf(cfg Config, y int) (material.Phase, float32) {
	switch {
	case y < cfg.WaterRows:
		return material.Water, cfg.WaterTemperature
	case y < cfg.WaterRows+cfg.IceRows:
		return material.Ice, cfg.IceTemperature
	default:
		return material.Air, cfg.AirTemperature
	}
}

func (g *Grid) Index(x, y int) int {
	return y*g.Columns + x
}

func (g *Grid) Cell(i int) *Cell {
	return &g.Cells[i]
}

// Neighbors returns the fixed adjacency list built at construction.
func (g *Grid) Neighbors(i int) []int {
	return g.neighbors[i]
}

func (g *Grid) IsBoundary(i int) bool {
	return g.Cells[i].Boundary
}

// ExposedFaces is the number of faces a cell shares with the container wall.
// Corners touch two wall faces, edge cells one, interior cells none.
func (g *Grid) ExposedFaces(i int) int {
	return 4 - len(g.neighbors[i])
}

func (g *Grid) ForEach(f func(i int, c *Cell)) {
	for i := range g.Cells {
		f(i, &g.Cells[i])
	}
}

// CellVolume assumes unit depth, so the cross-section carries the full mass.
func (g *Grid) CellVolume() float32 {
	return g.CellSize * g.CellSize
}

func (g *Grid) Mass(c *Cell) float32 {
	return g.props.Lookup(c.Phase).Density * g.CellVolume()
}

// TotalEnthalpy is the conserved quantity under zero boundary flux:
// sensible heat plus stored latent energy over all cells.
func (g *Grid) TotalEnthalpy() float64 {
	var sum float64
	for i := range g.Cells {
		c := &g.Cells[i]
		pr := g.props.Lookup(c.Phase)
		sum += float64(g.Mass(c)) * float64(pr.SpecificHeat) * float64(c.Temperature)
		sum += float64(c.StoredLatent)
	}
	return sum
}

func (g *Grid) AverageTemperature() float32 {
	var sum float64
	for i := range g.Cells {
		sum += float64(g.Cells[i].Temperature)
	}
	return float32(sum / float64(len(g.Cells)))
}

func (g *Grid) CountPhase(p material.Phase) int {
	n := 0
	for i := range g.Cells {
		if g.Cells[i].Phase == p {
			n++
		}
	}
	return n
}
