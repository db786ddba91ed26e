package solver

import (
	"math"
	"sync"
	"time"

	"bottle/material"

	log "github.com/sirupsen/logrus"
)

// Clamp envelope for detected instability. Far outside anything a bottle can
// reach, so a hit always means the scheme diverged.
const (
	minPlausible = -273.15
	maxPlausible = 1000.0
)

// Simulation owns the grid for the duration of a session. Step mutates cells
// in place and commits the whole tick under the mutex, so BuildData only ever
// observes fully committed state.
type Simulation struct {
	cfg   Config
	grid  *Grid
	props *material.Table

	deltaE []float32 // 每个单元本步的净能量变化，J
	e      *executor

	calcHub *CalcHub

	// runtime-adjustable, guarded by mu
	ambient   float32
	wallH     float32
	convWater float32
	convAir   float32
	timeScale float32

	tick        int64
	timeSeconds float32
	meltedCells int
	clampCount  int64
	unstable    int64

	closed bool
	mu     sync.Mutex
}

func NewSimulation(cfg Config) (*Simulation, error) {
	props := material.NewTable()
	for phase, overridden := range cfg.Overrides {
		props.Override(phase, overridden)
	}

	grid, err := NewGrid(cfg, props)
	if err != nil {
		return nil, err
	}

	s := &Simulation{
		cfg:       cfg,
		grid:      grid,
		props:     props,
		deltaE:    make([]float32, len(grid.Cells)),
		calcHub:   NewCalcHub(),
		ambient:   cfg.AmbientTemperature,
		wallH:     cfg.WallHeatTransfer,
		convWater: cfg.ConvectionWater,
		convAir:   cfg.ConvectionAir,
		timeScale: cfg.TimeScale,
	}
	s.e = newExecutor(cfg.Workers, len(grid.Cells))
	s.e.run(s)

	log.WithFields(log.Fields{
		"columns":  cfg.Columns,
		"rows":     cfg.Rows,
		"cellSize": cfg.CellSize,
		"ambient":  cfg.AmbientTemperature,
	}).Info("simulation session created")
	return s, nil
}

func (s *Simulation) Grid() *Grid {
	return s.grid
}

// Close releases the worker pool. Steps after Close are no-ops, so a still
// winding-down run loop cannot dispatch into closed channels.
func (s *Simulation) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.e.stop()
}

func (s *Simulation) GetCalcHub() *CalcHub {
	return s.calcHub
}

// timeStep returns a stable explicit step bounded by the most restrictive
// cell: dt <= safety · ρ·c·dx² / (sum of per-edge harmonic conductivities +
// exposed·h·dx). The denominator sums the coefficients the flux kernel will
// actually apply, which keeps the bound tight across phase interfaces where a
// low-k cell exchanges with convection-enhanced neighbors faster than its own
// conductivity suggests. A configured fixed step beyond the bound is clamped,
// counted and logged rather than allowed to diverge silently.
func (s *Simulation) timeStep() float32 {
	g := s.grid
	dx := g.CellSize
	min := float32(math.MaxFloat32)
	for i := range g.Cells {
		c := &g.Cells[i]
		pr := s.props.Lookup(c.Phase)
		ki := s.effectiveConductivity(c)
		var denom float32
		for _, j := range g.Neighbors(i) {
			denom += harmonicMean(ki, s.effectiveConductivity(g.Cell(j)))
		}
		if c.Boundary {
			denom += float32(g.ExposedFaces(i)) * s.wallH * dx
		}
		if denom == 0 {
			continue
		}
		dt := s.cfg.CFLSafety * pr.Density * pr.SpecificHeat * dx * dx / denom
		if dt < min {
			min = dt
		}
	}

	if s.cfg.FixedStep > 0 && s.cfg.FixedStep > min {
		s.clampCount++
		if s.clampCount == 1 || s.clampCount%1000 == 0 {
			log.WithFields(log.Fields{
				"fixedStep": s.cfg.FixedStep,
				"bound":     min,
				"clamps":    s.clampCount,
			}).Warn("fixed timestep violates stability bound, clamped")
		}
		return min
	}
	if s.cfg.FixedStep > 0 {
		return s.cfg.FixedStep
	}
	return min
}

// Step advances the field by one tick:
//  1. stable dt
//  2. boundary + conduction energy deltas, accumulated without applying
//  3. delta -> temperature, latent routing for melting-point ice
//  4. phase transitions
//  5. commit (all of the above happens under the field mutex)
//
// The returned error reports a clamped instability; the session stays usable.
func (s *Simulation) Step() (float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, nil
	}

	deltaT := s.timeStep()

	for i := range s.deltaE {
		s.deltaE[i] = 0
	}
	s.e.dispatch(s, deltaT)

	for i := range s.grid.Cells {
		s.applyEnergy(i, s.deltaE[i])
	}

	var err error
	for i := range s.grid.Cells {
		c := &s.grid.Cells[i]
		t := float64(c.Temperature)
		if math.IsNaN(t) || math.IsInf(t, 0) || t < minPlausible || t > maxPlausible {
			clamped := float32(math.Min(math.Max(t, minPlausible), maxPlausible))
			if math.IsNaN(t) {
				clamped = s.ambient
			}
			c.Temperature = clamped
			s.unstable++
			err = ErrNumericalInstability
		}
	}
	if err != nil {
		log.WithFields(log.Fields{
			"tick":      s.tick,
			"instances": s.unstable,
		}).Warn("numerical instability detected, temperatures clamped")
	}

	s.tick++
	s.timeSeconds += deltaT
	return deltaT, err
}

// 两次 tick 之间应用的运行期参数修改，无需重建网格

func (s *Simulation) SetAmbientTemperature(t float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ambient = t
	log.WithFields(log.Fields{"ambient": t}).Info("ambient temperature set")
}

func (s *Simulation) SetWallHeatTransfer(h float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wallH = h
	log.WithFields(log.Fields{"wallHeatTransfer": h}).Info("wall heat transfer set")
}

func (s *Simulation) SetConvectionMultipliers(water, air float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if water > 0 {
		s.convWater = water
	}
	if air > 0 {
		s.convAir = air
	}
	log.WithFields(log.Fields{"water": s.convWater, "air": s.convAir}).Info("convection multipliers set")
}

// SetFillTemperatures resets the initial region temperatures. Only honoured
// before the first tick; once the field has evolved the fill is history. Zero
// keeps the configured value, matching the partial-update convention of Env.
func (s *Simulation) SetFillTemperatures(ice, water, air float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tick != 0 {
		log.WithFields(log.Fields{"tick": s.tick}).Warn("fill temperatures ignored after start")
		return
	}
	if ice != 0 {
		s.cfg.IceTemperature = ice
	}
	if water != 0 {
		s.cfg.WaterTemperature = water
	}
	if air != 0 {
		s.cfg.AirTemperature = air
	}
	for i := range s.grid.Cells {
		c := &s.grid.Cells[i]
		_, temperature := regionOf(s.cfg, c.Y)
		c.Temperature = temperature
	}
	log.WithFields(log.Fields{
		"ice":   s.cfg.IceTemperature,
		"water": s.cfg.WaterTemperature,
		"air":   s.cfg.AirTemperature,
	}).Info("fill temperatures set")
}

func (s *Simulation) SetTimeScale(scale float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if scale <= 0 {
		scale = 1
	}
	s.timeScale = scale
	log.WithFields(log.Fields{"timeScale": scale}).Info("time scale set")
}

type Diagnostics struct {
	Tick        int64
	TimeSeconds float32
	MeltedCells int
	ClampCount  int64
	Instability int64
}

func (s *Simulation) Diag() Diagnostics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Diagnostics{
		Tick:        s.tick,
		TimeSeconds: s.timeSeconds,
		MeltedCells: s.meltedCells,
		ClampCount:  s.clampCount,
		Instability: s.unstable,
	}
}

const (
	tickPacing = 25 * time.Millisecond
	pushPeriod = 500 * time.Millisecond
)

// Run steps the simulation until the hub receives a stop signal, pacing ticks
// against wall clock and signalling the push side periodically.
func (s *Simulation) Run() {
	lastPush := time.Now()
LOOP:
	for {
		select {
		case <-s.calcHub.Stop:
			break LOOP
		default:
			if _, err := s.Step(); err != nil {
				log.WithFields(log.Fields{"err": err}).Warn("step reported instability")
			}
			s.mu.Lock()
			scale := s.timeScale
			s.mu.Unlock()
			time.Sleep(time.Duration(float32(tickPacing) / scale))
			if time.Since(lastPush) >= pushPeriod {
				s.calcHub.PushSignal()
				lastPush = time.Now()
			}
		}
	}
}
