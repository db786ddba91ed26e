package solver

import (
	"errors"
	"math"
	"testing"

	"bottle/material"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func airOnlyConfig() Config {
	cfg := testConfig()
	cfg.Columns = 4
	cfg.Rows = 4
	cfg.WaterRows = 0
	cfg.IceRows = 0
	cfg.AirRows = 4
	cfg.AirTemperature = 0
	return cfg
}

func TestEquilibriumAtAmbient(t *testing.T) {
	cfg := airOnlyConfig()
	cfg.AmbientTemperature = 0
	s, err := NewSimulation(cfg)
	require.NoError(t, err)
	defer s.Close()

	for i := 0; i < 100; i++ {
		_, err := s.Step()
		require.NoError(t, err)
	}
	// zero flux everywhere, steady state from tick one
	for i := range s.grid.Cells {
		assert.Equal(t, float32(0), s.grid.Cells[i].Temperature)
	}
}

func TestBoundaryConvergenceToAmbient(t *testing.T) {
	cfg := airOnlyConfig()
	cfg.AmbientTemperature = 25
	s, err := NewSimulation(cfg)
	require.NoError(t, err)
	defer s.Close()

	prev := s.grid.AverageTemperature()
	for i := 0; i < 2000; i++ {
		_, err := s.Step()
		require.NoError(t, err)
		avg := s.grid.AverageTemperature()
		if avg < prev-1e-4 {
			t.Fatalf("tick %d: average temperature fell from %v to %v while heating", i, prev, avg)
		}
		if avg > cfg.AmbientTemperature+1e-3 {
			t.Fatalf("tick %d: overshoot past ambient: %v", i, avg)
		}
		prev = avg
	}

	for i := range s.grid.Cells {
		assert.InDelta(t, float64(cfg.AmbientTemperature), float64(s.grid.Cells[i].Temperature), 0.5)
	}
}

func TestFixedStepClampedToStabilityBound(t *testing.T) {
	cfg := airOnlyConfig()
	cfg.AmbientTemperature = 25
	cfg.FixedStep = 1000 // far beyond any CFL bound for this grid
	s, err := NewSimulation(cfg)
	require.NoError(t, err)
	defer s.Close()

	for i := 0; i < 50; i++ {
		dt, err := s.Step()
		require.NoError(t, err)
		assert.Less(t, float64(dt), 1000.0)
	}

	assert.Greater(t, s.Diag().ClampCount, int64(0))
	for i := range s.grid.Cells {
		tv := float64(s.grid.Cells[i].Temperature)
		require.False(t, math.IsNaN(tv) || math.IsInf(tv, 0))
		assert.LessOrEqual(t, tv, 25.0+1e-3)
	}
}

func TestFixedStepWithinBoundIsUsed(t *testing.T) {
	cfg := airOnlyConfig()
	cfg.FixedStep = 1e-4
	s, err := NewSimulation(cfg)
	require.NoError(t, err)
	defer s.Close()

	dt, err := s.Step()
	require.NoError(t, err)
	assert.Equal(t, float32(1e-4), dt)
	assert.Equal(t, int64(0), s.Diag().ClampCount)
}

func TestInstabilityDetectedAndClamped(t *testing.T) {
	cfg := airOnlyConfig()
	s, err := NewSimulation(cfg)
	require.NoError(t, err)
	defer s.Close()

	s.grid.Cell(5).Temperature = float32(math.NaN())

	_, err = s.Step()
	require.True(t, errors.Is(err, ErrNumericalInstability))
	assert.Greater(t, s.Diag().Instability, int64(0))

	// the grid is usable again: clamped, finite, and the next step is clean
	// once the poisoned values have been replaced
	for i := range s.grid.Cells {
		tv := float64(s.grid.Cells[i].Temperature)
		require.False(t, math.IsNaN(tv) || math.IsInf(tv, 0))
	}
}

func TestLiveAmbientChange(t *testing.T) {
	cfg := airOnlyConfig()
	cfg.AmbientTemperature = 0
	s, err := NewSimulation(cfg)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Step()
	require.NoError(t, err)
	assert.Equal(t, float32(0), s.grid.AverageTemperature())

	s.SetAmbientTemperature(25)
	for i := 0; i < 10; i++ {
		_, err := s.Step()
		require.NoError(t, err)
	}
	assert.Greater(t, float64(s.grid.AverageTemperature()), 0.0)
}

func TestTimeStepTightAcrossInterface(t *testing.T) {
	cfg := testConfig()
	cfg.Columns = 3
	cfg.Rows = 3
	cfg.WaterRows = 3
	cfg.IceRows = 0
	cfg.AirRows = 0
	cfg.WallHeatTransfer = 0
	s, err := NewSimulation(cfg)
	require.NoError(t, err)
	defer s.Close()

	// a low-conductivity pocket surrounded by convection-enhanced water
	center := s.grid.Cell(s.grid.Index(1, 1))
	center.Phase = material.Air
	center.Temperature = 0

	air := s.props.Lookup(material.Air)
	water := s.props.Lookup(material.Water)
	kH := harmonicMean(air.Conductivity*cfg.ConvectionAir, water.Conductivity*cfg.ConvectionWater)
	dx := cfg.CellSize
	want := cfg.CFLSafety * air.Density * air.SpecificHeat * dx * dx / (4 * kH)

	dt := s.timeStep()
	assert.InDelta(t, float64(want), float64(dt), float64(want)*1e-5)

	// the cell's own conductivity alone would under-restrict across the edges
	loose := cfg.CFLSafety * air.Density * air.SpecificHeat * dx * dx / (4 * air.Conductivity * cfg.ConvectionAir)
	assert.Less(t, float64(dt), float64(loose))
}

func TestFullSafetyStableAcrossInterfaces(t *testing.T) {
	cfg := testConfig()
	cfg.CFLSafety = 1.0
	s, err := NewSimulation(cfg)
	require.NoError(t, err)
	defer s.Close()

	for i := 0; i < 1500; i++ {
		_, err := s.Step()
		require.NoError(t, err)
	}
	// every update is a convex combination, so the field stays inside the
	// envelope of the initial temperatures and ambient
	for i := range s.grid.Cells {
		tv := float64(s.grid.Cells[i].Temperature)
		assert.GreaterOrEqual(t, tv, -5.01)
		assert.LessOrEqual(t, tv, 25.01)
	}
}

func TestFillTemperaturesBeforeStart(t *testing.T) {
	s, err := NewSimulation(testConfig())
	require.NoError(t, err)
	defer s.Close()

	s.SetFillTemperatures(-20, 0, 0)
	for i := range s.grid.Cells {
		c := &s.grid.Cells[i]
		switch c.Phase {
		case material.Ice:
			assert.Equal(t, float32(-20), c.Temperature)
		case material.Water:
			assert.Equal(t, float32(5), c.Temperature, "zero must keep the configured water fill")
		}
	}

	_, err = s.Step()
	require.NoError(t, err)
	before := s.grid.Cell(0).Temperature
	s.SetFillTemperatures(3, 3, 3)
	assert.Equal(t, before, s.grid.Cell(0).Temperature, "fill temperatures must not reset a running field")
}

func TestDiagAdvances(t *testing.T) {
	s, err := NewSimulation(testConfig())
	require.NoError(t, err)
	defer s.Close()

	for i := 0; i < 5; i++ {
		_, err := s.Step()
		require.NoError(t, err)
	}
	d := s.Diag()
	assert.Equal(t, int64(5), d.Tick)
	assert.Greater(t, float64(d.TimeSeconds), 0.0)
}
