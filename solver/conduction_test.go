package solver

import (
	"math"
	"testing"

	"bottle/material"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHarmonicMean(t *testing.T) {
	assert.Equal(t, float32(2.0), harmonicMean(2, 2))
	assert.Equal(t, float32(1.5), harmonicMean(1, 3))
	assert.Equal(t, float32(0.0), harmonicMean(0, 5))
}

func TestEffectiveConductivity(t *testing.T) {
	cfg := testConfig()
	cfg.ConvectionWater = 40
	cfg.ConvectionAir = 25
	s, err := NewSimulation(cfg)
	require.NoError(t, err)
	defer s.Close()

	ice := &Cell{Phase: material.Ice}
	water := &Cell{Phase: material.Water}
	air := &Cell{Phase: material.Air}

	// fluid phases are scaled, the solid is not
	assert.InDelta(t, 2.22, float64(s.effectiveConductivity(ice)), 1e-6)
	assert.InDelta(t, 0.6*40, float64(s.effectiveConductivity(water)), 1e-4)
	assert.InDelta(t, 0.026*25, float64(s.effectiveConductivity(air)), 1e-5)
}

func TestPairwiseFluxSymmetric(t *testing.T) {
	cfg := testConfig()
	cfg.Columns = 2
	cfg.Rows = 1
	cfg.WaterRows = 1
	cfg.IceRows = 0
	cfg.AirRows = 0
	cfg.WallHeatTransfer = 0 // insulated, conduction only
	s, err := NewSimulation(cfg)
	require.NoError(t, err)
	defer s.Close()

	s.grid.Cell(0).Temperature = 10
	s.grid.Cell(1).Temperature = 0

	_, err = s.Step()
	require.NoError(t, err)

	c0 := s.grid.Cell(0)
	c1 := s.grid.Cell(1)
	assert.Less(t, float64(c0.Temperature), 10.0)
	assert.Greater(t, float64(c1.Temperature), 0.0)
	// equal masses, so what one cell loses the other gains
	assert.InDelta(t, 10.0-float64(c0.Temperature), float64(c1.Temperature), 1e-4)
}

func TestUniformFieldHasNoFlux(t *testing.T) {
	cfg := testConfig()
	cfg.WaterTemperature = 3
	cfg.IceTemperature = 3
	cfg.AirTemperature = 3
	cfg.WallHeatTransfer = 0
	s, err := NewSimulation(cfg)
	require.NoError(t, err)
	defer s.Close()

	for i := 0; i < 50; i++ {
		_, err := s.Step()
		require.NoError(t, err)
	}
	for i := range s.grid.Cells {
		assert.Equal(t, float32(3), s.grid.Cells[i].Temperature)
	}
}

func TestConservationWithoutBoundaryFlux(t *testing.T) {
	cfg := testConfig()
	cfg.IceRows = 0
	cfg.WaterRows = 4
	cfg.AirRows = 2
	cfg.WaterTemperature = 8
	cfg.AirTemperature = 2
	cfg.WallHeatTransfer = 0
	s, err := NewSimulation(cfg)
	require.NoError(t, err)
	defer s.Close()

	before := s.grid.TotalEnthalpy()
	for i := 0; i < 200; i++ {
		_, err := s.Step()
		require.NoError(t, err)
	}
	after := s.grid.TotalEnthalpy()

	require.False(t, math.IsNaN(after))
	assert.InEpsilon(t, before, after, 1e-3, "enthalpy drifted: %v -> %v", before, after)
}
