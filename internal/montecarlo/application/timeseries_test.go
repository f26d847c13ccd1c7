package application_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aysen-hub/glpsim/internal/montecarlo/application"
)

func TestRunSeriesTemporales_RejectsOutOfRangeSampleCount(t *testing.T) {
	cfg := validExecutorConfig()
	_, err := application.RunSeriesTemporales(cfg, 7, 0)
	assert.Error(t, err)

	_, err = application.RunSeriesTemporales(cfg, 7, application.MaxSeriesSamples+1)
	assert.Error(t, err)
}

func TestRunSeriesTemporales_OneStatPerSimulatedDay(t *testing.T) {
	cfg := validExecutorConfig()
	series, err := application.RunSeriesTemporales(cfg, 7, 5)
	require.NoError(t, err)
	assert.Len(t, series, cfg.SimulationDays)

	first := series[0]
	assert.Equal(t, 0, first.Day)
	assert.GreaterOrEqual(t, first.InventoryP95TM, first.InventoryP5TM)
	assert.GreaterOrEqual(t, first.InventoryP75TM, first.InventoryP25TM)
	assert.GreaterOrEqual(t, first.StockoutProbabilityPct, 0.0)
	assert.LessOrEqual(t, first.StockoutProbabilityPct, 100.0)
	assert.GreaterOrEqual(t, first.RouteBlockedProbabilityPct, 0.0)
	assert.LessOrEqual(t, first.RouteBlockedProbabilityPct, 100.0)
}

func TestRunSeriesTemporales_IsDeterministicForSameSeedBase(t *testing.T) {
	cfg := validExecutorConfig()
	a, err := application.RunSeriesTemporales(cfg, 42, 10)
	require.NoError(t, err)
	b, err := application.RunSeriesTemporales(cfg, 42, 10)
	require.NoError(t, err)

	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].InventoryMeanTM, b[i].InventoryMeanTM)
		assert.Equal(t, a[i].StockoutProbabilityPct, b[i].StockoutProbabilityPct)
	}
}

func TestRunSeriesTemporales_RejectsInvalidConfig(t *testing.T) {
	cfg := validExecutorConfig()
	cfg.CapacityTM = -1
	_, err := application.RunSeriesTemporales(cfg, 7, 5)
	assert.Error(t, err)
}
