package application_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aysen-hub/glpsim/internal/simulation/application"
	"github.com/aysen-hub/glpsim/internal/simulation/domain"
)

func validConfig() domain.Config {
	return domain.Config{
		CapacityTM:           431.0,
		ReorderPointTM:       216.0,
		OrderQuantityTM:      216.0,
		InitialInventoryTM:   258.0,
		BaseDailyDemandTM:    52.5,
		DemandVariability:    0.15,
		SeasonalAmplitude:    0.10,
		SeasonalPeakDay:      200,
		UseSeasonality:       true,
		NominalLeadTimeDays:  6.0,
		AnnualDisruptionRate: 4.0,
		DisruptionMinDays:    3.0,
		DisruptionModeDays:   7.0,
		DisruptionMaxDays:    21.0,
		SimulationDays:       90,
		Seed:                 42,
	}
}

func TestRunReplica_CompletedHasKpisNoTimeSeriesByDefault(t *testing.T) {
	result := application.RunReplica(validConfig(), 1, false)
	require.Equal(t, application.ReplicaCompleted, result.Status)
	require.NotNil(t, result.Kpis)
	assert.Nil(t, result.TimeSeries)
	assert.Equal(t, 90, result.Kpis.SimulatedDays)
}

func TestRunReplica_KeepsTimeSeriesWhenRequested(t *testing.T) {
	result := application.RunReplica(validConfig(), 1, true)
	require.Equal(t, application.ReplicaCompleted, result.Status)
	assert.Len(t, result.TimeSeries, 90)
}

func TestRunReplica_InvalidConfigFails(t *testing.T) {
	cfg := validConfig()
	cfg.CapacityTM = -1
	result := application.RunReplica(cfg, 3, false)
	assert.Equal(t, application.ReplicaFailed, result.Status)
	assert.Nil(t, result.Kpis)
	assert.NotEmpty(t, result.ErrorMessage)
}

func TestMonteCarloSeed_IsStableAndDistinct(t *testing.T) {
	assert.Equal(t, uint64(42)*application.MonteCarloSeedK+1, application.MonteCarloSeed(42, 1))
	assert.NotEqual(t, application.MonteCarloSeed(42, 1), application.MonteCarloSeed(42, 2))
	assert.NotEqual(t, application.MonteCarloSeed(42, 1), application.MonteCarloSeed(7, 1))
}

func TestFactorialSeed_CellsNeverCollide(t *testing.T) {
	seen := make(map[uint64]bool)
	for configID := 1; configID <= 6; configID++ {
		for replica := 1; replica <= 30; replica++ {
			seed := application.FactorialSeed(42, configID, replica)
			assert.False(t, seen[seed], "seed collision at config=%d replica=%d", configID, replica)
			seen[seed] = true
		}
	}
}
