package application_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aysen-hub/glpsim/internal/montecarlo/application"
	"github.com/aysen-hub/glpsim/internal/montecarlo/domain"
)

func TestCapacityLevel(t *testing.T) {
	assert.Equal(t, "Status Quo", application.CapacityLevel(431))
	assert.Equal(t, "Status Quo", application.CapacityLevel(450))
	assert.Equal(t, "Propuesta", application.CapacityLevel(681))
}

func TestDurationLevel(t *testing.T) {
	assert.Equal(t, "Corta", application.DurationLevel(7))
	assert.Equal(t, "Media", application.DurationLevel(14))
	assert.Equal(t, "Larga", application.DurationLevel(21))
}

func TestRunAnova_TooFewObservations_Precondition(t *testing.T) {
	obs := []application.FactorialObservation{
		{CapacityFactor: "Status Quo", DurationFactor: "Corta", Value: 90},
	}
	_, err := application.RunAnova(obs)
	assert.Error(t, err)
}

func TestRunAnova_SingleCapacityLevel_Precondition(t *testing.T) {
	obs := []application.FactorialObservation{
		{CapacityFactor: "Status Quo", DurationFactor: "Corta", Value: 90},
		{CapacityFactor: "Status Quo", DurationFactor: "Media", Value: 85},
		{CapacityFactor: "Status Quo", DurationFactor: "Larga", Value: 70},
		{CapacityFactor: "Status Quo", DurationFactor: "Corta", Value: 92},
	}
	_, err := application.RunAnova(obs)
	assert.Error(t, err)
}

func TestRunAnova_TwoFactorDesign_ProducesBothFactorRows(t *testing.T) {
	var obs []application.FactorialObservation
	cells := []struct {
		cap, dur string
		base     float64
	}{
		{"Status Quo", "Corta", 90}, {"Status Quo", "Media", 85}, {"Status Quo", "Larga", 70},
		{"Propuesta", "Corta", 98}, {"Propuesta", "Media", 95}, {"Propuesta", "Larga", 88},
	}
	for _, c := range cells {
		for i := 0; i < 5; i++ {
			obs = append(obs, application.FactorialObservation{
				CapacityFactor: c.cap,
				DurationFactor: c.dur,
				Value:          c.base + float64(i%3),
			})
		}
	}

	result, err := application.RunAnova(obs)
	require.NoError(t, err)
	require.Len(t, result.Factors, 2)
	assert.Equal(t, "capacity", result.Factors[0].Factor)
	assert.Equal(t, "disruption_duration", result.Factors[1].Factor)
	assert.Len(t, result.CellMeans, 6)
	// Propuesta cells have a clearly higher mean than Status Quo in this
	// fixture, so the capacity factor should show a large effect size.
	assert.Greater(t, result.Factors[0].EtaSquared, 0.1)
}

func TestObservationsFromReplicas_SkipsFailedAndUsesMetricFn(t *testing.T) {
	replicas := []domain.Replica{
		{Status: domain.StatusCompleted, Kpis: &domain.Kpis{ServiceLevelPct: 95}},
		{Status: domain.StatusFailed},
		{Status: domain.StatusCompleted, Kpis: &domain.Kpis{ServiceLevelPct: 80}},
	}
	obs := application.ObservationsFromReplicas(replicas, 431, 7, func(k domain.Kpis) float64 { return k.ServiceLevelPct })
	require.Len(t, obs, 2)
	assert.Equal(t, "Status Quo", obs[0].CapacityFactor)
	assert.Equal(t, "Corta", obs[0].DurationFactor)
	assert.Equal(t, 95.0, obs[0].Value)
}
