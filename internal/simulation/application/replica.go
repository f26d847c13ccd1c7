// Package application hosts the replica driver: the pure wrapper that turns
// one SimulationConfig and a seed into a finished KPI record.
package application

import (
	"time"

	"github.com/aysen-hub/glpsim/internal/simulation/domain"
	"github.com/aysen-hub/glpsim/pkg/apperr"
)

// ReplicaStatus mirrors the lifecycle a single replica can reach.
type ReplicaStatus string

const (
	ReplicaCompleted ReplicaStatus = "completed"
	ReplicaFailed    ReplicaStatus = "failed"
)

// ReplicaResult is what the driver hands back to whatever scheduled it: the
// montecarlo executor, the factorial sweep CLI, or the single-run HTTP
// handler.
type ReplicaResult struct {
	ReplicaIndex     int
	Status           ReplicaStatus
	Kpis             *domain.Kpis
	TimeSeries       []domain.DailyMetrics
	ErrorMessage     string
	WallClockSeconds float64
}

// RunReplica constructs a fresh simulation from cfg, runs it to completion,
// and reduces the result to KPIs. cfg.Seed is used as-is — the caller (the
// montecarlo executor or the factorial CLI) is responsible for deriving a
// seed per replica; this function never invents one.
//
// It is side-effect-free beyond timing: no shared state, no package-level
// RNG, no I/O. A replica can only fail by way of an invalid configuration
// reaching this call, which is reported as a failed result rather than a
// panic, per the kernel's failure semantics.
func RunReplica(cfg domain.Config, replicaIndex int, keepTimeSeries bool) ReplicaResult {
	start := time.Now()

	if _, err := cfg.Validate(); err != nil {
		return ReplicaResult{
			ReplicaIndex:     replicaIndex,
			Status:           ReplicaFailed,
			ErrorMessage:     apperr.Replica(err).Error(),
			WallClockSeconds: time.Since(start).Seconds(),
		}
	}

	sim := domain.NewSimulation(cfg)
	days := sim.Run()

	kpis := domain.ComputeKpis(
		days,
		cfg.InitialInventoryTM,
		sim.FinalInventory(),
		sim.TotalReceived(),
		sim.TotalDispatched(),
		sim.TotalBlockedDays(),
		sim.TotalDisruptions(),
	)

	result := ReplicaResult{
		ReplicaIndex:     replicaIndex,
		Status:           ReplicaCompleted,
		Kpis:             &kpis,
		WallClockSeconds: time.Since(start).Seconds(),
	}
	if keepTimeSeries {
		result.TimeSeries = days
	}
	return result
}

// MonteCarloSeed derives the seed for replica i of a Monte Carlo experiment
// per the HTTP driver's convention: seed_i = seed_base*K + i, K=100000. K
// bounds the maximum N ever supported (100000, per the executor's admission
// range) so replicas never collide in seed space.
const MonteCarloSeedK = 100000

func MonteCarloSeed(seedBase uint64, replicaIndex int) uint64 {
	return seedBase*MonteCarloSeedK + uint64(replicaIndex)
}

// FactorialSeed derives the seed for replica `replica` of factorial cell
// `configID`, per the factorial-sweep driver's convention: seed_base +
// (config_id-1)*10^6 + replica.
func FactorialSeed(seedBase uint64, configID, replica int) uint64 {
	return seedBase + uint64(configID-1)*1_000_000 + uint64(replica)
}
