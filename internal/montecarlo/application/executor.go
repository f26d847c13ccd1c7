// Package application hosts the experiment executor: the bounded worker
// pool that drives N independent simulation replicas to completion, reports
// progress, and aggregates their KPIs.
package application

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	simapp "github.com/aysen-hub/glpsim/internal/simulation/application"
	simdomain "github.com/aysen-hub/glpsim/internal/simulation/domain"
	"github.com/aysen-hub/glpsim/internal/montecarlo/domain"
	"github.com/aysen-hub/glpsim/pkg/apperr"
	"github.com/aysen-hub/glpsim/pkg/logger"
	"github.com/aysen-hub/glpsim/pkg/metrics"
)

const (
	MinReplicas = 100
	MaxReplicas = 100000
	MinWorkers  = 1
	MaxWorkers  = 16
)

// StartRequest is the admission-time input for a new experiment.
type StartRequest struct {
	ConfigurationID uint
	Config          simdomain.Config
	NumReplicas     int
	MaxWorkersCap   int
	Name            string
	SeedBase        uint64
}

// Validate enforces the admission bounds from the experiment's lifecycle
// contract: N and W out of range are rejected before anything is persisted.
func (r StartRequest) Validate() error {
	if r.NumReplicas < MinReplicas || r.NumReplicas > MaxReplicas {
		return apperr.Validation("num_replicas must be in [%d,%d], got %d", MinReplicas, MaxReplicas, r.NumReplicas)
	}
	if r.MaxWorkersCap < MinWorkers || r.MaxWorkersCap > MaxWorkers {
		return apperr.Validation("max_workers must be in [%d,%d], got %d", MinWorkers, MaxWorkers, r.MaxWorkersCap)
	}
	if len(r.Name) > 200 {
		return apperr.Validation("nombre must be at most 200 characters")
	}
	return nil
}

// Executor runs experiments against a bounded worker pool. One Executor may
// drive many experiments concurrently; each experiment gets its own pool of
// at most MaxWorkersCap goroutines.
type Executor struct {
	repo    domain.ExperimentRepository
	configs domain.ConfigurationExistence
	metrics *metrics.Metrics

	mu        sync.Mutex
	cancelFns map[uint]context.CancelFunc
}

// NewExecutor wires the executor to its persistence, configuration, and
// metrics collaborators. m may be nil in tests that don't care about
// instrumentation.
func NewExecutor(repo domain.ExperimentRepository, configs domain.ConfigurationExistence, m *metrics.Metrics) *Executor {
	return &Executor{
		repo:      repo,
		configs:   configs,
		metrics:   m,
		cancelFns: make(map[uint]context.CancelFunc),
	}
}

// Repo exposes the executor's experiment repository for read-only query
// endpoints (list/get/progress/replicas) that do not need to go through the
// executor itself.
func (e *Executor) Repo() domain.ExperimentRepository {
	return e.repo
}

// Start admits req, persists a pending experiment, and launches its replica
// pool in the background. It returns as soon as the experiment record
// exists; it never blocks on replica completion.
func (e *Executor) Start(ctx context.Context, req StartRequest) (*domain.Experiment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	exists, err := e.configs.Exists(ctx, req.ConfigurationID)
	if err != nil {
		return nil, apperr.Executor("checking configuration existence: %v", err)
	}
	if !exists {
		return nil, apperr.NotFound("configuration %d not found", req.ConfigurationID)
	}

	now := time.Now()
	exp := &domain.Experiment{
		ConfigurationID: req.ConfigurationID,
		Name:            req.Name,
		NumReplicas:     req.NumReplicas,
		MaxWorkers:      req.MaxWorkersCap,
		Status:          domain.StatusPending,
		StartedAt:       &now,
	}
	if err := e.repo.Save(ctx, exp); err != nil {
		return nil, apperr.Executor("persisting new experiment: %v", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	e.mu.Lock()
	e.cancelFns[exp.ID] = cancel
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.ExperimentsStarted.Inc()
		e.metrics.ExperimentsActive.Inc()
	}

	go e.run(runCtx, exp.ID, req)

	return exp, nil
}

// Cancel transitions a running experiment to failed and releases its pool.
// It is a no-op error (precondition) if the experiment is already terminal.
func (e *Executor) Cancel(ctx context.Context, experimentID uint, reason string) error {
	e.mu.Lock()
	cancel, ok := e.cancelFns[experimentID]
	e.mu.Unlock()
	if !ok {
		return apperr.Precondition("experiment %d is not running", experimentID)
	}

	if err := e.repo.UpdateStatus(ctx, experimentID, domain.StatusFailed, reason); err != nil {
		return apperr.Executor("recording cancellation: %v", err)
	}
	if e.metrics != nil {
		e.metrics.ExperimentsFailed.Inc()
	}
	cancel()

	e.mu.Lock()
	delete(e.cancelFns, experimentID)
	e.mu.Unlock()
	return nil
}

// run drives one experiment's replica pool to completion or cancellation.
// It is the only writer to this experiment's persisted state for the
// lifetime of the run.
func (e *Executor) run(ctx context.Context, experimentID uint, req StartRequest) {
	defer func() {
		e.mu.Lock()
		delete(e.cancelFns, experimentID)
		e.mu.Unlock()
		if e.metrics != nil {
			e.metrics.ExperimentsActive.Dec()
		}
	}()

	if err := e.repo.UpdateStatus(context.Background(), experimentID, domain.StatusRunning, ""); err != nil {
		logger.Error(ctx, "failed to mark experiment running", "experiment_id", experimentID, "error", err)
		return
	}

	sem := make(chan struct{}, req.MaxWorkersCap)
	var wg sync.WaitGroup

	var (
		mu        sync.Mutex
		done      int
		cancelled bool
	)

	for i := 1; i <= req.NumReplicas; i++ {
		select {
		case <-ctx.Done():
			cancelled = true
		default:
		}
		if cancelled {
			break
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(replicaIndex int) {
			defer wg.Done()
			defer func() { <-sem }()

			cfg := req.Config.WithSeed(simapp.MonteCarloSeed(req.SeedBase, replicaIndex))
			result := simapp.RunReplica(cfg, replicaIndex, false)

			select {
			case <-ctx.Done():
				return
			default:
			}

			replica := toDomainReplica(experimentID, cfg.Seed, result)
			if err := e.repo.AppendReplica(context.Background(), experimentID, replica); err != nil {
				logger.Error(ctx, "failed to persist replica", "experiment_id", experimentID, "replica_index", replicaIndex, "error", err)
				return
			}

			if e.metrics != nil {
				e.metrics.ReplicaDuration.Observe(result.WallClockSeconds)
				if replica.Status == domain.StatusCompleted {
					e.metrics.RepliasCompletedTotal.Inc()
				} else {
					e.metrics.ReplicaFailedTotal.Inc()
				}
			}

			// Progress writes are serialized behind mu: the executor is this
			// experiment's single writer, so no two replica goroutines ever
			// race to persist progress_pct and a later, lower done-count can
			// never be written after a higher one.
			mu.Lock()
			done++
			pct := int(math.Floor(100 * float64(done) / float64(req.NumReplicas)))
			if err := e.repo.UpdateProgress(context.Background(), experimentID, pct); err != nil {
				logger.Error(ctx, "failed to update progress", "experiment_id", experimentID, "error", err)
			}
			mu.Unlock()
		}(i)
	}

	wg.Wait()

	if cancelled {
		return // Cancel already recorded the terminal status; nothing more to write.
	}

	e.aggregate(context.Background(), experimentID)
}

// aggregate recomputes descriptive statistics over every completed replica
// and marks the experiment completed. Called once, after the last replica
// in a non-cancelled run finishes.
func (e *Executor) aggregate(ctx context.Context, experimentID uint) {
	exp, err := e.repo.GetByID(ctx, experimentID)
	if err != nil {
		logger.Error(ctx, "failed to load experiment for aggregation", "experiment_id", experimentID, "error", err)
		return
	}

	agg := Aggregate(exp.Replicas)

	duration := 0.0
	if exp.StartedAt != nil {
		duration = time.Since(*exp.StartedAt).Seconds()
	}

	if err := e.repo.SaveAggregate(ctx, experimentID, agg, duration); err != nil {
		logger.Error(ctx, "failed to save aggregate", "experiment_id", experimentID, "error", err)
		if uerr := e.repo.UpdateStatus(ctx, experimentID, domain.StatusFailed, "saving aggregate: "+err.Error()); uerr != nil {
			logger.Error(ctx, "failed to mark experiment failed", "experiment_id", experimentID, "error", uerr)
		}
		if e.metrics != nil {
			e.metrics.ExperimentsFailed.Inc()
		}
		return
	}
	// Force progress to 100 on completion: the last per-replica update is
	// not guaranteed to have been the done==N one if any replica's KPI
	// persistence failed and skipped its progress write.
	if err := e.repo.UpdateProgress(ctx, experimentID, 100); err != nil {
		logger.Error(ctx, "failed to force progress to 100 on completion", "experiment_id", experimentID, "error", err)
	}
	if err := e.repo.UpdateStatus(ctx, experimentID, domain.StatusCompleted, ""); err != nil {
		logger.Error(ctx, "failed to mark experiment completed", "experiment_id", experimentID, "error", err)
		return
	}
	if e.metrics != nil {
		e.metrics.ExperimentsCompleted.Inc()
	}
}

func toDomainReplica(experimentID uint, seed uint64, result simapp.ReplicaResult) *domain.Replica {
	r := &domain.Replica{
		ExperimentID:   experimentID,
		ReplicaIndex:   result.ReplicaIndex,
		Seed:           seed,
		DurationSecond: result.WallClockSeconds,
	}
	switch result.Status {
	case simapp.ReplicaCompleted:
		r.Status = domain.StatusCompleted
		r.Kpis = &domain.Kpis{
			ServiceLevelPct:        result.Kpis.ServiceLevelPct,
			StockoutProbabilityPct: result.Kpis.StockoutProbabilityPct,
			StockoutDays:           result.Kpis.StockoutDays,
			AvgInventoryTM:         result.Kpis.AvgInventoryTM,
			MinInventoryTM:         result.Kpis.MinInventoryTM,
			AvgAutonomyDays:        result.Kpis.AvgAutonomyDays,
			UnsatisfiedDemandTM:    result.Kpis.UnsatisfiedDemandTM,
			TotalDisruptions:       result.Kpis.TotalDisruptions,
		}
	default:
		r.Status = domain.StatusFailed
		r.ErrorMessage = result.ErrorMessage
	}
	return r
}

// Aggregate computes mean/std/min/max/p25/p50/p75/p95 for every persisted
// KPI field across completed replicas only, skipping the field entirely
// when no replica completed (testable property: aggregation correctness).
func Aggregate(replicas []domain.Replica) map[string]domain.AggregateStat {
	fields := map[string][]float64{
		"service_level_pct":         nil,
		"stockout_probability_pct":  nil,
		"stockout_days":             nil,
		"avg_inventory_tm":          nil,
		"min_inventory_tm":          nil,
		"avg_autonomy_days":         nil,
		"unsatisfied_demand_tm":     nil,
		"total_disruptions":         nil,
	}

	for _, r := range replicas {
		if r.Status != domain.StatusCompleted || r.Kpis == nil {
			continue
		}
		fields["service_level_pct"] = append(fields["service_level_pct"], r.Kpis.ServiceLevelPct)
		fields["stockout_probability_pct"] = append(fields["stockout_probability_pct"], r.Kpis.StockoutProbabilityPct)
		fields["stockout_days"] = append(fields["stockout_days"], float64(r.Kpis.StockoutDays))
		fields["avg_inventory_tm"] = append(fields["avg_inventory_tm"], r.Kpis.AvgInventoryTM)
		fields["min_inventory_tm"] = append(fields["min_inventory_tm"], r.Kpis.MinInventoryTM)
		fields["avg_autonomy_days"] = append(fields["avg_autonomy_days"], r.Kpis.AvgAutonomyDays)
		fields["unsatisfied_demand_tm"] = append(fields["unsatisfied_demand_tm"], r.Kpis.UnsatisfiedDemandTM)
		fields["total_disruptions"] = append(fields["total_disruptions"], float64(r.Kpis.TotalDisruptions))
	}

	out := make(map[string]domain.AggregateStat, len(fields))
	for name, values := range fields {
		if len(values) == 0 {
			continue
		}
		out[name] = describeStat(values)
	}
	return out
}

func describeStat(values []float64) domain.AggregateStat {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	n := float64(len(sorted))
	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / n

	var sumSq float64
	for _, v := range sorted {
		d := v - mean
		sumSq += d * d
	}
	std := math.Sqrt(sumSq / n)

	return domain.AggregateStat{
		Mean: mean,
		Std:  std,
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		P25:  percentile(sorted, 0.25),
		P50:  percentile(sorted, 0.50),
		P75:  percentile(sorted, 0.75),
		P95:  percentile(sorted, 0.95),
	}
}

// percentile computes the linear-interpolation percentile of a pre-sorted
// slice, matching the common "R-7" / numpy-default convention.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// EstimatedRemainingSeconds implements the progress endpoint's ETA formula:
// elapsed * (N-done)/done, valid only once at least one replica has
// completed and the experiment is still running.
func EstimatedRemainingSeconds(elapsed float64, done, total int) (float64, bool) {
	if done <= 0 || total <= done {
		return 0, false
	}
	return elapsed * float64(total-done) / float64(done), true
}
