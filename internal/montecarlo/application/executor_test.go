package application_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aysen-hub/glpsim/internal/montecarlo/application"
	"github.com/aysen-hub/glpsim/internal/montecarlo/domain"
	simdomain "github.com/aysen-hub/glpsim/internal/simulation/domain"
)

// fakeExperimentRepo is an in-memory domain.ExperimentRepository that also
// records every progress value it is asked to persist, in call order, so
// tests can assert on write ordering rather than just the final state.
type fakeExperimentRepo struct {
	mu          sync.Mutex
	byID        map[uint]*domain.Experiment
	next        uint
	progressLog []int
}

func newFakeExperimentRepo() *fakeExperimentRepo {
	return &fakeExperimentRepo{byID: make(map[uint]*domain.Experiment), next: 1}
}

func (f *fakeExperimentRepo) Save(ctx context.Context, e *domain.Experiment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e.ID = f.next
	f.next++
	cp := *e
	f.byID[e.ID] = &cp
	return nil
}

func (f *fakeExperimentRepo) GetByID(ctx context.Context, id uint) (*domain.Experiment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	cp.Replicas = append([]domain.Replica(nil), e.Replicas...)
	return &cp, nil
}

func (f *fakeExperimentRepo) List(ctx context.Context, skip, limit int) ([]domain.Experiment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Experiment
	for _, e := range f.byID {
		out = append(out, *e)
	}
	return out, nil
}

func (f *fakeExperimentRepo) Delete(ctx context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, id)
	return nil
}

func (f *fakeExperimentRepo) AppendReplica(ctx context.Context, experimentID uint, r *domain.Replica) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[experimentID]
	if !ok {
		return nil
	}
	e.Replicas = append(e.Replicas, *r)
	return nil
}

// UpdateProgress mirrors the mysql repository's monotone guard: a
// lower-or-equal value than what is already persisted is silently dropped,
// so the fake's behavior under concurrency matches production.
func (f *fakeExperimentRepo) UpdateProgress(ctx context.Context, experimentID uint, progressPct int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progressLog = append(f.progressLog, progressPct)
	e, ok := f.byID[experimentID]
	if !ok || progressPct <= e.ProgressPct {
		return nil
	}
	e.ProgressPct = progressPct
	return nil
}

func (f *fakeExperimentRepo) UpdateStatus(ctx context.Context, experimentID uint, status domain.Status, errorMessage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[experimentID]
	if !ok {
		return nil
	}
	e.Status = status
	e.ErrorMessage = errorMessage
	return nil
}

func (f *fakeExperimentRepo) SaveAggregate(ctx context.Context, experimentID uint, agg map[string]domain.AggregateStat, durationSecond float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[experimentID]
	if !ok {
		return nil
	}
	e.Aggregate = agg
	e.DurationSecond = durationSecond
	return nil
}

type fakeConfigExistence struct{}

func (fakeConfigExistence) Exists(ctx context.Context, id uint) (bool, error) { return true, nil }

func validExecutorConfig() simdomain.Config {
	return simdomain.Config{
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
		SimulationDays:       30,
		Seed:                 7,
	}
}

func waitForStatus(t *testing.T, repo *fakeExperimentRepo, id uint, want domain.Status, timeout time.Duration) *domain.Experiment {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		exp, err := repo.GetByID(context.Background(), id)
		require.NoError(t, err)
		if exp != nil && exp.Status == want {
			return exp
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("experiment %d never reached status %q", id, want)
	return nil
}

func TestStartRequestValidate_ReplicaBounds(t *testing.T) {
	req := application.StartRequest{NumReplicas: 50, MaxWorkersCap: 4}
	assert.Error(t, req.Validate())

	req.NumReplicas = application.MinReplicas
	assert.NoError(t, req.Validate())

	req.NumReplicas = application.MaxReplicas + 1
	assert.Error(t, req.Validate())
}

func TestStartRequestValidate_WorkerBounds(t *testing.T) {
	req := application.StartRequest{NumReplicas: application.MinReplicas, MaxWorkersCap: 0}
	assert.Error(t, req.Validate())

	req.MaxWorkersCap = application.MaxWorkers + 1
	assert.Error(t, req.Validate())

	req.MaxWorkersCap = application.MaxWorkers
	assert.NoError(t, req.Validate())
}

func TestStartRequestValidate_NameTooLong(t *testing.T) {
	long := make([]byte, 201)
	req := application.StartRequest{
		NumReplicas:   application.MinReplicas,
		MaxWorkersCap: 1,
		Name:          string(long),
	}
	assert.Error(t, req.Validate())
}

func TestAggregate_SkipsFailedReplicasAndEmptyFields(t *testing.T) {
	replicas := []domain.Replica{
		{Status: domain.StatusCompleted, Kpis: &domain.Kpis{ServiceLevelPct: 90, AvgInventoryTM: 100}},
		{Status: domain.StatusCompleted, Kpis: &domain.Kpis{ServiceLevelPct: 80, AvgInventoryTM: 120}},
		{Status: domain.StatusFailed},
	}
	agg := application.Aggregate(replicas)

	stat, ok := agg["service_level_pct"]
	assert.True(t, ok)
	assert.Equal(t, 85.0, stat.Mean)
	assert.Equal(t, 80.0, stat.Min)
	assert.Equal(t, 90.0, stat.Max)
}

func TestAggregate_NoCompletedReplicasYieldsEmptyMap(t *testing.T) {
	replicas := []domain.Replica{{Status: domain.StatusFailed}}
	agg := application.Aggregate(replicas)
	assert.Empty(t, agg)
}

func TestEstimatedRemainingSeconds_NoneCompletedYet(t *testing.T) {
	_, ok := application.EstimatedRemainingSeconds(10, 0, 100)
	assert.False(t, ok)
}

func TestEstimatedRemainingSeconds_AllDone(t *testing.T) {
	_, ok := application.EstimatedRemainingSeconds(10, 100, 100)
	assert.False(t, ok)
}

func TestEstimatedRemainingSeconds_PartialProgress(t *testing.T) {
	remaining, ok := application.EstimatedRemainingSeconds(10, 20, 100)
	assert.True(t, ok)
	assert.Equal(t, 40.0, remaining) // 10 * (100-20)/20
}

func TestExecutor_StartRunsToCompletion(t *testing.T) {
	repo := newFakeExperimentRepo()
	executor := application.NewExecutor(repo, fakeConfigExistence{}, nil)

	exp, err := executor.Start(context.Background(), application.StartRequest{
		ConfigurationID: 1,
		Config:          validExecutorConfig(),
		NumReplicas:     application.MinReplicas,
		MaxWorkersCap:   4,
		Name:            "smoke",
		SeedBase:        7,
	})
	require.NoError(t, err)
	require.NotZero(t, exp.ID)

	done := waitForStatus(t, repo, exp.ID, domain.StatusCompleted, 10*time.Second)
	assert.Equal(t, 100, done.ProgressPct)
	assert.Len(t, done.Replicas, application.MinReplicas)
	assert.NotEmpty(t, done.Aggregate)
}

func TestExecutor_ProgressIsMonotonicAndReaches100(t *testing.T) {
	repo := newFakeExperimentRepo()
	executor := application.NewExecutor(repo, fakeConfigExistence{}, nil)

	exp, err := executor.Start(context.Background(), application.StartRequest{
		ConfigurationID: 1,
		Config:          validExecutorConfig(),
		NumReplicas:     application.MinReplicas,
		MaxWorkersCap:   8,
		Name:            "monotone",
		SeedBase:        7,
	})
	require.NoError(t, err)

	waitForStatus(t, repo, exp.ID, domain.StatusCompleted, 10*time.Second)

	repo.mu.Lock()
	log := append([]int(nil), repo.progressLog...)
	repo.mu.Unlock()

	require.NotEmpty(t, log)
	for i := 1; i < len(log); i++ {
		assert.GreaterOrEqualf(t, log[i], log[i-1], "progress regressed at index %d: %v", i, log)
	}
	assert.Equal(t, 100, log[len(log)-1])
}

func TestExecutor_CancelStopsReplicaPoolBeforeCompletion(t *testing.T) {
	repo := newFakeExperimentRepo()
	executor := application.NewExecutor(repo, fakeConfigExistence{}, nil)

	exp, err := executor.Start(context.Background(), application.StartRequest{
		ConfigurationID: 1,
		Config:          validExecutorConfig(),
		NumReplicas:     application.MaxReplicas,
		MaxWorkersCap:   1,
		Name:            "cancel-me",
		SeedBase:        7,
	})
	require.NoError(t, err)

	require.NoError(t, executor.Cancel(context.Background(), exp.ID, "cancelled by test"))

	cancelled := waitForStatus(t, repo, exp.ID, domain.StatusFailed, 2*time.Second)
	assert.Equal(t, "cancelled by test", cancelled.ErrorMessage)
	assert.Less(t, len(cancelled.Replicas), application.MaxReplicas)

	// Cancelling an already-terminal experiment is a precondition error, not
	// a silent no-op.
	assert.Error(t, executor.Cancel(context.Background(), exp.ID, "again"))
}
