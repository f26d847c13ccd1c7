package domain

import "context"

// ExperimentRepository persists experiments and their owned replicas.
// Replicas are always read and written through their owning experiment;
// there is no standalone replica repository.
type ExperimentRepository interface {
	Save(ctx context.Context, e *Experiment) error
	GetByID(ctx context.Context, id uint) (*Experiment, error)
	List(ctx context.Context, skip, limit int) ([]Experiment, error)
	// Delete hard-deletes an experiment and its replicas (cascade). Callers
	// must only invoke this on an experiment already known not to be running.
	Delete(ctx context.Context, id uint) error
	AppendReplica(ctx context.Context, experimentID uint, r *Replica) error
	UpdateProgress(ctx context.Context, experimentID uint, progressPct int) error
	UpdateStatus(ctx context.Context, experimentID uint, status Status, errorMessage string) error
	SaveAggregate(ctx context.Context, experimentID uint, agg map[string]AggregateStat, durationSecond float64) error
}

// ConfigurationExistence is the narrow slice of the configuracion bounded
// context the executor needs at admission time: does configuration id
// exist. It is a separate interface so the executor does not depend on the
// configuracion package's full repository surface.
type ConfigurationExistence interface {
	Exists(ctx context.Context, id uint) (bool, error)
}
