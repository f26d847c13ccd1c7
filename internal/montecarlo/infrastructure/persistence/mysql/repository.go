package mysql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/aysen-hub/glpsim/internal/montecarlo/domain"
	"github.com/aysen-hub/glpsim/pkg/logger"
)

// ExperimentRepositoryImpl implements domain.ExperimentRepository over GORM.
type ExperimentRepositoryImpl struct {
	db *gorm.DB
}

// NewExperimentRepository wires a GORM handle into the montecarlo domain's
// repository interface.
func NewExperimentRepository(db *gorm.DB) domain.ExperimentRepository {
	return &ExperimentRepositoryImpl{db: db}
}

func (r *ExperimentRepositoryImpl) Save(ctx context.Context, e *domain.Experiment) error {
	model := &ExperimentModel{
		ConfigurationID: e.ConfigurationID,
		Name:            e.Name,
		NumReplicas:     e.NumReplicas,
		MaxWorkers:      e.MaxWorkers,
		Status:          string(e.Status),
		ProgressPct:     e.ProgressPct,
		StartedAt:       e.StartedAt,
		EndedAt:         e.EndedAt,
		DurationSecond:  e.DurationSecond,
		ErrorMessage:    e.ErrorMessage,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		logger.Error(ctx, "failed to save experiment", "error", err)
		return fmt.Errorf("saving experiment: %w", err)
	}
	e.ID = model.ID
	return nil
}

func (r *ExperimentRepositoryImpl) GetByID(ctx context.Context, id uint) (*domain.Experiment, error) {
	var model ExperimentModel
	if err := r.db.WithContext(ctx).Preload("Replicas").First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.Error(ctx, "failed to load experiment", "experiment_id", id, "error", err)
		return nil, fmt.Errorf("loading experiment %d: %w", id, err)
	}
	return model.toDomain(), nil
}

func (r *ExperimentRepositoryImpl) List(ctx context.Context, skip, limit int) ([]domain.Experiment, error) {
	var models []ExperimentModel
	if err := r.db.WithContext(ctx).
		Order("id DESC").
		Offset(skip).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("listing experiments: %w", err)
	}
	out := make([]domain.Experiment, 0, len(models))
	for _, m := range models {
		out = append(out, *m.toDomain())
	}
	return out, nil
}

func (r *ExperimentRepositoryImpl) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Select("Replicas").Delete(&ExperimentModel{}, id).Error; err != nil {
		return fmt.Errorf("deleting experiment %d: %w", id, err)
	}
	return nil
}

func (r *ExperimentRepositoryImpl) AppendReplica(ctx context.Context, experimentID uint, rep *domain.Replica) error {
	rep.ExperimentID = experimentID
	model := fromDomainReplica(rep)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("appending replica to experiment %d: %w", experimentID, err)
	}
	rep.ID = model.ID
	return nil
}

// UpdateProgress persists progressPct only if it is not less than the value
// already stored, so a write that lands out of order at the database (e.g.
// delayed by a slow connection from the pool) can never regress a
// monotonically increasing progress_pct column.
func (r *ExperimentRepositoryImpl) UpdateProgress(ctx context.Context, experimentID uint, progressPct int) error {
	return r.db.WithContext(ctx).Model(&ExperimentModel{}).
		Where("id = ? AND progress_pct < ?", experimentID, progressPct).
		Update("progress_pct", progressPct).Error
}

func (r *ExperimentRepositoryImpl) UpdateStatus(ctx context.Context, experimentID uint, status domain.Status, errorMessage string) error {
	updates := map[string]any{
		"status":        string(status),
		"error_message": errorMessage,
	}
	if status == domain.StatusCompleted || status == domain.StatusFailed {
		now := time.Now()
		updates["ended_at"] = &now
	}
	return r.db.WithContext(ctx).Model(&ExperimentModel{}).
		Where("id = ?", experimentID).
		Updates(updates).Error
}

func (r *ExperimentRepositoryImpl) SaveAggregate(ctx context.Context, experimentID uint, agg map[string]domain.AggregateStat, durationSecond float64) error {
	payload, err := json.Marshal(agg)
	if err != nil {
		return fmt.Errorf("marshaling aggregate: %w", err)
	}
	return r.db.WithContext(ctx).Model(&ExperimentModel{}).
		Where("id = ?", experimentID).
		Updates(map[string]any{
			"aggregate_json":  string(payload),
			"duration_second": durationSecond,
		}).Error
}
