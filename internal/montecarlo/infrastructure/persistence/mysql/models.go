// Package mysql implements the montecarlo domain's repository interfaces
// against GORM, mirroring the teacher's model-per-entity + ToDomain
// conversion style.
package mysql

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/aysen-hub/glpsim/internal/montecarlo/domain"
)

// ExperimentModel is the experiments table row. Replicas is the owned
// has-many side; GORM cascades the delete per the ownership semantics in
// the data model (an experiment owns its replicas).
type ExperimentModel struct {
	gorm.Model
	ConfigurationID uint `gorm:"column:configuration_id;not null;index"`
	Name            string
	NumReplicas     int
	MaxWorkers      int
	Status          string `gorm:"column:status;type:varchar(20);not null;default:'pending'"`
	ProgressPct     int
	StartedAt       *time.Time
	EndedAt         *time.Time
	DurationSecond  float64
	ErrorMessage    string `gorm:"type:text"`
	AggregateJSON   string `gorm:"column:aggregate_json;type:longtext"`
	Replicas        []ReplicaModel `gorm:"foreignKey:ExperimentID;constraint:OnDelete:CASCADE"`
}

func (ExperimentModel) TableName() string { return "monte_carlo_experiments" }

// ReplicaModel is the replicas table row, owned by its experiment via
// ExperimentID with a cascading foreign key.
type ReplicaModel struct {
	gorm.Model
	ExperimentID   uint `gorm:"column:experiment_id;not null;index"`
	ReplicaIndex   int
	Status         string `gorm:"column:status;type:varchar(20);not null"`
	Seed           uint64
	DurationSecond float64
	ErrorMessage   string `gorm:"type:text"`

	ServiceLevelPct        *float64
	StockoutProbabilityPct *float64
	StockoutDays           *int
	AvgInventoryTM         *float64
	MinInventoryTM         *float64
	AvgAutonomyDays        *float64
	UnsatisfiedDemandTM    *float64
	TotalDisruptions       *int
}

func (ReplicaModel) TableName() string { return "monte_carlo_replicas" }

func (m *ExperimentModel) toDomain() *domain.Experiment {
	e := &domain.Experiment{
		ID:              m.ID,
		ConfigurationID: m.ConfigurationID,
		Name:            m.Name,
		NumReplicas:     m.NumReplicas,
		MaxWorkers:      m.MaxWorkers,
		Status:          domain.Status(m.Status),
		ProgressPct:     m.ProgressPct,
		StartedAt:       m.StartedAt,
		EndedAt:         m.EndedAt,
		DurationSecond:  m.DurationSecond,
		ErrorMessage:    m.ErrorMessage,
	}
	for _, rm := range m.Replicas {
		e.Replicas = append(e.Replicas, *rm.toDomain())
	}
	if m.AggregateJSON != "" {
		var agg map[string]domain.AggregateStat
		if err := json.Unmarshal([]byte(m.AggregateJSON), &agg); err == nil {
			e.Aggregate = agg
		}
	}
	return e
}

func (m *ReplicaModel) toDomain() *domain.Replica {
	r := &domain.Replica{
		ID:             m.ID,
		ExperimentID:   m.ExperimentID,
		ReplicaIndex:   m.ReplicaIndex,
		Status:         domain.Status(m.Status),
		Seed:           m.Seed,
		ErrorMessage:   m.ErrorMessage,
		DurationSecond: m.DurationSecond,
	}
	if m.ServiceLevelPct != nil {
		r.Kpis = &domain.Kpis{
			ServiceLevelPct:        deref(m.ServiceLevelPct),
			StockoutProbabilityPct: deref(m.StockoutProbabilityPct),
			StockoutDays:           derefInt(m.StockoutDays),
			AvgInventoryTM:         deref(m.AvgInventoryTM),
			MinInventoryTM:         deref(m.MinInventoryTM),
			AvgAutonomyDays:        deref(m.AvgAutonomyDays),
			UnsatisfiedDemandTM:    deref(m.UnsatisfiedDemandTM),
			TotalDisruptions:       derefInt(m.TotalDisruptions),
		}
	}
	return r
}

func fromDomainReplica(r *domain.Replica) *ReplicaModel {
	m := &ReplicaModel{
		ExperimentID:   r.ExperimentID,
		ReplicaIndex:   r.ReplicaIndex,
		Status:         string(r.Status),
		Seed:           r.Seed,
		DurationSecond: r.DurationSecond,
		ErrorMessage:   r.ErrorMessage,
	}
	if r.Kpis != nil {
		m.ServiceLevelPct = &r.Kpis.ServiceLevelPct
		m.StockoutProbabilityPct = &r.Kpis.StockoutProbabilityPct
		m.StockoutDays = &r.Kpis.StockoutDays
		m.AvgInventoryTM = &r.Kpis.AvgInventoryTM
		m.MinInventoryTM = &r.Kpis.MinInventoryTM
		m.AvgAutonomyDays = &r.Kpis.AvgAutonomyDays
		m.UnsatisfiedDemandTM = &r.Kpis.UnsatisfiedDemandTM
		m.TotalDisruptions = &r.Kpis.TotalDisruptions
	}
	return m
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func derefInt(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}
