// Package domain holds the Monte Carlo experiment and replica entities: the
// bookkeeping the executor mutates as replicas complete, independent of how
// they are persisted or exposed over HTTP.
package domain

import "time"

// Status is the lifecycle an Experiment or Replica moves through. A
// terminal state (Completed, Failed) never transitions further.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Replica is one simulation run owned by an Experiment. Only completed
// replicas carry Kpis; only failed replicas carry an ErrorMessage.
type Replica struct {
	ID             uint
	ExperimentID   uint
	ReplicaIndex   int
	Status         Status
	Seed           uint64
	Kpis           *Kpis
	ErrorMessage   string
	DurationSecond float64
}

// Kpis is the normative persisted subset of the full simulation KPI record
// (§6's persisted-state layout names exactly these eight fields; the rest
// of the 23-field record is available on the in-memory ReplicaResult but is
// not required to survive a restart).
type Kpis struct {
	ServiceLevelPct        float64
	StockoutProbabilityPct float64
	StockoutDays           int
	AvgInventoryTM         float64
	MinInventoryTM         float64
	AvgAutonomyDays        float64
	UnsatisfiedDemandTM    float64
	TotalDisruptions       int
}

// AggregateStat is the descriptive-statistics summary the executor computes
// per KPI field across all completed replicas.
type AggregateStat struct {
	Mean float64
	Std  float64
	Min  float64
	Max  float64
	P25  float64
	P50  float64
	P75  float64
	P95  float64
}

// Experiment is a set of replicas sharing one configuration. Aggregate is
// nil until the executor's aggregation step runs after the last replica; it
// then holds one entry per KPI field with at least one completed replica,
// and is empty when none completed.
type Experiment struct {
	ID              uint
	ConfigurationID uint
	Name            string
	NumReplicas     int
	MaxWorkers      int
	Status          Status
	ProgressPct     int
	StartedAt       *time.Time
	EndedAt         *time.Time
	DurationSecond  float64
	ErrorMessage    string
	Replicas        []Replica
	Aggregate       map[string]AggregateStat
}

// RepliasCompleted reports how many replicas have reached a terminal state,
// used both for progress reporting and for the estimated-remaining-time
// calculation at the HTTP boundary.
func (e *Experiment) RepliasCompleted() int {
	done := 0
	for _, r := range e.Replicas {
		if r.Status == StatusCompleted || r.Status == StatusFailed {
			done++
		}
	}
	return done
}
