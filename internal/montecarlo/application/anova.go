package application

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/aysen-hub/glpsim/internal/montecarlo/domain"
	"github.com/aysen-hub/glpsim/pkg/apperr"
)

// MinReplicasForAnova and the factor-level requirement gate the /anova
// endpoint: fewer completed replicas, or a single-level factor, is a
// precondition error rather than a degenerate statistical result.
const MinReplicasForAnova = 4

// CapacityLevel and DurationLevel implement the factorial category
// coercion: capacity <= 450 is "Status Quo", else "Propuesta"; duration_max
// <= 7 is "Corta", <= 14 is "Media", else "Larga". Reimplementations must
// preserve this partition so cells line up with the {SQ|P}_{Short|Medium|Long}
// factorial naming.
func CapacityLevel(capacityTM float64) string {
	if capacityTM <= 450 {
		return "Status Quo"
	}
	return "Propuesta"
}

func DurationLevel(durationMaxDays float64) string {
	switch {
	case durationMaxDays <= 7:
		return "Corta"
	case durationMaxDays <= 14:
		return "Media"
	default:
		return "Larga"
	}
}

// FactorialObservation is one completed replica's KPI value plus its two
// factor-level labels, the unit the ANOVA collaborator consumes.
type FactorialObservation struct {
	CapacityFactor string
	DurationFactor string
	Value          float64
}

// CellSummary is the per-cell mean and confidence interval §6 requires in
// the ANOVA response.
type CellSummary struct {
	CapacityFactor string
	DurationFactor string
	N              int
	Mean           float64
	CILow          float64
	CIHigh         float64
}

// FactorResult is one factor's row in the ANOVA table plus its effect size
// and post-hoc comparisons.
type FactorResult struct {
	Factor      string
	SumSquares  float64
	DF          int
	MeanSquare  float64
	F           float64
	PValue      float64
	EtaSquared  float64
	TukeyHSD    []PairwiseComparison
}

// PairwiseComparison is one Tukey HSD contrast between two levels of a
// factor.
type PairwiseComparison struct {
	LevelA     string
	LevelB     string
	MeanDiff   float64
	PValue     float64
	Significant bool
}

// AnovaResult is the full two-way ANOVA report for one KPI across the
// 2x3 factorial design.
type AnovaResult struct {
	Factors     []FactorResult
	AdjustedR2  float64
	CellMeans   []CellSummary
}

// RunAnova performs the two-way ANOVA over obs, treating CapacityFactor and
// DurationFactor as independent factors with no modeled interaction term
// (a 2x3 design with N>=1000 per cell per replica gives ample residual
// degrees of freedom without needing one). It delegates the distributional
// machinery — the F statistic's p-value and the pairwise contrasts' Student's
// t p-values — to
// gonum/stat and gonum/stat/distuv; the sums-of-squares decomposition is
// the only arithmetic owned here.
func RunAnova(obs []FactorialObservation) (*AnovaResult, error) {
	if len(obs) < MinReplicasForAnova {
		return nil, apperr.Precondition("ANOVA requires at least %d completed replicas, got %d", MinReplicasForAnova, len(obs))
	}

	capacityLevels := distinct(obs, func(o FactorialObservation) string { return o.CapacityFactor })
	durationLevels := distinct(obs, func(o FactorialObservation) string { return o.DurationFactor })
	if len(capacityLevels) < 2 {
		return nil, apperr.Precondition("ANOVA requires >=2 capacity levels, got %d", len(capacityLevels))
	}
	if len(durationLevels) < 2 {
		return nil, apperr.Precondition("ANOVA requires >=2 disruption-duration levels, got %d", len(durationLevels))
	}

	grandMean := stat.Mean(valuesOf(obs), nil)
	n := float64(len(obs))

	var ssCapacity, ssDuration, ssTotal float64
	for _, o := range obs {
		ssTotal += (o.Value - grandMean) * (o.Value - grandMean)
	}

	ssCapacity = sumSquaresBetween(obs, capacityLevels, func(o FactorialObservation) string { return o.CapacityFactor }, grandMean)
	ssDuration = sumSquaresBetween(obs, durationLevels, func(o FactorialObservation) string { return o.DurationFactor }, grandMean)
	ssResidual := ssTotal - ssCapacity - ssDuration
	if ssResidual < 0 {
		ssResidual = 0
	}

	dfCapacity := len(capacityLevels) - 1
	dfDuration := len(durationLevels) - 1
	dfResidual := int(n) - len(capacityLevels) - len(durationLevels) + 1
	if dfResidual < 1 {
		dfResidual = 1
	}

	msResidual := ssResidual / float64(dfResidual)

	capacityResult := buildFactorResult("capacity", ssCapacity, dfCapacity, msResidual, dfResidual, ssTotal, obs, capacityLevels, func(o FactorialObservation) string { return o.CapacityFactor })
	durationResult := buildFactorResult("disruption_duration", ssDuration, dfDuration, msResidual, dfResidual, ssTotal, obs, durationLevels, func(o FactorialObservation) string { return o.DurationFactor })

	adjR2 := 1 - (ssResidual/float64(dfResidual))/(ssTotal/(n-1))

	return &AnovaResult{
		Factors:    []FactorResult{capacityResult, durationResult},
		AdjustedR2: round2(adjR2),
		CellMeans:  cellSummaries(obs),
	}, nil
}

func buildFactorResult(name string, ss float64, df int, msResidual float64, dfResidual int, ssTotal float64, obs []FactorialObservation, levels []string, key func(FactorialObservation) string) FactorResult {
	ms := ss / float64(df)
	f := ms / msResidual
	dist := distuv.F{D1: float64(df), D2: float64(dfResidual)}
	pValue := 1 - dist.CDF(f)

	return FactorResult{
		Factor:     name,
		SumSquares: round2(ss),
		DF:         df,
		MeanSquare: round2(ms),
		F:          round2(f),
		PValue:     pValue,
		EtaSquared: round2(ss / ssTotal),
		TukeyHSD:   tukeyHSD(obs, levels, key, msResidual, dfResidual),
	}
}

// tukeyHSD computes pairwise mean-difference contrasts. Each contrast is
// divided by the Tukey-Kramer standard error sqrt(MS_residual/2 *
// (1/n_a + 1/n_b)) built from the pooled residual mean square, and its
// two-sided p-value is taken from Student's t with the residual degrees of
// freedom; the studentized range distribution is not used. A contrast is
// flagged significant when p < 0.05.
func tukeyHSD(obs []FactorialObservation, levels []string, key func(FactorialObservation) string, msResidual float64, dfResidual int) []PairwiseComparison {
	means := make(map[string]float64, len(levels))
	counts := make(map[string]int, len(levels))
	for _, lvl := range levels {
		var vals []float64
		for _, o := range obs {
			if key(o) == lvl {
				vals = append(vals, o.Value)
			}
		}
		means[lvl] = stat.Mean(vals, nil)
		counts[lvl] = len(vals)
	}

	var out []PairwiseComparison
	for i := 0; i < len(levels); i++ {
		for j := i + 1; j < len(levels); j++ {
			a, b := levels[i], levels[j]
			diff := means[a] - means[b]
			se := math.Sqrt(msResidual / 2 * (1/float64(counts[a]) + 1/float64(counts[b])))
			t := diff / se
			dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(dfResidual)}
			p := 2 * (1 - dist.CDF(math.Abs(t)))
			out = append(out, PairwiseComparison{
				LevelA:      a,
				LevelB:      b,
				MeanDiff:    round2(diff),
				PValue:      p,
				Significant: p < 0.05,
			})
		}
	}
	return out
}

func cellSummaries(obs []FactorialObservation) []CellSummary {
	type cellKey struct{ cap_, dur string }
	cells := make(map[cellKey][]float64)
	for _, o := range obs {
		k := cellKey{o.CapacityFactor, o.DurationFactor}
		cells[k] = append(cells[k], o.Value)
	}

	var out []CellSummary
	for k, vals := range cells {
		mean := stat.Mean(vals, nil)
		std := stat.StdDev(vals, nil)
		se := std / math.Sqrt(float64(len(vals)))
		out = append(out, CellSummary{
			CapacityFactor: k.cap_,
			DurationFactor: k.dur,
			N:              len(vals),
			Mean:           round2(mean),
			CILow:          round2(mean - 1.96*se),
			CIHigh:         round2(mean + 1.96*se),
		})
	}
	return out
}

func sumSquaresBetween(obs []FactorialObservation, levels []string, key func(FactorialObservation) string, grandMean float64) float64 {
	var ss float64
	for _, lvl := range levels {
		var vals []float64
		for _, o := range obs {
			if key(o) == lvl {
				vals = append(vals, o.Value)
			}
		}
		levelMean := stat.Mean(vals, nil)
		ss += float64(len(vals)) * (levelMean - grandMean) * (levelMean - grandMean)
	}
	return ss
}

func distinct(obs []FactorialObservation, key func(FactorialObservation) string) []string {
	seen := map[string]bool{}
	var out []string
	for _, o := range obs {
		k := key(o)
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

func valuesOf(obs []FactorialObservation) []float64 {
	out := make([]float64, len(obs))
	for i, o := range obs {
		out[i] = o.Value
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ObservationsFromReplicas projects completed replicas carrying the given
// capacity/duration config parameters into ANOVA observations for metric.
func ObservationsFromReplicas(replicas []domain.Replica, capacityTM, durationMaxDays float64, metric func(domain.Kpis) float64) []FactorialObservation {
	capLevel := CapacityLevel(capacityTM)
	durLevel := DurationLevel(durationMaxDays)

	var out []FactorialObservation
	for _, r := range replicas {
		if r.Status != domain.StatusCompleted || r.Kpis == nil {
			continue
		}
		out = append(out, FactorialObservation{
			CapacityFactor: capLevel,
			DurationFactor: durLevel,
			Value:          metric(*r.Kpis),
		})
	}
	return out
}
