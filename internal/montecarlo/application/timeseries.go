package application

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	simapp "github.com/aysen-hub/glpsim/internal/simulation/application"
	simdomain "github.com/aysen-hub/glpsim/internal/simulation/domain"
	"github.com/aysen-hub/glpsim/pkg/apperr"
)

// MinSeriesSamples and MaxSeriesSamples bound the on-demand resample size
// requested via num_muestras — a parameter independent of the experiment's
// own replica count N.
const (
	MinSeriesSamples = 1
	MaxSeriesSamples = 500

	// seriesSampleOffset keeps a resample's seeds above the experiment's own
	// MonteCarloSeed range (at most MaxReplicas indices per seed base), so a
	// /series-temporales call never reproduces one of this experiment's
	// replicas. The shifted seed equals MonteCarloSeed(seedBase+10, i), so it
	// is not disjoint from other seed bases or from FactorialSeed.
	seriesSampleOffset = 1_000_000
)

// DailyStat is one simulated day's cross-replica aggregate: the inventory
// and autonomy distributions plus stockout/route-blocked incidence, taken
// across a freshly drawn sample of replicas.
type DailyStat struct {
	Day                        int     `json:"dia"`
	InventoryMeanTM            float64 `json:"inventario_mean_tm"`
	InventoryStdTM             float64 `json:"inventario_std_tm"`
	InventoryP5TM              float64 `json:"inventario_p5_tm"`
	InventoryP25TM             float64 `json:"inventario_p25_tm"`
	InventoryP50TM             float64 `json:"inventario_p50_tm"`
	InventoryP75TM             float64 `json:"inventario_p75_tm"`
	InventoryP95TM             float64 `json:"inventario_p95_tm"`
	DemandMeanTM               float64 `json:"demanda_mean_tm"`
	SatisfiedDemandMeanTM      float64 `json:"demanda_satisfecha_mean_tm"`
	AutonomyMeanDays           float64 `json:"dias_autonomia_mean"`
	AutonomyP5Days             float64 `json:"dias_autonomia_p5"`
	AutonomyP95Days            float64 `json:"dias_autonomia_p95"`
	StockoutProbabilityPct     float64 `json:"prob_quiebre_stock_pct"`
	RouteBlockedProbabilityPct float64 `json:"prob_ruta_bloqueada_pct"`
}

// seriesSampleSeed derives the seed for sample i of an on-demand
// series-temporales resample, offset above the experiment's own replica
// seeds (MonteCarloSeed with the same seed base).
func seriesSampleSeed(seedBase uint64, sampleIndex int) uint64 {
	return simapp.MonteCarloSeed(seedBase, sampleIndex) + seriesSampleOffset
}

// RunSeriesTemporales re-runs numSamples fresh replicas of cfg with time
// series retained and aggregates them day by day. Nothing here is
// persisted: the series exist only for the duration of this call, matching
// the on-demand regeneration the endpoint was designed around rather than
// storage of every replica's full daily history.
func RunSeriesTemporales(cfg simdomain.Config, seedBase uint64, numSamples int) ([]DailyStat, error) {
	if numSamples < MinSeriesSamples || numSamples > MaxSeriesSamples {
		return nil, apperr.Validation("num_muestras must be in [%d,%d], got %d", MinSeriesSamples, MaxSeriesSamples, numSamples)
	}

	series := make([][]simdomain.DailyMetrics, 0, numSamples)
	for i := 1; i <= numSamples; i++ {
		seed := seriesSampleSeed(seedBase, i)
		result := simapp.RunReplica(cfg.WithSeed(seed), i, true)
		if result.Status != simapp.ReplicaCompleted {
			continue
		}
		series = append(series, result.TimeSeries)
	}
	if len(series) == 0 {
		return nil, apperr.Executor("no sampled replica completed successfully")
	}

	return aggregateDaily(series, cfg.SimulationDays), nil
}

func aggregateDaily(series [][]simdomain.DailyMetrics, days int) []DailyStat {
	out := make([]DailyStat, 0, days)
	for day := 0; day < days; day++ {
		var inventory, demand, satisfied, autonomy []float64
		stockouts, blocked, n := 0, 0, 0

		for _, s := range series {
			if day >= len(s) {
				continue
			}
			row := s[day]
			inventory = append(inventory, row.InventoryTM)
			demand = append(demand, row.DemandTM)
			satisfied = append(satisfied, row.SatisfiedTM)
			autonomy = append(autonomy, row.AutonomyDays)
			if row.Stockout {
				stockouts++
			}
			if row.RouteBlocked {
				blocked++
			}
			n++
		}
		if n == 0 {
			continue
		}

		invSorted := append([]float64(nil), inventory...)
		sort.Float64s(invSorted)
		autSorted := append([]float64(nil), autonomy...)
		sort.Float64s(autSorted)

		out = append(out, DailyStat{
			Day:                        day,
			InventoryMeanTM:            stat.Mean(inventory, nil),
			InventoryStdTM:             stat.StdDev(inventory, nil),
			InventoryP5TM:              percentile(invSorted, 0.05),
			InventoryP25TM:             percentile(invSorted, 0.25),
			InventoryP50TM:             percentile(invSorted, 0.50),
			InventoryP75TM:             percentile(invSorted, 0.75),
			InventoryP95TM:             percentile(invSorted, 0.95),
			DemandMeanTM:               stat.Mean(demand, nil),
			SatisfiedDemandMeanTM:      stat.Mean(satisfied, nil),
			AutonomyMeanDays:           stat.Mean(autonomy, nil),
			AutonomyP5Days:             percentile(autSorted, 0.05),
			AutonomyP95Days:            percentile(autSorted, 0.95),
			StockoutProbabilityPct:     100 * float64(stockouts) / float64(n),
			RouteBlockedProbabilityPct: 100 * float64(blocked) / float64(n),
		})
	}
	return out
}
