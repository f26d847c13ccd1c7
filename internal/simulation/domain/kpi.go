package domain

import "math"

// Kpis is the normative 23-field summary of one completed simulation run.
// Field names are fixed by the external contract; rounding is applied here,
// once, so every caller sees already-stable values.
type Kpis struct {
	ServiceLevelPct         float64 `json:"service_level_pct"`
	StockoutProbabilityPct  float64 `json:"stockout_probability_pct"`
	StockoutDays            int     `json:"stockout_days"`
	AvgInventoryTM          float64 `json:"avg_inventory_tm"`
	MinInventoryTM          float64 `json:"min_inventory_tm"`
	MaxInventoryTM          float64 `json:"max_inventory_tm"`
	StdInventoryTM          float64 `json:"std_inventory_tm"`
	FinalInventoryTM        float64 `json:"final_inventory_tm"`
	InitialInventoryTM      float64 `json:"initial_inventory_tm"`
	AvgAutonomyDays         float64 `json:"avg_autonomy_days"`
	MinAutonomyDays         float64 `json:"min_autonomy_days"`
	TotalDemandTM           float64 `json:"total_demand_tm"`
	SatisfiedDemandTM       float64 `json:"satisfied_demand_tm"`
	UnsatisfiedDemandTM     float64 `json:"unsatisfied_demand_tm"`
	AvgDailyDemandTM        float64 `json:"avg_daily_demand_tm"`
	MaxDailyDemandTM        float64 `json:"max_daily_demand_tm"`
	MinDailyDemandTM        float64 `json:"min_daily_demand_tm"`
	TotalReceivedTM         float64 `json:"total_received_tm"`
	TotalDispatchedTM       float64 `json:"total_dispatched_tm"`
	TotalDisruptions        int     `json:"total_disruptions"`
	TotalBlockedDays        float64 `json:"total_blocked_days"`
	BlockedTimePct          float64 `json:"blocked_time_pct"`
	SimulatedDays           int     `json:"simulated_days"`
}

// ComputeKpis reduces a finished run's per-day metrics plus terminal
// accounting into a Kpis record. It is a pure function: same inputs, same
// output, every time.
func ComputeKpis(days []DailyMetrics, initialInventory, finalInventory, totalReceived, totalDispatched, totalBlockedDays float64, totalDisruptions int) Kpis {
	t := len(days)
	k := Kpis{
		FinalInventoryTM:   round2(finalInventory),
		InitialInventoryTM: round2(initialInventory),
		TotalReceivedTM:    round2(totalReceived),
		TotalDispatchedTM:  round2(totalDispatched),
		TotalDisruptions:   totalDisruptions,
		TotalBlockedDays:   round2(totalBlockedDays),
		SimulatedDays:      t,
	}

	if t == 0 {
		return k
	}

	var (
		stockoutDays                                   int
		sumInventory, minInventory, maxInventory       float64
		sumDemand, minDemand, maxDemand                 float64
		totalDemand, satisfiedDemand                    float64
		sumAutonomy, minAutonomy                        float64
	)
	minInventory = math.Inf(1)
	maxInventory = math.Inf(-1)
	minDemand = math.Inf(1)
	maxDemand = math.Inf(-1)
	minAutonomy = math.Inf(1)

	for _, d := range days {
		if d.Stockout {
			stockoutDays++
		}
		sumInventory += d.InventoryTM
		if d.InventoryTM < minInventory {
			minInventory = d.InventoryTM
		}
		if d.InventoryTM > maxInventory {
			maxInventory = d.InventoryTM
		}

		sumDemand += d.DemandTM
		if d.DemandTM < minDemand {
			minDemand = d.DemandTM
		}
		if d.DemandTM > maxDemand {
			maxDemand = d.DemandTM
		}

		totalDemand += d.DemandTM
		satisfiedDemand += d.SatisfiedTM

		sumAutonomy += d.AutonomyDays
		if d.AutonomyDays < minAutonomy {
			minAutonomy = d.AutonomyDays
		}
	}

	avgInventory := sumInventory / float64(t)
	var sumSqDiff float64
	for _, d := range days {
		diff := d.InventoryTM - avgInventory
		sumSqDiff += diff * diff
	}
	stdInventory := math.Sqrt(sumSqDiff / float64(t))

	k.StockoutDays = stockoutDays
	k.StockoutProbabilityPct = round4(100 * float64(stockoutDays) / float64(t))
	k.AvgInventoryTM = round2(avgInventory)
	k.MinInventoryTM = round2(minInventory)
	k.MaxInventoryTM = round2(maxInventory)
	k.StdInventoryTM = round2(stdInventory)
	k.AvgAutonomyDays = round2(sumAutonomy / float64(t))
	k.MinAutonomyDays = round2(minAutonomy)
	k.TotalDemandTM = round2(totalDemand)
	k.SatisfiedDemandTM = round2(satisfiedDemand)
	k.UnsatisfiedDemandTM = round2(totalDemand - satisfiedDemand)
	k.AvgDailyDemandTM = round2(sumDemand / float64(t))
	k.MaxDailyDemandTM = round2(maxDemand)
	k.MinDailyDemandTM = round2(minDemand)
	k.BlockedTimePct = round2(100 * totalBlockedDays / float64(t))

	if totalDemand > 0 {
		k.ServiceLevelPct = round4(100 * satisfiedDemand / totalDemand)
	}

	return k
}

func round2(v float64) float64 { return roundTo(v, 100) }
func round4(v float64) float64 { return roundTo(v, 10000) }

func roundTo(v, factor float64) float64 {
	return math.Round(v*factor) / factor
}
