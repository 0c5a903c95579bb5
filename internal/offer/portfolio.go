package offer

import "github.com/priyamvad/credflow/internal/waterfall"

// Portfolio summarizes capital utilization across a batch of decisions.
type Portfolio struct {
	TotalCapital  float64 `json:"total_capital"`
	TotalDemand   float64 `json:"total_demand"`
	ApprovedUsers int     `json:"approved_users"`
	Remaining     float64 `json:"remaining"` // negative = shortfall
	Utilization   float64 `json:"utilization"`
}

// PricedDecision is the slice of an assessment the aggregator needs.
type PricedDecision struct {
	Decision  waterfall.Decision
	LoanLimit float64
}

// Aggregate rolls per-user outcomes into the portfolio summary. Demand only
// counts Approve decisions. A non-positive capital pool is defined as fully
// utilized rather than dividing by zero.
func Aggregate(items []PricedDecision, totalCapital float64) Portfolio {
	p := Portfolio{TotalCapital: totalCapital}
	for _, it := range items {
		if it.Decision == waterfall.Approve {
			p.TotalDemand += it.LoanLimit
			p.ApprovedUsers++
		}
	}
	p.Remaining = totalCapital - p.TotalDemand
	if totalCapital > 0 {
		p.Utilization = min(1.0, p.TotalDemand/totalCapital)
	} else {
		p.Utilization = 1.0
	}
	return p
}
