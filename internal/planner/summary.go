package planner

import "fleet-route-planner/internal/domain"

// Summary aggregates a plan's routes into the headline numbers
// reported to callers.
type Summary struct {
	VehiclesUsed       int     `json:"vehicles_used"`
	PackagesDelivered  int     `json:"packages_delivered"`
	PackagesUnassigned int     `json:"packages_unassigned"`
	TotalDistanceKm    float64 `json:"total_distance_km"`
	TotalRevenue       float64 `json:"total_revenue"`
	TotalCost          float64 `json:"total_cost"`
	TotalProfit        float64 `json:"total_profit"`
	// AvgUtilization is mean capacity utilization over used vehicles,
	// 0..1.
	AvgUtilization float64 `json:"avg_utilization"`
	// ProfitPerKm is total profit over total distance; zero when the
	// plan covers no distance.
	ProfitPerKm float64 `json:"profit_per_km"`
}

// Summarize evaluates every route in the plan against d and folds the
// results into a Summary.
func Summarize(plan *Plan, d domain.Distancer) Summary {
	var s Summary
	if plan == nil {
		return s
	}

	var utilization float64
	for _, r := range plan.Routes {
		if len(r.Packages) == 0 {
			continue
		}
		eval := r.Evaluate(d)

		s.VehiclesUsed++
		s.PackagesDelivered += len(r.Packages)
		s.TotalDistanceKm += eval.Distance
		s.TotalRevenue += eval.Revenue
		s.TotalCost += eval.Cost
		s.TotalProfit += eval.Profit
		utilization += r.CapacityUtilization()
	}

	s.PackagesUnassigned = len(plan.Unassigned)
	if s.VehiclesUsed > 0 {
		s.AvgUtilization = utilization / float64(s.VehiclesUsed)
	}
	if s.TotalDistanceKm > 0 {
		s.ProfitPerKm = s.TotalProfit / s.TotalDistanceKm
	}
	return s
}
