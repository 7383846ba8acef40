package planner

import (
	"context"
	"sort"

	"fleet-route-planner/internal/domain"
)

// greedyAgent assigns packages to vehicles by payment density until
// capacity runs out, then orders each vehicle's stops nearest-neighbor
// first, optionally polishing with 2-opt.
//
// It always returns a result in O(n log n + n·m): packages that fit
// nowhere are surfaced in Unassigned, never dropped. The same packer
// backs the nearest-neighbor and greedy-2opt strategies and serves as
// the fallback when stricter strategies fail closed.
type greedyAgent struct {
	opts   Options
	twoOpt bool
}

func (g *greedyAgent) Name() string {
	if g.twoOpt {
		return AgentGreedyTwoOpt
	}
	return AgentNearestNeighbor
}

func (g *greedyAgent) PlanRoutes(ctx context.Context, req Request) (*Plan, error) {
	pkgs, fleet, plan := prepare(g.Name(), req)

	if len(fleet) == 0 {
		if len(pkgs) > 0 {
			plan.Unassigned = append(plan.Unassigned, pkgs...)
			plan.warnf("no usable vehicles: %d packages unassigned", len(pkgs))
		}
		return plan, nil
	}
	if len(pkgs) == 0 {
		return plan, nil
	}

	d := req.distancer()

	// Cheapest transport per cubic meter first.
	sortByCostEfficiency(fleet)

	remaining := pkgs
	for _, v := range fleet {
		if len(remaining) == 0 {
			break
		}

		admitted, rest := packVehicle(v, remaining)
		if len(admitted) == 0 {
			continue
		}

		route := buildRoute(v, admitted, req.Map.Depot, d, g.twoOpt, g.opts.twoOptMaxIter())
		admitRoute(plan, route, d)
		remaining = rest
	}

	if len(remaining) > 0 {
		plan.Unassigned = append(plan.Unassigned, remaining...)
		plan.warnf("fleet capacity exhausted: %d packages unassigned", len(remaining))
	}

	return plan, nil
}

func sortByCostEfficiency(fleet []*domain.Vehicle) {
	sort.SliceStable(fleet, func(i, j int) bool {
		ei, ej := fleet[i].Type.CostEfficiency(), fleet[j].Type.CostEfficiency()
		if ei != ej {
			return ei < ej
		}
		return fleet[i].ID < fleet[j].ID
	})
}

// packVehicle admits packages in packing-priority order while the
// cumulative volume fits, and returns the leftovers.
func packVehicle(v *domain.Vehicle, candidates []*domain.Package) (admitted, rest []*domain.Package) {
	ordered := make([]*domain.Package, len(candidates))
	copy(ordered, candidates)
	sortByPackingPriority(ordered)

	var used float64
	for _, p := range ordered {
		if v.CanCarry(p.VolumeM3, used) {
			admitted = append(admitted, p)
			used += p.VolumeM3
			continue
		}
		rest = append(rest, p)
	}

	return admitted, rest
}

// sortByPackingPriority orders candidates for admission: densest
// payment per cubic meter first, then rush before regular, then higher
// priority, then lowest ID. The full chain makes admission
// deterministic for identical inputs.
func sortByPackingPriority(pkgs []*domain.Package) {
	sort.SliceStable(pkgs, func(i, j int) bool {
		a, b := pkgs[i], pkgs[j]
		if da, db := a.Density(), b.Density(); da != db {
			return da > db
		}
		if a.Rush != b.Rush {
			return a.Rush
		}
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		return a.ID < b.ID
	})
}
