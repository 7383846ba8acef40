package planner

import (
	"context"

	"fleet-route-planner/internal/domain"
)

// scoreEpsilon is the strict-improvement margin for comparing leaf
// profits; ties keep the first complete assignment found.
const scoreEpsilon = 1e-9

// ctxCheckMask throttles context cancellation checks to one per 1024
// search nodes.
const ctxCheckMask = 1023

// backtrackingAgent explores package-to-vehicle assignments with
// depth-first search, keeping the single most profitable complete
// assignment. Each package is either placed on one vehicle that still
// has room (capacity prune) or left out; leaves are scored by ordering
// every vehicle's set nearest-neighbor + 2-opt and summing route
// profit.
//
// The pruned variant additionally cuts branches whose optimistic
// profit bound (assigned revenue so far, plus remaining revenue capped
// by remaining fleet capacity times the best remaining revenue
// density) cannot beat the incumbent.
//
// Runtime is exponential in package count, so inputs larger than
// Options.MaxPackages fail closed: no routes, every package reported
// unassigned, and an explicit warning. Callers wanting a cheap answer
// instead should fall back to the greedy packer on that signal.
type backtrackingAgent struct {
	opts  Options
	prune bool
}

func (b *backtrackingAgent) Name() string {
	if b.prune {
		return AgentPrunedBacktracking
	}
	return AgentBacktracking
}

func (b *backtrackingAgent) PlanRoutes(ctx context.Context, req Request) (*Plan, error) {
	pkgs, fleet, plan := prepare(b.Name(), req)

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

	if limit := b.opts.maxPackages(); len(pkgs) > limit {
		plan.SizeLimited = true
		plan.Unassigned = append(plan.Unassigned, pkgs...)
		plan.warnf(
			"%d packages exceed the %d-package search cap: no assignment attempted",
			len(pkgs), limit,
		)
		return plan, nil
	}

	eng := newBacktrackEngine(pkgs, fleet, req.Map.Depot, req.distancer(), b.opts.twoOptMaxIter(), b.prune)
	if err := eng.search(ctx); err != nil {
		return nil, err
	}

	assigned := make(map[int]struct{}, len(pkgs))
	for vi, v := range fleet {
		idx := eng.best[vi]
		if len(idx) == 0 {
			continue
		}
		for _, i := range idx {
			assigned[i] = struct{}{}
		}
		admitRoute(plan, eng.routeFor(v, idx), eng.d)
	}

	for i, p := range pkgs {
		if _, ok := assigned[i]; !ok {
			plan.Unassigned = append(plan.Unassigned, p)
		}
	}
	if n := len(pkgs) - len(assigned); n > 0 {
		plan.warnf("best assignment leaves %d packages unassigned", n)
	}

	return plan, nil
}

// backtrackEngine holds one search's working state.
type backtrackEngine struct {
	pkgs          []*domain.Package
	fleet         []*domain.Vehicle
	depot         domain.Point
	d             domain.Distancer
	twoOptMaxIter int
	prune         bool

	assigned [][]int   // per vehicle, package indices on the current path
	used     []float64 // per vehicle, volume on the current path
	revSoFar float64

	// Suffix tables for the optimistic bound.
	sumRevenue []float64 // sum of pkgs[i:] revenue
	maxDensity []float64 // max revenue-per-volume over pkgs[i:]

	best       [][]int
	bestProfit float64

	nodes int
}

func newBacktrackEngine(
	pkgs []*domain.Package,
	fleet []*domain.Vehicle,
	depot domain.Point,
	d domain.Distancer,
	twoOptMaxIter int,
	prune bool,
) *backtrackEngine {
	n := len(pkgs)
	eng := &backtrackEngine{
		pkgs:          pkgs,
		fleet:         fleet,
		depot:         depot,
		d:             d,
		twoOptMaxIter: twoOptMaxIter,
		prune:         prune,
		assigned:      make([][]int, len(fleet)),
		used:          make([]float64, len(fleet)),
		sumRevenue:    make([]float64, n+1),
		maxDensity:    make([]float64, n+1),
		// The empty assignment (profit 0) is always feasible, so it
		// seeds the incumbent: all-negative plans lose to planning
		// nothing.
		best: make([][]int, len(fleet)),
	}

	for i := n - 1; i >= 0; i-- {
		rev := pkgs[i].Revenue()
		eng.sumRevenue[i] = eng.sumRevenue[i+1] + rev

		density := rev / pkgs[i].VolumeM3
		if density < eng.maxDensity[i+1] {
			density = eng.maxDensity[i+1]
		}
		eng.maxDensity[i] = density
	}

	return eng
}

func (e *backtrackEngine) search(ctx context.Context) error {
	return e.dfs(ctx, 0)
}

// dfs decides package i: place it on each vehicle with room, then try
// leaving it out. The leave-out branch runs last, so among equal-profit
// assignments the first found is the one that assigns more eagerly.
func (e *backtrackEngine) dfs(ctx context.Context, i int) error {
	e.nodes++
	if e.nodes&ctxCheckMask == 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	if i == len(e.pkgs) {
		e.scoreLeaf()
		return nil
	}

	if e.prune && !e.branchCanImprove(i) {
		return nil
	}

	p := e.pkgs[i]
	rev := p.Revenue()

	for vi, v := range e.fleet {
		if !v.CanCarry(p.VolumeM3, e.used[vi]) {
			continue
		}

		e.assigned[vi] = append(e.assigned[vi], i)
		e.used[vi] += p.VolumeM3
		e.revSoFar += rev

		if err := e.dfs(ctx, i+1); err != nil {
			return err
		}

		e.revSoFar -= rev
		e.used[vi] -= p.VolumeM3
		e.assigned[vi] = e.assigned[vi][:len(e.assigned[vi])-1]
	}

	return e.dfs(ctx, i+1)
}

// branchCanImprove bounds the profit still reachable below this node.
// Revenue is the optimistic ceiling (cost only subtracts), capped both
// by the revenue actually remaining and by what the remaining fleet
// capacity could hold at the best remaining density.
func (e *backtrackEngine) branchCanImprove(i int) bool {
	var remCap float64
	for vi, v := range e.fleet {
		remCap += v.Type.CapacityM3 - e.used[vi]
	}

	optimistic := e.sumRevenue[i]
	if byVolume := remCap * e.maxDensity[i]; byVolume < optimistic {
		optimistic = byVolume
	}

	return e.revSoFar+optimistic > e.bestProfit+scoreEpsilon
}

// scoreLeaf evaluates the current complete assignment. Leaves with a
// route that fails validation (max range) are infeasible and dropped.
func (e *backtrackEngine) scoreLeaf() {
	var profit float64
	for vi, v := range e.fleet {
		if len(e.assigned[vi]) == 0 {
			continue
		}

		route := e.routeFor(v, e.assigned[vi])
		if err := route.Validate(e.d); err != nil {
			return
		}
		profit += route.Profit(e.d)
	}

	if profit > e.bestProfit+scoreEpsilon {
		e.bestProfit = profit
		e.best = copyAssignment(e.assigned)
	}
}

// routeFor builds the scored route shape for one vehicle's package
// indices: nearest-neighbor order polished by 2-opt.
func (e *backtrackEngine) routeFor(v *domain.Vehicle, idx []int) *domain.Route {
	sub := make([]*domain.Package, 0, len(idx))
	for _, i := range idx {
		sub = append(sub, e.pkgs[i])
	}
	return buildRoute(v, sub, e.depot, e.d, true, e.twoOptMaxIter)
}

func copyAssignment(assigned [][]int) [][]int {
	out := make([][]int, len(assigned))
	for i, idx := range assigned {
		out[i] = append([]int(nil), idx...)
	}
	return out
}
