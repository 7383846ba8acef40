// Package planner turns a batch of pending packages and an available
// fleet into per-vehicle delivery routes. Strategies share one Agent
// contract and are selected by name, so callers can swap them without
// changing calling code.
package planner

import (
	"context"
	"fmt"

	"fleet-route-planner/internal/domain"
)

// Agent strategy names accepted by New.
const (
	AgentNearestNeighbor      = "nearest-neighbor"
	AgentGreedyTwoOpt         = "greedy-2opt"
	AgentBacktracking         = "backtracking"
	AgentPrunedBacktracking   = "pruned-backtracking"
	AgentNeuralPolicyGradient = "neural"
)

// Defaults applied when Options fields are left zero.
const (
	DefaultMaxPackages   = 10
	DefaultTwoOptMaxIter = 50
)

// Agent is the common contract every planning strategy satisfies.
// Implementations hold only static configuration: no state leaks
// between calls, and identical inputs (plus identical seed for the
// neural strategy) produce identical output.
type Agent interface {
	// PlanRoutes partitions the request's packages among its fleet and
	// orders each vehicle's stops. Inputs are deep-copied on entry and
	// never mutated. Empty or fully invalid input yields an empty plan,
	// not an error; errors are reserved for cancellation.
	PlanRoutes(ctx context.Context, req Request) (*Plan, error)
	// Name returns the strategy name as registered with New.
	Name() string
}

// Request carries one planning call's inputs.
type Request struct {
	Packages []*domain.Package
	Fleet    []*domain.Vehicle
	Map      domain.Map
	// Dist overrides the map's Euclidean metric, e.g. with a
	// precomputed matrix. Nil falls back to the map.
	Dist domain.Distancer
	// Seed drives the neural strategy's sampling; other strategies
	// ignore it.
	Seed int64
}

func (r Request) distancer() domain.Distancer {
	if r.Dist != nil {
		return r.Dist
	}
	return r.Map
}

// Options is the static configuration an agent is constructed with.
type Options struct {
	// MaxPackages caps the backtracking search's input size. Inputs
	// over the cap fail closed. Zero means DefaultMaxPackages.
	MaxPackages int
	// TwoOptMaxIter bounds full improvement scans per route ordering.
	// Zero means DefaultTwoOptMaxIter.
	TwoOptMaxIter int
	// Neural configures the policy-gradient strategy.
	Neural NeuralConfig
}

func (o Options) maxPackages() int {
	if o.MaxPackages <= 0 {
		return DefaultMaxPackages
	}
	return o.MaxPackages
}

func (o Options) twoOptMaxIter() int {
	if o.TwoOptMaxIter <= 0 {
		return DefaultTwoOptMaxIter
	}
	return o.TwoOptMaxIter
}

// Plan is the structured result of one planning call. Diagnostics
// travel with the result instead of being printed from planning code.
type Plan struct {
	Agent      string
	Routes     []*domain.Route
	Unassigned []*domain.Package
	Warnings   []string
	// SizeLimited reports that a size-capped strategy refused the
	// input and failed closed; Routes is empty and Unassigned holds
	// every package.
	SizeLimited bool
}

func newPlan(agent string) *Plan {
	return &Plan{Agent: agent}
}

func (p *Plan) warnf(format string, args ...any) {
	p.Warnings = append(p.Warnings, fmt.Sprintf(format, args...))
}

// AssignedCount returns the number of packages across all routes.
func (p *Plan) AssignedCount() int {
	n := 0
	for _, r := range p.Routes {
		n += len(r.Packages)
	}
	return n
}

// New returns the strategy registered under name.
func New(name string, opts Options) (Agent, error) {
	switch name {
	case AgentNearestNeighbor:
		return &greedyAgent{opts: opts}, nil
	case AgentGreedyTwoOpt:
		return &greedyAgent{opts: opts, twoOpt: true}, nil
	case AgentBacktracking:
		return &backtrackingAgent{opts: opts}, nil
	case AgentPrunedBacktracking:
		return &backtrackingAgent{opts: opts, prune: true}, nil
	case AgentNeuralPolicyGradient:
		return &neuralAgent{opts: opts}, nil
	default:
		return nil, fmt.Errorf("planner: unknown agent %q", name)
	}
}

// Names lists every strategy name New accepts, in stable order.
func Names() []string {
	return []string{
		AgentNearestNeighbor,
		AgentGreedyTwoOpt,
		AgentBacktracking,
		AgentPrunedBacktracking,
		AgentNeuralPolicyGradient,
	}
}

// prepare deep-copies and screens the request's inputs.
//
// Malformed packages and vehicles are excluded and reported through
// plan warnings (bad packages additionally land in Unassigned), so one
// bad row does not void a whole batch. Duplicate package IDs keep the
// first occurrence only, which protects the no-package-in-two-routes
// postcondition from dirty input.
func prepare(agent string, req Request) (pkgs []*domain.Package, fleet []*domain.Vehicle, plan *Plan) {
	plan = newPlan(agent)

	seen := make(map[string]struct{}, len(req.Packages))
	pkgs = make([]*domain.Package, 0, len(req.Packages))
	for i, p := range req.Packages {
		if p == nil {
			plan.warnf("package at index %d is nil, skipped", i)
			continue
		}
		c := p.Clone()
		if err := c.Validate(); err != nil {
			plan.warnf("invalid package skipped: %v", err)
			plan.Unassigned = append(plan.Unassigned, c)
			continue
		}
		if _, dup := seen[c.ID]; dup {
			plan.warnf("duplicate package id %s, keeping first occurrence", c.ID)
			continue
		}
		seen[c.ID] = struct{}{}
		pkgs = append(pkgs, c)
	}

	seenVehicles := make(map[string]struct{}, len(req.Fleet))
	fleet = make([]*domain.Vehicle, 0, len(req.Fleet))
	for i, v := range req.Fleet {
		if v == nil {
			plan.warnf("vehicle at index %d is nil, skipped", i)
			continue
		}
		c := v.Clone()
		if err := c.Validate(); err != nil {
			plan.warnf("invalid vehicle skipped: %v", err)
			continue
		}
		if _, dup := seenVehicles[c.ID]; dup {
			plan.warnf("duplicate vehicle id %s, keeping first occurrence", c.ID)
			continue
		}
		seenVehicles[c.ID] = struct{}{}
		fleet = append(fleet, c)
	}

	return pkgs, fleet, plan
}

// buildRoute orders a vehicle's package set from the depot and wraps
// it in a route proposal.
func buildRoute(v *domain.Vehicle, pkgs []*domain.Package, depot domain.Point, d domain.Distancer, twoOpt bool, twoOptMaxIter int) *domain.Route {
	ordered := orderPackages(pkgs, depot, d)
	if twoOpt {
		ordered = improvePackages(ordered, depot, d, twoOptMaxIter)
	}
	return domain.NewRoute(v, depot, ordered)
}

// admitRoute appends a constructed route to the plan, unless it fails
// validation; then its packages spill to Unassigned with a warning.
// Agents return only valid routes.
func admitRoute(plan *Plan, r *domain.Route, d domain.Distancer) {
	if len(r.Packages) == 0 {
		return
	}
	if err := r.Validate(d); err != nil {
		plan.warnf("route dropped: %v", err)
		plan.Unassigned = append(plan.Unassigned, r.Packages...)
		return
	}
	plan.Routes = append(plan.Routes, r)
}
