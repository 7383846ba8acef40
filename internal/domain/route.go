package domain

import (
	"errors"
	"fmt"
)

// Validation sentinels. Callers branch on these with errors.Is.
var (
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrRangeExceeded    = errors.New("max range exceeded")
	ErrDuplicatePackage = errors.New("duplicate package")
)

// Represents the planned delivery tour for a single vehicle.
// Package order is visit order; the stop sequence derives from it.
// A Route is the output of a planning agent and describes a proposal:
// it is immutable planning data and contains no side effects.
//
// Distance, cost, revenue, and profit are computed on demand rather
// than stored, so they can never go stale against the package list.
type Route struct {
	Vehicle  *Vehicle
	Packages []*Package
	Depot    Point
}

func NewRoute(v *Vehicle, depot Point, pkgs []*Package) *Route {
	return &Route{Vehicle: v, Packages: pkgs, Depot: depot}
}

// Stops returns the coordinate sequence in visit order, one stop per
// package. Consecutive packages may share a destination.
func (r *Route) Stops() []Point {
	stops := make([]Point, 0, len(r.Packages))
	for _, p := range r.Packages {
		stops = append(stops, p.Destination)
	}
	return stops
}

// VolumeUsed returns the summed volume of all assigned packages.
func (r *Route) VolumeUsed() float64 {
	var used float64
	for _, p := range r.Packages {
		used += p.VolumeM3
	}
	return used
}

// Distance returns the total tour length: depot to first stop, each
// consecutive stop pair, and last stop back to the depot.
func (r *Route) Distance(d Distancer) float64 {
	if len(r.Packages) == 0 {
		return 0
	}

	cur := r.Depot
	var total float64
	for _, p := range r.Packages {
		total += d.Distance(cur, p.Destination)
		cur = p.Destination
	}
	total += d.Distance(cur, r.Depot)

	return total
}

// Cost returns distance times the vehicle's per-km rate.
func (r *Route) Cost(d Distancer) float64 {
	if r.Vehicle == nil {
		return 0
	}
	return r.Distance(d) * r.Vehicle.Type.CostPerKm
}

// Revenue returns the summed package revenue, bonus multipliers included.
func (r *Route) Revenue() float64 {
	var total float64
	for _, p := range r.Packages {
		total += p.Revenue()
	}
	return total
}

// Profit returns revenue minus cost.
func (r *Route) Profit(d Distancer) float64 {
	return r.Revenue() - r.Cost(d)
}

// CapacityUtilization returns the used fraction of vehicle capacity.
func (r *Route) CapacityUtilization() float64 {
	if r.Vehicle == nil || r.Vehicle.Type.CapacityM3 <= 0 {
		return 0
	}
	return r.VolumeUsed() / r.Vehicle.Type.CapacityM3
}

// Evaluation bundles the derived quantities of one route.
type Evaluation struct {
	Distance float64
	Cost     float64
	Revenue  float64
	Profit   float64
}

// Evaluate computes distance, cost, revenue, and profit in one pass.
func (r *Route) Evaluate(d Distancer) Evaluation {
	dist := r.Distance(d)
	cost := dist
	if r.Vehicle != nil {
		cost = dist * r.Vehicle.Type.CostPerKm
	}
	rev := r.Revenue()

	return Evaluation{
		Distance: dist,
		Cost:     cost,
		Revenue:  rev,
		Profit:   rev - cost,
	}
}

// Validate flags constraint violations without correcting them.
// Agents are responsible for producing only valid routes; the checks
// here are the contract they must satisfy.
func (r *Route) Validate(d Distancer) error {
	if r == nil {
		return errors.New("route: must be non-nil")
	}
	if r.Vehicle == nil {
		return errors.New("route: vehicle must be non-nil")
	}

	seen := make(map[string]struct{}, len(r.Packages))
	for _, p := range r.Packages {
		if p == nil {
			return fmt.Errorf("route %s: nil package", r.Vehicle.ID)
		}
		if _, ok := seen[p.ID]; ok {
			return fmt.Errorf("route %s: package %s: %w", r.Vehicle.ID, p.ID, ErrDuplicatePackage)
		}
		seen[p.ID] = struct{}{}
	}

	if used := r.VolumeUsed(); used > r.Vehicle.Type.CapacityM3+capacityEpsilon {
		return fmt.Errorf(
			"route %s: volume %.3f over capacity %.3f: %w",
			r.Vehicle.ID, used, r.Vehicle.Type.CapacityM3, ErrCapacityExceeded,
		)
	}

	if maxRange := r.Vehicle.Type.MaxRangeKm; maxRange > 0 {
		if dist := r.Distance(d); dist > maxRange+capacityEpsilon {
			return fmt.Errorf(
				"route %s: distance %.3f over max range %.3f: %w",
				r.Vehicle.ID, dist, maxRange, ErrRangeExceeded,
			)
		}
	}

	return nil
}
