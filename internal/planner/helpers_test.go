package planner

import (
	"testing"

	"fleet-route-planner/internal/domain"
)

func testMap() domain.Map {
	return domain.Map{Width: 100, Height: 100, Depot: domain.Point{X: 0, Y: 0}}
}

func testPackage(id string, x, y, volume, payment float64) *domain.Package {
	return &domain.Package{
		ID:          id,
		Destination: domain.Point{X: x, Y: y},
		VolumeM3:    volume,
		Payment:     payment,
	}
}

func testVehicle(id string, capacity, costPerKm float64) *domain.Vehicle {
	vt := domain.VehicleType{
		Name:       "van",
		CapacityM3: capacity,
		CostPerKm:  costPerKm,
	}
	return domain.NewVehicle(id, vt, domain.Point{})
}

// routeIDs returns the stop order of each route keyed by vehicle ID.
func routeIDs(p *Plan) map[string][]string {
	out := make(map[string][]string, len(p.Routes))
	for _, r := range p.Routes {
		ids := make([]string, 0, len(r.Packages))
		for _, pkg := range r.Packages {
			ids = append(ids, pkg.ID)
		}
		out[r.Vehicle.ID] = ids
	}
	return out
}

// assertPartition fails unless every input package ID appears exactly
// once across the plan's routes and unassigned list.
func assertPartition(t *testing.T, plan *Plan, input []*domain.Package) {
	t.Helper()

	want := make(map[string]int, len(input))
	for _, p := range input {
		want[p.ID]++
	}

	got := make(map[string]int)
	for _, r := range plan.Routes {
		for _, p := range r.Packages {
			got[p.ID]++
		}
	}
	for _, p := range plan.Unassigned {
		got[p.ID]++
	}

	for id, n := range got {
		if n > 1 {
			t.Fatalf("package %s appears %d times in the plan", id, n)
		}
		if want[id] == 0 {
			t.Fatalf("package %s in plan but not in input", id)
		}
	}
	for id := range want {
		if got[id] == 0 {
			t.Fatalf("package %s missing from plan", id)
		}
	}
}
