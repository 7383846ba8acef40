package planner

import (
	"context"
	"reflect"
	"testing"

	"fleet-route-planner/internal/domain"
)

// Small network and few episodes keep these tests quick; the
// guarantees under test do not depend on training quality.
func neuralTestOptions() Options {
	return Options{Neural: NeuralConfig{HiddenDim: 12, Episodes: 40}}
}

func neuralTestRequest(m domain.Map) Request {
	return Request{
		Packages: []*domain.Package{
			testPackage("p1", 10, 5, 2, 60),
			testPackage("p2", 30, 20, 3, 85),
			testPackage("p3", 5, 25, 1, 40),
			testPackage("p4", 45, 10, 2, 70),
		},
		Fleet: []*domain.Vehicle{testVehicle("v1", 6, 0.5)},
		Map:   m,
		Seed:  42,
	}
}

func TestNeuralDeterministicForSeed(t *testing.T) {
	m := testMap()
	agent, err := New(AgentNeuralPolicyGradient, neuralTestOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	first, err := agent.PlanRoutes(context.Background(), neuralTestRequest(m))
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := agent.PlanRoutes(context.Background(), neuralTestRequest(m))
	if err != nil {
		t.Fatalf("second call: %v", err)
	}

	if !reflect.DeepEqual(routeIDs(first), routeIDs(second)) {
		t.Fatalf("same seed produced different plans: %v vs %v", routeIDs(first), routeIDs(second))
	}
}

func TestNeuralZeroSeedIsStable(t *testing.T) {
	m := testMap()
	agent, _ := New(AgentNeuralPolicyGradient, neuralTestOptions())

	req := neuralTestRequest(m)
	req.Seed = 0

	first, err := agent.PlanRoutes(context.Background(), req)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := agent.PlanRoutes(context.Background(), req)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}

	if !reflect.DeepEqual(routeIDs(first), routeIDs(second)) {
		t.Fatalf("zero seed produced different plans: %v vs %v", routeIDs(first), routeIDs(second))
	}
}

func TestNeuralProducesValidPlan(t *testing.T) {
	m := testMap()
	agent, _ := New(AgentNeuralPolicyGradient, neuralTestOptions())

	req := neuralTestRequest(m)
	plan, err := agent.PlanRoutes(context.Background(), req)
	if err != nil {
		t.Fatalf("PlanRoutes: %v", err)
	}

	for _, r := range plan.Routes {
		if err := r.Validate(m); err != nil {
			t.Fatalf("route for %s invalid: %v", r.Vehicle.ID, err)
		}
	}
	assertPartition(t, plan, req.Packages)
}

func TestNeuralRespectsCapacity(t *testing.T) {
	m := testMap()
	agent, _ := New(AgentNeuralPolicyGradient, neuralTestOptions())

	req := neuralTestRequest(m)
	plan, err := agent.PlanRoutes(context.Background(), req)
	if err != nil {
		t.Fatalf("PlanRoutes: %v", err)
	}

	for _, r := range plan.Routes {
		if used, capacity := r.VolumeUsed(), r.Vehicle.Type.CapacityM3; used > capacity+1e-6 {
			t.Fatalf("vehicle %s packed %v m3 into %v m3", r.Vehicle.ID, used, capacity)
		}
	}
}

func TestNeuralSurvivesTightRange(t *testing.T) {
	m := testMap()
	vt := domain.VehicleType{Name: "short-haul", CapacityM3: 10, CostPerKm: 1, MaxRangeKm: 25}
	req := Request{
		Packages: []*domain.Package{
			testPackage("near", 5, 0, 1, 30),
			testPackage("far", 40, 40, 1, 200),
		},
		Fleet: []*domain.Vehicle{domain.NewVehicle("v1", vt, domain.Point{})},
		Map:   m,
		Seed:  7,
	}

	agent, _ := New(AgentNeuralPolicyGradient, neuralTestOptions())
	plan, err := agent.PlanRoutes(context.Background(), req)
	if err != nil {
		t.Fatalf("PlanRoutes: %v", err)
	}

	// Whatever the policy tried, the returned routes obey the range
	// limit and no package is lost.
	for _, r := range plan.Routes {
		if err := r.Validate(m); err != nil {
			t.Fatalf("route for %s invalid: %v", r.Vehicle.ID, err)
		}
	}
	assertPartition(t, plan, req.Packages)
}

func TestNeuralEmptyInputs(t *testing.T) {
	m := testMap()
	agent, _ := New(AgentNeuralPolicyGradient, neuralTestOptions())

	plan, err := agent.PlanRoutes(context.Background(), Request{Map: m})
	if err != nil {
		t.Fatalf("PlanRoutes on empty input: %v", err)
	}
	if len(plan.Routes) != 0 || len(plan.Unassigned) != 0 {
		t.Fatalf("empty input produced routes=%d unassigned=%d", len(plan.Routes), len(plan.Unassigned))
	}
}
