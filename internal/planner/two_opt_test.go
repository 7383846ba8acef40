package planner

import (
	"math/rand"
	"testing"

	"fleet-route-planner/internal/domain"
)

func TestImproveUncrossesTour(t *testing.T) {
	m := testMap()
	// Visiting the square's corners in this order crosses the tour;
	// swapping the middle pair is a strict improvement.
	crossed := []domain.Point{
		{X: 10, Y: 0},
		{X: 0, Y: 10},
		{X: 10, Y: 10},
		{X: 0, Y: 20},
	}
	before := TourLength(crossed, m.Depot, m)

	improved := Improve(crossed, m.Depot, m, DefaultTwoOptMaxIter)

	after := TourLength(improved, m.Depot, m)
	if after >= before {
		t.Fatalf("tour length %v not improved from %v", after, before)
	}
	if want := 60.0; after > want+1e-9 {
		t.Fatalf("tour length = %v, want the uncrossed %v", after, want)
	}
}

func TestImproveNeverWorsens(t *testing.T) {
	m := testMap()
	rng := rand.New(rand.NewSource(3))

	for _, n := range []int{2, 5, 9, 17} {
		points := make([]domain.Point, n)
		for i := range points {
			points[i] = domain.Point{X: rng.Float64() * 100, Y: rng.Float64() * 100}
		}
		before := TourLength(points, m.Depot, m)

		improved := Improve(points, m.Depot, m, DefaultTwoOptMaxIter)

		after := TourLength(improved, m.Depot, m)
		if after > before+1e-9 {
			t.Fatalf("n=%d: tour length grew from %v to %v", n, before, after)
		}
		if len(improved) != n {
			t.Fatalf("n=%d: got %d points back", n, len(improved))
		}
	}
}

func TestImproveKeepsOptimalTour(t *testing.T) {
	m := testMap()
	straight := []domain.Point{
		{X: 10, Y: 0},
		{X: 10, Y: 10},
		{X: 0, Y: 10},
	}
	before := TourLength(straight, m.Depot, m)

	improved := Improve(straight, m.Depot, m, DefaultTwoOptMaxIter)

	after := TourLength(improved, m.Depot, m)
	if after != before {
		t.Fatalf("optimal tour changed length: %v -> %v", before, after)
	}
}

func TestImproveIsIdempotent(t *testing.T) {
	m := testMap()
	rng := rand.New(rand.NewSource(11))

	points := make([]domain.Point, 12)
	for i := range points {
		points[i] = domain.Point{X: rng.Float64() * 100, Y: rng.Float64() * 100}
	}

	// A generous scan cap so the first pass fully converges.
	once := Improve(points, m.Depot, m, 10_000)
	twice := Improve(once, m.Depot, m, 10_000)

	for i := range once {
		if once[i] != twice[i] {
			t.Fatalf("second pass changed stop %d: %v -> %v", i, once[i], twice[i])
		}
	}
}

func TestImproveHandlesTrivialInputs(t *testing.T) {
	m := testMap()

	if got := Improve(nil, m.Depot, m, DefaultTwoOptMaxIter); len(got) != 0 {
		t.Fatalf("nil input: got %v", got)
	}

	pair := []domain.Point{{X: 1, Y: 1}, {X: 2, Y: 2}}
	got := Improve(pair, m.Depot, m, DefaultTwoOptMaxIter)
	if len(got) != 2 || got[0] != pair[0] || got[1] != pair[1] {
		t.Fatalf("two-point input changed: got %v", got)
	}
}
