package planner

import (
	"math"

	"fleet-route-planner/internal/domain"
)

// Order builds a stop ordering with the greedy nearest-neighbor rule:
// repeatedly move to the unvisited point closest to the current
// position, starting from start. The result is a permutation of the
// input, every point exactly once.
//
// The algorithm minimizes immediate travel at each step and does not
// attempt global optimization; pair it with Improve when tour quality
// matters. Ties on distance go to the lowest original input index, so
// identical input always produces identical output. O(n²).
func Order(points []domain.Point, start domain.Point, d domain.Distancer) []domain.Point {
	idx := nearestOrder(len(points), func(i int) domain.Point { return points[i] }, start, d)

	out := make([]domain.Point, 0, len(points))
	for _, i := range idx {
		out = append(out, points[i])
	}
	return out
}

// orderPackages applies the nearest-neighbor rule to package
// destinations, preserving package identity.
func orderPackages(pkgs []*domain.Package, start domain.Point, d domain.Distancer) []*domain.Package {
	idx := nearestOrder(len(pkgs), func(i int) domain.Point { return pkgs[i].Destination }, start, d)

	out := make([]*domain.Package, 0, len(pkgs))
	for _, i := range idx {
		out = append(out, pkgs[i])
	}
	return out
}

// nearestOrder runs the greedy selection over point indices.
func nearestOrder(n int, at func(int) domain.Point, start domain.Point, d domain.Distancer) []int {
	visited := make([]bool, n)
	order := make([]int, 0, n)

	cur := start
	for len(order) < n {
		best := -1
		minDist := math.MaxFloat64

		// Lowest index wins ties, which keeps the ordering
		// deterministic for equidistant points.
		for i := 0; i < n; i++ {
			if visited[i] {
				continue
			}
			if dist := d.Distance(cur, at(i)); dist < minDist {
				minDist = dist
				best = i
			}
		}

		visited[best] = true
		order = append(order, best)
		cur = at(best)
	}

	return order
}

// TourLength returns the closed-tour distance over the stops: depot to
// first, consecutive pairs, last back to depot. Empty tours are zero.
func TourLength(points []domain.Point, depot domain.Point, d domain.Distancer) float64 {
	if len(points) == 0 {
		return 0
	}

	total := d.Distance(depot, points[0])
	for i := 0; i+1 < len(points); i++ {
		total += d.Distance(points[i], points[i+1])
	}
	total += d.Distance(points[len(points)-1], depot)

	return total
}
