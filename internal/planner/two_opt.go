package planner

import "fleet-route-planner/internal/domain"

// twoOptEpsilon is the strict-improvement margin; reversals that do
// not shorten the tour by more than this are not applied, which keeps
// the search from oscillating on float noise.
const twoOptEpsilon = 1e-9

// Improve applies 2-opt local search to a stop ordering: reverse a
// contiguous segment whenever the reversed tour is strictly shorter,
// rescanning from the top after every applied move
// (first-improvement). Terminates when a full scan finds no improving
// reversal or after maxIter scans, whichever comes first.
//
// The depot legs count toward tour length but the depot itself is not
// part of the permutable set. Output tour length never exceeds input
// tour length.
func Improve(points []domain.Point, depot domain.Point, d domain.Distancer, maxIter int) []domain.Point {
	idx := twoOptOrder(len(points), func(i int) domain.Point { return points[i] }, depot, d, maxIter)

	out := make([]domain.Point, 0, len(points))
	for _, i := range idx {
		out = append(out, points[i])
	}
	return out
}

// improvePackages runs Improve over package destinations, preserving
// package identity.
func improvePackages(pkgs []*domain.Package, depot domain.Point, d domain.Distancer, maxIter int) []*domain.Package {
	idx := twoOptOrder(len(pkgs), func(i int) domain.Point { return pkgs[i].Destination }, depot, d, maxIter)

	out := make([]*domain.Package, 0, len(pkgs))
	for _, i := range idx {
		out = append(out, pkgs[i])
	}
	return out
}

func twoOptOrder(n int, at func(int) domain.Point, depot domain.Point, d domain.Distancer, maxIter int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if n < 3 {
		return order
	}

	length := func() float64 {
		total := d.Distance(depot, at(order[0]))
		for i := 0; i+1 < n; i++ {
			total += d.Distance(at(order[i]), at(order[i+1]))
		}
		total += d.Distance(at(order[n-1]), depot)
		return total
	}

	best := length()

	for iter := 0; iter < maxIter; iter++ {
		improved := false

	scan:
		for i := 0; i < n-1; i++ {
			for j := i + 1; j < n; j++ {
				reverse(order, i, j)

				// Full recompute keeps the comparison correct even for
				// asymmetric distance matrices.
				if cand := length(); cand+twoOptEpsilon < best {
					best = cand
					improved = true
					break scan
				}

				reverse(order, i, j)
			}
		}

		if !improved {
			break
		}
	}

	return order
}

func reverse(order []int, i, j int) {
	for i < j {
		order[i], order[j] = order[j], order[i]
		i++
		j--
	}
}
