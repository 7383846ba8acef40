package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"fleet-route-planner/internal/domain"
	"fleet-route-planner/internal/platform/obs"
	"fleet-route-planner/internal/ports"
)

type matrixRowResult struct {
	origin  domain.Point
	targets []domain.Point
	km      []float64
	err     error
}

// Matrix holds prefetched travel distances between a fixed set of
// points. It satisfies domain.Distancer, so planning agents can run
// against provider distances instead of plain geometry.
type Matrix struct {
	km map[[2]domain.Point]float64
}

// Distance returns the prefetched travel distance from a to b.
// Pairs outside the prefetched set fall back to Euclidean geometry.
func (m *Matrix) Distance(a, b domain.Point) float64 {
	if a == b {
		return 0
	}
	if m != nil {
		if km, ok := m.km[[2]domain.Point{a, b}]; ok {
			return km
		}
	}
	return domain.Dist(a, b)
}

// Len reports how many ordered pairs the matrix holds.
func (m *Matrix) Len() int {
	if m == nil {
		return 0
	}
	return len(m.km)
}

// BuildMatrix fetches all ordered pairwise distances among points from
// the provider. Rows are fetched concurrently, a few origins at a
// time, and the first failure cancels the rest.
func BuildMatrix(
	ctx context.Context,
	provider ports.DistanceProvider,
	points []domain.Point,
) (_ *Matrix, err error) {
	defer obs.Time(ctx, "services.BuildMatrix")(&err)

	if provider == nil {
		return nil, errors.New("build matrix: provider is nil")
	}

	seen := make(map[domain.Point]struct{}, len(points))
	uniq := make([]domain.Point, 0, len(points))
	for _, p := range points {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		uniq = append(uniq, p)
	}

	m := &Matrix{km: make(map[[2]domain.Point]float64, len(uniq)*len(uniq))}
	if len(uniq) < 2 {
		return m, nil
	}

	mp, hasMatrix := provider.(ports.MatrixProvider)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, 5)
	resultsCh := make(chan matrixRowResult, len(uniq))
	var wg sync.WaitGroup

	for _, origin := range uniq {
		targets := make([]domain.Point, 0, len(uniq)-1)
		for _, t := range uniq {
			if t != origin {
				targets = append(targets, t)
			}
		}

		wg.Add(1)
		go func(orig domain.Point, targets []domain.Point) {
			sem <- struct{}{}
			defer wg.Done()
			defer func() { <-sem }()

			var km []float64
			if hasMatrix {
				var e error
				km, e = mp.Distances(ctx, orig, targets)
				if e != nil {
					resultsCh <- matrixRowResult{origin: orig, err: fmt.Errorf("build matrix: distances from %v: %w", orig, e)}
					cancel()
					return
				}
				if len(km) != len(targets) {
					resultsCh <- matrixRowResult{origin: orig, err: fmt.Errorf("build matrix: provider returned %d distances for %d targets", len(km), len(targets))}
					cancel()
					return
				}
			} else {
				km = make([]float64, len(targets))
				for i, t := range targets {
					d, e := provider.Distance(ctx, orig, t)
					if e != nil {
						resultsCh <- matrixRowResult{origin: orig, err: fmt.Errorf("build matrix: distance %v -> %v: %w", orig, t, e)}
						cancel()
						return
					}
					km[i] = d
				}
			}

			resultsCh <- matrixRowResult{origin: orig, targets: targets, km: km}
		}(origin, targets)
	}

	wg.Wait()
	close(resultsCh)

	var rowErr error
	for res := range resultsCh {
		if res.err != nil {
			if rowErr == nil {
				rowErr = res.err
			}
			continue
		}
		for i, t := range res.targets {
			m.km[[2]domain.Point{res.origin, t}] = res.km[i]
		}
	}
	if rowErr != nil {
		return nil, rowErr
	}

	return m, nil
}
