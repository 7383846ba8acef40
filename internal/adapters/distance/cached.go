package distance

import (
	"context"
	"errors"
	"fmt"
	"log"

	"fleet-route-planner/internal/domain"
	"fleet-route-planner/internal/platform/metrics"
	"fleet-route-planner/internal/platform/obs"
	"fleet-route-planner/internal/ports"
)

// CachedProvider decorates a DistanceProvider with a distance cache.
// Lookups are served from the cache where possible, misses are
// fetched from the inner provider and written back best-effort. A
// failing cache degrades to plain fetches instead of failing lookups.
type CachedProvider struct {
	inner ports.DistanceProvider
	cache ports.DistanceCache
}

func NewCachedProvider(inner ports.DistanceProvider, cache ports.DistanceCache) (*CachedProvider, error) {
	if inner == nil {
		return nil, errors.New("cached provider: inner provider is nil")
	}
	if cache == nil {
		return nil, errors.New("cached provider: cache is nil")
	}
	return &CachedProvider{inner: inner, cache: cache}, nil
}

// Delegate to the batched path to reuse the cache logic.
func (p *CachedProvider) Distance(ctx context.Context, a, b domain.Point) (float64, error) {
	km, err := p.Distances(ctx, a, []domain.Point{b})
	if err != nil {
		return 0, fmt.Errorf("get distance %v -> %v: %w", a, b, err)
	}
	return km[0], nil
}

// Distances returns kilometers from origin to every destination,
// aligned with the input slice. Cached pairs are served without
// touching the inner provider.
func (p *CachedProvider) Distances(
	ctx context.Context,
	origin domain.Point,
	destinations []domain.Point,
) (_ []float64, err error) {
	defer obs.Time(ctx, "distance.cached.Distances")(&err)

	out := make([]float64, len(destinations))
	if len(destinations) == 0 {
		return out, nil
	}

	// Zero-length legs never reach the cache or the inner provider.
	pending := make([]int, 0, len(destinations))
	for i, d := range destinations {
		if d == origin {
			continue
		}
		pending = append(pending, i)
	}
	if len(pending) == 0 {
		return out, nil
	}

	hits, err := p.cache.GetMany(ctx, origin, destinations)
	if err != nil {
		log.Printf("distance cache read failed: %v", err)
		hits = nil
	}

	misses := make([]int, 0, len(pending))
	for _, i := range pending {
		if km, ok := hits[i]; ok {
			out[i] = km
			continue
		}
		misses = append(misses, i)
	}
	metrics.DistanceCacheHits.Add(float64(len(pending) - len(misses)))
	metrics.DistanceCacheMisses.Add(float64(len(misses)))
	if len(misses) == 0 {
		return out, nil
	}

	// Fetch each distinct missing point once, then fan the result back
	// out to every index that asked for it.
	firstIdx := make(map[domain.Point]int, len(misses))
	var fetchPoints []domain.Point
	for _, i := range misses {
		d := destinations[i]
		if _, ok := firstIdx[d]; !ok {
			firstIdx[d] = len(fetchPoints)
			fetchPoints = append(fetchPoints, d)
		}
	}

	row, err := p.fetch(ctx, origin, fetchPoints)
	if err != nil {
		return nil, err
	}

	put := make(map[int]float64, len(misses))
	for _, i := range misses {
		km := row[firstIdx[destinations[i]]]
		out[i] = km
		put[i] = km
	}

	if err := p.cache.PutMany(ctx, origin, destinations, put); err != nil {
		log.Printf("distance cache write failed: %v", err)
	}

	return out, nil
}

func (p *CachedProvider) fetch(ctx context.Context, origin domain.Point, points []domain.Point) ([]float64, error) {
	if mp, ok := p.inner.(ports.MatrixProvider); ok {
		row, err := mp.Distances(ctx, origin, points)
		if err != nil {
			return nil, fmt.Errorf("fetch distances from %v: %w", origin, err)
		}
		if len(row) != len(points) {
			return nil, fmt.Errorf("fetch distances: provider returned %d values for %d points", len(row), len(points))
		}
		return row, nil
	}

	row := make([]float64, len(points))
	for i, d := range points {
		km, err := p.inner.Distance(ctx, origin, d)
		if err != nil {
			return nil, fmt.Errorf("fetch distance %v -> %v: %w", origin, d, err)
		}
		row[i] = km
	}
	return row, nil
}
