package ports

import (
	"context"

	"fleet-route-planner/internal/domain"
)

// Port: a persistent cache for origin->destination distances, keyed by
// coordinates. Results map destination indices (into the queried
// slice) to kilometers; absent indices are cache misses.
type DistanceCache interface {
	// Fetch cached distances from one origin to many destinations.
	GetMany(ctx context.Context, origin domain.Point, destinations []domain.Point) (map[int]float64, error)
	// Store distances for a single origin. km is keyed like GetMany's
	// result and must index into destinations.
	PutMany(ctx context.Context, origin domain.Point, destinations []domain.Point, km map[int]float64) error
}
