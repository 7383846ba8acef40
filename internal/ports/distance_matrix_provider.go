package ports

import (
	"context"

	"fleet-route-planner/internal/domain"
)

// Optional extension of DistanceProvider that supports batched lookups.
type MatrixProvider interface {
	DistanceProvider
	// Return distances from one origin to many destinations, in
	// kilometers, aligned with the destinations slice.
	Distances(ctx context.Context, origin domain.Point, destinations []domain.Point) ([]float64, error)
}
