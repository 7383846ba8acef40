package distance

import (
	"context"

	"fleet-route-planner/internal/domain"
)

// Euclidean serves straight-line distances without leaving the
// process. It is the default provider when the operating map's planar
// coordinates are the geometry.
type Euclidean struct{}

func (Euclidean) Distance(ctx context.Context, a, b domain.Point) (float64, error) {
	return domain.Dist(a, b), nil
}

// Distances returns one straight-line distance per destination.
func (Euclidean) Distances(ctx context.Context, origin domain.Point, destinations []domain.Point) ([]float64, error) {
	out := make([]float64, len(destinations))
	for i, d := range destinations {
		out[i] = domain.Dist(origin, d)
	}
	return out, nil
}
