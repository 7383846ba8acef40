package ports

import (
	"context"

	"fleet-route-planner/internal/domain"
)

// Contract for retrieving the travel distance between two points, in
// kilometers. Implementations may go over the network; pure geometry
// belongs in domain.Distancer.
type DistanceProvider interface {
	// Return the travel distance from a to b.
	Distance(ctx context.Context, a, b domain.Point) (float64, error)
}
