package ports

import (
	"context"

	"fleet-route-planner/internal/domain"
)

// Port: a boundary for storing and retrieving Package entities.
type PackageRepository interface {
	// Retrieve all packages available for routing.
	ListPackages(ctx context.Context) ([]*domain.Package, error)
	// Store packages, replacing rows that share an ID.
	InsertPackages(ctx context.Context, pkgs []*domain.Package) error
}
