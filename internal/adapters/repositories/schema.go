package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"fleet-route-planner/internal/domain"
)

// Initialize the database schema.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createPackagesQuery := `
	CREATE TABLE IF NOT EXISTS packages (
		id TEXT PRIMARY KEY,
		dest_x DOUBLE PRECISION NOT NULL,
		dest_y DOUBLE PRECISION NOT NULL,
		volume_m3 DOUBLE PRECISION NOT NULL,
		payment DOUBLE PRECISION NOT NULL,
		priority INTEGER NOT NULL DEFAULT 0,
		rush BOOLEAN NOT NULL DEFAULT FALSE,
		bonus_multiplier DOUBLE PRECISION NOT NULL DEFAULT 1
	);
	`

	createDistanceCacheQuery := `
	CREATE TABLE IF NOT EXISTS distance_cache (
        origin TEXT NOT NULL,
        destination TEXT NOT NULL,
        km DOUBLE PRECISION NOT NULL,
        PRIMARY KEY (origin, destination)
    );
	`

	createPlanJobsQuery := `
	CREATE TABLE IF NOT EXISTS plan_jobs (
        id TEXT PRIMARY KEY,
        status TEXT NOT NULL,
        request JSONB NOT NULL,
        result JSONB,
        error TEXT NOT NULL DEFAULT '',
        created_at TIMESTAMPTZ NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL
    );
	`

	createDistanceIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_distance_cache_destination_origin
    ON distance_cache(destination, origin);
	`

	createJobsIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_plan_jobs_status_created
    ON plan_jobs(status, created_at);
	`

	statements := []string{
		createPackagesQuery,
		createDistanceCacheQuery,
		createPlanJobsQuery,
		createDistanceIndexQuery,
		createJobsIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type PackageSeed struct {
	ID              string  `json:"id"`
	X               float64 `json:"x"`
	Y               float64 `json:"y"`
	VolumeM3        float64 `json:"volume_m3"`
	Payment         float64 `json:"payment"`
	Priority        int     `json:"priority"`
	Rush            bool    `json:"rush"`
	BonusMultiplier float64 `json:"bonus_multiplier"`
}

// Populate the database with package data from a JSON file.
func SeedFromJSON(ctx context.Context, db *sql.DB, jsonPath string) error {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed packages: read %q: %w", jsonPath, err)
	}

	var data []PackageSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return fmt.Errorf("seed packages: parse json: %w", err)
	}

	pkgs := make([]*domain.Package, 0, len(data))
	for i, item := range data {
		p := &domain.Package{
			ID:              item.ID,
			Destination:     domain.Point{X: item.X, Y: item.Y},
			VolumeM3:        item.VolumeM3,
			Payment:         item.Payment,
			Priority:        item.Priority,
			Rush:            item.Rush,
			BonusMultiplier: item.BonusMultiplier,
		}
		if err := p.Validate(); err != nil {
			return fmt.Errorf("seed packages: item at index %d: %w", i+1, err)
		}
		pkgs = append(pkgs, p)
	}

	if err := NewPostgresPackageRepository(db).InsertPackages(ctx, pkgs); err != nil {
		return fmt.Errorf("seed packages: %w", err)
	}

	return nil
}
