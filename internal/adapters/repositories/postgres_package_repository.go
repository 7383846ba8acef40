package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fleet-route-planner/internal/domain"
)

// Postgres-backed implementation of the PackageRepository port.
type PostgresPackageRepository struct{ DB *sql.DB }

func NewPostgresPackageRepository(db *sql.DB) *PostgresPackageRepository {
	return &PostgresPackageRepository{DB: db}
}

// Return all packages stored in the database.
func (s *PostgresPackageRepository) ListPackages(ctx context.Context) ([]*domain.Package, error) {
	if s.DB == nil {
		return nil, errors.New("postgres package repository: DB is nil")
	}

	query := `
	SELECT
		id,
		dest_x,
		dest_y,
		volume_m3,
		payment,
		priority,
		rush,
		bonus_multiplier
	FROM packages
	ORDER BY id;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list packages: query packages table: %w", err)
	}
	defer rows.Close()

	packages := make([]*domain.Package, 0, 64)
	for rows.Next() {
		var p domain.Package
		err := rows.Scan(
			&p.ID,
			&p.Destination.X,
			&p.Destination.Y,
			&p.VolumeM3,
			&p.Payment,
			&p.Priority,
			&p.Rush,
			&p.BonusMultiplier,
		)
		if err != nil {
			return nil, fmt.Errorf("list packages: scan row: %w", err)
		}
		packages = append(packages, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list packages: row iteration: %w", err)
	}

	return packages, nil
}

// Store packages, replacing rows that share an ID.
func (s *PostgresPackageRepository) InsertPackages(ctx context.Context, pkgs []*domain.Package) error {
	if s.DB == nil {
		return errors.New("postgres package repository: DB is nil")
	}

	if len(pkgs) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert packages: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
	INSERT INTO packages (
		id,
		dest_x,
		dest_y,
		volume_m3,
		payment,
		priority,
		rush,
		bonus_multiplier
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (id) DO UPDATE SET
		dest_x = EXCLUDED.dest_x,
		dest_y = EXCLUDED.dest_y,
		volume_m3 = EXCLUDED.volume_m3,
		payment = EXCLUDED.payment,
		priority = EXCLUDED.priority,
		rush = EXCLUDED.rush,
		bonus_multiplier = EXCLUDED.bonus_multiplier;
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("insert packages: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range pkgs {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("insert packages: %w", err)
		}
		bonus := p.BonusMultiplier
		if bonus == 0 {
			bonus = 1
		}
		_, err := stmt.ExecContext(ctx,
			p.ID, p.Destination.X, p.Destination.Y, p.VolumeM3, p.Payment, p.Priority, p.Rush, bonus)
		if err != nil {
			return fmt.Errorf("insert packages: insert id=%q: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert packages: commit tx: %w", err)
	}

	return nil
}
