package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"fleet-route-planner/internal/domain"
	"fleet-route-planner/internal/platform/obs"
)

// PointKey renders a point as the canonical cache key shared by every
// distance cache backend. FormatFloat 'g' round-trips float64 exactly,
// so equal points always produce equal keys.
func PointKey(p domain.Point) string {
	return strconv.FormatFloat(p.X, 'g', -1, 64) + "," + strconv.FormatFloat(p.Y, 'g', -1, 64)
}

// PostgresDistanceCache is a SQL-backed cache for origin->destination
// distances, keyed by canonical point keys.
type PostgresDistanceCache struct {
	DB *sql.DB
}

func NewPostgresDistanceCache(db *sql.DB) *PostgresDistanceCache {
	return &PostgresDistanceCache{DB: db}
}

// Fetch cached distances for one origin and multiple destinations.
func (s *PostgresDistanceCache) GetMany(
	ctx context.Context,
	origin domain.Point,
	destinations []domain.Point,
) (_ map[int]float64, err error) {
	defer obs.Time(ctx, "distance.cache.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("distance cache: db is nil")
	}

	if len(destinations) == 0 {
		return map[int]float64{}, nil
	}

	originKey := PointKey(origin)

	seen := map[string]struct{}{}
	uniq := make([]string, 0, len(destinations))
	for _, d := range destinations {
		k := PointKey(d)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		uniq = append(uniq, k)
	}

	q := `
	SELECT destination, km
    FROM distance_cache
    WHERE origin = $1
        AND destination = ANY($2::text[]);
	`

	rows, err := s.DB.QueryContext(ctx, q, originKey, uniq)
	if err != nil {
		return nil, fmt.Errorf("get distance cache: query distance_cache table: %w", err)
	}
	defer rows.Close()

	byKey := make(map[string]float64, len(uniq))
	for rows.Next() {
		var dest string
		var km float64
		if err := rows.Scan(&dest, &km); err != nil {
			return nil, fmt.Errorf("get distance cache: scan rows: %w", err)
		}
		byKey[dest] = km
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get distance cache: row iteration: %w", err)
	}

	out := make(map[int]float64, len(byKey))
	for i, d := range destinations {
		if km, ok := byKey[PointKey(d)]; ok {
			out[i] = km
		}
	}

	return out, nil
}

// Store many cached distances for a single origin.
func (s *PostgresDistanceCache) PutMany(
	ctx context.Context,
	origin domain.Point,
	destinations []domain.Point,
	km map[int]float64,
) error {
	if s.DB == nil {
		return errors.New("distance cache: db is nil")
	}

	if len(km) == 0 {
		return nil
	}

	originKey := PointKey(origin)

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert distance cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO distance_cache (origin, destination, km)
    VALUES ($1, $2, $3)
	ON CONFLICT (origin, destination) DO UPDATE
	SET km = EXCLUDED.km;
	`)
	if err != nil {
		return fmt.Errorf("insert distance cache: db prepare: %w", err)
	}
	defer stmt.Close()

	for i, v := range km {
		if i < 0 || i >= len(destinations) {
			return fmt.Errorf("insert distance cache: index %d outside destinations", i)
		}
		destKey := PointKey(destinations[i])

		if _, err := stmt.ExecContext(ctx, originKey, destKey, v); err != nil {
			return fmt.Errorf("insert distance cache dest=%q: %w", destKey, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert distance cache commit: %w", err)
	}

	return nil
}
