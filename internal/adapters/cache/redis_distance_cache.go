package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"

	"fleet-route-planner/internal/domain"
	"fleet-route-planner/internal/platform/obs"
)

// RedisDistanceCache caches origin->destination distances in Redis,
// one key per pair, with a configurable TTL.
type RedisDistanceCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisDistanceCache(rdb *redis.Client, ttl time.Duration) *RedisDistanceCache {
	return &RedisDistanceCache{rdb: rdb, ttl: ttl}
}

func pairKey(origin, dest domain.Point) string {
	return "dist:" + PointKey(origin) + ":" + PointKey(dest)
}

// Fetch cached distances for one origin and multiple destinations.
func (c *RedisDistanceCache) GetMany(
	ctx context.Context,
	origin domain.Point,
	destinations []domain.Point,
) (_ map[int]float64, err error) {
	defer obs.Time(ctx, "distance.cache.GetMany")(&err)

	if c.rdb == nil {
		return nil, errors.New("distance cache: redis client is nil")
	}

	if len(destinations) == 0 {
		return map[int]float64{}, nil
	}

	seen := map[string]struct{}{}
	keys := make([]string, 0, len(destinations))
	for _, d := range destinations {
		k := pairKey(origin, d)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}

	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("get distance cache: redis mget: %w", err)
	}

	byKey := make(map[string]float64, len(keys))
	for i, v := range vals {
		if v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		km, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("get distance cache: parse %q for key %q: %w", s, keys[i], err)
		}
		byKey[keys[i]] = km
	}

	out := make(map[int]float64, len(byKey))
	for i, d := range destinations {
		if km, ok := byKey[pairKey(origin, d)]; ok {
			out[i] = km
		}
	}

	return out, nil
}

// Store many cached distances for a single origin.
func (c *RedisDistanceCache) PutMany(
	ctx context.Context,
	origin domain.Point,
	destinations []domain.Point,
	km map[int]float64,
) error {
	if c.rdb == nil {
		return errors.New("distance cache: redis client is nil")
	}

	if len(km) == 0 {
		return nil
	}

	_, err := c.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, v := range km {
			if i < 0 || i >= len(destinations) {
				return fmt.Errorf("insert distance cache: index %d outside destinations", i)
			}
			key := pairKey(origin, destinations[i])
			pipe.Set(ctx, key, strconv.FormatFloat(v, 'g', -1, 64), c.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("insert distance cache: redis pipeline: %w", err)
	}

	return nil
}
