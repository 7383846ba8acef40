package distance

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-route-planner/internal/domain"
)

type memCache struct {
	km     map[[2]domain.Point]float64
	getErr error
	putErr error
	puts   int
}

func newMemCache() *memCache {
	return &memCache{km: make(map[[2]domain.Point]float64)}
}

func (c *memCache) GetMany(ctx context.Context, origin domain.Point, destinations []domain.Point) (map[int]float64, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	out := make(map[int]float64)
	for i, d := range destinations {
		if km, ok := c.km[[2]domain.Point{origin, d}]; ok {
			out[i] = km
		}
	}
	return out, nil
}

func (c *memCache) PutMany(ctx context.Context, origin domain.Point, destinations []domain.Point, km map[int]float64) error {
	if c.putErr != nil {
		return c.putErr
	}
	for i, v := range km {
		c.km[[2]domain.Point{origin, destinations[i]}] = v
	}
	c.puts++
	return nil
}

func TestCachedProviderFetchesMissesAndWritesBack(t *testing.T) {
	origin := domain.Point{X: 0, Y: 0}
	a := domain.Point{X: 10, Y: 0}
	b := domain.Point{X: 0, Y: 20}

	inner := NewMockProvider([]MockPair{
		{From: origin, To: a, Km: 12},
		{From: origin, To: b, Km: 25},
	})
	cache := newMemCache()
	p, err := NewCachedProvider(inner, cache)
	require.NoError(t, err)

	got, err := p.Distances(context.Background(), origin, []domain.Point{a, b})
	require.NoError(t, err)
	assert.Equal(t, []float64{12, 25}, got)
	assert.Equal(t, int64(2), inner.Calls())
	assert.Equal(t, 1, cache.puts)

	// Second call is served entirely from the cache.
	got, err = p.Distances(context.Background(), origin, []domain.Point{a, b})
	require.NoError(t, err)
	assert.Equal(t, []float64{12, 25}, got)
	assert.Equal(t, int64(2), inner.Calls())
}

func TestCachedProviderFetchesOnlyMisses(t *testing.T) {
	origin := domain.Point{X: 0, Y: 0}
	a := domain.Point{X: 10, Y: 0}
	b := domain.Point{X: 0, Y: 20}

	inner := NewMockProvider([]MockPair{
		{From: origin, To: b, Km: 25},
	})
	cache := newMemCache()
	cache.km[[2]domain.Point{origin, a}] = 12

	p, err := NewCachedProvider(inner, cache)
	require.NoError(t, err)

	got, err := p.Distances(context.Background(), origin, []domain.Point{a, b})
	require.NoError(t, err)
	assert.Equal(t, []float64{12, 25}, got)
	assert.Equal(t, int64(1), inner.Calls())
}

func TestCachedProviderFansFetchToDuplicates(t *testing.T) {
	origin := domain.Point{X: 0, Y: 0}
	a := domain.Point{X: 10, Y: 0}

	inner := NewMockProvider([]MockPair{
		{From: origin, To: a, Km: 12},
	})
	p, err := NewCachedProvider(inner, newMemCache())
	require.NoError(t, err)

	got, err := p.Distances(context.Background(), origin, []domain.Point{a, a, a})
	require.NoError(t, err)
	assert.Equal(t, []float64{12, 12, 12}, got)
	assert.Equal(t, int64(1), inner.Calls())
}

func TestCachedProviderUsesBatchedInner(t *testing.T) {
	origin := domain.Point{X: 0, Y: 0}
	cache := newMemCache()

	p, err := NewCachedProvider(Euclidean{}, cache)
	require.NoError(t, err)

	got, err := p.Distances(context.Background(), origin, []domain.Point{{X: 3, Y: 4}, {X: 6, Y: 8}})
	require.NoError(t, err)
	assert.InDelta(t, 5.0, got[0], 1e-9)
	assert.InDelta(t, 10.0, got[1], 1e-9)
	assert.Equal(t, 1, cache.puts)
}

func TestCachedProviderSkipsZeroLengthLegs(t *testing.T) {
	origin := domain.Point{X: 5, Y: 5}

	inner := NewMockProvider(nil)
	p, err := NewCachedProvider(inner, newMemCache())
	require.NoError(t, err)

	got, err := p.Distances(context.Background(), origin, []domain.Point{origin, origin})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, got)
	assert.Equal(t, int64(0), inner.Calls())
}

func TestCachedProviderDegradesWhenCacheFails(t *testing.T) {
	origin := domain.Point{X: 0, Y: 0}
	a := domain.Point{X: 10, Y: 0}

	inner := NewMockProvider([]MockPair{
		{From: origin, To: a, Km: 12},
	})
	cache := newMemCache()
	cache.getErr = errors.New("cache down")
	cache.putErr = errors.New("cache down")

	p, err := NewCachedProvider(inner, cache)
	require.NoError(t, err)

	km, err := p.Distance(context.Background(), origin, a)
	require.NoError(t, err)
	assert.Equal(t, 12.0, km)
}

func TestCachedProviderPropagatesInnerFailure(t *testing.T) {
	origin := domain.Point{X: 0, Y: 0}
	a := domain.Point{X: 10, Y: 0}

	p, err := NewCachedProvider(NewMockProvider(nil), newMemCache())
	require.NoError(t, err)

	_, err = p.Distances(context.Background(), origin, []domain.Point{a})
	require.Error(t, err)
}

func TestNewCachedProviderRejectsNilParts(t *testing.T) {
	_, err := NewCachedProvider(nil, newMemCache())
	assert.Error(t, err)

	_, err = NewCachedProvider(NewMockProvider(nil), nil)
	assert.Error(t, err)
}
