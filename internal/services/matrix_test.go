package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-route-planner/internal/adapters/distance"
	"fleet-route-planner/internal/domain"
)

func TestBuildMatrixFetchesAllOrderedPairs(t *testing.T) {
	a := domain.Point{X: 0, Y: 0}
	b := domain.Point{X: 10, Y: 0}
	c := domain.Point{X: 0, Y: 10}

	// Asymmetric values prove each direction is fetched on its own.
	provider := distance.NewMockProvider([]distance.MockPair{
		{From: a, To: b, Km: 12}, {From: b, To: a, Km: 14},
		{From: a, To: c, Km: 11}, {From: c, To: a, Km: 13},
		{From: b, To: c, Km: 16}, {From: c, To: b, Km: 18},
	})

	m, err := BuildMatrix(context.Background(), provider, []domain.Point{a, b, c})
	require.NoError(t, err)

	assert.Equal(t, 6, m.Len())
	assert.Equal(t, 12.0, m.Distance(a, b))
	assert.Equal(t, 14.0, m.Distance(b, a))
	assert.Equal(t, 18.0, m.Distance(c, b))
	assert.Equal(t, 0.0, m.Distance(b, b))
}

func TestBuildMatrixDeduplicatesPoints(t *testing.T) {
	a := domain.Point{X: 0, Y: 0}
	b := domain.Point{X: 3, Y: 4}

	provider := distance.NewMockProvider([]distance.MockPair{
		{From: a, To: b, Km: 5},
		{From: b, To: a, Km: 5},
	})

	m, err := BuildMatrix(context.Background(), provider, []domain.Point{a, b, a, b, a})
	require.NoError(t, err)

	assert.Equal(t, 2, m.Len())
	assert.Equal(t, int64(2), provider.Calls())
}

func TestBuildMatrixPropagatesProviderFailure(t *testing.T) {
	a := domain.Point{X: 0, Y: 0}
	b := domain.Point{X: 10, Y: 0}

	// Table misses b -> a, so one row must fail.
	provider := distance.NewMockProvider([]distance.MockPair{
		{From: a, To: b, Km: 12},
	})

	_, err := BuildMatrix(context.Background(), provider, []domain.Point{a, b})
	require.Error(t, err)
}

func TestBuildMatrixUsesBatchedProvider(t *testing.T) {
	a := domain.Point{X: 0, Y: 0}
	b := domain.Point{X: 3, Y: 4}
	c := domain.Point{X: 6, Y: 8}

	m, err := BuildMatrix(context.Background(), distance.Euclidean{}, []domain.Point{a, b, c})
	require.NoError(t, err)

	assert.Equal(t, 6, m.Len())
	assert.InDelta(t, 5.0, m.Distance(a, b), 1e-9)
	assert.InDelta(t, 10.0, m.Distance(a, c), 1e-9)
}

func TestMatrixFallsBackToGeometryForUnknownPairs(t *testing.T) {
	a := domain.Point{X: 0, Y: 0}
	b := domain.Point{X: 3, Y: 4}

	var m *Matrix
	assert.InDelta(t, 5.0, m.Distance(a, b), 1e-9)
	assert.Equal(t, 0, m.Len())
}

func TestBuildMatrixTrivialInputs(t *testing.T) {
	provider := distance.NewMockProvider(nil)

	m, err := BuildMatrix(context.Background(), provider, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())

	m, err = BuildMatrix(context.Background(), provider, []domain.Point{{X: 1, Y: 1}})
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, int64(0), provider.Calls())

	_, err = BuildMatrix(context.Background(), nil, []domain.Point{{X: 1, Y: 1}})
	require.Error(t, err)
}
