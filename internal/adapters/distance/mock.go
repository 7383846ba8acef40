package distance

import (
	"context"
	"fmt"
	"sync/atomic"

	"fleet-route-planner/internal/domain"
)

type MockPair struct {
	From, To domain.Point
	Km       float64
}

// MockProvider serves a fixed table of point pairs and counts lookups,
// for tests that need deterministic distances or call accounting.
type MockProvider struct {
	m     map[[2]domain.Point]float64
	calls atomic.Int64
}

func NewMockProvider(pairs []MockPair) *MockProvider {
	m := make(map[[2]domain.Point]float64, len(pairs))
	for _, p := range pairs {
		m[[2]domain.Point{p.From, p.To}] = p.Km
	}
	return &MockProvider{m: m}
}

func (p *MockProvider) Distance(ctx context.Context, a, b domain.Point) (float64, error) {
	p.calls.Add(1)

	if a == b {
		return 0, nil
	}
	km, ok := p.m[[2]domain.Point{a, b}]
	if !ok {
		return 0, fmt.Errorf("missing pair %v -> %v", a, b)
	}

	return km, nil
}

// Calls reports how many lookups the provider has served.
func (p *MockProvider) Calls() int64 { return p.calls.Load() }
