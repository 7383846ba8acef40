package distance

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"fleet-route-planner/internal/domain"
	"fleet-route-planner/internal/platform/obs"
)

// RemoteProvider implements DistanceProvider against an external
// routing service's matrix API, with retry/backoff on transient
// failures. Wrap it in a CachedProvider to avoid repeat calls.
//
// The provider is safe for concurrent use.
type RemoteProvider struct {
	session *http.Client
	apiKey  string
	baseURL string
	profile string
}

func NewRemoteProvider(baseURL, apiKey string) (*RemoteProvider, error) {
	if baseURL == "" {
		return nil, errors.New("routing service base URL is empty")
	}
	if apiKey == "" {
		return nil, errors.New("routing service api key is empty")
	}

	provider := &RemoteProvider{
		session: &http.Client{Timeout: 10 * time.Second},
		apiKey:  apiKey,
		baseURL: baseURL,
		profile: "driving-van",
	}

	return provider, nil
}

// Delegate to the batched path to reuse the matrix request logic.
func (p *RemoteProvider) Distance(ctx context.Context, a, b domain.Point) (float64, error) {
	km, err := p.Distances(ctx, a, []domain.Point{b})
	if err != nil {
		return 0, fmt.Errorf("get distance %v -> %v: %w", a, b, err)
	}
	return km[0], nil
}

// Distances returns kilometers from origin to every destination,
// aligned with the input slice. Distinct points are fetched once per
// call; zero-length legs never leave the process.
func (p *RemoteProvider) Distances(
	ctx context.Context,
	origin domain.Point,
	destinations []domain.Point,
) (_ []float64, err error) {
	defer obs.Time(ctx, "distance.remote.Distances")(&err)

	out := make([]float64, len(destinations))
	if len(destinations) == 0 {
		return out, nil
	}

	firstIdx := make(map[domain.Point]int, len(destinations))
	var fetchPoints []domain.Point
	for _, d := range destinations {
		if d == origin {
			continue
		}
		if _, ok := firstIdx[d]; !ok {
			firstIdx[d] = len(fetchPoints)
			fetchPoints = append(fetchPoints, d)
		}
	}
	if len(fetchPoints) == 0 {
		return out, nil
	}

	row, err := p.fetchMatrixRow(ctx, origin, fetchPoints)
	if err != nil {
		return nil, fmt.Errorf("fetch matrix row: %w", err)
	}

	for i, d := range destinations {
		if d == origin {
			continue
		}
		out[i] = row[firstIdx[d]]
	}

	return out, nil
}
