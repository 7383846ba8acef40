package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-route-planner/internal/adapters/distance"
	"fleet-route-planner/internal/adapters/repositories"
	"fleet-route-planner/internal/domain"
	"fleet-route-planner/internal/planner"
	"fleet-route-planner/internal/ports"
)

type fakeRepo struct {
	pkgs []*domain.Package
	err  error
}

func (f *fakeRepo) ListPackages(ctx context.Context) ([]*domain.Package, error) {
	return f.pkgs, f.err
}

func (f *fakeRepo) InsertPackages(ctx context.Context, pkgs []*domain.Package) error {
	if f.err != nil {
		return f.err
	}
	f.pkgs = append(f.pkgs, pkgs...)
	return nil
}

func servicePackage(id string, x, y, volume, payment float64) *domain.Package {
	return &domain.Package{
		ID:          id,
		Destination: domain.Point{X: x, Y: y},
		VolumeM3:    volume,
		Payment:     payment,
	}
}

func serviceVehicle(id string, capacity float64) *domain.Vehicle {
	return &domain.Vehicle{
		ID:   id,
		Type: domain.VehicleType{Name: "van", CapacityM3: capacity, CostPerKm: 1},
	}
}

func serviceRequest(pkgs []*domain.Package) ports.PlanRequest {
	return ports.PlanRequest{
		Agent:    planner.AgentGreedyTwoOpt,
		Map:      domain.Map{Width: 100, Height: 100},
		Packages: pkgs,
		Fleet:    []*domain.Vehicle{serviceVehicle("v1", 10)},
	}
}

func TestSubmitQueuesJob(t *testing.T) {
	store := repositories.NewMemoryPlanStore()
	svc := NewPlanningService(store, nil, nil)

	job, err := svc.Submit(context.Background(), serviceRequest([]*domain.Package{
		servicePackage("p1", 10, 0, 2, 40),
	}))
	require.NoError(t, err)

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, ports.JobQueued, job.Status)

	stored, err := store.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, planner.AgentGreedyTwoOpt, stored.Request.Agent)
}

func TestSubmitRejectsBadRequests(t *testing.T) {
	svc := NewPlanningService(repositories.NewMemoryPlanStore(), nil, nil)
	ctx := context.Background()

	req := serviceRequest([]*domain.Package{servicePackage("p1", 10, 0, 2, 40)})
	req.Agent = "simulated-annealing"
	_, err := svc.Submit(ctx, req)
	assert.Error(t, err)

	req = serviceRequest(nil)
	_, err = svc.Submit(ctx, req)
	assert.Error(t, err)

	req = serviceRequest([]*domain.Package{servicePackage("p1", 10, 0, 2, 40)})
	req.Fleet = nil
	_, err = svc.Submit(ctx, req)
	assert.Error(t, err)

	req = serviceRequest(nil)
	req.UseRepository = true
	_, err = svc.Submit(ctx, req)
	assert.Error(t, err, "repository-backed request needs a repository")
}

func TestProcessRunsJobToDone(t *testing.T) {
	store := repositories.NewMemoryPlanStore()
	svc := NewPlanningService(store, nil, nil)
	ctx := context.Background()

	job, err := svc.Submit(ctx, serviceRequest([]*domain.Package{
		servicePackage("p1", 10, 0, 2, 40),
		servicePackage("p2", 0, 10, 3, 50),
	}))
	require.NoError(t, err)

	require.NoError(t, svc.Process(ctx, job.ID))

	got, err := svc.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, ports.JobDone, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, planner.AgentGreedyTwoOpt, got.Result.Agent)
	assert.Equal(t, 2, got.Result.Summary.PackagesDelivered)
	require.Len(t, got.Result.Routes, 1)
	assert.Equal(t, "v1", got.Result.Routes[0].VehicleID)
	assert.Len(t, got.Result.Routes[0].Stops, 2)
	assert.Greater(t, got.Result.Routes[0].DistanceKm, 0.0)
	assert.False(t, got.Result.FallbackUsed)
	assert.Empty(t, got.Error)
}

func TestProcessRequiresQueuedJob(t *testing.T) {
	store := repositories.NewMemoryPlanStore()
	svc := NewPlanningService(store, nil, nil)
	ctx := context.Background()

	job, err := svc.Submit(ctx, serviceRequest([]*domain.Package{
		servicePackage("p1", 10, 0, 2, 40),
	}))
	require.NoError(t, err)

	require.NoError(t, svc.Process(ctx, job.ID))
	assert.Error(t, svc.Process(ctx, job.ID))

	assert.ErrorIs(t, svc.Process(ctx, "missing"), ports.ErrJobNotFound)
}

func TestProcessRecordsPlanningFailure(t *testing.T) {
	store := repositories.NewMemoryPlanStore()
	svc := NewPlanningService(store, &fakeRepo{err: errors.New("connection refused")}, nil)
	ctx := context.Background()

	req := serviceRequest(nil)
	req.UseRepository = true
	job, err := svc.Submit(ctx, req)
	require.NoError(t, err)

	require.Error(t, svc.Process(ctx, job.ID))

	got, err := svc.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, ports.JobFailed, got.Status)
	assert.Contains(t, got.Error, "connection refused")
	assert.Nil(t, got.Result)
}

func TestProcessFallsBackWhenSizeLimited(t *testing.T) {
	store := repositories.NewMemoryPlanStore()
	svc := NewPlanningService(store, nil, nil)
	ctx := context.Background()

	req := serviceRequest([]*domain.Package{
		servicePackage("p1", 10, 0, 2, 40),
		servicePackage("p2", 0, 10, 3, 50),
		servicePackage("p3", 20, 20, 1, 30),
	})
	req.Agent = planner.AgentPrunedBacktracking
	req.MaxPackages = 2
	req.Fallback = true

	job, err := svc.Submit(ctx, req)
	require.NoError(t, err)
	require.NoError(t, svc.Process(ctx, job.ID))

	got, err := svc.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, ports.JobDone, got.Status)
	require.NotNil(t, got.Result)
	assert.True(t, got.Result.FallbackUsed)
	assert.Equal(t, planner.AgentGreedyTwoOpt, got.Result.Agent)
	assert.False(t, got.Result.SizeLimited)
	assert.Equal(t, 3, got.Result.Summary.PackagesDelivered)
	assert.NotEmpty(t, got.Result.Warnings)
}

func TestProcessPullsPackagesFromRepository(t *testing.T) {
	store := repositories.NewMemoryPlanStore()
	repo := &fakeRepo{pkgs: []*domain.Package{
		servicePackage("r1", 5, 5, 2, 30),
		servicePackage("r2", 15, 5, 2, 30),
	}}
	svc := NewPlanningService(store, repo, nil)
	ctx := context.Background()

	req := serviceRequest(nil)
	req.UseRepository = true
	job, err := svc.Submit(ctx, req)
	require.NoError(t, err)
	require.NoError(t, svc.Process(ctx, job.ID))

	got, err := svc.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, ports.JobDone, got.Status)
	assert.Equal(t, 2, got.Result.Summary.PackagesDelivered)
}

func TestProcessPlansOverProviderDistances(t *testing.T) {
	depot := domain.Point{X: 0, Y: 0}
	dest := domain.Point{X: 3, Y: 4}

	// Provider reports twice the geometric distance; the summary must
	// reflect provider kilometers, not map geometry.
	provider := distance.NewMockProvider([]distance.MockPair{
		{From: depot, To: dest, Km: 10},
		{From: dest, To: depot, Km: 10},
	})

	store := repositories.NewMemoryPlanStore()
	svc := NewPlanningService(store, nil, provider)
	ctx := context.Background()

	job, err := svc.Submit(ctx, serviceRequest([]*domain.Package{
		servicePackage("p1", 3, 4, 2, 40),
	}))
	require.NoError(t, err)
	require.NoError(t, svc.Process(ctx, job.ID))

	got, err := svc.Get(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, ports.JobDone, got.Status)
	assert.InDelta(t, 20.0, got.Result.Summary.TotalDistanceKm, 1e-9)
}

func TestRecoverRequeuesStuckJobs(t *testing.T) {
	store := repositories.NewMemoryPlanStore()
	svc := NewPlanningService(store, nil, nil)
	ctx := context.Background()

	stuck := &ports.PlanJob{
		ID:        "stuck-1",
		Status:    ports.JobRunning,
		Request:   serviceRequest([]*domain.Package{servicePackage("p1", 10, 0, 2, 40)}),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, store.Create(ctx, stuck))

	require.NoError(t, svc.Recover(ctx))

	got, err := store.Get(ctx, "stuck-1")
	require.NoError(t, err)
	assert.Equal(t, ports.JobQueued, got.Status)

	require.NoError(t, svc.Process(ctx, "stuck-1"))
	got, err = store.Get(ctx, "stuck-1")
	require.NoError(t, err)
	assert.Equal(t, ports.JobDone, got.Status)
}

func TestRunDrainsQueuedJobs(t *testing.T) {
	store := repositories.NewMemoryPlanStore()
	svc := NewPlanningService(store, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first, err := svc.Submit(ctx, serviceRequest([]*domain.Package{
		servicePackage("p1", 10, 0, 2, 40),
	}))
	require.NoError(t, err)
	second, err := svc.Submit(ctx, serviceRequest([]*domain.Package{
		servicePackage("p2", 0, 10, 3, 50),
	}))
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.Run(ctx, 5*time.Millisecond)
	}()

	require.Eventually(t, func() bool {
		a, err := store.Get(ctx, first.ID)
		if err != nil || a.Status != ports.JobDone {
			return false
		}
		b, err := store.Get(ctx, second.ID)
		return err == nil && b.Status == ports.JobDone
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
