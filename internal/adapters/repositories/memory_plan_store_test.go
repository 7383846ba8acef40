package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-route-planner/internal/ports"
)

func testJob(id string, status ports.JobStatus, createdAt time.Time) *ports.PlanJob {
	return &ports.PlanJob{
		ID:        id,
		Status:    status,
		Request:   ports.PlanRequest{Agent: "greedy-2opt"},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestMemoryStoreCreateAndGet(t *testing.T) {
	s := NewMemoryPlanStore()
	ctx := context.Background()

	job := testJob("j1", ports.JobQueued, time.Now())
	require.NoError(t, s.Create(ctx, job))

	got, err := s.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, "j1", got.ID)
	assert.Equal(t, ports.JobQueued, got.Status)
	assert.Equal(t, "greedy-2opt", got.Request.Agent)

	// The store hands out copies.
	got.Status = ports.JobFailed
	again, err := s.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, ports.JobQueued, again.Status)
}

func TestMemoryStoreGetUnknownID(t *testing.T) {
	s := NewMemoryPlanStore()

	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ports.ErrJobNotFound)
}

func TestMemoryStoreCreateDuplicateFails(t *testing.T) {
	s := NewMemoryPlanStore()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, testJob("j1", ports.JobQueued, time.Now())))
	assert.Error(t, s.Create(ctx, testJob("j1", ports.JobQueued, time.Now())))
}

func TestMemoryStoreUpdate(t *testing.T) {
	s := NewMemoryPlanStore()
	ctx := context.Background()

	job := testJob("j1", ports.JobQueued, time.Now())
	require.NoError(t, s.Create(ctx, job))

	job.Status = ports.JobDone
	job.Result = &ports.PlanResult{ElapsedMs: 12}
	require.NoError(t, s.Update(ctx, job))

	got, err := s.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, ports.JobDone, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, int64(12), got.Result.ElapsedMs)

	assert.ErrorIs(t, s.Update(ctx, testJob("missing", ports.JobDone, time.Now())), ports.ErrJobNotFound)
}

func TestMemoryStoreClaimsOldestQueuedFirst(t *testing.T) {
	s := NewMemoryPlanStore()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.Create(ctx, testJob("late", ports.JobQueued, base.Add(2*time.Minute))))
	require.NoError(t, s.Create(ctx, testJob("early", ports.JobQueued, base)))
	require.NoError(t, s.Create(ctx, testJob("done", ports.JobDone, base.Add(-time.Hour))))

	first, err := s.ClaimQueued(ctx)
	require.NoError(t, err)
	assert.Equal(t, "early", first.ID)
	assert.Equal(t, ports.JobRunning, first.Status)

	second, err := s.ClaimQueued(ctx)
	require.NoError(t, err)
	assert.Equal(t, "late", second.ID)

	_, err = s.ClaimQueued(ctx)
	assert.ErrorIs(t, err, ports.ErrNoQueuedJobs)
}

func TestMemoryStoreListFiltersAndLimits(t *testing.T) {
	s := NewMemoryPlanStore()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.Create(ctx, testJob("a", ports.JobQueued, base)))
	require.NoError(t, s.Create(ctx, testJob("b", ports.JobDone, base.Add(time.Minute))))
	require.NoError(t, s.Create(ctx, testJob("c", ports.JobQueued, base.Add(2*time.Minute))))

	all, err := s.List(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID)
	assert.Equal(t, "b", all[1].ID)
	assert.Equal(t, "a", all[2].ID)

	queued, err := s.List(ctx, ports.JobQueued, 0)
	require.NoError(t, err)
	require.Len(t, queued, 2)
	assert.Equal(t, "c", queued[0].ID)
	assert.Equal(t, "a", queued[1].ID)

	limited, err := s.List(ctx, "", 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "c", limited[0].ID)
}
