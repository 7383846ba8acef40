package ports

import (
	"context"
	"errors"
	"time"

	"fleet-route-planner/internal/domain"
	"fleet-route-planner/internal/planner"
)

var (
	// ErrJobNotFound marks lookups for a job ID that was never stored.
	ErrJobNotFound = errors.New("plan job not found")
	// ErrNoQueuedJobs marks an empty queue on claim.
	ErrNoQueuedJobs = errors.New("no queued plan jobs")
)

// JobStatus is the lifecycle state of an asynchronous planning job:
// queued -> running -> done | failed.
type JobStatus string

const (
	JobQueued  JobStatus = "queued"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// PlanRequest is the stored input of one planning job.
type PlanRequest struct {
	// Agent names the planning strategy (planner.Names lists them).
	Agent string `json:"agent"`
	// Seed drives the neural strategy; zero lets the planner pick.
	Seed int64 `json:"seed,omitempty"`
	// MaxPackages and TwoOptMaxIter override planner defaults when
	// positive.
	MaxPackages   int `json:"max_packages,omitempty"`
	TwoOptMaxIter int `json:"two_opt_max_iter,omitempty"`
	// Fallback re-plans with the greedy packer when a size-capped
	// strategy refuses the input.
	Fallback bool `json:"fallback,omitempty"`
	// UseRepository loads packages from the package repository instead
	// of the inline list.
	UseRepository bool `json:"use_repository,omitempty"`

	Map      domain.Map        `json:"map"`
	Packages []*domain.Package `json:"packages,omitempty"`
	Fleet    []*domain.Vehicle `json:"fleet"`
}

// StopResult is one delivery stop on a planned route.
type StopResult struct {
	PackageID string  `json:"package_id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

// RouteResult is one vehicle's evaluated tour. Metrics are computed
// at planning time with the distances the agent actually used, so
// they stay valid after the distance matrix is gone.
type RouteResult struct {
	VehicleID    string       `json:"vehicle_id"`
	VehicleType  string       `json:"vehicle_type"`
	Stops        []StopResult `json:"stops"`
	VolumeUsedM3 float64      `json:"volume_used_m3"`
	Utilization  float64      `json:"utilization"`
	DistanceKm   float64      `json:"distance_km"`
	Revenue      float64      `json:"revenue"`
	Cost         float64      `json:"cost"`
	Profit       float64      `json:"profit"`
}

// PlanResult is the stored output of a finished planning job.
type PlanResult struct {
	// Agent names the strategy that produced the routes, which
	// differs from the requested one after a fallback.
	Agent      string        `json:"agent"`
	Routes     []RouteResult `json:"routes"`
	Unassigned []string      `json:"unassigned,omitempty"`
	Warnings   []string      `json:"warnings,omitempty"`
	// SizeLimited mirrors the plan's fail-closed flag.
	SizeLimited bool `json:"size_limited,omitempty"`
	// FallbackUsed reports that the requested strategy failed closed
	// and the greedy packer produced these routes instead.
	FallbackUsed bool            `json:"fallback_used,omitempty"`
	Summary      planner.Summary `json:"summary"`
	ElapsedMs    int64           `json:"elapsed_ms"`
}

// PlanJob tracks one planning request through its lifecycle.
type PlanJob struct {
	ID        string      `json:"id"`
	Status    JobStatus   `json:"status"`
	Request   PlanRequest `json:"request"`
	Result    *PlanResult `json:"result,omitempty"`
	Error     string      `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Port: a boundary for persisting planning jobs.
type PlanStore interface {
	// Create stores a new job.
	Create(ctx context.Context, job *PlanJob) error
	// Get returns the job with the given ID, or ErrJobNotFound.
	Get(ctx context.Context, id string) (*PlanJob, error)
	// Update overwrites the stored job.
	Update(ctx context.Context, job *PlanJob) error
	// List returns jobs newest-first, filtered by status unless status
	// is empty, up to limit when limit is positive.
	List(ctx context.Context, status JobStatus, limit int) ([]*PlanJob, error)
	// ClaimQueued atomically marks the oldest queued job running and
	// returns it, or ErrNoQueuedJobs.
	ClaimQueued(ctx context.Context) (*PlanJob, error)
}
