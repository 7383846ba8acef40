package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"fleet-route-planner/internal/domain"
	"fleet-route-planner/internal/planner"
	"fleet-route-planner/internal/platform/metrics"
	"fleet-route-planner/internal/platform/obs"
	"fleet-route-planner/internal/ports"
)

// PlanningService accepts planning requests, queues them as jobs and
// runs them to completion. Package data may come inline with the
// request or from the package repository; distances come from the
// provider when one is configured and fall back to map geometry.
type PlanningService struct {
	store    ports.PlanStore
	repo     ports.PackageRepository
	provider ports.DistanceProvider
}

func NewPlanningService(
	store ports.PlanStore,
	repo ports.PackageRepository,
	provider ports.DistanceProvider,
) *PlanningService {
	return &PlanningService{store: store, repo: repo, provider: provider}
}

// Submit validates the request and queues it as a new job.
func (s *PlanningService) Submit(ctx context.Context, req ports.PlanRequest) (*ports.PlanJob, error) {
	if _, err := planner.New(req.Agent, planner.Options{}); err != nil {
		return nil, fmt.Errorf("submit plan: %w", err)
	}
	if req.UseRepository && s.repo == nil {
		return nil, errors.New("submit plan: no package repository configured")
	}
	if !req.UseRepository && len(req.Packages) == 0 {
		return nil, errors.New("submit plan: no packages in request")
	}
	if len(req.Fleet) == 0 {
		return nil, errors.New("submit plan: fleet is empty")
	}

	now := time.Now().UTC()
	job := &ports.PlanJob{
		ID:        uuid.NewString(),
		Status:    ports.JobQueued,
		Request:   req,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("submit plan: %w", err)
	}
	metrics.PlanJobs.WithLabelValues(req.Agent, string(ports.JobQueued)).Inc()

	return job, nil
}

// Get returns the job with the given ID.
func (s *PlanningService) Get(ctx context.Context, id string) (*ports.PlanJob, error) {
	return s.store.Get(ctx, id)
}

// HasRepository reports whether a package repository is configured.
func (s *PlanningService) HasRepository() bool {
	return s.repo != nil
}

// List returns stored jobs newest-first, optionally filtered by status.
func (s *PlanningService) List(ctx context.Context, status ports.JobStatus, limit int) ([]*ports.PlanJob, error) {
	return s.store.List(ctx, status, limit)
}

// Process runs one queued job synchronously.
func (s *PlanningService) Process(ctx context.Context, id string) error {
	job, err := s.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("process plan job: %w", err)
	}
	if job.Status != ports.JobQueued {
		return fmt.Errorf("process plan job id=%q: status is %q, want %q", id, job.Status, ports.JobQueued)
	}

	job.Status = ports.JobRunning
	job.UpdatedAt = time.Now().UTC()
	if err := s.store.Update(ctx, job); err != nil {
		return fmt.Errorf("process plan job: %w", err)
	}

	return s.process(ctx, job)
}

// Recover flips jobs stuck in the running state back to queued so a
// worker picks them up again. Call it once on startup, before workers
// start, to absorb crashes that left claimed jobs behind.
func (s *PlanningService) Recover(ctx context.Context) error {
	stuck, err := s.store.List(ctx, ports.JobRunning, 0)
	if err != nil {
		return fmt.Errorf("recover plan jobs: %w", err)
	}

	for _, job := range stuck {
		job.Status = ports.JobQueued
		job.UpdatedAt = time.Now().UTC()
		if err := s.store.Update(ctx, job); err != nil {
			return fmt.Errorf("recover plan jobs: requeue id=%q: %w", job.ID, err)
		}
		log.Printf("plan worker: requeued stuck job_id=%s", job.ID)
	}

	return nil
}

// RunWorkers starts n worker loops and blocks until ctx cancels them.
func (s *PlanningService) RunWorkers(ctx context.Context, n int, interval time.Duration) {
	if n < 1 {
		n = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Run(ctx, interval)
		}()
	}
	wg.Wait()
}

// Run claims and processes queued jobs until ctx is cancelled. Idle
// polls wait for the given interval. Multiple workers may run
// concurrently against the same store.
func (s *PlanningService) Run(ctx context.Context, interval time.Duration) {
	for {
		job, err := s.store.ClaimQueued(ctx)
		switch {
		case errors.Is(err, ports.ErrNoQueuedJobs):
			select {
			case <-ctx.Done():
				return
			case <-time.After(interval):
			}
			continue
		case err != nil:
			if ctx.Err() != nil {
				return
			}
			log.Printf("plan worker: claim failed: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(interval):
			}
			continue
		}

		if err := s.process(ctx, job); err != nil {
			log.Printf("plan worker: job_id=%s failed: %v", job.ID, err)
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// process runs a job already marked running and records its outcome.
func (s *PlanningService) process(ctx context.Context, job *ports.PlanJob) error {
	metrics.JobsInflight.Inc()
	defer metrics.JobsInflight.Dec()

	agent := job.Request.Agent
	start := time.Now()
	result, planErr := s.plan(ctx, job.Request)
	elapsed := time.Since(start)

	metrics.PlanDuration.WithLabelValues(agent).Observe(elapsed.Seconds())

	if planErr != nil {
		job.Status = ports.JobFailed
		job.Error = planErr.Error()
		metrics.PlanJobs.WithLabelValues(agent, string(ports.JobFailed)).Inc()
	} else {
		result.ElapsedMs = elapsed.Milliseconds()
		job.Status = ports.JobDone
		job.Result = result
		metrics.PlanJobs.WithLabelValues(agent, string(ports.JobDone)).Inc()
		metrics.PackagesUnassigned.WithLabelValues(agent).Add(float64(len(result.Unassigned)))
	}
	job.UpdatedAt = time.Now().UTC()

	if err := s.store.Update(ctx, job); err != nil {
		return fmt.Errorf("process plan job id=%q: record outcome: %w", job.ID, err)
	}
	log.Printf("plan job finished job_id=%s agent=%s status=%s dur=%dms",
		job.ID, agent, job.Status, elapsed.Milliseconds())

	return planErr
}

// plan executes one planning request end to end.
func (s *PlanningService) plan(ctx context.Context, req ports.PlanRequest) (_ *ports.PlanResult, err error) {
	defer obs.Time(ctx, "services.Plan")(&err)

	pkgs := req.Packages
	if req.UseRepository {
		if s.repo == nil {
			return nil, errors.New("plan: no package repository configured")
		}
		pkgs, err = s.repo.ListPackages(ctx)
		if err != nil {
			return nil, fmt.Errorf("plan: list packages: %w", err)
		}
	}

	opts := planner.Options{
		MaxPackages:   req.MaxPackages,
		TwoOptMaxIter: req.TwoOptMaxIter,
	}
	agent, err := planner.New(req.Agent, opts)
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}

	dist := domain.Distancer(req.Map)
	var matrix *Matrix
	if s.provider != nil {
		points := make([]domain.Point, 0, len(pkgs)+1)
		points = append(points, req.Map.Depot)
		for _, p := range pkgs {
			if p != nil {
				points = append(points, p.Destination)
			}
		}
		matrix, err = BuildMatrix(ctx, s.provider, points)
		if err != nil {
			return nil, fmt.Errorf("plan: %w", err)
		}
		dist = matrix
	}

	preq := planner.Request{
		Packages: pkgs,
		Fleet:    req.Fleet,
		Map:      req.Map,
		Seed:     req.Seed,
	}
	if matrix != nil {
		preq.Dist = matrix
	}

	plan, err := agent.PlanRoutes(ctx, preq)
	if err != nil {
		return nil, fmt.Errorf("plan: agent %s: %w", req.Agent, err)
	}

	fallbackUsed := false
	if plan.SizeLimited && req.Fallback {
		fb, err := planner.New(planner.AgentGreedyTwoOpt, opts)
		if err != nil {
			return nil, fmt.Errorf("plan: fallback: %w", err)
		}
		fbPlan, err := fb.PlanRoutes(ctx, preq)
		if err != nil {
			return nil, fmt.Errorf("plan: fallback agent: %w", err)
		}
		fbPlan.Warnings = append(plan.Warnings, fbPlan.Warnings...)
		plan = fbPlan
		fallbackUsed = true
	}

	result := ResultFromPlan(plan, dist)
	result.FallbackUsed = fallbackUsed

	return result, nil
}

// ResultFromPlan evaluates a plan's routes into their stored wire
// form. Must run with the distancer the agent planned against.
func ResultFromPlan(plan *planner.Plan, d domain.Distancer) *ports.PlanResult {
	routes := make([]ports.RouteResult, 0, len(plan.Routes))
	for _, r := range plan.Routes {
		if r == nil || len(r.Packages) == 0 {
			continue
		}

		stops := make([]ports.StopResult, 0, len(r.Packages))
		for _, p := range r.Packages {
			stops = append(stops, ports.StopResult{
				PackageID: p.ID,
				X:         p.Destination.X,
				Y:         p.Destination.Y,
			})
		}

		eval := r.Evaluate(d)
		rr := ports.RouteResult{
			Stops:        stops,
			VolumeUsedM3: r.VolumeUsed(),
			Utilization:  r.CapacityUtilization(),
			DistanceKm:   eval.Distance,
			Revenue:      eval.Revenue,
			Cost:         eval.Cost,
			Profit:       eval.Profit,
		}
		if r.Vehicle != nil {
			rr.VehicleID = r.Vehicle.ID
			rr.VehicleType = r.Vehicle.Type.Name
		}
		routes = append(routes, rr)
	}

	unassigned := make([]string, 0, len(plan.Unassigned))
	for _, p := range plan.Unassigned {
		if p != nil {
			unassigned = append(unassigned, p.ID)
		}
	}

	return &ports.PlanResult{
		Agent:       plan.Agent,
		Routes:      routes,
		Unassigned:  unassigned,
		Warnings:    plan.Warnings,
		SizeLimited: plan.SizeLimited,
		Summary:     planner.Summarize(plan, d),
	}
}
