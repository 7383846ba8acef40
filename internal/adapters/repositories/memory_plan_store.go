package repositories

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"fleet-route-planner/internal/ports"
)

// In-process implementation of the PlanStore port, used when the
// service runs without a database.
type MemoryPlanStore struct {
	mu   sync.RWMutex
	jobs map[string]*ports.PlanJob
}

func NewMemoryPlanStore() *MemoryPlanStore {
	return &MemoryPlanStore{jobs: make(map[string]*ports.PlanJob)}
}

func (s *MemoryPlanStore) Create(ctx context.Context, job *ports.PlanJob) error {
	if job == nil {
		return errors.New("create plan job: job is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.ID]; ok {
		return fmt.Errorf("create plan job id=%q: already exists", job.ID)
	}
	s.jobs[job.ID] = copyJob(job)

	return nil
}

func (s *MemoryPlanStore) Get(ctx context.Context, id string) (*ports.PlanJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ports.ErrJobNotFound
	}

	return copyJob(job), nil
}

func (s *MemoryPlanStore) Update(ctx context.Context, job *ports.PlanJob) error {
	if job == nil {
		return errors.New("update plan job: job is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.ID]; !ok {
		return ports.ErrJobNotFound
	}
	s.jobs[job.ID] = copyJob(job)

	return nil
}

func (s *MemoryPlanStore) List(ctx context.Context, status ports.JobStatus, limit int) ([]*ports.PlanJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]*ports.PlanJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		if status != "" && job.Status != status {
			continue
		}
		jobs = append(jobs, copyJob(job))
	}

	sort.Slice(jobs, func(i, j int) bool {
		if !jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
		}
		return jobs[i].ID < jobs[j].ID
	})

	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}

	return jobs, nil
}

func (s *MemoryPlanStore) ClaimQueued(ctx context.Context) (*ports.PlanJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var oldest *ports.PlanJob
	for _, job := range s.jobs {
		if job.Status != ports.JobQueued {
			continue
		}
		if oldest == nil ||
			job.CreatedAt.Before(oldest.CreatedAt) ||
			(job.CreatedAt.Equal(oldest.CreatedAt) && job.ID < oldest.ID) {
			oldest = job
		}
	}
	if oldest == nil {
		return nil, ports.ErrNoQueuedJobs
	}

	oldest.Status = ports.JobRunning
	oldest.UpdatedAt = time.Now()

	return copyJob(oldest), nil
}

func copyJob(j *ports.PlanJob) *ports.PlanJob {
	c := *j
	if j.Result != nil {
		r := *j.Result
		c.Result = &r
	}
	return &c
}
