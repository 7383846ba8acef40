package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"fleet-route-planner/internal/ports"
)

// Postgres-backed implementation of the PlanStore port. Jobs survive
// restarts and ClaimQueued is safe across concurrent workers.
type PostgresPlanStore struct{ DB *sql.DB }

func NewPostgresPlanStore(db *sql.DB) *PostgresPlanStore {
	return &PostgresPlanStore{DB: db}
}

const planJobColumns = `id, status, request, result, error, created_at, updated_at`

func (s *PostgresPlanStore) Create(ctx context.Context, job *ports.PlanJob) error {
	if job == nil {
		return errors.New("create plan job: job is nil")
	}

	request, result, err := marshalJob(job)
	if err != nil {
		return fmt.Errorf("create plan job: %w", err)
	}

	query := `
	INSERT INTO plan_jobs (id, status, request, result, error, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err = s.DB.ExecContext(ctx, query,
		job.ID, string(job.Status), request, result, job.Error, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create plan job id=%q: %w", job.ID, err)
	}

	return nil
}

func (s *PostgresPlanStore) Get(ctx context.Context, id string) (*ports.PlanJob, error) {
	query := `SELECT ` + planJobColumns + ` FROM plan_jobs WHERE id = $1;`

	job, err := scanJob(s.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get plan job id=%q: %w", id, err)
	}

	return job, nil
}

func (s *PostgresPlanStore) Update(ctx context.Context, job *ports.PlanJob) error {
	if job == nil {
		return errors.New("update plan job: job is nil")
	}

	request, result, err := marshalJob(job)
	if err != nil {
		return fmt.Errorf("update plan job: %w", err)
	}

	query := `
	UPDATE plan_jobs
	SET status = $2, request = $3, result = $4, error = $5, updated_at = $6
	WHERE id = $1;
	`
	res, err := s.DB.ExecContext(ctx, query,
		job.ID, string(job.Status), request, result, job.Error, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update plan job id=%q: %w", job.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update plan job id=%q: rows affected: %w", job.ID, err)
	}
	if affected == 0 {
		return ports.ErrJobNotFound
	}

	return nil
}

func (s *PostgresPlanStore) List(ctx context.Context, status ports.JobStatus, limit int) ([]*ports.PlanJob, error) {
	query := `SELECT ` + planJobColumns + ` FROM plan_jobs`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, len(args)+1)
		args = append(args, limit)
	}
	query += `;`

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list plan jobs: query plan_jobs table: %w", err)
	}
	defer rows.Close()

	jobs := make([]*ports.PlanJob, 0, 16)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("list plan jobs: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list plan jobs: row iteration: %w", err)
	}

	return jobs, nil
}

// ClaimQueued marks the oldest queued job running in one statement.
// SKIP LOCKED keeps concurrent workers from claiming the same job.
func (s *PostgresPlanStore) ClaimQueued(ctx context.Context) (*ports.PlanJob, error) {
	query := `
	UPDATE plan_jobs
	SET status = 'running', updated_at = now()
	WHERE id = (
		SELECT id FROM plan_jobs
		WHERE status = 'queued'
		ORDER BY created_at
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	)
	RETURNING ` + planJobColumns + `;`

	job, err := scanJob(s.DB.QueryRowContext(ctx, query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrNoQueuedJobs
	}
	if err != nil {
		return nil, fmt.Errorf("claim plan job: %w", err)
	}

	return job, nil
}

func marshalJob(job *ports.PlanJob) (request []byte, result []byte, err error) {
	request, err = json.Marshal(job.Request)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal request: %w", err)
	}
	if job.Result != nil {
		result, err = json.Marshal(job.Result)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal result: %w", err)
		}
	}
	return request, result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*ports.PlanJob, error) {
	var (
		job     ports.PlanJob
		status  string
		request []byte
		result  []byte
	)
	err := row.Scan(&job.ID, &status, &request, &result, &job.Error, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return nil, err
	}

	job.Status = ports.JobStatus(status)
	if err := json.Unmarshal(request, &job.Request); err != nil {
		return nil, fmt.Errorf("unmarshal request: %w", err)
	}
	if len(result) > 0 {
		job.Result = &ports.PlanResult{}
		if err := json.Unmarshal(result, job.Result); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
	}

	return &job, nil
}
