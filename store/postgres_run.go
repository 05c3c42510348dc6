package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/netresearch/watchdogd/core"
)

// PostgresRunStore is the Postgres-backed RunStore.
type PostgresRunStore struct {
	pool *pgxpool.Pool
}

var _ RunStore = (*PostgresRunStore)(nil)

// NewPostgresRunStore builds a RunStore over pool.
func NewPostgresRunStore(pool *pgxpool.Pool) *PostgresRunStore {
	return &PostgresRunStore{pool: pool}
}

const runColumns = `id, app_name, job_name, triggered_at, status, stages, created_at, updated_at`

func (s *PostgresRunStore) GetByID(ctx context.Context, id uuid.UUID) (*core.JobRun, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM job_runs WHERE id = $1`, id)
	run, err := scanJobRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return &run, nil
}

func (s *PostgresRunStore) GetLatestByAppAndJob(ctx context.Context, app, job string, since time.Time) (*core.JobRun, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+runColumns+` FROM job_runs
		WHERE app_name = $1 AND job_name = $2 AND created_at >= $3
		ORDER BY created_at DESC
		LIMIT 1`, app, job, since)
	run, err := scanJobRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest run %s/%s: %w", app, job, err)
	}
	return &run, nil
}

func (s *PostgresRunStore) GetAllPendingSince(ctx context.Context, since time.Time) ([]core.JobRun, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+runColumns+` FROM job_runs
		WHERE status <> $1 AND updated_at >= $2`, string(core.StatusComplete), since)
	if err != nil {
		return nil, fmt.Errorf("query pending runs: %w", err)
	}
	defer rows.Close()

	var out []core.JobRun
	for rows.Next() {
		run, err := scanJobRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (s *PostgresRunStore) Insert(ctx context.Context, run core.JobRun) (core.JobRun, error) {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	stagesJSON, err := json.Marshal(run.Stages)
	if err != nil {
		return core.JobRun{}, fmt.Errorf("marshal stages: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO job_runs (id, app_name, job_name, triggered_at, status, stages)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID, run.AppName, run.JobName, run.TriggeredAt, string(run.Status), stagesJSON,
	)
	if err != nil {
		return core.JobRun{}, fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	saved, err := s.GetByID(ctx, run.ID)
	if err != nil {
		return core.JobRun{}, err
	}
	return *saved, nil
}

func (s *PostgresRunStore) Save(ctx context.Context, run core.JobRun) (core.JobRun, error) {
	stagesJSON, err := json.Marshal(run.Stages)
	if err != nil {
		return core.JobRun{}, fmt.Errorf("marshal stages: %w", err)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE job_runs
		SET status = $2, stages = $3, updated_at = now()
		WHERE id = $1`,
		run.ID, string(run.Status), stagesJSON,
	)
	if err != nil {
		return core.JobRun{}, fmt.Errorf("save run %s: %w", run.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return core.JobRun{}, core.NewNotFound("run %s not found", run.ID)
	}

	saved, err := s.GetByID(ctx, run.ID)
	if err != nil {
		return core.JobRun{}, err
	}
	return *saved, nil
}

func scanJobRun(row rowScanner) (core.JobRun, error) {
	var (
		run        core.JobRun
		status     string
		stagesJSON []byte
	)

	if err := row.Scan(
		&run.ID, &run.AppName, &run.JobName, &run.TriggeredAt, &status,
		&stagesJSON, &run.CreatedAt, &run.UpdatedAt,
	); err != nil {
		return core.JobRun{}, err
	}

	run.Status = core.JobRunStatus(status)
	if len(stagesJSON) > 0 {
		if err := json.Unmarshal(stagesJSON, &run.Stages); err != nil {
			return core.JobRun{}, fmt.Errorf("unmarshal stages: %w", err)
		}
	}

	return run, nil
}
