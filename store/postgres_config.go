package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/netresearch/watchdogd/core"
)

// PostgresConfigStore is the Postgres-backed ConfigStore.
type PostgresConfigStore struct {
	pool *pgxpool.Pool
}

var _ ConfigStore = (*PostgresConfigStore)(nil)

// NewPostgresConfigStore builds a ConfigStore over pool.
func NewPostgresConfigStore(pool *pgxpool.Pool) *PostgresConfigStore {
	return &PostgresConfigStore{pool: pool}
}

const configColumns = `app_name, job_name, schedule, zone_id, enabled, stages, channel_ids, created_at, updated_at`

func (s *PostgresConfigStore) GetByAppAndJob(ctx context.Context, app, job string) (*core.JobConfig, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+configColumns+` FROM job_configs WHERE app_name = $1 AND job_name = $2`, app, job)
	cfg, err := scanJobConfig(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get config %s/%s: %w", app, job, err)
	}
	return &cfg, nil
}

func (s *PostgresConfigStore) GetAllEnabled(ctx context.Context) ([]core.JobConfig, error) {
	return s.queryConfigs(ctx, `SELECT `+configColumns+` FROM job_configs WHERE enabled = true`)
}

func (s *PostgresConfigStore) GetAll(ctx context.Context) ([]core.JobConfig, error) {
	return s.queryConfigs(ctx, `SELECT `+configColumns+` FROM job_configs`)
}

func (s *PostgresConfigStore) GetByApplication(ctx context.Context, app string) ([]core.JobConfig, error) {
	return s.queryConfigs(ctx, `SELECT `+configColumns+` FROM job_configs WHERE app_name = $1`, app)
}

func (s *PostgresConfigStore) GetAllApplications(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT app_name FROM job_configs ORDER BY app_name`)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var apps []string
	for rows.Next() {
		var app string
		if err := rows.Scan(&app); err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

func (s *PostgresConfigStore) Insert(ctx context.Context, cfg core.JobConfig) (core.JobConfig, error) {
	existing, err := s.GetByAppAndJob(ctx, cfg.AppName, cfg.JobName)
	if err != nil {
		return core.JobConfig{}, err
	}
	if existing != nil {
		return core.JobConfig{}, core.NewConflict("job config %s/%s already exists", cfg.AppName, cfg.JobName)
	}

	stagesJSON, err := json.Marshal(cfg.Stages)
	if err != nil {
		return core.JobConfig{}, fmt.Errorf("marshal stages: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO job_configs (app_name, job_name, schedule, zone_id, enabled, stages, channel_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		cfg.AppName, cfg.JobName, nullableString(cfg.Schedule), nullableString(cfg.ZoneID),
		cfg.Enabled, stagesJSON, cfg.ChannelIDs,
	)
	if err != nil {
		return core.JobConfig{}, fmt.Errorf("insert config %s/%s: %w", cfg.AppName, cfg.JobName, err)
	}

	saved, err := s.GetByAppAndJob(ctx, cfg.AppName, cfg.JobName)
	if err != nil {
		return core.JobConfig{}, err
	}
	return *saved, nil
}

func (s *PostgresConfigStore) Save(ctx context.Context, cfg core.JobConfig) (core.JobConfig, error) {
	stagesJSON, err := json.Marshal(cfg.Stages)
	if err != nil {
		return core.JobConfig{}, fmt.Errorf("marshal stages: %w", err)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE job_configs
		SET schedule = $3, zone_id = $4, enabled = $5, stages = $6, channel_ids = $7, updated_at = now()
		WHERE app_name = $1 AND job_name = $2`,
		cfg.AppName, cfg.JobName, nullableString(cfg.Schedule), nullableString(cfg.ZoneID),
		cfg.Enabled, stagesJSON, cfg.ChannelIDs,
	)
	if err != nil {
		return core.JobConfig{}, fmt.Errorf("save config %s/%s: %w", cfg.AppName, cfg.JobName, err)
	}
	if tag.RowsAffected() == 0 {
		return core.JobConfig{}, core.NewNotFound("config %s/%s not found", cfg.AppName, cfg.JobName)
	}

	saved, err := s.GetByAppAndJob(ctx, cfg.AppName, cfg.JobName)
	if err != nil {
		return core.JobConfig{}, err
	}
	return *saved, nil
}

func (s *PostgresConfigStore) queryConfigs(ctx context.Context, sql string, args ...any) ([]core.JobConfig, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query configs: %w", err)
	}
	defer rows.Close()

	var out []core.JobConfig
	for rows.Next() {
		cfg, err := scanJobConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("scan config: %w", err)
		}
		out = append(out, cfg)
	}
	return out, rows.Err()
}

// rowScanner is satisfied by both pgx.Row (QueryRow) and pgx.Rows (Query).
type rowScanner interface {
	Scan(dest ...any) error
}

func scanJobConfig(row rowScanner) (core.JobConfig, error) {
	var (
		cfg        core.JobConfig
		schedule   sql.NullString
		zoneID     sql.NullString
		stagesJSON []byte
	)

	if err := row.Scan(
		&cfg.AppName, &cfg.JobName, &schedule, &zoneID, &cfg.Enabled,
		&stagesJSON, &cfg.ChannelIDs, &cfg.CreatedAt, &cfg.UpdatedAt,
	); err != nil {
		return core.JobConfig{}, err
	}

	if schedule.Valid {
		cfg.Schedule = &schedule.String
	}
	if zoneID.Valid {
		cfg.ZoneID = &zoneID.String
	}

	if len(stagesJSON) > 0 {
		if err := json.Unmarshal(stagesJSON, &cfg.Stages); err != nil {
			return core.JobConfig{}, fmt.Errorf("unmarshal stages: %w", err)
		}
	}

	return cfg, nil
}

func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
