package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool opens a pgx connection pool against databaseURL. Callers own the
// returned pool's lifetime and must Close it on shutdown.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// Schema is the watchdog's logical schema, applied once at startup. A
// dedicated migration tool would be overkill for four tables and one
// trigger.
const Schema = `
CREATE TABLE IF NOT EXISTS job_configs (
	app_name   TEXT NOT NULL,
	job_name   TEXT NOT NULL,
	schedule   TEXT,
	zone_id    TEXT,
	enabled    BOOLEAN NOT NULL DEFAULT true,
	stages     JSONB NOT NULL DEFAULT '[]',
	channel_ids TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (app_name, job_name)
);

CREATE TABLE IF NOT EXISTS job_runs (
	id           UUID PRIMARY KEY,
	app_name     TEXT NOT NULL,
	job_name     TEXT NOT NULL,
	triggered_at TIMESTAMPTZ NOT NULL,
	status       TEXT NOT NULL,
	stages       JSONB NOT NULL DEFAULT '[]',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS job_runs_app_job_idx ON job_runs (app_name, job_name, created_at DESC);

CREATE TABLE IF NOT EXISTS channels (
	name          TEXT PRIMARY KEY,
	provider_type TEXT NOT NULL,
	configuration JSONB NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS global_settings (
	id                       INT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
	success_retention_days   INT NOT NULL DEFAULT 30,
	failure_retention_days   INT NOT NULL DEFAULT 90,
	maintenance_mode         BOOLEAN NOT NULL DEFAULT false,
	default_channels         TEXT NOT NULL DEFAULT '',
	error_channels           TEXT NOT NULL DEFAULT '',
	max_stage_duration_hours INT NOT NULL DEFAULT 24
);
INSERT INTO global_settings (id) VALUES (1) ON CONFLICT (id) DO NOTHING;

CREATE OR REPLACE FUNCTION notify_settings_update() RETURNS trigger AS $$
BEGIN
	PERFORM pg_notify('settings_update', row_to_json(NEW)::text);
	RETURN NEW;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS global_settings_notify ON global_settings;
CREATE TRIGGER global_settings_notify
	AFTER UPDATE ON global_settings
	FOR EACH ROW EXECUTE FUNCTION notify_settings_update();
`
