// Package store defines the persistence boundary the timeout-detection
// engine depends on, and a Postgres implementation of it. Components never
// talk to *pgx.Pool directly; they take these interfaces as constructor
// arguments.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/netresearch/watchdogd/core"
)

// ConfigStore is the persistence boundary for JobConfig.
type ConfigStore interface {
	GetByAppAndJob(ctx context.Context, app, job string) (*core.JobConfig, error)
	GetAllEnabled(ctx context.Context) ([]core.JobConfig, error)
	GetAll(ctx context.Context) ([]core.JobConfig, error)
	GetAllApplications(ctx context.Context) ([]string, error)
	GetByApplication(ctx context.Context, app string) ([]core.JobConfig, error)
	Insert(ctx context.Context, cfg core.JobConfig) (core.JobConfig, error)
	Save(ctx context.Context, cfg core.JobConfig) (core.JobConfig, error)
}

// RunStore is the persistence boundary for JobRun.
type RunStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*core.JobRun, error)
	GetLatestByAppAndJob(ctx context.Context, app, job string, since time.Time) (*core.JobRun, error)
	GetAllPendingSince(ctx context.Context, since time.Time) ([]core.JobRun, error)
	Insert(ctx context.Context, run core.JobRun) (core.JobRun, error)
	Save(ctx context.Context, run core.JobRun) (core.JobRun, error)
}

// ChannelStore is the persistence boundary for Channel.
type ChannelStore interface {
	GetByID(ctx context.Context, id string) (*core.Channel, error)
	GetAll(ctx context.Context) ([]core.Channel, error)
	Insert(ctx context.Context, ch core.Channel) (core.Channel, error)
	Save(ctx context.Context, ch core.Channel) (core.Channel, error)
}

// SettingsStore is the persistence boundary for the Settings singleton,
// including subscription to the database's change-notification channel.
type SettingsStore interface {
	Get(ctx context.Context) (core.Settings, error)
	Save(ctx context.Context, s core.Settings) (core.Settings, error)
	Listen(ctx context.Context, onUpdate func(core.Settings)) error
}
