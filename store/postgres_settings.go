package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/netresearch/watchdogd/core"
)

// settingsListenChannel is the DB notification channel the settings
// trigger fires on.
const settingsListenChannel = "settings_update"

// PostgresSettingsStore is the Postgres-backed SettingsStore, including
// LISTEN/NOTIFY plumbing for the settings cache's change notifications.
type PostgresSettingsStore struct {
	pool *pgxpool.Pool
}

var _ SettingsStore = (*PostgresSettingsStore)(nil)

// NewPostgresSettingsStore builds a SettingsStore over pool.
func NewPostgresSettingsStore(pool *pgxpool.Pool) *PostgresSettingsStore {
	return &PostgresSettingsStore{pool: pool}
}

const settingsColumns = `success_retention_days, failure_retention_days, maintenance_mode, default_channels, error_channels, max_stage_duration_hours`

func (s *PostgresSettingsStore) Get(ctx context.Context) (core.Settings, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+settingsColumns+` FROM global_settings WHERE id = 1`)
	var st core.Settings
	if err := row.Scan(
		&st.SuccessRetentionDays, &st.FailureRetentionDays, &st.MaintenanceMode,
		&st.DefaultChannels, &st.ErrorChannels, &st.MaxStageDurationHours,
	); err != nil {
		return core.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	return st, nil
}

func (s *PostgresSettingsStore) Save(ctx context.Context, st core.Settings) (core.Settings, error) {
	_, err := s.pool.Exec(ctx, `
		UPDATE global_settings
		SET success_retention_days = $1, failure_retention_days = $2, maintenance_mode = $3,
		    default_channels = $4, error_channels = $5, max_stage_duration_hours = $6
		WHERE id = 1`,
		st.SuccessRetentionDays, st.FailureRetentionDays, st.MaintenanceMode,
		st.DefaultChannels, st.ErrorChannels, st.MaxStageDurationHours,
	)
	if err != nil {
		return core.Settings{}, fmt.Errorf("save settings: %w", err)
	}
	return s.Get(ctx)
}

// Listen subscribes to the settings_update notification channel and calls
// onUpdate for every payload received until ctx is cancelled or the
// connection drops, in which case it returns an error for the caller to
// retry against.
func (s *PostgresSettingsStore) Listen(ctx context.Context, onUpdate func(core.Settings)) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listen connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+settingsListenChannel); err != nil {
		return fmt.Errorf("listen %s: %w", settingsListenChannel, err)
	}

	pgConn := conn.Conn()
	for {
		notification, err := pgConn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}

		var payload struct {
			SuccessRetentionDays  int    `json:"success_retention_days"`
			FailureRetentionDays  int    `json:"failure_retention_days"`
			MaintenanceMode       bool   `json:"maintenance_mode"`
			DefaultChannels       string `json:"default_channels"`
			ErrorChannels         string `json:"error_channels"`
			MaxStageDurationHours int    `json:"max_stage_duration_hours"`
		}
		if err := json.Unmarshal([]byte(notification.Payload), &payload); err != nil {
			return fmt.Errorf("parse settings notification: %w", err)
		}

		onUpdate(core.Settings{
			SuccessRetentionDays:  payload.SuccessRetentionDays,
			FailureRetentionDays:  payload.FailureRetentionDays,
			MaintenanceMode:       payload.MaintenanceMode,
			DefaultChannels:       payload.DefaultChannels,
			ErrorChannels:         payload.ErrorChannels,
			MaxStageDurationHours: payload.MaxStageDurationHours,
		})
	}
}
