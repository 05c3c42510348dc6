package core

import (
	"time"

	"github.com/google/uuid"
)

// JobRunStatus is the roll-up status of a JobRun.
type JobRunStatus string

const (
	StatusInProgress JobRunStatus = "InProgress"
	StatusComplete   JobRunStatus = "Complete"
	StatusFailed     JobRunStatus = "Failed"
)

// StageStatus is the outcome recorded for one side (start or complete) of a
// JobRunStage.
type StageStatus string

const (
	StageOccurred StageStatus = "Occurred"
	StageFailed   StageStatus = "Failed"
	StageMissed   StageStatus = "Missed"
)

// StageEventKind is the kind of event the Stage Event Ingestor applies.
type StageEventKind string

const (
	EventStart    StageEventKind = "Start"
	EventComplete StageEventKind = "Complete"
	EventFailed   StageEventKind = "Failed"
)

// ProviderType identifies a notification plugin.
type ProviderType string

const (
	ProviderGchatWebhook ProviderType = "GchatWebhook"
	ProviderSlackWebhook ProviderType = "SlackWebhook"
	ProviderEmailSmtp    ProviderType = "EmailSmtp"
)

// AlertType is the kind of notification rendered by a plugin.
type AlertType string

const (
	AlertError   AlertType = "Error"
	AlertTimeout AlertType = "Timeout"
	AlertFailed  AlertType = "Failed"
)

// JobStageConfig is one named checkpoint of a JobConfig. At least one of
// Start/Complete must be set (enforced at config-save time, not here).
type JobStageConfig struct {
	Name     string         `json:"name"`
	Start    *time.Duration `json:"start,omitempty"`
	Complete *time.Duration `json:"complete,omitempty"`
}

// JobConfig identifies a watched job by (AppName, JobName).
type JobConfig struct {
	AppName     string           `json:"app_name"`
	JobName     string           `json:"job_name"`
	Schedule    *string          `json:"schedule,omitempty"`
	ZoneID      *string          `json:"zone_id,omitempty"`
	Enabled     bool             `json:"enabled"`
	Stages      []JobStageConfig `json:"stages"`
	ChannelIDs  string           `json:"channel_ids"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// IsScheduled reports whether cfg runs on a cron schedule rather than being
// manually triggered only.
func (c JobConfig) IsScheduled() bool {
	return c.Schedule != nil && *c.Schedule != ""
}

// StageByName returns the configured stage named name, if any.
func (c JobConfig) StageByName(name string) (JobStageConfig, bool) {
	for _, s := range c.Stages {
		if s.Name == name {
			return s, true
		}
	}
	return JobStageConfig{}, false
}

// JobRunStage is one stage's recorded outcome within a run. A status field
// is set together with its timestamp, never independently.
type JobRunStage struct {
	Name             string       `json:"name"`
	StartStatus      *StageStatus `json:"start_status,omitempty"`
	StartDateTime    *time.Time   `json:"start_date_time,omitempty"`
	CompleteStatus   *StageStatus `json:"complete_status,omitempty"`
	CompleteDateTime *time.Time   `json:"complete_date_time,omitempty"`
}

// JobRun is one attempted execution of a job.
type JobRun struct {
	ID          uuid.UUID     `json:"id"`
	AppName     string        `json:"app_name"`
	JobName     string        `json:"job_name"`
	TriggeredAt time.Time     `json:"triggered_at"`
	Status      JobRunStatus  `json:"status"`
	Stages      []JobRunStage `json:"stages"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Channel is a named notification destination backed by a provider plugin.
type Channel struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	ProviderType  ProviderType `json:"provider_type"`
	Configuration []byte       `json:"configuration"` // raw JSON, schema gated by plugin
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// Settings is the singleton set of mutable operator thresholds.
type Settings struct {
	SuccessRetentionDays  int    `json:"success_retention_days"`
	FailureRetentionDays  int    `json:"failure_retention_days"`
	MaintenanceMode       bool   `json:"maintenance_mode"`
	DefaultChannels       string `json:"default_channels"`
	ErrorChannels         string `json:"error_channels"`
	MaxStageDurationHours int    `json:"max_stage_duration_hours"`
}
