package web

import (
	"encoding/json"
	"time"

	"github.com/netresearch/watchdogd/core"
)

// jobStageConfigDTO mirrors core.JobStageConfig for request/response bodies.
type jobStageConfigDTO struct {
	Name     string `json:"name" validate:"required,stagename"`
	Start    *int64 `json:"start,omitempty" validate:"required_without=Complete,omitempty,min=0"`
	Complete *int64 `json:"complete,omitempty" validate:"omitempty,min=0"`
}

func stageConfigFromDTO(d jobStageConfigDTO) core.JobStageConfig {
	out := core.JobStageConfig{Name: d.Name}
	if d.Start != nil {
		dur := time.Duration(*d.Start) * time.Second
		out.Start = &dur
	}
	if d.Complete != nil {
		dur := time.Duration(*d.Complete) * time.Second
		out.Complete = &dur
	}
	return out
}

func stageConfigToDTO(s core.JobStageConfig) jobStageConfigDTO {
	out := jobStageConfigDTO{Name: s.Name}
	if s.Start != nil {
		secs := int64(*s.Start / time.Second)
		out.Start = &secs
	}
	if s.Complete != nil {
		secs := int64(*s.Complete / time.Second)
		out.Complete = &secs
	}
	return out
}

// jobConfigDTO is the request/response body for /api/job-configs.
type jobConfigDTO struct {
	AppName    string              `json:"app_name" validate:"required"`
	JobName    string              `json:"job_name" validate:"required"`
	Schedule   *string             `json:"schedule,omitempty" validate:"omitempty,cron"`
	ZoneID     *string             `json:"zone_id,omitempty" validate:"required_with=Schedule,omitempty,ianatz"`
	Enabled    bool                `json:"enabled"`
	Stages     []jobStageConfigDTO `json:"stages" validate:"required,min=1,unique=Name,dive"`
	ChannelIDs string              `json:"channel_ids"`
	CreatedAt  time.Time           `json:"created_at,omitempty"`
	UpdatedAt  time.Time           `json:"updated_at,omitempty"`
}

func jobConfigFromDTO(d jobConfigDTO) core.JobConfig {
	stages := make([]core.JobStageConfig, 0, len(d.Stages))
	for _, s := range d.Stages {
		stages = append(stages, stageConfigFromDTO(s))
	}
	return core.JobConfig{
		AppName:    d.AppName,
		JobName:    d.JobName,
		Schedule:   d.Schedule,
		ZoneID:     d.ZoneID,
		Enabled:    d.Enabled,
		Stages:     stages,
		ChannelIDs: d.ChannelIDs,
	}
}

func jobConfigToDTO(c core.JobConfig) jobConfigDTO {
	stages := make([]jobStageConfigDTO, 0, len(c.Stages))
	for _, s := range c.Stages {
		stages = append(stages, stageConfigToDTO(s))
	}
	return jobConfigDTO{
		AppName:    c.AppName,
		JobName:    c.JobName,
		Schedule:   c.Schedule,
		ZoneID:     c.ZoneID,
		Enabled:    c.Enabled,
		Stages:     stages,
		ChannelIDs: c.ChannelIDs,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

// jobRunStageDTO mirrors core.JobRunStage.
type jobRunStageDTO struct {
	Name             string     `json:"name"`
	StartStatus      *string    `json:"start_status,omitempty"`
	StartDateTime    *time.Time `json:"start_date_time,omitempty"`
	CompleteStatus   *string    `json:"complete_status,omitempty"`
	CompleteDateTime *time.Time `json:"complete_date_time,omitempty"`
}

func jobRunStageToDTO(s core.JobRunStage) jobRunStageDTO {
	out := jobRunStageDTO{Name: s.Name, StartDateTime: s.StartDateTime, CompleteDateTime: s.CompleteDateTime}
	if s.StartStatus != nil {
		v := string(*s.StartStatus)
		out.StartStatus = &v
	}
	if s.CompleteStatus != nil {
		v := string(*s.CompleteStatus)
		out.CompleteStatus = &v
	}
	return out
}

// jobRunDTO is the response body for job-run endpoints.
type jobRunDTO struct {
	ID          string           `json:"id"`
	AppName     string           `json:"app_name"`
	JobName     string           `json:"job_name"`
	TriggeredAt time.Time        `json:"triggered_at"`
	Status      string           `json:"status"`
	Stages      []jobRunStageDTO `json:"stages"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func jobRunToDTO(r core.JobRun) jobRunDTO {
	stages := make([]jobRunStageDTO, 0, len(r.Stages))
	for _, s := range r.Stages {
		stages = append(stages, jobRunStageToDTO(s))
	}
	return jobRunDTO{
		ID:          r.ID.String(),
		AppName:     r.AppName,
		JobName:     r.JobName,
		TriggeredAt: r.TriggeredAt,
		Status:      string(r.Status),
		Stages:      stages,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// channelDTO is the request/response body for /api/channels.
type channelDTO struct {
	Name          string          `json:"name" validate:"required"`
	ProviderType  string          `json:"provider_type" validate:"required"`
	Configuration json.RawMessage `json:"configuration" validate:"required"`
	CreatedAt     time.Time       `json:"created_at,omitempty"`
	UpdatedAt     time.Time       `json:"updated_at,omitempty"`
}

func channelFromDTO(d channelDTO) core.Channel {
	return core.Channel{
		ID:            d.Name,
		Name:          d.Name,
		ProviderType:  core.ProviderType(d.ProviderType),
		Configuration: []byte(d.Configuration),
	}
}

func channelToDTO(c core.Channel) channelDTO {
	return channelDTO{
		Name:          c.Name,
		ProviderType:  string(c.ProviderType),
		Configuration: json.RawMessage(c.Configuration),
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// settingsDTO mirrors core.Settings.
type settingsDTO struct {
	SuccessRetentionDays  int    `json:"success_retention_days" validate:"min=0"`
	FailureRetentionDays  int    `json:"failure_retention_days" validate:"min=0"`
	MaintenanceMode       bool   `json:"maintenance_mode"`
	DefaultChannels       string `json:"default_channels"`
	ErrorChannels         string `json:"error_channels"`
	MaxStageDurationHours int    `json:"max_stage_duration_hours" validate:"min=1"`
}

func settingsFromDTO(d settingsDTO) core.Settings {
	return core.Settings{
		SuccessRetentionDays:  d.SuccessRetentionDays,
		FailureRetentionDays:  d.FailureRetentionDays,
		MaintenanceMode:       d.MaintenanceMode,
		DefaultChannels:       d.DefaultChannels,
		ErrorChannels:         d.ErrorChannels,
		MaxStageDurationHours: d.MaxStageDurationHours,
	}
}

func settingsToDTO(s core.Settings) settingsDTO {
	return settingsDTO{
		SuccessRetentionDays:  s.SuccessRetentionDays,
		FailureRetentionDays:  s.FailureRetentionDays,
		MaintenanceMode:       s.MaintenanceMode,
		DefaultChannels:       s.DefaultChannels,
		ErrorChannels:         s.ErrorChannels,
		MaxStageDurationHours: s.MaxStageDurationHours,
	}
}

// stageUpdateDTO is the body for both stage-update endpoints.
type stageUpdateDTO struct {
	StageName string `json:"stage_name" validate:"required,stagename"`
	EventType string `json:"event_type" validate:"required,oneof=started completed failed"`
	Message   string `json:"message,omitempty"`
}

func (d stageUpdateDTO) kind() core.StageEventKind {
	switch d.EventType {
	case "started":
		return core.EventStart
	case "completed":
		return core.EventComplete
	case "failed":
		return core.EventFailed
	default:
		return ""
	}
}
