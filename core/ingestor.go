package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ConfigStore, RunStore and SettingsStore restate the slices of the store
// package's interfaces the ingestor needs. core cannot import store
// (store imports core for its entity types), so these are declared here
// and satisfied structurally by the concrete store.ConfigStore /
// store.RunStore / store.SettingsStore implementations the caller passes
// in.
type ConfigStore interface {
	GetByAppAndJob(ctx context.Context, app, job string) (*JobConfig, error)
	Save(ctx context.Context, cfg JobConfig) (JobConfig, error)
}

type RunStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*JobRun, error)
	GetLatestByAppAndJob(ctx context.Context, app, job string, since time.Time) (*JobRun, error)
	Insert(ctx context.Context, run JobRun) (JobRun, error)
	Save(ctx context.Context, run JobRun) (JobRun, error)
}

type SettingsStore interface {
	Get(ctx context.Context) (Settings, error)
}

// Dispatcher is the capability the ingestor needs from the notification
// layer: the Failed-event alert, with an Error-alert fallback to the
// error-isolation channel list. notify.Dispatcher satisfies this through
// notify.DispatcherAdapter.
type Dispatcher interface {
	Dispatch(ctx context.Context, channelIDsCSV string, in DispatchInput) error
}

// DispatchInput mirrors notify.AlertInput's fields without core depending
// on the notify package.
type DispatchInput struct {
	App     string
	Job     string
	RunID   *uuid.UUID
	Stage   string
	Message string
	Alert   AlertType
}

// Ingestor applies incoming stage events to job runs.
type Ingestor struct {
	Configs    ConfigStore
	Runs       RunStore
	Settings   SettingsStore
	Dispatcher Dispatcher
	Logger     Logger
}

// NewIngestor builds an Ingestor over the given stores and dispatcher.
func NewIngestor(configs ConfigStore, runs RunStore, settings SettingsStore, dispatcher Dispatcher, logger Logger) *Ingestor {
	return &Ingestor{Configs: configs, Runs: runs, Settings: settings, Dispatcher: dispatcher, Logger: logger}
}

// Target selects which run an event applies to: either a specific run by
// ID, or a (app, job) context from which the ingestor resolves/creates the
// run itself.
type Target struct {
	RunID *uuid.UUID
	App   string
	Job   string
}

// ApplyEvent applies a stage event to the run selected by target. On
// success it returns the persisted, updated JobRun.
func (ing *Ingestor) ApplyEvent(ctx context.Context, target Target, stageName string, kind StageEventKind, message string) (*JobRun, error) {
	now := NowUTC()

	cfg, run, err := ing.resolve(ctx, target, now)
	if err != nil {
		return nil, err
	}

	if !cfg.Enabled {
		cfg.Enabled = true
		updatedCfg, err := ing.Configs.Save(ctx, *cfg)
		if err != nil {
			return nil, WrapDatabase("re-enable config", err)
		}
		*cfg = updatedCfg
	}

	// Failed reports are accepted for any stage name, configured or not;
	// only Start/Complete events are validated against the config.
	if kind == EventStart || kind == EventComplete {
		stageCfg, ok := cfg.StageByName(stageName)
		if !ok {
			return nil, NewBadRequest("stage %q is not configured for %s/%s", stageName, cfg.AppName, cfg.JobName)
		}
		if kind == EventStart && stageCfg.Start == nil {
			return nil, NewBadRequest("start not configured for the stage %s", stageName)
		}
		if kind == EventComplete && stageCfg.Complete == nil {
			return nil, NewBadRequest("complete not configured for the stage %s", stageName)
		}
	}

	newStage := JobRunStage{Name: stageName}
	switch kind {
	case EventStart:
		occurred := StageOccurred
		newStage.StartStatus = &occurred
		newStage.StartDateTime = &now
	case EventComplete:
		occurred := StageOccurred
		newStage.CompleteStatus = &occurred
		newStage.CompleteDateTime = &now
	case EventFailed:
		failed := StageFailed
		newStage.CompleteStatus = &failed
		newStage.CompleteDateTime = &now
	}

	run.Stages = append(run.Stages, newStage)
	run.Status = FoldStatus(*cfg, *run)
	run.UpdatedAt = now

	saved, err := ing.Runs.Save(ctx, *run)
	if err != nil {
		return nil, WrapDatabase("save run", err)
	}

	if kind == EventFailed {
		ing.dispatchFailed(ctx, *cfg, saved, stageName, message)
	}

	return &saved, nil
}

// resolve returns the config and
// the run the event should be applied to (creating the run if necessary
// for a by-context event against a scheduled job whose window has no
// prior run).
func (ing *Ingestor) resolve(ctx context.Context, target Target, now time.Time) (*JobConfig, *JobRun, error) {
	if target.RunID != nil {
		run, err := ing.Runs.GetByID(ctx, *target.RunID)
		if err != nil {
			return nil, nil, WrapDatabase("load run", err)
		}
		if run == nil {
			return nil, nil, NewNotFound("run %s not found", target.RunID)
		}
		cfg, err := ing.Configs.GetByAppAndJob(ctx, run.AppName, run.JobName)
		if err != nil {
			return nil, nil, WrapDatabase("load config", err)
		}
		if cfg == nil {
			return nil, nil, NewNotFound("config not found for %s/%s", run.AppName, run.JobName)
		}
		return cfg, run, nil
	}

	cfg, err := ing.Configs.GetByAppAndJob(ctx, target.App, target.Job)
	if err != nil {
		return nil, nil, WrapDatabase("load config", err)
	}
	if cfg == nil {
		return nil, nil, NewNotFound("config not found for %s/%s", target.App, target.Job)
	}
	if cfg.Schedule == nil || cfg.ZoneID == nil {
		return nil, nil, NewBadRequest("config %s/%s has no schedule/zone for context-based events", target.App, target.Job)
	}

	zonedNow, err := ToZone(now, *cfg.ZoneID)
	if err != nil {
		return nil, nil, err
	}
	jobStart, err := JobStart(*cfg.Schedule, zonedNow)
	if err != nil {
		return nil, nil, err
	}

	run, err := ing.Runs.GetLatestByAppAndJob(ctx, target.App, target.Job, jobStart.UTC())
	if err != nil {
		return nil, nil, WrapDatabase("load latest run", err)
	}
	if run == nil {
		created, err := ing.Runs.Insert(ctx, JobRun{
			ID:          uuid.New(),
			AppName:     target.App,
			JobName:     target.Job,
			TriggeredAt: now,
			Status:      StatusInProgress,
		})
		if err != nil {
			return nil, nil, WrapDatabase("create run", err)
		}
		run = &created
	}

	return cfg, run, nil
}

func (ing *Ingestor) dispatchFailed(ctx context.Context, cfg JobConfig, run JobRun, stage, message string) {
	runID := run.ID
	err := ing.Dispatcher.Dispatch(ctx, cfg.ChannelIDs, DispatchInput{
		App: cfg.AppName, Job: cfg.JobName, RunID: &runID, Stage: stage, Message: message, Alert: AlertFailed,
	})
	if err == nil {
		return
	}

	ing.Logger.Errorf("ingestor: dispatch Failed alert for %s/%s run %s: %v", cfg.AppName, cfg.JobName, runID, err)

	settings, sErr := ing.Settings.Get(ctx)
	if sErr != nil {
		ing.Logger.Errorf("ingestor: load settings for error-channel fallback: %v", sErr)
		return
	}

	if dErr := ing.Dispatcher.Dispatch(ctx, settings.ErrorChannels, DispatchInput{
		App: cfg.AppName, Job: cfg.JobName, RunID: &runID, Stage: stage, Message: message, Alert: AlertError,
	}); dErr != nil {
		ing.Logger.Errorf("ingestor: dispatch Error alert fallback for %s/%s run %s: %v", cfg.AppName, cfg.JobName, runID, dErr)
	}
}
