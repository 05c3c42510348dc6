package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ScannerConfigStore and ScannerRunStore restate the slices of the store
// package's interfaces the scanner needs, mirroring the seam
// core/ingestor.go draws to avoid an import cycle with store.
type ScannerConfigStore interface {
	GetAllEnabled(ctx context.Context) ([]JobConfig, error)
}

type ScannerRunStore interface {
	GetAllPendingSince(ctx context.Context, since time.Time) ([]JobRun, error)
	Insert(ctx context.Context, run JobRun) (JobRun, error)
	Save(ctx context.Context, run JobRun) (JobRun, error)
}

// SettingsProvider is the read side of the settings cache, used by
// the scanner to size its pending-run lookback window.
type SettingsProvider interface {
	Get() Settings
}

// Scanner implements the timeout scanner: one pass that loads
// enabled configs and pending runs, advances scheduled and manual job
// windows, persists matcher output, and fans out Timeout alerts.
type Scanner struct {
	Configs      ScannerConfigStore
	Runs         ScannerRunStore
	Settings     SettingsProvider
	Dispatcher   Dispatcher
	Logger       Logger
	Clock        Clock
	GraceSeconds time.Duration
}

// NewScanner builds a Scanner over the given stores, settings provider and
// dispatcher. graceSeconds bounds how old an existing run may be,
// relative to the window start, and still be reused.
func NewScanner(configs ScannerConfigStore, runs ScannerRunStore, settings SettingsProvider, dispatcher Dispatcher, logger Logger, clock Clock, graceSeconds time.Duration) *Scanner {
	if clock == nil {
		clock = GetDefaultClock()
	}
	return &Scanner{
		Configs:      configs,
		Runs:         runs,
		Settings:     settings,
		Dispatcher:   dispatcher,
		Logger:       logger,
		Clock:        clock,
		GraceSeconds: graceSeconds,
	}
}

// ScanOnce runs a single scanner pass. It never aborts early because of
// one bad config or run: errors on an individual item are logged and the
// scanner continues with the next one.
func (s *Scanner) ScanOnce(ctx context.Context) error {
	configs, err := s.Configs.GetAllEnabled(ctx)
	if err != nil {
		return WrapDatabase("load enabled configs", err)
	}
	if len(configs) == 0 {
		return nil
	}

	now := s.Clock.Now().UTC()
	maxAge := time.Duration(s.Settings.Get().MaxStageDurationHours) * time.Hour
	since := now.Add(-maxAge)

	runs, err := s.Runs.GetAllPendingSince(ctx, since)
	if err != nil {
		return WrapDatabase("load pending runs", err)
	}

	latestByJob := latestRunByJob(runs)

	configByKey := make(map[string]JobConfig, len(configs))
	for _, cfg := range configs {
		configByKey[jobKey(cfg.AppName, cfg.JobName)] = cfg
	}

	for _, cfg := range configs {
		if !cfg.IsScheduled() {
			continue
		}
		if err := s.processScheduled(ctx, cfg, now, latestByJob); err != nil {
			s.Logger.Errorf("scanner: %s/%s: %v", cfg.AppName, cfg.JobName, err)
		}
	}

	for _, run := range runs {
		if run.Status == StatusComplete {
			continue
		}
		cfg, ok := configByKey[jobKey(run.AppName, run.JobName)]
		if !ok || cfg.IsScheduled() {
			continue
		}
		if err := s.processManual(ctx, cfg, run); err != nil {
			s.Logger.Errorf("scanner: manual %s/%s run %s: %v", cfg.AppName, cfg.JobName, run.ID, err)
		}
	}

	return nil
}

func (s *Scanner) processScheduled(ctx context.Context, cfg JobConfig, now time.Time, latestByJob map[string]JobRun) error {
	zonedNow, err := ToZone(now, *cfg.ZoneID)
	if err != nil {
		return err
	}
	jobStart, err := JobStart(*cfg.Schedule, zonedNow)
	if err != nil {
		return err
	}
	jobComplete := JobComplete(cfg.Stages, jobStart)
	if !InWindow(zonedNow, jobStart, jobComplete) {
		return nil
	}

	run, err := s.selectScheduledRun(ctx, cfg, jobStart, latestByJob)
	if err != nil {
		return err
	}

	updates := MatchStages(cfg, run, zonedNow, jobStart)
	if len(updates) == 0 {
		return nil
	}

	run.Stages = MergeStages(run.Stages, updates)
	run.Status = StatusFailed
	run.UpdatedAt = now

	if _, err := s.Runs.Save(ctx, run); err != nil {
		return WrapDatabase("save scanned run", err)
	}

	for _, stage := range updates {
		s.notifyTimeout(ctx, cfg, run, stage)
	}

	return nil
}

func (s *Scanner) selectScheduledRun(ctx context.Context, cfg JobConfig, jobStart time.Time, latestByJob map[string]JobRun) (JobRun, error) {
	key := jobKey(cfg.AppName, cfg.JobName)
	grace := jobStart.Add(-s.GraceSeconds)

	if latest, ok := latestByJob[key]; ok && !latest.CreatedAt.Before(grace) {
		return latest, nil
	}

	created, err := s.Runs.Insert(ctx, JobRun{
		ID:          uuid.New(),
		AppName:     cfg.AppName,
		JobName:     cfg.JobName,
		TriggeredAt: s.Clock.Now().UTC(),
		Status:      StatusInProgress,
	})
	if err != nil {
		return JobRun{}, WrapDatabase("create scheduled run", err)
	}
	return created, nil
}

func (s *Scanner) processManual(ctx context.Context, cfg JobConfig, run JobRun) error {
	jobStart := run.TriggeredAt
	now := s.Clock.Now().UTC()

	updates := MatchStages(cfg, run, now, jobStart)
	if len(updates) == 0 {
		return nil
	}

	run.Stages = MergeStages(run.Stages, updates)
	run.Status = StatusFailed
	run.UpdatedAt = now

	if _, err := s.Runs.Save(ctx, run); err != nil {
		return WrapDatabase("save scanned manual run", err)
	}

	for _, stage := range updates {
		s.notifyTimeout(ctx, cfg, run, stage)
	}

	return nil
}

func (s *Scanner) notifyTimeout(ctx context.Context, cfg JobConfig, run JobRun, stage JobRunStage) {
	runID := run.ID
	if err := s.Dispatcher.Dispatch(ctx, cfg.ChannelIDs, DispatchInput{
		App: cfg.AppName, Job: cfg.JobName, RunID: &runID, Stage: stage.Name, Alert: AlertTimeout,
	}); err != nil {
		s.Logger.Errorf("scanner: dispatch Timeout alert for %s/%s stage %s: %v", cfg.AppName, cfg.JobName, stage.Name, err)
	}
}

func latestRunByJob(runs []JobRun) map[string]JobRun {
	latest := make(map[string]JobRun, len(runs))
	for _, run := range runs {
		key := jobKey(run.AppName, run.JobName)
		existing, ok := latest[key]
		if !ok || run.CreatedAt.After(existing.CreatedAt) {
			latest[key] = run
		}
	}
	return latest
}

func jobKey(app, job string) string {
	return app + "/" + job
}
