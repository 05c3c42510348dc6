package core

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScannerConfigStore struct {
	configs []JobConfig
}

func (s *fakeScannerConfigStore) GetAllEnabled(ctx context.Context) ([]JobConfig, error) {
	return s.configs, nil
}

type fakeScannerRunStore struct {
	pending []JobRun
	saved   []JobRun
	inserts []JobRun
}

func (s *fakeScannerRunStore) GetAllPendingSince(ctx context.Context, since time.Time) ([]JobRun, error) {
	return s.pending, nil
}

func (s *fakeScannerRunStore) Insert(ctx context.Context, run JobRun) (JobRun, error) {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	s.inserts = append(s.inserts, run)
	return run, nil
}

func (s *fakeScannerRunStore) Save(ctx context.Context, run JobRun) (JobRun, error) {
	s.saved = append(s.saved, run)
	return run, nil
}

type fakeSettingsProvider struct {
	settings Settings
}

func (p *fakeSettingsProvider) Get() Settings { return p.settings }

func scheduledConfig(app, job, schedule, zone string) JobConfig {
	return JobConfig{
		AppName:    app,
		JobName:    job,
		Schedule:   &schedule,
		ZoneID:     &zone,
		Enabled:    true,
		ChannelIDs: "ch1",
		Stages: []JobStageConfig{
			{Name: "ingest", Start: startOffset(time.Minute), Complete: startOffset(2 * time.Minute)},
		},
	}
}

// TestScannerScheduledJobPastDeadlineDispatchesTimeout pins the happy path
// of the scheduled-job scanner pass: a job whose window is open and whose
// stage deadline has passed gets a Missed stage persisted and a Timeout
// alert fired.
func TestScannerScheduledJobPastDeadlineDispatchesTimeout(t *testing.T) {
	now := time.Date(2024, 3, 15, 5, 1, 30, 0, time.UTC) // 90s past job_start of 05:00
	clock := NewFakeClock(now)

	cfg := scheduledConfig("app1", "job1", "0 0 5 * * *", "UTC")
	runStore := &fakeScannerRunStore{}
	configStore := &fakeScannerConfigStore{configs: []JobConfig{cfg}}
	dispatcher := newFakeDispatcher()
	logger := &recordingLogger{}

	scanner := NewScanner(configStore, runStore, &fakeSettingsProvider{settings: Settings{MaxStageDurationHours: 24}}, dispatcher, logger, clock, 5*time.Second)

	err := scanner.ScanOnce(context.Background())
	require.NoError(t, err)

	require.Len(t, runStore.inserts, 1, "expected a run created for the scheduled job")
	require.Len(t, runStore.saved, 1)
	assert.Equal(t, StatusFailed, runStore.saved[0].Status)
	require.Len(t, runStore.saved[0].Stages, 1)
	assert.Equal(t, StageMissed, *runStore.saved[0].Stages[0].StartStatus)

	require.Len(t, dispatcher.calls, 1)
	assert.Equal(t, AlertTimeout, dispatcher.calls[0].in.Alert)
	assert.Equal(t, "ch1", dispatcher.calls[0].channelIDsCSV)
	assert.Zero(t, logger.errorCount())
}

// Outside the job's window the scanner does nothing: no run is created and
// no alert is sent.
func TestScannerScheduledJobOutsideWindowSkipped(t *testing.T) {
	// At 03:00 the latest fire is the previous day's 05:00, whose window
	// closed long before "now".
	now := time.Date(2024, 3, 15, 3, 0, 0, 0, time.UTC)
	clock := NewFakeClock(now)

	cfg := scheduledConfig("app1", "job1", "0 0 5 * * *", "UTC")
	runStore := &fakeScannerRunStore{}
	configStore := &fakeScannerConfigStore{configs: []JobConfig{cfg}}
	dispatcher := newFakeDispatcher()

	scanner := NewScanner(configStore, runStore, &fakeSettingsProvider{settings: Settings{MaxStageDurationHours: 24}}, dispatcher, &recordingLogger{}, clock, 5*time.Second)

	err := scanner.ScanOnce(context.Background())
	require.NoError(t, err)

	assert.Empty(t, runStore.inserts)
	assert.Empty(t, runStore.saved)
	assert.Empty(t, dispatcher.calls)
}

// TestScannerScheduledJobReusesRunWithinGrace pins the grace-period run
// selection rule: an existing run created within grace_seconds of
// job_start is reused rather than a new one being inserted.
func TestScannerScheduledJobReusesRunWithinGrace(t *testing.T) {
	jobStart := time.Date(2024, 3, 15, 5, 0, 0, 0, time.UTC)
	now := jobStart.Add(90 * time.Second)
	clock := NewFakeClock(now)

	cfg := scheduledConfig("app1", "job1", "0 0 5 * * *", "UTC")
	existing := JobRun{
		ID:        uuid.New(),
		AppName:   "app1",
		JobName:   "job1",
		Status:    StatusInProgress,
		CreatedAt: jobStart.Add(2 * time.Second), // within 5s grace
	}
	runStore := &fakeScannerRunStore{pending: []JobRun{existing}}
	configStore := &fakeScannerConfigStore{configs: []JobConfig{cfg}}
	dispatcher := newFakeDispatcher()

	scanner := NewScanner(configStore, runStore, &fakeSettingsProvider{settings: Settings{MaxStageDurationHours: 24}}, dispatcher, &recordingLogger{}, clock, 5*time.Second)

	err := scanner.ScanOnce(context.Background())
	require.NoError(t, err)

	assert.Empty(t, runStore.inserts, "should reuse the existing run, not insert a new one")
	require.Len(t, runStore.saved, 1)
	assert.Equal(t, existing.ID, runStore.saved[0].ID)
}

// TestScannerManualJobUsesTriggeredAtAsJobStart pins the manual-job pass:
// job_start is the run's triggered_at, not derived from a schedule.
func TestScannerManualJobUsesTriggeredAtAsJobStart(t *testing.T) {
	triggeredAt := time.Date(2024, 3, 15, 5, 0, 0, 0, time.UTC)
	now := triggeredAt.Add(90 * time.Second)
	clock := NewFakeClock(now)

	cfg := JobConfig{
		AppName:    "app1",
		JobName:    "manual-job",
		Enabled:    true,
		ChannelIDs: "ch1",
		Stages: []JobStageConfig{
			{Name: "ingest", Start: startOffset(time.Minute)},
		},
	}
	run := JobRun{
		ID:          uuid.New(),
		AppName:     "app1",
		JobName:     "manual-job",
		TriggeredAt: triggeredAt,
		Status:      StatusInProgress,
	}

	runStore := &fakeScannerRunStore{pending: []JobRun{run}}
	configStore := &fakeScannerConfigStore{configs: []JobConfig{cfg}}
	dispatcher := newFakeDispatcher()

	scanner := NewScanner(configStore, runStore, &fakeSettingsProvider{settings: Settings{MaxStageDurationHours: 24}}, dispatcher, &recordingLogger{}, clock, 5*time.Second)

	err := scanner.ScanOnce(context.Background())
	require.NoError(t, err)

	require.Len(t, runStore.saved, 1)
	assert.Equal(t, StatusFailed, runStore.saved[0].Status)
	require.Len(t, dispatcher.calls, 1)
	assert.Equal(t, AlertTimeout, dispatcher.calls[0].in.Alert)
}

// TestScannerNoEnabledConfigsIsNoop pins the early-return when there are
// no enabled configs at all: stores for pending runs are never consulted.
func TestScannerNoEnabledConfigsIsNoop(t *testing.T) {
	clock := NewFakeClock(time.Date(2024, 3, 15, 5, 0, 0, 0, time.UTC))
	runStore := &fakeScannerRunStore{pending: []JobRun{{ID: uuid.New()}}}
	configStore := &fakeScannerConfigStore{}
	dispatcher := newFakeDispatcher()

	scanner := NewScanner(configStore, runStore, &fakeSettingsProvider{settings: Settings{MaxStageDurationHours: 24}}, dispatcher, &recordingLogger{}, clock, 5*time.Second)

	err := scanner.ScanOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, dispatcher.calls)
	assert.Empty(t, runStore.saved)
}

// TestScannerManualJobCompleteSkipped ensures a manual run already marked
// Complete is left alone by the manual-job pass.
func TestScannerManualJobCompleteSkipped(t *testing.T) {
	triggeredAt := time.Date(2024, 3, 15, 5, 0, 0, 0, time.UTC)
	now := triggeredAt.Add(90 * time.Second)
	clock := NewFakeClock(now)

	cfg := JobConfig{
		AppName:    "app1",
		JobName:    "manual-job",
		Enabled:    true,
		ChannelIDs: "ch1",
		Stages: []JobStageConfig{
			{Name: "ingest", Start: startOffset(time.Minute)},
		},
	}
	run := JobRun{
		ID:          uuid.New(),
		AppName:     "app1",
		JobName:     "manual-job",
		TriggeredAt: triggeredAt,
		Status:      StatusComplete,
	}

	runStore := &fakeScannerRunStore{pending: []JobRun{run}}
	configStore := &fakeScannerConfigStore{configs: []JobConfig{cfg}}
	dispatcher := newFakeDispatcher()

	scanner := NewScanner(configStore, runStore, &fakeSettingsProvider{settings: Settings{MaxStageDurationHours: 24}}, dispatcher, &recordingLogger{}, clock, 5*time.Second)

	err := scanner.ScanOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, runStore.saved)
	assert.Empty(t, dispatcher.calls)
}
