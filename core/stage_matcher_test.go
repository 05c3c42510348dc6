package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func matcherConfig(stages ...JobStageConfig) JobConfig {
	return JobConfig{AppName: "app1", JobName: "job1", Enabled: true, Stages: stages}
}

func TestMatchStagesBothDeadlinesPassed(t *testing.T) {
	cfg := matcherConfig(JobStageConfig{
		Name:     "ingest",
		Start:    startOffset(time.Minute),
		Complete: startOffset(10 * time.Minute),
	})
	jobStart := time.Date(2024, 3, 15, 5, 0, 0, 0, time.UTC)
	now := jobStart.Add(15 * time.Minute)

	updates := MatchStages(cfg, JobRun{Status: StatusInProgress}, now, jobStart)

	require.Len(t, updates, 1)
	require.NotNil(t, updates[0].StartStatus)
	require.NotNil(t, updates[0].CompleteStatus)
	assert.Equal(t, StageMissed, *updates[0].StartStatus)
	assert.Equal(t, StageMissed, *updates[0].CompleteStatus)
	assert.Equal(t, now, *updates[0].StartDateTime)
}

func TestMatchStagesBeforeDeadlineEmitsNothing(t *testing.T) {
	cfg := matcherConfig(JobStageConfig{Name: "ingest", Start: startOffset(time.Minute)})
	jobStart := time.Date(2024, 3, 15, 5, 0, 0, 0, time.UTC)

	updates := MatchStages(cfg, JobRun{}, jobStart.Add(30*time.Second), jobStart)
	assert.Empty(t, updates)

	// The deadline itself is not a miss; only strictly after counts.
	updates = MatchStages(cfg, JobRun{}, jobStart.Add(time.Minute), jobStart)
	assert.Empty(t, updates)
}

// Occurred statuses are never rewritten, however far past the deadline the
// matcher runs.
func TestMatchStagesNeverOverwritesOccurred(t *testing.T) {
	cfg := matcherConfig(JobStageConfig{
		Name:     "ingest",
		Start:    startOffset(time.Minute),
		Complete: startOffset(10 * time.Minute),
	})
	jobStart := time.Date(2024, 3, 15, 5, 0, 0, 0, time.UTC)
	occurred := StageOccurred
	startedAt := jobStart.Add(30 * time.Second)
	run := JobRun{
		Status: StatusInProgress,
		Stages: []JobRunStage{
			{Name: "ingest", StartStatus: &occurred, StartDateTime: &startedAt},
		},
	}

	updates := MatchStages(cfg, run, jobStart.Add(24*time.Hour), jobStart)

	require.Len(t, updates, 1)
	assert.Equal(t, StageOccurred, *updates[0].StartStatus)
	assert.Equal(t, startedAt, *updates[0].StartDateTime)
	assert.Equal(t, StageMissed, *updates[0].CompleteStatus)
}

// Running the matcher a second time against a run updated with its own
// first output produces nothing new.
func TestMatchStagesIdempotent(t *testing.T) {
	cfg := matcherConfig(
		JobStageConfig{Name: "ingest", Start: startOffset(time.Minute), Complete: startOffset(10 * time.Minute)},
		JobStageConfig{Name: "publish", Complete: startOffset(20 * time.Minute)},
	)
	jobStart := time.Date(2024, 3, 15, 5, 0, 0, 0, time.UTC)
	now := jobStart.Add(time.Hour)

	run := JobRun{Status: StatusInProgress}
	first := MatchStages(cfg, run, now, jobStart)
	require.Len(t, first, 2)

	run.Stages = MergeStages(run.Stages, first)
	second := MatchStages(cfg, run, now, jobStart)
	assert.Empty(t, second)
}

// Stages are processed in order of their earliest deadline, not config
// order.
func TestMatchStagesOrderedByEarliestDeadline(t *testing.T) {
	cfg := matcherConfig(
		JobStageConfig{Name: "late", Start: startOffset(30 * time.Minute)},
		JobStageConfig{Name: "early", Complete: startOffset(5 * time.Minute)},
		JobStageConfig{Name: "middle", Start: startOffset(10 * time.Minute), Complete: startOffset(time.Minute)},
	)
	jobStart := time.Date(2024, 3, 15, 5, 0, 0, 0, time.UTC)
	now := jobStart.Add(time.Hour)

	updates := MatchStages(cfg, JobRun{}, now, jobStart)

	require.Len(t, updates, 3)
	assert.Equal(t, "middle", updates[0].Name) // min(10m, 1m) = 1m
	assert.Equal(t, "early", updates[1].Name)
	assert.Equal(t, "late", updates[2].Name)
}

// Duplicate stage entries on a run resolve to the first occurrence; later
// entries with the same name are not consulted.
func TestMatchStagesFirstOccurrenceWins(t *testing.T) {
	cfg := matcherConfig(JobStageConfig{Name: "ingest", Start: startOffset(time.Minute)})
	jobStart := time.Date(2024, 3, 15, 5, 0, 0, 0, time.UTC)
	occurred := StageOccurred
	missed := StageMissed
	ts := jobStart.Add(30 * time.Second)
	run := JobRun{
		Stages: []JobRunStage{
			{Name: "ingest", StartStatus: &occurred, StartDateTime: &ts},
			{Name: "ingest", StartStatus: &missed, StartDateTime: &ts},
		},
	}

	updates := MatchStages(cfg, run, jobStart.Add(time.Hour), jobStart)
	assert.Empty(t, updates, "first occurrence is Occurred, nothing to update")
}

// Scenario: start reported on time, complete never arrives. Only the
// complete side is emitted as missed.
func TestMatchStagesLateCompleteOnly(t *testing.T) {
	cfg := matcherConfig(JobStageConfig{
		Name:     "ingest",
		Start:    startOffset(time.Minute),
		Complete: startOffset(10 * time.Minute),
	})
	jobStart := time.Date(2024, 3, 15, 5, 0, 0, 0, time.UTC)
	occurred := StageOccurred
	startedAt := jobStart.Add(30 * time.Second)
	run := JobRun{
		Status: StatusInProgress,
		Stages: []JobRunStage{{Name: "ingest", StartStatus: &occurred, StartDateTime: &startedAt}},
	}

	updates := MatchStages(cfg, run, jobStart.Add(15*time.Minute), jobStart)

	require.Len(t, updates, 1)
	assert.Equal(t, StageOccurred, *updates[0].StartStatus)
	assert.Equal(t, StageMissed, *updates[0].CompleteStatus)
}

func TestMergeStagesLastWriteWinsByName(t *testing.T) {
	occurred := StageOccurred
	missed := StageMissed
	ts := time.Date(2024, 3, 15, 5, 0, 0, 0, time.UTC)

	base := []JobRunStage{
		{Name: "ingest", StartStatus: &occurred, StartDateTime: &ts},
		{Name: "publish"},
	}
	updates := []JobRunStage{
		{Name: "ingest", StartStatus: &occurred, StartDateTime: &ts, CompleteStatus: &missed, CompleteDateTime: &ts},
		{Name: "report", StartStatus: &missed, StartDateTime: &ts},
	}

	merged := MergeStages(base, updates)

	require.Len(t, merged, 3)
	assert.Equal(t, "ingest", merged[0].Name)
	require.NotNil(t, merged[0].CompleteStatus, "updated entry supersedes the base entry")
	assert.Equal(t, "publish", merged[1].Name)
	assert.Equal(t, "report", merged[2].Name)
}

func TestMergeStagesEmptyUpdatesReturnsBase(t *testing.T) {
	base := []JobRunStage{{Name: "ingest"}}
	assert.Equal(t, base, MergeStages(base, nil))
}
