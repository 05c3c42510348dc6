package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func foldStage(name string, start, complete *StageStatus) JobRunStage {
	ts := time.Date(2024, 3, 15, 5, 0, 0, 0, time.UTC)
	s := JobRunStage{Name: name}
	if start != nil {
		s.StartStatus = start
		s.StartDateTime = &ts
	}
	if complete != nil {
		s.CompleteStatus = complete
		s.CompleteDateTime = &ts
	}
	return s
}

func statusPtr(s StageStatus) *StageStatus { return &s }

func TestFoldStatusAllStagesOccurred(t *testing.T) {
	cfg := matcherConfig(
		JobStageConfig{Name: "ingest", Start: startOffset(time.Minute), Complete: startOffset(5 * time.Minute)},
		JobStageConfig{Name: "publish", Complete: startOffset(10 * time.Minute)},
	)
	run := JobRun{
		Status: StatusInProgress,
		Stages: []JobRunStage{
			foldStage("ingest", statusPtr(StageOccurred), statusPtr(StageOccurred)),
			foldStage("publish", nil, statusPtr(StageOccurred)),
		},
	}

	assert.Equal(t, StatusComplete, FoldStatus(cfg, run))
}

func TestFoldStatusMissingStageStaysInProgress(t *testing.T) {
	cfg := matcherConfig(
		JobStageConfig{Name: "ingest", Start: startOffset(time.Minute)},
		JobStageConfig{Name: "publish", Complete: startOffset(10 * time.Minute)},
	)
	run := JobRun{
		Status: StatusInProgress,
		Stages: []JobRunStage{foldStage("ingest", statusPtr(StageOccurred), nil)},
	}

	assert.Equal(t, StatusInProgress, FoldStatus(cfg, run))
}

func TestFoldStatusMissedStageFails(t *testing.T) {
	cfg := matcherConfig(JobStageConfig{Name: "ingest", Start: startOffset(time.Minute)})
	run := JobRun{
		Status: StatusInProgress,
		Stages: []JobRunStage{foldStage("ingest", statusPtr(StageMissed), nil)},
	}

	assert.Equal(t, StatusFailed, FoldStatus(cfg, run))
}

func TestFoldStatusFailedStageFails(t *testing.T) {
	cfg := matcherConfig(JobStageConfig{Name: "ingest", Start: startOffset(time.Minute), Complete: startOffset(5 * time.Minute)})
	run := JobRun{
		Status: StatusInProgress,
		Stages: []JobRunStage{foldStage("ingest", statusPtr(StageFailed), nil)},
	}

	assert.Equal(t, StatusFailed, FoldStatus(cfg, run))
}

// A status on a side the config does not require is ignored.
func TestFoldStatusUnrequiredSideIgnored(t *testing.T) {
	cfg := matcherConfig(JobStageConfig{Name: "ingest", Complete: startOffset(5 * time.Minute)})
	run := JobRun{
		Status: StatusInProgress,
		Stages: []JobRunStage{foldStage("ingest", statusPtr(StageFailed), statusPtr(StageOccurred))},
	}

	assert.Equal(t, StatusComplete, FoldStatus(cfg, run))
}

// Terminal statuses are sticky: a Complete or Failed run is returned
// unchanged no matter what its stages now say.
func TestFoldStatusTerminalIsMonotonic(t *testing.T) {
	cfg := matcherConfig(JobStageConfig{Name: "ingest", Start: startOffset(time.Minute)})

	failed := JobRun{
		Status: StatusFailed,
		Stages: []JobRunStage{foldStage("ingest", statusPtr(StageOccurred), nil)},
	}
	assert.Equal(t, StatusFailed, FoldStatus(cfg, failed))

	complete := JobRun{
		Status: StatusComplete,
		Stages: []JobRunStage{foldStage("ingest", statusPtr(StageMissed), nil)},
	}
	assert.Equal(t, StatusComplete, FoldStatus(cfg, complete))
}

// Re-evaluating with a superset of stage entries keeps the terminal value.
func TestFoldStatusSupersetKeepsTerminalValue(t *testing.T) {
	cfg := matcherConfig(
		JobStageConfig{Name: "ingest", Start: startOffset(time.Minute)},
		JobStageConfig{Name: "publish", Complete: startOffset(10 * time.Minute)},
	)
	run := JobRun{
		Status: StatusInProgress,
		Stages: []JobRunStage{foldStage("ingest", statusPtr(StageMissed), nil)},
	}
	first := FoldStatus(cfg, run)
	assert.Equal(t, StatusFailed, first)

	run.Status = first
	run.Stages = append(run.Stages, foldStage("publish", nil, statusPtr(StageOccurred)))
	assert.Equal(t, StatusFailed, FoldStatus(cfg, run))
}

func TestFoldStatusNoStagesConfigured(t *testing.T) {
	cfg := matcherConfig()
	run := JobRun{Status: StatusInProgress}
	assert.Equal(t, StatusComplete, FoldStatus(cfg, run))
}
