package core

import (
	"sort"
	"time"
)

// MatchStages compares cfg's stage deadlines against run's recorded stage
// state as of zonedNow (converted from jobStart's zone) and returns the set
// of JobRunStage updates needed to record newly missed deadlines. It never
// mutates run; callers merge the result themselves.
//
// The matcher is pure and idempotent: calling it twice against a run already
// updated with its own output yields an empty second result, and it never
// rewrites a stage once its status is Occurred.
func MatchStages(cfg JobConfig, run JobRun, zonedNow, jobStart time.Time) []JobRunStage {
	byName := make(map[string]JobRunStage, len(run.Stages))
	for _, s := range run.Stages {
		if _, exists := byName[s.Name]; !exists {
			byName[s.Name] = s
		}
	}

	stages := make([]JobStageConfig, len(cfg.Stages))
	copy(stages, cfg.Stages)
	sort.SliceStable(stages, func(i, j int) bool {
		return earliestDeadline(stages[i]) < earliestDeadline(stages[j])
	})

	nowUTC := zonedNow.UTC()
	var updated []JobRunStage

	for _, sc := range stages {
		existing, hasExisting := byName[sc.Name]
		rs := existing
		if !hasExisting {
			rs = JobRunStage{Name: sc.Name}
		}
		changed := false

		if sc.Start != nil && rs.StartStatus == nil {
			deadline := jobStart.Add(*sc.Start)
			if zonedNow.After(deadline) {
				missed := StageMissed
				rs.StartStatus = &missed
				rs.StartDateTime = &nowUTC
				changed = true
			}
		}

		if sc.Complete != nil && rs.CompleteStatus == nil {
			deadline := jobStart.Add(*sc.Complete)
			if zonedNow.After(deadline) {
				missed := StageMissed
				rs.CompleteStatus = &missed
				rs.CompleteDateTime = &nowUTC
				changed = true
			}
		}

		if changed {
			updated = append(updated, rs)
		}
	}

	return updated
}

func earliestDeadline(s JobStageConfig) time.Duration {
	switch {
	case s.Start != nil && s.Complete != nil:
		if *s.Start < *s.Complete {
			return *s.Start
		}
		return *s.Complete
	case s.Start != nil:
		return *s.Start
	case s.Complete != nil:
		return *s.Complete
	default:
		return maxUnboundedDuration
	}
}

// MergeStages applies updates onto base by stage name, last-write-wins,
// preserving the order of base with new names appended at the end.
func MergeStages(base []JobRunStage, updates []JobRunStage) []JobRunStage {
	if len(updates) == 0 {
		return base
	}

	index := make(map[string]int, len(base))
	merged := make([]JobRunStage, len(base))
	copy(merged, base)
	for i, s := range merged {
		index[s.Name] = i
	}

	for _, u := range updates {
		if i, ok := index[u.Name]; ok {
			merged[i] = u
		} else {
			index[u.Name] = len(merged)
			merged = append(merged, u)
		}
	}

	return merged
}
