package core

// FoldStatus derives run's roll-up status from cfg's stage requirements.
// It never regresses a run out of a terminal state: a run already Complete
// or Failed is returned unchanged.
func FoldStatus(cfg JobConfig, run JobRun) JobRunStatus {
	if run.Status != StatusInProgress {
		return run.Status
	}

	byName := make(map[string]JobRunStage, len(run.Stages))
	for _, s := range run.Stages {
		if _, exists := byName[s.Name]; !exists {
			byName[s.Name] = s
		}
	}

	anyMissing := false
	for _, sc := range cfg.Stages {
		rs, ok := byName[sc.Name]
		if !ok {
			anyMissing = true
			continue
		}
		if sc.Start != nil && rs.StartStatus != nil && *rs.StartStatus != StageOccurred {
			return StatusFailed
		}
		if sc.Complete != nil && rs.CompleteStatus != nil && *rs.CompleteStatus != StageOccurred {
			return StatusFailed
		}
	}

	if anyMissing {
		return StatusInProgress
	}
	return StatusComplete
}
