package web

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/netresearch/watchdogd/core"
)

func (s *Server) getJobRunHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("run_id"))
	if err != nil {
		writeError(w, core.NewBadRequest("invalid run_id: %v", err))
		return
	}

	run, err := s.runs.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, core.WrapDatabase("get job run", err))
		return
	}
	if run == nil {
		writeError(w, core.NewNotFound("run %s not found", id))
		return
	}
	writeSuccess(w, jobRunToDTO(*run))
}

func (s *Server) triggerJobHandler(w http.ResponseWriter, r *http.Request) {
	app, job := r.PathValue("app"), r.PathValue("job")

	cfg, err := s.configs.GetByAppAndJob(r.Context(), app, job)
	if err != nil {
		writeError(w, core.WrapDatabase("get job config", err))
		return
	}
	if cfg == nil {
		writeError(w, core.NewNotFound("job config %s/%s not found", app, job))
		return
	}

	run, err := s.runs.Insert(r.Context(), core.JobRun{
		ID:          uuid.New(),
		AppName:     app,
		JobName:     job,
		TriggeredAt: core.NowUTC(),
		Status:      core.StatusInProgress,
	})
	if err != nil {
		writeError(w, core.WrapDatabase("create run", err))
		return
	}
	writeCreated(w, jobRunToDTO(run))
}

func (s *Server) stageUpdateByContextHandler(w http.ResponseWriter, r *http.Request) {
	app, job := r.PathValue("app"), r.PathValue("job")
	s.applyStageUpdate(w, r, core.Target{App: app, Job: job})
}

func (s *Server) stageUpdateByRunHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("run_id"))
	if err != nil {
		writeError(w, core.NewBadRequest("invalid run_id: %v", err))
		return
	}
	s.applyStageUpdate(w, r, core.Target{RunID: &id})
}

func (s *Server) applyStageUpdate(w http.ResponseWriter, r *http.Request, target core.Target) {
	var dto stageUpdateDTO
	if err := decodeJSON(r, &dto); err != nil {
		writeError(w, err)
		return
	}
	if err := s.validator.Validate(dto); err != nil {
		writeFail(w, err)
		return
	}

	run, err := s.ingestor.ApplyEvent(r.Context(), target, dto.StageName, dto.kind(), dto.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, jobRunToDTO(*run))
}
