package web

import (
	"net/http"

	"github.com/netresearch/watchdogd/core"
)

func (s *Server) listJobConfigsHandler(w http.ResponseWriter, r *http.Request) {
	configs, err := s.configs.GetAll(r.Context())
	if err != nil {
		writeError(w, core.WrapDatabase("list job configs", err))
		return
	}
	writeSuccess(w, jobConfigsToDTOs(configs))
}

func (s *Server) listJobConfigsByAppHandler(w http.ResponseWriter, r *http.Request) {
	app := r.PathValue("app")
	configs, err := s.configs.GetByApplication(r.Context(), app)
	if err != nil {
		writeError(w, core.WrapDatabase("list job configs by application", err))
		return
	}
	writeSuccess(w, jobConfigsToDTOs(configs))
}

func (s *Server) getJobConfigHandler(w http.ResponseWriter, r *http.Request) {
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
	writeSuccess(w, jobConfigToDTO(*cfg))
}

func (s *Server) createJobConfigHandler(w http.ResponseWriter, r *http.Request) {
	var dto jobConfigDTO
	if err := decodeJSON(r, &dto); err != nil {
		writeError(w, err)
		return
	}
	if err := s.validator.Validate(dto); err != nil {
		writeFail(w, err)
		return
	}

	created, err := s.configs.Insert(r.Context(), jobConfigFromDTO(dto))
	if err != nil {
		writeError(w, err)
		return
	}
	writeCreated(w, jobConfigToDTO(created))
}

func (s *Server) updateJobConfigHandler(w http.ResponseWriter, r *http.Request) {
	app, job := r.PathValue("app"), r.PathValue("job")

	var dto jobConfigDTO
	if err := decodeJSON(r, &dto); err != nil {
		writeError(w, err)
		return
	}
	dto.AppName, dto.JobName = app, job
	if err := s.validator.Validate(dto); err != nil {
		writeFail(w, err)
		return
	}

	updated, err := s.configs.Save(r.Context(), jobConfigFromDTO(dto))
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, jobConfigToDTO(updated))
}

func jobConfigsToDTOs(configs []core.JobConfig) []jobConfigDTO {
	out := make([]jobConfigDTO, 0, len(configs))
	for _, c := range configs {
		out = append(out, jobConfigToDTO(c))
	}
	return out
}
