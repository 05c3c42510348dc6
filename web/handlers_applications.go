package web

import (
	"net/http"

	"github.com/netresearch/watchdogd/core"
)

func (s *Server) listApplicationsHandler(w http.ResponseWriter, r *http.Request) {
	apps, err := s.configs.GetAllApplications(r.Context())
	if err != nil {
		writeError(w, core.WrapDatabase("list applications", err))
		return
	}
	if apps == nil {
		apps = []string{}
	}
	writeSuccess(w, apps)
}
