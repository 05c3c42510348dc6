package web

import (
	"net/http"

	"github.com/netresearch/watchdogd/core"
)

func (s *Server) getSettingsHandler(w http.ResponseWriter, r *http.Request) {
	settings, err := s.settings.Get(r.Context())
	if err != nil {
		writeError(w, core.WrapDatabase("get settings", err))
		return
	}
	writeSuccess(w, settingsToDTO(settings))
}

func (s *Server) updateSettingsHandler(w http.ResponseWriter, r *http.Request) {
	var dto settingsDTO
	if err := decodeJSON(r, &dto); err != nil {
		writeError(w, err)
		return
	}
	if err := s.validator.Validate(dto); err != nil {
		writeFail(w, err)
		return
	}

	saved, err := s.settings.Save(r.Context(), settingsFromDTO(dto))
	if err != nil {
		writeError(w, core.WrapDatabase("save settings", err))
		return
	}
	writeSuccess(w, settingsToDTO(saved))
}
