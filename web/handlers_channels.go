package web

import (
	"net/http"

	"github.com/netresearch/watchdogd/core"
)

// knownProviders is the closed set of supported provider types.
var knownProviders = []core.ProviderType{
	core.ProviderGchatWebhook,
	core.ProviderSlackWebhook,
	core.ProviderEmailSmtp,
}

func (s *Server) listProvidersHandler(w http.ResponseWriter, _ *http.Request) {
	out := make([]string, 0, len(knownProviders))
	for _, p := range knownProviders {
		if _, ok := s.registry.Lookup(p); ok {
			out = append(out, string(p))
		}
	}
	writeSuccess(w, out)
}

func (s *Server) listChannelsHandler(w http.ResponseWriter, r *http.Request) {
	channels, err := s.channels.GetAll(r.Context())
	if err != nil {
		writeError(w, core.WrapDatabase("list channels", err))
		return
	}

	out := make([]channelDTO, 0, len(channels))
	for _, c := range channels {
		out = append(out, channelToDTO(c))
	}
	writeSuccess(w, out)
}

func (s *Server) getChannelHandler(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	ch, err := s.channels.GetByID(r.Context(), name)
	if err != nil {
		writeError(w, core.WrapDatabase("get channel", err))
		return
	}
	if ch == nil {
		writeError(w, core.NewNotFound("channel %q not found", name))
		return
	}
	writeSuccess(w, channelToDTO(*ch))
}

func (s *Server) createChannelHandler(w http.ResponseWriter, r *http.Request) {
	var dto channelDTO
	if err := decodeJSON(r, &dto); err != nil {
		writeError(w, err)
		return
	}
	if err := s.validator.Validate(dto); err != nil {
		writeFail(w, err)
		return
	}

	ch := channelFromDTO(dto)
	if err := s.registry.Validate(ch.ProviderType, ch.Configuration); err != nil {
		writeError(w, err)
		return
	}

	created, err := s.channels.Insert(r.Context(), ch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCreated(w, channelToDTO(created))
}

func (s *Server) updateChannelHandler(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var dto channelDTO
	if err := decodeJSON(r, &dto); err != nil {
		writeError(w, err)
		return
	}
	dto.Name = name
	if err := s.validator.Validate(dto); err != nil {
		writeFail(w, err)
		return
	}

	ch := channelFromDTO(dto)
	if err := s.registry.Validate(ch.ProviderType, ch.Configuration); err != nil {
		writeError(w, err)
		return
	}

	updated, err := s.channels.Save(r.Context(), ch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, channelToDTO(updated))
}
