// Package web is the REST façade over the timeout-detection engine: a
// JSend-enveloped API backed directly by the store interfaces and the
// ingestor, built on stdlib http.ServeMux with a small middleware chain.
package web

import (
	"net/http"
	"time"

	"github.com/netresearch/watchdogd/config"
	"github.com/netresearch/watchdogd/core"
	"github.com/netresearch/watchdogd/logging"
	"github.com/netresearch/watchdogd/notify"
	"github.com/netresearch/watchdogd/store"
)

// Server is the REST façade's HTTP server and its dependencies.
type Server struct {
	configs   store.ConfigStore
	runs      store.RunStore
	channels  store.ChannelStore
	settings  store.SettingsStore
	registry  *notify.Registry
	ingestor  *core.Ingestor
	validator *config.DTOValidator
	logger    core.Logger

	srv *http.Server
}

// Deps bundles the Server's dependencies for NewServer.
type Deps struct {
	Configs   store.ConfigStore
	Runs      store.RunStore
	Channels  store.ChannelStore
	Settings  store.SettingsStore
	Registry  *notify.Registry
	Ingestor  *core.Ingestor
	Logger    core.Logger
	AccessLog *logging.StructuredLogger
}

// NewServer builds a Server listening on addr, with the security-header,
// rate-limiter and access-log middleware applied to every route.
func NewServer(addr string, deps Deps) *Server {
	s := &Server{
		configs:   deps.Configs,
		runs:      deps.Runs,
		channels:  deps.Channels,
		settings:  deps.Settings,
		registry:  deps.Registry,
		ingestor:  deps.Ingestor,
		validator: config.NewDTOValidator(),
		logger:    deps.Logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.healthHandler)

	mux.HandleFunc("GET /api/applications", s.listApplicationsHandler)

	mux.HandleFunc("GET /api/channels", s.listChannelsHandler)
	mux.HandleFunc("POST /api/channels", s.createChannelHandler)
	mux.HandleFunc("GET /api/channels/providers", s.listProvidersHandler)
	mux.HandleFunc("GET /api/channels/{name}", s.getChannelHandler)
	mux.HandleFunc("PUT /api/channels/{name}", s.updateChannelHandler)

	mux.HandleFunc("GET /api/job-configs", s.listJobConfigsHandler)
	mux.HandleFunc("POST /api/job-configs", s.createJobConfigHandler)
	mux.HandleFunc("GET /api/job-configs/{app}", s.listJobConfigsByAppHandler)
	mux.HandleFunc("GET /api/job-configs/{app}/{job}", s.getJobConfigHandler)
	mux.HandleFunc("PUT /api/job-configs/{app}/{job}", s.updateJobConfigHandler)

	mux.HandleFunc("POST /api/applications/{app}/jobs/{job}/trigger", s.triggerJobHandler)
	mux.HandleFunc("POST /api/applications/{app}/jobs/{job}/stage-update", s.stageUpdateByContextHandler)
	mux.HandleFunc("POST /api/job-runs/{run_id}/stage-update", s.stageUpdateByRunHandler)
	mux.HandleFunc("GET /api/job-runs/{run_id}", s.getJobRunHandler)

	mux.HandleFunc("GET /api/settings", s.getSettingsHandler)
	mux.HandleFunc("PUT /api/settings", s.updateSettingsHandler)

	rl := newRateLimiter(100, time.Minute)
	var handler http.Handler = mux
	handler = securityHeaders(handler)
	handler = rl.middleware(handler)
	if deps.AccessLog != nil {
		handler = accessLog(deps.AccessLog, handler)
	}

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Start launches the HTTP server in the background.
func (s *Server) Start() error {
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Errorf("web: server stopped: %v", err)
		}
	}()
	return nil
}

// HTTPServer returns the underlying http.Server, for core.NewGracefulServer.
func (s *Server) HTTPServer() *http.Server { return s.srv }

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
