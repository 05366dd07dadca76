// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/okian/tasklytics/internal/domain/dashboard"
	"github.com/okian/tasklytics/pkg/logger"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	// RenderPage writes the dashboard HTML document.
	RenderPage(w io.Writer) error
	// Snapshot returns what the latest load cycle left behind.
	Snapshot() dashboard.Snapshot
	// Reload runs one load cycle now.
	Reload(ctx context.Context) dashboard.Result
}

// Server wires HTTP routes for the dashboard.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	pageHandler   *PageHandler
	dataHandler   *DataHandler
	reloadHandler *ReloadHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	cfg := serverConfig{
		reloadRPS:   defaultReloadRPS,
		reloadBurst: defaultReloadBurst,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		pageHandler:   NewPageHandler(deps, cfg.logger),
		dataHandler:   NewDataHandler(deps),
		reloadHandler: NewReloadHandler(deps, cfg.reloadRPS, cfg.reloadBurst, cfg.logger),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("api: nil mux")
	}
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/data", MetricsMiddleware(s.dataHandler.HandleData, "data"))
	mux.HandleFunc("/reload", MetricsMiddleware(s.reloadHandler.HandleReload, "reload"))
	mux.HandleFunc("/", MetricsMiddleware(s.pageHandler.HandlePage, "page"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
