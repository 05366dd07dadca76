package api

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/tasklytics/internal/domain/dashboard"
	"github.com/okian/tasklytics/pkg/logger"
	"github.com/okian/tasklytics/pkg/metrics"
)

// PageHandler serves the rendered dashboard.
type PageHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewPageHandler creates a new page handler.
func NewPageHandler(deps Dependencies, l logger.Logger) *PageHandler {
	return &PageHandler{deps: deps, logger: l}
}

// HandlePage handles GET / requests.
func (h *PageHandler) HandlePage(w http.ResponseWriter, r *http.Request) {
	const op = "api.page"
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", NewKind(op, ErrMethodNotAllowed))
		return
	}

	var buf bytes.Buffer
	if err := h.deps.RenderPage(&buf); err != nil {
		h.logger.Error(r.Context(), "error rendering page", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "render_failed", WrapKind(op, ErrRenderPage, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodGet {
		_, _ = buf.WriteTo(w)
	}
}

// DataHandler serves the latest snapshot.
type DataHandler struct {
	deps Dependencies
}

// NewDataHandler creates a new data handler.
func NewDataHandler(deps Dependencies) *DataHandler {
	return &DataHandler{deps: deps}
}

// HandleData handles GET /api/data requests.
func (h *DataHandler) HandleData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", NewKind("api.data", ErrMethodNotAllowed))
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Snapshot())
}

type reloadResponse struct {
	LoadID     string            `json:"load_id"`
	Outcome    dashboard.Outcome `json:"outcome"`
	Message    string            `json:"message,omitempty"`
	Records    int               `json:"records"`
	DurationMs int64             `json:"duration_ms"`
}

// ReloadHandler runs a load cycle on demand.
type ReloadHandler struct {
	deps    Dependencies
	limiter *rate.Limiter
	logger  logger.Logger
}

// NewReloadHandler creates a reload handler allowing rps requests per second with burst.
func NewReloadHandler(deps Dependencies, rps float64, burst int, l logger.Logger) *ReloadHandler {
	limit := rate.Limit(rps)
	if rps == 0 {
		limit = rate.Inf
	}
	return &ReloadHandler{deps: deps, limiter: rate.NewLimiter(limit, burst), logger: l}
}

// HandleReload handles POST /reload requests.
func (h *ReloadHandler) HandleReload(w http.ResponseWriter, r *http.Request) {
	const op = "api.reload"
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", NewKind(op, ErrMethodNotAllowed))
		return
	}
	if !h.limiter.Allow() {
		metrics.RecordReloadThrottled()
		retry := time.Duration(float64(time.Second) / float64(h.limiter.Limit()))
		w.Header().Set("Retry-After", retryAfterSeconds(retry))
		writeError(w, http.StatusTooManyRequests, "throttled", NewKind(op, ErrThrottled))
		return
	}

	// The cycle repaints the page for every viewer; a caller hanging up must not cancel it.
	res := h.deps.Reload(context.WithoutCancel(r.Context()))
	body := reloadResponse{
		LoadID:     res.LoadID,
		Outcome:    res.Outcome,
		Message:    res.Message,
		Records:    res.Records,
		DurationMs: res.Duration.Milliseconds(),
	}
	if res.Outcome == dashboard.OutcomeFailed {
		h.logger.Warn(r.Context(), "manual reload failed", logger.Error(WrapKind(op, ErrReloadFailed, res.Err)))
		writeJSON(w, http.StatusBadGateway, body)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func retryAfterSeconds(d time.Duration) string {
	secs := int64((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}
