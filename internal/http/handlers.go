package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/coastal-change-dashboard/internal/client"
	"github.com/kjstillabower/coastal-change-dashboard/internal/feed"
	"github.com/kjstillabower/coastal-change-dashboard/internal/lifecycle"
	"github.com/kjstillabower/coastal-change-dashboard/internal/mapview"
	"github.com/kjstillabower/coastal-change-dashboard/internal/observability"
	"github.com/kjstillabower/coastal-change-dashboard/internal/service"
	"github.com/kjstillabower/coastal-change-dashboard/internal/validation"
	"github.com/kjstillabower/coastal-change-dashboard/internal/view"
)

// HealthConfig holds lifecycle thresholds for the health handler.
type HealthConfig struct {
	lifecycle.HealthConfig
	// CachePing, when set, is called to check cache reachability. Used when backend is memcached.
	CachePing func() error
}

// Options are the handler's collaborators. Health may be nil.
type Options struct {
	Dashboard       *service.DashboardService
	API             client.CoastalAPI
	Shoreline       feed.Fetcher
	Maps            *mapview.Registry
	Renderer        *view.Renderer
	Validator       *validation.Validator
	Health          *HealthConfig
	DefaultProvider mapview.Backend
	DevMode         bool
	Logger          *zap.Logger
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	dashboard       *service.DashboardService
	api             client.CoastalAPI
	shoreline       feed.Fetcher
	maps            *mapview.Registry
	renderer        *view.Renderer
	validator       *validation.Validator
	healthConfig    *HealthConfig
	defaultProvider mapview.Backend
	devMode         bool
	logger          *zap.Logger

	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler.
func NewHandler(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	provider := opts.DefaultProvider
	if provider == "" {
		provider = mapview.BackendOpenLayers
	}
	v := opts.Validator
	if v == nil {
		v = validation.New(nil)
	}
	return &Handler{
		dashboard:       opts.Dashboard,
		api:             opts.API,
		shoreline:       opts.Shoreline,
		maps:            opts.Maps,
		renderer:        opts.Renderer,
		validator:       v,
		healthConfig:    opts.Health,
		defaultProvider: provider,
		devMode:         opts.DevMode,
		logger:          logger,
	}
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	var cfg lifecycle.HealthConfig
	if h.healthConfig != nil {
		cfg = h.healthConfig.HealthConfig
	}
	result := lifecycle.Evaluate(cfg)

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.Status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.Status),
			zap.String("reason", result.Reason))
	}
	h.healthStatusPrev = result.Status
	h.healthStatusMu.Unlock()

	checks := map[string]string{"coastalApi": "healthy"}
	if result.Status == lifecycle.StatusDegraded {
		checks["coastalApi"] = "unhealthy"
	}
	if h.healthConfig != nil && h.healthConfig.CachePing != nil {
		if err := h.healthConfig.CachePing(); err != nil {
			observability.CacheErrorsTotal.WithLabelValues("ping").Inc()
			checks["cache"] = "unhealthy"
		} else {
			checks["cache"] = "healthy"
		}
	}
	writeJSON(w, result.StatusCode, map[string]interface{}{
		"status":    result.Status,
		"service":   "coastal-change-dashboard",
		"version":   "dev",
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody is the standard error envelope.
type errorBody struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	RequestID string            `json:"requestId"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// writeError writes an error response in the standard error format with code, message,
// and requestId (correlation ID) if available in request context.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeErrorFields(w, r, status, code, message, nil)
}

func writeErrorFields(w http.ResponseWriter, r *http.Request, status int, code, message string, fields map[string]string) {
	writeJSON(w, status, map[string]errorBody{
		"error": {
			Code:      code,
			Message:   message,
			RequestID: observability.CorrelationID(r.Context()),
			Fields:    fields,
		},
	})
}

// writeServiceError maps a coastal backend failure to a response. 404s pass
// through; everything else is 503.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	observability.LoggerFromContext(r.Context(), nil).Debug("upstream error",
		zap.Error(err),
		zap.String("category", string(client.CategorizeError(err))),
	)
	if errors.Is(err, client.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "No coastal data found")
		return
	}
	writeError(w, r, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", "Unable to fetch coastal data")
}

// decodeJSON reads a small JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	return dec.Decode(dst)
}
