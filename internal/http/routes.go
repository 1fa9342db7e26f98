package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/coastal-change-dashboard/internal/observability"
)

// RouterOptions configure the middleware chain.
type RouterOptions struct {
	Logger         *zap.Logger
	Limiter        *rate.Limiter // nil disables rate limiting
	RequestTimeout time.Duration // 0 disables the per-request deadline
}

// NewRouter wires every route. /health and /metrics bypass the rate limit
// and the request timeout.
func NewRouter(h *Handler, opts RouterOptions) *mux.Router {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)
	router.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)

	app := router.NewRoute().Subrouter()
	app.Use(RateLimitMiddleware(opts.Limiter))
	if opts.RequestTimeout > 0 {
		app.Use(TimeoutMiddleware(opts.RequestTimeout))
	}

	app.HandleFunc("/", h.GetDashboard).Methods(http.MethodGet)
	app.HandleFunc("/", h.PostDashboard).Methods(http.MethodPost)
	app.HandleFunc("/about", h.GetAbout).Methods(http.MethodGet)
	app.HandleFunc("/settings", h.GetSettings).Methods(http.MethodGet)

	api := app.PathPrefix("/api").Subrouter()
	api.HandleFunc("/dashboard", h.GetDashboardJSON).Methods(http.MethodGet)
	api.HandleFunc("/predict", h.PostPredict).Methods(http.MethodPost)
	api.HandleFunc("/shoreline", h.GetShoreline).Methods(http.MethodGet)

	api.HandleFunc("/maps", h.PostMap).Methods(http.MethodPost)
	api.HandleFunc("/maps/{id}", h.GetMap).Methods(http.MethodGet)
	api.HandleFunc("/maps/{id}", h.DeleteMap).Methods(http.MethodDelete)
	api.HandleFunc("/maps/{id}/layers/{index}/geojson", h.GetLayerGeoJSON).Methods(http.MethodGet)
	api.HandleFunc("/maps/{id}/layers/{index}", h.PutLayer).Methods(http.MethodPut)
	api.HandleFunc("/maps/{id}/visualization", h.PutVisualization).Methods(http.MethodPut)
	api.HandleFunc("/maps/{id}/overlay", h.PutOverlay).Methods(http.MethodPut)
	api.HandleFunc("/maps/{id}/click", h.PostClick).Methods(http.MethodPost)
	api.HandleFunc("/maps/{id}/debug", h.GetDebug).Methods(http.MethodGet)

	api.HandleFunc("/usgs", h.GetUsgsSummary).Methods(http.MethodGet)
	api.HandleFunc("/usgs/location/{location}", h.GetUsgsByLocation).Methods(http.MethodGet)
	api.HandleFunc("/usgs/high-erosion", h.GetUsgsHighErosion).Methods(http.MethodGet)
	api.HandleFunc("/usgs/years", h.GetUsgsByYearRange).Methods(http.MethodGet)
	api.HandleFunc("/usgs/locations", h.GetUsgsLocations).Methods(http.MethodGet)

	api.HandleFunc("/usgs-datasets", h.GetDatasets).Methods(http.MethodGet)
	api.HandleFunc("/usgs-datasets/count", h.GetDatasetCount).Methods(http.MethodGet)
	api.HandleFunc("/usgs-datasets/regions", h.GetDatasetRegions).Methods(http.MethodGet)
	api.HandleFunc("/usgs-datasets/region/{region}", h.GetDatasetsByRegion).Methods(http.MethodGet)
	api.HandleFunc("/usgs-datasets/date-range", h.GetDatasetsByDateRange).Methods(http.MethodGet)
	api.HandleFunc("/usgs-datasets/high-erosion", h.GetDatasetsHighErosion).Methods(http.MethodGet)
	api.HandleFunc("/usgs-datasets/nearby", h.GetDatasetsNearby).Methods(http.MethodGet)

	return router
}
