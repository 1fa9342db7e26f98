package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kjstillabower/coastal-change-dashboard/internal/traffic"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Route label is the mux path template, never the raw path.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight.
	HTTPRequestsInFlight prometheus.Gauge

	// Coastal backend call rate by endpoint and outcome. Watch for: error vs success ratio.
	BackendAPICallsTotal *prometheus.CounterVec

	// Coastal backend latency. Watch for: p95 approaching the client timeout.
	BackendAPIDuration *prometheus.HistogramVec

	// Shoreline feed fetches by the source that finally served the points (direct, proxy, fallback, cache).
	// A steady stream of "fallback" means the public feed and proxy are both unreachable.
	ShorelineFeedFetchTotal *prometheus.CounterVec

	// Points returned by the most recent feed fetch.
	ShorelineFeedPoints prometheus.Gauge

	// Feed fetches that joined an in-flight fetch instead of calling upstream.
	FeedCoalescedTotal prometheus.Counter

	// Cache hits. Misses show up as shorelineFeedFetchTotal with a non-cache source.
	CacheHitsTotal *prometheus.CounterVec

	// Cache backend errors by operation (get, set, ping).
	CacheErrorsTotal *prometheus.CounterVec

	// Rate limit denials.
	RateLimitDeniedTotal prometheus.Counter

	// Prediction form submissions by outcome (success, invalid, in_flight, error).
	PredictionSubmissionsTotal *prometheus.CounterVec

	// Map handles currently mounted.
	MapHandlesActive prometheus.Gauge

	// Map handles unmounted to stay under the registry cap.
	MapHandlesEvictedTotal prometheus.Counter

	// Circuit breaker state per component: 0 closed, 1 open, 2 half-open.
	CircuitBreakerState *prometheus.GaugeVec

	rateLimitGaugesOnce sync.Once
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	BackendAPICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backendApiCallsTotal",
			Help: "Total number of coastal backend API calls",
		},
		[]string{"endpoint", "status"},
	)
	BackendAPIDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backendApiDurationSeconds",
			Help:    "Coastal backend API latency in seconds (per request)",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint", "status"},
	)
	ShorelineFeedFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shorelineFeedFetchTotal",
			Help: "Shoreline feed fetches by serving source",
		},
		[]string{"source"},
	)
	ShorelineFeedPoints = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "shorelineFeedPoints",
			Help: "Number of shoreline points returned by the latest feed fetch",
		},
	)
	FeedCoalescedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "feedCoalescedTotal",
			Help: "Feed fetches served by joining an in-flight upstream fetch",
		},
	)
	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheHitsTotal",
			Help: "Total number of cache hits",
		},
		[]string{"cacheType"},
	)
	CacheErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheErrorsTotal",
			Help: "Cache backend errors by operation",
		},
		[]string{"operation"},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)
	PredictionSubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictionSubmissionsTotal",
			Help: "Prediction form submissions by outcome",
		},
		[]string{"outcome"},
	)
	MapHandlesActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mapHandlesActive",
			Help: "Number of mounted map handles",
		},
	)
	MapHandlesEvictedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mapHandlesEvictedTotal",
			Help: "Map handles evicted because the registry was full",
		},
	)
	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuitBreakerState",
			Help: "Circuit breaker state per component (0 closed, 1 open, 2 half-open)",
		},
		[]string{"component"},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		BackendAPICallsTotal, BackendAPIDuration,
		ShorelineFeedFetchTotal, ShorelineFeedPoints, FeedCoalescedTotal,
		CacheHitsTotal, CacheErrorsTotal,
		RateLimitDeniedTotal,
		PredictionSubmissionsTotal,
		MapHandlesActive,
		MapHandlesEvictedTotal,
		CircuitBreakerState,
	)
}

// RegisterRateLimitGauges registers load and rejects gauges for the rate-limited path.
// Call from main after config load with the overload window used by health checks.
func RegisterRateLimitGauges(window time.Duration) {
	rateLimitGaugesOnce.Do(func() {
		registry.MustRegister(
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "rateLimitRequestsInWindow",
					Help: "Requests hitting rate-limited path in sliding window",
				},
				func() float64 { return float64(traffic.RequestCount(window)) },
			),
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "rateLimitRejectsInWindow",
					Help: "429 responses in sliding window",
				},
				func() float64 { return float64(traffic.DenialCount(window)) },
			),
		)
	})
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
