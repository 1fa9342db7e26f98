// Package lifecycle holds process-wide drain state and the health decision
// served at /health.
package lifecycle

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/kjstillabower/coastal-change-dashboard/internal/traffic"
)

var shuttingDown atomic.Bool

// SetShuttingDown sets the drain flag. Call when SIGTERM/SIGINT is received.
func SetShuttingDown(v bool) {
	shuttingDown.Store(v)
}

// IsShuttingDown reports whether the process is draining.
func IsShuttingDown() bool {
	return shuttingDown.Load()
}

// Health status values, in decision priority order.
const (
	StatusShuttingDown = "shutting-down"
	StatusOverloaded   = "overloaded"
	StatusDegraded     = "degraded"
	StatusHealthy      = "healthy"
)

// HealthConfig holds thresholds for the health decision.
type HealthConfig struct {
	OverloadWindow       time.Duration
	OverloadThresholdPct int
	RateLimitRPS         int // 0 disables the overload check
	DegradedWindow       time.Duration
	DegradedErrorPct     int // 0 disables the degraded check
}

// Health is a computed health decision.
type Health struct {
	Status     string
	StatusCode int
	Reason     string
}

// Evaluate decides health in priority order:
// shutting-down > overloaded > degraded > healthy.
func Evaluate(cfg HealthConfig) Health {
	if IsShuttingDown() {
		return Health{StatusShuttingDown, http.StatusServiceUnavailable, "signal"}
	}
	if cfg.RateLimitRPS > 0 && cfg.OverloadWindow > 0 && cfg.OverloadThresholdPct > 0 {
		capacity := float64(cfg.RateLimitRPS) * cfg.OverloadWindow.Seconds()
		if float64(traffic.DenialCount(cfg.OverloadWindow)) > capacity*float64(cfg.OverloadThresholdPct)/100 {
			return Health{StatusOverloaded, http.StatusServiceUnavailable, "rate_limit_denials"}
		}
	}
	if cfg.DegradedWindow > 0 && cfg.DegradedErrorPct > 0 {
		errs, total := traffic.ErrorRate(cfg.DegradedWindow)
		if total > 0 && errs*100 >= cfg.DegradedErrorPct*total {
			return Health{StatusDegraded, http.StatusServiceUnavailable, "backend_error_rate"}
		}
	}
	return Health{StatusHealthy, http.StatusOK, ""}
}
