package http

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kjstillabower/coastal-change-dashboard/internal/observability"
)

// Drain counts requests being served so shutdown can wait for them.
type Drain struct {
	active atomic.Int64
	gauge  prometheus.Gauge
	clock  clockwork.Clock
}

// NewDrain returns a Drain mirroring its count into gauge. Both arguments may be nil.
func NewDrain(gauge prometheus.Gauge, clock clockwork.Clock) *Drain {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Drain{gauge: gauge, clock: clock}
}

// Begin marks a request as started. The returned func marks it done and must
// be called exactly once.
func (d *Drain) Begin() (done func()) {
	d.active.Add(1)
	if d.gauge != nil {
		d.gauge.Inc()
	}
	var once atomic.Bool
	return func() {
		if !once.CompareAndSwap(false, true) {
			return
		}
		d.active.Add(-1)
		if d.gauge != nil {
			d.gauge.Dec()
		}
	}
}

// Active returns the number of requests still being served.
func (d *Drain) Active() int64 {
	return d.active.Load()
}

// Wait polls every interval until no requests are active or ctx is done.
func (d *Drain) Wait(ctx context.Context, interval time.Duration) error {
	ticker := d.clock.NewTicker(interval)
	defer ticker.Stop()
	for d.Active() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
		}
	}
	return nil
}

// requests is the process-wide Drain fed by MetricsMiddleware.
var requests = NewDrain(observability.HTTPRequestsInFlight, nil)

// InFlightCount returns the number of requests being served.
func InFlightCount() int64 {
	return requests.Active()
}

// WaitForInFlight blocks until every request has finished or ctx is done.
func WaitForInFlight(ctx context.Context, interval time.Duration) error {
	return requests.Wait(ctx, interval)
}
