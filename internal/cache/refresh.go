package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Refresher re-runs a refresh func on a cron schedule so a cached value is
// replaced before it expires.
type Refresher struct {
	cron   *cron.Cron
	fn     func(ctx context.Context) error
	logger *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	running bool
}

// NewRefresher parses schedule (standard five-field spec or descriptors such as
// "@every 15m") and returns a stopped Refresher.
func NewRefresher(schedule string, fn func(ctx context.Context) error, logger *zap.Logger) (*Refresher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &Refresher{
		cron:   cron.New(),
		fn:     fn,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
	if _, err := r.cron.AddFunc(schedule, r.RunOnce); err != nil {
		cancel()
		return nil, fmt.Errorf("parse refresh schedule %q: %w", schedule, err)
	}
	return r, nil
}

// RunOnce runs the refresh func now. Overlapping runs are skipped.
func (r *Refresher) RunOnce() {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		r.logger.Debug("refresh already running, skipping")
		return
	}
	r.running = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	start := time.Now()
	if err := r.fn(r.ctx); err != nil {
		r.logger.Warn("scheduled refresh failed", zap.Error(err))
		return
	}
	r.logger.Info("scheduled refresh complete", zap.Float64("duration_seconds", time.Since(start).Seconds()))
}

// Start starts the schedule in its own goroutine.
func (r *Refresher) Start() {
	r.cron.Start()
}

// Stop stops the schedule, cancels a running refresh and waits for it to return.
func (r *Refresher) Stop() {
	r.cancel()
	<-r.cron.Stop().Done()
}
