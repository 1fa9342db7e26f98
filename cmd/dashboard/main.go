package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/coastal-change-dashboard/internal/cache"
	"github.com/kjstillabower/coastal-change-dashboard/internal/circuitbreaker"
	"github.com/kjstillabower/coastal-change-dashboard/internal/client"
	"github.com/kjstillabower/coastal-change-dashboard/internal/config"
	"github.com/kjstillabower/coastal-change-dashboard/internal/feed"
	httphandler "github.com/kjstillabower/coastal-change-dashboard/internal/http"
	"github.com/kjstillabower/coastal-change-dashboard/internal/lifecycle"
	"github.com/kjstillabower/coastal-change-dashboard/internal/mapview"
	"github.com/kjstillabower/coastal-change-dashboard/internal/models"
	"github.com/kjstillabower/coastal-change-dashboard/internal/observability"
	"github.com/kjstillabower/coastal-change-dashboard/internal/service"
	"github.com/kjstillabower/coastal-change-dashboard/internal/validation"
	"github.com/kjstillabower/coastal-change-dashboard/internal/view"
)

const feedComponent = "shoreline_feed"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg.DevMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	coastalClient, err := client.New(cfg.BackendAPIURL, cfg.BackendAPITimeout)
	if err != nil {
		logger.Fatal("coastal client", zap.Error(err))
	}

	var breaker *circuitbreaker.CircuitBreaker
	if cfg.FeedBreakerEnabled {
		breaker = circuitbreaker.New(circuitbreaker.Config{
			FailureThreshold: cfg.FeedBreakerFailureThreshold,
			SuccessThreshold: cfg.FeedBreakerSuccessThreshold,
			Timeout:          cfg.FeedBreakerTimeout,
			Component:        feedComponent,
			OnStateChange: func(component string, from, to circuitbreaker.State) {
				logger.Info("circuit breaker state change",
					zap.String("component", component),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
				observability.CircuitBreakerState.WithLabelValues(component).Set(float64(to))
			},
		})
		observability.CircuitBreakerState.WithLabelValues(feedComponent).Set(0)
		logger.Info("circuit breaker enabled",
			zap.Int("failure_threshold", cfg.FeedBreakerFailureThreshold),
			zap.Duration("timeout", cfg.FeedBreakerTimeout))
	}

	var feedCache cache.Cache[[]models.ShorelinePoint]
	var memcacheCloser *cache.MemcachedCache[[]models.ShorelinePoint]
	switch cfg.CacheBackend {
	case "memcached":
		mc := cache.NewMemcachedCache[[]models.ShorelinePoint](cfg.MemcachedAddrs, cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns)
		memcacheCloser = mc
		feedCache = mc
		logger.Info("cache backend: memcached", zap.String("addrs", cfg.MemcachedAddrs))
	default:
		feedCache = cache.NewInMemoryCache[[]models.ShorelinePoint](nil)
		logger.Info("cache backend: in_memory")
	}
	if cfg.FeedCacheTTL == 0 {
		logger.Info("shoreline feed cache disabled")
	}

	shoreline := feed.NewAdapter(feed.Options{
		FeedURL:         cfg.FeedURL,
		ProxyURL:        cfg.FeedProxyURL,
		Timeout:         cfg.FeedTimeout,
		Breaker:         breaker,
		Cache:           feedCache,
		CacheTTL:        cfg.FeedCacheTTL,
		CoalesceTimeout: cfg.FeedCoalesceTimeout,
		Logger:          logger,
	})

	var refresher *cache.Refresher
	if cfg.FeedCacheTTL > 0 && cfg.FeedRefreshSchedule != "" {
		refresher, err = cache.NewRefresher(cfg.FeedRefreshSchedule, shoreline.Refresh, logger)
		if err != nil {
			logger.Fatal("feed refresher", zap.Error(err))
		}
		refresher.RunOnce()
		refresher.Start()
		logger.Info("shoreline feed refresh scheduled", zap.String("schedule", cfg.FeedRefreshSchedule))
	}

	renderer, err := view.NewRenderer()
	if err != nil {
		logger.Fatal("templates", zap.Error(err))
	}

	maps := mapview.NewRegistry(mapview.Options{
		DevMode:        cfg.DevMode,
		TilesAPIKey:    cfg.MapTilesAPIKey,
		ClickTolerance: cfg.MapClickTolerance,
		MaxHandles:     cfg.MapMaxHandles,
		Logger:         logger,
	})
	defaultProvider, err := mapview.ParseBackend(cfg.MapDefaultProvider)
	if err != nil {
		logger.Fatal("map provider", zap.Error(err))
	}

	healthConfig := &httphandler.HealthConfig{
		HealthConfig: lifecycle.HealthConfig{
			OverloadWindow:       cfg.OverloadWindow,
			OverloadThresholdPct: cfg.OverloadThresholdPct,
			RateLimitRPS:         cfg.RateLimitRPS,
			DegradedWindow:       cfg.DegradedWindow,
			DegradedErrorPct:     cfg.DegradedErrorPct,
		},
	}
	if memcacheCloser != nil {
		healthConfig.CachePing = memcacheCloser.Ping
	}

	handler := httphandler.NewHandler(httphandler.Options{
		Dashboard:       service.NewDashboardService(coastalClient, logger),
		API:             coastalClient,
		Shoreline:       shoreline,
		Maps:            maps,
		Renderer:        renderer,
		Validator:       validation.New(clockwork.NewRealClock()),
		Health:          healthConfig,
		DefaultProvider: defaultProvider,
		DevMode:         cfg.DevMode,
		Logger:          logger,
	})

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	observability.RegisterRateLimitGauges(cfg.OverloadWindow)

	router := httphandler.NewRouter(handler, httphandler.RouterOptions{
		Logger:         logger,
		Limiter:        limiter,
		RequestTimeout: cfg.RequestTimeout,
	})
	if cfg.DevMode {
		logger.Warn("dev mode enabled; map debug panel exposed")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", ":"+cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	lifecycle.SetShuttingDown(true)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	logger.Info("waiting for in-flight requests", zap.Int64("count", httphandler.InFlightCount()))
	if err := httphandler.WaitForInFlight(shutdownCtx, 50*time.Millisecond); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	maps.CloseAll()
	if refresher != nil {
		refresher.Stop()
	}

	if err := observability.FlushTelemetry(context.Background(), logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}

	if memcacheCloser != nil {
		if err := memcacheCloser.Close(); err != nil {
			logger.Error("memcached close", zap.Error(err))
		}
	}
	logger.Info("shutdown complete")
}
