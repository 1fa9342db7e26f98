// Package feed adapts the public USGS shoreline CSV into shoreline points. A
// fetch never fails: direct URL, then proxy, then a fixed sample.
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/coastal-change-dashboard/internal/cache"
	"github.com/kjstillabower/coastal-change-dashboard/internal/circuitbreaker"
	"github.com/kjstillabower/coastal-change-dashboard/internal/models"
	"github.com/kjstillabower/coastal-change-dashboard/internal/observability"
)

// Sources reported in shorelineFeedFetchTotal.
const (
	SourceDirect   = "direct"
	SourceProxy    = "proxy"
	SourceFallback = "fallback"
	SourceCache    = "cache"
)

const cacheKey = "shoreline:points"

// ErrFeedUnavailable is returned by Refresh when only the fallback sample could be served.
var ErrFeedUnavailable = errors.New("shoreline feed unavailable")

// Fetcher is what handlers need from the adapter.
type Fetcher interface {
	FetchShorelineData(ctx context.Context) []models.ShorelinePoint
}

// Options configures an Adapter. Breaker, Cache and coalescing are optional.
type Options struct {
	FeedURL  string
	ProxyURL string // prefixed to FeedURL; empty skips the proxy attempt
	Timeout  time.Duration

	HTTPClient      *http.Client
	Breaker         *circuitbreaker.CircuitBreaker
	Cache           cache.Cache[[]models.ShorelinePoint]
	CacheTTL        time.Duration // 0 disables the cache even when Cache is set
	CoalesceTimeout time.Duration // 0 disables coalescing

	Logger *zap.Logger
}

type fetchResult struct {
	points []models.ShorelinePoint
	source string
}

// Adapter fetches and parses the shoreline feed.
type Adapter struct {
	feedURL  string
	proxyURL string
	timeout  time.Duration
	client   *http.Client
	breaker  *circuitbreaker.CircuitBreaker
	cache    cache.Cache[[]models.ShorelinePoint]
	cacheTTL time.Duration
	inFlight *coalescer[fetchResult]
	logger   *zap.Logger
}

var _ Fetcher = (*Adapter)(nil)

// NewAdapter returns an Adapter configured by opts.
func NewAdapter(opts Options) *Adapter {
	a := &Adapter{
		feedURL:  opts.FeedURL,
		proxyURL: opts.ProxyURL,
		timeout:  opts.Timeout,
		client:   opts.HTTPClient,
		breaker:  opts.Breaker,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		logger:   opts.Logger,
	}
	if a.client == nil {
		a.client = &http.Client{}
	}
	if a.timeout <= 0 {
		a.timeout = 10 * time.Second
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	if opts.CoalesceTimeout > 0 {
		a.inFlight = newCoalescer[fetchResult](opts.CoalesceTimeout)
	}
	return a
}

// FetchShorelineData returns shoreline points. The returned slice belongs to the caller.
func (a *Adapter) FetchShorelineData(ctx context.Context) []models.ShorelinePoint {
	logger := observability.LoggerFromContext(ctx, a.logger)

	if points, ok := a.cached(ctx, logger); ok {
		recordFetch(SourceCache, points)
		return slices.Clone(points)
	}

	res := a.load(ctx, logger)
	if res.source != SourceFallback {
		a.store(ctx, logger, res.points)
	}
	recordFetch(res.source, res.points)
	return slices.Clone(res.points)
}

// Refresh fetches the feed upstream and replaces the cached points. The
// fallback sample is never cached; Refresh reports ErrFeedUnavailable instead.
func (a *Adapter) Refresh(ctx context.Context) error {
	res := a.fetch(ctx, a.logger)
	recordFetch(res.source, res.points)
	if res.source == SourceFallback {
		return ErrFeedUnavailable
	}
	if !a.cacheEnabled() {
		return nil
	}
	if err := a.cache.Set(ctx, cacheKey, res.points, a.cacheTTL); err != nil {
		observability.CacheErrorsTotal.WithLabelValues("set").Inc()
		return fmt.Errorf("cache shoreline points: %w", err)
	}
	return nil
}

func (a *Adapter) cacheEnabled() bool {
	return a.cache != nil && a.cacheTTL > 0
}

func (a *Adapter) cached(ctx context.Context, logger *zap.Logger) ([]models.ShorelinePoint, bool) {
	if !a.cacheEnabled() {
		return nil, false
	}
	points, ok, err := a.cache.Get(ctx, cacheKey)
	if err != nil {
		observability.CacheErrorsTotal.WithLabelValues("get").Inc()
		logger.Warn("shoreline cache get failed", zap.Error(err))
		return nil, false
	}
	if ok {
		observability.CacheHitsTotal.WithLabelValues("shoreline").Inc()
	}
	return points, ok
}

func (a *Adapter) store(ctx context.Context, logger *zap.Logger, points []models.ShorelinePoint) {
	if !a.cacheEnabled() {
		return
	}
	if err := a.cache.Set(ctx, cacheKey, points, a.cacheTTL); err != nil {
		observability.CacheErrorsTotal.WithLabelValues("set").Inc()
		logger.Warn("shoreline cache set failed", zap.Error(err))
	}
}

// load runs fetch, sharing it with concurrent callers when coalescing is on.
func (a *Adapter) load(ctx context.Context, logger *zap.Logger) fetchResult {
	if a.inFlight == nil {
		return a.fetch(ctx, logger)
	}
	res, shared, err := a.inFlight.Do(ctx, cacheKey, func(fetchCtx context.Context) (fetchResult, error) {
		return a.fetch(fetchCtx, a.logger), nil
	})
	if shared {
		observability.FeedCoalescedTotal.Inc()
	}
	if err != nil {
		logger.Warn("shoreline fetch wait aborted, serving fallback sample", zap.Error(err))
		return fetchResult{points: FallbackPoints(), source: SourceFallback}
	}
	return res
}

func (a *Adapter) fetch(ctx context.Context, logger *zap.Logger) fetchResult {
	source := SourceDirect
	text, err := a.fetchDirect(ctx)
	if err != nil && a.proxyURL != "" {
		logger.Warn("direct shoreline fetch failed, trying proxy", zap.Error(err))
		source = SourceProxy
		text, err = a.get(ctx, a.proxyURL+a.feedURL)
	}
	if err != nil {
		logger.Warn("shoreline feed unavailable, serving fallback sample", zap.Error(err))
		return fetchResult{points: FallbackPoints(), source: SourceFallback}
	}

	points, err := safeParse(text)
	if err != nil {
		logger.Warn("shoreline feed parse failed, serving fallback sample", zap.Error(err))
		return fetchResult{points: FallbackPoints(), source: SourceFallback}
	}
	logger.Debug("shoreline feed fetched", zap.String("source", source), zap.Int("points", len(points)))
	return fetchResult{points: points, source: source}
}

func (a *Adapter) fetchDirect(ctx context.Context) (string, error) {
	if a.breaker == nil {
		return a.get(ctx, a.feedURL)
	}
	var text string
	err := a.breaker.Call(ctx, func() error {
		var err error
		text, err = a.get(ctx, a.feedURL)
		return err
	})
	return text, err
}

func (a *Adapter) get(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("Accept", "text/csv, text/plain, */*")
	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("feed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("feed request: HTTP %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read feed body: %w", err)
	}
	return string(body), nil
}

// safeParse turns a parser panic into an error so a malformed feed degrades to
// the fallback sample.
func safeParse(text string) (points []models.ShorelinePoint, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse shoreline csv: %v", r)
		}
	}()
	return ParseCSV(text), nil
}

func recordFetch(source string, points []models.ShorelinePoint) {
	observability.ShorelineFeedFetchTotal.WithLabelValues(source).Inc()
	observability.ShorelineFeedPoints.Set(float64(len(points)))
}
