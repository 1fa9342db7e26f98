//go:build integration
// +build integration

package testhelpers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kjstillabower/coastal-change-dashboard/internal/cache"
	"github.com/kjstillabower/coastal-change-dashboard/internal/client"
	"github.com/kjstillabower/coastal-change-dashboard/internal/feed"
	"github.com/kjstillabower/coastal-change-dashboard/internal/models"
)

// IntegrationTestConfig holds configuration for integration tests.
type IntegrationTestConfig struct {
	BackendURL    string // empty starts a FakeBackend
	FeedURL       string // empty serves the feed from the FakeBackend
	CacheBackend  string // "in_memory" or "memcached"
	MemcachedAddr string
}

// GetIntegrationConfig loads integration test configuration from environment.
func GetIntegrationConfig(t *testing.T) IntegrationTestConfig {
	t.Helper()
	memcachedAddr := os.Getenv("MEMCACHED_ADDRS")
	if memcachedAddr == "" {
		memcachedAddr = "localhost:11211"
	}
	return IntegrationTestConfig{
		BackendURL:    os.Getenv("INTEGRATION_BACKEND_URL"),
		FeedURL:       os.Getenv("INTEGRATION_FEED_URL"),
		CacheBackend:  os.Getenv("INTEGRATION_CACHE_BACKEND"),
		MemcachedAddr: memcachedAddr,
	}
}

// FeedCSV is the shoreline feed served by FakeBackend.
const FeedCSV = "TransectID,Latitude,Longitude,Date,ErosionRate,ShorelineChange,Uncertainty,Location\r\n" +
	"CC-001,41.6688,-69.9276,2020-01-01,-1.2,-24.0,0.5,Cape Cod\r\n" +
	"MV-002,41.3500,-70.6500,2020-01-01,0.4,8.0,0.4,Martha's Vineyard\r\n"

// FakeBackend is an in-process coastal backend serving fixed records, a
// prediction echo and the shoreline feed.
type FakeBackend struct {
	URL     string
	FeedURL string
	Records []models.CoastalRecord

	predictCalls atomic.Int64
}

// PredictCalls returns how many predictions the backend has served.
func (b *FakeBackend) PredictCalls() int64 { return b.predictCalls.Load() }

// NewFakeBackend starts a FakeBackend that is closed with the test.
func NewFakeBackend(t *testing.T, records []models.CoastalRecord) *FakeBackend {
	t.Helper()
	b := &FakeBackend{Records: records}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/coastal-data", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, b.Records)
	})
	mux.HandleFunc("/api/predict", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req models.PredictionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		b.predictCalls.Add(1)
		writeJSON(w, models.PredictionResult{
			ID:         b.predictCalls.Load(),
			Region:     req.Region,
			Date:       req.Date,
			Likelihood: 0.5,
		})
	})
	mux.HandleFunc("/feed.csv", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(FeedCSV))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	b.URL = srv.URL
	b.FeedURL = srv.URL + "/feed.csv"
	return b
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// SetupIntegrationClient creates a coastal backend client, against a
// FakeBackend unless cfg names a real one.
func SetupIntegrationClient(t *testing.T, cfg IntegrationTestConfig, fake *FakeBackend) *client.Client {
	t.Helper()
	url := cfg.BackendURL
	if url == "" {
		url = fake.URL
	}
	c, err := client.New(url, 5*time.Second)
	if err != nil {
		t.Fatalf("client.New() error = %v", err)
	}
	return c
}

// SetupIntegrationFeed creates a shoreline adapter with a cache chosen by
// cfg. Memcached falls back to in-memory when unreachable.
func SetupIntegrationFeed(t *testing.T, cfg IntegrationTestConfig, fake *FakeBackend) *feed.Adapter {
	t.Helper()
	feedURL := cfg.FeedURL
	if feedURL == "" {
		feedURL = fake.FeedURL
	}

	var store cache.Cache[[]models.ShorelinePoint] = cache.NewInMemoryCache[[]models.ShorelinePoint](nil)
	if cfg.CacheBackend == "memcached" {
		mc := cache.NewMemcachedCache[[]models.ShorelinePoint](cfg.MemcachedAddr, 500*time.Millisecond, 2)
		if err := mc.Ping(); err == nil {
			store = mc
			t.Cleanup(func() { _ = mc.Close() })
			t.Logf("Using Memcached cache at %s", cfg.MemcachedAddr)
		} else {
			t.Logf("Memcached not available (%v), using in-memory cache", err)
		}
	}

	return feed.NewAdapter(feed.Options{
		FeedURL:         feedURL,
		Timeout:         5 * time.Second,
		Cache:           store,
		CacheTTL:        time.Minute,
		CoalesceTimeout: 5 * time.Second,
	})
}
