//go:build integration
// +build integration

package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/coastal-change-dashboard/internal/mapview"
	"github.com/kjstillabower/coastal-change-dashboard/internal/models"
	"github.com/kjstillabower/coastal-change-dashboard/internal/observability"
	"github.com/kjstillabower/coastal-change-dashboard/internal/service"
	testhelpers "github.com/kjstillabower/coastal-change-dashboard/internal/testhelpers"
	"github.com/kjstillabower/coastal-change-dashboard/internal/view"
)

var testLogger *zap.Logger

func init() {
	var err error
	testLogger, err = observability.NewLogger(false)
	if err != nil {
		panic(err)
	}
}

var integrationRecords = []models.CoastalRecord{
	{ID: 1, Region: "Cape Cod", Date: "2023-05-01", SeaLevel: 1.1, ErosionRate: 0.8, Precipitation: 40},
	{ID: 2, Region: "Outer Banks", Date: "2023-06-01", SeaLevel: 1.4, ErosionRate: 1.6, Precipitation: 75},
}

// setupIntegrationRouter wires the real client, feed adapter and services
// behind the full router.
func setupIntegrationRouter(t *testing.T, limiter *rate.Limiter) (*mux.Router, *testhelpers.FakeBackend, testhelpers.IntegrationTestConfig) {
	cfg := testhelpers.GetIntegrationConfig(t)
	fake := testhelpers.NewFakeBackend(t, integrationRecords)
	api := testhelpers.SetupIntegrationClient(t, cfg, fake)
	shoreline := testhelpers.SetupIntegrationFeed(t, cfg, fake)

	renderer, err := view.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}
	maps := mapview.NewRegistry(mapview.Options{Logger: testLogger})
	t.Cleanup(maps.CloseAll)

	handler := NewHandler(Options{
		Dashboard: service.NewDashboardService(api, testLogger),
		API:       api,
		Shoreline: shoreline,
		Maps:      maps,
		Renderer:  renderer,
		Logger:    testLogger,
	})
	router := NewRouter(handler, RouterOptions{
		Logger:         testLogger,
		Limiter:        limiter,
		RequestTimeout: 10 * time.Second,
	})
	return router, fake, cfg
}

func makeIntegrationRequest(router *mux.Router, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestIntegration_Dashboard verifies the dashboard JSON is built from the
// backend's records.
func TestIntegration_Dashboard(t *testing.T) {
	router, _, cfg := setupIntegrationRouter(t, nil)

	w := makeIntegrationRequest(router, http.MethodGet, "/api/dashboard", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d. Body: %s", w.Code, http.StatusOK, w.Body.String())
	}
	var d view.Dashboard
	if err := json.NewDecoder(w.Body).Decode(&d); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if d.LoadError != "" {
		t.Fatalf("LoadError = %q, want empty", d.LoadError)
	}
	if cfg.BackendURL == "" && len(d.Table.Rows) != len(integrationRecords) {
		t.Errorf("rows = %d, want %d", len(d.Table.Rows), len(integrationRecords))
	}

	w = makeIntegrationRequest(router, http.MethodGet, "/", "")
	if w.Code != http.StatusOK {
		t.Errorf("GET / status = %d, want %d", w.Code, http.StatusOK)
	}
}

// TestIntegration_Predict verifies one backend call per valid submission
// and none for an invalid one.
func TestIntegration_Predict(t *testing.T) {
	router, fake, cfg := setupIntegrationRouter(t, nil)
	if cfg.BackendURL != "" {
		t.Skip("prediction call counting needs the fake backend")
	}

	w := makeIntegrationRequest(router, http.MethodPost, "/api/predict",
		`{"region":"Cape Cod","date":"2023-05-01","seaLevel":1.2,"erosionRate":-0.5,"precipitation":60}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d. Body: %s", w.Code, http.StatusOK, w.Body.String())
	}
	var result models.PredictionResult
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result.Region != "Cape Cod" {
		t.Errorf("Region = %q, want Cape Cod", result.Region)
	}

	w = makeIntegrationRequest(router, http.MethodPost, "/api/predict", `{"region":"Cape Cod"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid Status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if got := fake.PredictCalls(); got != 1 {
		t.Errorf("PredictCalls() = %d, want 1", got)
	}
}

// TestIntegration_MapUsesFeed verifies a mounted map carries the parsed feed.
func TestIntegration_MapUsesFeed(t *testing.T) {
	router, _, cfg := setupIntegrationRouter(t, nil)

	w := makeIntegrationRequest(router, http.MethodPost, "/api/maps", `{"provider":"openlayers"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Status = %d, want %d. Body: %s", w.Code, http.StatusCreated, w.Body.String())
	}
	var v mapview.View
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if cfg.FeedURL == "" && v.PointCount != 2 {
		t.Errorf("PointCount = %d, want 2", v.PointCount)
	}

	w = makeIntegrationRequest(router, http.MethodPost, "/api/maps/"+v.ID+"/click", `{"lon":-69.9276,"lat":41.6688}`)
	if w.Code != http.StatusOK {
		t.Errorf("click Status = %d, want %d", w.Code, http.StatusOK)
	}
}

// TestIntegration_ConcurrentShoreline verifies parallel feed reads all
// succeed with the same points.
func TestIntegration_ConcurrentShoreline(t *testing.T) {
	router, _, _ := setupIntegrationRouter(t, nil)

	const n = 10
	var wg sync.WaitGroup
	counts := make([]int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w := makeIntegrationRequest(router, http.MethodGet, "/api/shoreline", "")
			var points []models.ShorelinePoint
			if w.Code == http.StatusOK && json.NewDecoder(w.Body).Decode(&points) == nil {
				counts[i] = len(points)
			}
		}(i)
	}
	wg.Wait()

	for i, c := range counts {
		if c == 0 || c != counts[0] {
			t.Errorf("request %d returned %d points, want %d", i, c, counts[0])
		}
	}
}

// TestIntegration_RateLimit verifies the API is limited and /health is not.
func TestIntegration_RateLimit(t *testing.T) {
	router, _, _ := setupIntegrationRouter(t, rate.NewLimiter(rate.Every(time.Hour), 2))

	var limited bool
	for i := 0; i < 3; i++ {
		w := makeIntegrationRequest(router, http.MethodGet, "/api/shoreline", "")
		limited = w.Code == http.StatusTooManyRequests
	}
	if !limited {
		t.Error("third request was not rate limited")
	}

	w := makeIntegrationRequest(router, http.MethodGet, "/health", "")
	if w.Code == http.StatusTooManyRequests {
		t.Error("/health was rate limited")
	}
}
