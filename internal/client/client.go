package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kjstillabower/coastal-change-dashboard/internal/models"
	"github.com/kjstillabower/coastal-change-dashboard/internal/observability"
	"github.com/kjstillabower/coastal-change-dashboard/internal/traffic"
)

// CoastalAPI is the dashboard's view of the coastal backend.
type CoastalAPI interface {
	FetchCoastalData(ctx context.Context) ([]models.CoastalRecord, error)
	PredictCoastalChange(ctx context.Context, req models.PredictionRequest) (models.PredictionResult, error)

	FetchUsgsSummary(ctx context.Context) ([]models.UsgsCoastalData, error)
	FetchUsgsByLocation(ctx context.Context, location string) ([]models.UsgsCoastalData, error)
	FetchUsgsHighErosion(ctx context.Context, threshold float64) ([]models.UsgsCoastalData, error)
	FetchUsgsByYearRange(ctx context.Context, startYear, endYear int) ([]models.UsgsCoastalData, error)
	FetchUsgsLocations(ctx context.Context) ([]string, error)

	FetchDatasets(ctx context.Context, page, size int) ([]models.UsgsCoastalDataset, error)
	FetchDatasetCount(ctx context.Context) (models.DatasetCount, error)
	FetchDatasetRegions(ctx context.Context) ([]string, error)
	FetchDatasetsByRegion(ctx context.Context, region string) ([]models.UsgsCoastalDataset, error)
	FetchDatasetsByDateRange(ctx context.Context, start, end string) ([]models.UsgsCoastalDataset, error)
	FetchDatasetsHighErosion(ctx context.Context, threshold float64) ([]models.UsgsCoastalDataset, error)
	FetchDatasetsNearby(ctx context.Context, lon, lat, radiusKm float64) ([]models.UsgsCoastalDataset, error)
}

var (
	// ErrUpstreamFailure wraps every transport failure and non-2xx response.
	ErrUpstreamFailure = errors.New("upstream failure")
	// ErrNotFound is returned for a 404; it also matches ErrUpstreamFailure.
	ErrNotFound = errors.New("not found")
	// ErrDecode is returned when a 2xx body does not match the expected shape.
	ErrDecode = errors.New("decode response")
)

// Client calls the coastal backend over HTTP. It never retries.
type Client struct {
	baseURL string
	client  *http.Client
}

var _ CoastalAPI = (*Client)(nil)

// New returns a Client for baseURL. timeout bounds each call end to end.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend URL %q: scheme and host required", baseURL)
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) FetchCoastalData(ctx context.Context) ([]models.CoastalRecord, error) {
	return getJSON[[]models.CoastalRecord](ctx, c, "coastal-data", "/api/coastal-data", nil)
}

func (c *Client) PredictCoastalChange(ctx context.Context, in models.PredictionRequest) (models.PredictionResult, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return models.PredictionResult{}, fmt.Errorf("encode prediction request: %w", err)
	}
	return doJSON[models.PredictionResult](ctx, c, "predict", http.MethodPost, "/api/predict", nil, body)
}

func (c *Client) FetchUsgsSummary(ctx context.Context) ([]models.UsgsCoastalData, error) {
	return getJSON[[]models.UsgsCoastalData](ctx, c, "usgs", "/api/usgs", nil)
}

func (c *Client) FetchUsgsByLocation(ctx context.Context, location string) ([]models.UsgsCoastalData, error) {
	return getJSON[[]models.UsgsCoastalData](ctx, c, "usgs-location", "/api/usgs/location/"+url.PathEscape(location), nil)
}

func (c *Client) FetchUsgsHighErosion(ctx context.Context, threshold float64) ([]models.UsgsCoastalData, error) {
	q := url.Values{"threshold": {formatFloat(threshold)}}
	return getJSON[[]models.UsgsCoastalData](ctx, c, "usgs-high-erosion", "/api/usgs/high-erosion", q)
}

func (c *Client) FetchUsgsByYearRange(ctx context.Context, startYear, endYear int) ([]models.UsgsCoastalData, error) {
	q := url.Values{
		"startYear": {strconv.Itoa(startYear)},
		"endYear":   {strconv.Itoa(endYear)},
	}
	return getJSON[[]models.UsgsCoastalData](ctx, c, "usgs-years", "/api/usgs/years", q)
}

func (c *Client) FetchUsgsLocations(ctx context.Context) ([]string, error) {
	return getJSON[[]string](ctx, c, "usgs-locations", "/api/usgs/locations", nil)
}

func (c *Client) FetchDatasets(ctx context.Context, page, size int) ([]models.UsgsCoastalDataset, error) {
	q := url.Values{
		"page": {strconv.Itoa(page)},
		"size": {strconv.Itoa(size)},
	}
	return getJSON[[]models.UsgsCoastalDataset](ctx, c, "datasets", "/api/usgs-datasets", q)
}

func (c *Client) FetchDatasetCount(ctx context.Context) (models.DatasetCount, error) {
	return getJSON[models.DatasetCount](ctx, c, "datasets-count", "/api/usgs-datasets/count", nil)
}

func (c *Client) FetchDatasetRegions(ctx context.Context) ([]string, error) {
	return getJSON[[]string](ctx, c, "datasets-regions", "/api/usgs-datasets/regions", nil)
}

func (c *Client) FetchDatasetsByRegion(ctx context.Context, region string) ([]models.UsgsCoastalDataset, error) {
	return getJSON[[]models.UsgsCoastalDataset](ctx, c, "datasets-region", "/api/usgs-datasets/region/"+url.PathEscape(region), nil)
}

func (c *Client) FetchDatasetsByDateRange(ctx context.Context, start, end string) ([]models.UsgsCoastalDataset, error) {
	q := url.Values{"start": {start}, "end": {end}}
	return getJSON[[]models.UsgsCoastalDataset](ctx, c, "datasets-date-range", "/api/usgs-datasets/date-range", q)
}

func (c *Client) FetchDatasetsHighErosion(ctx context.Context, threshold float64) ([]models.UsgsCoastalDataset, error) {
	q := url.Values{"threshold": {formatFloat(threshold)}}
	return getJSON[[]models.UsgsCoastalDataset](ctx, c, "datasets-high-erosion", "/api/usgs-datasets/high-erosion", q)
}

func (c *Client) FetchDatasetsNearby(ctx context.Context, lon, lat, radiusKm float64) ([]models.UsgsCoastalDataset, error) {
	q := url.Values{
		"longitude": {formatFloat(lon)},
		"latitude":  {formatFloat(lat)},
		"radiusKm":  {formatFloat(radiusKm)},
	}
	return getJSON[[]models.UsgsCoastalDataset](ctx, c, "datasets-nearby", "/api/usgs-datasets/nearby", q)
}

func getJSON[T any](ctx context.Context, c *Client, endpoint, path string, query url.Values) (T, error) {
	return doJSON[T](ctx, c, endpoint, http.MethodGet, path, query, nil)
}

// doJSON performs one call and decodes a 2xx body into T. Metrics and the
// traffic window see every call exactly once.
func doJSON[T any](ctx context.Context, c *Client, endpoint, method, path string, query url.Values, body []byte) (T, error) {
	var zero T
	start := time.Now()

	req, err := c.buildRequest(ctx, method, path, query, body)
	if err != nil {
		return zero, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		record(endpoint, "error", start)
		traffic.RecordError()
		return zero, fmt.Errorf("%w: %s %s: %w", ErrUpstreamFailure, method, path, err)
	}
	defer resp.Body.Close()

	record(endpoint, statusLabel(resp.StatusCode), start)
	if err := checkStatus(resp); err != nil {
		traffic.RecordError()
		return zero, fmt.Errorf("%s %s: %w", method, path, err)
	}

	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		traffic.RecordError()
		return zero, fmt.Errorf("%w: %s %s: %w", ErrDecode, method, path, err)
	}
	traffic.RecordSuccess()
	return out, nil
}

func (c *Client) buildRequest(ctx context.Context, method, path string, query url.Values, body []byte) (*http.Request, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, r)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if corrID := observability.CorrelationID(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}
	return req, nil
}

func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %w: HTTP %d", ErrUpstreamFailure, ErrNotFound, resp.StatusCode)
	default:
		return fmt.Errorf("%w: HTTP %d", ErrUpstreamFailure, resp.StatusCode)
	}
}

func record(endpoint, status string, start time.Time) {
	observability.BackendAPICallsTotal.WithLabelValues(endpoint, status).Inc()
	observability.BackendAPIDuration.WithLabelValues(endpoint, status).Observe(time.Since(start).Seconds())
}

func statusLabel(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "success"
	case statusCode == http.StatusNotFound:
		return "not_found"
	case statusCode >= 400 && statusCode < 500:
		return "client_error"
	case statusCode >= 500:
		return "server_error"
	default:
		return "error"
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
