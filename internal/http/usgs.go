package http

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/kjstillabower/coastal-change-dashboard/internal/validation"
)

// Query defaults of the coastal backend, applied here so the backend always
// receives explicit values.
const (
	defaultUsgsThreshold    = 2.0
	defaultDatasetThreshold = 1.0
	defaultStartYear        = 1900
	defaultEndYear          = 2023
	defaultPage             = 0
	defaultPageSize         = 100
	defaultRadiusKm         = 10.0

	maxNameLength = 100
)

// GetUsgsSummary handles GET /api/usgs.
func (h *Handler) GetUsgsSummary(w http.ResponseWriter, r *http.Request) {
	data, err := h.api.FetchUsgsSummary(r.Context())
	respond(w, r, data, err)
}

// GetUsgsByLocation handles GET /api/usgs/location/{location}.
func (h *Handler) GetUsgsByLocation(w http.ResponseWriter, r *http.Request) {
	location, ok := pathName(w, r, "location")
	if !ok {
		return
	}
	data, err := h.api.FetchUsgsByLocation(r.Context(), location)
	respond(w, r, data, err)
}

// GetUsgsHighErosion handles GET /api/usgs/high-erosion?threshold=.
func (h *Handler) GetUsgsHighErosion(w http.ResponseWriter, r *http.Request) {
	threshold, ok := queryFloat(w, r, "threshold", defaultUsgsThreshold)
	if !ok {
		return
	}
	data, err := h.api.FetchUsgsHighErosion(r.Context(), threshold)
	respond(w, r, data, err)
}

// GetUsgsByYearRange handles GET /api/usgs/years?startYear=&endYear=.
func (h *Handler) GetUsgsByYearRange(w http.ResponseWriter, r *http.Request) {
	start, ok := queryInt(w, r, "startYear", defaultStartYear)
	if !ok {
		return
	}
	end, ok := queryInt(w, r, "endYear", defaultEndYear)
	if !ok {
		return
	}
	if start > end {
		writeError(w, r, http.StatusBadRequest, "INVALID_PARAMETER", "startYear must not be after endYear")
		return
	}
	data, err := h.api.FetchUsgsByYearRange(r.Context(), start, end)
	respond(w, r, data, err)
}

// GetUsgsLocations handles GET /api/usgs/locations.
func (h *Handler) GetUsgsLocations(w http.ResponseWriter, r *http.Request) {
	data, err := h.api.FetchUsgsLocations(r.Context())
	respond(w, r, data, err)
}

// GetDatasets handles GET /api/usgs-datasets?page=&size=.
func (h *Handler) GetDatasets(w http.ResponseWriter, r *http.Request) {
	page, ok := queryInt(w, r, "page", defaultPage)
	if !ok {
		return
	}
	size, ok := queryInt(w, r, "size", defaultPageSize)
	if !ok {
		return
	}
	if page < 0 || size <= 0 {
		writeError(w, r, http.StatusBadRequest, "INVALID_PARAMETER", "page must be >= 0 and size > 0")
		return
	}
	data, err := h.api.FetchDatasets(r.Context(), page, size)
	respond(w, r, data, err)
}

// GetDatasetCount handles GET /api/usgs-datasets/count.
func (h *Handler) GetDatasetCount(w http.ResponseWriter, r *http.Request) {
	data, err := h.api.FetchDatasetCount(r.Context())
	respond(w, r, data, err)
}

// GetDatasetRegions handles GET /api/usgs-datasets/regions.
func (h *Handler) GetDatasetRegions(w http.ResponseWriter, r *http.Request) {
	data, err := h.api.FetchDatasetRegions(r.Context())
	respond(w, r, data, err)
}

// GetDatasetsByRegion handles GET /api/usgs-datasets/region/{region}.
func (h *Handler) GetDatasetsByRegion(w http.ResponseWriter, r *http.Request) {
	region, ok := pathName(w, r, "region")
	if !ok {
		return
	}
	data, err := h.api.FetchDatasetsByRegion(r.Context(), region)
	respond(w, r, data, err)
}

// GetDatasetsByDateRange handles GET /api/usgs-datasets/date-range?start=&end=.
func (h *Handler) GetDatasetsByDateRange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, end := strings.TrimSpace(q.Get("start")), strings.TrimSpace(q.Get("end"))
	for _, p := range [][2]string{{"start", start}, {"end", end}} {
		if _, err := time.Parse(validation.DateLayout, p[1]); err != nil {
			writeError(w, r, http.StatusBadRequest, "INVALID_PARAMETER", p[0]+" must be a date (YYYY-MM-DD)")
			return
		}
	}
	if start > end {
		writeError(w, r, http.StatusBadRequest, "INVALID_PARAMETER", "start must not be after end")
		return
	}
	data, err := h.api.FetchDatasetsByDateRange(r.Context(), start, end)
	respond(w, r, data, err)
}

// GetDatasetsHighErosion handles GET /api/usgs-datasets/high-erosion?threshold=.
func (h *Handler) GetDatasetsHighErosion(w http.ResponseWriter, r *http.Request) {
	threshold, ok := queryFloat(w, r, "threshold", defaultDatasetThreshold)
	if !ok {
		return
	}
	data, err := h.api.FetchDatasetsHighErosion(r.Context(), threshold)
	respond(w, r, data, err)
}

// GetDatasetsNearby handles GET /api/usgs-datasets/nearby?longitude=&latitude=&radiusKm=.
// longitude and latitude are required.
func (h *Handler) GetDatasetsNearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("longitude") == "" || q.Get("latitude") == "" {
		writeError(w, r, http.StatusBadRequest, "INVALID_PARAMETER", "longitude and latitude are required")
		return
	}
	lon, ok := queryFloat(w, r, "longitude", 0)
	if !ok {
		return
	}
	lat, ok := queryFloat(w, r, "latitude", 0)
	if !ok {
		return
	}
	radius, ok := queryFloat(w, r, "radiusKm", defaultRadiusKm)
	if !ok {
		return
	}
	if lon < -180 || lon > 180 || lat < -90 || lat > 90 || radius <= 0 {
		writeError(w, r, http.StatusBadRequest, "INVALID_PARAMETER", "coordinates out of range or radiusKm not positive")
		return
	}
	data, err := h.api.FetchDatasetsNearby(r.Context(), lon, lat, radius)
	respond(w, r, data, err)
}

func respond(w http.ResponseWriter, r *http.Request, data any, err error) {
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func pathName(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	name, err := validation.ValidateName(mux.Vars(r)[key], maxNameLength)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_"+strings.ToUpper(key), fmt.Sprintf("%s: %v", key, err))
		return "", false
	}
	return name, true
}

func queryFloat(w http.ResponseWriter, r *http.Request, key string, def float64) (float64, bool) {
	s := strings.TrimSpace(r.URL.Query().Get(key))
	if s == "" {
		return def, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		writeError(w, r, http.StatusBadRequest, "INVALID_PARAMETER", key+" must be a number")
		return 0, false
	}
	return f, true
}

func queryInt(w http.ResponseWriter, r *http.Request, key string, def int) (int, bool) {
	s := strings.TrimSpace(r.URL.Query().Get(key))
	if s == "" {
		return def, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_PARAMETER", key+" must be an integer")
		return 0, false
	}
	return n, true
}
