package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kjstillabower/coastal-change-dashboard/internal/mapview"
	"github.com/kjstillabower/coastal-change-dashboard/internal/observability"
)

// PostMap handles POST /api/maps. The body is optional; an empty provider
// mounts the default backend. The rich backend is loaded with the shoreline
// feed before the view is returned.
func (h *Handler) PostMap(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Provider      string `json:"provider"`
		OverlayHidden bool   `json:"overlayHidden"`
	}
	if err := decodeJSON(w, r, &body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "request body must be a JSON object")
		return
	}
	backend := h.defaultProvider
	if body.Provider != "" {
		b, err := mapview.ParseBackend(body.Provider)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "INVALID_PROVIDER", "provider must be openlayers or simple")
			return
		}
		backend = b
	}

	m, err := h.maps.Mount(backend)
	if err != nil {
		writeMapError(w, r, err)
		return
	}
	if body.OverlayHidden {
		m.SetOverlayVisible(false)
	}
	if backend == mapview.BackendOpenLayers {
		if err := m.SetShorelineData(h.shoreline.FetchShorelineData(r.Context())); err != nil {
			observability.LoggerFromContext(r.Context(), h.logger).Warn("shoreline data not applied to map",
				zap.String("map_id", m.ID()), zap.Error(err))
		}
	}
	writeJSON(w, http.StatusCreated, m.View())
}

// GetMap handles GET /api/maps/{id}.
func (h *Handler) GetMap(w http.ResponseWriter, r *http.Request) {
	m, ok := h.lookupMap(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, m.View())
}

// DeleteMap handles DELETE /api/maps/{id}: the unmount.
func (h *Handler) DeleteMap(w http.ResponseWriter, r *http.Request) {
	if err := h.maps.Unmount(mux.Vars(r)["id"]); err != nil {
		writeMapError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetLayerGeoJSON handles GET /api/maps/{id}/layers/{index}/geojson.
func (h *Handler) GetLayerGeoJSON(w http.ResponseWriter, r *http.Request) {
	m, ok := h.lookupMap(w, r)
	if !ok {
		return
	}
	index, ok := layerIndex(w, r)
	if !ok {
		return
	}
	fc, err := m.FeatureCollection(index)
	if err != nil {
		writeMapError(w, r, err)
		return
	}
	b, err := fc.MarshalJSON()
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "ENCODE_FAILED", "features could not be encoded")
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

// PutVisualization handles PUT /api/maps/{id}/visualization.
func (h *Handler) PutVisualization(w http.ResponseWriter, r *http.Request) {
	m, ok := h.lookupMap(w, r)
	if !ok {
		return
	}
	var body struct {
		Mode string `json:"mode"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "request body must be a JSON object")
		return
	}
	if err := m.SetVisualization(mapview.Visualization(body.Mode)); err != nil {
		writeMapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m.View())
}

// PutOverlay handles PUT /api/maps/{id}/overlay. Toggle failures are logged
// by the map and the current view is returned regardless.
func (h *Handler) PutOverlay(w http.ResponseWriter, r *http.Request) {
	m, ok := h.lookupMap(w, r)
	if !ok {
		return
	}
	var body struct {
		Visible *bool `json:"visible"`
	}
	if err := decodeJSON(w, r, &body); err != nil || body.Visible == nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", `body must be {"visible": true|false}`)
		return
	}
	m.SetOverlayVisible(*body.Visible)
	writeJSON(w, http.StatusOK, m.View())
}

// PutLayer handles PUT /api/maps/{id}/layers/{index}, the debug panel
// checkbox. Dev mode only.
func (h *Handler) PutLayer(w http.ResponseWriter, r *http.Request) {
	if !h.devMode {
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "debug panel is disabled")
		return
	}
	m, ok := h.lookupMap(w, r)
	if !ok {
		return
	}
	index, ok := layerIndex(w, r)
	if !ok {
		return
	}
	var body struct {
		Visible *bool `json:"visible"`
	}
	if err := decodeJSON(w, r, &body); err != nil || body.Visible == nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", `body must be {"visible": true|false}`)
		return
	}
	layers := m.Layers()
	if index >= len(layers) {
		writeError(w, r, http.StatusNotFound, "LAYER_NOT_FOUND", "no layer at index "+strconv.Itoa(index))
		return
	}
	if err := m.SetLayerVisible(layers[index].Title, *body.Visible); err != nil {
		writeMapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m.View())
}

// PostClick handles POST /api/maps/{id}/click. A miss returns a null popup.
func (h *Handler) PostClick(w http.ResponseWriter, r *http.Request) {
	m, ok := h.lookupMap(w, r)
	if !ok {
		return
	}
	var body struct {
		Lon *float64 `json:"lon"`
		Lat *float64 `json:"lat"`
	}
	if err := decodeJSON(w, r, &body); err != nil || body.Lon == nil || body.Lat == nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", `body must be {"lon": number, "lat": number}`)
		return
	}
	popup, err := m.Click(*body.Lon, *body.Lat)
	if err != nil {
		writeMapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]*mapview.Popup{"popup": popup})
}

// GetDebug handles GET /api/maps/{id}/debug. 404 outside dev mode.
func (h *Handler) GetDebug(w http.ResponseWriter, r *http.Request) {
	if !h.devMode {
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "debug panel is disabled")
		return
	}
	m, ok := h.lookupMap(w, r)
	if !ok {
		return
	}
	entries, err := m.DebugPanel()
	if err != nil {
		writeMapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"layers": entries})
}

func (h *Handler) lookupMap(w http.ResponseWriter, r *http.Request) (*mapview.Map, bool) {
	m, err := h.maps.Get(mux.Vars(r)["id"])
	if err != nil {
		writeMapError(w, r, err)
		return nil, false
	}
	return m, true
}

func layerIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil || index < 0 {
		writeError(w, r, http.StatusBadRequest, "INVALID_LAYER_INDEX", "layer index must be a non-negative integer")
		return 0, false
	}
	return index, true
}

func writeMapError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, mapview.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "MAP_NOT_FOUND", "map not found")
	case errors.Is(err, mapview.ErrDetached):
		writeError(w, r, http.StatusGone, "MAP_DETACHED", "map has been unmounted")
	case errors.Is(err, mapview.ErrUnknownLayer):
		writeError(w, r, http.StatusNotFound, "LAYER_NOT_FOUND", err.Error())
	case errors.Is(err, mapview.ErrLayerHasNoFeatures):
		writeError(w, r, http.StatusBadRequest, "NOT_A_VECTOR_LAYER", err.Error())
	case errors.Is(err, mapview.ErrUnsupported):
		writeError(w, r, http.StatusConflict, "UNSUPPORTED", "operation not supported by this map provider")
	case errors.Is(err, mapview.ErrUnknownMode), errors.Is(err, mapview.ErrUnknownBackend):
		writeError(w, r, http.StatusBadRequest, "INVALID_PARAMETER", err.Error())
	case errors.Is(err, mapview.ErrDebugDisabled):
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "debug panel is disabled")
	default:
		writeError(w, r, http.StatusInternalServerError, "INTERNAL", "map operation failed")
	}
}
