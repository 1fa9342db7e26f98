package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/kjstillabower/coastal-change-dashboard/internal/coastal"
	"github.com/kjstillabower/coastal-change-dashboard/internal/form"
	"github.com/kjstillabower/coastal-change-dashboard/internal/mapview"
	"github.com/kjstillabower/coastal-change-dashboard/internal/models"
	"github.com/kjstillabower/coastal-change-dashboard/internal/observability"
	"github.com/kjstillabower/coastal-change-dashboard/internal/view"
)

// predictionFailedMessage is shown inline when the backend rejects or drops a prediction.
const predictionFailedMessage = "Unable to get prediction"

func filtersFromQuery(q url.Values) coastal.Filters {
	return coastal.Filters{
		Region:   strings.TrimSpace(q.Get("region")),
		DateFrom: strings.TrimSpace(q.Get("dateFrom")),
		DateTo:   strings.TrimSpace(q.Get("dateTo")),
	}
}

// provider reads ?provider=, falling back to the configured default.
func (h *Handler) provider(q url.Values) mapview.Backend {
	if b, err := mapview.ParseBackend(q.Get("provider")); err == nil {
		return b
	}
	return h.defaultProvider
}

// GetDashboard handles GET /.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	page := h.dashboardPage(r)
	h.render(w, r, http.StatusOK, view.PageDashboard, page)
}

// PostDashboard handles POST /: the HTML prediction form. The page is
// re-rendered with the result, an inline error, or per-field messages.
func (h *Handler) PostDashboard(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_FORM", "form body could not be parsed")
		return
	}
	page := h.dashboardPage(r)
	if r.PostForm.Get("action") == "reset" {
		h.render(w, r, http.StatusOK, view.PageDashboard, page)
		return
	}

	values := valuesFromForm(r.PostForm)
	f := form.New(h.api, h.validator, page.Form.Regions)
	f.SetValues(values)
	result, err := f.Submit(r.Context())

	status := http.StatusOK
	var invalid *form.InvalidError
	switch {
	case errors.As(err, &invalid):
		status = http.StatusUnprocessableEntity
	case err != nil:
		observability.LoggerFromContext(r.Context(), h.logger).Warn("prediction failed", zap.Error(err))
		page.ResultError = predictionFailedMessage
	default:
		page.Result = &result
	}
	page.Form = view.NewFormPanel(f.Values(), f.Errors(), page.Form.Regions)
	h.render(w, r, status, view.PageDashboard, page)
}

func (h *Handler) dashboardPage(r *http.Request) view.DashboardPage {
	q := r.URL.Query()
	d, snap := h.dashboard.Dashboard(r.Context(), filtersFromQuery(q))
	var regions []string
	if snap.RecordsErr == nil {
		regions = coastal.UniqueRegions(snap.Records)
	}
	action := "/"
	if r.URL.RawQuery != "" {
		action += "?" + r.URL.RawQuery
	}
	return view.DashboardPage{
		Chrome:     view.NewChrome("Dashboard", "/"),
		Dashboard:  d,
		Map:        view.NewMapPanel(h.provider(q), h.devMode),
		Form:       view.NewFormPanel(form.Values{}, nil, regions),
		FormAction: action,
	}
}

func valuesFromForm(pf url.Values) form.Values {
	return form.Values{
		Region:        pf.Get(form.FieldRegion),
		Date:          pf.Get(form.FieldDate),
		SeaLevel:      pf.Get(form.FieldSeaLevel),
		ErosionRate:   pf.Get(form.FieldErosionRate),
		Precipitation: pf.Get(form.FieldPrecipitation),
	}
}

// GetAbout handles GET /about.
func (h *Handler) GetAbout(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, view.PageStatic, view.AboutPage())
}

// GetSettings handles GET /settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, view.PageStatic, view.SettingsPage())
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	var buf strings.Builder
	if err := h.renderer.Render(&buf, page, data); err != nil {
		observability.LoggerFromContext(r.Context(), h.logger).Error("page render failed",
			zap.String("page", page), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(buf.String()))
}

// GetDashboardJSON handles GET /api/dashboard. A backend failure is reported
// in loadError with status 200, like the HTML page.
func (h *Handler) GetDashboardJSON(w http.ResponseWriter, r *http.Request) {
	d, _ := h.dashboard.Dashboard(r.Context(), filtersFromQuery(r.URL.Query()))
	writeJSON(w, http.StatusOK, d)
}

// PostPredict handles POST /api/predict. The body uses the form field names;
// numbers may be sent as JSON numbers or strings.
func (h *Handler) PostPredict(w http.ResponseWriter, r *http.Request) {
	values, err := decodeValues(w, r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "request body must be a JSON object")
		return
	}
	f := form.New(h.api, h.validator, nil)
	f.SetValues(values)
	result, err := f.Submit(r.Context())

	var invalid *form.InvalidError
	switch {
	case errors.As(err, &invalid):
		writeErrorFields(w, r, http.StatusBadRequest, "VALIDATION_FAILED", "prediction input is invalid", invalid.Fields)
	case err != nil:
		writePredictError(w, r, err)
	default:
		writeJSON(w, http.StatusOK, result)
	}
}

func writePredictError(w http.ResponseWriter, r *http.Request, err error) {
	observability.LoggerFromContext(r.Context(), nil).Warn("prediction failed", zap.Error(err))
	if errors.Is(err, context.DeadlineExceeded) {
		writeError(w, r, http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT", predictionFailedMessage)
		return
	}
	writeError(w, r, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", predictionFailedMessage)
}

func decodeValues(w http.ResponseWriter, r *http.Request) (form.Values, error) {
	var raw map[string]any
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return form.Values{}, err
	}
	if raw == nil {
		return form.Values{}, errors.New("body is null")
	}
	get := func(k string) string {
		switch v := raw[k].(type) {
		case nil:
			return ""
		case string:
			return v
		case json.Number:
			return v.String()
		default:
			return fmt.Sprint(v)
		}
	}
	return form.Values{
		Region:        get(form.FieldRegion),
		Date:          get(form.FieldDate),
		SeaLevel:      get(form.FieldSeaLevel),
		ErosionRate:   get(form.FieldErosionRate),
		Precipitation: get(form.FieldPrecipitation),
	}, nil
}

// GetShoreline handles GET /api/shoreline. It never fails; the feed falls
// back to a fixed sample.
func (h *Handler) GetShoreline(w http.ResponseWriter, r *http.Request) {
	points := h.shoreline.FetchShorelineData(r.Context())
	if points == nil {
		points = []models.ShorelinePoint{}
	}
	writeJSON(w, http.StatusOK, points)
}
