package view

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjstillabower/coastal-change-dashboard/internal/coastal"
	"github.com/kjstillabower/coastal-change-dashboard/internal/form"
	"github.com/kjstillabower/coastal-change-dashboard/internal/mapview"
	"github.com/kjstillabower/coastal-change-dashboard/internal/models"
)

func render(t *testing.T, page string, data any) *goquery.Document {
	t.Helper()
	r, err := NewRenderer()
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, page, data))
	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	return doc
}

func dashboardPage(d Dashboard) DashboardPage {
	return DashboardPage{
		Chrome:     NewChrome("Dashboard", "/"),
		Dashboard:  d,
		Map:        NewMapPanel(mapview.BackendOpenLayers, false),
		Form:       NewFormPanel(form.Values{}, nil, nil),
		FormAction: "/",
	}
}

func TestRender_DashboardTableAndFilters(t *testing.T) {
	doc := render(t, PageDashboard, dashboardPage(BuildDashboard(records, coastal.Filters{Region: "Cape Cod"})))

	assert.Equal(t, "Coastal Change", doc.Find(".navbar-brand").Text())
	assert.Equal(t, "Dashboard", doc.Find("#nav .nav-link.active").Text())

	var headers []string
	doc.Find("#coastal-table thead th").Each(func(_ int, s *goquery.Selection) {
		headers = append(headers, s.Text())
	})
	assert.Equal(t, []string{"Region", "Date", "Sea Level", "Erosion Rate", "Precipitation"}, headers)

	rows := doc.Find("#coastal-table tbody tr")
	require.Equal(t, 2, rows.Length())
	first := rows.First().Find("td")
	assert.Equal(t, "Cape Cod", first.Eq(0).Text())
	assert.Equal(t, "2023-03-01", first.Eq(1).Text())
	assert.Equal(t, "-0.2", first.Eq(3).Text())

	assert.Equal(t, "Cape Cod", doc.Find("#region option[selected]").Text())
	assert.Equal(t, "All", doc.Find("#region option").First().Text())
	assert.Equal(t, 0, doc.Find("#load-error").Length())
}

func TestRender_DashboardEmptyAndLoadError(t *testing.T) {
	d := BuildDashboard(nil, coastal.Filters{})
	d.LoadError = "Unable to load coastal data"
	doc := render(t, PageDashboard, dashboardPage(d))

	rows := doc.Find("#coastal-table tbody tr")
	require.Equal(t, 1, rows.Length())
	assert.Equal(t, EmptyMessage, strings.TrimSpace(rows.Text()))
	assert.Equal(t, "Unable to load coastal data", doc.Find("#load-error").Text())
}

func TestRender_Charts(t *testing.T) {
	doc := render(t, PageDashboard, dashboardPage(BuildDashboard(records, coastal.Filters{})))

	var titles []string
	doc.Find("#charts h6").Each(func(_ int, s *goquery.Selection) {
		titles = append(titles, s.Text())
	})
	assert.Equal(t, []string{"Sea Level Trend", "Erosion Rate Trend", "Prediction Likelihood"}, titles)

	var charts Charts
	require.NoError(t, json.Unmarshal([]byte(doc.Find("#chart-data").Text()), &charts))
	assert.Equal(t, []string{"2021-06-15", "2022-01-10", "2023-03-01"}, charts.Labels)
	require.NotNil(t, charts.Likelihood.YMax)
}

func TestRender_MapSelector(t *testing.T) {
	page := dashboardPage(BuildDashboard(records, coastal.Filters{}))
	page.Map = NewMapPanel(mapview.BackendSimple, true)
	doc := render(t, PageDashboard, page)

	links := doc.Find("#map-selector a")
	require.Equal(t, 2, links.Length())
	assert.Equal(t, "OpenLayers", links.Eq(0).Text())
	assert.True(t, links.Eq(1).HasClass("btn-primary"))
	href, _ := links.Eq(0).Attr("href")
	assert.Equal(t, "/?provider=openlayers", href)

	provider, _ := doc.Find("#map").Attr("data-provider")
	assert.Equal(t, "simple", provider)
	_, debug := doc.Find("#map").Attr("data-debug")
	assert.True(t, debug)
}

func TestRender_PredictionFormErrors(t *testing.T) {
	page := dashboardPage(BuildDashboard(records, coastal.Filters{}))
	page.Form = NewFormPanel(
		form.Values{Region: "Cape Cod", SeaLevel: "120"},
		form.FieldErrors{form.FieldDate: "Date is required", form.FieldSeaLevel: "Sea Level must be between 0 and 100"},
		nil,
	)
	doc := render(t, PageDashboard, page)

	inputs := doc.Find("#prediction-form input")
	require.Equal(t, 5, inputs.Length())
	var placeholders []string
	inputs.Each(func(_ int, s *goquery.Selection) {
		p, _ := s.Attr("placeholder")
		placeholders = append(placeholders, p)
	})
	assert.Equal(t, []string{"Region", "Date", "Sea Level", "Erosion Rate", "Precipitation"}, placeholders)

	sea := doc.Find(`#prediction-form input[name="seaLevel"]`)
	assert.True(t, sea.HasClass("is-invalid"))
	v, _ := sea.Attr("value")
	assert.Equal(t, "120", v)

	var msgs []string
	doc.Find("#prediction-form [data-field-error]").Each(func(_ int, s *goquery.Selection) {
		msgs = append(msgs, s.Text())
	})
	assert.Equal(t, []string{"Date is required", "Sea Level must be between 0 and 100"}, msgs)
	assert.Equal(t, "Predict", doc.Find(`#prediction-form button[value="predict"]`).Text())
	assert.Equal(t, 0, doc.Find("#prediction-result").Length())
}

func TestRender_RegionSelect(t *testing.T) {
	page := dashboardPage(BuildDashboard(records, coastal.Filters{}))
	page.Form = NewFormPanel(form.Values{Region: "Boston Harbor"}, nil, []string{"Cape Cod", "Boston Harbor"})
	doc := render(t, PageDashboard, page)

	assert.Equal(t, 0, doc.Find(`#prediction-form input[name="region"]`).Length())
	assert.Equal(t, 3, doc.Find(`#prediction-form select[name="region"] option`).Length())
	assert.Equal(t, "Boston Harbor", doc.Find(`#prediction-form select[name="region"] option[selected]`).Text())
}

func TestRender_PredictionResult(t *testing.T) {
	page := dashboardPage(BuildDashboard(records, coastal.Filters{}))
	page.Result = &models.PredictionResult{Region: "Cape Cod", Date: "2024-01-01", Likelihood: 0.42}
	doc := render(t, PageDashboard, page)

	result := doc.Find("#prediction-result")
	assert.Equal(t, "Prediction Result", result.Find("h3").Text())
	var got models.PredictionResult
	require.NoError(t, json.Unmarshal([]byte(result.Find("pre").Text()), &got))
	assert.Equal(t, *page.Result, got)
}

func TestRender_StaticPages(t *testing.T) {
	doc := render(t, PageStatic, AboutPage())
	assert.Equal(t, "About", doc.Find("main h2").Text())
	assert.Contains(t, doc.Find("main p").Text(), "predicts and visualizes the likelihood of coastal changes")
	assert.Equal(t, "About", doc.Find("#nav .nav-link.active").Text())

	doc = render(t, PageStatic, SettingsPage())
	assert.Equal(t, "User Settings", doc.Find("main h2").Text())
	assert.Equal(t, "Manage your user preferences and role-based features here.", doc.Find("main p").Text())
}

func TestRender_UnknownPage(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)
	assert.Error(t, r.Render(&bytes.Buffer{}, "nope", nil))
}

func TestRender_PredictSubmitBusyHook(t *testing.T) {
	doc := render(t, PageDashboard, dashboardPage(BuildDashboard(records, coastal.Filters{})))

	btn := doc.Find("#prediction-form #predict-submit")
	require.Equal(t, 1, btn.Length())
	_, disabled := btn.Attr("disabled")
	assert.False(t, disabled, "submit starts enabled")
	assert.Equal(t, "predict", btn.AttrOr("value", ""))
	assert.True(t, btn.Find("#predict-busy").HasClass("d-none"), "busy indicator starts hidden")

	script := doc.Find("script").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(s.Text(), "predict-submit")
	})
	require.Equal(t, 1, script.Length())
	assert.Contains(t, script.Text(), `btn.disabled = true`)
	assert.Contains(t, script.Text(), `"aria-busy"`)
}
