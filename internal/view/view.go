// Package view turns coastal records into the dashboard's table and chart
// models and renders the HTML pages.
package view

import (
	"github.com/kjstillabower/coastal-change-dashboard/internal/coastal"
	"github.com/kjstillabower/coastal-change-dashboard/internal/models"
)

// EmptyMessage is the single table row shown when no record matches.
const EmptyMessage = "No data found."

// Row is one table line, in column order.
type Row struct {
	ID            int64   `json:"id"`
	Region        string  `json:"region"`
	Date          string  `json:"date"`
	SeaLevel      float64 `json:"seaLevel"`
	ErosionRate   float64 `json:"erosionRate"`
	Precipitation float64 `json:"precipitation"`
}

type Table struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
	Empty   bool     `json:"empty"`
}

var tableColumns = []string{"Region", "Date", "Sea Level", "Erosion Rate", "Precipitation"}

// BuildTable keeps the filtered order; only the charts are sorted.
func BuildTable(filtered []models.CoastalRecord) Table {
	t := Table{
		Columns: tableColumns,
		Rows:    make([]Row, len(filtered)),
		Empty:   len(filtered) == 0,
	}
	for i, r := range filtered {
		t.Rows[i] = Row{
			ID:            r.ID,
			Region:        r.Region,
			Date:          r.Date,
			SeaLevel:      r.SeaLevel,
			ErosionRate:   r.ErosionRate,
			Precipitation: r.Precipitation,
		}
	}
	return t
}

// Series is one line chart with a single dataset.
type Series struct {
	Title           string    `json:"title"`
	Label           string    `json:"label"`
	Data            []float64 `json:"data"`
	BorderColor     string    `json:"borderColor"`
	BackgroundColor string    `json:"backgroundColor"`
	Tension         float64   `json:"tension"`
	BeginAtZero     bool      `json:"beginAtZero"`
	YMax            *float64  `json:"yMax,omitempty"`
}

// Charts share one label axis of dates in ascending order.
type Charts struct {
	Labels      []string `json:"labels"`
	SeaLevel    Series   `json:"seaLevel"`
	ErosionRate Series   `json:"erosionRate"`
	Likelihood  Series   `json:"likelihood"`
}

const chartTension = 0.3

// BuildCharts sorts by date and derives the likelihood series. The
// likelihood values are a visualization aid, not a prediction.
func BuildCharts(filtered []models.CoastalRecord) Charts {
	sorted := coastal.SortByDateAscending(filtered)
	n := len(sorted)
	labels := make([]string, n)
	sea := make([]float64, n)
	erosion := make([]float64, n)
	likelihood := make([]float64, n)
	for i, r := range sorted {
		labels[i] = r.Date
		sea[i] = r.SeaLevel
		erosion[i] = r.ErosionRate
		likelihood[i] = coastal.DeriveScore(r)
	}

	one := 1.0
	return Charts{
		Labels: labels,
		SeaLevel: Series{
			Title: "Sea Level Trend", Label: "Sea Level", Data: sea,
			BorderColor: "#0d6efd", BackgroundColor: "rgba(13,110,253,0.1)",
			Tension: chartTension, BeginAtZero: true,
		},
		ErosionRate: Series{
			Title: "Erosion Rate Trend", Label: "Erosion Rate", Data: erosion,
			BorderColor: "#dc3545", BackgroundColor: "rgba(220,53,69,0.1)",
			Tension: chartTension, BeginAtZero: true,
		},
		Likelihood: Series{
			Title: "Prediction Likelihood", Label: "Likelihood", Data: likelihood,
			BorderColor: "#198754", BackgroundColor: "rgba(25,135,84,0.1)",
			Tension: chartTension, BeginAtZero: true, YMax: &one,
		},
	}
}

// All returns the charts in display order.
func (c Charts) All() []Series {
	return []Series{c.SeaLevel, c.ErosionRate, c.Likelihood}
}

// Option is one entry of a select control.
type Option struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// Dashboard is the data panel: filters, region selector, charts and table.
type Dashboard struct {
	Filters   coastal.Filters `json:"filters"`
	Regions   []Option        `json:"regions"`
	Table     Table           `json:"table"`
	Charts    Charts          `json:"charts"`
	LoadError string          `json:"loadError,omitempty"`
}

// BuildDashboard filters records and builds every panel. The region list
// comes from all records so a filtered-out region can still be selected.
func BuildDashboard(records []models.CoastalRecord, f coastal.Filters) Dashboard {
	filtered := coastal.Filter(records, f)
	return Dashboard{
		Filters: f,
		Regions: RegionOptions(coastal.UniqueRegions(records), f.Region),
		Table:   BuildTable(filtered),
		Charts:  BuildCharts(filtered),
	}
}

// RegionOptions prepends "All" (empty value) to regions.
func RegionOptions(regions []string, selected string) []Option {
	out := make([]Option, 0, len(regions)+1)
	out = append(out, Option{Value: "", Label: "All", Selected: selected == ""})
	for _, r := range regions {
		out = append(out, Option{Value: r, Label: r, Selected: r == selected})
	}
	return out
}
