package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjstillabower/coastal-change-dashboard/internal/coastal"
	"github.com/kjstillabower/coastal-change-dashboard/internal/models"
)

var records = []models.CoastalRecord{
	{ID: 1, Region: "Cape Cod", Date: "2023-03-01", SeaLevel: 0.5, ErosionRate: -0.2, Precipitation: 0.1},
	{ID: 2, Region: "Boston Harbor", Date: "2021-06-15", SeaLevel: 2, ErosionRate: 1, Precipitation: 3},
	{ID: 3, Region: "Cape Cod", Date: "2022-01-10", SeaLevel: 0, ErosionRate: -5, Precipitation: 0},
}

func TestBuildTable(t *testing.T) {
	table := BuildTable(records)
	assert.False(t, table.Empty)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, []string{"Region", "Date", "Sea Level", "Erosion Rate", "Precipitation"}, table.Columns)
	assert.Equal(t, Row{ID: 1, Region: "Cape Cod", Date: "2023-03-01", SeaLevel: 0.5, ErosionRate: -0.2, Precipitation: 0.1}, table.Rows[0])
	assert.Equal(t, int64(3), table.Rows[2].ID, "table keeps input order")

	empty := BuildTable(nil)
	assert.True(t, empty.Empty)
	assert.Empty(t, empty.Rows)
}

func TestBuildCharts(t *testing.T) {
	charts := BuildCharts(records)

	assert.Equal(t, []string{"2021-06-15", "2022-01-10", "2023-03-01"}, charts.Labels)
	assert.Equal(t, []float64{2, 0, 0.5}, charts.SeaLevel.Data)
	assert.Equal(t, []float64{1, -5, -0.2}, charts.ErosionRate.Data)
	require.Len(t, charts.Likelihood.Data, 3)
	assert.Equal(t, 1.0, charts.Likelihood.Data[0])
	assert.Equal(t, 0.0, charts.Likelihood.Data[1])
	assert.InDelta(t, 0.26, charts.Likelihood.Data[2], 1e-9)

	assert.Equal(t, "Sea Level Trend", charts.SeaLevel.Title)
	assert.Equal(t, "#0d6efd", charts.SeaLevel.BorderColor)
	assert.Nil(t, charts.SeaLevel.YMax)
	assert.Equal(t, "Erosion Rate Trend", charts.ErosionRate.Title)
	assert.Equal(t, "#dc3545", charts.ErosionRate.BorderColor)
	assert.Equal(t, "Prediction Likelihood", charts.Likelihood.Title)
	assert.Equal(t, "#198754", charts.Likelihood.BorderColor)
	require.NotNil(t, charts.Likelihood.YMax)
	assert.Equal(t, 1.0, *charts.Likelihood.YMax)

	assert.Equal(t, int64(1), records[0].ID, "input is not reordered")
}

func TestBuildCharts_Empty(t *testing.T) {
	charts := BuildCharts(nil)
	assert.Empty(t, charts.Labels)
	assert.Empty(t, charts.Likelihood.Data)
	assert.Len(t, charts.All(), 3)
}

func TestBuildDashboard(t *testing.T) {
	d := BuildDashboard(records, coastal.Filters{Region: "Cape Cod", DateFrom: "2022-06-01"})

	require.Len(t, d.Table.Rows, 1)
	assert.Equal(t, int64(1), d.Table.Rows[0].ID)
	assert.Equal(t, []string{"2023-03-01"}, d.Charts.Labels)
	assert.Equal(t, []Option{
		{Value: "", Label: "All"},
		{Value: "Cape Cod", Label: "Cape Cod", Selected: true},
		{Value: "Boston Harbor", Label: "Boston Harbor"},
	}, d.Regions)
}

func TestBuildDashboard_NoMatch(t *testing.T) {
	d := BuildDashboard(records, coastal.Filters{DateFrom: "2030-01-01"})
	assert.True(t, d.Table.Empty)
	assert.Empty(t, d.Charts.Labels)
	assert.Len(t, d.Regions, 3, "regions come from all records")
	assert.True(t, d.Regions[0].Selected)
}
