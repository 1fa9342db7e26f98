package coastal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kjstillabower/coastal-change-dashboard/internal/models"
)

var records = []models.CoastalRecord{
	{ID: 1, Region: "Cape Cod", Date: "2021-03-01", SeaLevel: 0.4, ErosionRate: -0.6, Precipitation: 1.1},
	{ID: 2, Region: "Boston Harbor", Date: "2019-07-15", SeaLevel: 0.2, ErosionRate: 0.3, Precipitation: 0.5},
	{ID: 3, Region: "Cape Cod", Date: "2020-01-01", SeaLevel: 0.5, ErosionRate: -0.8, Precipitation: 0.9},
	{ID: 4, Region: "Martha's Vineyard", Date: "2021-03-01", SeaLevel: 0.7, ErosionRate: -1.5, Precipitation: 1.4},
	{ID: 5, Region: "Boston Harbor", Date: "2022-11-30", SeaLevel: 0.3, ErosionRate: 0.4, Precipitation: 0.7},
}

func ids(rs []models.CoastalRecord) []int64 {
	out := make([]int64, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.ID)
	}
	return out
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name string
		f    Filters
		want []int64
	}{
		{"no filters", Filters{}, []int64{1, 2, 3, 4, 5}},
		{"region", Filters{Region: "Cape Cod"}, []int64{1, 3}},
		{"from inclusive", Filters{DateFrom: "2021-03-01"}, []int64{1, 4, 5}},
		{"to inclusive", Filters{DateTo: "2020-01-01"}, []int64{2, 3}},
		{"range and region", Filters{Region: "Boston Harbor", DateFrom: "2020-01-01", DateTo: "2023-01-01"}, []int64{5}},
		{"unknown region", Filters{Region: "Nantucket"}, []int64{}},
		{"inverted range", Filters{DateFrom: "2023-01-01", DateTo: "2019-01-01"}, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(records, tt.f)))
		})
	}
}

// TestFilter_Properties verifies that the filtered set is a subset of the
// input, every kept record matches, and the input is untouched.
func TestFilter_Properties(t *testing.T) {
	orig := append([]models.CoastalRecord(nil), records...)
	f := Filters{Region: "Cape Cod", DateFrom: "2020-06-01"}

	got := Filter(records, f)

	assert.Equal(t, orig, records)
	assert.Subset(t, records, got)
	for _, r := range got {
		assert.True(t, f.Match(r))
	}
	for _, r := range records {
		if f.Match(r) {
			assert.Contains(t, got, r)
		}
	}
}

func TestFilter_Empty(t *testing.T) {
	assert.Empty(t, Filter(nil, Filters{Region: "x"}))
}

// TestSortByDateAscending verifies ascending order, stability for equal dates,
// and that the input is not reordered.
func TestSortByDateAscending(t *testing.T) {
	orig := append([]models.CoastalRecord(nil), records...)

	got := SortByDateAscending(records)

	assert.Equal(t, []int64{2, 3, 1, 4, 5}, ids(got))
	assert.Equal(t, orig, records)
	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i-1].Date, got[i].Date)
	}
}

func TestDeriveScore(t *testing.T) {
	tests := []struct {
		name string
		r    models.CoastalRecord
		want float64
	}{
		{"zero inputs", models.CoastalRecord{}, 0.1},
		{"mid range", models.CoastalRecord{SeaLevel: 0.5, ErosionRate: 0.5, Precipitation: 0.5}, 0.55},
		{"clamped high", models.CoastalRecord{SeaLevel: 3, ErosionRate: 1, Precipitation: 100}, 1},
		{"clamped low", models.CoastalRecord{SeaLevel: 0, ErosionRate: -5, Precipitation: 0}, 0},
		{"NaN", models.CoastalRecord{SeaLevel: math.NaN()}, 0},
		{"+Inf", models.CoastalRecord{Precipitation: math.Inf(1)}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, DeriveScore(tt.r), 1e-9)
		})
	}
}

// TestDeriveScore_InUnitInterval verifies the score is within [0,1] across a
// sweep of inputs.
func TestDeriveScore_InUnitInterval(t *testing.T) {
	for sl := -100.0; sl <= 100; sl += 12.5 {
		for er := -10.0; er <= 10; er += 2.5 {
			for p := 0.0; p <= 500; p += 125 {
				s := DeriveScore(models.CoastalRecord{SeaLevel: sl, ErosionRate: er, Precipitation: p})
				assert.GreaterOrEqual(t, s, 0.0)
				assert.LessOrEqual(t, s, 1.0)
			}
		}
	}
}

func TestUniqueRegions(t *testing.T) {
	assert.Equal(t, []string{"Cape Cod", "Boston Harbor", "Martha's Vineyard"}, UniqueRegions(records))
	assert.Empty(t, UniqueRegions(nil))
}
