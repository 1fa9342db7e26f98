// Package coastal filters coastal records and derives the display-only
// likelihood score.
package coastal

import (
	"math"
	"slices"
	"strings"

	"github.com/kjstillabower/coastal-change-dashboard/internal/models"
)

// Filters narrows a record set. Empty fields match everything. Dates are
// ISO-8601 and compared lexically, bounds inclusive.
type Filters struct {
	Region   string `json:"region"`
	DateFrom string `json:"dateFrom"`
	DateTo   string `json:"dateTo"`
}

// Match reports whether r passes every set filter.
func (f Filters) Match(r models.CoastalRecord) bool {
	if f.Region != "" && r.Region != f.Region {
		return false
	}
	if f.DateFrom != "" && r.Date < f.DateFrom {
		return false
	}
	if f.DateTo != "" && r.Date > f.DateTo {
		return false
	}
	return true
}

// Filter returns the records matching f in input order. records is not modified.
func Filter(records []models.CoastalRecord, f Filters) []models.CoastalRecord {
	out := make([]models.CoastalRecord, 0, len(records))
	for _, r := range records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// SortByDateAscending returns a copy of records stably sorted by Date.
func SortByDateAscending(records []models.CoastalRecord) []models.CoastalRecord {
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b models.CoastalRecord) int {
		return strings.Compare(a.Date, b.Date)
	})
	return out
}

// DeriveScore is a placeholder visualization of likelihood:
// clamp(0.1 + 0.4*seaLevel + 0.3*erosionRate + 0.2*precipitation, 0, 1).
// It is not a prediction. NaN inputs give 0.
func DeriveScore(r models.CoastalRecord) float64 {
	score := 0.1 + 0.4*r.SeaLevel + 0.3*r.ErosionRate + 0.2*r.Precipitation
	if math.IsNaN(score) {
		return 0
	}
	return math.Min(1, math.Max(0, score))
}

// UniqueRegions returns the distinct regions of records in first-seen order.
func UniqueRegions(records []models.CoastalRecord) []string {
	seen := make(map[string]struct{}, len(records))
	var out []string
	for _, r := range records {
		if _, ok := seen[r.Region]; ok {
			continue
		}
		seen[r.Region] = struct{}{}
		out = append(out, r.Region)
	}
	return out
}
