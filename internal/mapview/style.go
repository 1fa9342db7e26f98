package mapview

import (
	"math"
	"strconv"
	"strings"
)

// MarkerStyle is the rendering of one shoreline point in the dots layer.
type MarkerStyle struct {
	Fill         string  `json:"fill"`
	Stroke       string  `json:"stroke"`
	StrokeWidth  float64 `json:"strokeWidth"`
	Radius       float64 `json:"radius"`
	Label        string  `json:"label,omitempty"`
	LabelOffsetY float64 `json:"labelOffsetY,omitempty"`
}

const (
	maxStyledRate  = 3.0
	labelMagnitude = 0.6
)

// Magnitude normalizes |rate| into [0,1], saturating at 3 m/yr.
func Magnitude(rate float64) float64 {
	return math.Min(math.Abs(rate), maxStyledRate) / maxStyledRate
}

// StyleFor returns the marker style for an erosion rate. Erosion (rate < 0)
// is drawn in red shades, accretion in green; size grows with magnitude and
// large points carry a short location label.
func StyleFor(rate float64, location string) MarkerStyle {
	m := Magnitude(rate)
	var rgba []float64
	if rate < 0 {
		rgba = []float64{255, 50 + (1-m)*150, 50, 0.8}
	} else {
		rgba = []float64{50, 150 + m*100, 50, 0.8}
	}
	radius := 5 + m*7

	s := MarkerStyle{
		Fill:        formatRGBA(rgba),
		Stroke:      "white",
		StrokeWidth: 1,
		Radius:      radius,
	}
	if m > labelMagnitude {
		s.Label = prefix(location, 3)
		s.LabelOffsetY = -radius - 8
	}
	return s
}

// HeatmapWeight is the heat contribution of a point; erosion and accretion
// both count.
func HeatmapWeight(rate float64) float64 {
	return math.Min(1, math.Abs(rate)/2)
}

func formatRGBA(c []float64) string {
	parts := make([]string, len(c))
	for i, v := range c {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return "rgba(" + strings.Join(parts, ",") + ")"
}

func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}
