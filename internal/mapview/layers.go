package mapview

import (
	"strings"

	"github.com/paulmach/orb"
)

// Layer titles. Titles are the lookup key for visibility changes.
const (
	TitleOSM                 = "OpenStreetMap"
	TitleGoogleMaps          = "Google Maps"
	TitleGoogleSatellite     = "Google Satellite"
	TitleUSGSOverlay         = "USGS Coastal Change Overlay"
	TitleUSGSTransects       = "USGS Transects (Alternative)"
	TitleUSGSHistorical      = "USGS Historical Shorelines"
	TitleReferencePoints     = "East Coast Reference Points"
	TitleShorelinePoints     = "MA Shoreline Points"
	TitleShorelineHeatmap    = "MA Shoreline Heatmap"
	TitleSimpleUSGS          = "USGS Coastal Change"
	TitleSimpleReferenceLine = "East Coast Line"
)

// Kind distinguishes background tiles from layers drawn over them.
type Kind string

const (
	KindBase    Kind = "base"
	KindOverlay Kind = "overlay"
)

// SourceType names what the browser engine should instantiate for a layer.
type SourceType string

const (
	SourceOSM     SourceType = "osm"
	SourceXYZ     SourceType = "xyz"
	SourceWMS     SourceType = "wms"
	SourceVector  SourceType = "vector"
	SourceHeatmap SourceType = "heatmap"
)

// Source describes where a layer's pixels or features come from.
type Source struct {
	Type        SourceType        `json:"type"`
	URL         string            `json:"url,omitempty"`
	Params      map[string]string `json:"params,omitempty"`
	Attribution string            `json:"attribution,omitempty"`
	// Heatmap rendering parameters.
	Blur   int `json:"blur,omitempty"`
	Radius int `json:"radius,omitempty"`
}

// Layer is one entry in a map's layer stack, bottom first.
type Layer struct {
	Title   string  `json:"title"`
	Kind    Kind    `json:"kind"`
	Visible bool    `json:"visible"`
	Opacity float64 `json:"opacity"`
	ZIndex  int     `json:"zIndex,omitempty"`
	Source  Source  `json:"source"`

	content content
}

// HasFeatures reports whether the layer is vector data served as GeoJSON.
func (l Layer) HasFeatures() bool { return l.content != contentNone }

type content int

const (
	contentNone content = iota
	contentReferencePoints
	contentReferenceLine
	contentShorelinePoints
	contentShorelineHeat
)

// Heatmap rendering parameters.
const (
	heatmapBlur   = 15
	heatmapRadius = 10
)

const (
	googleMapsURL      = "https://mt1.google.com/vt/lyrs=m&x={x}&y={y}&z={z}"
	googleSatelliteURL = "https://mt1.google.com/vt/lyrs=s&x={x}&y={y}&z={z}"
	usgsWMSURL         = "https://cida.usgs.gov/coastalchangehazardsportal/geoserver/wms"
	usgsTransectsURL   = "https://marine.usgs.gov/coastalchangehazardsportal/rest/services/National_Assessment/national_baseline_transects/MapServer/tile/{z}/{y}/{x}"
	usgsHistoricalURL  = "https://marine.usgs.gov/coastalchangehazardsportal/rest/services/DigitalShorelineData/historical_shorelines/MapServer/tile/{z}/{y}/{x}"
	usgsRatesURL       = "https://coastalmap.marine.usgs.gov/cmgp/rest/services/CoastalChangeHazardsPortal/ShorelineChangeRates/MapServer/tile/{z}/{y}/{x}"

	attributionUSGS = "USGS Coastal Change Hazards Portal"
)

// ReferencePlace is one stop on the East Coast reference path.
type ReferencePlace struct {
	Name  string
	Point orb.Point
}

// ReferencePath runs north to south along the East Coast.
var ReferencePath = []ReferencePlace{
	{"Maine", orb.Point{-66.9647, 44.8101}},
	{"Massachusetts", orb.Point{-71.3824, 42.4072}},
	{"New York", orb.Point{-74.0060, 40.7128}},
	{"Maryland", orb.Point{-76.6122, 39.2904}},
	{"DC", orb.Point{-77.0369, 38.9072}},
	{"Virginia", orb.Point{-76.2859, 36.8508}},
	{"North Carolina", orb.Point{-77.9447, 34.2257}},
	{"Georgia", orb.Point{-81.0998, 32.0835}},
	{"Florida", orb.Point{-80.1918, 25.7617}},
}

// withKey appends the provider API key to a tile URL template.
func withKey(tileURL, key string) string {
	if key == "" {
		return tileURL
	}
	sep := "?"
	if strings.Contains(tileURL, "?") {
		sep = "&"
	}
	return tileURL + sep + "key=" + key
}

func richLayers(overlayVisible bool, apiKey string) []Layer {
	return []Layer{
		{Title: TitleOSM, Kind: KindBase, Visible: true, Opacity: 1, Source: Source{Type: SourceOSM}},
		{
			Title: TitleGoogleMaps, Kind: KindBase, Opacity: 1,
			Source: Source{Type: SourceXYZ, URL: withKey(googleMapsURL, apiKey), Attribution: "©2024 Google Maps"},
		},
		{
			Title: TitleGoogleSatellite, Kind: KindBase, Opacity: 1,
			Source: Source{Type: SourceXYZ, URL: withKey(googleSatelliteURL, apiKey), Attribution: "©2024 Google Satellite"},
		},
		{
			Title: TitleUSGSOverlay, Kind: KindOverlay, Visible: overlayVisible, Opacity: 0.7, ZIndex: 5,
			Source: Source{
				Type: SourceWMS,
				URL:  usgsWMSURL,
				Params: map[string]string{
					"LAYERS":      "ccap:SC_shorelines_shellpoint",
					"TILED":       "true",
					"FORMAT":      "image/png",
					"TRANSPARENT": "true",
				},
				Attribution: attributionUSGS,
			},
		},
		{
			Title: TitleUSGSTransects, Kind: KindOverlay, Opacity: 0.7,
			Source: Source{Type: SourceXYZ, URL: usgsTransectsURL, Attribution: attributionUSGS},
		},
		{
			Title: TitleUSGSHistorical, Kind: KindOverlay, Visible: overlayVisible, Opacity: 0.8,
			Source: Source{Type: SourceXYZ, URL: usgsHistoricalURL, Attribution: "USGS Historical Shorelines"},
		},
		{
			Title: TitleReferencePoints, Kind: KindOverlay, Visible: true, Opacity: 1,
			Source: Source{Type: SourceVector}, content: contentReferencePoints,
		},
		{
			Title: TitleShorelinePoints, Kind: KindOverlay, Visible: true, Opacity: 1,
			Source: Source{Type: SourceVector}, content: contentShorelinePoints,
		},
		{
			Title: TitleShorelineHeatmap, Kind: KindOverlay, Opacity: 1,
			Source:  Source{Type: SourceHeatmap, Blur: heatmapBlur, Radius: heatmapRadius},
			content: contentShorelineHeat,
		},
	}
}

func simpleLayers(overlayVisible bool) []Layer {
	return []Layer{
		{Title: TitleOSM, Kind: KindBase, Visible: true, Opacity: 1, Source: Source{Type: SourceOSM}},
		{
			Title: TitleSimpleUSGS, Kind: KindOverlay, Visible: overlayVisible, Opacity: 1,
			Source: Source{Type: SourceXYZ, URL: usgsRatesURL, Attribution: attributionUSGS},
		},
		{
			Title: TitleSimpleReferenceLine, Kind: KindOverlay, Visible: true, Opacity: 1,
			Source: Source{Type: SourceVector}, content: contentReferenceLine,
		},
	}
}

// overlayTitles lists the layers driven by the overlay toggle.
func overlayTitles(b Backend) []string {
	if b == BackendSimple {
		return []string{TitleSimpleUSGS}
	}
	return []string{TitleUSGSOverlay, TitleUSGSHistorical}
}
