package mapview

// LegendItem is one swatch of the map legend. Color is empty for text-only rows.
type LegendItem struct {
	Color string `json:"color,omitempty"`
	Label string `json:"label"`
}

type Legend struct {
	Title string       `json:"title"`
	Items []LegendItem `json:"items"`
}

type Link struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// Attribution is the badge drawn on the map plus the sources line below it.
type Attribution struct {
	Badge   string `json:"badge"`
	Sources string `json:"sources"`
	Link    Link   `json:"link"`
}

// Camera is the initial map center and zoom.
type Camera struct {
	Center [2]float64 `json:"center"` // lon, lat
	Zoom   int        `json:"zoom"`
}

// View is the serializable state of a mounted map.
type View struct {
	ID             string        `json:"id"`
	Backend        Backend       `json:"provider"`
	Height         string        `json:"height"`
	Camera         Camera        `json:"camera"`
	Layers         []Layer       `json:"layers"`
	Visualization  Visualization `json:"visualization,omitempty"`
	OverlayVisible bool          `json:"overlayVisible"`
	PointCount     int           `json:"pointCount"`
	Legend         *Legend       `json:"legend,omitempty"`
	Attribution    *Attribution  `json:"attribution,omitempty"`
	Popup          *Popup        `json:"popup,omitempty"`
	Debug          []DebugEntry  `json:"debug,omitempty"`
}

var shorelineLegend = Legend{
	Title: "Legend",
	Items: []LegendItem{
		{Color: "rgba(255,50,50,0.8)", Label: "Erosion (loss)"},
		{Color: "rgba(50,200,50,0.8)", Label: "Accretion (gain)"},
		{Label: "Size indicates rate"},
	},
}

var shorelineAttribution = Attribution{
	Badge:   "©2024 Google",
	Sources: "Data sources: OpenStreetMap, Google Maps, USGS Coastal Change Hazards Portal",
	Link: Link{
		Text: "USGS Massachusetts Shoreline Change Data",
		URL:  "https://cmgds.marine.usgs.gov/data/whcmsc/data-release/doi-F73J3B0B/",
	},
}

// View snapshots the map. Detached maps still report their last state.
func (m *Map) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := View{
		ID:             m.id,
		Backend:        m.backend,
		Layers:         append([]Layer(nil), m.layers...),
		OverlayVisible: m.overlayVisible,
		PointCount:     len(m.points),
	}
	if m.backend == BackendSimple {
		v.Height = "400px"
		v.Camera = Camera{Center: [2]float64{-76.2859, 36.8508}, Zoom: 5}
		return v
	}

	v.Height = "500px"
	v.Camera = Camera{Center: [2]float64{-70.8, 42.0}, Zoom: 7}
	v.Visualization = m.viz
	legend, attribution := shorelineLegend, shorelineAttribution
	v.Legend, v.Attribution = &legend, &attribution
	if m.popup != nil {
		p := *m.popup
		v.Popup = &p
	}
	if m.opts.DevMode {
		for i, l := range m.layers {
			v.Debug = append(v.Debug, DebugEntry{Index: i, Title: l.Title, Visible: l.Visible})
		}
	}
	return v
}
