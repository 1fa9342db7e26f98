// Package mapview holds the state of mounted maps: layer stacks for the two
// backends, the dots/heatmap visualization mode, popups and the debug panel.
// Rendering is left to the browser engine; this package only decides what it
// draws.
package mapview

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"go.uber.org/zap"

	"github.com/kjstillabower/coastal-change-dashboard/internal/models"
)

var (
	// ErrDetached is returned by mutations after Close.
	ErrDetached           = errors.New("map is detached")
	ErrUnsupported        = errors.New("operation not supported by map backend")
	ErrUnknownLayer       = errors.New("unknown layer")
	ErrUnknownBackend     = errors.New("unknown map backend")
	ErrUnknownMode        = errors.New("unknown visualization mode")
	ErrDebugDisabled      = errors.New("debug panel is only available in dev mode")
	ErrLayerHasNoFeatures = errors.New("layer has no vector features")
)

// Backend selects which map engine configuration is mounted.
type Backend string

const (
	// BackendOpenLayers is the rich backend: extra base layers, shoreline
	// markers, heatmap, popup and debug panel.
	BackendOpenLayers Backend = "openlayers"
	// BackendSimple draws base tiles, one USGS overlay and the reference line.
	BackendSimple Backend = "simple"
)

// Backends lists the selectable backends in selector order.
var Backends = []Backend{BackendOpenLayers, BackendSimple}

// Label is the selector caption.
func (b Backend) Label() string {
	if b == BackendSimple {
		return "Simple Map"
	}
	return "OpenLayers"
}

// ParseBackend accepts a provider name case-insensitively.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case BackendOpenLayers, BackendSimple:
		return b, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBackend, s)
}

// Visualization is the shoreline rendering mode of the rich backend.
type Visualization string

const (
	Dots    Visualization = "dots"
	Heatmap Visualization = "heatmap"
)

func ParseVisualization(s string) (Visualization, error) {
	switch v := Visualization(strings.ToLower(strings.TrimSpace(s))); v {
	case Dots, Heatmap:
		return v, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Options configure a mounted map.
type Options struct {
	DevMode        bool
	TilesAPIKey    string
	ClickTolerance float64 // degrees
	// OverlayHidden starts the USGS overlays hidden.
	OverlayHidden bool
	// MaxHandles caps a Registry; 0 uses the default.
	MaxHandles int
	Logger     *zap.Logger
}

const defaultClickTolerance = 0.05

// Popup is the feature info shown after a click on a shoreline point.
type Popup struct {
	Location        string  `json:"location"`
	Date            string  `json:"date"`
	ErosionRate     string  `json:"erosionRate"`
	ShorelineChange string  `json:"shorelineChange"`
	Longitude       float64 `json:"longitude"`
	Latitude        float64 `json:"latitude"`
}

// DebugEntry is one row of the layer debug panel.
type DebugEntry struct {
	Index   int    `json:"index"`
	Title   string `json:"title"`
	Visible bool   `json:"visible"`
}

// Map is one mounted map. It is owned by a single mount and released with
// Close; all methods are safe for concurrent use.
type Map struct {
	id      string
	backend Backend
	opts    Options
	logger  *zap.Logger

	mu             sync.Mutex
	detached       bool
	layers         []Layer
	viz            Visualization
	overlayVisible bool
	points         []models.ShorelinePoint
	popup          *Popup
}

// New mounts a map for backend.
func New(backend Backend, opts Options) (*Map, error) {
	if _, err := ParseBackend(string(backend)); err != nil {
		return nil, err
	}
	if opts.ClickTolerance <= 0 {
		opts.ClickTolerance = defaultClickTolerance
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Map{
		backend:        backend,
		opts:           opts,
		logger:         logger.With(zap.String("map_backend", string(backend))),
		viz:            Dots,
		overlayVisible: !opts.OverlayHidden,
	}
	if backend == BackendSimple {
		m.layers = simpleLayers(m.overlayVisible)
	} else {
		m.layers = richLayers(m.overlayVisible, opts.TilesAPIKey)
	}
	return m, nil
}

func (m *Map) ID() string       { return m.id }
func (m *Map) Backend() Backend { return m.backend }

// Close detaches the map. It is idempotent.
func (m *Map) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detached = true
	m.points = nil
	m.popup = nil
}

// Layers returns a copy of the layer stack, bottom first.
func (m *Map) Layers() []Layer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Layer(nil), m.layers...)
}

// Visualization returns the current mode. The simple backend always reports Dots.
func (m *Map) Visualization() Visualization {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viz
}

// OverlayVisible reports the last requested overlay visibility.
func (m *Map) OverlayVisible() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.overlayVisible
}

// SetOverlayVisible shows or hides the USGS overlays. Failures are logged and
// dropped; layers already updated stay updated.
func (m *Map) SetOverlayVisible(visible bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.setOverlayVisibleLocked(visible); err != nil {
		m.logger.Warn("overlay visibility update failed",
			zap.String("map_id", m.id),
			zap.Bool("visible", visible),
			zap.Error(err),
		)
	}
}

func (m *Map) setOverlayVisibleLocked(visible bool) error {
	if m.detached {
		return ErrDetached
	}
	m.overlayVisible = visible
	for _, title := range overlayTitles(m.backend) {
		i := m.indexLocked(title)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrUnknownLayer, title)
		}
		m.layers[i].Visible = visible
		if title == TitleUSGSOverlay {
			m.layers[i].Opacity = 0.7
		}
	}
	return nil
}

// SetShorelineData replaces the points behind the dots and heatmap layers.
// Points without a position are skipped.
func (m *Map) SetShorelineData(points []models.ShorelinePoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.detached {
		return ErrDetached
	}
	if m.backend != BackendOpenLayers {
		return ErrUnsupported
	}
	m.points = m.points[:0]
	for _, p := range points {
		if p.HasPosition() {
			m.points = append(m.points, p)
		}
	}
	m.popup = nil
	m.applyVisualizationLocked()
	return nil
}

// ShorelinePoints returns the points currently drawn.
func (m *Map) ShorelinePoints() []models.ShorelinePoint {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.ShorelinePoint(nil), m.points...)
}

// SetVisualization switches between Dots and Heatmap. Exactly one of the
// two shoreline layers is visible afterwards.
func (m *Map) SetVisualization(v Visualization) error {
	if _, err := ParseVisualization(string(v)); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.detached {
		return ErrDetached
	}
	if m.backend != BackendOpenLayers {
		return ErrUnsupported
	}
	m.viz = v
	m.applyVisualizationLocked()
	return nil
}

func (m *Map) applyVisualizationLocked() {
	if i := m.indexLocked(TitleShorelinePoints); i >= 0 {
		m.layers[i].Visible = m.viz == Dots
	}
	if i := m.indexLocked(TitleShorelineHeatmap); i >= 0 {
		m.layers[i].Visible = m.viz == Heatmap
	}
}

// Click selects the nearest shoreline point within the click tolerance and
// opens its popup. A click on empty map closes the popup and returns nil.
func (m *Map) Click(lon, lat float64) (*Popup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.detached {
		return nil, ErrDetached
	}
	if m.backend != BackendOpenLayers {
		return nil, ErrUnsupported
	}

	at := orb.Point{lon, lat}
	best, bestDist := -1, m.opts.ClickTolerance
	for i, p := range m.points {
		if d := planar.Distance(at, orb.Point{p.Longitude, p.Latitude}); d <= bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		m.popup = nil
		return nil, nil
	}

	p := m.points[best]
	location := p.Location
	if location == "" {
		location = "Shoreline Point"
	}
	m.popup = &Popup{
		Location:        location,
		Date:            p.Date,
		ErosionRate:     fmt.Sprintf("%.2f", p.ErosionRate),
		ShorelineChange: fmt.Sprintf("%.2f", p.ShorelineChange),
		Longitude:       lon,
		Latitude:        lat,
	}
	popup := *m.popup
	return &popup, nil
}

// Popup returns the open popup, or nil.
func (m *Map) Popup() *Popup {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.popup == nil {
		return nil
	}
	p := *m.popup
	return &p
}

func (m *Map) ClosePopup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.popup = nil
}

// DebugPanel lists every layer with its visibility. Dev mode only.
func (m *Map) DebugPanel() ([]DebugEntry, error) {
	if !m.opts.DevMode {
		return nil, ErrDebugDisabled
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.detached {
		return nil, ErrDetached
	}
	out := make([]DebugEntry, len(m.layers))
	for i, l := range m.layers {
		title := l.Title
		if title == "" {
			title = fmt.Sprintf("Layer %d", i)
		}
		out[i] = DebugEntry{Index: i, Title: title, Visible: l.Visible}
	}
	return out, nil
}

// SetLayerVisible is the debug panel checkbox. It bypasses the visualization
// mode, so both shoreline layers can end up visible.
func (m *Map) SetLayerVisible(title string, visible bool) error {
	if !m.opts.DevMode {
		return ErrDebugDisabled
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.detached {
		return ErrDetached
	}
	i := m.indexLocked(title)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownLayer, title)
	}
	m.layers[i].Visible = visible
	return nil
}

func (m *Map) indexLocked(title string) int {
	for i, l := range m.layers {
		if l.Title == title {
			return i
		}
	}
	return -1
}
