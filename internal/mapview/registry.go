package mapview

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kjstillabower/coastal-change-dashboard/internal/observability"
)

// ErrNotFound is returned for ids that were never mounted, already unmounted
// or evicted.
var ErrNotFound = errors.New("map not found")

const defaultMaxHandles = 256

// Registry owns the mounted maps for the HTTP layer. Each mount gets its
// own handle; handles are never shared between mounts. When MaxHandles maps
// are mounted the least recently used one is unmounted to make room.
type Registry struct {
	opts Options
	max  int

	mu   sync.Mutex
	seq  uint64
	maps map[string]*entry
}

type entry struct {
	m    *Map
	used uint64
}

func NewRegistry(opts Options) *Registry {
	limit := opts.MaxHandles
	if limit <= 0 {
		limit = defaultMaxHandles
	}
	return &Registry{opts: opts, max: limit, maps: make(map[string]*entry)}
}

// Mount creates a map for backend under a fresh id.
func (r *Registry) Mount(backend Backend) (*Map, error) {
	m, err := New(backend, r.opts)
	if err != nil {
		return nil, err
	}
	m.id = uuid.New().String()

	r.mu.Lock()
	var evicted *Map
	if len(r.maps) >= r.max {
		evicted = r.evictLocked()
	}
	r.seq++
	r.maps[m.id] = &entry{m: m, used: r.seq}
	n := len(r.maps)
	r.mu.Unlock()

	if evicted != nil {
		evicted.Close()
		observability.MapHandlesEvictedTotal.Inc()
		if r.opts.Logger != nil {
			r.opts.Logger.Info("map handle evicted", zap.String("map_id", evicted.ID()), zap.Int("max_handles", r.max))
		}
	}
	observability.MapHandlesActive.Set(float64(n))
	return m, nil
}

// evictLocked removes the least recently used map and returns it.
func (r *Registry) evictLocked() *Map {
	var oldest *entry
	for _, e := range r.maps {
		if oldest == nil || e.used < oldest.used {
			oldest = e
		}
	}
	if oldest == nil {
		return nil
	}
	delete(r.maps, oldest.m.id)
	return oldest.m
}

// Get returns the map for id and marks it used.
func (r *Registry) Get(id string) (*Map, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.maps[id]
	if !ok {
		return nil, ErrNotFound
	}
	r.seq++
	e.used = r.seq
	return e.m, nil
}

// Unmount detaches and forgets the map.
func (r *Registry) Unmount(id string) error {
	r.mu.Lock()
	e, ok := r.maps[id]
	delete(r.maps, id)
	n := len(r.maps)
	r.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	e.m.Close()
	observability.MapHandlesActive.Set(float64(n))
	return nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.maps)
}

// CloseAll detaches every mounted map. Used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	maps := r.maps
	r.maps = make(map[string]*entry)
	r.mu.Unlock()

	for _, e := range maps {
		e.m.Close()
	}
	observability.MapHandlesActive.Set(0)
}
