// Package cache stores values with a TTL, either in process or in memcached.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Cache stores values of type V with a TTL. Get reports a miss as (zero, false, nil).
type Cache[V any] interface {
	Get(ctx context.Context, key string) (V, bool, error)
	Set(ctx context.Context, key string, value V, ttl time.Duration) error
}

// InMemoryCache implements Cache with a mutex-guarded map. Expired entries are
// removed on access.
type InMemoryCache[V any] struct {
	clock clockwork.Clock

	mu   sync.Mutex
	data map[string]cacheEntry[V]
}

type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// NewInMemoryCache creates an in-memory cache. A nil clock uses the real clock.
func NewInMemoryCache[V any](clock clockwork.Clock) *InMemoryCache[V] {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &InMemoryCache[V]{
		clock: clock,
		data:  make(map[string]cacheEntry[V]),
	}
}

func (c *InMemoryCache[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.data[key]
	if !ok {
		return zero, false, nil
	}
	if !c.clock.Now().Before(entry.expiresAt) {
		delete(c.data, key)
		return zero, false, nil
	}
	return entry.value, true, nil
}

func (c *InMemoryCache[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = cacheEntry[V]{
		value:     value,
		expiresAt: c.clock.Now().Add(ttl),
	}
	return nil
}
