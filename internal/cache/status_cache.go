// Package cache provides TTL-based memoization of device status fetches.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ucdmkt/sesame-exporter/internal/types"
)

var (
	cacheHitRatio = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sesame_exporter_cache_hit_ratio",
		Help: "Cache hit ratio for device status fetches",
	})

	cacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sesame_exporter_cache_size_entries",
		Help: "Number of entries in the status cache",
	})

	apiCallsSaved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sesame_exporter_api_calls_saved_total",
		Help: "Number of vendor API calls saved by caching",
	})
)

// ErrNoFetchFunction is returned when no fetch function is provided to the cache.
var ErrNoFetchFunction = fmt.Errorf("no fetch function provided")

// Key identifies a cache entry. The API key is part of the key so a
// credential change never serves a result fetched with the old one.
type Key struct {
	Name   types.DeviceName
	UUID   types.DeviceUUID
	APIKey string
}

// FetchFunc fetches a fresh status payload for one device.
type FetchFunc func(ctx context.Context, name types.DeviceName, uuid types.DeviceUUID) (map[string]any, error)

type entry struct {
	payload  map[string]any
	storedAt time.Time
}

// StatusCache memoizes the last successful status payload per device for
// a fixed TTL. All table accesses are serialized through one mutex; the
// wrapped fetch always runs outside it.
type StatusCache struct {
	mu        sync.Mutex
	entries   map[Key]entry
	ttl       time.Duration
	fetch     FetchFunc
	hitCount  uint64
	missCount uint64

	now func() time.Time
}

// NewStatusCache creates a new status cache with the given TTL wrapping
// the provided fetch function.
func NewStatusCache(ttl time.Duration, fetch FetchFunc) *StatusCache {
	return &StatusCache{
		entries: make(map[Key]entry),
		ttl:     ttl,
		fetch:   fetch,
		now:     time.Now,
	}
}

// GetOrFetch returns the cached payload for key if one exists, is younger
// than the TTL, and bypass is false; the second return value reports
// whether the result was served from cache. Otherwise the wrapped fetch
// runs and, on success, its result overwrites the entry. Failed fetches
// leave any previous entry untouched and are never cached.
func (c *StatusCache) GetOrFetch(ctx context.Context, key Key, bypass bool) (map[string]any, bool, error) {
	if c.fetch == nil {
		return nil, false, ErrNoFetchFunction
	}

	c.mu.Lock()
	if e, ok := c.entries[key]; ok && !bypass && c.now().Sub(e.storedAt) < c.ttl {
		c.hitCount++
		apiCallsSaved.Inc()
		c.updateMetrics()
		c.mu.Unlock()
		return e.payload, true, nil
	}
	c.missCount++
	c.updateMetrics()
	c.mu.Unlock()

	payload, err := c.fetch(ctx, key.Name, key.UUID)
	if err != nil {
		return nil, false, err
	}

	c.mu.Lock()
	c.entries[key] = entry{payload: payload, storedAt: c.now()}
	c.updateMetrics()
	c.mu.Unlock()

	return payload, false, nil
}

// Clear removes all entries from the cache.
func (c *StatusCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[Key]entry)
	c.hitCount = 0
	c.missCount = 0
	c.updateMetrics()
}

// caller must hold c.mu
func (c *StatusCache) updateMetrics() {
	total := c.hitCount + c.missCount
	if total > 0 {
		cacheHitRatio.Set(float64(c.hitCount) / float64(total))
	}
	cacheSize.Set(float64(len(c.entries)))
}
