package weather

import (
	"context"
	"sync"

	"github.com/couchcryptid/weather-risk-engine/internal/domain"
	"github.com/couchcryptid/weather-risk-engine/internal/observability"
	"github.com/couchcryptid/weather-risk-engine/internal/risk"
)

// Source produces weather conditions for a location.
type Source interface {
	Fetch(ctx context.Context, location string) (domain.Conditions, error)
}

// CachedSource wraps a Source with a per-location LRU. Entries are served
// only while their current reading is fresh; fallback conditions carry no
// cache timestamp and are never stored.
type CachedSource struct {
	inner     Source
	freshness *risk.Freshness
	cache     *lruCache
	metrics   *observability.Metrics
}

// NewCachedSource creates a cache decorator around a source.
func NewCachedSource(inner Source, freshness *risk.Freshness, maxEntries int, metrics *observability.Metrics) *CachedSource {
	return &CachedSource{
		inner:     inner,
		freshness: freshness,
		cache:     newLRUCache(maxEntries),
		metrics:   metrics,
	}
}

func (c *CachedSource) Fetch(ctx context.Context, location string) (domain.Conditions, error) {
	if cond, ok := c.cache.get(location); ok {
		if c.freshness.IsValid(cond.Current.CachedAt) {
			c.metrics.ReadingCache.WithLabelValues("hit").Inc()
			return cond, nil
		}
		c.cache.delete(location)
		c.metrics.ReadingCache.WithLabelValues("stale").Inc()
	} else {
		c.metrics.ReadingCache.WithLabelValues("miss").Inc()
	}

	cond, err := c.inner.Fetch(ctx, location)
	if err != nil {
		return cond, err
	}
	if cond.Source == domain.SourcePrimary && c.freshness.IsValid(cond.Current.CachedAt) {
		c.cache.put(location, cond)
	}
	return cond, nil
}

// Invalidate drops every cached entry.
func (c *CachedSource) Invalidate() { c.cache.clear() }

// lruCache is a simple thread-safe LRU cache keyed by location.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value domain.Conditions
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: max(maxEntries, 1),
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (domain.Conditions, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.Conditions{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.Conditions) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.remove(e)
	}
}

func (c *lruCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*entry)
	c.head, c.tail = nil, nil
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
