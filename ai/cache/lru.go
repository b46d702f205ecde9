// Package cache provides the in-process LRU cache shared by the agent's
// intent router and the in-memory user memory store.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// EvictFunc is called after an entry leaves the cache because of capacity
// pressure or expiry. It is not called for explicit Remove or Clear.
type EvictFunc[K comparable, V any] func(key K, value V)

// LRUCache is a thread-safe LRU cache with optional per-entry TTL.
//
// A capacity of zero means the cache is unbounded; a default TTL of zero
// means entries never expire unless a TTL is given at Set time.
type LRUCache[K comparable, V any] struct {
	mu         sync.Mutex
	items      map[K]*list.Element
	order      *list.List
	capacity   int
	defaultTTL time.Duration
	onEvict    EvictFunc[K, V]
	now        func() time.Time
}

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time // zero: never expires
}

// NewLRUCache creates a cache holding at most capacity entries.
func NewLRUCache[K comparable, V any](capacity int, defaultTTL time.Duration) *LRUCache[K, V] {
	if capacity < 0 {
		capacity = 0
	}
	if defaultTTL < 0 {
		defaultTTL = 0
	}
	return &LRUCache[K, V]{
		items:      make(map[K]*list.Element),
		order:      list.New(),
		capacity:   capacity,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// OnEvict registers a callback for capacity and expiry evictions.
func (c *LRUCache[K, V]) OnEvict(fn EvictFunc[K, V]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvict = fn
}

// Get returns the value for key and marks it as most recently used.
func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	el, ok := c.items[key]
	if !ok {
		c.mu.Unlock()
		var zero V
		return zero, false
	}
	e := el.Value.(*entry[K, V])
	if c.expired(e) {
		c.removeElement(el)
		fn := c.onEvict
		c.mu.Unlock()
		if fn != nil {
			fn(e.key, e.value)
		}
		var zero V
		return zero, false
	}
	c.order.MoveToFront(el)
	c.mu.Unlock()
	return e.value, true
}

// Peek returns the value for key without touching its recency.
func (c *LRUCache[K, V]) Peek(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry[K, V])
		if !c.expired(e) {
			return e.value, true
		}
	}
	var zero V
	return zero, false
}

// Set stores value under key using the default TTL.
func (c *LRUCache[K, V]) Set(key K, value V) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL stores value under key. A ttl of zero stores the entry without expiry.
func (c *LRUCache[K, V]) SetWithTTL(key K, value V, ttl time.Duration) {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.now().Add(ttl)
	}

	c.mu.Lock()
	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry[K, V])
		e.value = value
		e.expiresAt = expiresAt
		c.order.MoveToFront(el)
		c.mu.Unlock()
		return
	}

	c.items[key] = c.order.PushFront(&entry[K, V]{key: key, value: value, expiresAt: expiresAt})

	var evicted []*entry[K, V]
	for c.capacity > 0 && c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.removeElement(oldest)
		evicted = append(evicted, oldest.Value.(*entry[K, V]))
	}
	fn := c.onEvict
	c.mu.Unlock()

	if fn != nil {
		for _, e := range evicted {
			fn(e.key, e.value)
		}
	}
}

// Remove deletes key from the cache. It reports whether the key was present.
func (c *LRUCache[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return false
	}
	c.removeElement(el)
	return true
}

// Keys returns the live keys from most to least recently used.
func (c *LRUCache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]K, 0, len(c.items))
	for el := c.order.Front(); el != nil; el = el.Next() {
		e := el.Value.(*entry[K, V])
		if !c.expired(e) {
			keys = append(keys, e.key)
		}
	}
	return keys
}

// Len returns the number of stored entries, including expired ones not yet collected.
func (c *LRUCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Capacity returns the configured capacity (0 = unbounded).
func (c *LRUCache[K, V]) Capacity() int {
	return c.capacity
}

// Clear drops every entry without invoking the eviction callback.
func (c *LRUCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]*list.Element)
	c.order.Init()
}

// CleanupExpired removes expired entries and returns how many were dropped.
func (c *LRUCache[K, V]) CleanupExpired() int {
	c.mu.Lock()
	var evicted []*entry[K, V]
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		e := el.Value.(*entry[K, V])
		if c.expired(e) {
			c.removeElement(el)
			evicted = append(evicted, e)
		}
		el = prev
	}
	fn := c.onEvict
	c.mu.Unlock()

	if fn != nil {
		for _, e := range evicted {
			fn(e.key, e.value)
		}
	}
	return len(evicted)
}

// expired must be called with the lock held.
func (c *LRUCache[K, V]) expired(e *entry[K, V]) bool {
	return !e.expiresAt.IsZero() && c.now().After(e.expiresAt)
}

// removeElement must be called with the lock held.
func (c *LRUCache[K, V]) removeElement(el *list.Element) {
	c.order.Remove(el)
	delete(c.items, el.Value.(*entry[K, V]).key)
}
