package routing

import (
	"crypto/sha256"
	"encoding/hex"
	"sync/atomic"
	"time"

	"github.com/hrygo/loconomy/ai/cache"
)

// CacheConfig contains configuration for RouterCache.
type CacheConfig struct {
	Capacity int           // Maximum number of entries (default: 500)
	TTL      time.Duration // Entry lifetime (default: 30min)
}

// RouterCache remembers LLM classifications so repeated prompts skip the
// completion call.
type RouterCache struct {
	cache  *cache.LRUCache[string, Intent]
	hits   atomic.Int64
	misses atomic.Int64
}

// Stats reports cache effectiveness.
type Stats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
	Size    int     `json:"size"`
}

// NewRouterCache creates a new router cache.
func NewRouterCache(cfg CacheConfig) *RouterCache {
	if cfg.Capacity <= 0 {
		cfg.Capacity = 500
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Minute
	}
	return &RouterCache{
		cache: cache.NewLRUCache[string, Intent](cfg.Capacity, cfg.TTL),
	}
}

// Get returns a cached intent for prompt.
func (c *RouterCache) Get(prompt string) (Intent, bool) {
	intent, ok := c.cache.Get(hashKey(prompt))
	if !ok {
		c.misses.Add(1)
		return "", false
	}
	c.hits.Add(1)
	return intent, true
}

// Set caches intent for prompt.
func (c *RouterCache) Set(prompt string, intent Intent) {
	c.cache.Set(hashKey(prompt), intent)
}

// Clear drops all entries and resets counters.
func (c *RouterCache) Clear() {
	c.cache.Clear()
	c.hits.Store(0)
	c.misses.Store(0)
}

// GetStats returns current cache statistics.
func (c *RouterCache) GetStats() Stats {
	hits, misses := c.hits.Load(), c.misses.Load()
	rate := 0.0
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total)
	}
	return Stats{Hits: hits, Misses: misses, HitRate: rate, Size: c.cache.Len()}
}

func hashKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return "route:" + hex.EncodeToString(sum[:16])
}
