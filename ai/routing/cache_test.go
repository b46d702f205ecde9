package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouterCache_GetSet(t *testing.T) {
	c := NewRouterCache(CacheConfig{})

	_, ok := c.Get("prompt-a")
	assert.False(t, ok)

	c.Set("prompt-a", IntentCancel)
	intent, ok := c.Get("prompt-a")
	assert.True(t, ok)
	assert.Equal(t, IntentCancel, intent)

	stats := c.GetStats()
	assert.EqualValues(t, 1, stats.Hits)
	assert.EqualValues(t, 1, stats.Misses)
	assert.InDelta(t, 0.5, stats.HitRate, 0.001)
	assert.Equal(t, 1, stats.Size)
}

func TestRouterCache_Capacity(t *testing.T) {
	c := NewRouterCache(CacheConfig{Capacity: 2})

	c.Set("a", IntentGeneral)
	c.Set("b", IntentGeneral)
	c.Set("c", IntentGeneral)

	assert.Equal(t, 2, c.GetStats().Size)
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestRouterCache_Clear(t *testing.T) {
	c := NewRouterCache(CacheConfig{})
	c.Set("a", IntentComplaint)
	_, _ = c.Get("a")

	c.Clear()
	assert.Equal(t, Stats{}, c.GetStats())
}

func TestHashKey_Stable(t *testing.T) {
	assert.Equal(t, hashKey("x"), hashKey("x"))
	assert.NotEqual(t, hashKey("x"), hashKey("y"))
}
