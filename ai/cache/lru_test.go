package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests move time forward without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestCache[V any](capacity int, ttl time.Duration) (*LRUCache[string, V], *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string, V](capacity, ttl)
	c.now = clock.Now
	return c, clock
}

func TestLRUCache_Creation(t *testing.T) {
	testCases := []struct {
		name      string
		capacity  int
		expectCap int
	}{
		{"unbounded", 0, 0},
		{"negative treated as unbounded", -5, 0},
		{"bounded", 10, 10},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewLRUCache[string, int](tc.capacity, 0)
			assert.Equal(t, tc.expectCap, c.Capacity())
			assert.Equal(t, 0, c.Len())
		})
	}
}

func TestLRUCache_SetGet(t *testing.T) {
	c, _ := newTestCache[string](10, 0)

	c.Set("a", "1")
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "1", v)

	c.Set("a", "2")
	v, ok = c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "2", v)
	assert.Equal(t, 1, c.Len())

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestLRUCache_Eviction(t *testing.T) {
	c, _ := newTestCache[int](3, 0)

	var evicted []string
	c.OnEvict(func(key string, _ int) { evicted = append(evicted, key) })

	c.Set("k1", 1)
	c.Set("k2", 2)
	c.Set("k3", 3)

	// Touch k1 so k2 becomes the oldest.
	_, _ = c.Get("k1")
	c.Set("k4", 4)

	assert.Equal(t, 3, c.Len())
	assert.Equal(t, []string{"k2"}, evicted)

	_, ok := c.Peek("k2")
	assert.False(t, ok)
	assert.Equal(t, []string{"k4", "k1", "k3"}, c.Keys())
}

func TestLRUCache_UnboundedNeverEvicts(t *testing.T) {
	c, _ := newTestCache[int](0, 0)
	for i := 0; i < 1000; i++ {
		c.Set(string(rune('a'+i%26))+string(rune(i)), i)
	}
	assert.Equal(t, 1000, c.Len())
}

func TestLRUCache_TTL(t *testing.T) {
	c, clock := newTestCache[string](10, time.Minute)

	var evicted []string
	c.OnEvict(func(key string, _ string) { evicted = append(evicted, key) })

	c.Set("short", "x")
	c.SetWithTTL("long", "y", time.Hour)
	c.SetWithTTL("forever", "z", 0)

	clock.Advance(2 * time.Minute)

	_, ok := c.Get("short")
	assert.False(t, ok, "default TTL should have expired")
	_, ok = c.Get("long")
	assert.True(t, ok)
	_, ok = c.Get("forever")
	assert.True(t, ok)
	assert.Equal(t, []string{"short"}, evicted)

	clock.Advance(2 * time.Hour)
	assert.Equal(t, 1, c.CleanupExpired())
	assert.Equal(t, []string{"forever"}, c.Keys())
}

func TestLRUCache_RemoveAndClear(t *testing.T) {
	c, _ := newTestCache[int](10, 0)

	called := false
	c.OnEvict(func(string, int) { called = true })

	c.Set("a", 1)
	c.Set("b", 2)

	assert.True(t, c.Remove("a"))
	assert.False(t, c.Remove("a"))

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.False(t, called, "explicit removal must not fire the eviction callback")
}

func TestLRUCache_Concurrent(t *testing.T) {
	c := NewLRUCache[int, int](64, 0)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				c.Set(g*1000+i, i)
				_, _ = c.Get(g*1000 + i/2)
			}
		}(g)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 64)
}
