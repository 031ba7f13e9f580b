package lru

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frozen[K comparable, V any](c *Cache[K, V], at time.Time) {
	c.now = func() time.Time { return at }
}

func TestCache_GetPut(t *testing.T) {
	c := New[string, int](2)
	c.Put("alice\x00web", 1)
	c.Put("bob\x00web", 2)

	v, ok := c.Get("alice\x00web")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = c.Get("bob\x00web")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := New[string, int](2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a")

	key, val, evicted := c.Put("c", 3)
	require.True(t, evicted)
	assert.Equal(t, "b", key)
	assert.Equal(t, 2, val)

	_, ok := c.Get("b")
	assert.False(t, ok)
	assert.Equal(t, []string{"c", "a"}, c.Keys())
}

func TestCache_UpdateDoesNotEvict(t *testing.T) {
	c := New[string, int](2)
	c.Put("a", 1)
	c.Put("b", 2)

	_, _, evicted := c.Put("a", 10)
	assert.False(t, evicted)
	assert.Equal(t, 2, c.Len())

	v, _ := c.Peek("a")
	assert.Equal(t, 10, v)
}

func TestCache_DeleteAndClear(t *testing.T) {
	c := New[string, int](3)
	c.Put("a", 1)
	c.Put("b", 2)

	assert.True(t, c.Delete("a"))
	assert.False(t, c.Delete("a"))
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Zero(t, c.Len())
	assert.Empty(t, c.Keys())
}

func TestCache_PeekKeepsOrder(t *testing.T) {
	c := New[string, int](2)
	c.Put("a", 1)
	c.Put("b", 2)

	_, ok := c.Peek("a")
	require.True(t, ok)

	key, _, _ := c.Put("c", 3)
	assert.Equal(t, "a", key)
}

func TestCache_PanicsOnZeroCapacity(t *testing.T) {
	assert.Panics(t, func() { New[string, int](0) })
}

func TestCache_TTL(t *testing.T) {
	now := time.Now()
	c := New[string, int](10, WithTTL[string, int](time.Minute))
	frozen(c, now)

	c.Put("a", 1)
	_, ok := c.Get("a")
	require.True(t, ok)

	frozen(c, now.Add(2*time.Minute))
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestCache_PutResetsTTL(t *testing.T) {
	now := time.Now()
	c := New[string, int](10, WithTTL[string, int](100*time.Millisecond))
	frozen(c, now)
	c.Put("a", 1)

	frozen(c, now.Add(80*time.Millisecond))
	c.Put("a", 2)

	frozen(c, now.Add(150*time.Millisecond))
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestCache_PerEntryTTL(t *testing.T) {
	now := time.Now()
	c := New[string, int](10)
	frozen(c, now)

	c.PutWithTTL("short", 1, 50*time.Millisecond)
	c.PutWithTTL("long", 2, time.Second)
	c.Put("forever", 3)

	frozen(c, now.Add(100*time.Millisecond))
	_, ok := c.Peek("short")
	assert.False(t, ok)
	assert.ElementsMatch(t, []string{"long", "forever"}, c.Keys())
}

func TestCache_Sweep(t *testing.T) {
	now := time.Now()
	var swept []string
	c := New[string, int](10,
		WithTTL[string, int](time.Minute),
		WithOnEvict[string, int](func(k string, _ int) { swept = append(swept, k) }),
	)
	frozen(c, now)
	c.Put("a", 1)
	c.Put("b", 2)
	c.PutWithTTL("c", 3, 0)

	frozen(c, now.Add(time.Hour))
	assert.Equal(t, 2, c.Sweep())
	assert.ElementsMatch(t, []string{"a", "b"}, swept)
	assert.Equal(t, []string{"c"}, c.Keys())
	assert.Equal(t, uint64(2), c.Metrics().Expirations)
}

func TestCache_OnEvictCapacity(t *testing.T) {
	var keys []string
	var vals []int
	c := New[string, int](1, WithOnEvict[string, int](func(k string, v int) {
		keys = append(keys, k)
		vals = append(vals, v)
	}))
	c.Put("a", 1)
	c.Put("b", 2)
	c.Delete("b")

	assert.Equal(t, []string{"a"}, keys)
	assert.Equal(t, []int{1}, vals)
}

func TestCache_OnEvictMayReenter(t *testing.T) {
	var c *Cache[string, int]
	c = New[string, int](1, WithOnEvict[string, int](func(string, int) {
		_ = c.Len()
	}))
	c.Put("a", 1)
	c.Put("b", 2)
	assert.Equal(t, 1, c.Len())
}

func TestCache_Metrics(t *testing.T) {
	c := New[string, int](2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a")
	c.Get("b")
	c.Get("missing")
	c.Put("c", 3)

	m := c.Metrics()
	assert.Equal(t, uint64(2), m.Hits)
	assert.Equal(t, uint64(1), m.Misses)
	assert.Equal(t, uint64(1), m.Evictions)
	assert.InDelta(t, 0.667, m.HitRate(), 0.01)
	assert.Zero(t, Metrics{}.HitRate())
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New[int, int](100, WithTTL[int, int](time.Minute))
	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				c.Put(offset*500+i, i)
				c.Get(offset*500 + i)
			}
		}(g)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 100)
}

func BenchmarkCache_Mixed(b *testing.B) {
	c := New[int, int](1000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if i%3 == 0 {
			c.Put(i, i)
		} else {
			c.Get(i)
		}
	}
}

func ExampleCache() {
	cache := New[string, int](2)
	cache.Put("a", 1)
	cache.Put("b", 2)

	v, _ := cache.Get("a")
	fmt.Println(v)

	cache.Put("c", 3)
	_, ok := cache.Get("b")
	fmt.Println(ok)

	// Output:
	// 1
	// false
}
