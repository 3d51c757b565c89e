package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/bananalabs-oss/clans/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityCache(t *testing.T) {
	t.Run("get put remove", func(t *testing.T) {
		c := New[string, int]("test_basic")

		_, ok := c.Get("a")
		assert.False(t, ok)

		c.Put("a", 1)
		v, ok := c.Get("a")
		require.True(t, ok)
		assert.Equal(t, 1, v)

		c.Put("a", 2)
		v, _ = c.Get("a")
		assert.Equal(t, 2, v)

		assert.True(t, c.Remove("a"))
		assert.False(t, c.Remove("a"))
		assert.Equal(t, 0, c.Len())
	})

	t.Run("load replaces contents", func(t *testing.T) {
		c := New[string, int]("test_load")
		c.Put("stale", 9)

		c.Load(map[string]int{"x": 1, "y": 2})

		_, ok := c.Get("stale")
		assert.False(t, ok)
		assert.ElementsMatch(t, []int{1, 2}, c.Values())
	})

	t.Run("remove func", func(t *testing.T) {
		c := New[int, int]("test_remove_func")
		for i := 0; i < 10; i++ {
			c.Put(i, i)
		}

		removed := c.RemoveFunc(func(_ int, v int) bool { return v%2 == 0 })

		assert.Len(t, removed, 5)
		assert.Equal(t, 5, c.Len())
		_, ok := c.Find(func(_ int, v int) bool { return v%2 == 0 })
		assert.False(t, ok)
	})

	t.Run("size gauge follows contents", func(t *testing.T) {
		c := New[string, int]("test_gauge")
		c.Put("a", 1)
		c.Put("b", 2)
		assert.Equal(t, float64(2), testutil.ToFloat64(metrics.CacheEntries.WithLabelValues("test_gauge")))

		c.Clear()
		assert.Equal(t, float64(0), testutil.ToFloat64(metrics.CacheEntries.WithLabelValues("test_gauge")))
	})
}

func TestEntityCacheConcurrentAccess(t *testing.T) {
	c := New[string, int]("test_concurrent")

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				key := fmt.Sprintf("%d-%d", w, i)
				c.Put(key, i)
				c.Get(key)
				if i%2 == 0 {
					c.Remove(key)
				}
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, 8*50, c.Len())
}
