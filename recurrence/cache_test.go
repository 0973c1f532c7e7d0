package recurrence

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecurrenceCache_BasicOperations(t *testing.T) {
	cache := NewRecurrenceCache(CacheConfig{
		TTL:             5 * time.Minute,
		MaxEntries:      100,
		CleanupInterval: 1 * time.Minute,
	})
	defer cache.Close()

	rule := NewRule(date(2025, 9, 21), Daily{}).Until(date(2025, 9, 24))
	key := Fingerprint(rule, DefaultMaxOccurrences)

	// Cache miss first
	result, found := cache.Get(key)
	assert.False(t, found)
	assert.Nil(t, result)

	dates := Expand(rule, DefaultMaxOccurrences)
	cache.Set(key, dates)

	result, found = cache.Get(key)
	require.True(t, found)
	assert.Equal(t, dates, result)
}

func TestRecurrenceCache_TTLExpiration(t *testing.T) {
	cache := NewRecurrenceCache(CacheConfig{
		TTL:             time.Minute,
		MaxEntries:      100,
		CleanupInterval: time.Hour,
	})
	defer cache.Close()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	cache.Set("k", []time.Time{date(2025, 1, 1)})
	_, found := cache.Get("k")
	assert.True(t, found, "expected hit immediately after set")

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, cache.Stats().ExpiredEntries)

	_, found = cache.Get("k")
	assert.False(t, found, "expected miss after TTL expiration")
	assert.Equal(t, 0, cache.Stats().TotalEntries)
}

func TestRecurrenceCache_StoresCopies(t *testing.T) {
	cache := NewRecurrenceCache(DefaultCacheConfig)
	defer cache.Close()

	in := []time.Time{date(2025, 1, 1), date(2025, 1, 2)}
	cache.Set("k", in)
	in[0] = date(1999, 1, 1)

	out, _ := cache.Get("k")
	assert.Equal(t, date(2025, 1, 1), out[0])

	out[1] = date(1999, 1, 1)
	again, _ := cache.Get("k")
	assert.Equal(t, date(2025, 1, 2), again[1])
}

func TestRecurrenceCache_MaxEntriesEviction(t *testing.T) {
	cache := NewRecurrenceCache(CacheConfig{
		TTL:             5 * time.Minute,
		MaxEntries:      3,
		CleanupInterval: time.Hour,
	})
	defer cache.Close()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		now = now.Add(time.Second)
		cache.Set(fmt.Sprintf("k%d", i), nil)
	}

	// touch k0 so k1 becomes the least recently used
	now = now.Add(time.Second)
	_, found := cache.Get("k0")
	require.True(t, found)

	now = now.Add(time.Second)
	cache.Set("k3", nil)

	assert.Equal(t, 3, cache.Stats().TotalEntries)
	_, found = cache.Get("k1")
	assert.False(t, found, "least recently used entry should be evicted")
	for _, k := range []string{"k0", "k2", "k3"} {
		_, found = cache.Get(k)
		assert.True(t, found, k)
	}
}

func TestRecurrenceCache_CloseTwice(t *testing.T) {
	cache := NewRecurrenceCache(DefaultCacheConfig)
	cache.Set("k", nil)
	cache.Close()
	assert.NotPanics(t, cache.Close)
	assert.Equal(t, 0, cache.Stats().TotalEntries)
}

func TestRecurrenceCache_ConcurrentAccess(t *testing.T) {
	cache := NewRecurrenceCache(CacheConfig{
		TTL:             time.Minute,
		MaxEntries:      10,
		CleanupInterval: 10 * time.Millisecond,
	})
	defer cache.Close()

	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				key := fmt.Sprintf("k%d", (g*100+i)%25)
				cache.Set(key, []time.Time{date(2025, 1, 1)})
				cache.Get(key)
				cache.Stats()
			}
		}(g)
	}
	wg.Wait()

	assert.LessOrEqual(t, cache.Stats().TotalEntries, 10)
}

func TestFingerprint(t *testing.T) {
	base := NewRule(date(2025, 9, 21), Weekly{Days: []time.Weekday{time.Monday, time.Friday}}).Until(date(2025, 12, 31))

	t.Run("weekday order does not matter", func(t *testing.T) {
		reordered := base
		reordered.Pattern = Weekly{Days: []time.Weekday{time.Friday, time.Monday, time.Monday}}
		assert.Equal(t, Fingerprint(base, 10), Fingerprint(reordered, 10))
	})

	t.Run("time of day does not matter", func(t *testing.T) {
		later := base
		later.Start = NewRule(time.Date(2025, 9, 21, 18, 0, 0, 0, time.UTC), nil).Start
		assert.Equal(t, Fingerprint(base, 10), Fingerprint(later, 10))
	})

	t.Run("distinct inputs differ", func(t *testing.T) {
		keys := map[string]bool{}
		for _, k := range []string{
			Fingerprint(base, 10),
			Fingerprint(base, 11),
			Fingerprint(base.Every(2), 10),
			Fingerprint(base.Until(date(2026, 1, 1)), 10),
			Fingerprint(NewRule(date(2025, 9, 21), MonthlyByDay{Day: 3}), 10),
			Fingerprint(NewRule(date(2025, 9, 21), MonthlyByDay{Day: 4}), 10),
			Fingerprint(NewRule(date(2025, 9, 21), nil), 10),
		} {
			keys[k] = true
		}
		assert.Len(t, keys, 7)
	})
}
