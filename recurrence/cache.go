package recurrence

import (
	"crypto/sha256"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/cyp0633/librecur/internal/calendar"
)

// CacheEntry is a cached expansion result
type CacheEntry struct {
	Dates      []time.Time
	ExpiresAt  time.Time
	AccessedAt time.Time
}

// RecurrenceCache memoizes expansion results keyed by rule fingerprint
type RecurrenceCache struct {
	entries         map[string]*CacheEntry
	mutex           sync.RWMutex
	ttl             time.Duration
	maxEntries      int
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	closeOnce       sync.Once
	now             func() time.Time
}

// CacheConfig holds configuration for the recurrence cache
type CacheConfig struct {
	TTL             time.Duration // How long entries stay valid
	MaxEntries      int           // Maximum number of entries before eviction
	CleanupInterval time.Duration // How often to sweep expired entries
}

// DefaultCacheConfig suits a single picker backend
var DefaultCacheConfig = CacheConfig{
	TTL:             15 * time.Minute,
	MaxEntries:      1000,
	CleanupInterval: 5 * time.Minute,
}

// NewRecurrenceCache creates a cache and starts its cleanup goroutine.
// Call Close to stop it.
func NewRecurrenceCache(config CacheConfig) *RecurrenceCache {
	if config.TTL <= 0 {
		config.TTL = DefaultCacheConfig.TTL
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = DefaultCacheConfig.MaxEntries
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultCacheConfig.CleanupInterval
	}

	cache := &RecurrenceCache{
		entries:         make(map[string]*CacheEntry),
		ttl:             config.TTL,
		maxEntries:      config.MaxEntries,
		cleanupInterval: config.CleanupInterval,
		stopCleanup:     make(chan struct{}),
		now:             time.Now,
	}

	go cache.cleanupLoop()

	return cache
}

// Fingerprint returns a stable key for rule expanded with the given cap.
// Rules that differ only in time of day map to the same key.
func Fingerprint(rule Rule, maxOccurrences int) string {
	hasher := sha256.New()

	fmt.Fprintf(hasher, "max=%d;kind=%s;interval=%d;", maxOccurrences, rule.Kind(), rule.interval())
	if start, ok := rule.Start.Get(); ok {
		fmt.Fprintf(hasher, "start=%s@%s;", calendar.StartOfDay(start).Format(time.DateOnly), start.Location())
	}
	if end, ok := rule.End.Get(); ok {
		fmt.Fprintf(hasher, "end=%s;", end.Format(time.DateOnly))
	}

	switch p := rule.Pattern.(type) {
	case Weekly:
		// order and duplicates in Days do not change the result
		set, _ := weekdaySet(p.Days)
		fmt.Fprintf(hasher, "days=%v;", set)
	case nil:
		hasher.Write([]byte("pattern=nil;"))
	default:
		fmt.Fprintf(hasher, "pattern=%T%+v;", p, p)
	}

	return fmt.Sprintf("%x", hasher.Sum(nil))
}

// Get returns a copy of the cached dates for key, if present and fresh
func (c *RecurrenceCache) Get(key string) ([]time.Time, bool) {
	now := c.now()

	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		return nil, false
	}
	if now.After(entry.ExpiresAt) {
		delete(c.entries, key)
		return nil, false
	}

	entry.AccessedAt = now
	return slices.Clone(entry.Dates), true
}

// Set stores a copy of dates under key
func (c *RecurrenceCache) Set(key string, dates []time.Time) {
	now := c.now()
	entry := &CacheEntry{
		Dates:      slices.Clone(dates),
		ExpiresAt:  now.Add(c.ttl),
		AccessedAt: now,
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries[key] = entry
	if len(c.entries) > c.maxEntries {
		c.cleanup()
	}
}

// cleanup drops expired entries, then the least recently accessed ones until
// the cache is back under its limit. Caller holds the write lock.
func (c *RecurrenceCache) cleanup() {
	now := c.now()

	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
		}
	}

	if len(c.entries) <= c.maxEntries {
		return
	}

	type keyAccess struct {
		key        string
		accessedAt time.Time
	}
	keys := make([]keyAccess, 0, len(c.entries))
	for key, entry := range c.entries {
		keys = append(keys, keyAccess{key: key, accessedAt: entry.AccessedAt})
	}
	slices.SortFunc(keys, func(a, b keyAccess) int {
		return a.accessedAt.Compare(b.accessedAt)
	})

	for _, k := range keys[:len(c.entries)-c.maxEntries] {
		delete(c.entries, k.key)
	}
}

func (c *RecurrenceCache) cleanupLoop() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mutex.Lock()
			c.cleanup()
			c.mutex.Unlock()
		case <-c.stopCleanup:
			return
		}
	}
}

// Close stops the cleanup goroutine and clears the cache. It is safe to call
// more than once.
func (c *RecurrenceCache) Close() {
	c.closeOnce.Do(func() {
		close(c.stopCleanup)
	})
	c.mutex.Lock()
	c.entries = make(map[string]*CacheEntry)
	c.mutex.Unlock()
}

// Stats returns cache statistics
func (c *RecurrenceCache) Stats() CacheStats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	now := c.now()
	expired := 0
	for _, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			expired++
		}
	}

	return CacheStats{
		TotalEntries:   len(c.entries),
		ExpiredEntries: expired,
		ActiveEntries:  len(c.entries) - expired,
	}
}

// CacheStats provides information about cache contents
type CacheStats struct {
	TotalEntries   int
	ExpiredEntries int
	ActiveEntries  int
}
