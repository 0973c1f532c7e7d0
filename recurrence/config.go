package recurrence

import (
	"time"
)

// EngineConfig holds configuration options for the recurrence engine
type EngineConfig struct {
	// Iteration cap handed to Expand; <= 0 means DefaultMaxOccurrences
	MaxOccurrences int

	// Strict makes Expand return no dates for rules that fail Validate and
	// log why. ExpandStrict validates regardless of this flag.
	Strict bool

	// Cache configuration
	CacheEnabled bool
	CacheConfig  CacheConfig
}

// DefaultEngineConfig provides sensible defaults for a picker backend
var DefaultEngineConfig = EngineConfig{
	MaxOccurrences: DefaultMaxOccurrences,
	CacheEnabled:   true,
	CacheConfig:    DefaultCacheConfig,
}

// HighPerformanceConfig is tuned for many users previewing the same rules
var HighPerformanceConfig = EngineConfig{
	MaxOccurrences: DefaultMaxOccurrences,
	CacheEnabled:   true,
	CacheConfig: CacheConfig{
		TTL:             30 * time.Minute, // Longer cache TTL
		MaxEntries:      5000,             // More cache entries
		CleanupInterval: 10 * time.Minute, // Less frequent cleanup
	},
}

// LowMemoryConfig is optimized for memory-constrained environments
var LowMemoryConfig = EngineConfig{
	MaxOccurrences: 366, // one year of daily events
	CacheEnabled:   true,
	CacheConfig: CacheConfig{
		TTL:             5 * time.Minute, // Shorter cache TTL
		MaxEntries:      100,             // Fewer cache entries
		CleanupInterval: 2 * time.Minute, // More frequent cleanup
	},
}

// DisabledCacheConfig turns off caching entirely
var DisabledCacheConfig = EngineConfig{
	MaxOccurrences: DefaultMaxOccurrences,
	CacheEnabled:   false,
}

// StrictEngineConfig reports invalid rules instead of silently degrading them
var StrictEngineConfig = EngineConfig{
	MaxOccurrences: DefaultMaxOccurrences,
	Strict:         true,
	CacheEnabled:   false,
}
