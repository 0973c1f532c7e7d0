package recurrence

import (
	"log/slog"
	"time"

	"github.com/cyp0633/librecur/internal/calendar"
)

// Engine wraps Expand with configuration, an optional result cache and
// logging. It is safe for concurrent use.
type Engine struct {
	cache  *RecurrenceCache
	config EngineConfig
	logger *slog.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the logger for the engine
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an engine with DefaultEngineConfig
func NewEngine(opts ...Option) *Engine {
	return NewEngineWithConfig(DefaultEngineConfig, opts...)
}

// NewEngineWithConfig creates a new recurrence engine with custom configuration
func NewEngineWithConfig(config EngineConfig, opts ...Option) *Engine {
	e := &Engine{
		config: config,
		logger: discardLogger,
	}
	for _, opt := range opts {
		opt(e)
	}

	if config.CacheEnabled {
		e.cache = NewRecurrenceCache(config.CacheConfig)
	}
	return e
}

// Config returns the engine configuration
func (e *Engine) Config() EngineConfig {
	return e.config
}

// Close releases the cache goroutine, if any
func (e *Engine) Close() {
	if e.cache != nil {
		e.cache.Close()
	}
}

// CacheStats reports cache contents; zero when caching is disabled
func (e *Engine) CacheStats() CacheStats {
	if e.cache == nil {
		return CacheStats{}
	}
	return e.cache.Stats()
}

// Expand lists rule's occurrences using the configured cap. The returned
// slice belongs to the caller.
func (e *Engine) Expand(rule Rule) []time.Time {
	if e.config.Strict {
		if err := Validate(rule); err != nil {
			e.logger.Warn("rejecting invalid rule", "error", err)
			return []time.Time{}
		}
	}
	return e.expand(rule, e.config.MaxOccurrences)
}

// ExpandN is Expand with a per-call cap; maxOccurrences <= 0 falls back to
// the configured one.
func (e *Engine) ExpandN(rule Rule, maxOccurrences int) []time.Time {
	if maxOccurrences <= 0 {
		return e.Expand(rule)
	}
	if e.config.Strict {
		if err := Validate(rule); err != nil {
			e.logger.Warn("rejecting invalid rule", "error", err)
			return []time.Time{}
		}
	}
	return e.expand(rule, maxOccurrences)
}

// ExpandStrict validates rule before expanding it
func (e *Engine) ExpandStrict(rule Rule) ([]time.Time, error) {
	if err := Validate(rule); err != nil {
		return nil, err
	}
	return e.expand(rule, e.config.MaxOccurrences), nil
}

func (e *Engine) expand(rule Rule, maxOccurrences int) []time.Time {
	if e.cache == nil {
		return expand(rule, maxOccurrences, e.logger)
	}

	key := Fingerprint(rule, maxOccurrences)
	if dates, ok := e.cache.Get(key); ok {
		e.logger.Debug("recurrence cache hit", "kind", rule.Kind().String())
		return dates
	}

	dates := expand(rule, maxOccurrences, e.logger)
	e.cache.Set(key, dates)
	return dates
}

// Between returns the occurrences of rule falling on calendar days in
// [from, to], e.g. the month a calendar widget is showing.
//
// It filters the capped expansion, so only the first MaxOccurrences cycles
// after Start are considered. A window lying beyond them comes back empty even
// if the rule continues; move Start forward to page through a long series.
func (e *Engine) Between(rule Rule, from, to time.Time) []time.Time {
	var out []time.Time
	for _, d := range e.Expand(rule) {
		if calendar.Compare(d, from) >= 0 && calendar.Compare(d, to) <= 0 {
			out = append(out, d)
		}
	}
	if out == nil {
		out = []time.Time{}
	}
	return out
}

// HasOccurrenceInRange reports whether rule produces any date in [from, to].
// Like Between it only sees the capped expansion.
func (e *Engine) HasOccurrenceInRange(rule Rule, from, to time.Time) bool {
	for _, d := range e.Expand(rule) {
		if calendar.Compare(d, to) > 0 {
			return false
		}
		if calendar.Compare(d, from) >= 0 {
			return true
		}
	}
	return false
}
