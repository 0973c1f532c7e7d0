// memory based implementation for testing purposes
package memory

import (
	"cmp"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/cyp0633/librecur/recurrence"
	"github.com/cyp0633/librecur/server/storage"
	"github.com/google/uuid"
)

// Store implements storage.Store using an in-memory map
type Store struct {
	mu     sync.RWMutex
	rules  map[string]*storage.Record // key: record id
	logger *slog.Logger
	now    func() time.Time
}

// Option represents a configuration option for the Store
type Option func(*Store)

// WithLogger sets the logger for the store
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a new in-memory storage
func New(opts ...Option) *Store {
	s := &Store{
		rules:  make(map[string]*storage.Record),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func generateETag(rec *storage.Record) string {
	hash := sha1.Sum([]byte(recurrence.Fingerprint(rec.Rule, 0) + "\x00" + rec.Summary))
	return `"` + hex.EncodeToString(hash[:]) + `"`
}

func (s *Store) CreateRule(_ context.Context, rec *storage.Record) error {
	if rec == nil {
		return &storage.Error{
			Type:    storage.ErrInvalidInput,
			Message: "record is nil",
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if _, exists := s.rules[rec.ID]; exists {
		return &storage.Error{
			Type:    storage.ErrAlreadyExists,
			Message: "rule already exists",
		}
	}

	now := s.now()
	rec.Created = now
	rec.Modified = now
	rec.ETag = generateETag(rec)
	s.rules[rec.ID] = rec.Clone()

	s.logger.Debug("rule created", "id", rec.ID, "kind", rec.Rule.Kind())
	return nil
}

func (s *Store) GetRule(_ context.Context, id string) (*storage.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.rules[id]
	if !ok {
		return nil, &storage.Error{
			Type:    storage.ErrNotFound,
			Message: "rule not found",
		}
	}

	return rec.Clone(), nil
}

func (s *Store) UpdateRule(_ context.Context, rec *storage.Record) error {
	if rec == nil || rec.ID == "" {
		return &storage.Error{
			Type:    storage.ErrInvalidInput,
			Message: "record id is required",
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old, exists := s.rules[rec.ID]
	if !exists {
		return &storage.Error{
			Type:    storage.ErrNotFound,
			Message: "rule not found",
		}
	}

	rec.Created = old.Created
	rec.Modified = s.now()
	rec.ETag = generateETag(rec)
	s.rules[rec.ID] = rec.Clone()

	s.logger.Debug("rule updated", "id", rec.ID, "etag", rec.ETag)
	return nil
}

func (s *Store) DeleteRule(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rules[id]; !exists {
		return &storage.Error{
			Type:    storage.ErrNotFound,
			Message: "rule not found",
		}
	}

	delete(s.rules, id)
	s.logger.Debug("rule deleted", "id", id)
	return nil
}

func (s *Store) ListRules(_ context.Context) ([]*storage.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rules := make([]*storage.Record, 0, len(s.rules))
	for _, rec := range s.rules {
		rules = append(rules, rec.Clone())
	}
	slices.SortFunc(rules, func(a, b *storage.Record) int {
		if c := a.Created.Compare(b.Created); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	return rules, nil
}
