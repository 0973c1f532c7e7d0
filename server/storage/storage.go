package storage

import (
	"context"
)

// Store connects saved picker rules with a backend (e.g. database). Please use the error types provided.
type Store interface {
	// CreateRule saves a new record. An empty ID is filled in with a generated one.
	// ETag, Created and Modified are set by the store.
	CreateRule(ctx context.Context, rec *Record) error
	// GetRule finds a record by id.
	GetRule(ctx context.Context, id string) (*Record, error)
	// UpdateRule replaces the rule and summary of an existing record.
	UpdateRule(ctx context.Context, rec *Record) error
	// DeleteRule removes a record.
	DeleteRule(ctx context.Context, id string) error
	// ListRules returns every record, oldest first.
	ListRules(ctx context.Context) ([]*Record, error)
}
