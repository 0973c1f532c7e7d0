package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/cyp0633/librecur/recurrence"
)

// Error types
type ErrorType string

const (
	ErrNotFound      ErrorType = "not_found"
	ErrAlreadyExists ErrorType = "already_exists"
	ErrInvalidInput  ErrorType = "invalid_input"
)

// Error represents a storage-related error
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsType reports whether err is, or wraps, a storage Error of type t
func IsType(err error, t ErrorType) bool {
	var e *Error
	return errors.As(err, &e) && e.Type == t
}

// Record is a saved recurrence rule together with its bookkeeping fields
type Record struct {
	ID       string
	Summary  string
	Rule     recurrence.Rule
	ETag     string
	Created  time.Time
	Modified time.Time
}

// Clone returns a copy of r that shares no mutable state with it
func (r *Record) Clone() *Record {
	c := *r
	if w, ok := r.Rule.Pattern.(recurrence.Weekly); ok {
		c.Rule.Pattern = recurrence.Weekly{Days: append([]time.Weekday(nil), w.Days...)}
	}
	return &c
}
