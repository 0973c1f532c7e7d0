package storage

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockStore implements the Store interface for testing
type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateRule(ctx context.Context, rec *Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockStore) GetRule(ctx context.Context, id string) (*Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Record), args.Error(1)
}

func (m *MockStore) UpdateRule(ctx context.Context, rec *Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockStore) DeleteRule(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStore) ListRules(ctx context.Context) ([]*Record, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Record), args.Error(1)
}

// --- Convenience methods for setting up common test scenarios ---

// ExpectRule makes GetRule return rec for its id
func (m *MockStore) ExpectRule(rec *Record) *mock.Call {
	return m.On("GetRule", mock.Anything, rec.ID).Return(rec, nil)
}

// ExpectMissing makes GetRule, UpdateRule and DeleteRule report id as not found
func (m *MockStore) ExpectMissing(id string) {
	notFound := &Error{Type: ErrNotFound, Message: "rule not found"}
	m.On("GetRule", mock.Anything, id).Return(nil, notFound)
	m.On("DeleteRule", mock.Anything, id).Return(notFound)
	m.On("UpdateRule", mock.Anything, mock.MatchedBy(func(rec *Record) bool {
		return rec.ID == id
	})).Return(notFound)
}
