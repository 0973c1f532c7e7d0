package memory

import (
	"context"
	"crypto/subtle"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/cyp0633/librecur/server/auth"
)

// User represents a user in the memory store
type User struct {
	Username string
	Password string // In production this should be hashed
	Role     auth.Role
}

// Store implements an in-memory authentication store
type Store struct {
	mu     sync.RWMutex
	users  map[string]User // map[username]User
	logger *slog.Logger
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

// New creates a new in-memory authentication store
func New(opts ...Option) *Store {
	s := &Store{
		users:  make(map[string]User),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// AddUser adds a new user to the store
func (s *Store) AddUser(username, password string, role auth.Role) error {
	if username == "" {
		return fmt.Errorf("username is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[username]; exists {
		s.logger.Warn("failed to add user: already exists",
			"username", username)
		return fmt.Errorf("user already exists: %s", username)
	}

	s.users[username] = User{
		Username: username,
		Password: password,
		Role:     role,
	}

	s.logger.Info("user added successfully",
		"username", username,
		"role", role.String())

	return nil
}

// Authenticate implements auth.Authenticator
func (s *Store) Authenticate(_ context.Context, creds auth.Credentials) (*auth.Principal, error) {
	s.mu.RLock()
	user, exists := s.users[creds.Username]
	s.mu.RUnlock()

	if !exists {
		s.logger.Info("authentication failed: user not found",
			"username", creds.Username)
		return nil, &auth.Error{
			Type:    auth.ErrInvalidCredentials,
			Message: "invalid username or password",
		}
	}

	if subtle.ConstantTimeCompare([]byte(user.Password), []byte(creds.Password)) != 1 {
		s.logger.Info("authentication failed: invalid password",
			"username", creds.Username)
		return nil, &auth.Error{
			Type:    auth.ErrInvalidCredentials,
			Message: "invalid username or password",
		}
	}

	s.logger.Debug("authentication successful",
		"username", creds.Username)

	return &auth.Principal{ID: user.Username, Role: user.Role}, nil
}

// ValidateAccess implements auth.Authenticator. Viewers may only read.
func (s *Store) ValidateAccess(_ context.Context, principal *auth.Principal, method string) error {
	if principal == nil {
		s.logger.Info("access validation failed: no principal")
		return &auth.Error{
			Type:    auth.ErrUnauthorized,
			Message: "authentication required",
		}
	}

	if !auth.IsReadMethod(method) && principal.Role != auth.RoleEditor {
		s.logger.Warn("access validation failed: forbidden",
			"username", principal.ID,
			"role", principal.Role.String(),
			"method", method)
		return &auth.Error{
			Type:    auth.ErrForbidden,
			Message: fmt.Sprintf("%s may not %s rules", principal.ID, method),
		}
	}

	s.logger.Debug("access validation successful",
		"username", principal.ID,
		"method", method)

	return nil
}
