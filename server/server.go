package server

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cyp0633/librecur/recurrence"
	"github.com/cyp0633/librecur/server/auth"
	"github.com/cyp0633/librecur/server/storage"
)

// maxBodySize caps request bodies read by the handlers
const maxBodySize = 1 << 20

// Server serves rule previews and saved rules over HTTP
type Server struct {
	engine   *recurrence.Engine
	store    storage.Store
	baseURI  string
	location *time.Location
	handlers map[string]http.HandlerFunc
	handler  http.Handler
	logger   *slog.Logger

	authenticator auth.Authenticator
	realm         string

	// upper bound for ?max on previews
	maxOccurrences int
}

// Option represents a configuration option for the Server
type Option func(*Server)

// WithLogger sets the logger for the server
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLocation sets the time zone request dates are read in. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(s *Server) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithMaxOccurrences sets the largest ?max a preview may ask for. Defaults
// to the engine's iteration cap.
func WithMaxOccurrences(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxOccurrences = n
		}
	}
}

// WithAuthenticator requires Basic authentication for everything under
// /rules. Previews stay public.
func WithAuthenticator(a auth.Authenticator, realm string) Option {
	return func(s *Server) {
		s.authenticator = a
		s.realm = realm
	}
}

// New creates a server mounted under baseURI
func New(engine *recurrence.Engine, store storage.Store, baseURI string, opts ...Option) (*Server, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if store == nil {
		return nil, fmt.Errorf("storage is required")
	}

	s := &Server{
		engine:   engine,
		store:    store,
		baseURI:  strings.TrimSuffix(baseURI, "/"),
		location: time.Local,
		handlers: make(map[string]http.HandlerFunc),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if n := engine.Config().MaxOccurrences; n > 0 {
		s.maxOccurrences = n
	} else {
		s.maxOccurrences = recurrence.DefaultMaxOccurrences
	}
	for _, opt := range opts {
		opt(s)
	}

	// Register method handlers
	s.handlers[http.MethodOptions] = s.handleOptions
	s.handlers[http.MethodGet] = s.handleGet
	s.handlers[http.MethodPost] = s.handlePost
	s.handlers[http.MethodPut] = s.handlePut
	s.handlers[http.MethodDelete] = s.handleDelete

	s.handler = http.HandlerFunc(s.route)
	if s.authenticator != nil {
		s.handler = auth.Middleware(s.authenticator, s.realm, s.guarded)(s.handler)
	}

	return s, nil
}

// ServeHTTP implements http.Handler interface
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("received request",
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr)

	s.handler.ServeHTTP(w, r)
}

func (s *Server) route(w http.ResponseWriter, r *http.Request) {
	handler, ok := s.handlers[r.Method]
	if !ok {
		s.logger.Warn("method not allowed",
			"method", r.Method,
			"path", r.URL.Path)
		s.methodNotAllowed(w)
		return
	}

	handler(w, r)
}

// resource parses the request path, answering 404 when it names nothing
func (s *Server) resource(w http.ResponseWriter, r *http.Request) (Resource, bool) {
	path := strings.TrimPrefix(r.URL.Path, s.baseURI)
	res, err := ParsePath(path)
	if err != nil {
		s.logger.Debug("failed to parse path", "path", r.URL.Path, "error", err)
		s.writeError(w, http.StatusNotFound, err.Error())
		return res, false
	}
	return res, true
}

// guarded selects the requests that need a principal: anything touching
// saved rules except OPTIONS.
func (s *Server) guarded(r *http.Request) bool {
	if r.Method == http.MethodOptions {
		return false
	}
	res, err := ParsePath(strings.TrimPrefix(r.URL.Path, s.baseURI))
	return err != nil || res.Type != ResourcePreview
}

func (s *Server) methodNotAllowed(w http.ResponseWriter) {
	w.Header().Set(headerAllow, allowedMethods)
	s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// Method handlers

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(headerAllow, allowedMethods)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	res, ok := s.resource(w, r)
	if !ok {
		return
	}

	switch res.Type {
	case ResourceRules:
		s.listRules(w, r)
	case ResourceRule:
		s.getRule(w, r, res.RuleID)
	case ResourceOccurrences:
		s.ruleOccurrences(w, r, res.RuleID)
	case ResourceCalendar:
		s.ruleCalendar(w, r, res.RuleID)
	default:
		s.methodNotAllowed(w)
	}
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	res, ok := s.resource(w, r)
	if !ok {
		return
	}

	switch res.Type {
	case ResourcePreview:
		s.preview(w, r)
	case ResourceRules:
		s.createRule(w, r)
	default:
		s.methodNotAllowed(w)
	}
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	res, ok := s.resource(w, r)
	if !ok {
		return
	}

	switch res.Type {
	case ResourceRule:
		s.updateRule(w, r, res.RuleID)
	default:
		s.methodNotAllowed(w)
	}
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	res, ok := s.resource(w, r)
	if !ok {
		return
	}

	switch res.Type {
	case ResourceRule:
		s.deleteRule(w, r, res.RuleID)
	default:
		s.methodNotAllowed(w)
	}
}
