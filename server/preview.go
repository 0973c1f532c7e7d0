package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/cyp0633/librecur/recurrence"
)

// preview expands a rule straight from the picker without saving it.
// ?max=N lowers the iteration cap (up to the server's limit), ?strict=1
// rejects invalid rules.
func (s *Server) preview(w http.ResponseWriter, r *http.Request) {
	var cfg RuleConfig
	if err := s.decodeJSON(w, r, &cfg); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rule, err := cfg.Rule(s.location)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	q := r.URL.Query()
	maxOccurrences := 0
	if v := q.Get("max"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > s.maxOccurrences {
			s.writeError(w, http.StatusBadRequest,
				fmt.Sprintf("max must be an integer within 1..%d, got '%s'", s.maxOccurrences, v))
			return
		}
		maxOccurrences = n
	}
	if v := q.Get("strict"); v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("strict must be a boolean, got '%s'", v))
			return
		}
		if strict {
			if err := recurrence.Validate(rule); err != nil {
				s.logger.Debug("preview rejected", "error", err)
				s.writeInvalid(w, err)
				return
			}
		}
	}

	dates := s.engine.ExpandN(rule, maxOccurrences)
	s.logger.Debug("preview expanded",
		"kind", rule.Kind().String(),
		"count", len(dates))
	s.writeOccurrences(w, r, rule, "", dates)
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode request body: %w", err)
	}
	return nil
}
