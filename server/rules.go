package server

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"slices"
	"time"

	"github.com/cyp0633/librecur/internal/calendar"
	"github.com/cyp0633/librecur/recurrence"
	"github.com/cyp0633/librecur/server/auth"
	"github.com/cyp0633/librecur/server/storage"
	"github.com/emersion/go-ical"
)

// ruleRequest is the JSON body of POST /rules and PUT /rules/<id>
type ruleRequest struct {
	Summary string `json:"summary,omitempty"`
	RuleConfig
}

// ruleResponse describes a saved rule
type ruleResponse struct {
	ID          string    `json:"id"`
	Summary     string    `json:"summary,omitempty"`
	ETag        string    `json:"etag"`
	Description string    `json:"description"`
	RRule       string    `json:"rrule,omitempty"`
	Created     time.Time `json:"created"`
	Modified    time.Time `json:"modified"`
	RuleConfig
}

func newRuleResponse(rec *storage.Record) ruleResponse {
	resp := ruleResponse{
		ID:          rec.ID,
		Summary:     rec.Summary,
		ETag:        rec.ETag,
		Description: recurrence.Describe(rec.Rule),
		Created:     rec.Created,
		Modified:    rec.Modified,
		RuleConfig:  ConfigFromRule(rec.Rule),
	}
	if rrule, err := recurrence.RRuleString(rec.Rule); err == nil {
		resp.RRule = rrule
	}
	return resp
}

// readRecord decodes a rule from a JSON or text/calendar body. It answers
// the request itself and returns false when the body is unusable.
func (s *Server) readRecord(w http.ResponseWriter, r *http.Request) (*storage.Record, bool) {
	rec := &storage.Record{}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get(headerContentType))
	if mediaType == "text/calendar" {
		event, err := decodeEvent(http.MaxBytesReader(w, r.Body, maxBodySize))
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return nil, false
		}

		rule, err := recurrence.RuleFromComponent(event.Component, s.location)
		switch {
		case errors.Is(err, recurrence.ErrUnsupportedRRule):
			s.writeInvalid(w, err)
			return nil, false
		case err != nil:
			s.writeError(w, http.StatusBadRequest, err.Error())
			return nil, false
		}

		rec.Rule = rule
		if summary, err := event.Props.Text(ical.PropSummary); err == nil {
			rec.Summary = summary
		}
	} else {
		var req ruleRequest
		if err := s.decodeJSON(w, r, &req); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return nil, false
		}

		rule, err := req.Rule(s.location)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return nil, false
		}
		rec.Rule = rule
		rec.Summary = req.Summary
	}

	// saved rules must be exportable, so they are always validated
	if err := recurrence.Validate(rec.Rule); err != nil {
		s.logger.Debug("rule rejected", "error", err)
		s.writeInvalid(w, err)
		return nil, false
	}
	return rec, true
}

// principalID names the authenticated caller, empty without authentication
func principalID(r *http.Request) string {
	if p := auth.GetPrincipalFromContext(r.Context()); p != nil {
		return p.ID
	}
	return ""
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case storage.IsType(err, storage.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "rule not found")
	case storage.IsType(err, storage.ErrAlreadyExists):
		s.writeError(w, http.StatusConflict, "rule already exists")
	case storage.IsType(err, storage.ErrInvalidInput):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("storage failure", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (s *Server) createRule(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.readRecord(w, r)
	if !ok {
		return
	}

	if err := s.store.CreateRule(r.Context(), rec); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.logger.Info("rule created",
		"id", rec.ID,
		"kind", rec.Rule.Kind().String(),
		"principal", principalID(r))

	w.Header().Set(headerLocation, s.baseURI+Resource{Type: ResourceRule, RuleID: rec.ID}.String())
	w.Header().Set(headerETag, rec.ETag)
	s.writeJSON(w, http.StatusCreated, newRuleResponse(rec))
}

func (s *Server) listRules(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.ListRules(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	resp := make([]ruleResponse, 0, len(recs))
	for _, rec := range recs {
		resp = append(resp, newRuleResponse(rec))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getRule(w http.ResponseWriter, r *http.Request, id string) {
	rec, err := s.store.GetRule(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	w.Header().Set(headerETag, rec.ETag)
	if match := r.Header.Get(headerIfNoneMatch); match != "" && match == rec.ETag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	s.writeJSON(w, http.StatusOK, newRuleResponse(rec))
}

func (s *Server) updateRule(w http.ResponseWriter, r *http.Request, id string) {
	rec, ok := s.readRecord(w, r)
	if !ok {
		return
	}
	rec.ID = id

	if err := s.store.UpdateRule(r.Context(), rec); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.logger.Info("rule updated", "id", id, "principal", principalID(r))

	w.Header().Set(headerETag, rec.ETag)
	s.writeJSON(w, http.StatusOK, newRuleResponse(rec))
}

func (s *Server) deleteRule(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.store.DeleteRule(r.Context(), id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.logger.Info("rule deleted", "id", id, "principal", principalID(r))
	w.WriteHeader(http.StatusNoContent)
}

// ruleOccurrences expands a saved rule, optionally clipped to ?from= and
// ?to= (inclusive calendar days).
func (s *Server) ruleOccurrences(w http.ResponseWriter, r *http.Request, id string) {
	q := r.URL.Query()
	from, err := parseDate(q.Get("from"), s.location)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("from: %v", err))
		return
	}
	to, err := parseDate(q.Get("to"), s.location)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("to: %v", err))
		return
	}

	rec, err := s.store.GetRule(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	var dates []time.Time
	f, hasFrom := from.Get()
	t, hasTo := to.Get()
	if hasFrom && hasTo {
		dates = s.engine.Between(rec.Rule, f, t)
	} else {
		dates = s.engine.Expand(rec.Rule)
		dates = slices.DeleteFunc(dates, func(d time.Time) bool {
			return (hasFrom && calendar.Compare(d, f) < 0) || (hasTo && calendar.Compare(d, t) > 0)
		})
	}

	s.writeOccurrences(w, r, rec.Rule, rec.Summary, dates)
}

// ruleCalendar exports a saved rule as a VEVENT carrying its RRULE
func (s *Server) ruleCalendar(w http.ResponseWriter, r *http.Request, id string) {
	rec, err := s.store.GetRule(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	event, err := recurrence.ToEvent(rec.Rule, rec.Summary)
	if err != nil {
		s.writeInvalid(w, err)
		return
	}
	event.Props.SetText(ical.PropUID, rec.ID)

	w.Header().Set(headerETag, rec.ETag)
	s.writeCalendar(w, recurrence.NewCalendar(event))
}
