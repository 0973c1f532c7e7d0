package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/cyp0633/librecur/recurrence"
	"github.com/emersion/go-ical"
)

const (
	// HTTP headers
	headerContentType = "Content-Type"
	headerAccept      = "Accept"
	headerETag        = "ETag"
	headerAllow       = "Allow"
	headerLocation    = "Location"
	headerIfNoneMatch = "If-None-Match"

	// MIME types
	mimeTypeJSON     = "application/json; charset=utf-8"
	mimeTypeXML      = "application/xml; charset=utf-8"
	mimeTypeCalendar = "text/calendar; charset=utf-8"

	allowedMethods = "OPTIONS, GET, POST, PUT, DELETE"
)

// format is a response representation picked from the Accept header
type format int

const (
	formatJSON format = iota
	formatXML
	formatCalendar
)

func negotiate(r *http.Request) format {
	accept := r.Header.Get(headerAccept)
	switch {
	case strings.Contains(accept, "text/calendar"):
		return formatCalendar
	case strings.Contains(accept, "application/xml"), strings.Contains(accept, "text/xml"):
		return formatXML
	default:
		return formatJSON
	}
}

// occurrencesResponse is the JSON body for occurrence lists
type occurrencesResponse struct {
	Description string   `json:"description"`
	RRule       string   `json:"rrule,omitempty"`
	Count       int      `json:"count"`
	Dates       []string `json:"dates"`
}

type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

func formatDates(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format(time.DateOnly)
	}
	return out
}

// writeOccurrences renders dates in the representation the client asked for
func (s *Server) writeOccurrences(w http.ResponseWriter, r *http.Request, rule recurrence.Rule, summary string, dates []time.Time) {
	switch negotiate(r) {
	case formatCalendar:
		s.writeCalendar(w, recurrence.OccurrenceCalendar(dates, summary))

	case formatXML:
		doc := etree.NewDocument()
		doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
		root := doc.CreateElement("occurrences")
		root.CreateAttr("count", strconv.Itoa(len(dates)))
		root.CreateAttr("description", recurrence.Describe(rule))
		for _, d := range dates {
			root.CreateElement("date").SetText(d.Format(time.DateOnly))
		}
		doc.Indent(2)

		w.Header().Set(headerContentType, mimeTypeXML)
		w.WriteHeader(http.StatusOK)
		if _, err := doc.WriteTo(w); err != nil {
			s.logger.Error("failed to write XML response", "error", err)
		}

	default:
		resp := occurrencesResponse{
			Description: recurrence.Describe(rule),
			Count:       len(dates),
			Dates:       formatDates(dates),
		}
		// an RRULE only exists for rules that validate
		if rrule, err := recurrence.RRuleString(rule); err == nil {
			resp.RRule = rrule
		}
		s.writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) writeCalendar(w http.ResponseWriter, cal *ical.Calendar) {
	w.Header().Set(headerContentType, mimeTypeCalendar)
	w.WriteHeader(http.StatusOK)
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		s.logger.Error("failed to encode calendar", "error", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(headerContentType, mimeTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode JSON response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string, details ...string) {
	s.writeJSON(w, status, errorResponse{Error: msg, Details: details})
}

// writeInvalid reports validation failures, one detail per field
func (s *Server) writeInvalid(w http.ResponseWriter, err error) {
	var details []string
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			details = append(details, e.Error())
		}
	} else {
		details = []string{err.Error()}
	}

	msg := recurrence.ErrInvalidRule.Error()
	if errors.Is(err, recurrence.ErrUnsupportedRRule) {
		msg = recurrence.ErrUnsupportedRRule.Error()
	}
	s.writeError(w, http.StatusUnprocessableEntity, msg, details...)
}
