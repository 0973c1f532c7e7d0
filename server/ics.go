package server

import (
	"fmt"
	"io"

	"github.com/emersion/go-ical"
)

// decodeEvent reads a VCALENDAR holding exactly one VEVENT
func decodeEvent(r io.Reader) (*ical.Event, error) {
	cal, err := ical.NewDecoder(r).Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to decode calendar: %w", err)
	}

	events := cal.Events()
	if len(events) == 0 {
		return nil, fmt.Errorf("no events found in calendar")
	}
	if len(events) > 1 {
		return nil, fmt.Errorf("multiple events found in calendar")
	}

	return &events[0], nil
}
