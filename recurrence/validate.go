package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/cyp0633/librecur/internal/calendar"
)

// ErrInvalidRule is wrapped by every error Validate reports.
var ErrInvalidRule = errors.New("invalid recurrence rule")

// ValidationError describes one problem with a rule field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRule
}

// Validate checks rule for the degenerate input Expand silently tolerates.
// All problems are reported, joined with errors.Join.
func Validate(rule Rule) error {
	var errs []error
	fail := func(field, format string, args ...any) {
		errs = append(errs, &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	start, hasStart := rule.Start.Get()
	if !hasStart || start.IsZero() {
		fail("start", "start date is required")
	}
	if end, ok := rule.End.Get(); ok && hasStart && calendar.Compare(end, start) < 0 {
		fail("end", "end date %s is before start date %s", end.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	if rule.Interval < 1 || rule.Interval > MaxInterval {
		fail("interval", "interval must be within 1..%d, got %d", MaxInterval, rule.Interval)
	}

	switch p := rule.Pattern.(type) {
	case nil:
		fail("pattern", "recurrence pattern is required")
	case Daily:
	case Weekly:
		for _, d := range p.Days {
			if !validWeekday(d) {
				fail("days", "weekday %d out of range 0..6", int(d))
			}
		}
	case MonthlyByDay:
		checkDay(fail, p.Day)
	case MonthlyByOrdinal:
		checkOrdinal(fail, p.Ordinal, p.Weekday)
	case YearlyByDate:
		checkMonth(fail, p.Month)
		checkDay(fail, p.Day)
	case YearlyByOrdinal:
		checkOrdinal(fail, p.Ordinal, p.Weekday)
		checkMonth(fail, p.Month)
	default:
		fail("pattern", "unsupported pattern %T", p)
	}

	return errors.Join(errs...)
}

type failFunc func(field, format string, args ...any)

func checkDay(fail failFunc, day int) {
	if day < 1 || day > 31 {
		fail("day", "day of month must be within 1..31, got %d", day)
	}
}

func checkMonth(fail failFunc, month time.Month) {
	if !validMonth(month) {
		fail("month", "month must be within 1..12, got %d", int(month))
	}
}

func checkOrdinal(fail failFunc, ordinal Ordinal, weekday time.Weekday) {
	if !ordinal.Valid() {
		fail("ordinal", "ordinal must be first, second, third, fourth or last")
	}
	if !validWeekday(weekday) {
		fail("weekday", "weekday %d out of range 0..6", int(weekday))
	}
}
