package server

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cyp0633/librecur/internal/calendar"
	"github.com/cyp0633/librecur/recurrence"
	"github.com/samber/mo"
)

// Values of RuleConfig.RecurrenceType, MonthlyType and YearlyType
const (
	TypeDaily   = "daily"
	TypeWeekly  = "weekly"
	TypeMonthly = "monthly"
	TypeYearly  = "yearly"

	MonthlyDayOfMonth = "dayOfMonth"
	MonthlyOrdinal    = "ordinal"
	YearlySpecific    = "specificDate"
	YearlyOrdinal     = "ordinal"
)

var errBadConfig = errors.New("invalid rule config")

// RuleConfig is the flat rule shape the date picker sends. Months are
// 0-based (January is 0) and weekdays run from Sunday=0 to Saturday=6.
// Dates are YYYY-MM-DD or RFC 3339 timestamps.
//
// Fields left out default to what the picker initializes them with: the
// start date's day, weekday and month, and the "first" ordinal.
type RuleConfig struct {
	StartDate      string `json:"startDate"`
	EndDate        string `json:"endDate,omitempty"`
	RecurrenceType string `json:"recurrenceType"`
	Interval       *int   `json:"interval,omitempty"`

	WeeklyDays []int `json:"weeklyDays,omitempty"`

	MonthlyType             string `json:"monthlyType,omitempty"`
	MonthlyDayOfMonth       *int   `json:"monthlyDayOfMonth,omitempty"`
	MonthlyOrdinalWeek      string `json:"monthlyOrdinalWeek,omitempty"`
	MonthlyOrdinalDayOfWeek *int   `json:"monthlyOrdinalDayofWeek,omitempty"`

	YearlyType             string `json:"yearlyType,omitempty"`
	YearlyMonth            *int   `json:"yearlyMonth,omitempty"`
	YearlyDayOfMonth       *int   `json:"yearlyDayOfMonth,omitempty"`
	YearlyOrdinalWeek      string `json:"yearlyOrdinalWeek,omitempty"`
	YearlyOrdinalDayOfWeek *int   `json:"yearlyOrdinalDayofWeek,omitempty"`
	YearlyOrdinalMonth     *int   `json:"yearlyOrdinalMonth,omitempty"`
}

// Rule converts c into a recurrence.Rule with dates anchored in loc. Only
// malformed input (unparsable dates, unknown type or ordinal names) is an
// error; out-of-range numbers pass through for Validate or Expand to judge.
func (c RuleConfig) Rule(loc *time.Location) (recurrence.Rule, error) {
	var rule recurrence.Rule
	if loc == nil {
		loc = time.Local
	}

	start, err := parseDate(c.StartDate, loc)
	if err != nil {
		return rule, fmt.Errorf("%w: startDate: %w", errBadConfig, err)
	}
	end, err := parseDate(c.EndDate, loc)
	if err != nil {
		return rule, fmt.Errorf("%w: endDate: %w", errBadConfig, err)
	}

	rule.Start = start
	rule.End = end
	rule.Interval = 1
	if c.Interval != nil {
		if *c.Interval > recurrence.MaxInterval {
			return rule, fmt.Errorf("%w: interval: must not exceed %d, got %d", errBadConfig, recurrence.MaxInterval, *c.Interval)
		}
		rule.Interval = *c.Interval
	}

	// defaults are taken from the start day, or zero values without one
	var ref time.Time
	if s, ok := start.Get(); ok {
		ref = s
	}

	switch strings.ToLower(c.RecurrenceType) {
	case TypeDaily:
		rule.Pattern = recurrence.Daily{}

	case TypeWeekly:
		var days []time.Weekday
		for _, d := range c.WeeklyDays {
			days = append(days, time.Weekday(d))
		}
		rule.Pattern = recurrence.Weekly{Days: days}

	case TypeMonthly:
		switch c.MonthlyType {
		case "", MonthlyDayOfMonth:
			rule.Pattern = recurrence.MonthlyByDay{Day: intOr(c.MonthlyDayOfMonth, ref.Day())}
		case MonthlyOrdinal:
			ordinal, err := parseOrdinal(c.MonthlyOrdinalWeek)
			if err != nil {
				return rule, fmt.Errorf("%w: monthlyOrdinalWeek: %w", errBadConfig, err)
			}
			rule.Pattern = recurrence.MonthlyByOrdinal{
				Ordinal: ordinal,
				Weekday: time.Weekday(intOr(c.MonthlyOrdinalDayOfWeek, int(ref.Weekday()))),
			}
		default:
			return rule, fmt.Errorf("%w: unknown monthlyType '%s'", errBadConfig, c.MonthlyType)
		}

	case TypeYearly:
		switch c.YearlyType {
		case "", YearlySpecific:
			rule.Pattern = recurrence.YearlyByDate{
				Month: time.Month(intOr(c.YearlyMonth, int(ref.Month())-1) + 1),
				Day:   intOr(c.YearlyDayOfMonth, ref.Day()),
			}
		case YearlyOrdinal:
			ordinal, err := parseOrdinal(c.YearlyOrdinalWeek)
			if err != nil {
				return rule, fmt.Errorf("%w: yearlyOrdinalWeek: %w", errBadConfig, err)
			}
			rule.Pattern = recurrence.YearlyByOrdinal{
				Ordinal: ordinal,
				Weekday: time.Weekday(intOr(c.YearlyOrdinalDayOfWeek, int(ref.Weekday()))),
				Month:   time.Month(intOr(c.YearlyOrdinalMonth, int(ref.Month())-1) + 1),
			}
		default:
			return rule, fmt.Errorf("%w: unknown yearlyType '%s'", errBadConfig, c.YearlyType)
		}

	case "":
		// no pattern; expands to nothing
	default:
		return rule, fmt.Errorf("%w: unknown recurrenceType '%s'", errBadConfig, c.RecurrenceType)
	}

	return rule, nil
}

// ConfigFromRule renders rule in the picker's shape
func ConfigFromRule(rule recurrence.Rule) RuleConfig {
	c := RuleConfig{
		Interval: intPtr(rule.Interval),
	}
	if s, ok := rule.Start.Get(); ok {
		c.StartDate = s.Format(time.DateOnly)
	}
	if e, ok := rule.End.Get(); ok {
		c.EndDate = e.Format(time.DateOnly)
	}

	switch p := rule.Pattern.(type) {
	case recurrence.Daily:
		c.RecurrenceType = TypeDaily
	case recurrence.Weekly:
		c.RecurrenceType = TypeWeekly
		for _, d := range p.Days {
			c.WeeklyDays = append(c.WeeklyDays, int(d))
		}
	case recurrence.MonthlyByDay:
		c.RecurrenceType = TypeMonthly
		c.MonthlyType = MonthlyDayOfMonth
		c.MonthlyDayOfMonth = &p.Day
	case recurrence.MonthlyByOrdinal:
		c.RecurrenceType = TypeMonthly
		c.MonthlyType = MonthlyOrdinal
		c.MonthlyOrdinalWeek = p.Ordinal.String()
		c.MonthlyOrdinalDayOfWeek = intPtr(int(p.Weekday))
	case recurrence.YearlyByDate:
		c.RecurrenceType = TypeYearly
		c.YearlyType = YearlySpecific
		c.YearlyMonth = intPtr(int(p.Month) - 1)
		c.YearlyDayOfMonth = &p.Day
	case recurrence.YearlyByOrdinal:
		c.RecurrenceType = TypeYearly
		c.YearlyType = YearlyOrdinal
		c.YearlyOrdinalWeek = p.Ordinal.String()
		c.YearlyOrdinalDayOfWeek = intPtr(int(p.Weekday))
		c.YearlyOrdinalMonth = intPtr(int(p.Month) - 1)
	}
	return c
}

func parseDate(s string, loc *time.Location) (mo.Option[time.Time], error) {
	if s == "" {
		return mo.None[time.Time](), nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, loc); err == nil {
		return mo.Some(t), nil
	}
	// JSON-serialized browser dates carry an instant; take its day in loc
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return mo.None[time.Time](), fmt.Errorf("'%s' is neither YYYY-MM-DD nor RFC 3339", s)
	}
	return mo.Some(calendar.StartOfDay(t.In(loc))), nil
}

func parseOrdinal(s string) (recurrence.Ordinal, error) {
	if s == "" {
		return recurrence.First, nil
	}
	o, ok := recurrence.ParseOrdinal(s)
	if !ok {
		return o, fmt.Errorf("unknown ordinal '%s'", s)
	}
	return o, nil
}

func intOr(p *int, fallback int) int {
	if p == nil {
		return fallback
	}
	return *p
}

func intPtr(v int) *int {
	return &v
}
