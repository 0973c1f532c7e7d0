package recurrence

import (
	"time"

	"github.com/cyp0633/librecur/internal/calendar"
	"github.com/samber/mo"
)

// DefaultMaxOccurrences bounds expansion to two years of daily events.
const DefaultMaxOccurrences = 365 * 2

// MaxInterval is the largest interval Validate accepts.
const MaxInterval = 1000

// Kind is the unit a rule's interval is counted in.
type Kind int

const (
	KindUnknown Kind = iota
	KindDaily
	KindWeekly
	KindMonthly
	KindYearly
)

func (k Kind) String() string {
	switch k {
	case KindDaily:
		return "daily"
	case KindWeekly:
		return "weekly"
	case KindMonthly:
		return "monthly"
	case KindYearly:
		return "yearly"
	default:
		return "unknown"
	}
}

// Ordinal selects which matching weekday within a month is wanted.
type Ordinal = calendar.Ordinal

const (
	First  = calendar.First
	Second = calendar.Second
	Third  = calendar.Third
	Fourth = calendar.Fourth
	Last   = calendar.Last
)

// Pattern is the kind-specific part of a Rule. The set of implementations is
// closed: Daily, Weekly, MonthlyByDay, MonthlyByOrdinal, YearlyByDate and
// YearlyByOrdinal.
type Pattern interface {
	Kind() Kind
	isPattern()
}

// Daily recurs every Interval days.
type Daily struct{}

// Weekly recurs every Interval weeks on Days. An empty Days recurs on the
// weekday of the rule's start date.
type Weekly struct {
	Days []time.Weekday
}

// MonthlyByDay recurs on a fixed day of the month. Days past the end of a
// short month fall on that month's last day.
type MonthlyByDay struct {
	Day int // 1..31
}

// MonthlyByOrdinal recurs on e.g. the second Tuesday of the month.
type MonthlyByOrdinal struct {
	Ordinal Ordinal
	Weekday time.Weekday
}

// YearlyByDate recurs on a fixed month and day, clamped like MonthlyByDay.
type YearlyByDate struct {
	Month time.Month
	Day   int
}

// YearlyByOrdinal recurs on e.g. the first Monday of September.
type YearlyByOrdinal struct {
	Ordinal Ordinal
	Weekday time.Weekday
	Month   time.Month
}

func (Daily) Kind() Kind            { return KindDaily }
func (Weekly) Kind() Kind           { return KindWeekly }
func (MonthlyByDay) Kind() Kind     { return KindMonthly }
func (MonthlyByOrdinal) Kind() Kind { return KindMonthly }
func (YearlyByDate) Kind() Kind     { return KindYearly }
func (YearlyByOrdinal) Kind() Kind  { return KindYearly }

func (Daily) isPattern()            {}
func (Weekly) isPattern()           {}
func (MonthlyByDay) isPattern()     {}
func (MonthlyByOrdinal) isPattern() {}
func (YearlyByDate) isPattern()     {}
func (YearlyByOrdinal) isPattern()  {}

// Rule describes a recurrence. Start and End are calendar days; time of day
// and location offsets beyond the calendar date are ignored. End is inclusive.
type Rule struct {
	Start    mo.Option[time.Time]
	End      mo.Option[time.Time]
	Interval int
	Pattern  Pattern
}

// NewRule returns a rule starting on start with interval 1.
func NewRule(start time.Time, pattern Pattern) Rule {
	return Rule{
		Start:    mo.Some(start),
		Interval: 1,
		Pattern:  pattern,
	}
}

// Every returns a copy of r with the given interval.
func (r Rule) Every(interval int) Rule {
	r.Interval = interval
	return r
}

// Until returns a copy of r ending on end, inclusive.
func (r Rule) Until(end time.Time) Rule {
	r.End = mo.Some(end)
	return r
}

// Kind returns the kind of r's pattern.
func (r Rule) Kind() Kind {
	if r.Pattern == nil {
		return KindUnknown
	}
	return r.Pattern.Kind()
}

func (r Rule) interval() int {
	if r.Interval < 1 {
		return 1
	}
	return r.Interval
}

// weekdaySet is the set of valid weekdays in days.
func weekdaySet(days []time.Weekday) (set [7]bool, nonEmpty bool) {
	for _, d := range days {
		if validWeekday(d) {
			set[d] = true
			nonEmpty = true
		}
	}
	return set, nonEmpty
}

func validMonth(m time.Month) bool {
	return m >= time.January && m <= time.December
}

func validWeekday(d time.Weekday) bool {
	return d >= time.Sunday && d <= time.Saturday
}
