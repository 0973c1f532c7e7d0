// Package calendar provides calendar-day arithmetic on time.Time values.
//
// Every function treats its input as a local calendar day: the time of day is
// dropped and results are returned at midnight in the input's location.
package calendar

import (
	"time"

	"github.com/samber/mo"
)

// Ordinal selects which matching weekday within a month is wanted.
type Ordinal int

const (
	OrdinalNone Ordinal = iota
	First
	Second
	Third
	Fourth
	Last
)

// Valid reports whether o is one of First..Fourth or Last.
func (o Ordinal) Valid() bool {
	return o >= First && o <= Last
}

func (o Ordinal) String() string {
	switch o {
	case First:
		return "first"
	case Second:
		return "second"
	case Third:
		return "third"
	case Fourth:
		return "fourth"
	case Last:
		return "last"
	default:
		return "none"
	}
}

// Date builds the first instant of the given day, which is midnight unless a
// DST transition skips it (America/Sao_Paulo before 2019). Out-of-range days
// and months are normalized the way time.Date does it.
func Date(year int, month time.Month, day int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Date()

	t := time.Date(y, m, d, 0, 0, 0, 0, loc)
	for i := 0; i < 24 && before(t, y, m, d); i++ {
		t = t.Add(time.Hour)
	}
	return t
}

// before reports whether t's wall-clock day precedes y-m-d
func before(t time.Time, y int, m time.Month, d int) bool {
	ty, tm, td := t.Date()
	switch {
	case ty != y:
		return ty < y
	case tm != m:
		return tm < m
	default:
		return td < d
	}
}

// StartOfDay truncates t to midnight of its calendar day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d, t.Location())
}

// In re-anchors t's calendar day into loc without converting the instant.
func In(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d, loc)
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return Compare(a, b) == 0
}

// Compare compares the calendar days of a and b, ignoring time of day and location.
func Compare(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	switch {
	case ay != by:
		return cmpInt(ay, by)
	case am != bm:
		return cmpInt(int(am), int(bm))
	default:
		return cmpInt(ad, bd)
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// IsLeapYear reports whether year has a February 29th.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInMonth returns the number of days in month of year.
func DaysInMonth(year int, month time.Month) int {
	switch month {
	case time.February:
		if IsLeapYear(year) {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}

// DayOfWeek returns the weekday of t, Sunday being 0.
func DayOfWeek(t time.Time) time.Weekday {
	return t.Weekday()
}

// StartOfWeek returns the Sunday that begins t's week.
func StartOfWeek(t time.Time) time.Time {
	return AddDays(t, -int(t.Weekday()))
}

// AddDays moves t by n calendar days.
func AddDays(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d+n, t.Location())
}

// AddWeeks moves t by n weeks.
func AddWeeks(t time.Time, n int) time.Time {
	return AddDays(t, 7*n)
}

// AddMonths moves t by n months. A day that does not exist in the target
// month is clamped to its last day: Jan 31 + 1 month is Feb 28 (or 29).
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	total := int(m) - 1 + n
	ty := y + floorDiv(total, 12)
	tm := time.Month(total-floorDiv(total, 12)*12 + 1)
	return Date(ty, tm, ClampDay(ty, tm, d), t.Location())
}

// AddYears moves t by n years, clamping Feb 29 to Feb 28 in common years.
func AddYears(t time.Time, n int) time.Time {
	return AddMonths(t, 12*n)
}

// ClampDay limits day to the valid range of month in year.
func ClampDay(year int, month time.Month, day int) int {
	if day < 1 {
		return 1
	}
	return min(day, DaysInMonth(year, month))
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// NthWeekdayOfMonth returns the ordinal-th weekday of month in year, or None
// when that position does not exist (a fifth Monday in a four-Monday month)
// or ordinal is not valid. Last always resolves.
func NthWeekdayOfMonth(year int, month time.Month, weekday time.Weekday, ordinal Ordinal, loc *time.Location) mo.Option[time.Time] {
	if !ordinal.Valid() || weekday < time.Sunday || weekday > time.Saturday {
		return mo.None[time.Time]()
	}

	var matches []time.Time
	days := DaysInMonth(year, month)
	for day := 1; day <= days; day++ {
		d := Date(year, month, day, loc)
		if d.Weekday() == weekday {
			matches = append(matches, d)
		}
	}

	if ordinal == Last {
		if len(matches) == 0 {
			return mo.None[time.Time]()
		}
		return mo.Some(matches[len(matches)-1])
	}

	idx := int(ordinal) - int(First)
	if idx >= len(matches) {
		return mo.None[time.Time]()
	}
	return mo.Some(matches[idx])
}
