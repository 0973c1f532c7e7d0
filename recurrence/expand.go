package recurrence

import (
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/cyp0633/librecur/internal/calendar"
	"github.com/samber/mo"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Expand lists the occurrences of rule in ascending calendar order.
//
// The loop runs at most maxOccurrences cycles (DefaultMaxOccurrences when
// maxOccurrences <= 0), so unbounded rules still terminate. Cycles count
// cursor advances, not emitted dates. Degenerate input never fails: a rule
// without a start date or pattern yields an empty list, and a cycle whose
// target day does not exist (a fifth Monday) is skipped.
func Expand(rule Rule, maxOccurrences int) []time.Time {
	return expand(rule, maxOccurrences, discardLogger)
}

func expand(rule Rule, maxOccurrences int, logger *slog.Logger) []time.Time {
	if maxOccurrences <= 0 {
		maxOccurrences = DefaultMaxOccurrences
	}
	dates := make([]time.Time, 0)

	x, ok := newExpansion(rule)
	if !ok {
		logger.Debug("rule not configured, nothing to expand",
			"has_start", rule.Start.IsPresent(),
			"kind", rule.Kind().String())
		return dates
	}

	cycles := 0
	for ; cycles < maxOccurrences && x.notPastEnd(x.cursor); cycles++ {
		if c, ok := x.candidate().Get(); ok && x.inWindow(c) {
			dates = append(dates, c)
		}

		next, ok := x.step()
		if !ok || calendar.Compare(next, x.cursor) < 0 {
			logger.Debug("step out of range, stopping",
				"kind", rule.Kind().String(),
				"interval", x.interval,
				"cursor", x.cursor.Format(time.DateOnly))
			cycles++
			break
		}
		if calendar.SameDay(next, x.cursor) {
			next = calendar.AddDays(x.cursor, 1)
		}
		x.cursor = next
	}

	// The loop only appends in-window dates; filter again anyway so a future
	// pattern cannot leak a stray candidate.
	dates = slices.DeleteFunc(dates, func(d time.Time) bool { return !x.inWindow(d) })
	slices.SortStableFunc(dates, calendar.Compare)

	logger.Debug("expanded recurrence",
		"kind", rule.Kind().String(),
		"interval", x.interval,
		"cycles", cycles,
		"occurrences", len(dates),
		"capped", cycles >= maxOccurrences)

	return dates
}

// expansion is the per-call cursor state. It is never shared.
type expansion struct {
	pattern  Pattern
	interval int
	start    time.Time
	end      mo.Option[time.Time]
	cursor   time.Time

	// month and year kinds: whole periods elapsed since start
	period int

	// weekly with explicit days: the Sunday opening the current cycle
	weekStart time.Time
	days      [7]bool
	hasDays   bool
}

func newExpansion(rule Rule) (*expansion, bool) {
	start, ok := rule.Start.Get()
	if !ok || start.IsZero() || rule.Pattern == nil {
		return nil, false
	}
	start = calendar.StartOfDay(start)

	x := &expansion{
		pattern:  rule.Pattern,
		interval: rule.interval(),
		start:    start,
		cursor:   start,
	}
	if end, ok := rule.End.Get(); ok {
		x.end = mo.Some(calendar.In(end, start.Location()))
	}
	if w, ok := rule.Pattern.(Weekly); ok {
		x.days, x.hasDays = weekdaySet(w.Days)
		x.weekStart = calendar.StartOfWeek(start)
	}
	return x, true
}

func (x *expansion) notPastEnd(t time.Time) bool {
	end, ok := x.end.Get()
	return !ok || calendar.Compare(t, end) <= 0
}

func (x *expansion) inWindow(t time.Time) bool {
	return calendar.Compare(t, x.start) >= 0 && x.notPastEnd(t)
}

// candidate returns the occurrence produced by the current cycle, if any.
func (x *expansion) candidate() mo.Option[time.Time] {
	loc := x.start.Location()
	y, m, _ := x.cursor.Date()

	switch p := x.pattern.(type) {
	case Daily:
		return mo.Some(x.cursor)

	case Weekly:
		if !x.hasDays || x.days[x.cursor.Weekday()] {
			return mo.Some(x.cursor)
		}

	case MonthlyByDay:
		if p.Day >= 1 && p.Day <= 31 {
			return mo.Some(calendar.Date(y, m, calendar.ClampDay(y, m, p.Day), loc))
		}

	case MonthlyByOrdinal:
		return calendar.NthWeekdayOfMonth(y, m, p.Weekday, p.Ordinal, loc)

	case YearlyByDate:
		if validMonth(p.Month) && p.Day >= 1 && p.Day <= 31 {
			return mo.Some(calendar.Date(y, p.Month, calendar.ClampDay(y, p.Month, p.Day), loc))
		}

	case YearlyByOrdinal:
		if validMonth(p.Month) {
			return calendar.NthWeekdayOfMonth(y, p.Month, p.Weekday, p.Ordinal, loc)
		}
	}

	return mo.None[time.Time]()
}

// Bounds on how far a single step may move the cursor. A step past them
// ends the expansion instead of overflowing the date arithmetic.
const (
	maxStepYears  = 1_000_000
	maxStepMonths = 12 * maxStepYears
	maxStepDays   = 366 * maxStepYears
)

// step returns the cursor for the next cycle, or false when it lies beyond
// the representable range.
func (x *expansion) step() (time.Time, bool) {
	loc := x.start.Location()

	switch x.pattern.(type) {
	case Daily:
		if x.interval > maxStepDays {
			return time.Time{}, false
		}
		return calendar.AddDays(x.cursor, x.interval), true

	case Weekly:
		if !x.hasDays {
			if x.interval > maxStepDays/7 {
				return time.Time{}, false
			}
			return calendar.AddWeeks(x.cursor, x.interval), true
		}
		return x.nextSelectedDay()

	case MonthlyByDay, MonthlyByOrdinal:
		// Later cycles sit on the first of the month so that "cursor <= end"
		// never cuts off a candidate falling inside the final month.
		x.period++
		if x.period > maxStepMonths/x.interval {
			return time.Time{}, false
		}
		first := calendar.Date(x.start.Year(), x.start.Month(), 1, loc)
		return calendar.AddMonths(first, x.period*x.interval), true

	case YearlyByDate, YearlyByOrdinal:
		x.period++
		if x.period > maxStepYears/x.interval {
			return time.Time{}, false
		}
		return calendar.Date(x.start.Year()+x.period*x.interval, time.January, 1, loc), true
	}

	return calendar.AddDays(x.cursor, 1), true
}

// nextSelectedDay finds the next selected weekday after the cursor. Days left
// in the current Sunday-started week come first, in calendar order; otherwise
// the cycle jumps interval weeks and the first selected day there is taken.
func (x *expansion) nextSelectedDay() (time.Time, bool) {
	weekEnd := calendar.AddDays(x.weekStart, 6)
	for d := calendar.AddDays(x.cursor, 1); calendar.Compare(d, weekEnd) <= 0; d = calendar.AddDays(d, 1) {
		if x.days[d.Weekday()] {
			return d, true
		}
	}

	if x.interval > maxStepDays/7 {
		return time.Time{}, false
	}
	x.weekStart = calendar.AddWeeks(x.weekStart, x.interval)
	d := x.weekStart
	for i := 0; i < 7; i++ {
		if x.days[d.Weekday()] {
			return d, true
		}
		d = calendar.AddDays(d, 1)
	}
	return calendar.AddDays(x.cursor, 1), true
}
