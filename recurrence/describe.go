package recurrence

import (
	"fmt"
	"strings"
	"time"

	"github.com/cyp0633/librecur/internal/calendar"
)

// Display names used by picker labels.
var (
	DayNames      = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
	ShortDayNames = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	MonthNames    = []string{
		"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December",
	}
	OrdinalNames = []string{"first", "second", "third", "fourth", "last"}
)

var unitNames = map[Kind][2]string{
	KindDaily:   {"day", "days"},
	KindWeekly:  {"week", "weeks"},
	KindMonthly: {"month", "months"},
	KindYearly:  {"year", "years"},
}

// Describe renders rule as a short English sentence, e.g.
// "Every 2 weeks on Tue, Thu" or "Every year on the first Mon of September".
func Describe(rule Rule) string {
	kind := rule.Kind()
	if kind == KindUnknown {
		return "Does not repeat"
	}

	var b strings.Builder
	names := unitNames[kind]
	if n := rule.interval(); n == 1 {
		b.WriteString("Every " + names[0])
	} else {
		fmt.Fprintf(&b, "Every %d %s", n, names[1])
	}

	switch p := rule.Pattern.(type) {
	case Weekly:
		set, ok := weekdaySet(p.Days)
		if ok {
			var days []string
			for d := time.Sunday; d <= time.Saturday; d++ {
				if set[d] {
					days = append(days, ShortDayNames[d])
				}
			}
			b.WriteString(" on " + strings.Join(days, ", "))
		} else if start, ok := rule.Start.Get(); ok {
			b.WriteString(" on " + ShortDayNames[start.Weekday()])
		}
	case MonthlyByDay:
		fmt.Fprintf(&b, " on day %d", p.Day)
	case MonthlyByOrdinal:
		fmt.Fprintf(&b, " on the %s %s", p.Ordinal, weekdayName(p.Weekday))
	case YearlyByDate:
		fmt.Fprintf(&b, " on %s %d", monthName(p.Month), p.Day)
	case YearlyByOrdinal:
		fmt.Fprintf(&b, " on the %s %s of %s", p.Ordinal, weekdayName(p.Weekday), monthName(p.Month))
	}

	if end, ok := rule.End.Get(); ok {
		b.WriteString(" until " + end.Format(time.DateOnly))
	}
	return b.String()
}

// ParseOrdinal maps one of OrdinalNames onto an Ordinal, ignoring case
func ParseOrdinal(s string) (Ordinal, bool) {
	for i, name := range OrdinalNames {
		if strings.EqualFold(s, name) {
			return Ordinal(int(First) + i), true
		}
	}
	return calendar.OrdinalNone, false
}

func weekdayName(d time.Weekday) string {
	if !validWeekday(d) {
		return "?"
	}
	return ShortDayNames[d]
}

func monthName(m time.Month) string {
	if !validMonth(m) {
		return "?"
	}
	return MonthNames[m-1]
}
