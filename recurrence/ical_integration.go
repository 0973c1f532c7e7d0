package recurrence

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/cyp0633/librecur/internal/calendar"
	"github.com/emersion/go-ical"
	"github.com/google/uuid"
	"github.com/samber/mo"
	"github.com/teambition/rrule-go"
)

// ErrUnsupportedRRule is returned when an RRULE has no Rule equivalent
var ErrUnsupportedRRule = errors.New("rrule not expressible as a picker rule")

const prodID = "-//librecur//Recurrence Preview//EN"

var rruleWeekdays = [7]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// ROption converts rule to the equivalent RFC 5545 recurrence. Weeks start on
// Sunday. Day-of-month clamping is expressed as BYMONTHDAY=28..d;BYSETPOS=-1,
// which picks the largest existing day not after d in every month.
func ROption(rule Rule) (*rrule.ROption, error) {
	if err := Validate(rule); err != nil {
		return nil, err
	}

	start := calendar.StartOfDay(rule.Start.MustGet())
	opt := &rrule.ROption{
		Dtstart:  start,
		Interval: rule.Interval,
		Wkst:     rrule.SU,
	}
	if end, ok := rule.End.Get(); ok {
		opt.Until = calendar.In(end, start.Location())
	}

	switch p := rule.Pattern.(type) {
	case Daily:
		opt.Freq = rrule.DAILY
	case Weekly:
		opt.Freq = rrule.WEEKLY
		set, ok := weekdaySet(p.Days)
		if !ok {
			set[start.Weekday()] = true
		}
		for d := time.Sunday; d <= time.Saturday; d++ {
			if set[d] {
				opt.Byweekday = append(opt.Byweekday, rruleWeekdays[d])
			}
		}
	case MonthlyByDay:
		opt.Freq = rrule.MONTHLY
		opt.Bymonthday, opt.Bysetpos = clampedMonthDay(p.Day)
	case MonthlyByOrdinal:
		opt.Freq = rrule.MONTHLY
		opt.Byweekday = []rrule.Weekday{nthWeekday(p.Weekday, p.Ordinal)}
	case YearlyByDate:
		opt.Freq = rrule.YEARLY
		opt.Bymonth = []int{int(p.Month)}
		opt.Bymonthday, opt.Bysetpos = clampedMonthDay(p.Day)
	case YearlyByOrdinal:
		opt.Freq = rrule.YEARLY
		opt.Bymonth = []int{int(p.Month)}
		opt.Byweekday = []rrule.Weekday{nthWeekday(p.Weekday, p.Ordinal)}
	}

	return opt, nil
}

// RRuleString renders rule as an RRULE value without the "RRULE:" prefix
func RRuleString(rule Rule) (string, error) {
	opt, err := ROption(rule)
	if err != nil {
		return "", err
	}
	// DTSTART is always a DATE, so UNTIL has to be one too (RFC 5545 3.3.10)
	parts := strings.Split(opt.RRuleString(), ";")
	for i, part := range parts {
		if strings.HasPrefix(part, "UNTIL=") {
			parts[i] = "UNTIL=" + opt.Until.Format(rrule.DateFormat)
		}
	}
	return strings.Join(parts, ";"), nil
}

func clampedMonthDay(day int) (monthdays, setpos []int) {
	if day <= 28 {
		return []int{day}, nil
	}
	for d := 28; d <= day; d++ {
		monthdays = append(monthdays, d)
	}
	return monthdays, []int{-1}
}

func nthWeekday(d time.Weekday, o Ordinal) rrule.Weekday {
	wd := rruleWeekdays[d]
	if o == Last {
		return wd.Nth(-1)
	}
	return wd.Nth(int(o) - int(First) + 1)
}

// ToEvent builds an all-day master VEVENT carrying rule as its RRULE
func ToEvent(rule Rule, summary string) (*ical.Event, error) {
	value, err := RRuleString(rule)
	if err != nil {
		return nil, fmt.Errorf("failed to build RRULE: %w", err)
	}

	start := calendar.StartOfDay(rule.Start.MustGet())
	event := newAllDayEvent(start, summary)

	prop := ical.NewProp(ical.PropRecurrenceRule)
	prop.Value = value
	event.Props.Set(prop)

	return event, nil
}

// OccurrenceCalendar builds a VCALENDAR with one all-day VEVENT per date
func OccurrenceCalendar(dates []time.Time, summary string) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, prodID)
	cal.Props.SetText(ical.PropVersion, "2.0")

	for _, d := range dates {
		cal.Children = append(cal.Children, newAllDayEvent(d, summary).Component)
	}
	return cal
}

// NewCalendar wraps events in a VCALENDAR with PRODID and VERSION set
func NewCalendar(events ...*ical.Event) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, prodID)
	cal.Props.SetText(ical.PropVersion, "2.0")
	for _, e := range events {
		cal.Children = append(cal.Children, e.Component)
	}
	return cal
}

func newAllDayEvent(day time.Time, summary string) *ical.Event {
	day = calendar.StartOfDay(day)

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, uuid.NewString())
	event.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	event.Props.SetDate(ical.PropDateTimeStart, day)
	event.Props.SetDate(ical.PropDateTimeEnd, calendar.AddDays(day, 1))
	if summary != "" {
		event.Props.SetText(ical.PropSummary, summary)
	}
	return event
}

// RuleFromComponent reads DTSTART and RRULE from an iCal component and maps
// them onto a Rule. Dates are anchored in loc (time.Local when nil). RRULEs
// using COUNT, sub-day frequencies or BY* combinations the picker cannot
// express return ErrUnsupportedRRule.
func RuleFromComponent(comp *ical.Component, loc *time.Location) (Rule, error) {
	if loc == nil {
		loc = time.Local
	}

	start, err := startDay(comp, loc)
	if err != nil {
		return Rule{}, fmt.Errorf("failed to read DTSTART: %w", err)
	}

	prop := comp.Props.Get(ical.PropRecurrenceRule)
	if prop == nil || prop.Value == "" {
		return Rule{}, fmt.Errorf("%w: component has no RRULE", ErrUnsupportedRRule)
	}

	// floating UNTIL values are read in loc
	opt, err := rrule.StrToROptionInLocation(prop.Value, loc)
	if err != nil {
		return Rule{}, fmt.Errorf("failed to parse RRULE '%s': %w", prop.Value, err)
	}

	rule, err := ruleFromROption(opt, start)
	if err != nil {
		return Rule{}, err
	}
	if until, ok := dateUntil(prop.Value); ok {
		rule.End = mo.Some(calendar.Date(until.Year(), until.Month(), until.Day(), loc))
	}
	return rule, nil
}

// startDay reads DTSTART as a calendar day in loc. DATE values are parsed in
// UTC first so a midnight that loc skips cannot shift the day.
func startDay(comp *ical.Component, loc *time.Location) (time.Time, error) {
	prop := comp.Props.Get(ical.PropDateTimeStart)
	if prop == nil {
		return time.Time{}, errors.New("missing property")
	}

	if prop.ValueType() == ical.ValueDate || len(prop.Value) == len(rrule.DateFormat) {
		t, err := prop.DateTime(time.UTC)
		if err != nil {
			return time.Time{}, err
		}
		return calendar.In(t, loc), nil
	}

	t, err := prop.DateTime(loc)
	if err != nil {
		return time.Time{}, err
	}
	return calendar.In(t.In(loc), loc), nil
}

// dateUntil returns the UNTIL part of an RRULE when it is a plain DATE
func dateUntil(value string) (time.Time, bool) {
	for _, part := range strings.Split(value, ";") {
		key, v, ok := strings.Cut(part, "=")
		if !ok || !strings.EqualFold(key, "UNTIL") || len(v) != len(rrule.DateFormat) {
			continue
		}
		t, err := time.Parse(rrule.DateFormat, v)
		return t, err == nil
	}
	return time.Time{}, false
}

func ruleFromROption(opt *rrule.ROption, start time.Time) (Rule, error) {
	unsupported := func(reason string) (Rule, error) {
		return Rule{}, fmt.Errorf("%w: %s", ErrUnsupportedRRule, reason)
	}

	if opt.Count > 0 {
		return unsupported("COUNT")
	}
	if len(opt.Byyearday) > 0 || len(opt.Byweekno) > 0 || len(opt.Byhour) > 0 ||
		len(opt.Byminute) > 0 || len(opt.Bysecond) > 0 || len(opt.Byeaster) > 0 {
		return unsupported("BY* part")
	}

	rule := NewRule(start, nil).Every(max(opt.Interval, 1))
	if !opt.Until.IsZero() {
		rule.End = mo.Some(calendar.In(opt.Until.In(start.Location()), start.Location()))
	}

	switch opt.Freq {
	case rrule.DAILY:
		if len(opt.Byweekday) > 0 || len(opt.Bymonthday) > 0 || len(opt.Bymonth) > 0 {
			return unsupported("filtered DAILY")
		}
		rule.Pattern = Daily{}

	case rrule.WEEKLY:
		var days []time.Weekday
		for _, wd := range opt.Byweekday {
			if wd.N() != 0 {
				return unsupported("numbered BYDAY in WEEKLY")
			}
			days = append(days, fromRRuleWeekday(wd))
		}
		rule.Pattern = Weekly{Days: days}

	case rrule.MONTHLY:
		if len(opt.Bymonth) > 0 {
			return unsupported("BYMONTH in MONTHLY")
		}
		if day, ok := monthDayFrom(opt, start); ok {
			rule.Pattern = MonthlyByDay{Day: day}
			break
		}
		ordinal, weekday, ok := ordinalFrom(opt)
		if !ok {
			return unsupported("MONTHLY pattern")
		}
		rule.Pattern = MonthlyByOrdinal{Ordinal: ordinal, Weekday: weekday}

	case rrule.YEARLY:
		month := start.Month()
		switch len(opt.Bymonth) {
		case 0:
		case 1:
			month = time.Month(opt.Bymonth[0])
		default:
			return unsupported("several BYMONTH values")
		}
		if day, ok := monthDayFrom(opt, start); ok {
			rule.Pattern = YearlyByDate{Month: month, Day: day}
			break
		}
		ordinal, weekday, ok := ordinalFrom(opt)
		if !ok {
			return unsupported("YEARLY pattern")
		}
		rule.Pattern = YearlyByOrdinal{Ordinal: ordinal, Weekday: weekday, Month: month}

	default:
		return unsupported(fmt.Sprintf("frequency %v", opt.Freq))
	}

	return rule, nil
}

// monthDayFrom recognizes a plain BYMONTHDAY, the clamped 28..d form, or no
// BY* part at all (the start's day).
func monthDayFrom(opt *rrule.ROption, start time.Time) (int, bool) {
	if len(opt.Byweekday) > 0 {
		return 0, false
	}
	switch {
	case len(opt.Bymonthday) == 0 && len(opt.Bysetpos) == 0:
		return start.Day(), true
	case len(opt.Bymonthday) == 1 && len(opt.Bysetpos) == 0 && opt.Bymonthday[0] > 0:
		return opt.Bymonthday[0], true
	case len(opt.Bysetpos) == 1 && opt.Bysetpos[0] == -1 && len(opt.Bymonthday) > 0:
		days := slices.Sorted(slices.Values(opt.Bymonthday))
		if days[0] != 28 {
			return 0, false
		}
		for i, d := range days {
			if d != 28+i {
				return 0, false
			}
		}
		return days[len(days)-1], true
	}
	return 0, false
}

// ordinalFrom recognizes BYDAY=2TU and BYDAY=TU;BYSETPOS=2.
func ordinalFrom(opt *rrule.ROption) (Ordinal, time.Weekday, bool) {
	if len(opt.Byweekday) != 1 || len(opt.Bymonthday) > 0 {
		return 0, 0, false
	}
	wd := opt.Byweekday[0]
	n := wd.N()
	switch {
	case n != 0 && len(opt.Bysetpos) > 0:
		return 0, 0, false
	case n == 0 && len(opt.Bysetpos) == 1:
		n = opt.Bysetpos[0]
	case n == 0:
		return 0, 0, false
	}

	switch {
	case n == -1:
		return Last, fromRRuleWeekday(wd), true
	case n >= 1 && n <= 4:
		return Ordinal(int(First) + n - 1), fromRRuleWeekday(wd), true
	}
	return 0, 0, false
}

// fromRRuleWeekday maps rrule-go's Monday-first numbering onto time.Weekday
func fromRRuleWeekday(wd rrule.Weekday) time.Weekday {
	return time.Weekday((wd.Day() + 1) % 7)
}
