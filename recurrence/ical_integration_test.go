package recurrence

import (
	"bytes"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teambition/rrule-go"
)

// rules on which RFC 5545 (WKST=SU) and the picker agree
var oracleRules = map[string]Rule{
	"daily every 3 days": NewRule(date(2025, 9, 1), Daily{}).Every(3).Until(date(2025, 12, 31)),
	"weekly wednesdays":  NewRule(date(2025, 9, 21), Weekly{Days: []time.Weekday{time.Wednesday}}).Until(date(2025, 11, 30)),
	"biweekly tuesday":   NewRule(date(2025, 8, 30), Weekly{Days: []time.Weekday{time.Tuesday}}).Every(2).Until(date(2025, 9, 30)),
	"biweekly tue thu": NewRule(date(2025, 9, 24), Weekly{Days: []time.Weekday{time.Thursday, time.Tuesday}}).
		Every(2).Until(date(2026, 3, 1)),
	"weekly no days":       NewRule(date(2025, 9, 24), Weekly{}).Every(3).Until(date(2026, 3, 1)),
	"monthly 15th":         NewRule(date(2025, 9, 1), MonthlyByDay{Day: 15}).Until(date(2025, 12, 1)),
	"monthly 31st clamped": NewRule(date(2024, 1, 1), MonthlyByDay{Day: 31}).Until(date(2025, 12, 31)),
	"monthly last friday":  NewRule(date(2025, 9, 1), MonthlyByOrdinal{Ordinal: Last, Weekday: time.Friday}).Until(date(2026, 8, 31)),
	"bimonthly 2nd tue":    NewRule(date(2025, 9, 10), MonthlyByOrdinal{Ordinal: Second, Weekday: time.Tuesday}).Every(2).Until(date(2026, 8, 31)),
	"yearly leap day":      NewRule(date(2024, 1, 1), YearlyByDate{Month: time.February, Day: 29}).Until(date(2032, 12, 31)),
	"yearly first monday":  NewRule(date(2025, 9, 1), YearlyByOrdinal{Ordinal: First, Weekday: time.Monday, Month: time.September}).Until(date(2030, 9, 30)),
}

func TestROption_AgreesWithRRule(t *testing.T) {
	for name, rule := range oracleRules {
		t.Run(name, func(t *testing.T) {
			opt, err := ROption(rule)
			require.NoError(t, err)

			r, err := rrule.NewRRule(*opt)
			require.NoError(t, err)

			want := r.All()
			got := Expand(rule, 0)

			require.Equal(t, len(want), len(got), "rrule: %v\nexpand: %v", want, got)
			for i := range want {
				assert.True(t, want[i].Equal(got[i]), "index %d: rrule %s, expand %s",
					i, want[i].Format(time.DateOnly), got[i].Format(time.DateOnly))
			}
		})
	}
}

func TestRRuleString(t *testing.T) {
	s, err := RRuleString(NewRule(date(2025, 9, 21), Weekly{Days: []time.Weekday{time.Thursday, time.Tuesday}}).Every(2))
	require.NoError(t, err)
	assert.Contains(t, s, "FREQ=WEEKLY")
	assert.Contains(t, s, "INTERVAL=2")
	assert.Contains(t, s, "BYDAY=TU,TH")
	assert.Contains(t, s, "WKST=SU")
	assert.NotContains(t, s, "RRULE:")

	s, err = RRuleString(NewRule(date(2025, 1, 1), MonthlyByDay{Day: 30}))
	require.NoError(t, err)
	assert.Contains(t, s, "BYMONTHDAY=28,29,30")
	assert.Contains(t, s, "BYSETPOS=-1")

	_, err = RRuleString(Rule{Interval: 1, Pattern: Daily{}})
	assert.True(t, errors.Is(err, ErrInvalidRule))
}

func TestToEvent(t *testing.T) {
	rule := NewRule(date(2025, 9, 21), Daily{}).Until(date(2025, 9, 24))

	event, err := ToEvent(rule, "Standup")
	require.NoError(t, err)

	assert.NotEmpty(t, event.Props.Get(ical.PropUID).Value)
	assert.Equal(t, "Standup", event.Props.Get(ical.PropSummary).Value)
	assert.Equal(t, "20250921", event.Props.Get(ical.PropDateTimeStart).Value)
	assert.Contains(t, event.Props.Get(ical.PropRecurrenceRule).Value, "FREQ=DAILY")

	var buf bytes.Buffer
	require.NoError(t, ical.NewEncoder(&buf).Encode(NewCalendar(event)))
	out := buf.String()
	assert.Contains(t, out, "BEGIN:VEVENT")
	assert.Contains(t, out, "RRULE:FREQ=DAILY")
	assert.Contains(t, out, "DTSTART;VALUE=DATE:20250921")
}

func TestOccurrenceCalendar(t *testing.T) {
	got := Expand(NewRule(date(2025, 9, 1), MonthlyByDay{Day: 15}).Until(date(2025, 12, 1)), 0)

	cal := OccurrenceCalendar(got, "Rent")
	require.Len(t, cal.Children, 3)

	uids := map[string]bool{}
	for i, child := range cal.Children {
		assert.Equal(t, ical.CompEvent, child.Name)
		assert.Equal(t, got[i].Format("20060102"), child.Props.Get(ical.PropDateTimeStart).Value)
		assert.Equal(t, got[i].AddDate(0, 0, 1).Format("20060102"), child.Props.Get(ical.PropDateTimeEnd).Value)
		uids[child.Props.Get(ical.PropUID).Value] = true
	}
	assert.Len(t, uids, 3)

	var buf bytes.Buffer
	require.NoError(t, ical.NewEncoder(&buf).Encode(cal))
	assert.Contains(t, buf.String(), "SUMMARY:Rent")
}

func TestRuleFromComponent_RoundTrip(t *testing.T) {
	for name, rule := range oracleRules {
		t.Run(name, func(t *testing.T) {
			event, err := ToEvent(rule, name)
			require.NoError(t, err)

			parsed, err := RuleFromComponent(event.Component, time.UTC)
			require.NoError(t, err)

			assert.Equal(t, rule.Kind(), parsed.Kind())
			assert.Equal(t, Expand(rule, 0), Expand(parsed, 0))
		})
	}
}

func TestRuleFromComponent_Patterns(t *testing.T) {
	tests := []struct {
		name  string
		rrule string
		want  Pattern
	}{
		{"plain monthday", "FREQ=MONTHLY;BYMONTHDAY=15", MonthlyByDay{Day: 15}},
		{"monthly without by parts uses start day", "FREQ=MONTHLY", MonthlyByDay{Day: 21}},
		{"setpos ordinal", "FREQ=MONTHLY;BYDAY=TU;BYSETPOS=2", MonthlyByOrdinal{Ordinal: Second, Weekday: time.Tuesday}},
		{"numbered last", "FREQ=MONTHLY;BYDAY=-1FR", MonthlyByOrdinal{Ordinal: Last, Weekday: time.Friday}},
		{"yearly without by parts", "FREQ=YEARLY", YearlyByDate{Month: time.September, Day: 21}},
		{"yearly ordinal", "FREQ=YEARLY;BYMONTH=11;BYDAY=4TH", YearlyByOrdinal{Ordinal: Fourth, Weekday: time.Thursday, Month: time.November}},
		{"weekly sunday", "FREQ=WEEKLY;BYDAY=SU", Weekly{Days: []time.Weekday{time.Sunday}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RuleFromComponent(componentWith(t, tt.rrule), time.UTC)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Pattern)
			assert.Equal(t, date(2025, 9, 21), got.Start.MustGet())
		})
	}
}

func TestRuleFromComponent_Unsupported(t *testing.T) {
	for _, value := range []string{
		"FREQ=DAILY;COUNT=5",
		"FREQ=HOURLY",
		"FREQ=MONTHLY;BYDAY=5MO",
		"FREQ=YEARLY;BYMONTH=1,2",
		"FREQ=DAILY;BYDAY=MO",
		"FREQ=MONTHLY;BYMONTHDAY=-1",
	} {
		t.Run(value, func(t *testing.T) {
			_, err := RuleFromComponent(componentWith(t, value), time.UTC)
			assert.True(t, errors.Is(err, ErrUnsupportedRRule), "got %v", err)
		})
	}

	t.Run("no rrule", func(t *testing.T) {
		event := ical.NewEvent()
		event.Props.SetDate(ical.PropDateTimeStart, date(2025, 9, 21))
		_, err := RuleFromComponent(event.Component, time.UTC)
		assert.True(t, errors.Is(err, ErrUnsupportedRRule))
	})
}

func componentWith(t *testing.T, rruleValue string) *ical.Component {
	t.Helper()
	event := ical.NewEvent()
	event.Props.SetDate(ical.PropDateTimeStart, date(2025, 9, 21))
	prop := ical.NewProp(ical.PropRecurrenceRule)
	prop.Value = rruleValue
	event.Props.Set(prop)
	return event.Component
}

func TestRuleFromComponent_Until(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	tests := []struct {
		name  string
		until string
	}{
		{"date", "20251231"},
		{"utc date-time", "20251231T235959Z"},
		{"floating date-time", "20251231T120000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := ical.NewEvent()
			event.Props.SetDate(ical.PropDateTimeStart, date(2025, 12, 25))
			prop := ical.NewProp(ical.PropRecurrenceRule)
			prop.Value = "FREQ=DAILY;UNTIL=" + tt.until
			event.Props.Set(prop)

			rule, err := RuleFromComponent(event.Component, ny)
			require.NoError(t, err)

			assert.Equal(t, time.Date(2025, 12, 25, 0, 0, 0, 0, ny), rule.Start.MustGet())
			assert.Equal(t, time.Date(2025, 12, 31, 0, 0, 0, 0, ny), rule.End.MustGet())
			assert.Len(t, Expand(rule, 0), 7)
		})
	}
}

func TestToEvent_DateUntilRoundTrip(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	rule := NewRule(time.Date(2025, 12, 25, 0, 0, 0, 0, ny), Daily{}).Until(time.Date(2025, 12, 31, 0, 0, 0, 0, ny))

	event, err := ToEvent(rule, "Holidays")
	require.NoError(t, err)
	value := event.Props.Get(ical.PropRecurrenceRule).Value
	assert.Contains(t, value, "UNTIL=20251231")
	assert.NotContains(t, value, "UNTIL=20251231T")

	var buf bytes.Buffer
	require.NoError(t, ical.NewEncoder(&buf).Encode(NewCalendar(event)))
	cal, err := ical.NewDecoder(&buf).Decode()
	require.NoError(t, err)
	require.Len(t, cal.Children, 1)

	parsed, err := RuleFromComponent(cal.Children[0], ny)
	require.NoError(t, err)
	assert.Equal(t, Expand(rule, 0), Expand(parsed, 0))
	assert.Len(t, Expand(parsed, 0), 7)
}
