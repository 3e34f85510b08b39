package recurrence

import (
	"testing"
	"time"

	"github.com/dukerupert/choreify/internal/model"
)

func d(year int, month time.Month, day, hour int) time.Time {
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Rule
	}{
		{"FREQ=DAILY", Rule{Freq: Daily, Interval: 1}},
		{"FREQ=WEEKLY;INTERVAL=2", Rule{Freq: Weekly, Interval: 2}},
		{"RRULE:FREQ=MONTHLY", Rule{Freq: Monthly, Interval: 1}},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Errorf("Parse(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"", "INTERVAL=2", "FREQ=HOURLY", "FREQ=DAILY;INTERVAL=0", "FREQ=DAILY;BYDAY=MO", "garbage"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) expected error", in)
		}
	}
}

func TestRecurringRoundTrip(t *testing.T) {
	for _, rec := range []model.Recurrence{model.RecurrenceDaily, model.RecurrenceWeekly, model.RecurrenceMonthly} {
		rule, ok := FromRecurring(rec)
		if !ok {
			t.Fatalf("FromRecurring(%q) not ok", rec)
		}
		parsed, err := Parse(rule.String())
		if err != nil {
			t.Fatalf("Parse(%q): %v", rule.String(), err)
		}
		back, ok := parsed.Recurring()
		if !ok || back != rec {
			t.Errorf("round trip %q -> %q -> %q", rec, rule.String(), back)
		}
	}
	if _, ok := FromRecurring(model.RecurrenceNone); ok {
		t.Error("none should not map to a rule")
	}
}

func TestRuleString(t *testing.T) {
	if s := (Rule{Freq: Weekly, Interval: 1}).String(); s != "FREQ=WEEKLY" {
		t.Errorf("String = %q", s)
	}
	if s := (Rule{Freq: Daily, Interval: 3}).String(); s != "FREQ=DAILY;INTERVAL=3" {
		t.Errorf("String = %q", s)
	}
}

func TestDescribe(t *testing.T) {
	tests := map[Rule]string{
		{Freq: Daily, Interval: 1}:   "Repeats daily",
		{Freq: Weekly, Interval: 1}:  "Repeats weekly",
		{Freq: Weekly, Interval: 2}:  "Repeats every 2 weeks",
		{Freq: Monthly, Interval: 1}: "Repeats monthly",
	}
	for r, want := range tests {
		if got := r.Describe(); got != want {
			t.Errorf("%+v.Describe() = %q, want %q", r, got, want)
		}
	}
}

func TestNextWeekly(t *testing.T) {
	rule := Rule{Freq: Weekly, Interval: 1}
	anchor := d(2026, 2, 3, 9)

	got := rule.Next(anchor, d(2026, 2, 12, 0))
	if want := d(2026, 2, 17, 9); !got.Equal(want) {
		t.Errorf("Next = %v, want %v", got, want)
	}
	if got := rule.Next(anchor, d(2026, 1, 1, 0)); !got.Equal(anchor) {
		t.Errorf("Next before anchor = %v, want anchor", got)
	}
}

func TestMonthlyClampsToMonthEnd(t *testing.T) {
	rule := Rule{Freq: Monthly, Interval: 1}
	occs := rule.Between(d(2026, 1, 31, 10), d(2026, 1, 1, 0), d(2026, 5, 1, 0), 10)

	want := []time.Time{d(2026, 1, 31, 10), d(2026, 2, 28, 10), d(2026, 3, 31, 10), d(2026, 4, 30, 10)}
	if len(occs) != len(want) {
		t.Fatalf("got %d occurrences, want %d: %v", len(occs), len(want), occs)
	}
	for i := range want {
		if !occs[i].Equal(want[i]) {
			t.Errorf("occ[%d] = %v, want %v", i, occs[i], want[i])
		}
	}
}

func TestBetweenDailyLimit(t *testing.T) {
	rule := Rule{Freq: Daily, Interval: 2}
	occs := rule.Between(d(2026, 1, 1, 0), d(2026, 1, 4, 0), d(2026, 2, 1, 0), 3)
	want := []int{5, 7, 9}
	if len(occs) != 3 {
		t.Fatalf("got %d, want 3", len(occs))
	}
	for i, day := range want {
		if occs[i].Day() != day {
			t.Errorf("occ[%d] day = %d, want %d", i, occs[i].Day(), day)
		}
	}
}
