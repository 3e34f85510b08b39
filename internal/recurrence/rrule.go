package recurrence

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dukerupert/choreify/internal/model"
)

type Freq int

const (
	Daily Freq = iota
	Weekly
	Monthly
)

var freqNames = map[Freq]string{
	Daily:   "DAILY",
	Weekly:  "WEEKLY",
	Monthly: "MONTHLY",
}

var freqFromName = map[string]Freq{
	"DAILY":   Daily,
	"WEEKLY":  Weekly,
	"MONTHLY": Monthly,
}

// Rule is the subset of RFC 5545 RRULE that chores repeat on.
type Rule struct {
	Freq     Freq
	Interval int // default 1
}

// FromRecurring maps a chore's recurrence to a rule. ok is false for
// non-recurring chores.
func FromRecurring(r model.Recurrence) (Rule, bool) {
	switch r {
	case model.RecurrenceDaily:
		return Rule{Freq: Daily, Interval: 1}, true
	case model.RecurrenceWeekly:
		return Rule{Freq: Weekly, Interval: 1}, true
	case model.RecurrenceMonthly:
		return Rule{Freq: Monthly, Interval: 1}, true
	}
	return Rule{}, false
}

// Parse parses an RRULE string like "FREQ=WEEKLY;INTERVAL=2".
func Parse(rule string) (Rule, error) {
	if rule == "" {
		return Rule{}, fmt.Errorf("empty rule")
	}
	rule = strings.TrimPrefix(rule, "RRULE:")

	r := Rule{Interval: 1}
	var hasFreq bool

	for _, part := range strings.Split(rule, ";") {
		key, val, ok := strings.Cut(part, "=")
		if !ok {
			return Rule{}, fmt.Errorf("invalid rule part: %q", part)
		}

		switch key {
		case "FREQ":
			f, ok := freqFromName[val]
			if !ok {
				return Rule{}, fmt.Errorf("unknown frequency: %q", val)
			}
			r.Freq = f
			hasFreq = true

		case "INTERVAL":
			n, err := strconv.Atoi(val)
			if err != nil || n < 1 {
				return Rule{}, fmt.Errorf("invalid interval: %q", val)
			}
			r.Interval = n

		default:
			return Rule{}, fmt.Errorf("unsupported rule key: %q", key)
		}
	}

	if !hasFreq {
		return Rule{}, fmt.Errorf("FREQ is required")
	}
	return r, nil
}

// String serializes the rule back to an RRULE value.
func (r Rule) String() string {
	s := "FREQ=" + freqNames[r.Freq]
	if r.Interval > 1 {
		s += fmt.Sprintf(";INTERVAL=%d", r.Interval)
	}
	return s
}

// Recurring converts the rule back to a chore recurrence. Intervals other
// than one have no chore equivalent.
func (r Rule) Recurring() (model.Recurrence, bool) {
	if r.Interval > 1 {
		return model.RecurrenceNone, false
	}
	switch r.Freq {
	case Daily:
		return model.RecurrenceDaily, true
	case Weekly:
		return model.RecurrenceWeekly, true
	case Monthly:
		return model.RecurrenceMonthly, true
	}
	return model.RecurrenceNone, false
}

// Describe returns a human-readable description of the rule.
func (r Rule) Describe() string {
	unit := map[Freq]string{Daily: "days", Weekly: "weeks", Monthly: "months"}[r.Freq]
	if r.Interval > 1 {
		return fmt.Sprintf("Repeats every %d %s", r.Interval, unit)
	}
	switch r.Freq {
	case Daily:
		return "Repeats daily"
	case Weekly:
		return "Repeats weekly"
	case Monthly:
		return "Repeats monthly"
	}
	return ""
}
