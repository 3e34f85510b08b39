package recurrence

import "time"

// maxSteps bounds the walk from a very old anchor.
const maxSteps = 100000

// At returns the n-th occurrence (n = 0 is the anchor itself). Monthly rules
// anchored on a day the target month lacks fall on that month's last day.
func (r Rule) At(anchor time.Time, n int) time.Time {
	interval := r.Interval
	if interval < 1 {
		interval = 1
	}
	switch r.Freq {
	case Daily:
		return anchor.AddDate(0, 0, n*interval)
	case Weekly:
		return anchor.AddDate(0, 0, 7*n*interval)
	case Monthly:
		y, m, d := anchor.Date()
		first := time.Date(y, m+time.Month(n*interval), 1, anchor.Hour(), anchor.Minute(), anchor.Second(), anchor.Nanosecond(), anchor.Location())
		if last := daysInMonth(first.Year(), first.Month()); d > last {
			d = last
		}
		return first.AddDate(0, 0, d-1)
	}
	return anchor
}

// Next returns the first occurrence strictly after after.
func (r Rule) Next(anchor, after time.Time) time.Time {
	for n := 0; n < maxSteps; n++ {
		if t := r.At(anchor, n); t.After(after) {
			return t
		}
	}
	return time.Time{}
}

// Between returns occurrences in [from, to), at most limit of them.
func (r Rule) Between(anchor, from, to time.Time, limit int) []time.Time {
	var out []time.Time
	for n := 0; n < maxSteps && len(out) < limit; n++ {
		t := r.At(anchor, n)
		if !t.Before(to) {
			break
		}
		if !t.Before(from) {
			out = append(out, t)
		}
	}
	return out
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
