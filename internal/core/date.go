package core

import "time"

// StartOfDay truncates t to midnight in loc. A nil loc uses t's own location.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	return StartOfDay(a, loc).Equal(StartOfDay(b, loc))
}

// MonthOf reports the year and month of t in loc.
func MonthOf(t time.Time, loc *time.Location) (int, int) {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Year(), int(t.Month())
}
