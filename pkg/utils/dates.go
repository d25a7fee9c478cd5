package utils

import (
	"fmt"
	"time"
)

// DateLayout is the date-only layout accepted by list filters.
const DateLayout = "2006-01-02"

// ParseDateBound parses a filter bound given either as RFC3339 or as a plain
// date. A plain date is read in loc and, when endOfDay is set, moved to the
// last microsecond of that day so the bound stays inclusive.
func ParseDateBound(value string, endOfDay bool, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(DateLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD or RFC3339", value)
	}
	if endOfDay {
		return EndOfDay(t), nil
	}
	return t, nil
}

// StartOfDay returns midnight of t's day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last microsecond of t's day in t's location.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Microsecond)
}
