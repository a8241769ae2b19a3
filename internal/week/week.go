// Package week computes the Friday-anchored week windows used for weekly
// deduplication and reporting.
//
// A week window is the half-open interval [start, start+7 days) where start
// is always a Friday. Every calendar date belongs to exactly one window.
//
// All dates are handled as UTC calendar dates (midnight, no time component).
// Callers that hold a time in another zone should convert with DateOf first.
package week

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for calendar dates ("2024-06-07").
const DateLayout = "2006-01-02"

// Anchor is the weekday every window starts on.
const Anchor = time.Friday

// Length is the span of one window.
const Length = 7 * 24 * time.Hour

// Window is a half-open interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
// Start is included, End is excluded.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Start returns the most recent Friday on or before date, as a UTC
// calendar date.
//
// WEEKDAY ARITHMETIC:
// time.Weekday numbers Sunday=0 .. Saturday=6, Friday=5.
//
//	day >= 5 (Fri, Sat)   → go back day-5 days      (0 or 1)
//	day <  5 (Sun..Thu)   → go back 7-(5-day) days  (2..6)
//
// A Friday maps to itself, so Start(Start(d)) == Start(d).
func Start(date time.Time) time.Time {
	d := DateOf(date)
	day := int(d.Weekday())

	var offset int
	if day >= int(Anchor) {
		offset = day - int(Anchor)
	} else {
		offset = 7 - (int(Anchor) - day)
	}

	return d.AddDate(0, 0, -offset)
}

// WindowFor returns the window that contains date.
func WindowFor(date time.Time) Window {
	start := Start(date)
	return Window{Start: start, End: start.AddDate(0, 0, 7)}
}

// WindowFrom returns the window beginning at weekStart. weekStart is used as
// given (normalized to a calendar date) even if it is not a Friday, so a
// client asking for an arbitrary 7-day range gets exactly that range.
func WindowFrom(weekStart time.Time) Window {
	start := DateOf(weekStart)
	return Window{Start: start, End: start.AddDate(0, 0, 7)}
}

// DateOf drops the time-of-day component, keeping t's own calendar date,
// and returns it as midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a "YYYY-MM-DD" string into a UTC calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("week: invalid date %q: %w", s, err)
	}
	return t, nil
}

// Format renders a calendar date in DateLayout.
func Format(t time.Time) string {
	return t.Format(DateLayout)
}

// DayRange returns the inclusive bounds [from 00:00:00.000, to 23:59:59.999]
// covering whole calendar days from..to.
func DayRange(from, to time.Time) (time.Time, time.Time) {
	start := DateOf(from)
	end := DateOf(to).Add(24*time.Hour - time.Millisecond)
	return start, end
}
