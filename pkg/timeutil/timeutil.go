// Package timeutil provides calendar-day arithmetic in UTC.
// Streak tracking and period goals depend on whole-day gaps, not 24-hour
// windows, so all helpers normalize to the start of the UTC day first.
// No external dependencies - uses only standard library.
package timeutil

import (
	"time"
)

// Now returns the current time in UTC.
func Now() time.Time {
	return time.Now().UTC()
}

// StartOfDay returns the start of the day (00:00:00) in UTC.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the end of the day (23:59:59.999999999) in UTC.
func EndOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 23, 59, 59, 999999999, time.UTC)
}

// StartOfWeek returns the start of the week (Monday 00:00:00) in UTC.
func StartOfWeek(t time.Time) time.Time {
	u := t.UTC()
	weekday := int(u.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	daysToSubtract := weekday - 1 // Monday = 1
	return StartOfDay(u.AddDate(0, 0, -daysToSubtract))
}

// EndOfWeek returns the end of the week (Sunday 23:59:59) in UTC.
func EndOfWeek(t time.Time) time.Time {
	start := StartOfWeek(t)
	return EndOfDay(start.AddDate(0, 0, 6))
}

// StartOfMonth returns the start of the month in UTC.
func StartOfMonth(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// EndOfMonth returns the end of the month in UTC.
func EndOfMonth(t time.Time) time.Time {
	start := StartOfMonth(t)
	return EndOfDay(start.AddDate(0, 1, -1))
}

// IsSameDay checks if two times are on the same UTC day.
func IsSameDay(t1, t2 time.Time) bool {
	u1, u2 := t1.UTC(), t2.UTC()
	return u1.Year() == u2.Year() && u1.YearDay() == u2.YearDay()
}

// IsConsecutiveDay checks if t2 is the day after t1.
func IsConsecutiveDay(t1, t2 time.Time) bool {
	nextDay := t1.UTC().AddDate(0, 0, 1)
	return IsSameDay(nextDay, t2)
}

// DayGap calculates the signed number of whole days from t1 to t2.
// Negative when t2 is on an earlier day than t1. This is the gap the
// streak rules compare against 0 and 1.
func DayGap(t1, t2 time.Time) int {
	d1 := StartOfDay(t1)
	d2 := StartOfDay(t2)
	return int(d2.Sub(d1).Hours() / 24)
}

// DaysBetween calculates the absolute number of days between two times.
func DaysBetween(t1, t2 time.Time) int {
	days := DayGap(t1, t2)
	if days < 0 {
		days = -days
	}
	return days
}

// DaysSince calculates the number of days since the given time.
func DaysSince(t time.Time) int {
	return DayGap(t, Now())
}

// Common date/time formats.
const (
	// FormatDate is the standard date format (YYYY-MM-DD).
	FormatDate = "2006-01-02"
	// FormatDateTime is the standard datetime format.
	FormatDateTime = "2006-01-02 15:04"
	// FormatDateTimeSeconds includes seconds.
	FormatDateTimeSeconds = "2006-01-02 15:04:05"
)

// FormatDateStr formats a time as a date string (YYYY-MM-DD) in UTC.
func FormatDateStr(t time.Time) string {
	return t.UTC().Format(FormatDate)
}

// ParseDate parses a date string (YYYY-MM-DD) as UTC.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(FormatDate, value, time.UTC)
}

// InWindow checks that t falls inside the inclusive [start, end] window.
func InWindow(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}
