package generic

import (
	"time"
)

// =============================================================================
// CALENDAR DATES - "YYYY-MM-DD" strings are the ledger keys
// =============================================================================

// DateLayout is the storage format for every ledger date.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string as local midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.Local)
}

// FormatDate renders t's calendar date.
func FormatDate(t time.Time) string { return t.Format(DateLayout) }

// Today returns local midnight of the current day.
func Today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
}

// TodayString returns the current local date as YYYY-MM-DD.
func TodayString() string { return FormatDate(Today()) }

// IsYesterday reports whether b is exactly one calendar day after a.
//
// Gaps of two or more days return false. Carry-over is gated on this, so a
// missed day silently drops the previous day's consequences.
func IsYesterday(a, b string) bool {
	ta, err := ParseDate(a)
	if err != nil {
		return false
	}
	tb, err := ParseDate(b)
	if err != nil {
		return false
	}
	return DaysBetween(ta, tb) == 1
}

// DaysBetween counts calendar days from -> to. Computed on UTC-normalized
// dates so DST transitions never produce 23 or 25 hour days.
func DaysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}

// AddDays shifts a YYYY-MM-DD date by n days. Invalid input is returned as-is.
func AddDays(date string, n int) string {
	t, err := ParseDate(date)
	if err != nil {
		return date
	}
	return FormatDate(t.AddDate(0, 0, n))
}

// Weekday returns the day of week for date (Sunday = 0).
func Weekday(date string) (time.Weekday, bool) {
	t, err := ParseDate(date)
	if err != nil {
		return 0, false
	}
	return t.Weekday(), true
}

// ValidDate reports whether s is a well-formed YYYY-MM-DD date.
func ValidDate(s string) bool {
	_, err := ParseDate(s)
	return err == nil
}

// =============================================================================
// MINUTES
// =============================================================================

// ClampMinutes bounds v to [0, max].
func ClampMinutes(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
