// Package dateutil provides small date helpers shared by the planner
// and the bucket classification pass.
package dateutil

import "time"

// TruncateToDay returns t with the time set to midnight, preserving
// the location.
func TruncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay returns true if a and b fall on the same calendar day once
// both are viewed in a's location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// DaysBetween returns the number of whole calendar days from a to b
// (negative when b is before a). Both are truncated to midnight first.
func DaysBetween(a, b time.Time) int {
	a = TruncateToDay(a)
	b = TruncateToDay(b.In(a.Location()))
	return int(b.Sub(a).Hours() / 24)
}
