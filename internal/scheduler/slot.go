package scheduler

import "time"

// FindSlot returns the earliest sub-interval of [windowStart, windowEnd)
// of the given duration that does not overlap any busy interval.
// busy must be sorted by start and mutually non-overlapping (see Merge).
// Busy intervals may extend past the window bounds.
//
// The search is earliest-fit, not best-fit: among all gaps that hold
// the duration, the first one wins, anchored at the gap's start. A
// false return means the window has no sufficient gap, which is an
// expected outcome rather than an error.
func FindSlot(windowStart, windowEnd time.Time, duration time.Duration, busy []Interval) (Interval, bool) {
	if duration <= 0 || !windowStart.Before(windowEnd) {
		return Interval{}, false
	}

	cur := windowStart
	for _, b := range busy {
		if !b.End.After(cur) {
			continue // entirely before the cursor
		}
		if !b.Start.Before(windowEnd) {
			break // past the window
		}
		if b.Start.Sub(cur) >= duration {
			return Interval{Start: cur, End: cur.Add(duration)}, true
		}
		cur = b.End
		if !cur.Before(windowEnd) {
			return Interval{}, false
		}
	}

	if windowEnd.Sub(cur) >= duration {
		return Interval{Start: cur, End: cur.Add(duration)}, true
	}
	return Interval{}, false
}
