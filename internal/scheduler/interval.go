// Package scheduler places tasks into free calendar time. It provides
// busy-interval canonicalization, an earliest-fit free-slot search, and
// a day-by-day planner that walks candidate days up to a task's
// deadline (or a fallback horizon when the task has none).
package scheduler

import (
	"sort"
	"time"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Duration returns the length of the interval.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Overlaps returns true if the two intervals share any instant.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Merge canonicalizes a busy-interval list: the result is sorted by
// start with overlapping and touching intervals coalesced, so gap
// scanning never sees a false free sliver between two reports of the
// same meeting. Inverted and zero-length intervals are dropped.
// The input slice is not modified. Merge is idempotent.
func Merge(intervals []Interval) []Interval {
	valid := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		if iv.End.After(iv.Start) {
			valid = append(valid, iv)
		}
	}
	if len(valid) == 0 {
		return nil
	}

	sort.Slice(valid, func(i, j int) bool {
		return valid[i].Start.Before(valid[j].Start)
	})

	merged := []Interval{valid[0]}
	for _, iv := range valid[1:] {
		last := &merged[len(merged)-1]
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}
