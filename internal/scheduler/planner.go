package scheduler

import (
	"context"
	"time"

	"github.com/tempoplan/tempo/internal/dateutil"
	"github.com/tempoplan/tempo/internal/task"
)

// BusyFunc returns the busy intervals overlapping [start, end).
// Implementations may return them unsorted and overlapping; the planner
// merges before scanning.
type BusyFunc func(ctx context.Context, start, end time.Time) ([]Interval, error)

// Planner walks candidate days looking for a free slot for a task.
type Planner struct {
	dayStart        string // "HH:MM"
	dayEnd          string // "HH:MM"
	defaultDuration time.Duration
	minDuration     time.Duration
	horizonDays     int
	loc             *time.Location
}

// NewPlanner creates a Planner. dayStart and dayEnd bound the working
// hours in "HH:MM" form, defaultMinutes substitutes a missing task
// duration, minMinutes is the duration floor, and horizonDays is how
// many days past today to search when a task has no due date.
func NewPlanner(dayStart, dayEnd string, defaultMinutes, minMinutes, horizonDays int, loc *time.Location) *Planner {
	if loc == nil {
		loc = time.Local
	}
	return &Planner{
		dayStart:        dayStart,
		dayEnd:          dayEnd,
		defaultDuration: time.Duration(defaultMinutes) * time.Minute,
		minDuration:     time.Duration(minMinutes) * time.Minute,
		horizonDays:     horizonDays,
		loc:             loc,
	}
}

// PlaceTask finds the earliest free slot for t, searching each day from
// min(today, due date) through the due date, or through today+horizon
// when t has no due date. Days are searched in ascending order and the
// first fit wins.
//
// ok=false with a nil error means the whole range had no sufficient
// gap. A non-nil error reports that at least one day's busy intervals
// could not be fetched; days that did resolve were still searched.
func (p *Planner) PlaceTask(ctx context.Context, t *task.Task, now time.Time, busy BusyFunc) (Interval, bool, error) {
	duration := p.clampDuration(t.DurationMinutes)

	now = now.In(p.loc)
	today := dateutil.TruncateToDay(now)
	first := today
	last := today.AddDate(0, 0, p.horizonDays)
	if t.Due != nil {
		last = dateutil.TruncateToDay(t.Due.In(p.loc))
		if last.Before(first) {
			first = last
		}
	}

	var fetchErr error
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		windowStart, windowEnd := p.dayWindow(d)
		// The window narrows as the clock advances: a day already past
		// its working-hours end has zero width and is skipped.
		if windowStart.Before(now) {
			windowStart = now
		}
		if !windowStart.Before(windowEnd) {
			continue
		}

		intervals, err := busy(ctx, windowStart, windowEnd)
		if err != nil {
			if fetchErr == nil {
				fetchErr = err
			}
			continue
		}
		merged := Merge(p.normalize(intervals))

		if slot, ok := FindSlot(windowStart, windowEnd, duration, merged); ok {
			return slot, true, fetchErr
		}
	}
	return Interval{}, false, fetchErr
}

// Horizon returns the fallback date used as the effective due date for
// tasks without one, relative to now.
func (p *Planner) Horizon(now time.Time) time.Time {
	return dateutil.TruncateToDay(now.In(p.loc)).AddDate(0, 0, p.horizonDays)
}

// dayWindow returns the working-hours window for the given day in the
// planner's reference zone.
func (p *Planner) dayWindow(day time.Time) (time.Time, time.Time) {
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, p.loc)
	start := midnight.Add(time.Duration(parseClock(p.dayStart)) * time.Minute)
	end := midnight.Add(time.Duration(parseClock(p.dayEnd)) * time.Minute)
	return start, end
}

// normalize brings every interval into the planner's reference zone so
// that comparisons against the day window are well defined.
func (p *Planner) normalize(intervals []Interval) []Interval {
	out := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		out = append(out, Interval{Start: iv.Start.In(p.loc), End: iv.End.In(p.loc)})
	}
	return out
}

// clampDuration applies the configured default and floor. Durations are
// normalized at ingestion already; this keeps the planner safe against
// records that predate normalization.
func (p *Planner) clampDuration(minutes int) time.Duration {
	d := time.Duration(minutes) * time.Minute
	if d <= 0 {
		d = p.defaultDuration
	}
	if d < p.minDuration {
		d = p.minDuration
	}
	return d
}

// parseClock parses "HH:MM" to minutes since midnight.
func parseClock(s string) int {
	if len(s) < 5 {
		return 0
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	return h*60 + m
}
