package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tempoplan/tempo/internal/calendar"
	"github.com/tempoplan/tempo/internal/dateutil"
	"github.com/tempoplan/tempo/internal/task"
)

const calendarSyncMax = 50

// SyncCalendar imports upcoming calendar events as task records.
// Events the engine booked itself (recognized by the configured title
// prefix) come back as scheduled internal tasks, so the engine
// remembers its own bookings across restarts. Everything else becomes
// an external task that occupies calendar time but is never auto-booked.
func SyncCalendar(ctx context.Context, adapter calendar.Adapter, repo task.Repository, eventPrefix string, defaults task.Defaults, loc *time.Location, now time.Time) (int, error) {
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)

	events, err := adapter.ListUpcoming(ctx, calendarSyncMax)
	if err != nil {
		return 0, fmt.Errorf("listing upcoming events: %w", err)
	}

	count := 0
	for _, ev := range events {
		start, end, ok := eventWindow(ev, now)
		if !ok {
			continue
		}

		mine := eventPrefix != "" && strings.HasPrefix(ev.Title, eventPrefix)
		title := strings.TrimPrefix(ev.Title, eventPrefix)

		t, err := task.New(title, task.SourceCalendar)
		if err != nil {
			continue
		}
		t.ID = ev.ID
		due := start
		t.Due = &due
		t.DurationMinutes = int(end.Sub(start).Minutes())
		if mine {
			t.Status = task.StatusScheduled
			t.CalendarEventID = ev.ID
		} else {
			t.IsExternal = true
		}
		t.Normalize(defaults)

		if err := repo.CreateTask(ctx, t); err != nil {
			return count, fmt.Errorf("storing calendar task: %w", err)
		}
		count++
	}
	return count, nil
}

// eventWindow resolves an event to concrete start/end instants. Timed
// events pass through; an all-day event spanning today maps to today's
// core hours, one starting tomorrow to tomorrow's, and any other
// all-day event is skipped.
func eventWindow(ev calendar.Event, now time.Time) (time.Time, time.Time, bool) {
	if !ev.AllDay {
		if !ev.End.After(ev.Start) {
			return time.Time{}, time.Time{}, false
		}
		return ev.Start, ev.End, true
	}

	today := dateutil.TruncateToDay(now)
	tomorrow := today.AddDate(0, 0, 1)
	lastDay := ev.End.AddDate(0, 0, -1) // DTEND of an all-day event is exclusive

	var day time.Time
	switch {
	case !ev.Start.After(today) && !lastDay.Before(today):
		day = today
	case dateutil.SameDay(tomorrow, ev.Start):
		day = tomorrow
	default:
		return time.Time{}, time.Time{}, false
	}
	return day.Add(9 * time.Hour), day.Add(17 * time.Hour), true
}
