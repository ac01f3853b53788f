// Package digest builds the plain-text daily briefing: today's booked
// schedule, tasks waiting on clarification, and what is still pending.
package digest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/tempoplan/tempo/internal/calendar"
	"github.com/tempoplan/tempo/internal/dateutil"
	"github.com/tempoplan/tempo/internal/task"
)

// Digest holds the aggregated data behind one briefing.
type Digest struct {
	Date          time.Time
	Today         []*task.Task
	Tomorrow      []*task.Task
	NeedInput     []*task.Task
	Unscheduled   []*task.Task
	Events        []calendar.Event
	PendingCount  int
	DoneCount     int
	BookedMinutes int
}

// Build loads tasks and upcoming events and aggregates them relative
// to now. The calendar adapter may be nil; the digest then covers
// tasks only.
func Build(ctx context.Context, repo task.Repository, cal calendar.Adapter, now time.Time) (*Digest, error) {
	tasks, err := repo.ListTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching tasks: %w", err)
	}

	d := &Digest{Date: dateutil.TruncateToDay(now)}
	for _, t := range tasks {
		switch t.Status {
		case task.StatusDone:
			d.DoneCount++
			continue
		case task.StatusPending:
			d.PendingCount++
		}
		if t.NeedsClarification {
			d.NeedInput = append(d.NeedInput, t)
			continue
		}
		switch t.Bucket {
		case task.BucketToday:
			d.Today = append(d.Today, t)
			if t.IsScheduled() {
				d.BookedMinutes += t.DurationMinutes
			}
		case task.BucketTomorrow:
			d.Tomorrow = append(d.Tomorrow, t)
		default:
			if t.Status == task.StatusPending {
				d.Unscheduled = append(d.Unscheduled, t)
			}
		}
	}
	sortByDue(d.Today)
	sortByDue(d.Tomorrow)

	if cal != nil {
		events, err := cal.ListUpcoming(ctx, 10)
		if err != nil {
			return nil, fmt.Errorf("fetching events: %w", err)
		}
		for _, ev := range events {
			if dateutil.SameDay(now, ev.Start) {
				d.Events = append(d.Events, ev)
			}
		}
	}
	return d, nil
}

// Render formats the digest as plain text, suitable for the terminal
// or an email body.
func (d *Digest) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Daily digest for %s\n\n", d.Date.Format("Monday, January 2"))

	if len(d.Today) == 0 && len(d.Events) == 0 {
		b.WriteString("Nothing on the books for today.\n")
	} else {
		b.WriteString("Today:\n")
		for _, t := range d.Today {
			fmt.Fprintf(&b, "  %s  %s (%s)\n", dueClock(t), t.Title,
				humanize.RelTime(d.Date, d.Date.Add(time.Duration(t.DurationMinutes)*time.Minute), "", ""))
		}
		for _, ev := range d.Events {
			fmt.Fprintf(&b, "  %s  %s [calendar]\n", eventClock(ev), ev.Title)
		}
		if d.BookedMinutes > 0 {
			fmt.Fprintf(&b, "  %s of focused work booked.\n",
				humanize.RelTime(d.Date, d.Date.Add(time.Duration(d.BookedMinutes)*time.Minute), "", ""))
		}
	}

	if len(d.Tomorrow) > 0 {
		b.WriteString("\nTomorrow:\n")
		for _, t := range d.Tomorrow {
			fmt.Fprintf(&b, "  %s  %s\n", dueClock(t), t.Title)
		}
	}

	if len(d.NeedInput) > 0 {
		b.WriteString("\nWaiting on you:\n")
		for _, t := range d.NeedInput {
			fmt.Fprintf(&b, "  %s — %s\n", t.Title, t.PendingQuestion)
		}
	}

	if len(d.Unscheduled) > 0 {
		fmt.Fprintf(&b, "\n%d task(s) not yet scheduled", len(d.Unscheduled))
		if n := len(d.Unscheduled); n <= 3 {
			titles := make([]string, 0, n)
			for _, t := range d.Unscheduled {
				titles = append(titles, t.Title)
			}
			fmt.Fprintf(&b, ": %s", strings.Join(titles, ", "))
		}
		b.WriteString(".\n")
	}

	fmt.Fprintf(&b, "\n%d pending, %d done.\n", d.PendingCount, d.DoneCount)
	return b.String()
}

func sortByDue(tasks []*task.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		di, dj := tasks[i].Due, tasks[j].Due
		switch {
		case di == nil:
			return false
		case dj == nil:
			return true
		default:
			return di.Before(*dj)
		}
	})
}

func dueClock(t *task.Task) string {
	if t.Due == nil {
		return "--:--"
	}
	return t.Due.Format("15:04")
}

func eventClock(ev calendar.Event) string {
	if ev.AllDay {
		return "all day"
	}
	return ev.Start.Format("15:04")
}
