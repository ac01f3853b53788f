package tui

import (
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/table"

	"github.com/tempoplan/tempo/internal/calendar"
	"github.com/tempoplan/tempo/internal/dateutil"
	"github.com/tempoplan/tempo/internal/task"
)

// agendaItem is one row of the day view, either a task or a calendar
// event the engine only mirrors.
type agendaItem struct {
	start    *time.Time
	title    string
	duration int
	kind     string // "task", "event", "blocked"
}

// buildItems merges tasks and events for one day into a single
// time-ordered list. Tasks without a start sort last; blocked tasks
// are shown on every day so the pending question stays visible.
func buildItems(tasks []*task.Task, events []calendar.Event, day time.Time) []agendaItem {
	var items []agendaItem

	seen := make(map[string]bool) // event IDs already represented by a task
	for _, t := range tasks {
		if t.Status == task.StatusDone {
			continue
		}
		if t.CalendarEventID != "" {
			seen[t.CalendarEventID] = true
		}
		switch {
		case t.NeedsClarification:
			items = append(items, agendaItem{title: t.Title + " — " + t.PendingQuestion, duration: t.DurationMinutes, kind: "blocked"})
		case t.Due != nil && dateutil.SameDay(day, *t.Due):
			start := *t.Due
			items = append(items, agendaItem{start: &start, title: t.Title, duration: t.DurationMinutes, kind: "task"})
		}
	}

	for _, ev := range events {
		if seen[ev.ID] || !dateutil.SameDay(day, ev.Start) {
			continue
		}
		minutes := int(ev.End.Sub(ev.Start).Minutes())
		items = append(items, agendaItem{start: &ev.Start, title: ev.Title, duration: minutes, kind: "event"})
	}

	sort.SliceStable(items, func(i, j int) bool {
		si, sj := items[i].start, items[j].start
		switch {
		case si == nil:
			return false
		case sj == nil:
			return true
		default:
			return si.Before(*sj)
		}
	})
	return items
}

// toRows converts agenda items to table rows.
func toRows(items []agendaItem) []table.Row {
	rows := make([]table.Row, 0, len(items))
	for _, it := range items {
		clock := "--:--"
		if it.start != nil {
			clock = it.start.Format("15:04")
		}
		dur := ""
		if it.duration > 0 {
			dur = fmt.Sprintf("%dm", it.duration)
		}
		rows = append(rows, table.Row{clock, it.title, dur, it.kind})
	}
	return rows
}
