// Package ingest pulls task records out of the external feeds: an ICS
// URL (Canvas), the Gmail inbox, and the shared calendar itself. Every
// source produces tasks with stable IDs so re-running a sync never
// duplicates anything.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/tempoplan/tempo/internal/task"
)

const icsFetchTimeout = 15 * time.Second

// ImportICS fetches an ICS feed and stores its events as external
// tasks. Returns the number of events parsed (creation of already-known
// items is a silent no-op).
func ImportICS(ctx context.Context, url string, repo task.Repository, defaults task.Defaults, loc *time.Location) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, icsFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("building ICS request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetching ICS feed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("fetching ICS feed: status %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("reading ICS feed: %w", err)
	}

	tasks, err := ParseICS(data, defaults, loc)
	if err != nil {
		return 0, err
	}

	for _, t := range tasks {
		if err := repo.CreateTask(ctx, t); err != nil {
			return 0, fmt.Errorf("storing ICS task: %w", err)
		}
	}
	return len(tasks), nil
}

// ParseICS converts ICS data into external task records. Events
// without a start time are skipped; duration comes from DTSTART/DTEND
// when both are present. IDs derive from the event UID.
func ParseICS(data []byte, defaults task.Defaults, loc *time.Location) ([]*task.Task, error) {
	if loc == nil {
		loc = time.Local
	}
	cal, err := ics.ParseCalendar(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing ICS calendar: %w", err)
	}

	var tasks []*task.Task
	for _, ev := range cal.Events() {
		title := "Untitled event"
		if p := ev.GetProperty(ics.ComponentPropertySummary); p != nil && p.Value != "" {
			title = p.Value
		}

		start, err := ev.GetStartAt()
		if err != nil {
			continue
		}
		due := start.In(loc)

		t, err := task.New(title, task.SourceICS)
		if err != nil {
			continue
		}
		t.ID = task.StableID("ics", ev.Id()+due.Format(time.RFC3339))
		t.Due = &due
		t.IsExternal = true
		if end, err := ev.GetEndAt(); err == nil && end.After(start) {
			t.DurationMinutes = int(end.Sub(start).Minutes())
		}
		t.Normalize(defaults)
		tasks = append(tasks, t)
	}
	return tasks, nil
}
