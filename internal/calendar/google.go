package calendar

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/tempoplan/tempo/internal/scheduler"
)

// Google implements Adapter on the Google Calendar API. It is
// constructed once at startup; token refresh happens inside the
// injected HTTP client.
type Google struct {
	srv        *gcal.Service
	calendarID string
	loc        *time.Location
	timeout    time.Duration
}

// NewGoogle creates a Google Calendar adapter from an authenticated
// HTTP client. Every API call is bounded by timeout.
func NewGoogle(ctx context.Context, client *http.Client, calendarID string, loc *time.Location, timeout time.Duration) (*Google, error) {
	srv, err := gcal.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("creating calendar service: %w", err)
	}
	if calendarID == "" {
		calendarID = "primary"
	}
	if loc == nil {
		loc = time.Local
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Google{srv: srv, calendarID: calendarID, loc: loc, timeout: timeout}, nil
}

// ListBusy queries free/busy for the window. Intervals come back in the
// adapter's reference zone but may be unsorted or overlapping.
func (g *Google) ListBusy(ctx context.Context, start, end time.Time) ([]scheduler.Interval, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.srv.Freebusy.Query(&gcal.FreeBusyRequest{
		TimeMin: start.Format(time.RFC3339),
		TimeMax: end.Format(time.RFC3339),
		Items:   []*gcal.FreeBusyRequestItem{{Id: g.calendarID}},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("freebusy query: %w", err)
	}

	cal, ok := resp.Calendars[g.calendarID]
	if !ok {
		return nil, nil
	}

	var busy []scheduler.Interval
	for _, period := range cal.Busy {
		s, err1 := time.Parse(time.RFC3339, period.Start)
		e, err2 := time.Parse(time.RFC3339, period.End)
		if err1 != nil || err2 != nil {
			// An interval we cannot place in time is dropped rather than
			// poisoning the whole day.
			log.Printf("calendar: skipping unparseable busy period %q-%q", period.Start, period.End)
			continue
		}
		busy = append(busy, scheduler.Interval{Start: s.In(g.loc), End: e.In(g.loc)})
	}
	return busy, nil
}

// CreateEvent books an event on the calendar and returns its ID.
func (g *Google) CreateEvent(ctx context.Context, title string, start, end time.Time, description string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	event := &gcal.Event{
		Summary:     title,
		Description: description,
		Start:       &gcal.EventDateTime{DateTime: start.Format(time.RFC3339)},
		End:         &gcal.EventDateTime{DateTime: end.Format(time.RFC3339)},
	}

	created, err := g.srv.Events.Insert(g.calendarID, event).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("inserting event: %w", err)
	}
	return created.Id, nil
}

// DeleteEvent removes an event from the calendar.
func (g *Google) DeleteEvent(ctx context.Context, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if err := g.srv.Events.Delete(g.calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("deleting event %s: %w", eventID, err)
	}
	return nil
}

// ListUpcoming returns upcoming single events ordered by start time.
// All-day events carry their date bounds and AllDay=true.
func (g *Google) ListUpcoming(ctx context.Context, max int64) ([]Event, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.srv.Events.List(g.calendarID).
		TimeMin(time.Now().In(g.loc).Format(time.RFC3339)).
		MaxResults(max).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}

	var events []Event
	for _, item := range resp.Items {
		ev, ok := g.convertEvent(item)
		if !ok {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func (g *Google) convertEvent(item *gcal.Event) (Event, bool) {
	ev := Event{ID: item.Id, Title: item.Summary}
	if ev.Title == "" {
		ev.Title = "Untitled event"
	}

	switch {
	case item.Start != nil && item.Start.DateTime != "":
		s, err1 := time.Parse(time.RFC3339, item.Start.DateTime)
		e, err2 := time.Parse(time.RFC3339, item.End.DateTime)
		if err1 != nil || err2 != nil {
			return Event{}, false
		}
		ev.Start, ev.End = s.In(g.loc), e.In(g.loc)
	case item.Start != nil && item.Start.Date != "":
		s, err1 := time.ParseInLocation("2006-01-02", item.Start.Date, g.loc)
		e, err2 := time.ParseInLocation("2006-01-02", item.End.Date, g.loc)
		if err1 != nil || err2 != nil {
			return Event{}, false
		}
		ev.Start, ev.End = s, e
		ev.AllDay = true
	default:
		return Event{}, false
	}
	return ev, true
}
