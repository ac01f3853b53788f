// Package calendar defines the engine's boundary with the shared
// calendar and provides the Google Calendar implementation.
package calendar

import (
	"context"
	"time"

	"github.com/tempoplan/tempo/internal/scheduler"
)

// Event is a calendar event as seen by the ingestion sync.
type Event struct {
	ID     string
	Title  string
	Start  time.Time
	End    time.Time
	AllDay bool
}

// Adapter is the engine's view of the calendar service. Implementations
// own their credentials; callers never inspect them.
type Adapter interface {
	// ListBusy returns the busy intervals overlapping [start, end).
	// The result may be unsorted and overlapping; callers merge.
	ListBusy(ctx context.Context, start, end time.Time) ([]scheduler.Interval, error)

	// CreateEvent books a calendar event and returns its ID.
	CreateEvent(ctx context.Context, title string, start, end time.Time, description string) (string, error)

	// DeleteEvent removes a previously booked event.
	DeleteEvent(ctx context.Context, eventID string) error

	// ListUpcoming returns upcoming events starting from now, up to max.
	ListUpcoming(ctx context.Context, max int64) ([]Event, error)
}
