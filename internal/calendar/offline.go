package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/tempoplan/tempo/internal/scheduler"
)

// ErrNotConfigured is returned by the offline adapter for any
// operation that would need real calendar credentials.
var ErrNotConfigured = errors.New("calendar is not configured")

// offline stands in when no Google credentials are present. Reads
// report an empty calendar so local commands keep working; bookings
// fail with ErrNotConfigured and tasks stay pending.
type offline struct{}

// Offline returns the credential-less adapter.
func Offline() Adapter { return offline{} }

func (offline) ListBusy(context.Context, time.Time, time.Time) ([]scheduler.Interval, error) {
	return nil, nil
}

func (offline) CreateEvent(context.Context, string, time.Time, time.Time, string) (string, error) {
	return "", ErrNotConfigured
}

func (offline) DeleteEvent(context.Context, string) error {
	return ErrNotConfigured
}

func (offline) ListUpcoming(context.Context, int64) ([]Event, error) {
	return nil, nil
}
