package dateutil

import (
	"testing"
	"time"
)

func TestTruncateToDay(t *testing.T) {
	loc := time.FixedZone("EST", -5*60*60)
	in := time.Date(2026, 3, 2, 15, 42, 7, 99, loc)
	got := TruncateToDay(in)

	want := time.Date(2026, 3, 2, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("TruncateToDay = %v, want %v", got, want)
	}
	if got.Location() != loc {
		t.Errorf("location changed to %v", got.Location())
	}
}

func TestSameDay(t *testing.T) {
	utc := time.Date(2026, 3, 2, 23, 0, 0, 0, time.UTC)
	est := time.FixedZone("EST", -5*60*60)

	tests := []struct {
		name string
		a, b time.Time
		want bool
	}{
		{
			"same calendar day",
			time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 3, 2, 23, 59, 0, 0, time.UTC),
			true,
		},
		{
			"adjacent days",
			time.Date(2026, 3, 2, 23, 59, 0, 0, time.UTC),
			time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC),
			false,
		},
		{
			"same instant viewed from another zone",
			utc,
			utc.In(est), // 18:00 on the same day in EST
			true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := SameDay(tc.a, tc.b); got != tc.want {
				t.Errorf("SameDay = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDaysBetween(t *testing.T) {
	base := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		b    time.Time
		want int
	}{
		{"same day", base.Add(5 * time.Hour), 0},
		{"next day", base.AddDate(0, 0, 1), 1},
		{"a week out", base.AddDate(0, 0, 7), 7},
		{"yesterday", base.AddDate(0, 0, -1), -1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := DaysBetween(base, tc.b); got != tc.want {
				t.Errorf("DaysBetween = %d, want %d", got, tc.want)
			}
		})
	}
}
