// Package integration exercises the whole engine against a real
// SQLite store: ingestion, scheduling passes, rebooting from the
// calendar, and the clarification flow.
package integration

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/tempoplan/tempo/internal/calendar"
	"github.com/tempoplan/tempo/internal/db"
	"github.com/tempoplan/tempo/internal/orchestrator"
	"github.com/tempoplan/tempo/internal/scheduler"
	"github.com/tempoplan/tempo/internal/task"
)

// openRepo creates a fresh repository for each test with automatic cleanup.
func openRepo(t *testing.T) *db.SQLite {
	t.Helper()
	repo, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open repo: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

// fakeCalendar is an in-memory calendar. Bookings immediately count as
// busy time for subsequent lookups, like the real service.
type fakeCalendar struct {
	mu     sync.Mutex
	busy   []scheduler.Interval
	events map[string]calendar.Event
	nextID int
}

func newFakeCalendar(busy ...scheduler.Interval) *fakeCalendar {
	return &fakeCalendar{busy: busy, events: make(map[string]calendar.Event)}
}

func (c *fakeCalendar) ListBusy(_ context.Context, start, end time.Time) ([]scheduler.Interval, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []scheduler.Interval
	for _, iv := range c.busy {
		if iv.Start.Before(end) && start.Before(iv.End) {
			out = append(out, iv)
		}
	}
	for _, ev := range c.events {
		if ev.Start.Before(end) && start.Before(ev.End) {
			out = append(out, scheduler.Interval{Start: ev.Start, End: ev.End})
		}
	}
	return out, nil
}

func (c *fakeCalendar) CreateEvent(_ context.Context, title string, start, end time.Time, _ string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := fmt.Sprintf("evt-%d", c.nextID)
	c.events[id] = calendar.Event{ID: id, Title: title, Start: start, End: end}
	return id, nil
}

func (c *fakeCalendar) DeleteEvent(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.events, id)
	return nil
}

func (c *fakeCalendar) ListUpcoming(_ context.Context, _ int64) ([]calendar.Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]calendar.Event, 0, len(c.events))
	for _, ev := range c.events {
		out = append(out, ev)
	}
	return out, nil
}

func newEngine(repo task.Repository, cal calendar.Adapter, now time.Time) *orchestrator.Orchestrator {
	planner := scheduler.NewPlanner("09:00", "18:00", 60, 30, 2, time.UTC)
	o := orchestrator.New(repo, cal, planner, "Tempo: ", time.UTC)
	o.SetNow(func() time.Time { return now })
	return o
}

func pending(id, title string, due *time.Time, minutes int) *task.Task {
	return &task.Task{
		ID: id, Title: title, Source: task.SourceAssistant,
		Due: due, DurationMinutes: minutes, Priority: 3,
		Status: task.StatusPending, Bucket: task.BucketUnscheduled,
		CreatedAt: time.Now().UTC(),
	}
}

func clock(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.ParseInLocation("2006-01-02 15:04", value, time.UTC)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return parsed
}

// A 90-minute task on a day with one mid-morning meeting lands right
// after the meeting, since the gap before it is too small.
func TestScheduleAroundMeeting(t *testing.T) {
	ctx := context.Background()
	now := clock(t, "2026-03-02 08:00")
	due := clock(t, "2026-03-02 18:00")

	repo := openRepo(t)
	if err := repo.CreateTask(ctx, pending("t1", "Write report", &due, 90)); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	cal := newFakeCalendar(scheduler.Interval{
		Start: clock(t, "2026-03-02 10:00"),
		End:   clock(t, "2026-03-02 11:00"),
	})

	summary, err := newEngine(repo, cal, now).Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Placed != 1 {
		t.Fatalf("Placed = %d, want 1", summary.Placed)
	}

	got, err := repo.GetTask(ctx, "t1")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.Due == nil || !got.Due.Equal(clock(t, "2026-03-02 11:00")) {
		t.Errorf("placed at %v, want 11:00", got.Due)
	}
	if got.Status != task.StatusScheduled || got.Bucket != task.BucketToday {
		t.Errorf("state = %s/%s", got.Status, got.Bucket)
	}
}

// With today fully booked, a no-due task rolls to tomorrow morning.
func TestFullDayRollsToTomorrow(t *testing.T) {
	ctx := context.Background()
	now := clock(t, "2026-03-02 08:00")

	repo := openRepo(t)
	if err := repo.CreateTask(ctx, pending("t1", "Deep work", nil, 60)); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	cal := newFakeCalendar(scheduler.Interval{
		Start: clock(t, "2026-03-02 09:00"),
		End:   clock(t, "2026-03-02 18:00"),
	})

	if _, err := newEngine(repo, cal, now).Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, _ := repo.GetTask(ctx, "t1")
	if got.Due == nil || !got.Due.Equal(clock(t, "2026-03-03 09:00")) {
		t.Errorf("placed at %v, want tomorrow 09:00", got.Due)
	}
	if got.Bucket != task.BucketTomorrow {
		t.Errorf("bucket = %s, want tomorrow", got.Bucket)
	}
}

// A task whose deadline already passed has no usable window and stays
// pending rather than being booked in the past.
func TestPastDueStaysPending(t *testing.T) {
	ctx := context.Background()
	now := clock(t, "2026-03-02 08:00")
	due := clock(t, "2026-03-01 17:00")

	repo := openRepo(t)
	if err := repo.CreateTask(ctx, pending("t1", "Missed it", &due, 60)); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	summary, err := newEngine(repo, newFakeCalendar(), now).Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Placed != 0 {
		t.Errorf("Placed = %d, want 0", summary.Placed)
	}

	got, _ := repo.GetTask(ctx, "t1")
	if got.Status != task.StatusPending || got.CalendarEventID != "" {
		t.Errorf("state = %+v, want untouched pending", got)
	}
}

// Two tasks competing for the same day serialize onto it; each booking
// consumes calendar capacity for the next.
func TestBookingsConsumeCapacity(t *testing.T) {
	ctx := context.Background()
	now := clock(t, "2026-03-02 08:00")
	due := clock(t, "2026-03-02 18:00")

	repo := openRepo(t)
	for i := 1; i <= 3; i++ {
		id := fmt.Sprintf("t%d", i)
		if err := repo.CreateTask(ctx, pending(id, "Task "+id, &due, 60)); err != nil {
			t.Fatalf("CreateTask: %v", err)
		}
	}
	cal := newFakeCalendar()

	if _, err := newEngine(repo, cal, now).Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	starts := map[time.Time]string{}
	all, _ := repo.ListTasks(ctx)
	for _, tk := range all {
		if tk.Due == nil {
			t.Fatalf("task %s has no placement", tk.ID)
		}
		if prev, clash := starts[*tk.Due]; clash {
			t.Errorf("tasks %s and %s share start %v", prev, tk.ID, tk.Due)
		}
		starts[*tk.Due] = tk.ID
	}
	if len(cal.events) != 3 {
		t.Errorf("calendar has %d events, want 3", len(cal.events))
	}
}

// A second engine built from the same store and calendar re-runs the
// pass without duplicating bookings.
func TestRestartDoesNotRebook(t *testing.T) {
	ctx := context.Background()
	now := clock(t, "2026-03-02 08:00")
	due := clock(t, "2026-03-02 18:00")

	repo := openRepo(t)
	if err := repo.CreateTask(ctx, pending("t1", "Once only", &due, 60)); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	cal := newFakeCalendar()

	if _, err := newEngine(repo, cal, now).Run(ctx); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if _, err := newEngine(repo, cal, now).Run(ctx); err != nil {
		t.Fatalf("second Run: %v", err)
	}

	if len(cal.events) != 1 {
		t.Errorf("calendar has %d events after restart, want 1", len(cal.events))
	}
}

// Clearing the clarification flag makes a blocked task eligible on the
// next pass.
func TestClarificationUnblocksScheduling(t *testing.T) {
	ctx := context.Background()
	now := clock(t, "2026-03-02 08:00")
	due := clock(t, "2026-03-02 18:00")

	repo := openRepo(t)
	blocked := pending("t1", "Email Alex", &due, 30)
	blocked.NeedsClarification = true
	blocked.PendingQuestion = "Who is Alex? Provide an email address."
	if err := repo.CreateTask(ctx, blocked); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	cal := newFakeCalendar()
	engine := newEngine(repo, cal, now)

	first, err := engine.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if first.Considered != 0 {
		t.Fatalf("blocked task was considered")
	}

	got, _ := repo.GetTask(ctx, "t1")
	got.NeedsClarification = false
	got.PendingQuestion = ""
	if err := repo.UpdateTask(ctx, got); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}

	second, err := engine.Run(ctx)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if second.Placed != 1 {
		t.Errorf("Placed = %d after clarification, want 1", second.Placed)
	}
}
