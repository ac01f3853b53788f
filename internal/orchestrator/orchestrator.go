// Package orchestrator runs scheduling passes: it orders the pending
// tasks, drives the day planner for each one, books the winning slots
// on the calendar, and recomputes every task's display bucket.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/tempoplan/tempo/internal/calendar"
	"github.com/tempoplan/tempo/internal/dateutil"
	"github.com/tempoplan/tempo/internal/scheduler"
	"github.com/tempoplan/tempo/internal/task"
)

// Orchestrator serializes scheduling passes over a shared task set.
type Orchestrator struct {
	// mu enforces the single-writer discipline: passes triggered from
	// different background jobs never interleave writes, and placements
	// within a pass see every booking made earlier in the same pass.
	mu sync.Mutex

	repo    task.Repository
	cal     calendar.Adapter
	planner *scheduler.Planner
	prefix  string
	loc     *time.Location

	now func() time.Time // injectable for tests
}

// Summary reports what one pass did.
type Summary struct {
	Considered int
	Placed     int
	Skipped    int
}

// New creates an Orchestrator.
func New(repo task.Repository, cal calendar.Adapter, planner *scheduler.Planner, eventPrefix string, loc *time.Location) *Orchestrator {
	if loc == nil {
		loc = time.Local
	}
	return &Orchestrator{
		repo:    repo,
		cal:     cal,
		planner: planner,
		prefix:  eventPrefix,
		loc:     loc,
		now:     time.Now,
	}
}

// SetNow overrides the pass clock. Tests use it to pin time.
func (o *Orchestrator) SetNow(now func() time.Time) {
	o.now = now
}

// Run executes one scheduling pass. Individual task failures are
// logged and skipped; the pass itself only errors when the task set
// cannot be loaded at all. Re-running a pass with no new tasks books
// nothing: already-scheduled tasks are never selected again.
func (o *Orchestrator) Run(ctx context.Context) (Summary, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := o.now().In(o.loc)

	pending, err := o.repo.ListTasksByStatus(ctx, task.StatusPending)
	if err != nil {
		return Summary{}, fmt.Errorf("listing pending tasks: %w", err)
	}

	eligible := make([]*task.Task, 0, len(pending))
	for _, t := range pending {
		if t.Schedulable() {
			eligible = append(eligible, t)
		}
	}
	o.order(eligible, now)

	summary := Summary{Considered: len(eligible)}
	for _, t := range eligible {
		if o.book(ctx, t, now) {
			summary.Placed++
		} else {
			summary.Skipped++
		}
	}

	if err := o.reclassify(ctx, now); err != nil {
		log.Printf("orchestrator: bucket reclassification: %v", err)
	}
	return summary, nil
}

// RunAsync triggers a pass in the background. Concurrent triggers
// queue behind the pass lock rather than interleaving.
func (o *Orchestrator) RunAsync(ctx context.Context) {
	go func() {
		if _, err := o.Run(ctx); err != nil {
			log.Printf("orchestrator: background pass: %v", err)
		}
	}()
}

// order sorts tasks by effective due date ascending, then priority
// descending. Tasks without a due date take the no-due horizon as
// their effective due, so they sort after everything due sooner. The
// sort is stable, so equal keys keep their stored order.
func (o *Orchestrator) order(tasks []*task.Task, now time.Time) {
	fallback := o.planner.Horizon(now)
	sort.SliceStable(tasks, func(i, j int) bool {
		di, dj := tasks[i].EffectiveDue(fallback), tasks[j].EffectiveDue(fallback)
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return tasks[i].Priority > tasks[j].Priority
	})
}

// book places a single task and commits the booking. Failures leave
// the task pending and untouched for the next pass.
func (o *Orchestrator) book(ctx context.Context, t *task.Task, now time.Time) bool {
	slot, ok, err := o.planner.PlaceTask(ctx, t, now, o.cal.ListBusy)
	if err != nil {
		log.Printf("orchestrator: busy lookup for %q: %v", t.Title, err)
	}
	if !ok {
		log.Printf("orchestrator: no slot for %q, leaving pending", t.Title)
		return false
	}

	eventID, err := o.cal.CreateEvent(ctx, o.prefix+t.Title, slot.Start, slot.End,
		fmt.Sprintf("Task ID: %s (auto-scheduled)", t.ID))
	if err != nil {
		log.Printf("orchestrator: booking %q: %v", t.Title, err)
		return false
	}

	// The placed start is now authoritative, replacing whatever due
	// date the task was ingested with.
	start := slot.Start
	t.Due = &start
	t.CalendarEventID = eventID
	t.Status = task.StatusScheduled

	if err := o.repo.UpdateTask(ctx, t); err != nil {
		log.Printf("orchestrator: persisting booking for %q: %v", t.Title, err)
		return false
	}
	return true
}

// reclassify recomputes the display bucket of every task, not just the
// ones touched by this pass: an untouched task's due date may have
// become "today" simply because time advanced.
func (o *Orchestrator) reclassify(ctx context.Context, now time.Time) error {
	all, err := o.repo.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("listing tasks: %w", err)
	}

	for _, t := range all {
		bucket := Classify(t, now)
		if bucket == t.Bucket {
			continue
		}
		t.Bucket = bucket
		if err := o.repo.UpdateTask(ctx, t); err != nil {
			log.Printf("orchestrator: updating bucket for %q: %v", t.Title, err)
		}
	}
	return nil
}

// Classify maps a task to its display bucket relative to now. A task
// needing clarification is always unscheduled, regardless of due date.
func Classify(t *task.Task, now time.Time) task.Bucket {
	if t.NeedsClarification || t.Due == nil {
		return task.BucketUnscheduled
	}
	today := dateutil.TruncateToDay(now)
	switch dateutil.DaysBetween(today, *t.Due) {
	case 0:
		return task.BucketToday
	case 1:
		return task.BucketTomorrow
	default:
		return task.BucketUnscheduled
	}
}
