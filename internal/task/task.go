// Package task defines the core domain types for tempo.
package task

import (
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
)

// Validation errors.
var (
	ErrEmptyTitle = errors.New("title cannot be empty")
)

// Domain errors.
var (
	ErrTaskNotFound = errors.New("task not found")
)

// Status represents the booking state of a task.
type Status string

const (
	// StatusPending means the task has not been placed on the calendar.
	StatusPending Status = "pending"
	// StatusScheduled means a calendar booking exists for the task.
	StatusScheduled Status = "scheduled"
	// StatusDone is set externally; the engine never sets it.
	StatusDone Status = "done"
)

// Bucket is a display-only classification, distinct from Status.
type Bucket string

const (
	BucketToday       Bucket = "today"
	BucketTomorrow    Bucket = "tomorrow"
	BucketUnscheduled Bucket = "unscheduled"
)

// Known ingestion sources.
const (
	SourceAssistant = "assistant"
	SourceEmail     = "email"
	SourceCalendar  = "calendar"
	SourceICS       = "ics"
)

// Task represents a unit of work the assistant may place on the
// calendar. The ID is stable across ingestion sources so re-importing
// the same external event or feed item never creates a duplicate.
type Task struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	Source             string     `json:"source"`
	Due                *time.Time `json:"due,omitempty"` // nil means no deadline provided yet
	DurationMinutes    int        `json:"durationMinutes"`
	Priority           int        `json:"priority"` // higher = more urgent
	Status             Status     `json:"status"`
	Bucket             Bucket     `json:"bucket"`
	NeedsClarification bool       `json:"needsClarification"`
	PendingQuestion    string     `json:"pendingQuestion,omitempty"`
	CalendarEventID    string     `json:"calendarEventId,omitempty"`
	IsExternal         bool       `json:"isExternal"`
	Notes              string     `json:"notes,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
}

// Defaults carries the ingestion-time clamps applied to unspecified
// task fields. Applying them once at ingestion keeps every later call
// site working from the same values.
type Defaults struct {
	DurationMinutes    int
	MinDurationMinutes int
	Priority           int
}

// New creates a pending task from the given source with a fresh ID.
func New(title, source string) (*Task, error) {
	if title == "" {
		return nil, ErrEmptyTitle
	}
	return &Task{
		ID:        uuid.NewString(),
		Title:     title,
		Source:    source,
		Status:    StatusPending,
		Bucket:    BucketUnscheduled,
		CreatedAt: time.Now(),
	}, nil
}

// StableID derives a deterministic ID from an ingestion source and a
// source-local key. Re-importing the same external item maps to the
// same task ID, which the repository's idempotent create turns into a
// no-op.
func StableID(source, key string) string {
	h := fnv.New64a()
	h.Write([]byte(key))
	return fmt.Sprintf("%s-%x", source, h.Sum64())
}

// Normalize applies the configured defaults and floors in place.
// A missing or non-positive duration becomes the default; anything
// below the floor is raised to it. A non-positive priority becomes the
// default priority.
func (t *Task) Normalize(d Defaults) {
	if t.DurationMinutes <= 0 {
		t.DurationMinutes = d.DurationMinutes
	}
	if t.DurationMinutes < d.MinDurationMinutes {
		t.DurationMinutes = d.MinDurationMinutes
	}
	if t.Priority <= 0 {
		t.Priority = d.Priority
	}
}

// Schedulable returns true if the orchestrator may auto-book this
// task: it is pending, needs no clarification, and did not originate
// from an external feed (external tasks already have a calendar
// presence).
func (t *Task) Schedulable() bool {
	return t.Status == StatusPending && !t.NeedsClarification && !t.IsExternal
}

// EffectiveDue returns the task's due date, or fallback when none is
// set. The orchestrator uses it to order tasks without penalizing the
// dated ones.
func (t *Task) EffectiveDue(fallback time.Time) time.Time {
	if t.Due != nil {
		return *t.Due
	}
	return fallback
}

// IsScheduled returns true if the task has a live calendar booking.
func (t *Task) IsScheduled() bool {
	return t.Status == StatusScheduled && t.CalendarEventID != ""
}
