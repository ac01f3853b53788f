package task

import "context"

// Repository defines the storage interface for tasks.
type Repository interface {
	// CreateTask adds a task. Creation is idempotent on ID: inserting a
	// task whose ID already exists is a no-op, so re-ingesting the same
	// external event or feed item never duplicates it.
	CreateTask(ctx context.Context, task *Task) error

	// GetTask retrieves a task by ID. Returns ErrTaskNotFound if absent.
	GetTask(ctx context.Context, id string) (*Task, error)

	// ListTasks returns all tasks, newest first.
	ListTasks(ctx context.Context) ([]*Task, error)

	// ListTasksByStatus returns all tasks with the given status.
	ListTasksByStatus(ctx context.Context, status Status) ([]*Task, error)

	// UpdateTask persists the task's mutable fields (due, duration,
	// priority, status, bucket, clarification state, calendar event id,
	// notes) in a single statement, atomically per task.
	UpdateTask(ctx context.Context, task *Task) error

	// DeleteTask removes a task by ID.
	DeleteTask(ctx context.Context, id string) error

	// Close releases any resources held by the repository.
	Close() error
}
