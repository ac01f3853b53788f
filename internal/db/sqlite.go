// Package db provides SQLite storage implementation.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/tempoplan/tempo/internal/task"
)

// SQLite implements task.Repository using SQLite.
type SQLite struct {
	db *sql.DB
}

// New creates a new SQLite repository and runs migrations.
func New(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

const taskColumns = `id, title, source, due, duration_minutes, priority, status, bucket,
		needs_clarification, pending_question, calendar_event_id, is_external, notes, created_at`

// CreateTask adds a task. Inserting an ID that already exists is a
// no-op, which makes re-ingestion of external events idempotent.
func (s *SQLite) CreateTask(ctx context.Context, t *task.Task) error {
	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`

	_, err := s.db.ExecContext(ctx, query,
		t.ID,
		t.Title,
		t.Source,
		nullableTime(t.Due),
		t.DurationMinutes,
		t.Priority,
		t.Status,
		t.Bucket,
		t.NeedsClarification,
		t.PendingQuestion,
		t.CalendarEventID,
		t.IsExternal,
		t.Notes,
		t.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting task: %w", err)
	}
	return nil
}

// GetTask retrieves a task by ID.
func (s *SQLite) GetTask(ctx context.Context, id string) (*task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`

	t, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, task.ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying task: %w", err)
	}
	return t, nil
}

// ListTasks returns all tasks, newest first.
func (s *SQLite) ListTasks(ctx context.Context) ([]*task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks ORDER BY created_at DESC, id`
	return s.queryTasks(ctx, query)
}

// ListTasksByStatus returns all tasks with the given status.
func (s *SQLite) ListTasksByStatus(ctx context.Context, status task.Status) ([]*task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE status = ? ORDER BY created_at DESC, id`
	return s.queryTasks(ctx, query, status)
}

// UpdateTask persists the task's mutable fields in a single statement.
func (s *SQLite) UpdateTask(ctx context.Context, t *task.Task) error {
	query := `
		UPDATE tasks
		SET title = ?, due = ?, duration_minutes = ?, priority = ?, status = ?,
		    bucket = ?, needs_clarification = ?, pending_question = ?,
		    calendar_event_id = ?, notes = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		t.Title,
		nullableTime(t.Due),
		t.DurationMinutes,
		t.Priority,
		t.Status,
		t.Bucket,
		t.NeedsClarification,
		t.PendingQuestion,
		t.CalendarEventID,
		t.Notes,
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rows == 0 {
		return task.ErrTaskNotFound
	}
	return nil
}

// DeleteTask removes a task by ID.
func (s *SQLite) DeleteTask(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rows == 0 {
		return task.ErrTaskNotFound
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) queryTasks(ctx context.Context, query string, args ...any) ([]*task.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}
	return tasks, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (*task.Task, error) {
	var (
		t         task.Task
		due       sql.NullString
		createdAt string
	)

	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Source,
		&due,
		&t.DurationMinutes,
		&t.Priority,
		&t.Status,
		&t.Bucket,
		&t.NeedsClarification,
		&t.PendingQuestion,
		&t.CalendarEventID,
		&t.IsExternal,
		&t.Notes,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	if due.Valid {
		parsed, err := time.Parse(time.RFC3339, due.String)
		if err != nil {
			return nil, fmt.Errorf("parsing due date: %w", err)
		}
		t.Due = &parsed
	}

	t.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &t, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}
