package db

import "fmt"

// migrate runs database migrations.
func (s *SQLite) migrate() error {
	query := `
		CREATE TABLE IF NOT EXISTS tasks (
			id                  TEXT PRIMARY KEY,
			title               TEXT NOT NULL,
			source              TEXT NOT NULL DEFAULT '',
			due                 TEXT,
			duration_minutes    INTEGER NOT NULL DEFAULT 60,
			priority            INTEGER NOT NULL DEFAULT 3,
			status              TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending', 'scheduled', 'done')),
			bucket              TEXT NOT NULL DEFAULT 'unscheduled' CHECK(bucket IN ('today', 'tomorrow', 'unscheduled')),
			needs_clarification INTEGER NOT NULL DEFAULT 0,
			pending_question    TEXT NOT NULL DEFAULT '',
			calendar_event_id   TEXT NOT NULL DEFAULT '',
			is_external         INTEGER NOT NULL DEFAULT 0,
			notes               TEXT NOT NULL DEFAULT '',
			created_at          TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
		CREATE INDEX IF NOT EXISTS idx_tasks_due ON tasks(due);
	`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("creating tasks table: %w", err)
	}

	return nil
}
