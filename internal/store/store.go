// Package store implements the Task Executor's pluggable persistence
// collaborator: a write-through mirror of TaskExecution records, backed by
// a pure-Go sqlite driver (modernc.org/sqlite) through database/sql.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/argo-mcp/argo/internal/executor"
)

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	task_id                  TEXT PRIMARY KEY,
	task_type                TEXT NOT NULL,
	original_query            TEXT NOT NULL,
	status                   TEXT NOT NULL,
	progress_percent         INTEGER NOT NULL DEFAULT 0,
	progress_message         TEXT NOT NULL DEFAULT '',
	screenshots              TEXT NOT NULL DEFAULT '[]',
	extracted_results        TEXT NOT NULL DEFAULT '',
	error_details            TEXT NOT NULL DEFAULT '',
	created                  DATETIME NOT NULL,
	updated                  DATETIME NOT NULL,
	started_at               DATETIME,
	completed_at             DATETIME,
	retry_count              INTEGER NOT NULL DEFAULT 0,
	max_retries              INTEGER NOT NULL DEFAULT 0,
	timeout_seconds          INTEGER NOT NULL DEFAULT 0,
	actual_duration_seconds  REAL NOT NULL DEFAULT 0,
	requester_id             TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_tasks_started_at ON tasks(started_at);
`

// SQLiteStore is a sqlite-backed implementation of executor.Persistence.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if necessary) the sqlite database at
// dbPath and ensures the schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", dbPath, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Save upserts the task row.
func (s *SQLiteStore) Save(ctx context.Context, task *executor.TaskExecution) error {
	screenshots, err := json.Marshal(task.Screenshots)
	if err != nil {
		return fmt.Errorf("store: marshal screenshots: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tasks (
			task_id, task_type, original_query, status, progress_percent, progress_message,
			screenshots, extracted_results, error_details, created, updated, started_at,
			completed_at, retry_count, max_retries, timeout_seconds, actual_duration_seconds, requester_id
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(task_id) DO UPDATE SET
			status=excluded.status, progress_percent=excluded.progress_percent,
			progress_message=excluded.progress_message, screenshots=excluded.screenshots,
			extracted_results=excluded.extracted_results, error_details=excluded.error_details,
			updated=excluded.updated, started_at=excluded.started_at, completed_at=excluded.completed_at,
			retry_count=excluded.retry_count, actual_duration_seconds=excluded.actual_duration_seconds
	`,
		task.TaskID, task.TaskType, task.OriginalQuery, string(task.Status), task.ProgressPercent, task.ProgressMessage,
		string(screenshots), task.ExtractedResults, task.ErrorDetails, task.Created, task.Updated,
		nullTime(task.StartedAt), nullTime(task.CompletedAt), task.RetryCount, task.MaxRetries,
		task.TimeoutSeconds, task.ActualDurationSeconds, task.RequesterID,
	)
	if err != nil {
		return fmt.Errorf("store: save %s: %w", task.TaskID, err)
	}
	return nil
}

// FindByID loads one task, or (nil, nil) if absent.
func (s *SQLiteStore) FindByID(ctx context.Context, taskID string) (*executor.TaskExecution, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE task_id = ?", taskID)
	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: find %s: %w", taskID, err)
	}
	return task, nil
}

// FindTimedOutTasks returns RUNNING tasks started before now-threshold.
func (s *SQLiteStore) FindTimedOutTasks(ctx context.Context, threshold time.Duration) ([]*executor.TaskExecution, error) {
	cutoff := time.Now().Add(-threshold)
	rows, err := s.db.QueryContext(ctx, selectColumns+" WHERE status = 'RUNNING' AND started_at < ?", cutoff)
	if err != nil {
		return nil, fmt.Errorf("store: find timed out tasks: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

// FindForCleanup returns terminal tasks completed before cutoff.
func (s *SQLiteStore) FindForCleanup(ctx context.Context, cutoff time.Time) ([]*executor.TaskExecution, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+
		" WHERE status IN ('COMPLETED','FAILED','TIMEOUT','CANCELLED') AND completed_at < ?", cutoff)
	if err != nil {
		return nil, fmt.Errorf("store: find for cleanup: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

// CountByStatus returns the number of rows currently in the given status.
func (s *SQLiteStore) CountByStatus(ctx context.Context, status executor.Status) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tasks WHERE status = ?", string(status)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("store: count by status: %w", err)
	}
	return n, nil
}

const selectColumns = `SELECT task_id, task_type, original_query, status, progress_percent, progress_message,
	screenshots, extracted_results, error_details, created, updated, started_at, completed_at,
	retry_count, max_retries, timeout_seconds, actual_duration_seconds, requester_id FROM tasks`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*executor.TaskExecution, error) {
	var t executor.TaskExecution
	var status, screenshotsJSON string
	var startedAt, completedAt sql.NullTime

	err := row.Scan(&t.TaskID, &t.TaskType, &t.OriginalQuery, &status, &t.ProgressPercent, &t.ProgressMessage,
		&screenshotsJSON, &t.ExtractedResults, &t.ErrorDetails, &t.Created, &t.Updated, &startedAt, &completedAt,
		&t.RetryCount, &t.MaxRetries, &t.TimeoutSeconds, &t.ActualDurationSeconds, &t.RequesterID)
	if err != nil {
		return nil, err
	}
	t.Status = executor.Status(status)
	if startedAt.Valid {
		t.StartedAt = startedAt.Time
	}
	if completedAt.Valid {
		t.CompletedAt = completedAt.Time
	}
	// Eagerly decode the screenshots collection before returning the view
	// to the caller, rather than leaving it as a lazily-resolved reference.
	if strings.TrimSpace(screenshotsJSON) != "" {
		if err := json.Unmarshal([]byte(screenshotsJSON), &t.Screenshots); err != nil {
			return nil, fmt.Errorf("decode screenshots: %w", err)
		}
	}
	return &t, nil
}

func scanTasks(rows *sql.Rows) ([]*executor.TaskExecution, error) {
	var out []*executor.TaskExecution
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
