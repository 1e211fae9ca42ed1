package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a single-file AuditStore: WAL mode for concurrent
// readers, a single writer connection, and auto-created task_audit
// table. Intended for local development and for small, single-process
// deployments that do not warrant a MySQL server.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the SQLite database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: opening sqlite db %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite serializes writes; avoid pool contention

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.createTable(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) createTable(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS task_audit (
			task_id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			start_node TEXT NOT NULL,
			final_output TEXT,
			final_reason TEXT,
			error_message TEXT,
			cost_usd REAL NOT NULL DEFAULT 0,
			started_at DATETIME NOT NULL,
			finished_at DATETIME NOT NULL
		)
	`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("store: creating task_audit table: %w", err)
	}
	return nil
}

// SaveTask implements AuditStore, upserting by task_id.
func (s *SQLiteStore) SaveTask(ctx context.Context, rec TaskRecord) error {
	const q = `
		INSERT INTO task_audit
			(task_id, status, start_node, final_output, final_reason, error_message, cost_usd, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(task_id) DO UPDATE SET
			status = excluded.status,
			final_output = excluded.final_output,
			final_reason = excluded.final_reason,
			error_message = excluded.error_message,
			cost_usd = excluded.cost_usd,
			finished_at = excluded.finished_at
	`
	_, err := s.db.ExecContext(ctx, q, rec.TaskID, rec.Status, rec.StartNode, rec.FinalOutput,
		rec.FinalReason, rec.ErrorMessage, rec.CostUSD, rec.StartedAt, rec.FinishedAt)
	if err != nil {
		return fmt.Errorf("store: saving task %q: %w", rec.TaskID, err)
	}
	return nil
}

// LoadTask implements AuditStore.
func (s *SQLiteStore) LoadTask(ctx context.Context, taskID string) (TaskRecord, error) {
	const q = `
		SELECT task_id, status, start_node, final_output, final_reason, error_message, cost_usd, started_at, finished_at
		FROM task_audit WHERE task_id = ?
	`
	var rec TaskRecord
	row := s.db.QueryRowContext(ctx, q, taskID)
	err := row.Scan(&rec.TaskID, &rec.Status, &rec.StartNode, &rec.FinalOutput, &rec.FinalReason,
		&rec.ErrorMessage, &rec.CostUSD, &rec.StartedAt, &rec.FinishedAt)
	if err == sql.ErrNoRows {
		return TaskRecord{}, ErrNotFound
	}
	if err != nil {
		return TaskRecord{}, fmt.Errorf("store: loading task %q: %w", taskID, err)
	}
	return rec, nil
}

// Close releases the underlying connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
