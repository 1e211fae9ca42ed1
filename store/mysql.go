package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore is a MySQL/MariaDB-backed AuditStore: a pooled *sql.DB plus
// a single task_audit table, created on first use if it doesn't already
// exist.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore opens dsn, configures the connection pool, and creates
// the task_audit table if it does not already exist.
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: opening mysql connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: pinging mysql: %w", err)
	}

	s := &MySQLStore{db: db}
	if err := s.createTable(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *MySQLStore) createTable(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS task_audit (
			task_id VARCHAR(255) PRIMARY KEY,
			status VARCHAR(32) NOT NULL,
			start_node VARCHAR(255) NOT NULL,
			final_output MEDIUMTEXT,
			final_reason VARCHAR(255),
			error_message MEDIUMTEXT,
			cost_usd DOUBLE NOT NULL DEFAULT 0,
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP NOT NULL
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci
	`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("store: creating task_audit table: %w", err)
	}
	return nil
}

// SaveTask implements AuditStore, upserting by task_id.
func (s *MySQLStore) SaveTask(ctx context.Context, rec TaskRecord) error {
	const q = `
		INSERT INTO task_audit
			(task_id, status, start_node, final_output, final_reason, error_message, cost_usd, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			status = VALUES(status),
			final_output = VALUES(final_output),
			final_reason = VALUES(final_reason),
			error_message = VALUES(error_message),
			cost_usd = VALUES(cost_usd),
			finished_at = VALUES(finished_at)
	`
	_, err := s.db.ExecContext(ctx, q, rec.TaskID, rec.Status, rec.StartNode, rec.FinalOutput,
		rec.FinalReason, rec.ErrorMessage, rec.CostUSD, rec.StartedAt, rec.FinishedAt)
	if err != nil {
		return fmt.Errorf("store: saving task %q: %w", rec.TaskID, err)
	}
	return nil
}

// LoadTask implements AuditStore.
func (s *MySQLStore) LoadTask(ctx context.Context, taskID string) (TaskRecord, error) {
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

// Close releases the underlying connection pool.
func (s *MySQLStore) Close() error {
	return s.db.Close()
}
