// Package store persists a completed task's audit trail: what came in,
// what the final frame said, and what it cost. This is not a
// checkpoint/resume mechanism — traversals never persist or resume
// mid-flight (see DESIGN.md) — it is a record kept after the fact for
// support and billing review.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested task ID has no audit record.
var ErrNotFound = errors.New("not found")

// TaskRecord is one completed traversal's audit entry.
type TaskRecord struct {
	TaskID       string
	Status       string // mirrors kvstore.StatusFinished*
	StartNode    string
	FinalOutput  string
	FinalReason  string
	ErrorMessage string
	CostUSD      float64
	StartedAt    time.Time
	FinishedAt   time.Time
}

// AuditStore records and retrieves TaskRecords.
type AuditStore interface {
	// SaveTask persists (or overwrites) the record for rec.TaskID.
	SaveTask(ctx context.Context, rec TaskRecord) error

	// LoadTask retrieves the record for taskID, or ErrNotFound.
	LoadTask(ctx context.Context, taskID string) (TaskRecord, error)

	// Close releases any resources held by the store.
	Close() error
}
