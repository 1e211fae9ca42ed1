// Package kvstore is the external key-value client contract (component A
// in the design). The executor uses it for exactly two things per task:
// the task's status string, keyed by the task ID itself, and the
// cancellation marker, keyed by "task-<id>". The contract is eventual
// rather than transactional — a cancellation written concurrently with a
// successor expansion may take effect on the next expansion, not the
// current one.
package kvstore

import "context"

// Status values written to the task-ID key.
const (
	StatusRunning         = "running"
	StatusFinishedSuccess = "finished-with-success"
	StatusFinishedError   = "finished-with-error"
	CancelMarker          = "cancelled"
	cancelKeyPrefix       = "task-"
)

// Client is a thin contract over a remote key-value store.
type Client interface {
	// Set stores value under key.
	Set(ctx context.Context, key, value string) error

	// Get retrieves the value stored under key. ok is false if the key
	// does not exist.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
}

// CancelKey returns the key under which a task's cancellation marker is
// stored. Deliberately distinct from the task-ID key itself (which holds
// the running/finished-* status) — this asymmetry is preserved for wire
// compatibility with existing deployments even though a single key per
// task would be the cleaner design.
func CancelKey(taskID string) string {
	return cancelKeyPrefix + taskID
}

// IsCancelled reports whether the cancellation marker has been set for
// taskID. A Get failure (KV outage) is propagated to the caller rather
// than silently treated as "not cancelled": a KV outage during this
// check is a node failure, not a cancellation.
func IsCancelled(ctx context.Context, c Client, taskID string) (bool, error) {
	value, ok, err := c.Get(ctx, CancelKey(taskID))
	if err != nil {
		return false, err
	}
	return ok && value == CancelMarker, nil
}
