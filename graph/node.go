// Package graph implements the streaming directed-graph executor: the
// concurrent traversal engine described in the design (component D, the
// passive graph container, and component E, the executor itself).
package graph

import (
	"context"
	"fmt"

	"github.com/dshills/reasoning-agent/graph/emit"
	"github.com/dshills/reasoning-agent/graph/model"
	"github.com/dshills/reasoning-agent/kvstore"
	"github.com/dshills/reasoning-agent/memory"
	"github.com/dshills/reasoning-agent/session"
)

// ExecContext carries the per-traversal collaborators a node needs but
// that are not themselves part of the graph: the task identifier, the
// request-scoped Session, the KV client used for cancellation checks,
// and the optional observability/cost collaborators. It is passed
// explicitly to every node activation rather than propagated through a
// dynamically-scoped variable or context.Value — this keeps nodes
// trivial to unit test.
type ExecContext struct {
	TaskID  string
	Session *session.Session
	KV      kvstore.Client
	Emitter emit.Emitter
	Cost    *CostTracker
}

// Input is the per-successor activation payload: the node-specific
// arguments plus the Memory this activation owns. Memory must never be
// shared between sibling successors — see memory.Memory.Copy.
type Input struct {
	Memory  *memory.Memory
	Payload any
}

// Result is one item produced by a node's Process stream. A node may
// enqueue any number of Results before closing its channel; the executor
// remembers the last one as the node's terminal result for successor
// derivation. A Result with a non-nil Err is a terminal error frame: it
// stops the traversal.
type Result struct {
	NodeID string
	Output any
	Reason string
	Memory *memory.Memory
	Err    error
}

// Successor is one fan-out target returned from GetSuccessors: the
// identifier of the node to activate next, and the Input to activate it
// with.
type Successor struct {
	NodeID string
	Input  Input
}

// Node is the unit of work in the graph. Concrete node types (a
// tool-choice router, a tool executor, a natural-language formatter, ...)
// implement this directly or embed BaseNode for the default
// CheckForContinue behavior.
type Node interface {
	// Process performs this node's work and streams its results back on
	// the returned channel. The channel must be closed when the node has
	// no more results to produce. A non-nil error return means the node
	// failed before producing anything and the channel (if any) should be
	// considered empty; an error surfaced on the channel via Result.Err
	// is equally terminal and preferred when some results were already
	// produced before the failure.
	Process(ctx context.Context, ec *ExecContext, messages []model.Message, input Input) (<-chan Result, error)

	// GetSuccessors derives the fan-out for this activation from the
	// node's last produced Result. An empty slice marks this path
	// terminal.
	GetSuccessors(last Result) []Successor

	// CheckForContinue is polled once per activation, after Process
	// completes and before GetSuccessors is consulted. Returning
	// (false, nil) short-circuits successor expansion for this
	// activation only; already-launched successors elsewhere are
	// unaffected. A non-nil error fails the whole traversal, the same
	// as an error returned from Process.
	CheckForContinue(ctx context.Context, ec *ExecContext) (bool, error)
}

// BaseNode supplies the default CheckForContinue: poll the KV client for
// the task's cancellation marker. Concrete node types embed BaseNode so
// they only need to implement Process and GetSuccessors.
type BaseNode struct{}

// CheckForContinue implements the default cancellation poll described in
// the node abstraction: false once "task-<id>" reads "cancelled", true
// otherwise. A KV outage while checking propagates as an error rather
// than being treated as "not cancelled", per kvstore.IsCancelled's own
// contract.
func (BaseNode) CheckForContinue(ctx context.Context, ec *ExecContext) (bool, error) {
	if ec == nil || ec.KV == nil {
		return true, nil
	}
	cancelled, err := kvstore.IsCancelled(ctx, ec.KV, ec.TaskID)
	if err != nil {
		return false, fmt.Errorf("graph: checking cancellation: %w", err)
	}
	return !cancelled, nil
}
