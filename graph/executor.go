package graph

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/reasoning-agent/graph/emit"
	"github.com/dshills/reasoning-agent/graph/model"
	"github.com/dshills/reasoning-agent/kvstore"
)

// Executor runs one Graph concurrently, activating a node, deriving its
// successors, and activating those in parallel, until the traversal
// either runs dry or is stopped by an error, a cancellation, or the
// visit cap. Completion is tracked with an atomic inflight counter and a
// once-guarded done-signal rather than a fixed worker pool draining an
// ordered frontier: successors fan out as goroutines directly, and sibling
// order is never guaranteed.
type Executor struct {
	graph   *Graph
	opts    Options
	metrics *PrometheusMetrics
}

// NewExecutor builds an Executor over graph with the given options.
func NewExecutor(g *Graph, metrics *PrometheusMetrics, opts ...Option) *Executor {
	o := Options{}
	for _, apply := range opts {
		apply(&o)
	}
	return &Executor{graph: g, opts: o.withDefaults(), metrics: metrics}
}

// Traversal is one in-flight run of Executor.Traverse. Results arrive on
// the channel returned by Consume; the channel closes once the traversal
// is finished (drained dry, errored, or cancelled).
type Traversal struct {
	exe    *Executor
	ec     *ExecContext
	taskID string

	qmu   sync.Mutex
	queue []Result

	doneCh   chan struct{}
	doneOnce sync.Once

	activeTasks  atomic.Int64
	visitedNodes atomic.Int64

	errOnce  sync.Once
	firstErr error
}

// Traverse launches the traversal at startNodeID with the given initial
// messages and input, and returns immediately; the caller drives
// consumption via Traversal.Consume. The start node's activation
// increments the inflight counter before its goroutine is spawned, so the
// counter is never observed as zero before the traversal has truly begun.
func (e *Executor) Traverse(ctx context.Context, startNodeID string, messages []model.Message, initialInput Input, ec *ExecContext) (*Traversal, error) {
	if _, ok := e.graph.Node(startNodeID); !ok {
		return nil, &ExecutorError{Code: CodeNodeNotFound, Message: fmt.Sprintf("start node not found: %s", startNodeID)}
	}

	t := &Traversal{
		exe:    e,
		ec:     ec,
		taskID: ec.TaskID,
		doneCh: make(chan struct{}),
	}

	if ec.KV != nil {
		if err := ec.KV.Set(ctx, t.taskID, kvstore.StatusRunning); err != nil {
			return nil, fmt.Errorf("graph: writing initial task status: %w", err)
		}
	}

	t.activeTasks.Add(1)
	go t.activate(ctx, startNodeID, messages, initialInput)

	return t, nil
}

// activate runs one node activation: it increments the visited-node
// counter, checks the visit cap, runs Process, enqueues every streamed
// Result, and — absent a terminal error — polls CheckForContinue and
// fans out to GetSuccessors' targets. The caller must have already
// incremented activeTasks for this activation before spawning it.
func (t *Traversal) activate(ctx context.Context, nodeID string, messages []model.Message, input Input) {
	defer func() {
		if t.activeTasks.Add(-1) == 0 {
			t.signalDone()
		}
	}()

	visited := t.visitedNodes.Add(1)
	if t.exe.metrics != nil {
		t.exe.metrics.IncrementVisitedNodes(t.taskID)
		t.exe.metrics.SetActiveTasks(t.activeTasks.Load())
	}

	if int(visited) > t.exe.opts.MaxNodes {
		if t.exe.metrics != nil {
			t.exe.metrics.IncrementVisitCapBreaches(t.taskID)
		}
		t.fail(&ExecutorError{
			Code:    CodeVisitCapExceeded,
			Message: fmt.Sprintf("visit cap of %d exceeded at node %q", t.exe.opts.MaxNodes, nodeID),
		})
		return
	}

	node, ok := t.exe.graph.Node(nodeID)
	if !ok {
		t.fail(&ExecutorError{Code: CodeNodeNotFound, Message: fmt.Sprintf("node not found: %s", nodeID)})
		return
	}

	start := time.Now()
	t.emit(emit.Event{TaskID: t.taskID, ActivationID: int(visited), NodeID: nodeID, Msg: "activation_start"})

	resultsCh, err := node.Process(ctx, t.ec, messages, input)
	if err != nil {
		t.recordLatency(nodeID, start, "error")
		t.fail(fmt.Errorf("node %s: %w", nodeID, err))
		return
	}

	var last Result
	haveLast := false
	for r := range resultsCh {
		if r.NodeID == "" {
			r.NodeID = nodeID
		}
		t.enqueue(r)
		if r.Err != nil {
			t.recordLatency(nodeID, start, "error")
			t.fail(r.Err)
			return
		}
		last = r
		haveLast = true
	}
	t.recordLatency(nodeID, start, "success")
	t.emit(emit.Event{TaskID: t.taskID, ActivationID: int(visited), NodeID: nodeID, Msg: "activation_end"})

	if !haveLast {
		last = Result{NodeID: nodeID}
	}

	cont, err := node.CheckForContinue(ctx, t.ec)
	if err != nil {
		t.fail(fmt.Errorf("node %s: check_for_continue: %w", nodeID, err))
		return
	}
	if !cont {
		if t.exe.metrics != nil {
			t.exe.metrics.IncrementCancellations(t.taskID)
		}
		t.emit(emit.Event{TaskID: t.taskID, ActivationID: int(visited), NodeID: nodeID, Msg: "cancelled"})
		return
	}

	successors := node.GetSuccessors(last)
	for _, s := range successors {
		t.activeTasks.Add(1)
		go t.activate(ctx, s.NodeID, messages, s.Input)
	}
}

func (t *Traversal) recordLatency(nodeID string, start time.Time, status string) {
	if t.exe.metrics != nil {
		t.exe.metrics.RecordActivationLatency(t.taskID, nodeID, time.Since(start), status)
	}
}

func (t *Traversal) emit(ev emit.Event) {
	if t.ec != nil && t.ec.Emitter != nil {
		t.ec.Emitter.Emit(ev)
	}
}

// enqueue adds a Result to the multi-producer/single-consumer queue
// Consume drains from.
func (t *Traversal) enqueue(r Result) {
	t.qmu.Lock()
	t.queue = append(t.queue, r)
	t.qmu.Unlock()
}

// drain empties and returns the queue's current contents.
func (t *Traversal) drain() []Result {
	t.qmu.Lock()
	defer t.qmu.Unlock()
	if len(t.queue) == 0 {
		return nil
	}
	out := t.queue
	t.queue = nil
	return out
}

// fail records a Result carrying err, marks the traversal done
// immediately (an error frame is always terminal, regardless of
// how many activations are still inflight), and records it as the
// traversal's first error for the KV status write.
func (t *Traversal) fail(err error) {
	t.errOnce.Do(func() { t.firstErr = err })
	t.enqueue(Result{Err: err})
	t.signalDone()
}

func (t *Traversal) signalDone() {
	t.doneOnce.Do(func() { close(t.doneCh) })
}

// Consume drains the traversal's result queue on exe's configured poll
// interval and streams results to the returned channel, which closes
// when the traversal finishes. On the first error frame the loop yields
// it and closes the channel immediately, leaving any still-running
// activations to terminate on their own without further observation.
// Otherwise, once the done-signal is set and the queue is empty, the
// executor writes the task's final KV status and closes the channel.
func (t *Traversal) Consume(ctx context.Context) <-chan Result {
	out := make(chan Result)

	go func() {
		defer close(out)

		ticker := time.NewTicker(t.exe.opts.PollInterval)
		defer ticker.Stop()

		for {
			for _, r := range t.drain() {
				select {
				case out <- r:
				case <-ctx.Done():
					return
				}
				if r.Err != nil {
					t.setFinalStatus(ctx)
					return
				}
			}

			select {
			case <-t.doneCh:
				// One more drain catches anything enqueued between the pass
				// above and the done-signal becoming visible here.
				for _, r := range t.drain() {
					select {
					case out <- r:
					case <-ctx.Done():
						return
					}
					if r.Err != nil {
						t.setFinalStatus(ctx)
						return
					}
				}
				t.setFinalStatus(ctx)
				return
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// setFinalStatus writes the task's terminal KV status once Consume
// exits: finished-with-error if any activation ever enqueued an error
// frame, finished-with-success otherwise.
func (t *Traversal) setFinalStatus(ctx context.Context) {
	if t.ec == nil || t.ec.KV == nil {
		return
	}
	status := kvstore.StatusFinishedSuccess
	if t.firstErr != nil {
		status = kvstore.StatusFinishedError
	}
	_ = t.ec.KV.Set(ctx, t.taskID, status)
}

// ActiveTasks returns the current live activation count. Exposed for
// tests exercising the active_tasks invariant.
func (t *Traversal) ActiveTasks() int64 {
	return t.activeTasks.Load()
}

// VisitedNodes returns the total activation count so far.
func (t *Traversal) VisitedNodes() int64 {
	return t.visitedNodes.Load()
}
