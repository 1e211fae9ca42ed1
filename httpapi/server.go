// Package httpapi exposes the request pipeline (F), the cancellation
// endpoint (G), and the result formatter (H) as an HTTP surface: a single
// streaming endpoint that launches a traversal and relays its results as
// Server-Sent Events, plus a cancellation endpoint that writes the
// cooperative-cancellation marker a running traversal polls for.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dshills/reasoning-agent/graph"
	"github.com/dshills/reasoning-agent/graph/emit"
	"github.com/dshills/reasoning-agent/graph/model"
	"github.com/dshills/reasoning-agent/kvstore"
	"github.com/dshills/reasoning-agent/memory"
	"github.com/dshills/reasoning-agent/session"
	"github.com/dshills/reasoning-agent/store"
)

// Server wires the graph executor to an HTTP surface. It holds no
// per-request state: every field is a shared collaborator handed to each
// traversal's ExecContext.
type Server struct {
	Executor *graph.Executor
	KV       kvstore.Client
	Emitter  emit.Emitter
	Audit    store.AuditStore

	// RouterNodeID is the default start node for a plain request.
	RouterNodeID string

	// ToolExecNodeID is the start node used when the request carries an
	// action payload (§6, S6).
	ToolExecNodeID string

	// CostCurrency is passed to graph.NewCostTracker for every traversal.
	CostCurrency string
}

// RunRequest is the decoded POST /run-reasoning-agent body.
type RunRequest struct {
	Messages []InMessage    `json:"messages"`
	Session  map[string]any `json:"session"`
	Action   *ActionPayload `json:"action,omitempty"`
}

// InMessage is one inbound conversation message.
type InMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ActionPayload instructs the pipeline to start the traversal at the
// tool-execution node instead of the router, per §6.
type ActionPayload struct {
	Type    string        `json:"type"`
	Details ActionDetails `json:"details"`
}

// ActionDetails names the tool and parameters an action-initiated
// traversal should begin with.
type ActionDetails struct {
	Tool       string         `json:"tool"`
	Parameters map[string]any `json:"parameters"`
}

// Routes returns a chi router wired to this Server's handlers, ready to
// be mounted directly or used as an http.Handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/run-reasoning-agent", s.HandleRun)
	r.Post("/cancel-reasoning-agent/{task_id}", s.HandleCancel)
	return r
}

// HandleRun implements the request pipeline (F): decode, mint a task ID,
// mark it running, open an SSE stream, and relay every executor result as
// a frame until the traversal finishes or the client disconnects.
func (s *Server) HandleRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	taskID := uuid.New().String()
	sessGUID, _ := req.Session["guid"].(string)
	sess := session.New(sessGUID, req.Session)

	messages := toModelMessages(req.Messages)
	startNode := s.RouterNodeID
	var input graph.Input

	if req.Action != nil && req.Action.Type == "tool" {
		startNode = s.ToolExecNodeID
		synthesized := model.Message{
			Role:    model.RoleUser,
			Content: fmt.Sprintf("[action] invoke tool %q with parameters %v", req.Action.Details.Tool, req.Action.Details.Parameters),
		}
		messages = append(messages, synthesized)

		mem := memory.New()
		mem.Conversation = append([]model.Message(nil), messages...)
		input = graph.Input{
			Memory: mem,
			Payload: []model.ToolCall{{
				ID:    taskID,
				Name:  req.Action.Details.Tool,
				Input: req.Action.Details.Parameters,
			}},
		}
	} else {
		mem := memory.New()
		mem.Conversation = append([]model.Message(nil), messages...)
		input = graph.Input{Memory: mem}
	}

	ec := &graph.ExecContext{
		TaskID:  taskID,
		Session: sess,
		KV:      s.KV,
		Emitter: s.Emitter,
		Cost:    graph.NewCostTracker(taskID, s.CostCurrency),
	}

	traversal, err := s.Executor.Traverse(r.Context(), startNode, messages, input, ec)
	if err != nil {
		http.Error(w, fmt.Sprintf("starting traversal: %v", err), http.StatusInternalServerError)
		return
	}

	flusher, _ := w.(http.Flusher)
	setSSEHeaders(w, taskID)
	w.WriteHeader(http.StatusOK)
	if flusher != nil {
		flusher.Flush()
	}

	started := time.Now()
	var last graph.Result
	for result := range traversal.Consume(r.Context()) {
		last = result
		frame := FormatFrame(result, sess)
		if err := writeSSEFrame(w, flusher, frame); err != nil {
			// Client disconnected or write failed: per §4.6 and error
			// handling item 5, the pipeline returns without signalling
			// the executor, which runs to completion on its own.
			return
		}
	}

	s.recordAudit(r.Context(), taskID, startNode, last, ec, started)
}

// HandleCancel implements the cancellation endpoint (G): write the
// cancellation marker and report success unconditionally, per §4.7.
func (s *Server) HandleCancel(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task_id")

	if s.KV != nil {
		_ = s.KV.Set(r.Context(), kvstore.CancelKey(taskID), kvstore.CancelMarker)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"detail": fmt.Sprintf("Task %s cancelled", taskID),
	})
}

// recordAudit saves a TaskRecord for the just-finished traversal, when an
// AuditStore is configured. Best-effort: a save failure is not surfaced
// to the client, since the SSE response has already been sent.
func (s *Server) recordAudit(ctx context.Context, taskID, startNode string, last graph.Result, ec *graph.ExecContext, started time.Time) {
	if s.Audit == nil {
		return
	}

	rec := store.TaskRecord{
		TaskID:     taskID,
		StartNode:  startNode,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if ec.Cost != nil {
		rec.CostUSD = ec.Cost.TotalCost()
	}
	if last.Err != nil {
		rec.Status = kvstore.StatusFinishedError
		rec.ErrorMessage = last.Err.Error()
	} else {
		rec.Status = kvstore.StatusFinishedSuccess
		rec.FinalReason = last.Reason
		rec.FinalOutput = fmt.Sprintf("%v", last.Output)
	}

	_ = s.Audit.SaveTask(ctx, rec)
}

func toModelMessages(in []InMessage) []model.Message {
	out := make([]model.Message, len(in))
	for i, m := range in {
		out[i] = model.Message{Role: m.Role, Content: m.Content}
	}
	return out
}
