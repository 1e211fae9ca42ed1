package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dshills/reasoning-agent/graph"
	"github.com/dshills/reasoning-agent/graph/emit"
	"github.com/dshills/reasoning-agent/graph/model"
	"github.com/dshills/reasoning-agent/kvstore"
	"github.com/dshills/reasoning-agent/memory"
	"github.com/dshills/reasoning-agent/store"
)

func newServer(t *testing.T, g *graph.Graph, routerID string) (*Server, *kvstore.MemClient) {
	t.Helper()
	kv := kvstore.NewMemClient()
	exe := graph.NewExecutor(g, nil, graph.WithPollInterval(time.Millisecond))
	return &Server{
		Executor:       exe,
		KV:             kv,
		Emitter:        emit.NewNullEmitter(),
		Audit:          store.NewMemStore(),
		RouterNodeID:   routerID,
		ToolExecNodeID: routerID,
		CostCurrency:   "USD",
	}, kv
}

func readSSEFrames(t *testing.T, body string) []Frame {
	t.Helper()
	var frames []Frame
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var f Frame
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &f); err != nil {
			t.Fatalf("unmarshaling frame: %v", err)
		}
		frames = append(frames, f)
	}
	return frames
}

func TestHandleRunSingleNode(t *testing.T) {
	g := graph.New()
	_ = g.AddNode("N", &simpleNode{output: "hello"})

	srv, kv := newServer(t, g, "N")

	req := httptest.NewRequest(http.MethodPost, "/run-reasoning-agent", strings.NewReader(`{"messages":[{"role":"user","content":"hi"}],"session":{}}`))
	rec := httptest.NewRecorder()

	srv.HandleRun(rec, req)

	if rec.Header().Get("X-Task-ID") == "" {
		t.Fatal("expected X-Task-ID header")
	}
	frames := readSSEFrames(t, rec.Body.String())
	if len(frames) != 1 || frames[0].Node != "N" {
		t.Fatalf("expected one frame from N, got %+v", frames)
	}

	taskID := rec.Header().Get("X-Task-ID")
	status, ok, _ := kv.Get(context.Background(), taskID)
	if !ok || status != kvstore.StatusFinishedSuccess {
		t.Fatalf("expected finished-with-success, got %q", status)
	}
}

func TestHandleRunFanOut(t *testing.T) {
	g := graph.New()
	_ = g.AddNode("A", &fanOutNode{})
	_ = g.AddNode("B", &simpleNode{output: "B"})
	_ = g.AddNode("C", &simpleNode{output: "C"})

	srv, _ := newServer(t, g, "A")

	req := httptest.NewRequest(http.MethodPost, "/run-reasoning-agent", strings.NewReader(`{"messages":[],"session":{}}`))
	rec := httptest.NewRecorder()

	srv.HandleRun(rec, req)

	frames := readSSEFrames(t, rec.Body.String())
	if len(frames) != 3 {
		t.Fatalf("expected 3 frames (A, B, C), got %d: %+v", len(frames), frames)
	}
	if frames[0].Node != "A" {
		t.Fatalf("expected A's frame first, got %+v", frames[0])
	}
}

func TestHandleRunNodeFailure(t *testing.T) {
	g := graph.New()
	_ = g.AddNode("A", &failingNode{err: errors.New("boom")})

	srv, kv := newServer(t, g, "A")

	req := httptest.NewRequest(http.MethodPost, "/run-reasoning-agent", strings.NewReader(`{"messages":[],"session":{}}`))
	rec := httptest.NewRecorder()

	srv.HandleRun(rec, req)

	frames := readSSEFrames(t, rec.Body.String())
	if len(frames) != 1 || frames[0].Error == "" {
		t.Fatalf("expected one error frame, got %+v", frames)
	}

	taskID := rec.Header().Get("X-Task-ID")
	status, _, _ := kv.Get(context.Background(), taskID)
	if status != kvstore.StatusFinishedError {
		t.Fatalf("expected finished-with-error, got %q", status)
	}
}

func TestHandleRunActionPayload(t *testing.T) {
	g := graph.New()
	router := &simpleNode{output: "should not run"}
	toolexec := &capturingNode{}
	_ = g.AddNode("router", router)
	_ = g.AddNode("toolexec", toolexec)

	kv := kvstore.NewMemClient()
	exe := graph.NewExecutor(g, nil, graph.WithPollInterval(time.Millisecond))
	srv := &Server{
		Executor:       exe,
		KV:             kv,
		Emitter:        emit.NewNullEmitter(),
		Audit:          store.NewMemStore(),
		RouterNodeID:   "router",
		ToolExecNodeID: "toolexec",
		CostCurrency:   "USD",
	}

	body := `{"messages":[{"role":"user","content":"what's the weather"}],"session":{},"action":{"type":"tool","details":{"tool":"get_weather","parameters":{"location":"Boston"}}}}`
	req := httptest.NewRequest(http.MethodPost, "/run-reasoning-agent", strings.NewReader(body))
	rec := httptest.NewRecorder()

	srv.HandleRun(rec, req)

	frames := readSSEFrames(t, rec.Body.String())
	if len(frames) != 1 || frames[0].Node != "toolexec" {
		t.Fatalf("expected traversal to start at toolexec, got %+v", frames)
	}

	calls, ok := toolexec.gotInput.Payload.([]model.ToolCall)
	if !ok || len(calls) != 1 {
		t.Fatalf("expected toolexec to receive one synthesized tool call, got %+v", toolexec.gotInput.Payload)
	}
	if calls[0].Name != "get_weather" {
		t.Fatalf("expected get_weather, got %q", calls[0].Name)
	}
	if loc, _ := calls[0].Input["location"].(string); loc != "Boston" {
		t.Fatalf("expected location Boston, got %+v", calls[0].Input)
	}
}

func TestHandleCancelAlwaysReturns200(t *testing.T) {
	g := graph.New()
	srv, kv := newServer(t, g, "N")

	r := srv.Routes()
	req := httptest.NewRequest(http.MethodPost, "/cancel-reasoning-agent/unknown-task", nil)
	rec := httptest.NewRecorder()

	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body["detail"] == "" {
		t.Fatal("expected a detail message")
	}

	cancelled, _, _ := kv.Get(context.Background(), kvstore.CancelKey("unknown-task"))
	if cancelled != kvstore.CancelMarker {
		t.Fatalf("expected cancellation marker, got %q", cancelled)
	}
}

// simpleNode is a terminal node producing one fixed string output.
type simpleNode struct {
	graph.BaseNode
	output string
}

func (n *simpleNode) Process(ctx context.Context, ec *graph.ExecContext, messages []model.Message, input graph.Input) (<-chan graph.Result, error) {
	mem := input.Memory
	if mem == nil {
		mem = memory.New()
	}
	ch := make(chan graph.Result, 1)
	ch <- graph.Result{Output: n.output, Memory: mem}
	close(ch)
	return ch, nil
}

func (n *simpleNode) GetSuccessors(last graph.Result) []graph.Successor { return nil }

// fanOutNode yields one result then fans out to B and C.
type fanOutNode struct {
	graph.BaseNode
}

func (n *fanOutNode) Process(ctx context.Context, ec *graph.ExecContext, messages []model.Message, input graph.Input) (<-chan graph.Result, error) {
	ch := make(chan graph.Result, 1)
	ch <- graph.Result{Memory: memory.New()}
	close(ch)
	return ch, nil
}

func (n *fanOutNode) GetSuccessors(last graph.Result) []graph.Successor {
	return []graph.Successor{
		{NodeID: "B", Input: graph.Input{Memory: memory.New()}},
		{NodeID: "C", Input: graph.Input{Memory: memory.New()}},
	}
}

// capturingNode records the Input it was handed and terminates the
// traversal, for asserting on an action-initiated start's synthesized
// payload.
type capturingNode struct {
	graph.BaseNode
	gotInput graph.Input
}

func (n *capturingNode) Process(ctx context.Context, ec *graph.ExecContext, messages []model.Message, input graph.Input) (<-chan graph.Result, error) {
	n.gotInput = input
	mem := input.Memory
	if mem == nil {
		mem = memory.New()
	}
	ch := make(chan graph.Result, 1)
	ch <- graph.Result{Output: "captured", Memory: mem}
	close(ch)
	return ch, nil
}

func (n *capturingNode) GetSuccessors(last graph.Result) []graph.Successor { return nil }

// failingNode always fails Process.
type failingNode struct {
	graph.BaseNode
	err error
}

func (n *failingNode) Process(ctx context.Context, ec *graph.ExecContext, messages []model.Message, input graph.Input) (<-chan graph.Result, error) {
	return nil, n.err
}

func (n *failingNode) GetSuccessors(last graph.Result) []graph.Successor { return nil }
