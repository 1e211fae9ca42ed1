package agentnodes

import (
	"context"
	"errors"
	"testing"

	"github.com/dshills/reasoning-agent/graph"
	"github.com/dshills/reasoning-agent/graph/model"
	"github.com/dshills/reasoning-agent/graph/tool"
	"github.com/dshills/reasoning-agent/memory"
)

func TestToolExecRunsKnownTool(t *testing.T) {
	weather := &tool.MockTool{ToolName: "get_weather", Responses: []map[string]interface{}{{"temp": 72}}}
	n := NewToolExecNode("router", 6, weather)

	calls := []model.ToolCall{{ID: "1", Name: "get_weather", Input: map[string]interface{}{"location": "nyc"}}}
	ch, err := n.Process(context.Background(), nil, nil, graph.Input{Memory: memory.New(), Payload: calls})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	result := <-ch

	if len(result.Memory.ToolOutputCache) != 1 {
		t.Fatalf("expected one recorded invocation, got %d", len(result.Memory.ToolOutputCache))
	}
	if len(result.Memory.Conversation) != 1 || result.Memory.Conversation[0].ToolCallID != "1" {
		t.Fatalf("expected one tool-result message in Conversation, got %+v", result.Memory.Conversation)
	}

	succ := n.GetSuccessors(result)
	if len(succ) != 1 || succ[0].NodeID != "router" {
		t.Fatalf("expected routing back to router, got %+v", succ)
	}
}

func TestToolExecReportsUnknownTool(t *testing.T) {
	n := NewToolExecNode("router", 6)

	calls := []model.ToolCall{{ID: "1", Name: "nonexistent"}}
	ch, err := n.Process(context.Background(), nil, nil, graph.Input{Memory: memory.New(), Payload: calls})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	result := <-ch

	msgs := result.Output.([]model.Message)
	if len(msgs) != 1 || msgs[0].Content == "" {
		t.Fatalf("expected an error tool message, got %+v", msgs)
	}
}

func TestToolExecReportsUnparseableArguments(t *testing.T) {
	n := NewToolExecNode("router", 6)

	calls := []model.ToolCall{{ID: "1", Name: "get_weather", RawArguments: "still broken"}}
	ch, err := n.Process(context.Background(), nil, nil, graph.Input{Memory: memory.New(), Payload: calls})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	result := <-ch

	msgs := result.Output.([]model.Message)
	if len(msgs) != 1 || len(result.Memory.ToolOutputCache) != 0 {
		t.Fatalf("expected an error message and no invocation recorded, got %+v / %+v", msgs, result.Memory.ToolOutputCache)
	}
}

func TestToolExecSurfacesToolError(t *testing.T) {
	boom := &tool.MockTool{ToolName: "get_weather", Err: errors.New("upstream down")}
	n := NewToolExecNode("router", 6, boom)

	calls := []model.ToolCall{{ID: "1", Name: "get_weather", Input: map[string]interface{}{"location": "nyc"}}}
	ch, err := n.Process(context.Background(), nil, nil, graph.Input{Memory: memory.New(), Payload: calls})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	result := <-ch

	if len(result.Memory.ToolOutputCache) != 1 {
		t.Fatalf("expected the failed call still recorded, got %d", len(result.Memory.ToolOutputCache))
	}
	if _, ok := result.Memory.ToolOutputCache[0].Output["error"]; !ok {
		t.Fatalf("expected recorded output to carry the error, got %+v", result.Memory.ToolOutputCache[0].Output)
	}
}

func TestToolExecEnforcesMaxRounds(t *testing.T) {
	n := NewToolExecNode("router", 1)
	mem := memory.New()
	mem.SetFlag("tool_round_1", true)

	calls := []model.ToolCall{{ID: "1", Name: "get_weather"}}
	_, err := n.Process(context.Background(), nil, nil, graph.Input{Memory: mem, Payload: calls})
	if err == nil {
		t.Fatal("expected max-rounds error")
	}
}
