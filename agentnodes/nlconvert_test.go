package agentnodes

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dshills/reasoning-agent/graph"
	"github.com/dshills/reasoning-agent/graph/model"
	"github.com/dshills/reasoning-agent/memory"
)

func TestNLConvertNarratesLatestToolInvocation(t *testing.T) {
	mock := &model.MockChatModel{Responses: []model.ChatOut{{Text: "It's 72 degrees in NYC."}}}
	n := &NLConvertNode{Model: mock, ResponseNode: "customerresponse"}

	mem := memory.New()
	mem.AppendTool(memory.ToolInvocation{Tool: "get_weather", Output: map[string]any{"temp": 72}})

	ch, err := n.Process(context.Background(), nil, nil, graph.Input{Memory: mem})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	result := <-ch

	if result.Output.(string) != "It's 72 degrees in NYC." {
		t.Fatalf("expected narrated text, got %v", result.Output)
	}
	if len(mock.Calls) != 1 {
		t.Fatalf("expected one model call, got %d", len(mock.Calls))
	}
	prompt := mock.Calls[0].Messages[len(mock.Calls[0].Messages)-1].Content
	if !strings.Contains(prompt, "temp") {
		t.Fatalf("expected prompt to mention the tool output, got %q", prompt)
	}

	succ := n.GetSuccessors(result)
	if len(succ) != 1 || succ[0].NodeID != "customerresponse" {
		t.Fatalf("expected routing to customerresponse, got %+v", succ)
	}
	if succ[0].Input.Payload.(string) != "It's 72 degrees in NYC." {
		t.Fatalf("expected narrated text forwarded as payload, got %v", succ[0].Input.Payload)
	}
}

func TestNLConvertFallsBackToPayloadWithoutToolHistory(t *testing.T) {
	mock := &model.MockChatModel{Responses: []model.ChatOut{{Text: "summary"}}}
	n := &NLConvertNode{Model: mock}

	ch, err := n.Process(context.Background(), nil, nil, graph.Input{Memory: memory.New(), Payload: "raw data"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	<-ch

	prompt := mock.Calls[0].Messages[len(mock.Calls[0].Messages)-1].Content
	if !strings.Contains(prompt, "raw data") {
		t.Fatalf("expected prompt to mention the payload, got %q", prompt)
	}
}

func TestNLConvertSurfacesModelError(t *testing.T) {
	mock := &model.MockChatModel{Err: errors.New("upstream down")}
	n := &NLConvertNode{Model: mock}

	_, err := n.Process(context.Background(), nil, nil, graph.Input{Memory: memory.New()})
	if err == nil {
		t.Fatal("expected an error from the model")
	}
}
