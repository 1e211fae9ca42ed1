package agentnodes

import (
	"context"
	"testing"

	"github.com/dshills/reasoning-agent/graph"
	"github.com/dshills/reasoning-agent/memory"
)

func TestCustomerResponsePassesThroughStringPayload(t *testing.T) {
	n := &CustomerResponseNode{}
	mem := memory.New()

	ch, err := n.Process(context.Background(), nil, nil, graph.Input{Memory: mem, Payload: "all done"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	result := <-ch

	if result.Output.(string) != "all done" {
		t.Fatalf("expected payload passed through, got %v", result.Output)
	}
	if result.Reason != "final_response" {
		t.Fatalf("expected reason final_response, got %q", result.Reason)
	}
	if !result.Memory.Flag("task-description-to-customer") {
		t.Fatal("expected task-description-to-customer flag set")
	}
	if succ := n.GetSuccessors(result); succ != nil {
		t.Fatalf("expected a terminal node, got %+v", succ)
	}
}

func TestCustomerResponseStringifiesNonStringPayload(t *testing.T) {
	n := &CustomerResponseNode{}

	ch, err := n.Process(context.Background(), nil, nil, graph.Input{Memory: memory.New(), Payload: map[string]int{"count": 3}})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	result := <-ch

	if result.Output.(string) == "" {
		t.Fatal("expected a stringified payload, got empty output")
	}
}

func TestCustomerResponseAllocatesMemoryWhenNil(t *testing.T) {
	n := &CustomerResponseNode{}

	ch, err := n.Process(context.Background(), nil, nil, graph.Input{Payload: "hi"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	result := <-ch

	if result.Memory == nil || !result.Memory.Flag("task-description-to-customer") {
		t.Fatal("expected a fresh Memory with the customer-facing flag set")
	}
}
