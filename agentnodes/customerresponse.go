package agentnodes

import (
	"context"
	"fmt"

	"github.com/dshills/reasoning-agent/graph"
	"github.com/dshills/reasoning-agent/graph/model"
	"github.com/dshills/reasoning-agent/memory"
)

// CustomerResponseNode is a terminal text node: it takes whatever text
// its predecessor produced (the router's direct answer, or nlconvert's
// narration), marks Memory so the result formatter knows this frame is
// customer-facing, and ends the traversal.
type CustomerResponseNode struct {
	graph.BaseNode
}

// Process packages input.Payload as the final text output. A string
// payload passes through; anything else is rendered with fmt.Sprintf so
// the node never fails outright on an unexpected upstream shape.
func (c *CustomerResponseNode) Process(ctx context.Context, ec *graph.ExecContext, messages []model.Message, input graph.Input) (<-chan graph.Result, error) {
	mem := input.Memory
	if mem == nil {
		mem = memory.New()
	}
	mem.SetFlag("task-description-to-customer", true)

	text, ok := input.Payload.(string)
	if !ok {
		text = fmt.Sprintf("%v", input.Payload)
	}

	ch := make(chan graph.Result, 1)
	ch <- graph.Result{NodeID: "customerresponse", Output: text, Reason: "final_response", Memory: mem}
	close(ch)
	return ch, nil
}

// GetSuccessors is always empty: this node is terminal.
func (c *CustomerResponseNode) GetSuccessors(last graph.Result) []graph.Successor {
	return nil
}
