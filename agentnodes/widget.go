package agentnodes

import (
	"context"

	"github.com/dshills/reasoning-agent/graph"
	"github.com/dshills/reasoning-agent/graph/model"
	"github.com/dshills/reasoning-agent/memory"
)

// WidgetOutput is the structured payload a WidgetNode produces instead of
// plain text, matching the wire shape a "widget" result uses in an
// outbound frame.
type WidgetOutput struct {
	Type           string         `json:"type"`
	Details        map[string]any `json:"details"`
	AvailableTools []string       `json:"available-tools,omitempty"`
}

// WidgetNode is a terminal node that surfaces a structured UI component
// (e.g. a product card, a weather tile) instead of narrated prose. It
// reads the latest tool invocation's output straight from Memory and
// wraps it for the client; a widget's "details" may contain raw HTML,
// which the result formatter converts to Markdown before delivery.
type WidgetNode struct {
	graph.BaseNode

	WidgetType     string
	AvailableTools []string
}

// Process builds a WidgetOutput from the most recent tool invocation in
// Memory.ToolOutputCache, falling back to input.Payload if no tool has
// run on this path yet.
func (w *WidgetNode) Process(ctx context.Context, ec *graph.ExecContext, messages []model.Message, input graph.Input) (<-chan graph.Result, error) {
	mem := input.Memory
	if mem == nil {
		mem = memory.New()
	}
	mem.SetFlag("task-description-to-customer", true)

	details := map[string]any{}
	if len(mem.ToolOutputCache) > 0 {
		details = mem.ToolOutputCache[len(mem.ToolOutputCache)-1].Output
	} else if payload, ok := input.Payload.(map[string]any); ok {
		details = payload
	}

	out := WidgetOutput{Type: w.WidgetType, Details: details, AvailableTools: w.AvailableTools}

	ch := make(chan graph.Result, 1)
	ch <- graph.Result{NodeID: "widget", Output: out, Reason: "widget_rendered", Memory: mem}
	close(ch)
	return ch, nil
}

// GetSuccessors is always empty: a widget is a terminal frame.
func (w *WidgetNode) GetSuccessors(last graph.Result) []graph.Successor {
	return nil
}
