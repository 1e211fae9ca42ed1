package agentnodes

import (
	"context"
	"fmt"

	"github.com/dshills/reasoning-agent/graph"
	"github.com/dshills/reasoning-agent/graph/model"
	"github.com/dshills/reasoning-agent/graph/tool"
	"github.com/dshills/reasoning-agent/memory"
)

// ToolExecNode runs every tool call requested by the router against a
// registry of tool.Tool implementations, appends the results to Memory as
// RoleTool messages, and routes back to the router so the model can see
// the tool output and decide what to do next.
type ToolExecNode struct {
	graph.BaseNode

	Tools     map[string]tool.Tool
	RouterID  string
	MaxRounds int
}

// NewToolExecNode builds a ToolExecNode from a list of tools, indexed by
// their Name().
func NewToolExecNode(routerID string, maxRounds int, tools ...tool.Tool) *ToolExecNode {
	reg := make(map[string]tool.Tool, len(tools))
	for _, t := range tools {
		reg[t.Name()] = t
	}
	return &ToolExecNode{Tools: reg, RouterID: routerID, MaxRounds: maxRounds}
}

// Process executes each requested tool call in turn, against the incoming
// Input.Payload (the []model.ToolCall the router produced). A single
// result is streamed carrying the tool-result messages to append and the
// updated Memory (with each invocation recorded).
func (n *ToolExecNode) Process(ctx context.Context, ec *graph.ExecContext, messages []model.Message, input graph.Input) (<-chan graph.Result, error) {
	calls, ok := input.Payload.([]model.ToolCall)
	if !ok {
		return nil, fmt.Errorf("toolexec: expected []model.ToolCall payload, got %T", input.Payload)
	}

	mem := input.Memory
	if mem == nil {
		mem = memory.New()
	}

	rounds := 0
	if mem.Flags != nil {
		rounds = toolRounds(mem)
	}
	if n.MaxRounds > 0 && rounds >= n.MaxRounds {
		return nil, fmt.Errorf("toolexec: max tool rounds (%d) exceeded", n.MaxRounds)
	}
	mem.SetFlag(toolRoundFlag(rounds+1), true)

	var resultMessages []model.Message
	for _, call := range calls {
		if call.Input == nil && call.RawArguments != "" {
			resultMessages = append(resultMessages, model.Message{
				Role:       model.RoleTool,
				Content:    fmt.Sprintf("error: could not parse arguments for tool %q", call.Name),
				ToolCallID: call.ID,
			})
			continue
		}

		t, ok := n.Tools[call.Name]
		if !ok {
			resultMessages = append(resultMessages, model.Message{
				Role:       model.RoleTool,
				Content:    fmt.Sprintf("error: unknown tool %q", call.Name),
				ToolCallID: call.ID,
			})
			continue
		}

		out, err := t.Call(ctx, call.Input)
		inv := memory.ToolInvocation{Tool: call.Name, Input: call.Input}
		if err != nil {
			inv.Output = map[string]any{"error": err.Error()}
			mem.AppendTool(inv)
			resultMessages = append(resultMessages, model.Message{
				Role:       model.RoleTool,
				Content:    fmt.Sprintf("error: %v", err),
				ToolCallID: call.ID,
			})
			continue
		}

		inv.Output = out
		mem.AppendTool(inv)
		resultMessages = append(resultMessages, model.Message{
			Role:       model.RoleTool,
			Content:    formatToolOutput(out),
			ToolCallID: call.ID,
		})
	}

	mem.Conversation = append(mem.Conversation, resultMessages...)

	ch := make(chan graph.Result, 1)
	ch <- graph.Result{NodeID: "toolexec", Output: resultMessages, Memory: mem}
	close(ch)
	return ch, nil
}

// GetSuccessors always routes back to the router. The accumulated
// conversation (including the tool results just appended) lives on
// Memory, so the router reads it from there rather than from Payload.
func (n *ToolExecNode) GetSuccessors(last graph.Result) []graph.Successor {
	return []graph.Successor{{
		NodeID: n.RouterID,
		Input:  graph.Input{Memory: last.Memory},
	}}
}

func toolRoundFlag(round int) string {
	return fmt.Sprintf("tool_round_%d", round)
}

func toolRounds(mem *memory.Memory) int {
	n := 0
	for i := 1; ; i++ {
		if !mem.Flag(toolRoundFlag(i)) {
			return n
		}
		n = i
	}
}

func formatToolOutput(out map[string]interface{}) string {
	if out == nil {
		return "(no output)"
	}
	if s, ok := out["body"].(string); ok && len(out) <= 3 {
		return s
	}
	return fmt.Sprintf("%v", out)
}
