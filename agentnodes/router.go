// Package agentnodes provides the concrete Node implementations a
// reasoning-agent graph is built from: a tool-choice router, a tool
// executor, and the terminal response formatters.
package agentnodes

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonrepair"

	"github.com/dshills/reasoning-agent/graph"
	"github.com/dshills/reasoning-agent/graph/model"
	"github.com/dshills/reasoning-agent/memory"
)

// RouterNode asks the configured ChatModel whether the conversation needs
// a tool call or is ready for a final response, and fans out accordingly:
// a result carrying tool calls routes to the tool-executor node; a result
// with only text routes to the response node.
type RouterNode struct {
	graph.BaseNode

	Model        model.ChatModel
	ModelName    string
	Tools        []model.ToolSpec
	ToolNodeID   string
	ResponseNode string
}

// Process sends the conversation to the model and streams back a single
// Result carrying the raw ChatOut. The conversation sent is
// input.Memory.Conversation once a tool round has populated it;
// otherwise it is the messages the traversal started with.
func (r *RouterNode) Process(ctx context.Context, ec *graph.ExecContext, messages []model.Message, input graph.Input) (<-chan graph.Result, error) {
	mem := input.Memory
	if mem == nil {
		mem = memory.New()
	}

	conversation := messages
	if len(mem.Conversation) > 0 {
		conversation = mem.Conversation
	}

	out, err := r.Model.Chat(ctx, conversation, r.Tools)
	if err != nil {
		return nil, fmt.Errorf("router: chat: %w", err)
	}

	if ec != nil && ec.Cost != nil {
		ec.Cost.RecordLLMCall(r.ModelName, out.Usage.InputTokens, out.Usage.OutputTokens, "router")
	}

	out.ToolCalls = repairToolCallInputs(out.ToolCalls)

	mem.Conversation = append(append([]model.Message(nil), conversation...), model.Message{
		Role:    model.RoleAssistant,
		Content: out.Text,
	})

	ch := make(chan graph.Result, 1)
	ch <- graph.Result{
		NodeID: "router",
		Output: out,
		Reason: routeReason(out),
		Memory: mem,
	}
	close(ch)
	return ch, nil
}

// GetSuccessors routes to ToolNodeID when the model requested tool calls,
// otherwise to ResponseNode. The tool executor receives the tool calls as
// its Input.Payload; the response node receives the model's text.
func (r *RouterNode) GetSuccessors(last graph.Result) []graph.Successor {
	out, ok := last.Output.(model.ChatOut)
	if !ok {
		return nil
	}

	if len(out.ToolCalls) > 0 {
		return []graph.Successor{{
			NodeID: r.ToolNodeID,
			Input:  graph.Input{Memory: last.Memory, Payload: out.ToolCalls},
		}}
	}

	if r.ResponseNode == "" {
		return nil
	}
	return []graph.Successor{{
		NodeID: r.ResponseNode,
		Input:  graph.Input{Memory: last.Memory, Payload: out.Text},
	}}
}

func routeReason(out model.ChatOut) string {
	if len(out.ToolCalls) > 0 {
		return "tool_calls_requested"
	}
	return "final_text"
}

// repairToolCallInputs attempts jsonrepair on every call whose adapter
// could not parse its arguments as JSON (Input nil, RawArguments set).
// A call that still fails to parse after repair is left with a nil
// Input; ToolExecNode reports that as an unusable call rather than
// executing it against a bogus empty map.
func repairToolCallInputs(calls []model.ToolCall) []model.ToolCall {
	for i, c := range calls {
		if c.Input != nil || c.RawArguments == "" {
			continue
		}
		repaired, err := jsonrepair.JSONRepair(c.RawArguments)
		if err != nil {
			continue
		}
		var parsed map[string]interface{}
		if err := json.Unmarshal([]byte(repaired), &parsed); err != nil {
			continue
		}
		calls[i].Input = parsed
		calls[i].RawArguments = ""
	}
	return calls
}
