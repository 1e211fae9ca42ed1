package agentnodes

import (
	"context"
	"fmt"

	"github.com/dshills/reasoning-agent/graph"
	"github.com/dshills/reasoning-agent/graph/model"
	"github.com/dshills/reasoning-agent/memory"
)

// NLConvertNode turns a structured, machine-shaped payload (typically the
// last tool result sitting in Memory.ToolOutputCache) into a natural
// language paragraph via the configured ChatModel, then hands off to a
// terminal response node. It sits between ToolExecNode and
// CustomerResponseNode when a tool's raw output is too mechanical to show
// a customer directly.
type NLConvertNode struct {
	graph.BaseNode

	Model        model.ChatModel
	ModelName    string
	Prompt       string
	ResponseNode string
}

// Process asks the model to narrate the latest tool invocation recorded
// in Memory; if none is present it narrates input.Payload directly.
func (n *NLConvertNode) Process(ctx context.Context, ec *graph.ExecContext, messages []model.Message, input graph.Input) (<-chan graph.Result, error) {
	mem := input.Memory
	if mem == nil {
		mem = memory.New()
	}

	subject := input.Payload
	if len(mem.ToolOutputCache) > 0 {
		subject = mem.ToolOutputCache[len(mem.ToolOutputCache)-1]
	}

	prompt := n.Prompt
	if prompt == "" {
		prompt = "Summarize the following result for a customer in one or two plain sentences:"
	}

	convo := append(append([]model.Message(nil), messages...), model.Message{
		Role:    model.RoleUser,
		Content: fmt.Sprintf("%s\n\n%v", prompt, subject),
	})

	out, err := n.Model.Chat(ctx, convo, nil)
	if err != nil {
		return nil, fmt.Errorf("nlconvert: chat: %w", err)
	}

	if ec != nil && ec.Cost != nil {
		ec.Cost.RecordLLMCall(n.ModelName, out.Usage.InputTokens, out.Usage.OutputTokens, "nlconvert")
	}

	ch := make(chan graph.Result, 1)
	ch <- graph.Result{NodeID: "nlconvert", Output: out.Text, Reason: "narrated", Memory: mem}
	close(ch)
	return ch, nil
}

// GetSuccessors always routes to ResponseNode with the narrated text as
// the payload.
func (n *NLConvertNode) GetSuccessors(last graph.Result) []graph.Successor {
	if n.ResponseNode == "" {
		return nil
	}
	text, _ := last.Output.(string)
	return []graph.Successor{{
		NodeID: n.ResponseNode,
		Input:  graph.Input{Memory: last.Memory, Payload: text},
	}}
}
