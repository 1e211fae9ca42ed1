package httpapi

import (
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/dshills/reasoning-agent/agentnodes"
	"github.com/dshills/reasoning-agent/graph"
	"github.com/dshills/reasoning-agent/memory"
	"github.com/dshills/reasoning-agent/session"
)

// Frame is the outbound SSE wire shape (§6's "normal result" frame
// shape). Exactly one of Error or Node is set.
type Frame struct {
	Error    string         `json:"error,omitempty"`
	Messages []WireMessage  `json:"messages,omitempty"`
	Session  map[string]any `json:"session,omitempty"`
	Node     string         `json:"node,omitempty"`
	Output   any            `json:"output,omitempty"`
	Reason   string         `json:"reason,omitempty"`
}

// WireMessage is a synthesized message embedded in a Frame — a summary of
// what just happened, not the full conversation.
type WireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// FormatFrame turns one graph.Result into its outbound Frame: deterministic
// and stateless, exactly as the result formatter is specified to be. An
// error Result produces the terminal {"error": "..."} shape; anything
// else injects the current Session snapshot, synthesizes a tool-cache
// summary message when Memory carries one, and converts HTML output
// fields to Markdown before the prose header a customer-facing frame
// gets.
func FormatFrame(r graph.Result, sess *session.Session) Frame {
	if r.Err != nil {
		return Frame{Error: r.Err.Error()}
	}

	f := Frame{
		Node:   r.NodeID,
		Output: r.Output,
		Reason: r.Reason,
	}
	if sess != nil {
		f.Session = sess.Snapshot()
	}

	f.Messages = append(f.Messages, toolCacheSummary(r.Memory)...)

	f.Output = convertHTMLOutput(f.Output)

	if r.Memory.Flag("task-description-to-customer") {
		if text, ok := f.Output.(string); ok {
			f.Output = prependProseHeader(text)
			f.Messages = append(f.Messages, WireMessage{Role: "assistant", Content: text})
		}
	}

	return f
}

// toolCacheSummary folds the entire tool-output cache recorded in mem
// into a single synthesized assistant message, one bullet per
// invocation, in call order. Returns nil when mem carries no tool
// invocation.
func toolCacheSummary(mem *memory.Memory) []WireMessage {
	if mem == nil || len(mem.ToolOutputCache) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString("### Tools Used Before Responding to Customer\n\n")
	for _, inv := range mem.ToolOutputCache {
		desc := inv.Description
		if desc == "" {
			desc = fmt.Sprintf("%v -> %v", inv.Input, inv.Output)
		}
		fmt.Fprintf(&b, "* %s: %s\n", inv.Tool, desc)
	}
	return []WireMessage{{Role: "assistant", Content: b.String()}}
}

// convertHTMLOutput rewrites a widget's HTML "details" fields to
// Markdown in place, and converts a bare HTML string output directly.
func convertHTMLOutput(output any) any {
	switch v := output.(type) {
	case string:
		if looksLikeHTML(v) {
			if md, err := htmltomarkdown.ConvertString(v); err == nil {
				return md
			}
		}
		return v
	case agentnodes.WidgetOutput:
		for k, val := range v.Details {
			if s, ok := val.(string); ok && looksLikeHTML(s) {
				if md, err := htmltomarkdown.ConvertString(s); err == nil {
					v.Details[k] = md
				}
			}
		}
		return v
	default:
		return output
	}
}

func looksLikeHTML(s string) bool {
	trimmed := strings.TrimSpace(s)
	return strings.HasPrefix(trimmed, "<") && strings.HasSuffix(trimmed, ">")
}

func prependProseHeader(text string) string {
	return "Here's what I found:\n\n" + text
}
