// Package memory provides the traversal-scoped mutable state threaded
// through a single graph traversal.
package memory

import (
	"encoding/json"

	"github.com/dshills/reasoning-agent/graph/model"
)

// ToolInvocation records a single prior tool call, kept in the order the
// tools were invoked so later nodes can summarize what has already
// happened on this traversal.
type ToolInvocation struct {
	Tool        string         `json:"tool"`
	Input       map[string]any `json:"input,omitempty"`
	Output      map[string]any `json:"output,omitempty"`
	Description string         `json:"description,omitempty"`
}

// Memory carries transient traversal state between a node's Process and
// the inputs it hands to its successors. Unlike Session (request-scoped,
// shared across every activation of one HTTP request), Memory must be
// structurally independent between sibling fan-out branches: mutating a
// copy handed to one successor must never be observable by another.
type Memory struct {
	ToolOutputCache []ToolInvocation `json:"tool_output_cache,omitempty"`
	Flags           map[string]bool  `json:"flags,omitempty"`

	// Conversation is the running message transcript for this traversal
	// path, amended by the router (its own reply) and the tool executor
	// (tool results) as the path progresses. A node that wants the full
	// conversation-so-far should prefer this over the fixed messages a
	// traversal started with once it is non-empty.
	Conversation []model.Message `json:"conversation,omitempty"`
}

// New returns an empty Memory ready for the start of a traversal.
func New() *Memory {
	return &Memory{Flags: make(map[string]bool)}
}

// AppendTool records a completed tool invocation.
func (m *Memory) AppendTool(inv ToolInvocation) {
	m.ToolOutputCache = append(m.ToolOutputCache, inv)
}

// Flag reports the value of a named traversal flag (false if unset).
func (m *Memory) Flag(name string) bool {
	if m == nil || m.Flags == nil {
		return false
	}
	return m.Flags[name]
}

// SetFlag sets a named traversal flag.
func (m *Memory) SetFlag(name string, value bool) {
	if m.Flags == nil {
		m.Flags = make(map[string]bool)
	}
	m.Flags[name] = value
}

// Copy returns a structurally independent deep copy of m, suitable for
// handing to a fan-out successor. A JSON round trip is used rather than a
// field-by-field copy so that the tool-output cache's arbitrary
// map[string]any payloads are copied correctly without reflection code
// that would need updating whenever a field is added.
func (m *Memory) Copy() *Memory {
	if m == nil {
		return New()
	}

	data, err := json.Marshal(m)
	if err != nil {
		// Memory is built entirely from JSON-safe values (strings, maps,
		// bools); Marshal cannot fail for well-formed traversal state.
		return &Memory{
			ToolOutputCache: append([]ToolInvocation(nil), m.ToolOutputCache...),
			Flags:           cloneFlags(m.Flags),
			Conversation:    append([]model.Message(nil), m.Conversation...),
		}
	}

	out := New()
	if err := json.Unmarshal(data, out); err != nil {
		return &Memory{
			ToolOutputCache: append([]ToolInvocation(nil), m.ToolOutputCache...),
			Flags:           cloneFlags(m.Flags),
			Conversation:    append([]model.Message(nil), m.Conversation...),
		}
	}
	if out.Flags == nil {
		out.Flags = make(map[string]bool)
	}
	return out
}

func cloneFlags(in map[string]bool) map[string]bool {
	out := make(map[string]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
