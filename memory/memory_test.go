package memory

import "testing"

// TestCopyIndependence verifies the fan-out invariant: mutating a copy
// handed to one successor must not be observable by a sibling that
// received its own copy from the same parent Memory.
func TestCopyIndependence(t *testing.T) {
	parent := New()
	parent.SetFlag("shared", true)

	childA := parent.Copy()
	childB := parent.Copy()

	childA.SetFlag("x", true)
	childA.AppendTool(ToolInvocation{Tool: "search"})

	if childB.Flag("x") {
		t.Error("mutation on childA leaked into childB")
	}
	if len(childB.ToolOutputCache) != 0 {
		t.Errorf("expected childB tool cache empty, got %d entries", len(childB.ToolOutputCache))
	}
	if !childB.Flag("shared") {
		t.Error("expected childB to retain parent's shared flag")
	}
}

func TestCopyNil(t *testing.T) {
	var m *Memory
	c := m.Copy()
	if c == nil || c.Flags == nil {
		t.Error("Copy of nil Memory should return a usable empty Memory")
	}
}

func TestAppendToolOrder(t *testing.T) {
	m := New()
	m.AppendTool(ToolInvocation{Tool: "a"})
	m.AppendTool(ToolInvocation{Tool: "b"})

	if len(m.ToolOutputCache) != 2 || m.ToolOutputCache[0].Tool != "a" || m.ToolOutputCache[1].Tool != "b" {
		t.Errorf("unexpected tool cache order: %+v", m.ToolOutputCache)
	}
}
