package store

import (
	"context"
	"testing"
	"time"
)

func TestMemStoreSaveLoad(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	rec := TaskRecord{
		TaskID:      "task-1",
		Status:      "finished-with-success",
		StartNode:   "router",
		FinalOutput: "hello",
		CostUSD:     0.0042,
		StartedAt:   time.Unix(1000, 0),
		FinishedAt:  time.Unix(1005, 0),
	}
	if err := s.SaveTask(ctx, rec); err != nil {
		t.Fatalf("SaveTask: %v", err)
	}

	got, err := s.LoadTask(ctx, "task-1")
	if err != nil {
		t.Fatalf("LoadTask: %v", err)
	}
	if got != rec {
		t.Errorf("got %+v, want %+v", got, rec)
	}
}

func TestMemStoreNotFound(t *testing.T) {
	s := NewMemStore()
	if _, err := s.LoadTask(context.Background(), "missing"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
