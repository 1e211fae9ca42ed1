package kvstore

import (
	"context"
	"sync"
)

// MemClient is an in-process Client, safe for concurrent use. It backs
// local development (when REDIS_HOST is unset) and unit tests: a map
// guarded by a RWMutex, with a constructor required to initialize it.
type MemClient struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemClient returns a ready-to-use in-process Client.
func NewMemClient() *MemClient {
	return &MemClient{data: make(map[string]string)}
}

// Set implements Client.
func (m *MemClient) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// Get implements Client.
func (m *MemClient) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}
