package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store. It backs the settings singleton when no
// durable store was configured, and is used throughout the tests.
type MemoryStore struct {
	mu    sync.RWMutex
	state map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: make(map[string]string)}
}

func (m *MemoryStore) GetState(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	val, ok := m.state[key]
	return val, ok, nil
}

func (m *MemoryStore) SetState(_ context.Context, key, val string) error {
	m.mu.Lock()
	m.state[key] = val
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) DeleteState(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.state, key)
	m.mu.Unlock()
	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }
