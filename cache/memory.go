package cache

import (
	"context"
	"slices"
	"sync"
	"time"
)

type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

var _ Backend = (*MemoryBackend)(nil)

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[string]Entry)}
}

func (m *MemoryBackend) Load(_ context.Context, key string) (Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key]
	if !ok {
		return Entry{}, false, nil
	}
	e.Results = slices.Clone(e.Results)
	return e, true, nil
}

func (m *MemoryBackend) Store(_ context.Context, key string, e Entry, _ time.Duration) error {
	e.Results = slices.Clone(e.Results)

	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}
