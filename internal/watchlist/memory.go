package watchlist

import (
	"context"
	"sync"
)

type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (m *MemoryStore) Put(_ context.Context, e Entry) error {
	m.mu.Lock()
	m.entries[e.ID] = e
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[id]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

func (m *MemoryStore) List(_ context.Context) ([]Entry, error) {
	m.mu.RLock()
	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	m.mu.RUnlock()

	SortStable(out)
	return out, nil
}

func (m *MemoryStore) ListByUser(ctx context.Context, userID string) ([]Entry, error) {
	all, _ := m.List(ctx)
	out := all[:0]
	for _, e := range all {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MemoryStore) Update(_ context.Context, id string, fn func(*Entry) error) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.entries[id]
	if !ok {
		return Entry{}, ErrNotFound
	}
	next := cur
	if err := fn(&next); err != nil {
		return Entry{}, err
	}
	cur = applyCheck(cur, next)
	m.entries[id] = cur
	return cur, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()
	return nil
}
