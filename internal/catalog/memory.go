package catalog

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps entries in process memory
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*Entry)}
}

func (m *MemoryStore) Put(ctx context.Context, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.Name] = copyEntry(e)
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, name string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[name]
	if !ok {
		return nil, ErrNotFound
	}
	return copyEntry(e), nil
}

// List returns all entries sorted by name
func (m *MemoryStore) List(ctx context.Context) ([]*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, copyEntry(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryStore) Delete(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[name]; !ok {
		return ErrNotFound
	}
	delete(m.entries, name)
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}

func copyEntry(e *Entry) *Entry {
	out := *e
	out.Document = append([]byte(nil), e.Document...)
	out.Diagnostics = append(out.Diagnostics[:0:0], e.Diagnostics...)
	return &out
}
