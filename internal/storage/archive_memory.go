package storage

import (
	"context"
	"slices"
	"sync"
)

// MemoryArchive is a simple map-backed archive used for testing.
type MemoryArchive struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte // package -> id -> payload
}

// NewMemoryArchive constructs an in-memory archive.
func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{data: make(map[string]map[string][]byte)}
}

func (m *MemoryArchive) Store(ctx context.Context, pkg, id string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[pkg]; !ok {
		m.data[pkg] = make(map[string][]byte)
	}
	m.data[pkg][id] = append([]byte{}, data...)
	return nil
}

func (m *MemoryArchive) Fetch(ctx context.Context, pkg, id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	payload, ok := m.data[pkg][id]
	if !ok {
		return nil, &NotFoundError{Resource: "archive", Key: id}
	}
	return append([]byte{}, payload...), nil
}

func (m *MemoryArchive) List(ctx context.Context, pkg string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.data[pkg]))
	for id := range m.data[pkg] {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func (m *MemoryArchive) Close() error { return nil }
