package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemoryBackend is an in-memory implementation of StorageBackend for testing.
type MemoryBackend struct {
	mu    sync.RWMutex
	edits map[string]*EditRecord
}

// NewMemoryBackend creates a new in-memory storage backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{edits: make(map[string]*EditRecord)}
}

// Initialize implements StorageBackend.
func (m *MemoryBackend) Initialize(path string, readOnly bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.edits == nil {
		m.edits = make(map[string]*EditRecord)
	}
	return nil
}

// Close implements StorageBackend.
func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edits = nil
	return nil
}

// SaveEdit implements StorageBackend.
func (m *MemoryBackend) SaveEdit(ctx context.Context, rec *EditRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prepare(rec)
	m.edits[rec.ID] = clone(rec)
	return nil
}

// GetEdit implements StorageBackend.
func (m *MemoryBackend) GetEdit(ctx context.Context, id string) (*EditRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.edits[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEditNotFound, id)
	}
	return clone(rec), nil
}

// ListEdits implements StorageBackend.
func (m *MemoryBackend) ListEdits(ctx context.Context, source string) ([]*EditRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var recs []*EditRecord
	for _, rec := range m.edits {
		if source == "" || rec.Source == source {
			recs = append(recs, clone(rec))
		}
	}
	newestFirst(recs)
	return recs, nil
}

// DeleteEdits implements StorageBackend.
func (m *MemoryBackend) DeleteEdits(ctx context.Context, source string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for id, rec := range m.edits {
		if rec.Source == source {
			delete(m.edits, id)
			count++
		}
	}
	return count, nil
}
