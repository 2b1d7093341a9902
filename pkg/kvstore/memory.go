package kvstore

import (
	"context"
	"sync"

	"finflow-invest/pkg/db"
)

// Memory is a thread-safe in-memory Store. Units of work are applied under a
// single write lock, so a commit is all-or-nothing.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(v), nil
}

func (m *Memory) List(_ context.Context, prefix string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, 0)
	for k, v := range m.data {
		if hasPrefix(k, prefix) {
			out = append(out, Entry{Key: k, Value: clone(v)})
		}
	}
	sortEntries(out)
	return out, nil
}

func (m *Memory) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = clone(value)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// BeginTx starts a staged unit of work over the map.
func (m *Memory) BeginTx(ctx context.Context) (db.TxController, error) {
	return newStagedTx(ctx, m, m.apply), nil
}

func (m *Memory) apply(_ context.Context, muts []mutation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mu := range muts {
		if mu.deleted {
			delete(m.data, mu.key)
			continue
		}
		m.data[mu.key] = mu.value
	}
	return nil
}

func (m *Memory) Close() error { return nil }
