package storage

import (
	"context"
	"sync"
)

type memoryStore struct {
	mux    *sync.RWMutex
	values map[string]string
}

// NewMemoryStore returns a Store backed by a plain map. Used in tests
// and as the default when no store is configured.
func NewMemoryStore() Store {
	return &memoryStore{
		mux:    &sync.RWMutex{},
		values: make(map[string]string),
	}
}

func (m *memoryStore) Get(ctx context.Context, key string) (string, error) {
	m.mux.RLock()
	defer m.mux.RUnlock()
	return m.values[key], nil
}

func (m *memoryStore) Set(ctx context.Context, key, value string) error {
	m.mux.Lock()
	defer m.mux.Unlock()
	m.values[key] = value
	return nil
}

func (m *memoryStore) Delete(ctx context.Context, key string) error {
	m.mux.Lock()
	defer m.mux.Unlock()
	delete(m.values, key)
	return nil
}
