package storage

import (
	"context"
	"sync"
)

// MemoryStorage keeps values in process memory.
// It is the fallback used when no durable backend is reachable.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (m *MemoryStorage) Read(ctx context.Context, namespace string) (string, bool, error) {
	if namespace == "" {
		return "", false, ErrEmptyNamespace
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[namespace]
	return v, ok, nil
}

func (m *MemoryStorage) Write(ctx context.Context, namespace, value string) error {
	if namespace == "" {
		return ErrEmptyNamespace
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[namespace] = value
	return nil
}

func (m *MemoryStorage) Remove(ctx context.Context, namespace string) error {
	if namespace == "" {
		return ErrEmptyNamespace
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, namespace)
	return nil
}

// Len returns the number of stored namespaces.
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}
