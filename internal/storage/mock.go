package storage

import (
	"context"
	"sync"
)

// MockStore is an in-memory SessionStore for testing.
type MockStore struct {
	mu   sync.RWMutex
	data map[string]string

	// Optional error injection
	SetErr error
	GetErr error
}

var _ SessionStore = (*MockStore)(nil)

// NewMockStore creates a new in-memory store.
func NewMockStore() *MockStore {
	return &MockStore{data: make(map[string]string)}
}

func (m *MockStore) Ping(ctx context.Context) error { return nil }

func (m *MockStore) Close() error { return nil }

func (m *MockStore) Get(ctx context.Context, key string) (string, error) {
	if m.GetErr != nil {
		return "", m.GetErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data[key], nil
}

func (m *MockStore) Set(ctx context.Context, key, value string) error {
	if m.SetErr != nil {
		return m.SetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MockStore) SetMulti(ctx context.Context, entries map[string]string) error {
	if m.SetErr != nil {
		return m.SetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, value := range entries {
		m.data[key] = value
	}
	return nil
}

func (m *MockStore) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *MockStore) Exists(ctx context.Context, keys ...string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, key := range keys {
		if _, ok := m.data[key]; ok {
			return true, nil
		}
	}
	return false, nil
}

// Len reports the number of stored keys.
func (m *MockStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
