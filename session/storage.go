package session

import (
	"context"
	"sync"
)

// Keys every scope holds. The profile is stored as JSON.
const (
	KeyToken = "auth_token"
	KeyUser  = "auth_user"
	KeyRole  = "auth_role"
)

var storageKeys = []string{KeyToken, KeyUser, KeyRole}

// Storage is a string key/value primitive backing one scope. Get returns "" for a missing key.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Rotator is implemented by storages that key their entries by an id the browser holds.
// Save rotates before writing so a session never lands under an id the browser arrived with.
type Rotator interface {
	Rotate(ctx context.Context) error
}

// MemoryStorage is an in-memory Storage
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ Storage = (*MemoryStorage)(nil)

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (m *MemoryStorage) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[key], nil
}

func (m *MemoryStorage) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStorage) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Len is the number of stored entries
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}
