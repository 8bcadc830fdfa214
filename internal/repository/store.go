// Package repository holds the history stores a widget session persists its
// thread to. Every store keeps opaque bytes under a string key; encoding is
// the caller's concern.
package repository

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// ErrNotFound is returned by Load when nothing is stored under the key.
var ErrNotFound = errors.New("repository: key not found")

// Store is the persistence port used by widget sessions.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
}

func validateKey(op, key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("repository: " + op + ": key is required")
	}
	return nil
}

// MemoryStore keeps values in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

func (m *MemoryStore) Load(_ context.Context, key string) ([]byte, error) {
	if err := validateKey("Load", key); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryStore) Save(_ context.Context, key string, value []byte) error {
	if err := validateKey("Save", key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = append([]byte(nil), value...)
	return nil
}
