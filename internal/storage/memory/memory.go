// internal/storage/memory/memory.go
package memory

import (
	"fmt"
	"io/fs"
	"sync"
)

// Backend keeps values in a map. Nothing survives Close; it backs tests and
// throwaway sessions.
type Backend struct {
	values map[string][]byte
	saves  uint
	mu     sync.RWMutex
}

// New creates a new memory backend
func New() *Backend {
	return &Backend{
		values: make(map[string][]byte),
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// Load returns a copy of the value stored under key.
func (b *Backend) Load(key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	v, ok := b.values[key]
	if !ok {
		return nil, fmt.Errorf("load %q: %w", key, fs.ErrNotExist)
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Save overwrites the value stored under key.
func (b *Backend) Save(key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	v := make([]byte, len(value))
	copy(v, value)
	b.values[key] = v
	b.saves++
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (b *Backend) Delete(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.values, key)
	return nil
}

// Saves returns how many times Save has been called.
func (b *Backend) Saves() uint {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.saves
}
