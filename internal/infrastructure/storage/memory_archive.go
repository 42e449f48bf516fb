package storage

import (
	"context"
	"sync"
)

// MemoryArchive keeps reports in process memory. It backs development setups
// without object storage and the export tests.
type MemoryArchive struct {
	mu      sync.RWMutex
	objects map[string][]byte
	BaseURL string
}

// NewMemoryArchive creates an empty archive
func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{
		objects: make(map[string][]byte),
		BaseURL: "memory://reports",
	}
}

// Archive stores a copy of data and returns a pseudo URL for it
func (m *MemoryArchive) Archive(_ context.Context, key string, data []byte, _ string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), data...)
	return m.BaseURL + "/" + key, nil
}

// Get returns the stored object
func (m *MemoryArchive) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	return data, ok
}
