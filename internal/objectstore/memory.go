package objectstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-process Store. It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memObject
	writes  map[string]int
}

type memObject struct {
	data        []byte
	contentType string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]memObject),
		writes:  make(map[string]int),
	}
}

// Get returns a copy of the stored bytes.
func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("memory://%s: %w", key, ErrNotFound)
	}
	return append([]byte(nil), obj.data...), nil
}

// Put stores a copy of data.
func (m *MemoryStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memObject{data: append([]byte(nil), data...), contentType: contentType}
	m.writes[key]++
	return nil
}

// List returns the keys under prefix, sorted.
func (m *MemoryStore) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Writes reports how many times key was written.
func (m *MemoryStore) Writes(key string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes[key]
}

// ContentType reports the content type key was last written with.
func (m *MemoryStore) ContentType(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.objects[key].contentType
}
