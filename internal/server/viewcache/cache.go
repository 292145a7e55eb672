// Package viewcache caches the board and dashboard projections between
// task mutations. Every mutation invalidates the whole cache; entries are
// rebuilt from a fresh snapshot on the next read.
package viewcache

import (
	"context"
	"encoding/json"
	"sync"
)

// Cache stores JSON-encodable views by key.
//
// Get returns the generation it observed. A view built after that Get is
// written back with Set under the same generation; if Invalidate ran in
// between, the write is discarded so a snapshot taken before a mutation
// never outlives it.
type Cache interface {
	// Get decodes the cached value for key into dst and reports whether it
	// was present.
	Get(ctx context.Context, key string, dst any) (gen int64, ok bool, err error)
	Set(ctx context.Context, key string, gen int64, value any) error
	// Invalidate drops every cached view.
	Invalidate(ctx context.Context) error
}

// Nop caches nothing.
type Nop struct{}

func (Nop) Get(context.Context, string, any) (int64, bool, error) { return 0, false, nil }
func (Nop) Set(context.Context, string, int64, any) error         { return nil }
func (Nop) Invalidate(context.Context) error                      { return nil }

// Memory is a process-local Cache.
type Memory struct {
	mu    sync.RWMutex
	gen   int64
	items map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string, dst any) (int64, bool, error) {
	m.mu.RLock()
	gen := m.gen
	b, ok := m.items[key]
	m.mu.RUnlock()
	if !ok {
		return gen, false, nil
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return gen, false, err
	}
	return gen, true, nil
}

func (m *Memory) Set(_ context.Context, key string, gen int64, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		return nil
	}
	m.items[key] = b
	return nil
}

func (m *Memory) Invalidate(context.Context) error {
	m.mu.Lock()
	m.gen++
	m.items = make(map[string][]byte)
	m.mu.Unlock()
	return nil
}

// Len reports the number of cached entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
