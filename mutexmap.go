package swr

import (
	"sync"
)

var _ Backend = &MutexMap{}

// MutexMap is a mutex-protected map backend, the default.
type MutexMap struct {
	mu   sync.RWMutex
	data map[string]Entry
}

// NewMutexMap creates a MutexMap backend.
func NewMutexMap() *MutexMap {
	return &MutexMap{data: map[string]Entry{}}
}

// Load returns entry for a key, false if absent.
func (m *MutexMap) Load(key string) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.data[key]

	return e, ok
}

// Store upserts entry for a key.
func (m *MutexMap) Store(key string, e Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = e
}

// Delete removes entry.
func (m *MutexMap) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
}

// Len returns number of entries.
func (m *MutexMap) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.data)
}

// Walk walks cached entries.
func (m *MutexMap) Walk(walkFn func(key string, e Entry) error) (int, error) {
	m.mu.RLock()
	keys := make([]string, 0, len(m.data))

	for k := range m.data {
		keys = append(keys, k)
	}
	m.mu.RUnlock()

	n := 0

	for _, k := range keys {
		m.mu.RLock()
		e, ok := m.data[k]
		m.mu.RUnlock()

		if !ok {
			continue
		}

		if err := walkFn(k, e); err != nil {
			return n, err
		}

		n++
	}

	return n, nil
}
