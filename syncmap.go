package swr

import (
	"github.com/puzpuzpuz/xsync"
)

var _ Backend = &SyncMap{}

// SyncMap is a lock-free map backend.
type SyncMap struct {
	data *xsync.Map
}

// NewSyncMap creates a SyncMap backend.
func NewSyncMap() *SyncMap {
	return &SyncMap{data: xsync.NewMap()}
}

// Load returns entry for a key, false if absent.
func (m *SyncMap) Load(key string) (Entry, bool) {
	v, ok := m.data.Load(key)
	if !ok {
		return Entry{}, false
	}

	return v.(Entry), true
}

// Store upserts entry for a key.
func (m *SyncMap) Store(key string, e Entry) {
	m.data.Store(key, e)
}

// Delete removes entry.
func (m *SyncMap) Delete(key string) {
	m.data.Delete(key)
}

// Len returns number of entries.
func (m *SyncMap) Len() int {
	cnt := 0

	m.data.Range(func(_ string, _ interface{}) bool {
		cnt++

		return true
	})

	return cnt
}

// Walk walks cached entries.
func (m *SyncMap) Walk(walkFn func(key string, e Entry) error) (int, error) {
	n := 0

	var walkErr error

	m.data.Range(func(key string, value interface{}) bool {
		if err := walkFn(key, value.(Entry)); err != nil {
			walkErr = err

			return false
		}

		n++

		return true
	})

	return n, walkErr
}
