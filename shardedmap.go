package swr

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

const shards = 64

var _ Backend = &ShardedMap{}

type shardedBucket struct {
	sync.RWMutex
	data map[string]Entry
}

// ShardedMap is a sharded map backend for write-heavy concurrent use.
type ShardedMap struct {
	buckets [shards]shardedBucket
}

// NewShardedMap creates a ShardedMap backend.
func NewShardedMap() *ShardedMap {
	m := &ShardedMap{}

	for i := range m.buckets {
		m.buckets[i].data = map[string]Entry{}
	}

	return m
}

func (m *ShardedMap) bucket(key string) *shardedBucket {
	return &m.buckets[xxhash.Sum64String(key)%shards]
}

// Load returns entry for a key, false if absent.
func (m *ShardedMap) Load(key string) (Entry, bool) {
	b := m.bucket(key)

	b.RLock()
	defer b.RUnlock()

	e, ok := b.data[key]

	return e, ok
}

// Store upserts entry for a key.
func (m *ShardedMap) Store(key string, e Entry) {
	b := m.bucket(key)

	b.Lock()
	defer b.Unlock()

	b.data[key] = e
}

// Delete removes entry.
func (m *ShardedMap) Delete(key string) {
	b := m.bucket(key)

	b.Lock()
	defer b.Unlock()

	delete(b.data, key)
}

// Len returns number of entries.
func (m *ShardedMap) Len() int {
	cnt := 0

	for i := range m.buckets {
		b := &m.buckets[i]

		b.RLock()
		cnt += len(b.data)
		b.RUnlock()
	}

	return cnt
}

// Walk walks cached entries.
func (m *ShardedMap) Walk(walkFn func(key string, e Entry) error) (int, error) {
	n := 0

	for i := range m.buckets {
		b := &m.buckets[i]

		b.RLock()
		entries := make(map[string]Entry, len(b.data))

		for k, e := range b.data {
			entries[k] = e
		}
		b.RUnlock()

		for k, e := range entries {
			if err := walkFn(k, e); err != nil {
				return n, err
			}

			n++
		}
	}

	return n, nil
}
