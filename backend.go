package swr

import (
	"time"
)

// Entry is a cached state of a key.
//
// Data and Err are independent slots: a failed revalidation keeps the last
// good Data next to Err, a successful one clears Err.
type Entry struct {
	Data      interface{}
	Err       error
	UpdatedAt time.Time
}

// Backend is a map of cache entries, safe for concurrent use.
type Backend interface {
	// Load returns entry for a key, false if absent.
	Load(key string) (Entry, bool)

	// Store upserts entry for a key.
	Store(key string, e Entry)

	// Delete removes entry.
	Delete(key string)

	// Len returns number of entries.
	Len() int

	// Walk calls function for every entry and fails on first error returned
	// by that function.
	//
	// Count of processed entries is returned.
	Walk(walkFn func(key string, e Entry) error) (int, error)
}
