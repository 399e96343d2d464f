package swr

import (
	"context"
	"sync"
	"time"

	"github.com/bool64/ctxd"
	"github.com/bool64/stats"
)

// StoreConfig controls a store instance.
type StoreConfig struct {
	// Name is store instance name, used in stats and logging.
	Name string

	// Backend is an entry map, MutexMap by default.
	Backend Backend

	// Logger is an instance of contextualized logger, can be nil.
	Logger ctxd.Logger

	// Stats is metrics collector, can be nil.
	Stats stats.Tracker
}

// subscriber receives store notifications for one key.
//
// Entry and validating notifications land in separate ordered cells, so
// concurrent deliveries cannot apply out of store write order.
type subscriber struct {
	key          string
	onWrite      func(e Entry)
	onValidating func(validating bool)

	writes     orderedCell
	validating orderedCell
}

func (sub *subscriber) notifyWrite(e Entry, seq uint64) {
	sub.writes.apply(e, seq, func(v interface{}) {
		sub.onWrite(v.(Entry))
	})
}

func (sub *subscriber) notifyValidating(validating bool, seq uint64) {
	sub.validating.apply(validating, seq, func(v interface{}) {
		sub.onValidating(v.(bool))
	})
}

// orderedCell applies sequence-stamped notifications to one subscriber.
//
// Anything older than the last applied sequence is dropped, and a burst of
// concurrent deliveries conflates to the newest state, so the subscriber
// always converges on what the store holds. A value arriving during an
// active delivery is taken over by the delivering goroutine, which keeps
// re-entrant notifications deadlock-free.
type orderedCell struct {
	mu         sync.Mutex
	seq        uint64
	pending    interface{}
	hasPending bool
	delivering bool
}

func (c *orderedCell) apply(v interface{}, seq uint64, deliver func(v interface{})) {
	c.mu.Lock()

	if seq <= c.seq {
		c.mu.Unlock()

		return
	}

	c.seq = seq
	c.pending, c.hasPending = v, true

	if c.delivering {
		c.mu.Unlock()

		return
	}

	c.delivering = true

	for c.hasPending {
		next := c.pending
		c.pending, c.hasPending = nil, false
		c.mu.Unlock()

		deliver(next)

		c.mu.Lock()
	}

	c.delivering = false
	c.mu.Unlock()
}

// Store is a process-wide cache of key states shared by all subscriptions.
//
// Entry mutation, subscriber-list snapshot and sequence stamping happen
// atomically, notifications are applied per subscriber in stamp order.
type Store struct {
	mu         sync.Mutex
	backend    Backend
	subs       map[string][]*subscriber
	flights    map[string]*Flight
	validating map[string]int
	seqs       map[string]uint64

	config StoreConfig
	log    ctxd.Logger
	stat   stats.Tracker
}

// NewStore creates a store instance with optional configuration.
func NewStore(cfg ...StoreConfig) *Store {
	config := StoreConfig{}

	if len(cfg) >= 1 {
		config = cfg[0]
	}

	s := &Store{
		backend:    config.Backend,
		subs:       map[string][]*subscriber{},
		flights:    map[string]*Flight{},
		validating: map[string]int{},
		seqs:       map[string]uint64{},
		config:     config,
		log:        config.Logger,
		stat:       config.Stats,
	}

	if s.backend == nil {
		s.backend = NewMutexMap()
	}

	if s.log == nil {
		s.log = ctxd.NoOpLogger{}
	}

	if s.stat == nil {
		s.stat = stats.NoOp{}
	}

	return s
}

// nextSeq advances the notification sequence of a key, caller must hold s.mu.
func (s *Store) nextSeq(key string) uint64 {
	s.seqs[key]++

	return s.seqs[key]
}

// Read returns the current entry for a key, zero Entry if absent.
func (s *Store) Read(ctx context.Context, key string) Entry {
	e, ok := s.backend.Load(key)
	if !ok {
		s.log.Debug(ctx, "cache miss", "name", s.config.Name, "key", key)
		s.stat.Add(ctx, MetricMiss, 1, "name", s.config.Name)

		return Entry{}
	}

	s.log.Debug(ctx, "cache hit", "name", s.config.Name, "key", key)
	s.stat.Add(ctx, MetricHit, 1, "name", s.config.Name)

	return e
}

// Write stores a successful value for a key, clearing the error slot, and
// notifies subscribers of the key synchronously in write order.
func (s *Store) Write(ctx context.Context, key string, data interface{}) {
	s.mu.Lock()
	e := Entry{Data: data, UpdatedAt: time.Now()}
	s.backend.Store(key, e)
	seq := s.nextSeq(key)
	subs := append([]*subscriber(nil), s.subs[key]...)
	s.mu.Unlock()

	s.log.Debug(ctx, "wrote to cache", "name", s.config.Name, "key", key, "value", data)
	s.stat.Add(ctx, MetricWrite, 1, "name", s.config.Name)

	for _, sub := range subs {
		sub.notifyWrite(e, seq)
	}
}

// WriteErr stores a failed revalidation for a key.
//
// The previous data slot is preserved (stale-if-error), only the error slot
// and timestamp change. Subscribers of the key are notified synchronously.
func (s *Store) WriteErr(ctx context.Context, key string, err error) {
	s.mu.Lock()
	e, _ := s.backend.Load(key)
	e.Err = err
	e.UpdatedAt = time.Now()
	s.backend.Store(key, e)
	seq := s.nextSeq(key)
	subs := append([]*subscriber(nil), s.subs[key]...)
	s.mu.Unlock()

	s.log.Debug(ctx, "wrote error to cache", "name", s.config.Name, "key", key, "error", err)
	s.stat.Add(ctx, MetricWrite, 1, "name", s.config.Name)

	for _, sub := range subs {
		sub.notifyWrite(e, seq)
	}
}

// ExpireAll discards deduplication state of all keys.
//
// Entries stay in place and keep serving stale values, but the next
// revalidation trigger of any key fetches upstream even inside what used to
// be its deduplication window.
func (s *Store) ExpireAll(ctx context.Context) {
	s.mu.Lock()
	n := len(s.flights)
	s.flights = map[string]*Flight{}
	s.mu.Unlock()

	s.log.Debug(ctx, "expired cache deduplication state", "name", s.config.Name, "count", n)
}

// RemoveAll deletes all entries and notifies every subscriber with a zero
// entry.
func (s *Store) RemoveAll(ctx context.Context) {
	s.mu.Lock()

	keys := make([]string, 0, s.backend.Len())

	_, _ = s.backend.Walk(func(key string, _ Entry) error {
		keys = append(keys, key)

		return nil
	})

	type removal struct {
		subs []*subscriber
		seq  uint64
	}

	notify := make(map[string]removal, len(keys))

	for _, k := range keys {
		s.backend.Delete(k)
		notify[k] = removal{
			subs: append([]*subscriber(nil), s.subs[k]...),
			seq:  s.nextSeq(k),
		}
	}
	s.mu.Unlock()

	s.log.Debug(ctx, "removed all cache entries", "name", s.config.Name, "keys", keys)

	for _, r := range notify {
		for _, sub := range r.subs {
			sub.notifyWrite(Entry{}, r.seq)
		}
	}
}

// Len returns number of cached entries.
func (s *Store) Len() int {
	return s.backend.Len()
}

// Walk walks cached entries.
func (s *Store) Walk(walkFn func(key string, e Entry) error) (int, error) {
	return s.backend.Walk(walkFn)
}

// bindState is the key state observed atomically with registration.
type bindState struct {
	entry      Entry
	hasEntry   bool
	validating bool
	seq        uint64
}

func (s *Store) subscribe(sub *subscriber) bindState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subs[sub.key] = append(s.subs[sub.key], sub)

	e, ok := s.backend.Load(sub.key)

	return bindState{
		entry:      e,
		hasEntry:   ok,
		validating: s.validating[sub.key] > 0,
		seq:        s.seqs[sub.key],
	}
}

func (s *Store) unsubscribe(sub *subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs := s.subs[sub.key]
	for i, x := range subs {
		if x == sub {
			s.subs[sub.key] = append(subs[:i], subs[i+1:]...)

			break
		}
	}

	if len(s.subs[sub.key]) == 0 {
		delete(s.subs, sub.key)
	}
}

// beginValidating raises the in-progress count of a key and fans out a true
// validating flag. Fan-out is not gated on the count so that a subscription
// joining an in-flight revalidation still observes it.
func (s *Store) beginValidating(key string) {
	s.mu.Lock()
	s.validating[key]++
	seq := s.nextSeq(key)
	subs := append([]*subscriber(nil), s.subs[key]...)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.notifyValidating(true, seq)
	}
}

// endValidating lowers the in-progress count and fans out the resulting
// validating state, false once every overlapped revalidation has settled.
func (s *Store) endValidating(key string) {
	s.mu.Lock()
	s.validating[key]--
	active := s.validating[key] > 0

	if !active {
		delete(s.validating, key)
	}

	seq := s.nextSeq(key)
	subs := append([]*subscriber(nil), s.subs[key]...)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.notifyValidating(active, seq)
	}
}
