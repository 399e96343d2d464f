package swr

import (
	"context"
	"sync"
	"time"
)

// Fetcher produces a fresh value for a resolved key.
//
// It runs on a detached context and is never canceled, a superseded fetch
// still settles into the store.
type Fetcher func(ctx context.Context, key string) (interface{}, error)

// SubscriptionConfig is optional per-subscription configuration.
type SubscriptionConfig struct {
	// RefreshInterval enables interval revalidation, default 0 (disabled).
	// Ticks while the host is hidden or offline are dropped.
	RefreshInterval time.Duration

	// DedupingInterval is the fetch deduplication window for this
	// subscription, engine default when 0.
	DedupingInterval time.Duration

	// DisableRevalidateOnFocus turns off revalidation on host focus events,
	// which is on by default.
	DisableRevalidateOnFocus bool

	// DisableRevalidateOnVisibility turns off revalidation on host visibility
	// events, which is on by default.
	DisableRevalidateOnVisibility bool

	// OnError is a best-effort notification of failed revalidations, called
	// once per revalidation after the error has been written to the store.
	OnError func(err error, key string)
}

// Subscription binds a key to reactive value slots.
//
// Data, Err and IsValidating are updated on every store notification for the
// bound key. Multiple subscriptions of one key observe the same entry.
type Subscription struct {
	// Data holds the last successfully fetched or mutated value.
	Data *Var

	// Err holds the error of the last failed revalidation, nil after a
	// successful one. Data survives failures next to Err.
	Err *Var

	// IsValidating holds true while a revalidation of the bound key is in
	// flight.
	IsValidating *Var

	engine   *Engine
	fetcher  Fetcher
	config   SubscriptionConfig
	keyInput Key

	// Stable for the subscription lifetime, removal matches registration
	// by pointer.
	depListener        *Listener
	focusListener      *Listener
	visibilityListener *Listener

	mu       sync.Mutex
	key      string
	deps     []*Var
	bound    *subscriber
	stopTick chan struct{}
	closed   bool
}

// Subscribe binds a key to a fetcher and schedules revalidation.
//
// The current cache entry, if any, is observable on the returned subscription
// immediately; a revalidation is scheduled at once and the result lands
// asynchronously. A key function is re-evaluated whenever a Var it read
// changes, and a transition to a new concrete key behaves like a fresh
// subscription for that key. Optional configuration can be provided with
// SubscriptionConfig (only first argument is used).
//
// Close must be called when the subscription is no longer needed.
func (e *Engine) Subscribe(key Key, fetcher Fetcher, cfg ...SubscriptionConfig) *Subscription {
	config := SubscriptionConfig{}

	if len(cfg) >= 1 {
		config = cfg[0]
	}

	if config.DedupingInterval == 0 {
		config.DedupingInterval = e.config.DedupingInterval
	}

	s := &Subscription{
		Data:         NewVar(nil),
		Err:          NewVar(nil),
		IsValidating: NewVar(false),
		engine:       e,
		fetcher:      fetcher,
		config:       config,
		keyInput:     key,
	}

	s.depListener = NewListener(s.rebind)
	s.focusListener = NewListener(s.guardedRevalidate)
	s.visibilityListener = NewListener(s.guardedRevalidate)

	s.rebind()

	if !config.DisableRevalidateOnFocus {
		e.env.AddEventListener(EventFocus, s.focusListener, false)
	}

	if !config.DisableRevalidateOnVisibility {
		e.env.AddEventListener(EventVisibilityChange, s.visibilityListener, false)
	}

	if config.RefreshInterval > 0 {
		s.stopTick = make(chan struct{})

		go s.tick(config.RefreshInterval)
	}

	return s
}

// Key returns the currently resolved key, empty when skipped.
func (s *Subscription) Key() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.key
}

// Revalidate invokes a deduplicated fetch for the bound key regardless of
// host visibility or connectivity.
//
// The method value is stable for the subscription lifetime.
func (s *Subscription) Revalidate() error {
	s.mu.Lock()
	closed, key := s.closed, s.key
	s.mu.Unlock()

	if closed {
		return ErrClosedSubscription
	}

	if key == "" {
		return ErrKeySkipped
	}

	s.engine.revalidate(context.Background(), key, s.fetcher, s.config)

	return nil
}

// Close tears the subscription down.
//
// Every listener and timer the subscription registered is removed with the
// identical listener pointer and capture flag used at registration. Close is
// idempotent.
func (s *Subscription) Close() {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()

		return
	}

	s.closed = true
	bound := s.bound
	s.bound = nil
	deps := s.deps
	s.deps = nil
	stopTick := s.stopTick
	s.mu.Unlock()

	if stopTick != nil {
		close(stopTick)
	}

	env := s.engine.env

	if !s.config.DisableRevalidateOnFocus {
		env.RemoveEventListener(EventFocus, s.focusListener, false)
	}

	if !s.config.DisableRevalidateOnVisibility {
		env.RemoveEventListener(EventVisibilityChange, s.visibilityListener, false)
	}

	for _, d := range deps {
		d.Unwatch(s.depListener)
	}

	if bound != nil {
		s.engine.store.unsubscribe(bound)
	}
}

// rebind re-resolves the key and, when it changed, moves the store binding.
//
// A transition into a concrete key performs an immediate cache read followed
// by a scheduled revalidation, same as first subscription. A transition into
// skip stops updates, keeping the last observed slots.
func (s *Subscription) rebind() {
	key, deps, ok := resolveKey(s.keyInput)
	if !ok {
		key = ""
	}

	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()

		return
	}

	oldDeps := s.deps
	s.deps = deps

	changed := key != s.key

	var oldBound, newBound *subscriber

	if changed {
		oldBound = s.bound
		s.bound = nil
		s.key = key

		if key != "" {
			newBound = &subscriber{
				key:          key,
				onWrite:      s.onWrite,
				onValidating: s.onValidating,
			}
			s.bound = newBound
		}
	}
	s.mu.Unlock()

	for _, d := range oldDeps {
		d.Unwatch(s.depListener)
	}

	for _, d := range deps {
		d.Watch(s.depListener)
	}

	if !changed {
		return
	}

	st := s.engine.store

	if oldBound != nil {
		st.unsubscribe(oldBound)
	}

	if newBound == nil {
		return
	}

	// Entry and validating state are snapshotted atomically with
	// registration, delivery goes through the subscriber cells so a
	// concurrent write cannot apply behind the snapshot.
	bs := st.subscribe(newBound)

	if bs.hasEntry {
		newBound.notifyWrite(bs.entry, bs.seq)
	}

	if bs.validating {
		newBound.notifyValidating(true, bs.seq)
	}

	s.engine.revalidate(context.Background(), key, s.fetcher, s.config)
}

func (s *Subscription) onWrite(e Entry) {
	s.Data.Set(e.Data)
	s.Err.Set(e.Err)
}

func (s *Subscription) onValidating(validating bool) {
	s.IsValidating.Set(validating)
}
