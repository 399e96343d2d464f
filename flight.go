package swr

import (
	"context"
	"time"
)

// Flight is a shared result of a single fetch.
//
// Many callers may wait on one Flight, the fetch itself runs once.
type Flight struct {
	started time.Time
	done    chan struct{}

	// Assigned before done is closed.
	value interface{}
	err   error
}

func newFlight() *Flight {
	return &Flight{started: time.Now(), done: make(chan struct{})}
}

// settledFlight creates an already settled flight, used to seed the
// deduplication window with a value written via Mutate.
func settledFlight(value interface{}) *Flight {
	f := newFlight()
	f.value = value
	close(f.done)

	return f
}

// Started returns the fetch start time, deduplication window age is measured
// from it.
func (f *Flight) Started() time.Time {
	return f.started
}

// Settled reports whether the fetch has completed.
func (f *Flight) Settled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the fetch settles and returns its result.
//
// Canceled context aborts waiting, not the fetch.
func (f *Flight) Wait(ctx context.Context) (interface{}, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// BeginFetch starts fn for a key or reuses an in-flight/just-settled fetch.
//
// If a flight for the key exists and is younger than window, it is returned
// without invoking fn, even if it has already settled. Otherwise fn runs in a
// new goroutine on a detached context and its flight replaces the old one.
// A flight is removed once it has settled and window has elapsed from its
// start, so near-simultaneous callers inside the window still converge on it.
//
// WithSkipDedup in ctx forces a new fetch.
func (s *Store) BeginFetch(ctx context.Context, key string, fn func(ctx context.Context) (interface{}, error), window time.Duration) *Flight {
	if window <= 0 {
		window = DefaultDedupingInterval
	}

	s.mu.Lock()

	if f, ok := s.flights[key]; ok && !SkipDedup(ctx) && time.Since(f.started) <= window {
		s.mu.Unlock()

		s.stat.Add(ctx, MetricDedup, 1, "name", s.config.Name)
		s.log.Debug(ctx, "reusing deduped fetch",
			"name", s.config.Name,
			"key", key)

		return f
	}

	f := newFlight()
	s.flights[key] = f
	s.mu.Unlock()

	s.stat.Add(ctx, MetricFetch, 1, "name", s.config.Name)
	s.log.Debug(ctx, "starting fetch", "name", s.config.Name, "key", key)

	go func() {
		f.value, f.err = fn(detachFetchContext(ctx))
		close(f.done)

		s.scheduleFlightRemoval(key, f, window)
	}()

	return f
}

func (s *Store) seedFlight(key string, value interface{}, window time.Duration) {
	if window <= 0 {
		window = DefaultDedupingInterval
	}

	f := settledFlight(value)

	s.mu.Lock()
	s.flights[key] = f
	s.mu.Unlock()

	s.scheduleFlightRemoval(key, f, window)
}

// scheduleFlightRemoval deletes a settled flight once window has elapsed from
// its start. A flight superseded by a newer one is left alone.
func (s *Store) scheduleFlightRemoval(key string, f *Flight, window time.Duration) {
	delay := window - time.Since(f.started)
	if delay < 0 {
		delay = 0
	}

	time.AfterFunc(delay, func() {
		s.mu.Lock()
		if s.flights[key] == f {
			delete(s.flights, key)
		}
		s.mu.Unlock()
	})
}
