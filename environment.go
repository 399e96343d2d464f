package swr

import (
	"sync"
)

// Event is a host event that can trigger revalidation.
type Event string

const (
	// EventFocus fires when the host window gains focus.
	EventFocus = Event("focus")

	// EventVisibilityChange fires when the host page visibility changes.
	EventVisibilityChange = Event("visibilitychange")
)

// Environment reports host visibility and connectivity and emits events.
//
// Hidden must return true only for a literal hidden state, an indeterminate
// state counts as visible. Offline must return true only for literally
// reported lost connectivity, an indeterminate state counts as online.
type Environment interface {
	Hidden() bool
	Offline() bool

	// AddEventListener registers a listener for an event.
	// Registration is keyed by listener pointer and capture flag, and removal
	// matches by the same pair.
	AddEventListener(e Event, l *Listener, capture bool)
	RemoveEventListener(e Event, l *Listener, capture bool)
}

// NoOpEnvironment is an Environment stub, always visible and online.
type NoOpEnvironment struct{}

var _ Environment = NoOpEnvironment{}

// Hidden reports visible.
func (NoOpEnvironment) Hidden() bool { return false }

// Offline reports online.
func (NoOpEnvironment) Offline() bool { return false }

// AddEventListener discards listener.
func (NoOpEnvironment) AddEventListener(e Event, l *Listener, capture bool) {}

// RemoveEventListener discards listener.
func (NoOpEnvironment) RemoveEventListener(e Event, l *Listener, capture bool) {}

type listenerReg struct {
	l       *Listener
	capture bool
}

// SimEnvironment is a settable Environment for tests and non-browser hosts.
type SimEnvironment struct {
	mu        sync.Mutex
	hidden    bool
	offline   bool
	listeners map[Event][]listenerReg
}

var _ Environment = &SimEnvironment{}

// Hidden reports configured visibility.
func (s *SimEnvironment) Hidden() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.hidden
}

// Offline reports configured connectivity.
func (s *SimEnvironment) Offline() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.offline
}

// SetHidden updates visibility and emits EventVisibilityChange.
func (s *SimEnvironment) SetHidden(hidden bool) {
	s.mu.Lock()
	s.hidden = hidden
	s.mu.Unlock()

	s.Emit(EventVisibilityChange)
}

// SetOffline updates connectivity.
func (s *SimEnvironment) SetOffline(offline bool) {
	s.mu.Lock()
	s.offline = offline
	s.mu.Unlock()
}

// AddEventListener registers a listener.
func (s *SimEnvironment) AddEventListener(e Event, l *Listener, capture bool) {
	if l == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listeners == nil {
		s.listeners = make(map[Event][]listenerReg)
	}

	for _, reg := range s.listeners[e] {
		if reg.l == l && reg.capture == capture {
			return
		}
	}

	s.listeners[e] = append(s.listeners[e], listenerReg{l: l, capture: capture})
}

// RemoveEventListener removes a listener registered with the same pointer
// and capture flag.
func (s *SimEnvironment) RemoveEventListener(e Event, l *Listener, capture bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	regs := s.listeners[e]
	for i, reg := range regs {
		if reg.l == l && reg.capture == capture {
			s.listeners[e] = append(regs[:i], regs[i+1:]...)

			return
		}
	}
}

// Emit notifies listeners of an event in registration order.
func (s *SimEnvironment) Emit(e Event) {
	s.mu.Lock()
	regs := append([]listenerReg(nil), s.listeners[e]...)
	s.mu.Unlock()

	for _, reg := range regs {
		reg.l.Notify()
	}
}

// ListenerCount returns the number of registered listeners for an event.
func (s *SimEnvironment) ListenerCount(e Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.listeners[e])
}
