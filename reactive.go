package swr

import (
	"sync"
)

// Listener is a registered callback.
//
// Pointer identity of a Listener is used for deregistration, so a listener
// registered anywhere must be kept and removed as the same value.
type Listener struct {
	fn func()
}

// NewListener wraps a callback for registration.
func NewListener(fn func()) *Listener {
	return &Listener{fn: fn}
}

// Notify invokes the callback.
func (l *Listener) Notify() {
	if l == nil || l.fn == nil {
		return
	}

	l.fn()
}

// Var is an observable value with change notification.
//
// Reads made while a key function is being evaluated are recorded as its
// dependencies, see Engine.Subscribe.
type Var struct {
	mu       sync.Mutex
	value    interface{}
	watchers []*Listener
}

// NewVar creates an observable value.
func NewVar(value interface{}) *Var {
	return &Var{value: value}
}

// Get returns current value and records a dependency if a tracking
// frame is active.
func (v *Var) Get() interface{} {
	trackRead(v)

	v.mu.Lock()
	defer v.mu.Unlock()

	return v.value
}

// Set replaces current value and notifies watchers synchronously,
// in registration order.
func (v *Var) Set(value interface{}) {
	v.mu.Lock()
	v.value = value
	watchers := append([]*Listener(nil), v.watchers...)
	v.mu.Unlock()

	for _, l := range watchers {
		l.Notify()
	}
}

// Watch registers a change listener.
func (v *Var) Watch(l *Listener) {
	if l == nil {
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	for _, w := range v.watchers {
		if w == l {
			return
		}
	}

	v.watchers = append(v.watchers, l)
}

// Unwatch removes a change listener registered with the same pointer.
func (v *Var) Unwatch(l *Listener) {
	v.mu.Lock()
	defer v.mu.Unlock()

	for i, w := range v.watchers {
		if w == l {
			v.watchers = append(v.watchers[:i], v.watchers[i+1:]...)

			return
		}
	}
}

// Tracking frame is global, captures are serialized.
// A Var read from an unrelated goroutine during a capture would be recorded
// as a false dependency, the cost is a spurious key re-evaluation.
var (
	captureMu sync.Mutex
	frameMu   sync.Mutex
	frame     []*Var
	tracking  bool
)

func trackRead(v *Var) {
	frameMu.Lock()
	defer frameMu.Unlock()

	if !tracking {
		return
	}

	for _, d := range frame {
		if d == v {
			return
		}
	}

	frame = append(frame, v)
}

// capture evaluates fn recording every Var read into a dependency list.
func capture(fn func() (string, error)) (key string, deps []*Var, err error) {
	captureMu.Lock()
	defer captureMu.Unlock()

	frameMu.Lock()
	frame = nil
	tracking = true
	frameMu.Unlock()

	key, err = fn()

	frameMu.Lock()
	deps = frame
	frame = nil
	tracking = false
	frameMu.Unlock()

	return key, deps, err
}
