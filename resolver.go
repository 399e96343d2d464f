package swr

// Key identifies a cacheable result.
//
// Accepted shapes:
//
//	string                   concrete key, empty string means skip
//	KeyFunc                  dependent key, re-evaluated when Vars it read change
//	func() (string, error)   same as KeyFunc
//	func() string            dependent key that cannot fail
//	nil                      skip
//
// A skipped key means "do not fetch, treat as unresolved". A key function
// returning an error is treated as skip, not as a subscriber-visible error.
type Key interface{}

// KeyFunc produces a concrete key, possibly reading Vars along the way.
type KeyFunc func() (string, error)

// resolveKey evaluates a key input under dependency tracking.
//
// ok is false when the key is skipped. deps holds every Var the key function
// read, it is empty for literal keys.
func resolveKey(k Key) (key string, deps []*Var, ok bool) {
	switch k := k.(type) {
	case nil:
		return "", nil, false
	case string:
		return k, nil, k != ""
	case KeyFunc:
		return resolveKeyFunc(k)
	case func() (string, error):
		return resolveKeyFunc(k)
	case func() string:
		return resolveKeyFunc(func() (string, error) {
			return k(), nil
		})
	default:
		return "", nil, false
	}
}

func resolveKeyFunc(fn KeyFunc) (string, []*Var, bool) {
	key, deps, err := capture(fn)
	if err != nil || key == "" {
		return "", deps, false
	}

	return key, deps, true
}
