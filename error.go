package swr

// SentinelError is an error.
type SentinelError string

const (
	// ErrEmptyKey indicates an operation on an empty cache key.
	ErrEmptyKey = SentinelError("empty cache key")

	// ErrKeySkipped indicates a subscription with an unresolved key.
	ErrKeySkipped = SentinelError("cache key is skipped")

	// ErrClosedSubscription indicates an operation on a closed subscription.
	ErrClosedSubscription = SentinelError("subscription is closed")
)

// Error implements error.
func (e SentinelError) Error() string {
	return string(e)
}
