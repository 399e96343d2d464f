package swr

import (
	"context"
	"time"
)

type skipDedupCtxKey struct{}

// WithSkipDedup returns context with fetch deduplication ignored.
//
// With such context Store.BeginFetch always starts a new fetch discarding
// any in-flight or just-settled one.
func WithSkipDedup(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipDedupCtxKey{}, true)
}

// SkipDedup returns true if fetch deduplication is ignored in context.
func SkipDedup(ctx context.Context) bool {
	_, ok := ctx.Value(skipDedupCtxKey{}).(bool)

	return ok
}

// detachFetchContext keeps the trigger's context values visible to the
// fetcher while suppressing cancellation and deadline, a fetch settles into
// the store even after its trigger is gone.
func detachFetchContext(ctx context.Context) context.Context {
	return fetchContext{trigger: ctx}
}

type fetchContext struct {
	trigger context.Context
}

func (c fetchContext) Deadline() (deadline time.Time, ok bool) {
	return time.Time{}, false
}

func (c fetchContext) Done() <-chan struct{} {
	return nil
}

func (c fetchContext) Err() error {
	return nil
}

func (c fetchContext) Value(key interface{}) interface{} {
	return c.trigger.Value(key)
}
