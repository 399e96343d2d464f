package swr

import (
	"context"
)

// Producer is a deferred value for Mutate, invoked and awaited before the
// write.
type Producer func(ctx context.Context) (interface{}, error)

// Mutate writes a value for a key directly, bypassing any fetcher, and
// notifies subscribers of the key before returning.
//
// value may be a plain value or a Producer. A failed Producer returns its
// error to the caller and leaves the cache untouched. A successful write
// clears the error slot and seeds the deduplication window, so a subscription
// created right after Mutate observes the written value without invoking its
// fetcher.
//
// Usable before any subscription exists for the key (prefetching) and for
// optimistic updates.
func (e *Engine) Mutate(ctx context.Context, key string, value interface{}) error {
	if key == "" {
		return ErrEmptyKey
	}

	switch producer := value.(type) {
	case Producer:
		v, err := producer(ctx)
		if err != nil {
			return err
		}

		value = v
	case func(ctx context.Context) (interface{}, error):
		v, err := producer(ctx)
		if err != nil {
			return err
		}

		value = v
	}

	e.store.Write(ctx, key, value)
	e.store.seedFlight(key, value, e.config.DedupingInterval)

	e.stat.Add(ctx, MetricMutate, 1, "name", e.config.Name)

	return nil
}
