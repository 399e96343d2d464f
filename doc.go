// Package swr provides a stale-while-revalidate data caching engine.
// Focused on serving the last known value immediately while refreshing
// it in background, without duplicated upstream calls.
//
// Features:
//
//   - Shared key-value store with independent data and error slots (stale-if-error).
//   - Request deduplication window: concurrent and near-concurrent callers of
//     one key share a single in-flight or just-settled fetch.
//   - Revalidation on subscribe, on a fixed interval, on host focus/visibility
//     events and on demand, with visibility/connectivity guards.
//   - Dependent keys: a key function is re-evaluated when reactive values it
//     reads change, rebinding the subscription.
//   - Direct writes via Mutate for optimistic updates and prefetching.
//   - No request cancellation: a superseded fetch still settles into the store,
//     last write wins by settlement order.
//   - Interchangeable store backends, allows logging and stats collection.
package swr
