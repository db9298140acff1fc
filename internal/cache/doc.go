// Package cache provides the keyed store of cached query results that the
// mutation engine reconciles against.
//
// # Overview
//
// A Store holds one Entry per Key. Each entry carries the canonical value,
// a lifecycle Status, the time of the last confirmed write, and a Version
// counter that increases on every value change. Subscribers registered with
// Subscribe are called synchronously, in registration order, after every
// value or status change.
//
// # Writes
//
//	store.Set(key, v, cache.StatusFresh)  // confirmed write, advances UpdatedAt
//	store.Overlay(key, v)                 // provisional write, Optimistic=true
//	store.Restore(snapshot)               // put a captured entry value back
//
// Only one value per key is canonical. An optimistic overlay replaces the
// visible value but is flagged as provisional until a confirmed write or a
// refetch replaces it.
//
// # Fetching
//
// Invalidate marks an entry stale and, when the key has subscribers and a
// registered Fetcher, fetches it again. Concurrent fetches of one key are
// coalesced with singleflight so callers share a single request and results
// cannot land out of order.
//
// A failed fetch sets StatusError, records LastError and increments
// ConsecutiveFailures. The last value is kept: a stale value renders better
// than no value.
//
// # Cancellation
//
// CancelInFlight bumps a per-key generation. A fetch started under an older
// generation still runs to completion but its result is dropped, so a slow
// refetch can never overwrite a newer optimistic write. Cancellation is
// advisory; the underlying request is not aborted.
//
// # Copies
//
// Values are deep copied on the way in and on the way out with Clone. Types
// that are not map[string]any, []any or a Cloner are assumed immutable.
package cache
