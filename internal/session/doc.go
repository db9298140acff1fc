// Package session keeps a cached identity fresh in the background.
//
// # Overview
//
// A Revalidator owns one cache key, the identity key. While it runs it holds a
// subscription on that key, so invalidations refetch it, and it invalidates
// the key on four triggers:
//
//   - start (mount)
//   - every Interval (13 minutes by default)
//   - a value on the Focus channel (window regained focus)
//   - a value on the Online channel (network reconnected)
//
// Refetched identity data lands in the cache Store and from there reaches any
// mirror registered with the mirror package.
//
// # State Machine
//
//	idle -> refetching -> fresh -> idle
//	                   -> error -> idle
//	                   -> idle
//
// Every trigger re-enters refetching regardless of the previous outcome.
// Overlapping triggers share one fetch because the cache coalesces them. A
// refetch that wrote nothing, because a mutation discarded it or no fetcher is
// registered, goes straight back to idle: it is neither fresh nor a failure.
//
// # Failures
//
// A failed refetch keeps the existing identity data and calls OnError with the
// number of consecutive failures. The handler decides whether to force
// re-authentication; the revalidator itself keeps running.
//
// # Testing
//
// Signals and the timer are injectable, so tests drive the revalidator with
// plain channels instead of real timers or window events.
package session
