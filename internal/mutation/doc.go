// Package mutation applies optimistic writes to the cache and reconciles them
// with the result of the remote write.
//
// # Overview
//
// A Coordinator runs one Spec at a time per call, but any number of calls may
// overlap. Each run cancels in-flight fetches of its keys, snapshots them,
// writes an optimistic value, executes the remote write, then either writes the
// merged result or restores the snapshot. The settle phase always removes the
// mutation from the pending registry and invalidates the keys so the cache
// ends up holding what the server returns, whatever the outcome.
//
// # Overlapping mutations
//
// Runs are not serialized. A snapshot captures the state immediately before
// its own optimistic write, so when B applies after A's optimistic write and B
// fails, B restores A's optimistic value rather than the value from before A:
//
//	cache: V0
//	A.apply -> V1         (A.snapshot = V0)
//	B.apply -> V2         (B.snapshot = V1)
//	B fails  -> V1
//	A fails  -> V0
//
// # Errors
//
// Execute errors are returned unchanged. The coordinator does not inspect
// them; network, validation and unknown failures all roll back the same way.
package mutation
