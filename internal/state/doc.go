// Package state holds the identity mirror read by the terminal UI.
//
// # Overview
//
// The Store is a secondary copy of the cached identity entry. The UI polls it
// on its own schedule instead of subscribing to the cache. Values reach it
// only through the mirror synchronizer, which calls Store.Mirror on every
// change of the identity key: optimistic writes, confirmed writes, rollbacks
// and refetches alike. Application code must not write profiles into it
// directly.
//
// # Update Semantics
//
//	// Mirror write: replace the profile
//	store.Mirror(profile)
//	→ snapshot.Profile = profile
//	→ snapshot.HasProfile = true
//	→ snapshot.LastMirrored = now
//
//	// Refresh failure: keep the profile, record the error
//	store.RecordRefresh(err)
//	→ snapshot.Profile = <unchanged>
//	→ snapshot.LastError = err
//	→ snapshot.ConsecutiveFailures++
//
//	// Refresh success: clear the error, stamp the sync time
//	store.RecordRefresh(nil)
//	→ snapshot.ConsecutiveFailures = 0
//	→ snapshot.LastSynced = now
//
// The UI always has the most recent profile to display while still being told
// that the session could not be refreshed. Two consecutive failures mark the
// snapshot offline.
//
// # Concurrency Model
//
// Mirror and RecordRefresh take the write lock; Snapshot takes the read lock
// and returns a copy, including a fresh wrapper around LastError. The lock is
// never held during network I/O or rendering.
//
// # Testing Considerations
//
// The Store is safe to construct with its zero value:
//
//	store := &state.Store{}  // Ready to use immediately
package state
