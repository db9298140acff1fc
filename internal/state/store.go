package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/shutter/internal/transport"
)

// Snapshot represents the identity data available to the UI.
type Snapshot struct {
	Profile             transport.Profile
	HasProfile          bool
	LastError           error
	ConsecutiveFailures int // Number of consecutive failed session refreshes

	// LastMirrored is when the mirror last pushed a value, provisional or not.
	LastMirrored time.Time
	// LastSynced is when a session refresh last confirmed the profile.
	LastSynced time.Time
}

// IsOffline returns true when the session refresh has failed repeatedly.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store is a mirror of the identity cache entry. Only the mirror synchronizer
// writes values into it; the session layer records refresh failures.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Mirror is a mirror.Writer. A nil value clears the profile.
func (s *Store) Mirror(value any) error {
	var (
		profile transport.Profile
		has     bool
	)
	switch v := value.(type) {
	case nil:
	case transport.Profile:
		profile, has = v, true
	case *transport.Profile:
		if v != nil {
			profile, has = *v, true
		}
	default:
		return fmt.Errorf("state mirror: unexpected value %T", value)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Profile = profile
	s.snapshot.HasProfile = has
	s.snapshot.LastMirrored = time.Now()
	return nil
}

// RecordRefresh notes the outcome of a session refresh. When err is non-nil
// the profile is kept but the error is recorded for visibility.
func (s *Store) RecordRefresh(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return
	}
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
	s.snapshot.LastSynced = time.Now()
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}
