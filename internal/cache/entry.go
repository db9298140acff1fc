package cache

import (
	"strings"
	"time"
)

// Key identifies a cached query result.
type Key string

// NewKey joins tuple-style parts into a Key, so ("auth") and ("avatar", "42")
// become "auth" and "avatar/42".
func NewKey(parts ...string) Key {
	return Key(strings.Join(parts, "/"))
}

// Status describes the lifecycle of a cache entry.
type Status int

const (
	StatusIdle Status = iota
	StatusFetching
	StatusFresh
	StatusStale
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusFetching:
		return "fetching"
	case StatusFresh:
		return "fresh"
	case StatusStale:
		return "stale"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Entry is a copy of the cached state for one key.
type Entry struct {
	Key      Key
	Value    any
	HasValue bool
	Status   Status

	// UpdatedAt is the time of the last confirmed write. Optimistic overlays
	// leave it untouched.
	UpdatedAt time.Time

	// Optimistic reports whether Value is a provisional overlay that no
	// confirmed write has replaced yet.
	Optimistic bool

	// Version increases on every value change (confirmed, optimistic or
	// restored). Status-only changes keep it.
	Version uint64

	LastError           error
	ConsecutiveFailures int
}

func (e Entry) clone() Entry {
	dup := e
	dup.Value = Clone(e.Value)
	return dup
}
