package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/five82/shutter/internal/cache"
)

// DefaultInterval is how often the identity query is refetched without any
// external signal.
const DefaultInterval = 13 * time.Minute

// State is the revalidation state machine.
type State int

const (
	StateIdle State = iota
	StateRefetching
	StateFresh
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRefetching:
		return "refetching"
	case StateFresh:
		return "fresh"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// ErrorHandler is told about every failed refetch together with the number of
// consecutive failures. It decides whether the session must re-authenticate.
type ErrorHandler func(err error, consecutive int)

// TickerFunc returns a channel delivering ticks every d and a stop function.
type TickerFunc func(d time.Duration) (<-chan time.Time, func())

// Revalidator keeps the identity entry of a cache Store fresh.
type Revalidator struct {
	Store *cache.Store
	Key   cache.Key

	// Interval between timer-driven refetches. Zero uses DefaultInterval.
	Interval time.Duration

	// Focus and Online deliver the window-focus and network-reconnect
	// signals. Nil channels never fire.
	Focus  <-chan struct{}
	Online <-chan struct{}

	// OnError is called after each failed refetch. Nil logs the failure.
	OnError ErrorHandler

	// OnTransition, when set, observes every state change.
	OnTransition func(from, to State)

	// Ticker overrides the interval timer. Nil uses time.NewTicker.
	Ticker TickerFunc

	mu       sync.Mutex
	state    State
	last     State
	failures int
}

// State returns the current state.
func (r *Revalidator) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// LastOutcome returns StateFresh or StateError for the most recent completed
// refetch, or StateIdle if none completed yet.
func (r *Revalidator) LastOutcome() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Failures returns the number of consecutive failed refetches.
func (r *Revalidator) Failures() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failures
}

// Start runs the revalidator in a background goroutine until ctx is
// cancelled. It returns immediately.
func (r *Revalidator) Start(ctx context.Context) {
	go func() { _ = r.Run(ctx) }()
}

// Run subscribes to the identity key, refetches it once, then refetches on
// every tick, focus and online signal until ctx is cancelled.
func (r *Revalidator) Run(ctx context.Context) error {
	unsubscribe := r.Store.Subscribe(r.Key, func(cache.Entry) {})
	defer unsubscribe()

	interval := r.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := r.Ticker
	if ticker == nil {
		ticker = defaultTicker
	}
	tick, stop := ticker(interval)
	defer stop()

	for {
		_ = r.Trigger(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
		case <-r.Focus:
		case <-r.Online:
		}
	}
}

// Trigger invalidates the identity key once and waits for the refetch.
// Existing identity data is kept when the refetch fails. When nothing was
// written, because no fetch ran or its result was discarded, the revalidator
// returns to idle without an outcome and the failure count is left alone.
func (r *Revalidator) Trigger(ctx context.Context) error {
	r.transition(StateRefetching)

	written, err := r.Store.Revalidate(ctx, r.Key)
	if err != nil && ctx.Err() != nil {
		// Shutting down; not a session failure.
		r.transition(StateIdle)
		return err
	}
	if err == nil && !written {
		r.transition(StateIdle)
		return nil
	}

	r.mu.Lock()
	if err != nil {
		r.failures++
	} else {
		r.failures = 0
	}
	failures := r.failures
	r.mu.Unlock()

	if err != nil {
		r.transition(StateError)
		r.reportError(err, failures)
	} else {
		r.transition(StateFresh)
	}
	r.transition(StateIdle)
	return err
}

func (r *Revalidator) transition(to State) {
	r.mu.Lock()
	from := r.state
	r.state = to
	if to == StateFresh || to == StateError {
		r.last = to
	}
	r.mu.Unlock()

	if r.OnTransition != nil {
		r.OnTransition(from, to)
	}
}

func (r *Revalidator) reportError(err error, failures int) {
	if r.OnError != nil {
		r.OnError(err, failures)
		return
	}
	log.Printf("session refresh failed (%d consecutive): %v", failures, err)
}

func defaultTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}
