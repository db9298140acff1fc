package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/five82/shutter/internal/cache"
)

type harness struct {
	store  *cache.Store
	rv     *Revalidator
	tick   chan time.Time
	focus  chan struct{}
	online chan struct{}
	idle   chan State

	mu       sync.Mutex
	interval time.Duration
	errs     []int
}

func newHarness(t *testing.T, fetch cache.FetcherFunc) *harness {
	t.Helper()
	h := &harness{
		store:  &cache.Store{},
		tick:   make(chan time.Time),
		focus:  make(chan struct{}),
		online: make(chan struct{}),
		idle:   make(chan State, 16),
	}
	key := cache.NewKey("auth")
	h.store.RegisterFetcher(key, fetch)
	h.rv = &Revalidator{
		Store:  h.store,
		Key:    key,
		Focus:  h.focus,
		Online: h.online,
		OnError: func(err error, consecutive int) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.errs = append(h.errs, consecutive)
		},
		OnTransition: func(from, to State) {
			if to == StateIdle && (from == StateFresh || from == StateError) {
				h.idle <- from
			}
		},
		Ticker: func(d time.Duration) (<-chan time.Time, func()) {
			h.mu.Lock()
			h.interval = d
			h.mu.Unlock()
			return h.tick, func() {}
		},
	}
	return h
}

func (h *harness) start(t *testing.T) (cancel func()) {
	t.Helper()
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.rv.Run(ctx) }()
	return func() {
		stop()
		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Run returned %v, want context.Canceled", err)
			}
		case <-time.After(2 * time.Second):
			t.Errorf("Run did not stop")
		}
	}
}

func (h *harness) waitCycle(t *testing.T) State {
	t.Helper()
	select {
	case s := <-h.idle:
		return s
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for refetch cycle")
		return StateIdle
	}
}

func TestRevalidator_RefetchesOnMountTickFocusAndOnline(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	h := newHarness(t, func(context.Context, cache.Key) (any, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return fmt.Sprintf("identity-%d", calls), nil
	})
	stop := h.start(t)
	defer stop()

	if got := h.waitCycle(t); got != StateFresh {
		t.Fatalf("mount cycle outcome = %v, want fresh", got)
	}
	h.tick <- time.Now()
	h.waitCycle(t)
	h.focus <- struct{}{}
	h.waitCycle(t)
	h.online <- struct{}{}
	h.waitCycle(t)

	mu.Lock()
	gotCalls := calls
	mu.Unlock()
	if gotCalls != 4 {
		t.Fatalf("fetch calls = %d, want 4", gotCalls)
	}
	ent, _ := h.store.Get(h.rv.Key)
	if ent.Value != "identity-4" {
		t.Fatalf("identity = %v, want identity-4", ent.Value)
	}
	if h.rv.State() != StateIdle {
		t.Fatalf("State() = %v, want idle", h.rv.State())
	}
	h.mu.Lock()
	interval := h.interval
	h.mu.Unlock()
	if interval != DefaultInterval {
		t.Fatalf("interval = %v, want %v", interval, DefaultInterval)
	}
}

func TestRevalidator_FailureKeepsIdentityAndReports(t *testing.T) {
	var mu sync.Mutex
	fail := true
	h := newHarness(t, func(context.Context, cache.Key) (any, error) {
		mu.Lock()
		defer mu.Unlock()
		if fail {
			return nil, errors.New("401")
		}
		return "renewed", nil
	})
	h.store.Set(h.rv.Key, "signed-in", cache.StatusFresh)
	stop := h.start(t)
	defer stop()

	if got := h.waitCycle(t); got != StateError {
		t.Fatalf("outcome = %v, want error", got)
	}
	h.focus <- struct{}{}
	h.waitCycle(t)

	ent, _ := h.store.Get(h.rv.Key)
	if ent.Value != "signed-in" {
		t.Fatalf("identity = %v, want signed-in kept", ent.Value)
	}
	if ent.Status != cache.StatusError {
		t.Fatalf("status = %v, want error", ent.Status)
	}
	if h.rv.Failures() != 2 || h.rv.LastOutcome() != StateError {
		t.Fatalf("failures = %d outcome = %v, want 2 error", h.rv.Failures(), h.rv.LastOutcome())
	}

	mu.Lock()
	fail = false
	mu.Unlock()
	h.online <- struct{}{}
	if got := h.waitCycle(t); got != StateFresh {
		t.Fatalf("outcome = %v, want fresh", got)
	}
	if h.rv.Failures() != 0 {
		t.Fatalf("failures = %d, want 0 after success", h.rv.Failures())
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.errs) != 2 || h.errs[0] != 1 || h.errs[1] != 2 {
		t.Fatalf("OnError consecutive counts = %v, want [1 2]", h.errs)
	}
}

func TestRevalidator_TriggerTransitions(t *testing.T) {
	store := &cache.Store{}
	key := cache.NewKey("auth")
	store.RegisterFetcher(key, cache.FetcherFunc(func(context.Context, cache.Key) (any, error) {
		return "me", nil
	}))
	unsubscribe := store.Subscribe(key, func(cache.Entry) {})
	defer unsubscribe()

	var transitions []string
	rv := &Revalidator{
		Store: store,
		Key:   key,
		OnTransition: func(from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	}
	if err := rv.Trigger(context.Background()); err != nil {
		t.Fatalf("Trigger returned error: %v", err)
	}

	want := []string{"idle->refetching", "refetching->fresh", "fresh->idle"}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Fatalf("transitions = %v, want %v", transitions, want)
		}
	}
}

func TestRevalidator_UnwrittenRefetchIsNotFresh(t *testing.T) {
	store := &cache.Store{}
	key := cache.NewKey("auth")
	store.Set(key, "signed-in", cache.StatusFresh)
	unsubscribe := store.Subscribe(key, func(cache.Entry) {})
	defer unsubscribe()

	var transitions []string
	rv := &Revalidator{
		Store: store,
		Key:   key,
		OnTransition: func(from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	}
	rv.failures = 2

	// No fetcher is registered, so nothing confirms the identity.
	if err := rv.Trigger(context.Background()); err != nil {
		t.Fatalf("Trigger returned error: %v", err)
	}

	want := []string{"idle->refetching", "refetching->idle"}
	if len(transitions) != len(want) || transitions[0] != want[0] || transitions[1] != want[1] {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	if rv.Failures() != 2 {
		t.Fatalf("failures = %d, want 2 kept", rv.Failures())
	}
	if rv.LastOutcome() != StateIdle {
		t.Fatalf("LastOutcome() = %v, want idle", rv.LastOutcome())
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "idle"},
		{StateRefetching, "refetching"},
		{StateFresh, "fresh"},
		{StateError, "error"},
		{State(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
