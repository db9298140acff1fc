package mutation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/five82/shutter/internal/cache"
	"github.com/five82/shutter/internal/pending"
)

var (
	// ErrNoKeys is returned when a Spec names no cache keys.
	ErrNoKeys = errors.New("mutation affects no keys")
	// ErrNoExecute is returned when a Spec has no Execute function.
	ErrNoExecute = errors.New("mutation has no execute function")
)

// Status is the outcome of a mutation.
type Status int

const (
	StatusPending Status = iota
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Spec describes one asynchronous write.
type Spec struct {
	Keys      []cache.Key
	Kind      string
	Variables any

	// Apply computes the optimistic value of key from its current value.
	// Nil skips the optimistic write.
	Apply func(key cache.Key, current, variables any) any

	// Execute performs the remote write.
	Execute func(ctx context.Context, variables any) (any, error)

	// Merge computes the confirmed value of key from the write result. Nil
	// leaves the optimistic value until the settle refetch replaces it.
	Merge func(key cache.Key, result any) any
}

// Mutation is the record of one Run invocation.
type Mutation struct {
	ID        uint64
	Keys      []cache.Key
	Kind      string
	Variables any

	// Snapshot holds each affected entry as it was immediately before this
	// mutation's optimistic write.
	Snapshot map[cache.Key]cache.Entry

	Status Status
	Err    error
}

// Coordinator runs mutations against a cache Store.
type Coordinator struct {
	store   *cache.Store
	pending *pending.Registry

	// Metrics receives lifecycle events. Nil means NoopMetrics.
	Metrics Metrics

	// OnSettled, when set, is called with the final mutation record after the
	// settle phase finishes.
	OnSettled func(Mutation)

	// Logger reports settle-phase refetch failures. Nil uses the standard
	// logger.
	Logger *log.Logger

	nextID atomic.Uint64
}

// NewCoordinator returns a Coordinator writing to store and publishing
// in-flight variables to registry.
func NewCoordinator(store *cache.Store, registry *pending.Registry) *Coordinator {
	if registry == nil {
		registry = &pending.Registry{}
	}
	return &Coordinator{store: store, pending: registry}
}

// Pending returns the registry of in-flight mutations.
func (c *Coordinator) Pending() *pending.Registry {
	return c.pending
}

func (c *Coordinator) metrics() Metrics {
	if c.Metrics == nil {
		return NoopMetrics{}
	}
	return c.Metrics
}

func (c *Coordinator) logf(format string, args ...any) {
	if c.Logger != nil {
		c.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

// Run executes spec:
//
//  1. cancel in-flight fetches of every key
//  2. snapshot every key
//  3. register the mutation as pending and write the optimistic values
//  4. execute; on success write the merged values, on failure restore the
//     snapshots and return the error unchanged
//  5. settle: drop the mutation from the pending registry and refetch
//     every key, even when ctx is cancelled
//
// A panic in Execute rolls back like a failure before it propagates.
//
// Mirrors attached to the store follow every write of steps 3 and 4.
func (c *Coordinator) Run(ctx context.Context, spec Spec) (any, error) {
	if len(spec.Keys) == 0 {
		return nil, ErrNoKeys
	}
	if spec.Execute == nil {
		return nil, ErrNoExecute
	}

	m := &Mutation{
		ID:        c.nextID.Add(1),
		Keys:      append([]cache.Key(nil), spec.Keys...),
		Kind:      spec.Kind,
		Variables: spec.Variables,
		Snapshot:  make(map[cache.Key]cache.Entry, len(spec.Keys)),
		Status:    StatusPending,
	}

	for _, key := range m.Keys {
		c.store.CancelInFlight(key)
	}

	for _, key := range m.Keys {
		ent, ok := c.store.Get(key)
		if !ok {
			ent = cache.Entry{Key: key}
		}
		m.Snapshot[key] = ent
	}

	c.pending.Add(m.Kind, m.ID, m.Variables)
	if spec.Apply != nil {
		for _, key := range m.Keys {
			current := cache.Clone(m.Snapshot[key].Value)
			c.store.Overlay(key, spec.Apply(key, current, m.Variables))
		}
	}
	c.metrics().Started(m.Kind)

	defer func() {
		if p := recover(); p != nil {
			c.rollback(m, fmt.Errorf("mutation %d (%s) panicked: %v", m.ID, m.Kind, p))
			c.settle(ctx, m)
			panic(p)
		}
		c.settle(ctx, m)
	}()

	result, err := spec.Execute(ctx, m.Variables)
	if err != nil {
		c.rollback(m, err)
		return nil, err
	}

	if spec.Merge != nil {
		for _, key := range m.Keys {
			c.store.Set(key, spec.Merge(key, result), cache.StatusFresh)
		}
	}
	m.Status = StatusSuccess
	c.metrics().Succeeded(m.Kind)
	return result, nil
}

func (c *Coordinator) rollback(m *Mutation, err error) {
	for _, key := range m.Keys {
		c.store.Restore(m.Snapshot[key])
	}
	m.Status = StatusError
	m.Err = err
	c.metrics().Failed(m.Kind)
}

// settle refetches every key. A fetch that started while Execute ran may have
// read the server before the write landed, so it is dropped first.
func (c *Coordinator) settle(ctx context.Context, m *Mutation) {
	c.pending.Remove(m.Kind, m.ID)

	ctx = context.WithoutCancel(ctx)
	for _, key := range m.Keys {
		c.store.CancelInFlight(key)
		if err := c.store.Invalidate(ctx, key); err != nil {
			c.logf("mutation %d (%s): refetch %s failed: %v", m.ID, m.Kind, key, err)
		}
	}

	c.metrics().Settled(m.Kind)
	if c.OnSettled != nil {
		c.OnSettled(*m)
	}
}
