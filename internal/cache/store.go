package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrNoFetcher is returned by Refetch when no Fetcher is registered for the key.
var ErrNoFetcher = errors.New("no fetcher registered")

// Fetcher loads the authoritative value for a key.
type Fetcher interface {
	Fetch(ctx context.Context, key Key) (any, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, key Key) (any, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, key Key) (any, error) {
	return f(ctx, key)
}

type subscriber struct {
	id uint64
	fn func(Entry)
}

type record struct {
	entry   Entry
	fetcher Fetcher
	subs    []subscriber

	// gen is bumped by CancelInFlight; a fetch that started under an older
	// generation drops its result.
	gen uint64
}

// Store is a keyed table of cached query results. The zero value is ready to
// use.
type Store struct {
	// Metrics receives lifecycle events. Nil means NoopMetrics.
	Metrics Metrics

	mu      sync.RWMutex
	records map[Key]*record
	nextSub uint64

	sf singleflight.Group
}

// NewStore returns an empty Store reporting to metrics.
func NewStore(metrics Metrics) *Store {
	return &Store{Metrics: metrics}
}

func (s *Store) metrics() Metrics {
	if s.Metrics == nil {
		return NoopMetrics{}
	}
	return s.Metrics
}

// recordLocked returns the record for key, creating it if needed. s.mu must
// be held for writing.
func (s *Store) recordLocked(key Key) *record {
	if s.records == nil {
		s.records = make(map[Key]*record)
	}
	r, ok := s.records[key]
	if !ok {
		r = &record{entry: Entry{Key: key}}
		s.records[key] = r
	}
	return r
}

// RegisterFetcher sets the function Invalidate and Refetch use for key.
func (s *Store) RegisterFetcher(key Key, f Fetcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordLocked(key).fetcher = f
}

// Get returns a copy of the entry for key.
func (s *Store) Get(key Key) (Entry, bool) {
	s.mu.RLock()
	r, ok := s.records[key]
	var ent Entry
	if ok {
		ent = r.entry.clone()
	}
	s.mu.RUnlock()

	if !ok {
		s.metrics().Miss()
		return Entry{}, false
	}
	s.metrics().Hit()
	return ent, true
}

// Set replaces the value and status of key as a confirmed write, then
// notifies subscribers.
func (s *Store) Set(key Key, value any, status Status) {
	s.update(key, func(r *record) bool {
		r.entry.Value = Clone(value)
		r.entry.HasValue = true
		r.entry.Status = status
		r.entry.Optimistic = false
		r.entry.UpdatedAt = time.Now()
		r.entry.Version++
		if status != StatusError {
			r.entry.LastError = nil
			r.entry.ConsecutiveFailures = 0
		}
		return true
	})
}

// Overlay writes a provisional value for key. Status and UpdatedAt are kept.
func (s *Store) Overlay(key Key, value any) {
	s.update(key, func(r *record) bool {
		r.entry.Value = Clone(value)
		r.entry.HasValue = true
		r.entry.Optimistic = true
		r.entry.Version++
		return true
	})
}

// Restore writes a previously captured entry value back, including its
// presence and optimistic flag. Status and timestamps are kept.
func (s *Store) Restore(snap Entry) {
	s.update(snap.Key, func(r *record) bool {
		r.entry.Value = Clone(snap.Value)
		r.entry.HasValue = snap.HasValue
		r.entry.Optimistic = snap.Optimistic
		r.entry.Version++
		return true
	})
}

// Subscribe registers fn to be called with a copy of the entry after every
// value or status change of key. The returned function unsubscribes.
func (s *Store) Subscribe(key Key, fn func(Entry)) func() {
	s.mu.Lock()
	s.nextSub++
	id := s.nextSub
	r := s.recordLocked(key)
	r.subs = append(r.subs, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			r := s.records[key]
			if r == nil {
				return
			}
			for i, sub := range r.subs {
				if sub.id == id {
					r.subs = append(r.subs[:i:i], r.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Subscribers returns the number of active subscribers for key.
func (s *Store) Subscribers(key Key) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.records[key]; ok {
		return len(r.subs)
	}
	return 0
}

// CancelInFlight marks any in-progress fetch for key as obsolete. The fetch
// keeps running but its result is discarded when it resolves.
func (s *Store) CancelInFlight(key Key) {
	s.mu.Lock()
	r := s.recordLocked(key)
	r.gen++
	wasFetching := r.entry.Status == StatusFetching
	if wasFetching {
		r.entry.Status = StatusStale
	}
	s.mu.Unlock()

	s.sf.Forget(string(key))
	if wasFetching {
		s.notify(key)
	}
}

// Invalidate marks key stale and, when the key has active subscribers and a
// fetcher, refetches it. Concurrent calls share one fetch. A fetch error is
// recorded on the entry and returned; the last value is kept.
func (s *Store) Invalidate(ctx context.Context, key Key) error {
	_, err := s.Revalidate(ctx, key)
	return err
}

// Revalidate is Invalidate that also reports whether a fetched value was
// written. It is false when nothing was fetched or when the fetch was
// discarded by CancelInFlight.
func (s *Store) Revalidate(ctx context.Context, key Key) (bool, error) {
	var (
		fetcher Fetcher
		active  bool
	)
	s.update(key, func(r *record) bool {
		fetcher = r.fetcher
		active = len(r.subs) > 0
		if r.entry.Status == StatusFetching {
			return false
		}
		r.entry.Status = StatusStale
		return true
	})
	if !active || fetcher == nil {
		return false, nil
	}
	return s.fetch(ctx, key, fetcher)
}

// Refetch fetches key regardless of subscribers.
func (s *Store) Refetch(ctx context.Context, key Key) error {
	s.mu.RLock()
	var fetcher Fetcher
	if r, ok := s.records[key]; ok {
		fetcher = r.fetcher
	}
	s.mu.RUnlock()
	if fetcher == nil {
		return fmt.Errorf("refetch %s: %w", key, ErrNoFetcher)
	}
	_, err := s.fetch(ctx, key, fetcher)
	return err
}

func (s *Store) fetch(ctx context.Context, key Key, f Fetcher) (bool, error) {
	v, err, _ := s.sf.Do(string(key), func() (any, error) {
		var gen uint64
		s.update(key, func(r *record) bool {
			gen = r.gen
			r.entry.Status = StatusFetching
			return true
		})
		s.metrics().Fetch()

		value, err := f.Fetch(ctx, key)
		written := s.finishFetch(key, gen, value, err)
		if err != nil {
			return false, fmt.Errorf("fetch %s: %w", key, err)
		}
		return written, nil
	})
	written, _ := v.(bool)
	return written, err
}

// finishFetch stores the fetch outcome and reports whether a value was
// written.
func (s *Store) finishFetch(key Key, gen uint64, value any, err error) bool {
	discarded := false
	s.update(key, func(r *record) bool {
		if r.gen != gen {
			discarded = true
			return false
		}
		if err != nil {
			r.entry.Status = StatusError
			r.entry.LastError = err
			r.entry.ConsecutiveFailures++
			return true
		}
		r.entry.Value = Clone(value)
		r.entry.HasValue = true
		r.entry.Status = StatusFresh
		r.entry.Optimistic = false
		r.entry.UpdatedAt = time.Now()
		r.entry.LastError = nil
		r.entry.ConsecutiveFailures = 0
		r.entry.Version++
		return true
	})
	switch {
	case discarded:
		s.metrics().Discard()
		return false
	case err != nil:
		s.metrics().FetchError()
		return false
	}
	return true
}

// update applies fn under the write lock and, when fn reports a change,
// notifies subscribers after the lock is released.
func (s *Store) update(key Key, fn func(r *record) bool) {
	s.mu.Lock()
	r := s.recordLocked(key)
	changed := fn(r)
	if !changed {
		s.mu.Unlock()
		return
	}
	ent := r.entry.clone()
	subs := append([]subscriber(nil), r.subs...)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(ent.clone())
	}
}

func (s *Store) notify(key Key) {
	s.update(key, func(*record) bool { return true })
}
