// Package mirror keeps secondary stores in step with the cache.
//
// A mirror is a projection of one cache key that components read without
// subscribing to the cache themselves. The Synchronizer is the only writer of
// a mirror: it subscribes to the cache and, on every value change of the key,
// calls each registered Writer synchronously in registration order. A writer
// that fails or panics is reported and skipped; the remaining writers still
// receive the value.
package mirror

import (
	"fmt"
	"log"
	"sync"

	"github.com/five82/shutter/internal/cache"
)

// Writer receives the latest value of a key. A nil value means the key holds
// no value.
type Writer func(value any) error

// Reporter is told about writer failures.
type Reporter func(key cache.Key, err error)

type registration struct {
	id uint64
	w  Writer
}

type mirrorSet struct {
	mu          sync.Mutex
	writers     []registration
	lastVersion uint64
	pushed      bool
	unsubscribe func()
}

// Synchronizer propagates cache values to registered writers.
type Synchronizer struct {
	store *cache.Store

	// Report is called for every failed write. Nil logs with log.Printf.
	Report Reporter

	mu     sync.Mutex
	sets   map[cache.Key]*mirrorSet
	nextID uint64
}

// New returns a Synchronizer attached to store.
func New(store *cache.Store) *Synchronizer {
	return &Synchronizer{store: store, sets: make(map[cache.Key]*mirrorSet)}
}

// Register adds w as a mirror of key and immediately pushes the current value
// when the key has one. The returned function removes the writer. Writers
// must not call Register or Sync for their own key.
func (s *Synchronizer) Register(key cache.Key, w Writer) func() {
	s.mu.Lock()
	set, ok := s.sets[key]
	if !ok {
		set = &mirrorSet{}
		s.sets[key] = set
	}
	s.nextID++
	id := s.nextID
	set.mu.Lock()
	set.writers = append(set.writers, registration{id: id, w: w})
	needSubscribe := set.unsubscribe == nil
	set.mu.Unlock()
	if needSubscribe {
		set.unsubscribe = s.store.Subscribe(key, func(ent cache.Entry) {
			s.onChange(key, set, ent)
		})
	}
	s.mu.Unlock()

	set.mu.Lock()
	if ent, ok := s.store.Get(key); ok && ent.HasValue {
		s.write(key, w, ent.Value)
		if ent.Version > set.lastVersion {
			set.lastVersion = ent.Version
		}
		set.pushed = true
	}
	set.mu.Unlock()

	return func() { s.unregister(key, id) }
}

func (s *Synchronizer) unregister(key cache.Key, id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[key]
	if !ok {
		return
	}
	set.mu.Lock()
	for i, reg := range set.writers {
		if reg.id == id {
			set.writers = append(set.writers[:i:i], set.writers[i+1:]...)
			break
		}
	}
	empty := len(set.writers) == 0
	set.mu.Unlock()
	if empty {
		if set.unsubscribe != nil {
			set.unsubscribe()
		}
		delete(s.sets, key)
	}
}

// Sync pushes the current value of key to every writer, regardless of
// whether it changed.
func (s *Synchronizer) Sync(key cache.Key) {
	s.mu.Lock()
	set, ok := s.sets[key]
	s.mu.Unlock()
	if !ok {
		return
	}
	ent, ok := s.store.Get(key)
	if !ok {
		return
	}

	set.mu.Lock()
	defer set.mu.Unlock()
	s.pushLocked(key, set, ent)
}

// Writers returns the number of writers registered for key.
func (s *Synchronizer) Writers(key cache.Key) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[key]
	if !ok {
		return 0
	}
	set.mu.Lock()
	defer set.mu.Unlock()
	return len(set.writers)
}

func (s *Synchronizer) onChange(key cache.Key, set *mirrorSet, ent cache.Entry) {
	set.mu.Lock()
	defer set.mu.Unlock()
	// Status-only changes keep the version; late notifications carry an
	// older one.
	if set.pushed && ent.Version <= set.lastVersion {
		return
	}
	s.pushLocked(key, set, ent)
}

func (s *Synchronizer) pushLocked(key cache.Key, set *mirrorSet, ent cache.Entry) {
	if ent.Version > set.lastVersion {
		set.lastVersion = ent.Version
	}
	set.pushed = true

	var value any
	if ent.HasValue {
		value = ent.Value
	}
	for _, reg := range set.writers {
		s.write(key, reg.w, value)
	}
}

func (s *Synchronizer) write(key cache.Key, w Writer, value any) {
	defer func() {
		if r := recover(); r != nil {
			s.report(key, fmt.Errorf("mirror writer panicked: %v", r))
		}
	}()
	if err := w(cache.Clone(value)); err != nil {
		s.report(key, fmt.Errorf("mirror write: %w", err))
	}
}

func (s *Synchronizer) report(key cache.Key, err error) {
	if s.Report != nil {
		s.Report(key, err)
		return
	}
	log.Printf("mirror %s: %v", key, err)
}
