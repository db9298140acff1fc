// Package pending tracks the variables of in-flight mutations by kind so that
// any reader can render a progress indicator for an operation started
// elsewhere.
package pending

import "sync"

type item struct {
	id        uint64
	variables any
}

type listener struct {
	id uint64
	fn func([]any)
}

// Registry is an index of pending mutations keyed by kind. The zero value is
// ready to use.
type Registry struct {
	mu        sync.Mutex
	byKind    map[string][]item
	listeners map[string][]listener
	nextSub   uint64
}

// Add records variables for mutation id under kind. Entries keep creation
// order.
func (r *Registry) Add(kind string, id uint64, variables any) {
	r.mu.Lock()
	if r.byKind == nil {
		r.byKind = make(map[string][]item)
	}
	r.byKind[kind] = append(r.byKind[kind], item{id: id, variables: variables})
	snap, subs := r.snapshotLocked(kind)
	r.mu.Unlock()

	broadcast(subs, snap)
}

// Remove drops mutation id from kind. Readers stop seeing it as soon as Remove
// returns.
func (r *Registry) Remove(kind string, id uint64) {
	r.mu.Lock()
	items := r.byKind[kind]
	found := false
	for i, it := range items {
		if it.id == id {
			items = append(items[:i:i], items[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		r.mu.Unlock()
		return
	}
	if len(items) == 0 {
		delete(r.byKind, kind)
	} else {
		r.byKind[kind] = items
	}
	snap, subs := r.snapshotLocked(kind)
	r.mu.Unlock()

	broadcast(subs, snap)
}

// Pending returns the variables of every pending mutation of kind, oldest
// first.
func (r *Registry) Pending(kind string) []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap, _ := r.snapshotLocked(kind)
	return snap
}

// Count returns how many mutations of kind are pending.
func (r *Registry) Count(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byKind[kind])
}

// Subscribe calls fn with the pending variables of kind after every change.
// The returned function unsubscribes.
func (r *Registry) Subscribe(kind string, fn func([]any)) func() {
	r.mu.Lock()
	if r.listeners == nil {
		r.listeners = make(map[string][]listener)
	}
	r.nextSub++
	id := r.nextSub
	r.listeners[kind] = append(r.listeners[kind], listener{id: id, fn: fn})
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		subs := r.listeners[kind]
		for i, l := range subs {
			if l.id == id {
				r.listeners[kind] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

func (r *Registry) snapshotLocked(kind string) ([]any, []listener) {
	items := r.byKind[kind]
	var snap []any
	if len(items) > 0 {
		snap = make([]any, len(items))
		for i, it := range items {
			snap[i] = it.variables
		}
	}
	subs := append([]listener(nil), r.listeners[kind]...)
	return snap, subs
}

func broadcast(subs []listener, snap []any) {
	for _, l := range subs {
		l.fn(snap)
	}
}
