package mirror

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/five82/shutter/internal/cache"
)

func TestSynchronizer_PushesInRegistrationOrder(t *testing.T) {
	store := &cache.Store{}
	sync := New(store)
	key := cache.NewKey("auth")

	var order []string
	sync.Register(key, func(v any) error { order = append(order, "a:"+v.(string)); return nil })
	sync.Register(key, func(v any) error { order = append(order, "b:"+v.(string)); return nil })

	store.Set(key, "v1", cache.StatusFresh)
	store.Overlay(key, "v2")

	require.Equal(t, []string{"a:v1", "b:v1", "a:v2", "b:v2"}, order)
}

func TestSynchronizer_IsolatesFailingWriters(t *testing.T) {
	store := &cache.Store{}
	sync := New(store)
	key := cache.NewKey("auth")

	var reported []error
	sync.Report = func(_ cache.Key, err error) { reported = append(reported, err) }

	var got any
	sync.Register(key, func(any) error { panic("writer A exploded") })
	sync.Register(key, func(any) error { return errors.New("writer B failed") })
	sync.Register(key, func(v any) error { got = v; return nil })

	store.Set(key, map[string]any{"name": "Sara"}, cache.StatusFresh)

	require.Equal(t, map[string]any{"name": "Sara"}, got)
	require.Len(t, reported, 2)
	require.Contains(t, reported[0].Error(), "panicked")
	require.Contains(t, reported[1].Error(), "writer B failed")
}

func TestSynchronizer_SkipsStatusOnlyChanges(t *testing.T) {
	store := &cache.Store{}
	sync := New(store)
	key := cache.NewKey("auth")

	calls := 0
	sync.Register(key, func(any) error { calls++; return nil })

	store.Set(key, "v1", cache.StatusFresh)
	require.NoError(t, store.Invalidate(context.Background(), key))
	store.Overlay(key, "v2")

	require.Equal(t, 2, calls)
}

func TestSynchronizer_IgnoresLateNotifications(t *testing.T) {
	store := &cache.Store{}
	s := New(store)
	key := cache.NewKey("auth")

	var values []any
	s.Register(key, func(v any) error { values = append(values, v); return nil })
	store.Set(key, "v1", cache.StatusFresh)
	store.Set(key, "v2", cache.StatusFresh)

	s.mu.Lock()
	set := s.sets[key]
	s.mu.Unlock()
	s.onChange(key, set, cache.Entry{Key: key, Value: "v1", HasValue: true, Version: 1})

	require.Equal(t, []any{"v1", "v2"}, values)
}

func TestSynchronizer_RegisterPushesCurrentValue(t *testing.T) {
	store := &cache.Store{}
	s := New(store)
	key := cache.NewKey("auth")
	store.Set(key, "existing", cache.StatusFresh)

	var got any
	s.Register(key, func(v any) error { got = v; return nil })
	require.Equal(t, "existing", got)
}

func TestSynchronizer_RollbackToAbsentPushesNil(t *testing.T) {
	store := &cache.Store{}
	s := New(store)
	key := cache.NewKey("avatar")

	var values []any
	s.Register(key, func(v any) error { values = append(values, v); return nil })
	snap, _ := store.Get(key)
	store.Overlay(key, "blob")
	store.Restore(snap)

	require.Equal(t, []any{"blob", nil}, values)
}

func TestSynchronizer_UnregisterDetaches(t *testing.T) {
	store := &cache.Store{}
	s := New(store)
	key := cache.NewKey("auth")

	calls := 0
	unregister := s.Register(key, func(any) error { calls++; return nil })
	require.Equal(t, 1, s.Writers(key))
	require.Equal(t, 1, store.Subscribers(key))

	unregister()
	store.Set(key, "v1", cache.StatusFresh)

	require.Zero(t, calls)
	require.Zero(t, s.Writers(key))
	require.Zero(t, store.Subscribers(key))
}

func TestSynchronizer_Sync(t *testing.T) {
	store := &cache.Store{}
	s := New(store)
	key := cache.NewKey("auth")

	calls := 0
	s.Register(key, func(any) error { calls++; return nil })
	store.Set(key, "v1", cache.StatusFresh)
	s.Sync(key)

	require.Equal(t, 2, calls)
}
