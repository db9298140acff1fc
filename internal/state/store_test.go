package state

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/five82/shutter/internal/cache"
	"github.com/five82/shutter/internal/mirror"
	"github.com/five82/shutter/internal/transport"
)

func TestStore_MirrorAndSnapshot(t *testing.T) {
	var s Store

	before := time.Now()
	if err := s.Mirror(transport.Profile{ID: "u1", Name: "Ahmed"}); err != nil {
		t.Fatalf("Mirror returned error: %v", err)
	}

	snap := s.Snapshot()
	if !snap.HasProfile || snap.Profile.Name != "Ahmed" {
		t.Fatalf("snapshot profile = %#v, want Ahmed HasProfile=true", snap.Profile)
	}
	if snap.LastMirrored.Before(before) {
		t.Fatalf("LastMirrored = %v, want >= %v", snap.LastMirrored, before)
	}
	if !snap.LastSynced.IsZero() {
		t.Fatalf("LastSynced = %v, want zero before any refresh", snap.LastSynced)
	}

	if err := s.Mirror(nil); err != nil {
		t.Fatalf("Mirror(nil) returned error: %v", err)
	}
	if s.Snapshot().HasProfile {
		t.Fatalf("HasProfile = true after nil mirror, want false")
	}
}

func TestStore_MirrorRejectsForeignValues(t *testing.T) {
	var s Store
	_ = s.Mirror(transport.Profile{Name: "Ahmed"})

	if err := s.Mirror("not a profile"); err == nil {
		t.Fatalf("Mirror returned nil error, want type error")
	}
	if s.Snapshot().Profile.Name != "Ahmed" {
		t.Fatalf("profile changed on rejected write")
	}
}

func TestStore_RecordRefreshErrorKeepsProfile(t *testing.T) {
	var s Store
	_ = s.Mirror(transport.Profile{ID: "u1", Name: "Ahmed"})

	origErr := errors.New("boom")
	s.RecordRefresh(origErr)

	snap := s.Snapshot()
	if !snap.HasProfile || snap.Profile.Name != "Ahmed" {
		t.Fatalf("profile changed on error: got %#v", snap.Profile)
	}
	if snap.LastError == nil || snap.LastError.Error() != "boom" {
		t.Fatalf("LastError = %v, want boom", snap.LastError)
	}
	if reflect.ValueOf(snap.LastError).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Snapshot should clone error instance")
	}
}

func TestStore_ConsecutiveFailures(t *testing.T) {
	var s Store

	if s.Snapshot().IsOffline() {
		t.Fatal("IsOffline() = true, want false with 0 failures")
	}

	s.RecordRefresh(errors.New("fail 1"))
	if snap := s.Snapshot(); snap.ConsecutiveFailures != 1 || snap.IsOffline() {
		t.Fatalf("after 1 failure: failures=%d offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}

	s.RecordRefresh(errors.New("fail 2"))
	if snap := s.Snapshot(); snap.ConsecutiveFailures != 2 || !snap.IsOffline() {
		t.Fatalf("after 2 failures: failures=%d offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}

	s.RecordRefresh(nil)
	if snap := s.Snapshot(); snap.ConsecutiveFailures != 0 || snap.IsOffline() || snap.LastError != nil {
		t.Fatalf("after success: %#v, want reset", snap)
	}
}

func TestStore_FollowsCacheThroughSynchronizer(t *testing.T) {
	var s Store
	c := &cache.Store{}
	key := cache.NewKey("auth")
	mirror.New(c).Register(key, s.Mirror)

	c.Set(key, transport.Profile{Name: "Ahmed"}, cache.StatusFresh)
	snap, _ := c.Get(key)
	c.Overlay(key, transport.Profile{Name: "Sara"})
	if got := s.Snapshot().Profile.Name; got != "Sara" {
		t.Fatalf("mirror name = %q, want optimistic Sara", got)
	}

	c.Restore(snap)
	if got := s.Snapshot().Profile.Name; got != "Ahmed" {
		t.Fatalf("mirror name = %q, want rolled back Ahmed", got)
	}
}

func TestStore_LastSyncedOnlyOnConfirmedRefresh(t *testing.T) {
	var s Store

	_ = s.Mirror(transport.Profile{Name: "Sara"})
	s.RecordRefresh(errors.New("offline"))
	if !s.Snapshot().LastSynced.IsZero() {
		t.Fatalf("LastSynced set by mirror push or failed refresh")
	}

	before := time.Now()
	s.RecordRefresh(nil)
	synced := s.Snapshot().LastSynced
	if synced.Before(before) {
		t.Fatalf("LastSynced = %v, want >= %v", synced, before)
	}

	_ = s.Mirror(transport.Profile{Name: "Sara (draft)"})
	if got := s.Snapshot().LastSynced; !got.Equal(synced) {
		t.Fatalf("LastSynced moved on mirror push: %v -> %v", synced, got)
	}
}
