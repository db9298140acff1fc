// Package persist keeps the last confirmed identity on disk so the editor can
// show a profile before the first refetch completes.
// Snapshots are stored in ~/.local/state/shutter/identity.toml by default.
package persist

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/shutter/internal/cache"
	"github.com/five82/shutter/internal/transport"
)

// Snapshot is the on-disk record of a confirmed identity.
type Snapshot struct {
	SavedAt time.Time         `toml:"saved_at"`
	Profile transport.Profile `toml:"profile"`
}

const defaultSnapshotPath = "~/.local/state/shutter/identity.toml"

// DefaultPath returns the default snapshot file path.
func DefaultPath() string {
	return defaultSnapshotPath
}

// Load reads the snapshot at path. A missing or unreadable file yields
// ok == false rather than an error.
func Load(path string) (Snapshot, bool) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Snapshot{}, false
	}

	file, err := os.Open(resolved)
	if err != nil {
		return Snapshot{}, false
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Snapshot{}, false
	}

	var snap Snapshot
	if err := toml.Unmarshal(bytes, &snap); err != nil {
		return Snapshot{}, false // Graceful degradation
	}
	if strings.TrimSpace(snap.Profile.ID) == "" {
		return Snapshot{}, false
	}
	return snap, true
}

// Save writes profile to path, creating directories as needed. The file is
// replaced atomically.
func Save(path string, profile transport.Profile) error {
	if strings.TrimSpace(profile.ID) == "" {
		return errors.New("profile has no id")
	}
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	bytes, err := toml.Marshal(Snapshot{SavedAt: time.Now().UTC(), Profile: profile})
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tmp := resolved + ".tmp"
	if err := os.WriteFile(tmp, bytes, 0o600); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, resolved); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// Track saves every confirmed profile written to key in store. Optimistic
// overlays and rollbacks are skipped. Failures are passed to report, which
// may be nil. The returned function stops tracking.
func Track(store *cache.Store, key cache.Key, path string, report func(error)) func() {
	return store.Subscribe(key, func(ent cache.Entry) {
		if !ent.HasValue || ent.Optimistic || ent.Status != cache.StatusFresh {
			return
		}
		profile, ok := ent.Value.(transport.Profile)
		if !ok {
			return
		}
		if err := Save(path, profile); err != nil && report != nil {
			report(err)
		}
	})
}

// Hydrate seeds key in store with the snapshot at path, marked stale so the
// first subscriber refetches it. It does nothing when key already holds a
// value or no usable snapshot exists.
func Hydrate(store *cache.Store, key cache.Key, path string) bool {
	if ent, ok := store.Get(key); ok && ent.HasValue {
		return false
	}
	snap, ok := Load(path)
	if !ok {
		return false
	}
	store.Set(key, snap.Profile, cache.StatusStale)
	return true
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultSnapshotPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
