package app

import (
	"context"
	"errors"
	"log"

	"github.com/five82/shutter/internal/cache"
	"github.com/five82/shutter/internal/config"
	"github.com/five82/shutter/internal/mirror"
	"github.com/five82/shutter/internal/mutation"
	"github.com/five82/shutter/internal/pending"
	"github.com/five82/shutter/internal/persist"
	"github.com/five82/shutter/internal/profile"
	"github.com/five82/shutter/internal/session"
	"github.com/five82/shutter/internal/state"
	"github.com/five82/shutter/internal/transport"
)

// Engine holds the wired mutation engine for one signed-in identity.
type Engine struct {
	Cache     *cache.Store
	Mirrors   *mirror.Synchronizer
	Pending   *pending.Registry
	Mutations *mutation.Coordinator
	Counters  *mutation.Counters
	Profile   *profile.Service
	Identity  *state.Store
	Session   *session.Revalidator

	snapshotPath string
	focus        chan struct{}
}

// NewEngine wires the cache, mirrors, coordinator and revalidator around api.
func NewEngine(api transport.API, cfg config.Config) *Engine {
	store := cache.NewStore(nil)
	registry := &pending.Registry{}
	counters := &mutation.Counters{}

	coord := mutation.NewCoordinator(store, registry)
	coord.Metrics = counters

	e := &Engine{
		Cache:        store,
		Mirrors:      mirror.New(store),
		Pending:      registry,
		Mutations:    coord,
		Counters:     counters,
		Profile:      profile.NewService(store, coord, api),
		Identity:     &state.Store{},
		snapshotPath: cfg.SnapshotPath,
		focus:        make(chan struct{}, 1),
	}
	e.Session = &session.Revalidator{
		Store:    store,
		Key:      profile.IdentityKey,
		Interval: cfg.RevalidateInterval,
		Focus:    e.focus,
		OnError:  e.sessionFailed,
		OnTransition: func(_, to session.State) {
			if to == session.StateFresh {
				e.Identity.RecordRefresh(nil)
			}
		},
	}
	return e
}

// Start hydrates the identity from disk, attaches the mirrors and runs the
// revalidator until ctx is cancelled. online may be nil.
func (e *Engine) Start(ctx context.Context, online <-chan struct{}) {
	if persist.Hydrate(e.Cache, profile.IdentityKey, e.snapshotPath) {
		log.Printf("identity restored from %s", e.snapshotPath)
	}

	unregister := e.Mirrors.Register(profile.IdentityKey, e.Identity.Mirror)
	stopTracking := persist.Track(e.Cache, profile.IdentityKey, e.snapshotPath, func(err error) {
		log.Printf("identity snapshot not saved: %v", err)
	})

	e.Session.Online = online
	e.Session.Start(ctx)

	go func() {
		<-ctx.Done()
		stopTracking()
		unregister()
	}()
}

// Focus asks the revalidator to refetch the identity. It never blocks.
func (e *Engine) Focus() {
	select {
	case e.focus <- struct{}{}:
	default:
	}
}

func (e *Engine) sessionFailed(err error, consecutive int) {
	e.Identity.RecordRefresh(err)
	if errors.Is(err, transport.ErrUnauthorized) {
		log.Printf("session expired; sign in again")
		return
	}
	log.Printf("session refresh failed (%d consecutive): %v", consecutive, err)
}
