// Package app provides the orchestration layer for the Shutter application.
//
// # Overview
//
// This package wires configuration, the HTTP client, the mutation engine and
// the UI into the complete profile editor. It is the composition root: every
// dependency is created here and handed to the packages that use it.
//
// # Components
//
//   - app.go: Run, which loads config, builds the client and starts the UI
//   - engine.go: Engine, the cache store with its mirrors, pending registry,
//     mutation coordinator, profile service and session revalidator
//   - online.go: WatchOnline, a background reachability probe that feeds the
//     revalidator's online signal
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │ Initialize everything
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()        Read config.toml
//	       ├─────> transport.NewClient() Create HTTP client
//	       ├─────> NewEngine()          Cache, mirrors, coordinator
//	       ├─────> WatchOnline()        Reachability probe
//	       ├─────> Engine.Start()       Hydrate, mirror, revalidate
//	       └─────> ui.Run()             Start TUI (blocks)
//
//	Identity updates:
//	┌─────────────────────────────────────────┐
//	│ cache.Store (identity key)              │
//	│  ├─> mirror.Synchronizer -> state.Store │
//	│  │     └─> UI reads Snapshot()          │
//	│  └─> persist.Track -> identity.toml     │
//	└─────────────────────────────────────────┘
//
// # Revalidation
//
// The session revalidator refetches the identity on start, every
// revalidate_interval, when the terminal regains focus (Engine.Focus) and when
// WatchOnline sees the API come back. Failures keep the cached profile and are
// recorded on the state store; two in a row mark the UI offline.
//
// # Error Handling
//
// Fatal errors (returned from Run):
//   - Configuration file unreadable or invalid
//   - API client initialization failure
//
// Recoverable errors (logged, the editor keeps running):
//   - Session refresh failures
//   - Snapshot save failures
//   - Mutation failures, which are rolled back and shown in the UI
//
// # Usage Example
//
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer cancel()
//
//	if err := app.Run(ctx, app.Options{}); err != nil {
//		log.Fatalf("shutter failed: %v", err)
//	}
package app
