package app

import (
	"context"
	"fmt"
	"time"

	"github.com/five82/shutter/internal/config"
	"github.com/five82/shutter/internal/transport"
	"github.com/five82/shutter/internal/ui"
)

// Options configure the Shutter application.
type Options struct {
	ConfigPath      string
	RevalidateEvery time.Duration // zero uses the configured interval
	ThemeName       string
	LogPath         string // diagnostics log, shown in the UI when set
}

// Run boots the Shutter TUI until the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.RevalidateEvery > 0 {
		cfg.RevalidateInterval = opts.RevalidateEvery
	}

	client, err := transport.NewClient(cfg.APIBind, transport.Options{
		Timeout:           cfg.RequestTimeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
	})
	if err != nil {
		return fmt.Errorf("init api client: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	engine := NewEngine(client, cfg)
	online := WatchOnline(ctx, dialProbe(cfg.APIBind, cfg.RequestTimeout), defaultProbeInterval)
	engine.Start(ctx, online)

	return ui.Run(ui.Options{
		Context:   ctx,
		Identity:  engine.Identity,
		Editor:    engine.Profile,
		Pending:   engine.Pending,
		Session:   engine.Session,
		Focus:     engine.Focus,
		ThemeName: opts.ThemeName,
		LogPath:   opts.LogPath,
	})
}
