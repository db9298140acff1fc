package app

import (
	"context"
	"log"
	"net"
	"net/url"
	"strings"
	"time"
)

const defaultProbeInterval = 5 * time.Second

// WatchOnline probes reachability at a fixed cadence in a background
// goroutine. The returned channel fires each time a probe succeeds after one
// or more failed probes. It returns immediately.
func WatchOnline(ctx context.Context, probe func(context.Context) error, interval time.Duration) <-chan struct{} {
	if interval <= 0 {
		interval = defaultProbeInterval
	}
	online := make(chan struct{}, 1)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		offline := false
		for {
			err := probe(ctx)
			switch {
			case err != nil && ctx.Err() == nil && !offline:
				offline = true
				log.Printf("api unreachable: %v", err)
			case err == nil && offline:
				offline = false
				select {
				case online <- struct{}{}:
				default:
				}
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return online
}

// dialProbe returns a probe that opens and closes a TCP connection to the
// API host.
func dialProbe(apiBind string, timeout time.Duration) func(context.Context) error {
	addr := strings.TrimSpace(apiBind)
	if strings.Contains(addr, "://") {
		if u, err := url.Parse(addr); err == nil {
			addr = u.Host
		}
	}
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return err
		}
		return conn.Close()
	}
}
