package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/five82/shutter/internal/stub"
	"github.com/five82/shutter/internal/transport"
)

func main() {
	os.Exit(run())
}

func run() int {
	addr := flag.String("addr", "127.0.0.1:7490", "listen address")
	latency := flag.Duration("latency", 300*time.Millisecond, "delay added to every response")
	failWrites := flag.Int("fail-writes", 0, "number of writes to fail with 500 after applying them")
	name := flag.String("name", "Ahmed", "initial profile name")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := stub.New(transport.Profile{
		ID:        "u1",
		Name:      *name,
		Email:     "ahmed@example.com",
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	})
	srv.Latency = *latency
	srv.FailWrites(*failWrites)

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           srv,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	log.Printf("stub api listening on %s", *addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Fprintf(os.Stderr, "shutter-stub: %v\n", err)
		return 1
	}
	return 0
}
