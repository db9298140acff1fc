package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/shutter/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override config path (optional)")
	revalidate := flag.Duration("revalidate", 0, "session revalidation interval (optional, defaults to config or 13m)")
	theme := flag.String("theme", "", "color theme: Nightfox or Kanagawa (optional)")
	logPath := flag.String("log", "", "write diagnostics to this file (optional)")
	flag.Parse()

	// The TUI owns the terminal; diagnostics go to a file or nowhere.
	if *logPath != "" {
		f, err := tea.LogToFile(*logPath, "shutter")
		if err != nil {
			fmt.Fprintf(os.Stderr, "shutter: open log: %v\n", err)
			return 1
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{ConfigPath: *configPath, ThemeName: *theme, LogPath: *logPath}
	if d := *revalidate; d > 0 {
		opts.RevalidateEvery = d
	}

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "shutter: %v\n", err)
		return 1
	}
	return 0
}
