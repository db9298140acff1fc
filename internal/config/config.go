package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures the settings Shutter reads at startup.
type Config struct {
	APIBind            string
	RevalidateInterval time.Duration
	RequestTimeout     time.Duration
	RequestsPerSecond  float64
	SnapshotPath       string
}

const (
	defaultConfigPath         = "~/.config/shutter/config.toml"
	defaultSnapshotPath       = "~/.local/state/shutter/identity.toml"
	defaultAPIBind            = "127.0.0.1:7490"
	defaultRevalidateInterval = 13 * time.Minute
	defaultRequestTimeout     = 10 * time.Second
	defaultRequestsPerSecond  = 5
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIBind:            defaultAPIBind,
		RevalidateInterval: defaultRevalidateInterval,
		RequestTimeout:     defaultRequestTimeout,
		RequestsPerSecond:  defaultRequestsPerSecond,
		SnapshotPath:       mustExpand(defaultSnapshotPath),
	}
}

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIBind            string  `toml:"api_bind"`
		RevalidateInterval string  `toml:"revalidate_interval"`
		RequestTimeout     string  `toml:"request_timeout"`
		RequestsPerSecond  float64 `toml:"requests_per_second"`
		SnapshotPath       string  `toml:"snapshot_path"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if bind := strings.TrimSpace(raw.APIBind); bind != "" {
		cfg.APIBind = bind
	}
	if cfg.RevalidateInterval, err = parseDuration("revalidate_interval", raw.RevalidateInterval, cfg.RevalidateInterval); err != nil {
		return Config{}, err
	}
	if cfg.RequestTimeout, err = parseDuration("request_timeout", raw.RequestTimeout, cfg.RequestTimeout); err != nil {
		return Config{}, err
	}
	if raw.RequestsPerSecond < 0 {
		return Config{}, fmt.Errorf("parse config: requests_per_second must not be negative")
	}
	if raw.RequestsPerSecond > 0 {
		cfg.RequestsPerSecond = raw.RequestsPerSecond
	}
	if p := strings.TrimSpace(raw.SnapshotPath); p != "" {
		cfg.SnapshotPath = mustExpand(p)
	}

	return cfg, nil
}

func parseDuration(field, value string, fallback time.Duration) (time.Duration, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil {
		return 0, fmt.Errorf("parse config: %s: %w", field, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("parse config: %s must be positive", field)
	}
	return d, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
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
