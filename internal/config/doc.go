// Package config handles loading and parsing the Shutter configuration file.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/shutter/config.toml (default)
//  3. If the config file doesn't exist, fall back to Default()
//  4. If the file exists but fields are missing or empty, use defaults
//
// # Default Values
//
//   - API endpoint: 127.0.0.1:7490
//   - Session revalidation: every 13m
//   - Request timeout: 10s
//   - Request rate: 5 per second
//   - Identity snapshot: ~/.local/state/shutter/identity.toml
//
// # TOML Format
//
//	api_bind = "127.0.0.1:7490"
//	revalidate_interval = "13m"
//	request_timeout = "10s"
//	requests_per_second = 5
//	snapshot_path = "~/.local/state/shutter/identity.toml"
//
// Durations use time.ParseDuration syntax and must be positive. Tilde
// expansion is performed on snapshot_path.
//
// # Error Handling
//
// Load returns errors for path expansion failures, read errors other than
// os.ErrNotExist, TOML syntax errors and invalid values. Missing config files
// are not an error.
package config
