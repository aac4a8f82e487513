package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	pebblestore "github.com/wexpertsystems/seguro/internal/storage/pebble"
	"github.com/wexpertsystems/seguro/pkg/log"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	// DataDir is the Pebble database directory.
	DataDir string `json:"data_dir" env:"SEGURO_DATA_DIR"`
	// Fsync selects the WAL durability mode: always, interval or never.
	Fsync string `json:"fsync" env:"SEGURO_FSYNC"`
	// FsyncIntervalMs is the group-commit window when Fsync is "interval".
	FsyncIntervalMs int `json:"fsync_interval_ms" env:"SEGURO_FSYNC_INTERVAL_MS"`
	// BatchSize is the number of fragment writes staged per transaction.
	BatchSize int `json:"batch_size" env:"SEGURO_BATCH_SIZE"`
	// RangePageSize caps pairs per range-read page. Zero keeps the engine
	// default.
	RangePageSize int    `json:"range_page_size" env:"SEGURO_RANGE_PAGE_SIZE"`
	LogLevel      string `json:"log_level" env:"SEGURO_LOG_LEVEL"`
	LogFormat     string `json:"log_format" env:"SEGURO_LOG_FORMAT"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		DataDir:         "./data",
		Fsync:           "interval",
		FsyncIntervalMs: 5,
		BatchSize:       10,
		RangePageSize:   256,
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

// Load reads configuration from a JSON file on top of Default. Unknown
// fields are rejected. If path is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return Config{}, errors.New("config: yaml not supported, use JSON")
	default:
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	return cfg, nil
}

// Validate checks that the configuration can actually drive a store.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("config: data_dir is required")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("config: batch_size must be positive, got %d", c.BatchSize)
	}
	if c.FsyncIntervalMs < 0 {
		return fmt.Errorf("config: fsync_interval_ms must not be negative, got %d", c.FsyncIntervalMs)
	}
	if c.RangePageSize < 0 {
		return fmt.Errorf("config: range_page_size must not be negative, got %d", c.RangePageSize)
	}
	if _, err := pebblestore.ParseFsyncMode(c.Fsync); err != nil {
		return err
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := log.ParseFormat(c.LogFormat); err != nil {
		return err
	}
	return nil
}

// FsyncMode maps the configured mode name onto the engine enum.
func (c Config) FsyncMode() (pebblestore.FsyncMode, error) {
	return pebblestore.ParseFsyncMode(c.Fsync)
}

// FsyncInterval returns the group-commit window as a duration.
func (c Config) FsyncInterval() time.Duration {
	return time.Duration(c.FsyncIntervalMs) * time.Millisecond
}

// DefaultDataDir picks a data directory for hosts that configure none.
// $XDG_DATA_HOME wins, then the platform's conventional application-data
// location, then a dotdir under home. Without a resolvable home directory
// everything lands in ./data.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "./data"
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "seguro")
	}
	for _, c := range []struct{ marker, dir string }{
		{"/var/lib", "/var/lib/seguro"},
		{filepath.Join(home, "Library"), filepath.Join(home, "Library", "Application Support", "Seguro")},
		{filepath.Join(home, "AppData"), filepath.Join(home, "AppData", "Local", "Seguro")},
	} {
		if isDir(c.marker) {
			return c.dir
		}
	}
	return filepath.Join(home, ".seguro")
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
