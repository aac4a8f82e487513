package benchrun

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wexpertsystems/seguro/internal/bench"
	cfgpkg "github.com/wexpertsystems/seguro/internal/config"
	pebblestore "github.com/wexpertsystems/seguro/internal/storage/pebble"
)

func TestGetenvDefault(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		def      string
		envValue string
		expected string
	}{
		{"environment variable set", "SEGURO_TEST_VAR", "default", "env_value", "env_value"},
		{"environment variable not set", "SEGURO_TEST_VAR_NOT_SET", "default", "", "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				_ = os.Setenv(tt.key, tt.envValue)
			} else {
				_ = os.Unsetenv(tt.key)
			}
			t.Cleanup(func() { _ = os.Unsetenv(tt.key) })

			if got := getenvDefault(tt.key, tt.def); got != tt.expected {
				t.Errorf("getenvDefault(%s, %s) = %s, expected %s", tt.key, tt.def, got, tt.expected)
			}
		})
	}
}

func TestOptionsDataDirFallback(t *testing.T) {
	opts := Options{DataDir: ""}
	if opts.DataDir == "" {
		opts.DataDir = cfgpkg.DefaultDataDir()
	}
	if opts.DataDir == "" {
		t.Error("expected DataDir to be set after fallback")
	}
	if !filepath.IsAbs(opts.DataDir) && !strings.HasPrefix(opts.DataDir, "./") {
		t.Errorf("expected DataDir to be absolute or start with ./, got %s", opts.DataDir)
	}

	opts = Options{DataDir: "/custom/data"}
	if opts.DataDir != "/custom/data" {
		t.Errorf("provided DataDir not preserved: %s", opts.DataDir)
	}
}

// TestRunIntegration drives a small custom run end to end against a real
// engine in a temp directory.
func TestRunIntegration(t *testing.T) {
	var out bytes.Buffer
	opts := Options{
		DataDir: t.TempDir(),
		Fsync:   pebblestore.FsyncModeNever,
		Config:  cfgpkg.Default(),
		Run:     bench.Config{Events: 20, EventSize: 100, BatchSize: 5, Seed: 3},
		Out:     &out,
	}
	if err := Run(context.Background(), opts); err != nil {
		t.Fatalf("run: %v", err)
	}

	got := out.String()
	for _, want := range []string{"events:", "fragments:", "write:", "clear:"} {
		if !strings.Contains(got, want) {
			t.Fatalf("report missing %q in:\n%s", want, got)
		}
	}
	if !strings.Contains(got, ".") {
		t.Fatalf("no progress dots in:\n%s", got)
	}
}

func TestRunRejectsBadBatch(t *testing.T) {
	opts := Options{
		DataDir: t.TempDir(),
		Fsync:   pebblestore.FsyncModeNever,
		Config:  cfgpkg.Default(),
		Run:     bench.Config{Events: 5, EventSize: 100, BatchSize: 0},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Run(ctx, opts); err == nil {
		t.Fatalf("expected error for zero batch size")
	}
}
