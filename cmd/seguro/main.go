package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wexpertsystems/seguro/internal/bench"
	benchrun "github.com/wexpertsystems/seguro/internal/cmd/bench"
	cfgpkg "github.com/wexpertsystems/seguro/internal/config"
	"github.com/wexpertsystems/seguro/internal/runtime"
	pebblestore "github.com/wexpertsystems/seguro/internal/storage/pebble"
	logpkg "github.com/wexpertsystems/seguro/pkg/log"
)

func main() {
	// Respect SEGURO_LOG_LEVEL for CLI output
	level := os.Getenv("SEGURO_LOG_LEVEL")
	parsed, err := logpkg.ParseLevel(level)
	if err != nil {
		parsed = logpkg.InfoLevel
	}
	logger := logpkg.NewLogger(logpkg.WithLevel(parsed))

	// Redirect standard library logs (used by Pebble) to our logger
	logpkg.RedirectStdLog(logger)

	rootCmd := &cobra.Command{
		Use:   "seguro",
		Short: "Seguro event store CLI",
		Long:  "Seguro persists oversized events as fragments in an ordered key-value store. This CLI runs benchmarks and manages the local store.",
	}

	rootCmd.AddCommand(newBenchCommand())
	rootCmd.AddCommand(newClearCommand(logger))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newBenchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run write/clear benchmarks against a local store",
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, _ := cmd.Flags().GetString("data-dir")
			events, _ := cmd.Flags().GetInt("events")
			size, _ := cmd.Flags().GetInt("size")
			batch, _ := cmd.Flags().GetInt("batch")
			async, _ := cmd.Flags().GetBool("async")
			seed, _ := cmd.Flags().GetInt64("seed")
			suite, _ := cmd.Flags().GetBool("suite")
			keep, _ := cmd.Flags().GetBool("keep")
			fsyncMode, _ := cmd.Flags().GetString("fsync")
			fsyncIntervalMs, _ := cmd.Flags().GetInt("fsync-interval-ms")

			mode, err := pebblestore.ParseFsyncMode(fsyncMode)
			if err != nil {
				return fmt.Errorf("invalid --fsync; use always|interval|never")
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := benchrun.Run(ctx, benchrun.Options{
				DataDir:       dataDir,
				Fsync:         mode,
				FsyncInterval: time.Duration(fsyncIntervalMs) * time.Millisecond,
				Config:        cfgpkg.Default(),
				Run: bench.Config{
					Events:    events,
					EventSize: size,
					BatchSize: batch,
					Async:     async,
					Seed:      seed,
					KeepData:  keep,
				},
				Suite: suite,
			}); err != nil {
				return fmt.Errorf("bench error: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().String("data-dir", "", "Data directory (if not specified, uses OS-specific application data directory)")
	cmd.Flags().Int("events", 10000, "Number of events to write")
	cmd.Flags().Int("size", 10000, "Event size in bytes")
	cmd.Flags().Int("batch", 10, "Fragment writes per transaction")
	cmd.Flags().Bool("async", false, "Overlap transaction commits")
	cmd.Flags().Int64("seed", 42, "Payload generator seed")
	cmd.Flags().Bool("suite", false, "Run the default shape x batch matrix instead of a single run")
	cmd.Flags().Bool("keep", false, "Keep written events (skip the clear phase)")
	cmd.Flags().String("fsync", "interval", "Fsync mode: always|interval|never")
	cmd.Flags().Int("fsync-interval-ms", 5, "When --fsync=interval, group-commit window in ms (default 5)")
	return cmd
}

func newClearCommand(logger logpkg.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every event from a local store",
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, _ := cmd.Flags().GetString("data-dir")
			yes, _ := cmd.Flags().GetBool("yes")
			if !yes {
				return fmt.Errorf("clear wipes the whole event keyspace; re-run with --yes")
			}
			if dataDir == "" {
				dataDir = cfgpkg.DefaultDataDir()
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			rt, err := runtime.Open(runtime.Options{
				DataDir: filepath.Join(dataDir, "store"),
				Fsync:   pebblestore.FsyncModeAlways,
				Config:  cfgpkg.Default(),
				Logger:  logger,
			})
			if err != nil {
				return err
			}
			defer rt.Close()

			before, err := rt.Store().CountKeys(ctx)
			if err != nil {
				return err
			}
			if err := rt.Store().ClearDatabase(ctx); err != nil {
				return err
			}
			if err := rt.Compact(); err != nil {
				return err
			}
			logger.Info("store cleared", logpkg.Uint64("keys_removed", before))
			return nil
		},
	}
	cmd.Flags().String("data-dir", "", "Data directory (if not specified, uses OS-specific application data directory)")
	cmd.Flags().Bool("yes", false, "Confirm wiping the event keyspace")
	return cmd
}
