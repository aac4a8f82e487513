package benchrun

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/wexpertsystems/seguro/internal/bench"
	cfgpkg "github.com/wexpertsystems/seguro/internal/config"
	"github.com/wexpertsystems/seguro/internal/eventstore"
	"github.com/wexpertsystems/seguro/internal/runtime"
	pebblestore "github.com/wexpertsystems/seguro/internal/storage/pebble"
	logpkg "github.com/wexpertsystems/seguro/pkg/log"
)

func getenvDefault(key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}

// small wrapper to allow testing; replaced by os.Getenv at build time
var getenv = func(key string) string { return os.Getenv(key) }

// Options configure a benchmark invocation.
type Options struct {
	DataDir       string
	Fsync         pebblestore.FsyncMode
	FsyncInterval time.Duration
	Config        cfgpkg.Config

	// Run is the custom run shape; ignored when Suite is set except for
	// Async and Seed, which apply to every suite run.
	Run bench.Config
	// Suite runs the default shape x batch-size matrix instead of Run.
	Suite bool

	// Out receives progress dots and reports. Defaults to os.Stdout.
	Out io.Writer
}

// Run opens the runtime and executes the requested benchmark(s), blocking
// until they finish or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	// Be robust to callers that don't pass a signal-aware context. A local
	// signal context is layered over the provided one.
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.DataDir == "" {
		opts.DataDir = cfgpkg.DefaultDataDir()
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	// Build process-wide logger using env/ApplyConfig; defaults: level=info, format=text
	cfg := &logpkg.Config{
		Level:  getenvDefault("SEGURO_LOG_LEVEL", "info"),
		Format: getenvDefault("SEGURO_LOG_FORMAT", "text"),
	}
	procLogger, err := logpkg.ApplyConfig(cfg)
	if err != nil {
		// Fallback to a sane default
		lvl := logpkg.InfoLevel
		if l, e := logpkg.ParseLevel(cfg.Level); e == nil {
			lvl = l
		}
		procLogger = logpkg.NewLogger(logpkg.WithLevel(lvl))
	}

	// Redirect stdlib logs (e.g. Pebble's) to our logger
	logpkg.RedirectStdLog(procLogger)

	storeDir := filepath.Join(opts.DataDir, "store")
	rt, err := runtime.Open(runtime.Options{
		DataDir:       storeDir,
		Fsync:         opts.Fsync,
		FsyncInterval: opts.FsyncInterval,
		Config:        opts.Config,
		Logger:        procLogger,
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	procLogger.Info("starting seguro benchmarks",
		logpkg.Str("data_dir", storeDir),
		logpkg.Str("level", cfg.Level),
		logpkg.Str("format", cfg.Format),
		logpkg.Bool("suite", opts.Suite),
	)

	if opts.Suite {
		return runSuite(sctx, rt, opts, out, procLogger)
	}
	return runOne(sctx, rt, opts.Run, out, procLogger)
}

// runOne executes a single run with a store opened at the run's batch size
// over the shared engine, then compacts the keyspace.
func runOne(ctx context.Context, rt *runtime.Runtime, cfg bench.Config, out io.Writer, l logpkg.Logger) error {
	stats := eventstore.NewCommitStats()
	st, err := eventstore.Open(rt.DB(), eventstore.Options{BatchSize: cfg.BatchSize, Metrics: stats})
	if err != nil {
		return err
	}

	l.Info("benchmark run",
		logpkg.Int("events", cfg.Events),
		logpkg.Int("event_size", cfg.EventSize),
		logpkg.Int("batch_size", cfg.BatchSize),
		logpkg.Bool("async", cfg.Async),
	)
	report, err := bench.Run(ctx, st, cfg, bench.Options{Stats: stats, OnProgress: dots(out)})
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	renderReport(out, report)

	if !cfg.KeepData {
		if err := rt.Compact(); err != nil {
			return err
		}
	}
	return nil
}

func runSuite(ctx context.Context, rt *runtime.Runtime, opts Options, out io.Writer, l logpkg.Logger) error {
	for _, shape := range bench.SuiteShapes {
		for _, batch := range bench.SuiteBatchSizes {
			cfg := bench.Config{
				Events:    shape.Events,
				EventSize: shape.EventSize,
				BatchSize: batch,
				Async:     opts.Run.Async,
				Seed:      opts.Run.Seed,
			}
			fmt.Fprintf(out, "\n=== %s events x %s, batch %d ===\n",
				humanize.Comma(int64(shape.Events)), humanize.Bytes(uint64(shape.EventSize)), batch)
			if err := runOne(ctx, rt, cfg, out, l); err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
		}
	}
	return nil
}

// dots prints one dot per completed progress chunk.
func dots(out io.Writer) func(done, total int) {
	return func(done, total int) {
		if done == 0 {
			return
		}
		fmt.Fprint(out, ".")
	}
}

func throughput(n int64, d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	return uint64(float64(n) / d.Seconds())
}

func renderReport(out io.Writer, r bench.Report) {
	mode := "sync"
	if r.Async {
		mode = "async"
	}
	fmt.Fprintf(out, "events:    %s x %s (%s)\n",
		humanize.Comma(int64(r.Events)), humanize.Bytes(uint64(r.EventSize)), humanize.Bytes(uint64(r.BytesWritten)))
	fmt.Fprintf(out, "fragments: %s in %s commits (batch %d, %s)\n",
		humanize.Comma(int64(r.Fragments)), humanize.Comma(int64(r.Commits.Count)), r.BatchSize, mode)
	fmt.Fprintf(out, "write:     %s (%s/s), commit mean %s min %s max %s\n",
		r.WriteElapsed.Round(time.Millisecond),
		humanize.Bytes(throughput(r.BytesWritten, r.WriteElapsed)),
		r.Commits.Mean().Round(time.Microsecond),
		r.Commits.Min.Round(time.Microsecond),
		r.Commits.Max.Round(time.Microsecond))
	if r.ClearElapsed > 0 {
		fmt.Fprintf(out, "clear:     %s\n", r.ClearElapsed.Round(time.Millisecond))
	}
}
