package runtime

import (
	"context"
	"errors"
	"time"

	cfgpkg "github.com/wexpertsystems/seguro/internal/config"
	"github.com/wexpertsystems/seguro/internal/eventstore"
	pebblestore "github.com/wexpertsystems/seguro/internal/storage/pebble"
	"github.com/wexpertsystems/seguro/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	// DataDir overrides Config.DataDir when set.
	DataDir       string
	Fsync         pebblestore.FsyncMode
	FsyncInterval time.Duration
	Config        cfgpkg.Config
	// Metrics observes every store commit. Optional.
	Metrics eventstore.MetricsHook
	// Logger receives engine-internal logging. Optional.
	Logger log.Logger
}

// Runtime wires the engine, the event store and config for a single-node
// instance.
type Runtime struct {
	db     *pebblestore.DB
	store  *eventstore.Store
	config cfgpkg.Config
}

// Open initializes the underlying storage and returns a Runtime.
func Open(opts Options) (*Runtime, error) {
	dataDir := opts.DataDir
	if dataDir == "" {
		dataDir = opts.Config.DataDir
	}
	db, err := pebblestore.Open(pebblestore.Options{
		DataDir:       dataDir,
		Fsync:         opts.Fsync,
		FsyncInterval: opts.FsyncInterval,
		RangePageSize: opts.Config.RangePageSize,
		Logger:        opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	st, err := eventstore.Open(db, eventstore.Options{
		BatchSize: opts.Config.BatchSize,
		Metrics:   opts.Metrics,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Runtime{db: db, store: st, config: opts.Config}, nil
}

// Close closes underlying resources.
func (r *Runtime) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// CheckHealth probes the engine with a bounded range read.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.db == nil {
		return errors.New("runtime: db not open")
	}
	start, end := eventstore.DatabaseRange()
	_, err := r.db.GetRange(ctx, start, end, nil, 1)
	return err
}

// Compact requests a compaction of the event keyspace. Called after mass
// clears so later scans do not wade through tombstones.
func (r *Runtime) Compact() error {
	if r.db == nil {
		return errors.New("runtime: db not open")
	}
	start, end := eventstore.DatabaseRange()
	return r.db.CompactRange(start, end)
}

// Store returns the event store.
func (r *Runtime) Store() *eventstore.Store { return r.store }

// DB exposes the underlying engine for advanced operations (internal use only).
func (r *Runtime) DB() *pebblestore.DB { return r.db }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }
