package pebblestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"

	"github.com/wexpertsystems/seguro/pkg/log"
)

// FsyncMode defines durability behavior for committed transactions.
type FsyncMode int

const (
	FsyncModeUnspecified FsyncMode = iota
	// FsyncModeAlways requests a WAL fsync on each committed transaction.
	FsyncModeAlways
	// FsyncModeInterval enables group-commit by allowing Pebble to coalesce
	// WAL syncs for commits within the configured interval.
	FsyncModeInterval
	// FsyncModeNever avoids forcing WAL syncs from the application. Pebble may
	// still sync based on its own policies. This mode trades durability
	// latency for throughput and should be used with care.
	FsyncModeNever
)

// ParseFsyncMode converts a mode name ("always", "interval", "never") to an
// FsyncMode.
func ParseFsyncMode(s string) (FsyncMode, error) {
	switch s {
	case "always":
		return FsyncModeAlways, nil
	case "interval", "":
		return FsyncModeInterval, nil
	case "never":
		return FsyncModeNever, nil
	default:
		return FsyncModeUnspecified, fmt.Errorf("pebble: unknown fsync mode %q", s)
	}
}

// Options configures the Pebble engine.
type Options struct {
	// DataDir is the path to the Pebble database directory.
	DataDir string
	// Fsync determines when to sync the WAL.
	Fsync FsyncMode
	// FsyncInterval controls group-commit when Fsync=FsyncModeInterval.
	FsyncInterval time.Duration
	// RangePageSize caps the pairs returned per GetRange page when the
	// caller does not pass a limit. Defaults to 256.
	RangePageSize int
	// PebbleOptions allows advanced tuning of Pebble. If nil, sensible defaults are used.
	PebbleOptions *pebble.Options
	// Metrics allows observing read/write/commit latencies and sizes. Optional.
	Metrics MetricsHook
	// Logger receives Pebble's internal logging. Optional.
	Logger log.Logger
}

// MetricsHook is a minimal hook surface for storage observations.
type MetricsHook interface {
	ObserveWrite(elapsed time.Duration, bytes int)
	ObserveRead(elapsed time.Duration, bytes int)
	ObserveBatchCommit(elapsed time.Duration, numOps int, bytes int)
}

// NoopMetrics is used when no metrics hook is provided.
type NoopMetrics struct{}

func (NoopMetrics) ObserveWrite(time.Duration, int)            {}
func (NoopMetrics) ObserveRead(time.Duration, int)             {}
func (NoopMetrics) ObserveBatchCommit(time.Duration, int, int) {}

// ErrClosed is returned for operations submitted after Close.
var ErrClosed = errors.New("pebble: engine closed")

// formatKey lives in the reserved 0xFF namespace so clears of the user
// keyspace [0x00, 0xFF) never touch it.
var formatKey = []byte("\xff/seguro/format")

const formatVersion = "1"

const defaultRangePageSize = 256

type commitRequest struct {
	b    *pebble.Batch
	done func(error)
}

// DB wraps a Pebble database behind the storage.Engine contract. All commits
// flow through a single commit-loop goroutine that applies the configured
// fsync policy and fires completion callbacks.
type DB struct {
	inner     *pebble.DB
	writeSync bool
	metrics   MetricsHook
	pageSize  int

	// qmu guards queue and closed. The queue is unbounded: submission must
	// never block behind a slow commit.
	qmu    sync.Mutex
	qcond  *sync.Cond
	queue  []commitRequest
	closed bool

	loopDone  chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// Open creates or opens a Pebble database with the provided options and
// starts its commit loop.
func Open(opts Options) (*DB, error) {
	if opts.DataDir == "" {
		return nil, errors.New("pebble: Options.DataDir is required")
	}

	po := opts.PebbleOptions
	if po == nil {
		po = &pebble.Options{}
	}
	if opts.Logger != nil {
		po.Logger = pebbleLogger{l: opts.Logger.With(log.Component("pebble"))}
	}

	// Configure group-commit via WALMinSyncInterval when desired.
	switch opts.Fsync {
	case FsyncModeAlways:
		// Force Sync on each commit. WALMinSyncInterval left at default (0).
	case FsyncModeInterval:
		if opts.FsyncInterval <= 0 {
			opts.FsyncInterval = 5 * time.Millisecond
		}
		po.WALMinSyncInterval = func() time.Duration { return opts.FsyncInterval }
	case FsyncModeNever:
		// Neither set WALMinSyncInterval nor Sync on commits.
	default:
		// Default to small group-commit for reasonable latency/throughput tradeoff.
		po.WALMinSyncInterval = func() time.Duration { return 5 * time.Millisecond }
	}

	inner, err := pebble.Open(opts.DataDir, po)
	if err != nil {
		return nil, err
	}
	if err := checkFormat(inner); err != nil {
		_ = inner.Close()
		return nil, err
	}

	metrics := opts.Metrics
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	pageSize := opts.RangePageSize
	if pageSize <= 0 {
		pageSize = defaultRangePageSize
	}

	db := &DB{
		inner:     inner,
		writeSync: opts.Fsync == FsyncModeAlways,
		metrics:   metrics,
		pageSize:  pageSize,
		loopDone:  make(chan struct{}),
	}
	db.qcond = sync.NewCond(&db.qmu)
	go db.commitLoop()
	return db, nil
}

// checkFormat stamps a fresh database with the current format version and
// rejects directories written by an incompatible version.
func checkFormat(inner *pebble.DB) error {
	val, closer, err := inner.Get(formatKey)
	switch {
	case err == nil:
		current := string(val)
		_ = closer.Close()
		if current != formatVersion {
			return fmt.Errorf("pebble: unsupported data format %q (want %q)", current, formatVersion)
		}
		return nil
	case errors.Is(err, pebble.ErrNotFound):
		return inner.Set(formatKey, []byte(formatVersion), pebble.Sync)
	default:
		return err
	}
}

// commitLoop owns every transaction commit. Running them on one goroutine
// keeps fsync policy application in one place and gives CommitAsync its
// completion-callback execution context. After Close is requested the loop
// still drains every accepted request, so each callback fires exactly once.
func (db *DB) commitLoop() {
	defer close(db.loopDone)
	syncMode := pebble.NoSync
	if db.writeSync {
		syncMode = pebble.Sync
	}
	for {
		db.qmu.Lock()
		for len(db.queue) == 0 && !db.closed {
			db.qcond.Wait()
		}
		if len(db.queue) == 0 {
			db.qmu.Unlock()
			return
		}
		pending := db.queue
		db.queue = nil
		db.qmu.Unlock()

		for _, req := range pending {
			start := time.Now()
			ops := int(req.b.Count())
			size := req.b.Len()
			err := req.b.Commit(syncMode)
			db.metrics.ObserveBatchCommit(time.Since(start), ops, size)
			if cerr := req.b.Close(); err == nil {
				err = cerr
			}
			if req.done != nil {
				req.done(err)
			}
		}
	}
}

// submit hands a batch to the commit loop. The loop owns the batch from this
// point, including closing it. Submission appends and returns; it never
// waits on in-flight commits.
func (db *DB) submit(req commitRequest) error {
	db.qmu.Lock()
	defer db.qmu.Unlock()
	if db.closed {
		return ErrClosed
	}
	db.queue = append(db.queue, req)
	db.qcond.Signal()
	return nil
}

// Close drains the commit loop and closes the Pebble database. Further
// commits fail with ErrClosed.
func (db *DB) Close() error {
	if db == nil || db.inner == nil {
		return nil
	}
	db.closeOnce.Do(func() {
		db.qmu.Lock()
		db.closed = true
		db.qcond.Broadcast()
		db.qmu.Unlock()
		<-db.loopDone
		db.closeErr = db.inner.Close()
	})
	return db.closeErr
}

// Set writes a single key through the commit loop, respecting fsync policy.
func (db *DB) Set(key, value []byte) error {
	start := time.Now()
	tx := db.BeginTx()
	if err := tx.Set(key, value); err != nil {
		tx.Discard()
		return err
	}
	if err := tx.Commit(context.Background()); err != nil {
		return err
	}
	db.metrics.ObserveWrite(time.Since(start), len(value))
	return nil
}

// Delete removes a single key through the commit loop.
func (db *DB) Delete(key []byte) error {
	tx := db.BeginTx()
	if err := tx.Clear(key); err != nil {
		tx.Discard()
		return err
	}
	return tx.Commit(context.Background())
}

// Get copies the value for the given key. Missing keys return
// pebble.ErrNotFound.
func (db *DB) Get(key []byte) ([]byte, error) {
	start := time.Now()
	val, closer, err := db.inner.Get(key)
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	buf := append([]byte(nil), val...)
	db.metrics.ObserveRead(time.Since(start), len(buf))
	return buf, nil
}

// CompactRange requests compaction of the key range [start, end). Useful
// after mass range deletes so later scans do not wade through tombstones.
func (db *DB) CompactRange(start, end []byte) error {
	if bytes.Compare(start, end) >= 0 {
		return errors.New("pebble: invalid compaction range")
	}
	return db.inner.Compact(start, end, true)
}

// pebbleLogger adapts the facade logger to Pebble's internal logging
// interface. Pebble treats Fatalf as unrecoverable.
type pebbleLogger struct {
	l log.Logger
}

func (p pebbleLogger) Infof(format string, args ...interface{}) {
	p.l.Debug(fmt.Sprintf(format, args...))
}

func (p pebbleLogger) Errorf(format string, args ...interface{}) {
	p.l.Error(fmt.Sprintf(format, args...))
}

func (p pebbleLogger) Fatalf(format string, args ...interface{}) {
	p.l.Error(fmt.Sprintf(format, args...))
	os.Exit(1)
}
