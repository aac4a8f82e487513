package eventstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wexpertsystems/seguro/internal/storage"
)

var (
	// ErrNotFound reports a read of an id with no stored fragments.
	ErrNotFound = errors.New("eventstore: event not found")
	// ErrCorrupted reports stored fragments that fail reassembly checks.
	ErrCorrupted = errors.New("eventstore: stored event corrupted")
	// ErrInvalidBatchSize reports a non-positive batch size.
	ErrInvalidBatchSize = errors.New("eventstore: batch size must be positive")
)

// Options configures a Store.
type Options struct {
	// BatchSize is the number of fragment writes staged per transaction.
	// Required; must be positive.
	BatchSize int
	// Metrics observes every commit the store performs. Optional.
	Metrics MetricsHook
}

// Store reads and writes fragmented events against an ordered KV engine.
// A Store is safe for concurrent use; each call manages its own transactions.
type Store struct {
	eng       storage.Engine
	batchSize uint32
	metrics   MetricsHook
}

// Open validates opts and returns a Store over eng.
func Open(eng storage.Engine, opts Options) (*Store, error) {
	if opts.BatchSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBatchSize, opts.BatchSize)
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &Store{eng: eng, batchSize: uint32(opts.BatchSize), metrics: metrics}, nil
}

// BatchSize returns the configured fragment writes per transaction.
func (s *Store) BatchSize() int { return int(s.batchSize) }

// commit applies tx synchronously and folds its timing into the metrics hook.
func (s *Store) commit(ctx context.Context, tx storage.Tx, ops int) error {
	start := time.Now()
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	s.metrics.ObserveCommit(time.Since(start), ops)
	return nil
}
