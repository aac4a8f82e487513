package pebblestore

import (
	"context"
	"errors"

	"github.com/cockroachdb/pebble"

	"github.com/wexpertsystems/seguro/internal/storage"
)

var errTxFinished = errors.New("pebble: transaction already finished")

// Tx buffers mutations in a Pebble batch until committed through the engine's
// commit loop. A Tx is single-use and not safe for concurrent use.
type Tx struct {
	db       *DB
	b        *pebble.Batch
	finished bool
}

// BeginTx starts an empty write transaction.
func (db *DB) BeginTx() storage.Tx {
	return &Tx{db: db, b: db.inner.NewBatch()}
}

// Set records a key/value write.
func (t *Tx) Set(key, value []byte) error {
	if t.finished {
		return errTxFinished
	}
	return t.b.Set(key, value, nil)
}

// Clear records a single-key delete.
func (t *Tx) Clear(key []byte) error {
	if t.finished {
		return errTxFinished
	}
	return t.b.Delete(key, nil)
}

// ClearRange records a delete of every key in [start, end).
func (t *Tx) ClearRange(start, end []byte) error {
	if t.finished {
		return errTxFinished
	}
	return t.b.DeleteRange(start, end, nil)
}

// Commit submits the batch to the commit loop and waits for the outcome.
// Cancelling ctx abandons the wait only; the commit may still apply.
func (t *Tx) Commit(ctx context.Context) error {
	if t.finished {
		return errTxFinished
	}
	t.finished = true

	ch := make(chan error, 1)
	if err := t.db.submit(commitRequest{b: t.b, done: func(err error) { ch <- err }}); err != nil {
		_ = t.b.Close()
		return err
	}
	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CommitAsync submits the batch without blocking. done fires exactly once:
// from the commit loop on the normal path, or inline when the engine is
// already closed.
func (t *Tx) CommitAsync(done func(error)) {
	if done == nil {
		done = func(error) {}
	}
	if t.finished {
		done(errTxFinished)
		return
	}
	t.finished = true

	if err := t.db.submit(commitRequest{b: t.b, done: done}); err != nil {
		_ = t.b.Close()
		done(err)
	}
}

// Discard releases an uncommitted transaction. No-op after Commit,
// CommitAsync, or a prior Discard.
func (t *Tx) Discard() {
	if t.finished {
		return
	}
	t.finished = true
	_ = t.b.Close()
}
