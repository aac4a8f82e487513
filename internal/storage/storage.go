package storage

import "context"

// KeyValue is one key/value pair returned by a range read. Both slices are
// copies owned by the caller.
type KeyValue struct {
	Key   []byte
	Value []byte
}

// RangeResult is one page of a range read.
type RangeResult struct {
	// Pairs holds the page contents in ascending key order.
	Pairs []KeyValue
	// More reports whether the range may hold pairs beyond this page. A
	// caller resumes by passing the last returned key as "after".
	More bool
}

// Tx is an atomic write transaction. Mutations are buffered until Commit or
// CommitAsync; a transaction is single-use and not safe for concurrent use.
type Tx interface {
	// Set records a key/value write.
	Set(key, value []byte) error
	// Clear records a single-key delete.
	Clear(key []byte) error
	// ClearRange records a delete of every key in [start, end).
	ClearRange(start, end []byte) error

	// Commit applies the transaction and waits for the engine to report
	// durability per its fsync policy. Cancelling ctx abandons the wait,
	// not the commit itself, which may still apply.
	Commit(ctx context.Context) error

	// CommitAsync submits the transaction without blocking. done is invoked
	// exactly once from the engine's commit loop with the commit outcome.
	CommitAsync(done func(error))

	// Discard releases an uncommitted transaction. It is a no-op after
	// Commit or CommitAsync.
	Discard()
}

// Engine is an ordered key-value store with atomic transactions.
//
// Engines may bound the data affected by a single transaction; callers keep
// transactions within the batch sizes they configure.
type Engine interface {
	// BeginTx starts an empty write transaction.
	BeginTx() Tx

	// GetRange returns pairs with keys in [start, end) and key > after, in
	// ascending order, at most limit pairs (0 means the engine's default
	// page size). A nil after starts from the beginning of the range.
	GetRange(ctx context.Context, start, end, after []byte, limit int) (RangeResult, error)

	// Close releases the engine. Outstanding commits are drained first.
	Close() error
}
