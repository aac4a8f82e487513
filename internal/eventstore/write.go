package eventstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wexpertsystems/seguro/internal/event"
	"github.com/wexpertsystems/seguro/internal/storage"
)

// addFragments stages up to limit fragment writes of fe starting at pos and
// returns how many were staged. Fragment 0's stored value carries the count
// header before its payload; every other value is the raw chunk.
func addFragments(tx storage.Tx, fe *event.FragmentedEvent, pos, limit uint32) (uint32, error) {
	var n uint32
	for ; n < limit && pos+n < fe.NumFragments; n++ {
		i := pos + n
		frag := fe.Fragments[i]
		val := frag
		if i == 0 {
			val = make([]byte, 0, int(fe.HeaderLen)+len(frag))
			val = append(val, fe.HeaderBytes()...)
			val = append(val, frag...)
		}
		if err := tx.Set(EventKey(fe.ID, i), val); err != nil {
			return n, err
		}
	}
	return n, nil
}

// WriteBatch writes one transaction's worth of fe's fragments starting at
// pos and returns the next position. A pos at or past the fragment count is
// a no-op.
func (s *Store) WriteBatch(ctx context.Context, fe *event.FragmentedEvent, pos uint32) (uint32, error) {
	if pos >= fe.NumFragments {
		return pos, nil
	}
	tx := s.eng.BeginTx()
	defer tx.Discard()

	added, err := addFragments(tx, fe, pos, s.batchSize)
	if err != nil {
		return pos, fmt.Errorf("eventstore: stage fragments: %w", err)
	}
	if err := s.commit(ctx, tx, int(added)); err != nil {
		return pos, fmt.Errorf("eventstore: commit batch: %w", err)
	}
	return pos + added, nil
}

// WriteEvent writes all of fe's fragments, one batch-sized transaction at a
// time.
func (s *Store) WriteEvent(ctx context.Context, fe *event.FragmentedEvent) error {
	for pos := uint32(0); pos < fe.NumFragments; {
		next, err := s.WriteBatch(ctx, fe, pos)
		if err != nil {
			return err
		}
		pos = next
	}
	return nil
}

// WriteEvents writes a batch of events with battery fill: one open
// transaction accumulates fragment writes across event boundaries, and a
// commit happens each time it reaches the batch size. The final partial
// transaction is flushed after the loop; an exact multiple leaves nothing to
// flush, so total commits are always ceil(totalFragments/batchSize).
func (s *Store) WriteEvents(ctx context.Context, fes []event.FragmentedEvent) error {
	if len(fes) == 0 {
		return nil
	}
	tx := s.eng.BeginTx()
	defer func() { tx.Discard() }()

	var filled, pos uint32
	for i := 0; i < len(fes); {
		fe := &fes[i]
		added, err := addFragments(tx, fe, pos, s.batchSize-filled)
		if err != nil {
			return fmt.Errorf("eventstore: stage fragments: %w", err)
		}
		filled += added
		pos += added
		if pos >= fe.NumFragments {
			i++
			pos = 0
		}
		if filled == s.batchSize {
			if err := s.commit(ctx, tx, int(filled)); err != nil {
				return fmt.Errorf("eventstore: commit batch: %w", err)
			}
			tx = s.eng.BeginTx()
			filled = 0
		}
	}
	if filled > 0 {
		if err := s.commit(ctx, tx, int(filled)); err != nil {
			return fmt.Errorf("eventstore: commit batch: %w", err)
		}
	}
	return nil
}

// WriteEventsAsync writes a batch of events with the same battery fill as
// WriteEvents, but stages every transaction first and submits them all
// without blocking between commits. It blocks only at the final join, which
// waits for every commit's completion callback. Per-commit latency is folded
// into the metrics hook inside those callbacks; the first commit error wins.
// Cancelling ctx during staging abandons the write before anything is
// submitted.
func (s *Store) WriteEventsAsync(ctx context.Context, fes []event.FragmentedEvent) error {
	if len(fes) == 0 {
		return nil
	}

	var (
		txs    []storage.Tx
		txOps  []int
		filled uint32
		pos    uint32
	)
	tx := s.eng.BeginTx()
	submitted := false
	defer func() {
		// The engine owns submitted transactions; until then the staged
		// ones and the open trailing transaction are released here.
		tx.Discard()
		if !submitted {
			for _, t := range txs {
				t.Discard()
			}
		}
	}()

	for i := 0; i < len(fes); {
		if err := ctx.Err(); err != nil {
			return err
		}
		fe := &fes[i]
		added, err := addFragments(tx, fe, pos, s.batchSize-filled)
		if err != nil {
			return fmt.Errorf("eventstore: stage fragments: %w", err)
		}
		filled += added
		pos += added
		if pos >= fe.NumFragments {
			i++
			pos = 0
		}
		if filled == s.batchSize {
			txs = append(txs, tx)
			txOps = append(txOps, int(filled))
			tx = s.eng.BeginTx()
			filled = 0
		}
	}
	if filled > 0 {
		txs = append(txs, tx)
		txOps = append(txOps, int(filled))
		tx = s.eng.BeginTx() // leaves a fresh empty tx for the deferred discard
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	submitted = true
	for i, t := range txs {
		wg.Add(1)
		ops := txOps[i]
		start := time.Now()
		t.CommitAsync(func(err error) {
			defer wg.Done()
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			s.metrics.ObserveCommit(time.Since(start), ops)
		})
	}
	wg.Wait()

	if firstErr != nil {
		return fmt.Errorf("eventstore: async commit: %w", firstErr)
	}
	return nil
}
