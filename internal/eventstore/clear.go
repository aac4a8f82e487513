package eventstore

import (
	"context"
	"fmt"

	"github.com/wexpertsystems/seguro/internal/event"
)

// clearsPerCommit bounds how many range clears a single cleanup transaction
// accumulates before it commits.
const clearsPerCommit = 10000

// ClearEvent removes every fragment of fe in one transaction. Clearing an
// absent event succeeds.
func (s *Store) ClearEvent(ctx context.Context, fe *event.FragmentedEvent) error {
	start, end := EventRange(fe.ID, fe.NumFragments)
	tx := s.eng.BeginTx()
	defer tx.Discard()

	if err := tx.ClearRange(start, end); err != nil {
		return fmt.Errorf("eventstore: clear event %d: %w", fe.ID, err)
	}
	if err := s.commit(ctx, tx, 1); err != nil {
		return fmt.Errorf("eventstore: clear event %d: %w", fe.ID, err)
	}
	return nil
}

// ClearEvents removes every fragment of each event in fes, batching range
// clears into transactions of at most clearsPerCommit.
func (s *Store) ClearEvents(ctx context.Context, fes []event.FragmentedEvent) error {
	if len(fes) == 0 {
		return nil
	}
	tx := s.eng.BeginTx()
	defer func() { tx.Discard() }()

	pending := 0
	for i := range fes {
		start, end := EventRange(fes[i].ID, fes[i].NumFragments)
		if err := tx.ClearRange(start, end); err != nil {
			return fmt.Errorf("eventstore: clear event %d: %w", fes[i].ID, err)
		}
		pending++
		if pending == clearsPerCommit {
			if err := s.commit(ctx, tx, pending); err != nil {
				return fmt.Errorf("eventstore: commit clears: %w", err)
			}
			tx = s.eng.BeginTx()
			pending = 0
		}
	}
	if pending > 0 {
		if err := s.commit(ctx, tx, pending); err != nil {
			return fmt.Errorf("eventstore: commit clears: %w", err)
		}
	}
	return nil
}

// ClearDatabase removes every key in the store's keyspace with a single
// range clear.
func (s *Store) ClearDatabase(ctx context.Context) error {
	start, end := DatabaseRange()
	tx := s.eng.BeginTx()
	defer tx.Discard()

	if err := tx.ClearRange(start, end); err != nil {
		return fmt.Errorf("eventstore: clear database: %w", err)
	}
	if err := s.commit(ctx, tx, 1); err != nil {
		return fmt.Errorf("eventstore: clear database: %w", err)
	}
	return nil
}
