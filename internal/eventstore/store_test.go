package eventstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/wexpertsystems/seguro/internal/event"
	"github.com/wexpertsystems/seguro/internal/storage"
	pebblestore "github.com/wexpertsystems/seguro/internal/storage/pebble"
)

// newTestStore opens a store over a throwaway Pebble directory. The tiny
// range page size forces every multi-fragment read through the continuation
// path.
func newTestStore(t *testing.T, batchSize int) (*Store, *pebblestore.DB, *CommitStats) {
	t.Helper()
	dir := t.TempDir()
	db, err := pebblestore.Open(pebblestore.Options{
		DataDir:       dir,
		Fsync:         pebblestore.FsyncModeNever,
		RangePageSize: 4,
	})
	if err != nil {
		t.Fatalf("open pebble: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	stats := NewCommitStats()
	s, err := Open(db, Options{BatchSize: batchSize, Metrics: stats})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return s, db, stats
}

func patternData(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 251)
	}
	return b
}

func fragmented(t *testing.T, id uint64, n int) event.FragmentedEvent {
	t.Helper()
	fe, err := event.Fragment(&event.Event{ID: id, Data: patternData(n)})
	if err != nil {
		t.Fatalf("fragment %d bytes: %v", n, err)
	}
	return fe
}

func TestOpenRejectsBatchSize(t *testing.T) {
	dir := t.TempDir()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: dir, Fsync: pebblestore.FsyncModeNever})
	if err != nil {
		t.Fatalf("open pebble: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	for _, size := range []int{0, -1} {
		if _, err := Open(db, Options{BatchSize: size}); !errors.Is(err, ErrInvalidBatchSize) {
			t.Fatalf("batch size %d: got %v, want ErrInvalidBatchSize", size, err)
		}
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	s, _, _ := newTestStore(t, 2)
	ctx := context.Background()

	sizes := []int{0, 1, 9999, 10000, 10001, 25000, 30000, 30001}
	for i, size := range sizes {
		t.Run(fmt.Sprintf("%dB", size), func(t *testing.T) {
			id := uint64(100 + i)
			fe := fragmented(t, id, size)
			if err := s.WriteEvent(ctx, &fe); err != nil {
				t.Fatalf("write: %v", err)
			}
			got, err := s.ReadEvent(ctx, id)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if got.ID != id {
				t.Fatalf("read id = %d, want %d", got.ID, id)
			}
			if len(got.Data) != size || !bytes.Equal(got.Data, patternData(size)) {
				t.Fatalf("read %d bytes, payload mismatch for size %d", len(got.Data), size)
			}
		})
	}
}

func TestWriteBatchProgression(t *testing.T) {
	s, _, stats := newTestStore(t, 1)
	ctx := context.Background()

	fe := fragmented(t, 42, 30000)
	if fe.NumFragments != 3 {
		t.Fatalf("fragments = %d, want 3", fe.NumFragments)
	}
	pos := uint32(0)
	for want := uint32(1); want <= 3; want++ {
		next, err := s.WriteBatch(ctx, &fe, pos)
		if err != nil {
			t.Fatalf("write batch at %d: %v", pos, err)
		}
		if next != want {
			t.Fatalf("position after batch = %d, want %d", next, want)
		}
		pos = next
	}
	// Past the end the call is a no-op.
	next, err := s.WriteBatch(ctx, &fe, pos)
	if err != nil || next != pos {
		t.Fatalf("no-op batch = (%d, %v), want (%d, nil)", next, err, pos)
	}

	if snap := stats.Snapshot(); snap.Count != 3 || snap.Ops != 3 {
		t.Fatalf("commits = %d ops = %d, want 3 and 3", snap.Count, snap.Ops)
	}
	n, err := s.CountFragments(ctx, 42)
	if err != nil || n != 3 {
		t.Fatalf("fragment count = (%d, %v), want 3", n, err)
	}
	got, err := s.ReadEvent(ctx, 42)
	if err != nil || !bytes.Equal(got.Data, patternData(30000)) {
		t.Fatalf("read back after batched write failed: %v", err)
	}
}

// batteryCorpus yields events whose fragment counts are 1, 10 and 1, so a
// batch size of 4 commits mid-event and straddles event boundaries.
func batteryCorpus(t *testing.T) []event.FragmentedEvent {
	t.Helper()
	fes := []event.FragmentedEvent{
		fragmented(t, 1, 5000),
		fragmented(t, 2, 90001),
		fragmented(t, 3, 7000),
	}
	if fes[0].NumFragments != 1 || fes[1].NumFragments != 10 || fes[2].NumFragments != 1 {
		t.Fatalf("corpus fragment counts = %d/%d/%d, want 1/10/1",
			fes[0].NumFragments, fes[1].NumFragments, fes[2].NumFragments)
	}
	return fes
}

func verifyCorpus(t *testing.T, s *Store, fes []event.FragmentedEvent) {
	t.Helper()
	ctx := context.Background()
	for i := range fes {
		got, err := s.ReadEvent(ctx, fes[i].ID)
		if err != nil {
			t.Fatalf("read event %d: %v", fes[i].ID, err)
		}
		if len(got.Data) != fes[i].DataLen() {
			t.Fatalf("event %d: read %d bytes, want %d", fes[i].ID, len(got.Data), fes[i].DataLen())
		}
		if !bytes.Equal(got.Data, patternData(len(got.Data))) {
			t.Fatalf("event %d: payload mismatch", fes[i].ID)
		}
	}
}

func TestWriteEventsBatteryFill(t *testing.T) {
	s, _, stats := newTestStore(t, 4)
	ctx := context.Background()

	if err := s.WriteEvents(ctx, nil); err != nil {
		t.Fatalf("empty write: %v", err)
	}
	fes := batteryCorpus(t)
	if err := s.WriteEvents(ctx, fes); err != nil {
		t.Fatalf("write events: %v", err)
	}
	// 12 fragments at batch size 4 fill exactly 3 transactions.
	if snap := stats.Snapshot(); snap.Count != 3 || snap.Ops != 12 {
		t.Fatalf("commits = %d ops = %d, want 3 and 12", snap.Count, snap.Ops)
	}
	verifyCorpus(t, s, fes)
}

func TestWriteEventsExactMultiple(t *testing.T) {
	s, _, stats := newTestStore(t, 4)
	ctx := context.Background()

	fes := []event.FragmentedEvent{
		fragmented(t, 1, 5000),
		fragmented(t, 2, 15000),
		fragmented(t, 3, 3000),
	}
	if err := s.WriteEvents(ctx, fes); err != nil {
		t.Fatalf("write events: %v", err)
	}
	// 4 fragments at batch size 4: one commit, no empty trailing one.
	if snap := stats.Snapshot(); snap.Count != 1 || snap.Ops != 4 {
		t.Fatalf("commits = %d ops = %d, want 1 and 4", snap.Count, snap.Ops)
	}
	verifyCorpus(t, s, fes)
}

func TestWriteEventsAsync(t *testing.T) {
	s, _, stats := newTestStore(t, 4)
	ctx := context.Background()

	if err := s.WriteEventsAsync(ctx, nil); err != nil {
		t.Fatalf("empty async write: %v", err)
	}
	fes := batteryCorpus(t)
	if err := s.WriteEventsAsync(ctx, fes); err != nil {
		t.Fatalf("async write: %v", err)
	}
	if snap := stats.Snapshot(); snap.Count != 3 || snap.Ops != 12 {
		t.Fatalf("commits = %d ops = %d, want 3 and 12", snap.Count, snap.Ops)
	}
	verifyCorpus(t, s, fes)

	n, err := s.CountKeys(ctx)
	if err != nil || n != 12 {
		t.Fatalf("key count = (%d, %v), want 12", n, err)
	}
}

var errSetRejected = errors.New("set rejected")

// failEngine fails the nth Set across all of its transactions and records
// every transaction it hands out.
type failEngine struct {
	failAt int
	sets   int
	begun  []*failTx
}

func (e *failEngine) BeginTx() storage.Tx {
	tx := &failTx{eng: e}
	e.begun = append(e.begun, tx)
	return tx
}

func (e *failEngine) GetRange(context.Context, []byte, []byte, []byte, int) (storage.RangeResult, error) {
	return storage.RangeResult{}, nil
}

func (e *failEngine) Close() error { return nil }

type failTx struct {
	eng       *failEngine
	committed bool
	discarded bool
}

func (x *failTx) Set([]byte, []byte) error {
	x.eng.sets++
	if x.eng.sets == x.eng.failAt {
		return errSetRejected
	}
	return nil
}

func (x *failTx) Clear([]byte) error              { return nil }
func (x *failTx) ClearRange([]byte, []byte) error { return nil }

func (x *failTx) Commit(context.Context) error { x.committed = true; return nil }

func (x *failTx) CommitAsync(done func(error)) {
	x.committed = true
	if done != nil {
		done(nil)
	}
}

func (x *failTx) Discard() { x.discarded = true }

func TestWriteEventsAsyncReleasesStagedOnError(t *testing.T) {
	eng := &failEngine{failAt: 10}
	s, err := Open(eng, Options{BatchSize: 2})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	fes := make([]event.FragmentedEvent, 12)
	for i := range fes {
		fes[i] = fragmented(t, uint64(i+1), 100)
	}
	err = s.WriteEventsAsync(context.Background(), fes)
	if !errors.Is(err, errSetRejected) {
		t.Fatalf("got %v, want the staged-set failure", err)
	}

	// Five transactions were begun by the time the tenth set failed; none
	// may commit and every one must be released.
	if len(eng.begun) != 5 {
		t.Fatalf("began %d transactions, want 5", len(eng.begun))
	}
	for i, tx := range eng.begun {
		if tx.committed {
			t.Fatalf("transaction %d committed after a staging failure", i)
		}
		if !tx.discarded {
			t.Fatalf("transaction %d never discarded", i)
		}
	}
}

func TestWriteEventsAsyncHonorsCancel(t *testing.T) {
	s, _, _ := newTestStore(t, 4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fes := batteryCorpus(t)
	if err := s.WriteEventsAsync(ctx, fes); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if n, err := s.CountKeys(context.Background()); err != nil || n != 0 {
		t.Fatalf("key count = (%d, %v), want 0 after a cancelled write", n, err)
	}
}

func TestRewriteIdempotent(t *testing.T) {
	s, _, _ := newTestStore(t, 2)
	ctx := context.Background()

	fe := fragmented(t, 9, 25000)
	for i := 0; i < 2; i++ {
		if err := s.WriteEvent(ctx, &fe); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}
	n, err := s.CountFragments(ctx, 9)
	if err != nil || n != uint64(fe.NumFragments) {
		t.Fatalf("fragment count = (%d, %v), want %d", n, err, fe.NumFragments)
	}
	got, err := s.ReadEvent(ctx, 9)
	if err != nil || !bytes.Equal(got.Data, patternData(25000)) {
		t.Fatalf("read after rewrite failed: %v", err)
	}
}

func TestReadEventNotFound(t *testing.T) {
	s, _, _ := newTestStore(t, 2)
	if _, err := s.ReadEvent(context.Background(), 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestReadEventCorruption(t *testing.T) {
	ctx := context.Background()

	write := func(t *testing.T, s *Store, id uint64, size int) event.FragmentedEvent {
		t.Helper()
		fe := fragmented(t, id, size)
		if err := s.WriteEvent(ctx, &fe); err != nil {
			t.Fatalf("write: %v", err)
		}
		return fe
	}
	full := patternData(event.OptimalFragmentSize)

	t.Run("short fragment", func(t *testing.T) {
		s, db, _ := newTestStore(t, 100)
		write(t, s, 1, 30001)
		if err := db.Set(EventKey(1, 2), []byte("x")); err != nil {
			t.Fatalf("overwrite: %v", err)
		}
		if _, err := s.ReadEvent(ctx, 1); !errors.Is(err, ErrCorrupted) {
			t.Fatalf("got %v, want ErrCorrupted", err)
		}
	})

	t.Run("missing first fragment", func(t *testing.T) {
		s, db, _ := newTestStore(t, 100)
		write(t, s, 2, 30001)
		if err := db.Delete(EventKey(2, 0)); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := s.ReadEvent(ctx, 2); !errors.Is(err, ErrCorrupted) {
			t.Fatalf("got %v, want ErrCorrupted", err)
		}
	})

	t.Run("missing middle fragment", func(t *testing.T) {
		s, db, _ := newTestStore(t, 100)
		write(t, s, 3, 30001)
		if err := db.Delete(EventKey(3, 1)); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := s.ReadEvent(ctx, 3); !errors.Is(err, ErrCorrupted) {
			t.Fatalf("got %v, want ErrCorrupted", err)
		}
	})

	t.Run("missing trailing fragment", func(t *testing.T) {
		s, db, _ := newTestStore(t, 100)
		fe := write(t, s, 4, 30001)
		if err := db.Delete(EventKey(4, fe.NumFragments-1)); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := s.ReadEvent(ctx, 4); !errors.Is(err, ErrCorrupted) {
			t.Fatalf("got %v, want ErrCorrupted", err)
		}
	})

	t.Run("phantom fragment", func(t *testing.T) {
		s, db, _ := newTestStore(t, 100)
		fe := write(t, s, 5, 10001)
		if err := db.Set(EventKey(5, fe.NumFragments), full); err != nil {
			t.Fatalf("phantom: %v", err)
		}
		if _, err := s.ReadEvent(ctx, 5); !errors.Is(err, ErrCorrupted) {
			t.Fatalf("got %v, want ErrCorrupted", err)
		}
	})

	t.Run("garbage header", func(t *testing.T) {
		s, db, _ := newTestStore(t, 100)
		write(t, s, 6, 100)
		// Extended flag with a 4-byte length field exceeds the header limit.
		if err := db.Set(EventKey(6, 0), []byte{0x84, 0, 0, 0, 1}); err != nil {
			t.Fatalf("overwrite: %v", err)
		}
		if _, err := s.ReadEvent(ctx, 6); !errors.Is(err, ErrCorrupted) {
			t.Fatalf("got %v, want ErrCorrupted", err)
		}
	})
}

func TestClearEvent(t *testing.T) {
	s, _, _ := newTestStore(t, 4)
	ctx := context.Background()

	fes := make([]event.FragmentedEvent, 0, 3)
	for _, id := range []uint64{1, 2, 3} {
		fe := fragmented(t, id, 15000)
		if err := s.WriteEvent(ctx, &fe); err != nil {
			t.Fatalf("write %d: %v", id, err)
		}
		fes = append(fes, fe)
	}
	if err := s.ClearEvent(ctx, &fes[1]); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if n, err := s.CountFragments(ctx, 2); err != nil || n != 0 {
		t.Fatalf("cleared event count = (%d, %v), want 0", n, err)
	}
	for _, id := range []uint64{1, 3} {
		if _, err := s.ReadEvent(ctx, id); err != nil {
			t.Fatalf("neighbor %d unreadable after clear: %v", id, err)
		}
	}
	// Clearing an event that was never written succeeds.
	absent := fragmented(t, 999, 100)
	if err := s.ClearEvent(ctx, &absent); err != nil {
		t.Fatalf("clear absent: %v", err)
	}
}

func TestClearEvents(t *testing.T) {
	s, _, _ := newTestStore(t, 4)
	ctx := context.Background()

	fes := batteryCorpus(t)
	if err := s.WriteEvents(ctx, fes); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.ClearEvents(ctx, fes); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if n, err := s.CountKeys(ctx); err != nil || n != 0 {
		t.Fatalf("key count = (%d, %v), want 0", n, err)
	}
	if err := s.ClearEvents(ctx, nil); err != nil {
		t.Fatalf("empty clear: %v", err)
	}
}

func TestClearDatabase(t *testing.T) {
	s, _, _ := newTestStore(t, 4)
	ctx := context.Background()

	fes := batteryCorpus(t)
	if err := s.WriteEvents(ctx, fes); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.ClearDatabase(ctx); err != nil {
		t.Fatalf("clear database: %v", err)
	}
	if n, err := s.CountKeys(ctx); err != nil || n != 0 {
		t.Fatalf("key count = (%d, %v), want 0", n, err)
	}

	// The store stays usable after a wipe.
	fe := fragmented(t, 77, 12345)
	if err := s.WriteEvent(ctx, &fe); err != nil {
		t.Fatalf("write after clear: %v", err)
	}
	if got, err := s.ReadEvent(ctx, 77); err != nil || !bytes.Equal(got.Data, patternData(12345)) {
		t.Fatalf("read after clear failed: %v", err)
	}
}
