package bench

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/wexpertsystems/seguro/internal/event"
	"github.com/wexpertsystems/seguro/internal/eventstore"
	"github.com/wexpertsystems/seguro/pkg/id"
)

// Config describes one benchmark run. BatchSize is the store batch size the
// runner opens the store with; Run itself takes it from the store.
type Config struct {
	Events    int
	EventSize int
	BatchSize int
	// Async routes the write phase through overlapped commits.
	Async bool
	// Seed fixes the payload generator, so runs are reproducible.
	Seed int64
	// KeepData skips the clear phase, leaving the corpus on disk.
	KeepData bool
}

// Options wires collaborators into a run.
type Options struct {
	// Stats must be the commit collector the store was opened with. Run
	// resets it before the write phase and snapshots it after. Optional.
	Stats *eventstore.CommitStats
	// OnProgress, when set, is invoked with completed and total event counts
	// as the write phase advances.
	OnProgress func(done, total int)
}

// Report aggregates one run's outcome.
type Report struct {
	Events       int
	EventSize    int
	BatchSize    int
	Async        bool
	Fragments    int
	BytesWritten int64
	WriteElapsed time.Duration
	ClearElapsed time.Duration
	// Commits is the write-phase commit snapshot; Commits.Count is the
	// number of transactions the corpus needed.
	Commits eventstore.StatsSnapshot
}

// progressChunks is the most OnProgress callbacks a write phase makes.
const progressChunks = 32

// GenerateEvents builds n events of the given size with deterministic
// payloads from seed and unique time-ordered ids from gen.
func GenerateEvents(n, size int, seed int64, gen *id.Generator) []event.Event {
	rng := rand.New(rand.NewSource(seed))
	events := make([]event.Event, n)
	for i := range events {
		data := make([]byte, size)
		rng.Read(data)
		events[i] = event.Event{ID: gen.Next(), Data: data}
	}
	return events
}

// Run executes one benchmark run against st: generate and fragment the
// corpus, write it (sync or async), verify a sample read, then clear the
// corpus unless cfg.KeepData. Timings cover the write and clear phases only.
func Run(ctx context.Context, st *eventstore.Store, cfg Config, opts Options) (Report, error) {
	if cfg.Events <= 0 {
		return Report{}, fmt.Errorf("bench: events must be positive, got %d", cfg.Events)
	}
	if cfg.EventSize <= 0 {
		return Report{}, fmt.Errorf("bench: event size must be positive, got %d", cfg.EventSize)
	}

	events := GenerateEvents(cfg.Events, cfg.EventSize, cfg.Seed, id.NewGenerator())
	fes := make([]event.FragmentedEvent, len(events))
	report := Report{
		Events:    cfg.Events,
		EventSize: cfg.EventSize,
		BatchSize: st.BatchSize(),
		Async:     cfg.Async,
	}
	for i := range events {
		fe, err := event.Fragment(&events[i])
		if err != nil {
			return Report{}, fmt.Errorf("bench: fragment event %d: %w", events[i].ID, err)
		}
		fes[i] = fe
		report.Fragments += int(fe.NumFragments)
		report.BytesWritten += int64(len(events[i].Data))
	}

	if opts.Stats != nil {
		opts.Stats.Reset()
	}
	if opts.OnProgress != nil {
		opts.OnProgress(0, len(fes))
	}
	done := 0
	writeStart := time.Now()
	for _, chunk := range writeChunks(fes, st.BatchSize(), chunks(opts)) {
		var err error
		if cfg.Async {
			err = st.WriteEventsAsync(ctx, chunk)
		} else {
			err = st.WriteEvents(ctx, chunk)
		}
		if err != nil {
			return Report{}, fmt.Errorf("bench: write phase: %w", err)
		}
		done += len(chunk)
		if opts.OnProgress != nil {
			opts.OnProgress(done, len(fes))
		}
	}
	report.WriteElapsed = time.Since(writeStart)
	if opts.Stats != nil {
		report.Commits = opts.Stats.Snapshot()
	}

	if err := verifySample(ctx, st, events); err != nil {
		return Report{}, err
	}

	if !cfg.KeepData {
		clearStart := time.Now()
		if err := st.ClearEvents(ctx, fes); err != nil {
			return Report{}, fmt.Errorf("bench: clear phase: %w", err)
		}
		report.ClearElapsed = time.Since(clearStart)
	}
	return report, nil
}

func chunks(opts Options) int {
	if opts.OnProgress == nil {
		return 1
	}
	return progressChunks
}

// writeChunks slices fes at event boundaries where the cumulative fragment
// count is a multiple of the batch size, so chunked writes commit exactly as
// a single call would.
func writeChunks(fes []event.FragmentedEvent, batchSize, chunks int) [][]event.FragmentedEvent {
	if chunks <= 1 || len(fes) < 2 {
		return [][]event.FragmentedEvent{fes}
	}
	per := (len(fes) + chunks - 1) / chunks
	var out [][]event.FragmentedEvent
	var frags uint64
	start := 0
	for i := range fes {
		frags += uint64(fes[i].NumFragments)
		if i+1-start >= per && frags%uint64(batchSize) == 0 && i+1 < len(fes) {
			out = append(out, fes[start:i+1])
			start = i + 1
			frags = 0
		}
	}
	if start < len(fes) {
		out = append(out, fes[start:])
	}
	return out
}

// verifySample reads a handful of the written events back and compares them
// byte for byte, so a broken run cannot report a good number.
func verifySample(ctx context.Context, st *eventstore.Store, events []event.Event) error {
	picks := []int{0, len(events) / 2, len(events) - 1}
	seen := map[int]bool{}
	for _, i := range picks {
		if seen[i] {
			continue
		}
		seen[i] = true
		got, err := st.ReadEvent(ctx, events[i].ID)
		if err != nil {
			return fmt.Errorf("bench: verify event %d: %w", events[i].ID, err)
		}
		if !bytes.Equal(got.Data, events[i].Data) {
			return fmt.Errorf("bench: verify event %d: payload mismatch", events[i].ID)
		}
	}
	return nil
}
