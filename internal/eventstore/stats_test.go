package eventstore

import (
	"sync"
	"testing"
	"time"
)

func TestCommitStatsAggregates(t *testing.T) {
	s := NewCommitStats()
	if got := s.Snapshot().Mean(); got != 0 {
		t.Fatalf("mean of empty = %v, want 0", got)
	}

	s.ObserveCommit(4*time.Millisecond, 10)
	s.ObserveCommit(2*time.Millisecond, 5)
	s.ObserveCommit(6*time.Millisecond, 1)

	snap := s.Snapshot()
	if snap.Count != 3 || snap.Ops != 16 {
		t.Fatalf("count = %d ops = %d, want 3 and 16", snap.Count, snap.Ops)
	}
	if snap.Min != 2*time.Millisecond || snap.Max != 6*time.Millisecond {
		t.Fatalf("min = %v max = %v", snap.Min, snap.Max)
	}
	if snap.Total != 12*time.Millisecond || snap.Mean() != 4*time.Millisecond {
		t.Fatalf("total = %v mean = %v", snap.Total, snap.Mean())
	}

	s.Reset()
	if snap := s.Snapshot(); snap != (StatsSnapshot{}) {
		t.Fatalf("reset left %+v", snap)
	}
}

func TestCommitStatsConcurrent(t *testing.T) {
	s := NewCommitStats()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.ObserveCommit(time.Millisecond, 2)
			}
		}()
	}
	wg.Wait()

	snap := s.Snapshot()
	if snap.Count != 800 || snap.Ops != 1600 {
		t.Fatalf("count = %d ops = %d, want 800 and 1600", snap.Count, snap.Ops)
	}
	if snap.Min != time.Millisecond || snap.Max != time.Millisecond {
		t.Fatalf("min = %v max = %v, want 1ms both", snap.Min, snap.Max)
	}
}
