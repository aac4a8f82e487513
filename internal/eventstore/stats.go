package eventstore

import (
	"sync"
	"time"
)

// MetricsHook observes each transaction commit the store performs. ops is the
// number of staged operations (fragment writes or range clears) the commit
// carried.
type MetricsHook interface {
	ObserveCommit(elapsed time.Duration, ops int)
}

// NoopMetrics is used when no metrics hook is provided.
type NoopMetrics struct{}

func (NoopMetrics) ObserveCommit(time.Duration, int) {}

// CommitStats folds commit observations into running aggregates. It is safe
// for concurrent use, including from asynchronous commit callbacks. Create
// one per logical run and Reset it between phases.
type CommitStats struct {
	mu    sync.Mutex
	count int
	ops   int
	min   time.Duration
	max   time.Duration
	total time.Duration
}

// NewCommitStats returns an empty collector.
func NewCommitStats() *CommitStats { return &CommitStats{} }

// ObserveCommit implements MetricsHook.
func (s *CommitStats) ObserveCommit(elapsed time.Duration, ops int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.count == 0 || elapsed < s.min {
		s.min = elapsed
	}
	if elapsed > s.max {
		s.max = elapsed
	}
	s.total += elapsed
	s.count++
	s.ops += ops
}

// Reset clears the aggregates for the next phase.
func (s *CommitStats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count = 0
	s.ops = 0
	s.min = 0
	s.max = 0
	s.total = 0
}

// StatsSnapshot is a point-in-time copy of commit aggregates.
type StatsSnapshot struct {
	// Count is the number of commits observed.
	Count int
	// Ops is the total staged operations across those commits.
	Ops   int
	Min   time.Duration
	Max   time.Duration
	Total time.Duration
}

// Snapshot copies the current aggregates.
func (s *CommitStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StatsSnapshot{Count: s.count, Ops: s.ops, Min: s.min, Max: s.max, Total: s.total}
}

// Mean returns the average commit latency, or zero for an empty snapshot.
func (sn StatsSnapshot) Mean() time.Duration {
	if sn.Count == 0 {
		return 0
	}
	return sn.Total / time.Duration(sn.Count)
}
