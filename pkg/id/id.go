package id

import (
	"sync"
	"time"
)

const (
	seqBits = 16
	seqMask = 1<<seqBits - 1
)

// Generator produces monotonically increasing 64-bit identifiers per process.
type Generator struct {
	mu       sync.Mutex
	lastMs   int64
	sequence uint32
}

// NewGenerator creates a new Generator.
func NewGenerator() *Generator { return &Generator{} }

// NowMs returns current time in milliseconds since Unix epoch.
var NowMs = func() int64 { return time.Now().UnixMilli() }

// Next returns a new identifier. If the clock goes backwards, it reuses the
// last seen millisecond and advances the sequence. If the sequence overflows
// within the same millisecond, it waits for the next millisecond.
func (g *Generator) Next() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := NowMs()
	if ms < g.lastMs {
		ms = g.lastMs
	}

	if ms == g.lastMs {
		if g.sequence == seqMask {
			for {
				ms = NowMs()
				if ms > g.lastMs {
					break
				}
				time.Sleep(time.Millisecond / 8)
			}
			g.sequence = 0
		} else {
			g.sequence++
		}
	} else {
		g.sequence = 0
	}

	g.lastMs = ms
	return uint64(ms)<<seqBits | uint64(g.sequence)
}

// Time returns the timestamp half of an identifier.
func Time(v uint64) time.Time {
	return time.UnixMilli(int64(v >> seqBits))
}

// Sequence returns the sequence half of an identifier.
func Sequence(v uint64) uint16 {
	return uint16(v & seqMask)
}
