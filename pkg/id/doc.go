// Package id provides time-ordered 64-bit event identifiers.
//
// # Format
//
// An identifier packs a 48-bit millisecond timestamp above a 16-bit sequence:
//
//	[48 bits ms_timestamp][16 bits sequence]
//
// Numeric order therefore matches chronological order, and identifiers minted
// within the same millisecond remain strictly increasing by sequence. Stored
// big-endian (as the event store's key encoding does), byte-wise comparison
// preserves the same order.
//
// # Monotonicity
//
// The Generator ensures per-process monotonicity:
//   - If the system clock regresses, it pins to the last seen millisecond and
//     keeps incrementing the sequence instead of going backwards.
//   - If the sequence would overflow within a millisecond, it waits for the
//     next millisecond before emitting the next identifier.
//
// Usage
//
//	g := id.NewGenerator()
//	eventID := g.Next()
//	ts := id.Time(eventID) // timestamp half, as time.Time
package id
