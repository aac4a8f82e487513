package eventstore

import (
	"encoding/binary"
	"math"
)

// Keyspace helpers for fragment keys.
//
// Layout (byte-wise, lexicographically sortable):
// - {0x00}{id_be8}{frag_be4}
//
// The 0x00 prefix keeps every fragment key inside the user keyspace, below
// the engine's reserved 0xFF metadata namespace. Big-endian id then fragment
// index makes byte order equal (id, index) order, so range bounds over ids
// and fragments are plain key arithmetic.

const (
	keyPrefix byte = 0x00

	// KeyLength is the fixed fragment key size: prefix + id + index.
	KeyLength = 1 + 8 + 4
)

func appendBE4(dst []byte, v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return append(dst, b[:]...)
}

func appendBE8(dst []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(dst, b[:]...)
}

// EventKey builds the key for one fragment of an event.
func EventKey(id uint64, fragment uint32) []byte {
	k := make([]byte, 0, KeyLength)
	k = append(k, keyPrefix)
	k = appendBE8(k, id)
	k = appendBE4(k, fragment)
	return k
}

// EventRange bounds the fragments of an event with a known count:
// [EventKey(id, 0), EventKey(id, numFragments)).
func EventRange(id uint64, numFragments uint32) (start, end []byte) {
	return EventKey(id, 0), EventKey(id, numFragments)
}

// eventSpan bounds every possible fragment of an event, regardless of count.
// For the maximal id there is no successor id, so the span ends at the first
// byte above the key prefix.
func eventSpan(id uint64) (start, end []byte) {
	start = EventKey(id, 0)
	if id == math.MaxUint64 {
		return start, []byte{keyPrefix + 1}
	}
	return start, EventKey(id+1, 0)
}

// DatabaseRange bounds the entire user keyspace, [0x00, 0xFF). The engine's
// reserved metadata namespace sits above it.
func DatabaseRange() (start, end []byte) {
	return []byte{0x00}, []byte{0xFF}
}

// parseKey splits a fragment key into its id and fragment index.
func parseKey(k []byte) (id uint64, fragment uint32, ok bool) {
	if len(k) != KeyLength || k[0] != keyPrefix {
		return 0, 0, false
	}
	return binary.BigEndian.Uint64(k[1:9]), binary.BigEndian.Uint32(k[9:13]), true
}
