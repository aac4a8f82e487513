package event

import "errors"

// Header encoding: the count of fragments beyond the first, prefixed to the
// first fragment's payload.
//
//	count < 128:  one byte, the count itself (high bit clear)
//	count >= 128: 0x80|n, then the count as n little-endian bytes, n in 1..3
//
// The extended form always uses the minimal n, so every count has exactly one
// encoding and the header never exceeds MaxHeaderSize bytes.

const extendedFlag byte = 0x80

const maxAdditional = MaxFragments - 1

var (
	// ErrTooLarge reports a fragment count beyond header capacity.
	ErrTooLarge = errors.New("event: fragment count exceeds header capacity")
	// ErrHeaderTruncated reports a value too short for its declared header.
	ErrHeaderTruncated = errors.New("event: fragment header truncated")
	// ErrHeaderLength reports an extended header with an out-of-range byte count.
	ErrHeaderLength = errors.New("event: fragment header length out of range")
)

// BuildHeader encodes the additional-fragment count into dst and returns the
// header length in bytes.
func BuildHeader(dst *[MaxHeaderSize]byte, additional uint32) (int, error) {
	if additional > maxAdditional {
		return 0, ErrTooLarge
	}
	if additional < 0x80 {
		dst[0] = byte(additional)
		return 1, nil
	}
	n := 1
	switch {
	case additional > 0xFFFF:
		n = 3
	case additional > 0xFF:
		n = 2
	}
	dst[0] = extendedFlag | byte(n)
	for i := 0; i < n; i++ {
		dst[1+i] = byte(additional >> (8 * i))
	}
	return 1 + n, nil
}

// ReadHeader decodes the additional-fragment count from the front of a stored
// first-fragment value and returns the count and the header length.
func ReadHeader(b []byte) (additional uint32, headerLen int, err error) {
	if len(b) == 0 {
		return 0, 0, ErrHeaderTruncated
	}
	if b[0]&extendedFlag == 0 {
		return uint32(b[0]), 1, nil
	}
	n := int(b[0] &^ extendedFlag)
	if n < 1 || n > MaxHeaderSize-1 {
		return 0, 0, ErrHeaderLength
	}
	if len(b) < 1+n {
		return 0, 0, ErrHeaderTruncated
	}
	var v uint32
	for i := 0; i < n; i++ {
		v |= uint32(b[1+i]) << (8 * i)
	}
	return v, 1 + n, nil
}
