package event

const (
	// OptimalFragmentSize is the stored value size fragments are cut to.
	// Every fragment after the first is exactly this long.
	OptimalFragmentSize = 10000

	// MaxHeaderSize bounds the fragment-count header: one flag byte plus up
	// to three little-endian count bytes.
	MaxHeaderSize = 4

	// MaxFragments is the largest fragment count whose additional-fragment
	// count still fits the header's three count bytes.
	MaxFragments = 1 << 24
)

// Event is an opaque payload with a caller-assigned id.
type Event struct {
	ID   uint64
	Data []byte
}

// FragmentedEvent is the store-shaped view of an Event. Fragments alias the
// source Data; they are views, not copies.
type FragmentedEvent struct {
	ID           uint64
	NumFragments uint32
	Header       [MaxHeaderSize]byte
	HeaderLen    uint8
	// PayloadLen is the first fragment's payload length. Zero only for a
	// zero-length event.
	PayloadLen uint16
	Fragments  [][]byte
}

// HeaderBytes returns the encoded fragment-count header.
func (f *FragmentedEvent) HeaderBytes() []byte { return f.Header[:f.HeaderLen] }

// DataLen returns the total payload length across all fragments.
func (f *FragmentedEvent) DataLen() int {
	if f.NumFragments == 0 {
		return 0
	}
	return int(f.PayloadLen) + int(f.NumFragments-1)*OptimalFragmentSize
}
