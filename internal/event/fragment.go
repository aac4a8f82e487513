package event

import "fmt"

// Fragment splits ev.Data into store-sized views and builds the count header.
//
// The remainder of the event size modulo OptimalFragmentSize becomes fragment
// 0's payload; all remaining fragments are full chunks. An event that is an
// exact multiple starts with a full chunk, and a zero-length event still
// produces one fragment with an empty payload so that it round-trips.
func Fragment(ev *Event) (FragmentedEvent, error) {
	size := len(ev.Data)
	total := size / OptimalFragmentSize
	if size%OptimalFragmentSize != 0 || size == 0 {
		total++
	}
	if total > MaxFragments {
		return FragmentedEvent{}, fmt.Errorf("%w: %d bytes need %d fragments", ErrTooLarge, size, total)
	}

	fe := FragmentedEvent{ID: ev.ID, NumFragments: uint32(total)}
	hlen, err := BuildHeader(&fe.Header, fe.NumFragments-1)
	if err != nil {
		return FragmentedEvent{}, err
	}
	fe.HeaderLen = uint8(hlen)

	first := size % OptimalFragmentSize
	if size > 0 && first == 0 {
		first = OptimalFragmentSize
	}
	fe.PayloadLen = uint16(first)

	fragments := make([][]byte, 0, total)
	fragments = append(fragments, ev.Data[:first])
	for off := first; off < size; off += OptimalFragmentSize {
		fragments = append(fragments, ev.Data[off:off+OptimalFragmentSize])
	}
	fe.Fragments = fragments
	return fe, nil
}
