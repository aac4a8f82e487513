// Package event defines the event model and the fragmentation codec.
//
// An Event is an opaque byte buffer with a caller-assigned 64-bit id. Events
// are stored as one or more fragments so that no stored value exceeds
// OptimalFragmentSize bytes. Fragment boundaries are asymmetric: only the
// first fragment is irregular (it carries the size remainder plus a small
// count header); every later fragment is exactly OptimalFragmentSize bytes.
// That makes every non-first fragment's placement computable from arithmetic
// alone during reassembly.
//
//	fe, err := event.Fragment(&event.Event{ID: id, Data: buf})
//
// Fragments are subslices of the source buffer, not copies; the Event must
// outlive the FragmentedEvent.
package event
