package eventstore

import (
	"context"
	"fmt"

	"github.com/wexpertsystems/seguro/internal/event"
)

// ReadEvent reads every fragment of id and reassembles the original payload.
// It returns ErrNotFound when no fragment exists and ErrCorrupted when the
// stored fragments disagree with the count header.
func (s *Store) ReadEvent(ctx context.Context, id uint64) (event.Event, error) {
	start, end := eventSpan(id)

	var (
		declared   uint32
		payloadLen int
		data       []byte
		got        uint32
		after      []byte
	)
	for {
		res, err := s.eng.GetRange(ctx, start, end, after, 0)
		if err != nil {
			return event.Event{}, fmt.Errorf("eventstore: read event %d: %w", id, err)
		}
		for _, kv := range res.Pairs {
			_, frag, ok := parseKey(kv.Key)
			if !ok {
				return event.Event{}, fmt.Errorf("%w: event %d: malformed key", ErrCorrupted, id)
			}
			if got == 0 {
				if frag != 0 {
					return event.Event{}, fmt.Errorf("%w: event %d: first fragment is %d", ErrCorrupted, id, frag)
				}
				additional, hlen, err := event.ReadHeader(kv.Value)
				if err != nil {
					return event.Event{}, fmt.Errorf("%w: event %d: %v", ErrCorrupted, id, err)
				}
				declared = additional + 1
				payloadLen = len(kv.Value) - hlen
				data = make([]byte, payloadLen+int(declared-1)*event.OptimalFragmentSize)
				copy(data, kv.Value[hlen:])
			} else {
				if got >= declared {
					return event.Event{}, fmt.Errorf("%w: event %d: %d fragments declared, more stored", ErrCorrupted, id, declared)
				}
				if frag != got {
					return event.Event{}, fmt.Errorf("%w: event %d: fragment %d where %d expected", ErrCorrupted, id, frag, got)
				}
				if len(kv.Value) != event.OptimalFragmentSize {
					return event.Event{}, fmt.Errorf("%w: event %d: fragment %d is %d bytes", ErrCorrupted, id, frag, len(kv.Value))
				}
				copy(data[payloadLen+int(got-1)*event.OptimalFragmentSize:], kv.Value)
			}
			got++
			after = kv.Key
		}
		if !res.More {
			break
		}
	}

	if got == 0 {
		return event.Event{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if got != declared {
		return event.Event{}, fmt.Errorf("%w: event %d: %d fragments declared, %d stored", ErrCorrupted, id, declared, got)
	}
	return event.Event{ID: id, Data: data}, nil
}

// countRange walks [start, end) page by page and returns the key count.
func (s *Store) countRange(ctx context.Context, start, end []byte) (uint64, error) {
	var (
		count uint64
		after []byte
	)
	for {
		res, err := s.eng.GetRange(ctx, start, end, after, 0)
		if err != nil {
			return 0, err
		}
		count += uint64(len(res.Pairs))
		if !res.More {
			return count, nil
		}
		after = res.Pairs[len(res.Pairs)-1].Key
	}
}

// CountFragments returns the number of stored fragments for id. A missing
// event counts zero; no error is returned for absence.
func (s *Store) CountFragments(ctx context.Context, id uint64) (uint64, error) {
	start, end := eventSpan(id)
	n, err := s.countRange(ctx, start, end)
	if err != nil {
		return 0, fmt.Errorf("eventstore: count fragments of %d: %w", id, err)
	}
	return n, nil
}

// CountKeys returns the number of keys in the store's whole keyspace.
func (s *Store) CountKeys(ctx context.Context) (uint64, error) {
	start, end := DatabaseRange()
	n, err := s.countRange(ctx, start, end)
	if err != nil {
		return 0, fmt.Errorf("eventstore: count keys: %w", err)
	}
	return n, nil
}
