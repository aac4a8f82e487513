// Package eventstore implements seguro's transactional event store.
//
// # Overview
//
// Events are persisted as fragments in an ordered KV engine. Keys are
// lexicographically ordered 13-byte tuples:
//   - {0x00}{id_be8}{frag_be4}
//
// so one event's fragments are adjacent and id order equals byte order. The
// first fragment's stored value is count-header | payload; every later
// fragment is a raw chunk of exactly event.OptimalFragmentSize bytes.
//
// API surface (internal)
//
//	st, _ := eventstore.Open(db, eventstore.Options{BatchSize: 10})
//
//	fe, _ := event.Fragment(&event.Event{ID: id, Data: buf})
//	_ = st.WriteEvent(ctx, &fe)          // batched transactions
//	_ = st.WriteEvents(ctx, fes)         // battery fill across events
//	_ = st.WriteEventsAsync(ctx, fes)    // overlapped commits, joined at the end
//
//	ev, _ := st.ReadEvent(ctx, id)       // paginated reassembly
//
//	_ = st.ClearEvent(ctx, &fe)          // one range clear
//	_ = st.ClearEvents(ctx, fes)         // batched range clears
//	_ = st.ClearDatabase(ctx)            // wipe [0x00, 0xFF)
//
// # Commit metrics
//
// Every transaction the store commits, synchronous or asynchronous, is
// observed by an optional MetricsHook with its wall elapsed time and staged
// operation count. CommitStats is the provided hook for benchmark phases:
// create one per run, pass it via Options, and drain it with Snapshot.
package eventstore
