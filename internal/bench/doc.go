// Package bench generates mock event corpora and drives timed write and
// clear phases against an event store.
//
// A run is deterministic for a given seed. The write phase goes through the
// store's batched writers (sync or async), commit latency lands in the
// caller's CommitStats collector, and a sample of the corpus is read back
// and compared before the result counts as a Report.
package bench
