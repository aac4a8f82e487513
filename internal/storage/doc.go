// Package storage defines the ordered key-value engine contract the event
// store is written against.
//
// An Engine stores byte-string keys in lexicographic order and offers atomic
// write transactions, paginated ascending range reads, and range deletes.
// Commits may be issued synchronously or asynchronously; asynchronous
// completion callbacks run on the engine's commit loop and fire exactly once.
//
// Keys beginning with 0xFF are reserved for engine metadata. Application
// components keep all data inside [0x00, 0xFF).
package storage
