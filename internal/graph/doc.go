// Package graph implements the entity graph store: an arena of entities
// keyed by handle, the resource tables (layers, styles, linetypes, blocks)
// and the secondary indexes (layer -> entities, block -> insertions) the
// audit engine and the decomposition pipeline query.
//
// CONCURRENCY MODEL:
//
// The document is a single logical resource guarded by one RWMutex:
// many concurrent readers (audit scans, decomposition calls) or exactly
// one writer (the repair executor), never both. Read accessors take the
// read lock; every mutation takes the write lock. There is no I/O inside
// the lock, so the only suspension point is lock acquisition itself.
//
// Entities returned from read accessors are live pointers into the arena.
// Callers must treat them as read-only; mutations go through UpdateEntity
// and UpdateDimStyle, which serialize under the write lock.
//
// RESOLUTION:
//
// Table lookups are the reference resolver of the engine. Names are
// case-insensitive and NFC-normalized, matching the format's table
// semantics. A missing record is a normal outcome reported by the second
// return value, never an error.
package graph
