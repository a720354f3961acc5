// Package entity defines the drawing entity model: the closed set of
// entity variants held by a document, plus the table records (layers,
// styles, linetypes, block definitions) they reference by name.
//
// Entities reference resources by NAME, never by embedded pointer. The
// document graph in internal/graph owns all records in an arena keyed by
// handle and resolves names on demand. This keeps the cyclic relationships
// of the format (block <-> insertion, polyline <-> vertex) out of the type
// system and makes entity values cheap to copy.
//
// The variant set is closed because the interchange format fixes it.
// Entity is a sealed interface: every variant embeds Common and the sealed
// marker method cannot be implemented outside this package.
package entity
