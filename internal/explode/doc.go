// Package explode implements the virtual-entity decomposition pipeline:
// it converts composite entities (bulged polylines, block insertions,
// dimensions, leaders, proxy graphics) into a flat, ordered sequence of
// primitive entities in world coordinates.
//
// Decomposition is a pure recursive tree walk. It never mutates the
// source document; emitted entities are fresh values with no handle and
// no document membership. Every call materializes a fresh slice, so
// concurrent calls - including calls for the same entity - are safe and
// may overlap with audit scans, but not with the repair executor's
// mutation phase (the document's write lock enforces that).
//
// Transforms accumulate top-down: the caller's outer transform composes
// with each insertion's placement, so nested insertions resolve at
// arbitrary depth. Recursion is bounded by Options.MaxDepth; a cyclic
// block reference fails deterministically with the offending chain of
// block names instead of looping.
//
// Failure handling follows the severity of the defect. Structural
// failures of the requested entity (unsupported construction, missing
// block, depth exceeded) are returned as *Error. Local defects (an
// unsupported nested dimension, a malformed proxy stream) become Issues
// regardless of nesting: the offending entity yields nothing and its
// siblings continue.
package explode
