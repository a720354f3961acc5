// Package audit implements the audit and repair engine.
//
// The engine runs a catalog of independent checks over a document. Each
// check is a stateless rule that scans the graph for one invariant
// violation and emits Issues; a repairable Issue carries the exact repair
// action to apply, a fatal Issue is report-only.
//
// PHASES:
//
// Scanning is read-only and runs all checks concurrently under the
// document's read lock. Repairs are collected and applied in a second,
// strictly sequential phase so structural mutation (block deletion) never
// races another check's read.
//
// ORDERING:
//
// Checks are commutative: running any subset in any order yields the same
// final graph state as running all of them once, with one documented
// exception - deleting an unused block can remove insertions that kept
// OTHER blocks alive. The runner therefore re-scans the unused-block check
// to a fixpoint, bounded by Options.MaxPasses.
//
// IDEMPOTENCE:
//
// Re-running the engine on a repaired document reports zero repairable
// issues. Every repair rebinds to a process-wide constant default or
// removes the offending record, so no repair can re-introduce the
// condition another check detects.
package audit
