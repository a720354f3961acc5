// Package harness drives conformance tests from data files.
//
// Audit scenarios are YAML files pairing a JSON interchange document with
// the issues and repair outcomes an audit run must produce. Decomposition
// output is snapshotted as canonical fixed-point JSON and compared against
// golden files, so expected geometry can be written and reviewed by hand.
package harness
