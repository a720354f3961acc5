// Package testutil provides shared document builders for tests.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tracedraft/vellum/internal/entity"
	"github.com/tracedraft/vellum/internal/geom"
	"github.com/tracedraft/vellum/internal/graph"
)

// NewDocument creates an empty document. Failing setup aborts the test.
func NewDocument(t *testing.T) *graph.Document {
	t.Helper()
	return graph.New()
}

// AddBlock registers a block definition and fails the test on error.
func AddBlock(t *testing.T, doc *graph.Document, def entity.BlockDef) {
	t.Helper()
	require.NoError(t, doc.AddBlock(def))
}

// Add places an entity in model space and returns its handle.
func Add(t *testing.T, doc *graph.Document, e entity.Entity) entity.Handle {
	t.Helper()
	h, err := doc.AddEntity("", e)
	require.NoError(t, err)
	return h
}

// AddTo places an entity in the named block and returns its handle.
func AddTo(t *testing.T, doc *graph.Document, block string, e entity.Entity) entity.Handle {
	t.Helper()
	h, err := doc.AddEntity(block, e)
	require.NoError(t, err)
	return h
}

// UnitLineBlock registers a block containing a single LINE from (0,0) to
// (1,0): the canonical fixture for insertion transform tests.
func UnitLineBlock(t *testing.T, doc *graph.Document, name string) {
	t.Helper()
	AddBlock(t, doc, entity.BlockDef{Name: name})
	AddTo(t, doc, name, &entity.Line{Start: geom.V(0, 0), End: geom.V(1, 0)})
}

// Insert places an INSERT of the named block at the given position with
// unit scale and returns its handle.
func Insert(t *testing.T, doc *graph.Document, block string, pos geom.Vec) entity.Handle {
	t.Helper()
	return Add(t, doc, &entity.Insert{
		BlockName: block,
		Position:  pos,
		ScaleX:    1, ScaleY: 1, ScaleZ: 1,
	})
}

// StrPtr returns a pointer to s, for optional override fields.
func StrPtr(s string) *string { return &s }
