package entity

import "github.com/tracedraft/vellum/internal/geom"

// Process-wide default table names. These are constants by design: repairs
// rebind to them and must never observe a mutated default.
const (
	// StandardStyle is the default text and dimension style name.
	StandardStyle = "Standard"
	// DefaultLayer is the default layer name.
	DefaultLayer = "0"
	// ByLayerLinetype resolves through the entity's layer.
	ByLayerLinetype = "BYLAYER"
	// ModelSpaceBlock is the reserved layout block holding model space.
	ModelSpaceBlock = "*Model_Space"
	// PaperSpaceBlock is the reserved layout block holding the default
	// paper space layout.
	PaperSpaceBlock = "*Paper_Space"
)

// Layer is a layer table record.
type Layer struct {
	Name     string
	Color    int
	Linetype string
	Frozen   bool
}

// TextStyle is a text style table record. Font is an opaque face name
// passed through to the renderer's text collaborator.
type TextStyle struct {
	Name        string
	Font        string
	FixedHeight float64 // 0 = variable height
	WidthFactor float64
}

// DimStyle is a dimension style table record. ArrowBlock and TextStyle are
// name references audited against the block and style tables; an empty
// ArrowBlock means the format's built-in open filled arrow.
type DimStyle struct {
	Name       string
	ArrowBlock string
	TextStyle  string
	TextHeight float64
	ArrowSize  float64
}

// Linetype is a linetype table record.
type Linetype struct {
	Name        string
	Description string
	Pattern     []float64
}

// BlockDef is a block definition: a named sub-graph of entities in its own
// local coordinate space. The owned entities are referenced by handle into
// the document arena, never embedded.
type BlockDef struct {
	Name      string
	BasePoint geom.Vec
	// Layout marks the reserved model/paper space containers. Layout
	// blocks are never "unused", even with zero insertions.
	Layout bool
	// Anonymous marks auto-generated blocks (dimension geometry). They
	// may legitimately have no explicit INSERT referencing them.
	Anonymous bool
	Entities  []Handle
}
