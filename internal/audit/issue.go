package audit

import (
	"fmt"

	"github.com/tracedraft/vellum/internal/entity"
)

// Severity classifies an Issue.
type Severity int

const (
	// SeverityRepairable marks an issue with a deterministic repair.
	SeverityRepairable Severity = iota + 1
	// SeverityFatal marks an issue that must not be auto-repaired:
	// deleting or rewriting the target could silently remove intended
	// geometry.
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityRepairable:
		return "repairable"
	case SeverityFatal:
		return "fatal"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Code identifies the violated invariant.
type Code string

const (
	// CodeDimStyleMissing: a DIMENSION or LEADER references a dimension
	// style absent from the style table.
	CodeDimStyleMissing Code = "dimstyle-missing"
	// CodeDimArrowMissing: a dimension style or override names an arrow
	// block absent from the block table.
	CodeDimArrowMissing Code = "dim-arrow-missing"
	// CodeDimTextStyleMissing: a dimension style or override names a
	// text style absent from the style table.
	CodeDimTextStyleMissing Code = "dim-textstyle-missing"
	// CodeTextStyleMissing: a TEXT or MTEXT entity references a text
	// style absent from the style table.
	CodeTextStyleMissing Code = "textstyle-missing"
	// CodeVertexLayerMismatch: a polyline vertex's layer differs from
	// its owning polyline's layer.
	CodeVertexLayerMismatch Code = "vertex-layer-mismatch"
	// CodeUnusedBlock: a block definition has no referencing INSERT,
	// dimension or dimension style and is neither a layout block nor
	// anonymous.
	CodeUnusedBlock Code = "unused-block"
	// CodeDanglingInsert: an INSERT references a block absent from the
	// block table. Fatal: the INSERT is never auto-deleted.
	CodeDanglingInsert Code = "dangling-insert"
	// CodeLeaderVertexCount: a LEADER has fewer than two vertices and
	// cannot produce geometry.
	CodeLeaderVertexCount Code = "leader-vertex-count"
)

// RepairKind identifies the mutation a repair applies.
type RepairKind string

const (
	RepairRebindDimStyle  RepairKind = "rebind_dimstyle"
	RepairRebindArrow     RepairKind = "rebind_arrow"
	RepairRebindTextStyle RepairKind = "rebind_textstyle"
	RepairSetVertexLayer  RepairKind = "set_vertex_layer"
	RepairDeleteBlock     RepairKind = "delete_block"
	RepairDeleteEntity    RepairKind = "delete_entity"
)

// Repair describes the exact action repairing an Issue. The executor
// applies nothing beyond what is encoded here.
type Repair struct {
	Kind RepairKind
	// Value is the replacement value for rebind repairs. The empty
	// string is meaningful for arrow rebinds: the format defines it as
	// the default open filled arrow.
	Value string
	// VertexIndex targets one vertex for set_vertex_layer repairs.
	VertexIndex int
}

// Issue is a structured audit finding. Exactly one of Entity, Block or
// DimStyle identifies the target: an entity in the arena, a block
// definition, or a dimension style table record.
type Issue struct {
	Code     Code
	Severity Severity
	Entity   entity.Handle
	Block    string
	DimStyle string
	Message  string
	// Repair is nil for fatal issues.
	Repair *Repair
}

// Repairable reports whether the issue carries a repair action.
func (i Issue) Repairable() bool {
	return i.Severity == SeverityRepairable && i.Repair != nil
}

// target returns a stable sort key for deterministic reporting.
func (i Issue) target() string {
	return string(i.Code) + "|" + string(i.Entity) + "|" + i.Block + "|" + i.DimStyle
}
