package audit

import (
	"fmt"

	"github.com/tracedraft/vellum/internal/entity"
	"github.com/tracedraft/vellum/internal/graph"
)

// Check is one independent, stateless audit rule. Scan must be read-only:
// the runner executes checks concurrently during the scan phase.
type Check interface {
	Name() string
	Scan(doc *graph.Document) []Issue
}

// Checks returns the full check catalog.
func Checks() []Check {
	return []Check{
		dimStyleCheck{},
		dimArrowCheck{},
		dimTextStyleCheck{},
		textStyleCheck{},
		vertexLayerCheck{},
		leaderVertexCheck{},
		danglingInsertCheck{},
		unusedBlockCheck{},
	}
}

// dimStyleCheck flags DIMENSION and LEADER entities whose dimension style
// does not resolve. Repair rebinds to the Standard style.
type dimStyleCheck struct{}

func (dimStyleCheck) Name() string { return "dimstyle-missing" }

func (dimStyleCheck) Scan(doc *graph.Document) []Issue {
	var issues []Issue
	for _, e := range doc.Entities() {
		var style string
		switch v := e.(type) {
		case *entity.Dimension:
			style = v.DimStyle
		case *entity.Leader:
			style = v.DimStyle
		default:
			continue
		}
		if _, ok := doc.ResolveDimStyle(style); ok {
			continue
		}
		issues = append(issues, Issue{
			Code:     CodeDimStyleMissing,
			Severity: SeverityRepairable,
			Entity:   e.Base().Handle,
			Message:  fmt.Sprintf("%s %s references missing dimension style %q", e.Kind(), e.Base().Handle, style),
			Repair:   &Repair{Kind: RepairRebindDimStyle, Value: entity.StandardStyle},
		})
	}
	return issues
}

// dimArrowCheck flags arrow block references that do not resolve, on
// dimension style records and on per-entity overrides. Repair rebinds to
// the empty string, which the format defines as the default open filled
// arrow.
type dimArrowCheck struct{}

func (dimArrowCheck) Name() string { return "dim-arrow-missing" }

func (dimArrowCheck) Scan(doc *graph.Document) []Issue {
	var issues []Issue
	for _, style := range doc.DimStyles() {
		if style.ArrowBlock == "" {
			continue
		}
		if _, ok := doc.ResolveBlock(style.ArrowBlock); ok {
			continue
		}
		issues = append(issues, Issue{
			Code:     CodeDimArrowMissing,
			Severity: SeverityRepairable,
			DimStyle: style.Name,
			Message:  fmt.Sprintf("dimension style %q references missing arrow block %q", style.Name, style.ArrowBlock),
			Repair:   &Repair{Kind: RepairRebindArrow, Value: ""},
		})
	}
	for _, e := range doc.Entities() {
		dim, ok := e.(*entity.Dimension)
		if !ok || dim.ArrowBlockOverride == nil || *dim.ArrowBlockOverride == "" {
			continue
		}
		if _, ok := doc.ResolveBlock(*dim.ArrowBlockOverride); ok {
			continue
		}
		issues = append(issues, Issue{
			Code:     CodeDimArrowMissing,
			Severity: SeverityRepairable,
			Entity:   dim.Handle,
			Message:  fmt.Sprintf("DIMENSION %s overrides arrow with missing block %q", dim.Handle, *dim.ArrowBlockOverride),
			Repair:   &Repair{Kind: RepairRebindArrow, Value: ""},
		})
	}
	return issues
}

// dimTextStyleCheck flags text style references that do not resolve, on
// dimension style records and on per-entity overrides. Repair rebinds to
// the Standard style.
type dimTextStyleCheck struct{}

func (dimTextStyleCheck) Name() string { return "dim-textstyle-missing" }

func (dimTextStyleCheck) Scan(doc *graph.Document) []Issue {
	var issues []Issue
	for _, style := range doc.DimStyles() {
		if style.TextStyle == "" {
			continue
		}
		if _, ok := doc.ResolveTextStyle(style.TextStyle); ok {
			continue
		}
		issues = append(issues, Issue{
			Code:     CodeDimTextStyleMissing,
			Severity: SeverityRepairable,
			DimStyle: style.Name,
			Message:  fmt.Sprintf("dimension style %q references missing text style %q", style.Name, style.TextStyle),
			Repair:   &Repair{Kind: RepairRebindTextStyle, Value: entity.StandardStyle},
		})
	}
	for _, e := range doc.Entities() {
		dim, ok := e.(*entity.Dimension)
		if !ok || dim.TextStyleOverride == nil || *dim.TextStyleOverride == "" {
			continue
		}
		if _, ok := doc.ResolveTextStyle(*dim.TextStyleOverride); ok {
			continue
		}
		issues = append(issues, Issue{
			Code:     CodeDimTextStyleMissing,
			Severity: SeverityRepairable,
			Entity:   dim.Handle,
			Message:  fmt.Sprintf("DIMENSION %s overrides text style with missing style %q", dim.Handle, *dim.TextStyleOverride),
			Repair:   &Repair{Kind: RepairRebindTextStyle, Value: entity.StandardStyle},
		})
	}
	return issues
}

// textStyleCheck flags TEXT and MTEXT entities whose text style does not
// resolve. Repair rebinds to the Standard style.
type textStyleCheck struct{}

func (textStyleCheck) Name() string { return "textstyle-missing" }

func (textStyleCheck) Scan(doc *graph.Document) []Issue {
	var issues []Issue
	for _, e := range doc.Entities() {
		var style string
		switch v := e.(type) {
		case *entity.Text:
			style = v.Style
		case *entity.MText:
			style = v.Style
		default:
			continue
		}
		if _, ok := doc.ResolveTextStyle(style); ok {
			continue
		}
		issues = append(issues, Issue{
			Code:     CodeTextStyleMissing,
			Severity: SeverityRepairable,
			Entity:   e.Base().Handle,
			Message:  fmt.Sprintf("%s %s references missing text style %q", e.Kind(), e.Base().Handle, style),
			Repair:   &Repair{Kind: RepairRebindTextStyle, Value: entity.StandardStyle},
		})
	}
	return issues
}

// vertexLayerCheck enforces the "vertex inherits polyline layer"
// invariant. Repair sets the vertex layer to the owning polyline's layer.
type vertexLayerCheck struct{}

func (vertexLayerCheck) Name() string { return "vertex-layer-mismatch" }

func (vertexLayerCheck) Scan(doc *graph.Document) []Issue {
	var issues []Issue
	for _, e := range doc.Entities() {
		p, ok := e.(*entity.Polyline)
		if !ok {
			continue
		}
		for i, v := range p.Vertices {
			if graph.NameKey(v.Layer) == graph.NameKey(p.Layer) {
				continue
			}
			issues = append(issues, Issue{
				Code:     CodeVertexLayerMismatch,
				Severity: SeverityRepairable,
				Entity:   p.Handle,
				Message:  fmt.Sprintf("vertex %d of %s %s is on layer %q, polyline is on %q", i, p.Kind(), p.Handle, v.Layer, p.Layer),
				Repair:   &Repair{Kind: RepairSetVertexLayer, Value: p.Layer, VertexIndex: i},
			})
		}
	}
	return issues
}

// leaderVertexCheck flags LEADER entities with fewer than two vertices;
// they cannot produce any geometry. Repair deletes the entity.
type leaderVertexCheck struct{}

func (leaderVertexCheck) Name() string { return "leader-vertex-count" }

func (leaderVertexCheck) Scan(doc *graph.Document) []Issue {
	var issues []Issue
	for _, e := range doc.Entities() {
		l, ok := e.(*entity.Leader)
		if !ok || len(l.Vertices) >= 2 {
			continue
		}
		issues = append(issues, Issue{
			Code:     CodeLeaderVertexCount,
			Severity: SeverityRepairable,
			Entity:   l.Handle,
			Message:  fmt.Sprintf("LEADER %s has %d vertices, at least 2 required", l.Handle, len(l.Vertices)),
			Repair:   &Repair{Kind: RepairDeleteEntity},
		})
	}
	return issues
}

// danglingInsertCheck flags INSERT entities referencing a block absent
// from the block table. Fatal: deleting the INSERT could silently remove
// intentional geometry, so there is no repair.
type danglingInsertCheck struct{}

func (danglingInsertCheck) Name() string { return "dangling-insert" }

func (danglingInsertCheck) Scan(doc *graph.Document) []Issue {
	var issues []Issue
	for _, e := range doc.Entities() {
		ins, ok := e.(*entity.Insert)
		if !ok {
			continue
		}
		if _, ok := doc.ResolveBlock(ins.BlockName); ok {
			continue
		}
		issues = append(issues, Issue{
			Code:     CodeDanglingInsert,
			Severity: SeverityFatal,
			Entity:   ins.Handle,
			Message:  fmt.Sprintf("INSERT %s references missing block %q", ins.Handle, ins.BlockName),
		})
	}
	return issues
}

// unusedBlockCheck flags block definitions nothing references: no INSERT,
// no dimension style arrow block, no per-dimension override or geometry
// block. Layout blocks are always considered used; anonymous blocks may
// legitimately have no explicit inserter and are exempt. Repair deletes
// the block and its owned sub-graph.
type unusedBlockCheck struct{}

func (unusedBlockCheck) Name() string { return "unused-block" }

func (unusedBlockCheck) Scan(doc *graph.Document) []Issue {
	styleRefs := styleBlockRefs(doc)
	var issues []Issue
	for _, def := range doc.Blocks() {
		if def.Layout || def.Anonymous {
			continue
		}
		if len(doc.InsertsReferencing(def.Name)) > 0 || styleRefs[graph.NameKey(def.Name)] {
			continue
		}
		issues = append(issues, Issue{
			Code:     CodeUnusedBlock,
			Severity: SeverityRepairable,
			Block:    def.Name,
			Message:  fmt.Sprintf("nothing references block %q", def.Name),
			Repair:   &Repair{Kind: RepairDeleteBlock},
		})
	}
	return issues
}

// styleBlockRefs collects the block names referenced outside of INSERTs:
// dimension style arrow blocks, per-dimension arrow overrides and cached
// dimension geometry blocks. Keys are name-folded.
func styleBlockRefs(doc *graph.Document) map[string]bool {
	refs := make(map[string]bool)
	for _, style := range doc.DimStyles() {
		if style.ArrowBlock != "" {
			refs[graph.NameKey(style.ArrowBlock)] = true
		}
	}
	for _, e := range doc.Entities() {
		dim, ok := e.(*entity.Dimension)
		if !ok {
			continue
		}
		if dim.ArrowBlockOverride != nil && *dim.ArrowBlockOverride != "" {
			refs[graph.NameKey(*dim.ArrowBlockOverride)] = true
		}
		if dim.GeometryBlock != "" {
			refs[graph.NameKey(dim.GeometryBlock)] = true
		}
	}
	return refs
}
