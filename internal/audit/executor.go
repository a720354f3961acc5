package audit

import (
	"fmt"
	"log/slog"

	"github.com/tracedraft/vellum/internal/changelog"
	"github.com/tracedraft/vellum/internal/entity"
	"github.com/tracedraft/vellum/internal/graph"
)

// Outcome records whether a repair was applied or rejected. Repairs are
// never silently skipped: every repairable Issue produces exactly one
// Outcome.
type Outcome struct {
	Issue   Issue
	Applied bool
	Reason  string // rejection reason, empty when applied
}

// Executor applies repair actions to a document. Mutations are local to
// one entity, block or style record and serialize under the document's
// write lock; the executor itself must be driven sequentially.
//
// An Issue may be stale by the time it is applied - a prior repair in the
// same batch can have removed its target. Stale issues are Rejected with a
// reason, never an error: concurrent detection and batched application
// make staleness a normal outcome.
type Executor struct {
	runID   string
	journal *changelog.Journal // nil disables journaling
	logger  *slog.Logger
}

// NewExecutor creates an executor for one audit run. journal may be nil.
func NewExecutor(runID string, journal *changelog.Journal, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{runID: runID, journal: journal, logger: logger}
}

// Apply applies exactly the repair encoded in the Issue.
func (x *Executor) Apply(doc *graph.Document, issue Issue) Outcome {
	if !issue.Repairable() {
		return rejected(issue, "issue carries no repair action")
	}

	var out Outcome
	switch issue.Repair.Kind {
	case RepairRebindDimStyle:
		out = x.rebindDimStyle(doc, issue)
	case RepairRebindArrow:
		out = x.rebindArrow(doc, issue)
	case RepairRebindTextStyle:
		out = x.rebindTextStyle(doc, issue)
	case RepairSetVertexLayer:
		out = x.setVertexLayer(doc, issue)
	case RepairDeleteEntity:
		out = x.deleteEntity(doc, issue)
	case RepairDeleteBlock:
		out = x.deleteBlock(doc, issue)
	default:
		out = rejected(issue, fmt.Sprintf("unknown repair kind %q", issue.Repair.Kind))
	}

	if out.Applied {
		x.logger.Debug("repair applied", "code", issue.Code, "entity", issue.Entity, "block", issue.Block)
	} else {
		x.logger.Debug("repair rejected", "code", issue.Code, "reason", out.Reason)
	}
	return out
}

func applied(issue Issue) Outcome {
	return Outcome{Issue: issue, Applied: true}
}

func rejected(issue Issue, reason string) Outcome {
	return Outcome{Issue: issue, Applied: false, Reason: reason}
}

func (x *Executor) rebindDimStyle(doc *graph.Document, issue Issue) Outcome {
	var old string
	err := doc.UpdateEntity(issue.Entity, func(e entity.Entity) error {
		switch v := e.(type) {
		case *entity.Dimension:
			old = v.DimStyle
			v.DimStyle = issue.Repair.Value
		case *entity.Leader:
			old = v.DimStyle
			v.DimStyle = issue.Repair.Value
		default:
			return fmt.Errorf("entity %s carries no dimension style", e.Base().Handle)
		}
		return nil
	})
	if err != nil {
		return rejected(issue, err.Error())
	}
	x.record(changelog.Mutation{
		Op: changelog.OpSetAttr, EntityHandle: string(issue.Entity),
		Attr: "dimstyle", OldValue: old, NewValue: issue.Repair.Value,
	})
	return applied(issue)
}

func (x *Executor) rebindArrow(doc *graph.Document, issue Issue) Outcome {
	// Style-record target.
	if issue.DimStyle != "" {
		var old string
		err := doc.UpdateDimStyle(issue.DimStyle, func(s *entity.DimStyle) error {
			old = s.ArrowBlock
			s.ArrowBlock = issue.Repair.Value
			return nil
		})
		if err != nil {
			return rejected(issue, err.Error())
		}
		x.record(changelog.Mutation{
			Op: changelog.OpSetAttr, BlockName: issue.DimStyle,
			Attr: "arrow_block", OldValue: old, NewValue: issue.Repair.Value,
		})
		return applied(issue)
	}

	// Per-entity override target.
	var old string
	err := doc.UpdateEntity(issue.Entity, func(e entity.Entity) error {
		dim, ok := e.(*entity.Dimension)
		if !ok {
			return fmt.Errorf("entity %s is not a dimension", e.Base().Handle)
		}
		if dim.ArrowBlockOverride != nil {
			old = *dim.ArrowBlockOverride
		}
		value := issue.Repair.Value
		dim.ArrowBlockOverride = &value
		return nil
	})
	if err != nil {
		return rejected(issue, err.Error())
	}
	x.record(changelog.Mutation{
		Op: changelog.OpSetAttr, EntityHandle: string(issue.Entity),
		Attr: "arrow_block_override", OldValue: old, NewValue: issue.Repair.Value,
	})
	return applied(issue)
}

func (x *Executor) rebindTextStyle(doc *graph.Document, issue Issue) Outcome {
	// Style-record target.
	if issue.DimStyle != "" {
		var old string
		err := doc.UpdateDimStyle(issue.DimStyle, func(s *entity.DimStyle) error {
			old = s.TextStyle
			s.TextStyle = issue.Repair.Value
			return nil
		})
		if err != nil {
			return rejected(issue, err.Error())
		}
		x.record(changelog.Mutation{
			Op: changelog.OpSetAttr, BlockName: issue.DimStyle,
			Attr: "text_style", OldValue: old, NewValue: issue.Repair.Value,
		})
		return applied(issue)
	}

	var old string
	err := doc.UpdateEntity(issue.Entity, func(e entity.Entity) error {
		switch v := e.(type) {
		case *entity.Text:
			old = v.Style
			v.Style = issue.Repair.Value
		case *entity.MText:
			old = v.Style
			v.Style = issue.Repair.Value
		case *entity.Dimension:
			if v.TextStyleOverride != nil {
				old = *v.TextStyleOverride
			}
			value := issue.Repair.Value
			v.TextStyleOverride = &value
		default:
			return fmt.Errorf("entity %s carries no text style", e.Base().Handle)
		}
		return nil
	})
	if err != nil {
		return rejected(issue, err.Error())
	}
	x.record(changelog.Mutation{
		Op: changelog.OpSetAttr, EntityHandle: string(issue.Entity),
		Attr: "text_style", OldValue: old, NewValue: issue.Repair.Value,
	})
	return applied(issue)
}

func (x *Executor) setVertexLayer(doc *graph.Document, issue Issue) Outcome {
	var old, written string
	err := doc.UpdateEntity(issue.Entity, func(e entity.Entity) error {
		p, ok := e.(*entity.Polyline)
		if !ok {
			return fmt.Errorf("entity %s is not a polyline", e.Base().Handle)
		}
		i := issue.Repair.VertexIndex
		if i < 0 || i >= len(p.Vertices) {
			return fmt.Errorf("polyline %s has no vertex %d", p.Handle, i)
		}
		old = p.Vertices[i].Layer
		// Rebind to the polyline's CURRENT layer, not the layer captured
		// at scan time, so the invariant holds even if the polyline was
		// relayered since detection.
		written = p.Layer
		p.Vertices[i].Layer = written
		return nil
	})
	if err != nil {
		return rejected(issue, err.Error())
	}
	x.record(changelog.Mutation{
		Op: changelog.OpSetAttr, EntityHandle: string(issue.Entity),
		Attr: fmt.Sprintf("vertex[%d].layer", issue.Repair.VertexIndex),
		OldValue: old, NewValue: written,
	})
	return applied(issue)
}

func (x *Executor) deleteEntity(doc *graph.Document, issue Issue) Outcome {
	if !doc.DeleteEntity(issue.Entity) {
		return rejected(issue, fmt.Sprintf("entity %s no longer exists", issue.Entity))
	}
	x.record(changelog.Mutation{
		Op: changelog.OpDeleteEntity, EntityHandle: string(issue.Entity),
	})
	return applied(issue)
}

func (x *Executor) deleteBlock(doc *graph.Document, issue Issue) Outcome {
	// Re-check liveness immediately before deleting: a repair earlier in
	// the batch, or detection raced against construction, may have made
	// the block used again. Deleting a live block loses real geometry.
	def, ok := doc.ResolveBlock(issue.Block)
	if !ok {
		return rejected(issue, fmt.Sprintf("block %q no longer exists", issue.Block))
	}
	if def.Layout {
		return rejected(issue, fmt.Sprintf("block %q is a layout", issue.Block))
	}
	if def.Anonymous {
		return rejected(issue, fmt.Sprintf("block %q is anonymous", issue.Block))
	}
	if refs := doc.InsertsReferencing(issue.Block); len(refs) > 0 {
		return rejected(issue, fmt.Sprintf("block %q is referenced by %d INSERT(s)", issue.Block, len(refs)))
	}
	if styleBlockRefs(doc)[graph.NameKey(issue.Block)] {
		return rejected(issue, fmt.Sprintf("block %q is referenced by a dimension or dimension style", issue.Block))
	}
	if err := doc.DeleteBlock(issue.Block); err != nil {
		return rejected(issue, err.Error())
	}
	x.record(changelog.Mutation{
		Op: changelog.OpDeleteBlock, BlockName: issue.Block,
	})
	return applied(issue)
}

func (x *Executor) record(m changelog.Mutation) {
	if x.journal == nil {
		return
	}
	if err := x.journal.Record(x.runID, m); err != nil {
		// Journaling failure never blocks a repair; the graph is the
		// source of truth and the caller still gets the Outcome.
		x.logger.Warn("journal write failed", "op", m.Op, "error", err)
	}
}
