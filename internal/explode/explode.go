package explode

import (
	"fmt"

	"github.com/tracedraft/vellum/internal/entity"
	"github.com/tracedraft/vellum/internal/geom"
	"github.com/tracedraft/vellum/internal/graph"
)

// DefaultMaxDepth bounds insertion recursion. Real drawings nest a
// handful of levels; anything near the bound is a cycle.
const DefaultMaxDepth = 100

// TargetKind selects the primitive emitted for a bulged polyline edge.
// ARC, ELLIPSE and SPLINE are geometrically equivalent for a circular
// arc; the ellipse and spline forms exist for consumers that cannot
// render arcs natively. There is no fallback chain between them: the
// caller picks exactly one.
type TargetKind int

const (
	TargetArc TargetKind = iota
	TargetEllipse
	TargetSpline
)

func (k TargetKind) String() string {
	switch k {
	case TargetArc:
		return "arc"
	case TargetEllipse:
		return "ellipse"
	case TargetSpline:
		return "spline"
	default:
		return fmt.Sprintf("target(%d)", int(k))
	}
}

// Options configure one decomposition call.
type Options struct {
	// Transform is the accumulated affine transform from all enclosing
	// insertions. The zero value means identity (top level).
	Transform geom.Matrix
	// Target selects the primitive for bulged edges. Default ARC.
	Target TargetKind
	// MaxDepth bounds insertion recursion. 0 means DefaultMaxDepth.
	MaxDepth int
}

// VirtualEntities decomposes a composite entity into primitive entities
// in world coordinates. The source document is never mutated; the
// returned entities carry no handle and are not registered anywhere.
//
// The returned issues describe local defects inside replayed blocks that
// were skipped; the error reports a structural failure of the requested
// entity itself.
func VirtualEntities(doc *graph.Document, e entity.Entity, opts Options) ([]entity.Entity, []Issue, error) {
	if opts.Transform == (geom.Matrix{}) {
		opts.Transform = geom.Identity()
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}

	w := &walker{doc: doc, opts: opts}
	var out []entity.Entity
	if err := w.walk(e, opts.Transform, &out); err != nil {
		return nil, w.issues, err
	}
	return out, w.issues, nil
}

// walker carries the per-call state of one decomposition: the option set,
// the chain of blocks currently being expanded and the collected issues.
type walker struct {
	doc    *graph.Document
	opts   Options
	issues []Issue
	chain  []string
}

func (w *walker) report(e entity.Entity, code Code, format string, args ...any) {
	w.issues = append(w.issues, Issue{
		Entity:  e.Base().Handle,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	})
}

// walk decomposes one entity under the accumulated transform m.
func (w *walker) walk(e entity.Entity, m geom.Matrix, out *[]entity.Entity) error {
	switch v := e.(type) {
	case *entity.Polyline:
		return w.polyline(v, m, out)
	case *entity.Insert:
		return w.insert(v, m, out)
	case *entity.Dimension:
		return w.dimension(v, m, out)
	case *entity.Leader:
		return w.leader(v, m, out)
	case *entity.Proxy:
		return w.proxy(v, m, out)
	default:
		return w.primitive(e, m, out)
	}
}

// walkChild decomposes an entity inside a block being replayed. Local
// defects (unsupported construction, degenerate geometry) become issues so
// siblings keep processing; missing blocks and depth overruns stay fatal
// for the whole call. Broken proxy streams already record their issue at
// the source and never surface as errors.
func (w *walker) walkChild(e entity.Entity, m geom.Matrix, out *[]entity.Entity) error {
	err := w.walk(e, m, out)
	if err == nil {
		return nil
	}
	if IsCode(err, CodeNotImplemented) || IsCode(err, CodeDegenerate) {
		w.report(e, errCode(err), "%v", err)
		return nil
	}
	return err
}

func errCode(err error) Code {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}

// detached returns a copy of the entity's common attributes with the
// handle cleared: virtual entities have no identity and no document
// membership.
func detached(e entity.Entity) entity.Common {
	c := *e.Base()
	c.Handle = entity.NoHandle
	return c
}
