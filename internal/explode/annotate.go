package explode

import (
	"fmt"

	"github.com/tracedraft/vellum/internal/entity"
	"github.com/tracedraft/vellum/internal/geom"
	"github.com/tracedraft/vellum/internal/proxygfx"
)

// dimension replays a dimension's cached geometry block. The block holds
// the pre-built measurement rendering (extension lines, arrows, text) in
// final coordinates, so it replays under the accumulated transform
// directly, without an insertion placement.
//
// A dimension without a geometry block would require live reconstruction
// from its defining points, which this pipeline does not implement.
func (w *walker) dimension(d *entity.Dimension, m geom.Matrix, out *[]entity.Entity) error {
	if d.GeometryBlock == "" {
		return &Error{
			Code:    CodeNotImplemented,
			Message: fmt.Sprintf("%s dimension %s has no cached geometry block", d.SubKind, d.Handle),
		}
	}
	def, ok := w.doc.ResolveBlock(d.GeometryBlock)
	if !ok {
		return &Error{
			Code:    CodeMissingBlock,
			Message: fmt.Sprintf("dimension %s references missing geometry block %q", d.Handle, d.GeometryBlock),
			Chain:   append([]string(nil), w.chain...),
		}
	}

	children := w.doc.EntitiesIn(def.Name)
	w.chain = append(w.chain, def.Name)
	defer func() { w.chain = w.chain[:len(w.chain)-1] }()

	for _, child := range children {
		if err := w.walkChild(child, m, out); err != nil {
			return err
		}
	}
	return nil
}

// leader decomposes a leader line into its path geometry: straight paths
// become one LINE per segment, spline paths a single SPLINE using the
// leader vertices as control points. With an arrowhead enabled, the
// dimension style's arrow block replays at the first vertex.
func (w *walker) leader(l *entity.Leader, m geom.Matrix, out *[]entity.Entity) error {
	if len(l.Vertices) < 2 {
		return &Error{
			Code:    CodeDegenerate,
			Message: fmt.Sprintf("leader %s has fewer than two vertices", l.Handle),
		}
	}
	if l.HasArrowhead {
		if err := w.arrowhead(l, m, out); err != nil {
			return err
		}
	}
	if l.PathType == entity.LeaderPathSpline {
		degree := 3
		if len(l.Vertices)-1 < degree {
			degree = len(l.Vertices) - 1
		}
		s := &entity.Spline{
			Common: detached(l),
			Degree: degree,
			Knots:  uniformClampedKnots(len(l.Vertices), degree),
		}
		for _, v := range l.Vertices {
			s.ControlPoints = append(s.ControlPoints, m.TransformPoint(v))
		}
		*out = append(*out, s)
		return nil
	}
	for i := 0; i+1 < len(l.Vertices); i++ {
		*out = append(*out, &entity.Line{
			Common: detached(l),
			Start:  m.TransformPoint(l.Vertices[i]),
			End:    m.TransformPoint(l.Vertices[i+1]),
		})
	}
	return nil
}

// arrowhead replays the dimension style's arrow block at the leader's
// first vertex, oriented against the first segment and scaled to the
// style's arrow size. An unresolvable style or an empty arrow block means
// the built-in default arrow, which carries no block geometry to replay.
func (w *walker) arrowhead(l *entity.Leader, m geom.Matrix, out *[]entity.Entity) error {
	style, ok := w.doc.ResolveDimStyle(l.DimStyle)
	if !ok || style.ArrowBlock == "" {
		return nil
	}
	def, ok := w.doc.ResolveBlock(style.ArrowBlock)
	if !ok {
		return nil
	}
	size := style.ArrowSize
	if size <= 0 {
		size = 1
	}

	tip := l.Vertices[0]
	dir := tip.Sub(l.Vertices[1])
	place := m.
		Mul(geom.Translate(tip.X, tip.Y, tip.Z)).
		Mul(geom.RotateZ(dir.Angle())).
		Mul(geom.Scale(size, size, size)).
		Mul(geom.Translate(-def.BasePoint.X, -def.BasePoint.Y, -def.BasePoint.Z))

	children := w.doc.EntitiesIn(def.Name)
	w.chain = append(w.chain, def.Name)
	defer func() { w.chain = w.chain[:len(w.chain)-1] }()

	for _, child := range children {
		if err := w.walkChild(child, place, out); err != nil {
			return err
		}
	}
	return nil
}

// proxy decodes the embedded graphic command stream and decomposes the
// decoded entities in place of the proxy. A missing or malformed stream
// yields no geometry and a recorded issue, never an error, so callers get
// the same shape regardless of nesting.
func (w *walker) proxy(p *entity.Proxy, m geom.Matrix, out *[]entity.Entity) error {
	if len(p.Graphic) == 0 {
		w.report(p, CodeProxyDecode, "proxy entity %s has no graphic stream", p.Handle)
		return nil
	}
	decoded, err := proxygfx.Parse(p.Graphic)
	if err != nil {
		w.report(p, CodeProxyDecode, "proxy entity %s: %v", p.Handle, err)
		return nil
	}
	for _, e := range decoded {
		if err := w.walkChild(e, m, out); err != nil {
			return err
		}
	}
	return nil
}
