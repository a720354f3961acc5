package explode

import (
	"math"

	"github.com/tracedraft/vellum/internal/entity"
	"github.com/tracedraft/vellum/internal/geom"
)

const flatBulge = 1e-12

// polyline decomposes a polyline into one primitive per edge: a LINE for
// flat edges, the configured target kind for bulged edges. A closed
// polyline gets a closing edge from the last vertex back to the first.
func (w *walker) polyline(p *entity.Polyline, m geom.Matrix, out *[]entity.Entity) error {
	if len(p.Vertices) < 2 {
		return &Error{
			Code:    CodeDegenerate,
			Message: "polyline has fewer than two vertices",
		}
	}
	edges := len(p.Vertices) - 1
	if p.Closed {
		edges = len(p.Vertices)
	}
	for i := 0; i < edges; i++ {
		a := p.Vertices[i]
		b := p.Vertices[(i+1)%len(p.Vertices)]
		if err := w.edge(p, a, b, m, out); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) edge(p *entity.Polyline, a, b entity.Vertex, m geom.Matrix, out *[]entity.Entity) error {
	if a.Location == b.Location {
		if math.Abs(a.Bulge) < flatBulge {
			// Coincident vertices on a flat edge contribute nothing.
			return nil
		}
		return &Error{
			Code:    CodeDegenerate,
			Message: "bulged edge between coincident vertices",
		}
	}
	if math.Abs(a.Bulge) < flatBulge {
		*out = append(*out, &entity.Line{
			Common: detached(p),
			Start:  m.TransformPoint(a.Location),
			End:    m.TransformPoint(b.Location),
		})
		return nil
	}

	center, startAngle, endAngle, radius := geom.BulgeToArc(a.Location, b.Location, a.Bulge)
	switch w.opts.Target {
	case TargetEllipse:
		prim, err := ellipseFromCircular(detached(p), center, radius, startAngle, endAngle, m)
		if err != nil {
			return err
		}
		*out = append(*out, prim)
	case TargetSpline:
		ctrl := geom.ArcToBezierSegments(center, radius, startAngle, endAngle)
		s := &entity.Spline{
			Common: detached(p),
			Degree: 3,
			Knots:  bezierSplineKnots((len(ctrl)-1)/3, 3),
		}
		for _, pt := range ctrl {
			s.ControlPoints = append(s.ControlPoints, m.TransformPoint(pt))
		}
		*out = append(*out, s)
	default:
		prim, err := transformArc(detached(p), center, radius, startAngle, endAngle, m)
		if err != nil {
			return err
		}
		*out = append(*out, prim)
	}
	return nil
}
