package explode

import (
	"math"

	"github.com/tracedraft/vellum/internal/entity"
	"github.com/tracedraft/vellum/internal/geom"
)

// primitive emits a transformed copy of a primitive entity. Circular
// geometry survives a conformal transform as-is; a non-uniform scale
// turns circles and arcs into ellipses.
func (w *walker) primitive(e entity.Entity, m geom.Matrix, out *[]entity.Entity) error {
	switch v := e.(type) {
	case *entity.Line:
		*out = append(*out, &entity.Line{
			Common: detached(v),
			Start:  m.TransformPoint(v.Start),
			End:    m.TransformPoint(v.End),
		})
	case *entity.Point:
		*out = append(*out, &entity.Point{
			Common:   detached(v),
			Location: m.TransformPoint(v.Location),
		})
	case *entity.Arc:
		prim, err := transformArc(detached(v), v.Center, v.Radius, v.StartAngle, v.EndAngle, m)
		if err != nil {
			return err
		}
		*out = append(*out, prim)
	case *entity.Circle:
		prim, err := transformArc(detached(v), v.Center, v.Radius, 0, 2*math.Pi, m)
		if err != nil {
			return err
		}
		*out = append(*out, prim)
	case *entity.Ellipse:
		prim, err := transformEllipse(v, m)
		if err != nil {
			return err
		}
		*out = append(*out, prim)
	case *entity.Spline:
		s := &entity.Spline{
			Common: detached(v),
			Degree: v.Degree,
			Knots:  append([]float64(nil), v.Knots...),
			Closed: v.Closed,
		}
		for _, p := range v.ControlPoints {
			s.ControlPoints = append(s.ControlPoints, m.TransformPoint(p))
		}
		*out = append(*out, s)
	case *entity.Text:
		t := *v
		t.Common = detached(v)
		t.Insert = m.TransformPoint(v.Insert)
		dir := m.TransformDirection(geom.V(1, 0).Rotate(v.Rotation))
		t.Rotation = dir.Angle()
		t.Height = v.Height * m.TransformDirection(geom.V(0, 1).Rotate(v.Rotation)).Length()
		*out = append(*out, &t)
	case *entity.MText:
		t := *v
		t.Common = detached(v)
		t.Insert = m.TransformPoint(v.Insert)
		dir := m.TransformDirection(geom.V(1, 0).Rotate(v.Rotation))
		t.Rotation = dir.Angle()
		t.CharHeight = v.CharHeight * m.TransformDirection(geom.V(0, 1).Rotate(v.Rotation)).Length()
		t.Width = v.Width * dir.Length()
		*out = append(*out, &t)
	default:
		return &Error{
			Code:    CodeNotImplemented,
			Message: "no decomposition for entity kind " + string(e.Kind()),
		}
	}
	return nil
}

// transformArc maps a circular arc through m. Conformal transforms keep
// it an ARC; anything else yields the equivalent ELLIPSE.
func transformArc(common entity.Common, center geom.Vec, radius, startAngle, endAngle float64, m geom.Matrix) (entity.Entity, error) {
	if m.IsConformalXY() {
		rot := m.RotationXY()
		start, end := normalizeSpan(startAngle+rot, endAngle+rot)
		return &entity.Arc{
			Common:     common,
			Center:     m.TransformPoint(center),
			Radius:     radius * m.UniformScaleXY(),
			StartAngle: start,
			EndAngle:   end,
		}, nil
	}
	return ellipseFromCircular(common, center, radius, startAngle, endAngle, m)
}

// ellipseFromCircular builds the ellipse image of a circular arc under a
// non-conformal affine transform. The circle's local X and Y radii map to
// the transformed axis vectors; the construction requires them to stay
// orthogonal (rotation composed with per-axis scaling). A sheared
// transform has no ellipse with these parameters and is not supported.
func ellipseFromCircular(common entity.Common, center geom.Vec, radius, startAngle, endAngle float64, m geom.Matrix) (entity.Entity, error) {
	vx := m.TransformDirection(geom.V(radius, 0))
	vy := m.TransformDirection(geom.V(0, radius))
	if math.Abs(vx.Dot(vy)) > 1e-9*vx.Length()*vy.Length() {
		return nil, &Error{
			Code:    CodeNotImplemented,
			Message: "sheared transform of circular geometry is not supported",
		}
	}

	start, end := startAngle, endAngle
	major, minorLen := vx, vy.Length()
	if vy.Length() > vx.Length() {
		// The local Y radius became the major axis: parameters are
		// measured from the major axis, so shift them a quarter turn.
		major, minorLen = vy, vx.Length()
		start -= math.Pi / 2
		end -= math.Pi / 2
	}
	// A mirroring transform (negative determinant) reverses the
	// parameter direction.
	if vx.Cross2D(vy) < 0 {
		start, end = -end, -start
	}

	ratio := 1.0
	if major.Length() > 0 {
		ratio = minorLen / major.Length()
	}
	start, end = normalizeSpan(start, end)
	return &entity.Ellipse{
		Common:     common,
		Center:     m.TransformPoint(center),
		MajorAxis:  major,
		Ratio:      ratio,
		StartParam: start,
		EndParam:   end,
	}, nil
}

// transformEllipse maps an ellipse through m by transforming its axis
// vectors. Requires the transformed axes to stay orthogonal.
func transformEllipse(e *entity.Ellipse, m geom.Matrix) (entity.Entity, error) {
	minorDir := geom.V(-e.MajorAxis.Y, e.MajorAxis.X).Normalize()
	minor := minorDir.Mul(e.MajorAxis.Length() * e.Ratio)

	vx := m.TransformDirection(e.MajorAxis)
	vy := m.TransformDirection(minor)
	if math.Abs(vx.Dot(vy)) > 1e-9*vx.Length()*vy.Length() {
		return nil, &Error{
			Code:    CodeNotImplemented,
			Message: "sheared transform of elliptical geometry is not supported",
		}
	}

	start, end := e.StartParam, e.EndParam
	major, minorLen := vx, vy.Length()
	if vy.Length() > vx.Length() {
		major, minorLen = vy, vx.Length()
		start -= math.Pi / 2
		end -= math.Pi / 2
	}
	if vx.Cross2D(vy) < 0 {
		start, end = -end, -start
	}

	ratio := 1.0
	if major.Length() > 0 {
		ratio = minorLen / major.Length()
	}
	start, end = normalizeSpan(start, end)
	return &entity.Ellipse{
		Common:     detached(e),
		Center:     m.TransformPoint(e.Center),
		MajorAxis:  major,
		Ratio:      ratio,
		StartParam: start,
		EndParam:   end,
	}, nil
}

// normalizeSpan maps a start/end angle pair to a canonical form: start in
// [0, 2*pi), end = start + the counter-clockwise sweep. A full circle
// keeps its 2*pi span instead of collapsing to zero.
func normalizeSpan(start, end float64) (float64, float64) {
	span := geom.ArcAngleSpan(start, end)
	start = math.Mod(start, 2*math.Pi)
	if start < 0 {
		start += 2 * math.Pi
	}
	return start, start + span
}

// bezierSplineKnots builds the knot vector of a clamped B-spline built
// from concatenated Bezier segments: full multiplicity at the ends,
// degree multiplicity at every interior joint.
func bezierSplineKnots(segments, degree int) []float64 {
	knots := make([]float64, 0, (segments+1)*degree+2)
	for i := 0; i <= degree; i++ {
		knots = append(knots, 0)
	}
	for s := 1; s < segments; s++ {
		t := float64(s) / float64(segments)
		for i := 0; i < degree; i++ {
			knots = append(knots, t)
		}
	}
	for i := 0; i <= degree; i++ {
		knots = append(knots, 1)
	}
	return knots
}

// uniformClampedKnots builds a clamped uniform knot vector for n control
// points of the given degree.
func uniformClampedKnots(n, degree int) []float64 {
	knots := make([]float64, 0, n+degree+1)
	for i := 0; i <= degree; i++ {
		knots = append(knots, 0)
	}
	spans := n - degree - 1
	for i := 1; i <= spans; i++ {
		knots = append(knots, float64(i)/float64(spans+1))
	}
	for i := 0; i <= degree; i++ {
		knots = append(knots, 1)
	}
	return knots
}
