package geom

import "math"

// Bulge math for polyline edges.
//
// A bulge encodes a circular arc between two polyline vertices as a single
// signed factor: bulge = tan(theta/4) where theta is the included angle of
// the arc. Positive bulge means the arc runs counter-clockwise from the
// start vertex to the end vertex, negative means clockwise. Bulge 0 is a
// straight segment and must be handled by the caller; the functions below
// are undefined for bulge = 0.

// BulgeRadius returns the radius of the arc encoded by the given bulge.
func BulgeRadius(start, end Vec, bulge float64) float64 {
	alpha := 2 * math.Atan(bulge)
	return start.Distance(end) / 2 / math.Abs(math.Sin(alpha))
}

// BulgeCenter returns the center of the arc encoded by the given bulge.
//
// The center lies on the chord's perpendicular bisector at the signed
// distance d = c*(1-b^2)/(4*b) along the chord's left normal, where c is
// the chord length. The sign of the bulge selects the side; |b| > 1
// (included angle beyond a half circle) flips it back via the 1-b^2 term.
func BulgeCenter(start, end Vec, bulge float64) Vec {
	chord := end.Sub(start)
	length := chord.Length()
	normal := Vec{X: -chord.Y / length, Y: chord.X / length}
	d := length * (1 - bulge*bulge) / (4 * bulge)
	return start.Lerp(end, 0.5).Add(normal.Mul(d))
}

// BulgeToArc converts a bulged polyline edge to arc parameters.
//
// The returned angles are in radians, measured counter-clockwise from the
// positive X axis, and ordered so that sweeping counter-clockwise from
// startAngle to endAngle traces the arc. For a negative bulge the start
// and end angles are therefore swapped relative to the vertex order.
func BulgeToArc(start, end Vec, bulge float64) (center Vec, startAngle, endAngle, radius float64) {
	radius = BulgeRadius(start, end, bulge)
	center = BulgeCenter(start, end, bulge)
	startAngle = start.Sub(center).Angle()
	endAngle = end.Sub(center).Angle()
	if bulge < 0 {
		startAngle, endAngle = endAngle, startAngle
	}
	return center, startAngle, endAngle, radius
}

// ArcAngleSpan returns the counter-clockwise sweep from startAngle to
// endAngle, normalized to (0, 2*pi]. Equal angles are treated as a full
// circle.
func ArcAngleSpan(startAngle, endAngle float64) float64 {
	span := math.Mod(endAngle-startAngle, 2*math.Pi)
	if span <= 0 {
		span += 2 * math.Pi
	}
	return span
}

// PointOnArc returns the point at the given angle on a circle.
func PointOnArc(center Vec, radius, angle float64) Vec {
	return Vec{
		X: center.X + math.Cos(angle)*radius,
		Y: center.Y + math.Sin(angle)*radius,
		Z: center.Z,
	}
}

// ArcToBezierSegments approximates a circular arc with cubic Bezier
// segments, each spanning at most a quarter turn. The result is a flat
// control point list: the first point is the arc start, then three points
// per segment (two off-curve controls and the segment end point).
//
// Used to express arcs as SPLINE geometry for consumers that cannot
// render arcs natively.
func ArcToBezierSegments(center Vec, radius, startAngle, endAngle float64) []Vec {
	span := ArcAngleSpan(startAngle, endAngle)
	segments := int(math.Ceil(span / (math.Pi / 2)))
	if segments < 1 {
		segments = 1
	}
	step := span / float64(segments)
	// Standard circular arc approximation factor for a step of `step`
	// radians: kappa = 4/3 * tan(step/4).
	kappa := 4.0 / 3.0 * math.Tan(step/4)

	points := make([]Vec, 0, 1+3*segments)
	a0 := startAngle
	p0 := PointOnArc(center, radius, a0)
	points = append(points, p0)
	for i := 0; i < segments; i++ {
		a1 := a0 + step
		p1 := PointOnArc(center, radius, a1)
		t0 := Vec{X: -math.Sin(a0), Y: math.Cos(a0)}.Mul(radius * kappa)
		t1 := Vec{X: -math.Sin(a1), Y: math.Cos(a1)}.Mul(radius * kappa)
		points = append(points, p0.Add(t0), p1.Sub(t1), p1)
		a0, p0 = a1, p1
	}
	return points
}
