package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-9

func TestVec_Basics(t *testing.T) {
	v := V(3, 4)
	assert.Equal(t, 5.0, v.Length())
	assert.Equal(t, V(4, 6), v.Add(V(1, 2)))
	assert.Equal(t, V(2, 2), v.Sub(V(1, 2)))
	assert.Equal(t, V(6, 8), v.Mul(2))
	assert.Equal(t, 11.0, v.Dot(V(1, 2)))
	assert.Equal(t, 2.0, V(1, 0).Cross2D(V(0, 2)))
}

func TestVec_Rotate(t *testing.T) {
	got := V(1, 0).Rotate(math.Pi / 2)
	assert.True(t, got.NearEqual(V(0, 1), tol))
}

func TestVec_Angle(t *testing.T) {
	assert.InDelta(t, 0, V(1, 0).Angle(), tol)
	assert.InDelta(t, math.Pi/2, V(0, 1).Angle(), tol)
	assert.InDelta(t, math.Pi, V(-1, 0).Angle(), tol)
}

func TestVec_Normalize_Zero(t *testing.T) {
	assert.Equal(t, Vec{}, Vec{}.Normalize())
}

func TestMatrix_Identity(t *testing.T) {
	m := Identity()
	assert.True(t, m.IsIdentity())
	p := V3(1, 2, 3)
	assert.Equal(t, p, m.TransformPoint(p))
}

func TestMatrix_Compose(t *testing.T) {
	// Rotate 90 degrees, then translate by (10, 0): the classic nested
	// insertion case. Point (1, 0) maps to (10, 1).
	m := Translate(10, 0, 0).Mul(RotateZ(math.Pi / 2))
	got := m.TransformPoint(V(1, 0))
	assert.True(t, got.NearEqual(V(10, 1), tol), "got %v", got)

	// Origin maps to the translation.
	got = m.TransformPoint(V(0, 0))
	assert.True(t, got.NearEqual(V(10, 0), tol), "got %v", got)
}

func TestMatrix_TransformDirection(t *testing.T) {
	m := Translate(5, 5, 0).Mul(Scale(2, 2, 1))
	got := m.TransformDirection(V(1, 0))
	assert.True(t, got.NearEqual(V(2, 0), tol), "translation must not affect directions")
}

func TestMatrix_IsConformalXY(t *testing.T) {
	assert.True(t, Identity().IsConformalXY())
	assert.True(t, RotateZ(0.7).IsConformalXY())
	assert.True(t, Scale(2, 2, 1).Mul(RotateZ(1.1)).IsConformalXY())
	assert.False(t, Scale(2, 1, 1).IsConformalXY(), "non-uniform scale is not conformal")
	assert.False(t, Scale(-1, 1, 1).IsConformalXY(), "mirroring is not conformal")
}

func TestMatrix_RotationAndScale(t *testing.T) {
	m := RotateZ(math.Pi / 3).Mul(Scale(3, 3, 3))
	assert.InDelta(t, math.Pi/3, m.RotationXY(), tol)
	assert.InDelta(t, 3, m.UniformScaleXY(), tol)
}

func TestBulgeToArc_Semicircle(t *testing.T) {
	// bulge = 1 encodes a half circle: included angle 4*atan(1) = pi.
	start := V(0, 0)
	end := V(1, 0)
	center, sa, ea, radius := BulgeToArc(start, end, 1)

	assert.True(t, center.NearEqual(V(0.5, 0), tol), "center %v", center)
	assert.InDelta(t, 0.5, radius, tol)
	assert.InDelta(t, math.Pi, sa, tol)
	assert.InDelta(t, 0, ea, tol)
	assert.InDelta(t, math.Pi, ArcAngleSpan(sa, ea), tol)
}

func TestBulgeToArc_RoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		start Vec
		end   Vec
		bulge float64
	}{
		{"quarter ccw", V(0, 0), V(2, 2), math.Tan(math.Pi / 8)},
		{"quarter cw", V(0, 0), V(2, 2), -math.Tan(math.Pi / 8)},
		{"shallow", V(-3, 1), V(4, 1), 0.25},
		{"shallow cw", V(-3, 1), V(4, 1), -0.25},
		{"semicircle cw", V(1, 1), V(5, 1), -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			center, sa, ea, radius := BulgeToArc(tc.start, tc.end, tc.bulge)

			// Included angle is 4*atan(|bulge|).
			span := ArcAngleSpan(sa, ea)
			assert.InDelta(t, 4*math.Atan(math.Abs(tc.bulge)), span, tol)

			// Arc endpoints must recover the original vertices. For a
			// negative bulge the angles are swapped so the CCW sweep
			// covers the same point set.
			p0 := PointOnArc(center, radius, sa)
			p1 := PointOnArc(center, radius, ea)
			if tc.bulge > 0 {
				assert.True(t, p0.NearEqual(tc.start, tol), "start %v", p0)
				assert.True(t, p1.NearEqual(tc.end, tol), "end %v", p1)
			} else {
				assert.True(t, p0.NearEqual(tc.end, tol), "end %v", p0)
				assert.True(t, p1.NearEqual(tc.start, tol), "start %v", p1)
			}

			// Both endpoints are on the circle.
			assert.InDelta(t, radius, tc.start.Distance(center), tol)
			assert.InDelta(t, radius, tc.end.Distance(center), tol)
		})
	}
}

func TestArcAngleSpan(t *testing.T) {
	assert.InDelta(t, math.Pi, ArcAngleSpan(0, math.Pi), tol)
	assert.InDelta(t, math.Pi, ArcAngleSpan(math.Pi, 0), tol)
	assert.InDelta(t, 2*math.Pi, ArcAngleSpan(1, 1), tol, "equal angles mean full circle")
	assert.InDelta(t, 3*math.Pi/2, ArcAngleSpan(math.Pi/2, 0), tol)
}

func TestArcToBezierSegments(t *testing.T) {
	center := V(0, 0)
	points := ArcToBezierSegments(center, 1, 0, math.Pi)
	require.Len(t, points, 7, "half circle needs two quarter-turn segments")

	// Endpoints are exact.
	assert.True(t, points[0].NearEqual(V(1, 0), tol))
	assert.True(t, points[6].NearEqual(V(-1, 0), tol))

	// Segment joints lie on the circle.
	assert.InDelta(t, 1, points[3].Distance(center), tol)

	// Midpoint of the first Bezier segment stays close to the circle.
	mid := bezierPoint(points[0], points[1], points[2], points[3], 0.5)
	assert.InDelta(t, 1, mid.Distance(center), 1e-3)
}

func bezierPoint(p0, p1, p2, p3 Vec, t float64) Vec {
	a := p0.Lerp(p1, t)
	b := p1.Lerp(p2, t)
	c := p2.Lerp(p3, t)
	return a.Lerp(b, t).Lerp(b.Lerp(c, t), t)
}
