package geom

import "math"

// Vec represents a 3D point or vector. Drawing entities live in world
// coordinates with Z = 0 for flat (2D) geometry.
type Vec struct {
	X, Y, Z float64
}

// V is a convenience constructor for a flat (Z = 0) vector.
func V(x, y float64) Vec {
	return Vec{X: x, Y: y}
}

// V3 is a convenience constructor for a 3D vector.
func V3(x, y, z float64) Vec {
	return Vec{X: x, Y: y, Z: z}
}

// Add returns the sum of two vectors.
func (v Vec) Add(w Vec) Vec {
	return Vec{X: v.X + w.X, Y: v.Y + w.Y, Z: v.Z + w.Z}
}

// Sub returns the difference of two vectors.
func (v Vec) Sub(w Vec) Vec {
	return Vec{X: v.X - w.X, Y: v.Y - w.Y, Z: v.Z - w.Z}
}

// Mul returns the vector scaled by a scalar.
func (v Vec) Mul(s float64) Vec {
	return Vec{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Dot returns the dot product of two vectors.
func (v Vec) Dot(w Vec) float64 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z
}

// Cross2D returns the scalar cross product of the XY projections.
func (v Vec) Cross2D(w Vec) float64 {
	return v.X*w.Y - v.Y*w.X
}

// Length returns the length of the vector.
func (v Vec) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Distance returns the distance between two points.
func (v Vec) Distance(w Vec) float64 {
	return v.Sub(w).Length()
}

// Normalize returns a unit vector in the same direction.
// The zero vector normalizes to itself.
func (v Vec) Normalize() Vec {
	length := v.Length()
	if length == 0 {
		return Vec{}
	}
	return Vec{X: v.X / length, Y: v.Y / length, Z: v.Z / length}
}

// Angle returns the angle of the XY projection in radians,
// measured counter-clockwise from the positive X axis.
func (v Vec) Angle() float64 {
	return math.Atan2(v.Y, v.X)
}

// Rotate returns the vector rotated by angle radians around the Z axis.
func (v Vec) Rotate(angle float64) Vec {
	cos := math.Cos(angle)
	sin := math.Sin(angle)
	return Vec{
		X: v.X*cos - v.Y*sin,
		Y: v.X*sin + v.Y*cos,
		Z: v.Z,
	}
}

// Lerp performs linear interpolation between two points.
// t=0 returns v, t=1 returns w.
func (v Vec) Lerp(w Vec, t float64) Vec {
	return Vec{
		X: v.X + (w.X-v.X)*t,
		Y: v.Y + (w.Y-v.Y)*t,
		Z: v.Z + (w.Z-v.Z)*t,
	}
}

// NearEqual reports whether two vectors are equal within tol.
func (v Vec) NearEqual(w Vec, tol float64) bool {
	return math.Abs(v.X-w.X) <= tol &&
		math.Abs(v.Y-w.Y) <= tol &&
		math.Abs(v.Z-w.Z) <= tol
}
