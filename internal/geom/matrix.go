package geom

import "math"

// Matrix represents a 3D affine transformation as a 3x4 matrix in
// row-major order:
//
//	| A  B  C  Tx |
//	| D  E  F  Ty |
//	| G  H  I  Tz |
//
// This represents the transformation:
//
//	x' = A*x + B*y + C*z + Tx
//	y' = D*x + E*y + F*z + Ty
//	z' = G*x + H*y + I*z + Tz
type Matrix struct {
	A, B, C, Tx float64
	D, E, F, Ty float64
	G, H, I, Tz float64
}

// Identity returns the identity transformation matrix.
func Identity() Matrix {
	return Matrix{
		A: 1, E: 1, I: 1,
	}
}

// Translate creates a translation matrix.
func Translate(x, y, z float64) Matrix {
	return Matrix{
		A: 1, Tx: x,
		E: 1, Ty: y,
		I: 1, Tz: z,
	}
}

// Scale creates a scaling matrix.
func Scale(x, y, z float64) Matrix {
	return Matrix{A: x, E: y, I: z}
}

// RotateZ creates a rotation matrix around the Z axis (angle in radians).
func RotateZ(angle float64) Matrix {
	cos := math.Cos(angle)
	sin := math.Sin(angle)
	return Matrix{
		A: cos, B: -sin,
		D: sin, E: cos,
		I: 1,
	}
}

// Mul multiplies two matrices (m * other). The combined matrix applies
// other first, then m.
func (m Matrix) Mul(o Matrix) Matrix {
	return Matrix{
		A:  m.A*o.A + m.B*o.D + m.C*o.G,
		B:  m.A*o.B + m.B*o.E + m.C*o.H,
		C:  m.A*o.C + m.B*o.F + m.C*o.I,
		Tx: m.A*o.Tx + m.B*o.Ty + m.C*o.Tz + m.Tx,
		D:  m.D*o.A + m.E*o.D + m.F*o.G,
		E:  m.D*o.B + m.E*o.E + m.F*o.H,
		F:  m.D*o.C + m.E*o.F + m.F*o.I,
		Ty: m.D*o.Tx + m.E*o.Ty + m.F*o.Tz + m.Ty,
		G:  m.G*o.A + m.H*o.D + m.I*o.G,
		H:  m.G*o.B + m.H*o.E + m.I*o.H,
		I:  m.G*o.C + m.H*o.F + m.I*o.I,
		Tz: m.G*o.Tx + m.H*o.Ty + m.I*o.Tz + m.Tz,
	}
}

// TransformPoint applies the transformation to a point.
func (m Matrix) TransformPoint(v Vec) Vec {
	return Vec{
		X: m.A*v.X + m.B*v.Y + m.C*v.Z + m.Tx,
		Y: m.D*v.X + m.E*v.Y + m.F*v.Z + m.Ty,
		Z: m.G*v.X + m.H*v.Y + m.I*v.Z + m.Tz,
	}
}

// TransformDirection applies the transformation to a direction vector,
// ignoring translation.
func (m Matrix) TransformDirection(v Vec) Vec {
	return Vec{
		X: m.A*v.X + m.B*v.Y + m.C*v.Z,
		Y: m.D*v.X + m.E*v.Y + m.F*v.Z,
		Z: m.G*v.X + m.H*v.Y + m.I*v.Z,
	}
}

// IsIdentity returns true if the matrix is the identity matrix.
func (m Matrix) IsIdentity() bool {
	return m == Identity()
}

const conformalTol = 1e-9

// IsConformalXY reports whether the XY part of the transformation
// preserves angles and is orientation-preserving: a composition of
// rotation, translation and uniform scaling. Circular arcs stay
// circular under a conformal transform; anything else turns them
// into ellipses.
func (m Matrix) IsConformalXY() bool {
	ux := Vec{X: m.A, Y: m.D}
	uy := Vec{X: m.B, Y: m.E}
	lx := ux.Length()
	ly := uy.Length()
	if math.Abs(lx-ly) > conformalTol {
		return false
	}
	if math.Abs(ux.Dot(uy)) > conformalTol {
		return false
	}
	// Reject mirroring: a negative determinant flips arc direction.
	return m.A*m.E-m.B*m.D > 0
}

// RotationXY returns the rotation component of the XY part in radians.
// Only meaningful for conformal transforms.
func (m Matrix) RotationXY() float64 {
	return math.Atan2(m.D, m.A)
}

// UniformScaleXY returns the uniform scale factor of the XY part.
// Only meaningful for conformal transforms.
func (m Matrix) UniformScaleXY() float64 {
	return Vec{X: m.A, Y: m.D}.Length()
}
