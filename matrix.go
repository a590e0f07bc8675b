package mockup

import (
	"math"

	intImage "github.com/gogpu/mockup/internal/image"
)

// Matrix is a 2D affine transform in output pixel space:
//
//	x' = A*x + B*y + C
//	y' = D*x + E*y + F
//
// Composition follows the canvas convention: m.Multiply(n) applies n first.
type Matrix struct {
	A, B, C float64
	D, E, F float64
}

// Identity leaves points unchanged.
func Identity() Matrix {
	return Matrix{
		A: 1, B: 0, C: 0,
		D: 0, E: 1, F: 0,
	}
}

// Translate moves points by (x, y).
func Translate(x, y float64) Matrix {
	return Matrix{
		A: 1, B: 0, C: x,
		D: 0, E: 1, F: y,
	}
}

// Scale stretches along the axes.
func Scale(x, y float64) Matrix {
	return Matrix{
		A: x, B: 0, C: 0,
		D: 0, E: y, F: 0,
	}
}

// Rotate turns by angle radians. With y pointing down, positive angles
// are clockwise on screen.
func Rotate(angle float64) Matrix {
	sin, cos := math.Sincos(angle)
	return Matrix{
		A: cos, B: -sin, C: 0,
		D: sin, E: cos, F: 0,
	}
}

// Shear creates a shear matrix with x and y as the off-diagonal terms:
// x' = x + y*sx, y' = y + x*sy.
func Shear(sx, sy float64) Matrix {
	return Matrix{
		A: 1, B: sx, C: 0,
		D: sy, E: 1, F: 0,
	}
}

// Skew creates a shear matrix from angles in degrees.
func Skew(degX, degY float64) Matrix {
	return Shear(math.Tan(Radians(degX)), math.Tan(Radians(degY)))
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Multiply returns m * other.
func (m Matrix) Multiply(other Matrix) Matrix {
	return Matrix{
		A: m.A*other.A + m.B*other.D,
		B: m.A*other.B + m.B*other.E,
		C: m.A*other.C + m.B*other.F + m.C,
		D: m.D*other.A + m.E*other.D,
		E: m.D*other.B + m.E*other.E,
		F: m.D*other.C + m.E*other.F + m.F,
	}
}

// TransformPoint maps p.
func (m Matrix) TransformPoint(p Point) Point {
	return Point{
		X: m.A*p.X + m.B*p.Y + m.C,
		Y: m.D*p.X + m.E*p.Y + m.F,
	}
}

// Determinant returns the determinant of the linear part.
func (m Matrix) Determinant() float64 {
	return m.A*m.E - m.B*m.D
}

// IsSingular reports whether the matrix collapses the plane onto a line or
// a point and cannot be inverted.
func (m Matrix) IsSingular() bool {
	return math.Abs(m.Determinant()) < 1e-10
}

// Invert returns the inverse, or the identity when m is singular.
func (m Matrix) Invert() Matrix {
	if m.IsSingular() {
		return Identity()
	}

	invDet := 1.0 / m.Determinant()
	return Matrix{
		A: m.E * invDet,
		B: -m.B * invDet,
		C: (m.B*m.F - m.C*m.E) * invDet,
		D: -m.D * invDet,
		E: m.A * invDet,
		F: (m.C*m.D - m.A*m.F) * invDet,
	}
}

// IsIdentity reports whether m is exactly the identity.
func (m Matrix) IsIdentity() bool {
	return m.A == 1 && m.B == 0 && m.C == 0 &&
		m.D == 0 && m.E == 1 && m.F == 0
}

// minifies reports whether some direction is shrunk, i.e. one destination
// pixel covers more than one source pixel.
func (m Matrix) minifies() bool {
	if m.IsSingular() {
		return false
	}
	inv := m.Invert()
	return math.Hypot(inv.A, inv.B) > 1 || math.Hypot(inv.D, inv.E) > 1
}

func (m Matrix) affine() intImage.Affine {
	return intImage.NewAffine(m.A, m.B, m.C, m.D, m.E, m.F)
}
