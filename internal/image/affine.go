package image

import "math"

// Affine is a 2D affine transformation:
//
//	| a  b  c |
//	| d  e  f |
//	| 0  0  1 |
//
// mapping (x, y) to (a*x + b*y + c, d*x + e*y + f).
type Affine struct {
	a, b, c float64
	d, e, f float64
}

// NewAffine returns the transformation with the given coefficients.
func NewAffine(a, b, c, d, e, f float64) Affine {
	return Affine{a: a, b: b, c: c, d: d, e: e, f: f}
}

// Multiply returns a * other, which applies other first.
func (a Affine) Multiply(other Affine) Affine {
	return Affine{
		a: a.a*other.a + a.b*other.d,
		b: a.a*other.b + a.b*other.e,
		c: a.a*other.c + a.b*other.f + a.c,
		d: a.d*other.a + a.e*other.d,
		e: a.d*other.b + a.e*other.e,
		f: a.d*other.c + a.e*other.f + a.f,
	}
}

// Determinant returns the determinant of the linear part.
func (a Affine) Determinant() float64 {
	return a.a*a.e - a.b*a.d
}

// Invert returns the inverse transformation.
// Returns false if the matrix is singular (non-invertible).
func (a Affine) Invert() (Affine, bool) {
	det := a.Determinant()
	if math.Abs(det) < 1e-10 {
		return Affine{}, false
	}

	invDet := 1.0 / det

	return Affine{
		a: a.e * invDet,
		b: -a.b * invDet,
		c: (a.b*a.f - a.c*a.e) * invDet,
		d: -a.d * invDet,
		e: a.a * invDet,
		f: (a.c*a.d - a.a*a.f) * invDet,
	}, true
}

// TransformPoint applies the transformation to point (x, y).
func (a Affine) TransformPoint(x, y float64) (float64, float64) {
	return a.a*x + a.b*y + a.c, a.d*x + a.e*y + a.f
}

// TransformRect returns the axis-aligned bounds of the rectangle
// [x0,x1]×[y0,y1] after transformation.
func (a Affine) TransformRect(x0, y0, x1, y1 float64) (minX, minY, maxX, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, p := range [4][2]float64{{x0, y0}, {x1, y0}, {x0, y1}, {x1, y1}} {
		x, y := a.TransformPoint(p[0], p[1])
		minX, maxX = min(minX, x), max(maxX, x)
		minY, maxY = min(minY, y), max(maxY, y)
	}
	return minX, minY, maxX, maxY
}

// rowNorms returns the lengths of the two rows of the linear part. For an
// inverse transform these are the rates at which source x and source y
// change per destination pixel.
func (a Affine) rowNorms() (float64, float64) {
	return math.Hypot(a.a, a.b), math.Hypot(a.d, a.e)
}
