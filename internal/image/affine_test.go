package image

import (
	"math"
	"testing"
)

func near(a, b float64) bool { return math.Abs(a-b) <= 1e-9 }

func identity() Affine { return NewAffine(1, 0, 0, 0, 1, 0) }

func translate(tx, ty float64) Affine { return NewAffine(1, 0, tx, 0, 1, ty) }

func scale(sx, sy float64) Affine { return NewAffine(sx, 0, 0, 0, sy, 0) }

// rotate turns clockwise on screen for positive angles.
func rotate(angle float64) Affine {
	sin, cos := math.Sincos(angle)
	return NewAffine(cos, -sin, 0, sin, cos, 0)
}

func TestAffineConstructors(t *testing.T) {
	tests := []struct {
		name         string
		m            Affine
		x, y         float64
		wantX, wantY float64
	}{
		{"identity", identity(), 10, 20, 10, 20},
		{"translate", translate(3, -4), 2, 8, 5, 4},
		{"translate zero", translate(0, 0), 10, 20, 10, 20},
		{"scale uniform", scale(2, 2), 10, 20, 20, 40},
		{"scale mixed", scale(3, 0.5), 4, 10, 12, 5},
		{"mirror x", scale(-1, 1), 5, 10, -5, 10},
		// +x turns toward +y, which is clockwise with y down.
		{"quarter turn", rotate(math.Pi / 2), 1, 0, 0, 1},
		{"half turn", rotate(math.Pi), 1, 0, -1, 0},
		{"negative quarter turn", rotate(-math.Pi / 2), 0, 1, 1, 0},
		{"coefficients", NewAffine(1, 2, 3, 4, 5, 6), 1, 1, 6, 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := tt.m.TransformPoint(tt.x, tt.y)
			if !near(x, tt.wantX) || !near(y, tt.wantY) {
				t.Errorf("(%v, %v) -> (%v, %v), want (%v, %v)", tt.x, tt.y, x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestMultiplyOrder(t *testing.T) {
	// Translate.Multiply(Scale) scales first, then translates.
	a := translate(10, 0).Multiply(scale(2, 2))
	x, y := a.TransformPoint(1, 1)
	if !near(x, 12) || !near(y, 2) {
		t.Errorf("got (%f, %f), want (12, 2)", x, y)
	}

	b := scale(2, 2).Multiply(translate(10, 0))
	x, y = b.TransformPoint(1, 1)
	if !near(x, 22) || !near(y, 2) {
		t.Errorf("got (%f, %f), want (22, 2)", x, y)
	}
}

func TestInvert(t *testing.T) {
	tests := []struct {
		name string
		a    Affine
	}{
		{"identity", identity()},
		{"translate", translate(5, -3)},
		{"scale", scale(2, 0.25)},
		{"rotate", rotate(0.7)},
		{"shear", NewAffine(1, 0.5, 3, 0.2, 1, -4)},
		{"composite", translate(1024, 1024).Multiply(rotate(1.1)).Multiply(scale(3, 3))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, ok := tt.a.Invert()
			if !ok {
				t.Fatal("Invert() reported singular matrix")
			}
			x, y := inv.Multiply(tt.a).TransformPoint(17, -9)
			if !near(x, 17) || !near(y, -9) {
				t.Errorf("inverse round trip = (%f, %f), want (17, -9)", x, y)
			}
		})
	}
}

func TestInvertSingular(t *testing.T) {
	singular := []Affine{
		scale(0, 1),
		scale(1, 0),
		NewAffine(1, 2, 0, 2, 4, 0),
	}
	for i, a := range singular {
		if _, ok := a.Invert(); ok {
			t.Errorf("case %d: Invert() succeeded on singular matrix", i)
		}
	}
}

func TestTransformRect(t *testing.T) {
	minX, minY, maxX, maxY := rotate(math.Pi/2).TransformRect(0, 0, 10, 20)
	// (10, 0) -> (0, 10); (0, 20) -> (-20, 0); (10, 20) -> (-20, 10)
	want := [4]float64{-20, 0, 0, 10}
	got := [4]float64{minX, minY, maxX, maxY}
	for i := range want {
		if !near(got[i], want[i]) {
			t.Errorf("TransformRect = %v, want %v", got, want)
			break
		}
	}
}

func TestRowNorms(t *testing.T) {
	gx, gy := scale(4, 0.5).rowNorms()
	if gx != 4 || gy != 0.5 {
		t.Errorf("rowNorms() = (%f, %f), want (4, 0.5)", gx, gy)
	}

	gx, gy = rotate(0.3).rowNorms()
	if !near(gx, 1) || !near(gy, 1) {
		t.Errorf("rotation rowNorms() = (%f, %f), want (1, 1)", gx, gy)
	}
}
