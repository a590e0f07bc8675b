package image

import "math"

// InterpolationMode selects the reconstruction filter used when a layer is
// resampled onto the canvas.
type InterpolationMode uint8

// Filters, from cheapest to smoothest.
const (
	InterpNearest InterpolationMode = iota
	InterpBilinear
	InterpBicubic
)

var interpNames = [...]string{"Nearest", "Bilinear", "Bicubic"}

func (m InterpolationMode) String() string {
	if int(m) < len(interpNames) {
		return interpNames[m]
	}
	return "Unknown"
}

// texel is a premultiplied color with channels in [0, 255].
// Filtering happens in premultiplied space so transparent neighbors do not
// bleed their (meaningless) color into the result.
type texel struct {
	r, g, b, a float64
}

func fetch(img *ImageBuf, x, y int) texel {
	x = clamp(x, 0, img.width-1)
	y = clamp(y, 0, img.height-1)
	r, g, b, a := img.GetRGBA(x, y)
	k := float64(a) / 255
	return texel{float64(r) * k, float64(g) * k, float64(b) * k, float64(a)}
}

func (t texel) scaled(w float64) texel {
	return texel{t.r * w, t.g * w, t.b * w, t.a * w}
}

func (t texel) plus(o texel) texel {
	return texel{t.r + o.r, t.g + o.g, t.b + o.b, t.a + o.a}
}

// straight converts back to non-premultiplied 8-bit channels.
func (t texel) straight() (r, g, b, a uint8) {
	alpha := clampFloat(t.a, 0, 255)
	if alpha < 0.5 {
		return 0, 0, 0, 0
	}
	k := 255 / alpha
	return toByte(t.r * k), toByte(t.g * k), toByte(t.b * k), toByte(alpha)
}

func toByte(v float64) uint8 {
	return uint8(clampFloat(math.Round(v), 0, 255))
}

// Sample reads img at (u, v), where (0, 0) is the top-left corner of the
// first pixel and (1, 1) the bottom-right corner of the last one. Reads past
// an edge repeat the edge pixel. An unknown mode yields transparent black.
func Sample(img *ImageBuf, u, v float64, mode InterpolationMode) (r, g, b, a byte) {
	switch mode {
	case InterpNearest:
		return SampleNearest(img, u, v)
	case InterpBilinear:
		return SampleBilinear(img, u, v)
	case InterpBicubic:
		return SampleBicubic(img, u, v)
	}
	return 0, 0, 0, 0
}

// SampleNearest returns the pixel covering (u, v).
func SampleNearest(img *ImageBuf, u, v float64) (r, g, b, a byte) {
	px := clamp(int(math.Floor(u*float64(img.width))), 0, img.width-1)
	py := clamp(int(math.Floor(v*float64(img.height))), 0, img.height-1)
	return img.GetRGBA(px, py)
}

// SampleBilinear blends the four pixel centers around (u, v).
func SampleBilinear(img *ImageBuf, u, v float64) (r, g, b, a byte) {
	px, fx := split(u*float64(img.width) - 0.5)
	py, fy := split(v*float64(img.height) - 0.5)

	top := fetch(img, px, py).scaled(1 - fx).plus(fetch(img, px+1, py).scaled(fx))
	bottom := fetch(img, px, py+1).scaled(1 - fx).plus(fetch(img, px+1, py+1).scaled(fx))
	return top.scaled(1 - fy).plus(bottom.scaled(fy)).straight()
}

// SampleBicubic applies a Catmull-Rom kernel to the 4x4 pixel centers
// around (u, v).
func SampleBicubic(img *ImageBuf, u, v float64) (r, g, b, a byte) {
	px, fx := split(u*float64(img.width) - 0.5)
	py, fy := split(v*float64(img.height) - 0.5)

	var wx, wy [4]float64
	for k := range 4 {
		d := float64(k - 1)
		wx[k] = catmullRom(fx - d)
		wy[k] = catmullRom(fy - d)
	}

	var sum texel
	for row, w := range wy {
		for col, k := range wx {
			sum = sum.plus(fetch(img, px+col-1, py+row-1).scaled(k * w))
		}
	}

	// Catmull-Rom overshoots; keep color inside the premultiplied gamut.
	sum.a = clampFloat(sum.a, 0, 255)
	sum.r = clampFloat(sum.r, 0, sum.a)
	sum.g = clampFloat(sum.g, 0, sum.a)
	sum.b = clampFloat(sum.b, 0, sum.a)
	return sum.straight()
}

// split separates f into its floor and the fractional remainder.
func split(f float64) (int, float64) {
	fl := math.Floor(f)
	return int(fl), f - fl
}

func clamp(v, lo, hi int) int { return max(lo, min(v, hi)) }

func clampFloat(v, lo, hi float64) float64 { return max(lo, min(v, hi)) }

// catmullRom is the Catmull-Rom kernel (B=0, C=0.5) at distance x.
func catmullRom(x float64) float64 {
	x = math.Abs(x)
	x2, x3 := x*x, x*x*x
	switch {
	case x < 1:
		return 1.5*x3 - 2.5*x2 + 1
	case x < 2:
		return -0.5*x3 + 2.5*x2 - 4*x + 2
	}
	return 0
}
