package mockup

import (
	"image"
	"image/color"
	"io"

	intImage "github.com/gogpu/mockup/internal/image"
)

// Canvas is a raster surface with an HTML-canvas style transform stack.
// Translate, Rotate, Shear, and Scale post-multiply the current matrix, so
// the last call is applied to image coordinates first.
//
// A Canvas is not safe for concurrent use.
type Canvas struct {
	width  int
	height int
	buf    *intImage.ImageBuf
	pool   *intImage.Pool // mipmap level allocation; may be nil

	matrix Matrix
	stack  []Matrix
}

// NewCanvas creates a transparent canvas. Dimensions below 1 are raised
// to 1.
func NewCanvas(width, height int) *Canvas {
	buf, _ := intImage.NewImageBuf(max(1, width), max(1, height))
	return newCanvasOn(buf, nil)
}

// newCanvasOn wraps an existing buffer. The canvas draws into buf in place.
func newCanvasOn(buf *intImage.ImageBuf, pool *intImage.Pool) *Canvas {
	return &Canvas{
		width:  buf.Width(),
		height: buf.Height(),
		buf:    buf,
		pool:   pool,
		matrix: Identity(),
		stack:  make([]Matrix, 0, 8),
	}
}

// Width returns the canvas width in pixels.
func (c *Canvas) Width() int { return c.width }

// Height returns the canvas height in pixels.
func (c *Canvas) Height() int { return c.height }

// Push saves the current transform.
func (c *Canvas) Push() {
	c.stack = append(c.stack, c.matrix)
}

// Pop restores the last saved transform. Pop on an empty stack is a no-op.
func (c *Canvas) Pop() {
	if len(c.stack) == 0 {
		return
	}
	c.matrix = c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
}

// Depth returns the number of saved transforms.
func (c *Canvas) Depth() int {
	return len(c.stack)
}

// Identity drops the current transform. Saved transforms are kept.
func (c *Canvas) Identity() {
	c.matrix = Identity()
}

// Translate moves the origin by (x, y) in current user space.
func (c *Canvas) Translate(x, y float64) {
	c.matrix = c.matrix.Multiply(Translate(x, y))
}

// Scale stretches user space by x horizontally and y vertically.
func (c *Canvas) Scale(x, y float64) {
	c.matrix = c.matrix.Multiply(Scale(x, y))
}

// Rotate turns by angle radians, clockwise on screen.
func (c *Canvas) Rotate(angle float64) {
	c.matrix = c.matrix.Multiply(Rotate(angle))
}

// Shear maps (x, y) to (x + sx*y, y + sy*x) before the current transform.
func (c *Canvas) Shear(sx, sy float64) {
	c.matrix = c.matrix.Multiply(Shear(sx, sy))
}

// Transform post-multiplies the current matrix by m.
func (c *Canvas) Transform(m Matrix) {
	c.matrix = c.matrix.Multiply(m)
}

// SetTransform replaces the current matrix.
func (c *Canvas) SetTransform(m Matrix) {
	c.matrix = m
}

// GetTransform returns the current matrix.
func (c *Canvas) GetTransform() Matrix {
	return c.matrix
}

// TransformPoint maps a user-space point to canvas pixels.
func (c *Canvas) TransformPoint(x, y float64) (float64, float64) {
	p := c.matrix.TransformPoint(Pt(x, y))
	return p.X, p.Y
}

// Clear makes every pixel transparent. The transform is kept.
func (c *Canvas) Clear() {
	c.buf.Clear()
}

// Image returns a copy of the canvas contents.
func (c *Canvas) Image() *image.NRGBA {
	return c.buf.ToNRGBA()
}

// EncodePNG writes the canvas as PNG, keeping transparency.
func (c *Canvas) EncodePNG(w io.Writer) error {
	return c.buf.EncodePNG(w)
}

// EncodeJPEG writes the canvas as JPEG with the given quality (1-100),
// flattened over matte.
func (c *Canvas) EncodeJPEG(w io.Writer, quality int, matte color.Color) error {
	m := White.NRGBA()
	if matte != nil {
		m = color.NRGBAModel.Convert(matte).(color.NRGBA)
	}
	return c.buf.EncodeJPEG(w, quality, m)
}
