// Package image provides the pixel buffers and sampling routines behind the
// mockup compositor.
//
// Buffers hold tightly packed 8-bit RGBA with straight alpha, the layout of
// image.NRGBA, so they convert to and from the standard library without
// per-pixel work.
package image

import "errors"

const bytesPerPixel = 4

var (
	// ErrInvalidDimensions is returned when width or height is non-positive.
	ErrInvalidDimensions = errors.New("image: invalid dimensions")

	// ErrOutOfBounds is returned by SetRGBA for coordinates outside the buffer.
	ErrOutOfBounds = errors.New("image: coordinates out of bounds")
)

// ImageBuf is an RGBA8 pixel buffer. Concurrent reads are safe; writes
// need external synchronization.
type ImageBuf struct {
	pix    []byte
	width  int
	height int
}

// NewImageBuf creates a transparent buffer.
func NewImageBuf(width, height int) (*ImageBuf, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	return &ImageBuf{
		pix:    make([]byte, width*height*bytesPerPixel),
		width:  width,
		height: height,
	}, nil
}

func (b *ImageBuf) Width() int  { return b.width }
func (b *ImageBuf) Height() int { return b.height }

func (b *ImageBuf) stride() int { return b.width * bytesPerPixel }

// RowBytes returns row y, or nil when y is out of range.
func (b *ImageBuf) RowBytes(y int) []byte {
	if y < 0 || y >= b.height {
		return nil
	}
	start := y * b.stride()
	return b.pix[start : start+b.stride()]
}

func (b *ImageBuf) offset(x, y int) int {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return -1
	}
	return y*b.stride() + x*bytesPerPixel
}

// GetRGBA returns the pixel at (x, y); transparent black outside the buffer.
func (b *ImageBuf) GetRGBA(x, y int) (r, g, bl, a uint8) {
	off := b.offset(x, y)
	if off < 0 {
		return 0, 0, 0, 0
	}
	p := b.pix[off : off+bytesPerPixel : off+bytesPerPixel]
	return p[0], p[1], p[2], p[3]
}

// SetRGBA writes the pixel at (x, y).
func (b *ImageBuf) SetRGBA(x, y int, r, g, bl, a uint8) error {
	off := b.offset(x, y)
	if off < 0 {
		return ErrOutOfBounds
	}
	p := b.pix[off : off+bytesPerPixel : off+bytesPerPixel]
	p[0], p[1], p[2], p[3] = r, g, bl, a
	return nil
}

// Clear makes every pixel transparent black.
func (b *ImageBuf) Clear() {
	clear(b.pix)
}

// IsEmpty reports whether b is nil or has no pixels.
func (b *ImageBuf) IsEmpty() bool {
	return b == nil || b.width == 0 || b.height == 0
}
