package mockup

import (
	"image"

	intImage "github.com/gogpu/mockup/internal/image"
)

// ImageBuf is a decoded RGBA8 image ready to be drawn.
type ImageBuf = intImage.ImageBuf

// InterpolationMode selects how layer pixels are resampled.
type InterpolationMode = intImage.InterpolationMode

// Resampling filters. Bilinear is the default; nearest keeps hard pixel
// edges and bicubic is sharper on upscaled layers.
const (
	InterpNearest  = intImage.InterpNearest
	InterpBilinear = intImage.InterpBilinear
	InterpBicubic  = intImage.InterpBicubic
)

// ImageBufFromImage converts a standard library image for drawing.
// Returns nil for an empty image.
func ImageBufFromImage(img image.Image) *ImageBuf {
	return intImage.FromStdImage(img)
}

// DrawImageOptions controls a single image draw.
type DrawImageOptions struct {
	Interpolation InterpolationMode

	// Opacity multiplies the source alpha; 1 draws the image as is.
	Opacity float64

	// Mipmaps samples pre-filtered levels when the image is drawn smaller
	// than its native size.
	Mipmaps bool
}

// DrawImage draws an image with its top-left corner at (x, y) in user
// space, through the current transform.
func (c *Canvas) DrawImage(img *ImageBuf, x, y float64) bool {
	return c.DrawImageEx(img, x, y, DrawImageOptions{
		Interpolation: InterpBilinear,
		Opacity:       1.0,
	})
}

// DrawImageEx draws an image with its top-left corner at (x, y) in user
// space. It reports false when nothing could be drawn because the current
// transform is degenerate or the image is empty.
func (c *Canvas) DrawImageEx(img *ImageBuf, x, y float64, opts DrawImageOptions) bool {
	m := c.matrix.Multiply(Translate(x, y))

	var chain *intImage.MipmapChain
	if opts.Mipmaps && m.minifies() {
		chain = intImage.GenerateMipmaps(img, c.pool)
		defer chain.Release()
	}

	return intImage.DrawImage(c.buf, img, intImage.DrawParams{
		Transform: m.affine(),
		Interp:    opts.Interpolation,
		Opacity:   opts.Opacity,
		Mipmaps:   chain,
	})
}

// DrawImageCentered draws an image with its centre on the current origin.
func (c *Canvas) DrawImageCentered(img *ImageBuf, opts DrawImageOptions) bool {
	if img.IsEmpty() {
		return false
	}
	return c.DrawImageEx(img, -float64(img.Width())/2, -float64(img.Height())/2, opts)
}
