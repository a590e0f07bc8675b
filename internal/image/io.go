package image

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// I/O errors.
var (
	// ErrEmptyData is returned when image data is empty.
	ErrEmptyData = errors.New("image: empty data")

	// ErrTooLarge is returned when an image header declares more pixels
	// than the caller allows.
	ErrTooLarge = errors.New("image: dimensions exceed limit")
)

// DecodeBytes decodes an encoded image of any registered format (PNG, JPEG,
// GIF, WebP, BMP, TIFF). When maxPixels > 0 the header is inspected first
// and images with more pixels are rejected before their pixel data is
// decoded. The detected format name is returned alongside the buffer.
func DecodeBytes(data []byte, maxPixels int) (*ImageBuf, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmptyData
	}

	if maxPixels > 0 {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, "", fmt.Errorf("image: decode config: %w", err)
		}
		if cfg.Width <= 0 || cfg.Height <= 0 {
			return nil, "", ErrInvalidDimensions
		}
		if cfg.Width*cfg.Height > maxPixels {
			return nil, "", fmt.Errorf("%w: %dx%d > %d pixels", ErrTooLarge, cfg.Width, cfg.Height, maxPixels)
		}
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("image: decode: %w", err)
	}
	buf := FromStdImage(img)
	if buf == nil {
		return nil, format, ErrInvalidDimensions
	}
	return buf, format, nil
}

// FromStdImage converts a standard library image to a buffer.
// Returns nil for empty images.
func FromStdImage(img image.Image) *ImageBuf {
	bounds := img.Bounds()
	buf, err := NewImageBuf(bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil
	}

	if src, ok := img.(*image.NRGBA); ok {
		for y := range buf.height {
			start := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(buf.RowBytes(y), src.Pix[start:start+buf.stride()])
		}
		return buf
	}

	// Src into an NRGBA view converts the color model, un-premultiplying
	// *image.RGBA and friends.
	dst := buf.nrgbaView()
	draw.Draw(dst, dst.Rect, img, bounds.Min, draw.Src)
	return buf
}

// ToNRGBA copies the buffer into a standard library image.
func (b *ImageBuf) ToNRGBA() *image.NRGBA {
	img := b.nrgbaView()
	img.Pix = append([]byte(nil), b.pix...)
	return img
}

// nrgbaView shares the buffer's memory.
func (b *ImageBuf) nrgbaView() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.pix,
		Stride: b.stride(),
		Rect:   image.Rect(0, 0, b.width, b.height),
	}
}

// EncodePNG encodes the image as PNG, preserving transparency.
func (b *ImageBuf) EncodePNG(w io.Writer) error {
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	if err := enc.Encode(w, b.nrgbaView()); err != nil {
		return fmt.Errorf("image: encode PNG: %w", err)
	}
	return nil
}

// EncodeJPEG encodes the image as JPEG with the given quality (clamped to
// 1-100). JPEG carries no alpha channel, so every pixel is first composited
// over the opaque matte color.
func (b *ImageBuf) EncodeJPEG(w io.Writer, quality int, matte color.NRGBA) error {
	quality = clamp(quality, 1, 100)

	flat := image.NewRGBA(image.Rect(0, 0, b.width, b.height))
	for y := range b.height {
		row := b.RowBytes(y)
		out := flat.Pix[y*flat.Stride:]
		for i := 0; i < len(row); i += bytesPerPixel {
			out[i], out[i+1], out[i+2], _ = blendNormal(row[i], row[i+1], row[i+2], row[i+3],
				matte.R, matte.G, matte.B, 255)
			out[i+3] = 255
		}
	}

	if err := jpeg.Encode(w, flat, &jpeg.Options{Quality: quality}); err != nil {
		return fmt.Errorf("image: encode JPEG: %w", err)
	}
	return nil
}
