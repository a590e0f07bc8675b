package mockup

import (
	"context"
	"fmt"
	"image"
	"io"
	"math"
)

// Layer is one placed image. Geometry is expressed in world units (see
// WorldSize) relative to the world centre.
type Layer struct {
	// ID identifies the layer in errors. Unique within one Composite call.
	ID string

	// Source is where the raster comes from.
	Source Source

	// Rotation in degrees, clockwise positive.
	Rotation float64

	// Scale is a positive uniform multiplier.
	Scale float64

	// MoveX, MoveY offset the image centre from the world centre.
	MoveX, MoveY float64

	// SkewX, SkewY shear the image, in degrees.
	SkewX, SkewY float64

	// Opacity in [0, 1]. Nil means fully opaque.
	Opacity *float64
}

// Opacity returns a pointer to v, for use in Layer literals.
func Opacity(v float64) *float64 {
	return &v
}

// validate checks the layer in isolation. Duplicate ids are checked by
// the compositor.
func (l *Layer) validate() error {
	if l.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidLayer)
	}
	fields := []struct {
		name string
		v    float64
	}{
		{"rotation", l.Rotation},
		{"scale", l.Scale},
		{"moveX", l.MoveX},
		{"moveY", l.MoveY},
		{"skewX", l.SkewX},
		{"skewY", l.SkewY},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidLayer, f.name)
		}
	}
	if l.Scale <= 0 {
		return fmt.Errorf("%w: scale must be positive, got %g", ErrInvalidLayer, l.Scale)
	}
	if l.Opacity != nil && !(*l.Opacity >= 0 && *l.Opacity <= 1) {
		return fmt.Errorf("%w: opacity must be in [0, 1], got %g", ErrInvalidLayer, *l.Opacity)
	}
	return nil
}

// Source is the image reference of a layer: one of ImageSource,
// FileSource, or PreviewSource.
type Source interface {
	isSource()
}

// ImageSource is an already decoded image.
type ImageSource struct {
	Image image.Image
}

// FileSource is a freshly uploaded file, still encoded.
type FileSource struct {
	Name string
	Data []byte
}

// PreviewSource is a layer restored from storage, known only by the URL of
// its cached preview. It is resolved through a Fetcher.
type PreviewSource struct {
	URL string
}

func (ImageSource) isSource()   {}
func (FileSource) isSource()    {}
func (PreviewSource) isSource() {}

// Fetcher retrieves the encoded bytes behind a preview URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, url string) (io.ReadCloser, error)

// Fetch calls f(ctx, url).
func (f FetcherFunc) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	return f(ctx, url)
}
