package mockup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	intImage "github.com/gogpu/mockup/internal/image"
)

// Contract constants shared with the editor.
const (
	// WorldSize is the side of the logical square in which layer
	// geometry is expressed.
	WorldSize = 1024

	// OutputSize is the side of the rendered square image in pixels.
	OutputSize = 2048

	// ScaleFactor converts world units to output pixels.
	ScaleFactor = float64(OutputSize) / WorldSize
)

// Result is an encoded composite.
type Result struct {
	Data   []byte
	Format Format
	Width  int
	Height int
}

// ContentType returns the MIME type of the encoded data.
func (r *Result) ContentType() string {
	return r.Format.ContentType()
}

// Compositor renders ordered layer lists into one OutputSize square image.
//
// A Compositor is safe for concurrent use. Every call draws on its own
// canvas buffer, which is recycled through an internal pool afterwards.
type Compositor struct {
	opts options
	pool *intImage.Pool
}

// New creates a Compositor.
func New(opts ...Option) *Compositor {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Compositor{
		opts: o,
		pool: intImage.NewPool(2),
	}
}

// Format returns the configured output format.
func (c *Compositor) Format() Format {
	return c.opts.format
}

// Composite renders layers with a one-off Compositor.
func Composite(ctx context.Context, layers []Layer, opts ...Option) (*Result, error) {
	return New(opts...).Composite(ctx, layers)
}

// Composite decodes every layer source, draws the layers in order, and
// encodes the canvas in the configured format.
//
// It fails with ErrEmptyInput for an empty list, *LayerError for invalid
// geometry, *ImageLoadError when any source cannot be loaded (before
// anything is drawn), and *EncodingError when serialization fails. No
// partial output is ever returned.
func (c *Compositor) Composite(ctx context.Context, layers []Layer) (*Result, error) {
	buf, err := c.render(ctx, layers)
	if err != nil {
		return nil, err
	}
	defer c.pool.Put(buf)

	var out bytes.Buffer
	if err := c.encode(&out, buf); err != nil {
		return nil, &EncodingError{Format: c.opts.format, Err: err}
	}

	return &Result{
		Data:   out.Bytes(),
		Format: c.opts.format,
		Width:  OutputSize,
		Height: OutputSize,
	}, nil
}

// Render is Composite without the final encoding. The returned image is
// owned by the caller.
func (c *Compositor) Render(ctx context.Context, layers []Layer) (*image.NRGBA, error) {
	buf, err := c.render(ctx, layers)
	if err != nil {
		return nil, err
	}
	defer c.pool.Put(buf)
	return buf.ToNRGBA(), nil
}

func (c *Compositor) render(ctx context.Context, layers []Layer) (*intImage.ImageBuf, error) {
	if len(layers) == 0 {
		return nil, ErrEmptyInput
	}
	if err := validateLayers(layers); err != nil {
		return nil, err
	}

	sources, err := c.loadAll(ctx, layers)
	if err != nil {
		return nil, err
	}

	buf := c.pool.Get(OutputSize, OutputSize)
	canvas := newCanvasOn(buf, c.pool)
	for i := range layers {
		c.drawLayer(canvas, &layers[i], sources[i])
	}
	return buf, nil
}

func validateLayers(layers []Layer) error {
	seen := make(map[string]struct{}, len(layers))
	for i := range layers {
		l := &layers[i]
		if err := l.validate(); err != nil {
			return &LayerError{LayerID: l.ID, Err: err}
		}
		if _, dup := seen[l.ID]; dup {
			return &LayerError{LayerID: l.ID, Err: fmt.Errorf("%w: duplicate id", ErrInvalidLayer)}
		}
		seen[l.ID] = struct{}{}
	}
	return nil
}

// loadAll decodes every source concurrently. On failure the error of the
// earliest failing layer in input order is returned. A failure cancels
// pending preview fetches but not local decodes, so every local source
// reports its own error.
func (c *Compositor) loadAll(ctx context.Context, layers []Layer) ([]*ImageBuf, error) {
	sources := make([]*ImageBuf, len(layers))
	errs := make([]error, len(layers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.decodeWorkers)
	for i := range layers {
		g.Go(func() error {
			err := ctx.Err()
			var src *ImageBuf
			if err == nil {
				src, err = c.load(gctx, layers[i].Source)
			}
			if err != nil {
				errs[i] = &ImageLoadError{LayerID: layers[i].ID, Err: err}
				return errs[i]
			}
			sources[i] = src
			Logger().Debug("mockup: layer decoded",
				slog.String("layer", layers[i].ID),
				slog.Int("width", src.Width()),
				slog.Int("height", src.Height()))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, firstLoadError(errs, err)
	}
	return sources, nil
}

// firstLoadError picks the earliest error that is not a side effect of the
// group cancelling its siblings.
func firstLoadError(errs []error, fallback error) error {
	for _, err := range errs {
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return fallback
}

func (c *Compositor) load(ctx context.Context, src Source) (*ImageBuf, error) {
	switch s := src.(type) {
	case ImageSource:
		return c.loadImage(s.Image)
	case *ImageSource:
		if s == nil {
			return nil, ErrNoSource
		}
		return c.loadImage(s.Image)
	case FileSource:
		return c.decode(s.Data)
	case *FileSource:
		if s == nil {
			return nil, ErrNoSource
		}
		return c.decode(s.Data)
	case PreviewSource:
		return c.fetch(ctx, s.URL)
	case *PreviewSource:
		if s == nil {
			return nil, ErrNoSource
		}
		return c.fetch(ctx, s.URL)
	default:
		return nil, ErrNoSource
	}
}

func (c *Compositor) loadImage(img image.Image) (*ImageBuf, error) {
	if img == nil {
		return nil, ErrNoSource
	}
	b := img.Bounds()
	if limit := c.opts.maxSourcePixels; limit > 0 && b.Dx()*b.Dy() > limit {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, b.Dx(), b.Dy())
	}
	buf := intImage.FromStdImage(img)
	if buf == nil {
		return nil, intImage.ErrInvalidDimensions
	}
	return buf, nil
}

func (c *Compositor) decode(data []byte) (*ImageBuf, error) {
	if len(data) == 0 {
		return nil, ErrNoSource
	}
	buf, _, err := intImage.DecodeBytes(data, c.opts.maxSourcePixels)
	if errors.Is(err, intImage.ErrTooLarge) {
		return nil, fmt.Errorf("%w: %w", ErrImageTooLarge, err)
	}
	return buf, err
}

func (c *Compositor) fetch(ctx context.Context, url string) (*ImageBuf, error) {
	if url == "" {
		return nil, ErrNoSource
	}
	if c.opts.fetcher == nil {
		return nil, ErrNoFetcher
	}
	rc, err := c.opts.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("mockup: fetch preview: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("mockup: read preview: %w", err)
	}
	return c.decode(data)
}

// drawLayer places one layer: origin at the canvas centre, then move,
// rotate, skew and scale, each post-multiplied so the image is scaled
// first. The image centre lands on the resulting origin.
func (c *Compositor) drawLayer(canvas *Canvas, l *Layer, src *ImageBuf) {
	canvas.Push()
	defer canvas.Pop()

	canvas.Translate(float64(canvas.Width())/2, float64(canvas.Height())/2)
	canvas.Translate(l.MoveX*ScaleFactor, l.MoveY*ScaleFactor)
	canvas.Rotate(Radians(l.Rotation))
	canvas.Transform(Skew(l.SkewX, l.SkewY))
	canvas.Scale(l.Scale*ScaleFactor, l.Scale*ScaleFactor)

	opacity := c.layerOpacity(l)
	if opacity == 0 {
		Logger().Debug("mockup: layer fully transparent, skipped", slog.String("layer", l.ID))
		return
	}

	drawn := canvas.DrawImageCentered(src, DrawImageOptions{
		Interpolation: c.opts.interp,
		Opacity:       opacity,
		Mipmaps:       c.opts.mipmaps,
	})
	if !drawn {
		Logger().Debug("mockup: layer transform is degenerate, nothing drawn",
			slog.String("layer", l.ID),
			slog.Float64("skewX", l.SkewX),
			slog.Float64("skewY", l.SkewY))
	}
}

func (c *Compositor) layerOpacity(l *Layer) float64 {
	if l.Opacity == nil {
		return 1
	}
	if c.opts.opacityMode == OpacityIgnore {
		Logger().Debug("mockup: layer opacity ignored",
			slog.String("layer", l.ID),
			slog.Float64("opacity", *l.Opacity))
		return 1
	}
	return *l.Opacity
}

func (c *Compositor) encode(w io.Writer, buf *intImage.ImageBuf) error {
	switch c.opts.format {
	case FormatPNG:
		return buf.EncodePNG(w)
	case FormatJPEG:
		return buf.EncodeJPEG(w, c.opts.quality, c.opts.matte)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, c.opts.format)
	}
}
