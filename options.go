package mockup

import (
	"fmt"
	"image/color"
	"strings"
)

// Format is an output encoding.
type Format uint8

const (
	// FormatJPEG is lossy and opaque; transparent regions are flattened
	// over the matte color.
	FormatJPEG Format = iota

	// FormatPNG is lossless and keeps the canvas alpha channel.
	FormatPNG
)

// String returns the lowercase format name.
func (f Format) String() string {
	switch f {
	case FormatJPEG:
		return "jpeg"
	case FormatPNG:
		return "png"
	default:
		return fmt.Sprintf("Format(%d)", uint8(f))
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	default:
		return "image/jpeg"
	}
}

// Extension returns the file extension of the format, with a leading dot.
func (f Format) Extension() string {
	switch f {
	case FormatPNG:
		return ".png"
	default:
		return ".jpg"
	}
}

// ParseFormat maps a format name ("jpeg", "jpg", "png") to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// OpacityMode selects how Layer.Opacity is treated.
type OpacityMode uint8

const (
	// OpacityApply multiplies each layer's alpha by its opacity.
	OpacityApply OpacityMode = iota

	// OpacityIgnore draws every layer fully opaque, matching editors that
	// store opacity without rendering it.
	OpacityIgnore
)

// String returns the mode name.
func (m OpacityMode) String() string {
	switch m {
	case OpacityApply:
		return "apply"
	case OpacityIgnore:
		return "ignore"
	default:
		return "unknown"
	}
}

// ParseOpacityMode maps "apply" or "ignore" to an OpacityMode.
func ParseOpacityMode(s string) (OpacityMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "apply", "":
		return OpacityApply, nil
	case "ignore":
		return OpacityIgnore, nil
	default:
		return 0, fmt.Errorf("mockup: unknown opacity mode %q", s)
	}
}

// Default settings.
const (
	DefaultQuality         = 85
	DefaultDecodeWorkers   = 4
	DefaultMaxSourcePixels = 64 << 20
)

// Option configures a Compositor.
//
// Example:
//
//	c := mockup.New(
//	    mockup.WithFormat(mockup.FormatPNG),
//	    mockup.WithFetcher(fetcher),
//	)
type Option func(*options)

// options holds the configuration of a Compositor.
type options struct {
	format          Format
	quality         int
	matte           color.NRGBA
	opacityMode     OpacityMode
	interp          InterpolationMode
	fetcher         Fetcher
	decodeWorkers   int
	maxSourcePixels int
	mipmaps         bool
}

// defaultOptions returns the default compositor options.
func defaultOptions() options {
	return options{
		format:          FormatJPEG,
		quality:         DefaultQuality,
		matte:           White.NRGBA(),
		opacityMode:     OpacityApply,
		interp:          InterpBilinear,
		decodeWorkers:   DefaultDecodeWorkers,
		maxSourcePixels: DefaultMaxSourcePixels,
		mipmaps:         true,
	}
}

// WithFormat sets the output encoding. Default is FormatJPEG.
func WithFormat(f Format) Option {
	return func(o *options) {
		o.format = f
	}
}

// WithQuality sets the JPEG quality (1-100). Default is 85.
// Values outside the range are clamped at encode time.
func WithQuality(q int) Option {
	return func(o *options) {
		o.quality = q
	}
}

// WithMatte sets the color transparent regions are flattened onto when the
// output format has no alpha channel. Default is white. The matte alpha is
// ignored.
func WithMatte(c color.Color) Option {
	return func(o *options) {
		if c == nil {
			return
		}
		m := color.NRGBAModel.Convert(c).(color.NRGBA)
		m.A = 255
		o.matte = m
	}
}

// WithOpacityMode selects whether layer opacity is applied.
// Default is OpacityApply.
func WithOpacityMode(m OpacityMode) Option {
	return func(o *options) {
		o.opacityMode = m
	}
}

// WithInterpolation sets the sampling filter. Default is InterpBilinear.
func WithInterpolation(m InterpolationMode) Option {
	return func(o *options) {
		o.interp = m
	}
}

// WithFetcher sets the Fetcher used to resolve PreviewSource layers.
func WithFetcher(f Fetcher) Option {
	return func(o *options) {
		o.fetcher = f
	}
}

// WithDecodeWorkers bounds how many layers are fetched and decoded
// concurrently. Values below 1 mean 1.
func WithDecodeWorkers(n int) Option {
	return func(o *options) {
		o.decodeWorkers = max(1, n)
	}
}

// WithMaxSourcePixels rejects source images with more than n pixels before
// their pixel data is decoded. Zero or negative disables the limit.
func WithMaxSourcePixels(n int) Option {
	return func(o *options) {
		o.maxSourcePixels = n
	}
}

// WithMipmaps toggles pre-filtered downscaling for layers drawn smaller
// than their native size. Enabled by default.
func WithMipmaps(enabled bool) Option {
	return func(o *options) {
		o.mipmaps = enabled
	}
}
