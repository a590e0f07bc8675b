package mockup

import (
	"errors"
	"fmt"
)

// Sentinel errors. Typed errors below wrap one of these (or a decoder,
// fetcher, or encoder error) so callers can match with errors.Is.
var (
	// ErrEmptyInput is returned when Composite is called without layers.
	ErrEmptyInput = errors.New("mockup: no layers to composite")

	// ErrNoSource is returned when a layer carries no image reference.
	ErrNoSource = errors.New("mockup: layer has no image source")

	// ErrNoFetcher is returned when a layer only has a preview URL and the
	// compositor was created without a Fetcher.
	ErrNoFetcher = errors.New("mockup: preview source requires a fetcher")

	// ErrImageTooLarge is returned when a source image exceeds the
	// configured pixel limit.
	ErrImageTooLarge = errors.New("mockup: source image too large")

	// ErrInvalidLayer is returned when a layer's geometry or identity is
	// unusable.
	ErrInvalidLayer = errors.New("mockup: invalid layer")

	// ErrUnsupportedFormat is returned for an unknown output format name.
	ErrUnsupportedFormat = errors.New("mockup: unsupported output format")
)

// ImageLoadError reports a layer whose source could not be fetched or
// decoded. No output is produced when it is returned.
type ImageLoadError struct {
	LayerID string
	Err     error
}

func (e *ImageLoadError) Error() string {
	return fmt.Sprintf("mockup: load image for layer %q: %v", e.LayerID, e.Err)
}

func (e *ImageLoadError) Unwrap() error { return e.Err }

// EncodingError reports a failure to serialize the finished canvas.
type EncodingError struct {
	Format Format
	Err    error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("mockup: encode %s: %v", e.Format, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// LayerError reports a layer rejected before any decoding took place.
type LayerError struct {
	LayerID string
	Err     error
}

func (e *LayerError) Error() string {
	return fmt.Sprintf("mockup: layer %q: %v", e.LayerID, e.Err)
}

func (e *LayerError) Unwrap() error { return e.Err }

// LayerID returns the id of the layer that caused err, if any.
func LayerID(err error) (string, bool) {
	var loadErr *ImageLoadError
	if errors.As(err, &loadErr) {
		return loadErr.LayerID, true
	}
	var layerErr *LayerError
	if errors.As(err, &layerErr) {
		return layerErr.LayerID, true
	}
	return "", false
}
