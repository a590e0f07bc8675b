// Package manifest decodes the editor's layer state into compositor layers.
//
// A manifest is the JSON document the editor submits on "generate":
//
//	{
//	  "layers": [
//	    {"id": "a1", "file": "<base64>", "rotation": 15, "scale": 0.8, "moveX": 40},
//	    {"id": "b2", "previewUrl": "https://.../template.png"}
//	  ],
//	  "format": "png"
//	}
//
// Layers appear in paint order. A layer carries either the encoded upload
// ("file", plain base64 or a data URL) or the URL of its stored preview.
package manifest

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/gogpu/mockup"
)

// Errors.
var (
	// ErrInvalid is returned for malformed manifests.
	ErrInvalid = errors.New("manifest: invalid")

	// ErrTooLarge is returned when a manifest exceeds the byte limit.
	ErrTooLarge = errors.New("manifest: too large")
)

// Manifest is the decoded editor state.
type Manifest struct {
	Layers  []Layer `json:"layers"`
	Format  string  `json:"format,omitempty"`
	Quality int     `json:"quality,omitempty"`
}

// Layer is one entry of Manifest.Layers. Pointer fields distinguish
// "absent" from zero.
type Layer struct {
	ID         string   `json:"id"`
	Name       string   `json:"name,omitempty"`
	File       string   `json:"file,omitempty"`
	PreviewURL string   `json:"previewUrl,omitempty"`
	Rotation   float64  `json:"rotation"`
	Scale      *float64 `json:"scale,omitempty"`
	MoveX      float64  `json:"moveX"`
	MoveY      float64  `json:"moveY"`
	SkewX      float64  `json:"skewX"`
	SkewY      float64  `json:"skewY"`
	Opacity    *float64 `json:"opacity,omitempty"`
}

// Parse decodes a manifest from r, reading at most maxBytes (no limit when
// maxBytes <= 0).
func Parse(r io.Reader, maxBytes int64) (*Manifest, error) {
	if maxBytes > 0 {
		r = io.LimitReader(r, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("manifest: read: %w", err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, maxBytes)
	}
	return ParseBytes(data)
}

// ParseBytes decodes a manifest held in memory.
func ParseBytes(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	for i := range m.Layers {
		l := &m.Layers[i]
		if l.File == "" && l.PreviewURL == "" {
			return nil, fmt.Errorf("%w: layer %d (%q) has neither file nor previewUrl", ErrInvalid, i, l.ID)
		}
	}
	if m.Format != "" {
		if _, err := mockup.ParseFormat(m.Format); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	}
	if m.Quality < 0 || m.Quality > 100 {
		return nil, fmt.Errorf("%w: quality %d out of range", ErrInvalid, m.Quality)
	}
	return &m, nil
}

// Layers converts the manifest into compositor layers. Layers without an id
// receive a random one; the manifest itself is not modified. A layer that
// has both a file and a preview URL uses the file.
func (m *Manifest) Layers() ([]mockup.Layer, error) {
	layers := make([]mockup.Layer, len(m.Layers))
	for i := range m.Layers {
		l := &m.Layers[i]

		id := l.ID
		if id == "" {
			id = uuid.NewString()
		}

		var src mockup.Source
		if l.File != "" {
			data, err := decodeFile(l.File)
			if err != nil {
				return nil, fmt.Errorf("%w: layer %q: %w", ErrInvalid, id, err)
			}
			src = mockup.FileSource{Name: l.Name, Data: data}
		} else {
			src = mockup.PreviewSource{URL: l.PreviewURL}
		}

		scale := 1.0
		if l.Scale != nil {
			scale = *l.Scale
		}
		var opacity *float64
		if l.Opacity != nil {
			opacity = mockup.Opacity(*l.Opacity)
		}

		layers[i] = mockup.Layer{
			ID:       id,
			Source:   src,
			Rotation: l.Rotation,
			Scale:    scale,
			MoveX:    l.MoveX,
			MoveY:    l.MoveY,
			SkewX:    l.SkewX,
			SkewY:    l.SkewY,
			Opacity:  opacity,
		}
	}
	return layers, nil
}

// Options returns the per-request overrides carried by the manifest.
func (m *Manifest) Options() []mockup.Option {
	var opts []mockup.Option
	if m.Format != "" {
		if f, err := mockup.ParseFormat(m.Format); err == nil {
			opts = append(opts, mockup.WithFormat(f))
		}
	}
	if m.Quality > 0 {
		opts = append(opts, mockup.WithQuality(m.Quality))
	}
	return opts
}

// decodeFile accepts plain standard base64 or a "data:<mime>;base64,"
// URL as produced by FileReader.readAsDataURL.
func decodeFile(s string) ([]byte, error) {
	if strings.HasPrefix(s, "data:") {
		comma := strings.IndexByte(s, ',')
		if comma < 0 || !strings.HasSuffix(s[:comma], ";base64") {
			return nil, errors.New("unsupported data URL")
		}
		s = s[comma+1:]
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	return data, nil
}
