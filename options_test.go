package mockup

import (
	"context"
	"errors"
	"image/color"
	"io"
	"strings"
	"testing"
)

func TestDefaultOptions(t *testing.T) {
	o := defaultOptions()
	if o.format != FormatJPEG {
		t.Errorf("format = %v, want jpeg", o.format)
	}
	if o.quality != 85 {
		t.Errorf("quality = %d, want 85", o.quality)
	}
	if o.matte != (color.NRGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("matte = %v, want white", o.matte)
	}
	if o.opacityMode != OpacityApply {
		t.Errorf("opacityMode = %v, want apply", o.opacityMode)
	}
	if o.interp != InterpBilinear {
		t.Errorf("interp = %v, want bilinear", o.interp)
	}
	if !o.mipmaps {
		t.Error("mipmaps should be enabled by default")
	}
}

func TestOptionsApply(t *testing.T) {
	fetcher := FetcherFunc(func(context.Context, string) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader("")), nil
	})

	c := New(
		WithFormat(FormatPNG),
		WithQuality(40),
		WithMatte(color.NRGBA{R: 10, G: 20, B: 30, A: 0}),
		WithOpacityMode(OpacityIgnore),
		WithInterpolation(InterpNearest),
		WithFetcher(fetcher),
		WithDecodeWorkers(-3),
		WithMaxSourcePixels(0),
		WithMipmaps(false),
	)

	o := c.opts
	if c.Format() != FormatPNG {
		t.Errorf("Format() = %v, want png", c.Format())
	}
	if o.quality != 40 {
		t.Errorf("quality = %d, want 40", o.quality)
	}
	if o.matte != (color.NRGBA{R: 10, G: 20, B: 30, A: 255}) {
		t.Errorf("matte = %v, want opaque (10, 20, 30)", o.matte)
	}
	if o.opacityMode != OpacityIgnore {
		t.Errorf("opacityMode = %v, want ignore", o.opacityMode)
	}
	if o.interp != InterpNearest {
		t.Errorf("interp = %v, want nearest", o.interp)
	}
	if o.fetcher == nil {
		t.Error("fetcher not set")
	}
	if o.decodeWorkers != 1 {
		t.Errorf("decodeWorkers = %d, want 1", o.decodeWorkers)
	}
	if o.maxSourcePixels != 0 {
		t.Errorf("maxSourcePixels = %d, want 0", o.maxSourcePixels)
	}
	if o.mipmaps {
		t.Error("mipmaps should be disabled")
	}
}

func TestWithMatteNilKeepsDefault(t *testing.T) {
	c := New(WithMatte(nil))
	if c.opts.matte != White.NRGBA() {
		t.Errorf("matte = %v, want white", c.opts.matte)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"jpeg", FormatJPEG, false},
		{"JPG", FormatJPEG, false},
		{" png ", FormatPNG, false},
		{"webp", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("ParseFormat(%q) error = %v, want ErrUnsupportedFormat", tt.in, err)
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFormatMetadata(t *testing.T) {
	tests := []struct {
		f           Format
		name        string
		contentType string
		ext         string
	}{
		{FormatJPEG, "jpeg", "image/jpeg", ".jpg"},
		{FormatPNG, "png", "image/png", ".png"},
	}
	for _, tt := range tests {
		if tt.f.String() != tt.name || tt.f.ContentType() != tt.contentType || tt.f.Extension() != tt.ext {
			t.Errorf("%v: got (%q, %q, %q), want (%q, %q, %q)", tt.f,
				tt.f.String(), tt.f.ContentType(), tt.f.Extension(), tt.name, tt.contentType, tt.ext)
		}
	}
	if got := Format(9).String(); got != "Format(9)" {
		t.Errorf("Format(9).String() = %q", got)
	}
}

func TestParseOpacityMode(t *testing.T) {
	tests := []struct {
		in      string
		want    OpacityMode
		wantErr bool
	}{
		{"apply", OpacityApply, false},
		{"", OpacityApply, false},
		{"IGNORE", OpacityIgnore, false},
		{"sometimes", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseOpacityMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseOpacityMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseOpacityMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
