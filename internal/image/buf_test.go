package image

import (
	"errors"
	"testing"
)

func TestNewImageBuf(t *testing.T) {
	tests := []struct {
		name    string
		width   int
		height  int
		wantErr error
	}{
		{"valid", 10, 5, nil},
		{"single pixel", 1, 1, nil},
		{"zero width", 0, 5, ErrInvalidDimensions},
		{"zero height", 5, 0, ErrInvalidDimensions},
		{"negative", -1, 5, ErrInvalidDimensions},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := NewImageBuf(tt.width, tt.height)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewImageBuf() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if buf.Width() != tt.width || buf.Height() != tt.height {
				t.Errorf("dimensions = %dx%d, want %dx%d", buf.Width(), buf.Height(), tt.width, tt.height)
			}
			if len(buf.pix) != tt.width*tt.height*4 {
				t.Errorf("len(pix) = %d, want %d", len(buf.pix), tt.width*tt.height*4)
			}
		})
	}
}

func TestGetSetRGBA(t *testing.T) {
	buf, _ := NewImageBuf(3, 3)

	if err := buf.SetRGBA(1, 2, 10, 20, 30, 40); err != nil {
		t.Fatalf("SetRGBA() error = %v", err)
	}
	r, g, b, a := buf.GetRGBA(1, 2)
	if r != 10 || g != 20 || b != 30 || a != 40 {
		t.Errorf("GetRGBA() = (%d, %d, %d, %d), want (10, 20, 30, 40)", r, g, b, a)
	}

	if err := buf.SetRGBA(3, 0, 1, 1, 1, 1); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("SetRGBA out of bounds error = %v, want ErrOutOfBounds", err)
	}
	if r, g, b, a := buf.GetRGBA(-1, 0); r|g|b|a != 0 {
		t.Errorf("GetRGBA out of bounds = (%d, %d, %d, %d), want zeros", r, g, b, a)
	}
}

func TestRowBytes(t *testing.T) {
	buf, _ := NewImageBuf(4, 2)
	_ = buf.SetRGBA(3, 1, 7, 7, 7, 7)

	row := buf.RowBytes(1)
	if len(row) != 16 {
		t.Fatalf("len(RowBytes(1)) = %d, want 16", len(row))
	}
	if row[12] != 7 {
		t.Errorf("RowBytes(1)[12] = %d, want 7", row[12])
	}
	if buf.RowBytes(2) != nil || buf.RowBytes(-1) != nil {
		t.Error("RowBytes out of range should be nil")
	}
}

func TestFillAndClear(t *testing.T) {
	buf, _ := NewImageBuf(4, 3)
	fill(buf, 255, 128, 0, 200)

	for y := range 3 {
		for x := range 4 {
			r, g, b, a := buf.GetRGBA(x, y)
			if r != 255 || g != 128 || b != 0 || a != 200 {
				t.Fatalf("pixel (%d, %d) = (%d, %d, %d, %d) after Fill", x, y, r, g, b, a)
			}
		}
	}

	buf.Clear()
	for i, v := range buf.pix {
		if v != 0 {
			t.Fatalf("byte %d = %d after Clear", i, v)
		}
	}
}

func TestIsEmpty(t *testing.T) {
	var nilBuf *ImageBuf
	if !nilBuf.IsEmpty() {
		t.Error("nil buffer should be empty")
	}
	if !(&ImageBuf{}).IsEmpty() {
		t.Error("zero buffer should be empty")
	}
	buf, _ := NewImageBuf(1, 1)
	if buf.IsEmpty() {
		t.Error("1x1 buffer should not be empty")
	}
}

func fill(b *ImageBuf, r, g, bl, a uint8) {
	for i := 0; i < len(b.pix); i += bytesPerPixel {
		b.pix[i], b.pix[i+1], b.pix[i+2], b.pix[i+3] = r, g, bl, a
	}
}
