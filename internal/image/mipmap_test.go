package image

import (
	"math"
	"testing"
)

func TestGenerateMipmaps(t *testing.T) {
	tests := []struct {
		name       string
		w, h       int
		wantLevels [][2]int
	}{
		{"power of two", 8, 8, [][2]int{{8, 8}, {4, 4}, {2, 2}, {1, 1}}},
		{"odd", 5, 3, [][2]int{{5, 3}, {2, 1}, {1, 1}}},
		{"wide", 16, 2, [][2]int{{16, 2}, {8, 1}, {4, 1}, {2, 1}, {1, 1}}},
		{"single pixel", 1, 1, [][2]int{{1, 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, _ := NewImageBuf(tt.w, tt.h)
			chain := GenerateMipmaps(src, nil)
			if chain.NumLevels() != len(tt.wantLevels) {
				t.Fatalf("NumLevels() = %d, want %d", chain.NumLevels(), len(tt.wantLevels))
			}
			if chain.Level(0) != src {
				t.Error("level 0 should be the source buffer")
			}
			for i, want := range tt.wantLevels {
				lvl := chain.Level(i)
				w, h := lvl.width, lvl.height
				if w != want[0] || h != want[1] {
					t.Errorf("level %d = %dx%d, want %dx%d", i, w, h, want[0], want[1])
				}
			}
		})
	}
}

func TestGenerateMipmaps_NilEmpty(t *testing.T) {
	if GenerateMipmaps(nil, nil) != nil {
		t.Error("GenerateMipmaps(nil) should return nil")
	}
	if GenerateMipmaps(&ImageBuf{}, nil) != nil {
		t.Error("GenerateMipmaps(empty) should return nil")
	}
}

func TestMipmapChain_Level(t *testing.T) {
	src, _ := NewImageBuf(4, 4)
	chain := GenerateMipmaps(src, nil)

	if chain.Level(-1) != nil {
		t.Error("Level(-1) should be nil")
	}
	if chain.Level(chain.NumLevels()) != nil {
		t.Error("Level(NumLevels()) should be nil")
	}

	var nilChain *MipmapChain
	if nilChain.Level(0) != nil || nilChain.NumLevels() != 0 {
		t.Error("nil chain should have no levels")
	}
}

func TestMipmapChain_LevelForScale(t *testing.T) {
	src, _ := NewImageBuf(64, 64)
	chain := GenerateMipmaps(src, nil) // 64, 32, 16, 8, 4, 2, 1

	tests := []struct {
		scale     float64
		wantWidth int
	}{
		{1, 64},
		{2, 64},
		{0.75, 64},
		{0.5, 32},
		{0.3, 32},
		{0.25, 16},
		{0.001, 1},
		{0, 64},
		{-1, 64},
		{math.NaN(), 64},
	}

	for _, tt := range tests {
		got := chain.LevelForScale(tt.scale)
		if got.Width() != tt.wantWidth {
			t.Errorf("LevelForScale(%v) width = %d, want %d", tt.scale, got.Width(), tt.wantWidth)
		}
	}

	var nilChain *MipmapChain
	if nilChain.LevelForScale(0.5) != nil {
		t.Error("nil chain LevelForScale should be nil")
	}
}

func TestMipmapChain_Release(t *testing.T) {
	pool := NewPool(0)
	src, _ := NewImageBuf(8, 8)
	chain := GenerateMipmaps(src, pool)

	chain.Release()

	for _, size := range []int{4, 2, 1} {
		if n := pooled(pool, size, size); n != 1 {
			t.Errorf("pool holds %d buffers of %dx%d, want 1", n, size, size)
		}
	}
	if pooled(pool, 8, 8) != 0 {
		t.Error("level 0 must not be released to the pool")
	}
	if chain.Level(1) != nil {
		t.Error("released levels should be cleared from the chain")
	}
}

func TestHalve_Averages(t *testing.T) {
	src, _ := NewImageBuf(2, 2)
	_ = src.SetRGBA(0, 0, 0, 0, 0, 255)
	_ = src.SetRGBA(1, 0, 255, 255, 255, 255)
	_ = src.SetRGBA(0, 1, 255, 255, 255, 255)
	_ = src.SetRGBA(1, 1, 0, 0, 0, 255)

	dst := halve(src, nil)
	r, g, b, a := dst.GetRGBA(0, 0)
	if r != 128 || g != 128 || b != 128 || a != 255 {
		t.Errorf("halve = (%d, %d, %d, %d), want (128, 128, 128, 255)", r, g, b, a)
	}
}

func TestHalve_PremultipliedAlpha(t *testing.T) {
	// Transparent pixels contribute no color, only reduced alpha.
	src, _ := NewImageBuf(2, 2)
	_ = src.SetRGBA(0, 0, 255, 0, 0, 255)
	_ = src.SetRGBA(1, 0, 0, 255, 0, 0)
	_ = src.SetRGBA(0, 1, 0, 255, 0, 0)
	_ = src.SetRGBA(1, 1, 0, 255, 0, 0)

	r, g, _, a := halve(src, nil).GetRGBA(0, 0)
	if r != 255 || g != 0 || a != 64 {
		t.Errorf("halve = r%d g%d a%d, want r255 g0 a64", r, g, a)
	}
}

func BenchmarkGenerateMipmaps(b *testing.B) {
	src, _ := NewImageBuf(1024, 1024)
	fill(src, 10, 20, 30, 255)
	pool := NewPool(8)

	for b.Loop() {
		GenerateMipmaps(src, pool).Release()
	}
}
