package image

import "math"

// MipmapChain is a source image plus successive half-size reductions, down
// to a single pixel on the longer side. Drawing a large upload small reads
// the level nearest the on-canvas size instead of skipping source pixels.
type MipmapChain struct {
	levels []*ImageBuf
	pool   *Pool
}

// GenerateMipmaps builds the chain for src. src itself is level 0 and is
// not copied; reduced levels come from pool when it is non-nil.
// It returns nil for an empty source.
func GenerateMipmaps(src *ImageBuf, pool *Pool) *MipmapChain {
	if src.IsEmpty() {
		return nil
	}

	chain := &MipmapChain{levels: []*ImageBuf{src}, pool: pool}
	for cur := src; cur.width > 1 || cur.height > 1; {
		cur = halve(cur, pool)
		chain.levels = append(chain.levels, cur)
	}
	return chain
}

// halve averages each 2x2 block of src in premultiplied space.
func halve(src *ImageBuf, pool *Pool) *ImageBuf {
	w, h := max(1, src.width/2), max(1, src.height/2)

	var dst *ImageBuf
	if pool != nil {
		dst = pool.Get(w, h)
	} else {
		dst, _ = NewImageBuf(w, h)
	}

	for y := range h {
		for x := range w {
			px, py := 2*x, 2*y
			r, g, b, a := fetch(src, px, py).
				plus(fetch(src, px+1, py)).
				plus(fetch(src, px, py+1)).
				plus(fetch(src, px+1, py+1)).
				scaled(0.25).
				straight()
			_ = dst.SetRGBA(x, y, r, g, b, a)
		}
	}
	return dst
}

// Level returns level n, or nil when n is out of range.
func (m *MipmapChain) Level(n int) *ImageBuf {
	if m == nil || n < 0 || n >= len(m.levels) {
		return nil
	}
	return m.levels[n]
}

// NumLevels returns the number of levels, 0 for a nil chain.
func (m *MipmapChain) NumLevels() int {
	if m == nil {
		return 0
	}
	return len(m.levels)
}

// LevelForScale picks level floor(-log2(scale)) for a layer drawn at scale
// times its source size. Magnified or invalid scales use level 0.
func (m *MipmapChain) LevelForScale(scale float64) *ImageBuf {
	if m.NumLevels() == 0 {
		return nil
	}
	n := 0
	if scale > 0 && scale < 1 {
		n = clamp(int(math.Floor(-math.Log2(scale))), 0, len(m.levels)-1)
	}
	return m.levels[n]
}

// Release hands the reduced levels back to the pool and drops them from
// the chain. Level 0 belongs to the caller and is kept.
func (m *MipmapChain) Release() {
	if m.NumLevels() < 2 {
		return
	}
	for _, lvl := range m.levels[1:] {
		if m.pool != nil {
			m.pool.Put(lvl)
		}
	}
	clear(m.levels[1:])
	m.levels = m.levels[:1]
}
