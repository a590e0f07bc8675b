package image

import "math"

// DrawParams specifies how a source image is mapped onto a destination.
type DrawParams struct {
	// Transform maps source pixel space (origin at the top-left corner of
	// the source, one unit per source pixel) to destination pixel space.
	Transform Affine

	// Interp specifies the interpolation mode for sampling.
	Interp InterpolationMode

	// Opacity scales the source alpha (0.0 to 1.0).
	Opacity float64

	// Mipmaps, when non-nil, must have been generated from the source.
	// A pre-filtered level is sampled when the transform shrinks the image.
	Mipmaps *MipmapChain
}

// DrawImage paints src onto dst through params.Transform using Porter-Duff
// source-over. Destination pixels are visited in their own space and mapped
// back into the source, so arbitrary rotation and shear leave no holes.
//
// Edge pixels receive fractional coverage from their distance to the
// source boundary, measured in destination pixels. A source edge that falls
// exactly on a pixel boundary therefore produces a crisp edge.
//
// It reports false when the transform is singular and nothing was drawn.
func DrawImage(dst, src *ImageBuf, params DrawParams) bool {
	if dst.IsEmpty() || src.IsEmpty() {
		return false
	}
	inv, ok := params.Transform.Invert()
	if !ok {
		return false
	}

	srcW, srcH := float64(src.width), float64(src.height)
	minX, minY, maxX, maxY := params.Transform.TransformRect(0, 0, srcW, srcH)

	x0 := max(0, int(math.Floor(minX)))
	y0 := max(0, int(math.Floor(minY)))
	x1 := min(dst.width, int(math.Ceil(maxX)))
	y1 := min(dst.height, int(math.Ceil(maxY)))
	if x0 >= x1 || y0 >= y1 {
		return true
	}

	// Source pixels travelled per destination pixel along each source axis.
	gx, gy := inv.rowNorms()

	sample := src
	if params.Mipmaps != nil {
		if level := params.Mipmaps.LevelForScale(1 / max(gx, gy)); level != nil {
			sample = level
		}
	}

	opacity := clampFloat(params.Opacity, 0, 1)

	for py := y0; py < y1; py++ {
		for px := x0; px < x1; px++ {
			sx, sy := inv.TransformPoint(float64(px)+0.5, float64(py)+0.5)

			cov := min(min(sx, srcW-sx)/gx, min(sy, srcH-sy)/gy) + 0.5
			if cov <= 0 {
				continue
			}
			cov = min(cov, 1)

			r, g, b, a := Sample(sample, sx/srcW, sy/srcH, params.Interp)
			alpha := math.Round(float64(a) * opacity * cov)
			if alpha <= 0 {
				continue
			}

			dr, dg, db, da := dst.GetRGBA(px, py)
			r, g, b, a = blendNormal(r, g, b, uint8(alpha), dr, dg, db, da)
			_ = dst.SetRGBA(px, py, r, g, b, a)
		}
	}
	return true
}

// blendNormal performs standard alpha blending (source over destination)
// on straight-alpha colors.
func blendNormal(srcR, srcG, srcB, srcA, dstR, dstG, dstB, dstA uint8) (r, g, b, a byte) {
	if srcA == 255 || dstA == 0 {
		return srcR, srcG, srcB, srcA
	}
	if srcA == 0 {
		return dstR, dstG, dstB, dstA
	}

	// out_a = src_a + dst_a * (1 - src_a)
	// out_c = (src_c * src_a + dst_c * dst_a * (1 - src_a)) / out_a
	srcAlpha := float64(srcA) / 255.0
	dstAlpha := float64(dstA) / 255.0
	outAlpha := srcAlpha + dstAlpha*(1-srcAlpha)

	mix := func(s, d uint8) uint8 {
		return toByte((float64(s)*srcAlpha + float64(d)*dstAlpha*(1-srcAlpha)) / outAlpha)
	}
	return mix(srcR, dstR), mix(srcG, dstG), mix(srcB, dstB), toByte(outAlpha * 255)
}
