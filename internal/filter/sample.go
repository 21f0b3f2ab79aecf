// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package filter

import (
	"github.com/chewxy/math32"
	"github.com/gogpu/mosaic/internal/mathx"
	"github.com/gogpu/mosaic/surface"
)

// Sample reads src at (u, v) with the given filter.
func Sample(src *surface.Pixmap, u, v float32, f surface.Filter) surface.RGBA {
	if f == surface.FilterPoint {
		return SampleNearest(src, u, v)
	}
	return SampleBilinear(src, u, v)
}

// SampleNearest returns the texel containing (u, v), clamped to the edge.
func SampleNearest(src *surface.Pixmap, u, v float32) surface.RGBA {
	w, h := src.Width(), src.Height()
	x := mathx.Clamp(int(math32.Floor(u*float32(w))), 0, w-1)
	y := mathx.Clamp(int(math32.Floor(v*float32(h))), 0, h-1)
	return src.Pixel(x, y)
}

// SampleBilinear interpolates the four texels around (u, v), clamping
// texel indices to the edge.
func SampleBilinear(src *surface.Pixmap, u, v float32) surface.RGBA {
	w, h := src.Width(), src.Height()

	// Texel centers are at half-integer coordinates.
	fx := u*float32(w) - 0.5
	fy := v*float32(h) - 0.5
	x0f := math32.Floor(fx)
	y0f := math32.Floor(fy)
	tx := fx - x0f
	ty := fy - y0f

	x0 := mathx.Clamp(int(x0f), 0, w-1)
	x1 := mathx.Clamp(int(x0f)+1, 0, w-1)
	y0 := mathx.Clamp(int(y0f), 0, h-1)
	y1 := mathx.Clamp(int(y0f)+1, 0, h-1)

	bottom := src.Pixel(x0, y0).Lerp(src.Pixel(x1, y0), tx)
	top := src.Pixel(x0, y1).Lerp(src.Pixel(x1, y1), tx)
	return bottom.Lerp(top, ty)
}
