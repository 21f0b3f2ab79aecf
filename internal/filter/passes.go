// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package filter

import (
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/mosaic/backend"
	"github.com/gogpu/mosaic/surface"
)

// Rows splits the h destination rows of a pass into bands and calls fn
// for each band, possibly concurrently. It returns once every band is
// done.
type Rows func(h int, fn func(y0, y1 int))

// Serial runs the whole image as one band.
func Serial(h int, fn func(y0, y1 int)) { fn(0, h) }

// Run executes the program named by p, reading src and writing dst.
// src and dst may be the same pixmap.
func Run(dst, src *surface.Pixmap, p backend.DrawParams) error {
	return RunRows(dst, src, p, Serial)
}

// RunRows is Run with the destination rows distributed by rows. Bands
// only write their own rows, so they may run in parallel.
func RunRows(dst, src *surface.Pixmap, p backend.DrawParams, rows Rows) error {
	var kernel func(dst, src *surface.Pixmap, p *backend.DrawParams, y0, y1 int)
	switch p.Program {
	case backend.ProgramResize:
		kernel = resizeRows
	case backend.ProgramExpandEdges:
		kernel = expandRows
	case backend.ProgramPremultiply:
		kernel = premultiplyRows
	default:
		return fmt.Errorf("%w: %v", backend.ErrUnsupportedProgram, p.Program)
	}
	if rows == nil {
		rows = Serial
	}
	if src == dst {
		tmp := getTempPixmap(src)
		defer putTempPixmap(tmp)
		src = tmp
	}
	rows(dst.Height(), func(y0, y1 int) { kernel(dst, src, &p, y0, y1) })
	return nil
}

// quadUV maps the center of destination pixel (x, y) to the source
// coordinate interpolated across the quad.
func quadUV(p *backend.DrawParams, x, y, w, h int) mgl32.Vec2 {
	du := (float32(x) + 0.5) / float32(w)
	dv := (float32(y) + 0.5) / float32(h)
	return mgl32.Vec2{
		p.QuadMin.X() + (p.QuadMax.X()-p.QuadMin.X())*du,
		p.QuadMin.Y() + (p.QuadMax.Y()-p.QuadMin.Y())*dv,
	}
}

// Resize is the separable box filter: every destination pixel averages
// p.Samples taps starting at UVStart and spaced by UVStep.
func Resize(dst, src *surface.Pixmap, p backend.DrawParams) {
	resizeRows(dst, src, &p, 0, dst.Height())
}

func resizeRows(dst, src *surface.Pixmap, p *backend.DrawParams, y0, y1 int) {
	w, h := dst.Width(), dst.Height()
	samples := max(p.Samples, 1)
	factor := p.SampleFactor
	if factor == 0 {
		factor = 1 / float32(samples)
	}

	for y := y0; y < y1; y++ {
		for x := 0; x < w; x++ {
			uv := quadUV(p, x, y, w, h).Add(p.UVStart)
			var acc surface.RGBA
			for i := 0; i < samples; i++ {
				acc = acc.Add(Sample(src, uv.X(), uv.Y(), p.Filter))
				uv = uv.Add(p.UVStep)
			}
			dst.SetPixel(x, y, acc.Scale(factor))
		}
	}
}

// neighborOrder is the fixed order transparent pixels search their
// neighbors in: left, right, down, up, then the diagonals.
var neighborOrder = [8][2]float32{
	{-1, 0}, {1, 0}, {0, -1}, {0, 1},
	{-1, -1}, {1, -1}, {-1, 1}, {1, 1},
}

// ExpandEdges copies each opaque pixel through and fills each fully
// transparent pixel with the first opaque neighbor in neighborOrder.
// One run grows opaque regions by one pixel.
func ExpandEdges(dst, src *surface.Pixmap, p backend.DrawParams) {
	expandRows(dst, src, &p, 0, dst.Height())
}

func expandRows(dst, src *surface.Pixmap, p *backend.DrawParams, y0, y1 int) {
	w, h := dst.Width(), dst.Height()
	step := p.PixelStep
	if step == (mgl32.Vec2{}) {
		step = mgl32.Vec2{1 / float32(src.Width()), 1 / float32(src.Height())}
	}

	for y := y0; y < y1; y++ {
		for x := 0; x < w; x++ {
			uv := quadUV(p, x, y, w, h)
			c := SampleNearest(src, uv.X(), uv.Y())
			if c.A == 0 {
				for _, n := range neighborOrder {
					nu := uv.X() + n[0]*step.X()
					nv := uv.Y() + n[1]*step.Y()
					// Clamp-to-edge would return the pixel itself.
					if nu < 0 || nu >= 1 || nv < 0 || nv >= 1 {
						continue
					}
					if nc := SampleNearest(src, nu, nv); nc.A > 0 {
						c = nc
						break
					}
				}
			}
			dst.SetPixel(x, y, c)
		}
	}
}

// Premultiply writes the source color multiplied by its alpha.
func Premultiply(dst, src *surface.Pixmap, p backend.DrawParams) {
	premultiplyRows(dst, src, &p, 0, dst.Height())
}

func premultiplyRows(dst, src *surface.Pixmap, p *backend.DrawParams, y0, y1 int) {
	w, h := dst.Width(), dst.Height()
	for y := y0; y < y1; y++ {
		for x := 0; x < w; x++ {
			uv := quadUV(p, x, y, w, h)
			dst.SetPixel(x, y, Sample(src, uv.X(), uv.Y(), p.Filter).Premultiply())
		}
	}
}

// tempPool holds scratch pixmaps for passes whose source and destination
// alias.
var tempPool = sync.Pool{
	New: func() any { return new(surface.Pixmap) },
}

// getTempPixmap returns a pooled copy of src.
func getTempPixmap(src *surface.Pixmap) *surface.Pixmap {
	tmp := tempPool.Get().(*surface.Pixmap)
	if tmp.Width() != src.Width() || tmp.Height() != src.Height() {
		tmp = surface.New(src.Width(), src.Height())
	}
	copy(tmp.Pix(), src.Pix())
	return tmp
}

// putTempPixmap returns a scratch pixmap to the pool.
func putTempPixmap(tmp *surface.Pixmap) {
	// Only pool reasonably-sized buffers
	if len(tmp.Pix()) <= 16*1024*1024 {
		tempPool.Put(tmp)
	}
}
