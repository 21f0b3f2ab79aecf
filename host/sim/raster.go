// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sim

import (
	"image"
	"image/draw"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/mosaic/host"
	"golang.org/x/image/vector"
)

// kappa places cubic control points for a quarter circle.
const kappa = 0.5522847498

// footprint is a sprite projected into a target, in raster coordinates
// (origin top-left, y down).
type footprint struct {
	shape    Shape
	center   mgl32.Vec2
	radius   mgl32.Vec2
	depth    float32 // distance along the view axis
	winDepth float32 // window depth of the center, in [0, 1]
}

// project places a sprite of the given size at center. ok is false when
// the sprite is behind the near plane.
func project(state host.CameraState, shape Shape, center mgl32.Vec3, size float32, w, h int) (footprint, bool) {
	c := state.View.Mul4x1(center.Vec4(1))
	if c.Z() >= 0 {
		return footprint{}, false
	}
	half := size / 2
	p0 := state.Projection.Mul4x1(c)
	p1 := state.Projection.Mul4x1(mgl32.Vec4{c.X() + half, c.Y() + half, c.Z(), 1})
	if p0.W() <= 0 || p1.W() <= 0 {
		return footprint{}, false
	}
	n0 := p0.Vec3().Mul(1 / p0.W())
	n1 := p1.Vec3().Mul(1 / p1.W())

	sx := func(ndc float32) float32 { return (ndc + 1) * 0.5 * float32(w) }
	sy := func(ndc float32) float32 { return (1 - ndc) * 0.5 * float32(h) }
	return footprint{
		shape:    shape,
		center:   mgl32.Vec2{sx(n0.X()), sy(n0.Y())},
		radius:   mgl32.Vec2{sx(n1.X()) - sx(n0.X()), sy(n0.Y()) - sy(n1.Y())},
		depth:    -c.Z(),
		winDepth: (n0.Z() + 1) * 0.5,
	}, true
}

// coverage rasterizes f into a w x h alpha mask, row 0 at the top.
func (f footprint) coverage(w, h int) *image.Alpha {
	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	z := vector.NewRasterizer(w, h)
	z.DrawOp = draw.Src

	cx, cy := f.center.X(), f.center.Y()
	rx, ry := f.radius.X(), f.radius.Y()
	if rx <= 0 || ry <= 0 {
		return mask
	}

	switch f.shape {
	case ShapeDisc:
		kx, ky := rx*kappa, ry*kappa
		z.MoveTo(cx+rx, cy)
		z.CubeTo(cx+rx, cy+ky, cx+kx, cy+ry, cx, cy+ry)
		z.CubeTo(cx-kx, cy+ry, cx-rx, cy+ky, cx-rx, cy)
		z.CubeTo(cx-rx, cy-ky, cx-kx, cy-ry, cx, cy-ry)
		z.CubeTo(cx+kx, cy-ry, cx+rx, cy-ky, cx+rx, cy)
	default:
		z.MoveTo(cx-rx, cy-ry)
		z.LineTo(cx+rx, cy-ry)
		z.LineTo(cx+rx, cy+ry)
		z.LineTo(cx-rx, cy+ry)
	}
	z.ClosePath()
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return mask
}
