// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package filter

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/mosaic/composite"
	"github.com/gogpu/mosaic/surface"
)

// Shade evaluates the compositing shader for one fragment. uv is the
// fragment's screen position in [0, 1] and world its world position.
// Textures that are not pixmaps read as transparent.
func Shade(p *composite.Parameters, uv mgl32.Vec2, world mgl32.Vec3) surface.RGBA {
	mask := maskAt(p, uv, world)
	if p.ShowMask {
		return surface.RGBA{R: mask, G: mask, B: mask, A: 1}
	}

	var high, mosaic surface.RGBA
	if pm, ok := p.HighResTex.(*surface.Pixmap); ok {
		at := transformUV(p.FullTextureMatrix, uv)
		high = SampleBilinear(pm, at.X(), at.Y())
	}
	if pm, ok := p.MosaicTex.(*surface.Pixmap); ok {
		at := transformUV(p.MosaicTextureMatrix, uv)
		mosaic = Sample(pm, at.X(), at.Y(), p.MosaicFilter)
	}
	return high.Lerp(mosaic, mask*p.Alpha)
}

func maskAt(p *composite.Parameters, uv mgl32.Vec2, world mgl32.Vec3) float32 {
	switch p.Mask {
	case composite.MaskSphere:
		return p.MaskWeight(world)
	case composite.MaskTexture:
		if pm, ok := p.MaskTex.(*surface.Pixmap); ok {
			return SampleBilinear(pm, uv.X(), uv.Y()).R
		}
		return 0
	default:
		return 1
	}
}

func transformUV(m mgl32.Mat4, uv mgl32.Vec2) mgl32.Vec2 {
	r := m.Mul4x1(mgl32.Vec4{uv.X(), uv.Y(), 0, 1})
	return mgl32.Vec2{r.X(), r.Y()}
}
