// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipeline

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/mosaic/backend"
	"github.com/gogpu/mosaic/chain"
	"github.com/gogpu/mosaic/surface"
)

// DownscaleParams returns the box-filter uniforms for resizing src into dst
// along axis.
//
// Each destination pixel averages round(src/dst) source pixels on the
// filtered axis, starting at the center of the first one. With bilinear
// set, taps land between pixel pairs instead, so half as many taps read
// the same pixels. The other axis is left to the bilinear sampler.
func DownscaleParams(dst, src surface.Surface, axis chain.Axis, bilinear bool) backend.DrawParams {
	i := axis.Index()
	srcSize := [2]float32{float32(src.Width()), float32(src.Height())}
	dstSize := [2]float32{float32(dst.Width()), float32(dst.Height())}
	ratio := srcSize[i] / dstSize[i]

	p := backend.FullQuad(backend.ProgramResize, surface.FilterBilinear)

	start := -ratio / 2
	step := float32(1)
	if bilinear {
		start += 1
		step = 2
	} else {
		start += 0.5
	}
	p.UVStart[i] = start / srcSize[i]
	p.UVStep[i] = step / srcSize[i]

	samples := int(math.RoundToEven(float64(ratio)))
	if bilinear {
		samples /= 2
	}
	p.Samples = max(samples, 1)
	p.SampleFactor = 1 / float32(p.Samples)
	return p
}

// WithMosaicTransform bakes the mosaic ratio and offset into the quad of
// the first downscale pass. A ratio below 1 stretches the source so the
// fractional block count fills the integer one; offsetUV shifts the grid.
// The composite texture matrix undoes both.
func WithMosaicTransform(p backend.DrawParams, hRatio, vRatio float64, offsetUV mgl32.Vec2) backend.DrawParams {
	if hRatio > 0 {
		p.QuadMax[0] *= float32(1 / hRatio)
	}
	if vRatio > 0 {
		p.QuadMax[1] *= float32(1 / vRatio)
	}
	p.QuadMin = p.QuadMin.Add(offsetUV)
	p.QuadMax = p.QuadMax.Add(offsetUV)
	return p
}

// ExpandParams returns the edge-expand uniforms for reading src.
func ExpandParams(src surface.Surface) backend.DrawParams {
	p := backend.FullQuad(backend.ProgramExpandEdges, surface.FilterPoint)
	p.PixelStep = mgl32.Vec2{1 / float32(src.Width()), 1 / float32(src.Height())}
	return p
}

// PremultiplyParams returns the uniforms of the premultiply pass.
func PremultiplyParams() backend.DrawParams {
	return backend.FullQuad(backend.ProgramPremultiply, surface.FilterPoint)
}
