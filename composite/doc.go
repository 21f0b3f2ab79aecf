// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package composite builds the parameters of the compositing shader and
// swaps the compositing material onto the target layer for one render.
//
// The shader mixes the sharp capture with the point-sampled mosaic:
//
//	out = mix(HighResTex(Full*uv), MosaicTex(Mosaic*uv), mask*Alpha)
//
// where mask is 1, a sphere falloff, or the red channel of a mask texture
// depending on the Masking variant.
//
// Material swaps are transactional: Apply returns a SavedState whose
// Restore must run after the frame renders, on every path.
package composite
