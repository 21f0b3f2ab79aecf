// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package filter implements the mosaic passes on the CPU.
//
// Each function mirrors one WGSL program of the native backend: the
// destination is covered by a single quad, every destination pixel center
// is mapped to a source texture coordinate, and the source is read through
// the same point or bilinear sampler a GPU would use (clamp to edge). The
// software backend runs these kernels directly, and tests use them as the
// reference for what the shaders compute.
//
// Texture coordinates follow the surface package: (0, 0) is the bottom-left
// corner and texel centers sit at (i+0.5)/size.
package filter
