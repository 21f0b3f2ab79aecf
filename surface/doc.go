// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package surface describes the offscreen surfaces the mosaic passes render
// into, and provides Pixmap, a CPU surface with float32 RGBA channels.
//
// A Descriptor captures everything a backend needs to allocate a surface:
// size, storage format, depth buffer bits and MSAA sample count. Backends
// return values implementing Surface; the software backend returns *Pixmap
// directly, GPU backends wrap their native textures.
//
// Pixmaps can be inspected through a DisplayMode, mirroring the pass
// inspector of the mosaic tooling:
//
//	img := pm.Render(surface.DisplayAlphaOnly)
//	_ = surface.WritePNG(w, img)
package surface
