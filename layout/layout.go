// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package layout computes mosaic block counts and pass dimensions from the
// camera resolution and the requested block density.
package layout

import (
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/mosaic/internal/mathx"
)

// MinBlocks is the lowest block count allowed on either axis. With fewer
// blocks the mosaic offset can push most of the grid off screen.
const MinBlocks = 4

// ceilEpsilon absorbs float noise before rounding block counts up, so that
// 16 * 1080/1920 resolves to 9 blocks rather than 10.
const ceilEpsilon = 1e-9

// ErrEmptyViewport is returned for a camera with no pixels. Callers skip the
// frame.
var ErrEmptyViewport = errors.New("layout: empty viewport")

// Request holds the inputs of Resolve.
type Request struct {
	// Width and Height are the camera's pixel dimensions.
	Width  int
	Height int

	// Blocks is the requested number of horizontal blocks.
	Blocks float64

	// RenderScale above 1 pads the capture beyond the viewport. Values below
	// 1 are treated as 1.
	RenderScale float64

	// ScaleToAnchor multiplies the block count by AnchorDistance, the world
	// distance from the camera to the anchor. The mapping is linear.
	ScaleToAnchor  bool
	AnchorDistance float64

	// HighResolution captures at the padded camera resolution and
	// downscales. Otherwise the capture is made directly at block resolution.
	HighResolution bool
}

// Layout is the resolved geometry of one frame.
type Layout struct {
	ViewWidth  int
	ViewHeight int

	// PaddedWidth and PaddedHeight include the render-scale margin.
	PaddedWidth  int
	PaddedHeight int

	// ScaleX and ScaleY are the render scales actually achieved after the
	// margin was rounded to whole pixel pairs.
	ScaleX float64
	ScaleY float64

	// HBlocks and VBlocks are the real-valued block counts.
	HBlocks float64
	VBlocks float64

	// Columns and Rows are the integer block counts: the mosaic texture size.
	Columns int
	Rows    int

	// HRatio and VRatio are HBlocks/Columns and VBlocks/Rows, in (0, 1].
	HRatio float64
	VRatio float64

	// CaptureWidth and CaptureHeight size the capture surface.
	CaptureWidth  int
	CaptureHeight int

	HighResolution bool
}

// Resolve computes the layout for r.
func Resolve(r Request) (Layout, error) {
	if r.Width <= 0 || r.Height <= 0 {
		return Layout{}, fmt.Errorf("%w: %dx%d", ErrEmptyViewport, r.Width, r.Height)
	}

	rs := r.RenderScale
	if rs < 1 || math.IsNaN(rs) {
		rs = 1
	}

	// Pad by a whole number of pixel pairs so the viewport stays centered
	// on exact pixels of the capture.
	extraX := mathx.RoundToNearest(float64(r.Width)*(rs-1), 2)
	extraY := mathx.RoundToNearest(float64(r.Height)*(rs-1), 2)

	l := Layout{
		ViewWidth:      r.Width,
		ViewHeight:     r.Height,
		PaddedWidth:    r.Width + int(extraX),
		PaddedHeight:   r.Height + int(extraY),
		HighResolution: r.HighResolution,
	}
	l.ScaleX = float64(l.PaddedWidth) / float64(r.Width)
	l.ScaleY = float64(l.PaddedHeight) / float64(r.Height)

	h := r.Blocks * l.ScaleX
	if r.ScaleToAnchor {
		h *= r.AnchorDistance
	}
	v := h * l.ScaleY

	h = math.Max(1, h)
	v = math.Max(1, v)

	// Keep blocks square: derive the short axis from the long one.
	pw, ph := float64(l.PaddedWidth), float64(l.PaddedHeight)
	if l.PaddedWidth < l.PaddedHeight {
		h = v * pw / ph
	} else {
		v = h * ph / pw
	}

	h = clampBlocks(h, pw)
	v = clampBlocks(v, ph)

	l.Columns = int(math.Ceil(h - ceilEpsilon))
	l.Rows = int(math.Ceil(v - ceilEpsilon))

	if r.HighResolution {
		l.CaptureWidth = l.PaddedWidth
		l.CaptureHeight = l.PaddedHeight
	} else {
		// Fractional blocks are not supported at block resolution.
		h, v = float64(l.Columns), float64(l.Rows)
		l.CaptureWidth = l.Columns
		l.CaptureHeight = l.Rows
	}

	l.HBlocks = h
	l.VBlocks = v
	l.HRatio = math.Min(1, h/float64(l.Columns))
	l.VRatio = math.Min(1, v/float64(l.Rows))
	return l, nil
}

// clampBlocks keeps a block count within [MinBlocks, dim]. A dimension
// smaller than MinBlocks wins over the floor.
func clampBlocks(blocks, dim float64) float64 {
	return mathx.Clamp(blocks, math.Min(MinBlocks, dim), dim)
}

// BlockSize returns the size of one mosaic block in capture pixels. It is
// (1, 1) for the zero Layout.
func (l Layout) BlockSize() (float64, float64) {
	if l.HBlocks == 0 || l.VBlocks == 0 {
		return 1, 1
	}
	return float64(l.CaptureWidth) / l.HBlocks, float64(l.CaptureHeight) / l.VBlocks
}

// Aspect returns the padded width over the padded height.
func (l Layout) Aspect() float64 {
	if l.PaddedHeight == 0 {
		return 1
	}
	return float64(l.PaddedWidth) / float64(l.PaddedHeight)
}

// String formats the layout for logs.
func (l Layout) String() string {
	return fmt.Sprintf("capture %dx%d blocks %.3fx%.3f (%dx%d) ratio %.3fx%.3f",
		l.CaptureWidth, l.CaptureHeight, l.HBlocks, l.VBlocks, l.Columns, l.Rows, l.HRatio, l.VRatio)
}
