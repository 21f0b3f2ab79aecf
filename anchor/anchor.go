// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package anchor keeps the mosaic grid aligned to a world-space anchor.
//
// The Aligner stores the mosaic offset, a fraction of one block on each
// axis in [-0.5, 0.5), and the anchor's sub-block position at the last
// checkpoint. Each update shifts the offset by exactly as much as the anchor
// moved on screen since that checkpoint, so changes made by anything other
// than the anchor (block count changes, for instance) do not make the grid
// jump.
package anchor

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/mosaic/internal/mathx"
)

// View describes the capture camera as seen by the aligner.
type View struct {
	// ViewProj is the capture camera's projection times view, including
	// the render-scale adjustment.
	ViewProj mgl32.Mat4

	// Width and Height are the capture surface dimensions in pixels.
	Width  float32
	Height float32

	// BlockSize is the size of one mosaic block in capture pixels.
	BlockSize mgl32.Vec2
}

// Valid reports whether the view can project points.
func (v View) Valid() bool {
	return v.Width > 0 && v.Height > 0 && v.BlockSize.X() > 0 && v.BlockSize.Y() > 0
}

// ScreenPos projects p into capture pixels, origin bottom-left.
func (v View) ScreenPos(p mgl32.Vec3) (mgl32.Vec2, bool) {
	return mathx.WorldToScreen(v.ViewProj, p, v.Width, v.Height)
}

// OffsetAtScreenPos returns how far screen lies from the nearest grid
// intersection of a mosaic shifted by offset, as a fraction of one block.
// A point exactly on an intersection yields (0, 0).
func OffsetAtScreenPos(screen, offset, blockSize mgl32.Vec2) mgl32.Vec2 {
	var out mgl32.Vec2
	for i := range 2 {
		adjusted := screen[i] - offset[i]*blockSize[i]
		out[i] = -(mathx.RoundToNearest32(screen[i], blockSize[i]) - adjusted) / blockSize[i]
	}
	return out
}

// WrapOffset wraps both components into [-0.5, 0.5).
func WrapOffset(v mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{mathx.Wrap(v.X()), mathx.Wrap(v.Y())}
}

// ComputeOffsetDelta projects anchor through view and returns the updated
// mosaic offset together with the anchor state to store for the next
// frame. If the anchor is at the same sub-block position as in previous,
// offset is returned unchanged. ok is false when the anchor cannot be
// projected; the offset is then left alone.
func ComputeOffsetDelta(anchor mgl32.Vec3, view View, offset, previous mgl32.Vec2) (newOffset, state mgl32.Vec2, ok bool) {
	if !view.Valid() {
		return offset, previous, false
	}
	screen, ok := view.ScreenPos(anchor)
	if !ok {
		return offset, previous, false
	}
	current := OffsetAtScreenPos(screen, offset, view.BlockSize)
	newOffset = WrapOffset(offset.Add(current.Sub(previous)))
	state = OffsetAtScreenPos(screen, newOffset, view.BlockSize)
	return newOffset, state, true
}

// Aligner holds the persistent mosaic offset and anchor state of one effect.
// The zero value is ready to use.
type Aligner struct {
	offset   mgl32.Vec2
	previous mgl32.Vec2
}

// Offset returns the mosaic offset in blocks.
func (a *Aligner) Offset() mgl32.Vec2 { return a.offset }

// AnchorState returns the anchor's sub-block offset at the last checkpoint.
func (a *Aligner) AnchorState() mgl32.Vec2 { return a.previous }

// SetOffset stores v wrapped into [-0.5, 0.5).
func (a *Aligner) SetOffset(v mgl32.Vec2) {
	a.offset = WrapOffset(v)
}

// OffsetPixels returns the offset in capture pixels.
func (a *Aligner) OffsetPixels(blockSize mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{a.offset.X() * blockSize.X(), a.offset.Y() * blockSize.Y()}
}

// OffsetUV returns the offset in capture texture coordinates.
func (a *Aligner) OffsetUV(view View) mgl32.Vec2 {
	if view.Width <= 0 || view.Height <= 0 {
		return mgl32.Vec2{}
	}
	px := a.OffsetPixels(view.BlockSize)
	return mgl32.Vec2{px.X() / view.Width, px.Y() / view.Height}
}

// Checkpoint records where the anchor currently sits relative to the grid.
// Later updates are measured against this position.
func (a *Aligner) Checkpoint(anchor mgl32.Vec3, view View) bool {
	if !view.Valid() {
		return false
	}
	screen, ok := view.ScreenPos(anchor)
	if !ok {
		return false
	}
	a.previous = OffsetAtScreenPos(screen, a.offset, view.BlockSize)
	return true
}

// Update shifts the offset by the anchor's movement since the last
// checkpoint and returns the applied delta. It does not take a new
// checkpoint.
func (a *Aligner) Update(anchor mgl32.Vec3, view View) mgl32.Vec2 {
	if !view.Valid() {
		return mgl32.Vec2{}
	}
	screen, ok := view.ScreenPos(anchor)
	if !ok {
		return mgl32.Vec2{}
	}
	delta := OffsetAtScreenPos(screen, a.offset, view.BlockSize).Sub(a.previous)
	a.SetOffset(a.offset.Add(delta))
	return delta
}

// Reset clears the offset and anchor state.
func (a *Aligner) Reset() {
	*a = Aligner{}
}
