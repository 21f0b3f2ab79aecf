// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sim

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/mosaic/host"
)

// Camera is a perspective camera looking from Eye at Target.
type Camera struct {
	Name   string
	Width  int
	Height int

	Eye    mgl32.Vec3
	Target mgl32.Vec3
	Up     mgl32.Vec3

	// FovY is the vertical field of view in degrees.
	FovY      float32
	Near, Far float32

	HDR     bool
	Samples int

	// Mask is the set of visible layers. 0 means all.
	Mask uint32
}

var _ host.Camera = (*Camera)(nil)

// NewCamera returns a 60 degree camera at eye looking at the origin.
func NewCamera(name string, width, height int, eye mgl32.Vec3) *Camera {
	return &Camera{
		Name:    name,
		Width:   width,
		Height:  height,
		Eye:     eye,
		Up:      mgl32.Vec3{0, 1, 0},
		FovY:    60,
		Near:    0.1,
		Far:     100,
		Samples: 1,
	}
}

func (c *Camera) ID() string          { return c.Name }
func (c *Camera) PixelWidth() int     { return c.Width }
func (c *Camera) PixelHeight() int    { return c.Height }
func (c *Camera) Position() mgl32.Vec3 { return c.Eye }
func (c *Camera) AllowHDR() bool      { return c.HDR }

// View returns the look-at matrix.
func (c *Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Eye, c.Target, c.Up)
}

// Projection returns the perspective matrix for the pixel aspect ratio.
func (c *Camera) Projection() mgl32.Mat4 {
	aspect := float32(1)
	if c.Height > 0 {
		aspect = float32(c.Width) / float32(c.Height)
	}
	return mgl32.Perspective(mgl32.DegToRad(c.FovY), aspect, c.Near, c.Far)
}

// CullMask returns Mask, or every layer when Mask is 0.
func (c *Camera) CullMask() uint32 {
	if c.Mask == 0 {
		return ^uint32(0)
	}
	return c.Mask
}

// MSAASamples returns Samples, at least 1.
func (c *Camera) MSAASamples() int { return max(c.Samples, 1) }
