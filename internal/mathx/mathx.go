// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package mathx holds small numeric helpers shared by the mosaic packages.
package mathx

import (
	"math"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/exp/constraints"
)

// Number is any integer or float type.
type Number interface {
	constraints.Integer | constraints.Float
}

// Clamp limits v to [lo, hi]. If lo > hi, hi wins.
func Clamp[T Number](v, lo, hi T) T {
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return v
}

// RoundToNearest rounds v to the nearest multiple of step.
// Halfway values round up.
func RoundToNearest(v, step float64) float64 {
	return math.Floor((v+step/2)/step) * step
}

// RoundToNearest32 is the float32 variant of RoundToNearest.
func RoundToNearest32(v, step float32) float32 {
	return math32.Floor((v+step/2)/step) * step
}

// Wrap normalizes v into [-0.5, 0.5).
func Wrap(v float32) float32 {
	v = math32.Mod(v+0.5, 1)
	if v < 0 {
		v++
	}
	// v+1 can round up to exactly 1 for tiny negative inputs.
	if v >= 1 {
		v--
	}
	return v - 0.5
}

// WorldToScreen projects p through viewProj into a width x height
// pixel rectangle with the origin at the bottom-left corner.
// ok is false when p lies behind the camera.
func WorldToScreen(viewProj mgl32.Mat4, p mgl32.Vec3, width, height float32) (screen mgl32.Vec2, ok bool) {
	clip := viewProj.Mul4x1(p.Vec4(1))
	if clip.W() <= 0 {
		return mgl32.Vec2{}, false
	}
	ndc := clip.Vec3().Mul(1 / clip.W())
	return mgl32.Vec2{
		(ndc.X() + 1) * 0.5 * width,
		(ndc.Y() + 1) * 0.5 * height,
	}, true
}

// ScaleAbout returns a matrix scaling UV space around (0.5, 0.5).
func ScaleAbout(sx, sy float32) mgl32.Mat4 {
	return mgl32.Translate3D(0.5, 0.5, 0).
		Mul4(mgl32.Scale3D(sx, sy, 1)).
		Mul4(mgl32.Translate3D(-0.5, -0.5, 0))
}
