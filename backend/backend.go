// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/mosaic/surface"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrUnsupportedProgram is returned when a device cannot run a program.
	ErrUnsupportedProgram = errors.New("backend: unsupported program")

	// ErrForeignSurface is returned when a surface was allocated by another device.
	ErrForeignSurface = errors.New("backend: surface belongs to another device")

	// ErrDestroyed is returned when drawing to or from a destroyed surface.
	ErrDestroyed = errors.New("backend: surface destroyed")
)

// Program identifies one of the full-screen passes a device can run.
type Program uint8

const (
	// ProgramResize is the separable box-filter downscale.
	ProgramResize Program = iota

	// ProgramExpandEdges fills transparent pixels from opaque neighbors.
	ProgramExpandEdges

	// ProgramPremultiply multiplies color by alpha.
	ProgramPremultiply
)

// Programs lists every program the mosaic pipeline needs.
var Programs = []Program{ProgramResize, ProgramExpandEdges, ProgramPremultiply}

// String returns the program name.
func (p Program) String() string {
	switch p {
	case ProgramResize:
		return "resize"
	case ProgramExpandEdges:
		return "expand_edges"
	case ProgramPremultiply:
		return "premultiply"
	default:
		return fmt.Sprintf("Program(%d)", uint8(p))
	}
}

// DrawParams are the per-draw uniforms of a full-screen pass. The
// destination is covered by one quad whose corners sample the source at
// QuadMin (bottom-left) and QuadMax (top-right).
type DrawParams struct {
	Program Program

	// Filter is the sampler used to read the source.
	Filter surface.Filter

	QuadMin mgl32.Vec2
	QuadMax mgl32.Vec2

	// Resize: offset of the first tap from the destination pixel center,
	// distance between taps, and tap count. Only the filtered axis is
	// non-zero.
	UVStart      mgl32.Vec2
	UVStep       mgl32.Vec2
	Samples      int
	SampleFactor float32

	// ExpandEdges: size of one source texel in UV units.
	PixelStep mgl32.Vec2
}

// FullQuad returns params covering the whole source.
func FullQuad(p Program, f surface.Filter) DrawParams {
	return DrawParams{
		Program: p,
		Filter:  f,
		QuadMax: mgl32.Vec2{1, 1},
	}
}

// Device allocates surfaces and runs full-screen passes between them.
//
// A Device is used from a single goroutine: the mosaic pipeline issues
// its passes strictly in order and each pass reads the previous one.
type Device interface {
	// Name returns the backend identifier (e.g., "software", "native").
	Name() string

	// Supports reports whether the device can run p.
	Supports(p Program) bool

	// CreateSurface allocates a cleared surface.
	CreateSurface(desc surface.Descriptor) (surface.Surface, error)

	// DestroySurface releases a surface immediately. Destroying a surface
	// twice is a no-op.
	DestroySurface(s surface.Surface) error

	// Draw renders src into dst with a single full-screen quad.
	Draw(ctx context.Context, dst, src surface.Surface, p DrawParams) error

	// Discard marks the contents of s as no longer needed.
	Discard(s surface.Surface)

	// Close releases all device resources.
	Close() error
}
