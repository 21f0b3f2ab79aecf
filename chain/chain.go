// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package chain owns the offscreen surfaces of the mosaic passes.
//
// A Chain starts with the capture surface, optionally followed by a
// premultiply surface, the downscale surfaces (high resolution mode only)
// and the expand surfaces. Each surface after the capture is rendered from
// the one before it; the last one is what the compositor samples.
//
// Surfaces are reallocated only when the Setup fingerprint changes, and are
// released immediately and in reverse order, never left to a finalizer.
package chain

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/gogpu/mosaic/backend"
	"github.com/gogpu/mosaic/layout"
	"github.com/gogpu/mosaic/surface"
)

// Chain errors.
var (
	// ErrInvalidLayout is returned for a layout with no blocks.
	ErrInvalidLayout = errors.New("chain: invalid layout")

	// ErrReleased is returned when allocating on a closed chain.
	ErrReleased = errors.New("chain: released")
)

// CaptureDepthBits is the depth buffer precision of the capture surface.
const CaptureDepthBits = 24

// maxDownscaleSteps bounds the downscale plan.
const maxDownscaleSteps = 64

// Role is what a pass does to its source.
type Role uint8

const (
	// RoleCapture renders the target layer. It has no source.
	RoleCapture Role = iota
	// RolePremultiply multiplies color by alpha.
	RolePremultiply
	// RoleDownscale box-filters along one axis.
	RoleDownscale
	// RoleExpand dilates opaque pixels by one pixel.
	RoleExpand
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleCapture:
		return "capture"
	case RolePremultiply:
		return "premultiply"
	case RoleDownscale:
		return "downscale"
	case RoleExpand:
		return "expand"
	default:
		return fmt.Sprintf("Role(%d)", uint8(r))
	}
}

// Axis is the axis a downscale pass filters on.
type Axis uint8

const (
	AxisX Axis = iota
	AxisY
)

// String returns "x" or "y".
func (a Axis) String() string {
	if a == AxisY {
		return "y"
	}
	return "x"
}

// Index returns 0 for X and 1 for Y.
func (a Axis) Index() int { return int(a) }

// Options are the chain parameters that do not come from the layout.
type Options struct {
	ExpandPasses int

	// Antialiasing is the MSAA sample count of the capture. Values below 1
	// mean 1.
	Antialiasing int

	Premultiply bool
	Format      surface.Format

	// MaxDownscaleRatio limits how far one downscale step shrinks its
	// filtered axis. 0 lets one step reach the block count directly.
	MaxDownscaleRatio float64
}

// Setup is the fingerprint compared between frames to decide whether the
// surfaces must be reallocated.
type Setup struct {
	CaptureWidth      int
	CaptureHeight     int
	HBlocks           float64
	VBlocks           float64
	Columns           int
	Rows              int
	ExpandPasses      int
	Antialiasing      int
	HighResolution    bool
	Premultiply       bool
	Format            surface.Format
	MaxDownscaleRatio float64
}

// NewSetup builds the fingerprint for l and o.
func NewSetup(l layout.Layout, o Options) Setup {
	return Setup{
		CaptureWidth:      l.CaptureWidth,
		CaptureHeight:     l.CaptureHeight,
		HBlocks:           l.HBlocks,
		VBlocks:           l.VBlocks,
		Columns:           l.Columns,
		Rows:              l.Rows,
		ExpandPasses:      max(o.ExpandPasses, 0),
		Antialiasing:      max(o.Antialiasing, 1),
		HighResolution:    l.HighResolution,
		Premultiply:       o.Premultiply,
		Format:            o.Format,
		MaxDownscaleRatio: o.MaxDownscaleRatio,
	}
}

// Step is one planned pass.
type Step struct {
	Role       Role
	Axis       Axis
	Descriptor surface.Descriptor
}

// Plan lists the passes for s in execution order.
func Plan(s Setup) []Step {
	w, h := s.CaptureWidth, s.CaptureHeight
	steps := []Step{{
		Role: RoleCapture,
		Descriptor: surface.Descriptor{
			Label:     "mosaic.capture",
			Width:     w,
			Height:    h,
			Format:    s.Format,
			DepthBits: CaptureDepthBits,
			Samples:   max(s.Antialiasing, 1),
		},
	}}

	if s.Premultiply {
		steps = append(steps, Step{
			Role:       RolePremultiply,
			Descriptor: surface.Descriptor{Label: "mosaic.premultiply", Width: w, Height: h, Format: s.Format},
		})
	}

	if s.HighResolution {
		axis := AxisX
		for n := 0; n < maxDownscaleSteps && (n < 2 || w != s.Columns || h != s.Rows); n++ {
			if axis == AxisX {
				w = stepToward(w, s.Columns, s.MaxDownscaleRatio)
				// The bilinear sampler halves the other axis for free.
				h = max(h/2, s.Rows)
			} else {
				h = stepToward(h, s.Rows, s.MaxDownscaleRatio)
				w = max(w/2, s.Columns)
			}
			steps = append(steps, Step{
				Role: RoleDownscale,
				Axis: axis,
				Descriptor: surface.Descriptor{
					Label:  fmt.Sprintf("mosaic.downscale.%s%d", axis, n/2),
					Width:  w,
					Height: h,
					Format: s.Format,
				},
			})
			axis ^= 1
		}
	}

	for i := 0; i < s.ExpandPasses; i++ {
		steps = append(steps, Step{
			Role:       RoleExpand,
			Descriptor: surface.Descriptor{Label: fmt.Sprintf("mosaic.expand.%d", i), Width: w, Height: h, Format: s.Format},
		})
	}
	return steps
}

// stepToward shrinks cur toward target by at most ratio. A ratio of 1 or
// less jumps straight to target.
func stepToward(cur, target int, ratio float64) int {
	if ratio <= 1 {
		return target
	}
	return max(target, int(math.Ceil(float64(cur)/ratio)))
}

// Pass is one allocated surface of the chain.
type Pass struct {
	Role    Role
	Axis    Axis
	Surface surface.Surface
}

// Width returns the surface width.
func (p Pass) Width() int { return p.Surface.Width() }

// Height returns the surface height.
func (p Pass) Height() int { return p.Surface.Height() }

// String describes the pass for logs and tooling.
func (p Pass) String() string {
	d := p.Surface.Descriptor()
	if p.Role == RoleDownscale {
		return fmt.Sprintf("%s(%s) %dx%d", p.Role, p.Axis, d.Width, d.Height)
	}
	return fmt.Sprintf("%s %dx%d", p.Role, d.Width, d.Height)
}

// Chain allocates and owns the pass surfaces of one effect.
type Chain struct {
	dev    backend.Device
	logger *slog.Logger

	setup       Setup
	passes      []Pass
	allocations int
	closed      bool
}

// New returns an empty chain allocating from dev. A nil logger discards
// output.
func New(dev backend.Device, logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Chain{dev: dev, logger: logger}
}

// EnsureAllocated makes the chain match l and o. If the fingerprint is
// unchanged the existing passes are returned untouched; otherwise the old
// surfaces are released before new ones are allocated. changed reports
// whether a reallocation happened.
func (c *Chain) EnsureAllocated(l layout.Layout, o Options) (passes []Pass, changed bool, err error) {
	if c.closed {
		return nil, false, ErrReleased
	}
	if l.Columns <= 0 || l.Rows <= 0 || l.CaptureWidth <= 0 || l.CaptureHeight <= 0 {
		return nil, false, fmt.Errorf("%w: %s", ErrInvalidLayout, l)
	}

	s := NewSetup(l, o)
	if len(c.passes) > 0 && s == c.setup {
		return c.passes, false, nil
	}

	if err := c.releaseSurfaces(); err != nil {
		c.logger.Warn("mosaic: release before reallocation", "err", err)
	}

	plan := Plan(s)
	passes = make([]Pass, 0, len(plan))
	for _, step := range plan {
		surf, err := c.dev.CreateSurface(step.Descriptor)
		if err != nil {
			c.passes = passes
			_ = c.releaseSurfaces()
			return nil, true, fmt.Errorf("chain: allocate %s: %w", step.Descriptor.Label, err)
		}
		passes = append(passes, Pass{Role: step.Role, Axis: step.Axis, Surface: surf})
	}

	c.passes = passes
	c.setup = s
	c.allocations++
	c.logger.Debug("mosaic: chain allocated", "layout", l.String(), "passes", len(passes))
	return passes, true, nil
}

// Passes returns the current passes, capture first.
func (c *Chain) Passes() []Pass { return c.passes }

// Setup returns the fingerprint of the current allocation.
func (c *Chain) Setup() Setup { return c.setup }

// Allocations returns how many times the chain has been (re)allocated.
func (c *Chain) Allocations() int { return c.allocations }

// Capture returns the first pass. ok is false when nothing is allocated.
func (c *Chain) Capture() (Pass, bool) {
	if len(c.passes) == 0 {
		return Pass{}, false
	}
	return c.passes[0], true
}

// Last returns the pass the compositor samples.
func (c *Chain) Last() (Pass, bool) {
	if len(c.passes) == 0 {
		return Pass{}, false
	}
	return c.passes[len(c.passes)-1], true
}

// Discard drops the contents of every pass. The surfaces stay allocated.
func (c *Chain) Discard() {
	for _, p := range c.passes {
		c.dev.Discard(p.Surface)
	}
}

// Release frees every surface now. The chain can allocate again afterwards.
func (c *Chain) Release() error {
	return c.releaseSurfaces()
}

// Close releases the surfaces and refuses further allocations.
func (c *Chain) Close() error {
	c.closed = true
	return c.releaseSurfaces()
}

// releaseSurfaces destroys surfaces in reverse allocation order and resets
// the fingerprint so the next EnsureAllocated allocates.
func (c *Chain) releaseSurfaces() error {
	var errs []error
	for i := len(c.passes) - 1; i >= 0; i-- {
		if err := c.dev.DestroySurface(c.passes[i].Surface); err != nil {
			errs = append(errs, err)
		}
	}
	c.passes = nil
	c.setup = Setup{}
	return errors.Join(errs...)
}
