// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package mosaic

import (
	"math"

	"github.com/gogpu/mosaic/backend"
	"github.com/gogpu/mosaic/composite"
	"github.com/gogpu/mosaic/host"
)

// Default configuration values.
const (
	DefaultBlocks       = 16
	DefaultRenderScale  = 1.1
	DefaultAlpha        = 1
	DefaultExpandPasses = 2
	DefaultMaskFade     = 0.1
)

// Config holds the settings of an Effect.
type Config struct {
	// Layer is the render layer whose objects are mosaiced.
	Layer int

	// Blocks is the number of mosaic blocks across the screen.
	Blocks float64

	// RenderScale pads the capture by this factor around the viewport so
	// the edge blocks have real pixels to average. Must be at least 1.
	RenderScale float64

	// HighResolution captures at screen resolution and downscales. When
	// false the layer is rendered straight into a block-sized surface.
	HighResolution bool

	// ShadowsCastOnMosaic keeps other layers in the capture as shadow
	// casters.
	ShadowsCastOnMosaic bool

	// Alpha blends between the sharp image (0) and the mosaic (1).
	Alpha float32

	// ExpandPasses is the number of one-pixel edge expansions.
	ExpandPasses int

	Masking composite.Masking

	// MaskFade is the width of the sphere mask falloff in world units.
	MaskFade float32

	// Anchor aligns the mosaic grid and drives distance scaling. nil
	// disables both.
	Anchor host.Transform

	// FollowAnchor moves the grid with the anchor on screen.
	FollowAnchor bool

	// ScaleToAnchorDistance multiplies Blocks by the camera to anchor
	// distance, linearly.
	ScaleToAnchorDistance bool

	// ShowMask renders the mask as grey instead of the composited image.
	ShowMask bool

	// Premultiply adds a pass multiplying color by alpha before the
	// downscale.
	Premultiply bool

	// BilinearOptimization lets each box-filter tap average two source
	// pixels.
	BilinearOptimization bool

	// MaxDownscaleRatio bounds how much one downscale pass may shrink its
	// axis. 0 reaches the block count in one pass per axis.
	MaxDownscaleRatio float64

	// Antialiasing overrides the capture MSAA sample count. 0 uses the
	// camera's.
	Antialiasing int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Blocks:               DefaultBlocks,
		RenderScale:          DefaultRenderScale,
		HighResolution:       true,
		ShadowsCastOnMosaic:  true,
		Alpha:                DefaultAlpha,
		ExpandPasses:         DefaultExpandPasses,
		MaskFade:             DefaultMaskFade,
		BilinearOptimization: true,
	}
}

// Validate reports the first invalid field as a *ConfigError.
func (c Config) Validate() error {
	switch {
	case c.Layer < 0 || c.Layer >= host.MaxLayers:
		return &ConfigError{"Layer", c.Layer, "must be in [0, 32)"}
	case !(c.Blocks > 0) || math.IsInf(c.Blocks, 0):
		return &ConfigError{"Blocks", c.Blocks, "must be positive"}
	case !(c.RenderScale >= 1) || math.IsInf(c.RenderScale, 0):
		return &ConfigError{"RenderScale", c.RenderScale, "must be at least 1"}
	case !(c.Alpha >= 0 && c.Alpha <= 1):
		return &ConfigError{"Alpha", c.Alpha, "must be in [0, 1]"}
	case c.ExpandPasses < 0:
		return &ConfigError{"ExpandPasses", c.ExpandPasses, "must not be negative"}
	case c.Masking.Mode > composite.MaskTexture:
		return &ConfigError{"Masking", c.Masking.Mode, "unknown mode"}
	case !(c.MaskFade >= 0):
		return &ConfigError{"MaskFade", c.MaskFade, "must not be negative"}
	case c.MaxDownscaleRatio != 0 && !(c.MaxDownscaleRatio > 1):
		return &ConfigError{"MaxDownscaleRatio", c.MaxDownscaleRatio, "must be 0 or above 1"}
	}
	switch c.Antialiasing {
	case 0, 1, 2, 4, 8:
	default:
		return &ConfigError{"Antialiasing", c.Antialiasing, "must be 0, 1, 2, 4 or 8"}
	}
	return nil
}

// programs returns the backend programs c needs.
func (c Config) programs() []backend.Program {
	var ps []backend.Program
	if c.HighResolution {
		ps = append(ps, backend.ProgramResize)
	}
	if c.ExpandPasses > 0 {
		ps = append(ps, backend.ProgramExpandEdges)
	}
	if c.Premultiply {
		ps = append(ps, backend.ProgramPremultiply)
	}
	return ps
}
