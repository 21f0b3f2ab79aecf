// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package mosaic

import (
	"github.com/gogpu/mosaic/composite"
	"github.com/gogpu/mosaic/host"
)

// Option configures an Effect during creation.
//
// Example:
//
//	fx, err := mosaic.New(dev, h, reg,
//	    mosaic.WithLayer(8),
//	    mosaic.WithBlocks(24),
//	    mosaic.WithMasking(composite.SphereMask(head)),
//	)
type Option func(*Config)

// WithLayer sets the layer to mosaic.
func WithLayer(layer int) Option {
	return func(c *Config) { c.Layer = layer }
}

// WithBlocks sets the number of blocks across the screen.
func WithBlocks(blocks float64) Option {
	return func(c *Config) { c.Blocks = blocks }
}

// WithRenderScale sets the capture padding factor.
func WithRenderScale(scale float64) Option {
	return func(c *Config) { c.RenderScale = scale }
}

// WithHighResolution selects between downscaling a screen-sized capture
// (true) and capturing at block resolution (false).
func WithHighResolution(on bool) Option {
	return func(c *Config) { c.HighResolution = on }
}

// WithShadowsCastOnMosaic keeps other layers' shadows on the mosaic.
func WithShadowsCastOnMosaic(on bool) Option {
	return func(c *Config) { c.ShadowsCastOnMosaic = on }
}

// WithAlpha sets the mosaic opacity.
func WithAlpha(alpha float32) Option {
	return func(c *Config) { c.Alpha = alpha }
}

// WithExpandPasses sets the number of edge expansions.
func WithExpandPasses(n int) Option {
	return func(c *Config) { c.ExpandPasses = n }
}

// WithMasking sets the mask.
func WithMasking(m composite.Masking) Option {
	return func(c *Config) { c.Masking = m }
}

// WithMaskFade sets the sphere mask falloff width.
func WithMaskFade(fade float32) Option {
	return func(c *Config) { c.MaskFade = fade }
}

// WithAnchor sets the anchor transform.
func WithAnchor(t host.Transform) Option {
	return func(c *Config) { c.Anchor = t }
}

// WithFollowAnchor makes the grid move with the anchor.
func WithFollowAnchor(on bool) Option {
	return func(c *Config) { c.FollowAnchor = on }
}

// WithScaleToAnchorDistance scales the block count by the anchor distance.
func WithScaleToAnchorDistance(on bool) Option {
	return func(c *Config) { c.ScaleToAnchorDistance = on }
}

// WithShowMask renders the mask for debugging.
func WithShowMask(on bool) Option {
	return func(c *Config) { c.ShowMask = on }
}

// WithPremultiply adds the premultiply pass.
func WithPremultiply(on bool) Option {
	return func(c *Config) { c.Premultiply = on }
}

// WithBilinearOptimization toggles two-pixel box-filter taps.
func WithBilinearOptimization(on bool) Option {
	return func(c *Config) { c.BilinearOptimization = on }
}

// WithMaxDownscaleRatio bounds the shrink factor of one downscale pass.
func WithMaxDownscaleRatio(ratio float64) Option {
	return func(c *Config) { c.MaxDownscaleRatio = ratio }
}

// WithAntialiasing overrides the capture MSAA sample count.
func WithAntialiasing(samples int) Option {
	return func(c *Config) { c.Antialiasing = samples }
}
