// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package pipeline runs the mosaic passes of one frame in order.
//
// A frame goes through these states:
//
//	Idle -> Capturing -> [Premultiplying] -> Downscaling* -> Expanding* -> Ready -> Discarded
//
// Each pass reads the surface of the pass before it, so nothing runs in
// parallel and nothing is reordered. Discarded leads back to Capturing for
// the next frame.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/mosaic/backend"
	"github.com/gogpu/mosaic/chain"
	"github.com/gogpu/mosaic/host"
	"github.com/gogpu/mosaic/layout"
)

// Frame carries the per-frame inputs of the post-capture passes.
type Frame struct {
	Layout layout.Layout

	// OffsetUV is the mosaic offset in capture texture coordinates. It is
	// applied by the first downscale pass only.
	OffsetUV mgl32.Vec2

	// Bilinear enables the bilinear box-filter optimization.
	Bilinear bool
}

// Pipeline drives the passes of a chain on one device.
type Pipeline struct {
	dev    backend.Device
	logger *slog.Logger
	state  State
	frame  uint64
}

// New returns an idle pipeline. A nil logger discards output.
func New(dev backend.Device, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{dev: dev, logger: logger}
}

// State returns the current state.
func (p *Pipeline) State() State { return p.state }

// Frames returns how many frames have started capturing.
func (p *Pipeline) Frames() uint64 { return p.frame }

func (p *Pipeline) transition(to State) error {
	if !CanTransition(p.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.state, to)
	}
	if to != p.state {
		p.logger.Debug("mosaic: pipeline", "frame", p.frame, "from", p.state.String(), "to", to.String())
	}
	p.state = to
	return nil
}

// Capture starts a frame by rendering the target layer into the first
// pass of passes.
func (p *Pipeline) Capture(ctx context.Context, h host.Host, req CaptureRequest, passes []chain.Pass) error {
	if len(passes) == 0 || passes[0].Role != chain.RoleCapture {
		return fmt.Errorf("pipeline: chain does not start with a capture pass")
	}
	if err := p.transition(StateCapturing); err != nil {
		return err
	}
	p.frame++
	if err := Capture(ctx, h, req, passes[0].Surface); err != nil {
		return fmt.Errorf("pipeline: capture: %w", err)
	}
	return nil
}

// Process runs every pass after the capture and leaves the pipeline Ready.
func (p *Pipeline) Process(ctx context.Context, passes []chain.Pass, f Frame) error {
	if p.state != StateCapturing {
		return fmt.Errorf("%w: process in state %s", ErrInvalidTransition, p.state)
	}

	firstDownscale := true
	for i := 1; i < len(passes); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		src, dst := passes[i-1], passes[i]

		var params backend.DrawParams
		switch dst.Role {
		case chain.RolePremultiply:
			if err := p.transition(StatePremultiplying); err != nil {
				return err
			}
			params = PremultiplyParams()
		case chain.RoleDownscale:
			if err := p.transition(StateDownscaling); err != nil {
				return err
			}
			params = DownscaleParams(dst.Surface, src.Surface, dst.Axis, f.Bilinear)
			if firstDownscale {
				params = WithMosaicTransform(params, f.Layout.HRatio, f.Layout.VRatio, f.OffsetUV)
				firstDownscale = false
			}
		case chain.RoleExpand:
			if err := p.transition(StateExpanding); err != nil {
				return err
			}
			params = ExpandParams(src.Surface)
		default:
			return fmt.Errorf("pipeline: pass %d has role %s", i, dst.Role)
		}

		if err := p.dev.Draw(ctx, dst.Surface, src.Surface, params); err != nil {
			return fmt.Errorf("pipeline: %s: %w", dst, err)
		}
	}
	return p.transition(StateReady)
}

// Discard ends the frame from any state. It is how both a finished and an
// aborted frame return to a state that can capture again.
func (p *Pipeline) Discard() {
	if p.state == StateIdle || p.state == StateDiscarded {
		return
	}
	p.logger.Debug("mosaic: pipeline", "frame", p.frame, "from", p.state.String(), "to", StateDiscarded.String())
	p.state = StateDiscarded
}
