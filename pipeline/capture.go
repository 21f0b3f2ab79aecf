// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipeline

import (
	"context"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/mosaic/host"
	"github.com/gogpu/mosaic/layout"
	"github.com/gogpu/mosaic/surface"
)

// CaptureCamera clones cam for rendering into the capture surface of l.
// The projection shrinks the scene by the achieved render scale so the
// visible viewport lands centered in the padded surface.
func CaptureCamera(cam host.Camera, l layout.Layout) host.CameraState {
	s := host.Clone(cam)
	sx, sy := l.ScaleX, l.ScaleY
	if sx <= 0 {
		sx = 1
	}
	if sy <= 0 {
		sy = 1
	}
	s.Projection = s.Projection.Mul4(mgl32.Scale3D(float32(1/sx), float32(1/sy), 1))
	s.ClearColor = surface.Transparent
	return s
}

// CaptureRequest describes one capture of the target layer.
type CaptureRequest struct {
	Camera host.CameraState
	Layer  int

	// ShadowsCastOnMosaic keeps the other layers in the render as shadow
	// casters only. Without it the capture culls every other layer, which
	// is cheaper but loses their shadows.
	ShadowsCastOnMosaic bool
}

// ShadowState is the saved shadow mode of a set of renderers.
type ShadowState struct {
	renderers []host.Renderer
	modes     []host.ShadowMode
}

// ForceShadowsOnly switches every renderer in rs to ShadowsOnly and returns
// the state needed to undo it.
func ForceShadowsOnly(rs []host.Renderer) ShadowState {
	s := ShadowState{
		renderers: rs,
		modes:     make([]host.ShadowMode, len(rs)),
	}
	for i, r := range rs {
		s.modes[i] = r.ShadowMode()
		r.SetShadowMode(host.ShadowsOnly)
	}
	return s
}

// Restore puts back the saved shadow modes.
func (s ShadowState) Restore() {
	for i, r := range s.renderers {
		r.SetShadowMode(s.modes[i])
	}
}

// Len returns the number of saved renderers.
func (s ShadowState) Len() int { return len(s.renderers) }

// Capture renders req.Layer into target. Shadow modes changed for the
// capture are restored before Capture returns, whether or not the host
// rendered successfully.
func Capture(ctx context.Context, h host.Host, req CaptureRequest, target surface.Surface) error {
	state := req.Camera
	if req.ShadowsCastOnMosaic {
		saved := ForceShadowsOnly(host.NotOnLayer(h, req.Layer))
		defer saved.Restore()
	} else {
		state.CullMask = host.LayerMask(req.Layer)
	}
	return h.RenderCamera(ctx, state, target)
}
