// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package host defines what the mosaic effect needs from the engine that
// renders the scene.
//
// The effect never walks a scene graph or submits draw calls for scene
// objects itself. It enumerates renderers, swaps their materials, adjusts
// their shadow casting for the capture, and asks the host to render a
// camera state into a surface it allocated.
package host

import (
	"context"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/mosaic/surface"
)

// MaxLayers is the number of render layers a cull mask can address.
const MaxLayers = 32

// ShadowMode controls how a renderer takes part in shadow casting.
type ShadowMode uint8

const (
	// ShadowsOn draws the renderer and lets it cast shadows.
	ShadowsOn ShadowMode = iota

	// ShadowsOff draws the renderer without shadows.
	ShadowsOff

	// ShadowsOnly casts shadows without drawing the renderer.
	ShadowsOnly
)

// String returns the mode name.
func (m ShadowMode) String() string {
	switch m {
	case ShadowsOn:
		return "On"
	case ShadowsOff:
		return "Off"
	case ShadowsOnly:
		return "ShadowsOnly"
	default:
		return fmt.Sprintf("ShadowMode(%d)", uint8(m))
	}
}

// Material is an opaque material reference owned by the host.
type Material interface {
	Name() string
}

// Transform is a world-space placement, used for the anchor and the
// sphere mask.
type Transform interface {
	Position() mgl32.Vec3

	// WorldToLocal maps world positions into the transform's local space.
	WorldToLocal() mgl32.Mat4
}

// Renderer is one drawable object of the scene.
type Renderer interface {
	Layer() int

	// Materials returns the renderer's current material slots. The
	// returned slice must not be modified.
	Materials() []Material
	SetMaterials(m []Material)

	ShadowMode() ShadowMode
	SetShadowMode(m ShadowMode)
}

// Camera is the main camera the effect is attached to.
type Camera interface {
	// ID identifies the camera across frames. Two effects on the same ID
	// and layer conflict.
	ID() string

	PixelWidth() int
	PixelHeight() int

	Position() mgl32.Vec3
	View() mgl32.Mat4
	Projection() mgl32.Mat4

	// CullMask is the set of layers the camera draws, bit n for layer n.
	CullMask() uint32

	// AllowHDR reports whether the camera renders to a float target.
	AllowHDR() bool

	// MSAASamples is the camera's antialiasing sample count, 1 when off.
	MSAASamples() int
}

// CameraState is a snapshot of camera parameters the host renders with.
// The capture camera is a CameraState cloned from the main camera.
type CameraState struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
	Position   mgl32.Vec3
	CullMask   uint32

	// ClearColor is written to the target before drawing.
	ClearColor surface.RGBA
}

// Clone snapshots c.
func Clone(c Camera) CameraState {
	return CameraState{
		View:       c.View(),
		Projection: c.Projection(),
		Position:   c.Position(),
		CullMask:   c.CullMask(),
	}
}

// ViewProj returns Projection times View.
func (s CameraState) ViewProj() mgl32.Mat4 {
	return s.Projection.Mul4(s.View)
}

// Scene enumerates renderers.
type Scene interface {
	Renderers() []Renderer
}

// Host renders scenes on request.
type Host interface {
	Scene

	// RenderCamera draws every renderer visible to state into target.
	// Renderers in ShadowsOnly mode cast shadows but are not drawn.
	RenderCamera(ctx context.Context, state CameraState, target surface.Surface) error
}

// LayerMask returns the cull mask containing only layer. Out of range
// layers yield an empty mask.
func LayerMask(layer int) uint32 {
	if layer < 0 || layer >= MaxLayers {
		return 0
	}
	return 1 << uint(layer)
}

// Visible reports whether mask includes layer.
func Visible(mask uint32, layer int) bool {
	return mask&LayerMask(layer) != 0
}

// OnLayer returns the renderers of s on layer.
func OnLayer(s Scene, layer int) []Renderer {
	var out []Renderer
	for _, r := range s.Renderers() {
		if r.Layer() == layer {
			out = append(out, r)
		}
	}
	return out
}

// NotOnLayer returns the renderers of s on any other layer.
func NotOnLayer(s Scene, layer int) []Renderer {
	var out []Renderer
	for _, r := range s.Renderers() {
		if r.Layer() != layer {
			out = append(out, r)
		}
	}
	return out
}
