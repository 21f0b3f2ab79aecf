// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package sim is an in-memory host for the mosaic effect.
//
// A Scene holds camera-facing sprites and renders them into software
// surfaces: far to near, with a screen-space shadow test, and with the
// compositing material shaded on the CPU. It is what the demo driver and
// the integration tests render with.
package sim

import (
	"context"
	"fmt"
	"image"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/mosaic/composite"
	"github.com/gogpu/mosaic/host"
	"github.com/gogpu/mosaic/internal/filter"
	"github.com/gogpu/mosaic/surface"
)

// missingMaterial is drawn for material types the scene cannot shade.
var missingMaterial = surface.RGBA{R: 1, B: 1, A: 1}

// Scene is a host.Host over a list of sprites.
//
// Scene is NOT safe for concurrent use.
type Scene struct {
	objects []*Object

	// ShadowOffset displaces every shadow in world space, as if lit by a
	// directional light.
	ShadowOffset mgl32.Vec3

	// ShadowStrength is how much a shadow darkens, in [0, 1].
	ShadowStrength float32

	renders int
}

var _ host.Host = (*Scene)(nil)

// NewScene returns an empty scene with a light from the upper left.
func NewScene() *Scene {
	return &Scene{
		ShadowOffset:   mgl32.Vec3{0.25, -0.25, 0},
		ShadowStrength: 0.5,
	}
}

// Add appends objects to the scene.
func (s *Scene) Add(objs ...*Object) {
	s.objects = append(s.objects, objs...)
}

// Objects returns the scene's objects.
func (s *Scene) Objects() []*Object { return s.objects }

// Renderers returns the objects as host renderers.
func (s *Scene) Renderers() []host.Renderer {
	rs := make([]host.Renderer, len(s.objects))
	for i, o := range s.objects {
		rs[i] = o
	}
	return rs
}

// Renders returns how many times RenderCamera has run.
func (s *Scene) Renders() int { return s.renders }

// Render draws the scene as seen by cam over background.
func (s *Scene) Render(ctx context.Context, cam host.Camera, target *surface.Pixmap, background surface.RGBA) error {
	state := host.Clone(cam)
	state.ClearColor = background
	return s.RenderCamera(ctx, state, target)
}

type caster struct {
	obj   *Object
	cov   *image.Alpha
	depth float32
}

type drawable struct {
	obj *Object
	fp  footprint
}

// RenderCamera draws the scene into target, which must be a pixmap.
func (s *Scene) RenderCamera(ctx context.Context, state host.CameraState, target surface.Surface) error {
	pm, ok := target.(*surface.Pixmap)
	if !ok {
		return fmt.Errorf("sim: cannot render into %T", target)
	}
	s.renders++
	pm.Fill(state.ClearColor)
	w, h := pm.Width(), pm.Height()

	var casters []caster
	var draws []drawable
	for _, o := range s.objects {
		if o.casts(state.CullMask) {
			if fp, ok := project(state, o.Shape, o.Center.Add(s.ShadowOffset), o.Size, w, h); ok {
				casters = append(casters, caster{obj: o, cov: fp.coverage(w, h), depth: fp.depth})
			}
		}
		if o.draws(state.CullMask) {
			if fp, ok := project(state, o.Shape, o.Center, o.Size, w, h); ok {
				draws = append(draws, drawable{obj: o, fp: fp})
			}
		}
	}

	// Painter's order: far to near.
	slices.SortStableFunc(draws, func(a, b drawable) int {
		switch {
		case a.fp.depth > b.fp.depth:
			return -1
		case a.fp.depth < b.fp.depth:
			return 1
		}
		return 0
	})

	for _, d := range draws {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.drawObject(pm, state, d, casters)
	}
	return nil
}

func (s *Scene) drawObject(pm *surface.Pixmap, state host.CameraState, d drawable, casters []caster) {
	w, h := pm.Width(), pm.Height()
	cov := d.fp.coverage(w, h)

	var params *composite.Parameters
	var flat surface.RGBA
	switch m := firstMaterial(d.obj).(type) {
	case *composite.Material:
		p := m.Parameters()
		params = &p
	case *Material:
		flat = m.Color
	default:
		flat = missingMaterial
	}

	b := cov.Bounds()
	for ry := b.Min.Y; ry < b.Max.Y; ry++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			a := cov.AlphaAt(x, ry).A
			if a == 0 {
				continue
			}
			// Pixmaps are bottom-up.
			y := h - 1 - ry

			c := flat
			if params != nil {
				uv := mgl32.Vec2{(float32(x) + 0.5) / float32(w), (float32(y) + 0.5) / float32(h)}
				world := unproject(state, uv, d.fp.winDepth, w, h)
				c = filter.Shade(params, uv, world)
				if params.Premultiplied {
					c = c.Unpremultiply()
				}
			}
			if shadowed(casters, d.obj, d.fp.depth, x, ry) {
				k := 1 - s.ShadowStrength
				c.R, c.G, c.B = c.R*k, c.G*k, c.B*k
			}
			pm.SetPixel(x, y, over(c, float32(a)/255, pm.Pixel(x, y)))
		}
	}
}

func firstMaterial(o *Object) host.Material {
	if len(o.materials) == 0 {
		return nil
	}
	return o.materials[0]
}

// shadowed reports whether a caster nearer than depth covers raster pixel
// (x, ry). Objects do not shadow themselves.
func shadowed(casters []caster, self *Object, depth float32, x, ry int) bool {
	for _, c := range casters {
		if c.obj == self || c.depth >= depth {
			continue
		}
		if c.cov.AlphaAt(x, ry).A >= 128 {
			return true
		}
	}
	return false
}

// unproject returns the world position under screen uv at window depth z.
func unproject(state host.CameraState, uv mgl32.Vec2, z float32, w, h int) mgl32.Vec3 {
	win := mgl32.Vec3{uv.X() * float32(w), uv.Y() * float32(h), z}
	p, err := mgl32.UnProject(win, state.View, state.Projection, 0, 0, w, h)
	if err != nil {
		return mgl32.Vec3{}
	}
	return p
}

// over blends straight-alpha src with coverage onto dst.
func over(src surface.RGBA, coverage float32, dst surface.RGBA) surface.RGBA {
	a := src.A * coverage
	outA := a + dst.A*(1-a)
	if outA <= 0 {
		return surface.Transparent
	}
	mix := func(s, d float32) float32 { return (s*a + d*dst.A*(1-a)) / outA }
	return surface.RGBA{R: mix(src.R, dst.R), G: mix(src.G, dst.G), B: mix(src.B, dst.B), A: outA}
}
