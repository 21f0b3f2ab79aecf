// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/mosaic/host"
	"github.com/gogpu/mosaic/surface"
)

var (
	red   = surface.RGBA{R: 1, A: 1}
	blue  = surface.RGBA{B: 1, A: 1}
	white = surface.RGBA{R: 1, G: 1, B: 1, A: 1}
	black = surface.RGBA{A: 1}
)

func near(a, b surface.RGBA) bool {
	const eps = 1e-3
	d := func(x, y float32) bool { return math.Abs(float64(x-y)) < eps }
	return d(a.R, b.R) && d(a.G, b.G) && d(a.B, b.B) && d(a.A, b.A)
}

func testCamera() *Camera {
	return NewCamera("main", 64, 64, mgl32.Vec3{0, 0, 5})
}

func TestRenderCameraRejectsForeignTarget(t *testing.T) {
	s := NewScene()
	var target surface.Surface
	if err := s.RenderCamera(context.Background(), host.Clone(testCamera()), target); err == nil {
		t.Error("RenderCamera(nil target) succeeded")
	}
}

func TestRenderSquare(t *testing.T) {
	s := NewScene()
	s.Add(NewObject("box", 0, ShapeSquare, mgl32.Vec3{}, 1, NewMaterial("red", red)))

	pm := surface.New(64, 64)
	if err := s.Render(context.Background(), testCamera(), pm, black); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got := pm.Pixel(32, 32); !near(got, red) {
		t.Errorf("center = %+v, want red", got)
	}
	if got := pm.Pixel(0, 0); !near(got, black) {
		t.Errorf("corner = %+v, want background", got)
	}
	if s.Renders() != 1 {
		t.Errorf("Renders() = %d, want 1", s.Renders())
	}
}

func TestRenderDisc(t *testing.T) {
	s := NewScene()
	s.Add(NewObject("ball", 0, ShapeDisc, mgl32.Vec3{}, 2, NewMaterial("red", red)))

	cam := testCamera()
	pm := surface.New(64, 64)
	if err := s.Render(context.Background(), cam, pm, black); err != nil {
		t.Fatal(err)
	}
	fp, ok := project(host.Clone(cam), ShapeDisc, mgl32.Vec3{}, 2, 64, 64)
	if !ok {
		t.Fatal("project() failed")
	}
	// Just inside the bounding square's corner lies outside the disc.
	x := int(fp.center.X()-fp.radius.X()) + 1
	ry := int(fp.center.Y()-fp.radius.Y()) + 1
	if got := pm.Pixel(x, 63-ry); !near(got, black) {
		t.Errorf("bounding corner = %+v, want background", got)
	}
	if got := pm.Pixel(32, 32); !near(got, red) {
		t.Errorf("center = %+v, want red", got)
	}
}

func TestRenderCulling(t *testing.T) {
	s := NewScene()
	s.Add(NewObject("box", 3, ShapeSquare, mgl32.Vec3{}, 1, NewMaterial("red", red)))

	cam := testCamera()
	cam.Mask = host.LayerMask(0)
	pm := surface.New(64, 64)
	if err := s.Render(context.Background(), cam, pm, black); err != nil {
		t.Fatal(err)
	}
	if got := pm.Pixel(32, 32); !near(got, black) {
		t.Errorf("culled object drawn: %+v", got)
	}
}

func TestRenderPaintersOrder(t *testing.T) {
	s := NewScene()
	s.ShadowStrength = 0
	// Added near first; the far one must still end up underneath.
	s.Add(
		NewObject("near", 0, ShapeSquare, mgl32.Vec3{0, 0, 1}, 0.5, NewMaterial("red", red)),
		NewObject("far", 0, ShapeSquare, mgl32.Vec3{0, 0, -2}, 4, NewMaterial("blue", blue)),
	)
	pm := surface.New(64, 64)
	if err := s.Render(context.Background(), testCamera(), pm, black); err != nil {
		t.Fatal(err)
	}
	if got := pm.Pixel(32, 32); !near(got, red) {
		t.Errorf("center = %+v, want near object", got)
	}
}

func TestRenderShadowsOnly(t *testing.T) {
	s := NewScene()
	s.ShadowOffset = mgl32.Vec3{1, -1, 0}
	caster := NewObject("caster", 0, ShapeSquare, mgl32.Vec3{0, 0, 1}, 0.5, NewMaterial("red", red))
	caster.SetShadowMode(host.ShadowsOnly)
	s.Add(caster, NewObject("wall", 0, ShapeSquare, mgl32.Vec3{0, 0, -2}, 6, NewMaterial("white", white)))

	cam := testCamera()
	pm := surface.New(64, 64)
	if err := s.Render(context.Background(), cam, pm, black); err != nil {
		t.Fatal(err)
	}

	if got := pm.Pixel(32, 32); !near(got, white) {
		t.Errorf("caster position = %+v, want unshadowed wall", got)
	}

	fp, ok := project(host.Clone(cam), ShapeSquare, caster.Center.Add(s.ShadowOffset), caster.Size, 64, 64)
	if !ok {
		t.Fatal("project() failed")
	}
	x, ry := int(fp.center.X()), int(fp.center.Y())
	want := surface.RGBA{R: 0.5, G: 0.5, B: 0.5, A: 1}
	if got := pm.Pixel(x, 63-ry); !near(got, want) {
		t.Errorf("shadow = %+v, want %+v", got, want)
	}
}

func TestRenderShadowsOff(t *testing.T) {
	s := NewScene()
	s.ShadowOffset = mgl32.Vec3{}
	caster := NewObject("caster", 0, ShapeSquare, mgl32.Vec3{0, 0, 1}, 0.5, NewMaterial("red", red))
	caster.SetShadowMode(host.ShadowsOff)
	wall := NewObject("wall", 0, ShapeSquare, mgl32.Vec3{0, 0, -2}, 6, NewMaterial("white", white))
	s.Add(caster, wall)

	cam := testCamera()
	pm := surface.New(64, 64)
	if err := s.Render(context.Background(), cam, pm, black); err != nil {
		t.Fatal(err)
	}
	// Well outside the caster, on the wall.
	if got := pm.Pixel(20, 20); !near(got, white) {
		t.Errorf("wall = %+v, want white", got)
	}
}

type unknownMaterial struct{}

func (unknownMaterial) Name() string { return "unknown" }

func TestRenderUnknownMaterial(t *testing.T) {
	s := NewScene()
	s.Add(NewObject("box", 0, ShapeSquare, mgl32.Vec3{}, 1, unknownMaterial{}))
	pm := surface.New(64, 64)
	if err := s.Render(context.Background(), testCamera(), pm, black); err != nil {
		t.Fatal(err)
	}
	if got := pm.Pixel(32, 32); !near(got, missingMaterial) {
		t.Errorf("center = %+v, want %+v", got, missingMaterial)
	}
}

func TestRenderCanceled(t *testing.T) {
	s := NewScene()
	s.Add(NewObject("box", 0, ShapeSquare, mgl32.Vec3{}, 1, NewMaterial("red", red)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Render(ctx, testCamera(), surface.New(8, 8), black)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Render() error = %v, want context.Canceled", err)
	}
}

func TestRenderBehindCamera(t *testing.T) {
	s := NewScene()
	s.Add(NewObject("behind", 0, ShapeSquare, mgl32.Vec3{0, 0, 10}, 4, NewMaterial("red", red)))
	pm := surface.New(16, 16)
	if err := s.Render(context.Background(), testCamera(), pm, black); err != nil {
		t.Fatal(err)
	}
	if n := countColor(pm, red); n != 0 {
		t.Errorf("%d pixels drawn for an object behind the camera", n)
	}
}

func TestObjectWorldToLocal(t *testing.T) {
	o := NewObject("ball", 0, ShapeDisc, mgl32.Vec3{1, 2, 3}, 4, nil)
	p := o.WorldToLocal().Mul4x1(mgl32.Vec4{3, 2, 3, 1})
	if !p.Vec3().ApproxEqual(mgl32.Vec3{0.5, 0, 0}) {
		t.Errorf("WorldToLocal(edge) = %v, want (0.5, 0, 0)", p.Vec3())
	}
}

func TestCameraDefaults(t *testing.T) {
	c := testCamera()
	if c.CullMask() != ^uint32(0) {
		t.Errorf("CullMask() = %#x, want all layers", c.CullMask())
	}
	c.Samples = 0
	if c.MSAASamples() != 1 {
		t.Errorf("MSAASamples() = %d, want 1", c.MSAASamples())
	}
	// The origin projects to the middle of the screen.
	clip := c.Projection().Mul4(c.View()).Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	if math.Abs(float64(clip.X()/clip.W())) > 1e-5 || math.Abs(float64(clip.Y()/clip.W())) > 1e-5 {
		t.Errorf("origin projects to %v", clip)
	}
}

func countColor(pm *surface.Pixmap, c surface.RGBA) int {
	n := 0
	for y := 0; y < pm.Height(); y++ {
		for x := 0; x < pm.Width(); x++ {
			if near(pm.Pixel(x, y), c) {
				n++
			}
		}
	}
	return n
}
