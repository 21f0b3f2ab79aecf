// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package filter

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/mosaic/chain"
	"github.com/gogpu/mosaic/composite"
	"github.com/gogpu/mosaic/layout"
	"github.com/gogpu/mosaic/surface"
)

var (
	blue = surface.RGBA{B: 1, A: 1}
	red  = surface.RGBA{R: 1, A: 1}
)

type originTransform struct{}

func (originTransform) Position() mgl32.Vec3      { return mgl32.Vec3{} }
func (originTransform) WorldToLocal() mgl32.Mat4 { return mgl32.Ident4() }

func shadeParams(t *testing.T, m composite.Masking, alpha float32, showMask bool) composite.Parameters {
	t.Helper()
	p, err := composite.Build(composite.Input{
		Passes: []chain.Pass{
			{Role: chain.RoleCapture, Surface: createTestPixmap(8, 8, blue)},
			{Role: chain.RoleExpand, Surface: createTestPixmap(2, 2, red)},
		},
		Layout:   layout.Layout{ScaleX: 1, ScaleY: 1, HRatio: 1, VRatio: 1},
		Masking:  m,
		MaskFade: 0,
		Alpha:    alpha,
		ShowMask: showMask,
	})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestShadeAlpha(t *testing.T) {
	tests := []struct {
		alpha float32
		want  surface.RGBA
	}{
		{1, red},
		{0, blue},
		{0.5, surface.RGBA{R: 0.5, B: 0.5, A: 1}},
	}
	for _, tt := range tests {
		p := shadeParams(t, composite.NoMask(), tt.alpha, false)
		got := Shade(&p, mgl32.Vec2{0.3, 0.6}, mgl32.Vec3{})
		if !colorApproxEqual(got, tt.want, 1e-5) {
			t.Errorf("alpha %v: Shade = %+v, want %+v", tt.alpha, got, tt.want)
		}
	}
}

func TestShadeSphereMask(t *testing.T) {
	p := shadeParams(t, composite.SphereMask(originTransform{}), 1, false)
	if got := Shade(&p, mgl32.Vec2{0.5, 0.5}, mgl32.Vec3{0.1, 0, 0}); !colorApproxEqual(got, red, 1e-5) {
		t.Errorf("inside sphere = %+v, want mosaic", got)
	}
	if got := Shade(&p, mgl32.Vec2{0.5, 0.5}, mgl32.Vec3{3, 0, 0}); !colorApproxEqual(got, blue, 1e-5) {
		t.Errorf("outside sphere = %+v, want sharp image", got)
	}
}

func TestShadeTextureMask(t *testing.T) {
	mask := createTestPixmap(4, 4, surface.RGBA{R: 0.25, A: 1})
	p := shadeParams(t, composite.TextureMask(mask), 1, false)
	want := blue.Lerp(red, 0.25)
	if got := Shade(&p, mgl32.Vec2{0.5, 0.5}, mgl32.Vec3{}); !colorApproxEqual(got, want, 1e-5) {
		t.Errorf("Shade = %+v, want %+v", got, want)
	}
}

func TestShadeShowMask(t *testing.T) {
	mask := createTestPixmap(4, 4, surface.RGBA{R: 0.25, A: 1})
	p := shadeParams(t, composite.TextureMask(mask), 1, true)
	want := surface.RGBA{R: 0.25, G: 0.25, B: 0.25, A: 1}
	if got := Shade(&p, mgl32.Vec2{0.5, 0.5}, mgl32.Vec3{}); !colorApproxEqual(got, want, 1e-5) {
		t.Errorf("Shade = %+v, want grey mask %+v", got, want)
	}
}

func TestShadeMosaicIsPointSampled(t *testing.T) {
	p := shadeParams(t, composite.NoMask(), 1, false)
	mosaic := p.MosaicTex.(*surface.Pixmap)
	mosaic.SetPixel(0, 0, blue)

	// Just left of the block edge at u = 0.5 still reads block 0.
	if got := Shade(&p, mgl32.Vec2{0.49, 0.1}, mgl32.Vec3{}); !colorApproxEqual(got, blue, 1e-5) {
		t.Errorf("block 0 = %+v, want blue", got)
	}
	if got := Shade(&p, mgl32.Vec2{0.51, 0.1}, mgl32.Vec3{}); !colorApproxEqual(got, red, 1e-5) {
		t.Errorf("block 1 = %+v, want red", got)
	}
}
