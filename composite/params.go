// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package composite

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/mosaic/chain"
	"github.com/gogpu/mosaic/internal/mathx"
	"github.com/gogpu/mosaic/layout"
	"github.com/gogpu/mosaic/surface"
)

// ErrNoPasses is returned by Build for an unallocated chain.
var ErrNoPasses = errors.New("composite: no passes")

// MaskSizeInner is the sphere mask distance, in mask units, inside which
// the mosaic is fully applied.
const MaskSizeInner = 1

// fadeEpsilon keeps the sphere fade band from collapsing to zero width.
const fadeEpsilon = 1e-4

// Keyword is a shader variant switch.
type Keyword string

// Shader keywords.
const (
	KeywordShowMask       Keyword = "SHOW_MASK"
	KeywordSphereMasking  Keyword = "SPHERE_MASKING"
	KeywordTextureMasking Keyword = "TEXTURE_MASKING"
)

// Parameters is everything the compositing shader reads.
type Parameters struct {
	// MosaicTex is the last pass of the chain, always point sampled.
	MosaicTex    surface.Surface
	MosaicFilter surface.Filter

	// HighResTex is the capture pass. In low resolution mode it is the
	// mosaic itself, so masking and alpha have no visible effect.
	HighResTex surface.Surface

	Alpha float32

	// FullTextureMatrix maps screen UVs into the padded capture.
	FullTextureMatrix mgl32.Mat4

	// MosaicTextureMatrix maps screen UVs into the mosaic texture, undoing
	// the ratio and offset baked in by the first downscale pass.
	MosaicTextureMatrix mgl32.Mat4

	Mask    MaskMode
	MaskTex surface.Surface

	// MaskMatrix maps world positions into mask units, where the sphere
	// surface is at distance 1.
	MaskMatrix     mgl32.Mat4
	MaskSizeInner  float32
	MaskSizeOuter  float32
	MaskSizeFactor float32

	ShowMask      bool
	Premultiplied bool
}

// Keywords returns the enabled shader keywords.
func (p Parameters) Keywords() []Keyword {
	var kw []Keyword
	if p.ShowMask {
		kw = append(kw, KeywordShowMask)
	}
	switch p.Mask {
	case MaskSphere:
		kw = append(kw, KeywordSphereMasking)
	case MaskTexture:
		kw = append(kw, KeywordTextureMasking)
	}
	return kw
}

// Input is the frame state Build turns into Parameters.
type Input struct {
	Passes []chain.Pass
	Layout layout.Layout

	// OffsetUV is the offset applied by the first downscale pass, zero
	// when the chain has none.
	OffsetUV mgl32.Vec2

	Masking  Masking
	MaskFade float32

	Alpha         float32
	ShowMask      bool
	Premultiplied bool
}

// Build computes the compositing parameters for one frame.
func Build(in Input) (Parameters, error) {
	if len(in.Passes) == 0 {
		return Parameters{}, ErrNoPasses
	}

	full := FullTextureMatrix(in.Layout.ScaleX, in.Layout.ScaleY)
	p := Parameters{
		MosaicTex:           in.Passes[len(in.Passes)-1].Surface,
		MosaicFilter:        surface.FilterPoint,
		HighResTex:          in.Passes[0].Surface,
		Alpha:               in.Alpha,
		FullTextureMatrix:   full,
		MosaicTextureMatrix: MosaicTextureMatrix(in.Layout.HRatio, in.Layout.VRatio, in.OffsetUV, full),
		MaskMatrix:          mgl32.Ident4(),
		ShowMask:            in.ShowMask,
		Premultiplied:       in.Premultiplied,
	}

	p.Mask = in.Masking.Active()
	switch p.Mask {
	case MaskTexture:
		p.MaskTex = in.Masking.Texture
	case MaskSphere:
		p.MaskSizeInner, p.MaskSizeOuter, p.MaskSizeFactor = SphereFade(in.MaskFade)
		p.MaskMatrix = SphereMaskMatrix(in.Masking.Sphere.WorldToLocal())
	}
	return p, nil
}

// FullTextureMatrix scales UVs around the center by the inverse render
// scale, so the visible viewport samples the middle of the padded capture.
func FullTextureMatrix(scaleX, scaleY float64) mgl32.Mat4 {
	if scaleX <= 0 {
		scaleX = 1
	}
	if scaleY <= 0 {
		scaleY = 1
	}
	return mathx.ScaleAbout(float32(1/scaleX), float32(1/scaleY))
}

// MosaicTextureMatrix returns Scale(hRatio, vRatio, 0) * Translate(-offsetUV) * full.
func MosaicTextureMatrix(hRatio, vRatio float64, offsetUV mgl32.Vec2, full mgl32.Mat4) mgl32.Mat4 {
	return mgl32.Scale3D(float32(hRatio), float32(vRatio), 0).
		Mul4(mgl32.Translate3D(-offsetUV.X(), -offsetUV.Y(), 0)).
		Mul4(full)
}

// SphereFade converts a fade distance into the inner and outer mask sizes
// and the factor the shader multiplies (distance - outer) by. A fade below
// 1e-4 is widened by 1e-4 so inner and outer never coincide.
func SphereFade(fade float32) (inner, outer, factor float32) {
	inner = MaskSizeInner
	outer = inner + fade
	if fade < fadeEpsilon {
		outer += fadeEpsilon
	}
	return inner, outer, 1 / (inner - outer)
}

// SphereMaskMatrix doubles worldToLocal so a unit-diameter sphere has its
// surface at distance 1.
func SphereMaskMatrix(worldToLocal mgl32.Mat4) mgl32.Mat4 {
	return mgl32.Scale3D(2, 2, 2).Mul4(worldToLocal)
}

// MaskWeight returns how strongly the mosaic applies at world position p
// for sphere masking: 1 inside the sphere, 0 past the fade band.
func (p Parameters) MaskWeight(world mgl32.Vec3) float32 {
	local := p.MaskMatrix.Mul4x1(world.Vec4(1)).Vec3()
	return mathx.Clamp((local.Len()-p.MaskSizeOuter)*p.MaskSizeFactor, 0, 1)
}
