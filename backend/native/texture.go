// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/mosaic/surface"
	"github.com/gogpu/wgpu/hal"
)

// depthFormat is used for every capture depth buffer.
const depthFormat = gputypes.TextureFormatDepth24Plus

// Texture is a GPU surface. A multisampled surface renders into an MSAA
// texture that resolves into the sampled one.
type Texture struct {
	desc   surface.Descriptor
	device *Device

	tex  hal.Texture
	view hal.TextureView

	msaaTex  hal.Texture
	msaaView hal.TextureView

	depthTex  hal.Texture
	depthView hal.TextureView

	destroyed bool
}

var _ surface.Surface = (*Texture)(nil)

func (t *Texture) Descriptor() surface.Descriptor { return t.desc }
func (t *Texture) Width() int                     { return t.desc.Width }
func (t *Texture) Height() int                    { return t.desc.Height }

// Raw returns the sampled texture.
func (t *Texture) Raw() hal.Texture { return t.tex }

// View returns the sampled view. Hosts bind it to read the surface.
func (t *Texture) View() hal.TextureView { return t.view }

// ColorAttachment returns the attachment a host renders the capture with.
// For multisampled surfaces it resolves into View.
func (t *Texture) ColorAttachment(load gputypes.LoadOp, clear gputypes.Color) hal.RenderPassColorAttachment {
	a := hal.RenderPassColorAttachment{
		View:       t.view,
		LoadOp:     load,
		StoreOp:    gputypes.StoreOpStore,
		ClearValue: clear,
	}
	if t.msaaView != nil {
		a.View = t.msaaView
		a.ResolveTarget = t.view
	}
	return a
}

// DepthView returns the depth view, nil when the surface has no depth.
func (t *Texture) DepthView() hal.TextureView { return t.depthView }

// Destroyed reports whether the texture was released.
func (t *Texture) Destroyed() bool { return t.destroyed }

// createTexture allocates the textures for desc. On error everything
// already created is released.
func createTexture(d *Device, desc surface.Descriptor) (_ *Texture, err error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	t := &Texture{desc: desc, device: d}
	defer func() {
		if err != nil {
			t.release(d.device)
		}
	}()

	size := hal.Extent3D{
		Width:              uint32(desc.Width),  //nolint:gosec // validated positive
		Height:             uint32(desc.Height), //nolint:gosec // validated positive
		DepthOrArrayLayers: 1,
	}
	format := desc.Format.GPUFormat()
	samples := uint32(desc.SampleCount()) //nolint:gosec // 1, 2, 4 or 8

	t.tex, t.view, err = newTexture(d.device, desc.Label, size, 1, format,
		gputypes.TextureUsageRenderAttachment|gputypes.TextureUsageTextureBinding|
			gputypes.TextureUsageCopySrc|gputypes.TextureUsageCopyDst)
	if err != nil {
		return nil, err
	}

	if samples > 1 {
		t.msaaTex, t.msaaView, err = newTexture(d.device, desc.Label+".msaa", size, samples, format,
			gputypes.TextureUsageRenderAttachment)
		if err != nil {
			return nil, err
		}
	}

	if desc.DepthBits > 0 {
		t.depthTex, t.depthView, err = newTexture(d.device, desc.Label+".depth", size, samples, depthFormat,
			gputypes.TextureUsageRenderAttachment)
		if err != nil {
			return nil, err
		}
	}
	return t, nil
}

func newTexture(device hal.Device, label string, size hal.Extent3D, samples uint32, format gputypes.TextureFormat, usage gputypes.TextureUsage) (hal.Texture, hal.TextureView, error) {
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   samples,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create texture %s: %w", label, err)
	}
	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         label + ".view",
		Format:        format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		device.DestroyTexture(tex)
		return nil, nil, fmt.Errorf("create texture view %s: %w", label, err)
	}
	return tex, view, nil
}

// release destroys views before their textures, depth and MSAA first.
func (t *Texture) release(device hal.Device) {
	pairs := []struct {
		view *hal.TextureView
		tex  *hal.Texture
	}{
		{&t.depthView, &t.depthTex},
		{&t.msaaView, &t.msaaTex},
		{&t.view, &t.tex},
	}
	for _, p := range pairs {
		if *p.view != nil {
			device.DestroyTextureView(*p.view)
			*p.view = nil
		}
		if *p.tex != nil {
			device.DestroyTexture(*p.tex)
			*p.tex = nil
		}
	}
	t.destroyed = true
}
