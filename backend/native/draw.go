// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import (
	"context"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/mosaic/backend"
	"github.com/gogpu/mosaic/surface"
	"github.com/gogpu/wgpu/hal"
)

// pipeline returns the cached pipeline for p rendering into format.
func (d *Device) pipeline(p backend.Program, format gputypes.TextureFormat) (hal.RenderPipeline, error) {
	key := pipelineKey{program: p, format: format}
	if cached, ok := d.pipelines.Get(key); ok {
		return cached, nil
	}
	entry, err := entryPoint(p)
	if err != nil {
		return nil, err
	}

	pipeline, err := d.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "mosaic_" + p.String(),
		Layout: d.pipeLayout,
		Vertex: hal.VertexState{
			Module:     d.shader,
			EntryPoint: "vs_main",
		},
		Fragment: &hal.FragmentState{
			Module:     d.shader,
			EntryPoint: entry,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    format,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create %s pipeline: %w", p, err)
	}
	d.pipelines.Add(key, pipeline)
	slogger().Debug("native: pipeline created", "program", p.String(), "format", format)
	return pipeline, nil
}

// sampler returns the cached clamp-to-edge sampler for f.
func (d *Device) sampler(f surface.Filter) (hal.Sampler, error) {
	if cached, ok := d.samplers.Get(f); ok {
		return cached, nil
	}
	mode := gputypes.FilterModeLinear
	if f == surface.FilterPoint {
		mode = gputypes.FilterModeNearest
	}
	s, err := d.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "mosaic_sampler_" + f.String(),
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    mode,
		MinFilter:    mode,
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		return nil, fmt.Errorf("create sampler: %w", err)
	}
	d.samplers.Add(f, s)
	return s, nil
}

// Draw renders src into dst with one full-screen quad and waits for the
// GPU to finish.
func (d *Device) Draw(ctx context.Context, dst, src surface.Surface, p backend.DrawParams) error {
	if d.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	to, err := d.alive(dst)
	if err != nil {
		return err
	}
	from, err := d.alive(src)
	if err != nil {
		return err
	}
	pipeline, err := d.pipeline(p.Program, to.desc.Format.GPUFormat())
	if err != nil {
		return err
	}
	sampler, err := d.sampler(p.Filter)
	if err != nil {
		return err
	}

	uniforms := packPass(p)
	ub, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "mosaic_pass_uniforms",
		Size:  uint64(len(uniforms)),
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create uniform buffer: %w", err)
	}
	defer d.device.DestroyBuffer(ub)
	d.queue.WriteBuffer(ub, 0, uniforms)

	bindGroup, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "mosaic_pass_bind_group",
		Layout: d.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: ub.NativeHandle(), Offset: 0, Size: uint64(len(uniforms))}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{TextureView: from.view.NativeHandle()}},
			{Binding: 2, Resource: gputypes.SamplerBinding{Sampler: sampler.NativeHandle()}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}
	defer d.device.DestroyBindGroup(bindGroup)

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "mosaic_pass_encoder",
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(p.Program.String()); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "mosaic_" + p.Program.String(),
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       to.view,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 0},
			},
		},
	})
	rp.SetPipeline(pipeline)
	rp.SetBindGroup(0, bindGroup, nil)
	rp.Draw(6, 1, 0, 0)
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	if err := d.submit(ctx, cmdBuf); err != nil {
		return err
	}
	d.draws++
	return nil
}

// submit sends cmdBuf and blocks until the GPU signals completion.
func (d *Device) submit(ctx context.Context, cmdBuf hal.CommandBuffer) error {
	fence, err := d.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer d.device.DestroyFence(fence)

	if err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	ok, err := d.device.Wait(fence, 1, waitTimeout(ctx))
	if err != nil || !ok {
		return fmt.Errorf("wait for GPU: ok=%v err=%w", ok, err)
	}
	return nil
}

// rowPitch returns the bytes per row of a w pixel wide RGBA8 copy,
// aligned to 256 bytes as texture copies require.
func rowPitch(w int) uint32 {
	const align = 256
	return uint32((w*4 + align - 1) / align * align) //nolint:gosec // w is a validated texture width
}

// ReadPixels copies an RGBA8 surface back into a new pixmap.
func (d *Device) ReadPixels(ctx context.Context, s surface.Surface) (*surface.Pixmap, error) {
	t, err := d.alive(s)
	if err != nil {
		return nil, err
	}
	if t.desc.Format != surface.FormatRGBA8 {
		return nil, fmt.Errorf("native: read back %s surface: unsupported format", t.desc.Format)
	}
	w, h := t.desc.Width, t.desc.Height
	w32, h32 := uint32(w), uint32(h) //nolint:gosec // validated positive
	pitch := rowPitch(w)
	size := uint64(pitch) * uint64(h32)

	staging, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "mosaic_readback",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	defer d.device.DestroyBuffer(staging)

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "mosaic_readback_encoder"})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("mosaic_readback"); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(t.tex, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: pitch, RowsPerImage: h32},
		TextureBase:  hal.ImageCopyTexture{Texture: t.tex, MipLevel: 0},
		Size:         hal.Extent3D{Width: w32, Height: h32, DepthOrArrayLayers: 1},
	}})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	if err := d.submit(ctx, cmdBuf); err != nil {
		return nil, err
	}
	data := make([]byte, size)
	if err := d.queue.ReadBuffer(staging, 0, data); err != nil {
		return nil, fmt.Errorf("readback: %w", err)
	}
	return unpackRGBA8(data, w, h, int(pitch)), nil
}

// unpackRGBA8 converts top-down RGBA8 rows into a bottom-up pixmap.
func unpackRGBA8(data []byte, w, h, pitch int) *surface.Pixmap {
	pm := surface.New(w, h)
	for row := 0; row < h; row++ {
		line := data[row*pitch:]
		y := h - 1 - row
		for x := 0; x < w; x++ {
			i := x * 4
			pm.SetPixel(x, y, surface.RGBA{
				R: float32(line[i]) / 255,
				G: float32(line[i+1]) / 255,
				B: float32(line[i+2]) / 255,
				A: float32(line[i+3]) / 255,
			})
		}
	}
	return pm
}

// packRGBA8 converts a bottom-up pixmap into top-down RGBA8 rows.
func packRGBA8(pm *surface.Pixmap) []byte {
	w, h := pm.Width(), pm.Height()
	out := make([]byte, w*h*4)
	for row := 0; row < h; row++ {
		y := h - 1 - row
		for x := 0; x < w; x++ {
			c := pm.Pixel(x, y)
			i := (row*w + x) * 4
			out[i] = toByte(c.R)
			out[i+1] = toByte(c.G)
			out[i+2] = toByte(c.B)
			out[i+3] = toByte(c.A)
		}
	}
	return out
}

func toByte(v float32) byte {
	return byte(min(max(v, 0), 1)*255 + 0.5)
}

// Upload writes pm into an RGBA8 surface of the same size. Hosts use it
// for mask textures.
func (d *Device) Upload(s surface.Surface, pm *surface.Pixmap) error {
	t, err := d.alive(s)
	if err != nil {
		return err
	}
	if t.desc.Format != surface.FormatRGBA8 {
		return fmt.Errorf("native: upload to %s surface: unsupported format", t.desc.Format)
	}
	if pm.Width() != t.desc.Width || pm.Height() != t.desc.Height {
		return fmt.Errorf("%w: upload %dx%d into %dx%d", surface.ErrInvalidSize, pm.Width(), pm.Height(), t.desc.Width, t.desc.Height)
	}
	w, h := uint32(pm.Width()), uint32(pm.Height()) //nolint:gosec // matched a validated texture
	d.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: t.tex, MipLevel: 0},
		packRGBA8(pm),
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: w * 4, RowsPerImage: h},
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)
	return nil
}
