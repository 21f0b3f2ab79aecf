// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

// Package native runs the mosaic passes on the GPU through gogpu/wgpu.
//
// The device borrows the hal.Device and hal.Queue of a host's device
// provider; it never creates its own GPU device. Every surface is a
// Texture, and every pass is one full-screen draw of the shaders embedded
// in this package, submitted and waited on before Draw returns.
//
// Importing the package registers it:
//
//	import _ "github.com/gogpu/mosaic/backend/native"
package native

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/mosaic/backend"
	"github.com/gogpu/mosaic/surface"
	"github.com/gogpu/wgpu/hal"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Native backend errors.
var (
	// ErrNoProvider is returned when no device provider is given.
	ErrNoProvider = errors.New("native: no device provider")

	// ErrNotHAL is returned for a provider that does not expose hal types.
	ErrNotHAL = errors.New("native: provider does not expose HAL device and queue")

	// ErrClosed is returned when using a closed device.
	ErrClosed = errors.New("native: device closed")
)

// defaultWait bounds how long Draw waits for the GPU when the context has
// no deadline.
const defaultWait = 5 * time.Second

// pipelineCacheSize bounds the number of live render pipelines, one per
// program and target format.
const pipelineCacheSize = 16

func init() {
	backend.Register(backend.BackendNative, func(p gpucontext.DeviceProvider) (backend.Device, error) {
		if p == nil {
			return nil, fmt.Errorf("%w: %w", backend.ErrBackendNotAvailable, ErrNoProvider)
		}
		return New(p)
	})
}

// halProvider is implemented by device providers backed by gogpu/wgpu.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// pipelineKey identifies a render pipeline.
type pipelineKey struct {
	program backend.Program
	format  gputypes.TextureFormat
}

// Device is a GPU backend.Device.
//
// Device is NOT safe for concurrent use.
type Device struct {
	device hal.Device
	queue  hal.Queue

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout

	pipelines *lru.Cache[pipelineKey, hal.RenderPipeline]
	samplers  *lru.Cache[surface.Filter, hal.Sampler]

	live   map[*Texture]struct{}
	draws  int
	closed bool
}

var _ backend.Device = (*Device)(nil)

// New creates a device on the provider's hal device and queue.
func New(provider any) (*Device, error) {
	if provider == nil {
		return nil, ErrNoProvider
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNotHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is %T", ErrNotHAL, hp.HalDevice())
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is %T", ErrNotHAL, hp.HalQueue())
	}
	return newDevice(device, queue)
}

func newDevice(device hal.Device, queue hal.Queue) (*Device, error) {
	d := &Device{
		device: device,
		queue:  queue,
		live:   make(map[*Texture]struct{}),
	}

	var err error
	d.pipelines, err = lru.NewWithEvict[pipelineKey, hal.RenderPipeline](pipelineCacheSize, func(k pipelineKey, p hal.RenderPipeline) {
		slogger().Debug("native: release pipeline", "program", k.program.String())
		d.device.DestroyRenderPipeline(p)
	})
	if err != nil {
		return nil, err
	}
	d.samplers, err = lru.NewWithEvict[surface.Filter, hal.Sampler](2, func(_ surface.Filter, s hal.Sampler) {
		d.device.DestroySampler(s)
	})
	if err != nil {
		return nil, err
	}

	if err := d.createShared(); err != nil {
		d.destroyShared()
		return nil, err
	}
	slogger().Info("native: device ready")
	return d, nil
}

// createShared builds the shader module and layouts every pipeline uses.
//
// Bind group layout:
//
//	Binding 0: PassParams (uniform buffer, vertex+fragment)
//	Binding 1: source texture (texture_2d, fragment)
//	Binding 2: sampler (fragment)
func (d *Device) createShared() error {
	shader, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "mosaic_passes_shader",
		Source: hal.ShaderSource{WGSL: passesShaderSource},
	})
	if err != nil {
		return fmt.Errorf("compile passes shader: %w", err)
	}
	d.shader = shader

	bindLayout, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "mosaic_passes_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create passes bind group layout: %w", err)
	}
	d.bindLayout = bindLayout

	pipeLayout, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "mosaic_passes_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{d.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create passes pipeline layout: %w", err)
	}
	d.pipeLayout = pipeLayout
	return nil
}

// destroyShared releases the shared objects in reverse creation order.
func (d *Device) destroyShared() {
	if d.pipeLayout != nil {
		d.device.DestroyPipelineLayout(d.pipeLayout)
		d.pipeLayout = nil
	}
	if d.bindLayout != nil {
		d.device.DestroyBindGroupLayout(d.bindLayout)
		d.bindLayout = nil
	}
	if d.shader != nil {
		d.device.DestroyShaderModule(d.shader)
		d.shader = nil
	}
}

// SetLogger sets the package logger. nil disables logging.
func (d *Device) SetLogger(l *slog.Logger) { setLogger(l) }

// Name returns "native".
func (d *Device) Name() string { return backend.BackendNative }

// Supports reports true for every program with a shader entry point.
func (d *Device) Supports(p backend.Program) bool {
	_, err := entryPoint(p)
	return err == nil
}

// CreateSurface allocates a cleared texture.
func (d *Device) CreateSurface(desc surface.Descriptor) (surface.Surface, error) {
	if d.closed {
		return nil, ErrClosed
	}
	t, err := createTexture(d, desc)
	if err != nil {
		return nil, err
	}
	d.live[t] = struct{}{}
	return t, nil
}

// DestroySurface releases a texture now. Destroying twice is a no-op.
func (d *Device) DestroySurface(s surface.Surface) error {
	t, err := d.owned(s)
	if err != nil {
		return err
	}
	if t.destroyed {
		return nil
	}
	t.release(d.device)
	delete(d.live, t)
	return nil
}

// Discard does nothing: every pass clears its target on load.
func (d *Device) Discard(surface.Surface) {}

// LiveSurfaces returns how many textures are allocated.
func (d *Device) LiveSurfaces() int { return len(d.live) }

// Draws returns how many passes were submitted.
func (d *Device) Draws() int { return d.draws }

// Close releases every texture and cached GPU object. The hal device and
// queue belong to the provider and stay open.
func (d *Device) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	for t := range d.live {
		t.release(d.device)
	}
	clear(d.live)
	d.pipelines.Purge()
	d.samplers.Purge()
	d.destroyShared()
	return nil
}

func (d *Device) owned(s surface.Surface) (*Texture, error) {
	t, ok := s.(*Texture)
	if !ok || t.device != d {
		return nil, fmt.Errorf("%w: %T", backend.ErrForeignSurface, s)
	}
	return t, nil
}

func (d *Device) alive(s surface.Surface) (*Texture, error) {
	t, err := d.owned(s)
	if err != nil {
		return nil, err
	}
	if t.destroyed {
		return nil, fmt.Errorf("%w: %s", backend.ErrDestroyed, t.desc.Label)
	}
	return t, nil
}

// waitTimeout returns how long to wait for the GPU under ctx.
func waitTimeout(ctx context.Context) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		return max(time.Until(dl), 0)
	}
	return defaultWait
}
