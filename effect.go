// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package mosaic

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/mosaic/anchor"
	"github.com/gogpu/mosaic/backend"
	"github.com/gogpu/mosaic/chain"
	"github.com/gogpu/mosaic/composite"
	"github.com/gogpu/mosaic/host"
	"github.com/gogpu/mosaic/layout"
	"github.com/gogpu/mosaic/pipeline"
	"github.com/gogpu/mosaic/surface"
)

// Effect mosaics one render layer of one camera.
//
// The host calls BeginFrame before rendering the camera and EndFrame after.
// Between the two, every renderer on the layer carries the compositing
// material, whose parameters point at this frame's passes.
//
// Effect is NOT safe for concurrent use.
type Effect struct {
	cfg      Config
	dev      backend.Device
	host     host.Host
	registry *Registry

	chain    *chain.Chain
	pipe     *pipeline.Pipeline
	aligner  anchor.Aligner
	material *composite.Material

	layout  layout.Layout
	view    anchor.View
	hasView bool

	camera     host.Camera
	registered bool
	key        registryKey

	inFrame bool
	saved   *composite.SavedState
	params  composite.Parameters

	fatal      error
	reportOnce sync.Once
	closed     bool
}

// New creates a disabled effect drawing with dev and capturing through h.
// reg may be nil when conflict detection is not needed.
//
// A configuration the device cannot run is fatal: it is logged once and
// returned, and no effect is created.
func New(dev backend.Device, h host.Host, reg *Registry, opts ...Option) (*Effect, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	e := &Effect{cfg: cfg, dev: dev, host: h, registry: reg}
	if e.registry == nil {
		e.registry = NewRegistry()
	}

	var err error
	switch {
	case dev == nil:
		err = ErrNoDevice
	case h == nil:
		err = ErrNoHost
	default:
		err = e.check(cfg)
	}
	if err != nil {
		e.fail(err)
		return nil, err
	}

	trackDevice(dev)
	e.chain = chain.New(dev, componentLogger())
	e.pipe = pipeline.New(dev, componentLogger())
	e.material = composite.NewMaterial()
	Logger().Info("mosaic: effect created", "backend", dev.Name(), "layer", cfg.Layer)
	return e, nil
}

// check validates cfg against the device.
func (e *Effect) check(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	for _, p := range cfg.programs() {
		if !e.dev.Supports(p) {
			return fmt.Errorf("mosaic: backend %s: %w: %v", e.dev.Name(), backend.ErrUnsupportedProgram, p)
		}
	}
	return nil
}

// fail disables the effect for good and reports err once.
func (e *Effect) fail(err error) {
	if e.fatal == nil {
		e.fatal = err
	}
	e.reportOnce.Do(func() {
		Logger().Error("mosaic: effect disabled", "err", err)
	})
	e.unregister()
	if e.chain != nil {
		if rerr := e.chain.Release(); rerr != nil {
			Logger().Warn("mosaic: release after fatal error", "err", rerr)
		}
	}
}

// Err returns the fatal error that disabled the effect, if any.
func (e *Effect) Err() error { return e.fatal }

// Config returns the current configuration.
func (e *Effect) Config() Config { return e.cfg }

// Enabled reports whether the effect runs on frames.
func (e *Effect) Enabled() bool { return e.camera != nil && e.usable() }

func (e *Effect) usable() bool { return !e.closed && e.fatal == nil }

// Enable attaches the effect to cam. If another enabled effect in the same
// registry targets the same layer and camera, a warning is logged.
func (e *Effect) Enable(cam host.Camera) error {
	if !e.usable() {
		return ErrDisabled
	}
	if cam == nil {
		return ErrNoCamera
	}
	e.unregister()
	e.camera = cam
	e.register()
	return nil
}

// Disable detaches the effect from its camera. An unfinished frame is
// ended first. The surfaces stay allocated until Close.
func (e *Effect) Disable() {
	e.EndFrame()
	e.unregister()
	e.camera = nil
}

func (e *Effect) register() {
	e.key = registryKey{layer: e.cfg.Layer, camera: e.camera.ID()}
	e.registry.register(e, e.key)
	e.registered = true
}

func (e *Effect) unregister() {
	if e.registered {
		e.registry.unregister(e, e.key)
		e.registered = false
	}
}

// Update changes the configuration between frames. An invalid or
// unsupported configuration is rejected and the old one kept.
func (e *Effect) Update(fn func(*Config)) error {
	if !e.usable() {
		return ErrDisabled
	}
	if e.inFrame {
		return ErrFrameInProgress
	}
	cfg := e.cfg
	fn(&cfg)
	if err := e.check(cfg); err != nil {
		return err
	}
	layerChanged := cfg.Layer != e.cfg.Layer
	e.cfg = cfg
	if layerChanged && e.registered {
		e.unregister()
		e.register()
	}
	return nil
}

// BeginFrame renders the mosaic for cam and swaps the compositing material
// onto the layer. A nil cam uses the enabled camera. A zero-sized viewport
// skips the frame.
//
// If the previous frame was never ended it is ended here, with a warning.
func (e *Effect) BeginFrame(ctx context.Context, cam host.Camera) error {
	if !e.usable() || e.camera == nil {
		return ErrDisabled
	}
	if cam == nil {
		cam = e.camera
	}
	if e.inFrame {
		Logger().Warn("mosaic: BeginFrame without EndFrame", "err", ErrFrameInProgress)
		e.EndFrame()
	}

	width, height := cam.PixelWidth(), cam.PixelHeight()
	if width <= 0 || height <= 0 {
		return nil
	}
	cfg := e.cfg
	anchorPos, hasAnchor := e.anchorPosition()

	// Without following, only the changes made below count, not the
	// anchor's own motion since the last frame.
	if !cfg.FollowAnchor && hasAnchor && e.hasView {
		e.aligner.Checkpoint(anchorPos, e.view)
	}

	req := layout.Request{
		Width:          width,
		Height:         height,
		Blocks:         cfg.Blocks,
		RenderScale:    cfg.RenderScale,
		HighResolution: cfg.HighResolution,
	}
	if cfg.ScaleToAnchorDistance && hasAnchor {
		req.ScaleToAnchor = true
		req.AnchorDistance = float64(cam.Position().Sub(anchorPos).Len())
	}
	l, err := layout.Resolve(req)
	if errors.Is(err, layout.ErrEmptyViewport) {
		return nil
	}
	if err != nil {
		return err
	}

	format := surface.FormatRGBA8
	if cam.AllowHDR() {
		format = surface.FormatRGBA16F
	}
	aa := cfg.Antialiasing
	if aa == 0 {
		aa = cam.MSAASamples()
	}
	passes, changed, err := e.chain.EnsureAllocated(l, chain.Options{
		ExpandPasses:      cfg.ExpandPasses,
		Antialiasing:      aa,
		Premultiply:       cfg.Premultiply,
		Format:            format,
		MaxDownscaleRatio: cfg.MaxDownscaleRatio,
	})
	if err != nil {
		err = fmt.Errorf("mosaic: allocate passes: %w", err)
		e.fail(err)
		return err
	}
	if changed {
		Logger().Debug("mosaic: passes allocated", "layout", l.String(), "passes", len(passes))
	}
	e.layout = l

	state := pipeline.CaptureCamera(cam, l)
	bw, bh := l.BlockSize()
	view := anchor.View{
		ViewProj:  state.ViewProj(),
		Width:     float32(l.CaptureWidth),
		Height:    float32(l.CaptureHeight),
		BlockSize: mgl32.Vec2{float32(bw), float32(bh)},
	}

	err = e.pipe.Capture(ctx, e.host, pipeline.CaptureRequest{
		Camera:              state,
		Layer:               cfg.Layer,
		ShadowsCastOnMosaic: cfg.ShadowsCastOnMosaic,
	}, passes)
	if err != nil {
		e.pipe.Discard()
		return err
	}

	if (cfg.FollowAnchor || cfg.ScaleToAnchorDistance) && hasAnchor {
		e.aligner.Update(anchorPos, view)
	}
	if hasAnchor {
		e.aligner.Checkpoint(anchorPos, view)
	}
	e.view, e.hasView = view, true

	// The offset is baked in by the first downscale pass; without one the
	// composite must not undo it.
	var offsetUV mgl32.Vec2
	if slices.ContainsFunc(passes, func(p chain.Pass) bool { return p.Role == chain.RoleDownscale }) {
		offsetUV = e.aligner.OffsetUV(view)
	}

	err = e.pipe.Process(ctx, passes, pipeline.Frame{
		Layout:   l,
		OffsetUV: offsetUV,
		Bilinear: cfg.BilinearOptimization,
	})
	if err != nil {
		e.pipe.Discard()
		return err
	}

	params, err := composite.Build(composite.Input{
		Passes:        passes,
		Layout:        l,
		OffsetUV:      offsetUV,
		Masking:       cfg.Masking,
		MaskFade:      cfg.MaskFade,
		Alpha:         cfg.Alpha,
		ShowMask:      cfg.ShowMask,
		Premultiplied: cfg.Premultiply,
	})
	if err != nil {
		e.pipe.Discard()
		return err
	}
	e.params = params
	e.material.SetParameters(params)
	e.saved = composite.Apply(host.OnLayer(e.host, cfg.Layer), e.material)
	e.inFrame = true
	return nil
}

// EndFrame restores the layer's materials and discards the pass contents.
// Calling it outside a frame does nothing.
func (e *Effect) EndFrame() {
	if !e.inFrame {
		return
	}
	e.saved.Restore()
	e.saved = nil
	e.chain.Discard()
	e.pipe.Discard()
	e.inFrame = false
}

// Close ends any frame, disables the effect and releases its surfaces.
// The device is not closed.
func (e *Effect) Close() error {
	if e.closed {
		return nil
	}
	e.Disable()
	e.closed = true
	untrackDevice(e.dev)
	return e.chain.Close()
}

func (e *Effect) anchorPosition() (mgl32.Vec3, bool) {
	if e.cfg.Anchor == nil {
		return mgl32.Vec3{}, false
	}
	return e.cfg.Anchor.Position(), true
}

// ResetAnchorAlignment records the anchor's current grid position, so
// moving the anchor before the next frame does not shift the mosaic.
// Distance scaling still applies.
func (e *Effect) ResetAnchorAlignment() {
	if pos, ok := e.anchorPosition(); ok && e.hasView {
		e.aligner.Checkpoint(pos, e.view)
	}
}

// Offset returns the mosaic offset in blocks, in [-0.5, 0.5).
func (e *Effect) Offset() mgl32.Vec2 { return e.aligner.Offset() }

// Layout returns the layout of the last frame.
func (e *Effect) Layout() layout.Layout { return e.layout }

// Passes returns the allocated passes, capture first. The surfaces hold
// frame contents only between BeginFrame and EndFrame.
func (e *Effect) Passes() []chain.Pass {
	if e.chain == nil {
		return nil
	}
	return e.chain.Passes()
}

// Parameters returns the compositing parameters of the current frame.
func (e *Effect) Parameters() (composite.Parameters, error) {
	if !e.inFrame {
		return composite.Parameters{}, ErrNoFrame
	}
	return e.params, nil
}

// Material returns the material swapped onto the layer during frames.
func (e *Effect) Material() *composite.Material { return e.material }

// Allocations returns how many times the passes were (re)allocated.
func (e *Effect) Allocations() int { return e.chain.Allocations() }
