// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package mosaic

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/mosaic/backend"
	"github.com/gogpu/mosaic/chain"
	"github.com/gogpu/mosaic/composite"
	"github.com/gogpu/mosaic/host"
	"github.com/gogpu/mosaic/host/sim"
	"github.com/gogpu/mosaic/surface"
)

func TestNewErrors(t *testing.T) {
	w := newTestWorld()
	if fx, err := New(nil, w.scene, nil); !errors.Is(err, ErrNoDevice) || fx != nil {
		t.Errorf("New(nil device) = %v, %v", fx, err)
	}
	if fx, err := New(newTestDevice(), nil, nil); !errors.Is(err, ErrNoHost) || fx != nil {
		t.Errorf("New(nil host) = %v, %v", fx, err)
	}
	var ce *ConfigError
	if _, err := New(newTestDevice(), w.scene, nil, WithBlocks(-1)); !errors.As(err, &ce) {
		t.Errorf("New(blocks -1) error = %v, want *ConfigError", err)
	}
}

func TestEffectRequiresCamera(t *testing.T) {
	w := newTestWorld()
	fx, err := New(newTestDevice(), w.scene, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer fx.Close()

	if err := fx.BeginFrame(context.Background(), w.camera); !errors.Is(err, ErrDisabled) {
		t.Errorf("BeginFrame() before Enable = %v, want ErrDisabled", err)
	}
	if err := fx.Enable(nil); !errors.Is(err, ErrNoCamera) {
		t.Errorf("Enable(nil) = %v, want ErrNoCamera", err)
	}
}

func TestEffectSwapsAndRestoresMaterials(t *testing.T) {
	w := newTestWorld()
	fx := newTestEffect(t, w, newTestDevice())
	wallMat := w.wall.Materials()[0]

	if err := fx.BeginFrame(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if got := w.ball.Materials()[0]; got != fx.Material() {
		t.Errorf("layer material during frame = %v, want the composite material", got.Name())
	}
	if got := w.wall.Materials()[0]; got != wallMat {
		t.Errorf("other layer material changed to %v", got.Name())
	}
	if _, err := fx.Parameters(); err != nil {
		t.Errorf("Parameters() during frame = %v", err)
	}

	fx.EndFrame()
	if got := w.ball.Materials()[0]; got != w.redMat {
		t.Errorf("layer material after frame = %v, want red", got.Name())
	}
	if _, err := fx.Parameters(); !errors.Is(err, ErrNoFrame) {
		t.Errorf("Parameters() after frame = %v, want ErrNoFrame", err)
	}
	// A second EndFrame is a no-op.
	fx.EndFrame()
	if got := w.ball.Materials()[0]; got != w.redMat {
		t.Errorf("material after second EndFrame = %v", got.Name())
	}
}

func TestEffectCapturesOnlyTheLayer(t *testing.T) {
	w := newTestWorld()
	dev := newTestDevice()
	fx := newTestEffect(t, w, dev, WithShadowsCastOnMosaic(true))

	if err := fx.BeginFrame(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	capture := fx.Passes()[0].Surface.(*surface.Pixmap)
	var reds, blues int
	for y := 0; y < capture.Height(); y++ {
		for x := 0; x < capture.Width(); x++ {
			c := capture.Pixel(x, y)
			if c.B > 0 {
				blues++
			}
			if approxEqual(c, red) {
				reds++
			}
		}
	}
	if blues != 0 {
		t.Errorf("capture holds %d pixels of another layer", blues)
	}
	if reds == 0 {
		t.Error("capture holds no pixels of the layer")
	}
	fx.EndFrame()

	if w.wall.ShadowMode() != host.ShadowsOn {
		t.Errorf("wall shadow mode = %v after frame, want restored", w.wall.ShadowMode())
	}
}

// TestEffectOutputIsBlocky renders the main camera during a frame and
// checks that every fully covered pixel of the layer shows a mosaic texel
// blended over what lies behind the layer.
func TestEffectOutputIsBlocky(t *testing.T) {
	w := newTestWorld()
	w.scene.ShadowStrength = 0
	fx := newTestEffect(t, w, newTestDevice())
	ctx := context.Background()

	sharp := surface.New(64, 64)
	if err := w.scene.Render(ctx, w.camera, sharp, black); err != nil {
		t.Fatal(err)
	}
	behind := surface.New(64, 64)
	w.camera.Mask = ^uint32(1 << testLayer)
	if err := w.scene.Render(ctx, w.camera, behind, black); err != nil {
		t.Fatal(err)
	}
	w.camera.Mask = 0

	if err := fx.BeginFrame(ctx, nil); err != nil {
		t.Fatal(err)
	}
	out := surface.New(64, 64)
	if err := w.scene.Render(ctx, w.camera, out, black); err != nil {
		t.Fatal(err)
	}
	params, err := fx.Parameters()
	if err != nil {
		t.Fatal(err)
	}

	// The mosaic texture belongs to the frame; copy it before EndFrame
	// returns the surfaces.
	l := fx.Layout()
	tex := params.MosaicTex.(*surface.Pixmap)
	if tex.Width() != l.Columns || tex.Height() != l.Rows {
		t.Fatalf("mosaic texture %dx%d, want %dx%d", tex.Width(), tex.Height(), l.Columns, l.Rows)
	}
	var texels []surface.RGBA
	for y := 0; y < tex.Height(); y++ {
		for x := 0; x < tex.Width(); x++ {
			texels = append(texels, tex.Pixel(x, y))
		}
	}
	fx.EndFrame()

	covered, notRed := 0, 0
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if !approxEqual(sharp.Pixel(x, y), red) {
				continue
			}
			covered++
			bg := behind.Pixel(x, y)
			got := out.Pixel(x, y)
			match := func(c surface.RGBA) bool { return approxEqual(blendOpaque(c, bg), got) }
			if !slices.ContainsFunc(texels, match) {
				t.Fatalf("pixel (%d, %d) = %+v is not a mosaic texel over %+v", x, y, got, bg)
			}
			if !approxEqual(got, red) {
				notRed++
			}
		}
	}
	if covered == 0 {
		t.Fatal("layer object not visible")
	}
	if notRed == 0 {
		t.Error("no edge block was averaged")
	}
}

func TestEffectLowResolution(t *testing.T) {
	w := newTestWorld()
	fx := newTestEffect(t, w, newTestDevice(), WithHighResolution(false))

	if err := fx.BeginFrame(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	defer fx.EndFrame()

	l := fx.Layout()
	passes := fx.Passes()
	if slices.ContainsFunc(passes, func(p chain.Pass) bool { return p.Role == chain.RoleDownscale }) {
		t.Error("low resolution chain has a downscale pass")
	}
	if passes[0].Width() != l.Columns || passes[0].Height() != l.Rows {
		t.Errorf("capture %dx%d, want %dx%d", passes[0].Width(), passes[0].Height(), l.Columns, l.Rows)
	}

	p, _ := fx.Parameters()
	full := composite.FullTextureMatrix(l.ScaleX, l.ScaleY)
	want := composite.MosaicTextureMatrix(l.HRatio, l.VRatio, mgl32.Vec2{}, full)
	if !p.MosaicTextureMatrix.ApproxEqual(want) {
		t.Errorf("MosaicTextureMatrix = %v, want no offset %v", p.MosaicTextureMatrix, want)
	}
}

func TestEffectZeroViewportSkipsFrame(t *testing.T) {
	w := newTestWorld()
	fx := newTestEffect(t, w, newTestDevice())
	w.camera.Width = 0

	if err := fx.BeginFrame(context.Background(), nil); err != nil {
		t.Fatalf("BeginFrame() = %v, want nil", err)
	}
	if fx.Allocations() != 0 {
		t.Errorf("Allocations() = %d, want 0", fx.Allocations())
	}
	if w.ball.Materials()[0] != w.redMat {
		t.Error("material swapped on a skipped frame")
	}
	if _, err := fx.Parameters(); !errors.Is(err, ErrNoFrame) {
		t.Errorf("Parameters() = %v, want ErrNoFrame", err)
	}
	fx.EndFrame()
}

func TestEffectReusesSurfaces(t *testing.T) {
	w := newTestWorld()
	dev := newTestDevice()
	fx := newTestEffect(t, w, dev)

	for range 3 {
		frame(t, fx)
	}
	if fx.Allocations() != 1 {
		t.Errorf("Allocations() = %d after identical frames, want 1", fx.Allocations())
	}
	live := dev.LiveSurfaces()

	if err := fx.Update(func(c *Config) { c.Blocks = 12 }); err != nil {
		t.Fatal(err)
	}
	frame(t, fx)
	if fx.Allocations() != 2 {
		t.Errorf("Allocations() = %d after block change, want 2", fx.Allocations())
	}
	if got := dev.LiveSurfaces(); got != live {
		t.Errorf("LiveSurfaces() = %d after reallocation, want %d", got, live)
	}

	w.camera.Width = 80
	frame(t, fx)
	if fx.Allocations() != 3 {
		t.Errorf("Allocations() = %d after resize, want 3", fx.Allocations())
	}
}

func TestEffectOverlappingBeginFrame(t *testing.T) {
	logs := captureLogs(t)
	w := newTestWorld()
	fx := newTestEffect(t, w, newTestDevice())
	ctx := context.Background()

	if err := fx.BeginFrame(ctx, nil); err != nil {
		t.Fatal(err)
	}
	if err := fx.BeginFrame(ctx, nil); err != nil {
		t.Fatalf("second BeginFrame() = %v", err)
	}
	if n := logs.count(slog.LevelWarn, "BeginFrame without EndFrame"); n != 1 {
		t.Errorf("warned %d times, want 1", n)
	}
	fx.EndFrame()
	if got := w.ball.Materials()[0]; got != w.redMat {
		t.Errorf("material after overlapping frames = %v, want red", got.Name())
	}
}

func TestEffectUnsupportedProgramIsFatal(t *testing.T) {
	logs := captureLogs(t)
	dev := newTestDevice()
	dev.unsupported = map[backend.Program]bool{backend.ProgramExpandEdges: true}

	fx, err := New(dev, newTestWorld().scene, nil)
	if !errors.Is(err, backend.ErrUnsupportedProgram) {
		t.Fatalf("New() error = %v, want ErrUnsupportedProgram", err)
	}
	if fx != nil {
		t.Error("New() returned an effect on fatal error")
	}
	if n := logs.count(slog.LevelError, "effect disabled"); n != 1 {
		t.Errorf("logged %d errors, want 1", n)
	}

	// Without expansion the same device is fine.
	fx, err = New(dev, newTestWorld().scene, nil, WithExpandPasses(0))
	if err != nil {
		t.Fatalf("New(no expansion) = %v", err)
	}
	fx.Close()
}

func TestEffectAllocationFailureIsFatal(t *testing.T) {
	logs := captureLogs(t)
	w := newTestWorld()
	dev := newTestDevice()
	dev.failCreateAt = 3
	fx := newTestEffect(t, w, dev)

	if err := fx.BeginFrame(context.Background(), nil); err == nil {
		t.Fatal("BeginFrame() succeeded with failing allocations")
	}
	if fx.Err() == nil || fx.Enabled() {
		t.Errorf("effect still usable: Err() = %v, Enabled() = %v", fx.Err(), fx.Enabled())
	}
	if dev.LiveSurfaces() != 0 {
		t.Errorf("LiveSurfaces() = %d after failed allocation, want 0", dev.LiveSurfaces())
	}
	if w.ball.Materials()[0] != w.redMat {
		t.Error("material swapped after failed allocation")
	}

	if err := fx.BeginFrame(context.Background(), nil); !errors.Is(err, ErrDisabled) {
		t.Errorf("BeginFrame() after fatal error = %v, want ErrDisabled", err)
	}
	if n := logs.count(slog.LevelError, "effect disabled"); n != 1 {
		t.Errorf("logged %d errors, want 1", n)
	}
}

func TestEffectUpdate(t *testing.T) {
	w := newTestWorld()
	dev := newTestDevice()
	dev.unsupported = map[backend.Program]bool{backend.ProgramPremultiply: true}
	fx := newTestEffect(t, w, dev)

	var ce *ConfigError
	if err := fx.Update(func(c *Config) { c.Blocks = -1 }); !errors.As(err, &ce) {
		t.Errorf("Update(blocks -1) = %v, want *ConfigError", err)
	}
	if fx.Config().Blocks != 8 {
		t.Errorf("Blocks = %v after rejected update, want 8", fx.Config().Blocks)
	}

	if err := fx.Update(func(c *Config) { c.Premultiply = true }); !errors.Is(err, backend.ErrUnsupportedProgram) {
		t.Errorf("Update(premultiply) = %v, want ErrUnsupportedProgram", err)
	}
	if fx.Err() != nil {
		t.Errorf("rejected update disabled the effect: %v", fx.Err())
	}

	if err := fx.BeginFrame(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if err := fx.Update(func(c *Config) { c.Alpha = 0.5 }); !errors.Is(err, ErrFrameInProgress) {
		t.Errorf("Update() during frame = %v, want ErrFrameInProgress", err)
	}
	fx.EndFrame()
	if err := fx.Update(func(c *Config) { c.Alpha = 0.5 }); err != nil {
		t.Errorf("Update() = %v", err)
	}
}

func TestEffectAnchorFollow(t *testing.T) {
	w := newTestWorld()
	anchor := sim.NewObject("anchor", 0, sim.ShapeDisc, mgl32.Vec3{0.3, 0.2, 0}, 1, nil)
	fx := newTestEffect(t, w, newTestDevice(), WithAnchor(anchor), WithFollowAnchor(true))

	frame(t, fx)
	first := fx.Offset()
	for i := range 2 {
		if x, y := first.X(), first.Y(); x < -0.5 || x >= 0.5 || y < -0.5 || y >= 0.5 {
			t.Fatalf("offset %v out of range", first)
		}
		frame(t, fx)
		if got := fx.Offset(); !got.ApproxEqual(first) {
			t.Errorf("frame %d: offset = %v for a static anchor, want %v", i+2, got, first)
		}
	}

	// Moving the anchor after a reset does not shift the grid.
	anchor.Center = anchor.Center.Add(mgl32.Vec3{0.1, 0, 0})
	fx.ResetAnchorAlignment()
	frame(t, fx)
	if got := fx.Offset(); !got.ApproxEqual(first) {
		t.Errorf("offset = %v after reset, want %v", got, first)
	}

	// Panning the camera moves the grid with the anchor.
	pan := mgl32.Vec3{0.1, 0, 0}
	w.camera.Eye = w.camera.Eye.Add(pan)
	w.camera.Target = w.camera.Target.Add(pan)
	frame(t, fx)
	if got := fx.Offset(); got.ApproxEqual(first) {
		t.Errorf("offset = %v did not follow a camera pan", got)
	}
}

func TestEffectAnchorWithoutFollow(t *testing.T) {
	w := newTestWorld()
	anchor := sim.NewObject("anchor", 0, sim.ShapeDisc, mgl32.Vec3{0.3, 0.2, 0}, 1, nil)
	fx := newTestEffect(t, w, newTestDevice(), WithAnchor(anchor))

	frame(t, fx)
	pan := mgl32.Vec3{0.1, 0, 0}
	w.camera.Eye = w.camera.Eye.Add(pan)
	w.camera.Target = w.camera.Target.Add(pan)
	frame(t, fx)
	if got := fx.Offset(); got != (mgl32.Vec2{}) {
		t.Errorf("offset = %v without following, want zero", got)
	}
}

func TestEffectScaleToAnchorDistance(t *testing.T) {
	w := newTestWorld()
	fx := newTestEffect(t, w, newTestDevice(), WithAnchor(w.ball), WithScaleToAnchorDistance(true))

	frame(t, fx)
	near := fx.Layout().HBlocks

	w.camera.Eye = mgl32.Vec3{0, 0, 6}
	frame(t, fx)
	far := fx.Layout().HBlocks

	// 8 blocks times the padded scale times the distance.
	if near <= 8*4 {
		t.Errorf("HBlocks = %v at distance 5, want scaled up", near)
	}
	if far <= near {
		t.Errorf("HBlocks = %v at distance 6, want more than %v", far, near)
	}
}

func TestEffectSphereMaskShowMask(t *testing.T) {
	w := newTestWorld()
	fx := newTestEffect(t, w, newTestDevice(),
		WithMasking(composite.SphereMask(w.ball)),
		WithShowMask(true),
	)
	ctx := context.Background()

	if err := fx.BeginFrame(ctx, nil); err != nil {
		t.Fatal(err)
	}
	p, _ := fx.Parameters()
	kw := p.Keywords()
	if !slices.Contains(kw, composite.KeywordShowMask) || !slices.Contains(kw, composite.KeywordSphereMasking) {
		t.Errorf("Keywords() = %v", kw)
	}

	out := surface.New(64, 64)
	if err := w.scene.Render(ctx, w.camera, out, black); err != nil {
		t.Fatal(err)
	}
	fx.EndFrame()

	white := surface.RGBA{R: 1, G: 1, B: 1, A: 1}
	if got := out.Pixel(32, 32); !approxEqual(got, white) {
		t.Errorf("mask at sphere center = %+v, want white", got)
	}
}

func TestEffectMaskWithoutReference(t *testing.T) {
	w := newTestWorld()
	fx := newTestEffect(t, w, newTestDevice(), WithMasking(composite.Masking{Mode: composite.MaskSphere}))

	if err := fx.BeginFrame(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	defer fx.EndFrame()
	p, _ := fx.Parameters()
	if p.Mask != composite.MaskNone {
		t.Errorf("Mask = %v without a sphere, want none", p.Mask)
	}
}

func TestEffectClose(t *testing.T) {
	w := newTestWorld()
	dev := newTestDevice()
	reg := NewRegistry()
	fx, err := New(dev, w.scene, reg, WithLayer(testLayer))
	if err != nil {
		t.Fatal(err)
	}
	if err := fx.Enable(w.camera); err != nil {
		t.Fatal(err)
	}
	if err := fx.BeginFrame(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if dev.LiveSurfaces() == 0 {
		t.Fatal("no surfaces allocated")
	}

	// Close ends the open frame.
	if err := fx.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
	if dev.LiveSurfaces() != 0 {
		t.Errorf("LiveSurfaces() = %d after Close, want 0", dev.LiveSurfaces())
	}
	if w.ball.Materials()[0] != w.redMat {
		t.Error("material not restored by Close")
	}
	if reg.Len() != 0 {
		t.Errorf("registry still holds %d effects", reg.Len())
	}
	if err := fx.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
	if err := fx.Enable(w.camera); !errors.Is(err, ErrDisabled) {
		t.Errorf("Enable() after Close = %v, want ErrDisabled", err)
	}
}
