// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package mosaic

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/mosaic/backend"
	"github.com/gogpu/mosaic/backend/software"
	"github.com/gogpu/mosaic/host"
	"github.com/gogpu/mosaic/host/sim"
	"github.com/gogpu/mosaic/surface"
)

const testLayer = 8

var (
	red   = surface.RGBA{R: 1, A: 1}
	blue  = surface.RGBA{B: 1, A: 1}
	black = surface.RGBA{A: 1}
)

// testDevice is a software device with injectable failures.
type testDevice struct {
	*software.Device

	logger      *slog.Logger
	unsupported map[backend.Program]bool

	// failCreateAt makes the n-th CreateSurface call and every later one
	// fail. 0 never fails.
	failCreateAt int
	creates      int
}

func newTestDevice() *testDevice {
	return &testDevice{Device: software.New()}
}

func (d *testDevice) SetLogger(l *slog.Logger) {
	d.logger = l
	d.Device.SetLogger(l)
}

func (d *testDevice) Supports(p backend.Program) bool {
	if d.unsupported[p] {
		return false
	}
	return d.Device.Supports(p)
}

func (d *testDevice) CreateSurface(desc surface.Descriptor) (surface.Surface, error) {
	d.creates++
	if d.failCreateAt > 0 && d.creates >= d.failCreateAt {
		return nil, errors.New("out of memory")
	}
	return d.Device.CreateSurface(desc)
}

// recordHandler keeps every record it handles.
type recordHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	h.records = append(h.records, r.Clone())
	h.mu.Unlock()
	return nil
}

func (h *recordHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordHandler) WithGroup(string) slog.Handler      { return h }

// count returns how many records at level contain substr.
func (h *recordHandler) count(level slog.Level, substr string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, r := range h.records {
		if r.Level == level && strings.Contains(r.Message, substr) {
			n++
		}
	}
	return n
}

// captureLogs routes mosaic logging into a recordHandler for the test.
func captureLogs(t *testing.T) *recordHandler {
	t.Helper()
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })
	h := &recordHandler{}
	SetLogger(slog.New(h))
	return h
}

// testWorld is a scene with one red disc on the mosaic layer in front of
// a blue wall on layer 0.
type testWorld struct {
	scene  *sim.Scene
	camera *sim.Camera
	ball   *sim.Object
	wall   *sim.Object
	redMat host.Material
}

func newTestWorld() *testWorld {
	w := &testWorld{
		scene:  sim.NewScene(),
		camera: sim.NewCamera("main", 64, 64, mgl32.Vec3{0, 0, 5}),
		redMat: sim.NewMaterial("red", red),
	}
	w.ball = sim.NewObject("ball", testLayer, sim.ShapeDisc, mgl32.Vec3{}, 2, w.redMat)
	w.wall = sim.NewObject("wall", 0, sim.ShapeSquare, mgl32.Vec3{0, 0, -3}, 10, sim.NewMaterial("blue", blue))
	w.scene.Add(w.ball, w.wall)
	return w
}

// newTestEffect creates and enables an effect on w's camera.
func newTestEffect(t *testing.T, w *testWorld, dev backend.Device, opts ...Option) *Effect {
	t.Helper()
	opts = append([]Option{WithLayer(testLayer), WithBlocks(8)}, opts...)
	fx, err := New(dev, w.scene, nil, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = fx.Close() })
	if err := fx.Enable(w.camera); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}
	return fx
}

// frame runs one BeginFrame/EndFrame pair.
func frame(t *testing.T, fx *Effect) {
	t.Helper()
	if err := fx.BeginFrame(context.Background(), nil); err != nil {
		t.Fatalf("BeginFrame() error = %v", err)
	}
	fx.EndFrame()
}

func approxEqual(a, b surface.RGBA) bool {
	const eps = 1e-3
	d := func(x, y float32) bool { return x-y < eps && y-x < eps }
	return d(a.R, b.R) && d(a.G, b.G) && d(a.B, b.B) && d(a.A, b.A)
}

// blendOpaque blends straight-alpha c at full coverage over opaque bg.
func blendOpaque(c, bg surface.RGBA) surface.RGBA {
	mix := func(s, d float32) float32 { return s*c.A + d*(1-c.A) }
	return surface.RGBA{R: mix(c.R, bg.R), G: mix(c.G, bg.G), B: mix(c.B, bg.B), A: 1}
}
