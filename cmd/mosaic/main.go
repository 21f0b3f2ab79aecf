// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command mosaic renders a small simulated scene through the mosaic effect
// and writes every frame, and optionally every pass, as PNG files.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/mosaic"
	"github.com/gogpu/mosaic/backend"
	_ "github.com/gogpu/mosaic/backend/software"
	"github.com/gogpu/mosaic/composite"
	"github.com/gogpu/mosaic/host/sim"
	"github.com/gogpu/mosaic/surface"
	"github.com/pkg/profile"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// mosaicLayer is the layer the demo objects are placed on.
const mosaicLayer = 8

type options struct {
	width, height int
	frames        int
	out           string

	blocks   float64
	alpha    float64
	mask     string
	maskFile string
	fade     float64
	follow   bool
	scale    bool
	highres  bool
	expand   int
	backend  string
	dump     bool
	display  string
	zoom     int
	profile  string
	verbose  bool
}

func main() {
	var o options
	flag.IntVar(&o.width, "width", 320, "image width")
	flag.IntVar(&o.height, "height", 240, "image height")
	flag.IntVar(&o.frames, "frames", 1, "number of frames to render")
	flag.StringVar(&o.out, "out", "mosaic-out", "output directory")
	flag.Float64Var(&o.blocks, "blocks", mosaic.DefaultBlocks, "horizontal block count")
	flag.Float64Var(&o.alpha, "alpha", 1, "mosaic opacity")
	flag.StringVar(&o.mask, "mask", "none", "mask mode: none, sphere or texture")
	flag.StringVar(&o.maskFile, "mask-file", "", "PNG read as the mask texture")
	flag.Float64Var(&o.fade, "fade", mosaic.DefaultMaskFade, "sphere mask falloff")
	flag.BoolVar(&o.follow, "follow", false, "keep the grid aligned to the moving ball")
	flag.BoolVar(&o.scale, "scale", false, "scale block size with the ball's distance")
	flag.BoolVar(&o.highres, "highres", true, "capture at full resolution and downscale")
	flag.IntVar(&o.expand, "expand", mosaic.DefaultExpandPasses, "edge expansion passes")
	flag.StringVar(&o.backend, "backend", backend.BackendSoftware, "backend name")
	flag.BoolVar(&o.dump, "dump", false, "also write every pass of the last frame")
	flag.StringVar(&o.display, "display", "normal", "pass display mode: normal, alpha, rgb or unpremultiplied")
	flag.IntVar(&o.zoom, "zoom", 1, "nearest-neighbor upscale factor for written images")
	flag.StringVar(&o.profile, "profile", "", "write a CPU profile into this directory")
	flag.BoolVar(&o.verbose, "v", false, "debug logging")
	flag.Parse()

	if err := run(context.Background(), o); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, o options) error {
	if o.profile != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(o.profile), profile.Quiet).Stop()
	}

	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	mosaic.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	mode, err := surface.ParseDisplayMode(o.display)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(o.out, 0o750); err != nil {
		return err
	}

	dev, err := backend.Open(o.backend, nil)
	if err != nil {
		return fmt.Errorf("open backend: %w", err)
	}
	defer func() { _ = dev.Close() }()

	blocks := o.blocks
	if o.scale {
		blocks *= 5
	}

	d := newDemo(o.width, o.height)
	masking, err := parseMasking(o, d)
	if err != nil {
		return err
	}

	fx, err := mosaic.New(dev, d.scene, nil,
		mosaic.WithLayer(mosaicLayer),
		mosaic.WithBlocks(blocks),
		mosaic.WithAlpha(float32(o.alpha)),
		mosaic.WithHighResolution(o.highres),
		mosaic.WithExpandPasses(o.expand),
		mosaic.WithMasking(masking),
		mosaic.WithMaskFade(float32(o.fade)),
		mosaic.WithAnchor(d.ball),
		mosaic.WithFollowAnchor(o.follow),
		mosaic.WithScaleToAnchorDistance(o.scale),
	)
	if err != nil {
		return err
	}
	defer func() { _ = fx.Close() }()
	if err := fx.Enable(d.camera); err != nil {
		return err
	}

	p := message.NewPrinter(language.English)
	frames := max(o.frames, 1)
	for i := 0; i < frames; i++ {
		d.step(i)
		var dump func() error
		if o.dump && i == frames-1 {
			dump = func() error { return dumpPasses(fx, o.out, mode, o.zoom) }
		}
		img, err := renderFrame(ctx, fx, d, dump)
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		name := filepath.Join(o.out, fmt.Sprintf("frame-%03d.png", i))
		if err := surface.SavePNG(name, surface.Scale(img.Render(surface.DisplayNormal), o.zoom)); err != nil {
			return err
		}
		l := fx.Layout()
		off := fx.Offset()
		p.Printf("frame %d: %dx%d blocks, offset (%.3f, %.3f)\n", i, l.Columns, l.Rows, off.X(), off.Y())
	}

	l := fx.Layout()
	p.Printf("%d frames, capture %dx%d (%d pixels), %d passes, %d allocations\n",
		frames, l.CaptureWidth, l.CaptureHeight, l.CaptureWidth*l.CaptureHeight,
		len(fx.Passes()), fx.Allocations())
	return nil
}

// demo is the scene the command renders: a ball and a ring of discs on
// the mosaic layer in front of a wall that stays sharp.
type demo struct {
	scene  *sim.Scene
	camera *sim.Camera
	ball   *sim.Object
}

func newDemo(w, h int) *demo {
	d := &demo{
		scene:  sim.NewScene(),
		camera: sim.NewCamera("main", w, h, mgl32.Vec3{0, 0, 8}),
	}
	wall := sim.NewObject("wall", 0, sim.ShapeSquare, mgl32.Vec3{0, 0, -4}, 20,
		sim.NewMaterial("wall", surface.RGBA{R: 0.85, G: 0.85, B: 0.8, A: 1}))
	d.ball = sim.NewObject("ball", mosaicLayer, sim.ShapeDisc, mgl32.Vec3{}, 2.5,
		sim.NewMaterial("ball", surface.RGBA{R: 0.9, G: 0.2, B: 0.15, A: 1}))
	d.scene.Add(wall, d.ball)

	colors := []surface.RGBA{
		{R: 0.2, G: 0.6, B: 0.9, A: 1},
		{R: 0.3, G: 0.8, B: 0.3, A: 1},
		{R: 0.95, G: 0.8, B: 0.2, A: 1},
	}
	for i, c := range colors {
		x := float32(i-1) * 3
		d.scene.Add(sim.NewObject(fmt.Sprintf("box%d", i), mosaicLayer, sim.ShapeSquare,
			mgl32.Vec3{x, -2.5, -1}, 1.5, sim.NewMaterial(fmt.Sprintf("box%d", i), c)))
	}
	return d
}

// step moves the ball and pans the camera for frame i.
func (d *demo) step(i int) {
	t := float32(i) * 0.15
	d.ball.Center = mgl32.Vec3{-2 + t, 0.5, 0}
	d.camera.Eye = mgl32.Vec3{t * 0.5, 0, 8}
	d.camera.Target = mgl32.Vec3{t * 0.5, 0, 0}
}

func parseMasking(o options, d *demo) (composite.Masking, error) {
	mode, err := composite.ParseMaskMode(o.mask)
	if err != nil {
		return composite.Masking{}, err
	}
	switch mode {
	case composite.MaskSphere:
		return composite.SphereMask(d.ball), nil
	case composite.MaskTexture:
		if o.maskFile == "" {
			return composite.Masking{}, errors.New("-mask texture needs -mask-file")
		}
		pm, err := surface.LoadPNG(o.maskFile)
		if err != nil {
			return composite.Masking{}, err
		}
		return composite.TextureMask(pm), nil
	default:
		return composite.NoMask(), nil
	}
}

// renderFrame runs one effect frame and renders the main camera with the
// compositing material applied. dump, if set, runs while the pass
// contents are still valid.
func renderFrame(ctx context.Context, fx *mosaic.Effect, d *demo, dump func() error) (*surface.Pixmap, error) {
	if err := fx.BeginFrame(ctx, nil); err != nil {
		return nil, err
	}
	defer fx.EndFrame()

	out := surface.New(d.camera.Width, d.camera.Height)
	bg := surface.RGBA{R: 0.1, G: 0.1, B: 0.12, A: 1}
	if err := d.scene.Render(ctx, d.camera, out, bg); err != nil {
		return nil, err
	}
	if dump != nil {
		if err := dump(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func dumpPasses(fx *mosaic.Effect, dir string, mode surface.DisplayMode, zoom int) error {
	for i, pass := range fx.Passes() {
		pm, ok := pass.Surface.(*surface.Pixmap)
		if !ok {
			slog.Warn("pass is not readable on this backend", "pass", pass.String())
			continue
		}
		name := filepath.Join(dir, fmt.Sprintf("pass-%02d-%s.png", i, pass.Role))
		if err := surface.SavePNG(name, surface.Scale(pm.Render(mode), zoom)); err != nil {
			return err
		}
	}
	return nil
}
