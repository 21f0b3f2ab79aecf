// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package software implements the mosaic passes on the CPU.
//
// Surfaces are float32 RGBA pixmaps and every program runs through the
// kernels in internal/filter. Multisampling is ignored: a capture surface
// with Samples > 1 is a plain pixmap. The device is always available, so
// it is the fallback when no GPU device can be opened.
//
// Importing the package registers it:
//
//	import _ "github.com/gogpu/mosaic/backend/software"
package software

import (
	"context"
	"fmt"
	"log/slog"
	"weak"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/mosaic/backend"
	"github.com/gogpu/mosaic/internal/filter"
	"github.com/gogpu/mosaic/internal/parallel"
	"github.com/gogpu/mosaic/surface"
)

// init registers the software backend on package import.
func init() {
	backend.Register(backend.BackendSoftware, func(gpucontext.DeviceProvider) (backend.Device, error) {
		return New(), nil
	})
}

// Device is a CPU backend.Device.
//
// Device is NOT safe for concurrent use.
type Device struct {
	logger *slog.Logger

	live map[*surface.Pixmap]struct{}

	// destroyed remembers released surfaces without keeping them alive, so
	// later use reports ErrDestroyed rather than ErrForeignSurface.
	destroyed map[weak.Pointer[surface.Pixmap]]struct{}

	draws  int
	closed bool

	// pool is started by the first draw tall enough to split.
	pool *parallel.WorkerPool
}

var _ backend.Device = (*Device)(nil)

// New creates a software device.
func New() *Device {
	return &Device{
		logger: slog.New(slog.DiscardHandler),
		live:      make(map[*surface.Pixmap]struct{}),
		destroyed: make(map[weak.Pointer[surface.Pixmap]]struct{}),
	}
}

// SetLogger sets the device logger. nil disables logging.
func (d *Device) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	d.logger = l
}

// Name returns "software".
func (d *Device) Name() string { return backend.BackendSoftware }

// Supports reports true for every program.
func (d *Device) Supports(p backend.Program) bool {
	switch p {
	case backend.ProgramResize, backend.ProgramExpandEdges, backend.ProgramPremultiply:
		return true
	default:
		return false
	}
}

// CreateSurface allocates a transparent pixmap.
func (d *Device) CreateSurface(desc surface.Descriptor) (surface.Surface, error) {
	if d.closed {
		return nil, fmt.Errorf("software: device closed")
	}
	pm, err := surface.NewPixmap(desc)
	if err != nil {
		return nil, err
	}
	d.live[pm] = struct{}{}
	d.logger.Debug("software: surface created", "label", desc.Label, "width", desc.Width, "height", desc.Height)
	return pm, nil
}

// pruneThreshold is how many destroyed entries accumulate before the ones
// already collected are dropped.
const pruneThreshold = 64

// DestroySurface frees the pixels of s now. Destroying it again is a no-op.
func (d *Device) DestroySurface(s surface.Surface) error {
	pm, live, err := d.lookup(s)
	if err != nil || !live {
		return err
	}
	delete(d.live, pm)
	pm.Release()
	if len(d.destroyed) >= pruneThreshold {
		d.prune()
	}
	d.destroyed[weak.Make(pm)] = struct{}{}
	d.logger.Debug("software: surface destroyed", "label", pm.Descriptor().Label)
	return nil
}

// prune forgets destroyed surfaces the garbage collector has reclaimed.
func (d *Device) prune() {
	for wp := range d.destroyed {
		if wp.Value() == nil {
			delete(d.destroyed, wp)
		}
	}
}

// Draw runs p.Program from src into dst.
func (d *Device) Draw(ctx context.Context, dst, src surface.Surface, p backend.DrawParams) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !d.Supports(p.Program) {
		return fmt.Errorf("%w: %v", backend.ErrUnsupportedProgram, p.Program)
	}
	dpm, err := d.alive(dst)
	if err != nil {
		return err
	}
	spm, err := d.alive(src)
	if err != nil {
		return err
	}
	d.draws++
	return filter.RunRows(dpm, spm, p, d.rows)
}

// rows spreads the bands of a pass over the worker pool.
func (d *Device) rows(h int, fn func(y0, y1 int)) {
	if h < 2*parallel.MinBandRows {
		fn(0, h)
		return
	}
	if d.pool == nil {
		d.pool = parallel.NewWorkerPool(0)
		d.logger.Debug("software: worker pool started", "workers", d.pool.Workers())
	}
	d.pool.ForRows(h, fn)
}

// Discard clears s to transparent.
func (d *Device) Discard(s surface.Surface) {
	if pm, err := d.alive(s); err == nil {
		pm.Clear()
	}
}

// Close frees every surface and stops the worker pool.
func (d *Device) Close() error {
	for pm := range d.live {
		pm.Release()
	}
	clear(d.live)
	clear(d.destroyed)
	d.closed = true
	if d.pool != nil {
		d.pool.Close()
		d.pool = nil
	}
	return nil
}

// LiveSurfaces returns how many surfaces are allocated.
func (d *Device) LiveSurfaces() int { return len(d.live) }

// Draws returns how many passes have run.
func (d *Device) Draws() int { return d.draws }

// lookup resolves s to one of this device's pixmaps. live is false for a
// surface that was already destroyed.
func (d *Device) lookup(s surface.Surface) (pm *surface.Pixmap, live bool, err error) {
	pm, ok := s.(*surface.Pixmap)
	if !ok {
		return nil, false, fmt.Errorf("%w: %T", backend.ErrForeignSurface, s)
	}
	if _, ok := d.live[pm]; ok {
		return pm, true, nil
	}
	if _, ok := d.destroyed[weak.Make(pm)]; ok {
		return pm, false, nil
	}
	return nil, false, fmt.Errorf("%w: %s", backend.ErrForeignSurface, pm.Descriptor().Label)
}

func (d *Device) alive(s surface.Surface) (*surface.Pixmap, error) {
	pm, live, err := d.lookup(s)
	if err != nil {
		return nil, err
	}
	if !live {
		return nil, fmt.Errorf("%w: %s", backend.ErrDestroyed, pm.Descriptor().Label)
	}
	return pm, nil
}
