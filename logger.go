// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package mosaic

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/mosaic/backend"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	l := newNopLogger()
	loggerPtr.Store(l)
}

// devices holds the backend devices of live effects, so SetLogger can
// reach them.
var (
	devicesMu sync.Mutex
	devices   = make(map[backend.Device]int)
)

// SetLogger configures the logger for mosaic and all its sub-packages.
// By default, mosaic produces no log output. Call SetLogger to enable logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by mosaic:
//   - [slog.LevelDebug]: pass allocation, per-frame pipeline transitions
//   - [slog.LevelInfo]: backend selection
//   - [slog.LevelWarn]: conflicting effects, overlapping frames, release errors
//   - [slog.LevelError]: fatal configuration errors, reported once per effect
//
// Example:
//
//	// Enable debug-level logging for full diagnostics:
//	mosaic.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	devicesMu.Lock()
	defer devicesMu.Unlock()
	for d := range devices {
		propagateLogger(d, l)
	}
}

// Logger returns the current logger used by mosaic.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by devices that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// propagateLogger passes the logger to a device if it implements the
// loggerSetter interface.
func propagateLogger(d backend.Device, l *slog.Logger) {
	if ls, ok := d.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}

// trackDevice registers d for logger propagation and hands it the current
// logger. Each call must be paired with untrackDevice.
func trackDevice(d backend.Device) {
	devicesMu.Lock()
	devices[d]++
	devicesMu.Unlock()
	propagateLogger(d, Logger())
}

func untrackDevice(d backend.Device) {
	devicesMu.Lock()
	defer devicesMu.Unlock()
	if devices[d] <= 1 {
		delete(devices, d)
		return
	}
	devices[d]--
}

// currentHandler forwards to the handler of Logger() at the time of each
// call, so loggers built on it follow later SetLogger calls. Attributes
// and groups bind to the logger current when they are added.
type currentHandler struct{}

func (currentHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return Logger().Handler().Enabled(ctx, l)
}

func (currentHandler) Handle(ctx context.Context, r slog.Record) error {
	return Logger().Handler().Handle(ctx, r)
}

func (currentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return Logger().Handler().WithAttrs(attrs)
}

func (currentHandler) WithGroup(name string) slog.Handler {
	return Logger().Handler().WithGroup(name)
}

// componentLogger returns the logger handed to the chain and pipeline.
func componentLogger() *slog.Logger { return slog.New(currentHandler{}) }
