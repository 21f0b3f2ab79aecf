// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import (
	"log/slog"
	"sync/atomic"
)

// quiet is installed whenever no logger is set.
var quiet = slog.New(slog.DiscardHandler)

// deviceLog is shared by every native Device. It is swapped as a whole
// so draws may log while a host replaces it.
var deviceLog atomic.Pointer[slog.Logger]

func init() { deviceLog.Store(quiet) }

// slogger returns the logger for pipeline, sampler and submission events.
func slogger() *slog.Logger { return deviceLog.Load() }

// setLogger installs l, or silences the backend when l is nil. The root
// package reaches it through Device.SetLogger.
func setLogger(l *slog.Logger) {
	if l == nil {
		l = quiet
	}
	deviceLog.Store(l)
}
