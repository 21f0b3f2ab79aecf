// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package mosaic

import (
	"errors"
	"fmt"
)

// Effect errors.
var (
	// ErrNoDevice is returned by New without a backend device.
	ErrNoDevice = errors.New("mosaic: no backend device")

	// ErrNoHost is returned by New without a host.
	ErrNoHost = errors.New("mosaic: no host")

	// ErrNoCamera is returned when enabling or rendering without a camera.
	ErrNoCamera = errors.New("mosaic: no camera")

	// ErrDisabled is returned when using an effect that is not enabled,
	// was closed, or was disabled by a fatal error.
	ErrDisabled = errors.New("mosaic: effect disabled")

	// ErrFrameInProgress is reported when BeginFrame is called before the
	// previous frame ended.
	ErrFrameInProgress = errors.New("mosaic: frame in progress")

	// ErrNoFrame is returned when frame state is requested outside a frame.
	ErrNoFrame = errors.New("mosaic: no frame in progress")
)

// ConfigError describes an invalid configuration field.
type ConfigError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("mosaic: invalid %s %v: %s", e.Field, e.Value, e.Reason)
}
