// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package mosaic provides a screen-space mosaic (pixelation) post-effect.
//
// # Overview
//
// An Effect renders one layer of a camera a second time into an offscreen
// capture, shrinks that capture to one pixel per mosaic block and swaps a
// compositing material onto the layer's renderers for the frame. The
// material blends the blocky image over the sharp one, optionally limited by
// a sphere or texture mask.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/mosaic"
//	    "github.com/gogpu/mosaic/backend"
//	    _ "github.com/gogpu/mosaic/backend/software"
//	)
//
//	dev, err := backend.Open(backend.BackendSoftware, nil)
//	fx, err := mosaic.New(dev, scene, nil, mosaic.WithLayer(8), mosaic.WithBlocks(24))
//	fx.Enable(camera)
//
//	for each frame {
//	    fx.BeginFrame(ctx, nil)
//	    // render the camera; layer 8 now shows the mosaic
//	    fx.EndFrame()
//	}
//
// # Architecture
//
// The effect is split into packages that can be used on their own:
//   - layout: block counts and capture size for a viewport
//   - chain: the offscreen surfaces of the passes
//   - anchor: grid alignment to a world-space anchor
//   - pipeline: capture and pass execution
//   - composite: compositing parameters and material swapping
//   - backend: devices running the passes (software, native)
//   - host: the interfaces an engine implements; host/sim is an in-memory one
//
// # Coordinate System
//
// Surfaces are bottom-up: pixel (0, 0) and UV (0, 0) are the bottom-left
// corner, matching the GPU texture convention.
//
// # Logging
//
// mosaic is silent by default. See SetLogger.
package mosaic

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
