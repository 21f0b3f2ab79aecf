// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package backend provides the pluggable device abstraction the mosaic
// passes run on.
//
// A Device allocates offscreen surfaces and draws full-screen quads with
// one of a fixed set of programs (resize, expand edges, premultiply).
// Two implementations exist:
//
//   - backend/software: CPU kernels over float32 pixmaps
//   - backend/native: gogpu/wgpu HAL with WGSL shaders
//
// # Backend Registration
//
// Backends are registered via init() functions and selected at runtime.
// Import the backends you want:
//
//	import (
//	    _ "github.com/gogpu/mosaic/backend/native"
//	    _ "github.com/gogpu/mosaic/backend/software"
//	)
//
// # Backend Selection
//
// Use Default to open the best available backend, or Open to request a
// specific one by name:
//
//	dev, err := backend.Default(provider)
//
//	dev, err := backend.Open(backend.BackendSoftware, nil)
//
// The native backend needs a gpucontext.DeviceProvider from the host. When
// the provider is nil or exposes no HAL device, Default falls back to the
// software backend.
package backend
