// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
)

// ErrInvalidSize is returned when a descriptor has a non-positive dimension.
var ErrInvalidSize = errors.New("surface: invalid size")

// Format is the storage format of a surface.
type Format uint8

const (
	// FormatRGBA8 stores 8-bit unsigned normalized channels.
	FormatRGBA8 Format = iota

	// FormatRGBA16F stores 16-bit float channels (HDR cameras).
	FormatRGBA16F
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatRGBA8:
		return "RGBA8"
	case FormatRGBA16F:
		return "RGBA16F"
	default:
		return fmt.Sprintf("Format(%d)", uint8(f))
	}
}

// BytesPerPixel returns the GPU storage size of one pixel.
func (f Format) BytesPerPixel() int {
	if f == FormatRGBA16F {
		return 8
	}
	return 4
}

// GPUFormat maps the format to its WebGPU texture format.
func (f Format) GPUFormat() gputypes.TextureFormat {
	if f == FormatRGBA16F {
		return gputypes.TextureFormatRGBA16Float
	}
	return gputypes.TextureFormatRGBA8Unorm
}

// Descriptor describes a surface to allocate.
type Descriptor struct {
	// Label is a debug name, e.g. "mosaic.downscale.x0".
	Label string

	Width  int
	Height int
	Format Format

	// DepthBits is the depth buffer precision, 0 for no depth buffer.
	DepthBits int

	// Samples is the MSAA sample count. 0 and 1 both mean no multisampling.
	Samples int
}

// Validate reports whether the descriptor can be allocated.
func (d Descriptor) Validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("%w: %s %dx%d", ErrInvalidSize, d.Label, d.Width, d.Height)
	}
	return nil
}

// SampleCount returns the MSAA sample count, at least 1.
func (d Descriptor) SampleCount() int {
	if d.Samples < 1 {
		return 1
	}
	return d.Samples
}

// ByteSize estimates the GPU memory used by the surface, including the
// multisampled color buffer and the depth buffer.
func (d Descriptor) ByteSize() int {
	px := d.Width * d.Height
	size := px * d.Format.BytesPerPixel() * d.SampleCount()
	if d.DepthBits > 0 {
		size += px * 4 * d.SampleCount()
	}
	return size
}

// Surface is an allocated offscreen surface owned by a backend device.
type Surface interface {
	// Descriptor returns the descriptor the surface was created from.
	Descriptor() Descriptor

	Width() int
	Height() int
}

// Filter selects how a surface is sampled.
type Filter uint8

const (
	// FilterBilinear interpolates between the four nearest texels.
	FilterBilinear Filter = iota

	// FilterPoint selects the nearest texel.
	FilterPoint
)

// String returns the filter name.
func (f Filter) String() string {
	if f == FilterPoint {
		return "Point"
	}
	return "Bilinear"
}
