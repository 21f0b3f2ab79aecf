// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package composite

import (
	"fmt"
	"strings"

	"github.com/gogpu/mosaic/host"
	"github.com/gogpu/mosaic/surface"
	"golang.org/x/text/cases"
)

// MaskMode selects where the mosaic replaces the sharp image.
type MaskMode uint8

const (
	// MaskNone applies the mosaic everywhere.
	MaskNone MaskMode = iota

	// MaskSphere applies the mosaic inside a sphere, fading out past its
	// surface.
	MaskSphere

	// MaskTexture reads the mosaic weight from the red channel of a
	// screen-space texture.
	MaskTexture
)

// String returns the lowercase mode name.
func (m MaskMode) String() string {
	switch m {
	case MaskNone:
		return "none"
	case MaskSphere:
		return "sphere"
	case MaskTexture:
		return "texture"
	default:
		return fmt.Sprintf("MaskMode(%d)", uint8(m))
	}
}

// ParseMaskMode parses the output of MaskMode.String.
func ParseMaskMode(s string) (MaskMode, error) {
	switch cases.Fold().String(strings.TrimSpace(s)) {
	case "none", "":
		return MaskNone, nil
	case "sphere":
		return MaskSphere, nil
	case "texture":
		return MaskTexture, nil
	}
	return MaskNone, fmt.Errorf("composite: unknown mask mode %q", s)
}

// Masking is the active mask: exactly one mode with the reference that
// mode needs. The zero value is MaskNone.
type Masking struct {
	Mode MaskMode

	// Sphere places the mask sphere for MaskSphere. The sphere has a
	// diameter of one local unit.
	Sphere host.Transform

	// Texture is the mask for MaskTexture.
	Texture surface.Surface
}

// NoMask returns the MaskNone variant.
func NoMask() Masking { return Masking{} }

// SphereMask returns the MaskSphere variant around t.
func SphereMask(t host.Transform) Masking {
	return Masking{Mode: MaskSphere, Sphere: t}
}

// TextureMask returns the MaskTexture variant reading tex.
func TextureMask(tex surface.Surface) Masking {
	return Masking{Mode: MaskTexture, Texture: tex}
}

// Active returns the mode that will actually be used. A mode whose
// reference is missing falls back to MaskNone.
func (m Masking) Active() MaskMode {
	switch m.Mode {
	case MaskSphere:
		if m.Sphere != nil {
			return MaskSphere
		}
	case MaskTexture:
		if m.Texture != nil {
			return MaskTexture
		}
	}
	return MaskNone
}
