// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package filter

import "github.com/gogpu/mosaic/surface"

// createTestPixmap creates a pixmap filled with the given color.
func createTestPixmap(w, h int, c surface.RGBA) *surface.Pixmap {
	p := surface.New(w, h)
	p.Fill(c)
	return p
}

// colorApproxEqual compares two colors with tolerance.
func colorApproxEqual(a, b surface.RGBA, tolerance float32) bool {
	return absf32(a.R-b.R) < tolerance &&
		absf32(a.G-b.G) < tolerance &&
		absf32(a.B-b.B) < tolerance &&
		absf32(a.A-b.A) < tolerance
}

// absf32 returns the absolute value of a float32.
func absf32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
