// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"image"
	"image/color"
)

// RGBA is a float color. Whether it is premultiplied depends on the pass
// that produced it.
type RGBA struct {
	R, G, B, A float32
}

// Transparent is the zero color.
var Transparent = RGBA{}

// Add returns c + o channel-wise.
func (c RGBA) Add(o RGBA) RGBA {
	return RGBA{c.R + o.R, c.G + o.G, c.B + o.B, c.A + o.A}
}

// Scale multiplies every channel by s.
func (c RGBA) Scale(s float32) RGBA {
	return RGBA{c.R * s, c.G * s, c.B * s, c.A * s}
}

// Lerp interpolates from c to o by t.
func (c RGBA) Lerp(o RGBA, t float32) RGBA {
	return RGBA{
		c.R + (o.R-c.R)*t,
		c.G + (o.G-c.G)*t,
		c.B + (o.B-c.B)*t,
		c.A + (o.A-c.A)*t,
	}
}

// Premultiply multiplies the color channels by alpha.
func (c RGBA) Premultiply() RGBA {
	return RGBA{c.R * c.A, c.G * c.A, c.B * c.A, c.A}
}

// Unpremultiply divides the color channels by alpha. Transparent colors
// are returned unchanged.
func (c RGBA) Unpremultiply() RGBA {
	if c.A == 0 {
		return c
	}
	inv := 1 / c.A
	return RGBA{c.R * inv, c.G * inv, c.B * inv, c.A}
}

// Pixmap is a CPU surface storing four float32 channels per pixel.
// Rows are stored bottom-up: y = 0 is the bottom row, matching texture
// coordinates where v grows upwards.
//
// Channels are stored as float32 whatever the Format; the format only
// records what a GPU backend would allocate.
type Pixmap struct {
	desc Descriptor
	pix  []float32
}

// NewPixmap allocates a cleared pixmap for desc.
func NewPixmap(desc Descriptor) (*Pixmap, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	return &Pixmap{
		desc: desc,
		pix:  make([]float32, desc.Width*desc.Height*4),
	}, nil
}

// New allocates an RGBA8 pixmap of the given size. Non-positive sizes are
// clamped to 1.
func New(width, height int) *Pixmap {
	pm, _ := NewPixmap(Descriptor{Width: max(width, 1), Height: max(height, 1)})
	return pm
}

// Descriptor returns the descriptor the pixmap was created from.
func (p *Pixmap) Descriptor() Descriptor { return p.desc }

// Width returns the width in pixels.
func (p *Pixmap) Width() int { return p.desc.Width }

// Height returns the height in pixels.
func (p *Pixmap) Height() int { return p.desc.Height }

// Pix returns the raw channel data, four float32 per pixel, rows bottom-up.
func (p *Pixmap) Pix() []float32 { return p.pix }

// Release drops the channel data. The pixmap keeps its descriptor; reads
// return Transparent and writes are ignored from then on.
func (p *Pixmap) Release() { p.pix = nil }

// Released reports whether Release was called.
func (p *Pixmap) Released() bool { return p.pix == nil }

// Pixel returns the color at (x, y). Out of range reads return Transparent.
func (p *Pixmap) Pixel(x, y int) RGBA {
	if p.pix == nil || x < 0 || x >= p.desc.Width || y < 0 || y >= p.desc.Height {
		return Transparent
	}
	i := (y*p.desc.Width + x) * 4
	return RGBA{p.pix[i], p.pix[i+1], p.pix[i+2], p.pix[i+3]}
}

// SetPixel stores c at (x, y). Out of range writes are ignored.
func (p *Pixmap) SetPixel(x, y int, c RGBA) {
	if p.pix == nil || x < 0 || x >= p.desc.Width || y < 0 || y >= p.desc.Height {
		return
	}
	i := (y*p.desc.Width + x) * 4
	p.pix[i] = c.R
	p.pix[i+1] = c.G
	p.pix[i+2] = c.B
	p.pix[i+3] = c.A
}

// Fill sets every pixel to c.
func (p *Pixmap) Fill(c RGBA) {
	for i := 0; i < len(p.pix); i += 4 {
		p.pix[i] = c.R
		p.pix[i+1] = c.G
		p.pix[i+2] = c.B
		p.pix[i+3] = c.A
	}
}

// Clear resets every channel to zero.
func (p *Pixmap) Clear() {
	clear(p.pix)
}

// CountTransparent returns the number of pixels whose alpha is zero.
func (p *Pixmap) CountTransparent() int {
	n := 0
	for i := 3; i < len(p.pix); i += 4 {
		if p.pix[i] == 0 {
			n++
		}
	}
	return n
}

// FromImage converts img into an RGBA8 pixmap with straight alpha.
// The top row of img becomes the top row of the pixmap.
func FromImage(img image.Image) *Pixmap {
	b := img.Bounds()
	pm := New(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.NRGBA64Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA64)
			pm.SetPixel(x, pm.Height()-1-y, RGBA{
				R: float32(c.R) / 0xffff,
				G: float32(c.G) / 0xffff,
				B: float32(c.B) / 0xffff,
				A: float32(c.A) / 0xffff,
			})
		}
	}
	return pm
}
