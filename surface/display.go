// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/draw"
)

// DisplayMode selects how a pass is visualized when inspected.
type DisplayMode uint8

const (
	// DisplayNormal shows the stored color and alpha.
	DisplayNormal DisplayMode = iota

	// DisplayAlphaOnly shows alpha as an opaque grayscale image.
	DisplayAlphaOnly

	// DisplayWithoutAlpha shows the color channels as opaque.
	DisplayWithoutAlpha

	// DisplayUnpremultiplied divides color by alpha before display.
	DisplayUnpremultiplied
)

// String returns the mode name.
func (m DisplayMode) String() string {
	switch m {
	case DisplayNormal:
		return "normal"
	case DisplayAlphaOnly:
		return "alpha"
	case DisplayWithoutAlpha:
		return "rgb"
	case DisplayUnpremultiplied:
		return "unpremultiplied"
	default:
		return fmt.Sprintf("DisplayMode(%d)", uint8(m))
	}
}

// ParseDisplayMode parses a mode name as returned by String.
func ParseDisplayMode(s string) (DisplayMode, error) {
	for m := DisplayNormal; m <= DisplayUnpremultiplied; m++ {
		if m.String() == s {
			return m, nil
		}
	}
	return DisplayNormal, fmt.Errorf("surface: unknown display mode %q", s)
}

// Render converts the pixmap into an 8-bit image using mode. The image is
// flipped so that its top row is the top of the surface.
func (p *Pixmap) Render(mode DisplayMode) *image.NRGBA {
	w, h := p.Width(), p.Height()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := p.Pixel(x, h-1-y)
			switch mode {
			case DisplayAlphaOnly:
				c = RGBA{c.A, c.A, c.A, 1}
			case DisplayWithoutAlpha:
				c.A = 1
			case DisplayUnpremultiplied:
				c = c.Unpremultiply()
			}
			img.SetNRGBA(x, y, color.NRGBA{
				R: to8(c.R),
				G: to8(c.G),
				B: to8(c.B),
				A: to8(c.A),
			})
		}
	}
	return img
}

// Scale resizes img by factor with nearest-neighbor sampling, which keeps
// mosaic blocks crisp when enlarging small passes for inspection.
func Scale(img image.Image, factor int) image.Image {
	if factor <= 1 {
		return img
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Resize resamples img to width x height with Catmull-Rom filtering.
func Resize(img image.Image, width, height int) image.Image {
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// WritePNG encodes img as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

// SavePNG writes img to path as PNG.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// LoadPNG decodes a PNG file into a pixmap.
func LoadPNG(path string) (*Pixmap, error) {
	f, err := os.Open(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("surface: decode %s: %w", path, err)
	}
	return FromImage(img), nil
}

func to8(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
