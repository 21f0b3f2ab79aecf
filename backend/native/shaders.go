// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/mosaic/backend"
	"github.com/gogpu/mosaic/composite"
	"github.com/gogpu/naga"
)

//go:embed shaders/passes.wgsl
var passesShaderSource string

// CompositeShaderSource is the WGSL fragment shader hosts attach to the
// compositing material. Its uniform block is filled by PackComposite.
//
//go:embed shaders/composite.wgsl
var CompositeShaderSource string

// Sizes of the uniform blocks, in bytes.
const (
	passUniformSize      = 48
	compositeUniformSize = 224
)

// entryPoint returns the fragment entry point of p in passes.wgsl.
func entryPoint(p backend.Program) (string, error) {
	switch p {
	case backend.ProgramResize:
		return "fs_resize", nil
	case backend.ProgramExpandEdges:
		return "fs_expand_edges", nil
	case backend.ProgramPremultiply:
		return "fs_premultiply", nil
	default:
		return "", fmt.Errorf("%w: %v", backend.ErrUnsupportedProgram, p)
	}
}

// ValidateShaders compiles every embedded shader with naga and reports the
// first failure.
func ValidateShaders() error {
	for name, src := range map[string]string{
		"passes":    passesShaderSource,
		"composite": CompositeShaderSource,
	} {
		if src == "" {
			return fmt.Errorf("native: %s shader source is empty", name)
		}
		if _, err := naga.Compile(src); err != nil {
			return fmt.Errorf("native: compile %s shader: %w", name, err)
		}
	}
	return nil
}

// packPass lays out p as the PassParams uniform block.
func packPass(p backend.DrawParams) []byte {
	buf := make([]byte, passUniformSize)
	off := 0
	putVec2 := func(v mgl32.Vec2) {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v.X()))
		binary.LittleEndian.PutUint32(buf[off+4:], math.Float32bits(v.Y()))
		off += 8
	}
	putVec2(p.QuadMin)
	putVec2(p.QuadMax)
	putVec2(p.UVStart)
	putVec2(p.UVStep)
	putVec2(p.PixelStep)

	samples := max(p.Samples, 1)
	factor := p.SampleFactor
	if factor == 0 {
		factor = 1 / float32(samples)
	}
	binary.LittleEndian.PutUint32(buf[40:], uint32(samples)) //nolint:gosec // samples is small and positive
	binary.LittleEndian.PutUint32(buf[44:], math.Float32bits(factor))
	return buf
}

// PackComposite lays out p as the CompositeParams uniform block of
// CompositeShaderSource. Textures are bound separately.
func PackComposite(p composite.Parameters) []byte {
	buf := make([]byte, compositeUniformSize)
	off := 0
	putMat := func(m mgl32.Mat4) {
		// mgl32 matrices are column-major, as WGSL expects.
		for _, f := range m {
			binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(f))
			off += 4
		}
	}
	putF32 := func(f float32) {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(f))
		off += 4
	}
	putU32 := func(u uint32) {
		binary.LittleEndian.PutUint32(buf[off:], u)
		off += 4
	}

	putMat(p.FullTextureMatrix)
	putMat(p.MosaicTextureMatrix)
	putMat(p.MaskMatrix)
	putF32(p.Alpha)
	putF32(p.MaskSizeInner)
	putF32(p.MaskSizeOuter)
	putF32(p.MaskSizeFactor)
	putU32(uint32(p.Mask))
	putU32(boolU32(p.ShowMask))
	putU32(boolU32(p.Premultiplied))
	return buf
}

func boolU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
