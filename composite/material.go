// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package composite

import (
	"slices"

	"github.com/gogpu/mosaic/host"
)

// MaterialName is the name reported by the compositing material.
const MaterialName = "mosaic.composite"

// Material is the host material swapped onto every renderer of the target
// layer. Hosts recognize it by type and shade with its Parameters.
type Material struct {
	params Parameters
}

var _ host.Material = (*Material)(nil)

// NewMaterial returns a material with empty parameters.
func NewMaterial() *Material { return &Material{} }

// Name returns MaterialName.
func (m *Material) Name() string { return MaterialName }

// Parameters returns the parameters of the current frame.
func (m *Material) Parameters() Parameters { return m.params }

// SetParameters replaces the parameters.
func (m *Material) SetParameters(p Parameters) { m.params = p }

// SavedState is the material list of a set of renderers, taken before a
// swap so it can be put back after the frame renders.
type SavedState struct {
	renderers []host.Renderer
	materials [][]host.Material
}

// Capture saves the current materials of rs.
func Capture(rs []host.Renderer) *SavedState {
	s := &SavedState{
		renderers: rs,
		materials: make([][]host.Material, len(rs)),
	}
	for i, r := range rs {
		s.materials[i] = slices.Clone(r.Materials())
	}
	return s
}

// Len returns the number of saved renderers.
func (s *SavedState) Len() int {
	if s == nil {
		return 0
	}
	return len(s.renderers)
}

// Restore puts back the saved materials. Only the first call has an
// effect, and a nil state is a no-op.
func (s *SavedState) Restore() {
	if s == nil {
		return
	}
	for i, r := range s.renderers {
		r.SetMaterials(s.materials[i])
	}
	s.renderers = nil
	s.materials = nil
}

// Apply saves the materials of rs and replaces every material slot with m.
// Restore the returned state once the frame has rendered. An empty rs
// yields an empty state.
func Apply(rs []host.Renderer, m *Material) *SavedState {
	s := Capture(rs)
	for i, r := range rs {
		swapped := make([]host.Material, len(s.materials[i]))
		for j := range swapped {
			swapped[j] = m
		}
		r.SetMaterials(swapped)
	}
	return s
}
