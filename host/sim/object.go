// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sim

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/mosaic/host"
	"github.com/gogpu/mosaic/surface"
)

// Material is a flat color.
type Material struct {
	name  string
	Color surface.RGBA
}

// NewMaterial returns a flat color material.
func NewMaterial(name string, c surface.RGBA) *Material {
	return &Material{name: name, Color: c}
}

// Name returns the material name.
func (m *Material) Name() string { return m.name }

// Shape is the outline of a sprite.
type Shape uint8

const (
	// ShapeSquare is an axis-aligned square.
	ShapeSquare Shape = iota

	// ShapeDisc is a circle.
	ShapeDisc
)

// String returns the shape name.
func (s Shape) String() string {
	switch s {
	case ShapeSquare:
		return "square"
	case ShapeDisc:
		return "disc"
	default:
		return fmt.Sprintf("Shape(%d)", uint8(s))
	}
}

// Object is a camera-facing sprite. It is both a host.Renderer and a
// host.Transform, so it can serve as the anchor or the mask sphere; its
// local space has a diameter of one unit.
type Object struct {
	Name   string
	Shape  Shape
	Center mgl32.Vec3

	// Size is the sprite width and height in world units.
	Size float32

	layer     int
	materials []host.Material
	shadow    host.ShadowMode
}

var (
	_ host.Renderer  = (*Object)(nil)
	_ host.Transform = (*Object)(nil)
)

// NewObject returns a shadow-casting sprite with one material slot.
func NewObject(name string, layer int, shape Shape, center mgl32.Vec3, size float32, m host.Material) *Object {
	return &Object{
		Name:      name,
		Shape:     shape,
		Center:    center,
		Size:      size,
		layer:     layer,
		materials: []host.Material{m},
	}
}

func (o *Object) Layer() int                      { return o.layer }
func (o *Object) Materials() []host.Material      { return o.materials }
func (o *Object) SetMaterials(m []host.Material)  { o.materials = m }
func (o *Object) ShadowMode() host.ShadowMode     { return o.shadow }
func (o *Object) SetShadowMode(m host.ShadowMode) { o.shadow = m }
func (o *Object) Position() mgl32.Vec3            { return o.Center }

// WorldToLocal maps the sprite's bounding sphere onto the unit-diameter
// sphere at the origin.
func (o *Object) WorldToLocal() mgl32.Mat4 {
	s := o.Size
	if s <= 0 {
		s = 1
	}
	return mgl32.Scale3D(1/s, 1/s, 1/s).Mul4(mgl32.Translate3D(-o.Center.X(), -o.Center.Y(), -o.Center.Z()))
}

// draws reports whether the object is drawn by a camera with cull mask.
func (o *Object) draws(mask uint32) bool {
	return host.Visible(mask, o.layer) && o.shadow != host.ShadowsOnly
}

// casts reports whether the object casts shadows for a camera with mask.
func (o *Object) casts(mask uint32) bool {
	return host.Visible(mask, o.layer) && o.shadow != host.ShadowsOff
}
