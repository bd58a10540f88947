// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package host models the scene of the 3D application being exported:
// plain data for cameras, lights, worlds, materials and objects, and
// handle interfaces for the images and meshes that the application
// writes to disk itself. A reference implementation of the handles,
// loaded from a YAML scene description, is provided by [Open].
package host

import (
	"fmt"
	"strings"

	"github.com/mitsuba-renderer/mitsuba-blender-sub001/base/iox/imagex"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/math32"
)

// Scene is a host scene to export.
type Scene struct {
	Name   string
	Render RenderSettings

	// Camera is the active camera, or nil.
	Camera *Camera

	Lights    []*Light
	World     *World
	Materials []*Material
	Meshes    []Mesh
	Instances []*Instance
}

// Material returns the material with the given name, or nil.
func (sc *Scene) Material(name string) *Material {
	for _, m := range sc.Materials {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Mesh returns the mesh with the given name, or nil.
func (sc *Scene) Mesh(name string) Mesh {
	for _, m := range sc.Meshes {
		if m.Name() == name {
			return m
		}
	}
	return nil
}

// RenderSettings are the render settings of the scene.
type RenderSettings struct {
	ResolutionX int
	ResolutionY int

	// Percentage scales the resolution.
	Percentage int

	// Samples is the number of samples per pixel.
	Samples int

	// MaxDepth is the maximum path depth, -1 for infinite.
	MaxDepth int

	// Integrator is the integrator plugin name.
	Integrator string

	// PixelFilter is the reconstruction filter plugin name.
	PixelFilter string
}

// Defaults sets the default render settings.
func (rs *RenderSettings) Defaults() {
	rs.ResolutionX = 1920
	rs.ResolutionY = 1080
	rs.Percentage = 100
	rs.Samples = 64
	rs.MaxDepth = 12
	rs.Integrator = "path"
	rs.PixelFilter = "gaussian"
}

// Size returns the output image size after the percentage scaling.
func (rs *RenderSettings) Size() (width, height int) {
	return rs.ResolutionX * rs.Percentage / 100, rs.ResolutionY * rs.Percentage / 100
}

// CameraTypes are the camera projections.
type CameraTypes int32

const (
	Perspective CameraTypes = iota
	Orthographic
)

func (ct CameraTypes) String() string {
	if ct == Orthographic {
		return "ORTHO"
	}
	return "PERSP"
}

// Camera is a scene camera. The camera looks down its local -Z axis.
type Camera struct {
	Name  string
	World math32.Matrix4
	Type  CameraTypes

	// AngleX is the horizontal field of view in radians.
	AngleX float32

	ClipStart float32
	ClipEnd   float32

	// ShiftX and ShiftY are the lens shift in units of the larger
	// image dimension.
	ShiftX float32
	ShiftY float32

	// OrthoScale is the width of the orthographic view.
	OrthoScale float32
}

// LightTypes are the light kinds.
type LightTypes int32

const (
	PointLight LightTypes = iota
	SunLight
	SpotLight
	AreaLight
)

var lightTypeNames = [...]string{"POINT", "SUN", "SPOT", "AREA"}

func (lt LightTypes) String() string {
	if lt < 0 || int(lt) >= len(lightTypeNames) {
		return fmt.Sprintf("LightTypes(%d)", lt)
	}
	return lightTypeNames[lt]
}

// SetString sets the light type from its name.
func (lt *LightTypes) SetString(s string) error {
	for i, nm := range lightTypeNames {
		if strings.EqualFold(nm, s) {
			*lt = LightTypes(i)
			return nil
		}
	}
	return fmt.Errorf("host: unknown light type %q", s)
}

// AreaShapes are the shapes of area lights.
type AreaShapes int32

const (
	Square AreaShapes = iota
	Rectangle
	Disk
	Ellipse
)

var areaShapeNames = [...]string{"SQUARE", "RECTANGLE", "DISK", "ELLIPSE"}

func (as AreaShapes) String() string {
	if as < 0 || int(as) >= len(areaShapeNames) {
		return fmt.Sprintf("AreaShapes(%d)", as)
	}
	return areaShapeNames[as]
}

// SetString sets the area shape from its name.
func (as *AreaShapes) SetString(s string) error {
	for i, nm := range areaShapeNames {
		if strings.EqualFold(nm, s) {
			*as = AreaShapes(i)
			return nil
		}
	}
	return fmt.Errorf("host: unknown area light shape %q", s)
}

// Light is a scene light. Directional lights shine down their local -Z axis.
type Light struct {
	Name  string
	Type  LightTypes
	World math32.Matrix4
	Color math32.Vector3

	// Energy is the power in watts, or the irradiance in W/m² for a sun.
	Energy float32

	// SpotSize is the full cone angle of a spot light in radians.
	SpotSize float32

	// SpotBlend is the softness of the spot cone edge, in 0-1.
	SpotBlend float32

	Shape AreaShapes

	// Size is the width of an area light, and SizeY its height
	// for rectangles and ellipses.
	Size  float32
	SizeY float32
}

// World is the scene background.
type World struct {
	Name  string
	Color math32.Vector3

	// Nodes is the shader graph, nil if the world does not use nodes.
	Nodes *NodeTree
}

// Material is a surface material.
type Material struct {
	Name string

	// ViewportColor is used when the material has no node graph.
	ViewportColor math32.Vector3

	// Nodes is the shader graph, nil if the material does not use nodes.
	Nodes *NodeTree
}

// Instance is one mesh object to render.
type Instance struct {
	Name  string
	Mesh  Mesh
	World math32.Matrix4

	// Materials are the material slots, with nil for empty slots.
	Materials []*Material

	// IsInstance is whether this is a per-instance copy
	// generated by an instancer rather than an original object.
	IsInstance bool

	// Basis is the world matrix of the original object of a copy.
	Basis math32.Matrix4

	// IsInstancer is whether this object instances other objects.
	IsInstancer bool

	// ShowInstancer is whether an instancer is itself rendered.
	ShowInstancer bool
}

// Image is a handle to an image owned by the host.
type Image interface {

	// ID is a stable identifier of the image data.
	ID() string

	// Name is the name of the image.
	Name() string

	// Filepath is the absolute path of the image file,
	// empty for packed images.
	Filepath() string

	// Packed is whether the image data lives inside the host scene.
	Packed() bool

	// Format is the file format of the image.
	Format() imagex.Formats

	// Colorspace is the color space name, such as sRGB or Non-Color.
	Colorspace() string

	// Save writes the image to the given file in the given format.
	Save(filename string, format imagex.Formats) error
}

// Mesh is a handle to mesh data owned by the host.
type Mesh interface {

	// Name is the name of the mesh data.
	Name() string

	// NumTriangles is the number of triangles using the given
	// material slot, or all triangles for slot -1.
	NumTriangles(slot int) int

	// UVLayers is the number of texture coordinate layers.
	UVLayers() int

	// WritePLY writes the triangles using the given material slot,
	// or all triangles for slot -1, to the given PLY file.
	WritePLY(filename string, slot int) error
}
