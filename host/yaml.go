// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitsuba-renderer/mitsuba-blender-sub001/base/iox/imagex"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/math32"
	"gopkg.in/yaml.v3"
)

// The YAML scene description mirrors the host data model. Matrices are
// 16 row-major floats, vectors and colors are lists, node inputs link
// to other nodes by "node" or "node:output".

type sceneFile struct {
	Name      string         `yaml:"name"`
	Render    renderFile     `yaml:"render"`
	Camera    *cameraFile    `yaml:"camera"`
	Lights    []lightFile    `yaml:"lights"`
	World     *worldFile     `yaml:"world"`
	Images    []imageFile    `yaml:"images"`
	Materials []materialFile `yaml:"materials"`
	Meshes    []meshFile     `yaml:"meshes"`
	Objects   []objectFile   `yaml:"objects"`
}

type renderFile struct {
	ResolutionX *int   `yaml:"resolution_x"`
	ResolutionY *int   `yaml:"resolution_y"`
	Percentage  *int   `yaml:"percentage"`
	Samples     *int   `yaml:"samples"`
	MaxDepth    *int   `yaml:"max_depth"`
	Integrator  string `yaml:"integrator"`
	PixelFilter string `yaml:"pixel_filter"`
}

type cameraFile struct {
	Name       string    `yaml:"name"`
	Type       string    `yaml:"type"`
	Matrix     []float32 `yaml:"matrix"`
	AngleX     *float32  `yaml:"angle_x"`
	ClipStart  *float32  `yaml:"clip_start"`
	ClipEnd    *float32  `yaml:"clip_end"`
	ShiftX     float32   `yaml:"shift_x"`
	ShiftY     float32   `yaml:"shift_y"`
	OrthoScale *float32  `yaml:"ortho_scale"`
}

type lightFile struct {
	Name      string     `yaml:"name"`
	Type      LightTypes `yaml:"type"`
	Matrix    []float32  `yaml:"matrix"`
	Color     []float32  `yaml:"color"`
	Energy    float32    `yaml:"energy"`
	SpotSize  float32    `yaml:"spot_size"`
	SpotBlend float32    `yaml:"spot_blend"`
	Shape     AreaShapes `yaml:"shape"`
	Size      float32    `yaml:"size"`
	SizeY     float32    `yaml:"size_y"`
}

type worldFile struct {
	Name  string     `yaml:"name"`
	Color []float32  `yaml:"color"`
	Nodes []nodeFile `yaml:"nodes"`
}

type imageFile struct {
	Name       string `yaml:"name"`
	Path       string `yaml:"path"`
	Format     string `yaml:"format"`
	Colorspace string `yaml:"colorspace"`
	Packed     bool   `yaml:"packed"`
}

type materialFile struct {
	Name          string     `yaml:"name"`
	ViewportColor []float32  `yaml:"viewport_color"`
	Nodes         []nodeFile `yaml:"nodes"`
}

type nodeFile struct {
	Name   string            `yaml:"name"`
	Kind   NodeKind          `yaml:"kind"`
	Props  map[string]string `yaml:"props"`
	Image  string            `yaml:"image"`
	Layer  string            `yaml:"layer"`
	Inputs []socketFile      `yaml:"inputs"`
}

type socketFile struct {
	Name  string `yaml:"name"`
	Value any    `yaml:"value"`
	Link  string `yaml:"link"`
}

type meshFile struct {
	Name          string       `yaml:"name"`
	Vertices      [][3]float32 `yaml:"vertices"`
	Normals       [][3]float32 `yaml:"normals"`
	UVs           [][2]float32 `yaml:"uvs"`
	UVLayers      *int         `yaml:"uv_layers"`
	Faces         [][3]int     `yaml:"faces"`
	MaterialIndex []int        `yaml:"material_index"`
}

type objectFile struct {
	Name          string    `yaml:"name"`
	Mesh          string    `yaml:"mesh"`
	Matrix        []float32 `yaml:"matrix"`
	Materials     []string  `yaml:"materials"`
	IsInstance    bool      `yaml:"is_instance"`
	Basis         []float32 `yaml:"basis"`
	IsInstancer   bool      `yaml:"is_instancer"`
	ShowInstancer *bool     `yaml:"show_instancer"`
}

func (nk *NodeKind) UnmarshalYAML(n *yaml.Node) error { return nk.SetString(n.Value) }

func (lt *LightTypes) UnmarshalYAML(n *yaml.Node) error { return lt.SetString(n.Value) }

func (as *AreaShapes) UnmarshalYAML(n *yaml.Node) error { return as.SetString(n.Value) }

// Open reads the scene described in the given YAML file. Relative
// image paths are resolved against the directory of the file.
func Open(filename string) (*Scene, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	abs, err := filepath.Abs(filename)
	if err != nil {
		return nil, err
	}
	sc, err := Read(f, filepath.Dir(abs))
	if err != nil {
		return nil, fmt.Errorf("host.Open: %s: %w", filename, err)
	}
	return sc, nil
}

// Read reads a YAML scene description, resolving relative
// image paths against dir.
func Read(r io.Reader, dir string) (*Scene, error) {
	var sf sceneFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&sf); err != nil && err != io.EOF {
		return nil, err
	}
	return sf.build(dir)
}

func (sf *sceneFile) build(dir string) (*Scene, error) {
	sc := &Scene{Name: sf.Name}
	sf.Render.build(&sc.Render)

	images := map[string]Image{}
	for _, imf := range sf.Images {
		im, err := imf.build(dir)
		if err != nil {
			return nil, err
		}
		images[imf.Name] = im
	}

	if sf.Camera != nil {
		cam, err := sf.Camera.build()
		if err != nil {
			return nil, err
		}
		sc.Camera = cam
	}
	for _, lf := range sf.Lights {
		m, err := matrix(lf.Matrix)
		if err != nil {
			return nil, fmt.Errorf("light %q: %w", lf.Name, err)
		}
		sc.Lights = append(sc.Lights, &Light{
			Name: lf.Name, Type: lf.Type, World: m,
			Color: color(lf.Color, math32.Vector3Scalar(1)), Energy: lf.Energy,
			SpotSize: lf.SpotSize, SpotBlend: lf.SpotBlend,
			Shape: lf.Shape, Size: lf.Size, SizeY: lf.SizeY,
		})
	}
	if sf.World != nil {
		w := &World{Name: sf.World.Name, Color: color(sf.World.Color, math32.Vector3Scalar(0.050876))}
		if len(sf.World.Nodes) > 0 {
			tree, err := buildTree(sf.World.Nodes, images)
			if err != nil {
				return nil, fmt.Errorf("world %q: %w", w.Name, err)
			}
			w.Nodes = tree
		}
		sc.World = w
	}
	for _, mf := range sf.Materials {
		mat := &Material{Name: mf.Name, ViewportColor: color(mf.ViewportColor, math32.Vector3Scalar(0.8))}
		if len(mf.Nodes) > 0 {
			tree, err := buildTree(mf.Nodes, images)
			if err != nil {
				return nil, fmt.Errorf("material %q: %w", mf.Name, err)
			}
			mat.Nodes = tree
		}
		sc.Materials = append(sc.Materials, mat)
	}
	for _, mf := range sf.Meshes {
		sc.Meshes = append(sc.Meshes, mf.build())
	}
	for _, of := range sf.Objects {
		inst, err := of.build(sc)
		if err != nil {
			return nil, err
		}
		sc.Instances = append(sc.Instances, inst)
	}
	return sc, nil
}

func (rf *renderFile) build(rs *RenderSettings) {
	rs.Defaults()
	setInt(&rs.ResolutionX, rf.ResolutionX)
	setInt(&rs.ResolutionY, rf.ResolutionY)
	setInt(&rs.Percentage, rf.Percentage)
	setInt(&rs.Samples, rf.Samples)
	setInt(&rs.MaxDepth, rf.MaxDepth)
	if rf.Integrator != "" {
		rs.Integrator = rf.Integrator
	}
	if rf.PixelFilter != "" {
		rs.PixelFilter = rf.PixelFilter
	}
}

func (cf *cameraFile) build() (*Camera, error) {
	m, err := matrix(cf.Matrix)
	if err != nil {
		return nil, fmt.Errorf("camera %q: %w", cf.Name, err)
	}
	cam := &Camera{Name: cf.Name, World: m, ShiftX: cf.ShiftX, ShiftY: cf.ShiftY}
	switch strings.ToUpper(cf.Type) {
	case "", "PERSP":
		cam.Type = Perspective
	case "ORTHO":
		cam.Type = Orthographic
	default:
		return nil, fmt.Errorf("camera %q: unknown type %q", cf.Name, cf.Type)
	}
	cam.AngleX = math32.DegToRad(39.6)
	cam.ClipStart = 0.1
	cam.ClipEnd = 100
	cam.OrthoScale = 6
	setFloat(&cam.AngleX, cf.AngleX)
	setFloat(&cam.ClipStart, cf.ClipStart)
	setFloat(&cam.ClipEnd, cf.ClipEnd)
	setFloat(&cam.OrthoScale, cf.OrthoScale)
	return cam, nil
}

func (imf *imageFile) build(dir string) (*FileImage, error) {
	path := imf.Path
	if path != "" && !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	im := &FileImage{ImageName: imf.Name, Path: path, ColorSpace: imf.Colorspace}
	if im.ColorSpace == "" {
		im.ColorSpace = "sRGB"
	}
	var err error
	if imf.Format != "" {
		im.FileFormat, err = imagex.ParseFormat(imf.Format)
	} else {
		im.FileFormat, err = imagex.ExtToFormat(filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("image %q: %w", imf.Name, err)
	}
	if imf.Packed {
		im.Data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("image %q: %w", imf.Name, err)
		}
	}
	return im, nil
}

func (mf *meshFile) build() *TriMesh {
	tm := &TriMesh{MeshName: mf.Name, Faces: mf.Faces, MaterialIndex: mf.MaterialIndex, UVs: mf.UVs}
	for _, v := range mf.Vertices {
		tm.Vertices = append(tm.Vertices, math32.Vec3(v[0], v[1], v[2]))
	}
	for _, v := range mf.Normals {
		tm.Normals = append(tm.Normals, math32.Vec3(v[0], v[1], v[2]))
	}
	if len(tm.UVs) > 0 {
		tm.UVLayerCount = 1
	}
	setInt(&tm.UVLayerCount, mf.UVLayers)
	return tm
}

func (of *objectFile) build(sc *Scene) (*Instance, error) {
	m, err := matrix(of.Matrix)
	if err != nil {
		return nil, fmt.Errorf("object %q: %w", of.Name, err)
	}
	basis, err := matrix(of.Basis)
	if err != nil {
		return nil, fmt.Errorf("object %q: basis: %w", of.Name, err)
	}
	inst := &Instance{
		Name: of.Name, World: m, Basis: basis,
		IsInstance: of.IsInstance, IsInstancer: of.IsInstancer,
		ShowInstancer: of.ShowInstancer == nil || *of.ShowInstancer,
	}
	inst.Mesh = sc.Mesh(of.Mesh)
	if inst.Mesh == nil {
		return nil, fmt.Errorf("object %q: unknown mesh %q", of.Name, of.Mesh)
	}
	for _, mn := range of.Materials {
		if mn == "" {
			inst.Materials = append(inst.Materials, nil)
			continue
		}
		mat := sc.Material(mn)
		if mat == nil {
			return nil, fmt.Errorf("object %q: unknown material %q", of.Name, mn)
		}
		inst.Materials = append(inst.Materials, mat)
	}
	return inst, nil
}

// buildTree creates the nodes and then resolves the links between them.
func buildTree(nfs []nodeFile, images map[string]Image) (*NodeTree, error) {
	tree := &NodeTree{}
	for _, nf := range nfs {
		if tree.Node(nf.Name) != nil {
			return nil, fmt.Errorf("duplicate node %q", nf.Name)
		}
		n := &Node{Name: nf.Name, Kind: nf.Kind, Props: nf.Props, Layer: nf.Layer}
		if nf.Image != "" {
			im, ok := images[nf.Image]
			if !ok {
				return nil, fmt.Errorf("node %q: unknown image %q", nf.Name, nf.Image)
			}
			n.Image = im
		}
		tree.Nodes = append(tree.Nodes, n)
	}
	for i, nf := range nfs {
		n := tree.Nodes[i]
		for _, sf := range nf.Inputs {
			s := &Socket{Name: sf.Name}
			v, err := socketValue(sf.Value)
			if err != nil {
				return nil, fmt.Errorf("node %q: input %q: %w", nf.Name, sf.Name, err)
			}
			s.Value = v
			if sf.Link != "" {
				from, out, _ := strings.Cut(sf.Link, ":")
				fn := tree.Node(from)
				if fn == nil {
					return nil, fmt.Errorf("node %q: input %q: unknown node %q", nf.Name, sf.Name, from)
				}
				s.Link = &Link{From: fn, Output: out}
			}
			n.Inputs = append(n.Inputs, s)
		}
	}
	return tree, nil
}

// socketValue converts a decoded YAML value into one of the
// socket value types.
func socketValue(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case int:
		return float32(x), nil
	case float64:
		return float32(x), nil
	case string, bool:
		return x, nil
	case []any:
		fs := make([]float32, len(x))
		for i, e := range x {
			switch n := e.(type) {
			case int:
				fs[i] = float32(n)
			case float64:
				fs[i] = float32(n)
			default:
				return nil, fmt.Errorf("non-numeric component %v", e)
			}
		}
		return fs, nil
	}
	return nil, fmt.Errorf("unsupported value %v", v)
}

// matrix returns the matrix of 16 row-major values, or the
// identity when none are given.
func matrix(vals []float32) (math32.Matrix4, error) {
	if len(vals) == 0 {
		return math32.Identity4(), nil
	}
	if len(vals) != 16 {
		return math32.Identity4(), fmt.Errorf("matrix has %d values, must have 16", len(vals))
	}
	var m math32.Matrix4
	copy(m[:], vals)
	return m, nil
}

// color returns the first three components of vals, or def.
func color(vals []float32, def math32.Vector3) math32.Vector3 {
	if len(vals) < 3 {
		return def
	}
	return math32.Vec3(vals[0], vals[1], vals[2])
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float32, v *float32) {
	if v != nil {
		*dst = *v
	}
}
