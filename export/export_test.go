// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package export

import (
	"context"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/config"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/host"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/materials"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/math32"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScene() *host.Scene {
	sc := &host.Scene{Name: "test"}
	sc.Render.Defaults()
	sc.Render.ResolutionX, sc.Render.ResolutionY = 640, 480
	sc.Camera = &host.Camera{
		Name:      "Camera",
		World:     math32.Identity4(),
		AngleX:    math32.DegToRad(39.6),
		ClipStart: 0.1,
		ClipEnd:   100,
	}
	sc.World = &host.World{Name: "World", Color: math32.Vector3Scalar(shader.DefaultWorldColor)}
	return sc
}

// cube is a unit cube with 8 vertices and 12 triangles.
func cube() *host.TriMesh {
	v := []math32.Vector3{
		math32.Vec3(-1, -1, -1), math32.Vec3(1, -1, -1), math32.Vec3(1, 1, -1), math32.Vec3(-1, 1, -1),
		math32.Vec3(-1, -1, 1), math32.Vec3(1, -1, 1), math32.Vec3(1, 1, 1), math32.Vec3(-1, 1, 1),
	}
	f := [][3]int{
		{0, 2, 1}, {0, 3, 2}, {4, 5, 6}, {4, 6, 7},
		{0, 1, 5}, {0, 5, 4}, {1, 2, 6}, {1, 6, 5},
		{2, 3, 7}, {2, 7, 6}, {3, 0, 4}, {3, 4, 7},
	}
	return &host.TriMesh{MeshName: "Cube", Vertices: v, Faces: f}
}

func surface(name string, nodes ...*host.Node) *host.Material {
	out := &host.Node{Name: "Material Output", Kind: host.OutputMaterial,
		Inputs: []*host.Socket{{Name: "Surface", Link: &host.Link{From: nodes[0]}}}}
	return &host.Material{Name: name, Nodes: &host.NodeTree{Nodes: append([]*host.Node{out}, nodes...)}}
}

func diffuse(col ...float32) *host.Node {
	return &host.Node{Name: "Diffuse", Kind: host.BsdfDiffuse,
		Inputs: []*host.Socket{{Name: "Color", Value: append(col, 1)}, {Name: "Roughness", Value: float32(0)}}}
}

func object(name string, mesh host.Mesh, world math32.Matrix4, mats ...*host.Material) *host.Instance {
	return &host.Instance{Name: name, Mesh: mesh, World: world, Materials: mats, ShowInstancer: true}
}

func run(t *testing.T, sc *host.Scene, opts config.Options) (string, string) {
	fn := filepath.Join(t.TempDir(), "scene.xml")
	require.NoError(t, New(opts).Export(context.Background(), sc, fn))
	b, err := os.ReadFile(fn)
	require.NoError(t, err)
	checkRefs(t, fn)
	return string(b), filepath.Dir(fn)
}

// checkRefs reads the given file and the files it includes, in order,
// and checks that every ref names an id written before it, and that
// no id is written twice. It returns the included file names.
func checkRefs(t *testing.T, fn string) []string {
	ids := map[string]bool{}
	var includes []string
	var read func(fn string)
	read = func(fn string) {
		f, err := os.Open(fn)
		require.NoError(t, err)
		defer f.Close()
		dec := xml.NewDecoder(f)
		for {
			tok, err := dec.Token()
			if err == io.EOF {
				break
			}
			require.NoError(t, err, fn)
			se, ok := tok.(xml.StartElement)
			if !ok {
				continue
			}
			attrs := map[string]string{}
			for _, a := range se.Attr {
				attrs[a.Name.Local] = a.Value
			}
			switch se.Name.Local {
			case "ref":
				assert.True(t, ids[attrs["id"]], "ref to %q before its declaration", attrs["id"])
			case "include":
				includes = append(includes, attrs["filename"])
				read(filepath.Join(filepath.Dir(fn), filepath.FromSlash(attrs["filename"])))
			default:
				if id, ok := attrs["id"]; ok {
					assert.False(t, ids[id], "duplicate id %q", id)
					ids[id] = true
				}
			}
		}
	}
	read(fn)
	return includes
}

func TestEmptyScene(t *testing.T) {
	got, _ := run(t, newScene(), config.Defaults())
	assert.Contains(t, got, `<sensor type="perspective" id="Camera">`)
	assert.Contains(t, got, `<string name="fov_axis" value="x"/>`)
	assert.Contains(t, got, `<film type="hdrfilm" name="film">`)
	assert.Contains(t, got, `<rfilter type="gaussian" name="rfilter"/>`)
	assert.Contains(t, got, `<integrator type="path">`)
	assert.Contains(t, got, `<integer name="max_depth" value="12"/>`)
	assert.NotContains(t, got, "<emitter")
	assert.NotContains(t, got, "<shape")
}

func TestBackground(t *testing.T) {
	opts := config.Defaults()
	opts.IgnoreBackground = false
	got, _ := run(t, newScene(), opts)
	assert.Contains(t, got, `<emitter type="constant" id="World">`)

	sc := newScene()
	sc.World.Color = math32.Vec3(0.2, 0.3, 0.4)
	got, _ = run(t, sc, config.Defaults())
	assert.Contains(t, got, `<rgb name="radiance" value="0.200000 0.300000 0.400000"/>`)

	// untranslatable worlds are left out
	sc = newScene()
	sc.World.Nodes = &host.NodeTree{Nodes: []*host.Node{
		{Name: "World Output", Kind: host.OutputWorld, Inputs: []*host.Socket{{Name: "Surface", Link: &host.Link{From: diffuse(1, 1, 1)}}}},
	}}
	got, _ = run(t, sc, config.Defaults())
	assert.NotContains(t, got, "<emitter")
}

func TestCubeDiffuse(t *testing.T) {
	sc := newScene()
	mesh := cube()
	sc.Meshes = []host.Mesh{mesh}
	sc.Instances = []*host.Instance{object("Cube", mesh, math32.Identity4(), surface("Mat", diffuse(0.8, 0.1, 0.1)))}
	got, dir := run(t, sc, config.Defaults())

	assert.FileExists(t, filepath.Join(dir, "meshes", "Cube.ply"))
	assert.Contains(t, got, `<bsdf type="twosided" id="Mat">
		<bsdf type="diffuse" name="bsdf">
			<rgb name="reflectance" value="0.800000 0.100000 0.100000"/>
		</bsdf>
	</bsdf>`)
	assert.Contains(t, got, `<shape type="ply" id="Cube">
		<string name="filename" value="meshes/Cube.ply"/>`)
	assert.Contains(t, got, `<ref name="bsdf" id="Mat"/>`)
	assert.Less(t, strings.Index(got, `id="Mat"`), strings.Index(got, `id="Cube"`))
}

func TestMixedMaterial(t *testing.T) {
	sc := newScene()
	mesh := cube()
	em := &host.Node{Name: "Emission", Kind: host.Emission,
		Inputs: []*host.Socket{{Name: "Color", Value: []float32{1, 1, 1, 1}}, {Name: "Strength", Value: float32(10)}}}
	d := diffuse(0.5, 0.5, 0.5)
	add := &host.Node{Name: "Add", Kind: host.AddShader,
		Inputs: []*host.Socket{{Name: "Shader", Link: &host.Link{From: d}}, {Name: "Shader", Link: &host.Link{From: em}}}}
	mat := surface("Mat", add, d, em)
	sc.Instances = []*host.Instance{
		object("A", mesh, math32.Identity4(), mat),
		object("B", mesh, math32.Matrix4Translation(math32.Vec3(3, 0, 0)), mat),
	}
	got, _ := run(t, sc, config.Defaults())

	assert.Contains(t, got, `<bsdf type="twosided" id="Mat">`)
	assert.Equal(t, 1, strings.Count(got, `id="`+materials.EmptyEmitterBSDF+`"`))
	assert.Equal(t, 2, strings.Count(got, `<ref name="bsdf" id="Mat"/>`))
	assert.Equal(t, 2, strings.Count(got, `<emitter type="area" name="emitter">`))
	// emitting shapes come before plain geometry, after materials
	assert.Less(t, strings.Index(got, `id="Mat"`), strings.Index(got, `id="A"`))
}

func TestInstances(t *testing.T) {
	sc := newScene()
	mesh := cube()
	mat := surface("Mat", diffuse(0.8, 0.8, 0.8))
	sc.Instances = []*host.Instance{
		object("A", mesh, math32.Identity4(), mat),
		object("B", mesh, math32.Matrix4Translation(math32.Vec3(3, 0, 0)), mat),
	}
	got, dir := run(t, sc, config.Defaults())

	entries, err := os.ReadDir(filepath.Join(dir, "meshes"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, 2, strings.Count(got, `<shape type="ply"`))
	assert.Equal(t, 2, strings.Count(got, `value="meshes/Cube.ply"`))
	assert.Contains(t, got, `<matrix value="1.000000 0.000000 0.000000 3.000000`)
	assert.Contains(t, got, `<matrix value="1.000000 0.000000 0.000000 0.000000`)
}

func TestSplitFiles(t *testing.T) {
	sc := newScene()
	mesh := cube()
	sc.Instances = []*host.Instance{object("Cube", mesh, math32.Identity4(), surface("Mat", diffuse(0.8, 0.1, 0.1)))}
	sc.Lights = []*host.Light{{Name: "Lamp", Type: host.PointLight, World: math32.Identity4(), Color: math32.Vec3(1, 1, 1), Energy: 100}}
	opts := config.Defaults()
	opts.SplitFiles = true
	fn := filepath.Join(t.TempDir(), "scene.xml")
	require.NoError(t, New(opts).Export(context.Background(), sc, fn))

	includes := checkRefs(t, fn)
	want := []string{
		"fragments/scene-render.xml",
		"fragments/scene-materials.xml",
		"fragments/scene-emitters.xml",
		"fragments/scene-geometry.xml",
	}
	if diff := cmp.Diff(want, includes); diff != "" {
		t.Errorf("includes (-want +got):\n%s", diff)
	}
	b, err := os.ReadFile(filepath.Join(filepath.Dir(fn), "fragments", "scene-emitters.xml"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), `<?xml version="1.0" encoding="utf-8"?>`))
	assert.Contains(t, string(b), `<emitter type="point" id="Lamp">`)

	main, err := os.ReadFile(fn)
	require.NoError(t, err)
	assert.NotContains(t, string(main), "<shape")
	assert.Contains(t, string(main), `<default name="spp" value="64"/>`)
}

func TestDefaults(t *testing.T) {
	sc := newScene()
	sc.Render.Samples = 128
	got, _ := run(t, sc, config.Defaults())
	assert.Contains(t, got, `<default name="spp" value="128"/>`)
	assert.Contains(t, got, `<default name="resx" value="640"/>`)
	assert.Contains(t, got, `<default name="resy" value="480"/>`)
	assert.Contains(t, got, `<integer name="sample_count" value="$spp"/>`)
	assert.Contains(t, got, `<integer name="width" value="$resx"/>`)
	assert.Less(t, strings.Index(got, `<default name="spp"`), strings.Index(got, "<sensor"))
}

func TestLights(t *testing.T) {
	sc := newScene()
	sc.Lights = []*host.Light{
		{Name: "Point", Type: host.PointLight, World: math32.Matrix4Translation(math32.Vec3(1, 2, 3)), Color: math32.Vec3(1, 1, 1), Energy: 4 * math32.Pi},
		{Name: "Sun", Type: host.SunLight, World: math32.Identity4(), Color: math32.Vec3(1, 1, 1), Energy: 2},
		{Name: "Spot", Type: host.SpotLight, World: math32.Identity4(), Color: math32.Vec3(1, 1, 1), Energy: 10, SpotSize: math32.DegToRad(90), SpotBlend: 0.5},
		{Name: "Area", Type: host.AreaLight, World: math32.Identity4(), Color: math32.Vec3(1, 1, 1), Energy: 10, Shape: host.Rectangle, Size: 2, SizeY: 1},
	}
	got, _ := run(t, sc, config.Defaults())
	assert.Contains(t, got, `<emitter type="point" id="Point">
		<point name="position" value="1.000000 2.000000 3.000000"/>
		<rgb name="intensity" value="1.000000 1.000000 1.000000"/>`)
	assert.Contains(t, got, `<emitter type="directional" id="Sun">`)
	assert.Contains(t, got, `<rgb name="irradiance" value="2.000000 2.000000 2.000000"/>`)
	assert.Contains(t, got, `<float name="cutoff_angle" value="45`)
	assert.Contains(t, got, `<float name="beam_width" value="22.5`)
	assert.Contains(t, got, `<shape type="rectangle" id="Area">`)
	assert.Contains(t, got, `<emitter type="area" name="emitter">`)
}

func TestNameClash(t *testing.T) {
	sc := newScene()
	sc.Lights = []*host.Light{
		{Name: "Lamp", Type: host.PointLight, World: math32.Identity4(), Color: math32.Vec3(1, 1, 1), Energy: 1},
	}
	sc.World.Name = "Lamp"
	sc.World.Color = math32.Vec3(0.2, 0.3, 0.4)
	sc.Instances = []*host.Instance{object("Lamp", cube(), math32.Identity4())}
	got, _ := run(t, sc, config.Defaults())
	assert.Contains(t, got, `<emitter type="point" id="Lamp">`)
	assert.Contains(t, got, `<emitter type="constant" id="Lamp-1">`)
	assert.Contains(t, got, `<shape type="ply" id="Lamp-2">`)
}

func TestOrthographic(t *testing.T) {
	sc := newScene()
	sc.Camera.Type = host.Orthographic
	sc.Camera.OrthoScale = 4
	got, _ := run(t, sc, config.Defaults())
	assert.Contains(t, got, `<sensor type="orthographic" id="Camera">`)
	assert.Contains(t, got, `<scale x="2" y="2" z="1"/>`)
	assert.NotContains(t, got, "fov")
}

func TestCancel(t *testing.T) {
	sc := newScene()
	sc.Instances = []*host.Instance{object("Cube", cube(), math32.Identity4())}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := New(config.Defaults()).Export(ctx, sc, filepath.Join(t.TempDir(), "scene.xml"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInvalidOptions(t *testing.T) {
	opts := config.Defaults()
	opts.ColorMode = "cmyk"
	err := New(opts).Export(context.Background(), newScene(), filepath.Join(t.TempDir(), "scene.xml"))
	assert.Error(t, err)
}

func TestOpenExport(t *testing.T) {
	sc, err := host.Open(filepath.Join("testdata", "cube.yaml"))
	require.NoError(t, err)
	got, dir := run(t, sc, config.Defaults())
	assert.FileExists(t, filepath.Join(dir, "meshes", "Cube.ply"))
	assert.Contains(t, got, `<bsdf type="twosided" id="Red">`)
	assert.Contains(t, got, `<emitter type="point" id="Lamp">`)
}
