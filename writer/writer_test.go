// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package writer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mitsuba-renderer/mitsuba-blender-sub001/assets"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/math32"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/plugin"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/preprocess"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, sc *scene.Scene, opts Options, split bool) (string, string) {
	dir := t.TempDir()
	fn := filepath.Join(dir, "scene.xml")
	r, err := preprocess.Process(sc, preprocess.Options{Split: split, Name: "scene"})
	require.NoError(t, err)
	w := New(assets.New(dir, nil), opts)
	require.NoError(t, w.SetFilename(fn, split))
	require.NoError(t, w.Configure(r))
	b, err := os.ReadFile(fn)
	require.NoError(t, err)
	return string(b), dir
}

func add(t *testing.T, sc *scene.Scene, d *plugin.Dict, name string) {
	_, err := sc.Add(d, name)
	require.NoError(t, err)
}

func TestWriteCube(t *testing.T) {
	sc := scene.New()
	add(t, sc, plugin.New("ply").
		Set("filename", "meshes/Cube.ply").
		Set("to_world", math32.Identity4()).
		Set("bsdf", plugin.NewRef("Mat")), "Cube")
	add(t, sc, plugin.New("twosided").Set("bsdf", plugin.New("diffuse").
		Set("reflectance", plugin.NewRGB(math32.Vec3(0.8, 0.1, 0.1)))), "Mat")

	got, _ := write(t, sc, Options{ExportIDs: true}, false)
	want := `<?xml version="1.0" encoding="utf-8"?>
<scene version="2.0.0">
	<bsdf type="twosided" id="Mat">
		<bsdf type="diffuse" name="bsdf">
			<rgb name="reflectance" value="0.800000 0.100000 0.100000"/>
		</bsdf>
	</bsdf>
	<shape type="ply" id="Cube">
		<string name="filename" value="meshes/Cube.ply"/>
		<transform name="to_world">
			<matrix value="1.000000 0.000000 0.000000 0.000000 0.000000 1.000000 0.000000 0.000000 0.000000 0.000000 1.000000 0.000000 0.000000 0.000000 0.000000 1.000000"/>
		</transform>
		<ref name="bsdf" id="Mat"/>
	</shape>
</scene>
`
	assert.Equal(t, want, got)
}

func TestWriteSensor(t *testing.T) {
	sc := scene.New()
	add(t, sc, plugin.New("perspective").
		Set("fov", float32(39.6)).
		Set("fov_axis", "x").
		Set("to_world", math32.Matrix4Translation(math32.Vec3(1, 2, 3))).
		Set("sampler", plugin.New("independent").Set("sample_count", 128)).
		Set("film", plugin.New("hdrfilm").Set("width", 640).Set("height", 480).
			Set("rfilter", plugin.New("gaussian"))), "Camera")

	got, _ := write(t, sc, Options{ExportIDs: true}, false)
	want := `<?xml version="1.0" encoding="utf-8"?>
<scene version="2.0.0">
	<default name="spp" value="128"/>
	<default name="resx" value="640"/>
	<default name="resy" value="480"/>
	<sensor type="perspective" id="Camera">
		<float name="fov" value="39.6"/>
		<string name="fov_axis" value="x"/>
		<transform name="to_world">
			<rotate x="1" angle="0"/>
			<rotate y="1" angle="0"/>
			<rotate z="1" angle="0"/>
			<translate x="1" y="2" z="3"/>
		</transform>
		<sampler type="independent" name="sampler">
			<integer name="sample_count" value="$spp"/>
		</sampler>
		<film type="hdrfilm" name="film">
			<integer name="width" value="$resx"/>
			<integer name="height" value="$resy"/>
			<rfilter type="gaussian" name="rfilter"/>
		</film>
	</sensor>
</scene>
`
	assert.Equal(t, want, got)
}

func TestWriteOrthographicScale(t *testing.T) {
	sc := scene.New()
	add(t, sc, plugin.New("orthographic").
		Set("to_world", math32.Matrix4Scale(math32.Vec3(2, 2, 1))), "Ortho")
	add(t, sc, plugin.New("perspective").
		Set("to_world", math32.Matrix4Scale(math32.Vec3(2, 2, 1))), "Persp")

	got, _ := write(t, sc, Options{ExportIDs: true}, false)
	ortho := got[strings.Index(got, `id="Ortho"`):strings.Index(got, `id="Persp"`)]
	persp := got[strings.Index(got, `id="Persp"`):]
	assert.Contains(t, ortho, `<scale x="2" y="2" z="1"/>`)
	assert.NotContains(t, persp, "<scale")
}

func TestWriteSplit(t *testing.T) {
	sc := scene.New()
	add(t, sc, plugin.New("ply").Set("bsdf", plugin.NewRef("Mat")), "Cube")
	add(t, sc, plugin.New("diffuse"), "Mat")
	add(t, sc, plugin.New("path"), "")

	got, dir := write(t, sc, Options{ExportIDs: true}, true)
	want := `<?xml version="1.0" encoding="utf-8"?>
<scene version="2.0.0">
	<include filename="fragments/scene-render.xml"/>
	<include filename="fragments/scene-materials.xml"/>
	<include filename="fragments/scene-emitters.xml"/>
	<include filename="fragments/scene-geometry.xml"/>
</scene>
`
	assert.Equal(t, want, got)

	b, err := os.ReadFile(filepath.Join(dir, "fragments", "scene-materials.xml"))
	require.NoError(t, err)
	assert.Equal(t, `<?xml version="1.0" encoding="utf-8"?>
<!-- materials of scene.xml -->
<scene version="2.0.0">
	<bsdf type="diffuse" id="Mat"/>
</scene>
`, string(b))

	b, err = os.ReadFile(filepath.Join(dir, "fragments", "scene-emitters.xml"))
	require.NoError(t, err)
	assert.Equal(t, `<?xml version="1.0" encoding="utf-8"?>
<!-- emitters of scene.xml -->
<scene version="2.0.0">
</scene>
`, string(b))

	b, err = os.ReadFile(filepath.Join(dir, "fragments", "scene-geometry.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(b), `<ref name="bsdf" id="Mat"/>`)
}

func TestWriteSpaces(t *testing.T) {
	sc := scene.New()
	add(t, sc, plugin.New("twosided").Set("bsdf", plugin.New("diffuse")), "Mat")
	got, _ := write(t, sc, Options{ExportIDs: true, IndentWidth: 2}, false)
	assert.Contains(t, got, "\n  <bsdf type=\"twosided\" id=\"Mat\">\n    <bsdf type=\"diffuse\" name=\"bsdf\"/>\n  </bsdf>\n")
}

func TestWriteIDs(t *testing.T) {
	sc := scene.New()
	add(t, sc, plugin.New("ply").Set("bsdf", plugin.NewRef("Mat")), "Cube")
	add(t, sc, plugin.New("diffuse"), "Mat")
	got, _ := write(t, sc, Options{}, false)
	assert.Contains(t, got, `<bsdf type="diffuse" id="Mat"/>`)
	assert.Contains(t, got, `<shape type="ply">`)
}

func TestWriteErrors(t *testing.T) {
	dir := t.TempDir()
	w := New(nil, Options{ExportIDs: true})
	assert.ErrorIs(t, w.Configure(&preprocess.Result{}), ErrNoFile)

	// reference before declaration
	r := &preprocess.Result{}
	r.Main.Entries.Add("Cube", plugin.New("ply").Set("bsdf", plugin.NewRef("Mat")))
	r.Main.Entries.Add("Mat", plugin.New("diffuse"))
	require.NoError(t, w.SetFilename(filepath.Join(dir, "a.xml"), false))
	assert.ErrorIs(t, w.Configure(r), ErrUnknownRef)

	// the same id in two files
	r = &preprocess.Result{}
	r.Main.Entries.Add("Mat", plugin.New("diffuse"))
	r.Main.Entries.Add(scene.IncludePrefix+"materials", plugin.NewInclude(preprocess.FragmentFilename("b", "materials")))
	frag := &preprocess.Section{Name: "materials", Filename: preprocess.FragmentFilename("b", "materials")}
	frag.Entries.Add("Mat", plugin.New("conductor"))
	r.Fragments = []*preprocess.Section{frag}
	require.NoError(t, w.SetFilename(filepath.Join(dir, "b.xml"), true))
	assert.ErrorIs(t, w.Configure(r), ErrDuplicateID)

	r = &preprocess.Result{}
	r.Main.Entries.Add("Mat", plugin.New("diffuse").Set("reflectance", []int{1}))
	require.NoError(t, w.SetFilename(filepath.Join(dir, "c.xml"), false))
	assert.ErrorIs(t, w.Configure(r), ErrValue)

	// everything is closed after a failed write
	assert.NoError(t, w.Close())
	b, err := os.ReadFile(filepath.Join(dir, "c.xml"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), Header))
}

func TestWriteFilename(t *testing.T) {
	src := filepath.Join(t.TempDir(), "grid.png")
	require.NoError(t, os.WriteFile(src, []byte("png"), 0o644))
	sc := scene.New()
	add(t, sc, plugin.New("diffuse").Set("reflectance", plugin.New("bitmap").Set("filename", src)), "Mat")
	got, dir := write(t, sc, Options{ExportIDs: true}, false)
	assert.Contains(t, got, `<texture type="bitmap" name="reflectance">`)
	assert.Contains(t, got, `<string name="filename" value="textures/tex-0.png"/>`)
	_, err := os.Stat(filepath.Join(dir, "textures", "tex-0.png"))
	assert.NoError(t, err)
}

func TestComment(t *testing.T) {
	assert.Equal(t, "a - -> b", comment("a --> b"))
	assert.Equal(t, "a - - - b", comment("a --- b"))
}
