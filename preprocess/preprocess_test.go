// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package preprocess

import (
	"testing"

	"github.com/mitsuba-renderer/mitsuba-blender-sub001/plugin"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testScene(t *testing.T) *scene.Scene {
	sc := scene.New()
	add := func(d *plugin.Dict, name string) {
		_, err := sc.Add(d, name)
		require.NoError(t, err)
	}
	add(plugin.New("ply").Set("filename", "meshes/Cube.ply").Set("bsdf", plugin.NewRef("Mat")), "Cube")
	add(plugin.New("diffuse"), "Mat")
	add(plugin.New("rectangle").Set("emitter", plugin.New("area")), "Panel")
	add(plugin.New("constant"), "World")
	add(plugin.New("path").Set("max_depth", 12), "")
	add(plugin.New("perspective").
		Set("sampler", plugin.New("independent").Set("sample_count", 64)).
		Set("film", plugin.New("hdrfilm").Set("width", 1920).Set("height", 1080)), "Camera")
	return sc
}

func TestProcess(t *testing.T) {
	res, err := Process(testScene(t), Options{Name: "scene"})
	require.NoError(t, err)
	assert.Empty(t, res.Fragments)
	assert.Equal(t, []string{
		"__elm__default_spp", "__elm__default_resx", "__elm__default_resy",
		"__elm__4", "Camera", "Mat", "Panel", "World", "Cube",
	}, res.Main.Entries.Keys())
	assert.Equal(t, map[string]bool{"Mat": true}, res.Referenced)

	spp := res.Main.Entries.ValueByKey("__elm__default_spp")
	assert.Equal(t, plugin.Default, spp.Type())
	assert.Equal(t, "spp", spp.Get("name"))
	assert.Equal(t, 64, spp.Get("value"))

	sampler := res.Main.Entries.ValueByKey("Camera").Child("sampler")
	count := sampler.Child("sample_count")
	require.NotNil(t, count)
	assert.Equal(t, plugin.Integer, count.Type())
	assert.Equal(t, "$spp", count.Get("value"))
	assert.Equal(t, "$resy", res.Main.Entries.ValueByKey("Camera").Child("film").Child("height").Get("value"))
}

func TestProcessSplit(t *testing.T) {
	res, err := Process(testScene(t), Options{Split: true, Name: "scene"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"__elm__default_spp", "__elm__default_resx", "__elm__default_resy",
		"__include__render", "__include__materials", "__include__emitters", "__include__geometry",
	}, res.Main.Entries.Keys())
	assert.Equal(t, "fragments/scene-materials.xml", res.Main.Entries.ValueByKey("__include__materials").Get("filename"))

	require.Len(t, res.Fragments, 4)
	names := map[string][]string{}
	for _, f := range res.Fragments {
		names[f.Name] = f.Entries.Keys()
	}
	assert.Equal(t, []string{"__elm__4", "Camera"}, names["render"])
	assert.Equal(t, []string{"Mat"}, names["materials"])
	assert.Equal(t, []string{"Panel", "World"}, names["emitters"])
	assert.Equal(t, []string{"Cube"}, names["geometry"])
	assert.Equal(t, "fragments/scene-geometry.xml", res.Fragments[3].Filename)
}

func TestProcessFirstDefaultWins(t *testing.T) {
	sc := scene.New()
	_, err := sc.Add(plugin.New("hdrfilm").Set("width", 640), "a")
	require.NoError(t, err)
	_, err = sc.Add(plugin.New("hdrfilm").Set("width", 320), "b")
	require.NoError(t, err)
	res, err := Process(sc, Options{})
	require.NoError(t, err)
	assert.Equal(t, 640, res.Main.Entries.ValueByKey("__elm__default_resx").Get("value"))
	assert.Equal(t, "$resx", sc.Get("b").Child("width").Get("value"))
}

func TestProcessErrors(t *testing.T) {
	sc := scene.New()
	_, err := sc.Add(plugin.New("hdrfilm").Set("width", []int{1, 2}), "film")
	require.NoError(t, err)
	_, err = Process(sc, Options{})
	assert.ErrorIs(t, err, ErrDefaultKind)

	sc = scene.New()
	_, err = sc.Add(plugin.New("difuse"), "Mat")
	require.NoError(t, err)
	_, err = Process(sc, Options{})
	assert.ErrorIs(t, err, plugin.ErrUnknownType)
	assert.Contains(t, err.Error(), `did you mean "diffuse"`)
}

func TestDefaultType(t *testing.T) {
	for v, want := range map[any]string{1: plugin.Integer, float32(0.5): plugin.Float, "x": plugin.String, true: plugin.Boolean} {
		typ, err := defaultType(v)
		require.NoError(t, err)
		assert.Equal(t, want, typ)
	}
}
