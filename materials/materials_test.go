// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package materials

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/mitsuba-renderer/mitsuba-blender-sub001/assets"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/config"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/host"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/math32"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/scene"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/shader"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/spectrum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExporter(t *testing.T, log *slog.Logger) *Exporter {
	c := assets.New(t.TempDir(), nil)
	tr := &shader.Translator{Spectrum: &spectrum.Encoder{Mode: config.RGB, Assets: c}, Assets: c}
	return NewExporter(scene.New(), tr, log)
}

func surface(name string, n *host.Node) *host.Material {
	out := &host.Node{Name: "Output", Kind: host.OutputMaterial, Inputs: []*host.Socket{{Name: "Surface", Link: &host.Link{From: n}}}}
	return &host.Material{Name: name, Nodes: &host.NodeTree{Nodes: []*host.Node{out, n}}}
}

func diffuse() *host.Node {
	return &host.Node{Name: "Diffuse", Kind: host.BsdfDiffuse, Inputs: []*host.Socket{{Name: "Color", Value: []float32{0.8, 0.1, 0.1, 1}}}}
}

func emission() *host.Node {
	return &host.Node{Name: "Emission", Kind: host.Emission, Inputs: []*host.Socket{{Name: "Color", Value: []float32{1, 1, 1, 1}}, {Name: "Strength", Value: float32(5)}}}
}

func TestExportBSDF(t *testing.T) {
	e := newExporter(t, nil)
	id, err := e.Export(surface("Mat", diffuse()))
	require.NoError(t, err)
	assert.Equal(t, "Mat", id)
	assert.Equal(t, "twosided", e.Scene.Get("Mat").Type())
	assert.False(t, e.Cache.HasMat("Mat"))

	id, err = e.Export(surface("Mat", emission()))
	require.NoError(t, err)
	assert.Equal(t, "Mat", id)
	assert.Equal(t, 1, e.Scene.Len())
}

func TestExportMixed(t *testing.T) {
	e := newExporter(t, nil)
	add := &host.Node{Name: "Add", Kind: host.AddShader, Inputs: []*host.Socket{
		{Name: "Shader", Link: &host.Link{From: diffuse()}},
		{Name: "Shader", Link: &host.Link{From: emission()}},
	}}
	_, err := e.Export(surface("Mat", add))
	require.NoError(t, err)
	entry, ok := e.Cache.Get("Mat")
	require.True(t, ok)
	assert.Equal(t, "Mat", entry.BSDF)
	assert.Equal(t, "area", entry.Emitter.Type())
	assert.Equal(t, []string{"Mat", EmptyEmitterBSDF}, e.Scene.Keys())

	_, err = e.Export(surface("Light", emission()))
	require.NoError(t, err)
	entry, ok = e.Cache.Get("Light")
	require.True(t, ok)
	assert.Equal(t, EmptyEmitterBSDF, entry.BSDF)
	// the black bsdf is only added once, and pure emitters add no bsdf
	assert.Equal(t, []string{"Mat", EmptyEmitterBSDF}, e.Scene.Keys())
	assert.Equal(t, "diffuse", e.Scene.Get(EmptyEmitterBSDF).Type())
}

func TestExportFallback(t *testing.T) {
	var buf bytes.Buffer
	e := newExporter(t, slog.New(slog.NewTextHandler(&buf, nil)))
	bad := &host.Node{Name: "Toon", Kind: host.UnknownNode}
	_, err := e.Export(surface("Bad", bad))
	require.NoError(t, err)
	d := e.Scene.Get("Bad")
	assert.Equal(t, "diffuse", d.Type())
	assert.Equal(t, math32.Vec3(1, 0, 1), d.Child("reflectance").Get("value"))
	assert.Contains(t, buf.String(), "magenta")
}

func TestExportViewport(t *testing.T) {
	e := newExporter(t, nil)
	_, err := e.Export(&host.Material{Name: "Plain", ViewportColor: math32.Vec3(0.2, 0.4, 0.6)})
	require.NoError(t, err)
	inner := e.Scene.Get("Plain").Child("bsdf")
	assert.Equal(t, math32.Vec3(0.2, 0.4, 0.6), inner.Child("reflectance").Get("value"))
}

func TestExportNameClash(t *testing.T) {
	e := newExporter(t, nil)
	_, err := e.Scene.Add(Default(), "Cube")
	require.NoError(t, err)
	id, err := e.Export(surface("Cube", diffuse()))
	require.NoError(t, err)
	assert.Equal(t, "Cube.001", id)
	id, err = e.Export(surface("Cube", diffuse()))
	require.NoError(t, err)
	assert.Equal(t, "Cube.001", id)
}
