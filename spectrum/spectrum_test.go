// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spectrum

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mitsuba-renderer/mitsuba-blender-sub001/assets"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/config"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/math32"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	e := &Encoder{Mode: config.RGB}

	d, err := e.Encode([]float32{0.8, 0.1, 0.1, 1})
	require.NoError(t, err)
	assert.Equal(t, plugin.RGB, d.Type())
	assert.Equal(t, math32.Vec3(0.8, 0.1, 0.1), d.Get("value"))
	assert.Equal(t, "0.800000 0.100000 0.100000", d.Get("value").(math32.Vector3).String())

	d, err = e.Encode(0.5)
	require.NoError(t, err)
	assert.Equal(t, plugin.Spectrum, d.Type())
	assert.Equal(t, float32(0.5), d.Get("value"))

	d, err = e.Encode([]Sample{{400, 0.1}, {500, 0.25}})
	require.NoError(t, err)
	assert.Equal(t, "400:0.1, 500:0.25", d.Get("value"))

	d, err = e.Encode([]float32{1, 2})
	require.NoError(t, err)
	assert.Equal(t, "0.0", d.Get("value"))

	e.Mode = config.SRGB
	d, err = e.Encode([3]float32{1, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, plugin.SRGB, d.Type())
}

func TestEncodeDict(t *testing.T) {
	e := &Encoder{}
	tex := plugin.New("bitmap").Set("filename", "a.png")
	d, err := e.Encode(tex)
	require.NoError(t, err)
	assert.Same(t, tex, d)

	_, err = e.Encode(plugin.New(plugin.RGB).Set("value", []float32{1, 2}))
	assert.ErrorIs(t, err, ErrInvalidRGB)
	_, err = e.Encode(plugin.New(plugin.RGB).Set("value", "0.1 0.2 0.3"))
	assert.NoError(t, err)

	_, err = e.Encode(plugin.New(plugin.Spectrum))
	assert.ErrorIs(t, err, ErrInvalidSpectrum)
	_, err = e.Encode(plugin.New(plugin.Spectrum).Set("value", 1).Set("filename", "a.spd"))
	assert.ErrorIs(t, err, ErrInvalidSpectrum)
}

func TestEncodeFile(t *testing.T) {
	src := filepath.Join(t.TempDir(), "sky.spd")
	require.NoError(t, os.WriteFile(src, []byte("400 1\n"), 0o666))
	e := &Encoder{Assets: assets.New(t.TempDir(), nil)}
	d, err := e.Encode(src)
	require.NoError(t, err)
	assert.Equal(t, plugin.Spectrum, d.Type())
	assert.Equal(t, "spectra/spectrum-0.spd", d.Get("filename"))
	require.NoError(t, Validate(d))
}

func TestArithmetic(t *testing.T) {
	red := plugin.NewRGB(math32.Vec3(1, 0, 0))
	blue := plugin.NewRGB(math32.Vec3(0, 0, 1))

	d, err := Scale(red, 4)
	require.NoError(t, err)
	assert.Equal(t, math32.Vec3(4, 0, 0), d.Get("value"))

	d, err = Lerp(red, blue, 0.25)
	require.NoError(t, err)
	assert.Equal(t, plugin.RGB, d.Type())
	assert.Equal(t, math32.Vec3(0.75, 0, 0.25), d.Get("value"))

	d, err = Add(Uniform(1), blue)
	require.NoError(t, err)
	assert.Equal(t, plugin.RGB, d.Type())
	assert.Equal(t, math32.Vec3(1, 1, 2), d.Get("value"))

	d, err = Add(Uniform(1), Uniform(2))
	require.NoError(t, err)
	assert.Equal(t, float32(3), d.Get("value"))

	_, err = Scale(plugin.New("bitmap"), 2)
	assert.ErrorIs(t, err, ErrNotArithmetic)
}
