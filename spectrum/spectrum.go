// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package spectrum encodes color values given as numbers, triples,
// wavelength samples or spectrum files into rgb and spectrum elements.
package spectrum

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mitsuba-renderer/mitsuba-blender-sub001/assets"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/base/errors"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/config"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/math32"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/plugin"
)

var (
	// ErrInvalidRGB is returned for rgb elements whose value is not a numeric triple.
	ErrInvalidRGB = errors.New("spectrum: rgb value must be a numeric triple")

	// ErrInvalidSpectrum is returned for spectrum elements that do not
	// have exactly one of value and filename.
	ErrInvalidSpectrum = errors.New("spectrum: spectrum must have exactly one of value and filename")

	// ErrNotArithmetic is returned when combining values that are not
	// constant colors, such as textures.
	ErrNotArithmetic = errors.New("spectrum: value is not a constant color")
)

// Sample is one point of a sampled spectrum.
type Sample struct {
	Wavelength float32
	Value      float32
}

// Encoder encodes color values.
type Encoder struct {

	// Mode selects rgb or srgb elements for triples.
	Mode config.ColorMode

	// Assets receives spectrum files.
	Assets *assets.Cache

	Log *slog.Logger
}

func (e *Encoder) log() *slog.Logger {
	if e.Log == nil {
		return slog.Default()
	}
	return e.Log
}

// rgbType returns the element type for triples in the current mode.
func (e *Encoder) rgbType() string {
	if e.Mode == config.SRGB {
		return plugin.SRGB
	}
	return plugin.RGB
}

// Encode returns the element for the given value. Dictionaries are
// validated and returned as is, numbers become uniform spectra,
// strings are spectrum files, triples (with an optional alpha that
// is dropped) become rgb, and samples become a sampled spectrum.
// Anything else is logged and encoded as a zero spectrum.
func (e *Encoder) Encode(v any) (*plugin.Dict, error) {
	switch x := v.(type) {
	case *plugin.Dict:
		if err := Validate(x); err != nil {
			return nil, err
		}
		return x, nil
	case float32:
		return Uniform(x), nil
	case float64:
		return Uniform(float32(x)), nil
	case int:
		return Uniform(float32(x)), nil
	case string:
		return e.file(x)
	case math32.Vector3:
		return plugin.New(e.rgbType()).Set("value", x), nil
	case [3]float32:
		return e.Encode(x[:])
	case [4]float32:
		return e.Encode(x[:])
	case []float32:
		switch len(x) {
		case 1:
			return Uniform(x[0]), nil
		case 3, 4:
			return e.Encode(math32.Vec3(x[0], x[1], x[2]))
		}
	case []Sample:
		if len(x) > 0 {
			return plugin.New(plugin.Spectrum).Set("value", Samples(x)), nil
		}
	}
	e.log().Warn("cannot encode color value, using zero spectrum", "value", fmt.Sprintf("%v", v))
	return plugin.New(plugin.Spectrum).Set("value", "0.0"), nil
}

// file returns a spectrum element reading the given file.
func (e *Encoder) file(filename string) (*plugin.Dict, error) {
	rel := filename
	if e.Assets != nil {
		var err error
		rel, err = e.Assets.FormatPath(filename, assets.Spectrum)
		if err != nil {
			return nil, err
		}
	}
	return plugin.New(plugin.Spectrum).Set("filename", rel), nil
}

// Uniform returns a constant spectrum of the given value.
func Uniform(v float32) *plugin.Dict {
	return plugin.New(plugin.Spectrum).Set("value", v)
}

// Samples returns the "λ:v, λ:v" value of a sampled spectrum.
func Samples(s []Sample) string {
	parts := make([]string, len(s))
	for i, p := range s {
		parts[i] = math32.ToString(p.Wavelength) + ":" + math32.ToString(p.Value)
	}
	return strings.Join(parts, ", ")
}

// Validate checks rgb and spectrum elements; other dictionaries,
// such as textures, are accepted.
func Validate(d *plugin.Dict) error {
	switch d.Type() {
	case plugin.RGB, plugin.SRGB:
		if _, ok := triple(d.Get("value")); !ok {
			return fmt.Errorf("%w: %v", ErrInvalidRGB, d.Get("value"))
		}
	case plugin.Spectrum:
		hasValue, hasFile := d.Has("value"), d.Has("filename")
		if hasValue == hasFile || d.Len() != 2 {
			return fmt.Errorf("%w: %v", ErrInvalidSpectrum, d)
		}
	case "":
		return plugin.ErrMissingType
	}
	return nil
}

// triple returns the numeric triple held by an rgb value.
func triple(v any) (math32.Vector3, bool) {
	switch x := v.(type) {
	case math32.Vector3:
		return x, true
	case [3]float32:
		return math32.Vec3(x[0], x[1], x[2]), true
	case []float32:
		if len(x) == 3 {
			return math32.Vec3(x[0], x[1], x[2]), true
		}
	case string:
		fs := strings.Fields(strings.ReplaceAll(x, ",", " "))
		if len(fs) != 3 {
			return math32.Vector3{}, false
		}
		var c [3]float32
		for i, f := range fs {
			n, err := strconv.ParseFloat(f, 32)
			if err != nil {
				return math32.Vector3{}, false
			}
			c[i] = float32(n)
		}
		return math32.Vec3(c[0], c[1], c[2]), true
	}
	return math32.Vector3{}, false
}
