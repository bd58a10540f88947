// Copyright (c) 2023, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config contains the options that control
// a scene export, and their TOML file format.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/mitchellh/go-homedir"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/math32"
	"github.com/pelletier/go-toml/v2"
)

// ColorMode is how color triples are written.
type ColorMode string

const (
	// RGB writes linear rgb elements.
	RGB ColorMode = "rgb"

	// SRGB writes srgb elements.
	SRGB ColorMode = "srgb"
)

// MinSceneVersion is the oldest scene format version that can be written.
var MinSceneVersion = semver.MustParse("2.0.0")

// Options are the options of an export.
type Options struct {

	// SplitFiles writes materials, geometry, emitters and render
	// settings to separate fragment files included by the main file.
	SplitFiles bool `toml:"split_files"`

	// IgnoreBackground drops the default grey world background.
	IgnoreBackground bool `toml:"ignore_background" default:"true"`

	// ExportIDs writes id attributes on every top-level plugin;
	// when false, only ids that are referenced are written.
	ExportIDs bool `toml:"export_ids" default:"true"`

	// ColorMode is how color triples are written.
	ColorMode ColorMode `toml:"color_mode" default:"rgb"`

	// AxisForward is the forward axis of the output, one of
	// X, Y, Z, -X, -Y, -Z.
	AxisForward string `toml:"axis_forward" default:"Y"`

	// AxisUp is the up axis of the output.
	AxisUp string `toml:"axis_up" default:"Z"`

	// AxisMatrix, if set, is a row-major 4x4 matrix that replaces
	// the matrix derived from AxisForward and AxisUp.
	AxisMatrix []float32 `toml:"axis_matrix,omitempty"`

	// SceneVersion is the version attribute of the scene element.
	SceneVersion string `toml:"scene_version" default:"2.0.0"`

	// ExportSensorScale keeps the scale of camera transforms
	// when they are decomposed.
	ExportSensorScale bool `toml:"export_sensor_scale"`

	// IndentWidth is the number of spaces per nesting level in the
	// written files; zero indents with tabs.
	IndentWidth int `toml:"indent_width"`
}

// Defaults returns the default options.
func Defaults() Options {
	o := Options{}
	o.Defaults()
	return o
}

// Defaults sets default values for all options.
func (o *Options) Defaults() {
	o.SplitFiles = false
	o.IgnoreBackground = true
	o.ExportIDs = true
	o.ColorMode = RGB
	o.AxisForward = "Y"
	o.AxisUp = "Z"
	o.AxisMatrix = nil
	o.SceneVersion = "2.0.0"
	o.ExportSensorScale = false
	o.IndentWidth = 0
}

// Validate checks that the options can be used for an export.
func (o *Options) Validate() error {
	switch o.ColorMode {
	case RGB, SRGB:
	default:
		return fmt.Errorf("config: invalid color mode %q, must be %q or %q", o.ColorMode, RGB, SRGB)
	}
	v, err := semver.NewVersion(o.SceneVersion)
	if err != nil {
		return fmt.Errorf("config: invalid scene version %q: %w", o.SceneVersion, err)
	}
	if v.LessThan(MinSceneVersion) {
		return fmt.Errorf("config: scene version %s is older than %s", v, MinSceneVersion)
	}
	if o.IndentWidth < 0 {
		return fmt.Errorf("config: negative indent width %d", o.IndentWidth)
	}
	_, err = o.Axis()
	return err
}

// Axis returns the coordinate conversion matrix applied to
// every world matrix.
func (o *Options) Axis() (math32.Matrix4, error) {
	if len(o.AxisMatrix) > 0 {
		if len(o.AxisMatrix) != 16 {
			return math32.Identity4(), fmt.Errorf("config: axis matrix has %d values, must have 16", len(o.AxisMatrix))
		}
		var m math32.Matrix4
		copy(m[:], o.AxisMatrix)
		return m, nil
	}
	return AxisConversion(o.AxisForward, o.AxisUp)
}

// Open reads options from the given TOML file, starting from the defaults.
// A leading ~ in the file name is expanded to the home directory.
func Open(filename string) (Options, error) {
	o := Defaults()
	fn, err := homedir.Expand(filename)
	if err != nil {
		return o, err
	}
	b, err := os.ReadFile(fn)
	if err != nil {
		return o, err
	}
	if err := toml.Unmarshal(b, &o); err != nil {
		return o, fmt.Errorf("config: %s: %w", fn, err)
	}
	return o, o.Validate()
}

// Save writes the options to the given TOML file.
func (o *Options) Save(filename string) error {
	fn, err := homedir.Expand(filename)
	if err != nil {
		return err
	}
	b, err := o.Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fn), 0o755); err != nil {
		return err
	}
	return os.WriteFile(fn, b, 0o666)
}

// Marshal returns the options encoded as TOML.
func (o *Options) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(o); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// axisVector returns the unit vector named by an axis string
// such as "Y" or "-Z".
func axisVector(axis string) (math32.Vector3, error) {
	a := strings.ToUpper(strings.TrimSpace(axis))
	sign := float32(1)
	if strings.HasPrefix(a, "-") {
		sign = -1
		a = a[1:]
	}
	switch a {
	case "X":
		return math32.Vec3(sign, 0, 0), nil
	case "Y":
		return math32.Vec3(0, sign, 0), nil
	case "Z":
		return math32.Vec3(0, 0, sign), nil
	}
	return math32.Vector3{}, fmt.Errorf("config: invalid axis %q", axis)
}

// AxisConversion returns the rotation that takes the host frame
// (forward Y, up Z) to the frame with the given forward and up axes.
func AxisConversion(forward, up string) (math32.Matrix4, error) {
	f, err := axisVector(forward)
	if err != nil {
		return math32.Identity4(), err
	}
	u, err := axisVector(up)
	if err != nil {
		return math32.Identity4(), err
	}
	if f.Cross(u) == (math32.Vector3{}) {
		return math32.Identity4(), fmt.Errorf("config: forward axis %q and up axis %q must differ", forward, up)
	}
	r := f.Cross(u)
	// columns map host X (right), Y (forward), Z (up)
	m := math32.Identity4()
	for i, c := range []math32.Vector3{r, f, u} {
		m.SetAt(0, i, c.X)
		m.SetAt(1, i, c.Y)
		m.SetAt(2, i, c.Z)
	}
	return m, nil
}
