// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package export

import (
	"fmt"

	"github.com/mitsuba-renderer/mitsuba-blender-sub001/host"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/math32"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/plugin"
)

// flipZ turns the -Z viewing and emitting direction of host
// cameras and lights into the +Z direction of the renderer.
// It is a half turn about Y.
var flipZ = math32.Matrix4{
	-1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, -1, 0,
	0, 0, 0, 1,
}

// integrator adds the integrator of the render settings.
func (ex *Exporter) integrator(rs *host.RenderSettings) error {
	typ := rs.Integrator
	if typ == "" {
		typ = "path"
	}
	d := plugin.New(typ)
	if rs.MaxDepth != 0 {
		d.Set("max_depth", rs.MaxDepth)
	}
	return ex.add(d, "")
}

// camera adds the sensor of the given camera, with its sampler and film.
func (ex *Exporter) camera(cam *host.Camera, rs *host.RenderSettings) error {
	w, h := rs.Size()
	if w <= 0 || h <= 0 {
		return fmt.Errorf("invalid resolution %dx%d", w, h)
	}
	toWorld := ex.axis.Mul(cam.World).Mul(flipZ)
	var d *plugin.Dict
	switch cam.Type {
	case host.Orthographic:
		s := cam.OrthoScale / 2
		toWorld = toWorld.Mul(math32.Matrix4Scale(math32.Vec3(s, s, 1)))
		d = plugin.New("orthographic")
	default:
		d = plugin.New("perspective").
			Set("fov", math32.RadToDeg(cam.AngleX)).
			Set("fov_axis", "x").
			Set("principal_point_offset_x", cam.ShiftX*float32(max(w, h))/float32(w)).
			Set("principal_point_offset_y", -cam.ShiftY*float32(max(w, h))/float32(h))
	}
	d.Set("near_clip", cam.ClipStart).
		Set("far_clip", cam.ClipEnd).
		Set("to_world", toWorld).
		Set("sampler", plugin.New("independent").Set("sample_count", rs.Samples)).
		Set("film", plugin.New("hdrfilm").
			Set("width", w).
			Set("height", h).
			Set("rfilter", plugin.New(filter(rs.PixelFilter))))
	name := cam.Name
	if name == "" {
		name = "Camera"
	}
	return ex.add(d, name)
}

// filter returns the reconstruction filter type, gaussian by default.
func filter(name string) string {
	if name == "" {
		return "gaussian"
	}
	return name
}
