// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package export

import (
	"fmt"

	"github.com/mitsuba-renderer/mitsuba-blender-sub001/host"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/math32"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/plugin"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/spectrum"
)

// light adds the emitter of the given light. Area lights become
// emitting shapes.
func (ex *Exporter) light(l *host.Light) error {
	world := ex.axis.Mul(l.World)
	var d *plugin.Dict
	var err error
	switch l.Type {
	case host.PointLight:
		d, err = ex.pointLight(l, world)
	case host.SunLight:
		d, err = ex.sunLight(l, world)
	case host.SpotLight:
		d, err = ex.spotLight(l, world)
	case host.AreaLight:
		d, err = ex.areaLight(l, world)
	default:
		err = fmt.Errorf("unsupported light type %s", l.Type)
	}
	if err != nil {
		return err
	}
	return ex.add(d, l.Name)
}

// color encodes the light color scaled by k.
func (ex *Exporter) color(l *host.Light, k float32) (*plugin.Dict, error) {
	return ex.Translator.Spectrum.Encode(l.Color.MulScalar(k))
}

// intensity is the radiant intensity of an isotropic light of the given power.
func intensity(power float32) float32 {
	return power / (4 * math32.Pi)
}

func (ex *Exporter) pointLight(l *host.Light, world math32.Matrix4) (*plugin.Dict, error) {
	in, err := ex.color(l, intensity(l.Energy))
	if err != nil {
		return nil, err
	}
	return plugin.New("point").
		Set("position", world.Translation()).
		Set("intensity", in), nil
}

func (ex *Exporter) sunLight(l *host.Light, world math32.Matrix4) (*plugin.Dict, error) {
	irr, err := ex.color(l, l.Energy)
	if err != nil {
		return nil, err
	}
	return plugin.New("directional").
		Set("to_world", world.Mul(flipZ)).
		Set("irradiance", irr), nil
}

func (ex *Exporter) spotLight(l *host.Light, world math32.Matrix4) (*plugin.Dict, error) {
	in, err := ex.color(l, intensity(l.Energy))
	if err != nil {
		return nil, err
	}
	cutoff := math32.RadToDeg(l.SpotSize / 2)
	return plugin.New("spot").
		Set("to_world", world.Mul(flipZ)).
		Set("intensity", in).
		Set("cutoff_angle", cutoff).
		Set("beam_width", cutoff*(1-math32.Clamp(l.SpotBlend, 0, 1))), nil
}

// areaLight returns a rectangle or disk shape spanning the light,
// with a nested area emitter and a black bsdf.
func (ex *Exporter) areaLight(l *host.Light, world math32.Matrix4) (*plugin.Dict, error) {
	sx, sy := l.Size, l.Size
	if l.Shape == host.Rectangle || l.Shape == host.Ellipse {
		sy = l.SizeY
	}
	typ, area := "rectangle", sx*sy
	if l.Shape == host.Disk || l.Shape == host.Ellipse {
		typ, area = "disk", math32.Pi*sx*sy/4
	}
	if area <= 0 {
		return nil, fmt.Errorf("area light has no area")
	}
	rad, err := ex.color(l, l.Energy/(math32.Pi*area))
	if err != nil {
		return nil, err
	}
	toWorld := world.Mul(flipZ).Mul(math32.Matrix4Scale(math32.Vec3(sx/2, sy/2, 1)))
	return plugin.New(typ).
		Set("to_world", toWorld).
		Set("emitter", plugin.New("area").Set("radiance", rad)).
		Set("bsdf", plugin.New("diffuse").Set("reflectance", spectrum.Uniform(0))), nil
}
