// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package shader

import (
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/host"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/math32"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/plugin"
)

// DefaultWorldColor is the background color of a new host world.
const DefaultWorldColor = 0.050876

// envmapFrame takes the Y-up frame of environment maps to the Z-up host frame.
var envmapFrame = math32.Matrix4{
	0, 0, 1, 0,
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0, 1,
}

// axis returns the coordinate conversion matrix.
func (t *Translator) axis() math32.Matrix4 {
	if t.Axis.IsZero() {
		return math32.Identity4()
	}
	return t.Axis
}

// World returns the emitter for the world background: an envmap for
// an environment texture, or a constant emitter. It returns nil for
// the default background when ignoreBackground is set.
func (t *Translator) World(w *host.World, ignoreBackground bool) (*plugin.Dict, error) {
	if w == nil {
		return nil, nil
	}
	if w.Nodes == nil {
		return t.constant(w.Color, 1, ignoreBackground)
	}
	out := w.Nodes.Output(host.OutputWorld)
	if out == nil {
		return nil, nil
	}
	s := out.Input("Surface")
	if !s.IsLinked() {
		return nil, nil
	}
	bg := s.Link.From
	if bg.Kind != host.Background && bg.Kind != host.Emission {
		return nil, notImplemented(bg, "unsupported world shader")
	}
	ss := bg.Input("Strength")
	if ss.IsLinked() {
		return nil, notImplemented(bg, "linked Strength")
	}
	strength := float32(1)
	if ss != nil {
		strength = ss.Float()
	}
	cs := bg.Input("Color")
	if cs == nil {
		return nil, notImplemented(bg, "missing input Color")
	}
	if !cs.IsLinked() {
		return t.constant(cs.Vector3(), strength, ignoreBackground)
	}
	env := cs.Link.From
	if env.Kind != host.TexEnvironment {
		return t.constantTexture(bg, strength)
	}
	if env.Image == nil {
		return nil, notImplemented(env, "no image")
	}
	toWorld, err := envTransform(env)
	if err != nil {
		return nil, err
	}
	rel, err := t.Assets.ExportTexture(env.Image)
	if err != nil {
		return nil, err
	}
	return plugin.New("envmap").
		Set("filename", rel).
		Set("scale", strength).
		Set("to_world", t.axis().Mul(toWorld).Mul(envmapFrame)), nil
}

// constant returns a constant emitter of the given color and strength.
func (t *Translator) constant(col math32.Vector3, strength float32, ignoreBackground bool) (*plugin.Dict, error) {
	if ignoreBackground && strength == 1 && isDefaultWorld(col) {
		return nil, nil
	}
	rad, err := t.Spectrum.Encode(col.MulScalar(strength))
	if err != nil {
		return nil, err
	}
	return plugin.New("constant").Set("radiance", rad), nil
}

// constantTexture returns a constant emitter with a textured radiance.
func (t *Translator) constantTexture(bg *host.Node, strength float32) (*plugin.Dict, error) {
	col, err := t.color(bg, "Color")
	if err != nil {
		return nil, err
	}
	rad, err := radiance(bg, col, strength)
	if err != nil {
		return nil, err
	}
	return plugin.New("constant").Set("radiance", rad), nil
}

func isDefaultWorld(c math32.Vector3) bool {
	const eps = 1e-6
	return math32.Abs(c.X-DefaultWorldColor) < eps && math32.Abs(c.Y-DefaultWorldColor) < eps && math32.Abs(c.Z-DefaultWorldColor) < eps
}

// envTransform returns the transform of an environment texture from its
// mapping node. The only supported linkage is generated texture
// coordinates into a TEXTURE mapping with unlinked parameters.
func envTransform(env *host.Node) (math32.Matrix4, error) {
	vs := env.Input("Vector")
	if !vs.IsLinked() {
		return math32.Identity4(), nil
	}
	mapping := vs.Link.From
	if mapping.Kind != host.Mapping {
		return math32.Identity4(), notImplemented(env, "vector linked to %s", mapping.Kind)
	}
	if vt := mapping.Prop("vector_type", "POINT"); vt != "TEXTURE" {
		return math32.Identity4(), notImplemented(mapping, "unsupported mapping type %s", vt)
	}
	ms := mapping.Input("Vector")
	if !ms.IsLinked() || ms.Link.From.Kind != host.TexCoord || ms.Link.Output != "Generated" {
		return math32.Identity4(), notImplemented(mapping, "vector must be linked to generated texture coordinates")
	}
	loc, rot, scale := math32.Vector3{}, math32.Vector3{}, math32.Vector3Scalar(1)
	for _, p := range []struct {
		name string
		v    *math32.Vector3
	}{{"Location", &loc}, {"Rotation", &rot}, {"Scale", &scale}} {
		s := mapping.Input(p.name)
		if s == nil {
			continue
		}
		if s.IsLinked() {
			return math32.Identity4(), notImplemented(mapping, "linked %s", p.name)
		}
		*p.v = s.Vector3()
	}
	return math32.Matrix4Translation(loc).Mul(math32.Matrix4FromEuler(rot)).Mul(math32.Matrix4Scale(scale)), nil
}
