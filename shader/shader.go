// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package shader translates host shader graphs into bsdf, emitter
// and texture plugin dictionaries. The graph is walked backwards from
// the output node; mix and add nodes are resolved recursively.
package shader

import (
	"fmt"
	"log/slog"

	"github.com/mitsuba-renderer/mitsuba-blender-sub001/assets"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/base/errors"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/host"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/math32"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/plugin"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/spectrum"
)

// ErrNotImplemented is returned for node kinds and socket links that
// cannot be translated. Material export recovers from it.
var ErrNotImplemented = errors.New("shader: not implemented")

// Kinds are the kinds of [Result].
type Kinds int32

const (
	// BSDFOnly is a surface that only reflects.
	BSDFOnly Kinds = iota

	// EmitterOnly is a surface that only emits.
	EmitterOnly

	// Mixed is a surface that both reflects and emits.
	Mixed
)

func (k Kinds) String() string {
	switch k {
	case EmitterOnly:
		return "EmitterOnly"
	case Mixed:
		return "Mixed"
	}
	return "BSDFOnly"
}

// Result is a translated surface: a bsdf, an area emitter, or both.
type Result struct {
	BSDF    *plugin.Dict
	Emitter *plugin.Dict
}

// Kind returns which of the parts are present.
func (r Result) Kind() Kinds {
	switch {
	case r.BSDF != nil && r.Emitter != nil:
		return Mixed
	case r.Emitter != nil:
		return EmitterOnly
	}
	return BSDFOnly
}

// Translator translates shader graphs. It is created for one export.
type Translator struct {
	Spectrum *spectrum.Encoder
	Assets   *assets.Cache

	// Axis is the coordinate conversion applied to world matrices;
	// the zero matrix means identity.
	Axis math32.Matrix4

	Log *slog.Logger
}

func (t *Translator) log() *slog.Logger {
	if t.Log == nil {
		return slog.Default()
	}
	return t.Log
}

func notImplemented(n *host.Node, format string, args ...any) error {
	return fmt.Errorf("%w: node %q (%s): %s", ErrNotImplemented, n.Name, n.Kind, fmt.Sprintf(format, args...))
}

// Surface translates the graph linked to the Surface input
// of the material output node.
func (t *Translator) Surface(tree *host.NodeTree) (Result, error) {
	out := tree.Output(host.OutputMaterial)
	if out == nil {
		return Result{}, fmt.Errorf("%w: no material output node", ErrNotImplemented)
	}
	s := out.Input("Surface")
	if !s.IsLinked() {
		return Result{}, notImplemented(out, "surface is not linked")
	}
	return t.shader(s.Link.From)
}

// shader dispatches on the kind of a shader node.
func (t *Translator) shader(n *host.Node) (Result, error) {
	var bsdf *plugin.Dict
	var err error
	switch n.Kind {
	case host.BsdfDiffuse:
		bsdf, err = t.diffuse(n)
	case host.BsdfGlossy:
		bsdf, err = t.glossy(n)
	case host.BsdfGlass:
		bsdf, err = t.glass(n)
	case host.BsdfPrincipled:
		return t.principled(n)
	case host.Emission:
		em, err := t.emission(n)
		return Result{Emitter: em}, err
	case host.MixShader:
		return t.mix(n)
	case host.AddShader:
		return t.add(n)
	default:
		return Result{}, notImplemented(n, "unsupported shader node")
	}
	return Result{BSDF: bsdf}, err
}

// twosided wraps a one-sided bsdf so both faces reflect.
func twosided(bsdf *plugin.Dict) *plugin.Dict {
	return plugin.New("twosided").Set("bsdf", bsdf)
}

func (t *Translator) diffuse(n *host.Node) (*plugin.Dict, error) {
	refl, err := t.color(n, "Color")
	if err != nil {
		return nil, err
	}
	rough, err := t.roughness(n)
	if err != nil {
		return nil, err
	}
	bsdf := plugin.New("diffuse")
	if r, ok := rough.(float32); !ok || r > 0 {
		bsdf = plugin.New("roughdiffuse").Set("alpha", rough)
	}
	bsdf.Set("reflectance", refl)
	return twosided(bsdf), nil
}

// distribution returns the microfacet distribution for the node, or ""
// for a smooth surface.
func distribution(n *host.Node, rough any) (string, error) {
	d := n.Prop("distribution", "GGX")
	if r, ok := rough.(float32); ok && r == 0 {
		return "", nil
	}
	switch d {
	case "SHARP":
		return "", nil
	case "GGX", "MULTI_GGX":
		return "ggx", nil
	case "BECKMANN":
		return "beckmann", nil
	}
	return "", notImplemented(n, "unsupported distribution %s", d)
}

func (t *Translator) glossy(n *host.Node) (*plugin.Dict, error) {
	spec, err := t.color(n, "Color")
	if err != nil {
		return nil, err
	}
	rough, err := t.roughness(n)
	if err != nil {
		return nil, err
	}
	dist, err := distribution(n, rough)
	if err != nil {
		return nil, err
	}
	var bsdf *plugin.Dict
	if dist == "" {
		bsdf = plugin.New("conductor")
	} else {
		bsdf = plugin.New("roughconductor").Set("distribution", dist).Set("alpha", rough)
	}
	bsdf.Set("specular_reflectance", spec)
	return twosided(bsdf), nil
}

func (t *Translator) glass(n *host.Node) (*plugin.Dict, error) {
	trans, err := t.color(n, "Color")
	if err != nil {
		return nil, err
	}
	rough, err := t.roughness(n)
	if err != nil {
		return nil, err
	}
	iors := n.Input("IOR")
	if iors.IsLinked() {
		return nil, notImplemented(n, "linked IOR")
	}
	ior := float32(1.45)
	if iors != nil {
		ior = iors.Float()
	}
	var bsdf *plugin.Dict
	if math32.Abs(ior-1) < 1e-3 {
		bsdf = plugin.New("thindielectric")
	} else {
		dist, err := distribution(n, rough)
		if err != nil {
			return nil, err
		}
		if dist == "" {
			bsdf = plugin.New("dielectric")
		} else {
			bsdf = plugin.New("roughdielectric").Set("distribution", dist).Set("alpha", rough)
		}
	}
	bsdf.Set("int_ior", ior)
	bsdf.Set("specular_transmittance", trans)
	return bsdf, nil
}

// principledInputs maps principled parameters to the host input names
// that can provide them, newest first.
var principledInputs = []struct {
	param  string
	inputs []string
}{
	{"metallic", []string{"Metallic"}},
	{"roughness", []string{"Roughness"}},
	{"specular", []string{"Specular IOR Level", "Specular"}},
	{"spec_tint", []string{"Specular Tint"}},
	{"anisotropic", []string{"Anisotropic"}},
	{"sheen", []string{"Sheen Weight", "Sheen"}},
	{"sheen_tint", []string{"Sheen Tint"}},
	{"clearcoat", []string{"Coat Weight", "Clearcoat"}},
	{"spec_trans", []string{"Transmission Weight", "Transmission"}},
}

func (t *Translator) principled(n *host.Node) (Result, error) {
	base, err := t.color(n, "Base Color")
	if err != nil {
		return Result{}, err
	}
	bsdf := plugin.New("principled").Set("base_color", base)
	for _, pi := range principledInputs {
		for _, in := range pi.inputs {
			if n.Input(in) == nil {
				continue
			}
			v, err := t.float(n, in)
			if err != nil {
				return Result{}, err
			}
			bsdf.Set(pi.param, v)
			break
		}
	}
	for _, in := range []string{"Coat Roughness", "Clearcoat Roughness"} {
		s := n.Input(in)
		if s == nil {
			continue
		}
		if s.IsLinked() {
			return Result{}, notImplemented(n, "linked %s", in)
		}
		bsdf.Set("clearcoat_gloss", 1-s.Float())
		break
	}
	if s := n.Input("IOR"); s != nil && !s.IsLinked() {
		bsdf.Set("eta", s.Float())
	}
	res := Result{BSDF: bsdf}

	emName := "Emission Color"
	if n.Input(emName) == nil {
		emName = "Emission"
	}
	if es := n.Input(emName); es != nil && (es.IsLinked() || es.Vector3() != (math32.Vector3{})) {
		strength := float32(1)
		if ss := n.Input("Emission Strength"); ss != nil {
			if ss.IsLinked() {
				return Result{}, notImplemented(n, "linked Emission Strength")
			}
			strength = ss.Float()
		}
		if strength > 0 {
			em, err := t.area(n, emName, strength)
			if err != nil {
				return Result{}, err
			}
			res.Emitter = em
		}
	}
	return res, nil
}

func (t *Translator) emission(n *host.Node) (*plugin.Dict, error) {
	ss := n.Input("Strength")
	if ss.IsLinked() {
		return nil, notImplemented(n, "linked Strength")
	}
	strength := float32(1)
	if ss != nil {
		strength = ss.Float()
	}
	return t.area(n, "Color", strength)
}

// area returns an area emitter with the color of the given input
// scaled by strength as radiance.
func (t *Translator) area(n *host.Node, input string, strength float32) (*plugin.Dict, error) {
	col, err := t.color(n, input)
	if err != nil {
		return nil, err
	}
	rad, err := radiance(n, col, strength)
	if err != nil {
		return nil, err
	}
	return plugin.New("area").Set("radiance", rad), nil
}

// radiance returns strength·col. Textures can only be used at unit strength.
func radiance(n *host.Node, col *plugin.Dict, strength float32) (*plugin.Dict, error) {
	rad, err := spectrum.Scale(col, strength)
	if errors.Is(err, spectrum.ErrNotArithmetic) {
		if strength == 1 {
			return col, nil
		}
		return nil, notImplemented(n, "textured radiance with strength %s", math32.ToString(strength))
	}
	return rad, err
}

// shaderInput translates the shader linked to the input at index i.
func (t *Translator) shaderInput(n *host.Node, i int) (Result, error) {
	s := n.InputAt(i)
	if !s.IsLinked() {
		return Result{}, notImplemented(n, "shader input %d is not linked", i)
	}
	return t.shader(s.Link.From)
}

func (t *Translator) mix(n *host.Node) (Result, error) {
	a, err := t.shaderInput(n, 1)
	if err != nil {
		return Result{}, err
	}
	b, err := t.shaderInput(n, 2)
	if err != nil {
		return Result{}, err
	}
	switch {
	case a.Kind() == EmitterOnly && b.Kind() == EmitterOnly:
		fs := n.InputAt(0)
		if fs.IsLinked() {
			return Result{}, notImplemented(n, "linked factor between emitters")
		}
		rad, err := spectrum.Lerp(a.Emitter.Child("radiance"), b.Emitter.Child("radiance"), fs.Float())
		if err != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrNotImplemented, err)
		}
		return Result{Emitter: plugin.New("area").Set("radiance", rad)}, nil
	case a.Kind() == BSDFOnly && b.Kind() == BSDFOnly:
		w, err := t.floatSocket(n, n.InputAt(0))
		if err != nil {
			return Result{}, err
		}
		bsdf := plugin.New("blendbsdf").Set("weight", w).Set("bsdf_0", a.BSDF).Set("bsdf_1", b.BSDF)
		return Result{BSDF: bsdf}, nil
	}
	return Result{}, notImplemented(n, "mixing a bsdf with an emitter")
}

func (t *Translator) add(n *host.Node) (Result, error) {
	a, err := t.shaderInput(n, 0)
	if err != nil {
		return Result{}, err
	}
	b, err := t.shaderInput(n, 1)
	if err != nil {
		return Result{}, err
	}
	switch {
	case a.Kind() == EmitterOnly && b.Kind() == EmitterOnly:
		rad, err := spectrum.Add(a.Emitter.Child("radiance"), b.Emitter.Child("radiance"))
		if err != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrNotImplemented, err)
		}
		return Result{Emitter: plugin.New("area").Set("radiance", rad)}, nil
	case a.Kind() == BSDFOnly && b.Kind() == EmitterOnly:
		return Result{BSDF: a.BSDF, Emitter: b.Emitter}, nil
	case a.Kind() == EmitterOnly && b.Kind() == BSDFOnly:
		return Result{BSDF: b.BSDF, Emitter: a.Emitter}, nil
	}
	return Result{}, notImplemented(n, "adding %s and %s", a.Kind(), b.Kind())
}
