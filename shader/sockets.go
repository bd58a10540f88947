// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package shader

import (
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/host"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/plugin"
)

// color returns the texture or spectrum for the color input of n.
func (t *Translator) color(n *host.Node, input string) (*plugin.Dict, error) {
	s := n.Input(input)
	if s == nil {
		return nil, notImplemented(n, "missing input %s", input)
	}
	if !s.IsLinked() {
		return t.Spectrum.Encode(s.Value)
	}
	from := s.Link.From
	switch from.Kind {
	case host.TexImage:
		return t.bitmap(from)
	case host.RGB:
		return t.Spectrum.Encode(from.Input("Color").Floats())
	case host.VertexColor:
		layer := from.Layer
		if layer == "" {
			layer = "Col"
		}
		return plugin.New("mesh_attribute").Set("name", "vertex_"+layer), nil
	}
	return nil, notImplemented(n, "input %s linked to %s", input, from.Kind)
}

// float returns the texture or value for the scalar input of n.
func (t *Translator) float(n *host.Node, input string) (any, error) {
	s := n.Input(input)
	if s == nil {
		return nil, notImplemented(n, "missing input %s", input)
	}
	return t.floatSocket(n, s)
}

func (t *Translator) floatSocket(n *host.Node, s *host.Socket) (any, error) {
	if !s.IsLinked() {
		return s.Float(), nil
	}
	if from := s.Link.From; from.Kind == host.TexImage {
		return t.bitmap(from)
	}
	return nil, notImplemented(n, "input %s linked to %s", s.Name, s.Link.From.Kind)
}

// roughness returns the microfacet alpha of n: the square of an
// unlinked roughness, or the linked texture as is.
func (t *Translator) roughness(n *host.Node) (any, error) {
	if n.Input("Roughness") == nil {
		return float32(0), nil
	}
	v, err := t.float(n, "Roughness")
	if err != nil {
		return nil, err
	}
	if r, ok := v.(float32); ok {
		return r * r, nil
	}
	return v, nil
}

var wrapModes = map[string]string{
	"REPEAT": "repeat",
	"EXTEND": "clamp",
	"CLIP":   "clamp",
	"MIRROR": "mirror",
}

// bitmap returns the bitmap texture of an image texture node,
// exporting its image.
func (t *Translator) bitmap(n *host.Node) (*plugin.Dict, error) {
	if n.Image == nil {
		return nil, notImplemented(n, "no image")
	}
	if v := n.Input("Vector"); v.IsLinked() && v.Link.From.Kind != host.TexCoord {
		return nil, notImplemented(n, "texture coordinates linked to %s", v.Link.From.Kind)
	}
	rel, err := t.Assets.ExportTexture(n.Image)
	if err != nil {
		return nil, err
	}
	cs := n.Image.Colorspace()
	d := plugin.New("bitmap").Set("filename", rel).Set("raw", cs == "Non-Color" || cs == "Raw")
	if n.Prop("interpolation", "Linear") == "Closest" {
		d.Set("filter_type", "nearest")
	} else {
		d.Set("filter_type", "bilinear")
	}
	ext := n.Prop("extension", "REPEAT")
	wrap, ok := wrapModes[ext]
	if !ok {
		t.log().Warn("unsupported texture extension, using repeat", "node", n.Name, "extension", ext)
		wrap = "repeat"
	}
	d.Set("wrap_mode", wrap)
	return d, nil
}
