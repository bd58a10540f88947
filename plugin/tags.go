// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package plugin

import (
	"fmt"
	"slices"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/base/errors"
)

// Tag is the abstract plugin category, written as the element name.
type Tag string

// The plugin tags known to the renderer.
const (
	TagBSDF       Tag = "bsdf"
	TagShape      Tag = "shape"
	TagEmitter    Tag = "emitter"
	TagSensor     Tag = "sensor"
	TagIntegrator Tag = "integrator"
	TagFilm       Tag = "film"
	TagSampler    Tag = "sampler"
	TagRFilter    Tag = "rfilter"
	TagTexture    Tag = "texture"
	TagMedium     Tag = "medium"
	TagPhase      Tag = "phase"
	TagVolume     Tag = "volume"
	TagSpectrum   Tag = "spectrum"
)

// ErrUnknownType is returned by [TagOf] for a type missing from the table.
var ErrUnknownType = errors.New("plugin: unknown plugin type")

// tags maps every plugin type to its tag. It stands in for asking a
// running renderer, so the exporter has no runtime dependency on it.
var tags = map[string]Tag{}

func init() {
	add := func(tag Tag, types ...string) {
		for _, t := range types {
			tags[t] = tag
		}
	}
	add(TagBSDF, "diffuse", "roughdiffuse", "dielectric", "thindielectric",
		"roughdielectric", "conductor", "roughconductor", "plastic",
		"roughplastic", "bumpmap", "normalmap", "blendbsdf", "mask",
		"twosided", "principled", "principledthin", "hair", "measured",
		"pplastic", "polarizer", "retarder", "circular", "null")
	add(TagShape, "obj", "ply", "serialized", "sphere", "cube", "rectangle",
		"disk", "cylinder", "shapegroup", "instance", "bsplinecurve",
		"linearcurve", "sdfgrid", "ellipsoids", "ellipsoidsmesh")
	add(TagEmitter, "area", "point", "constant", "envmap", "spot",
		"projector", "directional", "directionalarea")
	add(TagSensor, "perspective", "thinlens", "orthographic",
		"radiancemeter", "irradiancemeter", "distant", "batch")
	add(TagIntegrator, "direct", "path", "aov", "volpath", "volpathmis",
		"prb", "prb_basic", "direct_projective", "prb_projective",
		"ptracer", "depth", "moment", "stokes")
	add(TagFilm, "hdrfilm", "specfilm")
	add(TagSampler, "independent", "stratified", "multijitter",
		"orthogonal", "ldsampler")
	add(TagRFilter, "box", "tent", "gaussian", "mitchell", "catmullrom",
		"lanczos")
	add(TagTexture, "bitmap", "checkerboard", "mesh_attribute", "volume")
	add(TagMedium, "homogeneous", "heterogeneous")
	add(TagPhase, "isotropic", "hg", "rayleigh", "sggx", "tabphase",
		"blendphase")
	add(TagVolume, "gridvolume", "constvolume")
	add(TagSpectrum, "regular", "irregular", "uniform", "blackbody", "d65",
		"srgb_d65")
}

// TagOf returns the tag for the given plugin type. Unknown types
// return [ErrUnknownType], naming the closest known type if any.
func TagOf(typ string) (Tag, error) {
	if t, ok := tags[typ]; ok {
		return t, nil
	}
	if s := suggest(typ); s != "" {
		return "", fmt.Errorf("%w %q (did you mean %q?)", ErrUnknownType, typ, s)
	}
	return "", fmt.Errorf("%w %q", ErrUnknownType, typ)
}

// suggest returns the known type most similar to typ,
// or "" when nothing is reasonably close.
func suggest(typ string) string {
	lev := metrics.NewLevenshtein()
	best, bestSim := "", 0.6
	names := make([]string, 0, len(tags))
	for n := range tags {
		names = append(names, n)
	}
	slices.Sort(names)
	for _, n := range names {
		if sim := strutil.Similarity(typ, n, lev); sim > bestSim {
			best, bestSim = n, sim
		}
	}
	return best
}

// Leaf types are written as a single self-closing element carrying
// their own attributes, rather than as a plugin.
const (
	RGB       = "rgb"
	SRGB      = "srgb"
	Spectrum  = "spectrum"
	Ref       = "ref"
	Matrix    = "matrix"
	Rotate    = "rotate"
	Translate = "translate"
	Scale     = "scale"
	Integer   = "integer"
	Float     = "float"
	Boolean   = "boolean"
	String    = "string"
	Default   = "default"
	Include   = "include"
	Comment   = "comment"
)

var leaves = map[string]bool{
	RGB: true, SRGB: true, Spectrum: true, Ref: true, Matrix: true,
	Rotate: true, Translate: true, Scale: true, Integer: true, Float: true,
	Boolean: true, String: true, Default: true, Include: true, Comment: true,
}

// IsLeaf returns whether typ is a typed value element rather than a plugin.
func IsLeaf(typ string) bool {
	return leaves[typ]
}
