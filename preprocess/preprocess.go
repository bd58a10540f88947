// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package preprocess orders the scene for writing: it sorts plugins into
// render, material, emitter and geometry sections so that everything is
// declared before it is referenced, and hoists the render knobs that are
// commonly changed into command line defaults.
package preprocess

import (
	"fmt"

	"github.com/mitsuba-renderer/mitsuba-blender-sub001/base/errors"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/base/ordmap"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/plugin"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/scene"
)

// ErrDefaultKind is returned when a hoisted parameter has a value
// that cannot be a default.
var ErrDefaultKind = errors.New("preprocess: unsupported default value")

// Defaults maps the parameter names that are hoisted to the names
// of their defaults.
var Defaults = []struct{ Param, Name string }{
	{"sample_count", "spp"},
	{"width", "resx"},
	{"height", "resy"},
}

func defaultName(param string) (string, bool) {
	for _, d := range Defaults {
		if d.Param == param {
			return d.Name, true
		}
	}
	return "", false
}

// Fragments are the sections of the scene, in the order they are written.
var Fragments = []string{"render", "materials", "emitters", "geometry"}

// Entries is an ordered set of top-level scene entries.
type Entries = ordmap.Map[string, *plugin.Dict]

// Section is the content of one output file.
type Section struct {

	// Name is the fragment name, or "" for the main file.
	Name string

	// Filename is the path of a fragment relative to the main file.
	Filename string

	Entries Entries
}

// Result is the preprocessed scene.
type Result struct {
	Main Section

	// Fragments are the fragment files in split mode, in [Fragments] order.
	Fragments []*Section

	// Referenced holds the ids used by ref elements.
	Referenced map[string]bool
}

// Options control the preprocessing.
type Options struct {

	// Split writes the sections to fragment files.
	Split bool

	// Name is the base name of the main file, used for fragment names.
	Name string
}

// FragmentFilename returns the path of a fragment relative to the main file.
func FragmentFilename(name, fragment string) string {
	return fmt.Sprintf("fragments/%s-%s.xml", name, fragment)
}

// Process partitions the scene and hoists defaults. The dictionaries of
// the scene are modified in place.
func Process(sc *scene.Scene, opts Options) (*Result, error) {
	var main Entries
	buckets := map[string]*Entries{}
	for _, f := range Fragments {
		buckets[f] = &Entries{}
	}
	for key, d := range sc.All() {
		b, err := bucket(d)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		if b == "" {
			main.Add(key, d)
		} else {
			buckets[b].Add(key, d)
		}
	}

	var defaults Entries
	res := &Result{Referenced: map[string]bool{}}
	for key, d := range sc.All() {
		if err := hoist(d, &defaults); err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		references(d, res.Referenced)
	}

	res.Main.Entries = defaults
	for k, d := range main.All() {
		res.Main.Entries.Add(k, d)
	}
	for _, f := range Fragments {
		if !opts.Split {
			for k, d := range buckets[f].All() {
				res.Main.Entries.Add(k, d)
			}
			continue
		}
		fn := FragmentFilename(opts.Name, f)
		res.Main.Entries.Add(scene.IncludePrefix+f, plugin.NewInclude(fn))
		res.Fragments = append(res.Fragments, &Section{Name: f, Filename: fn, Entries: *buckets[f]})
	}
	return res, nil
}

// bucket returns the fragment a top-level entry belongs to,
// or "" for the main file.
func bucket(d *plugin.Dict) (string, error) {
	if plugin.IsLeaf(d.Type()) {
		return "", nil
	}
	tag, err := plugin.TagOf(d.Type())
	if err != nil {
		return "", err
	}
	switch tag {
	case plugin.TagBSDF:
		return "materials", nil
	case plugin.TagEmitter:
		return "emitters", nil
	case plugin.TagShape:
		if d.Has("emitter") {
			return "emitters", nil
		}
		return "geometry", nil
	case plugin.TagSensor, plugin.TagIntegrator, plugin.TagFilm, plugin.TagSampler, plugin.TagRFilter:
		return "render", nil
	}
	return "", nil
}

// hoist replaces the hoisted parameters of d and its children by
// references to defaults, adding the defaults on first use.
func hoist(d *plugin.Dict, defaults *Entries) error {
	if plugin.IsLeaf(d.Type()) {
		return nil
	}
	for i := range d.Order {
		kv := &d.Order[i]
		if c, ok := kv.Value.(*plugin.Dict); ok {
			if err := hoist(c, defaults); err != nil {
				return err
			}
			continue
		}
		name, ok := defaultName(kv.Key)
		if !ok {
			continue
		}
		typ, err := defaultType(kv.Value)
		if err != nil {
			return fmt.Errorf("%s: %w", kv.Key, err)
		}
		key := scene.ElementPrefix + "default_" + name
		if defaults.IndexByKey(key) < 0 {
			defaults.Add(key, plugin.NewDefault(name, kv.Value))
		}
		kv.Value = plugin.New(typ).Set("value", "$"+name)
	}
	return nil
}

// defaultType returns the element type of a default value.
func defaultType(v any) (string, error) {
	switch v.(type) {
	case int, int32, int64:
		return plugin.Integer, nil
	case float32, float64:
		return plugin.Float, nil
	case string:
		return plugin.String, nil
	case bool:
		return plugin.Boolean, nil
	}
	return "", fmt.Errorf("%w %T", ErrDefaultKind, v)
}

// references adds the ids of the ref elements in d to ids.
func references(d *plugin.Dict, ids map[string]bool) {
	if d.Type() == plugin.Ref {
		if id, ok := d.Get("id").(string); ok {
			ids[id] = true
		}
		return
	}
	for _, v := range d.All() {
		if c, ok := v.(*plugin.Dict); ok {
			references(c, ids)
		}
	}
}
