// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scene provides the scene IR: an insertion-ordered mapping from
// plugin id to plugin dictionary, accumulated while the host scene is
// traversed and consumed by the preprocessor and the XML writer.
package scene

import (
	"fmt"
	"iter"
	"strings"

	"github.com/mitsuba-renderer/mitsuba-blender-sub001/base/ordmap"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/plugin"
)

// Key prefixes of top-level entries that are not plugin ids.
const (
	ElementPrefix = "__elm__"
	CommentPrefix = "__com__"
	IncludePrefix = "__include__"
)

// RootType is the type of the root entry.
const RootType = "scene"

// Scene is the in-memory scene description. It is append-only until
// preprocessing; adding an existing name replaces the value in place.
type Scene struct {
	data ordmap.Map[string, *plugin.Dict]

	// counter numbers anonymous elements and comments.
	counter int
}

// New returns an empty scene.
func New() *Scene {
	return &Scene{}
}

// Type returns the type of the root entry, which is always [RootType].
func (sc *Scene) Type() string {
	return RootType
}

// Add inserts the dictionary and returns the name it was stored under:
// the given name, else its "id" entry (which is removed from the
// dictionary), else a new anonymous name. Empty dictionaries are ignored.
func (sc *Scene) Add(d *plugin.Dict, name ...string) (string, error) {
	if d == nil || d.Len() == 0 {
		return "", nil
	}
	if err := d.Validate(); err != nil {
		return "", err
	}
	nm := ""
	if len(name) > 0 {
		nm = name[0]
	}
	if id, ok := d.Get("id").(string); ok {
		d.Delete("id")
		if nm == "" {
			nm = id
		}
	}
	if nm == "" {
		nm = fmt.Sprintf("%s%d", ElementPrefix, sc.counter)
	}
	sc.counter++
	sc.data.Add(nm, d)
	return nm, nil
}

// AddComment adds a comment entry, written at its insertion position.
func (sc *Scene) AddComment(text string) string {
	nm := fmt.Sprintf("%s%d", CommentPrefix, sc.counter)
	sc.counter++
	sc.data.Add(nm, plugin.NewComment(text))
	return nm
}

// Get returns the dictionary stored under name, or nil.
func (sc *Scene) Get(name string) *plugin.Dict {
	return sc.data.ValueByKey(name)
}

// Has returns whether an entry is stored under name.
func (sc *Scene) Has(name string) bool {
	return sc.data.IndexByKey(name) >= 0
}

// UniqueName returns name, or name with a counter if an entry is
// already stored under it.
func (sc *Scene) UniqueName(name string) string {
	id := name
	for n := 1; sc.Has(id); n++ {
		id = fmt.Sprintf("%s-%d", name, n)
	}
	return id
}

// Len returns the number of entries.
func (sc *Scene) Len() int {
	return sc.data.Len()
}

// Keys returns the entry names in insertion order.
func (sc *Scene) Keys() []string {
	return sc.data.Keys()
}

// All iterates over the entries in insertion order.
func (sc *Scene) All() iter.Seq2[string, *plugin.Dict] {
	return sc.data.All()
}

// IsPluginKey returns whether a top-level key is a plugin id, which
// is written as the id attribute.
func IsPluginKey(key string) bool {
	return !strings.HasPrefix(key, ElementPrefix) && !strings.HasPrefix(key, CommentPrefix) &&
		!strings.HasPrefix(key, IncludePrefix)
}
