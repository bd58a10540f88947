// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package plugin provides the plugin dictionary, the unit of scene
// description handed to the renderer, and the static table mapping
// plugin types to their element tags.
package plugin

import (
	"fmt"

	"github.com/mitsuba-renderer/mitsuba-blender-sub001/base/errors"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/base/ordmap"
)

// TypeKey is the reserved key naming the plugin or element type.
const TypeKey = "type"

// ErrMissingType is returned for a nested dictionary without a type.
var ErrMissingType = errors.New("plugin: dictionary has no type")

// Dict is an insertion-ordered plugin dictionary. The [TypeKey] entry
// names either a renderer plugin (diffuse, ply, hdrfilm...) or a typed
// element (rgb, ref, matrix...). Values are bool, int, float32, string,
// [math32.Vector3], [math32.Matrix4] or nested *Dict.
type Dict struct {
	ordmap.Map[string, any]
}

// New returns a new dictionary of the given type.
func New(typ string) *Dict {
	d := &Dict{}
	d.Add(TypeKey, typ)
	return d
}

// Type returns the type of the dictionary, or "" if it has none.
func (d *Dict) Type() string {
	if d == nil {
		return ""
	}
	s, _ := d.ValueByKey(TypeKey).(string)
	return s
}

// Set sets key to val and returns the dictionary for chaining.
func (d *Dict) Set(key string, val any) *Dict {
	d.Add(key, val)
	return d
}

// Get returns the value for key, or nil.
func (d *Dict) Get(key string) any {
	return d.ValueByKey(key)
}

// Has returns whether the key is present.
func (d *Dict) Has(key string) bool {
	_, ok := d.ValueByKeyTry(key)
	return ok
}

// Child returns the nested dictionary stored under key, or nil.
func (d *Dict) Child(key string) *Dict {
	c, _ := d.ValueByKey(key).(*Dict)
	return c
}

// Delete removes key, returning whether it was present.
func (d *Dict) Delete(key string) bool {
	return d.DeleteKey(key)
}

// Clone returns a deep copy: nested dictionaries are copied,
// all other values are immutable and shared.
func (d *Dict) Clone() *Dict {
	if d == nil {
		return nil
	}
	nd := &Dict{}
	for k, v := range d.All() {
		if c, ok := v.(*Dict); ok {
			v = c.Clone()
		}
		nd.Add(k, v)
	}
	return nd
}

// Validate checks that this dictionary and every nested one carries a type.
func (d *Dict) Validate() error {
	return d.validate("")
}

func (d *Dict) validate(path string) error {
	if d.Type() == "" {
		if path == "" {
			return ErrMissingType
		}
		return fmt.Errorf("%w: %q", ErrMissingType, path)
	}
	for k, v := range d.All() {
		c, ok := v.(*Dict)
		if !ok {
			continue
		}
		if err := c.validate(path + "/" + k); err != nil {
			return err
		}
	}
	return nil
}

// String returns a compact representation for logging.
func (d *Dict) String() string {
	return fmt.Sprintf("%v", d.Order)
}
