// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package plugin

import "github.com/mitsuba-renderer/mitsuba-blender-sub001/math32"

// NewRef returns a reference to the plugin with the given id.
func NewRef(id string) *Dict {
	return New(Ref).Set("id", id)
}

// NewRGB returns an rgb element with the given color.
func NewRGB(c math32.Vector3) *Dict {
	return New(RGB).Set("value", c)
}

// NewComment returns a comment element.
func NewComment(text string) *Dict {
	return New(Comment).Set("value", text)
}

// NewInclude returns an include element for the given fragment file.
func NewInclude(filename string) *Dict {
	return New(Include).Set("filename", filename)
}

// NewDefault returns a default element declaring a command line parameter.
func NewDefault(name string, value any) *Dict {
	return New(Default).Set("name", name).Set("value", value)
}

// NewTranslate returns a translate element.
func NewTranslate(v math32.Vector3) *Dict {
	return New(Translate).Set("x", v.X).Set("y", v.Y).Set("z", v.Z)
}

// NewScale returns a scale element.
func NewScale(v math32.Vector3) *Dict {
	return New(Scale).Set("x", v.X).Set("y", v.Y).Set("z", v.Z)
}

// NewRotate returns a rotation of angle degrees about the given axis (0, 1, 2).
func NewRotate(axis int, angle float32) *Dict {
	d := New(Rotate)
	d.Set([]string{"x", "y", "z"}[axis], 1)
	return d.Set("angle", angle)
}
