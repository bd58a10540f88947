// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spectrum

import (
	"fmt"
	"strconv"

	"github.com/mitsuba-renderer/mitsuba-blender-sub001/math32"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/plugin"
)

// constant is a color that arithmetic can be done on.
type constant struct {
	typ     string
	value   math32.Vector3
	uniform bool
}

func toConstant(d *plugin.Dict) (constant, error) {
	switch d.Type() {
	case plugin.RGB, plugin.SRGB:
		if v, ok := triple(d.Get("value")); ok {
			return constant{typ: d.Type(), value: v}, nil
		}
		return constant{}, fmt.Errorf("%w: %v", ErrInvalidRGB, d.Get("value"))
	case plugin.Spectrum:
		switch x := d.Get("value").(type) {
		case float32:
			return constant{typ: plugin.Spectrum, value: math32.Vector3Scalar(x), uniform: true}, nil
		case string:
			if f, err := strconv.ParseFloat(x, 32); err == nil {
				return constant{typ: plugin.Spectrum, value: math32.Vector3Scalar(float32(f)), uniform: true}, nil
			}
		}
	}
	return constant{}, fmt.Errorf("%w: %v", ErrNotArithmetic, d)
}

func (c constant) dict() *plugin.Dict {
	if c.uniform {
		return Uniform(c.value.X)
	}
	return plugin.New(c.typ).Set("value", c.value)
}

// Scale returns the color d multiplied by k.
func Scale(d *plugin.Dict, k float32) (*plugin.Dict, error) {
	c, err := toConstant(d)
	if err != nil {
		return nil, err
	}
	c.value = c.value.MulScalar(k)
	return c.dict(), nil
}

// Add returns the sum of two colors. A uniform spectrum added
// to a triple gives a triple.
func Add(a, b *plugin.Dict) (*plugin.Dict, error) {
	ca, err := toConstant(a)
	if err != nil {
		return nil, err
	}
	cb, err := toConstant(b)
	if err != nil {
		return nil, err
	}
	res := constant{typ: ca.typ, value: ca.value.Add(cb.value), uniform: ca.uniform && cb.uniform}
	if ca.uniform {
		res.typ = cb.typ
	}
	return res.dict(), nil
}

// Lerp returns (1-t)·a + t·b.
func Lerp(a, b *plugin.Dict, t float32) (*plugin.Dict, error) {
	sa, err := Scale(a, 1-t)
	if err != nil {
		return nil, err
	}
	sb, err := Scale(b, t)
	if err != nil {
		return nil, err
	}
	return Add(sa, sb)
}
