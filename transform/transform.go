// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package transform encodes world matrices as matrix elements, or, for
// sensors, as the scale, rotate and translate elements a user can edit.
package transform

import (
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/math32"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/plugin"
)

// gimbalEpsilon is how close |sin θ| must be to 1 to be treated as gimbal lock.
const gimbalEpsilon = 1e-6

// Matrix returns a matrix element with the 16 row-major values of m.
func Matrix(m math32.Matrix4) *plugin.Dict {
	return plugin.New(plugin.Matrix).Set("value", m.String())
}

// Decompose splits m into a translation, a per-axis scale and extrinsic
// X, Y, Z Euler angles in radians, such that m = T · Rz · Ry · Rx · S.
// Shear is discarded.
func Decompose(m math32.Matrix4) (translate, scale, euler math32.Vector3) {
	translate = m.Translation()
	cols := [3]math32.Vector3{m.Column(0), m.Column(1), m.Column(2)}
	scale = math32.Vec3(cols[0].Length(), cols[1].Length(), cols[2].Length())
	var r [3][3]float32
	for c, v := range cols {
		n := v.Length()
		if n != 0 {
			v = v.DivScalar(n)
		}
		r[0][c], r[1][c], r[2][c] = v.X, v.Y, v.Z
	}
	euler = Euler(r)
	return
}

// Euler returns the extrinsic X, Y, Z angles (ψ, θ, φ) of the rotation
// r = Rz(φ) · Ry(θ) · Rx(ψ), following Slabaugh's factorization.
// At gimbal lock φ is set to 0.
func Euler(r [3][3]float32) math32.Vector3 {
	var psi, theta, phi float32
	if math32.Abs(r[2][0]) < 1-gimbalEpsilon {
		theta = -math32.Asin(r[2][0])
		c := math32.Cos(theta)
		psi = math32.Atan2(r[2][1]/c, r[2][2]/c)
		phi = math32.Atan2(r[1][0]/c, r[0][0]/c)
	} else if r[2][0] < 0 {
		theta = math32.Pi / 2
		psi = phi + math32.Atan2(r[0][1], r[0][2])
	} else {
		theta = -math32.Pi / 2
		psi = -phi + math32.Atan2(-r[0][1], -r[0][2])
	}
	return math32.Vec3(psi, theta, phi)
}

// Sensor returns the elements that rebuild m in source order: an
// optional scale, rotations about X, Y and Z in degrees, and the
// translation.
func Sensor(m math32.Matrix4, withScale bool) []*plugin.Dict {
	t, s, e := Decompose(m)
	var res []*plugin.Dict
	if withScale {
		res = append(res, plugin.NewScale(s))
	}
	res = append(res,
		plugin.NewRotate(0, degrees(e.X)),
		plugin.NewRotate(1, degrees(e.Y)),
		plugin.NewRotate(2, degrees(e.Z)),
		plugin.NewTranslate(t))
	return res
}

// degrees converts to degrees, with no negative zero.
func degrees(rad float32) float32 {
	d := math32.RadToDeg(rad)
	if d == 0 {
		return 0
	}
	return d
}
