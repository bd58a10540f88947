// Copyright 2019 Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Initially copied from G3N: github.com/g3n/engine/math32
// Copyright 2016 The G3N Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
// with modifications needed to suit exporter functionality.

package math32

import (
	"strings"

	"github.com/mitsuba-renderer/mitsuba-blender-sub001/base/errors"
)

// Matrix4 is a 4x4 transform matrix stored in row-major order:
// the element in row r and column c is at index 4*r + c.
// Points are column vectors, so the translation lives in column 3.
type Matrix4 [16]float32

// Identity4 returns a new identity [Matrix4] matrix.
func Identity4() Matrix4 {
	return Matrix4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Matrix4Translation returns a translation matrix for the given offset.
func Matrix4Translation(v Vector3) Matrix4 {
	m := Identity4()
	m[3], m[7], m[11] = v.X, v.Y, v.Z
	return m
}

// Matrix4Scale returns a scaling matrix for the given per-axis factors.
func Matrix4Scale(v Vector3) Matrix4 {
	m := Identity4()
	m[0], m[5], m[10] = v.X, v.Y, v.Z
	return m
}

// Matrix4RotationX returns a rotation of angle radians about the X axis.
func Matrix4RotationX(angle float32) Matrix4 {
	c, s := Cos(angle), Sin(angle)
	return Matrix4{
		1, 0, 0, 0,
		0, c, -s, 0,
		0, s, c, 0,
		0, 0, 0, 1,
	}
}

// Matrix4RotationY returns a rotation of angle radians about the Y axis.
func Matrix4RotationY(angle float32) Matrix4 {
	c, s := Cos(angle), Sin(angle)
	return Matrix4{
		c, 0, s, 0,
		0, 1, 0, 0,
		-s, 0, c, 0,
		0, 0, 0, 1,
	}
}

// Matrix4RotationZ returns a rotation of angle radians about the Z axis.
func Matrix4RotationZ(angle float32) Matrix4 {
	c, s := Cos(angle), Sin(angle)
	return Matrix4{
		c, -s, 0, 0,
		s, c, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Matrix4FromEuler returns the rotation Rz(z) * Ry(y) * Rx(x), which is the
// extrinsic X, then Y, then Z rotation by the given angles in radians.
func Matrix4FromEuler(euler Vector3) Matrix4 {
	return Matrix4RotationZ(euler.Z).Mul(Matrix4RotationY(euler.Y)).Mul(Matrix4RotationX(euler.X))
}

// At returns the element at row r and column c.
func (m Matrix4) At(r, c int) float32 {
	return m[4*r+c]
}

// SetAt sets the element at row r and column c.
func (m *Matrix4) SetAt(r, c int, v float32) {
	m[4*r+c] = v
}

// IsZero returns whether every element is zero, which is the
// state of a matrix that was never set.
func (m Matrix4) IsZero() bool {
	return m == Matrix4{}
}

// IsIdentity returns whether this is the identity matrix.
func (m Matrix4) IsIdentity() bool {
	return m == Identity4()
}

// Mul returns m * b; applied to a point, b acts first.
func (m Matrix4) Mul(b Matrix4) Matrix4 {
	var r Matrix4
	for i := range 4 {
		for j := range 4 {
			var s float32
			for k := range 4 {
				s += m[4*i+k] * b[4*k+j]
			}
			r[4*i+j] = s
		}
	}
	return r
}

// MulPoint transforms the given point (w = 1) by this matrix.
func (m Matrix4) MulPoint(v Vector3) Vector3 {
	return Vec3(
		m[0]*v.X+m[1]*v.Y+m[2]*v.Z+m[3],
		m[4]*v.X+m[5]*v.Y+m[6]*v.Z+m[7],
		m[8]*v.X+m[9]*v.Y+m[10]*v.Z+m[11],
	)
}

// Transpose returns the transpose of this matrix.
func (m Matrix4) Transpose() Matrix4 {
	var r Matrix4
	for i := range 4 {
		for j := range 4 {
			r[4*j+i] = m[4*i+j]
		}
	}
	return r
}

// Column returns rows 0-2 of column c.
func (m Matrix4) Column(c int) Vector3 {
	return Vec3(m[c], m[4+c], m[8+c])
}

// Translation returns the translation part of the matrix.
func (m Matrix4) Translation() Vector3 {
	return m.Column(3)
}

// ErrSingular is returned by [Matrix4.Inverse] when the determinant is zero.
var ErrSingular = errors.New("math32.Matrix4: cannot invert matrix, determinant is 0")

// Inverse returns the inverse of this matrix. The cofactor expansion
// is carried out in float64 to keep instance transforms stable.
func (m Matrix4) Inverse() (Matrix4, error) {
	var a [16]float64
	for i, v := range m {
		a[i] = float64(v)
	}
	var inv [16]float64
	inv[0] = a[5]*a[10]*a[15] - a[5]*a[11]*a[14] - a[9]*a[6]*a[15] + a[9]*a[7]*a[14] + a[13]*a[6]*a[11] - a[13]*a[7]*a[10]
	inv[4] = -a[4]*a[10]*a[15] + a[4]*a[11]*a[14] + a[8]*a[6]*a[15] - a[8]*a[7]*a[14] - a[12]*a[6]*a[11] + a[12]*a[7]*a[10]
	inv[8] = a[4]*a[9]*a[15] - a[4]*a[11]*a[13] - a[8]*a[5]*a[15] + a[8]*a[7]*a[13] + a[12]*a[5]*a[11] - a[12]*a[7]*a[9]
	inv[12] = -a[4]*a[9]*a[14] + a[4]*a[10]*a[13] + a[8]*a[5]*a[14] - a[8]*a[6]*a[13] - a[12]*a[5]*a[10] + a[12]*a[6]*a[9]
	inv[1] = -a[1]*a[10]*a[15] + a[1]*a[11]*a[14] + a[9]*a[2]*a[15] - a[9]*a[3]*a[14] - a[13]*a[2]*a[11] + a[13]*a[3]*a[10]
	inv[5] = a[0]*a[10]*a[15] - a[0]*a[11]*a[14] - a[8]*a[2]*a[15] + a[8]*a[3]*a[14] + a[12]*a[2]*a[11] - a[12]*a[3]*a[10]
	inv[9] = -a[0]*a[9]*a[15] + a[0]*a[11]*a[13] + a[8]*a[1]*a[15] - a[8]*a[3]*a[13] - a[12]*a[1]*a[11] + a[12]*a[3]*a[9]
	inv[13] = a[0]*a[9]*a[14] - a[0]*a[10]*a[13] - a[8]*a[1]*a[14] + a[8]*a[2]*a[13] + a[12]*a[1]*a[10] - a[12]*a[2]*a[9]
	inv[2] = a[1]*a[6]*a[15] - a[1]*a[7]*a[14] - a[5]*a[2]*a[15] + a[5]*a[3]*a[14] + a[13]*a[2]*a[7] - a[13]*a[3]*a[6]
	inv[6] = -a[0]*a[6]*a[15] + a[0]*a[7]*a[14] + a[4]*a[2]*a[15] - a[4]*a[3]*a[14] - a[12]*a[2]*a[7] + a[12]*a[3]*a[6]
	inv[10] = a[0]*a[5]*a[15] - a[0]*a[7]*a[13] - a[4]*a[1]*a[15] + a[4]*a[3]*a[13] + a[12]*a[1]*a[7] - a[12]*a[3]*a[5]
	inv[14] = -a[0]*a[5]*a[14] + a[0]*a[6]*a[13] + a[4]*a[1]*a[14] - a[4]*a[2]*a[13] - a[12]*a[1]*a[6] + a[12]*a[2]*a[5]
	inv[3] = -a[1]*a[6]*a[11] + a[1]*a[7]*a[10] + a[5]*a[2]*a[11] - a[5]*a[3]*a[10] - a[9]*a[2]*a[7] + a[9]*a[3]*a[6]
	inv[7] = a[0]*a[6]*a[11] - a[0]*a[7]*a[10] - a[4]*a[2]*a[11] + a[4]*a[3]*a[10] + a[8]*a[2]*a[7] - a[8]*a[3]*a[6]
	inv[11] = -a[0]*a[5]*a[11] + a[0]*a[7]*a[9] + a[4]*a[1]*a[11] - a[4]*a[3]*a[9] - a[8]*a[1]*a[7] + a[8]*a[3]*a[5]
	inv[15] = a[0]*a[5]*a[10] - a[0]*a[6]*a[9] - a[4]*a[1]*a[10] + a[4]*a[2]*a[9] + a[8]*a[1]*a[6] - a[8]*a[2]*a[5]

	det := a[0]*inv[0] + a[1]*inv[4] + a[2]*inv[8] + a[3]*inv[12]
	if det == 0 {
		return Identity4(), ErrSingular
	}
	var r Matrix4
	for i, v := range inv {
		r[i] = float32(v / det)
	}
	return r, nil
}

// String returns the 16 elements in row-major order with six
// decimals, separated by spaces.
func (m Matrix4) String() string {
	parts := make([]string, 16)
	for i, v := range m {
		parts[i] = ToFixed(v)
	}
	return strings.Join(parts, " ")
}
