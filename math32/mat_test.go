// Copyright 2021 Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package math32

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const StandardTol = 1.0e-5

func AssertEqualMatrix(t *testing.T, want, got Matrix4) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], StandardTol, "element %d", i)
	}
}

func AssertEqualVector(t *testing.T, want, got Vector3) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, StandardTol)
	assert.InDelta(t, want.Y, got.Y, StandardTol)
	assert.InDelta(t, want.Z, got.Z, StandardTol)
}

func TestMatrix4Mul(t *testing.T) {
	vx := Vec3(1, 0, 0)
	assert.Equal(t, vx, Identity4().MulPoint(vx))
	assert.Equal(t, Vec3(2, 1, 1), Matrix4Translation(Vec3(1, 1, 1)).MulPoint(vx))
	AssertEqualVector(t, Vec3(0, 1, 0), Matrix4RotationZ(DegToRad(90)).MulPoint(vx))
	AssertEqualVector(t, Vec3(0, 0, -1), Matrix4RotationY(DegToRad(90)).MulPoint(vx))
	AssertEqualVector(t, Vec3(0, 0, 1), Matrix4RotationX(DegToRad(90)).MulPoint(Vec3(0, 1, 0)))

	// 1,0,0 -> scale(2) = 2,0,0 -> rotate z 90 = 0,2,0 -> trans 1,1,1 -> 1,3,1
	// multiplication order is *reverse* of "logical" order:
	m := Matrix4Translation(Vec3(1, 1, 1)).Mul(Matrix4RotationZ(DegToRad(90))).Mul(Matrix4Scale(Vector3Scalar(2)))
	AssertEqualVector(t, Vec3(1, 3, 1), m.MulPoint(vx))
	AssertEqualVector(t, Vec3(1, 1, 1), m.Translation())
	assert.InDelta(t, 2, m.Column(0).Length(), StandardTol)
}

func TestMatrix4Inverse(t *testing.T) {
	m := Matrix4Translation(Vec3(3, -2, 5)).Mul(Matrix4FromEuler(Vec3(0.3, -1.1, 2.0))).Mul(Matrix4Scale(Vec3(1, 2, 3)))
	inv, err := m.Inverse()
	require.NoError(t, err)
	AssertEqualMatrix(t, Identity4(), m.Mul(inv))
	AssertEqualMatrix(t, Identity4(), inv.Mul(m))

	_, err = Matrix4{}.Inverse()
	assert.ErrorIs(t, err, ErrSingular)
}

func TestMatrix4String(t *testing.T) {
	assert.Equal(t, "1.000000 0.000000 0.000000 0.000000 0.000000 1.000000 0.000000 0.000000 0.000000 0.000000 1.000000 0.000000 0.000000 0.000000 0.000000 1.000000", Identity4().String())
	assert.Equal(t, "0.800000 0.100000 0.100000", Vec3(0.8, 0.1, 0.1).String())
	assert.Equal(t, "0.25", ToString(0.25))
	assert.Equal(t, "128", ToString(128))
	assert.True(t, Matrix4{}.IsZero())
	assert.True(t, Identity4().Transpose().IsIdentity())
}
