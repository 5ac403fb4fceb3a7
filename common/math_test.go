package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQuatNormalizeZeroYieldsIdentity(t *testing.T) {
	require.Equal(t, QuatIdentity(), QuatNormalize([4]float32{0, 0, 0, 0}))
}

func TestQuatNormalizeUnitLength(t *testing.T) {
	q := QuatNormalize([4]float32{1, 2, 3, 4})
	require.InDelta(t, 1.0, float64(QuatMagnitude(q)), 1e-6)
}

func TestQuatMulIdentity(t *testing.T) {
	q := QuatFromAxisAngle([3]float32{0, 1, 0}, 0.7)
	require.Equal(t, q, QuatMul(q, QuatIdentity()))
	require.Equal(t, q, QuatMul(QuatIdentity(), q))
}

func TestQuatConjugateInverts(t *testing.T) {
	q := QuatFromAxisAngle([3]float32{1, 2, 0}, 1.1)
	p := QuatMul(q, QuatConjugate(q))
	require.InDelta(t, 0, float64(p[0]), 1e-6)
	require.InDelta(t, 0, float64(p[1]), 1e-6)
	require.InDelta(t, 0, float64(p[2]), 1e-6)
	require.InDelta(t, 1, float64(p[3]), 1e-6)
}

func TestRotateVec3QuarterTurnAboutY(t *testing.T) {
	q := QuatFromAxisAngle([3]float32{0, 1, 0}, float32(math.Pi/2))
	v := RotateVec3(q, [3]float32{1, 0, 0})
	require.InDelta(t, 0, float64(v[0]), 1e-6)
	require.InDelta(t, 0, float64(v[1]), 1e-6)
	require.InDelta(t, -1, float64(v[2]), 1e-6)
}

func TestQuatNlerpEndpoints(t *testing.T) {
	a := QuatFromAxisAngle([3]float32{0, 1, 0}, 0.4)
	b := QuatFromAxisAngle([3]float32{0, 1, 0}, 1.2)

	r0 := QuatNlerp(a, b, 0)
	r1 := QuatNlerp(a, b, 1)
	for i := 0; i < 4; i++ {
		require.InDelta(t, float64(a[i]), float64(r0[i]), 1e-6)
		require.InDelta(t, float64(b[i]), float64(r1[i]), 1e-6)
	}
}

func TestQuatNlerpShortestArc(t *testing.T) {
	a := QuatFromAxisAngle([3]float32{0, 1, 0}, 0.2)
	// Negated quaternion represents the same rotation; nlerp must not swing
	// through the long arc.
	b := [4]float32{-a[0], -a[1], -a[2], -a[3]}
	r := QuatNlerp(a, b, 0.5)
	for i := 0; i < 4; i++ {
		require.InDelta(t, float64(a[i]), float64(r[i]), 1e-6)
	}
}

func TestTransformMulInverse(t *testing.T) {
	tr := Transform{
		Translation: [3]float32{3, -2, 5},
		Rotation:    QuatFromAxisAngle([3]float32{1, 1, 0}, 0.9),
	}
	id := tr.Mul(tr.Inverse())
	require.InDelta(t, 0, float64(id.Translation[0]), 1e-5)
	require.InDelta(t, 0, float64(id.Translation[1]), 1e-5)
	require.InDelta(t, 0, float64(id.Translation[2]), 1e-5)
	require.InDelta(t, 0, float64(id.Rotation[0]), 1e-5)
	require.InDelta(t, 0, float64(id.Rotation[1]), 1e-5)
	require.InDelta(t, 0, float64(id.Rotation[2]), 1e-5)
	require.InDelta(t, 1, math.Abs(float64(id.Rotation[3])), 1e-5)
}

func TestTransformMulComposesTranslationInLocalFrame(t *testing.T) {
	// Active rotation convention: a +90 turn about Y maps a local forward
	// step (0,0,1) onto world +X, so the step lands at x+1.
	root := Transform{
		Translation: [3]float32{10, 0, 0},
		Rotation:    QuatFromAxisAngle([3]float32{0, 1, 0}, float32(math.Pi/2)),
	}
	step := Transform{Translation: [3]float32{0, 0, 1}, Rotation: QuatIdentity()}
	moved := root.Mul(step)
	require.InDelta(t, 11, float64(moved.Translation[0]), 1e-5)
	require.InDelta(t, 0, float64(moved.Translation[1]), 1e-5)
	require.InDelta(t, 0, float64(moved.Translation[2]), 1e-5)
}

func TestTransformMatrixIdentity(t *testing.T) {
	m := TransformIdentity().Matrix()
	want := [16]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
	require.Equal(t, want, m)
}

func TestTransformMatrixTranslationColumn(t *testing.T) {
	tr := Transform{Translation: [3]float32{1, 2, 3}, Rotation: QuatIdentity()}
	m := tr.Matrix()
	require.Equal(t, float32(1), m[12])
	require.Equal(t, float32(2), m[13])
	require.Equal(t, float32(3), m[14])
	require.Equal(t, float32(1), m[15])
}

func TestVec3LerpMidpoint(t *testing.T) {
	v := Vec3Lerp([3]float32{0, 2, -4}, [3]float32{2, 4, 4}, 0.5)
	require.Equal(t, [3]float32{1, 3, 0}, v)
}
