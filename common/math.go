package common

import (
	"math"
)

// Transform is a rigid-body transform composed of a translation and a unit
// rotation quaternion. This is the canonical representation for root motion
// throughout the engine; conversion to a column-major matrix is available via
// Matrix for consumers that work in mat4 space.
type Transform struct {
	// Translation is the position component (x, y, z).
	Translation [3]float32
	// Rotation is the orientation quaternion (x, y, z, w). It is expected to
	// be unit-length; composition paths renormalize to counteract drift.
	Rotation [4]float32
}

// TransformIdentity returns the identity transform (zero translation, identity rotation).
//
// Returns:
//   - Transform: the identity transform
func TransformIdentity() Transform {
	return Transform{Rotation: QuatIdentity()}
}

// Mul composes two transforms, applying o in t's local frame.
// Result: first o, then t (r = t * o).
//
// Parameters:
//   - o: the right-hand transform
//
// Returns:
//   - Transform: the composed transform
func (t Transform) Mul(o Transform) Transform {
	rotated := RotateVec3(t.Rotation, o.Translation)
	return Transform{
		Translation: [3]float32{
			t.Translation[0] + rotated[0],
			t.Translation[1] + rotated[1],
			t.Translation[2] + rotated[2],
		},
		Rotation: QuatMul(t.Rotation, o.Rotation),
	}
}

// Inverse returns the inverse transform such that t.Mul(t.Inverse()) is identity
// (within floating-point tolerance).
//
// Returns:
//   - Transform: the inverse transform
func (t Transform) Inverse() Transform {
	inv := QuatConjugate(t.Rotation)
	p := RotateVec3(inv, t.Translation)
	return Transform{
		Translation: [3]float32{-p[0], -p[1], -p[2]},
		Rotation:    inv,
	}
}

// Normalized returns the transform with its rotation renormalized to unit length.
// Used after composing many per-frame deltas to keep scale artifacts from
// accumulating in the rotational component.
//
// Returns:
//   - Transform: the transform with a unit-length rotation
func (t Transform) Normalized() Transform {
	t.Rotation = QuatNormalize(t.Rotation)
	return t
}

// Matrix converts the transform to a 4x4 column-major matrix
// (OpenGL/WebGPU convention).
//
// Returns:
//   - [16]float32: the equivalent column-major matrix
func (t Transform) Matrix() [16]float32 {
	x, y, z, w := t.Rotation[0], t.Rotation[1], t.Rotation[2], t.Rotation[3]

	xx, yy, zz := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z

	var m [16]float32
	m[0] = 1 - 2*(yy+zz)
	m[1] = 2 * (xy + wz)
	m[2] = 2 * (xz - wy)

	m[4] = 2 * (xy - wz)
	m[5] = 1 - 2*(xx+zz)
	m[6] = 2 * (yz + wx)

	m[8] = 2 * (xz + wy)
	m[9] = 2 * (yz - wx)
	m[10] = 1 - 2*(xx+yy)

	m[12] = t.Translation[0]
	m[13] = t.Translation[1]
	m[14] = t.Translation[2]
	m[15] = 1
	return m
}

// QuatIdentity returns the identity quaternion (x=0, y=0, z=0, w=1).
//
// Returns:
//   - [4]float32: the identity quaternion
func QuatIdentity() [4]float32 {
	return [4]float32{0, 0, 0, 1}
}

// QuatMul multiplies two quaternions (a * b). Neither input is normalized;
// callers composing long chains should renormalize the result.
//
// Parameters:
//   - a: left-hand quaternion (x, y, z, w)
//   - b: right-hand quaternion (x, y, z, w)
//
// Returns:
//   - [4]float32: the product quaternion
func QuatMul(a, b [4]float32) [4]float32 {
	return [4]float32{
		a[3]*b[0] + a[0]*b[3] + a[1]*b[2] - a[2]*b[1],
		a[3]*b[1] - a[0]*b[2] + a[1]*b[3] + a[2]*b[0],
		a[3]*b[2] + a[0]*b[1] - a[1]*b[0] + a[2]*b[3],
		a[3]*b[3] - a[0]*b[0] - a[1]*b[1] - a[2]*b[2],
	}
}

// QuatConjugate returns the conjugate of q. For unit quaternions this is the inverse.
//
// Parameters:
//   - q: the quaternion (x, y, z, w)
//
// Returns:
//   - [4]float32: the conjugate quaternion
func QuatConjugate(q [4]float32) [4]float32 {
	return [4]float32{-q[0], -q[1], -q[2], q[3]}
}

// QuatMagnitude returns the Euclidean length of q.
//
// Parameters:
//   - q: the quaternion (x, y, z, w)
//
// Returns:
//   - float32: the magnitude of q
func QuatMagnitude(q [4]float32) float32 {
	return float32(math.Sqrt(float64(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])))
}

// QuatNormalize returns q scaled to unit length. A zero quaternion normalizes
// to identity rather than producing NaNs.
//
// Parameters:
//   - q: the quaternion (x, y, z, w)
//
// Returns:
//   - [4]float32: the unit-length quaternion
func QuatNormalize(q [4]float32) [4]float32 {
	mag := QuatMagnitude(q)
	if mag == 0 {
		return QuatIdentity()
	}
	inv := 1 / mag
	return [4]float32{q[0] * inv, q[1] * inv, q[2] * inv, q[3] * inv}
}

// QuatNlerp performs a normalized linear interpolation between a and b,
// taking the shortest arc. Cheaper than slerp and sufficient for blending
// between adjacent keyframes and short cross-fades.
//
// Parameters:
//   - a: start quaternion (x, y, z, w)
//   - b: end quaternion (x, y, z, w)
//   - t: interpolation factor in [0, 1]
//
// Returns:
//   - [4]float32: the interpolated unit quaternion
func QuatNlerp(a, b [4]float32, t float32) [4]float32 {
	// Flip to the shortest arc when the dot product is negative.
	dot := a[0]*b[0] + a[1]*b[1] + a[2]*b[2] + a[3]*b[3]
	if dot < 0 {
		b = [4]float32{-b[0], -b[1], -b[2], -b[3]}
	}
	return QuatNormalize([4]float32{
		a[0] + (b[0]-a[0])*t,
		a[1] + (b[1]-a[1])*t,
		a[2] + (b[2]-a[2])*t,
		a[3] + (b[3]-a[3])*t,
	})
}

// QuatFromAxisAngle builds a quaternion rotating angle radians around axis.
// The axis does not need to be normalized.
//
// Parameters:
//   - axis: rotation axis (x, y, z)
//   - angle: rotation angle in radians
//
// Returns:
//   - [4]float32: the rotation quaternion
func QuatFromAxisAngle(axis [3]float32, angle float32) [4]float32 {
	length := float32(math.Sqrt(float64(axis[0]*axis[0] + axis[1]*axis[1] + axis[2]*axis[2])))
	if length == 0 {
		return QuatIdentity()
	}
	half := float64(angle) / 2
	s := float32(math.Sin(half)) / length
	return [4]float32{axis[0] * s, axis[1] * s, axis[2] * s, float32(math.Cos(half))}
}

// RotateVec3 rotates vector v by quaternion q.
//
// Parameters:
//   - q: the rotation quaternion (x, y, z, w)
//   - v: the vector to rotate (x, y, z)
//
// Returns:
//   - [3]float32: the rotated vector
func RotateVec3(q [4]float32, v [3]float32) [3]float32 {
	// t = 2 * cross(q.xyz, v)
	tx := 2 * (q[1]*v[2] - q[2]*v[1])
	ty := 2 * (q[2]*v[0] - q[0]*v[2])
	tz := 2 * (q[0]*v[1] - q[1]*v[0])

	// v' = v + q.w * t + cross(q.xyz, t)
	return [3]float32{
		v[0] + q[3]*tx + q[1]*tz - q[2]*ty,
		v[1] + q[3]*ty + q[2]*tx - q[0]*tz,
		v[2] + q[3]*tz + q[0]*ty - q[1]*tx,
	}
}

// Vec3Lerp linearly interpolates between a and b.
//
// Parameters:
//   - a: start vector (x, y, z)
//   - b: end vector (x, y, z)
//   - t: interpolation factor in [0, 1]
//
// Returns:
//   - [3]float32: the interpolated vector
func Vec3Lerp(a, b [3]float32, t float32) [3]float32 {
	return [3]float32{
		a[0] + (b[0]-a[0])*t,
		a[1] + (b[1]-a[1])*t,
		a[2] + (b[2]-a[2])*t,
	}
}

// Vec3Scale scales v by s.
//
// Parameters:
//   - v: the vector (x, y, z)
//   - s: the scale factor
//
// Returns:
//   - [3]float32: the scaled vector
func Vec3Scale(v [3]float32, s float32) [3]float32 {
	return [3]float32{v[0] * s, v[1] * s, v[2] * s}
}
