// Package mathx provides small helpers on top of mgl64 used throughout the
// physics core: quaternion integration, tangent frames and world-space
// inertia rotation.
package mathx

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Eps is the floor used to guard divisions and normalizations against
// near-singular configurations.
const Eps = 1e-10

// RotationMatrix returns the 3x3 rotation matrix of a unit quaternion.
func RotationMatrix(q mgl64.Quat) mgl64.Mat3 {
	return q.Mat4().Mat3()
}

// RotateTensor conjugates a body-space tensor into world space: R M Rᵀ.
func RotateTensor(m mgl64.Mat3, q mgl64.Quat) mgl64.Mat3 {
	r := RotationMatrix(q)
	return r.Mul3(m).Mul3(r.Transpose())
}

// AdvanceOrientation rotates q by the angular velocity w over dt using the
// quaternion exponential map and renormalizes the result.
func AdvanceOrientation(q mgl64.Quat, w mgl64.Vec3, dt float64) mgl64.Quat {
	speed := w.Len()
	angle := speed * dt
	if angle < Eps {
		return q
	}
	axis := w.Mul(1.0 / speed)
	return mgl64.QuatRotate(angle, axis).Mul(q).Normalize()
}

// TangentBasis returns two unit vectors spanning the plane orthogonal to the
// unit vector n. The seed axis is chosen away from n so the cross products
// stay well conditioned.
func TangentBasis(n mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	const invSqrtThree = 0.5773502691896258
	var seed mgl64.Vec3
	if math.Abs(n.X()) < invSqrtThree {
		seed = mgl64.Vec3{1, 0, 0}
	} else if math.Abs(n.Y()) < invSqrtThree {
		seed = mgl64.Vec3{0, 1, 0}
	} else {
		seed = mgl64.Vec3{0, 0, 1}
	}
	t1 := n.Cross(seed).Normalize()
	t2 := n.Cross(t1)
	return t1, t2
}

// NormalizeIfAbove returns v normalized when its length exceeds eps.
func NormalizeIfAbove(v mgl64.Vec3, eps float64) (mgl64.Vec3, bool) {
	l := v.Len()
	if l <= eps {
		return mgl64.Vec3{}, false
	}
	return v.Mul(1.0 / l), true
}

// OrthogonalTo returns a unit vector orthogonal to the unit vector v.
func OrthogonalTo(v mgl64.Vec3) mgl64.Vec3 {
	t1, _ := TangentBasis(v)
	return t1
}

// Skew returns the cross-product matrix of v, so Skew(v).Mul3x1(u) == v×u.
func Skew(v mgl64.Vec3) mgl64.Mat3 {
	return mgl64.Mat3FromRows(
		mgl64.Vec3{0, -v.Z(), v.Y()},
		mgl64.Vec3{v.Z(), 0, -v.X()},
		mgl64.Vec3{-v.Y(), v.X(), 0},
	)
}

// OuterProduct returns v uᵀ as a matrix.
func OuterProduct(v, u mgl64.Vec3) mgl64.Mat3 {
	return mgl64.Mat3FromRows(
		u.Mul(v.X()),
		u.Mul(v.Y()),
		u.Mul(v.Z()),
	)
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
