package collide

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// EmptyAABB returns a box that unions as the identity.
func EmptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{Min: mgl64.Vec3{inf, inf, inf}, Max: mgl64.Vec3{-inf, -inf, -inf}}
}

// Union returns the smallest box containing both boxes.
func (a AABB) Union(b AABB) AABB {
	return AABB{
		Min: mgl64.Vec3{math.Min(a.Min.X(), b.Min.X()), math.Min(a.Min.Y(), b.Min.Y()), math.Min(a.Min.Z(), b.Min.Z())},
		Max: mgl64.Vec3{math.Max(a.Max.X(), b.Max.X()), math.Max(a.Max.Y(), b.Max.Y()), math.Max(a.Max.Z(), b.Max.Z())},
	}
}

// Overlaps reports whether the boxes intersect.
func (a AABB) Overlaps(b AABB) bool {
	return a.Min.X() <= b.Max.X() && a.Max.X() >= b.Min.X() &&
		a.Min.Y() <= b.Max.Y() && a.Max.Y() >= b.Min.Y() &&
		a.Min.Z() <= b.Max.Z() && a.Max.Z() >= b.Min.Z()
}

// Contains reports whether the box contains the point.
func (a AABB) Contains(p mgl64.Vec3) bool {
	return p.X() >= a.Min.X() && p.X() <= a.Max.X() &&
		p.Y() >= a.Min.Y() && p.Y() <= a.Max.Y() &&
		p.Z() >= a.Min.Z() && p.Z() <= a.Max.Z()
}

// Center returns the box center.
func (a AABB) Center() mgl64.Vec3 {
	return a.Min.Add(a.Max).Mul(0.5)
}

// Expanded grows the box by the margin on every side.
func (a AABB) Expanded(margin float64) AABB {
	m := mgl64.Vec3{margin, margin, margin}
	return AABB{Min: a.Min.Sub(m), Max: a.Max.Add(m)}
}

// LongestAxis returns the index of the longest extent.
func (a AABB) LongestAxis() int {
	e := a.Max.Sub(a.Min)
	axis := 0
	if e.Y() > e.X() {
		axis = 1
	}
	if e.Z() > e[axis] {
		axis = 2
	}
	return axis
}

// AABBAroundSphere returns the bounds of a sphere.
func AABBAroundSphere(center mgl64.Vec3, radius float64) AABB {
	r := mgl64.Vec3{radius, radius, radius}
	return AABB{Min: center.Sub(r), Max: center.Add(r)}
}

// TransformedAABB returns the world-space bounds of a local box under a
// rigid transform, by taking the bounds of its transformed corners.
func TransformedAABB(local AABB, position mgl64.Vec3, orientation mgl64.Quat) AABB {
	out := EmptyAABB()
	for i := 0; i < 8; i++ {
		c := mgl64.Vec3{local.Min.X(), local.Min.Y(), local.Min.Z()}
		if i&1 != 0 {
			c[0] = local.Max.X()
		}
		if i&2 != 0 {
			c[1] = local.Max.Y()
		}
		if i&4 != 0 {
			c[2] = local.Max.Z()
		}
		p := position.Add(orientation.Rotate(c))
		out = out.Union(AABB{Min: p, Max: p})
	}
	return out
}
