// Package inertia provides inertia tensors and inertial properties for
// uniformly dense primitive shapes, and a mass-moment accumulator for
// composite bodies built from many small cells.
package inertia

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"voxelsim/internal/mathx"
)

// Tensor is a body-space inertia tensor with its precomputed inverse.
type Tensor struct {
	Matrix  mgl64.Mat3
	Inverse mgl64.Mat3
}

// NewTensor builds a tensor from a matrix, failing on singular input.
func NewTensor(m mgl64.Mat3) (Tensor, error) {
	if math.Abs(m.Det()) < mathx.Eps {
		return Tensor{}, fmt.Errorf("inertia tensor is singular (det %v)", m.Det())
	}
	return Tensor{Matrix: m, Inverse: m.Inv()}, nil
}

// Diagonal builds a tensor with the given principal moments.
func Diagonal(x, y, z float64) Tensor {
	return Tensor{
		Matrix:  mgl64.Diag3(mgl64.Vec3{x, y, z}),
		Inverse: mgl64.Diag3(mgl64.Vec3{1 / x, 1 / y, 1 / z}),
	}
}

// RotatedMatrix returns the tensor in world space for orientation q.
func (t Tensor) RotatedMatrix(q mgl64.Quat) mgl64.Mat3 {
	return mathx.RotateTensor(t.Matrix, q)
}

// InverseRotatedMatrix returns the inverse tensor in world space.
func (t Tensor) InverseRotatedMatrix(q mgl64.Quat) mgl64.Mat3 {
	return mathx.RotateTensor(t.Inverse, q)
}

// Properties are the mass, center of mass and inertia tensor about the
// center of mass of a body, all in the body's reference frame.
type Properties struct {
	Mass         float64
	CenterOfMass mgl64.Vec3
	Tensor       Tensor
}

// UniformSphere returns the inertial properties of a solid sphere.
func UniformSphere(mass, radius float64) Properties {
	i := 0.4 * mass * radius * radius
	return Properties{Mass: mass, Tensor: Diagonal(i, i, i)}
}

// UniformBox returns the inertial properties of a solid box with the given
// full extents along each axis.
func UniformBox(mass float64, extents mgl64.Vec3) Properties {
	x2 := extents.X() * extents.X()
	y2 := extents.Y() * extents.Y()
	z2 := extents.Z() * extents.Z()
	f := mass / 12.0
	return Properties{
		Mass:   mass,
		Tensor: Diagonal(f*(y2+z2), f*(x2+z2), f*(x2+y2)),
	}
}

// UniformCylinder returns the inertial properties of a solid cylinder with
// its axis along y.
func UniformCylinder(mass, radius, length float64) Properties {
	r2 := radius * radius
	l2 := length * length
	lateral := mass * (3*r2 + l2) / 12.0
	axial := 0.5 * mass * r2
	return Properties{Mass: mass, Tensor: Diagonal(lateral, axial, lateral)}
}

// UniformCapsule returns the inertial properties of a solid capsule with its
// axis along y: a cylinder of the given segment length capped by two
// hemispheres.
func UniformCapsule(mass, radius, segmentLength float64) Properties {
	r2 := radius * radius
	cylVolume := math.Pi * r2 * segmentLength
	capVolume := 4.0 / 3.0 * math.Pi * r2 * radius
	density := mass / (cylVolume + capVolume)

	cylMass := density * cylVolume
	capMass := density * capVolume

	l2 := segmentLength * segmentLength
	cylLateral := cylMass * (3*r2 + l2) / 12.0
	cylAxial := 0.5 * cylMass * r2

	// Two hemispheres displaced to the cylinder ends combine into a sphere
	// with a parallel-axis term on the lateral moments.
	capAxial := 0.4 * capMass * r2
	capLateral := capAxial + capMass*(0.25*l2+0.375*segmentLength*radius)

	lateral := cylLateral + capLateral
	axial := cylAxial + capAxial
	return Properties{Mass: mass, Tensor: Diagonal(lateral, axial, lateral)}
}

// Displaced returns the properties expressed about a reference point shifted
// by -offset, i.e. with the center of mass moved by offset.
func (p Properties) Displaced(offset mgl64.Vec3) Properties {
	p.CenterOfMass = p.CenterOfMass.Add(offset)
	return p
}
