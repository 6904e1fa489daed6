package inertia

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"voxelsim/internal/mathx"
)

// Moments accumulates the zeroth, first and second mass moments of a body
// composed of many axis-aligned cubic cells. Cells can be removed again,
// which is how deforming bodies keep their inertial properties current
// without a full rescan.
type Moments struct {
	Mass   float64
	First  mgl64.Vec3 // ∫ r dm
	Second mgl64.Mat3 // ∫ r rᵀ dm
}

// cellSecondMoment is the second moment of a cube of the given mass and side
// length about its own center: (m a²/12) I.
func cellSecondMoment(mass, side float64) mgl64.Mat3 {
	s := mass * side * side / 12.0
	return mgl64.Diag3(mgl64.Vec3{s, s, s})
}

// AddCell accumulates a cube of the given mass and side length centered at p.
func (m *Moments) AddCell(mass, side float64, p mgl64.Vec3) {
	m.Mass += mass
	m.First = m.First.Add(p.Mul(mass))
	m.Second = m.Second.Add(mathx.OuterProduct(p, p).Mul(mass)).Add(cellSecondMoment(mass, side))
}

// RemoveCell subtracts a previously added cube.
func (m *Moments) RemoveCell(mass, side float64, p mgl64.Vec3) {
	m.Mass -= mass
	m.First = m.First.Sub(p.Mul(mass))
	m.Second = m.Second.Sub(mathx.OuterProduct(p, p).Mul(mass)).Sub(cellSecondMoment(mass, side))
}

// Accumulate folds another set of moments into this one.
func (m *Moments) Accumulate(other Moments) {
	m.Mass += other.Mass
	m.First = m.First.Add(other.First)
	m.Second = m.Second.Add(other.Second)
}

// CenterOfMass derives the center of mass, failing when no mass remains.
func (m Moments) CenterOfMass() (mgl64.Vec3, error) {
	if m.Mass < mathx.Eps {
		return mgl64.Vec3{}, fmt.Errorf("no mass accumulated")
	}
	return m.First.Mul(1.0 / m.Mass), nil
}

// Properties derives mass, center of mass and the inertia tensor about the
// center of mass from the accumulated moments.
func (m Moments) Properties() (Properties, error) {
	com, err := m.CenterOfMass()
	if err != nil {
		return Properties{}, err
	}

	// Shift the second moment to the center of mass, then convert to an
	// inertia tensor: I = tr(C) Id - C.
	c := m.Second.Sub(mathx.OuterProduct(com, com).Mul(m.Mass))
	tr := c[0] + c[4] + c[8]
	im := mgl64.Diag3(mgl64.Vec3{tr, tr, tr}).Sub(c)

	tensor, err := NewTensor(im)
	if err != nil {
		return Properties{}, err
	}
	return Properties{Mass: m.Mass, CenterOfMass: com, Tensor: tensor}, nil
}
