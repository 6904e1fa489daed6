// Package body holds the rigid body state store. Dynamic bodies carry
// momentum and angular momentum as their primary kinematic state, since
// those are the conserved quantities; velocities are derived on demand from
// mass and the world-space inverse inertia tensor.
package body

import (
	"github.com/go-gl/mathgl/mgl64"
	"voxelsim/internal/inertia"
	"voxelsim/internal/mathx"
)

// Kind discriminates the three body variants.
type Kind uint8

const (
	KindDynamic Kind = iota
	KindKinematic
	KindStatic
)

func (k Kind) String() string {
	switch k {
	case KindDynamic:
		return "dynamic"
	case KindKinematic:
		return "kinematic"
	case KindStatic:
		return "static"
	}
	return "unknown"
}

// DynamicID identifies a dynamic body within a Store.
type DynamicID uint64

// KinematicID identifies a kinematic body within a Store.
type KinematicID uint64

// StaticID identifies a static body within a Store.
type StaticID uint64

// Ref is a kind-tagged body reference usable across variants.
type Ref struct {
	Kind Kind
	ID   uint64
}

// DynamicRef builds a Ref for a dynamic body.
func DynamicRef(id DynamicID) Ref { return Ref{KindDynamic, uint64(id)} }

// KinematicRef builds a Ref for a kinematic body.
func KinematicRef(id KinematicID) Ref { return Ref{KindKinematic, uint64(id)} }

// StaticRef builds a Ref for a static body.
func StaticRef(id StaticID) Ref { return Ref{KindStatic, uint64(id)} }

// Dynamic is a fully simulated rigid body.
type Dynamic struct {
	Mass    float64
	Inertia inertia.Tensor // about the center of mass, body space

	Position    mgl64.Vec3 // center of mass, world space
	Orientation mgl64.Quat

	Momentum        mgl64.Vec3
	AngularMomentum mgl64.Vec3

	// Accumulated loads for the current substep.
	Force  mgl64.Vec3
	Torque mgl64.Vec3
}

// Velocity derives the linear velocity from the momentum.
func (d *Dynamic) Velocity() mgl64.Vec3 {
	return d.Momentum.Mul(1.0 / d.Mass)
}

// AngularVelocity derives the angular velocity from the angular momentum
// through the world-space inverse inertia tensor.
func (d *Dynamic) AngularVelocity() mgl64.Vec3 {
	return d.InverseWorldInertia().Mul3x1(d.AngularMomentum)
}

// InverseWorldInertia returns R I⁻¹ Rᵀ for the current orientation.
func (d *Dynamic) InverseWorldInertia() mgl64.Mat3 {
	return d.Inertia.InverseRotatedMatrix(d.Orientation)
}

// WorldInertia returns R I Rᵀ for the current orientation.
func (d *Dynamic) WorldInertia() mgl64.Mat3 {
	return d.Inertia.RotatedMatrix(d.Orientation)
}

// SetVelocity overwrites the momentum to match the given velocity.
func (d *Dynamic) SetVelocity(v mgl64.Vec3) {
	d.Momentum = v.Mul(d.Mass)
}

// SetAngularVelocity overwrites the angular momentum to match the given
// angular velocity.
func (d *Dynamic) SetAngularVelocity(w mgl64.Vec3) {
	d.AngularMomentum = d.Inertia.RotatedMatrix(d.Orientation).Mul3x1(w)
}

// ApplyForce accumulates a force acting through the center of mass.
func (d *Dynamic) ApplyForce(f mgl64.Vec3) {
	d.Force = d.Force.Add(f)
}

// ApplyForceAt accumulates a force acting at a world-space point, including
// the induced torque about the center of mass.
func (d *Dynamic) ApplyForceAt(f, point mgl64.Vec3) {
	d.Force = d.Force.Add(f)
	d.Torque = d.Torque.Add(point.Sub(d.Position).Cross(f))
}

// ApplyTorque accumulates a pure torque.
func (d *Dynamic) ApplyTorque(t mgl64.Vec3) {
	d.Torque = d.Torque.Add(t)
}

// ApplyImpulse changes the momenta immediately for an impulse acting at a
// world-space point.
func (d *Dynamic) ApplyImpulse(impulse, point mgl64.Vec3) {
	d.Momentum = d.Momentum.Add(impulse)
	d.AngularMomentum = d.AngularMomentum.Add(point.Sub(d.Position).Cross(impulse))
}

// ResetLoads clears the accumulated force and torque.
func (d *Dynamic) ResetLoads() {
	d.Force = mgl64.Vec3{}
	d.Torque = mgl64.Vec3{}
}

// AdvanceMomenta integrates the accumulated loads over dt.
func (d *Dynamic) AdvanceMomenta(dt float64) {
	d.Momentum = d.Momentum.Add(d.Force.Mul(dt))
	d.AngularMomentum = d.AngularMomentum.Add(d.Torque.Mul(dt))
}

// AdvancePose integrates position and orientation over dt from the current
// momenta. Called after AdvanceMomenta for semi-implicit stepping.
func (d *Dynamic) AdvancePose(dt float64) {
	d.Position = d.Position.Add(d.Velocity().Mul(dt))
	d.Orientation = mathx.AdvanceOrientation(d.Orientation, d.AngularVelocity(), dt)
}

// LocalToWorld transforms a body-local point into world space.
func (d *Dynamic) LocalToWorld(p mgl64.Vec3) mgl64.Vec3 {
	return d.Position.Add(d.Orientation.Rotate(p))
}

// VelocityAt returns the velocity of a world-space point rigidly attached to
// the body.
func (d *Dynamic) VelocityAt(point mgl64.Vec3) mgl64.Vec3 {
	return d.Velocity().Add(d.AngularVelocity().Cross(point.Sub(d.Position)))
}

// UpdateInertialProperties rebinds the body's mass distribution, keeping the
// world-space velocities (not the momenta) fixed so a deforming body does not
// jump. The center-of-mass shift is given in body-local space.
func (d *Dynamic) UpdateInertialProperties(props inertia.Properties, comShift mgl64.Vec3) {
	v := d.Velocity()
	w := d.AngularVelocity()

	d.Position = d.Position.Add(d.Orientation.Rotate(comShift))
	d.Mass = props.Mass
	d.Inertia = props.Tensor

	d.SetVelocity(v)
	d.SetAngularVelocity(w)
}

// Kinematic is a scripted body: it has a pose and velocities but infinite
// effective mass, so it influences dynamic bodies without being influenced.
type Kinematic struct {
	Position        mgl64.Vec3
	Orientation     mgl64.Quat
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3
}

// AdvancePose integrates the kinematic pose over dt. Trajectory drivers
// overwrite the pose afterwards; this keeps undriven kinematic bodies moving.
func (k *Kinematic) AdvancePose(dt float64) {
	k.Position = k.Position.Add(k.Velocity.Mul(dt))
	k.Orientation = mathx.AdvanceOrientation(k.Orientation, k.AngularVelocity, dt)
}

// LocalToWorld transforms a body-local point into world space.
func (k *Kinematic) LocalToWorld(p mgl64.Vec3) mgl64.Vec3 {
	return k.Position.Add(k.Orientation.Rotate(p))
}

// VelocityAt returns the velocity of a world-space point rigidly attached to
// the body.
func (k *Kinematic) VelocityAt(point mgl64.Vec3) mgl64.Vec3 {
	return k.Velocity.Add(k.AngularVelocity.Cross(point.Sub(k.Position)))
}

// Static is an immovable body: pose only.
type Static struct {
	Position    mgl64.Vec3
	Orientation mgl64.Quat
}
