// Package motion drives kinematic bodies along closed-form trajectories.
// Drivers are pure functions of absolute simulation time: each evaluation
// overwrites the driven body's pose and velocities, so there is no
// integration drift and a driver can be evaluated at any time in any order.
package motion

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"voxelsim/internal/body"
	"voxelsim/internal/mathx"
	"voxelsim/internal/registry"
)

// CircularID identifies a circular trajectory driver.
type CircularID uint64

// HarmonicID identifies a harmonic oscillation driver.
type HarmonicID uint64

// AccelerationID identifies a constant acceleration driver.
type AccelerationID uint64

// RotationID identifies a constant rotation driver.
type RotationID uint64

// Manager owns all trajectory drivers.
type Manager struct {
	circular      *registry.Registry[CircularTrajectory]
	harmonic      *registry.Registry[HarmonicOscillation]
	accelerations *registry.Registry[ConstantAcceleration]
	rotations     *registry.Registry[ConstantRotation]
}

// NewManager returns an empty driver manager.
func NewManager() *Manager {
	return &Manager{
		circular:      registry.New[CircularTrajectory](),
		harmonic:      registry.New[HarmonicOscillation](),
		accelerations: registry.New[ConstantAcceleration](),
		rotations:     registry.New[ConstantRotation](),
	}
}

// AddCircular registers a circular trajectory driver.
func (m *Manager) AddCircular(d CircularTrajectory) CircularID {
	return CircularID(m.circular.Add(d))
}

// AddHarmonic registers a harmonic oscillation driver.
func (m *Manager) AddHarmonic(d HarmonicOscillation) HarmonicID {
	return HarmonicID(m.harmonic.Add(d))
}

// AddConstantAcceleration registers a constant acceleration driver.
func (m *Manager) AddConstantAcceleration(d ConstantAcceleration) AccelerationID {
	return AccelerationID(m.accelerations.Add(d))
}

// AddConstantRotation registers a constant rotation driver.
func (m *Manager) AddConstantRotation(d ConstantRotation) RotationID {
	return RotationID(m.rotations.Add(d))
}

// Apply evaluates every driver at absolute time t.
func (m *Manager) Apply(s *body.Store, t float64) {
	m.circular.ForEach(func(_ uint64, d *CircularTrajectory) { d.Apply(s, t) })
	m.harmonic.ForEach(func(_ uint64, d *HarmonicOscillation) { d.Apply(s, t) })
	m.accelerations.ForEach(func(_ uint64, d *ConstantAcceleration) { d.Apply(s, t) })
	m.rotations.ForEach(func(_ uint64, d *ConstantRotation) { d.Apply(s, t) })
}

// CircularTrajectory moves a body on a circle of the given radius in the
// local xy plane of the trajectory frame. One full revolution takes Period,
// so evaluating one period apart reproduces the same pose exactly.
type CircularTrajectory struct {
	Body        body.KinematicID
	Center      mgl64.Vec3
	Orientation mgl64.Quat // orientation of the trajectory frame
	Radius      float64
	Period      float64
	StartTime   float64
}

// Apply sets the driven body's pose and velocity for time t.
func (d *CircularTrajectory) Apply(s *body.Store, t float64) {
	k, ok := s.Kinematic(d.Body)
	if !ok || d.Period == 0 {
		return
	}
	angle := 2 * math.Pi * (t - d.StartTime) / d.Period
	sin, cos := math.Sincos(angle)

	local := mgl64.Vec3{d.Radius * cos, d.Radius * sin, 0}
	localVel := mgl64.Vec3{-d.Radius * sin, d.Radius * cos, 0}.Mul(2 * math.Pi / d.Period)

	k.Position = d.Center.Add(d.Orientation.Rotate(local))
	k.Velocity = d.Orientation.Rotate(localVel)
	k.AngularVelocity = mgl64.Vec3{}
}

// HarmonicOscillation moves a body sinusoidally along a direction through a
// center point.
type HarmonicOscillation struct {
	Body      body.KinematicID
	Center    mgl64.Vec3
	Direction mgl64.Vec3 // unit length
	Amplitude float64
	Period    float64
	StartTime float64
}

// Apply sets the driven body's pose and velocity for time t.
func (d *HarmonicOscillation) Apply(s *body.Store, t float64) {
	k, ok := s.Kinematic(d.Body)
	if !ok || d.Period == 0 {
		return
	}
	phase := 2 * math.Pi * (t - d.StartTime) / d.Period
	sin, cos := math.Sincos(phase)

	k.Position = d.Center.Add(d.Direction.Mul(d.Amplitude * sin))
	k.Velocity = d.Direction.Mul(d.Amplitude * cos * 2 * math.Pi / d.Period)
	k.AngularVelocity = mgl64.Vec3{}
}

// ConstantAcceleration moves a body along the ballistic trajectory defined
// by an initial position, velocity and a constant acceleration.
type ConstantAcceleration struct {
	Body            body.KinematicID
	InitialPosition mgl64.Vec3
	InitialVelocity mgl64.Vec3
	Acceleration    mgl64.Vec3
	StartTime       float64
}

// Apply sets the driven body's pose and velocity for time t.
func (d *ConstantAcceleration) Apply(s *body.Store, t float64) {
	k, ok := s.Kinematic(d.Body)
	if !ok {
		return
	}
	tau := t - d.StartTime
	k.Position = d.InitialPosition.
		Add(d.InitialVelocity.Mul(tau)).
		Add(d.Acceleration.Mul(0.5 * tau * tau))
	k.Velocity = d.InitialVelocity.Add(d.Acceleration.Mul(tau))
	k.AngularVelocity = mgl64.Vec3{}
}

// ConstantRotation spins a body about a fixed world-space axis at a constant
// angular speed.
type ConstantRotation struct {
	Body               body.KinematicID
	InitialOrientation mgl64.Quat
	Axis               mgl64.Vec3 // unit length
	AngularSpeed       float64    // radians per second
	StartTime          float64
}

// Apply sets the driven body's orientation and angular velocity for time t.
func (d *ConstantRotation) Apply(s *body.Store, t float64) {
	k, ok := s.Kinematic(d.Body)
	if !ok {
		return
	}
	tau := t - d.StartTime
	w := d.Axis.Mul(d.AngularSpeed)
	k.Orientation = mathx.AdvanceOrientation(d.InitialOrientation, w, tau)
	k.AngularVelocity = w
}
