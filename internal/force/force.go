// Package force implements the force and torque generators acting on
// dynamic rigid bodies: uniform gravity, constant accelerations, forces at
// body-local attachment points, springs, shape-dependent aerodynamic drag
// and alignment torques. Generators live in per-kind registries and are
// dispatched once per substep.
package force

import (
	"github.com/go-gl/mathgl/mgl64"
	"voxelsim/internal/body"
	"voxelsim/internal/registry"
)

// GravityID identifies a ConstantAcceleration generator.
type GravityID uint64

// LocalForceID identifies a LocalForce generator.
type LocalForceID uint64

// SpringID identifies a Spring generator.
type SpringID uint64

// DragID identifies a DragForce generator.
type DragID uint64

// AlignmentID identifies an AlignmentTorque generator.
type AlignmentID uint64

// Medium is the fluid the bodies move through.
type Medium struct {
	MassDensity float64
	Velocity    mgl64.Vec3
}

// Vacuum is a medium that exerts no drag.
func Vacuum() Medium { return Medium{} }

// Air is a medium with the density of air at sea level.
func Air() Medium { return Medium{MassDensity: 1.2} }

// Manager owns every force generator and the global environment they read.
type Manager struct {
	// WorldGravity is the uniform gravitational acceleration applied to all
	// dynamic bodies. Alignment torques targeting the gravity direction read
	// it as well.
	WorldGravity mgl64.Vec3

	// Medium is the fluid drag generators act in.
	Medium Medium

	accelerations *registry.Registry[ConstantAcceleration]
	localForces   *registry.Registry[LocalForce]
	springs       *registry.Registry[Spring]
	dragForces    *registry.Registry[DragForce]
	alignments    *registry.Registry[AlignmentTorque]
}

// NewManager returns a manager with standard gravity and no medium.
func NewManager() *Manager {
	return &Manager{
		WorldGravity:  mgl64.Vec3{0, -9.81, 0},
		accelerations: registry.New[ConstantAcceleration](),
		localForces:   registry.New[LocalForce](),
		springs:       registry.New[Spring](),
		dragForces:    registry.New[DragForce](),
		alignments:    registry.New[AlignmentTorque](),
	}
}

// AddConstantAcceleration registers a per-body constant acceleration.
func (m *Manager) AddConstantAcceleration(g ConstantAcceleration) GravityID {
	return GravityID(m.accelerations.Add(g))
}

// AddLocalForce registers a force acting at a body-local point.
func (m *Manager) AddLocalForce(g LocalForce) LocalForceID {
	return LocalForceID(m.localForces.Add(g))
}

// AddSpring registers a spring between two bodies.
func (m *Manager) AddSpring(g Spring) SpringID {
	return SpringID(m.springs.Add(g))
}

// AddDrag registers a drag generator.
func (m *Manager) AddDrag(g DragForce) DragID {
	return DragID(m.dragForces.Add(g))
}

// AddAlignmentTorque registers an alignment torque generator.
func (m *Manager) AddAlignmentTorque(g AlignmentTorque) AlignmentID {
	return AlignmentID(m.alignments.Add(g))
}

// LocalForce resolves a local force generator for in-place updates.
func (m *Manager) LocalForce(id LocalForceID) (*LocalForce, bool) {
	return m.localForces.Get(uint64(id))
}

// AlignmentTorque resolves an alignment torque generator.
func (m *Manager) AlignmentTorque(id AlignmentID) (*AlignmentTorque, bool) {
	return m.alignments.Get(uint64(id))
}

// Spring resolves a spring generator.
func (m *Manager) Spring(id SpringID) (*Spring, bool) {
	return m.springs.Get(uint64(id))
}

// RemoveSpring drops a spring generator.
func (m *Manager) RemoveSpring(id SpringID) bool {
	return m.springs.Remove(uint64(id))
}

// RemoveLocalForce drops a local force generator.
func (m *Manager) RemoveLocalForce(id LocalForceID) bool {
	return m.localForces.Remove(uint64(id))
}

// Apply accumulates all generator loads onto the bodies for the current
// substep. Accumulators are expected to have been reset by the caller.
func (m *Manager) Apply(s *body.Store) {
	s.ForEachDynamic(func(_ body.DynamicID, d *body.Dynamic) {
		d.ApplyForce(m.WorldGravity.Mul(d.Mass))
	})

	m.accelerations.ForEach(func(_ uint64, g *ConstantAcceleration) {
		g.Apply(s)
	})
	m.localForces.ForEach(func(_ uint64, g *LocalForce) {
		g.Apply(s)
	})
	m.springs.ForEach(func(_ uint64, g *Spring) {
		g.Apply(s)
	})
	m.dragForces.ForEach(func(_ uint64, g *DragForce) {
		g.Apply(s, m.Medium)
	})
	m.alignments.ForEach(func(_ uint64, g *AlignmentTorque) {
		g.Apply(s, m.WorldGravity)
	})
}

// ConstantAcceleration accelerates one body uniformly, independent of its
// mass (the applied force is m a).
type ConstantAcceleration struct {
	Body         body.DynamicID
	Acceleration mgl64.Vec3
}

// Apply accumulates the equivalent force on the body.
func (g *ConstantAcceleration) Apply(s *body.Store) {
	d, ok := s.Dynamic(g.Body)
	if !ok {
		return
	}
	d.ApplyForce(g.Acceleration.Mul(d.Mass))
}

// LocalForceMode selects the frame the force vector is expressed in.
type LocalForceMode uint8

const (
	// LocalForceWorld applies the force vector as given in world space.
	LocalForceWorld LocalForceMode = iota
	// LocalForceBody rotates the force vector with the body.
	LocalForceBody
)

// LocalForce applies a constant force at a body-local attachment point,
// inducing torque when the point is off center.
type LocalForce struct {
	Body  body.DynamicID
	Point mgl64.Vec3 // body-local attachment point
	Force mgl64.Vec3
	Mode  LocalForceMode
}

// Apply accumulates the force and induced torque on the body.
func (g *LocalForce) Apply(s *body.Store) {
	d, ok := s.Dynamic(g.Body)
	if !ok {
		return
	}
	f := g.Force
	if g.Mode == LocalForceBody {
		f = d.Orientation.Rotate(f)
	}
	d.ApplyForceAt(f, d.LocalToWorld(g.Point))
}
