package body

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"voxelsim/internal/inertia"
	"voxelsim/internal/mathx"
	"voxelsim/internal/registry"
)

// Store owns every body in a simulation. Each variant lives in its own
// densely packed registry so per-step loops touch contiguous memory.
type Store struct {
	dynamic   *registry.Registry[Dynamic]
	kinematic *registry.Registry[Kinematic]
	static    *registry.Registry[Static]
}

// NewStore returns an empty body store.
func NewStore() *Store {
	return &Store{
		dynamic:   registry.New[Dynamic](),
		kinematic: registry.New[Kinematic](),
		static:    registry.New[Static](),
	}
}

// AddDynamic validates and stores a dynamic body.
func (s *Store) AddDynamic(d Dynamic) (DynamicID, error) {
	if d.Mass <= 0 || math.IsNaN(d.Mass) {
		return 0, fmt.Errorf("dynamic body mass must be positive, got %v", d.Mass)
	}
	if math.Abs(d.Inertia.Matrix.Det()) < mathx.Eps {
		return 0, fmt.Errorf("dynamic body inertia tensor is degenerate")
	}
	if d.Orientation == (mgl64.Quat{}) {
		d.Orientation = mgl64.QuatIdent()
	}
	return DynamicID(s.dynamic.Add(d)), nil
}

// NewDynamic builds and stores a dynamic body from inertial properties and a
// pose; the stored position is the world-space center of mass.
func (s *Store) NewDynamic(props inertia.Properties, position mgl64.Vec3, orientation mgl64.Quat) (DynamicID, error) {
	return s.AddDynamic(Dynamic{
		Mass:        props.Mass,
		Inertia:     props.Tensor,
		Position:    position.Add(orientation.Rotate(props.CenterOfMass)),
		Orientation: orientation,
	})
}

// AddKinematic stores a kinematic body.
func (s *Store) AddKinematic(k Kinematic) KinematicID {
	if k.Orientation == (mgl64.Quat{}) {
		k.Orientation = mgl64.QuatIdent()
	}
	return KinematicID(s.kinematic.Add(k))
}

// AddStatic stores a static body.
func (s *Store) AddStatic(st Static) StaticID {
	if st.Orientation == (mgl64.Quat{}) {
		st.Orientation = mgl64.QuatIdent()
	}
	return StaticID(s.static.Add(st))
}

// Dynamic resolves a dynamic body id.
func (s *Store) Dynamic(id DynamicID) (*Dynamic, bool) {
	return s.dynamic.Get(uint64(id))
}

// Kinematic resolves a kinematic body id.
func (s *Store) Kinematic(id KinematicID) (*Kinematic, bool) {
	return s.kinematic.Get(uint64(id))
}

// Static resolves a static body id.
func (s *Store) Static(id StaticID) (*Static, bool) {
	return s.static.Get(uint64(id))
}

// RemoveDynamic drops a dynamic body. Reports whether it existed.
func (s *Store) RemoveDynamic(id DynamicID) bool {
	return s.dynamic.Remove(uint64(id))
}

// RemoveKinematic drops a kinematic body.
func (s *Store) RemoveKinematic(id KinematicID) bool {
	return s.kinematic.Remove(uint64(id))
}

// RemoveStatic drops a static body.
func (s *Store) RemoveStatic(id StaticID) bool {
	return s.static.Remove(uint64(id))
}

// NumDynamic returns the number of dynamic bodies.
func (s *Store) NumDynamic() int { return s.dynamic.Len() }

// NumKinematic returns the number of kinematic bodies.
func (s *Store) NumKinematic() int { return s.kinematic.Len() }

// NumStatic returns the number of static bodies.
func (s *Store) NumStatic() int { return s.static.Len() }

// ForEachDynamic visits all dynamic bodies in storage order.
func (s *Store) ForEachDynamic(fn func(DynamicID, *Dynamic)) {
	s.dynamic.ForEach(func(id uint64, d *Dynamic) { fn(DynamicID(id), d) })
}

// ForEachKinematic visits all kinematic bodies in storage order.
func (s *Store) ForEachKinematic(fn func(KinematicID, *Kinematic)) {
	s.kinematic.ForEach(func(id uint64, k *Kinematic) { fn(KinematicID(id), k) })
}

// Pose resolves the world-space pose of any body reference.
func (s *Store) Pose(ref Ref) (mgl64.Vec3, mgl64.Quat, bool) {
	switch ref.Kind {
	case KindDynamic:
		if d, ok := s.Dynamic(DynamicID(ref.ID)); ok {
			return d.Position, d.Orientation, true
		}
	case KindKinematic:
		if k, ok := s.Kinematic(KinematicID(ref.ID)); ok {
			return k.Position, k.Orientation, true
		}
	case KindStatic:
		if st, ok := s.Static(StaticID(ref.ID)); ok {
			return st.Position, st.Orientation, true
		}
	}
	return mgl64.Vec3{}, mgl64.QuatIdent(), false
}

// Velocities resolves the world-space linear and angular velocity of any
// body reference. Static bodies report zero.
func (s *Store) Velocities(ref Ref) (mgl64.Vec3, mgl64.Vec3, bool) {
	switch ref.Kind {
	case KindDynamic:
		if d, ok := s.Dynamic(DynamicID(ref.ID)); ok {
			return d.Velocity(), d.AngularVelocity(), true
		}
	case KindKinematic:
		if k, ok := s.Kinematic(KinematicID(ref.ID)); ok {
			return k.Velocity, k.AngularVelocity, true
		}
	case KindStatic:
		if _, ok := s.Static(StaticID(ref.ID)); ok {
			return mgl64.Vec3{}, mgl64.Vec3{}, true
		}
	}
	return mgl64.Vec3{}, mgl64.Vec3{}, false
}
