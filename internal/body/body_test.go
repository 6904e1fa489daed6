package body

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"voxelsim/internal/inertia"
)

func newTestBody(t *testing.T, s *Store, mass float64) (DynamicID, *Dynamic) {
	t.Helper()
	id, err := s.NewDynamic(inertia.UniformSphere(mass, 1.0), mgl64.Vec3{}, mgl64.QuatIdent())
	if err != nil {
		t.Fatal(err)
	}
	d, ok := s.Dynamic(id)
	if !ok {
		t.Fatal("body missing after add")
	}
	return id, d
}

func TestFreeBodyConservesMomentum(t *testing.T) {
	s := NewStore()
	_, d := newTestBody(t, s, 3.0)
	d.SetVelocity(mgl64.Vec3{1, 2, -0.5})
	d.SetAngularVelocity(mgl64.Vec3{0.3, -1.1, 4})

	p0 := d.Momentum
	l0 := d.AngularMomentum

	const dt = 0.01
	for i := 0; i < 500; i++ {
		d.ResetLoads()
		d.AdvanceMomenta(dt)
		d.AdvancePose(dt)
	}

	if d.Momentum.Sub(p0).Len() > 1e-12 {
		t.Errorf("momentum drifted: %v -> %v", p0, d.Momentum)
	}
	if d.AngularMomentum.Sub(l0).Len() > 1e-12 {
		t.Errorf("angular momentum drifted: %v -> %v", l0, d.AngularMomentum)
	}
	want := mgl64.Vec3{1, 2, -0.5}.Mul(500 * dt)
	if d.Position.Sub(want).Len() > 1e-9 {
		t.Errorf("position = %v, want %v", d.Position, want)
	}
}

func TestVelocityDerivation(t *testing.T) {
	tests := []struct {
		name string
		mass float64
		v    mgl64.Vec3
		w    mgl64.Vec3
	}{
		{"linear only", 2.0, mgl64.Vec3{3, 0, 0}, mgl64.Vec3{}},
		{"angular only", 5.0, mgl64.Vec3{}, mgl64.Vec3{0, 2, 0}},
		{"combined", 1.5, mgl64.Vec3{-1, 0.5, 2}, mgl64.Vec3{0.1, -0.2, 0.3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			_, d := newTestBody(t, s, tt.mass)
			d.Orientation = mgl64.QuatRotate(0.7, mgl64.Vec3{1, 2, 3}.Normalize())
			d.SetVelocity(tt.v)
			d.SetAngularVelocity(tt.w)

			if d.Velocity().Sub(tt.v).Len() > 1e-12 {
				t.Errorf("velocity roundtrip: got %v, want %v", d.Velocity(), tt.v)
			}
			if d.AngularVelocity().Sub(tt.w).Len() > 1e-12 {
				t.Errorf("angular velocity roundtrip: got %v, want %v", d.AngularVelocity(), tt.w)
			}
		})
	}
}

func TestApplyForceAtInducesTorque(t *testing.T) {
	s := NewStore()
	_, d := newTestBody(t, s, 1.0)

	f := mgl64.Vec3{0, 1, 0}
	at := mgl64.Vec3{1, 0, 0}
	d.ApplyForceAt(f, at)

	if d.Force.Sub(f).Len() > 1e-12 {
		t.Errorf("force = %v, want %v", d.Force, f)
	}
	wantTorque := mgl64.Vec3{0, 0, 1}
	if d.Torque.Sub(wantTorque).Len() > 1e-12 {
		t.Errorf("torque = %v, want %v", d.Torque, wantTorque)
	}
}

func TestApplyImpulseOffCenterSpins(t *testing.T) {
	s := NewStore()
	_, d := newTestBody(t, s, 2.0)

	d.ApplyImpulse(mgl64.Vec3{0, 4, 0}, mgl64.Vec3{1, 0, 0})

	if d.Velocity().Sub(mgl64.Vec3{0, 2, 0}).Len() > 1e-12 {
		t.Errorf("velocity = %v, want (0,2,0)", d.Velocity())
	}
	w := d.AngularVelocity()
	if w.X() != 0 || w.Y() != 0 || w.Z() <= 0 {
		t.Errorf("expected positive spin about z, got %v", w)
	}
}

func TestUpdateInertialPropertiesKeepsVelocities(t *testing.T) {
	s := NewStore()
	_, d := newTestBody(t, s, 4.0)
	d.SetVelocity(mgl64.Vec3{1, -2, 3})
	d.SetAngularVelocity(mgl64.Vec3{0.5, 0.5, -1})

	v, w := d.Velocity(), d.AngularVelocity()
	d.UpdateInertialProperties(inertia.UniformSphere(2.5, 0.8), mgl64.Vec3{0.1, 0, 0})

	if d.Mass != 2.5 {
		t.Errorf("mass = %v, want 2.5", d.Mass)
	}
	if d.Velocity().Sub(v).Len() > 1e-12 || d.AngularVelocity().Sub(w).Len() > 1e-12 {
		t.Error("velocities changed when rebinding inertial properties")
	}
	if d.Position.Sub(mgl64.Vec3{0.1, 0, 0}).Len() > 1e-12 {
		t.Errorf("position did not follow center of mass shift: %v", d.Position)
	}
}

func TestStoreValidation(t *testing.T) {
	tests := []struct {
		name string
		body Dynamic
	}{
		{"zero mass", Dynamic{Mass: 0, Inertia: inertia.Diagonal(1, 1, 1)}},
		{"negative mass", Dynamic{Mass: -2, Inertia: inertia.Diagonal(1, 1, 1)}},
		{"nan mass", Dynamic{Mass: math.NaN(), Inertia: inertia.Diagonal(1, 1, 1)}},
		{"degenerate inertia", Dynamic{Mass: 1}},
	}

	s := NewStore()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.AddDynamic(tt.body); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestStoreRemoveAndLookup(t *testing.T) {
	s := NewStore()
	a, _ := newTestBody(t, s, 1.0)
	b, _ := newTestBody(t, s, 2.0)
	c, _ := newTestBody(t, s, 3.0)

	if !s.RemoveDynamic(a) {
		t.Fatal("remove failed")
	}
	if _, ok := s.Dynamic(a); ok {
		t.Error("removed body still resolvable")
	}
	for _, id := range []DynamicID{b, c} {
		if _, ok := s.Dynamic(id); !ok {
			t.Errorf("body %d lost after unrelated removal", id)
		}
	}
	if s.NumDynamic() != 2 {
		t.Errorf("NumDynamic = %d, want 2", s.NumDynamic())
	}
}

func TestPoseAcrossVariants(t *testing.T) {
	s := NewStore()
	did, _ := newTestBody(t, s, 1.0)
	kid := s.AddKinematic(Kinematic{Position: mgl64.Vec3{1, 2, 3}})
	sid := s.AddStatic(Static{Position: mgl64.Vec3{4, 5, 6}})

	for _, ref := range []Ref{DynamicRef(did), KinematicRef(kid), StaticRef(sid)} {
		if _, _, ok := s.Pose(ref); !ok {
			t.Errorf("pose lookup failed for %v body", ref.Kind)
		}
		if _, _, ok := s.Velocities(ref); !ok {
			t.Errorf("velocity lookup failed for %v body", ref.Kind)
		}
	}

	if _, _, ok := s.Pose(DynamicRef(999)); ok {
		t.Error("pose lookup succeeded for missing body")
	}
}
