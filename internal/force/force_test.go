package force

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"voxelsim/internal/body"
	"voxelsim/internal/inertia"
)

func addSphereBody(t *testing.T, s *body.Store, mass float64, pos mgl64.Vec3) body.DynamicID {
	t.Helper()
	id, err := s.NewDynamic(inertia.UniformSphere(mass, 0.5), pos, mgl64.QuatIdent())
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func stepForces(s *body.Store, m *Manager, dt float64) {
	s.ForEachDynamic(func(_ body.DynamicID, d *body.Dynamic) { d.ResetLoads() })
	m.Apply(s)
	s.ForEachDynamic(func(_ body.DynamicID, d *body.Dynamic) {
		d.AdvanceMomenta(dt)
		d.AdvancePose(dt)
	})
}

func TestWorldGravityAcceleratesAllBodies(t *testing.T) {
	s := body.NewStore()
	m := NewManager()
	m.WorldGravity = mgl64.Vec3{0, -10, 0}
	light := addSphereBody(t, s, 1.0, mgl64.Vec3{})
	heavy := addSphereBody(t, s, 100.0, mgl64.Vec3{5, 0, 0})

	for i := 0; i < 100; i++ {
		stepForces(s, m, 0.01)
	}

	// Free fall is mass independent: both reach v = g t.
	for _, id := range []body.DynamicID{light, heavy} {
		d, _ := s.Dynamic(id)
		v := d.Velocity()
		if math.Abs(v.Y()+10.0) > 1e-9 {
			t.Errorf("body %d fell at %v, want -10", id, v.Y())
		}
	}
}

func TestSpringOscillationFrequency(t *testing.T) {
	tests := []struct {
		name      string
		stiffness float64
		mass      float64
	}{
		{"soft light", 10.0, 1.0},
		{"stiff light", 250.0, 1.0},
		{"stiff heavy", 100.0, 4.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := body.NewStore()
			m := NewManager()
			m.WorldGravity = mgl64.Vec3{}

			anchor := s.AddStatic(body.Static{})
			const rest = 1.0
			const amp = 0.1
			id := addSphereBody(t, s, tt.mass, mgl64.Vec3{rest + amp, 0, 0})

			m.AddSpring(Spring{
				BodyA:      body.StaticRef(anchor),
				BodyB:      body.DynamicRef(id),
				Stiffness:  tt.stiffness,
				RestLength: rest,
			})

			// Count zero crossings of the displacement to estimate the
			// oscillation period.
			period := 2 * math.Pi * math.Sqrt(tt.mass/tt.stiffness)
			dt := period / 4000
			steps := int(5 * period / dt)

			d, _ := s.Dynamic(id)
			prev := d.Position.X() - rest
			crossings := 0
			for i := 0; i < steps; i++ {
				stepForces(s, m, dt)
				cur := d.Position.X() - rest
				if prev < 0 && cur >= 0 || prev > 0 && cur <= 0 {
					crossings++
				}
				prev = cur
			}

			measured := 2 * 5 * period / float64(crossings) / period
			if math.Abs(measured-1.0) > 0.02 {
				t.Errorf("period off by factor %v (crossings %d)", measured, crossings)
			}
		})
	}
}

func TestSpringSlackExertsNoForce(t *testing.T) {
	s := body.NewStore()
	anchor := s.AddStatic(body.Static{})
	id := addSphereBody(t, s, 1.0, mgl64.Vec3{0.5, 0, 0})

	g := Spring{
		BodyA:       body.StaticRef(anchor),
		BodyB:       body.DynamicRef(id),
		Stiffness:   100.0,
		RestLength:  2.0,
		SlackLength: 1.0,
	}

	if f := g.ScalarForce(0.8, 0); f != 0 {
		t.Errorf("force below slack length = %v, want 0", f)
	}
	if f := g.ScalarForce(3.0, 0); f >= 0 {
		t.Errorf("stretched spring force = %v, want negative (pulling)", f)
	}

	d, _ := s.Dynamic(id)
	d.ResetLoads()
	g.Apply(s)
	if d.Force.Len() != 0 {
		t.Errorf("slack spring applied force %v", d.Force)
	}
}

func TestLocalForceInducesTorque(t *testing.T) {
	s := body.NewStore()
	id := addSphereBody(t, s, 1.0, mgl64.Vec3{})
	d, _ := s.Dynamic(id)

	g := LocalForce{Body: id, Point: mgl64.Vec3{1, 0, 0}, Force: mgl64.Vec3{0, 2, 0}}
	g.Apply(s)

	if d.Torque.Sub(mgl64.Vec3{0, 0, 2}).Len() > 1e-12 {
		t.Errorf("torque = %v, want (0,0,2)", d.Torque)
	}

	// In body mode the force vector rotates with the body.
	d.ResetLoads()
	d.Orientation = mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1})
	gBody := LocalForce{Body: id, Point: mgl64.Vec3{}, Force: mgl64.Vec3{1, 0, 0}, Mode: LocalForceBody}
	gBody.Apply(s)
	if d.Force.Sub(mgl64.Vec3{0, 1, 0}).Len() > 1e-9 {
		t.Errorf("body-frame force = %v, want (0,1,0)", d.Force)
	}
}

func cubeMesh(half float64) ([]mgl64.Vec3, []uint32) {
	p := []mgl64.Vec3{
		{-half, -half, -half}, {half, -half, -half},
		{half, half, -half}, {-half, half, -half},
		{-half, -half, half}, {half, -half, half},
		{half, half, half}, {-half, half, half},
	}
	idx := []uint32{
		0, 2, 1, 0, 3, 2, // -z
		4, 5, 6, 4, 6, 7, // +z
		0, 1, 5, 0, 5, 4, // -y
		3, 6, 2, 3, 7, 6, // +y
		0, 7, 3, 0, 4, 7, // -x
		1, 2, 6, 1, 6, 5, // +x
	}
	return p, idx
}

func TestDragLoadMapOpposesFlow(t *testing.T) {
	positions, indices := cubeMesh(1.0)
	m := BuildDragLoadMap(positions, indices, mgl64.Vec3{}, DragMapConfig{
		Height: 32, DirectionSamples: 3000, Smoothness: 2.0,
	})

	dirs := []mgl64.Vec3{
		{1, 0, 0}, {0, 1, 0}, {0, 0, 1},
		mgl64.Vec3{1, 1, 0}.Normalize(),
		mgl64.Vec3{-1, 0.5, 0.3}.Normalize(),
	}
	for _, dir := range dirs {
		load := m.Lookup(dir)
		if load.Force.Len() == 0 {
			t.Fatalf("no load for direction %v", dir)
		}
		if load.Force.Dot(dir) >= 0 {
			t.Errorf("drag load %v does not oppose flow %v", load.Force, dir)
		}
	}

	// A cube moving face-on presents 4 units of projected area.
	axial := m.Lookup(mgl64.Vec3{0, 0, 1}).Force.Len()
	if axial < 2.0 || axial > 6.0 {
		t.Errorf("face-on load magnitude %v outside plausible range", axial)
	}
}

func TestDragForceDeceleratesBody(t *testing.T) {
	positions, indices := cubeMesh(0.5)
	dm := BuildDragLoadMap(positions, indices, mgl64.Vec3{}, DragMapConfig{
		Height: 16, DirectionSamples: 1500, Smoothness: 2.0,
	})

	s := body.NewStore()
	m := NewManager()
	m.WorldGravity = mgl64.Vec3{}
	m.Medium = Air()
	id := addSphereBody(t, s, 1.0, mgl64.Vec3{})
	d, _ := s.Dynamic(id)
	d.SetVelocity(mgl64.Vec3{10, 0, 0})

	m.AddDrag(DragForce{Body: id, Map: dm, Coefficient: 1.0, Scaling: 1.0})

	speed0 := d.Velocity().Len()
	for i := 0; i < 200; i++ {
		stepForces(s, m, 0.01)
		if d.Velocity().Len() > speed0+1e-9 {
			t.Fatal("drag increased speed")
		}
		speed0 = d.Velocity().Len()
	}
	if speed0 >= 10.0 {
		t.Errorf("speed not reduced by drag: %v", speed0)
	}

	// No medium, no drag.
	m.Medium = Vacuum()
	before := d.Velocity()
	stepForces(s, m, 0.01)
	if d.Velocity().Sub(before).Len() > 1e-12 {
		t.Error("drag applied in vacuum")
	}
}

func TestAlignmentTorqueSettles(t *testing.T) {
	s := body.NewStore()
	m := NewManager()
	m.WorldGravity = mgl64.Vec3{}

	id := addSphereBody(t, s, 1.0, mgl64.Vec3{})
	d, _ := s.Dynamic(id)
	// Start with the body y axis tilted well away from world up.
	d.Orientation = mgl64.QuatRotate(2.0, mgl64.Vec3{1, 0, 0})

	m.AddAlignmentTorque(AlignmentTorque{
		Body:              id,
		Axis:              mgl64.Vec3{0, 1, 0},
		Target:            AlignFixed,
		Direction:         mgl64.Vec3{0, 1, 0},
		SettlingTime:      1.0,
		SpinDamping:       1.0,
		PrecessionDamping: 1.0,
	})

	for i := 0; i < 3000; i++ {
		stepForces(s, m, 0.001)
	}

	axis := d.Orientation.Rotate(mgl64.Vec3{0, 1, 0})
	angle := math.Acos(math.Min(axis.Dot(mgl64.Vec3{0, 1, 0}), 1))
	if angle > 0.05 {
		t.Errorf("axis still %v rad from target after 3 settling times", angle)
	}
	if d.AngularVelocity().Len() > 0.1 {
		t.Errorf("residual spin %v", d.AngularVelocity())
	}
}

func TestAlignmentTorqueGravityTarget(t *testing.T) {
	s := body.NewStore()
	m := NewManager()
	m.WorldGravity = mgl64.Vec3{0, -9.81, 0}

	id := addSphereBody(t, s, 1.0, mgl64.Vec3{})
	d, _ := s.Dynamic(id)
	d.Orientation = mgl64.QuatRotate(1.5, mgl64.Vec3{0, 0, 1})

	m.AddAlignmentTorque(AlignmentTorque{
		Body:              id,
		Axis:              mgl64.Vec3{0, -1, 0},
		Target:            AlignGravity,
		SettlingTime:      0.5,
		SpinDamping:       1.0,
		PrecessionDamping: 1.0,
	})
	// Cancel gravity's linear pull so the test isolates the torque.
	m.AddConstantAcceleration(ConstantAcceleration{Body: id, Acceleration: mgl64.Vec3{0, 9.81, 0}})

	for i := 0; i < 3000; i++ {
		stepForces(s, m, 0.001)
	}

	axis := d.Orientation.Rotate(mgl64.Vec3{0, -1, 0})
	if axis.Dot(mgl64.Vec3{0, -1, 0}) < 0.99 {
		t.Errorf("axis %v not aligned with gravity", axis)
	}
}
