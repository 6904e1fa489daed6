package solver

import (
	"context"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"voxelsim/internal/body"
	"voxelsim/internal/collide"
	"voxelsim/internal/inertia"
)

type harness struct {
	store   *body.Store
	set     *collide.Set
	solver  *Solver
	gravity mgl64.Vec3
}

func newHarness(cfg Config) *harness {
	return &harness{
		store:   body.NewStore(),
		set:     collide.NewSet(),
		solver:  New(cfg),
		gravity: mgl64.Vec3{},
	}
}

func (h *harness) addSphere(t *testing.T, pos mgl64.Vec3, radius, mass float64, mat collide.Material) body.DynamicID {
	t.Helper()
	id, err := h.store.NewDynamic(inertia.UniformSphere(mass, radius), pos, mgl64.QuatIdent())
	if err != nil {
		t.Fatal(err)
	}
	h.set.Add(collide.Collidable{
		Kind:     collide.KindDynamic,
		Body:     body.DynamicRef(id),
		Shape:    collide.Sphere{Radius: radius},
		Material: mat,
	})
	return id
}

func (h *harness) addGroundPlane(mat collide.Material) {
	ground := h.store.AddStatic(body.Static{})
	h.set.Add(collide.Collidable{
		Kind:     collide.KindStatic,
		Body:     body.StaticRef(ground),
		Shape:    collide.Plane{Normal: mgl64.Vec3{0, 1, 0}},
		Material: mat,
	})
}

// substep runs one full solve cycle in the production ordering: contacts
// prepared from pre-force velocities, forces integrated, velocities solved,
// poses advanced.
func (h *harness) substep(t *testing.T, dt float64) {
	t.Helper()

	h.set.Sync(h.store)
	h.solver.BeginSubstep()
	h.set.ForEachManifold(func(m *collide.Manifold) {
		if m.A.Kind == collide.KindPhantom || m.B.Kind == collide.KindPhantom {
			return
		}
		for _, c := range m.Contacts {
			h.solver.PrepareContact(h.store, m.A, m.B, c)
		}
	})
	h.solver.PrepareJoints(h.store)
	h.solver.DropUnprepared()

	h.store.ForEachDynamic(func(_ body.DynamicID, d *body.Dynamic) {
		d.ResetLoads()
		d.ApplyForce(h.gravity.Mul(d.Mass))
		d.AdvanceMomenta(dt)
	})

	h.solver.SyncVelocities(h.store)
	if err := h.solver.Solve(context.Background()); err != nil {
		t.Fatal(err)
	}
	h.solver.Apply(h.store)

	h.store.ForEachDynamic(func(_ body.DynamicID, d *body.Dynamic) {
		d.AdvancePose(dt)
	})
}

func TestElasticHeadOnCollisionExchangesVelocities(t *testing.T) {
	mat := collide.Material{Restitution: 1.0}
	h := newHarness(DefaultConfig())
	a := h.addSphere(t, mgl64.Vec3{0, 0, 0}, 1.0, 1.0, mat)
	b := h.addSphere(t, mgl64.Vec3{1.95, 0, 0}, 1.0, 1.0, mat)

	da, _ := h.store.Dynamic(a)
	db, _ := h.store.Dynamic(b)
	da.SetVelocity(mgl64.Vec3{1, 0, 0})
	db.SetVelocity(mgl64.Vec3{-1, 0, 0})

	h.substep(t, 1e-3)

	if math.Abs(da.Velocity().X()+1.0) > 1e-6 {
		t.Errorf("body a velocity %v, want -1", da.Velocity().X())
	}
	if math.Abs(db.Velocity().X()-1.0) > 1e-6 {
		t.Errorf("body b velocity %v, want +1", db.Velocity().X())
	}
}

func TestInelasticCollisionStopsApproach(t *testing.T) {
	mat := collide.Material{Restitution: 0.0}
	h := newHarness(DefaultConfig())
	a := h.addSphere(t, mgl64.Vec3{0, 0, 0}, 1.0, 1.0, mat)
	b := h.addSphere(t, mgl64.Vec3{1.95, 0, 0}, 1.0, 1.0, mat)

	da, _ := h.store.Dynamic(a)
	db, _ := h.store.Dynamic(b)
	da.SetVelocity(mgl64.Vec3{2, 0, 0})

	h.substep(t, 1e-3)

	// Total momentum is conserved and the pair moves together.
	total := da.Momentum.Add(db.Momentum)
	if total.Sub(mgl64.Vec3{2, 0, 0}).Len() > 1e-9 {
		t.Errorf("momentum not conserved: %v", total)
	}
	rel := db.Velocity().Sub(da.Velocity()).X()
	if rel < -1e-6 {
		t.Errorf("bodies still approaching after solve: relative %v", rel)
	}
}

func TestRestingContactDoesNotSink(t *testing.T) {
	mat := collide.Material{Restitution: 0.0, StaticFriction: 0.5, DynamicFriction: 0.4}
	h := newHarness(DefaultConfig())
	h.gravity = mgl64.Vec3{0, -9.81, 0}
	h.addGroundPlane(mat)
	id := h.addSphere(t, mgl64.Vec3{0, 0.999, 0}, 1.0, 1.0, mat)

	d, _ := h.store.Dynamic(id)
	for i := 0; i < 400; i++ {
		h.substep(t, 1.0/240)
	}

	if math.Abs(d.Position.Y()-1.0) > 0.01 {
		t.Errorf("resting sphere at height %v, want 1.0", d.Position.Y())
	}
	if d.Velocity().Len() > 0.05 {
		t.Errorf("resting sphere still moving at %v", d.Velocity())
	}
}

func TestPositionalCorrectionResolvesOverlap(t *testing.T) {
	mat := collide.Material{}
	h := newHarness(DefaultConfig())
	h.addGroundPlane(mat)
	// Start noticeably interpenetrated with no velocity.
	id := h.addSphere(t, mgl64.Vec3{0, 0.8, 0}, 1.0, 1.0, mat)

	d, _ := h.store.Dynamic(id)
	for i := 0; i < 120; i++ {
		h.substep(t, 1.0/240)
	}

	if d.Position.Y() < 0.98 {
		t.Errorf("overlap not corrected, height %v", d.Position.Y())
	}
	// Positional correction must not have launched the body.
	if d.Velocity().Len() > 0.2 {
		t.Errorf("correction injected velocity %v", d.Velocity())
	}
}

func TestFrictionImpulseStaysInCone(t *testing.T) {
	mat := collide.Material{Restitution: 0, StaticFriction: 0.4, DynamicFriction: 0.3}
	h := newHarness(DefaultConfig())
	h.gravity = mgl64.Vec3{0, -9.81, 0}
	h.addGroundPlane(mat)
	id := h.addSphere(t, mgl64.Vec3{0, 0.995, 0}, 1.0, 1.0, mat)

	d, _ := h.store.Dynamic(id)
	d.SetVelocity(mgl64.Vec3{5, 0, 0})

	for i := 0; i < 60; i++ {
		h.substep(t, 1.0/240)
		for _, c := range h.solver.contacts {
			tangent := math.Hypot(c.impulseT1, c.impulseT2)
			if tangent > c.friction*c.impulseN+1e-9 {
				t.Fatalf("friction impulse %v exceeds cone %v", tangent, c.friction*c.impulseN)
			}
		}
	}

	// Sliding friction must have slowed the sphere.
	if d.Velocity().X() >= 5.0 {
		t.Errorf("friction did not reduce sliding speed: %v", d.Velocity().X())
	}
}

func TestWarmStartCacheLifecycle(t *testing.T) {
	mat := collide.Material{}
	h := newHarness(DefaultConfig())
	h.gravity = mgl64.Vec3{0, -9.81, 0}
	h.addGroundPlane(mat)
	h.addSphere(t, mgl64.Vec3{0, 0.99, 0}, 1.0, 1.0, mat)

	h.substep(t, 1.0/240)
	if h.solver.NumContacts() != 1 {
		t.Fatalf("contacts cached = %d, want 1", h.solver.NumContacts())
	}
	h.substep(t, 1.0/240)

	var impulse float64
	for _, c := range h.solver.contacts {
		impulse = c.impulseN
	}
	if impulse <= 0 {
		t.Error("no accumulated normal impulse on persistent contact")
	}

	// Move the sphere away: the cached contact must be dropped.
	h.store.ForEachDynamic(func(_ body.DynamicID, d *body.Dynamic) {
		d.Position = mgl64.Vec3{0, 10, 0}
	})
	h.substep(t, 1.0/240)
	if h.solver.NumContacts() != 0 {
		t.Errorf("stale contact kept in cache: %d", h.solver.NumContacts())
	}
}

func TestSphericalJointHoldsAnchor(t *testing.T) {
	h := newHarness(DefaultConfig())
	h.gravity = mgl64.Vec3{0, -9.81, 0}

	pivot := h.store.AddStatic(body.Static{Position: mgl64.Vec3{0, 2, 0}})
	id, err := h.store.NewDynamic(inertia.UniformSphere(1.0, 0.2), mgl64.Vec3{1, 2, 0}, mgl64.QuatIdent())
	if err != nil {
		t.Fatal(err)
	}

	h.solver.AddJoint(SphericalJoint{
		BodyA:   body.DynamicRef(id),
		BodyB:   body.StaticRef(pivot),
		AnchorA: mgl64.Vec3{-1, 0, 0},
	})

	d, _ := h.store.Dynamic(id)
	for i := 0; i < 2000; i++ {
		h.substep(t, 1.0/240)

		anchor := d.LocalToWorld(mgl64.Vec3{-1, 0, 0})
		if anchor.Sub(mgl64.Vec3{0, 2, 0}).Len() > 0.05 {
			t.Fatalf("anchor drifted to %v at step %d", anchor, i)
		}
	}

	// The pendulum should have swung: the body moved below its start.
	if d.Position.Y() >= 2.0 {
		t.Errorf("pendulum never swung down, at %v", d.Position)
	}
}

func TestIslandPartition(t *testing.T) {
	mat := collide.Material{}
	h := newHarness(DefaultConfig())
	// Two well separated overlapping pairs.
	h.addSphere(t, mgl64.Vec3{0, 0, 0}, 1.0, 1.0, mat)
	h.addSphere(t, mgl64.Vec3{1.5, 0, 0}, 1.0, 1.0, mat)
	h.addSphere(t, mgl64.Vec3{100, 0, 0}, 1.0, 1.0, mat)
	h.addSphere(t, mgl64.Vec3{101.5, 0, 0}, 1.0, 1.0, mat)

	h.set.Sync(h.store)
	h.solver.BeginSubstep()
	h.set.ForEachManifold(func(m *collide.Manifold) {
		for _, c := range m.Contacts {
			h.solver.PrepareContact(h.store, m.A, m.B, c)
		}
	})
	h.solver.DropUnprepared()

	islands := h.solver.partitionIslands()
	if len(islands) != 2 {
		t.Errorf("got %d islands, want 2", len(islands))
	}
}

func TestParallelIslandsMatchSequential(t *testing.T) {
	run := func(workers int) []mgl64.Vec3 {
		cfg := DefaultConfig()
		cfg.Workers = workers
		mat := collide.Material{Restitution: 0.5}
		h := newHarness(cfg)
		h.gravity = mgl64.Vec3{0, -9.81, 0}
		h.addGroundPlane(mat)
		for i := 0; i < 6; i++ {
			h.addSphere(t, mgl64.Vec3{float64(i) * 10, 0.9, 0}, 1.0, 1.0, mat)
		}
		for i := 0; i < 50; i++ {
			h.substep(t, 1.0/240)
		}
		var out []mgl64.Vec3
		h.store.ForEachDynamic(func(_ body.DynamicID, d *body.Dynamic) {
			out = append(out, d.Position)
		})
		return out
	}

	seq := run(1)
	par := run(4)
	for i := range seq {
		if seq[i].Sub(par[i]).Len() > 1e-12 {
			t.Fatalf("worker count changed result: %v vs %v", seq[i], par[i])
		}
	}
}

func TestSolverDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false
	mat := collide.Material{Restitution: 1}
	h := newHarness(cfg)
	a := h.addSphere(t, mgl64.Vec3{0, 0, 0}, 1.0, 1.0, mat)
	b := h.addSphere(t, mgl64.Vec3{1.9, 0, 0}, 1.0, 1.0, mat)

	da, _ := h.store.Dynamic(a)
	db, _ := h.store.Dynamic(b)
	da.SetVelocity(mgl64.Vec3{1, 0, 0})

	h.substep(t, 1e-3)
	if math.Abs(da.Velocity().X()-1.0) > 1e-12 || db.Velocity().Len() > 1e-12 {
		t.Error("disabled solver still changed velocities")
	}
}
