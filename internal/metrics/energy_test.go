package metrics

import (
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"voxelsim/internal/body"
	"voxelsim/internal/inertia"
)

func addSphere(t *testing.T, s *body.Store, mass, radius float64, v mgl64.Vec3) *body.Dynamic {
	t.Helper()
	id, err := s.NewDynamic(inertia.UniformSphere(mass, radius), mgl64.Vec3{}, mgl64.QuatIdent())
	if err != nil {
		t.Fatal(err)
	}
	d, _ := s.Dynamic(id)
	d.SetVelocity(v)
	return d
}

func TestKineticEnergyOfTranslatingSphere(t *testing.T) {
	s := body.NewStore()
	addSphere(t, s, 2.0, 1.0, mgl64.Vec3{3, 0, 0})

	e := NewKineticEnergy()
	e.Observe(s, 0)

	want := 0.5 * 2.0 * 9.0
	if math.Abs(e.Value()-want) > 1e-9 {
		t.Fatalf("kinetic energy = %v, want %v", e.Value(), want)
	}
}

func TestKineticEnergyIncludesRotation(t *testing.T) {
	s := body.NewStore()
	d := addSphere(t, s, 1.0, 1.0, mgl64.Vec3{})
	d.SetAngularVelocity(mgl64.Vec3{0, 0, 5})

	e := NewKineticEnergy()
	e.Observe(s, 0)

	// 0.5 I w² with I = 0.4 m r².
	want := 0.5 * 0.4 * 25.0
	if math.Abs(e.Value()-want) > 1e-9 {
		t.Fatalf("rotational energy = %v, want %v", e.Value(), want)
	}
}

func TestLinearMomentumSumsBodies(t *testing.T) {
	s := body.NewStore()
	addSphere(t, s, 2.0, 0.5, mgl64.Vec3{1, 0, 0})
	addSphere(t, s, 1.0, 0.5, mgl64.Vec3{0, 3, 0})

	m := NewLinearMomentum()
	m.Observe(s, 0)

	want := math.Hypot(2.0, 3.0)
	if math.Abs(m.Value()-want) > 1e-9 {
		t.Fatalf("momentum = %v, want %v", m.Value(), want)
	}
}

func TestAngularMomentumIncludesOrbitalTerm(t *testing.T) {
	s := body.NewStore()
	d := addSphere(t, s, 2.0, 0.5, mgl64.Vec3{0, 3, 0})
	d.Position = mgl64.Vec3{1, 0, 0}

	m := NewAngularMomentum()
	m.Observe(s, 0)

	// r × p = (1,0,0) × (0,6,0) = (0,0,6).
	if math.Abs(m.Value()-6.0) > 1e-9 {
		t.Fatalf("angular momentum = %v, want 6", m.Value())
	}
}

func TestPotentialEnergyTracksHeight(t *testing.T) {
	s := body.NewStore()
	d := addSphere(t, s, 2.0, 0.5, mgl64.Vec3{})
	d.Position = mgl64.Vec3{0, 5, 0}

	p := NewPotentialEnergy(mgl64.Vec3{0, -9.81, 0})
	p.Observe(s, 0)

	want := 2.0 * 9.81 * 5.0
	if math.Abs(p.Value()-want) > 1e-9 {
		t.Fatalf("potential energy = %v, want %v", p.Value(), want)
	}
}

func TestRecorderSamplesAndResets(t *testing.T) {
	s := body.NewStore()
	addSphere(t, s, 1.0, 0.5, mgl64.Vec3{1, 0, 0})

	ke := NewKineticEnergy()
	ms := NewMaxSpeed()
	r := NewRecorder(ke, ms)
	for i := 0; i < 5; i++ {
		r.Sample(s, float64(i))
	}
	if len(ke.History()) != 5 || len(ms.History()) != 5 {
		t.Fatalf("histories = %d, %d, want 5 each", len(ke.History()), len(ms.History()))
	}
	if ms.Value() != 1.0 {
		t.Fatalf("max speed = %v, want 1", ms.Value())
	}

	r.Reset()
	if len(ke.History()) != 0 {
		t.Fatal("reset did not clear history")
	}
}

func TestChartRendersCaption(t *testing.T) {
	s := body.NewStore()
	addSphere(t, s, 1.0, 0.5, mgl64.Vec3{2, 0, 0})
	ke := NewKineticEnergy()
	for i := 0; i < 10; i++ {
		ke.Observe(s, float64(i))
	}
	out := Chart(ke, 4, 30)
	if !strings.Contains(out, "kinetic energy") {
		t.Fatalf("chart missing caption:\n%s", out)
	}
	if Chart(NewMaxSpeed(), 4, 30) != "" {
		t.Fatal("chart of empty history should be empty")
	}
}
