package metrics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"voxelsim/internal/body"
)

// KineticEnergy records the total translational plus rotational kinetic
// energy of all dynamic bodies.
type KineticEnergy struct {
	series
}

// NewKineticEnergy returns an empty kinetic energy observer.
func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{series: series{name: "kinetic energy"}}
}

func (e *KineticEnergy) Observe(s *body.Store, _ float64) {
	total := 0.0
	s.ForEachDynamic(func(_ body.DynamicID, d *body.Dynamic) {
		total += 0.5 * d.Momentum.Dot(d.Velocity())
		total += 0.5 * d.AngularMomentum.Dot(d.AngularVelocity())
	})
	e.record(total)
}

// LinearMomentum records the magnitude of the summed momentum of all
// dynamic bodies. Without external forces it stays constant.
type LinearMomentum struct {
	series
}

// NewLinearMomentum returns an empty momentum observer.
func NewLinearMomentum() *LinearMomentum {
	return &LinearMomentum{series: series{name: "linear momentum"}}
}

func (m *LinearMomentum) Observe(s *body.Store, _ float64) {
	var total mgl64.Vec3
	s.ForEachDynamic(func(_ body.DynamicID, d *body.Dynamic) {
		total = total.Add(d.Momentum)
	})
	m.record(total.Len())
}

// AngularMomentum records the magnitude of the summed angular momentum of
// all dynamic bodies about the world origin, spin plus orbital terms.
type AngularMomentum struct {
	series
}

// NewAngularMomentum returns an empty angular momentum observer.
func NewAngularMomentum() *AngularMomentum {
	return &AngularMomentum{series: series{name: "angular momentum"}}
}

func (m *AngularMomentum) Observe(s *body.Store, _ float64) {
	var total mgl64.Vec3
	s.ForEachDynamic(func(_ body.DynamicID, d *body.Dynamic) {
		total = total.Add(d.AngularMomentum)
		total = total.Add(d.Position.Cross(d.Momentum))
	})
	m.record(total.Len())
}

// PotentialEnergy records the gravitational potential energy of all dynamic
// bodies relative to the world origin.
type PotentialEnergy struct {
	series
	gravity mgl64.Vec3
}

// NewPotentialEnergy returns an observer for the given gravity vector.
func NewPotentialEnergy(gravity mgl64.Vec3) *PotentialEnergy {
	return &PotentialEnergy{series: series{name: "potential energy"}, gravity: gravity}
}

func (p *PotentialEnergy) Observe(s *body.Store, _ float64) {
	total := 0.0
	s.ForEachDynamic(func(_ body.DynamicID, d *body.Dynamic) {
		total -= d.Mass * p.gravity.Dot(d.Position)
	})
	p.record(total)
}

// MaxSpeed records the largest dynamic body speed, a quick indicator of a
// diverging solve.
type MaxSpeed struct {
	series
}

// NewMaxSpeed returns an empty speed observer.
func NewMaxSpeed() *MaxSpeed {
	return &MaxSpeed{series: series{name: "max speed"}}
}

func (m *MaxSpeed) Observe(s *body.Store, _ float64) {
	peak := 0.0
	s.ForEachDynamic(func(_ body.DynamicID, d *body.Dynamic) {
		peak = math.Max(peak, d.Velocity().Len())
	})
	m.record(peak)
}
