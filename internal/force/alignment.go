package force

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"voxelsim/internal/body"
	"voxelsim/internal/mathx"
)

// AlignmentTarget selects the external direction a body axis is steered
// toward.
type AlignmentTarget uint8

const (
	// AlignFixed aligns with a fixed world-space direction.
	AlignFixed AlignmentTarget = iota
	// AlignGravity aligns with the current gravitational force direction.
	AlignGravity
)

// AlignmentTorque steers a body-local axis toward an external direction.
// The direct rotation is modeled as a critically damped oscillator in the
// angle between the axis and the target, which settles without overshoot;
// spin about the aligned axis and precession around the target are damped
// separately so leftover rotation does not accumulate.
type AlignmentTorque struct {
	Body        body.DynamicID
	Axis        mgl64.Vec3 // body-local axis to align, unit length
	Target      AlignmentTarget
	Direction   mgl64.Vec3 // world-space target for AlignFixed, unit length
	SettlingTime float64
	// SpinDamping and PrecessionDamping are dimensionless strengths; the
	// damping frequencies are strength / settling time.
	SpinDamping       float64
	PrecessionDamping float64
}

// Apply accumulates the alignment torque on the body.
func (g *AlignmentTorque) Apply(s *body.Store, worldGravity mgl64.Vec3) {
	d, ok := s.Dynamic(g.Body)
	if !ok || g.SettlingTime <= 0 {
		return
	}

	target := g.Direction
	if g.Target == AlignGravity {
		dir, okDir := mathx.NormalizeIfAbove(worldGravity, 1e-9)
		if !okDir {
			return
		}
		target = dir
	}

	axis := d.Orientation.Rotate(g.Axis)

	// Shortest-arc rotation axis between the body axis and the target.
	rotAxis, okAxis := mathx.NormalizeIfAbove(target.Cross(axis), 1e-8)
	if !okAxis {
		rotAxis = mathx.OrthogonalTo(axis)
	}

	w := d.AngularVelocity()
	l := d.AngularMomentum
	inertiaWorld := d.WorldInertia()

	// Split the angular velocity into the part rotating directly toward the
	// target, the spin about the axis being aligned, and the precession
	// remainder.
	speedAboutRotAxis := w.Dot(rotAxis)
	wRot := rotAxis.Mul(speedAboutRotAxis)
	wSpin := axis.Mul(w.Dot(axis))
	wPrecession := w.Sub(wRot).Sub(wSpin)

	angle := math.Acos(mathx.Clamp(target.Dot(axis), -1, 1))

	// Settled is taken as four time constants.
	timeConstant := 0.25 * g.SettlingTime
	naturalFrequency := 1.0 / timeConstant
	criticalDamping := 2.0 * naturalFrequency
	alphaRot := -naturalFrequency*naturalFrequency*angle - criticalDamping*speedAboutRotAxis

	spinFrequency := g.SpinDamping / g.SettlingTime
	precessionFrequency := g.PrecessionDamping / g.SettlingTime

	alpha := rotAxis.Mul(alphaRot).
		Sub(wSpin.Mul(spinFrequency)).
		Sub(wPrecession.Mul(precessionFrequency))

	// Euler's equations: τ = I α + ω × L.
	torque := inertiaWorld.Mul3x1(alpha).Add(w.Cross(l))
	d.ApplyTorque(torque)
}
