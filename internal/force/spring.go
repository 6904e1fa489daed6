package force

import (
	"github.com/go-gl/mathgl/mgl64"
	"voxelsim/internal/body"
	"voxelsim/internal/mathx"
)

// Spring connects attachment points on two bodies with a damped linear
// spring. Either end may sit on a kinematic or static body, in which case
// only the dynamic end experiences the force.
type Spring struct {
	BodyA body.Ref
	BodyB body.Ref

	// Attachment points in the respective body-local frames.
	AttachmentA mgl64.Vec3
	AttachmentB mgl64.Vec3

	Stiffness  float64
	Damping    float64
	RestLength float64
	// SlackLength is the length below which the spring goes slack and
	// exerts no force at all (a rope-like spring). Zero means always taut.
	SlackLength float64
}

// ScalarForce returns the signed force magnitude along the axis from A to B
// for a given length and rate of length change. Negative pulls the
// attachments together.
func (g *Spring) ScalarForce(length, rate float64) float64 {
	if length <= g.SlackLength {
		return 0
	}
	return -g.Stiffness*(length-g.RestLength) - g.Damping*rate
}

// Apply accumulates the spring forces on the dynamic end(s).
func (g *Spring) Apply(s *body.Store) {
	posA, orientA, okA := s.Pose(g.BodyA)
	posB, orientB, okB := s.Pose(g.BodyB)
	if !okA || !okB {
		return
	}
	velA, angA, _ := s.Velocities(g.BodyA)
	velB, angB, _ := s.Velocities(g.BodyB)

	attA := posA.Add(orientA.Rotate(g.AttachmentA))
	attB := posB.Add(orientB.Rotate(g.AttachmentB))

	axis := attB.Sub(attA)
	dir, ok := mathx.NormalizeIfAbove(axis, mathx.Eps)
	if !ok {
		return
	}
	length := axis.Len()

	vAttA := velA.Add(angA.Cross(attA.Sub(posA)))
	vAttB := velB.Add(angB.Cross(attB.Sub(posB)))
	rate := dir.Dot(vAttB.Sub(vAttA))

	f := g.ScalarForce(length, rate)
	if f == 0 {
		return
	}

	// f < 0 when stretched: the force on B points back toward A.
	forceOnB := dir.Mul(f)

	if g.BodyB.Kind == body.KindDynamic {
		if d, okD := s.Dynamic(body.DynamicID(g.BodyB.ID)); okD {
			d.ApplyForceAt(forceOnB, attB)
		}
	}
	if g.BodyA.Kind == body.KindDynamic {
		if d, okD := s.Dynamic(body.DynamicID(g.BodyA.ID)); okD {
			d.ApplyForceAt(forceOnB.Mul(-1), attA)
		}
	}
}
