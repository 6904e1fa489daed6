package solver

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"voxelsim/internal/body"
	"voxelsim/internal/mathx"
)

// JointID identifies a registered joint.
type JointID uint64

// SphericalJoint pins a body-local anchor point on A to one on B, removing
// the three translational degrees of freedom at the anchor while leaving
// rotation free. It is the hard-constraint counterpart of a stiff spring.
type SphericalJoint struct {
	BodyA, BodyB     body.Ref
	AnchorA, AnchorB mgl64.Vec3 // body-local
}

// jointConstraint is the prepared per-substep form of a joint.
type jointConstraint struct {
	id       JointID
	def      SphericalJoint
	prepared bool

	a, b       int
	armA, armB mgl64.Vec3
	invK       mgl64.Mat3

	impulse mgl64.Vec3
}

// AddJoint registers a joint; it is prepared every substep until removed.
func (s *Solver) AddJoint(j SphericalJoint) JointID {
	id := JointID(len(s.joints))
	for _, existing := range s.joints {
		if existing.id >= id {
			id = existing.id + 1
		}
	}
	s.joints = append(s.joints, &jointConstraint{id: id, def: j})
	return id
}

// RemoveJoint drops a joint. Reports whether it existed.
func (s *Solver) RemoveJoint(id JointID) bool {
	for i, j := range s.joints {
		if j.id == id {
			s.joints = append(s.joints[:i], s.joints[i+1:]...)
			return true
		}
	}
	return false
}

// PrepareJoints prepares every registered joint against the current body
// poses. Joints whose bodies have been removed stay unprepared and inert.
func (s *Solver) PrepareJoints(store *body.Store) {
	for _, j := range s.joints {
		j.prepare(s, store)
	}
}

func (j *jointConstraint) prepare(s *Solver, store *body.Store) {
	ia, okA := s.ensureBody(store, j.def.BodyA)
	ib, okB := s.ensureBody(store, j.def.BodyB)
	if !okA || !okB {
		return
	}
	ba := &s.bodies[ia]
	bb := &s.bodies[ib]
	if !ba.movable && !bb.movable {
		return
	}

	j.a, j.b = ia, ib
	j.armA = ba.orientation.Rotate(j.def.AnchorA)
	j.armB = bb.orientation.Rotate(j.def.AnchorB)

	// K = (1/ma + 1/mb) Id - [rA]x IA⁻¹ [rA]x - [rB]x IB⁻¹ [rB]x
	invMassSum := ba.invMass + bb.invMass
	k := mgl64.Diag3(mgl64.Vec3{invMassSum, invMassSum, invMassSum})
	sa := mathx.Skew(j.armA)
	sb := mathx.Skew(j.armB)
	k = k.Sub(sa.Mul3(ba.invInertia).Mul3(sa))
	k = k.Sub(sb.Mul3(bb.invInertia).Mul3(sb))

	if math.Abs(k.Det()) < mathx.Eps {
		return
	}
	j.invK = k.Inv()

	j.impulse = j.impulse.Mul(s.cfg.OldImpulseWeight)
	j.prepared = true
}

func (j *jointConstraint) warmStart(s *Solver) {
	if !j.prepared {
		return
	}
	s.applyImpulse(j.a, j.b, j.armA, j.armB, j.impulse)
}

func (j *jointConstraint) solveVelocity(s *Solver) {
	if !j.prepared {
		return
	}
	vRel := s.pointVelocity(j.a, j.armA).Sub(s.pointVelocity(j.b, j.armB))
	delta := j.invK.Mul3x1(vRel.Mul(-1))
	j.impulse = j.impulse.Add(delta)
	s.applyImpulse(j.a, j.b, j.armA, j.armB, delta)
}

func (j *jointConstraint) solvePosition(s *Solver, factor float64) {
	if !j.prepared {
		return
	}
	ba := &s.bodies[j.a]
	bb := &s.bodies[j.b]
	anchorA := ba.position.Add(ba.orientation.Rotate(j.def.AnchorA))
	anchorB := bb.position.Add(bb.orientation.Rotate(j.def.AnchorB))

	err := anchorA.Sub(anchorB)
	if err.Len() < mathx.Eps {
		return
	}
	p := j.invK.Mul3x1(err.Mul(-factor))
	s.applyPseudoImpulse(j.a, j.b, j.armA, j.armB, p)
}
