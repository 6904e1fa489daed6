package solver

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"voxelsim/internal/body"
	"voxelsim/internal/collide"
	"voxelsim/internal/mathx"
)

// slipSpeedSqThreshold separates static from dynamic friction: below it the
// contact is treated as sticking.
const slipSpeedSqThreshold = 1e-4

// contactConstraint is one prepared contact point plus its accumulated
// impulses, cached across substeps for warm starting.
type contactConstraint struct {
	prepared bool

	a, b int

	// Arms from the body centers to the contact point, world space at
	// preparation, and the same arms in the body-local frames for the
	// positional pass.
	armA, armB           mgl64.Vec3
	localArmA, localArmB mgl64.Vec3
	anchorA0, anchorB0   mgl64.Vec3 // world anchors at preparation

	normal, tangent1, tangent2       mgl64.Vec3
	normalMass, tangentMass1, tangentMass2 float64

	restitutionBias float64
	friction        float64
	penetration     float64

	impulseN, impulseT1, impulseT2 float64
}

// canReuseImpulsesFrom reports whether the accumulated impulses of a cached
// contact are still meaningful for a newly prepared frame.
func (c *contactConstraint) canReuseImpulsesFrom(normal, tangent1 mgl64.Vec3, threshold float64) bool {
	return c.normal.Dot(normal) > 1-threshold && c.tangent1.Dot(tangent1) > 1-threshold
}

// PrepareContact registers a contact between the bodies of two collidables.
// It must be called before forces are integrated for the substep: the
// friction regime is chosen from the pre-force slip speed.
func (s *Solver) PrepareContact(store *body.Store, a, b *collide.Collidable, contact collide.Contact) {
	ia, okA := s.ensureBody(store, a.Body)
	ib, okB := s.ensureBody(store, b.Body)
	if !okA || !okB {
		return
	}
	if !s.bodies[ia].movable && !s.bodies[ib].movable {
		return
	}

	ba := &s.bodies[ia]
	bb := &s.bodies[ib]

	n := contact.Normal
	t1, t2 := mathx.TangentBasis(n)

	rA := contact.Position.Sub(ba.position)
	rB := contact.Position.Sub(bb.position)

	effectiveMass := func(dir mgl64.Vec3) float64 {
		k := ba.invMass + bb.invMass
		ca := rA.Cross(dir)
		cb := rB.Cross(dir)
		k += ca.Dot(ba.invInertia.Mul3x1(ca))
		k += cb.Dot(bb.invInertia.Mul3x1(cb))
		return 1.0 / math.Max(k, mathx.Eps)
	}

	vRel := s.pointVelocity(ia, rA).Sub(s.pointVelocity(ib, rB))
	separating := vRel.Dot(n)
	slip := vRel.Sub(n.Mul(separating))

	matA, matB := a.Material, b.Material
	restitution := math.Max(matA.Restitution, matB.Restitution)
	var friction float64
	if slip.Dot(slip) < slipSpeedSqThreshold {
		friction = math.Sqrt(matA.StaticFriction * matB.StaticFriction)
	} else {
		friction = math.Sqrt(matA.DynamicFriction * matB.DynamicFriction)
	}

	c, ok := s.contacts[contact.ID]
	if ok && c.canReuseImpulsesFrom(n, t1, s.cfg.WarmStartThreshold) {
		c.impulseN *= s.cfg.OldImpulseWeight
		c.impulseT1 *= s.cfg.OldImpulseWeight
		c.impulseT2 *= s.cfg.OldImpulseWeight
	} else {
		if !ok {
			c = &contactConstraint{}
			s.contacts[contact.ID] = c
		}
		c.impulseN = 0
		c.impulseT1 = 0
		c.impulseT2 = 0
	}

	c.prepared = true
	c.a, c.b = ia, ib
	c.armA, c.armB = rA, rB
	c.localArmA = ba.orientation.Inverse().Rotate(rA)
	c.localArmB = bb.orientation.Inverse().Rotate(rB)
	c.anchorA0 = contact.Position
	c.anchorB0 = contact.Position
	c.normal, c.tangent1, c.tangent2 = n, t1, t2
	c.normalMass = effectiveMass(n)
	c.tangentMass1 = effectiveMass(t1)
	c.tangentMass2 = effectiveMass(t2)
	c.restitutionBias = restitution * math.Min(separating, 0)
	c.friction = friction
	c.penetration = contact.Penetration
}

// warmStart reapplies the carried accumulated impulses.
func (c *contactConstraint) warmStart(s *Solver) {
	p := c.normal.Mul(c.impulseN).
		Add(c.tangent1.Mul(c.impulseT1)).
		Add(c.tangent2.Mul(c.impulseT2))
	s.applyImpulse(c.a, c.b, c.armA, c.armB, p)
}

// solveVelocity runs one sequential impulse iteration on the contact.
func (c *contactConstraint) solveVelocity(s *Solver) {
	vRel := s.pointVelocity(c.a, c.armA).Sub(s.pointVelocity(c.b, c.armB))

	// Normal: drive the separating velocity to the restitution target,
	// never pulling.
	vn := vRel.Dot(c.normal)
	deltaN := -c.normalMass * (vn + c.restitutionBias)
	newN := math.Max(c.impulseN+deltaN, 0)
	deltaN = newN - c.impulseN
	c.impulseN = newN
	s.applyImpulse(c.a, c.b, c.armA, c.armB, c.normal.Mul(deltaN))

	// Friction: accumulate along both tangents, then clamp the pair to the
	// Coulomb cone by uniform scaling.
	vRel = s.pointVelocity(c.a, c.armA).Sub(s.pointVelocity(c.b, c.armB))
	newT1 := c.impulseT1 - c.tangentMass1*vRel.Dot(c.tangent1)
	newT2 := c.impulseT2 - c.tangentMass2*vRel.Dot(c.tangent2)

	maxFriction := c.friction * c.impulseN
	mag := math.Hypot(newT1, newT2)
	if mag > maxFriction {
		scale := 0.0
		if mag > 0 {
			scale = maxFriction / mag
		}
		newT1 *= scale
		newT2 *= scale
	}

	p := c.tangent1.Mul(newT1 - c.impulseT1).Add(c.tangent2.Mul(newT2 - c.impulseT2))
	c.impulseT1 = newT1
	c.impulseT2 = newT2
	s.applyImpulse(c.a, c.b, c.armA, c.armB, p)
}

// solvePosition applies one pseudo-impulse correction that reduces the
// remaining penetration by factor without changing velocities.
func (c *contactConstraint) solvePosition(s *Solver, factor float64) {
	ba := &s.bodies[c.a]
	bb := &s.bodies[c.b]

	anchorA := ba.position.Add(ba.orientation.Rotate(c.localArmA))
	anchorB := bb.position.Add(bb.orientation.Rotate(c.localArmB))

	// How much the bodies have separated along the normal since preparation.
	moved := c.normal.Dot(anchorA.Sub(c.anchorA0).Sub(anchorB.Sub(c.anchorB0)))
	pen := c.penetration - moved
	if pen <= 0 {
		return
	}

	lambda := factor * pen * c.normalMass
	s.applyPseudoImpulse(c.a, c.b, c.armA, c.armB, c.normal.Mul(lambda))
}
