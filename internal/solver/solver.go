// Package solver resolves contact and joint constraints with sequential
// impulses. Contacts are prepared once per substep from pre-force
// velocities, warm started from the previous substep's accumulated impulses,
// iterated to convergence on velocities, and finally corrected positionally
// with pseudo impulses that move poses without injecting energy.
package solver

import (
	"context"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"voxelsim/internal/body"
	"voxelsim/internal/collide"
	"voxelsim/internal/mathx"
)

// Config tunes the solver.
type Config struct {
	Enabled bool `yaml:"enabled"`
	// Iterations is the number of velocity impulse passes per substep.
	Iterations int `yaml:"iterations"`
	// OldImpulseWeight scales accumulated impulses carried over from the
	// previous substep before they are reapplied.
	OldImpulseWeight float64 `yaml:"old_impulse_weight"`
	// PositionalIterations is the number of positional correction passes.
	PositionalIterations int `yaml:"positional_iterations"`
	// PositionalFactor scales each positional correction step.
	PositionalFactor float64 `yaml:"positional_factor"`
	// WarmStartThreshold is the allowed angular drift (as 1-cos) of the
	// contact frame before carried impulses are discarded.
	WarmStartThreshold float64 `yaml:"warm_start_threshold"`
	// Workers is the number of goroutines solving disjoint contact islands.
	Workers int `yaml:"workers"`
}

// DefaultConfig returns the hand-tuned solver defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:              true,
		Iterations:           8,
		OldImpulseWeight:     0.4,
		PositionalIterations: 3,
		PositionalFactor:     0.2,
		WarmStartThreshold:   1e-2,
		Workers:              1,
	}
}

// bodyState is the solver's working copy of one body.
type bodyState struct {
	ref         body.Ref
	position    mgl64.Vec3
	orientation mgl64.Quat
	velocity    mgl64.Vec3
	angular     mgl64.Vec3
	invMass     float64
	invInertia  mgl64.Mat3 // world space
	movable     bool
}

// Solver holds the persistent constraint cache.
type Solver struct {
	cfg Config

	bodies []bodyState
	index  map[body.Ref]int

	contacts map[collide.ContactID]*contactConstraint
	order    []collide.ContactID

	joints []*jointConstraint
}

// New returns a solver with the given configuration.
func New(cfg Config) *Solver {
	return &Solver{
		cfg:      cfg,
		index:    make(map[body.Ref]int),
		contacts: make(map[collide.ContactID]*contactConstraint),
	}
}

// BeginSubstep resets the per-substep body table and marks all cached
// contacts as pending re-preparation.
func (s *Solver) BeginSubstep() {
	s.bodies = s.bodies[:0]
	clear(s.index)
	for _, c := range s.contacts {
		c.prepared = false
	}
	for _, j := range s.joints {
		j.prepared = false
	}
}

// ensureBody registers a body's current state and returns its index.
func (s *Solver) ensureBody(store *body.Store, ref body.Ref) (int, bool) {
	if i, ok := s.index[ref]; ok {
		return i, true
	}

	st := bodyState{ref: ref, orientation: mgl64.QuatIdent()}
	switch ref.Kind {
	case body.KindDynamic:
		d, ok := store.Dynamic(body.DynamicID(ref.ID))
		if !ok {
			return 0, false
		}
		st.position = d.Position
		st.orientation = d.Orientation
		st.velocity = d.Velocity()
		st.angular = d.AngularVelocity()
		st.invMass = 1.0 / d.Mass
		st.invInertia = d.InverseWorldInertia()
		st.movable = true
	case body.KindKinematic:
		k, ok := store.Kinematic(body.KinematicID(ref.ID))
		if !ok {
			return 0, false
		}
		st.position = k.Position
		st.orientation = k.Orientation
		st.velocity = k.Velocity
		st.angular = k.AngularVelocity
	case body.KindStatic:
		p, ok := store.Static(body.StaticID(ref.ID))
		if !ok {
			return 0, false
		}
		st.position = p.Position
		st.orientation = p.Orientation
	}

	i := len(s.bodies)
	s.bodies = append(s.bodies, st)
	s.index[ref] = i
	return i, true
}

// DropUnprepared removes cached contacts that were not re-prepared this
// substep and rebuilds the deterministic solve order.
func (s *Solver) DropUnprepared() {
	for id, c := range s.contacts {
		if !c.prepared {
			delete(s.contacts, id)
		}
	}
	s.order = s.order[:0]
	for id := range s.contacts {
		s.order = append(s.order, id)
	}
	sort.Slice(s.order, func(a, b int) bool { return s.order[a] < s.order[b] })
}

// SyncVelocities re-reads body velocities after force integration so the
// iterations act on post-force state. Poses are deliberately not re-read:
// the constraints were prepared against the current poses.
func (s *Solver) SyncVelocities(store *body.Store) {
	for i := range s.bodies {
		st := &s.bodies[i]
		v, w, ok := store.Velocities(st.ref)
		if !ok {
			continue
		}
		st.velocity = v
		st.angular = w
	}
}

// Apply writes the solved velocities and corrected poses back to the store,
// re-synchronizing the momenta of dynamic bodies.
func (s *Solver) Apply(store *body.Store) {
	for i := range s.bodies {
		st := &s.bodies[i]
		if !st.movable {
			continue
		}
		d, ok := store.Dynamic(body.DynamicID(st.ref.ID))
		if !ok {
			continue
		}
		d.Position = st.position
		d.Orientation = st.orientation
		d.SetVelocity(st.velocity)
		d.SetAngularVelocity(st.angular)
	}
}

// Solve runs warm starting, the velocity iterations and the positional
// correction passes. Islands of constraints that share no movable body are
// solved concurrently when the config allows.
func (s *Solver) Solve(ctx context.Context) error {
	if !s.cfg.Enabled {
		return nil
	}
	islands := s.partitionIslands()
	return s.solveIslands(ctx, islands)
}

// solveIsland runs the full impulse schedule for one island's constraints.
func (s *Solver) solveIsland(contacts []*contactConstraint, joints []*jointConstraint) {
	for _, c := range contacts {
		c.warmStart(s)
	}
	for _, j := range joints {
		j.warmStart(s)
	}

	for it := 0; it < s.cfg.Iterations; it++ {
		for _, j := range joints {
			j.solveVelocity(s)
		}
		for _, c := range contacts {
			c.solveVelocity(s)
		}
	}

	for it := 0; it < s.cfg.PositionalIterations; it++ {
		for _, j := range joints {
			j.solvePosition(s, s.cfg.PositionalFactor)
		}
		for _, c := range contacts {
			c.solvePosition(s, s.cfg.PositionalFactor)
		}
	}
}

// applyImpulse changes a body pair's velocities for an impulse p acting at
// arms rA and rB, pushing A along +p and B along -p.
func (s *Solver) applyImpulse(a, b int, rA, rB, p mgl64.Vec3) {
	ba := &s.bodies[a]
	bb := &s.bodies[b]
	if ba.movable {
		ba.velocity = ba.velocity.Add(p.Mul(ba.invMass))
		ba.angular = ba.angular.Add(ba.invInertia.Mul3x1(rA.Cross(p)))
	}
	if bb.movable {
		bb.velocity = bb.velocity.Sub(p.Mul(bb.invMass))
		bb.angular = bb.angular.Sub(bb.invInertia.Mul3x1(rB.Cross(p)))
	}
}

// applyPseudoImpulse moves a body pair's poses directly, without touching
// velocities.
func (s *Solver) applyPseudoImpulse(a, b int, rA, rB, p mgl64.Vec3) {
	ba := &s.bodies[a]
	bb := &s.bodies[b]
	if ba.movable {
		ba.position = ba.position.Add(p.Mul(ba.invMass))
		rot := ba.invInertia.Mul3x1(rA.Cross(p))
		ba.orientation = mathx.AdvanceOrientation(ba.orientation, rot, 1.0)
	}
	if bb.movable {
		bb.position = bb.position.Sub(p.Mul(bb.invMass))
		rot := bb.invInertia.Mul3x1(rB.Cross(p))
		bb.orientation = mathx.AdvanceOrientation(bb.orientation, rot.Mul(-1), 1.0)
	}
}

// pointVelocity returns the velocity of a point at arm r on body i.
func (s *Solver) pointVelocity(i int, r mgl64.Vec3) mgl64.Vec3 {
	st := &s.bodies[i]
	return st.velocity.Add(st.angular.Cross(r))
}

// NumContacts returns the number of cached contact constraints.
func (s *Solver) NumContacts() int { return len(s.contacts) }
