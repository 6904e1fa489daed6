// Package collide implements collision detection: collidable shapes bound
// to rigid bodies, a BVH broad phase over world-space bounds, and a narrow
// phase producing contact manifolds with persistent contact ids.
package collide

import (
	"github.com/go-gl/mathgl/mgl64"
	"voxelsim/internal/body"
	"voxelsim/internal/registry"
)

// ID identifies a collidable within a Set.
type ID uint32

// Kind classifies how a collidable participates in collisions.
type Kind uint8

const (
	// KindDynamic collidables generate contacts that are resolved.
	KindDynamic Kind = iota
	// KindStatic collidables collide with dynamic ones but never move.
	KindStatic
	// KindKinematic collidables follow driven bodies: they push dynamic
	// collidables but are never pushed back.
	KindKinematic
	// KindPhantom collidables are detected but never resolved; they exist
	// for overlap queries (sensors, trigger volumes).
	KindPhantom
)

// immovable reports whether contacts never move this collidable.
func (k Kind) immovable() bool {
	return k == KindStatic || k == KindKinematic
}

// Material holds the surface response parameters of a collidable.
type Material struct {
	Restitution     float64
	StaticFriction  float64
	DynamicFriction float64
}

// DefaultMaterial is a moderately bouncy, moderately rough surface.
func DefaultMaterial() Material {
	return Material{Restitution: 0.3, StaticFriction: 0.6, DynamicFriction: 0.4}
}

// Shape is a collidable geometry. The concrete types are Sphere, Plane and
// VoxelMesh; the narrow phase dispatches on the pair of concrete types.
type Shape interface {
	shapeRank() int
}

// Sphere is a sphere centered on the owning body's position.
type Sphere struct {
	Radius float64
}

func (Sphere) shapeRank() int { return 0 }

// Plane is a half-space boundary in the owning body's local frame: points p
// with Normal·p < Offset are inside the solid.
type Plane struct {
	Normal mgl64.Vec3
	Offset float64
}

func (Plane) shapeRank() int { return 1 }

// VoxelSource exposes a voxel object's signed distance field and surface
// vertices to the narrow phase, in the object's local frame with distances
// in world units.
type VoxelSource interface {
	// LocalBounds returns the bounds of the voxel field.
	LocalBounds() AABB
	// SignedDistanceAt samples the field at a local point, returning the
	// distance, its gradient and a stable feature index for the containing
	// cell. ok is false outside the field.
	SignedDistanceAt(p mgl64.Vec3) (dist float64, gradient mgl64.Vec3, feature uint32, ok bool)
	// ForEachSurfaceVertex visits the current surface mesh vertices.
	ForEachSurfaceVertex(fn func(feature uint32, p mgl64.Vec3))
}

// VoxelMesh is a deformable voxel object shape.
type VoxelMesh struct {
	Source VoxelSource
}

func (VoxelMesh) shapeRank() int { return 2 }

// Collidable binds a shape to a body. World-space pose and velocities are
// refreshed from the body store before each collision pass.
type Collidable struct {
	ID       ID
	Kind     Kind
	Body     body.Ref
	Shape    Shape
	Material Material

	Position        mgl64.Vec3
	Orientation     mgl64.Quat
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3

	bounds AABB
	live   bool
}

// Bounds returns the collidable's world-space bounds from the last Sync.
func (c *Collidable) Bounds() AABB { return c.bounds }

// planeBound is the half-extent substituted for a plane's unbounded axes.
const planeBound = 1e9

func (c *Collidable) updateBounds() {
	switch s := c.Shape.(type) {
	case Sphere:
		c.bounds = AABBAroundSphere(c.Position, s.Radius)
	case Plane:
		e := mgl64.Vec3{planeBound, planeBound, planeBound}
		c.bounds = AABB{Min: c.Position.Sub(e), Max: c.Position.Add(e)}
	case VoxelMesh:
		c.bounds = TransformedAABB(s.Source.LocalBounds(), c.Position, c.Orientation)
	default:
		c.bounds = AABB{Min: c.Position, Max: c.Position}
	}
}

// Set owns all collidables of a simulation and the broad phase over them.
type Set struct {
	items *registry.Registry[Collidable]
	tree  BVH

	leafBounds []AABB
	leafIdx    []*Collidable
}

// NewSet returns an empty collidable set.
func NewSet() *Set {
	return &Set{items: registry.New[Collidable]()}
}

// Add stores a collidable and returns its id.
func (s *Set) Add(c Collidable) ID {
	id := ID(s.items.Add(c))
	got, _ := s.items.Get(uint64(id))
	got.ID = id
	return id
}

// Get resolves a collidable id.
func (s *Set) Get(id ID) (*Collidable, bool) {
	return s.items.Get(uint64(id))
}

// Remove drops a collidable.
func (s *Set) Remove(id ID) bool {
	return s.items.Remove(uint64(id))
}

// Len returns the number of collidables.
func (s *Set) Len() int { return s.items.Len() }

// Sync refreshes every collidable's world pose and velocities from the body
// store and rebuilds the broad phase. Collidables whose body has been
// removed are skipped until the caller prunes them.
func (s *Set) Sync(store *body.Store) {
	s.leafBounds = s.leafBounds[:0]
	s.leafIdx = s.leafIdx[:0]

	s.items.ForEach(func(_ uint64, c *Collidable) {
		pos, orient, ok := store.Pose(c.Body)
		if !ok {
			c.live = false
			return
		}
		c.live = true
		c.Position = pos
		c.Orientation = orient
		c.Velocity, c.AngularVelocity, _ = store.Velocities(c.Body)
		c.updateBounds()

		s.leafBounds = append(s.leafBounds, c.bounds)
		s.leafIdx = append(s.leafIdx, c)
	})

	s.tree.Build(s.leafBounds)
}

// Prune removes collidables whose body no longer exists. Returns the ids
// removed.
func (s *Set) Prune(store *body.Store) []ID {
	var dead []ID
	s.items.ForEach(func(id uint64, c *Collidable) {
		if _, _, ok := store.Pose(c.Body); !ok {
			dead = append(dead, ID(id))
		}
	})
	for _, id := range dead {
		s.items.Remove(uint64(id))
	}
	return dead
}

// ForEachPair visits every overlapping pair from the broad phase, excluding
// pairs where neither side can move (static or kinematic on both sides) and
// pairs on the same body. Each pair is reported once.
func (s *Set) ForEachPair(fn func(a, b *Collidable)) {
	for i, c := range s.leafIdx {
		if c.Kind.immovable() {
			continue
		}
		s.tree.Query(s.leafBounds[i], func(leaf int) {
			o := s.leafIdx[leaf]
			if leaf <= i && !o.Kind.immovable() {
				// The reverse visit reports this pair.
				return
			}
			if o == c || o.Body == c.Body {
				return
			}
			fn(c, o)
		})
	}
}

// ForEachManifold runs the narrow phase on every overlapping pair and
// reports the non-empty manifolds. Phantom involvement is reported as well;
// resolution filtering is the caller's concern.
func (s *Set) ForEachManifold(fn func(m *Manifold)) {
	var m Manifold
	s.ForEachPair(func(a, b *Collidable) {
		if GenerateManifold(a, b, &m) {
			fn(&m)
		}
	})
}
