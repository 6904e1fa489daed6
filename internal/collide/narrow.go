package collide

import (
	"github.com/go-gl/mathgl/mgl64"
	"voxelsim/internal/mathx"
)

// GenerateManifold runs the narrow phase for a pair of collidables and
// fills m with their contacts. The pair is put into a canonical order
// (sphere before plane before voxel, lower id first among equals) so the
// contact ids stay stable across frames. Reports whether any contact was
// found.
func GenerateManifold(a, b *Collidable, m *Manifold) bool {
	if a.Shape.shapeRank() > b.Shape.shapeRank() ||
		(a.Shape.shapeRank() == b.Shape.shapeRank() && a.ID > b.ID) {
		a, b = b, a
	}
	m.Reset(a, b)

	switch sa := a.Shape.(type) {
	case Sphere:
		switch sb := b.Shape.(type) {
		case Sphere:
			sphereSphere(a, sa, b, sb, m)
		case Plane:
			spherePlane(a, sa, b, sb, m)
		case VoxelMesh:
			sphereVoxel(a, sa, b, sb, m)
		}
	case Plane:
		if sb, ok := b.Shape.(VoxelMesh); ok {
			planeVoxel(a, b, sb, m)
		}
	case VoxelMesh:
		if sb, ok := b.Shape.(VoxelMesh); ok {
			voxelVoxel(a, sa, b, sb, m)
		}
	}
	return len(m.Contacts) > 0
}

func sphereSphere(a *Collidable, sa Sphere, b *Collidable, sb Sphere, m *Manifold) {
	delta := a.Position.Sub(b.Position)
	dist := delta.Len()
	sum := sa.Radius + sb.Radius
	if dist >= sum {
		return
	}

	normal := mgl64.Vec3{0, 1, 0}
	if dist > mathx.Eps {
		normal = delta.Mul(1.0 / dist)
	}

	surfA := a.Position.Sub(normal.Mul(sa.Radius))
	surfB := b.Position.Add(normal.Mul(sb.Radius))

	m.add(Contact{
		ID:          NewContactID(a.ID, b.ID),
		Position:    surfA.Add(surfB).Mul(0.5),
		Normal:      normal,
		Penetration: sum - dist,
	})
}

// worldPlane resolves a plane shape into world-space normal and offset.
func worldPlane(c *Collidable, p Plane) (mgl64.Vec3, float64) {
	n := c.Orientation.Rotate(p.Normal)
	return n, n.Dot(c.Position) + p.Offset
}

func spherePlane(a *Collidable, sa Sphere, b *Collidable, pb Plane, m *Manifold) {
	n, offset := worldPlane(b, pb)
	signed := n.Dot(a.Position) - offset
	pen := sa.Radius - signed
	if pen <= 0 {
		return
	}
	m.add(Contact{
		ID:          NewContactID(a.ID, b.ID),
		Position:    a.Position.Sub(n.Mul(sa.Radius - 0.5*pen)),
		Normal:      n,
		Penetration: pen,
	})
}

func sphereVoxel(a *Collidable, sa Sphere, b *Collidable, vb VoxelMesh, m *Manifold) {
	local := b.Orientation.Inverse().Rotate(a.Position.Sub(b.Position))
	dist, grad, feature, ok := vb.Source.SignedDistanceAt(local)
	if !ok {
		return
	}
	pen := sa.Radius - dist
	if pen <= 0 {
		return
	}
	dir, okDir := mathx.NormalizeIfAbove(grad, mathx.Eps)
	if !okDir {
		return
	}
	normal := b.Orientation.Rotate(dir)
	m.add(Contact{
		ID:          NewContactID(a.ID, b.ID).WithFeature(feature),
		Position:    a.Position.Sub(normal.Mul(sa.Radius - 0.5*pen)),
		Normal:      normal,
		Penetration: pen,
	})
}

func planeVoxel(a *Collidable, b *Collidable, vb VoxelMesh, m *Manifold) {
	pa := a.Shape.(Plane)
	n, offset := worldPlane(a, pa)
	base := NewContactID(a.ID, b.ID)

	vb.Source.ForEachSurfaceVertex(func(feature uint32, p mgl64.Vec3) {
		world := b.Position.Add(b.Orientation.Rotate(p))
		signed := n.Dot(world) - offset
		if signed >= 0 {
			return
		}
		// The separating direction pushes the voxel body (B) out along the
		// plane normal, so the A-facing normal is reversed.
		m.add(Contact{
			ID:          base.WithFeature(feature),
			Position:    world,
			Normal:      n.Mul(-1),
			Penetration: -signed,
		})
	})
}

func voxelVoxel(a *Collidable, va VoxelMesh, b *Collidable, vb VoxelMesh, m *Manifold) {
	if !a.Bounds().Overlaps(b.Bounds()) {
		return
	}
	base := NewContactID(a.ID, b.ID)

	// Sample B's surface vertices against A's distance field; contacts push
	// A away from B along A's outward gradient reversed.
	invA := a.Orientation.Inverse()
	vb.Source.ForEachSurfaceVertex(func(feature uint32, p mgl64.Vec3) {
		world := b.Position.Add(b.Orientation.Rotate(p))
		localA := invA.Rotate(world.Sub(a.Position))
		dist, grad, featA, ok := va.Source.SignedDistanceAt(localA)
		if !ok || dist >= 0 {
			return
		}
		dir, okDir := mathx.NormalizeIfAbove(grad, mathx.Eps)
		if !okDir {
			return
		}
		m.add(Contact{
			ID:          base.WithFeature(featA).WithFeature(feature),
			Position:    world,
			Normal:      a.Orientation.Rotate(dir).Mul(-1),
			Penetration: -dist,
		})
	})
}
