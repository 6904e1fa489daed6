package voxel

import (
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"voxelsim/internal/collide"
)

// CollisionShape adapts a voxel object to the narrow phase. The collision
// frame is the owning body's frame, whose origin sits at the object's
// center of mass; the shape translates between that frame and the object's
// grid frame via the reference point.
//
// Chunk meshes are installed by the remesher; the mutex guards the mesh map
// against concurrent narrow-phase reads.
type CollisionShape struct {
	object *Object

	mu       sync.RWMutex
	refPoint mgl64.Vec3
	meshes   map[ChunkCoord]*ChunkMesh
}

// NewCollisionShape wraps an object with an empty mesh set.
func NewCollisionShape(o *Object) *CollisionShape {
	return &CollisionShape{
		object: o,
		meshes: make(map[ChunkCoord]*ChunkMesh),
	}
}

// Object returns the underlying voxel object.
func (s *CollisionShape) Object() *Object { return s.object }

// SetReferencePoint sets the object-local point that coincides with the
// body-frame origin, normally the center of mass.
func (s *CollisionShape) SetReferencePoint(p mgl64.Vec3) {
	s.mu.Lock()
	s.refPoint = p
	s.mu.Unlock()
}

// ReferencePoint returns the current body-frame origin in object space.
func (s *CollisionShape) ReferencePoint() mgl64.Vec3 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refPoint
}

// InstallMesh stores a freshly built chunk mesh, replacing any older one.
// Empty meshes clear the entry.
func (s *CollisionShape) InstallMesh(m *ChunkMesh) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.Empty() {
		delete(s.meshes, m.Coord)
		return
	}
	s.meshes[m.Coord] = m
}

// DropMesh removes the mesh for a chunk, used when the chunk is gone.
func (s *CollisionShape) DropMesh(coord ChunkCoord) {
	s.mu.Lock()
	delete(s.meshes, coord)
	s.mu.Unlock()
}

// Mesh returns the installed mesh for a chunk, if any.
func (s *CollisionShape) Mesh(coord ChunkCoord) (*ChunkMesh, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.meshes[coord]
	return m, ok
}

// MeshGenerations returns the generation stamp of every installed mesh.
func (s *CollisionShape) MeshGenerations() map[ChunkCoord]uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[ChunkCoord]uint64, len(s.meshes))
	for coord, m := range s.meshes {
		out[coord] = m.Generation
	}
	return out
}

// LocalBounds returns the voxel field bounds in the body frame.
func (s *CollisionShape) LocalBounds() collide.AABB {
	ref := s.ReferencePoint()
	b := s.object.LocalBounds()
	return collide.AABB{Min: b.Min.Sub(ref), Max: b.Max.Sub(ref)}
}

// SignedDistanceAt samples the distance field at a body-frame point.
func (s *CollisionShape) SignedDistanceAt(p mgl64.Vec3) (float64, mgl64.Vec3, uint32, bool) {
	return s.object.SampleField(p.Add(s.ReferencePoint()))
}

// ForEachSurfaceVertex visits the vertices of all installed chunk meshes in
// the body frame, in deterministic chunk order.
func (s *CollisionShape) ForEachSurfaceVertex(fn func(feature uint32, p mgl64.Vec3)) {
	s.mu.RLock()
	ref := s.refPoint
	coords := make([]ChunkCoord, 0, len(s.meshes))
	for coord := range s.meshes {
		coords = append(coords, coord)
	}
	meshes := make([]*ChunkMesh, 0, len(coords))
	sortChunkCoords(coords)
	for _, coord := range coords {
		meshes = append(meshes, s.meshes[coord])
	}
	s.mu.RUnlock()

	for _, m := range meshes {
		for i, p := range m.Positions {
			fn(m.Features[i], p.Sub(ref))
		}
	}
}

func sortChunkCoords(coords []ChunkCoord) {
	sort.Slice(coords, func(i, j int) bool {
		a, b := coords[i], coords[j]
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		if a[1] != b[1] {
			return a[1] < b[1]
		}
		return a[2] < b[2]
	})
}
