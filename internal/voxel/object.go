package voxel

import (
	"math"
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"voxelsim/internal/collide"
)

// ChunkCoord addresses a chunk in the object's chunk grid.
type ChunkCoord [3]int

// Object is a sparse chunked voxel field. Coordinates come in two frames:
// global voxel indices (chunk coord * ChunkSize + local index) and the
// object-local metric frame, where voxel (i,j,k) is the cube spanning
// [origin + i*extent, origin + (i+1)*extent) on each axis.
//
// The mutex guards the voxel data: absorption writes while mesh workers
// read.
type Object struct {
	mu sync.RWMutex

	voxelExtent float64
	origin      mgl64.Vec3
	chunks      map[ChunkCoord]*Chunk
}

// NewObject creates an empty object with the given voxel edge length.
func NewObject(voxelExtent float64, origin mgl64.Vec3) *Object {
	return &Object{
		voxelExtent: voxelExtent,
		origin:      origin,
		chunks:      make(map[ChunkCoord]*Chunk),
	}
}

// VoxelExtent returns the voxel edge length in world units.
func (o *Object) VoxelExtent() float64 { return o.voxelExtent }

// Origin returns the local-frame position of the corner of voxel (0,0,0).
func (o *Object) Origin() mgl64.Vec3 { return o.origin }

func splitIndex(g int) (chunk, local int) {
	chunk = g >> 4
	local = g & (ChunkSize - 1)
	return chunk, local
}

// VoxelAt returns the voxel at global indices, or a maximally outside value
// where no chunk is stored. Callers must not hold the lock already.
func (o *Object) VoxelAt(x, y, z int) Voxel {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.voxelAt(x, y, z)
}

func (o *Object) voxelAt(x, y, z int) Voxel {
	cx, lx := splitIndex(x)
	cy, ly := splitIndex(y)
	cz, lz := splitIndex(z)
	c, ok := o.chunks[ChunkCoord{cx, cy, cz}]
	if !ok {
		return maximallyOutside()
	}
	return c.At(lx, ly, lz)
}

// setVoxel stores a voxel, creating the chunk if needed. Internal; the
// generator and absorber hold the write lock.
func (o *Object) setVoxel(x, y, z int, v Voxel) *Chunk {
	cx, lx := splitIndex(x)
	cy, ly := splitIndex(y)
	cz, lz := splitIndex(z)
	coord := ChunkCoord{cx, cy, cz}
	c, ok := o.chunks[coord]
	if !ok {
		c = &Chunk{}
		for i := range c.voxels {
			c.voxels[i] = maximallyOutside()
		}
		o.chunks[coord] = c
	}
	c.set(lx, ly, lz, v)
	return c
}

// Chunk returns the stored chunk at coord, if any.
func (o *Object) Chunk(coord ChunkCoord) (*Chunk, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	c, ok := o.chunks[coord]
	return c, ok
}

// ChunkCoords returns the stored chunk coordinates in deterministic order.
func (o *Object) ChunkCoords() []ChunkCoord {
	o.mu.RLock()
	defer o.mu.RUnlock()
	coords := make([]ChunkCoord, 0, len(o.chunks))
	for coord := range o.chunks {
		coords = append(coords, coord)
	}
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
	return coords
}

// DirtyChunks returns the coordinates of chunks needing remeshing, in
// deterministic order, and clears their dirty flags.
func (o *Object) DirtyChunks() []ChunkCoord {
	coords := o.ChunkCoords()
	o.mu.Lock()
	defer o.mu.Unlock()
	out := coords[:0]
	for _, coord := range coords {
		c := o.chunks[coord]
		if c.dirty {
			c.dirty = false
			out = append(out, coord)
		}
	}
	return out
}

// markDirty flags the chunk at coord and, for border voxels, every
// neighbor whose mesh samples this voxel as part of its one-voxel border.
// Caller holds the write lock.
func (o *Object) markDirty(x, y, z int) {
	cx, lx := splitIndex(x)
	cy, ly := splitIndex(y)
	cz, lz := splitIndex(z)
	o.touchChunk(ChunkCoord{cx, cy, cz})
	if lx == 0 {
		o.touchChunk(ChunkCoord{cx - 1, cy, cz})
	}
	if lx == ChunkSize-1 {
		o.touchChunk(ChunkCoord{cx + 1, cy, cz})
	}
	if ly == 0 {
		o.touchChunk(ChunkCoord{cx, cy - 1, cz})
	}
	if ly == ChunkSize-1 {
		o.touchChunk(ChunkCoord{cx, cy + 1, cz})
	}
	if lz == 0 {
		o.touchChunk(ChunkCoord{cx, cy, cz - 1})
	}
	if lz == ChunkSize-1 {
		o.touchChunk(ChunkCoord{cx, cy, cz + 1})
	}
}

func (o *Object) touchChunk(coord ChunkCoord) {
	if c, ok := o.chunks[coord]; ok {
		c.touch()
	}
}

// SolidCount returns the total number of solid voxels.
func (o *Object) SolidCount() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	total := 0
	for _, c := range o.chunks {
		total += c.solidCount
	}
	return total
}

// Empty reports whether no solid voxel remains.
func (o *Object) Empty() bool { return o.SolidCount() == 0 }

// LocalBounds returns the object-local AABB of all stored chunks.
func (o *Object) LocalBounds() collide.AABB {
	o.mu.RLock()
	defer o.mu.RUnlock()
	bounds := collide.EmptyAABB()
	side := float64(ChunkSize) * o.voxelExtent
	for coord := range o.chunks {
		min := o.origin.Add(mgl64.Vec3{
			float64(coord[0]) * side,
			float64(coord[1]) * side,
			float64(coord[2]) * side,
		})
		bounds = bounds.Union(collide.AABB{
			Min: min,
			Max: min.Add(mgl64.Vec3{side, side, side}),
		})
	}
	return bounds
}

// VoxelCenter returns the object-local center of the voxel at global
// indices.
func (o *Object) VoxelCenter(x, y, z int) mgl64.Vec3 {
	return o.origin.Add(mgl64.Vec3{
		(float64(x) + 0.5) * o.voxelExtent,
		(float64(y) + 0.5) * o.voxelExtent,
		(float64(z) + 0.5) * o.voxelExtent,
	})
}

// voxelRangeFor maps a local-frame AABB to the inclusive global voxel index
// range whose centers it may contain.
func (o *Object) voxelRangeFor(bounds collide.AABB) (min, max [3]int) {
	for d := 0; d < 3; d++ {
		lo := (bounds.Min[d] - o.origin[d]) / o.voxelExtent
		hi := (bounds.Max[d] - o.origin[d]) / o.voxelExtent
		min[d] = int(math.Floor(lo)) - 1
		max[d] = int(math.Ceil(hi)) + 1
	}
	return min, max
}
