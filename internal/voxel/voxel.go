// Package voxel implements chunked voxel objects: signed distance field
// generation, material-aware Surface Nets meshing, tool-driven absorption
// with incremental inertial property updates, and the adapter exposing a
// voxel object to collision detection.
package voxel

// ChunkSize is the voxel count per chunk axis.
const ChunkSize = 16

// ChunkVolume is the voxel count per chunk.
const ChunkVolume = ChunkSize * ChunkSize * ChunkSize

// maxDistance clamps stored signed distances, in voxel extents. Values this
// far from the surface carry no meshing information.
const maxDistance = 4.0

// Voxel is one cell of the field: a signed distance to the surface in units
// of the voxel extent (negative inside the solid) and a material id.
type Voxel struct {
	Dist     float32
	Material uint8
}

// Solid reports whether the voxel is inside the surface.
func (v Voxel) Solid() bool { return v.Dist < 0 }

// maximallyOutside is the voxel value for space far outside the object.
func maximallyOutside() Voxel {
	return Voxel{Dist: maxDistance}
}

// Chunk is a dense cube of voxels plus the bookkeeping for incremental
// remeshing: a dirty flag and a generation counter bumped on every
// modification.
type Chunk struct {
	voxels     [ChunkVolume]Voxel
	generation uint64
	dirty      bool
	solidCount int
}

func voxelIndex(x, y, z int) int {
	return (x*ChunkSize+y)*ChunkSize + z
}

// At returns the voxel at local coordinates in [0, ChunkSize).
func (c *Chunk) At(x, y, z int) Voxel {
	return c.voxels[voxelIndex(x, y, z)]
}

// set stores a voxel, maintaining the solid count.
func (c *Chunk) set(x, y, z int, v Voxel) {
	i := voxelIndex(x, y, z)
	old := c.voxels[i]
	if old.Solid() && !v.Solid() {
		c.solidCount--
	} else if !old.Solid() && v.Solid() {
		c.solidCount++
	}
	c.voxels[i] = v
}

// Generation returns the chunk's modification counter.
func (c *Chunk) Generation() uint64 { return c.generation }

// Dirty reports whether the chunk needs remeshing.
func (c *Chunk) Dirty() bool { return c.dirty }

// SolidCount returns the number of solid voxels in the chunk.
func (c *Chunk) SolidCount() int { return c.solidCount }

// touch marks the chunk modified.
func (c *Chunk) touch() {
	c.generation++
	c.dirty = true
}
