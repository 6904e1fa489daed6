package voxel

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"voxelsim/internal/mathx"
)

// Surface Nets meshing, one chunk at a time. Each chunk is meshed from an
// extended 18³ sample grid (its own voxels plus a one-voxel border from the
// neighbors), producing cells in [-1, ChunkSize) per axis. Quads are owned
// by the chunk containing the lower corner of their crossing edge, so seam
// quads are emitted exactly once; the border cells duplicate the adjacent
// chunk's vertices to make that possible.

const (
	sampleDim = ChunkSize + 2
	cellDim   = ChunkSize + 1
)

// ChunkMesh is the triangle mesh of one chunk in object-local coordinates.
// Vertices carry the materials and solidity weights of their cell's eight
// corners for blending, and a feature id stable across remeshes of the same
// cell.
type ChunkMesh struct {
	Coord      ChunkCoord
	Generation uint64

	Positions       []mgl64.Vec3
	Normals         []mgl64.Vec3
	Indices         []uint32
	MaterialIndices [][8]uint8
	MaterialWeights [][8]uint8
	Features        []uint32
}

// Empty reports whether the mesh has no triangles.
func (m *ChunkMesh) Empty() bool { return len(m.Indices) == 0 }

const nullVertex = ^uint32(0)

// Mesher holds reusable scratch buffers. Not safe for concurrent use; give
// each worker its own.
type Mesher struct {
	dist     [sampleDim * sampleDim * sampleDim]float32
	material [sampleDim * sampleDim * sampleDim]uint8
	cellVert [cellDim * cellDim * cellDim]uint32
}

// NewMesher returns a mesher with fresh scratch buffers.
func NewMesher() *Mesher { return &Mesher{} }

func sampleIndex(x, y, z int) int {
	return (x*sampleDim+y)*sampleDim + z
}

func cellIndex(x, y, z int) int {
	return (x*cellDim+y)*cellDim + z
}

// cellFeature packs global cell coordinates into a stable feature id.
func cellFeature(gx, gy, gz int) uint32 {
	return uint32((gx+512)&1023)<<20 | uint32((gy+512)&1023)<<10 | uint32((gz+512)&1023)
}

// cube corner k has offsets ((k>>2)&1, (k>>1)&1, k&1).
var cubeEdges = [12][2]int{
	{0, 4}, {1, 5}, {2, 6}, {3, 7}, // x edges
	{0, 2}, {1, 3}, {4, 6}, {5, 7}, // y edges
	{0, 1}, {2, 3}, {4, 5}, {6, 7}, // z edges
}

// MeshChunk meshes the chunk at coord into out, reusing out's slices.
// Returns false when the chunk is not stored.
func (m *Mesher) MeshChunk(o *Object, coord ChunkCoord, out *ChunkMesh) bool {
	o.mu.RLock()
	c, ok := o.chunks[coord]
	if !ok {
		o.mu.RUnlock()
		return false
	}
	generation := c.generation
	base := [3]int{coord[0] * ChunkSize, coord[1] * ChunkSize, coord[2] * ChunkSize}
	for x := 0; x < sampleDim; x++ {
		for y := 0; y < sampleDim; y++ {
			for z := 0; z < sampleDim; z++ {
				v := o.voxelAt(base[0]+x-1, base[1]+y-1, base[2]+z-1)
				i := sampleIndex(x, y, z)
				m.dist[i] = v.Dist
				m.material[i] = v.Material
			}
		}
	}
	origin := o.origin
	extent := o.voxelExtent
	o.mu.RUnlock()

	out.Coord = coord
	out.Generation = generation
	out.Positions = out.Positions[:0]
	out.Normals = out.Normals[:0]
	out.Indices = out.Indices[:0]
	out.MaterialIndices = out.MaterialIndices[:0]
	out.MaterialWeights = out.MaterialWeights[:0]
	out.Features = out.Features[:0]
	for i := range m.cellVert {
		m.cellVert[i] = nullVertex
	}

	// Vertices: one per cell with a sign change, at the centroid of the
	// edge zero crossings.
	var corner [8]float64
	for cx := -1; cx < ChunkSize; cx++ {
		for cy := -1; cy < ChunkSize; cy++ {
			for cz := -1; cz < ChunkSize; cz++ {
				mask := 0
				for k := 0; k < 8; k++ {
					d := m.dist[sampleIndex(cx+1+(k>>2)&1, cy+1+(k>>1)&1, cz+1+k&1)]
					corner[k] = float64(d)
					if d < 0 {
						mask |= 1 << k
					}
				}
				if mask == 0 || mask == 0xff {
					continue
				}

				var centroid mgl64.Vec3
				crossings := 0
				for _, e := range cubeEdges {
					d0, d1 := corner[e[0]], corner[e[1]]
					if (d0 < 0) == (d1 < 0) {
						continue
					}
					t := d0 / (d0 - d1)
					p0 := cornerOffset(e[0])
					p1 := cornerOffset(e[1])
					centroid = centroid.Add(p0.Add(p1.Sub(p0).Mul(t)))
					crossings++
				}
				centroid = centroid.Mul(1 / float64(crossings))

				pos := origin.Add(mgl64.Vec3{
					(float64(base[0]+cx) + 0.5 + centroid.X()) * extent,
					(float64(base[1]+cy) + 0.5 + centroid.Y()) * extent,
					(float64(base[2]+cz) + 0.5 + centroid.Z()) * extent,
				})

				normal := m.cellGradient(corner)
				var mats [8]uint8
				var weights [8]uint8
				for k := 0; k < 8; k++ {
					mats[k] = m.material[sampleIndex(cx+1+(k>>2)&1, cy+1+(k>>1)&1, cz+1+k&1)]
					weights[k] = uint8(255 * mathx.Clamp(0.5-corner[k], 0, 1))
				}

				id := uint32(len(out.Positions))
				m.cellVert[cellIndex(cx+1, cy+1, cz+1)] = id
				out.Positions = append(out.Positions, pos)
				out.Normals = append(out.Normals, normal)
				out.MaterialIndices = append(out.MaterialIndices, mats)
				out.MaterialWeights = append(out.MaterialWeights, weights)
				out.Features = append(out.Features, cellFeature(base[0]+cx, base[1]+cy, base[2]+cz))
			}
		}
	}

	// Quads: one per sign-changing lattice edge whose lower corner lies in
	// this chunk, split along the shorter diagonal.
	var axes = [3][3]int{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	for d := 0; d < 3; d++ {
		eu := axes[(d+1)%3]
		ew := axes[(d+2)%3]
		ed := axes[d]
		for i := 0; i < ChunkSize; i++ {
			for j := 0; j < ChunkSize; j++ {
				for k := 0; k < ChunkSize; k++ {
					d0 := m.dist[sampleIndex(i+1, j+1, k+1)]
					d1 := m.dist[sampleIndex(i+1+ed[0], j+1+ed[1], k+1+ed[2])]
					if (d0 < 0) == (d1 < 0) {
						continue
					}

					cell := func(du, dw int) uint32 {
						return m.cellVert[cellIndex(
							i+1+du*eu[0]+dw*ew[0],
							j+1+du*eu[1]+dw*ew[1],
							k+1+du*eu[2]+dw*ew[2],
						)]
					}
					q0 := cell(-1, -1)
					q1 := cell(0, -1)
					q2 := cell(0, 0)
					q3 := cell(-1, 0)
					if q0 == nullVertex || q1 == nullVertex || q2 == nullVertex || q3 == nullVertex {
						continue
					}
					if d0 >= 0 {
						// Solid side is the upper sample; face the other way.
						q1, q3 = q3, q1
					}
					emitQuad(out, q0, q1, q2, q3)
				}
			}
		}
	}
	return true
}

func cornerOffset(k int) mgl64.Vec3 {
	return mgl64.Vec3{
		float64((k >> 2) & 1),
		float64((k >> 1) & 1),
		float64(k & 1),
	}
}

// cellGradient estimates the outward surface normal from the eight corner
// distances.
func (m *Mesher) cellGradient(corner [8]float64) mgl64.Vec3 {
	g := mgl64.Vec3{
		(corner[4] + corner[5] + corner[6] + corner[7] - corner[0] - corner[1] - corner[2] - corner[3]) / 4,
		(corner[2] + corner[3] + corner[6] + corner[7] - corner[0] - corner[1] - corner[4] - corner[5]) / 4,
		(corner[1] + corner[3] + corner[5] + corner[7] - corner[0] - corner[2] - corner[4] - corner[6]) / 4,
	}
	if g.Len() < mathx.Eps {
		return mgl64.Vec3{0, 1, 0}
	}
	return g.Normalize()
}

// emitQuad splits the quad along its shorter diagonal, preserving winding.
func emitQuad(out *ChunkMesh, q0, q1, q2, q3 uint32) {
	diag02 := out.Positions[q0].Sub(out.Positions[q2])
	diag13 := out.Positions[q1].Sub(out.Positions[q3])
	if diag13.Dot(diag13) < diag02.Dot(diag02) {
		out.Indices = append(out.Indices, q0, q1, q3, q1, q2, q3)
	} else {
		out.Indices = append(out.Indices, q0, q1, q2, q0, q2, q3)
	}
}

// SampleField trilinearly interpolates the stored distance field at an
// object-local point, returning the distance in world units, its gradient,
// and the feature id of the containing cell. ok is false outside the stored
// region's influence. Stored distances are clamped to maxDistance voxel
// extents, so distance and gradient are only meaningful within that band of
// the surface; deeper inside, the distance saturates and the gradient
// degenerates to an arbitrary unit vector.
func (o *Object) SampleField(p mgl64.Vec3) (dist float64, gradient mgl64.Vec3, feature uint32, ok bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	// Continuous voxel coordinates: voxel center g is at g + 0.5.
	var g [3]float64
	for d := 0; d < 3; d++ {
		g[d] = (p[d]-o.origin[d])/o.voxelExtent - 0.5
	}
	x0 := int(math.Floor(g[0]))
	y0 := int(math.Floor(g[1]))
	z0 := int(math.Floor(g[2]))
	fx := g[0] - float64(x0)
	fy := g[1] - float64(y0)
	fz := g[2] - float64(z0)

	var c [2][2][2]float64
	anyStored := false
	for dx := 0; dx < 2; dx++ {
		for dy := 0; dy < 2; dy++ {
			for dz := 0; dz < 2; dz++ {
				v := o.voxelAt(x0+dx, y0+dy, z0+dz)
				c[dx][dy][dz] = float64(v.Dist)
				if v.Dist < maxDistance {
					anyStored = true
				}
			}
		}
	}
	if !anyStored {
		return 0, mgl64.Vec3{}, 0, false
	}

	lerp := func(a, b, t float64) float64 { return a + (b-a)*t }
	c00 := lerp(c[0][0][0], c[1][0][0], fx)
	c10 := lerp(c[0][1][0], c[1][1][0], fx)
	c01 := lerp(c[0][0][1], c[1][0][1], fx)
	c11 := lerp(c[0][1][1], c[1][1][1], fx)
	c0 := lerp(c00, c10, fy)
	c1 := lerp(c01, c11, fy)
	dist = lerp(c0, c1, fz) * o.voxelExtent

	gradient = mgl64.Vec3{
		lerp(lerp(c[1][0][0]-c[0][0][0], c[1][1][0]-c[0][1][0], fy),
			lerp(c[1][0][1]-c[0][0][1], c[1][1][1]-c[0][1][1], fy), fz),
		lerp(lerp(c[0][1][0]-c[0][0][0], c[1][1][0]-c[1][0][0], fx),
			lerp(c[0][1][1]-c[0][0][1], c[1][1][1]-c[1][0][1], fx), fz),
		lerp(lerp(c[0][0][1]-c[0][0][0], c[1][0][1]-c[1][0][0], fx),
			lerp(c[0][1][1]-c[0][1][0], c[1][1][1]-c[1][1][0], fx), fy),
	}
	if gradient.Len() < mathx.Eps {
		gradient = mgl64.Vec3{0, 1, 0}
	} else {
		gradient = gradient.Normalize()
	}
	return dist, gradient, cellFeature(x0, y0, z0), true
}
