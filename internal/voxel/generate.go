package voxel

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"voxelsim/internal/collide"
)

// Generator samples an SDF and material field into a chunked voxel object.
type Generator struct {
	// VoxelExtent is the edge length of one voxel in world units.
	VoxelExtent float64
	// Field is the surface to voxelize, in object-local coordinates.
	Field SDF
	// Material assigns a material id per voxel; nil means material 0.
	Material MaterialField
	// Bounds is the local-space region to sample. It is padded by one
	// voxel on every side so the surface never touches the grid edge.
	Bounds collide.AABB
}

// Generate samples the field at voxel centers. Chunks with nothing within
// one voxel of the surface are not stored.
func (g *Generator) Generate() (*Object, error) {
	if g.VoxelExtent <= 0 {
		return nil, errors.New("voxel: extent must be positive")
	}
	if g.Field == nil {
		return nil, errors.New("voxel: nil field")
	}
	size := g.Bounds.Max.Sub(g.Bounds.Min)
	if size.X() <= 0 || size.Y() <= 0 || size.Z() <= 0 {
		return nil, errors.New("voxel: empty bounds")
	}

	// One empty voxel of padding, and an origin on the voxel lattice.
	origin := g.Bounds.Min.Sub(mgl64.Vec3{g.VoxelExtent, g.VoxelExtent, g.VoxelExtent})
	var counts [3]int
	for d := 0; d < 3; d++ {
		counts[d] = int(math.Ceil(size[d]/g.VoxelExtent)) + 2
	}

	obj := NewObject(g.VoxelExtent, origin)
	material := g.Material
	if material == nil {
		material = ConstantMaterial(0)
	}

	obj.mu.Lock()
	defer obj.mu.Unlock()
	for x := 0; x < counts[0]; x++ {
		for y := 0; y < counts[1]; y++ {
			for z := 0; z < counts[2]; z++ {
				center := obj.VoxelCenter(x, y, z)
				d := g.Field.Distance(center) / g.VoxelExtent
				d = clampDistance(d)
				if d >= maxDistance {
					continue
				}
				v := Voxel{Dist: float32(d)}
				if v.Solid() {
					v.Material = material.MaterialAt(center)
				}
				obj.setVoxel(x, y, z, v)
			}
		}
	}

	// Drop chunks that hold nothing near the surface.
	for coord, c := range obj.chunks {
		if c.solidCount > 0 {
			continue
		}
		near := false
		for i := range c.voxels {
			if c.voxels[i].Dist < 1 {
				near = true
				break
			}
		}
		if !near {
			delete(obj.chunks, coord)
		}
	}
	for _, c := range obj.chunks {
		c.touch()
	}
	return obj, nil
}

func clampDistance(d float64) float64 {
	if d > maxDistance {
		return maxDistance
	}
	if d < -maxDistance {
		return -maxDistance
	}
	return d
}
