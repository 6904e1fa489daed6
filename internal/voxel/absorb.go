package voxel

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"voxelsim/internal/collide"
)

// Absorber is a tool volume that erodes voxel material. Rate returns the
// absorption strength in [0, 1] at an object-local point: maximal at the
// tool center, falling off quadratically to zero at the tool boundary.
type Absorber interface {
	Rate(p mgl64.Vec3) float64
	Bounds() collide.AABB
}

// SphereAbsorber erodes within a sphere.
type SphereAbsorber struct {
	Center mgl64.Vec3
	Radius float64
}

func (a SphereAbsorber) Rate(p mgl64.Vec3) float64 {
	d := p.Sub(a.Center)
	r2 := a.Radius * a.Radius
	if r2 <= 0 {
		return 0
	}
	return math.Max(0, 1-d.Dot(d)/r2)
}

func (a SphereAbsorber) Bounds() collide.AABB {
	return collide.AABBAroundSphere(a.Center, a.Radius)
}

// CapsuleAbsorber erodes within a capsule around a segment.
type CapsuleAbsorber struct {
	Start, End mgl64.Vec3
	Radius     float64
}

func (a CapsuleAbsorber) Rate(p mgl64.Vec3) float64 {
	seg := a.End.Sub(a.Start)
	t := 0.0
	if l2 := seg.Dot(seg); l2 > 0 {
		t = math.Min(1, math.Max(0, p.Sub(a.Start).Dot(seg)/l2))
	}
	d := p.Sub(a.Start.Add(seg.Mul(t)))
	r2 := a.Radius * a.Radius
	if r2 <= 0 {
		return 0
	}
	return math.Max(0, 1-d.Dot(d)/r2)
}

func (a CapsuleAbsorber) Bounds() collide.AABB {
	r := mgl64.Vec3{a.Radius, a.Radius, a.Radius}
	return collide.AABB{Min: a.Start.Sub(r), Max: a.Start.Add(r)}.
		Union(collide.AABB{Min: a.End.Sub(r), Max: a.End.Add(r)})
}

// AbsorbedAmount tallies the voxels fully absorbed for one material.
type AbsorbedAmount struct {
	Count  uint64
	Volume float64
}

// Tracker accumulates absorbed material by id across absorption passes.
type Tracker struct {
	byMaterial map[uint8]AbsorbedAmount
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{byMaterial: make(map[uint8]AbsorbedAmount)}
}

func (t *Tracker) add(material uint8, volume float64) {
	a := t.byMaterial[material]
	a.Count++
	a.Volume += volume
	t.byMaterial[material] = a
}

// Amount returns the total absorbed for one material.
func (t *Tracker) Amount(material uint8) AbsorbedAmount {
	return t.byMaterial[material]
}

// Materials returns the material ids seen so far, unordered.
func (t *Tracker) Materials() []uint8 {
	out := make([]uint8, 0, len(t.byMaterial))
	for m := range t.byMaterial {
		out = append(out, m)
	}
	return out
}

// Absorb erodes the object with the tool over a time step of dt seconds.
// rate is the surface recession speed at the tool center, in world units
// per second. Distances only grow, so absorption never adds material.
// onRemoved is called for every voxel that crosses from solid to empty,
// with its material and object-local center; it may be nil.
func (o *Object) Absorb(tool Absorber, rate, dt float64, tracker *Tracker, onRemoved func(material uint8, center mgl64.Vec3)) int {
	if rate <= 0 || dt <= 0 {
		return 0
	}
	min, max := o.voxelRangeFor(tool.Bounds())
	volume := o.voxelExtent * o.voxelExtent * o.voxelExtent
	removed := 0

	o.mu.Lock()
	defer o.mu.Unlock()
	for x := min[0]; x <= max[0]; x++ {
		for y := min[1]; y <= max[1]; y++ {
			for z := min[2]; z <= max[2]; z++ {
				v := o.voxelAt(x, y, z)
				if v.Dist >= maxDistance {
					continue
				}
				center := o.VoxelCenter(x, y, z)
				f := tool.Rate(center)
				if f <= 0 {
					continue
				}
				wasSolid := v.Solid()
				d := float64(v.Dist) + rate*f*dt/o.voxelExtent
				v.Dist = float32(clampDistance(d))
				if wasSolid && !v.Solid() {
					removed++
					if tracker != nil {
						tracker.add(v.Material, volume)
					}
					if onRemoved != nil {
						onRemoved(v.Material, center)
					}
					v.Material = 0
				}
				o.setVoxel(x, y, z, v)
				o.markDirty(x, y, z)
			}
		}
	}
	return removed
}
