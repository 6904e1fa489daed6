package voxel

import (
	"github.com/go-gl/mathgl/mgl64"
	"voxelsim/internal/inertia"
)

// MassModel maintains the inertial properties of a voxel object
// incrementally: a full accumulation at build time, then per-voxel removals
// as material is absorbed. Cube cells use their exact second moment, so the
// properties match a closed-form evaluation of the same voxel set.
type MassModel struct {
	moments inertia.Moments
	density MaterialDensities
	extent  float64
}

// MaterialDensities maps material ids to mass density. A nil map or a
// missing id falls back to Default.
type MaterialDensities struct {
	Default float64
	ByID    map[uint8]float64
}

func (d MaterialDensities) of(material uint8) float64 {
	if d.ByID != nil {
		if rho, ok := d.ByID[material]; ok {
			return rho
		}
	}
	return d.Default
}

// NewMassModel accumulates every solid voxel of the object.
func NewMassModel(o *Object, density MaterialDensities) *MassModel {
	m := &MassModel{density: density, extent: o.VoxelExtent()}
	volume := m.extent * m.extent * m.extent

	o.mu.RLock()
	defer o.mu.RUnlock()
	for coord, c := range o.chunks {
		if c.solidCount == 0 {
			continue
		}
		for x := 0; x < ChunkSize; x++ {
			for y := 0; y < ChunkSize; y++ {
				for z := 0; z < ChunkSize; z++ {
					v := c.At(x, y, z)
					if !v.Solid() {
						continue
					}
					center := o.VoxelCenter(
						coord[0]*ChunkSize+x,
						coord[1]*ChunkSize+y,
						coord[2]*ChunkSize+z,
					)
					m.moments.AddCell(density.of(v.Material)*volume, m.extent, center)
				}
			}
		}
	}
	return m
}

// RemoveVoxel subtracts one absorbed voxel, identified by its material and
// object-local center.
func (m *MassModel) RemoveVoxel(material uint8, center mgl64.Vec3) {
	volume := m.extent * m.extent * m.extent
	m.moments.RemoveCell(m.density.of(material)*volume, m.extent, center)
}

// Mass returns the current total mass.
func (m *MassModel) Mass() float64 { return m.moments.Mass }

// Properties derives mass, center of mass, and the inertia tensor about the
// center of mass. Errors when no mass remains.
func (m *MassModel) Properties() (inertia.Properties, error) {
	return m.moments.Properties()
}
