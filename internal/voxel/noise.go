package voxel

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Lattice gradient noise: hashed unit gradients at integer lattice points,
// quintic-smoothed trilinear interpolation of the corner ramps. Output is
// roughly in [-1, 1] and zero at lattice points.

func hash3(x, y, z int32, seed uint32) uint32 {
	h := uint32(x)*0x8da6b343 ^ uint32(y)*0xd8163841 ^ uint32(z)*0xcb1ab31f ^ seed*0x9e3779b9
	h ^= h >> 13
	h *= 0x85ebca6b
	h ^= h >> 16
	return h
}

// latticeGradient returns a pseudorandom unit vector for a lattice point.
func latticeGradient(x, y, z int32, seed uint32) mgl64.Vec3 {
	h := hash3(x, y, z, seed)
	// Two uniform angles from the hash bits.
	theta := float64(h&0xffff) / 65536.0 * math.Pi
	phi := float64(h>>16) / 65536.0 * 2 * math.Pi
	st, ct := math.Sincos(theta)
	sp, cp := math.Sincos(phi)
	return mgl64.Vec3{st * cp, st * sp, ct}
}

func quintic(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

// gradientNoise evaluates the noise field at p.
func gradientNoise(p mgl64.Vec3, seed uint32) float64 {
	x0 := int32(math.Floor(p.X()))
	y0 := int32(math.Floor(p.Y()))
	z0 := int32(math.Floor(p.Z()))
	fx := p.X() - float64(x0)
	fy := p.Y() - float64(y0)
	fz := p.Z() - float64(z0)

	ramp := func(cx, cy, cz int32) float64 {
		g := latticeGradient(cx, cy, cz, seed)
		d := mgl64.Vec3{
			p.X() - float64(cx),
			p.Y() - float64(cy),
			p.Z() - float64(cz),
		}
		return g.Dot(d)
	}

	ux := quintic(fx)
	uy := quintic(fy)
	uz := quintic(fz)

	lerp := func(a, b, t float64) float64 { return a + (b-a)*t }

	c000 := ramp(x0, y0, z0)
	c100 := ramp(x0+1, y0, z0)
	c010 := ramp(x0, y0+1, z0)
	c110 := ramp(x0+1, y0+1, z0)
	c001 := ramp(x0, y0, z0+1)
	c101 := ramp(x0+1, y0, z0+1)
	c011 := ramp(x0, y0+1, z0+1)
	c111 := ramp(x0+1, y0+1, z0+1)

	return lerp(
		lerp(lerp(c000, c100, ux), lerp(c010, c110, ux), uy),
		lerp(lerp(c001, c101, ux), lerp(c011, c111, ux), uy),
		uz,
	)
}

// fractalNoise sums octaves of gradientNoise with halving amplitude and
// doubling frequency.
func fractalNoise(p mgl64.Vec3, octaves int, seed uint32) float64 {
	sum := 0.0
	amp := 1.0
	freq := 1.0
	norm := 0.0
	for i := 0; i < octaves; i++ {
		sum += amp * gradientNoise(p.Mul(freq), seed+uint32(i)*0x68bc21eb)
		norm += amp
		amp *= 0.5
		freq *= 2
	}
	return sum / norm
}
