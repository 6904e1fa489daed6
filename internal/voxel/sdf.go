package voxel

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
	"voxelsim/internal/mathx"
)

// SDF is a signed distance field over object-local space, in world units.
// Negative is inside.
type SDF interface {
	Distance(p mgl64.Vec3) float64
}

// SphereSDF is a sphere centered at the local origin.
type SphereSDF struct {
	Radius float64
}

func (s SphereSDF) Distance(p mgl64.Vec3) float64 {
	return p.Len() - s.Radius
}

// BoxSDF is an axis-aligned box centered at the local origin.
type BoxSDF struct {
	HalfExtents mgl64.Vec3
}

func (b BoxSDF) Distance(p mgl64.Vec3) float64 {
	q := mgl64.Vec3{
		math.Abs(p.X()) - b.HalfExtents.X(),
		math.Abs(p.Y()) - b.HalfExtents.Y(),
		math.Abs(p.Z()) - b.HalfExtents.Z(),
	}
	outside := mgl64.Vec3{
		math.Max(q.X(), 0),
		math.Max(q.Y(), 0),
		math.Max(q.Z(), 0),
	}
	inside := math.Min(math.Max(q.X(), math.Max(q.Y(), q.Z())), 0)
	return outside.Len() + inside
}

// CapsuleSDF is a capsule along the local Y axis: a segment of the given
// length swept by the radius.
type CapsuleSDF struct {
	Radius        float64
	SegmentLength float64
}

func (c CapsuleSDF) Distance(p mgl64.Vec3) float64 {
	h := 0.5 * c.SegmentLength
	y := mathx.Clamp(p.Y(), -h, h)
	return p.Sub(mgl64.Vec3{0, y, 0}).Len() - c.Radius
}

// Translated shifts the inner field.
type Translated struct {
	Inner  SDF
	Offset mgl64.Vec3
}

func (t Translated) Distance(p mgl64.Vec3) float64 {
	return t.Inner.Distance(p.Sub(t.Offset))
}

// Rotated rotates the inner field by the given orientation.
type Rotated struct {
	Inner       SDF
	Orientation mgl64.Quat
}

func (r Rotated) Distance(p mgl64.Vec3) float64 {
	return r.Inner.Distance(r.Orientation.Inverse().Rotate(p))
}

// Union is the hard minimum of its parts.
type Union struct {
	Parts []SDF
}

func (u Union) Distance(p mgl64.Vec3) float64 {
	d := math.Inf(1)
	for _, part := range u.Parts {
		d = math.Min(d, part.Distance(p))
	}
	return d
}

// SmoothUnion blends two fields with a polynomial fillet of the given
// smoothness radius.
type SmoothUnion struct {
	A, B       SDF
	Smoothness float64
}

func (s SmoothUnion) Distance(p mgl64.Vec3) float64 {
	d1 := s.A.Distance(p)
	d2 := s.B.Distance(p)
	if s.Smoothness <= 0 {
		return math.Min(d1, d2)
	}
	h := mathx.Clamp(0.5+0.5*(d2-d1)/s.Smoothness, 0, 1)
	return d2+(d1-d2)*h - s.Smoothness*h*(1-h)
}

// SmoothSubtraction carves B out of A with a polynomial fillet.
type SmoothSubtraction struct {
	A, B       SDF
	Smoothness float64
}

func (s SmoothSubtraction) Distance(p mgl64.Vec3) float64 {
	d1 := s.A.Distance(p)
	d2 := -s.B.Distance(p)
	if s.Smoothness <= 0 {
		return math.Max(d1, d2)
	}
	h := mathx.Clamp(0.5-0.5*(d2-d1)/s.Smoothness, 0, 1)
	return d2+(d1-d2)*h + s.Smoothness*h*(1-h)
}

// Displaced perturbs the inner surface with fractal gradient noise. The
// perturbation is bounded by Amplitude, so distances stay conservative
// within that bound.
type Displaced struct {
	Inner     SDF
	Amplitude float64
	Frequency float64
	Octaves   int
	Seed      uint32
}

func (d Displaced) Distance(p mgl64.Vec3) float64 {
	octaves := d.Octaves
	if octaves <= 0 {
		octaves = 3
	}
	n := fractalNoise(p.Mul(d.Frequency), octaves, d.Seed)
	return d.Inner.Distance(p) + d.Amplitude*n
}

// ScatteredSpheres unions Count spheres jittered around points of a
// Fibonacci spiral on a shell of the given radius. Deterministic for a
// fixed seed.
type ScatteredSpheres struct {
	Count        int
	ShellRadius  float64
	SphereRadius float64
	RadiusJitter float64
	Smoothness   float64
	Seed         int64
}

// Build expands the scatter description into a concrete field.
func (sc ScatteredSpheres) Build() SDF {
	rng := rand.New(rand.NewSource(sc.Seed))
	var field SDF
	for i := 0; i < sc.Count; i++ {
		dir := fibonacciShellDirection(i, sc.Count)
		center := dir.Mul(sc.ShellRadius * rng.Float64())
		radius := sc.SphereRadius * (1 + sc.RadiusJitter*(2*rng.Float64()-1))
		sphere := Translated{Inner: SphereSDF{Radius: radius}, Offset: center}
		if field == nil {
			field = sphere
		} else {
			field = SmoothUnion{A: field, B: sphere, Smoothness: sc.Smoothness}
		}
	}
	if field == nil {
		return SphereSDF{Radius: sc.SphereRadius}
	}
	return field
}

// fibonacciShellDirection returns the i-th of n roughly uniform directions.
func fibonacciShellDirection(i, n int) mgl64.Vec3 {
	const goldenAngle = 2.399963229728653
	z := 1 - 2*(float64(i)+0.5)/float64(n)
	r := math.Sqrt(math.Max(0, 1-z*z))
	phi := goldenAngle * float64(i)
	return mgl64.Vec3{r * math.Cos(phi), r * math.Sin(phi), z}
}

// MaterialField assigns a material id to each local-space point.
type MaterialField interface {
	MaterialAt(p mgl64.Vec3) uint8
}

// ConstantMaterial assigns one material everywhere.
type ConstantMaterial uint8

func (m ConstantMaterial) MaterialAt(mgl64.Vec3) uint8 { return uint8(m) }

// BandedMaterial picks among materials by thresholding a noise field, giving
// contiguous blobs of each material.
type BandedMaterial struct {
	Materials []uint8
	Frequency float64
	Seed      uint32
}

func (m BandedMaterial) MaterialAt(p mgl64.Vec3) uint8 {
	if len(m.Materials) == 0 {
		return 0
	}
	n := 0.5 + 0.5*gradientNoise(p.Mul(m.Frequency), m.Seed)
	i := int(n * float64(len(m.Materials)))
	if i >= len(m.Materials) {
		i = len(m.Materials) - 1
	}
	if i < 0 {
		i = 0
	}
	return m.Materials[i]
}
