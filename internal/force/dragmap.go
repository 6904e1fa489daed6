package force

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"voxelsim/internal/mathx"
)

// DragLoad is the aggregate force and torque a body experiences per unit
// dynamic pressure for one body-space flow direction.
type DragLoad struct {
	Force  mgl64.Vec3
	Torque mgl64.Vec3
}

func (l DragLoad) add(other DragLoad, weight float64) DragLoad {
	return DragLoad{
		Force:  l.Force.Add(other.Force.Mul(weight)),
		Torque: l.Torque.Add(other.Torque.Mul(weight)),
	}
}

func (l DragLoad) scale(f float64) DragLoad {
	return DragLoad{Force: l.Force.Mul(f), Torque: l.Torque.Mul(f)}
}

// DragLoadMap tabulates drag loads over all body-space flow directions on an
// equirectangular grid: rows span the polar angle theta in [0, π], columns
// the azimuthal angle phi in [0, 2π).
type DragLoadMap struct {
	Height int // theta bins
	Width  int // phi bins, 2*Height
	Loads  []DragLoad
}

// DragMapConfig controls drag load map generation.
type DragMapConfig struct {
	// Height is the number of theta bins; the phi direction gets twice as
	// many.
	Height int
	// DirectionSamples is the number of uniformly distributed flow
	// directions evaluated against the mesh.
	DirectionSamples int
	// Smoothness is the splatting kernel radius in bins.
	Smoothness float64
}

// DefaultDragMapConfig returns the map resolution used when none is given.
func DefaultDragMapConfig() DragMapConfig {
	return DragMapConfig{Height: 64, DirectionSamples: 5000, Smoothness: 2.0}
}

// BuildDragLoadMap samples aggregate pressure-drag loads of a triangle mesh
// over uniformly distributed flow directions and splats them into an
// equirectangular map with a quartic finite-support kernel. Positions are
// body-space, com is the center of mass loads are taken about.
func BuildDragLoadMap(positions []mgl64.Vec3, indices []uint32, com mgl64.Vec3, cfg DragMapConfig) *DragLoadMap {
	if cfg.Height <= 0 {
		cfg = DefaultDragMapConfig()
	}
	m := &DragLoadMap{
		Height: cfg.Height,
		Width:  2 * cfg.Height,
	}
	m.Loads = make([]DragLoad, m.Width*m.Height)
	weights := make([]float64, len(m.Loads))

	type triangle struct {
		normal   mgl64.Vec3
		area     float64
		centroid mgl64.Vec3
	}
	tris := make([]triangle, 0, len(indices)/3)
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := positions[indices[i]], positions[indices[i+1]], positions[indices[i+2]]
		cross := b.Sub(a).Cross(c.Sub(a))
		area := 0.5 * cross.Len()
		if area < mathx.Eps {
			continue
		}
		tris = append(tris, triangle{
			normal:   cross.Mul(1.0 / (2.0 * area)),
			area:     area,
			centroid: a.Add(b).Add(c).Mul(1.0 / 3.0),
		})
	}

	binTheta := math.Pi / float64(m.Height)
	binPhi := 2 * math.Pi / float64(m.Width)

	for s := 0; s < cfg.DirectionSamples; s++ {
		u := fibonacciDirection(s, cfg.DirectionSamples)

		// Aggregate flat-plate pressure drag on the surfaces facing the flow.
		var load DragLoad
		for _, tri := range tris {
			facing := tri.normal.Dot(u)
			if facing <= 0 {
				continue
			}
			f := u.Mul(-tri.area * facing)
			load.Force = load.Force.Add(f)
			load.Torque = load.Torque.Add(tri.centroid.Sub(com).Cross(f))
		}

		theta := math.Acos(mathx.Clamp(u.Z(), -1, 1))
		phi := math.Atan2(u.Y(), u.X())
		if phi < 0 {
			phi += 2 * math.Pi
		}

		// Splat into the neighborhood, widening the phi support toward the
		// poles where equirectangular columns converge.
		y := theta / binTheta
		x := phi / binPhi
		sinTheta := math.Max(math.Sin(theta), 1e-3)
		radiusY := cfg.Smoothness
		radiusX := math.Min(cfg.Smoothness/sinTheta, float64(m.Width)/2)

		yLo := int(math.Floor(y - radiusY))
		yHi := int(math.Ceil(y + radiusY))
		xLo := int(math.Floor(x - radiusX))
		xHi := int(math.Ceil(x + radiusX))

		for by := yLo; by <= yHi; by++ {
			if by < 0 || by >= m.Height {
				continue
			}
			for bx := xLo; bx <= xHi; bx++ {
				wx := ((bx + m.Width) % m.Width)
				dy := (float64(by) + 0.5 - y) / radiusY
				dx := (float64(bx) + 0.5 - x) / radiusX
				d2 := dx*dx + dy*dy
				if d2 >= 1 {
					continue
				}
				w := (1 - d2) * (1 - d2)
				idx := by*m.Width + wx
				m.Loads[idx] = m.Loads[idx].add(load, w)
				weights[idx] += w
			}
		}
	}

	for i := range m.Loads {
		if weights[i] > 0 {
			m.Loads[i] = m.Loads[i].scale(1.0 / weights[i])
		}
	}
	return m
}

// fibonacciDirection returns the i-th of n points of a Fibonacci sphere.
func fibonacciDirection(i, n int) mgl64.Vec3 {
	const goldenAngle = 2.399963229728653
	z := 1 - 2*(float64(i)+0.5)/float64(n)
	r := math.Sqrt(1 - z*z)
	phi := goldenAngle * float64(i)
	return mgl64.Vec3{r * math.Cos(phi), r * math.Sin(phi), z}
}

// Lookup interpolates the drag load for a body-space flow direction.
func (m *DragLoadMap) Lookup(dir mgl64.Vec3) DragLoad {
	theta := math.Acos(mathx.Clamp(dir.Z(), -1, 1))
	phi := math.Atan2(dir.Y(), dir.X())
	if phi < 0 {
		phi += 2 * math.Pi
	}

	y := theta/math.Pi*float64(m.Height) - 0.5
	x := phi/(2*math.Pi)*float64(m.Width) - 0.5

	y0 := int(math.Floor(y))
	x0 := int(math.Floor(x))
	fy := y - float64(y0)
	fx := x - float64(x0)

	clampY := func(v int) int {
		if v < 0 {
			return 0
		}
		if v >= m.Height {
			return m.Height - 1
		}
		return v
	}
	wrapX := func(v int) int {
		return ((v % m.Width) + m.Width) % m.Width
	}

	at := func(by, bx int) DragLoad {
		return m.Loads[clampY(by)*m.Width+wrapX(bx)]
	}

	var out DragLoad
	out = out.add(at(y0, x0), (1-fy)*(1-fx))
	out = out.add(at(y0, x0+1), (1-fy)*fx)
	out = out.add(at(y0+1, x0), fy*(1-fx))
	out = out.add(at(y0+1, x0+1), fy*fx)
	return out
}
