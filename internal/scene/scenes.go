package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
	"voxelsim/internal/body"
	"voxelsim/internal/collide"
	"voxelsim/internal/config"
	"voxelsim/internal/force"
	"voxelsim/internal/inertia"
	"voxelsim/internal/motion"
	"voxelsim/internal/voxel"
	"voxelsim/internal/world"
)

func vec3(v [3]float64) mgl64.Vec3 {
	return mgl64.Vec3{v[0], v[1], v[2]}
}

func medium(m config.MediumConfig) force.Medium {
	return force.Medium{MassDensity: m.MassDensity, Velocity: vec3(m.Velocity)}
}

func addGroundPlane(w *world.World, mat collide.Material) {
	ground := w.Bodies().AddStatic(body.Static{})
	w.Collidables().Add(collide.Collidable{
		Kind:     collide.KindStatic,
		Body:     body.StaticRef(ground),
		Shape:    collide.Plane{Normal: mgl64.Vec3{0, 1, 0}},
		Material: mat,
	})
}

func addSphere(w *world.World, pos mgl64.Vec3, radius, mass float64, mat collide.Material) (body.DynamicID, error) {
	id, err := w.Bodies().NewDynamic(inertia.UniformSphere(mass, radius), pos, mgl64.QuatIdent())
	if err != nil {
		return 0, err
	}
	w.Collidables().Add(collide.Collidable{
		Kind:     collide.KindDynamic,
		Body:     body.DynamicRef(id),
		Shape:    collide.Sphere{Radius: radius},
		Material: mat,
	})
	return id, nil
}

func init() {
	register(Scene{
		Name:        "sphere-drop",
		Description: "spheres of varying restitution dropped onto a ground plane",
		Build:       buildSphereDrop,
	})
	register(Scene{
		Name:        "spring-pair",
		Description: "a sphere hanging from a static anchor on a slack damped spring",
		Build:       buildSpringPair,
	})
	register(Scene{
		Name:        "voxel-asteroid",
		Description: "a noisy voxel asteroid resting on the ground while a tool carves it",
		Build:       buildVoxelAsteroid,
	})
	register(Scene{
		Name:        "kinematic-carousel",
		Description: "driven kinematic spheres sweeping dynamic bodies around",
		Build:       buildKinematicCarousel,
	})
	register(Scene{
		Name:        "drag-tumble",
		Description: "a falling box with a precomputed drag load map and a righting torque",
		Build:       buildDragTumble,
	})
}

func buildSphereDrop(cfg *config.Config, logger *zap.Logger) (*Instance, error) {
	w := newWorld(cfg, logger)
	addGroundPlane(w, collide.Material{Restitution: 0.2, StaticFriction: 0.6, DynamicFriction: 0.4})

	restitutions := []float64{0.1, 0.5, 0.9}
	for i, e := range restitutions {
		x := float64(i-1) * 2.5
		_, err := addSphere(w, mgl64.Vec3{x, 4 + float64(i), 0}, 0.5, 1.0, collide.Material{
			Restitution:     e,
			StaticFriction:  0.5,
			DynamicFriction: 0.3,
		})
		if err != nil {
			w.Close()
			return nil, err
		}
	}
	return &Instance{World: w}, nil
}

func buildSpringPair(cfg *config.Config, logger *zap.Logger) (*Instance, error) {
	w := newWorld(cfg, logger)

	anchor := w.Bodies().AddStatic(body.Static{Position: mgl64.Vec3{0, 6, 0}})
	id, err := addSphere(w, mgl64.Vec3{0, 3, 0}, 0.4, 2.0, collide.Material{Restitution: 0.3})
	if err != nil {
		w.Close()
		return nil, err
	}
	w.Forces().AddSpring(force.Spring{
		BodyA:       body.StaticRef(anchor),
		BodyB:       body.DynamicRef(id),
		Stiffness:   40,
		Damping:     1.5,
		RestLength:  2.0,
		SlackLength: 1.0,
	})
	addGroundPlane(w, collide.Material{Restitution: 0.4})
	return &Instance{World: w}, nil
}

func buildVoxelAsteroid(cfg *config.Config, logger *zap.Logger) (*Instance, error) {
	w := newWorld(cfg, logger)
	addGroundPlane(w, collide.Material{Restitution: 0.1, StaticFriction: 0.8, DynamicFriction: 0.6})

	seed := cfg.Seed
	if seed == 0 {
		seed = 7
	}
	field := voxel.Displaced{
		Inner: voxel.ScatteredSpheres{
			Count:        5,
			ShellRadius:  0.4,
			SphereRadius: 0.9,
			RadiusJitter: 0.3,
			Smoothness:   0.4,
			Seed:         seed,
		}.Build(),
		Amplitude: 0.15,
		Frequency: 2.0,
		Octaves:   3,
		Seed:      uint32(seed),
	}
	gen := voxel.Generator{
		VoxelExtent: 0.1,
		Field:       field,
		Material: voxel.BandedMaterial{
			Materials: []uint8{1, 2},
			Frequency: 1.5,
			Seed:      uint32(seed) + 1,
		},
		Bounds: collide.AABB{
			Min: mgl64.Vec3{-1.8, -1.8, -1.8},
			Max: mgl64.Vec3{1.8, 1.8, 1.8},
		},
	}
	obj, err := gen.Generate()
	if err != nil {
		w.Close()
		return nil, err
	}

	id, err := w.AddVoxelObject(world.VoxelObjectDef{
		Object: obj,
		Densities: voxel.MaterialDensities{
			Default: 900,
			ByID:    map[uint8]float64{2: 2400},
		},
		Material: collide.Material{Restitution: 0.05, StaticFriction: 0.8, DynamicFriction: 0.6},
		Position: mgl64.Vec3{0, 2.5, 0},
	})
	if err != nil {
		w.Close()
		return nil, err
	}

	// A tool orbiting the asteroid, eating into whatever it touches.
	tick := func(t float64) {
		ref, err := w.VoxelObjectBody(id)
		if err != nil {
			return
		}
		pos, _, ok := w.Bodies().Pose(ref)
		if !ok {
			return
		}
		angle := 0.4 * t
		tool := pos.Add(mgl64.Vec3{1.2 * math.Cos(angle), 0.3, 1.2 * math.Sin(angle)})
		_, _ = w.AbsorbSphere(id, tool, 0.5, 0.4, cfg.Dt)
	}
	return &Instance{World: w, Tick: tick}, nil
}

func buildKinematicCarousel(cfg *config.Config, logger *zap.Logger) (*Instance, error) {
	w := newWorld(cfg, logger)
	addGroundPlane(w, collide.Material{Restitution: 0.2, StaticFriction: 0.7, DynamicFriction: 0.5})

	// Two driven paddles circle the center in the horizontal plane.
	frame := mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{1, 0, 0})
	for i := 0; i < 2; i++ {
		k := w.Bodies().AddKinematic(body.Kinematic{})
		w.Collidables().Add(collide.Collidable{
			Kind:     collide.KindKinematic,
			Body:     body.KinematicRef(k),
			Shape:    collide.Sphere{Radius: 0.6},
			Material: collide.Material{Restitution: 0.6, DynamicFriction: 0.3},
		})
		w.Motion().AddCircular(motion.CircularTrajectory{
			Body:        k,
			Center:      mgl64.Vec3{0, 0.6, 0},
			Orientation: frame,
			Radius:      3.0,
			Period:      6.0,
			StartTime:   -3.0 * float64(i),
		})
	}

	for i := 0; i < 4; i++ {
		angle := float64(i) * math.Pi / 2
		pos := mgl64.Vec3{3 * math.Cos(angle), 0.5, 3 * math.Sin(angle)}
		if _, err := addSphere(w, pos, 0.5, 1.0, collide.Material{
			Restitution:     0.4,
			StaticFriction:  0.5,
			DynamicFriction: 0.3,
		}); err != nil {
			w.Close()
			return nil, err
		}
	}
	return &Instance{World: w}, nil
}

func buildDragTumble(cfg *config.Config, logger *zap.Logger) (*Instance, error) {
	w := newWorld(cfg, logger)
	if cfg.Medium.MassDensity <= 0 {
		w.SetMedium(force.Air())
	}
	addGroundPlane(w, collide.Material{Restitution: 0.3, DynamicFriction: 0.4})

	half := 0.5
	id, err := w.Bodies().NewDynamic(
		inertia.UniformBox(4.0, mgl64.Vec3{2 * half, 2 * half, 2 * half}),
		mgl64.Vec3{0, 12, 0},
		mgl64.QuatRotate(0.5, mgl64.Vec3{1, 0, 1}.Normalize()),
	)
	if err != nil {
		w.Close()
		return nil, err
	}
	w.Collidables().Add(collide.Collidable{
		Kind:     collide.KindDynamic,
		Body:     body.DynamicRef(id),
		Shape:    collide.Sphere{Radius: half * math.Sqrt(3)},
		Material: collide.Material{Restitution: 0.3, DynamicFriction: 0.4},
	})

	positions, indices := boxMesh(half)
	dragMap := force.BuildDragLoadMap(positions, indices, mgl64.Vec3{}, force.DefaultDragMapConfig())
	w.Forces().AddDrag(force.DragForce{
		Body:        id,
		Map:         dragMap,
		Coefficient: 1.1,
		Scaling:     1.0,
	})
	w.Forces().AddAlignmentTorque(force.AlignmentTorque{
		Body:         id,
		Axis:         mgl64.Vec3{0, 1, 0},
		Target:       force.AlignFixed,
		Direction:    mgl64.Vec3{0, 1, 0},
		SettlingTime: 2.0,
	})
	return &Instance{World: w}, nil
}

// boxMesh triangulates an axis-aligned box for drag map construction.
func boxMesh(half float64) ([]mgl64.Vec3, []uint32) {
	h := half
	positions := []mgl64.Vec3{
		{-h, -h, -h}, {h, -h, -h}, {h, h, -h}, {-h, h, -h},
		{-h, -h, h}, {h, -h, h}, {h, h, h}, {-h, h, h},
	}
	indices := []uint32{
		0, 2, 1, 0, 3, 2, // -z
		4, 5, 6, 4, 6, 7, // +z
		0, 1, 5, 0, 5, 4, // -y
		3, 6, 2, 3, 7, 6, // +y
		0, 7, 3, 0, 4, 7, // -x
		1, 2, 6, 1, 6, 5, // +x
	}
	return positions, indices
}
