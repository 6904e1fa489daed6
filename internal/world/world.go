// Package world assembles the simulation: the body store, force and
// trajectory generators, collision detection, the constraint solver and
// deformable voxel objects, advanced together by Step.
package world

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
	"voxelsim/internal/body"
	"voxelsim/internal/collide"
	"voxelsim/internal/force"
	"voxelsim/internal/motion"
	"voxelsim/internal/solver"
	"voxelsim/internal/voxel"
)

var (
	// ErrBodyNotFound is returned by commands addressing a removed body.
	ErrBodyNotFound = errors.New("body not found")
	// ErrGeneratorNotFound is returned by commands addressing a removed
	// force generator.
	ErrGeneratorNotFound = errors.New("force generator not found")
	// ErrObjectNotFound is returned by commands addressing a removed voxel
	// object.
	ErrObjectNotFound = errors.New("voxel object not found")
)

// Options configure a world.
type Options struct {
	// Substeps is the number of solver substeps per Step call.
	Substeps int
	// Solver configures the contact solver.
	Solver solver.Config
	// MeshWorkers sizes the remeshing pool.
	MeshWorkers int
	// SynchronousMeshing makes Step wait for remeshing instead of
	// installing results as they finish. Collisions then always see the
	// current surface, at the cost of stalling the step.
	SynchronousMeshing bool
	// Logger receives step diagnostics; nil disables logging.
	Logger *zap.Logger
}

// DefaultOptions returns the standard configuration.
func DefaultOptions() Options {
	return Options{
		Substeps:           4,
		Solver:             solver.DefaultConfig(),
		MeshWorkers:        2,
		SynchronousMeshing: true,
	}
}

// World owns all simulation state.
type World struct {
	opts   Options
	logger *zap.Logger

	store       *body.Store
	forces      *force.Manager
	motion      *motion.Manager
	collidables *collide.Set
	solver      *solver.Solver
	remesher    *voxel.Remesher

	objects      map[VoxelObjectID]*voxelObject
	nextObjectID VoxelObjectID

	time float64
}

// New builds a world from options.
func New(opts Options) *World {
	if opts.Substeps < 1 {
		opts.Substeps = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &World{
		opts:        opts,
		logger:      logger,
		store:       body.NewStore(),
		forces:      force.NewManager(),
		motion:      motion.NewManager(),
		collidables: collide.NewSet(),
		solver:      solver.New(opts.Solver),
		remesher:    voxel.NewRemesher(opts.MeshWorkers, logger),
		objects:     make(map[VoxelObjectID]*voxelObject),
	}
}

// Close releases the mesh worker pool.
func (w *World) Close() {
	w.remesher.Close()
}

// Bodies exposes the body store.
func (w *World) Bodies() *body.Store { return w.store }

// Forces exposes the force generator manager.
func (w *World) Forces() *force.Manager { return w.forces }

// Motion exposes the trajectory driver manager.
func (w *World) Motion() *motion.Manager { return w.motion }

// Collidables exposes the collision set.
func (w *World) Collidables() *collide.Set { return w.collidables }

// Solver exposes the constraint solver, for joints.
func (w *World) Solver() *solver.Solver { return w.solver }

// Time returns the accumulated simulation time.
func (w *World) Time() float64 { return w.time }

// SetGravity changes the uniform world gravity.
func (w *World) SetGravity(g mgl64.Vec3) {
	w.forces.WorldGravity = g
}

// SetMedium changes the fluid medium drag generators act in.
func (w *World) SetMedium(m force.Medium) {
	w.forces.Medium = m
}

// ApplyImpulse applies an instantaneous impulse to a dynamic body at a
// world-space point.
func (w *World) ApplyImpulse(id body.DynamicID, impulse, point mgl64.Vec3) error {
	d, ok := w.store.Dynamic(id)
	if !ok {
		return ErrBodyNotFound
	}
	d.ApplyImpulse(impulse, point)
	return nil
}

// UpdateLocalForce replaces the force vector and frame mode of a registered
// local force generator.
func (w *World) UpdateLocalForce(id force.LocalForceID, mode force.LocalForceMode, f mgl64.Vec3) error {
	g, ok := w.forces.LocalForce(id)
	if !ok {
		return ErrGeneratorNotFound
	}
	g.Mode = mode
	g.Force = f
	return nil
}

// SetAlignmentDirection retargets a fixed-direction alignment torque.
func (w *World) SetAlignmentDirection(id force.AlignmentID, dir mgl64.Vec3) error {
	g, ok := w.forces.AlignmentTorque(id)
	if !ok {
		return ErrGeneratorNotFound
	}
	g.Direction = dir
	return nil
}
