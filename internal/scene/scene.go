// Package scene provides the named demo setups the CLI can run. A scene
// builds a fully populated world from the configuration; some scenes also
// script interactions, like an absorption tool eating into a voxel object.
package scene

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
	"voxelsim/internal/config"
	"voxelsim/internal/solver"
	"voxelsim/internal/world"
)

// Instance is a built scene.
type Instance struct {
	World *world.World
	// Tick runs scripted interaction once per frame, after stepping; nil
	// for scenes without one.
	Tick func(t float64)
}

// Scene is a named world builder.
type Scene struct {
	Name        string
	Description string
	Build       func(cfg *config.Config, logger *zap.Logger) (*Instance, error)
}

var scenes = map[string]Scene{}

func register(s Scene) {
	scenes[s.Name] = s
}

// Get returns the named scene.
func Get(name string) (Scene, error) {
	s, ok := scenes[name]
	if !ok {
		return Scene{}, fmt.Errorf("unknown scene %q", name)
	}
	return s, nil
}

// All returns every scene sorted by name.
func All() []Scene {
	out := make([]Scene, 0, len(scenes))
	for _, s := range scenes {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// newWorld builds a world from the shared configuration settings.
func newWorld(cfg *config.Config, logger *zap.Logger) *world.World {
	sc := cfg.Solver
	if sc.Iterations == 0 {
		sc = solver.DefaultConfig()
	}
	w := world.New(world.Options{
		Substeps:           cfg.Substeps,
		Solver:             sc,
		MeshWorkers:        cfg.Meshing.Workers,
		SynchronousMeshing: cfg.Meshing.Synchronous,
		Logger:             logger,
	})
	w.SetGravity(vec3(cfg.Gravity))
	if cfg.Medium.MassDensity > 0 {
		w.SetMedium(medium(cfg.Medium))
	}
	return w
}
