package world

import (
	"context"

	"go.uber.org/zap"
	"voxelsim/internal/body"
	"voxelsim/internal/collide"
)

// Step advances the simulation by dt, split into the configured number of
// substeps. Each substep prepares contacts from pre-force velocities,
// integrates forces into momenta, solves the velocity constraints and then
// advances the poses; trajectory drivers overwrite driven poses at the
// absolute substep time. Voxel surface maintenance runs before the first
// substep so collisions see the current meshes.
func (w *World) Step(ctx context.Context, dt float64) error {
	if dt <= 0 {
		return nil
	}
	w.maintainVoxelObjects()

	sub := dt / float64(w.opts.Substeps)
	for i := 0; i < w.opts.Substeps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.substep(ctx, sub); err != nil {
			return err
		}
	}
	return nil
}

func (w *World) substep(ctx context.Context, dt float64) error {
	w.collidables.Sync(w.store)
	w.solver.BeginSubstep()

	contacts := 0
	w.collidables.ForEachManifold(func(m *collide.Manifold) {
		if m.A.Kind == collide.KindPhantom || m.B.Kind == collide.KindPhantom {
			return
		}
		for _, c := range m.Contacts {
			w.solver.PrepareContact(w.store, m.A, m.B, c)
			contacts++
		}
	})
	w.solver.PrepareJoints(w.store)
	w.solver.DropUnprepared()

	w.store.ForEachDynamic(func(_ body.DynamicID, d *body.Dynamic) {
		d.ResetLoads()
	})
	w.forces.Apply(w.store)
	w.store.ForEachDynamic(func(_ body.DynamicID, d *body.Dynamic) {
		d.AdvanceMomenta(dt)
	})

	w.solver.SyncVelocities(w.store)
	if err := w.solver.Solve(ctx); err != nil {
		return err
	}
	w.solver.Apply(w.store)

	w.store.ForEachDynamic(func(_ body.DynamicID, d *body.Dynamic) {
		d.AdvancePose(dt)
	})
	w.store.ForEachKinematic(func(_ body.KinematicID, k *body.Kinematic) {
		k.AdvancePose(dt)
	})

	w.time += dt
	w.motion.Apply(w.store, w.time)

	if contacts > 0 {
		w.logger.Debug("substep solved",
			zap.Float64("time", w.time),
			zap.Int("contacts", contacts))
	}
	return nil
}
