package world

import (
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
	"voxelsim/internal/body"
	"voxelsim/internal/collide"
	"voxelsim/internal/voxel"
)

// VoxelObjectID identifies a voxel object bound into the world.
type VoxelObjectID uint64

// VoxelObjectDef binds a generated voxel object into the simulation.
type VoxelObjectDef struct {
	Object    *voxel.Object
	Densities voxel.MaterialDensities
	Material  collide.Material

	Position    mgl64.Vec3
	Orientation mgl64.Quat

	// Static objects never move; dynamic ones get a rigid body with the
	// mass, center of mass and inertia derived from the voxel grid.
	Static bool
}

type voxelObject struct {
	id      VoxelObjectID
	object  *voxel.Object
	shape   *voxel.CollisionShape
	mass    *voxel.MassModel
	tracker *voxel.Tracker

	bodyRef    body.Ref
	collidable collide.ID
}

// AddVoxelObject derives inertial properties from the object's voxels,
// creates its rigid body and collidable, and meshes its surface before
// returning.
func (w *World) AddVoxelObject(def VoxelObjectDef) (VoxelObjectID, error) {
	if def.Orientation == (mgl64.Quat{}) {
		def.Orientation = mgl64.QuatIdent()
	}
	mass := voxel.NewMassModel(def.Object, def.Densities)
	props, err := mass.Properties()
	if err != nil {
		return 0, err
	}

	shape := voxel.NewCollisionShape(def.Object)
	shape.SetReferencePoint(props.CenterOfMass)

	var ref body.Ref
	kind := collide.KindDynamic
	if def.Static {
		id := w.store.AddStatic(body.Static{
			Position:    def.Position.Add(def.Orientation.Rotate(props.CenterOfMass)),
			Orientation: def.Orientation,
		})
		ref = body.StaticRef(id)
		kind = collide.KindStatic
	} else {
		id, err := w.store.NewDynamic(props, def.Position, def.Orientation)
		if err != nil {
			return 0, err
		}
		ref = body.DynamicRef(id)
	}

	cid := w.collidables.Add(collide.Collidable{
		Kind:     kind,
		Body:     ref,
		Shape:    collide.VoxelMesh{Source: shape},
		Material: def.Material,
	})

	w.nextObjectID++
	obj := &voxelObject{
		id:         w.nextObjectID,
		object:     def.Object,
		shape:      shape,
		mass:       mass,
		tracker:    voxel.NewTracker(),
		bodyRef:    ref,
		collidable: cid,
	}
	w.objects[obj.id] = obj

	// First mesh is always synchronous: the object must be collidable from
	// its first step.
	w.remesher.SubmitDirty(obj.object, obj.shape)
	w.remesher.Wait()

	w.logger.Info("voxel object added",
		zap.Uint64("object", uint64(obj.id)),
		zap.Int("voxels", def.Object.SolidCount()),
		zap.Float64("mass", props.Mass),
		zap.Bool("static", def.Static))
	return obj.id, nil
}

// RemoveVoxelObject drops a voxel object, its body and its collidable.
func (w *World) RemoveVoxelObject(id VoxelObjectID) error {
	obj, ok := w.objects[id]
	if !ok {
		return ErrObjectNotFound
	}
	w.collidables.Remove(obj.collidable)
	switch obj.bodyRef.Kind {
	case body.KindDynamic:
		w.store.RemoveDynamic(body.DynamicID(obj.bodyRef.ID))
	case body.KindStatic:
		w.store.RemoveStatic(body.StaticID(obj.bodyRef.ID))
	}
	delete(w.objects, id)
	return nil
}

// VoxelObjectBody returns the body reference backing a voxel object.
func (w *World) VoxelObjectBody(id VoxelObjectID) (body.Ref, error) {
	obj, ok := w.objects[id]
	if !ok {
		return body.Ref{}, ErrObjectNotFound
	}
	return obj.bodyRef, nil
}

// VoxelObjectMass returns the current derived mass of a voxel object.
func (w *World) VoxelObjectMass(id VoxelObjectID) (float64, error) {
	obj, ok := w.objects[id]
	if !ok {
		return 0, ErrObjectNotFound
	}
	return obj.mass.Mass(), nil
}

// AbsorbedAmount returns the material absorbed from one object so far.
func (w *World) AbsorbedAmount(id VoxelObjectID, material uint8) (voxel.AbsorbedAmount, error) {
	obj, ok := w.objects[id]
	if !ok {
		return voxel.AbsorbedAmount{}, ErrObjectNotFound
	}
	return obj.tracker.Amount(material), nil
}

// AbsorbSphere erodes a voxel object with a spherical tool given in world
// space. Fully absorbed voxels are tallied per material and subtracted from
// the object's inertial properties; an object whose last voxel is absorbed
// is removed from the world.
func (w *World) AbsorbSphere(id VoxelObjectID, center mgl64.Vec3, radius, rate, dt float64) (int, error) {
	obj, ok := w.objects[id]
	if !ok {
		return 0, ErrObjectNotFound
	}
	local, ok := w.toObjectLocal(obj, center)
	if !ok {
		return 0, ErrBodyNotFound
	}
	tool := voxel.SphereAbsorber{Center: local, Radius: radius}
	removed := obj.object.Absorb(tool, rate, dt, obj.tracker, obj.mass.RemoveVoxel)
	if removed > 0 {
		if err := w.rebindVoxelObject(obj); err != nil {
			return removed, err
		}
	}
	return removed, nil
}

// toObjectLocal maps a world point into the object's grid frame.
func (w *World) toObjectLocal(obj *voxelObject, p mgl64.Vec3) (mgl64.Vec3, bool) {
	pos, orient, ok := w.store.Pose(obj.bodyRef)
	if !ok {
		return mgl64.Vec3{}, false
	}
	bodyLocal := orient.Inverse().Rotate(p.Sub(pos))
	return bodyLocal.Add(obj.shape.ReferencePoint()), true
}

// rebindVoxelObject refreshes the rigid body after the mass distribution
// changed. The collision frame follows the center of mass, so the shape's
// reference point moves with it.
func (w *World) rebindVoxelObject(obj *voxelObject) error {
	if obj.object.Empty() {
		w.logger.Info("voxel object fully absorbed", zap.Uint64("object", uint64(obj.id)))
		return w.RemoveVoxelObject(obj.id)
	}
	props, err := obj.mass.Properties()
	if err != nil {
		w.logger.Warn("degenerate voxel object removed",
			zap.Uint64("object", uint64(obj.id)), zap.Error(err))
		return w.RemoveVoxelObject(obj.id)
	}

	oldRef := obj.shape.ReferencePoint()
	comShift := props.CenterOfMass.Sub(oldRef)
	if obj.bodyRef.Kind == body.KindDynamic {
		if d, ok := w.store.Dynamic(body.DynamicID(obj.bodyRef.ID)); ok {
			d.UpdateInertialProperties(props, comShift)
		}
	}
	obj.shape.SetReferencePoint(props.CenterOfMass)
	return nil
}

// maintainVoxelObjects queues dirty chunks for remeshing and installs
// finished meshes, synchronously when configured.
func (w *World) maintainVoxelObjects() {
	submitted := 0
	for _, obj := range w.objects {
		submitted += w.remesher.SubmitDirty(obj.object, obj.shape)
	}
	if w.opts.SynchronousMeshing {
		w.remesher.Wait()
	} else {
		w.remesher.Collect()
	}
	if submitted > 0 {
		w.logger.Debug("remesh scheduled", zap.Int("chunks", submitted))
	}
}
