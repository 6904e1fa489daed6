package force

import (
	"voxelsim/internal/body"
	"voxelsim/internal/mathx"
)

// DragForce applies shape-dependent pressure drag to one body using a
// precomputed drag load map.
type DragForce struct {
	Body body.DynamicID
	Map  *DragLoadMap

	// Coefficient is the dimensionless drag coefficient multiplied onto the
	// tabulated loads.
	Coefficient float64
	// Scaling converts the map's model-space lengths to world lengths:
	// forces scale with the square, torques with the cube.
	Scaling float64
}

// Apply accumulates the drag force and torque from the body's motion
// relative to the medium.
func (g *DragForce) Apply(s *body.Store, medium Medium) {
	if medium.MassDensity <= 0 || g.Map == nil {
		return
	}
	d, ok := s.Dynamic(g.Body)
	if !ok {
		return
	}

	rel := d.Velocity().Sub(medium.Velocity)
	speed := rel.Len()
	if speed < mathx.Eps {
		return
	}

	flowWorld := rel.Mul(1.0 / speed)
	flowBody := d.Orientation.Inverse().Rotate(flowWorld)

	load := g.Map.Lookup(flowBody)

	dynamicPressure := 0.5 * medium.MassDensity * g.Coefficient * speed * speed
	forceScale := dynamicPressure * g.Scaling * g.Scaling
	torqueScale := forceScale * g.Scaling

	d.ApplyForce(d.Orientation.Rotate(load.Force).Mul(forceScale))
	d.ApplyTorque(d.Orientation.Rotate(load.Torque).Mul(torqueScale))
}
