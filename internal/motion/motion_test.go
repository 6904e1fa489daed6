package motion

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"voxelsim/internal/body"
)

func TestCircularTrajectoryReturnsAfterPeriod(t *testing.T) {
	tests := []struct {
		name   string
		radius float64
		period float64
		center mgl64.Vec3
	}{
		{"unit circle", 1.0, 2.0, mgl64.Vec3{}},
		{"offset wide", 5.0, 0.7, mgl64.Vec3{10, -3, 2}},
		{"tiny fast", 0.1, 0.01, mgl64.Vec3{0, 1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := body.NewStore()
			id := s.AddKinematic(body.Kinematic{})
			m := NewManager()
			m.AddCircular(CircularTrajectory{
				Body:        id,
				Center:      tt.center,
				Orientation: mgl64.QuatIdent(),
				Radius:      tt.radius,
				Period:      tt.period,
			})

			m.Apply(s, 0)
			k, _ := s.Kinematic(id)
			p0, v0 := k.Position, k.Velocity

			m.Apply(s, tt.period)
			if k.Position.Sub(p0).Len() > 1e-9 || k.Velocity.Sub(v0).Len() > 1e-9 {
				t.Errorf("pose did not return after one period: %v vs %v", k.Position, p0)
			}

			// Quarter period puts the body a quarter turn around the circle.
			m.Apply(s, tt.period/4)
			want := tt.center.Add(mgl64.Vec3{0, tt.radius, 0})
			if k.Position.Sub(want).Len() > 1e-9 {
				t.Errorf("quarter-period position %v, want %v", k.Position, want)
			}
		})
	}
}

func TestCircularTrajectorySpeed(t *testing.T) {
	s := body.NewStore()
	id := s.AddKinematic(body.Kinematic{})
	d := CircularTrajectory{Body: id, Orientation: mgl64.QuatIdent(), Radius: 2.0, Period: 4.0}

	for _, tm := range []float64{0, 0.3, 1.7, 3.99} {
		d.Apply(s, tm)
		k, _ := s.Kinematic(id)
		want := 2 * math.Pi * d.Radius / d.Period
		if math.Abs(k.Velocity.Len()-want) > 1e-9 {
			t.Errorf("speed at t=%v is %v, want %v", tm, k.Velocity.Len(), want)
		}
		// Velocity is tangential.
		radial := k.Position.Sub(d.Center)
		if math.Abs(radial.Dot(k.Velocity)) > 1e-9 {
			t.Errorf("velocity not tangential at t=%v", tm)
		}
	}
}

func TestHarmonicOscillation(t *testing.T) {
	s := body.NewStore()
	id := s.AddKinematic(body.Kinematic{})
	d := HarmonicOscillation{
		Body:      id,
		Center:    mgl64.Vec3{1, 2, 3},
		Direction: mgl64.Vec3{1, 0, 0},
		Amplitude: 0.5,
		Period:    2.0,
	}

	k, _ := s.Kinematic(id)

	d.Apply(s, 0)
	if k.Position.Sub(d.Center).Len() > 1e-12 {
		t.Errorf("at t=0 position %v, want center", k.Position)
	}
	wantSpeed := d.Amplitude * 2 * math.Pi / d.Period
	if math.Abs(k.Velocity.X()-wantSpeed) > 1e-12 {
		t.Errorf("at t=0 velocity %v, want %v", k.Velocity.X(), wantSpeed)
	}

	// Peak displacement at a quarter period, zero velocity.
	d.Apply(s, 0.5)
	if math.Abs(k.Position.X()-1.5) > 1e-9 || k.Velocity.Len() > 1e-9 {
		t.Errorf("at peak: pos %v vel %v", k.Position, k.Velocity)
	}
}

func TestConstantAccelerationDriver(t *testing.T) {
	s := body.NewStore()
	id := s.AddKinematic(body.Kinematic{})
	d := ConstantAcceleration{
		Body:            id,
		InitialPosition: mgl64.Vec3{0, 10, 0},
		InitialVelocity: mgl64.Vec3{3, 0, 0},
		Acceleration:    mgl64.Vec3{0, -10, 0},
	}

	d.Apply(s, 2.0)
	k, _ := s.Kinematic(id)
	want := mgl64.Vec3{6, 10 - 20, 0}
	if k.Position.Sub(want).Len() > 1e-12 {
		t.Errorf("position %v, want %v", k.Position, want)
	}
	if k.Velocity.Sub(mgl64.Vec3{3, -20, 0}).Len() > 1e-12 {
		t.Errorf("velocity %v, want (3,-20,0)", k.Velocity)
	}
}

func TestConstantRotationDriver(t *testing.T) {
	s := body.NewStore()
	id := s.AddKinematic(body.Kinematic{})
	d := ConstantRotation{
		Body:               id,
		InitialOrientation: mgl64.QuatIdent(),
		Axis:               mgl64.Vec3{0, 0, 1},
		AngularSpeed:       math.Pi / 2,
	}

	d.Apply(s, 1.0)
	k, _ := s.Kinematic(id)

	got := k.Orientation.Rotate(mgl64.Vec3{1, 0, 0})
	if got.Sub(mgl64.Vec3{0, 1, 0}).Len() > 1e-9 {
		t.Errorf("x axis rotated to %v, want (0,1,0)", got)
	}
	if k.AngularVelocity.Sub(mgl64.Vec3{0, 0, math.Pi / 2}).Len() > 1e-12 {
		t.Errorf("angular velocity %v", k.AngularVelocity)
	}

	// Driver evaluation is stateless: re-evaluating an earlier time rewinds.
	d.Apply(s, 0)
	if k.Orientation != mgl64.QuatIdent() {
		t.Errorf("orientation at t=0 is %v, want identity", k.Orientation)
	}
}

func TestDriverIgnoresMissingBody(t *testing.T) {
	s := body.NewStore()
	m := NewManager()
	m.AddCircular(CircularTrajectory{Body: 42, Radius: 1, Period: 1, Orientation: mgl64.QuatIdent()})
	m.AddHarmonic(HarmonicOscillation{Body: 42, Period: 1, Direction: mgl64.Vec3{1, 0, 0}})
	m.Apply(s, 1.0) // must not panic
}
