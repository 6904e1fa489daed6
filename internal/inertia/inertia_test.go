package inertia

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestUniformPrimitives(t *testing.T) {
	tests := []struct {
		name string
		got  Properties
		want mgl64.Vec3 // principal moments
	}{
		{
			"unit sphere",
			UniformSphere(5.0, 2.0),
			mgl64.Vec3{8, 8, 8},
		},
		{
			"box",
			UniformBox(12.0, mgl64.Vec3{1, 2, 3}),
			mgl64.Vec3{13, 10, 5},
		},
		{
			"cylinder",
			UniformCylinder(6.0, 1.0, 2.0),
			mgl64.Vec3{3.5, 3, 3.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.got.Tensor.Matrix
			got := mgl64.Vec3{m[0], m[4], m[8]}
			if got.Sub(tt.want).Len() > 1e-12 {
				t.Errorf("principal moments = %v, want %v", got, tt.want)
			}
			if tt.got.CenterOfMass.Len() > 0 {
				t.Errorf("primitive center of mass should be at the origin")
			}
		})
	}
}

func TestTensorInverse(t *testing.T) {
	p := UniformBox(3.0, mgl64.Vec3{2, 1, 0.5})
	prod := p.Tensor.Matrix.Mul3(p.Tensor.Inverse)
	id := mgl64.Ident3()
	for i := 0; i < 9; i++ {
		if math.Abs(prod[i]-id[i]) > 1e-12 {
			t.Fatalf("tensor times inverse is not identity: %v", prod)
		}
	}
}

func TestNewTensorSingular(t *testing.T) {
	if _, err := NewTensor(mgl64.Mat3{}); err == nil {
		t.Fatal("expected error for singular tensor")
	}
}

func TestMomentsMatchBox(t *testing.T) {
	// A 4x2x6 box sampled as unit cells must reproduce the closed-form box
	// inertia exactly, since cell second moments compose additively.
	var m Moments
	const cellMass = 0.5
	for x := 0; x < 4; x++ {
		for y := 0; y < 2; y++ {
			for z := 0; z < 6; z++ {
				p := mgl64.Vec3{float64(x) + 0.5, float64(y) + 0.5, float64(z) + 0.5}
				m.AddCell(cellMass, 1.0, p)
			}
		}
	}

	props, err := m.Properties()
	if err != nil {
		t.Fatal(err)
	}

	totalMass := cellMass * 4 * 2 * 6
	want := UniformBox(totalMass, mgl64.Vec3{4, 2, 6})

	if math.Abs(props.Mass-totalMass) > 1e-12 {
		t.Errorf("mass = %v, want %v", props.Mass, totalMass)
	}
	if props.CenterOfMass.Sub(mgl64.Vec3{2, 1, 3}).Len() > 1e-12 {
		t.Errorf("center of mass = %v, want box center", props.CenterOfMass)
	}
	for i := 0; i < 9; i++ {
		if math.Abs(props.Tensor.Matrix[i]-want.Tensor.Matrix[i]) > 1e-9 {
			t.Fatalf("tensor = %v, want %v", props.Tensor.Matrix, want.Tensor.Matrix)
		}
	}
}

func TestMomentsRemoveAll(t *testing.T) {
	var m Moments
	cells := []mgl64.Vec3{{0.5, 0.5, 0.5}, {1.5, 0.5, 0.5}, {0.5, 1.5, 0.5}}
	for _, p := range cells {
		m.AddCell(2.0, 1.0, p)
	}
	for _, p := range cells {
		m.RemoveCell(2.0, 1.0, p)
	}

	if math.Abs(m.Mass) > 1e-12 || m.First.Len() > 1e-12 {
		t.Errorf("moments not zero after removing every cell: %+v", m)
	}
	if _, err := m.Properties(); err == nil {
		t.Error("expected error deriving properties from empty moments")
	}
}

func TestMomentsPositiveDefiniteAfterRemoval(t *testing.T) {
	var m Moments
	for x := 0; x < 3; x++ {
		for y := 0; y < 3; y++ {
			for z := 0; z < 3; z++ {
				m.AddCell(1.0, 1.0, mgl64.Vec3{float64(x), float64(y), float64(z)})
			}
		}
	}
	// Carve away a corner and confirm the remaining tensor stays physical.
	m.RemoveCell(1.0, 1.0, mgl64.Vec3{0, 0, 0})
	m.RemoveCell(1.0, 1.0, mgl64.Vec3{1, 0, 0})

	props, err := m.Properties()
	if err != nil {
		t.Fatal(err)
	}
	mm := props.Tensor.Matrix
	if mm[0] <= 0 || mm[4] <= 0 || mm[8] <= 0 || mm.Det() <= 0 {
		t.Errorf("tensor lost positive definiteness: %v", mm)
	}
}
