package mathx

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestAdvanceOrientation(t *testing.T) {
	tests := []struct {
		name  string
		w     mgl64.Vec3
		dt    float64
		angle float64
		axis  mgl64.Vec3
	}{
		{"quarter turn about z", mgl64.Vec3{0, 0, math.Pi / 2}, 1.0, math.Pi / 2, mgl64.Vec3{0, 0, 1}},
		{"half turn about x", mgl64.Vec3{math.Pi, 0, 0}, 1.0, math.Pi, mgl64.Vec3{1, 0, 0}},
		{"small step about y", mgl64.Vec3{0, 2.0, 0}, 0.01, 0.02, mgl64.Vec3{0, 1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := AdvanceOrientation(mgl64.QuatIdent(), tt.w, tt.dt)
			want := mgl64.QuatRotate(tt.angle, tt.axis)
			if math.Abs(q.W-want.W) > 1e-12 || q.V.Sub(want.V).Len() > 1e-12 {
				t.Errorf("got %v, want %v", q, want)
			}
		})
	}
}

func TestAdvanceOrientationZeroVelocity(t *testing.T) {
	q := mgl64.QuatRotate(0.3, mgl64.Vec3{0, 1, 0})
	got := AdvanceOrientation(q, mgl64.Vec3{}, 0.1)
	if got != q {
		t.Errorf("orientation changed with zero angular velocity: %v", got)
	}
}

func TestAdvanceOrientationStaysNormalized(t *testing.T) {
	q := mgl64.QuatIdent()
	w := mgl64.Vec3{1.3, -2.1, 0.7}
	for i := 0; i < 1000; i++ {
		q = AdvanceOrientation(q, w, 0.01)
	}
	norm := math.Sqrt(q.W*q.W + q.V.Dot(q.V))
	if math.Abs(norm-1.0) > 1e-9 {
		t.Errorf("quaternion drifted from unit length: %v", norm)
	}
}

func TestTangentBasis(t *testing.T) {
	normals := []mgl64.Vec3{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
		{0, 0, -1},
		mgl64.Vec3{1, 1, 1}.Normalize(),
		mgl64.Vec3{-0.3, 0.9, 0.2}.Normalize(),
	}

	for _, n := range normals {
		t1, t2 := TangentBasis(n)
		if math.Abs(t1.Len()-1) > 1e-12 || math.Abs(t2.Len()-1) > 1e-12 {
			t.Errorf("basis for %v not unit length", n)
		}
		if math.Abs(n.Dot(t1)) > 1e-12 || math.Abs(n.Dot(t2)) > 1e-12 || math.Abs(t1.Dot(t2)) > 1e-12 {
			t.Errorf("basis for %v not orthogonal", n)
		}
	}
}

func TestRotateTensor(t *testing.T) {
	// A diagonal tensor rotated a quarter turn about z swaps the x and y moments.
	m := mgl64.Diag3(mgl64.Vec3{2, 5, 9})
	q := mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1})
	r := RotateTensor(m, q)
	want := mgl64.Diag3(mgl64.Vec3{5, 2, 9})
	for i := 0; i < 9; i++ {
		if math.Abs(r[i]-want[i]) > 1e-12 {
			t.Fatalf("rotated tensor = %v, want %v", r, want)
		}
	}
}

func TestSkew(t *testing.T) {
	v := mgl64.Vec3{1, 2, 3}
	u := mgl64.Vec3{-2, 0.5, 4}
	got := Skew(v).Mul3x1(u)
	want := v.Cross(u)
	if got.Sub(want).Len() > 1e-12 {
		t.Errorf("Skew(v)u = %v, want v×u = %v", got, want)
	}
}
