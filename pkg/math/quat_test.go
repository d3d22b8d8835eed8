package math

import (
	"math"
	"testing"
)

func TestQuatNormalize(t *testing.T) {
	q := Quat{X: 1, Y: 2, Z: 3, W: 4}
	n := q.Normalize()

	length := float32(math.Sqrt(float64(n.Dot(n))))
	if abs(length-1) > 0.0001 {
		t.Errorf("Normalized quaternion length should be 1, got %v", length)
	}

	if got := (Quat{}).Normalize(); got != QuatIdentity() {
		t.Errorf("zero quaternion should normalize to identity, got %v", got)
	}
}

func TestQuatToMat4Identity(t *testing.T) {
	m := QuatIdentity().ToMat4()
	identity := Identity()
	for i := 0; i < 16; i++ {
		if abs(m[i]-identity[i]) > 0.0001 {
			t.Errorf("element %d: got %v, want %v", i, m[i], identity[i])
		}
	}
}

func TestQuatFromAxisAngle(t *testing.T) {
	q := QuatFromAxisAngle(Vec3{X: 0, Y: 1, Z: 0}, float32(math.Pi/2))

	expectedW := float32(math.Cos(math.Pi / 4))
	expectedY := float32(math.Sin(math.Pi / 4))

	if abs(q.W-expectedW) > 0.001 {
		t.Errorf("QuatFromAxisAngle W: expected %v, got %v", expectedW, q.W)
	}
	if abs(q.Y-expectedY) > 0.001 {
		t.Errorf("QuatFromAxisAngle Y: expected %v, got %v", expectedY, q.Y)
	}
}

func TestQuatRotate(t *testing.T) {
	// 90 degrees around Z turns X into Y
	q := QuatFromEuler(0, 0, 90)
	got := q.Rotate(Vec3{1, 0, 0})
	if abs(got.X) > 0.001 || abs(got.Y-1) > 0.001 || abs(got.Z) > 0.001 {
		t.Errorf("Rotate: got %v, want (0, 1, 0)", got)
	}

	// 90 degrees around Y turns X into -Z
	got = QuatFromEuler(0, 90, 0).Rotate(Vec3{1, 0, 0})
	if abs(got.X) > 0.001 || abs(got.Z+1) > 0.001 {
		t.Errorf("Rotate: got %v, want (0, 0, -1)", got)
	}
}
