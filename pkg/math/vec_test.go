package math

import "testing"

func TestVec2Length(t *testing.T) {
	v := Vec2{3, 4}
	if got := v.Length(); got != 5 {
		t.Errorf("Vec2.Length() = %v, want 5", got)
	}
	if got := v.Cross(Vec2{6, 8}); got != 0 {
		t.Errorf("parallel Vec2.Cross() = %v, want 0", got)
	}
}

func TestVec3Cross(t *testing.T) {
	got := Vec3{1, 0, 0}.Cross(Vec3{0, 1, 0})
	if got != (Vec3{0, 0, 1}) {
		t.Errorf("Vec3.Cross() = %v, want (0, 0, 1)", got)
	}
}

func TestVec3NormalizeZero(t *testing.T) {
	if got := (Vec3{}).Normalize(); got != (Vec3{}) {
		t.Errorf("zero Normalize() = %v, want zero", got)
	}
}

func TestVec4Lerp(t *testing.T) {
	got := Vec4{0, 0, 0, 0}.Lerp(Vec4{2, 4, 6, 8}, 0.5)
	if got != (Vec4{1, 2, 3, 4}) {
		t.Errorf("Vec4.Lerp() = %v", got)
	}
}

func TestSmoothStepEx(t *testing.T) {
	if got := SmoothStepEx(0.25, 0); got != 0.25 {
		t.Errorf("SmoothStepEx with k=0 = %v, want 0.25", got)
	}
	want := SmoothStep(0, 1, 0.25)
	if got := SmoothStepEx(0.25, 1); abs(got-want) > 1e-6 {
		t.Errorf("SmoothStepEx with k=1 = %v, want %v", got, want)
	}
	if got := SmoothStep(0, 1, 0.5); got != 0.5 {
		t.Errorf("SmoothStep(0.5) = %v, want 0.5", got)
	}
}

func TestBoundingBoxMerge(t *testing.T) {
	var b BoundingBox
	if b.Contains(Vec3{}) {
		t.Error("undefined box must not contain anything")
	}
	b.Merge(Vec3{1, 2, 3})
	b.Merge(Vec3{-1, 5, 0})
	if b.Min != (Vec3{-1, 2, 0}) || b.Max != (Vec3{1, 5, 3}) {
		t.Errorf("box = %v..%v", b.Min, b.Max)
	}
	if !b.Contains(Vec3{0, 3, 1}) {
		t.Error("box should contain interior point")
	}
	if b.Center() != (Vec3{0, 3.5, 1.5}) {
		t.Errorf("Center() = %v", b.Center())
	}
}
