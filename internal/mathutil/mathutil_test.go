package mathutil

import (
	"math"
	"testing"
)

func near(a, b Vec3) bool {
	for i := 0; i < 3; i++ {
		if math.Abs(a[i]-b[i]) > 1e-9 {
			return false
		}
	}
	return true
}

func TestLookRotationMapsForward(t *testing.T) {
	dirs := []Vec3{
		{0, 0, 1},
		{1, 0, 0},
		{0, 0, -3},
		{1, 2, 3},
		{0, 1, 0},
		{0, -5, 0},
	}
	for _, d := range dirs {
		r := LookRotation(d, Up)
		if got := r.MulVec3(Forward); !near(got, d.Normalize()) {
			t.Errorf("LookRotation(%v) * forward = %v, want %v", d, got, d.Normalize())
		}
		if det := r.Det(); math.Abs(det-1) > 1e-9 {
			t.Errorf("LookRotation(%v) det = %v, want 1", d, det)
		}
	}
}

func TestLookRotationZeroIsIdentity(t *testing.T) {
	if r := LookRotation(Vec3{}, Up); r != Mat3Identity() {
		t.Fatalf("zero forward = %v, want identity", r)
	}
}

func TestEulerToQuatMatchesRotX(t *testing.T) {
	q := EulerToQuat(Deg2Rad(90), 0, 0)
	got := QuatToMat3(q).MulVec3(Up)
	want := RotX(Deg2Rad(90)).MulVec3(Up)
	if !near(got, want) {
		t.Fatalf("quat rotation %v, matrix rotation %v", got, want)
	}
}
