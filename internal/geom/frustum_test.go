package geom

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func testCamera() mgl32.Mat4 {
	proj := mgl32.Perspective(mgl32.DegToRad(60), 16.0/9.0, 0.1, 100)
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 10}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0})
	return proj.Mul4(view)
}

func TestBoxAtLookAtTargetVisible(t *testing.T) {
	f := NewFrustum(testCamera())
	if !f.IsBoxVisible(mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1}) {
		t.Fatalf("box at look-at target should be visible")
	}
}

func TestBoxBehindFarPlaneRejected(t *testing.T) {
	f := NewFrustum(testCamera())
	// camera at z=10 looking -Z with far=100: z < -90 is beyond the far plane
	if f.IsBoxVisible(mgl32.Vec3{-1, -1, -200}, mgl32.Vec3{1, 1, -150}) {
		t.Fatalf("box beyond far plane should be rejected")
	}
}

func TestBoxBehindCameraRejected(t *testing.T) {
	f := NewFrustum(testCamera())
	if f.IsBoxVisible(mgl32.Vec3{-1, -1, 20}, mgl32.Vec3{1, 1, 22}) {
		t.Fatalf("box behind the camera should be rejected")
	}
}

func TestBoxStraddlingPlaneVisible(t *testing.T) {
	f := NewFrustum(testCamera())
	// Half of this box is left of the view volume
	if !f.IsBoxVisible(mgl32.Vec3{-60, -1, -1}, mgl32.Vec3{0, 1, 1}) {
		t.Fatalf("partially visible box must not be rejected")
	}
}

func TestPlanesNormalized(t *testing.T) {
	f := NewFrustum(testCamera())
	for i, p := range f.Planes {
		if !mgl32.FloatEqualThreshold(p.Normal.Len(), 1, 1e-5) {
			t.Fatalf("plane %d normal length %f", i, p.Normal.Len())
		}
	}
	// Near plane faces down the view direction
	if n := f.Planes[PlaneNear].Normal; n.Z() > -0.99 {
		t.Fatalf("near plane normal: got %v, want ~(0,0,-1)", n)
	}
}

func TestOrthographicFrustum(t *testing.T) {
	proj := mgl32.Ortho(-10, 10, -10, 10, 0.1, 50)
	view := mgl32.LookAtV(mgl32.Vec3{0, 20, 0}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, 1})
	f := NewFrustum(proj.Mul4(view))

	if !f.IsBoxVisible(mgl32.Vec3{-1, 0, -1}, mgl32.Vec3{1, 2, 1}) {
		t.Fatalf("box under the light should be visible")
	}
	if f.IsBoxVisible(mgl32.Vec3{30, 0, 30}, mgl32.Vec3{32, 2, 32}) {
		t.Fatalf("box outside the ortho extent should be rejected")
	}
}

func TestSphereVisibility(t *testing.T) {
	f := NewFrustum(testCamera())
	if !f.IsSphereVisible(mgl32.Vec3{0, 0, 0}, 1) {
		t.Fatalf("sphere at target should be visible")
	}
	if f.IsSphereVisible(mgl32.Vec3{0, 0, 40}, 1) {
		t.Fatalf("sphere behind camera should be rejected")
	}
}

func BenchmarkIsBoxVisible(b *testing.B) {
	f := NewFrustum(testCamera())
	min := mgl32.Vec3{-1, -1, -1}
	max := mgl32.Vec3{1, 1, 1}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = f.IsBoxVisible(min, max)
	}
}
