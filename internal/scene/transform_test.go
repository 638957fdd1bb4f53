package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

const eps = 1e-4

func vecNear(a, b mgl32.Vec3) bool {
	return a.ApproxEqualThreshold(b, eps)
}

func TestRootWorldEqualsLocal(t *testing.T) {
	s := New()
	e := s.Create()
	tr := s.Transform(e)
	tr.Position = mgl32.Vec3{3, -2, 7}
	tr.Rotation = mgl32.QuatRotate(0.7, mgl32.Vec3{0, 1, 0})
	tr.Scale = mgl32.Vec3{2, 2, 2}

	if !tr.WorldMatrix(s).ApproxEqualThreshold(tr.LocalMatrix(), eps) {
		t.Fatalf("root world %v != local %v", tr.WorldMatrix(s), tr.LocalMatrix())
	}
}

func TestRootTranslationScenario(t *testing.T) {
	s := New()
	e := s.Create()
	s.Transform(e).Position = mgl32.Vec3{1, 0, 0}

	got := s.WorldMatrix(e).Col(3).Vec3()
	if !vecNear(got, mgl32.Vec3{1, 0, 0}) {
		t.Fatalf("translation column = %v, want (1,0,0)", got)
	}
}

func TestLocalVersionOnlyBumpsOnChange(t *testing.T) {
	s := New()
	tr := s.Transform(s.Create())

	tr.LocalMatrix()
	v := tr.LocalVersion()
	tr.LocalMatrix()
	if tr.LocalVersion() != v {
		t.Fatalf("version bumped without change: %d -> %d", v, tr.LocalVersion())
	}

	tr.Position = mgl32.Vec3{0, 1, 0}
	tr.LocalMatrix()
	if tr.LocalVersion() != v+1 {
		t.Fatalf("version = %d, want %d", tr.LocalVersion(), v+1)
	}
}

func TestChildWorldFollowsParentMutation(t *testing.T) {
	s := New()
	parent := s.Create()
	child := s.Create()
	s.SetParent(child, parent, false)

	pt := s.Transform(parent)
	ct := s.Transform(child)
	ct.Position = mgl32.Vec3{0, 0, -2}

	check := func() {
		t.Helper()
		want := pt.WorldMatrix(s).Mul4(ct.LocalMatrix())
		if !ct.WorldMatrix(s).ApproxEqualThreshold(want, eps) {
			t.Fatalf("child world stale: got %v want %v", ct.WorldMatrix(s), want)
		}
	}

	check()
	pt.Position = mgl32.Vec3{4, 0, 0}
	check()
	pt.Rotation = mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 1, 0})
	check()
	ct.Scale = mgl32.Vec3{3, 1, 1}
	check()
}

func TestGrandchildSeesRootChange(t *testing.T) {
	s := New()
	a, b, c := s.Create(), s.Create(), s.Create()
	s.SetParent(b, a, false)
	s.SetParent(c, b, false)
	s.Transform(b).Position = mgl32.Vec3{0, 1, 0}
	s.Transform(c).Position = mgl32.Vec3{0, 0, 1}

	if got := s.Transform(c).WorldPosition(s); !vecNear(got, mgl32.Vec3{0, 1, 1}) {
		t.Fatalf("grandchild = %v", got)
	}
	s.Transform(a).Position = mgl32.Vec3{10, 0, 0}
	if got := s.Transform(c).WorldPosition(s); !vecNear(got, mgl32.Vec3{10, 1, 1}) {
		t.Fatalf("grandchild after root move = %v", got)
	}
}

func TestWorldCacheReused(t *testing.T) {
	s := New()
	parent := s.Create()
	child := s.Create()
	s.SetParent(child, parent, false)
	ct := s.Transform(child)

	ct.WorldMatrix(s)
	v := ct.worldVersion
	ct.WorldMatrix(s)
	if ct.worldVersion != v {
		t.Fatalf("world recomputed without change")
	}
}
