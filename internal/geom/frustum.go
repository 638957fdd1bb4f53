package geom

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Plane is n·p + D = 0 with the positive half-space inside the frustum.
type Plane struct {
	Normal mgl32.Vec3
	D      float32
}

// Distance returns the signed distance from p to the plane.
func (p Plane) Distance(v mgl32.Vec3) float32 {
	return p.Normal.Dot(v) + p.D
}

// Frustum plane indices
const (
	PlaneLeft = iota
	PlaneRight
	PlaneTop
	PlaneBottom
	PlaneNear
	PlaneFar
)

// Frustum holds the six planes of a view volume. It is stateless between
// frames and rebuilt per camera or light with Update.
type Frustum struct {
	Planes [6]Plane
}

// NewFrustum builds a frustum from a combined projection*view matrix.
func NewFrustum(viewProjection mgl32.Mat4) Frustum {
	var f Frustum
	f.Update(viewProjection)
	return f
}

// Update extracts the planes from viewProjection using the Gribb/Hartmann
// method. The matrix is column-major, so row i is (m[i], m[4+i], m[8+i], m[12+i]).
func (f *Frustum) Update(m mgl32.Mat4) {
	row := func(i int) mgl32.Vec4 {
		return mgl32.Vec4{m[i], m[4+i], m[8+i], m[12+i]}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	f.Planes[PlaneLeft] = normalizePlane(r3.Add(r0))
	f.Planes[PlaneRight] = normalizePlane(r3.Sub(r0))
	f.Planes[PlaneTop] = normalizePlane(r3.Sub(r1))
	f.Planes[PlaneBottom] = normalizePlane(r3.Add(r1))
	f.Planes[PlaneNear] = normalizePlane(r3.Add(r2))
	f.Planes[PlaneFar] = normalizePlane(r3.Sub(r2))
}

func normalizePlane(v mgl32.Vec4) Plane {
	n := v.Vec3()
	l := n.Len()
	if l == 0 {
		return Plane{Normal: n, D: v.W()}
	}
	return Plane{Normal: n.Mul(1 / l), D: v.W() / l}
}

// IsBoxVisible tests an AABB against the planes. For each plane the corner
// furthest along the normal is checked; if it is behind the plane the box is
// fully outside. The test is conservative: boxes straddling a frustum corner
// may be reported visible.
func (f *Frustum) IsBoxVisible(min, max mgl32.Vec3) bool {
	for i := range f.Planes {
		p := &f.Planes[i]
		px := max[0]
		if p.Normal[0] < 0 {
			px = min[0]
		}
		py := max[1]
		if p.Normal[1] < 0 {
			py = min[1]
		}
		pz := max[2]
		if p.Normal[2] < 0 {
			pz = min[2]
		}
		if p.Normal[0]*px+p.Normal[1]*py+p.Normal[2]*pz+p.D < 0 {
			return false
		}
	}
	return true
}

// IsSphereVisible reports whether a sphere touches the frustum.
func (f *Frustum) IsSphereVisible(center mgl32.Vec3, radius float32) bool {
	for i := range f.Planes {
		if f.Planes[i].Distance(center) < -radius {
			return false
		}
	}
	return true
}
