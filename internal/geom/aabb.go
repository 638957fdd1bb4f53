package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// Center returns the midpoint of the box.
func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Extent returns the half size of the box.
func (b AABB) Extent() mgl32.Vec3 {
	return b.Max.Sub(b.Min).Mul(0.5)
}

// Union returns the smallest box enclosing b and o.
func (b AABB) Union(o AABB) AABB {
	var u AABB
	for i := 0; i < 3; i++ {
		u.Min[i] = min(b.Min[i], o.Min[i])
		u.Max[i] = max(b.Max[i], o.Max[i])
	}
	return u
}

// Transform returns the world-space box enclosing b under m.
func (b AABB) Transform(m mgl32.Mat4) AABB {
	min, max := TransformAABB(b.Min, b.Max, m)
	return AABB{Min: min, Max: max}
}

// TransformAABB transforms a box with the center/extent method: the new
// extent along axis i is sum_j |m(i,j)| * extent_j. Exact for affine maps
// without shear.
func TransformAABB(min, max mgl32.Vec3, m mgl32.Mat4) (mgl32.Vec3, mgl32.Vec3) {
	c := min.Add(max).Mul(0.5)
	e := max.Sub(min).Mul(0.5)

	wc := m.Mul4x1(c.Vec4(1)).Vec3()
	var we mgl32.Vec3
	for i := 0; i < 3; i++ {
		we[i] = abs32(m.At(i, 0))*e[0] + abs32(m.At(i, 1))*e[1] + abs32(m.At(i, 2))*e[2]
	}
	return wc.Sub(we), wc.Add(we)
}

// DistanceSqToAABB returns the squared distance from p to the nearest point
// of the box, zero when p is inside.
func DistanceSqToAABB(p, min, max mgl32.Vec3) float32 {
	var d float32
	for i := 0; i < 3; i++ {
		v := p[i]
		if v < min[i] {
			d += (min[i] - v) * (min[i] - v)
		} else if v > max[i] {
			d += (v - max[i]) * (v - max[i])
		}
	}
	return d
}

// BoxIntersectsSphere reports whether the box and the sphere overlap.
func BoxIntersectsSphere(min, max, center mgl32.Vec3, radius float32) bool {
	return DistanceSqToAABB(center, min, max) <= radius*radius
}

func abs32(v float32) float32 {
	return float32(math.Abs(float64(v)))
}
