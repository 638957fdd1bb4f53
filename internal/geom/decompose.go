package geom

import (
	"github.com/go-gl/mathgl/mgl32"
)

const degenerateScale = 1e-8

// Decompose splits an affine matrix into translation, rotation and scale.
// Shear and perspective terms are discarded. A negative determinant is
// folded into the X scale.
func Decompose(m mgl32.Mat4) (mgl32.Vec3, mgl32.Quat, mgl32.Vec3) {
	t := m.Col(3).Vec3()

	c0 := m.Col(0).Vec3()
	c1 := m.Col(1).Vec3()
	c2 := m.Col(2).Vec3()
	s := mgl32.Vec3{c0.Len(), c1.Len(), c2.Len()}
	if m.Mat3().Det() < 0 {
		s[0] = -s[0]
	}

	if abs32(s[0]) < degenerateScale || abs32(s[1]) < degenerateScale || abs32(s[2]) < degenerateScale {
		return t, mgl32.QuatIdent(), s
	}

	var rot mgl32.Mat4
	rot.SetCol(0, c0.Mul(1/s[0]).Vec4(0))
	rot.SetCol(1, c1.Mul(1/s[1]).Vec4(0))
	rot.SetCol(2, c2.Mul(1/s[2]).Vec4(0))
	rot.SetCol(3, mgl32.Vec4{0, 0, 0, 1})

	return t, mgl32.Mat4ToQuat(rot).Normalize(), s
}

// Compose builds translate * rotate * scale.
func Compose(t mgl32.Vec3, r mgl32.Quat, s mgl32.Vec3) mgl32.Mat4 {
	return mgl32.Translate3D(t[0], t[1], t[2]).
		Mul4(r.Mat4()).
		Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
}
