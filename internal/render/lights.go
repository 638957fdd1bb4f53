package render

import (
	"math"

	"skirmish/internal/graphics"
	"skirmish/internal/scene"

	"github.com/go-gl/mathgl/mgl32"
)

// frameLight is a light resolved to world space for one frame.
type frameLight struct {
	Entity    scene.Entity
	Light     *scene.Light
	Position  mgl32.Vec3
	Direction mgl32.Vec3
	// ShadowIndex is the pool slot rendered for this light, -1 for none.
	ShadowIndex int
}

// lightSet is the per-frame light data block: active lights, capped per
// type to what the forward shader can hold.
type lightSet struct {
	dir   []frameLight
	point []frameLight
	spot  []frameLight
	// dropped counts active lights beyond the block caps.
	dropped int
}

func (ls *lightSet) collect(s *scene.Scene) {
	ls.dir = ls.dir[:0]
	ls.point = ls.point[:0]
	ls.spot = ls.spot[:0]
	ls.dropped = 0

	s.EachLight(func(e scene.Entity, t *scene.Transform, l *scene.Light) {
		if !l.Active {
			return
		}
		world := t.WorldMatrix(s)
		fl := frameLight{
			Entity:      e,
			Light:       l,
			Position:    world.Col(3).Vec3(),
			ShadowIndex: -1,
		}
		if l.Type != scene.LightPoint {
			fl.Direction = worldDirection(world, l.Direction)
		}

		switch l.Type {
		case scene.LightDirectional:
			ls.dir = appendCapped(ls.dir, fl, graphics.MaxDirectionalLights, &ls.dropped)
		case scene.LightPoint:
			ls.point = appendCapped(ls.point, fl, graphics.MaxPointLights, &ls.dropped)
		case scene.LightSpot:
			ls.spot = appendCapped(ls.spot, fl, graphics.MaxSpotLights, &ls.dropped)
		}
	})
}

func appendCapped(dst []frameLight, l frameLight, limit int, dropped *int) []frameLight {
	if len(dst) >= limit {
		*dropped++
		return dst
	}
	return append(dst, l)
}

func (ls *lightSet) clearShadows() {
	for _, group := range [][]frameLight{ls.dir, ls.point, ls.spot} {
		for i := range group {
			group[i].ShadowIndex = -1
		}
	}
}

func worldDirection(world mgl32.Mat4, d mgl32.Vec3) mgl32.Vec3 {
	if d.Len() == 0 {
		d = mgl32.Vec3{0, -1, 0}
	}
	w := world.Mul4x1(d.Vec4(0)).Vec3()
	if w.Len() == 0 {
		return d.Normalize()
	}
	return w.Normalize()
}

func cosDeg(deg float32) float32 {
	return float32(math.Cos(float64(mgl32.DegToRad(deg))))
}

// upload writes the light block into sh.
func (ls *lightSet) upload(dev graphics.Device, sh *graphics.Shader) {
	names := graphics.Uniforms
	dev.SetInt(sh, "numDirLights", int32(len(ls.dir)))
	dev.SetInt(sh, "numPointLights", int32(len(ls.point)))
	dev.SetInt(sh, "numSpotLights", int32(len(ls.spot)))

	for i, l := range ls.dir {
		u := names.DirLights[i]
		dev.SetVec3(sh, u.Direction, l.Direction)
		dev.SetVec3(sh, u.Color, l.Light.Color)
		dev.SetFloat(sh, u.Intensity, l.Light.Intensity)
		dev.SetInt(sh, u.ShadowIndex, int32(l.ShadowIndex))
	}
	for i, l := range ls.point {
		u := names.PointLights[i]
		dev.SetVec3(sh, u.Position, l.Position)
		dev.SetVec3(sh, u.Color, l.Light.Color)
		dev.SetFloat(sh, u.Intensity, l.Light.Intensity)
		dev.SetFloat(sh, u.Constant, l.Light.Constant)
		dev.SetFloat(sh, u.Linear, l.Light.Linear)
		dev.SetFloat(sh, u.Quadratic, l.Light.Quadratic)
		dev.SetInt(sh, u.ShadowIndex, int32(l.ShadowIndex))
	}
	for i, l := range ls.spot {
		u := names.SpotLights[i]
		dev.SetVec3(sh, u.Position, l.Position)
		dev.SetVec3(sh, u.Direction, l.Direction)
		dev.SetVec3(sh, u.Color, l.Light.Color)
		dev.SetFloat(sh, u.Intensity, l.Light.Intensity)
		dev.SetFloat(sh, u.Constant, l.Light.Constant)
		dev.SetFloat(sh, u.Linear, l.Light.Linear)
		dev.SetFloat(sh, u.Quadratic, l.Light.Quadratic)
		dev.SetFloat(sh, u.InnerCutoff, cosDeg(l.Light.InnerCone))
		dev.SetFloat(sh, u.OuterCutoff, cosDeg(l.Light.OuterCone))
		dev.SetInt(sh, u.ShadowIndex, int32(l.ShadowIndex))
	}
}
