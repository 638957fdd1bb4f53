package main

import (
	"math"

	"skirmish/internal/animation"
	"skirmish/internal/assets"
	"skirmish/internal/graphics"
	"skirmish/internal/scene"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	gridSize    = 7
	gridSpacing = 3.0
	columnBones = 6
)

// demoScene holds the handles the frame loop animates.
type demoScene struct {
	*scene.Scene

	camera     scene.Entity
	turntable  scene.Entity
	orbiters   []scene.Entity
	ground     *scene.Material
	groundTex  string
	elapsed    float64
	orbit      float64
	cameraDist float32
}

func buildScene(cache *assets.Cache, forward *graphics.Shader, aspect float32) *demoScene {
	s := scene.New()
	d := &demoScene{Scene: s, cameraDist: 28, groundTex: "ground"}

	cube := cache.GetModel("cube")
	plane := cache.GetModel("plane")
	column := cache.GetModel("column")

	ground := s.Create()
	s.AddRenderable(ground, &scene.Renderable{
		Model:   plane,
		Shader:  forward,
		Tint:    mgl32.Vec4{1, 1, 1, 1},
		Visible: true,
	})
	mat := scene.DefaultMaterial()
	d.ground = &mat
	s.SetMaterial(ground, d.ground)

	// A grid of crates shares one model and material, so it draws as a
	// single instanced batch.
	crate := &scene.Material{
		Kind:      scene.MaterialPBR,
		Albedo:    mgl32.Vec3{0.75, 0.55, 0.35},
		Metallic:  0.1,
		Roughness: 0.6,
		AO:        1,
	}
	half := float32(gridSize-1) * gridSpacing / 2
	for x := 0; x < gridSize; x++ {
		for z := 0; z < gridSize; z++ {
			e := s.Create()
			t := s.Transform(e)
			t.Position = mgl32.Vec3{float32(x)*gridSpacing - half, 0.5, float32(z)*gridSpacing - half}
			s.AddRenderable(e, &scene.Renderable{
				Model:       cube,
				Shader:      forward,
				Tint:        mgl32.Vec4{1, 1, 1, 1},
				CastsShadow: true,
				Visible:     true,
			})
			s.SetMaterial(e, crate)
		}
	}

	// The turntable carries a ring of cubes that inherit its rotation.
	d.turntable = s.Create()
	s.Transform(d.turntable).Position = mgl32.Vec3{0, 4, 0}
	for i := 0; i < 6; i++ {
		a := float64(i) * math.Pi / 3
		e := s.Create()
		t := s.Transform(e)
		t.Position = mgl32.Vec3{float32(math.Cos(a)) * 4, 0, float32(math.Sin(a)) * 4}
		t.Scale = mgl32.Vec3{0.6, 0.6, 0.6}
		s.AddRenderable(e, &scene.Renderable{
			Model:       cube,
			Shader:      forward,
			Tint:        mgl32.Vec4{0.4 + 0.1*float32(i), 0.5, 0.9, 1},
			CastsShadow: true,
			Visible:     true,
		})
		s.SetParent(e, d.turntable, false)
	}

	skeleton := animation.Chain(columnBones, 4.0/columnBones)
	for _, x := range []float32{-6, 6} {
		e := s.Create()
		s.Transform(e).Position = mgl32.Vec3{x, 0, -6}
		s.AddRenderable(e, &scene.Renderable{
			Model:       column,
			Shader:      forward,
			Tint:        mgl32.Vec4{0.9, 0.9, 0.95, 1},
			CastsShadow: true,
			Visible:     true,
		})
		a := animation.NewAnimator(skeleton)
		a.Play(animation.Sway(columnBones, 12, 3), true)
		s.SetAnimator(e, a)
	}

	sun := s.Create()
	s.AddLight(sun, scene.NewDirectionalLight(mgl32.Vec3{-0.4, -1, -0.3}, mgl32.Vec3{1, 0.95, 0.85}, 1.1))
	fill := s.Create()
	fillLight := scene.NewDirectionalLight(mgl32.Vec3{0.5, -0.6, 0.6}, mgl32.Vec3{0.5, 0.6, 0.8}, 0.3)
	fillLight.CastShadow = false
	s.AddLight(fill, fillLight)

	for i, c := range []mgl32.Vec3{{1, 0.4, 0.2}, {0.2, 0.6, 1}} {
		e := s.Create()
		s.Transform(e).Position = mgl32.Vec3{float32(i*8 - 4), 3, 0}
		s.AddLight(e, scene.NewPointLight(c, 2, 18))
		d.orbiters = append(d.orbiters, e)
	}

	spot := s.Create()
	s.Transform(spot).Position = mgl32.Vec3{0, 12, 8}
	s.AddLight(spot, scene.NewSpotLight(mgl32.Vec3{0, -1, -0.6}, mgl32.Vec3{1, 1, 0.9}, 3, 18, 26, 40))

	d.camera = s.Create()
	s.AddCamera(d.camera, scene.NewCamera(60, aspect, 0.1, 300))
	d.update(0)
	d.placeCamera()
	return d
}

// update advances the scripted motion by dt seconds.
func (d *demoScene) update(dt float64) {
	d.elapsed += dt
	t := d.elapsed

	table := d.Transform(d.turntable)
	table.Rotation = mgl32.QuatRotate(float32(t*0.6), mgl32.Vec3{0, 1, 0})

	for i, e := range d.orbiters {
		a := t*0.8 + float64(i)*math.Pi
		d.Transform(e).Position = mgl32.Vec3{float32(math.Cos(a)) * 7, 3, float32(math.Sin(a)) * 7}
	}
	d.orbit += dt * 0.1
}

// placeCamera puts the camera on its orbit looking at the scene center.
func (d *demoScene) placeCamera() {
	cam := d.Transform(d.camera)
	cam.Position = mgl32.Vec3{
		float32(math.Cos(d.orbit)) * d.cameraDist,
		d.cameraDist * 0.45,
		float32(math.Sin(d.orbit)) * d.cameraDist,
	}
	cam.LookAt(mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 1, 0})
}

// bindTextures attaches textures that finished loading.
func (d *demoScene) bindTextures(cache *assets.Cache) {
	if d.ground.Texture.ID != 0 {
		return
	}
	if tex, ok := cache.Texture(d.groundTex); ok {
		d.ground.Texture = tex
	}
}
