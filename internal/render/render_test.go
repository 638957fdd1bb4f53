package render

import (
	"testing"

	"skirmish/internal/animation"
	"skirmish/internal/assets"
	"skirmish/internal/config"
	"skirmish/internal/geom"
	"skirmish/internal/graphics"
	"skirmish/internal/graphics/graphicstest"
	"skirmish/internal/postprocess"
	"skirmish/internal/scene"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	litShader   = &graphics.Shader{ID: 10, Name: "lit"}
	otherShader = &graphics.Shader{ID: 11, Name: "other"}

	cubeModel = &assets.Model{
		ID:     1,
		Name:   "cube",
		Meshes: []*graphics.Mesh{{VAO: 1, IndexCount: 36}},
		Bounds: geom.AABB{Min: mgl32.Vec3{-0.5, -0.5, -0.5}, Max: mgl32.Vec3{0.5, 0.5, 0.5}},
	}
	rockModel = &assets.Model{
		ID:     2,
		Name:   "rock",
		Meshes: []*graphics.Mesh{{VAO: 2, IndexCount: 12}},
		Bounds: geom.AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}},
	}
)

func newTestSystem(t *testing.T) (*System, *graphicstest.Recorder) {
	t.Helper()
	rec := graphicstest.NewRecorder(640, 360)
	sys, err := NewSystem(rec, Shaders{
		Depth:      &graphics.Shader{ID: 1, Name: "depth"},
		PointDepth: &graphics.Shader{ID: 2, Name: "pointDepth"},
	}, nil, 640, 360)
	if err != nil {
		t.Fatalf("NewSystem: %v", err)
	}
	return sys, rec
}

// newTestScene places the primary camera at (0,2,10) looking down -Z.
func newTestScene() *scene.Scene {
	s := scene.New()
	cam := s.Create()
	s.Transform(cam).Position = mgl32.Vec3{0, 2, 10}
	s.AddCamera(cam, scene.NewCamera(60, 16.0/9, 0.1, 500))
	return s
}

func addObject(s *scene.Scene, pos mgl32.Vec3, model *assets.Model, sh *graphics.Shader) scene.Entity {
	e := s.Create()
	s.Transform(e).Position = pos
	s.AddRenderable(e, &scene.Renderable{
		Model:       model,
		Shader:      sh,
		Tint:        mgl32.Vec4{1, 1, 1, 1},
		CastsShadow: true,
		Visible:     true,
	})
	return e
}

func addLight(s *scene.Scene, l *scene.Light, pos mgl32.Vec3) scene.Entity {
	e := s.Create()
	s.Transform(e).Position = pos
	s.AddLight(e, l)
	return e
}

func TestDistanceCullBoundsRenderedCount(t *testing.T) {
	sys, _ := newTestSystem(t)
	sys.SetFrustumCulling(false)
	sys.SetMaxDrawDistance(50)
	s := newTestScene()

	const n = 12
	far := 0
	for i := 0; i < n; i++ {
		z := float32(-i * 10)
		addObject(s, mgl32.Vec3{0, 0, z}, cubeModel, litShader)
		if 10-z-0.5 > 50 {
			far++
		}
	}

	sys.Render(s)

	if far == 0 {
		t.Fatalf("test scene has no far objects")
	}
	if got := sys.RenderedCount(); got > n-far {
		t.Fatalf("RenderedCount = %d, want <= %d", got, n-far)
	}
	if got := sys.RenderedCount(); got != n-far {
		t.Fatalf("RenderedCount = %d, want exactly %d with frustum culling off", got, n-far)
	}
	if sys.Stats().Culled != far {
		t.Fatalf("Culled = %d, want %d", sys.Stats().Culled, far)
	}

	sys.SetMaxDrawDistance(0)
	sys.Render(s)
	if got := sys.RenderedCount(); got != n {
		t.Fatalf("disabled distance cull: RenderedCount = %d, want %d", got, n)
	}
}

func TestFrustumCullRejectsBehindCamera(t *testing.T) {
	sys, _ := newTestSystem(t)
	s := newTestScene()
	addObject(s, mgl32.Vec3{0, 0, 0}, cubeModel, litShader)
	addObject(s, mgl32.Vec3{0, 0, 30}, cubeModel, litShader)

	sys.Render(s)
	if got := sys.RenderedCount(); got != 1 {
		t.Fatalf("RenderedCount = %d, want 1", got)
	}

	sys.SetFrustumCulling(false)
	sys.Render(s)
	if got := sys.RenderedCount(); got != 2 {
		t.Fatalf("RenderedCount with culling off = %d, want 2", got)
	}
}

func TestMissingAssetsAndHiddenAreSkipped(t *testing.T) {
	sys, _ := newTestSystem(t)
	s := newTestScene()
	addObject(s, mgl32.Vec3{}, nil, litShader)
	addObject(s, mgl32.Vec3{}, cubeModel, nil)
	hidden := addObject(s, mgl32.Vec3{}, cubeModel, litShader)
	s.Renderable(hidden).Visible = false
	addObject(s, mgl32.Vec3{}, cubeModel, litShader)

	sys.Render(s)
	if got := sys.RenderedCount(); got != 1 {
		t.Fatalf("RenderedCount = %d, want 1", got)
	}
}

func TestQueueSortedByShaderThenModel(t *testing.T) {
	s := newTestScene()
	addObject(s, mgl32.Vec3{}, rockModel, otherShader)
	addObject(s, mgl32.Vec3{}, cubeModel, otherShader)
	addObject(s, mgl32.Vec3{}, rockModel, litShader)
	addObject(s, mgl32.Vec3{}, cubeModel, litShader)

	var q Queue
	q.Build(s, CullOptions{})
	want := [][2]uint32{{10, 1}, {10, 2}, {11, 1}, {11, 2}}
	for i, e := range q.Entries() {
		got := [2]uint32{e.Renderable.Shader.ID, e.Renderable.Model.ID}
		if got != want[i] {
			t.Fatalf("entry %d = %v, want %v", i, got, want[i])
		}
	}
}

func TestInstancingBatchesPerModel(t *testing.T) {
	sys, rec := newTestSystem(t)
	s := newTestScene()
	for i := 0; i < 5; i++ {
		addObject(s, mgl32.Vec3{float32(i), 0, 0}, cubeModel, litShader)
	}
	for i := 0; i < 3; i++ {
		addObject(s, mgl32.Vec3{float32(i), 0, -3}, rockModel, litShader)
	}

	rec.Reset()
	sys.Render(s)

	var sizes []int
	for _, op := range rec.Ops {
		if op.Kind == "drawInstanced" {
			sizes = append(sizes, op.Instances)
		}
	}
	if len(sizes) != 2 || sizes[0] != 5 || sizes[1] != 3 {
		t.Fatalf("instanced draws = %v, want [5 3]", sizes)
	}
	if rec.Count("use") != 1 {
		t.Fatalf("shader binds = %d, want 1", rec.Count("use"))
	}
	if st := sys.Stats(); st.InstancedBatches != 2 || st.Rendered != 8 {
		t.Fatalf("stats = %+v", st)
	}

	sys.SetInstancing(false)
	rec.Reset()
	sys.Render(s)
	if rec.Count("drawInstanced") != 0 || rec.Count("draw") != 8 {
		t.Fatalf("instancing off: instanced=%d draws=%d", rec.Count("drawInstanced"), rec.Count("draw"))
	}
	if v, _ := rec.Uniform("lit", "isInstanced"); v.(int32) != 0 {
		t.Fatalf("isInstanced = %v", v)
	}
}

func TestInstancingGroupsAlternatingMaterials(t *testing.T) {
	sys, rec := newTestSystem(t)
	s := newTestScene()
	red := &scene.Material{Kind: scene.MaterialPhong, Diffuse: mgl32.Vec3{1, 0, 0}}
	blue := &scene.Material{Kind: scene.MaterialPhong, Diffuse: mgl32.Vec3{0, 0, 1}}
	for i := 0; i < 6; i++ {
		e := addObject(s, mgl32.Vec3{float32(i), 0, 0}, cubeModel, litShader)
		if i%2 == 0 {
			s.SetMaterial(e, red)
		} else {
			s.SetMaterial(e, blue)
		}
	}

	rec.Reset()
	sys.Render(s)

	var sizes []int
	for _, op := range rec.Ops {
		if op.Kind == "drawInstanced" {
			sizes = append(sizes, op.Instances)
		}
	}
	if len(sizes) != 2 || sizes[0] != 3 || sizes[1] != 3 {
		t.Fatalf("instanced draws = %v, want [3 3]", sizes)
	}

	entries := sys.queue.Entries()
	for i := 1; i < len(entries); i++ {
		if entries[i].Material != entries[i-1].Material && i != 3 {
			t.Fatalf("entry %d switches material mid-group", i)
		}
	}
}

func TestShaderChangeRebindsState(t *testing.T) {
	sys, rec := newTestSystem(t)
	s := newTestScene()
	addObject(s, mgl32.Vec3{}, cubeModel, litShader)
	addObject(s, mgl32.Vec3{1, 0, 0}, cubeModel, otherShader)

	rec.Reset()
	sys.Render(s)

	if rec.Count("use") != 2 {
		t.Fatalf("shader binds = %d, want 2", rec.Count("use"))
	}
	for _, name := range []string{"lit", "other"} {
		if _, ok := rec.Uniform(name, "view"); !ok {
			t.Fatalf("%s: view not uploaded", name)
		}
		if _, ok := rec.Uniform(name, "numDirLights"); !ok {
			t.Fatalf("%s: light block not uploaded", name)
		}
	}
	v, _ := rec.Uniform("lit", "viewPos")
	if v.(mgl32.Vec3) != (mgl32.Vec3{0, 2, 10}) {
		t.Fatalf("viewPos = %v", v)
	}
}

func TestAnimatedEntityBreaksBatch(t *testing.T) {
	sys, rec := newTestSystem(t)
	s := newTestScene()
	addObject(s, mgl32.Vec3{0, 0, 0}, cubeModel, litShader)
	animated := addObject(s, mgl32.Vec3{1, 0, 0}, cubeModel, litShader)
	addObject(s, mgl32.Vec3{2, 0, 0}, cubeModel, litShader)

	a := animation.NewAnimator(animation.Chain(120, 0.1))
	a.Update(0)
	s.SetAnimator(animated, a)

	rec.Reset()
	sys.Render(s)

	if rec.Count("draw") != 1 || rec.Count("drawInstanced") != 2 {
		t.Fatalf("draw=%d instanced=%d, want 1 and 2", rec.Count("draw"), rec.Count("drawInstanced"))
	}
	if sys.RenderedCount() != 3 {
		t.Fatalf("RenderedCount = %d", sys.RenderedCount())
	}
	bones, _ := rec.Uniform("lit", "bones")
	if n := len(bones.([]mgl32.Mat4)); n != graphics.MaxBones {
		t.Fatalf("bones uploaded = %d, want cap %d", n, graphics.MaxBones)
	}
}

func TestMaterialUniforms(t *testing.T) {
	sys, rec := newTestSystem(t)
	sys.SetInstancing(false)
	s := newTestScene()
	e := addObject(s, mgl32.Vec3{}, cubeModel, litShader)
	s.SetMaterial(e, &scene.Material{
		Kind:      scene.MaterialPBR,
		Albedo:    mgl32.Vec3{0.9, 0.1, 0.1},
		Metallic:  0.7,
		Roughness: 0.3,
		AO:        1,
		Texture:   graphics.Texture{ID: 4242},
	})

	rec.Reset()
	sys.Render(s)
	if v, _ := rec.Uniform("lit", "materialType"); v.(int32) != 1 {
		t.Fatalf("materialType = %v", v)
	}
	if v, _ := rec.Uniform("lit", "material.metallic"); v.(float32) != 0.7 {
		t.Fatalf("metallic = %v", v)
	}
	if !boundTexture(rec, graphics.UnitDiffuse, 4242) {
		t.Fatalf("material texture not bound")
	}

	sys.SetNoTexture(true)
	rec.Reset()
	sys.Render(s)
	if boundTexture(rec, graphics.UnitDiffuse, 4242) {
		t.Fatalf("no-texture mode bound the material texture")
	}
	if sys.RenderedCount() != 1 {
		t.Fatalf("no-texture mode changed draws")
	}
}

func TestDefaultMaterialWhenAbsent(t *testing.T) {
	sys, rec := newTestSystem(t)
	s := newTestScene()
	addObject(s, mgl32.Vec3{}, cubeModel, litShader)

	sys.Render(s)
	def := scene.DefaultMaterial()
	if v, _ := rec.Uniform("lit", "materialType"); v.(int32) != 0 {
		t.Fatalf("materialType = %v", v)
	}
	if v, _ := rec.Uniform("lit", "material.diffuse"); v.(mgl32.Vec3) != def.Diffuse {
		t.Fatalf("diffuse = %v", v)
	}
}

func boundTexture(rec *graphicstest.Recorder, unit int32, id uint32) bool {
	for _, op := range rec.Ops {
		if op.Kind == "bindTex" && op.Unit == unit && op.Texture == id {
			return true
		}
	}
	return false
}

func TestDirectionalShadowPoolCapped(t *testing.T) {
	sys, rec := newTestSystem(t)
	s := newTestScene()
	addObject(s, mgl32.Vec3{}, cubeModel, litShader)
	addObject(s, mgl32.Vec3{0, -1, 0}, rockModel, litShader)
	for _, d := range []mgl32.Vec3{{-1, -1, 0}, {1, -1, 0}, {0, -1, -1}} {
		addLight(s, scene.NewDirectionalLight(d, mgl32.Vec3{1, 1, 1}, 1), mgl32.Vec3{})
	}

	rec.Reset()
	sys.RenderShadows(s)
	sys.Render(s)

	if got := sys.Stats().ShadowMaps; got != 2 {
		t.Fatalf("shadow maps = %d, want 2", got)
	}
	if got := len(sys.shadows.Bindings().Dir); got != 2 {
		t.Fatalf("directional bindings = %d, want 2", got)
	}
	if v, _ := rec.Uniform("lit", "numDirLights"); v.(int32) != 3 {
		t.Fatalf("numDirLights = %v, want 3", v)
	}
	idx := graphics.Uniforms.DirLights
	for i, want := range []int32{0, 1, -1} {
		if v, _ := rec.Uniform("lit", idx[i].ShadowIndex); v.(int32) != want {
			t.Fatalf("dirLights[%d].shadowIndex = %v, want %d", i, v, want)
		}
	}
	if !sys.shadows.warned[scene.LightDirectional] {
		t.Fatalf("cap not reported")
	}

	depthPasses := 0
	for _, op := range rec.Ops {
		if op.Kind == "use" && op.Shader == "depth" {
			depthPasses++
		}
	}
	if depthPasses != 2 {
		t.Fatalf("depth passes = %d, want 2", depthPasses)
	}
}

func TestShadowModes(t *testing.T) {
	sys, rec := newTestSystem(t)
	s := newTestScene()
	addObject(s, mgl32.Vec3{}, cubeModel, litShader)
	addLight(s, scene.NewDirectionalLight(mgl32.Vec3{-1, -1, 0}, mgl32.Vec3{1, 1, 1}, 1), mgl32.Vec3{})
	addLight(s, scene.NewDirectionalLight(mgl32.Vec3{1, -1, 0}, mgl32.Vec3{1, 1, 1}, 1), mgl32.Vec3{})
	addLight(s, scene.NewSpotLight(mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 1, 1}, 1, 20, 30, 40), mgl32.Vec3{0, 8, 0})

	sys.SetShadowMode(config.ShadowsSingle)
	sys.RenderShadows(s)
	sys.Render(s)
	if got := sys.Stats().ShadowMaps; got != 1 {
		t.Fatalf("single mode maps = %d, want 1", got)
	}

	sys.SetShadowMode(config.ShadowsMulti)
	sys.RenderShadows(s)
	sys.Render(s)
	if got := sys.Stats().ShadowMaps; got != 3 {
		t.Fatalf("multi mode maps = %d, want 3", got)
	}

	sys.SetShadowMode(config.ShadowsOff)
	rec.Reset()
	sys.RenderShadows(s)
	sys.Render(s)
	if got := sys.Stats().ShadowMaps; got != 0 {
		t.Fatalf("off mode maps = %d", got)
	}
	if v, _ := rec.Uniform("lit", "shadowsEnabled"); v.(int32) != 0 {
		t.Fatalf("shadowsEnabled = %v", v)
	}
}

func TestPointShadowSingleGeometryPass(t *testing.T) {
	sys, rec := newTestSystem(t)
	s := newTestScene()
	addObject(s, mgl32.Vec3{0, 0, 0}, cubeModel, litShader)
	addObject(s, mgl32.Vec3{200, 0, 0}, cubeModel, litShader)
	addLight(s, scene.NewPointLight(mgl32.Vec3{1, 0.8, 0.6}, 2, 20), mgl32.Vec3{0, 3, 0})

	rec.Reset()
	sys.RenderShadows(s)

	var draws int
	for _, op := range rec.Ops {
		if op.Kind == "draw" && op.Shader == "pointDepth" {
			draws++
		}
	}
	if draws != 1 {
		t.Fatalf("point shadow draws = %d, want 1 (far caster culled)", draws)
	}
	for i := 0; i < 6; i++ {
		if _, ok := rec.Uniform("pointDepth", graphics.Uniforms.CubeFaces[i]); !ok {
			t.Fatalf("face matrix %d missing", i)
		}
	}
	if v, _ := rec.Uniform("pointDepth", "farPlane"); v.(float32) != config.DefaultFrame().PointShadowFar {
		t.Fatalf("farPlane = %v", v)
	}
}

func TestShadowCullUsesCameraOrigin(t *testing.T) {
	sys, rec := newTestSystem(t)
	sys.SetShadowFrustumCulling(false)
	sys.Settings().SetShadowDistance(30)
	s := newTestScene()
	addObject(s, mgl32.Vec3{0, 0, 0}, cubeModel, litShader)
	addObject(s, mgl32.Vec3{0, 0, -100}, cubeModel, litShader)
	addLight(s, scene.NewDirectionalLight(mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 1, 1}, 1), mgl32.Vec3{})

	rec.Reset()
	sys.RenderShadows(s)
	draws := 0
	for _, op := range rec.Ops {
		if op.Kind == "draw" && op.Shader == "depth" {
			draws++
		}
	}
	if draws != 1 {
		t.Fatalf("depth draws = %d, want 1", draws)
	}
}

func TestNonCastersSkippedInShadowPass(t *testing.T) {
	sys, rec := newTestSystem(t)
	s := newTestScene()
	e := addObject(s, mgl32.Vec3{}, cubeModel, litShader)
	s.Renderable(e).CastsShadow = false
	addLight(s, scene.NewDirectionalLight(mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 1, 1}, 1), mgl32.Vec3{})

	rec.Reset()
	sys.RenderShadows(s)
	if rec.Count("draw") != 0 {
		t.Fatalf("non-caster drawn into shadow map")
	}
}

func TestRenderWithoutCameraDrawsNothing(t *testing.T) {
	sys, rec := newTestSystem(t)
	s := scene.New()
	addObject(s, mgl32.Vec3{}, cubeModel, litShader)

	rec.Reset()
	sys.Render(s)
	if sys.RenderedCount() != 0 || rec.Count("drawInstanced") != 0 {
		t.Fatalf("drew without a camera")
	}
}

func TestTAAJitterAppliedThroughPipeline(t *testing.T) {
	sys, rec := newTestSystem(t)
	pipe, err := postprocess.NewPipeline(rec, postprocess.Programs{
		Blit: &graphics.Shader{ID: 20, Name: "blit"},
		TAA:  &graphics.Shader{ID: 21, Name: "taa"},
		FXAA: &graphics.Shader{ID: 22, Name: "fxaa"},
	}, 640, 360)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	sys.AttachPostProcess(pipe)
	sys.SetAntiAliasing(config.AATAA)

	s := newTestScene()
	addObject(s, mgl32.Vec3{}, cubeModel, litShader)

	rec.Reset()
	sys.Render(s)

	cam := s.Camera(s.PrimaryCamera())
	if cam.Jitter() == (mgl32.Vec2{}) {
		t.Fatalf("camera not jittered")
	}
	proj, _ := rec.Uniform("lit", "projection")
	if proj.(mgl32.Mat4) != cam.Projection() {
		t.Fatalf("main pass projection is not the jittered one")
	}
	j, _ := rec.Uniform("taa", "jitter")
	if j.(mgl32.Vec2) != postprocess.JitterOffset(0) {
		t.Fatalf("resolve jitter %v, want frame 0 offset", j)
	}

	// The scene pass renders into the pipeline's buffer.
	for _, op := range rec.Ops {
		if op.Kind == "drawInstanced" && op.FB != pipe.SceneTarget() {
			t.Fatalf("scene drawn into %v", op.FB)
		}
	}

	sys.SetAntiAliasing(config.AANone)
	sys.Render(s)
	if cam.Jitter() != (mgl32.Vec2{}) {
		t.Fatalf("jitter kept after leaving TAA")
	}
}

func TestNewSystemFailsOnIncompleteFramebuffer(t *testing.T) {
	rec := graphicstest.NewRecorder(64, 64)
	rec.FailFramebuffers = true
	if _, err := NewSystem(rec, Shaders{}, nil, 64, 64); err == nil {
		t.Fatalf("expected error")
	}
	if len(rec.Live) != 0 {
		t.Fatalf("leaked %d resources", len(rec.Live))
	}
}

func TestResizeAndRelease(t *testing.T) {
	sys, rec := newTestSystem(t)
	pipe, err := postprocess.NewPipeline(rec, postprocess.Programs{
		Blit: &graphics.Shader{ID: 20, Name: "blit"},
	}, 640, 360)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	sys.AttachPostProcess(pipe)

	if err := sys.Resize(1280, 720); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if w, h := pipe.Size(); w != 1280 || h != 720 {
		t.Fatalf("pipeline size = %dx%d", w, h)
	}

	pipe.Release()
	sys.Release()
	if len(rec.Live) != 0 {
		t.Fatalf("leaked %d resources", len(rec.Live))
	}
}
