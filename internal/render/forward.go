package render

import (
	"fmt"

	"skirmish/internal/assets"
	"skirmish/internal/config"
	"skirmish/internal/graphics"
	"skirmish/internal/scene"

	"github.com/go-gl/mathgl/mgl32"
)

// frameState is everything the forward pass reads besides the queue.
type frameState struct {
	view    scene.View
	lights  *lightSet
	shadows Bindings
	cfg     config.Frame
}

// ForwardRenderer walks a sorted queue, switching shader state only when
// the shader changes and batching consecutive non-animated draws of the
// same model into instanced calls.
type ForwardRenderer struct {
	dev      graphics.Device
	arena    *graphics.Arena
	white    graphics.Texture
	defaults scene.Material

	current       *graphics.Shader
	batch         []graphics.Instance
	batchModel    *assets.Model
	batchMaterial *scene.Material
	bones         []mgl32.Mat4

	rendered int
	stats    Stats
}

// NewForwardRenderer creates a forward pass. Init must be called before use.
func NewForwardRenderer(dev graphics.Device, arena *graphics.Arena) *ForwardRenderer {
	return &ForwardRenderer{
		dev:      dev,
		arena:    arena,
		defaults: scene.DefaultMaterial(),
		batch:    make([]graphics.Instance, 0, 256),
	}
}

// Init creates the 1x1 white texture used for untextured materials and the
// no-texture debug mode.
func (f *ForwardRenderer) Init() error {
	tex, _, err := f.arena.TextureFromPixels(1, 1, []byte{255, 255, 255, 255})
	if err != nil {
		return fmt.Errorf("could not create white texture: %w", err)
	}
	f.white = tex
	return nil
}

// RenderedCount returns the number of entities drawn by the last Render.
func (f *ForwardRenderer) RenderedCount() int { return f.rendered }

// Render draws every queued entry.
func (f *ForwardRenderer) Render(q *Queue, st *frameState) {
	f.current = nil
	f.batch = f.batch[:0]
	f.batchModel = nil
	f.batchMaterial = nil
	f.rendered = 0
	f.stats = Stats{}

	for i := range q.entries {
		e := &q.entries[i]
		sh := e.Renderable.Shader

		if sh != f.current {
			f.flush(st)
			f.bindShader(sh, st)
		}

		// Skinned meshes carry their own bone palette, so they never batch.
		if e.Animator != nil {
			f.flush(st)
			f.drawSingle(e, st)
			continue
		}

		if !st.cfg.Instancing {
			f.drawSingle(e, st)
			continue
		}

		if len(f.batch) > 0 && (e.Renderable.Model != f.batchModel || e.Material != f.batchMaterial) {
			f.flush(st)
		}
		f.batchModel = e.Renderable.Model
		f.batchMaterial = e.Material
		f.batch = append(f.batch, graphics.Instance{Model: e.World, Tint: e.Renderable.Tint})
	}
	f.flush(st)
}

func (f *ForwardRenderer) bindShader(sh *graphics.Shader, st *frameState) {
	f.current = sh
	f.dev.UseProgram(sh)
	f.stats.ShaderBinds++

	f.dev.SetMat4(sh, "view", st.view.View)
	f.dev.SetMat4(sh, "projection", st.view.Projection)
	f.dev.SetVec3(sh, "viewPos", st.view.Position)
	f.dev.SetInt(sh, "diffuseMap", graphics.UnitDiffuse)

	// Every sampler gets its own unit even when unused: a sampler2D and a
	// samplerCube left on the same unit make draws fail validation.
	names := graphics.Uniforms
	for i, u := range names.DirShadows {
		f.dev.SetInt(sh, u.Sampler, graphics.UnitDirShadow0+int32(i))
	}
	for i, u := range names.SpotShadows {
		f.dev.SetInt(sh, u.Sampler, graphics.UnitSpotShadow0+int32(i))
	}
	for i, u := range names.PointShadows {
		f.dev.SetInt(sh, u.Sampler, graphics.UnitPointShadow0+int32(i))
	}

	enabled := st.cfg.ShadowMode > config.ShadowsOff && st.shadows.Len() > 0
	f.dev.SetInt(sh, "shadowsEnabled", boolInt(enabled))
	if enabled {
		for i, m := range st.shadows.Dir {
			f.dev.BindTexture(graphics.UnitDirShadow0+int32(i), m.Texture)
			f.dev.SetMat4(sh, names.DirShadows[i].LightSpace, m.LightSpace)
		}
		for i, m := range st.shadows.Spot {
			f.dev.BindTexture(graphics.UnitSpotShadow0+int32(i), m.Texture)
			f.dev.SetMat4(sh, names.SpotShadows[i].LightSpace, m.LightSpace)
		}
		for i, m := range st.shadows.Point {
			f.dev.BindTexture(graphics.UnitPointShadow0+int32(i), m.Texture)
			f.dev.SetVec3(sh, names.PointShadows[i].Position, m.Position)
		}
		f.dev.SetFloat(sh, "pointShadowFar", st.cfg.PointShadowFar)
	}

	st.lights.upload(f.dev, sh)
}

func (f *ForwardRenderer) drawSingle(e *Entry, st *frameState) {
	sh := f.current
	f.dev.SetInt(sh, "isInstanced", 0)
	f.dev.SetMat4(sh, "model", e.World)
	f.dev.SetVec4(sh, "tint", e.Renderable.Tint)
	if e.Animator != nil {
		f.bones = capBones(f.bones, e.Animator.BoneMatrices())
		f.dev.SetInt(sh, "isSkinned", 1)
		f.dev.SetMat4Array(sh, "bones", f.bones)
	} else {
		f.dev.SetInt(sh, "isSkinned", 0)
	}
	f.uploadMaterial(e.Material, st)

	for _, m := range e.Renderable.Model.Meshes {
		f.dev.DrawMesh(m)
		f.stats.DrawCalls++
	}
	f.rendered++
}

// flush issues one instanced draw per mesh for the pending batch.
func (f *ForwardRenderer) flush(st *frameState) {
	if len(f.batch) == 0 {
		return
	}
	sh := f.current
	f.dev.SetInt(sh, "isInstanced", 1)
	f.dev.SetInt(sh, "isSkinned", 0)
	f.uploadMaterial(f.batchMaterial, st)

	for _, m := range f.batchModel.Meshes {
		f.dev.DrawMeshInstanced(m, f.batch)
		f.stats.DrawCalls++
	}
	f.stats.InstancedBatches++
	f.rendered += len(f.batch)
	f.batch = f.batch[:0]
	f.batchModel = nil
	f.batchMaterial = nil
}

func (f *ForwardRenderer) uploadMaterial(m *scene.Material, st *frameState) {
	if m == nil {
		m = &f.defaults
	}
	sh := f.current
	switch m.Kind {
	case scene.MaterialPBR:
		f.dev.SetInt(sh, "materialType", 1)
		f.dev.SetVec3(sh, "material.albedo", m.Albedo)
		f.dev.SetFloat(sh, "material.metallic", m.Metallic)
		f.dev.SetFloat(sh, "material.roughness", m.Roughness)
		f.dev.SetFloat(sh, "material.ao", m.AO)
	default:
		f.dev.SetInt(sh, "materialType", 0)
		f.dev.SetVec3(sh, "material.ambient", m.Ambient)
		f.dev.SetVec3(sh, "material.diffuse", m.Diffuse)
		f.dev.SetVec3(sh, "material.specular", m.Specular)
		f.dev.SetFloat(sh, "material.shininess", m.Shininess)
	}

	tex := f.white
	if !st.cfg.NoTexture && m.Texture.ID != 0 {
		tex = m.Texture
	}
	f.dev.BindTexture(graphics.UnitDiffuse, tex)
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
