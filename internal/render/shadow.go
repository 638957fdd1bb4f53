package render

import (
	"fmt"

	"skirmish/internal/config"
	"skirmish/internal/geom"
	"skirmish/internal/graphics"
	"skirmish/internal/logger"
	"skirmish/internal/scene"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// Shadow map parameters
const (
	DirShadowSize   = 2048
	SpotShadowSize  = 1024
	PointShadowSize = 1024

	dirShadowStandoff = 100.0
	shadowNear        = 0.1
	dirShadowFar      = 2 * dirShadowStandoff
	spotShadowFar     = 200.0
)

// ShadowMap is one populated shadow slot as seen by the forward pass.
type ShadowMap struct {
	Texture    graphics.Texture
	LightSpace mgl32.Mat4 // directional and spot
	Position   mgl32.Vec3 // point
	Far        float32    // point
}

// Bindings lists the shadow maps rendered this frame, indexed by the
// ShadowIndex stored on each light.
type Bindings struct {
	Dir   []ShadowMap
	Spot  []ShadowMap
	Point []ShadowMap
}

// Len returns the number of populated maps.
func (b Bindings) Len() int { return len(b.Dir) + len(b.Spot) + len(b.Point) }

type shadowSlot struct {
	fb  *graphics.Framebuffer
	tex graphics.Texture
}

// ShadowRenderer owns the fixed shadow map pools and fills them each frame.
type ShadowRenderer struct {
	dev        graphics.Device
	arena      *graphics.Arena
	depth      *graphics.Shader
	pointDepth *graphics.Shader

	dir   [graphics.MaxDirectionalShadows]shadowSlot
	spot  [graphics.MaxSpotShadows]shadowSlot
	point [graphics.MaxPointShadows]shadowSlot

	bindings Bindings
	queue    Queue
	frustum  geom.Frustum
	bones    []mgl32.Mat4

	// warned is set once the cap warning for a light type has been logged.
	warned [3]bool

	drawCalls int
}

// NewShadowRenderer creates a renderer drawing with the given depth
// programs. Pools are allocated by Init.
func NewShadowRenderer(dev graphics.Device, arena *graphics.Arena, depth, pointDepth *graphics.Shader) *ShadowRenderer {
	return &ShadowRenderer{dev: dev, arena: arena, depth: depth, pointDepth: pointDepth}
}

// Init allocates every shadow map and its framebuffer.
func (r *ShadowRenderer) Init() error {
	for i := range r.dir {
		tex, _, err := r.arena.Texture(DirShadowSize, DirShadowSize, graphics.FormatDepth24)
		if err != nil {
			return fmt.Errorf("could not create directional shadow map %d: %w", i, err)
		}
		fb, _, err := r.arena.Framebuffer(graphics.Texture{}, tex)
		if err != nil {
			return fmt.Errorf("could not create directional shadow framebuffer %d: %w", i, err)
		}
		r.dir[i] = shadowSlot{fb: fb, tex: tex}
	}
	for i := range r.spot {
		tex, _, err := r.arena.Texture(SpotShadowSize, SpotShadowSize, graphics.FormatDepth24)
		if err != nil {
			return fmt.Errorf("could not create spot shadow map %d: %w", i, err)
		}
		fb, _, err := r.arena.Framebuffer(graphics.Texture{}, tex)
		if err != nil {
			return fmt.Errorf("could not create spot shadow framebuffer %d: %w", i, err)
		}
		r.spot[i] = shadowSlot{fb: fb, tex: tex}
	}
	for i := range r.point {
		tex, _, err := r.arena.DepthCubemap(PointShadowSize)
		if err != nil {
			return fmt.Errorf("could not create point shadow cubemap %d: %w", i, err)
		}
		fb, _, err := r.arena.Framebuffer(graphics.Texture{}, tex)
		if err != nil {
			return fmt.Errorf("could not create point shadow framebuffer %d: %w", i, err)
		}
		r.point[i] = shadowSlot{fb: fb, tex: tex}
	}
	return nil
}

// Bindings returns the maps populated by the last Render.
func (r *ShadowRenderer) Bindings() Bindings { return r.bindings }

// pools returns every pool texture so samplers can always be bound.
func (r *ShadowRenderer) pools() (dir, spot, point []graphics.Texture) {
	for _, s := range r.dir {
		dir = append(dir, s.tex)
	}
	for _, s := range r.spot {
		spot = append(spot, s.tex)
	}
	for _, s := range r.point {
		point = append(point, s.tex)
	}
	return dir, spot, point
}

// Render fills shadow maps for the shadow-casting lights in ls and records
// the slot each light received. Distance culling uses cameraPos as origin
// even though the passes render from the light.
func (r *ShadowRenderer) Render(s *scene.Scene, ls *lightSet, cameraPos mgl32.Vec3, cfg config.Frame) {
	r.bindings.Dir = r.bindings.Dir[:0]
	r.bindings.Spot = r.bindings.Spot[:0]
	r.bindings.Point = r.bindings.Point[:0]
	r.drawCalls = 0
	ls.clearShadows()

	if cfg.ShadowMode == config.ShadowsOff || r.depth == nil {
		return
	}

	dirLimit := len(r.dir)
	if cfg.ShadowMode == config.ShadowsSingle {
		dirLimit = 1
	}
	r.assign(ls.dir, dirLimit, scene.LightDirectional, cfg.ShadowMode == config.ShadowsMulti)
	if cfg.ShadowMode == config.ShadowsMulti {
		r.assign(ls.spot, len(r.spot), scene.LightSpot, true)
		if r.pointDepth != nil {
			r.assign(ls.point, len(r.point), scene.LightPoint, true)
		}
	}

	for i := range ls.dir {
		l := &ls.dir[i]
		if l.ShadowIndex < 0 {
			continue
		}
		space := directionalLightSpace(l.Direction, cfg.ShadowHalfExtent)
		r.renderProjected(s, r.dir[l.ShadowIndex], space, cameraPos, cfg)
		r.bindings.Dir = append(r.bindings.Dir, ShadowMap{Texture: r.dir[l.ShadowIndex].tex, LightSpace: space})
	}
	for i := range ls.spot {
		l := &ls.spot[i]
		if l.ShadowIndex < 0 {
			continue
		}
		space := spotLightSpace(l.Position, l.Direction, l.Light.OuterCone, l.Light.Range)
		r.renderProjected(s, r.spot[l.ShadowIndex], space, cameraPos, cfg)
		r.bindings.Spot = append(r.bindings.Spot, ShadowMap{Texture: r.spot[l.ShadowIndex].tex, LightSpace: space})
	}
	for i := range ls.point {
		l := &ls.point[i]
		if l.ShadowIndex < 0 {
			continue
		}
		r.renderPoint(s, r.point[l.ShadowIndex], l.Position, cameraPos, cfg)
		r.bindings.Point = append(r.bindings.Point, ShadowMap{
			Texture:  r.point[l.ShadowIndex].tex,
			Position: l.Position,
			Far:      cfg.PointShadowFar,
		})
	}

	r.dev.BindFramebuffer(nil)
}

// assign hands out pool slots in light order. Lights past the limit keep
// ShadowIndex -1; exceeding the pool is logged once per light type.
func (r *ShadowRenderer) assign(lights []frameLight, limit int, kind scene.LightType, warn bool) {
	n := 0
	over := 0
	for i := range lights {
		if !lights[i].Light.CastShadow {
			continue
		}
		if n >= limit {
			over++
			continue
		}
		lights[i].ShadowIndex = n
		n++
	}
	if over > 0 && warn && !r.warned[kind] {
		r.warned[kind] = true
		logger.Log.Warn("shadow casting lights exceed pool, extra lights render unshadowed",
			zap.Stringer("type", kind),
			zap.Int("pool", limit),
			zap.Int("dropped", over))
	}
}

func (r *ShadowRenderer) renderProjected(s *scene.Scene, slot shadowSlot, space mgl32.Mat4, cameraPos mgl32.Vec3, cfg config.Frame) {
	opt := CullOptions{
		Origin:        cameraPos,
		MaxDistance:   cfg.ShadowDistance,
		ShadowCasters: true,
	}
	if cfg.ShadowFrustumCulling {
		r.frustum.Update(space)
		opt.Frustum = &r.frustum
	}
	r.queue.Build(s, opt)

	r.dev.BindFramebuffer(slot.fb)
	r.dev.Clear(false, true)
	r.dev.UseProgram(r.depth)
	r.dev.SetMat4(r.depth, "lightSpace", space)
	r.drawCasters(r.depth)
}

func (r *ShadowRenderer) renderPoint(s *scene.Scene, slot shadowSlot, pos, cameraPos mgl32.Vec3, cfg config.Frame) {
	opt := CullOptions{
		Origin:        cameraPos,
		MaxDistance:   cfg.ShadowDistance,
		ShadowCasters: true,
	}
	if cfg.ShadowFrustumCulling {
		opt.SphereCenter = pos
		opt.SphereRadius = cfg.PointShadowFar
	}
	r.queue.Build(s, opt)

	faces := pointFaceMatrices(pos, cfg.PointShadowFar)
	r.dev.BindFramebuffer(slot.fb)
	r.dev.Clear(false, true)
	r.dev.UseProgram(r.pointDepth)
	for i, m := range faces {
		r.dev.SetMat4(r.pointDepth, graphics.Uniforms.CubeFaces[i], m)
	}
	r.dev.SetVec3(r.pointDepth, "lightPos", pos)
	r.dev.SetFloat(r.pointDepth, "farPlane", cfg.PointShadowFar)
	r.drawCasters(r.pointDepth)
}

func (r *ShadowRenderer) drawCasters(sh *graphics.Shader) {
	for i := range r.queue.entries {
		e := &r.queue.entries[i]
		r.dev.SetMat4(sh, "model", e.World)
		if e.Animator != nil {
			r.bones = capBones(r.bones, e.Animator.BoneMatrices())
			r.dev.SetInt(sh, "isSkinned", 1)
			r.dev.SetMat4Array(sh, "bones", r.bones)
		} else {
			r.dev.SetInt(sh, "isSkinned", 0)
		}
		for _, m := range e.Renderable.Model.Meshes {
			r.dev.DrawMesh(m)
			r.drawCalls++
		}
	}
}

// capBones copies at most graphics.MaxBones matrices into dst.
func capBones(dst, src []mgl32.Mat4) []mgl32.Mat4 {
	n := min(len(src), graphics.MaxBones)
	return append(dst[:0], src[:n]...)
}

// directionalLightSpace looks at the origin from dirShadowStandoff units
// against the light direction.
func directionalLightSpace(dir mgl32.Vec3, halfExtent float32) mgl32.Mat4 {
	pos := dir.Normalize().Mul(-dirShadowStandoff)
	view := mgl32.LookAtV(pos, mgl32.Vec3{}, upFor(dir))
	proj := mgl32.Ortho(-halfExtent, halfExtent, -halfExtent, halfExtent, shadowNear, dirShadowFar)
	return proj.Mul4(view)
}

func spotLightSpace(pos, dir mgl32.Vec3, outerCone, rng float32) mgl32.Mat4 {
	far := float32(spotShadowFar)
	if rng > 0 {
		far = rng
	}
	fov := min(max(2*outerCone, 1), 179)
	view := mgl32.LookAtV(pos, pos.Add(dir), upFor(dir))
	proj := mgl32.Perspective(mgl32.DegToRad(fov), 1, shadowNear, far)
	return proj.Mul4(view)
}

// upFor picks an up vector that is not parallel to dir.
func upFor(dir mgl32.Vec3) mgl32.Vec3 {
	d := dir.Normalize()
	if abs32(d.Y()) > 0.99 {
		return mgl32.Vec3{0, 0, 1}
	}
	return mgl32.Vec3{0, 1, 0}
}

var cubeFaces = [6]struct{ target, up mgl32.Vec3 }{
	{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, -1, 0}},
	{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, -1, 0}},
	{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1}},
	{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{0, 0, -1}},
	{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, -1, 0}},
	{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, -1, 0}},
}

// pointFaceMatrices returns projection*view for the six cubemap faces in
// GL face order (+X, -X, +Y, -Y, +Z, -Z).
func pointFaceMatrices(pos mgl32.Vec3, far float32) [6]mgl32.Mat4 {
	proj := mgl32.Perspective(mgl32.DegToRad(90), 1, shadowNear, far)
	var out [6]mgl32.Mat4
	for i, f := range cubeFaces {
		out[i] = proj.Mul4(mgl32.LookAtV(pos, pos.Add(f.target), f.up))
	}
	return out
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
