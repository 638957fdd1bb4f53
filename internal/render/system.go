// Package render turns the scene into draw calls: queue building and
// culling, shadow map passes, and the forward pass.
package render

import (
	"fmt"
	"time"

	"skirmish/internal/config"
	"skirmish/internal/geom"
	"skirmish/internal/graphics"
	"skirmish/internal/logger"
	"skirmish/internal/postprocess"
	"skirmish/internal/profiling"
	"skirmish/internal/scene"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

const slowFrameThreshold = 50 * time.Millisecond

// Shaders are the programs owned by the render system itself. Scene
// shaders come from the resource cache.
type Shaders struct {
	Depth      *graphics.Shader
	PointDepth *graphics.Shader
}

// CompileShaders builds the depth programs on the current context.
func CompileShaders() (Shaders, error) {
	depth, err := graphics.NewShaderFromSource("depth", graphics.DepthVert, "", graphics.DepthFrag)
	if err != nil {
		return Shaders{}, err
	}
	point, err := graphics.NewShaderFromSource("pointDepth", graphics.PointDepthVert, graphics.PointDepthGeom, graphics.PointDepthFrag)
	if err != nil {
		depth.Delete()
		return Shaders{}, err
	}
	return Shaders{Depth: depth, PointDepth: point}, nil
}

// Stats describes the last rendered frame.
type Stats struct {
	Rendered         int
	Culled           int
	DrawCalls        int
	InstancedBatches int
	ShaderBinds      int
	ShadowMaps       int
	ShadowDrawCalls  int
	Lights           int
}

// System renders a scene from its primary camera. All methods must be
// called on the thread owning the graphics context.
type System struct {
	dev      graphics.Device
	arena    *graphics.Arena
	settings *config.RenderSettings

	queue   Queue
	frustum geom.Frustum
	lights  lightSet
	shadows *ShadowRenderer
	forward *ForwardRenderer
	post    *postprocess.Pipeline

	width  int32
	height int32
	frame  uint64

	// cfg and lights were captured by RenderShadows for the current frame.
	shadowsReady bool
	cfg          config.Frame

	stats Stats
}

// NewSystem allocates the shadow pools and forward pass resources. A nil
// settings uses defaults.
func NewSystem(dev graphics.Device, shaders Shaders, settings *config.RenderSettings, width, height int32) (*System, error) {
	if settings == nil {
		settings = config.NewRenderSettings()
	}
	arena := graphics.NewArena(dev)
	s := &System{
		dev:      dev,
		arena:    arena,
		settings: settings,
		shadows:  NewShadowRenderer(dev, arena, shaders.Depth, shaders.PointDepth),
		forward:  NewForwardRenderer(dev, arena),
		width:    width,
		height:   height,
	}
	if err := s.shadows.Init(); err != nil {
		arena.Release()
		return nil, fmt.Errorf("could not initialize shadow renderer: %w", err)
	}
	if err := s.forward.Init(); err != nil {
		arena.Release()
		return nil, fmt.Errorf("could not initialize forward renderer: %w", err)
	}
	return s, nil
}

// AttachPostProcess routes the main pass through p. Render then applies
// TAA jitter, renders into p's scene buffer and resolves it.
func (s *System) AttachPostProcess(p *postprocess.Pipeline) { s.post = p }

// Settings returns the live settings.
func (s *System) Settings() *config.RenderSettings { return s.settings }

// SetShadowMode selects the shadow technique (0 off, 1 single light, 2 multi light).
func (s *System) SetShadowMode(mode int) { s.settings.SetShadowMode(mode) }

// SetShadowHalfExtent sets the half size of the directional shadow volume.
func (s *System) SetShadowHalfExtent(extent float32) { s.settings.SetShadowHalfExtent(extent) }

// SetFrustumCulling toggles camera frustum culling in the main pass.
func (s *System) SetFrustumCulling(enabled bool) { s.settings.SetFrustumCulling(enabled) }

// SetShadowFrustumCulling toggles culling against each light's volume.
func (s *System) SetShadowFrustumCulling(enabled bool) { s.settings.SetShadowFrustumCulling(enabled) }

// SetMaxDrawDistance sets the distance cull radius; 0 disables it.
func (s *System) SetMaxDrawDistance(distance float32) { s.settings.SetMaxDrawDistance(distance) }

// SetInstancing toggles instanced draws for non-animated meshes.
func (s *System) SetInstancing(enabled bool) { s.settings.SetInstancing(enabled) }

// SetAntiAliasing selects the anti-aliasing pass of the attached pipeline.
func (s *System) SetAntiAliasing(mode config.AntiAliasing) { s.settings.SetAntiAliasing(mode) }

// SetNoTexture toggles replacing every texture with plain white.
func (s *System) SetNoTexture(enabled bool) { s.settings.SetNoTexture(enabled) }

// SetPointShadowFar sets the far plane of point light shadow cubes.
func (s *System) SetPointShadowFar(far float32) { s.settings.SetPointShadowFar(far) }

// RenderedCount returns how many entities the last Render drew.
func (s *System) RenderedCount() int { return s.forward.RenderedCount() }

// Stats returns counters for the last frame.
func (s *System) Stats() Stats { return s.stats }

// Resize updates the viewport and the post-process buffers.
func (s *System) Resize(width, height int32) error {
	s.width, s.height = width, height
	s.dev.Viewport(width, height)
	if s.post != nil {
		if err := s.post.Resize(width, height); err != nil {
			return fmt.Errorf("could not resize post-process buffers: %w", err)
		}
	}
	return nil
}

// RenderShadows fills the shadow maps for this frame. It must run before
// Render in the same frame.
func (s *System) RenderShadows(sc *scene.Scene) {
	defer profiling.Track("render.shadows")()

	s.cfg = s.settings.Snapshot()
	s.lights.collect(sc)

	var origin mgl32.Vec3
	if v, ok := sc.PrimaryView(); ok {
		origin = v.Position
	}
	s.shadows.Render(sc, &s.lights, origin, s.cfg)
	s.shadowsReady = true
}

// Render draws the scene from its primary camera. Without a primary
// camera nothing is drawn.
func (s *System) Render(sc *scene.Scene) {
	defer s.endFrame()

	cfg := s.cfg
	bindings := s.shadows.Bindings()
	if !s.shadowsReady {
		cfg = s.settings.Snapshot()
		s.lights.collect(sc)
		bindings = Bindings{}
	}

	view, ok := sc.PrimaryView()
	if !ok {
		s.stats = Stats{}
		s.forward.rendered = 0
		return
	}

	cam := view.Camera
	viewProj := cam.UnjitteredProjection().Mul4(view.View)

	var jitter mgl32.Vec2
	if s.post != nil {
		s.post.SetMode(cfg.AntiAliasing)
		s.post.SetBlend(cfg.TAABlend)
		jitter = s.post.Jitter(s.frame)
		s.post.Begin()
	} else {
		s.dev.BindFramebuffer(nil)
		s.dev.Clear(true, true)
	}
	if jitter != (mgl32.Vec2{}) {
		cam.SetJitter(jitter, int(s.width), int(s.height))
	} else {
		cam.ClearJitter()
	}
	view.Projection = cam.Projection()

	stopQueue := profiling.Track("render.queue")
	opt := CullOptions{Origin: view.Position, MaxDistance: cfg.MaxDrawDistance}
	if cfg.FrustumCulling {
		s.frustum.Update(viewProj)
		opt.Frustum = &s.frustum
	}
	s.queue.Build(sc, opt)
	stopQueue()

	stopForward := profiling.Track("render.forward")
	s.forward.Render(&s.queue, &frameState{
		view:    view,
		lights:  &s.lights,
		shadows: bindings,
		cfg:     cfg,
	})
	stopForward()

	if s.post != nil {
		stopPost := profiling.Track("postprocess.resolve")
		s.post.Resolve(postprocess.Frame{ViewProj: viewProj, Jitter: jitter})
		stopPost()
	}

	fs := s.forward.stats
	s.stats = Stats{
		Rendered:         s.forward.RenderedCount(),
		Culled:           s.queue.Culled(),
		DrawCalls:        fs.DrawCalls,
		InstancedBatches: fs.InstancedBatches,
		ShaderBinds:      fs.ShaderBinds,
		ShadowMaps:       bindings.Len(),
		Lights:           len(s.lights.dir) + len(s.lights.point) + len(s.lights.spot),
	}
	if s.shadowsReady {
		s.stats.ShadowDrawCalls = s.shadows.drawCalls
	}
}

func (s *System) endFrame() {
	s.shadowsReady = false
	s.frame++
	if d := profiling.FrameElapsed(); d > slowFrameThreshold {
		logger.Log.Warn("slow frame",
			zap.Duration("elapsed", d),
			zap.String("top", profiling.TopN(3)),
			zap.Int("rendered", s.stats.Rendered))
	}
}

// Release frees the shadow pools and forward pass resources. The depth
// programs passed to NewSystem are not owned by the system.
func (s *System) Release() {
	s.arena.Release()
}
