package config

import "sync"

// AntiAliasing selects the post-process anti-aliasing pass. Modes are
// mutually exclusive.
type AntiAliasing int

const (
	AANone AntiAliasing = iota
	AAFXAA
	AATAA
)

func (a AntiAliasing) String() string {
	switch a {
	case AAFXAA:
		return "fxaa"
	case AATAA:
		return "taa"
	default:
		return "none"
	}
}

// Shadow modes
const (
	ShadowsOff    = 0
	ShadowsSingle = 1
	ShadowsMulti  = 2
)

// Frame is a consistent copy of the render settings, taken once at the
// start of a frame so every pass of that frame sees the same values.
type Frame struct {
	ShadowMode           int
	ShadowHalfExtent     float32
	PointShadowFar       float32
	ShadowDistance       float32 // <= 0 disables shadow distance culling
	FrustumCulling       bool
	ShadowFrustumCulling bool
	MaxDrawDistance      float32 // <= 0 disables distance culling
	Instancing           bool
	AntiAliasing         AntiAliasing
	NoTexture            bool
	TAABlend             float32 // weight of the current frame in the TAA resolve
}

// RenderSettings holds render configuration. Setters take effect on the
// next frame.
type RenderSettings struct {
	mu sync.RWMutex
	v  Frame
}

// DefaultFrame returns the engine defaults.
func DefaultFrame() Frame {
	return Frame{
		ShadowMode:           ShadowsMulti,
		ShadowHalfExtent:     40.0,
		PointShadowFar:       25.0,
		ShadowDistance:       120.0,
		FrustumCulling:       true,
		ShadowFrustumCulling: true,
		MaxDrawDistance:      250.0,
		Instancing:           true,
		AntiAliasing:         AANone,
		TAABlend:             0.1,
	}
}

// NewRenderSettings creates settings initialized to DefaultFrame.
func NewRenderSettings() *RenderSettings {
	return &RenderSettings{v: DefaultFrame()}
}

// Snapshot returns the current values.
func (s *RenderSettings) Snapshot() Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v
}

// SetShadowMode sets the shadow mode (0=off, 1=single light, 2=multi light).
func (s *RenderSettings) SetShadowMode(mode int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Clamp to known modes
	if mode < ShadowsOff {
		mode = ShadowsOff
	}
	if mode > ShadowsMulti {
		mode = ShadowsMulti
	}
	s.v.ShadowMode = mode
}

// SetShadowHalfExtent sets the directional shadow orthographic half-extent in world units.
func (s *RenderSettings) SetShadowHalfExtent(extent float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if extent < 1 {
		extent = 1
	}
	s.v.ShadowHalfExtent = extent
}

// SetPointShadowFar sets the far plane of point light shadow cubemaps.
func (s *RenderSettings) SetPointShadowFar(far float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if far < 1 {
		far = 1
	}
	s.v.PointShadowFar = far
}

// SetShadowDistance sets the maximum caster distance from the camera for shadow passes.
func (s *RenderSettings) SetShadowDistance(distance float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v.ShadowDistance = distance
}

// SetFrustumCulling toggles camera frustum culling.
func (s *RenderSettings) SetFrustumCulling(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v.FrustumCulling = enabled
}

// SetShadowFrustumCulling toggles light frustum culling in shadow passes.
func (s *RenderSettings) SetShadowFrustumCulling(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v.ShadowFrustumCulling = enabled
}

// SetMaxDrawDistance sets the distance culling threshold. Values <= 0 disable it.
func (s *RenderSettings) SetMaxDrawDistance(distance float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v.MaxDrawDistance = distance
}

// SetInstancing toggles instanced draws for non-animated meshes.
func (s *RenderSettings) SetInstancing(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v.Instancing = enabled
}

// SetAntiAliasing selects the anti-aliasing mode.
func (s *RenderSettings) SetAntiAliasing(mode AntiAliasing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if mode < AANone || mode > AATAA {
		mode = AANone
	}
	s.v.AntiAliasing = mode
}

// SetNoTexture toggles the debug mode that replaces every texture with plain white.
func (s *RenderSettings) SetNoTexture(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v.NoTexture = enabled
}

// SetTAABlend sets the current-frame weight used by the TAA resolve.
func (s *RenderSettings) SetTAABlend(alpha float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Clamp to a range that still converges
	if alpha < 0.01 {
		alpha = 0.01
	}
	if alpha > 1 {
		alpha = 1
	}
	s.v.TAABlend = alpha
}
