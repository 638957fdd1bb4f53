// Package postprocess resolves the rendered frame through anti-aliasing
// and screen-space effects into the window framebuffer.
package postprocess

import (
	"errors"
	"fmt"

	"skirmish/internal/config"
	"skirmish/internal/graphics"

	"github.com/go-gl/mathgl/mgl32"
)

// Programs are the full-screen programs the pipeline draws with.
type Programs struct {
	Blit *graphics.Shader
	TAA  *graphics.Shader
	FXAA *graphics.Shader
}

// CompilePrograms builds the built-in programs on the current context.
func CompilePrograms() (Programs, error) {
	var p Programs
	var err error
	if p.Blit, err = graphics.NewShaderFromSource("blit", graphics.FullscreenVert, "", graphics.BlitFrag); err != nil {
		return Programs{}, err
	}
	if p.TAA, err = graphics.NewShaderFromSource("taa", graphics.FullscreenVert, "", graphics.TAAFrag); err != nil {
		return Programs{}, err
	}
	if p.FXAA, err = graphics.NewShaderFromSource("fxaa", graphics.FullscreenVert, "", graphics.FXAAFrag); err != nil {
		return Programs{}, err
	}
	return p, nil
}

// Frame carries the camera state of the frame being resolved.
type Frame struct {
	// ViewProj is the unjittered view-projection of the main pass.
	ViewProj mgl32.Mat4
	// Jitter is the pixel offset applied to the main pass projection.
	Jitter mgl32.Vec2
}

// Pipeline ping-pongs two color buffers and keeps a persistent TAA history
// buffer. The scene is rendered into buffer A between Begin and Resolve.
type Pipeline struct {
	dev   graphics.Device
	arena *graphics.Arena
	progs Programs

	width  int32
	height int32

	a       *graphics.Framebuffer
	b       *graphics.Framebuffer
	history *graphics.Framebuffer
	// final is the buffer the last Resolve blitted to the window.
	final *graphics.Framebuffer

	mode         config.AntiAliasing
	blend        float32
	historyValid bool
	prevViewProj mgl32.Mat4

	effects []Effect
}

var errNoBlit = errors.New("postprocess: blit program is required")

// NewPipeline allocates the buffers for a width x height viewport.
func NewPipeline(dev graphics.Device, progs Programs, width, height int32) (*Pipeline, error) {
	if progs.Blit == nil {
		return nil, errNoBlit
	}
	p := &Pipeline{
		dev:   dev,
		arena: graphics.NewArena(dev),
		progs: progs,
		blend: config.DefaultFrame().TAABlend,
	}
	if err := p.allocate(width, height); err != nil {
		p.arena.Release()
		return nil, err
	}
	return p, nil
}

func (p *Pipeline) allocate(width, height int32) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("postprocess: invalid viewport %dx%d", width, height)
	}
	p.width, p.height = width, height

	colorA, _, err := p.arena.Texture(width, height, graphics.FormatRGBA16F)
	if err != nil {
		return fmt.Errorf("could not create scene color buffer: %w", err)
	}
	depthA, _, err := p.arena.Texture(width, height, graphics.FormatDepth24)
	if err != nil {
		return fmt.Errorf("could not create scene depth buffer: %w", err)
	}
	if p.a, _, err = p.arena.Framebuffer(colorA, depthA); err != nil {
		return fmt.Errorf("could not create scene framebuffer: %w", err)
	}

	colorB, _, err := p.arena.Texture(width, height, graphics.FormatRGBA16F)
	if err != nil {
		return fmt.Errorf("could not create ping-pong color buffer: %w", err)
	}
	if p.b, _, err = p.arena.Framebuffer(colorB, graphics.Texture{}); err != nil {
		return fmt.Errorf("could not create ping-pong framebuffer: %w", err)
	}

	hist, _, err := p.arena.Texture(width, height, graphics.FormatRGBA16F)
	if err != nil {
		return fmt.Errorf("could not create history buffer: %w", err)
	}
	if p.history, _, err = p.arena.Framebuffer(hist, graphics.Texture{}); err != nil {
		return fmt.Errorf("could not create history framebuffer: %w", err)
	}
	p.historyValid = false
	p.final = nil
	return nil
}

// Resize reallocates every buffer. History is invalidated.
func (p *Pipeline) Resize(width, height int32) error {
	if width == p.width && height == p.height {
		return nil
	}
	p.arena.Release()
	return p.allocate(width, height)
}

// Size returns the viewport size.
func (p *Pipeline) Size() (int32, int32) { return p.width, p.height }

// SetMode selects the anti-aliasing pass. Entering TAA discards history,
// which is only ever touched while TAA is active.
func (p *Pipeline) SetMode(mode config.AntiAliasing) {
	if mode == config.AATAA && p.mode != config.AATAA {
		p.historyValid = false
	}
	p.mode = mode
}

// Mode returns the active anti-aliasing mode.
func (p *Pipeline) Mode() config.AntiAliasing { return p.mode }

// SetBlend sets the current-frame weight of the TAA resolve.
func (p *Pipeline) SetBlend(alpha float32) { p.blend = alpha }

// HistoryValid reports whether the history buffer holds a previous frame.
func (p *Pipeline) HistoryValid() bool { return p.historyValid }

// AddEffect appends an effect to the chain run after anti-aliasing.
func (p *Pipeline) AddEffect(e Effect) { p.effects = append(p.effects, e) }

// SceneTarget returns buffer A, which the main pass renders into.
func (p *Pipeline) SceneTarget() *graphics.Framebuffer { return p.a }

// Begin binds and clears buffer A.
func (p *Pipeline) Begin() {
	p.final = nil
	p.dev.BindFramebuffer(p.a)
	p.dev.Clear(true, true)
}

// Jitter returns the projection offset in pixels for frame. It is zero
// unless TAA is active. The same frame number must be passed to Resolve.
func (p *Pipeline) Jitter(frame uint64) mgl32.Vec2 {
	if p.mode != config.AATAA {
		return mgl32.Vec2{}
	}
	return JitterOffset(frame)
}

func (p *Pipeline) inverseScreenSize() mgl32.Vec2 {
	return mgl32.Vec2{1 / float32(p.width), 1 / float32(p.height)}
}

// Resolve runs the active anti-aliasing pass and the effect chain over
// buffer A and draws the result into the window framebuffer.
func (p *Pipeline) Resolve(f Frame) {
	src, dst := p.a, p.b
	inv := p.inverseScreenSize()

	switch p.mode {
	case config.AAFXAA:
		if sh := p.progs.FXAA; sh != nil {
			p.dev.BindFramebuffer(dst)
			p.dev.UseProgram(sh)
			p.dev.BindTexture(0, src.Color)
			p.dev.SetInt(sh, "source", 0)
			p.dev.SetVec2(sh, "inverseScreenSize", inv)
			p.dev.DrawFullscreen()
			src, dst = dst, src
		}
	case config.AATAA:
		if sh := p.progs.TAA; sh != nil {
			p.resolveTAA(sh, src, dst, f, inv)
			src, dst = dst, src
		}
	}

	for _, e := range p.effects {
		if !e.Enabled() {
			continue
		}
		p.dev.BindFramebuffer(dst)
		e.Apply(p.dev, src.Color, inv)
		src, dst = dst, src
	}

	p.final = src
	p.dev.BindFramebuffer(nil)
	p.dev.UseProgram(p.progs.Blit)
	p.dev.BindTexture(0, src.Color)
	p.dev.SetInt(p.progs.Blit, "source", 0)
	p.dev.DrawFullscreen()
}

func (p *Pipeline) resolveTAA(sh *graphics.Shader, src, dst *graphics.Framebuffer, f Frame, inv mgl32.Vec2) {
	p.dev.BindFramebuffer(dst)
	p.dev.UseProgram(sh)
	p.dev.BindTexture(0, src.Color)
	p.dev.BindTexture(1, p.history.Color)
	p.dev.BindTexture(2, src.Depth)
	p.dev.SetInt(sh, "currentColor", 0)
	p.dev.SetInt(sh, "historyColor", 1)
	p.dev.SetInt(sh, "depthTexture", 2)

	prev := p.prevViewProj
	if !p.historyValid {
		prev = f.ViewProj
	}
	p.dev.SetMat4(sh, "prevViewProj", prev)
	p.dev.SetMat4(sh, "invViewProj", f.ViewProj.Inv())
	p.dev.SetVec2(sh, "jitter", f.Jitter)
	p.dev.SetVec2(sh, "inverseScreenSize", inv)
	p.dev.SetFloat(sh, "blend", p.blend)
	p.dev.SetInt(sh, "historyValid", boolInt(p.historyValid))
	p.dev.DrawFullscreen()

	p.dev.BlitColor(dst, p.history)
	p.historyValid = true
	p.prevViewProj = f.ViewProj
}

// Release frees every buffer.
func (p *Pipeline) Release() {
	p.arena.Release()
	p.a, p.b, p.history, p.final = nil, nil, nil, nil
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
