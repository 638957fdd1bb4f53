package postprocess

import (
	"skirmish/internal/graphics"

	"github.com/go-gl/mathgl/mgl32"
)

// Effect is a full-screen pass run after anti-aliasing. Apply draws into
// the framebuffer the pipeline has bound, reading source.
type Effect interface {
	Name() string
	Enabled() bool
	Apply(dev graphics.Device, source graphics.Texture, inverseScreenSize mgl32.Vec2)
}

// ToneMap maps HDR color to display range with an ACES fit and gamma.
type ToneMap struct {
	Shader   *graphics.Shader
	Exposure float32
	Disabled bool
}

// NewToneMap compiles the tone-map program.
func NewToneMap(exposure float32) (*ToneMap, error) {
	sh, err := graphics.NewShaderFromSource("tonemap", graphics.FullscreenVert, "", graphics.TonemapFrag)
	if err != nil {
		return nil, err
	}
	return &ToneMap{Shader: sh, Exposure: exposure}, nil
}

// Name returns "tonemap".
func (t *ToneMap) Name() string { return "tonemap" }

// Enabled reports whether the pass has a program and is not disabled.
func (t *ToneMap) Enabled() bool { return !t.Disabled && t.Shader != nil }

// Apply maps the HDR source into display range with exposure scaling.
func (t *ToneMap) Apply(dev graphics.Device, source graphics.Texture, _ mgl32.Vec2) {
	dev.UseProgram(t.Shader)
	dev.BindTexture(0, source)
	dev.SetInt(t.Shader, "source", 0)
	dev.SetFloat(t.Shader, "exposure", t.Exposure)
	dev.DrawFullscreen()
}
