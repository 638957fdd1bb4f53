// Package graphicstest provides a Device that records commands instead of
// issuing them, for tests that run without an OpenGL context.
package graphicstest

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"skirmish/internal/graphics"

	"github.com/go-gl/mathgl/mgl32"
)

// Op is a recorded command.
type Op struct {
	Kind      string // "use", "draw", "drawInstanced", "fullscreen", "bindFB", "bindTex", "clear", "blit", "read"
	Shader    string
	Mesh      *graphics.Mesh
	Instances int
	FB        *graphics.Framebuffer
	Unit      int32
	Texture   uint32
}

// Recorder implements graphics.Device.
type Recorder struct {
	Ops      []Op
	Uniforms map[string]map[string]any // shader name -> uniform -> last value
	Bound    *graphics.Framebuffer
	Live     map[uint32]bool // created and not yet deleted textures/framebuffers

	// FailFramebuffers makes CreateFramebuffer return an error.
	FailFramebuffers bool
	// Fill is the color ReadPixels returns.
	Fill color.RGBA

	current *graphics.Shader
	nextID  uint32
	w, h    int32
}

var _ graphics.Device = (*Recorder)(nil)

// NewRecorder creates a recorder with a width x height default framebuffer.
func NewRecorder(width, height int32) *Recorder {
	return &Recorder{
		Uniforms: make(map[string]map[string]any),
		Live:     make(map[uint32]bool),
		nextID:   1,
		w:        width,
		h:        height,
	}
}

// Reset clears recorded ops and uniforms but keeps created resources.
func (r *Recorder) Reset() {
	r.Ops = r.Ops[:0]
	clear(r.Uniforms)
	r.current = nil
}

// Count returns how many ops of kind were recorded.
func (r *Recorder) Count(kind string) int {
	n := 0
	for _, op := range r.Ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

// Uniform returns the last value set for name on the named shader.
func (r *Recorder) Uniform(shader, name string) (any, bool) {
	m, ok := r.Uniforms[shader]
	if !ok {
		return nil, false
	}
	v, ok := m[name]
	return v, ok
}

func (r *Recorder) set(s *graphics.Shader, name string, v any) {
	if s == nil {
		return
	}
	m, ok := r.Uniforms[s.Name]
	if !ok {
		m = make(map[string]any)
		r.Uniforms[s.Name] = m
	}
	m[name] = v
}

func (r *Recorder) shaderName() string {
	if r.current == nil {
		return ""
	}
	return r.current.Name
}

func (r *Recorder) UseProgram(s *graphics.Shader) {
	r.current = s
	r.Ops = append(r.Ops, Op{Kind: "use", Shader: s.Name})
}

func (r *Recorder) SetInt(s *graphics.Shader, name string, v int32)       { r.set(s, name, v) }
func (r *Recorder) SetFloat(s *graphics.Shader, name string, v float32)   { r.set(s, name, v) }
func (r *Recorder) SetVec2(s *graphics.Shader, name string, v mgl32.Vec2) { r.set(s, name, v) }
func (r *Recorder) SetVec3(s *graphics.Shader, name string, v mgl32.Vec3) { r.set(s, name, v) }
func (r *Recorder) SetVec4(s *graphics.Shader, name string, v mgl32.Vec4) { r.set(s, name, v) }
func (r *Recorder) SetMat4(s *graphics.Shader, name string, m mgl32.Mat4) { r.set(s, name, m) }

func (r *Recorder) SetMat4Array(s *graphics.Shader, name string, ms []mgl32.Mat4) {
	r.set(s, name, append([]mgl32.Mat4(nil), ms...))
}

func (r *Recorder) BindTexture(unit int32, tex graphics.Texture) {
	r.Ops = append(r.Ops, Op{Kind: "bindTex", Shader: r.shaderName(), Unit: unit, Texture: tex.ID})
}

func (r *Recorder) DrawMesh(m *graphics.Mesh) {
	r.Ops = append(r.Ops, Op{Kind: "draw", Shader: r.shaderName(), Mesh: m, Instances: 1, FB: r.Bound})
}

func (r *Recorder) DrawMeshInstanced(m *graphics.Mesh, instances []graphics.Instance) {
	r.Ops = append(r.Ops, Op{Kind: "drawInstanced", Shader: r.shaderName(), Mesh: m, Instances: len(instances), FB: r.Bound})
}

func (r *Recorder) DrawFullscreen() {
	r.Ops = append(r.Ops, Op{Kind: "fullscreen", Shader: r.shaderName(), FB: r.Bound})
}

func (r *Recorder) BindFramebuffer(fb *graphics.Framebuffer) {
	r.Bound = fb
	r.Ops = append(r.Ops, Op{Kind: "bindFB", FB: fb})
}

func (r *Recorder) Viewport(width, height int32) {
	r.w, r.h = width, height
}

func (r *Recorder) Clear(color, depth bool) {
	r.Ops = append(r.Ops, Op{Kind: "clear", FB: r.Bound})
}

func (r *Recorder) BlitColor(src, dst *graphics.Framebuffer) {
	r.Ops = append(r.Ops, Op{Kind: "blit", FB: dst})
}

func (r *Recorder) ReadPixels(fb *graphics.Framebuffer) *image.RGBA {
	r.Ops = append(r.Ops, Op{Kind: "read", FB: fb})
	w, h := r.w, r.h
	if fb != nil {
		w, h = fb.Width, fb.Height
	}
	img := image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = r.Fill.R, r.Fill.G, r.Fill.B, r.Fill.A
	}
	return img
}

func (r *Recorder) CreateTexture(width, height int32, format graphics.TextureFormat, pixels []byte) (graphics.Texture, error) {
	if width <= 0 || height <= 0 {
		return graphics.Texture{}, fmt.Errorf("graphicstest: invalid texture size %dx%d", width, height)
	}
	id := r.alloc()
	return graphics.Texture{ID: id, Target: graphics.Target2D, Format: format, Width: width, Height: height}, nil
}

func (r *Recorder) CreateDepthCubemap(size int32) (graphics.Texture, error) {
	id := r.alloc()
	return graphics.Texture{ID: id, Target: graphics.TargetCubeMap, Format: graphics.FormatDepth24, Width: size, Height: size}, nil
}

func (r *Recorder) CreateFramebuffer(color, depth graphics.Texture) (*graphics.Framebuffer, error) {
	if r.FailFramebuffers {
		return nil, errors.New("graphicstest: framebuffer incomplete")
	}
	fb := &graphics.Framebuffer{ID: r.alloc(), Color: color, Depth: depth}
	if color.ID != 0 {
		fb.Width, fb.Height = color.Width, color.Height
	} else {
		fb.Width, fb.Height = depth.Width, depth.Height
	}
	return fb, nil
}

func (r *Recorder) DeleteTexture(tex graphics.Texture) {
	delete(r.Live, tex.ID)
}

func (r *Recorder) DeleteFramebuffer(fb *graphics.Framebuffer) {
	if fb != nil {
		delete(r.Live, fb.ID)
	}
}

func (r *Recorder) alloc() uint32 {
	id := r.nextID
	r.nextID++
	r.Live[id] = true
	return id
}
