package graphics

import (
	"errors"
	"fmt"
	"image"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// Vertex layout: position(3) normal(3) uv(2) joints(4) weights(4)
const (
	VertexFloats = 16
	VertexStride = VertexFloats * 4

	attribPosition = 0
	attribNormal   = 1
	attribUV       = 2
	attribJoints   = 3
	attribWeights  = 4
	attribInstance = 5 // mat4 uses 5..8
	attribTint     = 9

	instanceFloats = 16 + 4
)

// ErrNoContext is returned when gl.Init fails.
var ErrNoContext = errors.New("graphics: no current OpenGL context")

// GLDevice implements Device on an OpenGL 4.1 core context.
type GLDevice struct {
	locations   map[uint32]map[string]int32
	current     uint32
	instanceVBO uint32
	instanceBuf []float32
	quadVAO     uint32
	viewW       int32
	viewH       int32
}

var _ Device = (*GLDevice)(nil)

// NewGLDevice initializes the GL bindings for the current context and
// configures the default pipeline state.
func NewGLDevice(width, height int32) (*GLDevice, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoContext, err)
	}

	gl.Enable(gl.DEPTH_TEST)
	// Meshes use CCW front faces
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.FrontFace(gl.CCW)

	d := &GLDevice{
		locations: make(map[uint32]map[string]int32),
		viewW:     width,
		viewH:     height,
	}
	gl.GenBuffers(1, &d.instanceVBO)
	gl.GenVertexArrays(1, &d.quadVAO)
	return d, nil
}

// Release frees device-owned objects.
func (d *GLDevice) Release() {
	if d.instanceVBO != 0 {
		gl.DeleteBuffers(1, &d.instanceVBO)
	}
	if d.quadVAO != 0 {
		gl.DeleteVertexArrays(1, &d.quadVAO)
	}
}

func (d *GLDevice) location(s *Shader, name string) int32 {
	m, ok := d.locations[s.ID]
	if !ok {
		m = make(map[string]int32)
		d.locations[s.ID] = m
	}
	loc, ok := m[name]
	if !ok {
		loc = gl.GetUniformLocation(s.ID, gl.Str(name+"\x00"))
		m[name] = loc
	}
	return loc
}

func (d *GLDevice) UseProgram(s *Shader) {
	if d.current == s.ID {
		return
	}
	gl.UseProgram(s.ID)
	d.current = s.ID
}

func (d *GLDevice) SetInt(s *Shader, name string, v int32) {
	gl.Uniform1i(d.location(s, name), v)
}

func (d *GLDevice) SetFloat(s *Shader, name string, v float32) {
	gl.Uniform1f(d.location(s, name), v)
}

func (d *GLDevice) SetVec2(s *Shader, name string, v mgl32.Vec2) {
	gl.Uniform2f(d.location(s, name), v[0], v[1])
}

func (d *GLDevice) SetVec3(s *Shader, name string, v mgl32.Vec3) {
	gl.Uniform3f(d.location(s, name), v[0], v[1], v[2])
}

func (d *GLDevice) SetVec4(s *Shader, name string, v mgl32.Vec4) {
	gl.Uniform4f(d.location(s, name), v[0], v[1], v[2], v[3])
}

func (d *GLDevice) SetMat4(s *Shader, name string, m mgl32.Mat4) {
	gl.UniformMatrix4fv(d.location(s, name), 1, false, &m[0])
}

func (d *GLDevice) SetMat4Array(s *Shader, name string, ms []mgl32.Mat4) {
	if len(ms) == 0 {
		return
	}
	gl.UniformMatrix4fv(d.location(s, name+"[0]"), int32(len(ms)), false, &ms[0][0])
}

func (d *GLDevice) BindTexture(unit int32, tex Texture) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	if tex.Target == TargetCubeMap {
		gl.BindTexture(gl.TEXTURE_CUBE_MAP, tex.ID)
		return
	}
	gl.BindTexture(gl.TEXTURE_2D, tex.ID)
}

func (d *GLDevice) DrawMesh(m *Mesh) {
	gl.BindVertexArray(m.VAO)
	gl.DrawElements(gl.TRIANGLES, m.IndexCount, gl.UNSIGNED_INT, nil)
}

func (d *GLDevice) DrawMeshInstanced(m *Mesh, instances []Instance) {
	if len(instances) == 0 {
		return
	}
	d.instanceBuf = d.instanceBuf[:0]
	for _, in := range instances {
		d.instanceBuf = append(d.instanceBuf, in.Model[:]...)
		d.instanceBuf = append(d.instanceBuf, in.Tint[:]...)
	}
	gl.BindVertexArray(m.VAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, d.instanceVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(d.instanceBuf)*4, gl.Ptr(d.instanceBuf), gl.STREAM_DRAW)
	gl.DrawElementsInstanced(gl.TRIANGLES, m.IndexCount, gl.UNSIGNED_INT, nil, int32(len(instances)))
}

// DrawFullscreen draws a single triangle covering the viewport. The vertex
// shader derives positions from gl_VertexID.
func (d *GLDevice) DrawFullscreen() {
	gl.Disable(gl.DEPTH_TEST)
	gl.BindVertexArray(d.quadVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.Enable(gl.DEPTH_TEST)
}

func (d *GLDevice) BindFramebuffer(fb *Framebuffer) {
	if fb == nil {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		gl.Viewport(0, 0, d.viewW, d.viewH)
		return
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.ID)
	gl.Viewport(0, 0, fb.Width, fb.Height)
}

// Viewport sets the default framebuffer size used when binding it.
func (d *GLDevice) Viewport(width, height int32) {
	d.viewW, d.viewH = width, height
	gl.Viewport(0, 0, width, height)
}

func (d *GLDevice) Clear(color, depth bool) {
	var mask uint32
	if color {
		gl.ClearColor(0.05, 0.06, 0.08, 1.0)
		mask |= gl.COLOR_BUFFER_BIT
	}
	if depth {
		mask |= gl.DEPTH_BUFFER_BIT
	}
	if mask != 0 {
		gl.Clear(mask)
	}
}

func (d *GLDevice) BlitColor(src, dst *Framebuffer) {
	var srcID, dstID uint32
	sw, sh := d.viewW, d.viewH
	dw, dh := d.viewW, d.viewH
	if src != nil {
		srcID, sw, sh = src.ID, src.Width, src.Height
	}
	if dst != nil {
		dstID, dw, dh = dst.ID, dst.Width, dst.Height
	}
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, srcID)
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, dstID)
	gl.BlitFramebuffer(0, 0, sw, sh, 0, 0, dw, dh, gl.COLOR_BUFFER_BIT, gl.LINEAR)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

// ReadPixels reads the color attachment of fb (or the window) into an
// image with the top row first.
func (d *GLDevice) ReadPixels(fb *Framebuffer) *image.RGBA {
	w, h := d.viewW, d.viewH
	var id uint32
	if fb != nil {
		id, w, h = fb.ID, fb.Width, fb.Height
	}
	img := image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, id)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, w, h, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)

	// GL rows start at the bottom
	stride := img.Stride
	row := make([]byte, stride)
	for y := 0; y < int(h)/2; y++ {
		top := img.Pix[y*stride : (y+1)*stride]
		bottom := img.Pix[(int(h)-1-y)*stride : (int(h)-y)*stride]
		copy(row, top)
		copy(top, bottom)
		copy(bottom, row)
	}
	return img
}

func glFormat(f TextureFormat) (internal int32, format, xtype uint32) {
	switch f {
	case FormatRGBA16F:
		return gl.RGBA16F, gl.RGBA, gl.FLOAT
	case FormatDepth24:
		return gl.DEPTH_COMPONENT24, gl.DEPTH_COMPONENT, gl.FLOAT
	case FormatDepth32F:
		return gl.DEPTH_COMPONENT32F, gl.DEPTH_COMPONENT, gl.FLOAT
	default:
		return gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE
	}
}

func isDepth(f TextureFormat) bool {
	return f == FormatDepth24 || f == FormatDepth32F
}

func (d *GLDevice) CreateTexture(width, height int32, format TextureFormat, pixels []byte) (Texture, error) {
	if width <= 0 || height <= 0 {
		return Texture{}, fmt.Errorf("graphics: invalid texture size %dx%d", width, height)
	}
	internal, f, xtype := glFormat(format)

	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)

	var ptr = gl.Ptr(nil)
	if len(pixels) > 0 {
		ptr = gl.Ptr(pixels)
	}
	gl.TexImage2D(gl.TEXTURE_2D, 0, internal, width, height, 0, f, xtype, ptr)

	if isDepth(format) {
		// Outside the shadow map counts as lit
		border := []float32{1, 1, 1, 1}
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_BORDER)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_BORDER)
		gl.TexParameterfv(gl.TEXTURE_2D, gl.TEXTURE_BORDER_COLOR, &border[0])
	} else {
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)

	return Texture{ID: id, Target: Target2D, Format: format, Width: width, Height: height}, nil
}

func (d *GLDevice) CreateDepthCubemap(size int32) (Texture, error) {
	if size <= 0 {
		return Texture{}, fmt.Errorf("graphics: invalid cubemap size %d", size)
	}
	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, id)
	for face := uint32(0); face < 6; face++ {
		gl.TexImage2D(gl.TEXTURE_CUBE_MAP_POSITIVE_X+face, 0, gl.DEPTH_COMPONENT24, size, size, 0, gl.DEPTH_COMPONENT, gl.FLOAT, nil)
	}
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_R, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, 0)

	return Texture{ID: id, Target: TargetCubeMap, Format: FormatDepth24, Width: size, Height: size}, nil
}

func (d *GLDevice) CreateFramebuffer(color, depth Texture) (*Framebuffer, error) {
	fb := &Framebuffer{Color: color, Depth: depth}
	switch {
	case color.ID != 0:
		fb.Width, fb.Height = color.Width, color.Height
	case depth.ID != 0:
		fb.Width, fb.Height = depth.Width, depth.Height
	default:
		return nil, errors.New("graphics: framebuffer needs at least one attachment")
	}

	gl.GenFramebuffers(1, &fb.ID)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.ID)
	if color.ID != 0 {
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, color.ID, 0)
	} else {
		gl.DrawBuffer(gl.NONE)
		gl.ReadBuffer(gl.NONE)
	}
	if depth.ID != 0 {
		if depth.Target == TargetCubeMap {
			// Layered attachment, faces selected by gl_Layer in the geometry shader
			gl.FramebufferTexture(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, depth.ID, 0)
		} else {
			gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, depth.ID, 0)
		}
	}

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		gl.DeleteFramebuffers(1, &fb.ID)
		return nil, fmt.Errorf("graphics: framebuffer incomplete: 0x%x", status)
	}
	return fb, nil
}

func (d *GLDevice) DeleteTexture(tex Texture) {
	if tex.ID != 0 {
		gl.DeleteTextures(1, &tex.ID)
	}
}

func (d *GLDevice) DeleteFramebuffer(fb *Framebuffer) {
	if fb != nil && fb.ID != 0 {
		gl.DeleteFramebuffers(1, &fb.ID)
	}
}

// UploadMesh creates a VAO from interleaved vertices (VertexFloats per
// vertex) and triangle indices. The device instance buffer is bound to the
// per-instance attributes so any mesh can be drawn instanced.
func (d *GLDevice) UploadMesh(vertices []float32, indices []uint32) (*Mesh, error) {
	if len(vertices) == 0 || len(vertices)%VertexFloats != 0 {
		return nil, fmt.Errorf("graphics: vertex data length %d is not a multiple of %d", len(vertices), VertexFloats)
	}
	if len(indices) == 0 {
		return nil, errors.New("graphics: mesh has no indices")
	}

	m := &Mesh{IndexCount: int32(len(indices))}
	gl.GenVertexArrays(1, &m.VAO)
	gl.BindVertexArray(m.VAO)

	gl.GenBuffers(1, &m.VBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.VBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)

	gl.GenBuffers(1, &m.EBO)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.EBO)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)

	attrs := []struct {
		loc    uint32
		size   int32
		offset int
	}{
		{attribPosition, 3, 0},
		{attribNormal, 3, 3 * 4},
		{attribUV, 2, 6 * 4},
		{attribJoints, 4, 8 * 4},
		{attribWeights, 4, 12 * 4},
	}
	for _, a := range attrs {
		gl.EnableVertexAttribArray(a.loc)
		gl.VertexAttribPointerWithOffset(a.loc, a.size, gl.FLOAT, false, VertexStride, uintptr(a.offset))
	}

	// Instance buffer: mat4 model + vec4 tint
	gl.BindBuffer(gl.ARRAY_BUFFER, d.instanceVBO)
	instStride := int32(instanceFloats * 4)
	for col := uint32(0); col < 4; col++ {
		loc := attribInstance + col
		gl.EnableVertexAttribArray(loc)
		gl.VertexAttribPointerWithOffset(loc, 4, gl.FLOAT, false, instStride, uintptr(col*16))
		gl.VertexAttribDivisor(loc, 1)
	}
	gl.EnableVertexAttribArray(attribTint)
	gl.VertexAttribPointerWithOffset(attribTint, 4, gl.FLOAT, false, instStride, 64)
	gl.VertexAttribDivisor(attribTint, 1)

	gl.BindVertexArray(0)
	return m, nil
}

// DeleteMesh releases a mesh created by UploadMesh.
func (d *GLDevice) DeleteMesh(m *Mesh) {
	if m == nil {
		return
	}
	gl.DeleteVertexArrays(1, &m.VAO)
	gl.DeleteBuffers(1, &m.VBO)
	gl.DeleteBuffers(1, &m.EBO)
}
