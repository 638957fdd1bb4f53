package graphics

import (
	"image"

	"github.com/go-gl/mathgl/mgl32"
)

// TextureTarget identifies how a texture is bound.
type TextureTarget int

const (
	Target2D TextureTarget = iota
	TargetCubeMap
)

// TextureFormat selects the internal storage of a texture.
type TextureFormat int

const (
	FormatRGBA8 TextureFormat = iota
	FormatRGBA16F
	FormatDepth24
	FormatDepth32F
)

// Texture is a GPU texture handle. The zero value is "no texture".
type Texture struct {
	ID     uint32
	Target TextureTarget
	Format TextureFormat
	Width  int32
	Height int32
}

// Framebuffer is a GPU framebuffer handle with its attachments. A nil
// *Framebuffer refers to the default (window) framebuffer.
type Framebuffer struct {
	ID     uint32
	Color  Texture
	Depth  Texture
	Width  int32
	Height int32
}

// Mesh is an uploaded vertex array. Vertex layout is fixed (see VertexStride).
type Mesh struct {
	VAO        uint32
	VBO        uint32
	EBO        uint32
	IndexCount int32
}

// Instance is the per-instance payload of an instanced draw.
type Instance struct {
	Model mgl32.Mat4
	Tint  mgl32.Vec4
}

// Device is the command surface of the rendering core. GLDevice issues
// the calls on the current OpenGL context; tests substitute a recorder.
// All methods must be called from the thread that owns the context.
type Device interface {
	UseProgram(s *Shader)
	SetInt(s *Shader, name string, v int32)
	SetFloat(s *Shader, name string, v float32)
	SetVec2(s *Shader, name string, v mgl32.Vec2)
	SetVec3(s *Shader, name string, v mgl32.Vec3)
	SetVec4(s *Shader, name string, v mgl32.Vec4)
	SetMat4(s *Shader, name string, m mgl32.Mat4)
	SetMat4Array(s *Shader, name string, ms []mgl32.Mat4)

	BindTexture(unit int32, tex Texture)
	DrawMesh(m *Mesh)
	DrawMeshInstanced(m *Mesh, instances []Instance)
	DrawFullscreen()

	BindFramebuffer(fb *Framebuffer)
	Viewport(width, height int32)
	Clear(color, depth bool)
	BlitColor(src, dst *Framebuffer)
	ReadPixels(fb *Framebuffer) *image.RGBA

	CreateTexture(width, height int32, format TextureFormat, pixels []byte) (Texture, error)
	CreateDepthCubemap(size int32) (Texture, error)
	CreateFramebuffer(color, depth Texture) (*Framebuffer, error)
	DeleteTexture(tex Texture)
	DeleteFramebuffer(fb *Framebuffer)
}
