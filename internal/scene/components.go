package scene

import (
	"skirmish/internal/assets"
	"skirmish/internal/graphics"

	"github.com/go-gl/mathgl/mgl32"
)

// Renderable references borrowed assets. Either pointer may be nil; such
// entities are skipped by the renderer.
type Renderable struct {
	Model       *assets.Model
	Shader      *graphics.Shader
	Tint        mgl32.Vec4
	CastsShadow bool
	// Visible is cleared by gameplay fog-of-war.
	Visible bool
}

// NewRenderable resolves model and shader by name. Missing assets leave
// the corresponding pointer nil.
func NewRenderable(res assets.Resources, model, shader string) *Renderable {
	return &Renderable{
		Model:       res.GetModel(model),
		Shader:      res.GetShader(shader),
		Tint:        mgl32.Vec4{1, 1, 1, 1},
		CastsShadow: true,
		Visible:     true,
	}
}

// MaterialKind selects the uniform set a material maps to.
type MaterialKind int

const (
	MaterialPhong MaterialKind = iota
	MaterialPBR
)

// Material describes surface parameters. Only the fields of Kind are used.
type Material struct {
	Kind MaterialKind

	// Phong
	Ambient   mgl32.Vec3
	Diffuse   mgl32.Vec3
	Specular  mgl32.Vec3
	Shininess float32

	// PBR
	Albedo    mgl32.Vec3
	Metallic  float32
	Roughness float32
	AO        float32

	// Texture is the diffuse/albedo map; zero means white.
	Texture graphics.Texture
}

// DefaultMaterial is applied to renderables without a material component.
func DefaultMaterial() Material {
	return Material{
		Kind:      MaterialPhong,
		Ambient:   mgl32.Vec3{0.15, 0.15, 0.15},
		Diffuse:   mgl32.Vec3{0.8, 0.8, 0.8},
		Specular:  mgl32.Vec3{0.2, 0.2, 0.2},
		Shininess: 32,
	}
}

// LightType identifies the kind of light source.
type LightType int

const (
	LightDirectional LightType = iota
	LightPoint
	LightSpot
)

func (t LightType) String() string {
	switch t {
	case LightPoint:
		return "point"
	case LightSpot:
		return "spot"
	default:
		return "directional"
	}
}

// Light is a light source. The position comes from the entity's world
// transform; Direction is rotated by it.
type Light struct {
	Type       LightType
	Color      mgl32.Vec3
	Intensity  float32
	Active     bool
	CastShadow bool

	// Direction is used by directional and spot lights.
	Direction mgl32.Vec3

	// Falloff for point and spot lights.
	Constant  float32
	Linear    float32
	Quadratic float32
	Range     float32

	// Cone half-angles in degrees, spot only.
	InnerCone float32
	OuterCone float32
}

// NewDirectionalLight creates an active, shadow-casting directional light.
func NewDirectionalLight(direction, color mgl32.Vec3, intensity float32) *Light {
	return &Light{
		Type:       LightDirectional,
		Color:      color,
		Intensity:  intensity,
		Active:     true,
		CastShadow: true,
		Direction:  direction.Normalize(),
	}
}

// NewPointLight creates a point light whose falloff reaches ~0 at rng.
func NewPointLight(color mgl32.Vec3, intensity, rng float32) *Light {
	l := &Light{
		Type:       LightPoint,
		Color:      color,
		Intensity:  intensity,
		Active:     true,
		CastShadow: true,
	}
	l.SetRange(rng)
	return l
}

// NewSpotLight creates a spot light with the given cone half-angles in degrees.
func NewSpotLight(direction, color mgl32.Vec3, intensity, inner, outer, rng float32) *Light {
	l := &Light{
		Type:       LightSpot,
		Color:      color,
		Intensity:  intensity,
		Active:     true,
		CastShadow: true,
		Direction:  direction.Normalize(),
		InnerCone:  inner,
		OuterCone:  outer,
	}
	l.SetRange(rng)
	return l
}

// SetRange sets Range and derives the attenuation terms from it.
func (l *Light) SetRange(rng float32) {
	if rng <= 0 {
		rng = 1
	}
	l.Range = rng
	l.Constant = 1
	l.Linear = 4.5 / rng
	l.Quadratic = 75 / (rng * rng)
}
