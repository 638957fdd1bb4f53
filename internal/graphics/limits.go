package graphics

// Engine constants shared by the shaders and the renderer. The GLSL sources
// in shaders.go use the same values.
const (
	MaxDirectionalLights = 4
	MaxPointLights       = 8
	MaxSpotLights        = 8

	MaxDirectionalShadows = 2
	MaxPointShadows       = 4
	MaxSpotShadows        = 4

	MaxBones = 100
)

// Texture units
const (
	UnitDiffuse      int32 = 0
	UnitDirShadow0   int32 = 1 // MaxDirectionalShadows units
	UnitSpotShadow0  int32 = UnitDirShadow0 + MaxDirectionalShadows
	UnitPointShadow0 int32 = UnitSpotShadow0 + MaxSpotShadows
)
