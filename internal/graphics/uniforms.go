package graphics

import "strconv"

// LightUniforms holds the uniform names of one element of a light array.
type LightUniforms struct {
	Direction   string
	Position    string
	Color       string
	Intensity   string
	Constant    string
	Linear      string
	Quadratic   string
	InnerCutoff string
	OuterCutoff string
	ShadowIndex string
}

// ShadowUniforms holds the uniform names of one shadow map slot.
type ShadowUniforms struct {
	Sampler    string
	LightSpace string // directional/spot only
	Position   string // point only
}

// UniformTable is the set of indexed uniform names. It is built once when
// the package is initialized and never mutated afterwards.
type UniformTable struct {
	DirLights    [MaxDirectionalLights]LightUniforms
	PointLights  [MaxPointLights]LightUniforms
	SpotLights   [MaxSpotLights]LightUniforms
	DirShadows   [MaxDirectionalShadows]ShadowUniforms
	SpotShadows  [MaxSpotShadows]ShadowUniforms
	PointShadows [MaxPointShadows]ShadowUniforms
	CubeFaces    [6]string
}

// Uniforms is the process-wide uniform name table.
var Uniforms = buildUniformTable()

func buildUniformTable() *UniformTable {
	t := &UniformTable{}
	for i := range t.DirLights {
		t.DirLights[i] = lightUniforms("dirLights", i)
	}
	for i := range t.PointLights {
		t.PointLights[i] = lightUniforms("pointLights", i)
	}
	for i := range t.SpotLights {
		t.SpotLights[i] = lightUniforms("spotLights", i)
	}
	for i := range t.DirShadows {
		t.DirShadows[i] = ShadowUniforms{
			Sampler:    indexed("dirShadowMaps", i),
			LightSpace: indexed("dirLightSpace", i),
		}
	}
	for i := range t.SpotShadows {
		t.SpotShadows[i] = ShadowUniforms{
			Sampler:    indexed("spotShadowMaps", i),
			LightSpace: indexed("spotLightSpace", i),
		}
	}
	for i := range t.PointShadows {
		t.PointShadows[i] = ShadowUniforms{
			Sampler:  indexed("pointShadowMaps", i),
			Position: indexed("pointShadowPos", i),
		}
	}
	for i := range t.CubeFaces {
		t.CubeFaces[i] = indexed("shadowMatrices", i)
	}
	return t
}

func lightUniforms(array string, i int) LightUniforms {
	p := indexed(array, i) + "."
	return LightUniforms{
		Direction:   p + "direction",
		Position:    p + "position",
		Color:       p + "color",
		Intensity:   p + "intensity",
		Constant:    p + "constant",
		Linear:      p + "linear",
		Quadratic:   p + "quadratic",
		InnerCutoff: p + "innerCutoff",
		OuterCutoff: p + "outerCutoff",
		ShadowIndex: p + "shadowIndex",
	}
}

func indexed(name string, i int) string {
	return name + "[" + strconv.Itoa(i) + "]"
}
