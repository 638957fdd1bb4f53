package graphics

import "testing"

func TestUniformTableNames(t *testing.T) {
	if got := Uniforms.PointLights[3].Quadratic; got != "pointLights[3].quadratic" {
		t.Fatalf("point light uniform: got %q", got)
	}
	if got := Uniforms.DirShadows[1].LightSpace; got != "dirLightSpace[1]" {
		t.Fatalf("dir shadow uniform: got %q", got)
	}
	if got := Uniforms.CubeFaces[5]; got != "shadowMatrices[5]" {
		t.Fatalf("cube face uniform: got %q", got)
	}
}

func TestTextureUnitsDoNotOverlap(t *testing.T) {
	if UnitDirShadow0 <= UnitDiffuse {
		t.Fatalf("dir shadow units overlap diffuse")
	}
	if UnitPointShadow0+MaxPointShadows > 16 {
		t.Fatalf("texture units exceed the guaranteed 16: %d", UnitPointShadow0+MaxPointShadows)
	}
}
