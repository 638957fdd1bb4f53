package graphics_test

import (
	"testing"

	"skirmish/internal/graphics"
	"skirmish/internal/graphics/graphicstest"
)

func TestArenaReleasesEverything(t *testing.T) {
	dev := graphicstest.NewRecorder(640, 480)
	a := graphics.NewArena(dev)

	color, _, err := a.Texture(64, 64, graphics.FormatRGBA8)
	if err != nil {
		t.Fatalf("texture: %v", err)
	}
	depth, _, err := a.Texture(64, 64, graphics.FormatDepth24)
	if err != nil {
		t.Fatalf("depth: %v", err)
	}
	if _, _, err := a.Framebuffer(color, depth); err != nil {
		t.Fatalf("framebuffer: %v", err)
	}
	if _, _, err := a.DepthCubemap(128); err != nil {
		t.Fatalf("cubemap: %v", err)
	}

	if a.Len() != 4 || len(dev.Live) != 4 {
		t.Fatalf("live resources: arena=%d device=%d, want 4", a.Len(), len(dev.Live))
	}

	a.Release()
	if len(dev.Live) != 0 {
		t.Fatalf("resources leaked after Release: %v", dev.Live)
	}
}

func TestArenaFreeSingle(t *testing.T) {
	dev := graphicstest.NewRecorder(640, 480)
	a := graphics.NewArena(dev)

	_, h, err := a.Texture(8, 8, graphics.FormatRGBA8)
	if err != nil {
		t.Fatalf("texture: %v", err)
	}
	if _, _, err := a.Texture(8, 8, graphics.FormatRGBA8); err != nil {
		t.Fatalf("texture: %v", err)
	}
	a.Free(h)
	a.Free(h) // double free is ignored
	if a.Len() != 1 {
		t.Fatalf("after Free: got %d live, want 1", a.Len())
	}
}

func TestArenaFramebufferFailure(t *testing.T) {
	dev := graphicstest.NewRecorder(640, 480)
	dev.FailFramebuffers = true
	a := graphics.NewArena(dev)

	depth, _, _ := a.Texture(8, 8, graphics.FormatDepth24)
	if _, _, err := a.Framebuffer(graphics.Texture{}, depth); err == nil {
		t.Fatalf("expected framebuffer error")
	}
}
