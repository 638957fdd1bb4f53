package postprocess

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"skirmish/internal/config"
	"skirmish/internal/graphics"
	"skirmish/internal/graphics/graphicstest"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/webp"
)

func testPrograms() Programs {
	return Programs{
		Blit: &graphics.Shader{ID: 1, Name: "blit"},
		TAA:  &graphics.Shader{ID: 2, Name: "taa"},
		FXAA: &graphics.Shader{ID: 3, Name: "fxaa"},
	}
}

func newTestPipeline(t *testing.T) (*Pipeline, *graphicstest.Recorder) {
	t.Helper()
	rec := graphicstest.NewRecorder(320, 180)
	p, err := NewPipeline(rec, testPrograms(), 320, 180)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	return p, rec
}

func TestHaltonSequence(t *testing.T) {
	cases := []struct {
		index, base uint64
		want        float32
	}{
		{1, 2, 0.5}, {2, 2, 0.25}, {3, 2, 0.75}, {1, 3, 1.0 / 3}, {2, 3, 2.0 / 3}, {3, 3, 1.0 / 9},
	}
	for _, c := range cases {
		if got := Halton(c.index, c.base); abs(got-c.want) > 1e-6 {
			t.Fatalf("Halton(%d,%d) = %v, want %v", c.index, c.base, got, c.want)
		}
	}
}

func TestJitterOffsetRange(t *testing.T) {
	seen := map[mgl32.Vec2]bool{}
	for f := uint64(0); f < JitterPhases; f++ {
		j := JitterOffset(f)
		if j.X() < -0.5 || j.X() >= 0.5 || j.Y() < -0.5 || j.Y() >= 0.5 {
			t.Fatalf("frame %d jitter %v out of range", f, j)
		}
		seen[j] = true
	}
	if len(seen) != JitterPhases {
		t.Fatalf("jitter repeats within a cycle: %d distinct", len(seen))
	}
	if JitterOffset(3) != JitterOffset(3+JitterPhases) {
		t.Fatalf("jitter not periodic")
	}
}

func TestJitterOnlyInTAA(t *testing.T) {
	p, _ := newTestPipeline(t)
	p.SetMode(config.AAFXAA)
	if p.Jitter(1) != (mgl32.Vec2{}) {
		t.Fatalf("jitter outside TAA")
	}
	p.SetMode(config.AATAA)
	if p.Jitter(1) == (mgl32.Vec2{}) {
		t.Fatalf("no jitter in TAA")
	}
}

func TestResolveNoneBlitsSceneToWindow(t *testing.T) {
	p, rec := newTestPipeline(t)
	p.Begin()
	rec.Reset()
	p.Resolve(Frame{ViewProj: mgl32.Ident4()})

	if rec.Count("fullscreen") != 1 {
		t.Fatalf("fullscreen passes = %d, want 1", rec.Count("fullscreen"))
	}
	last := rec.Ops[len(rec.Ops)-1]
	if last.Shader != "blit" || last.FB != nil {
		t.Fatalf("final pass %+v, want blit into window", last)
	}
}

func TestResolveFXAA(t *testing.T) {
	p, rec := newTestPipeline(t)
	p.SetMode(config.AAFXAA)
	rec.Reset()
	p.Resolve(Frame{ViewProj: mgl32.Ident4()})

	if rec.Count("fullscreen") != 2 {
		t.Fatalf("fullscreen passes = %d, want 2", rec.Count("fullscreen"))
	}
	v, ok := rec.Uniform("fxaa", "inverseScreenSize")
	if !ok || v.(mgl32.Vec2) != (mgl32.Vec2{1.0 / 320, 1.0 / 180}) {
		t.Fatalf("inverseScreenSize = %v", v)
	}
	if p.HistoryValid() {
		t.Fatalf("FXAA touched history")
	}
}

func TestResolveTAAWritesHistory(t *testing.T) {
	p, rec := newTestPipeline(t)
	p.SetMode(config.AATAA)
	vp := mgl32.Perspective(1, 16.0/9, 0.1, 100)

	rec.Reset()
	p.Resolve(Frame{ViewProj: vp, Jitter: p.Jitter(0)})
	if v, _ := rec.Uniform("taa", "historyValid"); v.(int32) != 0 {
		t.Fatalf("first frame used history")
	}
	if rec.Count("blit") != 1 || !p.HistoryValid() {
		t.Fatalf("history not written")
	}

	rec.Reset()
	p.Resolve(Frame{ViewProj: vp, Jitter: p.Jitter(1)})
	if v, _ := rec.Uniform("taa", "historyValid"); v.(int32) != 1 {
		t.Fatalf("second frame ignored history")
	}
	if v, _ := rec.Uniform("taa", "prevViewProj"); v.(mgl32.Mat4) != vp {
		t.Fatalf("prevViewProj = %v", v)
	}
	if v, _ := rec.Uniform("taa", "jitter"); v.(mgl32.Vec2) != JitterOffset(1) {
		t.Fatalf("jitter uniform = %v", v)
	}

	// Leaving and re-entering TAA discards history.
	p.SetMode(config.AANone)
	p.SetMode(config.AATAA)
	if p.HistoryValid() {
		t.Fatalf("history survived mode switch")
	}
}

func TestEffectChainPingPongs(t *testing.T) {
	p, rec := newTestPipeline(t)
	tm := &ToneMap{Shader: &graphics.Shader{ID: 9, Name: "tonemap"}, Exposure: 1.2}
	p.AddEffect(tm)
	p.AddEffect(&ToneMap{Disabled: true})
	p.SetMode(config.AAFXAA)

	rec.Reset()
	p.Resolve(Frame{ViewProj: mgl32.Ident4()})

	var passes []graphicstest.Op
	for _, op := range rec.Ops {
		if op.Kind == "fullscreen" {
			passes = append(passes, op)
		}
	}
	if len(passes) != 3 {
		t.Fatalf("passes = %d, want fxaa + tonemap + blit", len(passes))
	}
	if passes[0].FB != p.b || passes[1].FB != p.a || passes[2].FB != nil {
		t.Fatalf("ping-pong order wrong: %v %v %v", passes[0].FB, passes[1].FB, passes[2].FB)
	}
	if v, _ := rec.Uniform("tonemap", "exposure"); v.(float32) != 1.2 {
		t.Fatalf("exposure = %v", v)
	}
}

func TestTAAConvergesOnStaticScene(t *testing.T) {
	const w, h = 16, 16
	current := NewBuffer(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 3
			v := float32(0.2)
			if x > y {
				v = 0.9
			}
			current.Pix[i], current.Pix[i+1], current.Pix[i+2] = v, v*0.5, 1-v
		}
	}

	history := NewBuffer(w, h)
	prev := NewBuffer(w, h)
	lastDiff := float32(2)
	for frame := 0; frame < 40; frame++ {
		copy(prev.Pix, history.Pix)
		BlendHistory(history, history, current, 0.1, true)
		d := MaxDiff(history, prev)
		if d > lastDiff+1e-7 {
			t.Fatalf("frame %d: diff %v grew from %v", frame, d, lastDiff)
		}
		lastDiff = d
	}
	if lastDiff > 0.01 {
		t.Fatalf("did not converge: last diff %v", lastDiff)
	}
	if MaxDiff(history, current) > 0.02 {
		t.Fatalf("history far from scene: %v", MaxDiff(history, current))
	}
}

func TestBlendHistoryInvalidCopiesCurrent(t *testing.T) {
	current := NewBuffer(2, 2)
	for i := range current.Pix {
		current.Pix[i] = 0.5
	}
	dst := NewBuffer(2, 2)
	BlendHistory(dst, NewBuffer(2, 2), current, 0.1, false)
	if MaxDiff(dst, current) != 0 {
		t.Fatalf("invalid history not replaced")
	}
}

func TestCaptureEncodesWebP(t *testing.T) {
	p, rec := newTestPipeline(t)
	rec.Fill = color.RGBA{10, 200, 30, 255}
	p.Begin()
	p.Resolve(Frame{ViewProj: mgl32.Ident4()})

	var buf bytes.Buffer
	if err := p.Capture(&buf, 160); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	img, err := webp.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 160, 90) {
		t.Fatalf("capture size = %v", img.Bounds())
	}
	r, g, _, _ := img.At(80, 45).RGBA()
	if absInt(int(r>>8)-10) > 2 || absInt(int(g>>8)-200) > 2 {
		t.Fatalf("pixel = %v", img.At(80, 45))
	}
}

// lastRead returns the framebuffer of the most recent ReadPixels call.
func lastRead(t *testing.T, rec *graphicstest.Recorder) *graphics.Framebuffer {
	t.Helper()
	for i := len(rec.Ops) - 1; i >= 0; i-- {
		if rec.Ops[i].Kind == "read" {
			return rec.Ops[i].FB
		}
	}
	t.Fatalf("no ReadPixels recorded")
	return nil
}

func TestCaptureReadsResolvedBuffer(t *testing.T) {
	p, rec := newTestPipeline(t)

	p.Begin()
	p.Resolve(Frame{ViewProj: mgl32.Ident4()})
	if err := p.Capture(&bytes.Buffer{}, 0); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if fb := lastRead(t, rec); fb == nil || fb != p.a {
		t.Fatalf("capture without AA read %v, want scene buffer %v", fb, p.a)
	}

	p.SetMode(config.AAFXAA)
	p.Begin()
	p.Resolve(Frame{ViewProj: mgl32.Ident4()})
	if err := p.Capture(&bytes.Buffer{}, 0); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if fb := lastRead(t, rec); fb == nil || fb != p.b {
		t.Fatalf("capture after FXAA read %v, want ping-pong buffer %v", fb, p.b)
	}
}

func TestCaptureRequiresResolvedFrame(t *testing.T) {
	p, rec := newTestPipeline(t)
	if err := p.Capture(&bytes.Buffer{}, 0); err == nil {
		t.Fatalf("expected error before any Resolve")
	}

	p.Resolve(Frame{ViewProj: mgl32.Ident4()})
	p.Begin()
	if err := p.Capture(&bytes.Buffer{}, 0); err == nil {
		t.Fatalf("expected error while the next frame is being drawn")
	}
	if n := rec.Count("read"); n != 0 {
		t.Fatalf("read %d framebuffers without a resolved frame", n)
	}
}

func TestNewPipelineFailsOnIncompleteFramebuffer(t *testing.T) {
	rec := graphicstest.NewRecorder(64, 64)
	rec.FailFramebuffers = true
	if _, err := NewPipeline(rec, testPrograms(), 64, 64); err == nil {
		t.Fatalf("expected error")
	}
	if len(rec.Live) != 0 {
		t.Fatalf("leaked %d resources", len(rec.Live))
	}
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestResizeReallocatesAndResetsHistory(t *testing.T) {
	p, rec := newTestPipeline(t)
	p.SetMode(config.AATAA)
	p.Begin()
	p.Resolve(Frame{ViewProj: mgl32.Ident4()})
	if !p.HistoryValid() {
		t.Fatalf("history not valid after a TAA resolve")
	}
	before := len(rec.Live)

	if err := p.Resize(640, 360); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if w, h := p.Size(); w != 640 || h != 360 {
		t.Fatalf("size = %dx%d", w, h)
	}
	if fb := p.SceneTarget(); fb.Width != 640 || fb.Height != 360 {
		t.Fatalf("scene target = %dx%d", fb.Width, fb.Height)
	}
	if p.HistoryValid() {
		t.Fatalf("history survived resize")
	}
	if len(rec.Live) != before {
		t.Fatalf("live resources %d, want %d", len(rec.Live), before)
	}

	p.Release()
	if len(rec.Live) != 0 {
		t.Fatalf("leaked %d resources", len(rec.Live))
	}
}
