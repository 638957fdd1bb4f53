package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"runtime"
	"time"

	"skirmish/internal/animation"
	"skirmish/internal/assets"
	"skirmish/internal/config"
	"skirmish/internal/graphics"
	"skirmish/internal/input"
	"skirmish/internal/logger"
	"skirmish/internal/postprocess"
	"skirmish/internal/profiling"
	"skirmish/internal/render"

	"github.com/go-gl/glfw/v3.3/glfw"
	"go.uber.org/zap"
)

// Textures created per frame by the loader drain.
const textureBudget = 2

type demo struct {
	window    *glfw.Window
	input     *input.Manager
	dev       *graphics.GLDevice
	cache     *assets.Cache
	loader    *assets.TextureLoader
	updater   *animation.Updater
	shaders   render.Shaders
	system    *render.System
	post      *postprocess.Pipeline
	progs     postprocess.Programs
	tonemap   *postprocess.ToneMap
	scene     *demoScene
	limiter   *fpsLimiter
	captures  int
	capturing bool
	paused    bool

	animators []*animation.Animator
}

func newDemo(window *glfw.Window, opts options) (*demo, error) {
	fw, fh := window.GetFramebufferSize()
	dev, err := graphics.NewGLDevice(int32(fw), int32(fh))
	if err != nil {
		return nil, err
	}

	d := &demo{
		window:  window,
		input:   input.NewManager(),
		dev:     dev,
		cache:   assets.NewCache(),
		updater: animation.NewUpdater(runtime.NumCPU() / 2),
		limiter: newFPSLimiter(opts.fps),
	}

	forward, err := d.cache.LoadShader("forward", graphics.ForwardVert, "", graphics.ForwardFrag)
	if err != nil {
		return nil, err
	}
	if _, err := d.cache.LoadModel(dev, "cube", assets.Cube()); err != nil {
		return nil, err
	}
	if _, err := d.cache.LoadModel(dev, "plane", assets.Plane(80)); err != nil {
		return nil, err
	}
	if _, err := d.cache.LoadModel(dev, "column", assets.SkinnedColumn(4, columnBones)); err != nil {
		return nil, err
	}

	if d.shaders, err = render.CompileShaders(); err != nil {
		return nil, err
	}
	settings := config.NewRenderSettings()
	settings.SetShadowMode(opts.shadows)
	settings.SetAntiAliasing(parseAA(opts.aa))
	if d.system, err = render.NewSystem(dev, d.shaders, settings, int32(fw), int32(fh)); err != nil {
		return nil, err
	}

	if d.progs, err = postprocess.CompilePrograms(); err != nil {
		return nil, err
	}
	if d.post, err = postprocess.NewPipeline(dev, d.progs, int32(fw), int32(fh)); err != nil {
		return nil, err
	}
	if d.tonemap, err = postprocess.NewToneMap(1.0); err != nil {
		return nil, err
	}
	d.post.AddEffect(d.tonemap)
	d.system.AttachPostProcess(d.post)

	d.loader = assets.NewTextureLoader(d.cache, 2, 16)
	job := assets.TextureJob{Name: "ground", Path: opts.texture}
	if opts.texture == "" {
		job.Open = checkerPNG
	}
	d.loader.Submit(job)

	aspect := float32(fw) / float32(max(fh, 1))
	d.scene = buildScene(d.cache, forward, aspect)

	window.SetFramebufferSizeCallback(d.onResize)
	d.input.Attach(window)

	logger.Log.Info("demo ready",
		zap.Int("width", fw),
		zap.Int("height", fh),
		zap.Stringer("aa", settings.Snapshot().AntiAliasing),
		zap.Int("shadowMode", settings.Snapshot().ShadowMode))
	return d, nil
}

func (d *demo) run() {
	lastTime := time.Now()
	lastReport := time.Now()
	frames := 0

	for !d.window.ShouldClose() {
		profiling.ResetFrame()
		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		func() { defer profiling.Track("glfw.PollEvents")(); glfw.PollEvents() }()

		// Textures are created before any pass of this frame draws.
		func() { defer profiling.Track("assets.Drain")(); d.loader.Drain(d.dev, textureBudget) }()
		d.scene.bindTextures(d.cache)

		d.handleInput(dt)
		simDT := dt
		if d.paused {
			simDT = 0
		}
		d.scene.update(simDT)
		func() {
			defer profiling.Track("animation.Update")()
			d.animators = d.scene.Animators(d.animators[:0])
			d.updater.Update(d.animators, float32(simDT))
		}()

		d.system.RenderShadows(d.scene.Scene)
		d.system.Render(d.scene.Scene)
		if d.capturing {
			d.capturing = false
			d.capture()
		}

		func() { defer profiling.Track("glfw.SwapBuffers")(); d.window.SwapBuffers() }()
		d.input.PostUpdate()
		frames++

		if time.Since(lastReport) >= time.Second {
			st := d.system.Stats()
			logger.Log.Info("frame stats",
				zap.Int("fps", frames),
				zap.Int("rendered", st.Rendered),
				zap.Int("culled", st.Culled),
				zap.Int("drawCalls", st.DrawCalls),
				zap.Int("batches", st.InstancedBatches),
				zap.Int("shadowMaps", st.ShadowMaps),
				zap.Int("shadowDrawCalls", st.ShadowDrawCalls))
			frames = 0
			lastReport = time.Now()
		}

		d.limiter.Wait()
	}
}

func (d *demo) onResize(_ *glfw.Window, width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	if err := d.system.Resize(int32(width), int32(height)); err != nil {
		logger.Log.Error("resize failed", zap.Error(err))
		return
	}
	if cam := d.scene.Camera(d.scene.camera); cam != nil {
		cam.Aspect = float32(width) / float32(height)
	}
}

// handleInput applies this frame's key actions.
func (d *demo) handleInput(dt float64) {
	in := d.input
	if in.JustPressed(input.ActionQuit) {
		d.window.SetShouldClose(true)
	}
	if in.JustPressed(input.ActionPause) {
		d.paused = !d.paused
	}
	if in.JustPressed(input.ActionCapture) {
		d.capturing = true
	}

	const orbitSpeed, zoomSpeed = 1.2, 15.0
	if in.IsActive(input.ActionOrbitLeft) {
		d.scene.orbit -= orbitSpeed * dt
	}
	if in.IsActive(input.ActionOrbitRight) {
		d.scene.orbit += orbitSpeed * dt
	}
	if in.IsActive(input.ActionZoomIn) {
		d.scene.cameraDist = max(6, d.scene.cameraDist-float32(zoomSpeed*dt))
	}
	if in.IsActive(input.ActionZoomOut) {
		d.scene.cameraDist = min(120, d.scene.cameraDist+float32(zoomSpeed*dt))
	}
	d.scene.placeCamera()

	settings := d.system.Settings()
	cur := settings.Snapshot()
	changed := true
	switch {
	case in.JustPressed(input.ActionCycleShadows):
		d.system.SetShadowMode((cur.ShadowMode + 1) % 3)
	case in.JustPressed(input.ActionToggleCulling):
		d.system.SetFrustumCulling(!cur.FrustumCulling)
	case in.JustPressed(input.ActionToggleInstancing):
		d.system.SetInstancing(!cur.Instancing)
	case in.JustPressed(input.ActionCycleAntiAliasing):
		d.system.SetAntiAliasing((cur.AntiAliasing + 1) % 3)
	case in.JustPressed(input.ActionToggleNoTexture):
		d.system.SetNoTexture(!cur.NoTexture)
	case in.JustPressed(input.ActionToggleToneMap):
		d.tonemap.Disabled = !d.tonemap.Disabled
	default:
		changed = false
	}
	if !changed {
		return
	}
	next := settings.Snapshot()
	logger.Log.Info("render settings changed",
		zap.Int("shadowMode", next.ShadowMode),
		zap.Bool("frustumCulling", next.FrustumCulling),
		zap.Bool("instancing", next.Instancing),
		zap.Stringer("aa", next.AntiAliasing),
		zap.Bool("noTexture", next.NoTexture),
		zap.Bool("tonemap", !d.tonemap.Disabled))
}

// capture writes the frame just resolved to a WebP file. It runs between
// Render and SwapBuffers.
func (d *demo) capture() {
	d.captures++
	name := fmt.Sprintf("capture-%03d.webp", d.captures)
	f, err := os.Create(name)
	if err != nil {
		logger.Log.Error("could not create capture file", zap.Error(err))
		return
	}
	defer f.Close()
	if err := d.post.Capture(f, 1280); err != nil {
		logger.Log.Error("capture failed", zap.Error(err))
		return
	}
	logger.Log.Info("frame captured", zap.String("file", name))
}

func (d *demo) release() {
	d.loader.Shutdown()
	d.post.Release()
	d.system.Release()
	d.shaders.Depth.Delete()
	d.shaders.PointDepth.Delete()
	d.progs.Blit.Delete()
	d.progs.TAA.Delete()
	d.progs.FXAA.Delete()
	d.tonemap.Shader.Delete()
	d.cache.Release(d.dev)
	d.dev.Release()
}

func parseAA(s string) config.AntiAliasing {
	switch s {
	case "fxaa":
		return config.AAFXAA
	case "taa":
		return config.AATAA
	default:
		return config.AANone
	}
}

// checkerPNG encodes the generated ground texture.
func checkerPNG() (io.ReadCloser, error) {
	const size, cell = 256, 32
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	light := color.RGBA{200, 200, 190, 255}
	dark := color.RGBA{120, 125, 115, 255}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := dark
			if (x/cell+y/cell)%2 == 0 {
				c = light
			}
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return io.NopCloser(&buf), nil
}
