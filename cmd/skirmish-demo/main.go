package main

import (
	"flag"
	"runtime"

	"skirmish/internal/logger"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/profile"
	"github.com/xlab/closer"
	"go.uber.org/zap"
)

func init() {
	runtime.LockOSThread()
}

type options struct {
	width, height int
	fps           int
	aa            string
	shadows       int
	texture       string
	profile       string
	debug         bool
}

func parseFlags() options {
	var o options
	flag.IntVar(&o.width, "width", 1280, "window width")
	flag.IntVar(&o.height, "height", 720, "window height")
	flag.IntVar(&o.fps, "fps", 144, "frame rate cap, 0 for unlimited")
	flag.StringVar(&o.aa, "aa", "taa", "anti-aliasing: none, fxaa or taa")
	flag.IntVar(&o.shadows, "shadows", 2, "shadow mode: 0 off, 1 single light, 2 all lights")
	flag.StringVar(&o.texture, "texture", "", "optional image used for the ground instead of the generated checker")
	flag.StringVar(&o.profile, "profile", "", "write a cpu or mem profile to the working directory")
	flag.BoolVar(&o.debug, "debug", false, "development logging")
	flag.Parse()
	return o
}

func main() {
	opts := parseFlags()
	if err := logger.Init(opts.debug); err != nil {
		panic(err)
	}
	closer.Bind(logger.Sync)

	switch opts.profile {
	case "cpu":
		p := profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
		closer.Bind(p.Stop)
	case "mem":
		p := profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
		closer.Bind(p.Stop)
	}

	if err := glfw.Init(); err != nil {
		logger.Log.Fatal("could not initialize glfw", zap.Error(err))
	}

	window, err := setupWindow(opts.width, opts.height)
	if err != nil {
		logger.Log.Fatal("could not create window", zap.Error(err))
	}

	app, err := newDemo(window, opts)
	if err != nil {
		logger.Log.Fatal("could not set up demo", zap.Error(err))
	}

	app.run()
	app.release()
	glfw.Terminate()

	// closer exits the process. On a signal it runs the same hooks without
	// the GL teardown above, which the driver reclaims with the context.
	closer.Close()
}

func setupWindow(width, height int) (*glfw.Window, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)

	window, err := glfw.CreateWindow(width, height, "skirmish", nil, nil)
	if err != nil {
		return nil, err
	}
	window.MakeContextCurrent()

	// Disable V-Sync; the frame limiter paces the loop
	glfw.SwapInterval(0)
	return window, nil
}
