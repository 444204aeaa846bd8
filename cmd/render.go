package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"

	"github.com/achilleasa/spheretrace/asset/scene/reader"
	"github.com/achilleasa/spheretrace/asset/texture"
	"github.com/achilleasa/spheretrace/renderer"
	"github.com/achilleasa/spheretrace/scene"
	"github.com/achilleasa/spheretrace/types"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Default camera placement; the camera looks at the center of the placement
// disk from above its rim.
var (
	defaultCameraPos    = types.XYZ(0, 40, 160)
	defaultCameraLookAt = types.XYZ(0, 0, 0)
	defaultLightDir     = types.XYZ(-1, -3, -1)
)

const defaultLightIntensity float32 = 1.0

// The pieces needed by all render commands.
type renderSetup struct {
	opts     renderer.Options
	scene    *scene.Scene
	camera   *scene.Camera
	light    *scene.DirectionalLight
	pipeline *renderer.Pipeline
}

// Load or generate the scene and initialize the tracing pipeline.
func setupRender(ctx *cli.Context, opts renderer.Options) (*renderSetup, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	sc, err := loadScene(ctx)
	if err != nil {
		return nil, err
	}

	var sky *texture.Texture
	if skyFile := ctx.String("skybox"); skyFile != "" {
		if sky, err = texture.Load(skyFile); err != nil {
			return nil, err
		}
	}

	cam := scene.NewCamera(float32(ctx.Float64("fov")))
	cam.Position = defaultCameraPos
	cam.LookAt = defaultCameraLookAt
	cam.SetupProjection(float32(opts.FrameW) / float32(opts.FrameH))

	dev, kernel, err := setupBackend(ctx)
	if err != nil {
		return nil, err
	}

	// The pipeline takes ownership of the device and kernel
	pipeline := renderer.NewPipeline(dev, kernel, opts)
	if err = pipeline.Init(cam, sky); err != nil {
		pipeline.Close()
		return nil, err
	}
	if err = pipeline.SetupScene(sc); err != nil {
		pipeline.Close()
		return nil, err
	}

	return &renderSetup{
		opts:     opts,
		scene:    sc,
		camera:   cam,
		light:    scene.NewDirectionalLight(defaultLightDir, defaultLightIntensity),
		pipeline: pipeline,
	}, nil
}

func loadScene(ctx *cli.Context) (*scene.Scene, error) {
	if sceneFile := ctx.String("scene"); sceneFile != "" {
		return reader.ReadScene(sceneFile)
	}

	sc, err := newScene(ctx)
	if err != nil {
		return nil, err
	}
	logger.Infof("scene information:\n%s", sc.Stats())
	return sc, nil
}

// Render a still frame.
func RenderFrame(ctx *cli.Context) error {
	setupLogging(ctx)

	// A still frame always stops after the requested sample count
	opts, err := renderOptions(ctx)
	if err != nil {
		return err
	}
	if opts.MaxSamples, err = uint32Flag(ctx, "spp"); err != nil {
		return err
	}

	setup, err := setupRender(ctx, opts)
	if err != nil {
		return err
	}

	r, surface := renderer.NewFrameRenderer(setup.pipeline, setup.camera, setup.light, opts)
	defer r.Close()

	if err = r.Render(); err != nil {
		return err
	}

	// Display stats
	displayFrameStats(r.Stats())

	return surface.WriteFile(ctx.String("out"), opts.Exposure)
}

// Use opengl to render a continuously updating view of the accumulated frame.
func RenderInteractive(ctx *cli.Context) error {
	setupLogging(ctx)

	// glfw calls must originate from the main thread
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	opts, err := renderOptions(ctx)
	if err != nil {
		return err
	}
	setup, err := setupRender(ctx, opts)
	if err != nil {
		return err
	}

	r, err := renderer.NewInteractive(setup.pipeline, setup.camera, setup.light, setup.scene.Options, setup.opts)
	if err != nil {
		setup.pipeline.Close()
		return err
	}
	defer r.Close()

	return r.Render()
}

// Stream the accumulating frame to websocket clients until interrupted.
func RenderServe(ctx *cli.Context) error {
	setupLogging(ctx)

	opts, err := renderOptions(ctx)
	if err != nil {
		return err
	}
	setup, err := setupRender(ctx, opts)
	if err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	pushEvery, err := uint32Flag(ctx, "push-every")
	if err != nil {
		return err
	}
	r := renderer.NewStreamRenderer(sigCtx, ctx.String("listen"), setup.pipeline, setup.camera, setup.light, setup.opts, pushEvery)
	defer r.Close()

	if err = r.Render(); err != nil {
		return err
	}
	displayFrameStats(r.Stats())
	return nil
}

func displayFrameStats(stats renderer.FrameStats) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Resolution", "Spheres", "Samples", "Resets", "Dispatch", "Blend", "Present"})
	table.Append([]string{
		fmt.Sprintf("%dx%d", stats.Width, stats.Height),
		fmt.Sprintf("%d", stats.Spheres),
		fmt.Sprintf("%d", stats.Sample+1),
		fmt.Sprintf("%d", stats.Resets),
		stats.DispatchTime.String(),
		stats.BlendTime.String(),
		stats.PresentTime.String(),
	})
	table.SetFooter([]string{"", "", "", "", "", "LAST FRAME", stats.RenderTime.String()})

	table.Render()
	logger.Noticef("frame statistics\n%s", buf.String())
}
