package cmd

import (
	"fmt"
	"math"

	"github.com/achilleasa/spheretrace/renderer"
	"github.com/achilleasa/spheretrace/scene"
	"github.com/achilleasa/spheretrace/tracer"
	"github.com/achilleasa/spheretrace/tracer/opencl"
	"github.com/urfave/cli"
)

// Flags controlling scene generation.
func SceneFlags() []cli.Flag {
	defaults := scene.DefaultOptions()
	return []cli.Flag{
		cli.IntFlag{
			Name:   "max-spheres",
			Value:  int(defaults.MaxSpheres),
			Usage:  "number of sphere placement attempts",
			EnvVar: "SPHERETRACE_MAX_SPHERES",
		},
		cli.Float64Flag{
			Name:   "min-radius",
			Value:  float64(defaults.MinRadius),
			Usage:  "minimum sphere radius",
			EnvVar: "SPHERETRACE_MIN_RADIUS",
		},
		cli.Float64Flag{
			Name:   "max-radius",
			Value:  float64(defaults.MaxRadius),
			Usage:  "maximum sphere radius",
			EnvVar: "SPHERETRACE_MAX_RADIUS",
		},
		cli.Float64Flag{
			Name:   "placement-radius",
			Value:  float64(defaults.PlacementRadius),
			Usage:  "radius of the ground disk where spheres are placed",
			EnvVar: "SPHERETRACE_PLACEMENT_RADIUS",
		},
		cli.Int64Flag{
			Name:   "seed",
			Value:  defaults.Seed,
			Usage:  "scene generator seed",
			EnvVar: "SPHERETRACE_SEED",
		},
	}
}

// Flags controlling rendering and device selection.
func RenderFlags() []cli.Flag {
	defaults := renderer.DefaultOptions()
	flags := []cli.Flag{
		cli.IntFlag{
			Name:   "width",
			Value:  int(defaults.FrameW),
			Usage:  "frame width",
			EnvVar: "SPHERETRACE_WIDTH",
		},
		cli.IntFlag{
			Name:   "height",
			Value:  int(defaults.FrameH),
			Usage:  "frame height",
			EnvVar: "SPHERETRACE_HEIGHT",
		},
		cli.IntFlag{
			Name:   "max-samples",
			Value:  0,
			Usage:  "stop accumulating after this many samples (0 = unlimited)",
			EnvVar: "SPHERETRACE_MAX_SAMPLES",
		},
		cli.Float64Flag{
			Name:   "exposure",
			Value:  float64(defaults.Exposure),
			Usage:  "camera exposure for tone-mapping",
			EnvVar: "SPHERETRACE_EXPOSURE",
		},
		cli.Float64Flag{
			Name:   "fov",
			Value:  60,
			Usage:  "camera field of view in degrees",
			EnvVar: "SPHERETRACE_FOV",
		},
		cli.StringFlag{
			Name:   "skybox",
			Usage:  "skybox image (exr, png or jpg; local file or http url)",
			EnvVar: "SPHERETRACE_SKYBOX",
		},
		cli.StringFlag{
			Name:   "scene",
			Usage:  "render a scene snapshot instead of generating a new scene",
			EnvVar: "SPHERETRACE_SCENE",
		},
		cli.StringFlag{
			Name:   "device, d",
			Value:  "cpu",
			Usage:  "compute device type (cpu or opencl)",
			EnvVar: "SPHERETRACE_DEVICE",
		},
		cli.StringSliceFlag{
			Name:   "device-name",
			Value:  &cli.StringSlice{},
			Usage:  "prefer opencl devices whose names contain this value",
			EnvVar: "SPHERETRACE_DEVICE_NAME",
		},
		cli.StringFlag{
			Name:   "program",
			Usage:  "opencl tracing program",
			EnvVar: "SPHERETRACE_PROGRAM",
		},
		cli.StringFlag{
			Name:   "entry-point",
			Value:  opencl.DefaultEntryPoint,
			Usage:  "opencl tracing program entry point",
			EnvVar: "SPHERETRACE_ENTRY_POINT",
		},
		cli.IntFlag{
			Name:   "workers",
			Value:  0,
			Usage:  "cpu device worker count (0 = one per cpu)",
			EnvVar: "SPHERETRACE_WORKERS",
		},
		cli.Uint64Flag{
			Name:   "memory-limit",
			Value:  0,
			Usage:  "cpu device memory limit in bytes (0 = unlimited)",
			EnvVar: "SPHERETRACE_MEMORY_LIMIT",
		},
	}
	return append(flags, SceneFlags()...)
}

func sceneOptions(ctx *cli.Context) (scene.Options, error) {
	maxSpheres, err := uint32Flag(ctx, "max-spheres")
	if err != nil {
		return scene.Options{}, err
	}
	return scene.Options{
		MaxSpheres:      maxSpheres,
		MinRadius:       float32(ctx.Float64("min-radius")),
		MaxRadius:       float32(ctx.Float64("max-radius")),
		PlacementRadius: float32(ctx.Float64("placement-radius")),
		Seed:            ctx.Int64("seed"),
	}, nil
}

// Generate a scene from the scene flags.
func newScene(ctx *cli.Context) (*scene.Scene, error) {
	opts, err := sceneOptions(ctx)
	if err != nil {
		return nil, err
	}
	return scene.New(opts)
}

func renderOptions(ctx *cli.Context) (renderer.Options, error) {
	opts := renderer.Options{
		Seed:     ctx.Int64("seed"),
		Exposure: float32(ctx.Float64("exposure")),
	}
	var err error
	for _, f := range []struct {
		name string
		dst  *uint32
	}{
		{"width", &opts.FrameW},
		{"height", &opts.FrameH},
		{"max-samples", &opts.MaxSamples},
	} {
		if *f.dst, err = uint32Flag(ctx, f.name); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

// Read an integer flag that must fit in a uint32.
func uint32Flag(ctx *cli.Context, name string) (uint32, error) {
	v := ctx.Int(name)
	if v < 0 || uint64(v) > math.MaxUint32 {
		return 0, fmt.Errorf("%w: --%s must be between 0 and %d; got %d", tracer.ErrFatalConfiguration, name, uint32(math.MaxUint32), v)
	}
	return uint32(v), nil
}
