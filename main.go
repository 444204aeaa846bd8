package main

import (
	"os"

	"github.com/achilleasa/spheretrace/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "spheretrace"
	app.Usage = "progressively render procedurally generated sphere scenes"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:   "log-level",
			Usage:  "log level (debug, info, notice, warning, error)",
			EnvVar: "SPHERETRACE_LOG_LEVEL",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:   "list-devices",
			Usage:  "list available compute devices",
			Action: cmd.ListDevices,
		},
		{
			Name:  "scene",
			Usage: "generate and inspect scenes",
			Subcommands: []cli.Command{
				{
					Name:  "generate",
					Usage: "generate a scene and display its spheres",
					Description: `
Place up to max-spheres non-overlapping spheres on a disk of the ground plane.
Candidates that overlap an already placed sphere are discarded so the scene may
contain fewer spheres than requested. The same seed always yields the same
scene.`,
					Flags:  cmd.SceneFlags(),
					Action: cmd.GenerateScene,
				},
				{
					Name:      "export",
					Usage:     "generate a scene and write it to a snapshot file",
					ArgsUsage: "scene.zip",
					Flags:     cmd.SceneFlags(),
					Action:    cmd.ExportScene,
				},
				{
					Name:      "info",
					Usage:     "display scene snapshot information",
					ArgsUsage: "scene.zip",
					Action:    cmd.ShowSceneInfo,
				},
			},
		},
		{
			Name:  "render",
			Usage: "render scene",
			Subcommands: []cli.Command{
				{
					Name:        "frame",
					Usage:       "render single frame",
					Description: `Render a single frame and write it to a png or exr file.`,
					Flags: append(cmd.RenderFlags(),
						cli.IntFlag{
							Name:   "spp",
							Value:  16,
							Usage:  "samples per pixel",
							EnvVar: "SPHERETRACE_SPP",
						},
						cli.StringFlag{
							Name:   "out, o",
							Value:  "frame.png",
							Usage:  "image filename for the rendered frame (.png or .exr)",
							EnvVar: "SPHERETRACE_OUT",
						},
					),
					Action: cmd.RenderFrame,
				},
				{
					Name:  "interactive",
					Usage: "render interactive view of the scene",
					Description: `
Open a window showing the accumulating frame. Drag with the left mouse button
to look around, use the left/right arrow keys to orbit the camera and press R
to generate a new scene. Any camera or window change restarts accumulation.`,
					Flags:  cmd.RenderFlags(),
					Action: cmd.RenderInteractive,
				},
				{
					Name:  "serve",
					Usage: "stream the accumulating frame to websocket clients",
					Description: `
Serve a viewer page at / and push png encoded frames to clients connected to
the /stream websocket endpoint.`,
					Flags: append(cmd.RenderFlags(),
						cli.StringFlag{
							Name:   "listen, l",
							Value:  "localhost:8080",
							Usage:  "address to listen on",
							EnvVar: "SPHERETRACE_LISTEN",
						},
						cli.IntFlag{
							Name:   "push-every",
							Value:  8,
							Usage:  "push a frame every N samples",
							EnvVar: "SPHERETRACE_PUSH_EVERY",
						},
					),
					Action: cmd.RenderServe,
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		os.Stderr.WriteString("error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
