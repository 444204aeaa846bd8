package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/achilleasa/spheretrace/asset/scene/reader"
	"github.com/achilleasa/spheretrace/asset/scene/writer"
	"github.com/urfave/cli"
)

// Generate a scene and display its contents.
func GenerateScene(ctx *cli.Context) error {
	setupLogging(ctx)

	sc, err := newScene(ctx)
	if err != nil {
		return err
	}

	logger.Noticef("generated spheres:\n%s", sc.SphereTable())
	logger.Noticef("scene information:\n%s", sc.Stats())
	return nil
}

// Generate a scene and write it to a snapshot file.
func ExportScene(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing output zip file")
	}

	zipFile := ctx.Args().First()
	if !strings.HasSuffix(zipFile, ".zip") {
		return fmt.Errorf("scene snapshots must use a .zip extension; got %s", zipFile)
	}

	sc, err := newScene(ctx)
	if err != nil {
		return err
	}

	// Display scene info
	logger.Noticef("scene information:\n%s", sc.Stats())

	return writer.WriteScene(sc, zipFile)
}

// Display snapshot scene info.
func ShowSceneInfo(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing scene snapshot zip file")
	}

	sc, err := reader.ReadScene(ctx.Args().First())
	if err != nil {
		return err
	}

	// Display scene info
	logger.Noticef("scene information:\n%s", sc.Stats())

	return nil
}
