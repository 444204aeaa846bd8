package writer

import (
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"time"

	assetscene "github.com/achilleasa/spheretrace/asset/scene"
	"github.com/achilleasa/spheretrace/log"
	"github.com/achilleasa/spheretrace/scene"
	"github.com/klauspost/compress/zip"
)

// The Writer interface is implemented by all scene writers.
type Writer interface {
	// Write scene definition
	Write(*scene.Scene) error
}

// Write scene snapshot to a zip file.
func WriteScene(sc *scene.Scene, filename string) error {
	writer := newZipSceneWriter(filename)
	return writer.Write(sc)
}

type zipSceneWriter struct {
	logger    log.Logger
	sceneFile string
}

// Create a new zip scene writer
func newZipSceneWriter(sceneFile string) *zipSceneWriter {
	return &zipSceneWriter{
		logger:    log.New("zip writer"),
		sceneFile: sceneFile,
	}
}

// Write scene definition to zip file.
func (w *zipSceneWriter) Write(sc *scene.Scene) error {
	w.logger.Noticef("writing compressed scene to %s", w.sceneFile)
	start := time.Now()

	zipFile, err := os.Create(w.sceneFile)
	if err != nil {
		return fmt.Errorf("zip writer: %w", err)
	}

	err = Encode(zipFile, sc)
	if closeErr := zipFile.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(w.sceneFile)
		return err
	}

	w.logger.Noticef("compressed scene in %d ms", time.Since(start).Nanoseconds()/1000000)
	return nil
}

// Encode a scene snapshot as a zip archive.
func Encode(out io.Writer, sc *scene.Scene) error {
	zw := zip.NewWriter(out)

	// Write scene data
	cw, err := zw.Create(assetscene.DataFile)
	if err != nil {
		return fmt.Errorf("zip writer: %w", err)
	}
	if err = gob.NewEncoder(cw).Encode(sc); err != nil {
		return fmt.Errorf("zip writer: could not encode %s: %w", assetscene.DataFile, err)
	}

	// Write raw sphere records
	cw, err = zw.Create(assetscene.SphereFile)
	if err != nil {
		return fmt.Errorf("zip writer: %w", err)
	}
	if err = binary.Write(cw, binary.LittleEndian, sc.Spheres); err != nil {
		return fmt.Errorf("zip writer: could not encode %s: %w", assetscene.SphereFile, err)
	}

	return zw.Close()
}
