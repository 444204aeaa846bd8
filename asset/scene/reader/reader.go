package reader

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/achilleasa/spheretrace/asset"
	assetscene "github.com/achilleasa/spheretrace/asset/scene"
	"github.com/achilleasa/spheretrace/log"
	"github.com/achilleasa/spheretrace/scene"
	"github.com/klauspost/compress/zip"
)

var (
	ErrMissingSceneData = errors.New("zip reader: snapshot does not contain " + assetscene.DataFile)
	ErrSphereMismatch   = errors.New("zip reader: sphere records do not match scene data")
)

// The Reader interface is implemented by all scene readers.
type Reader interface {
	// Read scene definition from a resource.
	Read(*asset.Resource) (*scene.Scene, error)
}

// Read scene snapshot from a local file or URL.
func ReadScene(filename string) (*scene.Scene, error) {
	res, err := asset.NewResource(filename)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	if res.Ext() != ".zip" {
		return nil, fmt.Errorf("readScene: unsupported file format %q", res.Ext())
	}
	return newZipSceneReader().Read(res)
}

type zipSceneReader struct {
	logger log.Logger
}

// Create a new zip scene reader
func newZipSceneReader() *zipSceneReader {
	return &zipSceneReader{
		logger: log.New("zip reader"),
	}
}

// Read scene definition from zip file.
func (p *zipSceneReader) Read(sceneRes *asset.Resource) (*scene.Scene, error) {
	p.logger.Noticef(`loading scene snapshot from "%s"`, sceneRes.Path())
	start := time.Now()

	// zip package requires a reader implementing ReaderAt. To work around
	// this requirement we read the entire zip file into memory and create
	// a reader from the bytes package that implements ReaderAt
	data, err := sceneRes.ReadAll()
	if err != nil {
		return nil, err
	}

	sc, err := p.Decode(data)
	if err != nil {
		return nil, err
	}

	p.logger.Noticef("loaded scene with %d spheres in %d ms", len(sc.Spheres), time.Since(start).Nanoseconds()/1000000)
	return sc, nil
}

// Decode a zip scene snapshot. The decoded scene is checked against the
// placement invariants.
func (p *zipSceneReader) Decode(data []byte) (*scene.Scene, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("zip reader: %w", err)
	}

	var sc *scene.Scene
	var records []byte
	for _, f := range zr.File {
		switch f.Name {
		case assetscene.DataFile:
			sc = &scene.Scene{}
			err = decodeFile(f, func(r io.Reader) error {
				return gob.NewDecoder(r).Decode(sc)
			})
		case assetscene.SphereFile:
			err = decodeFile(f, func(r io.Reader) error {
				records, err = io.ReadAll(r)
				return err
			})
		default:
			p.logger.Warningf("unknown file %s in scene zip file; skipping", f.Name)
			continue
		}

		if err != nil {
			return nil, fmt.Errorf("zip reader: failed to load %s: %w", f.Name, err)
		}
	}

	if sc == nil {
		return nil, ErrMissingSceneData
	}

	if records != nil {
		if err = checkRecords(sc.Spheres, records); err != nil {
			return nil, err
		}
	}

	if err = sc.Options.Validate(); err != nil {
		return nil, err
	}
	if err = scene.Validate(sc.Spheres); err != nil {
		return nil, err
	}
	return sc, nil
}

// Ensure that the raw sphere records match the gob-encoded sphere list.
func checkRecords(spheres []scene.Sphere, records []byte) error {
	if len(records) != len(spheres)*scene.SphereStride {
		return fmt.Errorf("%w: expected %d bytes; got %d", ErrSphereMismatch, len(spheres)*scene.SphereStride, len(records))
	}

	raw := make([]scene.Sphere, len(spheres))
	if err := binary.Read(bytes.NewReader(records), binary.LittleEndian, raw); err != nil {
		return fmt.Errorf("%w: %v", ErrSphereMismatch, err)
	}
	for i := range raw {
		if raw[i] != spheres[i] {
			return fmt.Errorf("%w: sphere %d differs", ErrSphereMismatch, i)
		}
	}
	return nil
}

func decodeFile(f *zip.File, decode func(io.Reader) error) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return decode(rc)
}
