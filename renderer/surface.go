package renderer

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/achilleasa/spheretrace/tracer"
	"github.com/chewxy/math32"
	"github.com/mrjoshuak/go-openexr/exr"
)

// Gamma applied when converting the linear accumulation buffer to 8-bit.
const displayGamma float32 = 1.0 / 2.2

// A surface that copies each presented frame into host memory.
type MemorySurface struct {
	width  uint32
	height uint32

	// The last presented frame as 4 float32 per pixel.
	Pixels []float32

	// The sample count of the last presented frame.
	SampleCount uint32

	// The number of Present calls.
	Presented uint32
}

// Create a new memory surface with the given dimensions.
func NewMemorySurface(width, height uint32) *MemorySurface {
	s := &MemorySurface{}
	s.Resize(width, height)
	return s
}

// Change the surface dimensions. Pixel data is discarded.
func (s *MemorySurface) Resize(width, height uint32) {
	s.width, s.height = width, height
	s.Pixels = make([]float32, width*height*4)
}

func (s *MemorySurface) Size() (uint32, uint32) {
	return s.width, s.height
}

func (s *MemorySurface) Present(img tracer.Image, sampleCount uint32) error {
	if img.Width() != s.width || img.Height() != s.height {
		return fmt.Errorf("memory surface: %w: %dx%d image on a %dx%d surface", tracer.ErrImageSizeMismatch, img.Width(), img.Height(), s.width, s.height)
	}
	if err := img.Read(s.Pixels); err != nil {
		return err
	}
	s.SampleCount = sampleCount
	s.Presented++
	return nil
}

// Convert the surface contents to a tonemapped 8-bit image.
func (s *MemorySurface) Image(exposure float32) *image.RGBA {
	return tonemap(s.Pixels, s.width, s.height, exposure)
}

// Write the surface contents to a file. The image format is selected based
// on the file extension: .exr files store the linear float data while .png
// files store the tonemapped 8-bit image.
func (s *MemorySurface) WriteFile(filename string, exposure float32) error {
	start := time.Now()

	var err error
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".exr":
		err = exr.EncodeFile(filename, s.exrImage())
	case ".png":
		var f *os.File
		f, err = os.Create(filename)
		if err != nil {
			break
		}
		err = s.EncodePNG(f, exposure)
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	default:
		return fmt.Errorf("memory surface: unsupported image format %q", ext)
	}

	if err != nil {
		return fmt.Errorf("memory surface: could not write %s: %w", filename, err)
	}
	logger.Noticef("wrote frame to %s in %d ms", filename, time.Since(start).Nanoseconds()/1000000)
	return nil
}

// Encode the tonemapped surface contents as PNG.
func (s *MemorySurface) EncodePNG(w io.Writer, exposure float32) error {
	return png.Encode(w, s.Image(exposure))
}

func (s *MemorySurface) exrImage() *exr.RGBAImage {
	img := exr.NewRGBAImage(image.Rect(0, 0, int(s.width), int(s.height)))
	offset := 0
	for y := 0; y < int(s.height); y++ {
		for x := 0; x < int(s.width); x++ {
			img.SetRGBA(x, y, s.Pixels[offset], s.Pixels[offset+1], s.Pixels[offset+2], s.Pixels[offset+3])
			offset += 4
		}
	}
	return img
}

// Apply exposure tonemapping and gamma correction to linear RGBA data.
func tonemap(pixels []float32, width, height uint32, exposure float32) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
	offset := 0
	for y := 0; y < int(height); y++ {
		for x := 0; x < int(width); x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: toneChannel(pixels[offset], exposure),
				G: toneChannel(pixels[offset+1], exposure),
				B: toneChannel(pixels[offset+2], exposure),
				A: 255,
			})
			offset += 4
		}
	}
	return img
}

func toneChannel(v, exposure float32) uint8 {
	if !(v > 0) {
		return 0
	}
	v = math32.Pow(1.0-math32.Exp(-v*exposure), displayGamma)
	return uint8(math32.Min(v, 1.0)*255.0 + 0.5)
}
