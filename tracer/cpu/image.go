package cpu

import (
	"fmt"

	"github.com/achilleasa/spheretrace/tracer"
	"github.com/achilleasa/spheretrace/types"
)

// A float RGBA image stored in host memory.
type Image struct {
	width  uint32
	height uint32

	// Pixel data; 4 float32 per pixel in row-major order.
	Pix []float32

	device *Device
}

func (img *Image) Width() uint32 {
	return img.width
}

func (img *Image) Height() uint32 {
	return img.height
}

// Copy image contents into dst.
func (img *Image) Read(dst []float32) error {
	if len(dst) < len(img.Pix) {
		return fmt.Errorf("%w: destination holds %d floats; need %d", tracer.ErrImageSizeMismatch, len(dst), len(img.Pix))
	}
	copy(dst, img.Pix)
	return nil
}

// Release the image memory.
func (img *Image) Release() {
	if img == nil || img.Pix == nil {
		return
	}
	if img.device != nil {
		img.device.free(imageBytes(img.width, img.height))
	}
	img.Pix = nil
}

// Get the pixel at (x, y).
func (img *Image) At(x, y uint32) types.Vec4 {
	off := 4 * (y*img.width + x)
	return types.Vec4{img.Pix[off], img.Pix[off+1], img.Pix[off+2], img.Pix[off+3]}
}

// Set the pixel at (x, y).
func (img *Image) Set(x, y uint32, c types.Vec4) {
	off := 4 * (y*img.width + x)
	copy(img.Pix[off:off+4], c[:])
}

// Sample the image using wrapped (repeating) nearest neighbor lookup.
func (img *Image) SampleWrapped(u, v float32) types.Vec4 {
	if img.width == 0 || img.height == 0 {
		return types.Vec4{}
	}
	x := wrap(int(u*float32(img.width)), int(img.width))
	y := wrap(int(v*float32(img.height)), int(img.height))
	return img.At(uint32(x), uint32(y))
}

func wrap(v, size int) int {
	v %= size
	if v < 0 {
		v += size
	}
	return v
}

func imageBytes(width, height uint32) uint64 {
	return uint64(width) * uint64(height) * 4 * 4
}
