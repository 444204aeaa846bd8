package cpu

import (
	"fmt"

	"github.com/achilleasa/spheretrace/scene"
	"github.com/achilleasa/spheretrace/tracer"
)

// A compute device backed by host memory.
type Device struct {
	// Upper bound for the memory used by buffers and images; 0 disables
	// the limit.
	MemoryLimit uint64

	allocated uint64
	blender   hostBlender
}

// Create a new host device.
func NewDevice(memoryLimit uint64) *Device {
	return &Device{MemoryLimit: memoryLimit}
}

func (d *Device) Name() string {
	return "cpu"
}

// Get the number of bytes currently allocated by device resources.
func (d *Device) Allocated() uint64 {
	return d.allocated
}

// Copy a sphere list into a host buffer.
func (d *Device) NewSphereBuffer(spheres []scene.Sphere) (tracer.Buffer, error) {
	size := uint64(len(spheres)) * scene.SphereStride
	if err := d.alloc(size); err != nil {
		return nil, err
	}

	buf := &SphereBuffer{
		Spheres: make([]scene.Sphere, len(spheres)),
		device:  d,
		bytes:   size,
	}
	copy(buf.Spheres, spheres)
	return buf, nil
}

// Allocate a zero-filled image.
func (d *Device) NewImage(width, height uint32) (tracer.Image, error) {
	img, err := d.newImage(width, height)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// Allocate an image and fill it with the supplied RGBA data.
func (d *Device) NewImageFromData(width, height uint32, rgba []float32) (tracer.Image, error) {
	if uint64(len(rgba)) != uint64(width)*uint64(height)*4 {
		return nil, fmt.Errorf("cpu device: %w: got %d floats for a %dx%d image", tracer.ErrImageSizeMismatch, len(rgba), width, height)
	}
	img, err := d.newImage(width, height)
	if err != nil {
		return nil, err
	}
	copy(img.Pix, rgba)
	return img, nil
}

func (d *Device) Blender() tracer.Blender {
	return d.blender
}

// Close is a no-op for host devices.
func (d *Device) Close() {
}

func (d *Device) newImage(width, height uint32) (*Image, error) {
	if err := d.alloc(imageBytes(width, height)); err != nil {
		return nil, err
	}
	return &Image{
		width:  width,
		height: height,
		Pix:    make([]float32, int(width)*int(height)*4),
		device: d,
	}, nil
}

func (d *Device) alloc(size uint64) error {
	if d.MemoryLimit != 0 && d.allocated+size > d.MemoryLimit {
		return fmt.Errorf("cpu device: %w: cannot allocate %d bytes (%d of %d in use)", tracer.ErrResourceExhausted, size, d.allocated, d.MemoryLimit)
	}
	d.allocated += size
	return nil
}

func (d *Device) free(size uint64) {
	if size > d.allocated {
		size = d.allocated
	}
	d.allocated -= size
}
