package opencl

import (
	"fmt"

	"github.com/achilleasa/gopencl/v1.2/cl"
	"github.com/achilleasa/spheretrace/scene"
	"github.com/achilleasa/spheretrace/tracer"
	"github.com/achilleasa/spheretrace/tracer/opencl/device"
)

// A float4 image stored in an opencl buffer.
type Image struct {
	buf    *device.Buffer
	width  uint32
	height uint32
}

func (img *Image) Width() uint32 {
	return img.width
}

func (img *Image) Height() uint32 {
	return img.height
}

// Read back image contents (blocks until the copy completes).
func (img *Image) Read(dst []float32) error {
	need := int(img.width) * int(img.height) * 4
	if len(dst) < need {
		return fmt.Errorf("%w: destination holds %d floats; need %d", tracer.ErrImageSizeMismatch, len(dst), need)
	}
	if need == 0 {
		return nil
	}
	return img.buf.ReadData(0, 0, need*4, dst)
}

func (img *Image) Release() {
	if img == nil {
		return
	}
	img.buf.Release()
}

func (img *Image) pixels() uint32 {
	return img.width * img.height
}

// A read-only buffer of sphere records.
type SphereBuffer struct {
	buf   *device.Buffer
	count uint32
}

func (b *SphereBuffer) Count() uint32 {
	return b.count
}

func (b *SphereBuffer) Stride() uint32 {
	return scene.SphereStride
}

func (b *SphereBuffer) Release() {
	if b == nil {
		return
	}
	b.buf.Release()
}

// Upload spheres to the device. Opencl does not support zero-sized buffers
// so empty scenes are backed by a single unused record.
func newSphereBuffer(dev *device.Device, spheres []scene.Sphere) (*SphereBuffer, error) {
	sb := &SphereBuffer{
		buf:   dev.Buffer("spheres"),
		count: uint32(len(spheres)),
	}

	if len(spheres) == 0 {
		if err := sb.buf.Allocate(scene.SphereStride, cl.MEM_READ_ONLY); err != nil {
			return nil, err
		}
		return sb, nil
	}

	if err := sb.buf.AllocateAndWriteData(spheres, cl.MEM_READ_ONLY); err != nil {
		return nil, err
	}
	return sb, nil
}

// Allocate an image and initialize it with data. If data is nil the image
// is cleared.
func newImage(dev *device.Device, name string, width, height uint32, data []float32) (*Image, error) {
	img := &Image{
		buf:    dev.Buffer(name),
		width:  width,
		height: height,
	}

	floats := int(width) * int(height) * 4
	if data != nil && len(data) != floats {
		return nil, fmt.Errorf("opencl device (%s): %w: got %d floats for a %dx%d image", dev.Name, tracer.ErrImageSizeMismatch, len(data), width, height)
	}

	// Zero-sized buffers are not allowed; keep a single texel around.
	if floats == 0 {
		if err := img.buf.Allocate(16, cl.MEM_READ_WRITE); err != nil {
			return nil, err
		}
		return img, nil
	}

	if data == nil {
		data = make([]float32, floats)
	}
	if err := img.buf.AllocateAndWriteData(data, cl.MEM_READ_WRITE); err != nil {
		return nil, err
	}
	return img, nil
}
