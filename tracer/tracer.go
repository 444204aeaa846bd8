package tracer

import (
	"github.com/achilleasa/spheretrace/scene"
	"github.com/achilleasa/spheretrace/types"
)

// The tracing kernel runs in thread groups of GroupSize x GroupSize pixels.
const GroupSize = 8

// A 2D float RGBA image living in device memory.
type Image interface {
	// Image dimensions in pixels.
	Width() uint32
	Height() uint32

	// Copy the image contents (4 float32 per pixel, row-major) into dst.
	Read(dst []float32) error

	// Release the image.
	Release()
}

// A read-only structured buffer living in device memory.
type Buffer interface {
	// Number of records in the buffer.
	Count() uint32

	// Size of each record in bytes.
	Stride() uint32

	// Release the buffer.
	Release()
}

// The set of arguments passed to the tracing kernel for a single frame.
type FrameParameters struct {
	// Environment map sampled by rays that escape the scene.
	Skybox Image

	CameraToWorld           types.Mat4
	CameraInverseProjection types.Mat4

	// Sub-pixel jitter in [0, 1)^2.
	PixelOffset types.Vec2

	// Light direction (xyz) and intensity (w).
	DirectionalLight types.Vec4

	Spheres Buffer
}

// A compute device that can host scene data and images.
type Device interface {
	// Get the device name.
	Name() string

	// Upload a sphere list to a device buffer. An empty list yields a
	// buffer with a zero count.
	NewSphereBuffer(spheres []scene.Sphere) (Buffer, error)

	// Allocate a zero-initialized image.
	NewImage(width, height uint32) (Image, error)

	// Allocate an image and initialize it with RGBA float data.
	NewImageFromData(width, height uint32, rgba []float32) (Image, error)

	// Get the blender for images allocated by this device.
	Blender() Blender

	// Shutdown and cleanup device.
	Close()
}

// The ray tracing kernel. Dispatch blocks until the kernel has finished
// writing out.
type Kernel interface {
	Dispatch(params *FrameParameters, out Image, groups [3]uint32) error

	// Release kernel resources.
	Release()
}

// Merges a freshly traced sample into the accumulation buffer.
type Blender interface {
	// Blend src into dst using the running mean for sample index n:
	// dst = dst * n/(n+1) + src * 1/(n+1).
	Blend(src, dst Image, n uint32) error
}

// Get the number of thread groups needed to cover a width x height image.
func DispatchGroups(width, height uint32) [3]uint32 {
	return [3]uint32{
		(width + GroupSize - 1) / GroupSize,
		(height + GroupSize - 1) / GroupSize,
		1,
	}
}
