package renderer

import (
	"github.com/achilleasa/spheretrace/tracer"
	"github.com/achilleasa/spheretrace/types"
)

type Renderer interface {
	// Render frames until the renderer is done or a fatal error occurs.
	Render() error

	// Shutdown renderer and release the pipeline.
	Close()

	// Get render statistics for the last frame.
	Stats() FrameStats
}

// The camera state consumed by the pipeline. The world matrix is polled
// once per frame and any change restarts accumulation.
type Camera interface {
	WorldMatrix() types.Mat4
	ProjectionMatrix() types.Mat4
}

// A directional light.
type Light interface {
	Forward() types.Vec3
	Intensity() float32
}

// A presentation target for the accumulated image.
type Surface interface {
	// Current drawable size in pixels.
	Size() (width, height uint32)

	// Display the accumulated image. The image is only valid for the
	// duration of the call.
	Present(img tracer.Image, sampleCount uint32) error
}
