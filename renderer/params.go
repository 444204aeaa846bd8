package renderer

import (
	"fmt"

	"github.com/achilleasa/spheretrace/scene"
	"github.com/achilleasa/spheretrace/tracer"
	"github.com/achilleasa/spheretrace/types"
)

// Assemble the kernel arguments for a single frame. The pixel offset
// consumes two values from jitter. The skybox is left for the caller to set.
func BuildFrameParameters(cam Camera, light Light, jitter scene.RandomSource, spheres tracer.Buffer) (tracer.FrameParameters, error) {
	invProj, err := cam.ProjectionMatrix().Inverse()
	if err != nil {
		return tracer.FrameParameters{}, fmt.Errorf("%w: camera projection: %w", tracer.ErrFatalConfiguration, err)
	}

	return tracer.FrameParameters{
		CameraToWorld:           cam.WorldMatrix(),
		CameraInverseProjection: invProj,
		PixelOffset:             types.XY(jitter.Float32(), jitter.Float32()),
		DirectionalLight:        light.Forward().Vec4(light.Intensity()),
		Spheres:                 spheres,
	}, nil
}
