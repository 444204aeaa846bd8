package opencl

import (
	"fmt"

	"github.com/achilleasa/spheretrace/tracer"
	"github.com/achilleasa/spheretrace/tracer/opencl/device"
)

// The tracing kernel. The program entry point receives the following
// arguments:
//
//	skybox, skyboxW, skyboxH,
//	cameraToWorld, cameraInverseProjection (float16, column-major),
//	pixelOffset (float2), directionalLight (float4),
//	spheres, numSpheres,
//	result, resultW, resultH
type Kernel struct {
	kernel *device.Kernel
}

// Run the kernel and wait for it to complete.
func (k *Kernel) Dispatch(params *tracer.FrameParameters, out tracer.Image, groups [3]uint32) error {
	skybox, ok := params.Skybox.(*Image)
	if !ok {
		return fmt.Errorf("%w: %w", tracer.ErrFatalConfiguration, ErrNoSkybox)
	}
	spheres, ok := params.Spheres.(*SphereBuffer)
	if !ok {
		return fmt.Errorf("%w: spheres (%T)", ErrForeignObject, params.Spheres)
	}
	result, ok := out.(*Image)
	if !ok {
		return fmt.Errorf("%w: result (%T)", ErrForeignObject, out)
	}

	err := k.kernel.SetArgs(
		skybox.buf,
		skybox.width,
		skybox.height,
		params.CameraToWorld,
		params.CameraInverseProjection,
		params.PixelOffset,
		params.DirectionalLight,
		spheres.buf,
		spheres.count,
		result.buf,
		result.width,
		result.height,
	)
	if err != nil {
		return err
	}

	if groups[0] == 0 || groups[1] == 0 || groups[2] == 0 {
		return nil
	}

	_, err = k.kernel.Exec2D(
		0, 0,
		int(groups[0]*tracer.GroupSize), int(groups[1]*tracer.GroupSize),
		tracer.GroupSize, tracer.GroupSize,
	)
	return err
}

func (k *Kernel) Release() {
	k.kernel.Release()
}

// Blends images using the embedded blend kernel.
type blender struct {
	kernel *device.Kernel
}

func (b *blender) Blend(src, dst tracer.Image, n uint32) error {
	srcImg, ok := src.(*Image)
	if !ok {
		return fmt.Errorf("%w: blend source (%T)", ErrForeignObject, src)
	}
	dstImg, ok := dst.(*Image)
	if !ok {
		return fmt.Errorf("%w: blend destination (%T)", ErrForeignObject, dst)
	}
	if srcImg.width != dstImg.width || srcImg.height != dstImg.height {
		return fmt.Errorf(
			"opencl blender: %w: source is %dx%d; destination is %dx%d",
			tracer.ErrImageSizeMismatch, srcImg.width, srcImg.height, dstImg.width, dstImg.height,
		)
	}

	count := dstImg.pixels()
	if count == 0 {
		return nil
	}

	wOld, wNew := tracer.BlendWeights(n)
	err := b.kernel.SetArgs(srcImg.buf, dstImg.buf, count, float32(wOld), float32(wNew))
	if err != nil {
		return err
	}

	_, err = b.kernel.Exec1D(0, int(count), 0)
	return err
}
