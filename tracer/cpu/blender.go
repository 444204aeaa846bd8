package cpu

import (
	"fmt"

	"github.com/achilleasa/spheretrace/tracer"
)

// Blends host images using a float64 running mean.
type hostBlender struct{}

func (hostBlender) Blend(src, dst tracer.Image, n uint32) error {
	srcImg, ok := src.(*Image)
	if !ok {
		return fmt.Errorf("cpu blender: source is not a host image (%T)", src)
	}
	dstImg, ok := dst.(*Image)
	if !ok {
		return fmt.Errorf("cpu blender: destination is not a host image (%T)", dst)
	}
	if srcImg.width != dstImg.width || srcImg.height != dstImg.height {
		return fmt.Errorf(
			"cpu blender: %w: source is %dx%d; destination is %dx%d",
			tracer.ErrImageSizeMismatch, srcImg.width, srcImg.height, dstImg.width, dstImg.height,
		)
	}

	wOld, wNew := tracer.BlendWeights(n)
	for i, v := range srcImg.Pix {
		dstImg.Pix[i] = float32(float64(dstImg.Pix[i])*wOld + float64(v)*wNew)
	}
	return nil
}
