package renderer

import (
	"fmt"
	"time"

	"github.com/achilleasa/spheretrace/log"
)

var logger = log.New("renderer")

// Number of consecutive skipped frames tolerated by the frame renderer.
const maxSkippedFrames = 5

// A headless renderer that accumulates a fixed number of samples into a
// memory surface.
type frameRenderer struct {
	pipeline *Pipeline
	camera   Camera
	light    Light
	surface  *MemorySurface
	samples  uint32
}

// Create a renderer that produces a single still frame with opts.MaxSamples
// samples (at least one).
func NewFrameRenderer(pipeline *Pipeline, cam Camera, light Light, opts Options) (Renderer, *MemorySurface) {
	samples := opts.MaxSamples
	if samples == 0 {
		samples = 1
	}
	surface := NewMemorySurface(opts.FrameW, opts.FrameH)
	return &frameRenderer{
		pipeline: pipeline,
		camera:   cam,
		light:    light,
		surface:  surface,
		samples:  samples,
	}, surface
}

func (r *frameRenderer) Render() error {
	logger.Noticef("rendering %dx%d frame with %d samples", r.surface.width, r.surface.height, r.samples)
	start := time.Now()

	var skipped int
	for r.pipeline.Accumulator().SampleCount() < r.samples {
		before := r.pipeline.Accumulator().SampleCount()
		err := r.pipeline.RenderFrame(r.camera, r.light, r.surface)
		if err = handleFrameError(logger, err); err != nil {
			return err
		}

		if r.pipeline.Accumulator().SampleCount() == before {
			skipped++
			if skipped == maxSkippedFrames {
				return fmt.Errorf("renderer: giving up after %d skipped frames", skipped)
			}
			continue
		}
		skipped = 0

		if count := r.pipeline.Accumulator().SampleCount(); count%16 == 0 {
			logger.Debugf("accumulated %d/%d samples", count, r.samples)
		}
	}

	logger.Noticef("rendered frame in %d ms", time.Since(start).Nanoseconds()/1000000)
	return nil
}

func (r *frameRenderer) Close() {
	r.pipeline.Close()
}

func (r *frameRenderer) Stats() FrameStats {
	return r.pipeline.Stats()
}
