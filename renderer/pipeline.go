package renderer

import (
	"fmt"
	"time"

	"github.com/achilleasa/spheretrace/asset/texture"
	"github.com/achilleasa/spheretrace/log"
	"github.com/achilleasa/spheretrace/scene"
	"github.com/achilleasa/spheretrace/tracer"
)

// The Pipeline owns the device resources used for rendering a scene and
// drives the per-frame trace, blend and present sequence. All methods must
// be called from the same goroutine.
type Pipeline struct {
	logger  log.Logger
	device  tracer.Device
	kernel  tracer.Kernel
	options Options

	jitter      scene.RandomSource
	accumulator Accumulator

	skybox  tracer.Image
	spheres tracer.Buffer

	// Frame targets; scratch receives the traced sample which is then
	// blended into accum.
	scratch tracer.Image
	accum   tracer.Image

	initialized bool
	stats       FrameStats
}

// Create a new pipeline for the given device and tracing kernel. The
// pipeline takes ownership of both.
func NewPipeline(device tracer.Device, kernel tracer.Kernel, opts Options) *Pipeline {
	return &Pipeline{
		logger:  log.New("pipeline"),
		device:  device,
		kernel:  kernel,
		options: opts,
		jitter:  scene.NewRandomSource(opts.Seed),
	}
}

// Validate the pipeline configuration and upload the skybox. A nil skybox
// selects the default constant sky. The scene starts out empty until
// SetupScene is invoked.
func (p *Pipeline) Init(cam Camera, sky *texture.Texture) error {
	if p.kernel == nil {
		return fmt.Errorf("%w: %w", tracer.ErrFatalConfiguration, ErrNoKernel)
	}
	if err := p.options.Validate(); err != nil {
		return err
	}
	if _, err := cam.ProjectionMatrix().Inverse(); err != nil {
		return fmt.Errorf("%w: camera projection: %w", tracer.ErrFatalConfiguration, err)
	}

	if sky == nil {
		sky = texture.Default()
	}

	var err error
	p.releaseScene()
	p.skybox, err = p.device.NewImageFromData(sky.Width, sky.Height, sky.Data)
	if err != nil {
		return fmt.Errorf("pipeline: could not upload skybox: %w", err)
	}
	p.spheres, err = p.device.NewSphereBuffer(nil)
	if err != nil {
		return fmt.Errorf("pipeline: could not allocate sphere buffer: %w", err)
	}

	p.initialized = true
	p.logger.Debugf("initialized pipeline on device %q (skybox: %dx%d)", p.device.Name(), sky.Width, sky.Height)
	return nil
}

// Upload a new scene. The previous sphere buffer is released before the new
// one is allocated and accumulation restarts on the next frame.
func (p *Pipeline) SetupScene(sc *scene.Scene) error {
	if !p.initialized {
		return ErrNotInitialized
	}

	p.accumulator.Invalidate()
	if p.spheres != nil {
		p.spheres.Release()
		p.spheres = nil
	}

	spheres, err := p.device.NewSphereBuffer(sc.Spheres)
	if err != nil {
		// Keep rendering an empty scene so the caller can retry with a
		// smaller one.
		if empty, emptyErr := p.device.NewSphereBuffer(nil); emptyErr == nil {
			p.spheres = empty
		}
		return fmt.Errorf("pipeline: could not upload %d spheres: %w", len(sc.Spheres), err)
	}
	p.spheres = spheres

	if sc.Options.MaxSpheres != 0 {
		p.logger.Infof(
			"placed %d out of %d requested spheres (%3.1f%%)",
			len(sc.Spheres), sc.Options.MaxSpheres,
			100*float32(len(sc.Spheres))/float32(sc.Options.MaxSpheres),
		)
	}
	return nil
}

// Render a single frame and present the accumulated result. A zero-sized
// surface skips the frame. Allocation failures are reported with
// tracer.ErrResourceExhausted and leave the accumulated image and the sample
// count untouched.
func (p *Pipeline) RenderFrame(cam Camera, light Light, surface Surface) error {
	if !p.initialized {
		return fmt.Errorf("%w: %w", tracer.ErrFatalConfiguration, ErrNotInitialized)
	}

	width, height := surface.Size()
	if width == 0 || height == 0 {
		return nil
	}

	start := time.Now()
	sample, reset := p.accumulator.Observe(cam.WorldMatrix(), width, height)
	if reset {
		p.stats.Resets++
		p.logger.Debugf("restarting accumulation at %dx%d", width, height)
	}

	if p.spheres == nil {
		return fmt.Errorf("pipeline: %w: no sphere buffer bound", tracer.ErrResourceExhausted)
	}
	if err := p.ensureTargets(width, height); err != nil {
		return err
	}

	stats := FrameStats{
		Sample:  sample,
		Resets:  p.stats.Resets,
		Width:   width,
		Height:  height,
		Spheres: p.spheres.Count(),
	}

	if p.options.MaxSamples != 0 && sample >= p.options.MaxSamples {
		stats.Converged = true
		return p.present(surface, stats, start)
	}

	params, err := BuildFrameParameters(cam, light, p.jitter, p.spheres)
	if err != nil {
		return err
	}
	params.Skybox = p.skybox

	tick := time.Now()
	if err = p.kernel.Dispatch(&params, p.scratch, tracer.DispatchGroups(width, height)); err != nil {
		return fmt.Errorf("pipeline: dispatch failed: %w", err)
	}
	stats.DispatchTime = time.Since(tick)

	tick = time.Now()
	if err = p.device.Blender().Blend(p.scratch, p.accum, sample); err != nil {
		return fmt.Errorf("pipeline: blend failed: %w", err)
	}
	stats.BlendTime = time.Since(tick)
	p.accumulator.Commit()

	return p.present(surface, stats, start)
}

func (p *Pipeline) present(surface Surface, stats FrameStats, start time.Time) error {
	tick := time.Now()
	err := surface.Present(p.accum, p.accumulator.SampleCount())
	stats.PresentTime = time.Since(tick)
	stats.RenderTime = time.Since(start)
	p.stats = stats
	if err != nil {
		return fmt.Errorf("pipeline: present failed: %w", err)
	}
	return nil
}

// Make sure that the frame targets match the requested resolution. New
// targets are allocated before the old ones are released so a failed
// allocation keeps the current accumulation intact.
func (p *Pipeline) ensureTargets(width, height uint32) error {
	if p.accum != nil && p.accum.Width() == width && p.accum.Height() == height {
		return nil
	}

	scratch, err := p.device.NewImage(width, height)
	if err != nil {
		return fmt.Errorf("pipeline: could not allocate %dx%d sample image: %w", width, height, err)
	}
	accum, err := p.device.NewImage(width, height)
	if err != nil {
		scratch.Release()
		return fmt.Errorf("pipeline: could not allocate %dx%d accumulation image: %w", width, height, err)
	}

	p.releaseTargets()
	p.scratch, p.accum = scratch, accum
	return nil
}

// Get the accumulation counter.
func (p *Pipeline) Accumulator() *Accumulator {
	return &p.accumulator
}

// Get the statistics for the last rendered frame.
func (p *Pipeline) Stats() FrameStats {
	return p.stats
}

// Release all device resources and close the device.
func (p *Pipeline) Close() {
	p.releaseTargets()
	p.releaseScene()
	if p.kernel != nil {
		p.kernel.Release()
		p.kernel = nil
	}
	if p.device != nil {
		p.device.Close()
		p.device = nil
	}
	p.initialized = false
}

func (p *Pipeline) releaseTargets() {
	if p.scratch != nil {
		p.scratch.Release()
		p.scratch = nil
	}
	if p.accum != nil {
		p.accum.Release()
		p.accum = nil
	}
}

func (p *Pipeline) releaseScene() {
	if p.spheres != nil {
		p.spheres.Release()
		p.spheres = nil
	}
	if p.skybox != nil {
		p.skybox.Release()
		p.skybox = nil
	}
}
