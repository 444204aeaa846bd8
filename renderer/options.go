package renderer

import (
	"fmt"

	"github.com/achilleasa/spheretrace/tracer"
)

type Options struct {
	// Frame dims.
	FrameW uint32
	FrameH uint32

	// Stop accumulating once this many samples have been blended. A value
	// of 0 accumulates forever.
	MaxSamples uint32

	// Seed for the sub-pixel jitter generator.
	Seed int64

	// Exposure for tonemapping.
	Exposure float32
}

// Get the default renderer options.
func DefaultOptions() Options {
	return Options{
		FrameW:   1024,
		FrameH:   768,
		Exposure: 1.0,
	}
}

// Validate renderer options.
func (opts Options) Validate() error {
	if opts.FrameW == 0 || opts.FrameH == 0 {
		return fmt.Errorf("%w: %w: frame dimensions must be non-zero; got %dx%d", tracer.ErrFatalConfiguration, ErrInvalidOptions, opts.FrameW, opts.FrameH)
	}
	if !(opts.Exposure > 0) {
		return fmt.Errorf("%w: %w: exposure must be positive; got %f", tracer.ErrFatalConfiguration, ErrInvalidOptions, opts.Exposure)
	}
	return nil
}
