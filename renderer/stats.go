package renderer

import "time"

type FrameStats struct {
	// Index of the sample produced by the frame.
	Sample uint32

	// Number of accumulation restarts since the pipeline was initialized.
	Resets uint32

	// True if the frame was skipped because the sample cap was reached.
	Converged bool

	// Frame resolution and the number of spheres in the scene.
	Width   uint32
	Height  uint32
	Spheres uint32

	DispatchTime time.Duration
	BlendTime    time.Duration
	PresentTime  time.Duration

	// Total render time for entire frame.
	RenderTime time.Duration
}
