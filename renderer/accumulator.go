package renderer

import "github.com/achilleasa/spheretrace/types"

type AccumulationState uint8

const (
	// No samples have been blended since the last reset.
	Reset AccumulationState = iota

	// At least one sample has been blended into the accumulation buffer.
	Accumulating
)

func (s AccumulationState) String() string {
	switch s {
	case Accumulating:
		return "Accumulating"
	default:
		return "Reset"
	}
}

// Tracks the number of samples blended into the accumulation buffer and
// restarts the count whenever the camera transform or the output resolution
// changes.
type Accumulator struct {
	sampleCount uint32

	observed     bool
	transform    types.Mat4
	width        uint32
	height       uint32
	pendingReset bool
}

// Compare the camera transform and resolution against the previous frame.
// Returns the sample index to use for the frame and whether the
// accumulation was restarted.
func (a *Accumulator) Observe(transform types.Mat4, width, height uint32) (sample uint32, reset bool) {
	changed := a.pendingReset
	if a.observed && (transform != a.transform || width != a.width || height != a.height) {
		changed = true
	}

	a.observed = true
	a.transform = transform
	a.width, a.height = width, height
	a.pendingReset = false

	if changed {
		a.sampleCount = 0
	}
	return a.sampleCount, changed
}

// Record a successfully blended sample.
func (a *Accumulator) Commit() {
	a.sampleCount++
}

// Restart accumulation. The next Observe call reports a reset unless no
// frame has been observed yet.
func (a *Accumulator) Invalidate() {
	a.sampleCount = 0
	a.pendingReset = a.observed
}

func (a *Accumulator) SampleCount() uint32 {
	return a.sampleCount
}

// Get the resolution recorded by the last Observe call.
func (a *Accumulator) Resolution() (width, height uint32) {
	return a.width, a.height
}

func (a *Accumulator) State() AccumulationState {
	if a.sampleCount == 0 {
		return Reset
	}
	return Accumulating
}
