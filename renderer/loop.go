package renderer

import (
	"github.com/achilleasa/spheretrace/log"
	"github.com/achilleasa/spheretrace/tracer"
)

// Classify a frame error. Resource exhaustion only skips the current frame
// so it is logged and swallowed; everything else stops the render loop.
func handleFrameError(logger log.Logger, err error) error {
	if err == nil {
		return nil
	}
	if tracer.IsResourceExhausted(err) {
		logger.Warningf("skipping frame: %s", err.Error())
		return nil
	}
	return err
}
