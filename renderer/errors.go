package renderer

import "errors"

var (
	ErrInvalidOptions = errors.New("renderer: invalid options")
	ErrNotInitialized = errors.New("renderer: pipeline not initialized")
	ErrNoKernel       = errors.New("renderer: no tracing kernel")
	ErrInterrupted    = errors.New("renderer: interrupted while rendering")
)
