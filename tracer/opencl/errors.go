package opencl

import "errors"

var (
	ErrNoSkybox      = errors.New("opencl tracer: no skybox image bound")
	ErrForeignObject = errors.New("opencl tracer: object was not allocated by an opencl device")
)
