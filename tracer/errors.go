package tracer

import "errors"

var (
	// Unrecoverable setup errors such as a missing tracing program or a
	// degenerate camera projection.
	ErrFatalConfiguration = errors.New("tracer: fatal configuration error")

	// Device memory could not be allocated. The current frame should be
	// skipped.
	ErrResourceExhausted = errors.New("tracer: device resources exhausted")

	ErrImageSizeMismatch = errors.New("tracer: image dimensions do not match")
)

// Returns true if err is caused by a fatal configuration error.
func IsFatal(err error) bool {
	return errors.Is(err, ErrFatalConfiguration)
}

// Returns true if err is caused by a device allocation failure.
func IsResourceExhausted(err error) bool {
	return errors.Is(err, ErrResourceExhausted)
}
