package device

import (
	"fmt"

	"github.com/achilleasa/gopencl/v1.2/cl"
	"github.com/achilleasa/spheretrace/tracer"
)

// A compiled opencl program.
type Program struct {
	device *Device
	handle cl.Program
	name   string
}

// Load kernel by name.
func (p *Program) Kernel(name string) (*Kernel, error) {
	var errCode cl.ErrorCode
	kernelHandle := cl.CreateKernel(
		p.handle,
		cl.Str(name+"\x00"),
		(*int32)(&errCode),
	)

	if errCode != cl.SUCCESS {
		return nil, fmt.Errorf("opencl device (%s): %w: could not load kernel %s from %s (error: %s; code %d)", p.device.Name, tracer.ErrFatalConfiguration, name, p.name, ErrorName(errCode), errCode)
	}

	return &Kernel{
		device:       p.device,
		kernelHandle: kernelHandle,
		name:         name,
	}, nil
}

// Release the program.
func (p *Program) Release() {
	if p.handle != nil {
		cl.ReleaseProgram(p.handle)
		p.handle = nil
	}
}

// Convert a NUL-terminated string returned by an opencl info query.
func clString(data []byte, dataLen uint64) string {
	if dataLen == 0 || dataLen > uint64(len(data)) {
		return ""
	}
	return string(data[0 : dataLen-1])
}
