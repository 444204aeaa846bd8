package opencl

import (
	_ "embed"
	"fmt"

	"github.com/achilleasa/spheretrace/log"
	"github.com/achilleasa/spheretrace/scene"
	"github.com/achilleasa/spheretrace/tracer"
	"github.com/achilleasa/spheretrace/tracer/opencl/device"
)

const (
	// The default tracing kernel entry point.
	DefaultEntryPoint = "traceSample"

	blendEntryPoint = "blendSample"
)

//go:embed CL/blend.cl
var blendProgramSource string

// A tracer.Device backed by an opencl device.
type Device struct {
	logger log.Logger

	dev     *device.Device
	blender *blender
}

// Initialize an opencl device and build the blend kernel.
func NewDevice(dev *device.Device) (*Device, error) {
	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("%w: %v", tracer.ErrFatalConfiguration, err)
	}

	prog, err := dev.BuildProgram("blend.cl", blendProgramSource, "")
	if err != nil {
		dev.Close()
		return nil, err
	}

	blendKernel, err := prog.Kernel(blendEntryPoint)
	if err != nil {
		dev.Close()
		return nil, err
	}

	d := &Device{
		logger:  log.New(fmt.Sprintf("opencl device (%s)", dev.Name)),
		dev:     dev,
		blender: &blender{kernel: blendKernel},
	}
	d.logger.Debugf("initialized device (%s, %d GFlops)", dev.Type.String(), dev.Speed)
	return d, nil
}

func (d *Device) Name() string {
	return d.dev.Name
}

// Upload spheres to a read-only device buffer.
func (d *Device) NewSphereBuffer(spheres []scene.Sphere) (tracer.Buffer, error) {
	buf, err := newSphereBuffer(d.dev, spheres)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Allocate a cleared float4 image.
func (d *Device) NewImage(width, height uint32) (tracer.Image, error) {
	return d.uploadImage(width, height, nil)
}

// Allocate a float4 image and upload rgba to it.
func (d *Device) NewImageFromData(width, height uint32, rgba []float32) (tracer.Image, error) {
	return d.uploadImage(width, height, rgba)
}

func (d *Device) uploadImage(width, height uint32, rgba []float32) (tracer.Image, error) {
	img, err := newImage(d.dev, "image", width, height, rgba)
	if err != nil {
		return nil, err
	}
	return img, nil
}

func (d *Device) Blender() tracer.Blender {
	return d.blender
}

// Load the tracing kernel entry point from a program file.
func (d *Device) LoadKernel(programFile, entryPoint string) (*Kernel, error) {
	if programFile == "" {
		return nil, fmt.Errorf("opencl device (%s): %w: no tracing program specified", d.dev.Name, tracer.ErrFatalConfiguration)
	}
	if entryPoint == "" {
		entryPoint = DefaultEntryPoint
	}

	prog, err := d.dev.LoadProgram(programFile)
	if err != nil {
		return nil, err
	}

	k, err := prog.Kernel(entryPoint)
	if err != nil {
		return nil, err
	}

	d.logger.Infof("loaded kernel %s from %s", entryPoint, programFile)
	return &Kernel{kernel: k}, nil
}

// Shut down the device.
func (d *Device) Close() {
	if d.blender != nil {
		d.blender.kernel.Release()
		d.blender = nil
	}
	d.dev.Close()
}
