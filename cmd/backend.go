package cmd

import (
	"errors"
	"fmt"

	"github.com/achilleasa/spheretrace/tracer"
	"github.com/achilleasa/spheretrace/tracer/cpu"
	"github.com/achilleasa/spheretrace/tracer/opencl"
	"github.com/achilleasa/spheretrace/tracer/opencl/device"
	"github.com/urfave/cli"
)

// Pick the first opencl device matching one of the names in order. An empty
// list matches any device.
func findDevice(names []string) (*device.Device, error) {
	if len(names) == 0 {
		names = []string{""}
	}

	for _, name := range names {
		devList, err := device.SelectDevices(device.AllDevices, name)
		if err != nil {
			logger.Error(err)
			return nil, err
		}

		if len(devList) != 0 {
			return devList[0], nil
		}
	}

	return nil, fmt.Errorf("%w: no suitable opencl device found", tracer.ErrFatalConfiguration)
}

// Create the compute device and tracing kernel selected by the command flags.
func setupBackend(ctx *cli.Context) (tracer.Device, tracer.Kernel, error) {
	switch ctx.String("device") {
	case "cpu":
		logger.Notice(`using device "cpu"`)
		dev := cpu.NewDevice(ctx.Uint64("memory-limit"))
		return dev, cpu.NewKernel(cpu.PreviewKernel, ctx.Int("workers")), nil
	case "opencl":
		if ctx.String("program") == "" {
			return nil, nil, fmt.Errorf("%w: the opencl device requires a tracing program (--program)", tracer.ErrFatalConfiguration)
		}

		clDev, err := findDevice(ctx.StringSlice("device-name"))
		if err != nil {
			return nil, nil, err
		}
		logger.Noticef(`using device "%s"`, clDev.Name)

		dev, err := opencl.NewDevice(clDev)
		if err != nil {
			return nil, nil, err
		}
		kernel, err := dev.LoadKernel(ctx.String("program"), ctx.String("entry-point"))
		if err != nil {
			dev.Close()
			return nil, nil, err
		}
		return dev, kernel, nil
	}

	return nil, nil, errors.New("unsupported device type; use cpu or opencl")
}
