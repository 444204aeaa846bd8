package cmd

import (
	"bytes"
	"fmt"
	"runtime"

	"github.com/achilleasa/spheretrace/tracer/opencl/device"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// List available compute devices.
func ListDevices(ctx *cli.Context) error {
	setupLogging(ctx)

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Backend", "Platform", "Device", "Type", "Speed"})
	table.Append([]string{"cpu", "host", "cpu", "CPU", fmt.Sprintf("%d workers", runtime.NumCPU())})

	clPlatforms, err := device.GetPlatformInfo()
	if err != nil {
		logger.Warningf("could not query opencl platforms: %s", err.Error())
	}
	for _, platformInfo := range clPlatforms {
		logger.Debugf(
			"platform %q (%s, %s): %d CPU and %d GPU device(s)",
			platformInfo.Name, platformInfo.Vendor, platformInfo.Version,
			platformInfo.DeviceCount(device.CpuDevice), platformInfo.DeviceCount(device.GpuDevice),
		)
		for _, dev := range platformInfo.Devices {
			table.Append([]string{
				"opencl",
				platformInfo.Name,
				dev.Name,
				dev.Type.String(),
				fmt.Sprintf("%d GFlops", dev.Speed),
			})
		}
	}

	table.Render()
	logger.Noticef("system provides %d opencl platform(s)\n%s", len(clPlatforms), buf.String())
	return nil
}
