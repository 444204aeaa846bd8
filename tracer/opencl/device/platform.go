package device

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/achilleasa/gopencl/v1.2/cl"
	"github.com/achilleasa/spheretrace/tracer"
)

const (
	maxPlatforms  = 16
	maxDevices    = 64
	infoValueSize = 1024

	// Returned by clGetPlatformIDs when no ICD is installed.
	errPlatformNotFound cl.ErrorCode = -1001
)

// An opencl platform together with the compute devices it exposes.
type Platform struct {
	Name    string
	Vendor  string
	Version string
	Devices []*Device
}

// Count the devices of the given type.
func (p Platform) DeviceCount(typeMask DeviceType) int {
	n := 0
	for _, d := range p.Devices {
		if d.Type&typeMask == d.Type {
			n++
		}
	}
	return n
}

// Enumerate the installed opencl platforms and their CPU and GPU devices.
// A host without an opencl runtime yields an empty list. Query failures are
// reported as fatal configuration errors.
func GetPlatformInfo() ([]Platform, error) {
	ids := make([]cl.PlatformID, maxPlatforms)
	var count uint32
	errCode := cl.GetPlatformIDs(uint32(len(ids)), &ids[0], &count)
	switch errCode {
	case cl.SUCCESS:
	case errPlatformNotFound:
		return nil, nil
	default:
		return nil, queryError("could not enumerate platforms", errCode)
	}

	platforms := make([]Platform, 0, count)
	for _, id := range ids[:count] {
		pl, err := queryPlatform(id)
		if err != nil {
			return nil, err
		}
		platforms = append(platforms, pl)
	}
	return platforms, nil
}

// Scan all available opencl platforms and select devices that match the given query.
func SelectDevices(typeMask DeviceType, matchName string) ([]*Device, error) {
	platforms, err := GetPlatformInfo()
	if err != nil {
		return nil, err
	}
	var list []*Device
	for _, p := range platforms {
		for _, d := range p.Devices {
			if d.Type&typeMask != d.Type {
				continue
			}
			if matchName != "" && !strings.Contains(d.Name, matchName) {
				continue
			}
			list = append(list, d)
		}
	}
	return list, nil
}

func queryPlatform(id cl.PlatformID) (Platform, error) {
	var (
		pl  Platform
		err error
	)
	for _, field := range []struct {
		param cl.PlatformInfo
		dst   *string
	}{
		{cl.PLATFORM_NAME, &pl.Name},
		{cl.PLATFORM_VENDOR, &pl.Vendor},
		{cl.PLATFORM_VERSION, &pl.Version},
	} {
		if *field.dst, err = platformString(id, field.param); err != nil {
			return pl, err
		}
	}

	for _, kind := range []struct {
		clType  cl.DeviceType
		devType DeviceType
	}{
		{cl.DEVICE_TYPE_CPU, CpuDevice},
		{cl.DEVICE_TYPE_GPU, GpuDevice},
	} {
		devices, err := queryDevices(id, kind.clType, kind.devType)
		if err != nil {
			return pl, fmt.Errorf("opencl platform (%s): %w", pl.Name, err)
		}
		pl.Devices = append(pl.Devices, devices...)
	}
	return pl, nil
}

func queryDevices(id cl.PlatformID, clType cl.DeviceType, devType DeviceType) ([]*Device, error) {
	ids := make([]cl.DeviceId, maxDevices)
	var count uint32
	errCode := cl.GetDeviceIDs(id, clType, uint32(len(ids)), &ids[0], &count)
	switch errCode {
	case cl.SUCCESS:
	case cl.DEVICE_NOT_FOUND:
		return nil, nil
	default:
		return nil, queryError(fmt.Sprintf("could not list %s devices", devType), errCode)
	}

	data := make([]byte, infoValueSize)
	devices := make([]*Device, 0, count)
	for _, devID := range ids[:count] {
		var dataLen uint64
		errCode = cl.GetDeviceInfo(devID, cl.DEVICE_NAME, uint64(len(data)), unsafe.Pointer(&data[0]), &dataLen)
		if errCode != cl.SUCCESS {
			return nil, queryError("could not query device name", errCode)
		}
		dev := &Device{
			Name: clString(data, dataLen),
			Id:   devID,
			Type: devType,
		}
		if err := dev.detectSpeed(); err != nil {
			return nil, fmt.Errorf("%w: %w", tracer.ErrFatalConfiguration, err)
		}
		devices = append(devices, dev)
	}
	return devices, nil
}

func platformString(id cl.PlatformID, param cl.PlatformInfo) (string, error) {
	data := make([]byte, infoValueSize)
	var dataLen uint64
	errCode := cl.GetPlatformInfo(id, param, uint64(len(data)), unsafe.Pointer(&data[0]), &dataLen)
	if errCode != cl.SUCCESS {
		return "", queryError("could not query platform info", errCode)
	}
	return clString(data, dataLen), nil
}

func queryError(msg string, errCode cl.ErrorCode) error {
	return fmt.Errorf("opencl: %w: %s (error: %s; code %d)", tracer.ErrFatalConfiguration, msg, ErrorName(errCode), errCode)
}
