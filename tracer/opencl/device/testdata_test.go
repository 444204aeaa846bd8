package device

import "testing"

// Kernels used by the device tests.
const testProgram = `
__kernel void square(__global int *in, __global int *out, const uint count){
	uint i = get_global_id(0);
	if (i < count) {
		out[i] = in[i] * in[i];
	}
}

__kernel void mapBlock(__global int *out, const uint width, const uint height){
	uint x = get_global_id(0);
	uint y = get_global_id(1);
	if (x >= width || y >= height) {
		return;
	}
	out[y * width + x] = y * width + x;
}

__kernel void mat4Row(const float16 m, const uint row, __global float *out){
	uint col = get_global_id(0);
	float vals[16];
	vstore16(m, 0, vals);
	out[col] = vals[col * 4 + row];
}
`

// Select the first available opencl device or skip the test.
func createTestDevice(t *testing.T) *Device {
	devList, err := SelectDevices(AllDevices, "")
	if err != nil || len(devList) == 0 {
		t.Skip("no opencl devices available")
	}

	dev := devList[0]
	if err = dev.Init(); err != nil {
		t.Fatalf("error initializing device '%s': %v", dev.Name, err)
	}
	return dev
}

// Build the test program or fail the test.
func createTestProgram(t *testing.T, dev *Device) *Program {
	prog, err := dev.BuildProgram("test", testProgram, "")
	if err != nil {
		t.Fatal(err)
	}
	return prog
}
