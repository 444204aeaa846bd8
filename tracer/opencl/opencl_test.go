package opencl

import (
	"errors"
	"math"
	"path"
	"runtime"
	"testing"

	"github.com/achilleasa/spheretrace/scene"
	"github.com/achilleasa/spheretrace/tracer"
	"github.com/achilleasa/spheretrace/tracer/opencl/device"
	"github.com/achilleasa/spheretrace/types"
)

const relativePathToPreviewKernel = "CL/preview.cl"

func createTestDevice(t *testing.T) *Device {
	devList, err := device.SelectDevices(device.AllDevices, "")
	if err != nil || len(devList) == 0 {
		t.Skip("no opencl devices available")
	}

	dev, err := NewDevice(devList[0])
	if err != nil {
		t.Fatal(err)
	}
	return dev
}

func previewKernelPath() string {
	_, thisFile, _, _ := runtime.Caller(0)
	return path.Join(path.Dir(thisFile), relativePathToPreviewKernel)
}

func TestReleaseNilResources(t *testing.T) {
	var (
		img *Image
		buf *SphereBuffer
	)
	img.Release()
	buf.Release()
}

func TestBlend(t *testing.T) {
	dev := createTestDevice(t)
	defer dev.Close()

	accum, err := dev.NewImage(2, 1)
	if err != nil {
		t.Fatal(err)
	}
	defer accum.Release()

	values := []float32{2, 4, 6, 8}
	for n, v := range values {
		sample, err := dev.NewImageFromData(2, 1, []float32{v, v, v, 1, -v, 0, 0, 1})
		if err != nil {
			t.Fatal(err)
		}
		if err = dev.Blender().Blend(sample, accum, uint32(n)); err != nil {
			t.Fatal(err)
		}
		sample.Release()
	}

	out := make([]float32, 8)
	if err = accum.Read(out); err != nil {
		t.Fatal(err)
	}
	exp := []float32{5, 5, 5, 1, -5, 0, 0, 1}
	for i := range exp {
		if math.Abs(float64(out[i]-exp[i])) > 1e-5 {
			t.Fatalf("expected accumulated value %f at %d; got %f", exp[i], i, out[i])
		}
	}
}

func TestDispatchPreviewKernel(t *testing.T) {
	dev := createTestDevice(t)
	defer dev.Close()

	kernel, err := dev.LoadKernel(previewKernelPath(), "")
	if err != nil {
		t.Fatal(err)
	}
	defer kernel.Release()

	cam := scene.NewCamera(60)
	cam.Position = types.XYZ(0, 5, 20)
	cam.LookAt = types.XYZ(0, 5, 0)
	cam.SetupProjection(1)
	invProj, err := cam.ProjectionMatrix().Inverse()
	if err != nil {
		t.Fatal(err)
	}

	type spec struct {
		spheres []scene.Sphere
		exp     types.Vec3
	}
	specs := []spec{
		{
			[]scene.Sphere{{Position: types.XYZ(0, 5, 0), Radius: 5, Albedo: types.XYZ(1, 0, 0), Specular: types.XYZ(0.04, 0.04, 0.04)}},
			types.XYZ(1.04, 0.04, 0.04),
		},
		// Empty scenes see the skybox.
		{nil, types.XYZ(0, 0, 1)},
	}

	skybox, err := dev.NewImageFromData(1, 1, []float32{0, 0, 1, 1})
	if err != nil {
		t.Fatal(err)
	}
	defer skybox.Release()

	for index, s := range specs {
		spheres, err := dev.NewSphereBuffer(s.spheres)
		if err != nil {
			t.Fatal(err)
		}
		if spheres.Count() != uint32(len(s.spheres)) {
			t.Fatalf("[spec %d] expected sphere count %d; got %d", index, len(s.spheres), spheres.Count())
		}

		out, err := dev.NewImage(9, 9)
		if err != nil {
			t.Fatal(err)
		}

		params := &tracer.FrameParameters{
			Skybox:                  skybox,
			CameraToWorld:           cam.WorldMatrix(),
			CameraInverseProjection: invProj,
			PixelOffset:             types.XY(0.5, 0.5),
			DirectionalLight:        types.XYZW(0, -1, 0, 1),
			Spheres:                 spheres,
		}
		if err = kernel.Dispatch(params, out, tracer.DispatchGroups(9, 9)); err != nil {
			t.Fatalf("[spec %d] %v", index, err)
		}

		pix := make([]float32, 9*9*4)
		if err = out.Read(pix); err != nil {
			t.Fatal(err)
		}
		off := 4 * (4*9 + 4)
		got := types.XYZ(pix[off], pix[off+1], pix[off+2])
		if !types.ApproxEqual(got, s.exp, 1e-4) {
			t.Fatalf("[spec %d] expected center pixel %v; got %v", index, s.exp, got)
		}

		out.Release()
		spheres.Release()
	}
}

func TestDispatchWithoutSkybox(t *testing.T) {
	dev := createTestDevice(t)
	defer dev.Close()

	kernel, err := dev.LoadKernel(previewKernelPath(), DefaultEntryPoint)
	if err != nil {
		t.Fatal(err)
	}
	defer kernel.Release()

	out, _ := dev.NewImage(8, 8)
	defer out.Release()
	spheres, _ := dev.NewSphereBuffer(nil)
	defer spheres.Release()

	err = kernel.Dispatch(&tracer.FrameParameters{Spheres: spheres}, out, tracer.DispatchGroups(8, 8))
	if !tracer.IsFatal(err) || !errors.Is(err, ErrNoSkybox) {
		t.Fatalf("expected fatal ErrNoSkybox; got %v", err)
	}
}

func TestLoadKernelErrors(t *testing.T) {
	dev := createTestDevice(t)
	defer dev.Close()

	if _, err := dev.LoadKernel("", ""); !tracer.IsFatal(err) {
		t.Fatalf("expected fatal error for missing program; got %v", err)
	}
	if _, err := dev.LoadKernel(previewKernelPath(), "missingEntryPoint"); !tracer.IsFatal(err) {
		t.Fatalf("expected fatal error for missing entry point; got %v", err)
	}
}
