package cpu

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/achilleasa/spheretrace/scene"
	"github.com/achilleasa/spheretrace/tracer"
	"github.com/achilleasa/spheretrace/types"
)

func TestDeviceAllocation(t *testing.T) {
	dev := NewDevice(2 * imageBytes(4, 4))

	img1, err := dev.NewImage(4, 4)
	if err != nil {
		t.Fatal(err)
	}
	img2, err := dev.NewImage(4, 4)
	if err != nil {
		t.Fatal(err)
	}
	if dev.Allocated() != 2*imageBytes(4, 4) {
		t.Fatalf("expected %d allocated bytes; got %d", 2*imageBytes(4, 4), dev.Allocated())
	}

	failed, err := dev.NewImage(1, 1)
	if !errors.Is(err, tracer.ErrResourceExhausted) {
		t.Fatalf("expected ErrResourceExhausted; got %v", err)
	}
	if failed != nil {
		t.Fatalf("expected a nil image for a failed allocation; got %T", failed)
	}
	if failed, err = dev.NewImageFromData(1, 1, make([]float32, 4)); err == nil || failed != nil {
		t.Fatalf("expected a nil image and an error; got %T, %v", failed, err)
	}
	if buf, err := dev.NewSphereBuffer(make([]scene.Sphere, 1)); err == nil || buf != nil {
		t.Fatalf("expected a nil buffer and an error; got %T, %v", buf, err)
	}

	// Releasing nil resources is a no-op
	(*Image)(nil).Release()
	(*SphereBuffer)(nil).Release()

	img1.Release()
	img1.Release()
	if dev.Allocated() != imageBytes(4, 4) {
		t.Fatalf("expected release to free image memory once; got %d allocated bytes", dev.Allocated())
	}

	if _, err = dev.NewImage(2, 2); err != nil {
		t.Fatalf("expected allocation to succeed after release; got %v", err)
	}
	img2.Release()
}

func TestSphereBuffer(t *testing.T) {
	dev := NewDevice(0)

	spheres := []scene.Sphere{
		{Position: types.XYZ(0, 1, 0), Radius: 1},
		{Position: types.XYZ(5, 2, 0), Radius: 2},
	}
	buf, err := dev.NewSphereBuffer(spheres)
	if err != nil {
		t.Fatal(err)
	}
	if buf.Count() != 2 || buf.Stride() != scene.SphereStride {
		t.Fatalf("expected count 2 and stride %d; got %d and %d", scene.SphereStride, buf.Count(), buf.Stride())
	}
	spheres[0].Radius = 10
	if buf.(*SphereBuffer).Spheres[0].Radius != 1 {
		t.Fatal("expected buffer to hold a copy of the sphere list")
	}
	buf.Release()
	if dev.Allocated() != 0 {
		t.Fatalf("expected all memory to be released; got %d bytes", dev.Allocated())
	}

	empty, err := dev.NewSphereBuffer(nil)
	if err != nil {
		t.Fatal(err)
	}
	if empty.Count() != 0 {
		t.Fatalf("expected empty buffer; got count %d", empty.Count())
	}
}

func TestNewImageFromData(t *testing.T) {
	dev := NewDevice(0)

	if _, err := dev.NewImageFromData(2, 2, make([]float32, 3)); !errors.Is(err, tracer.ErrImageSizeMismatch) {
		t.Fatalf("expected ErrImageSizeMismatch; got %v", err)
	}

	data := []float32{1, 2, 3, 4, 5, 6, 7, 8}
	img, err := dev.NewImageFromData(2, 1, data)
	if err != nil {
		t.Fatal(err)
	}
	if c := img.(*Image).At(1, 0); c != types.XYZW(5, 6, 7, 8) {
		t.Fatalf("expected pixel (1, 0) to be (5, 6, 7, 8); got %v", c)
	}

	out := make([]float32, 8)
	if err = img.Read(out); err != nil {
		t.Fatal(err)
	}
	for i := range data {
		if out[i] != data[i] {
			t.Fatalf("expected read back value %f at %d; got %f", data[i], i, out[i])
		}
	}
	if err = img.Read(make([]float32, 2)); !errors.Is(err, tracer.ErrImageSizeMismatch) {
		t.Fatalf("expected ErrImageSizeMismatch for short destination; got %v", err)
	}
}

func TestHostBlender(t *testing.T) {
	dev := NewDevice(0)
	accum, _ := dev.NewImage(1, 1)
	sample, _ := dev.NewImage(1, 1)

	values := []float32{1, 3, 5, 7}
	for n, v := range values {
		sample.(*Image).Set(0, 0, types.XYZW(v, 2*v, 0, 1))
		if err := dev.Blender().Blend(sample, accum, uint32(n)); err != nil {
			t.Fatal(err)
		}
	}

	got := accum.(*Image).At(0, 0)
	if math.Abs(float64(got[0])-4) > 1e-5 || math.Abs(float64(got[1])-8) > 1e-5 || got[3] != 1 {
		t.Fatalf("expected running mean (4, 8, 0, 1); got %v", got)
	}

	// The first sample replaces whatever the accumulation buffer holds.
	sample.(*Image).Set(0, 0, types.XYZW(9, 9, 9, 1))
	if err := dev.Blender().Blend(sample, accum, 0); err != nil {
		t.Fatal(err)
	}
	if got = accum.(*Image).At(0, 0); got != types.XYZW(9, 9, 9, 1) {
		t.Fatalf("expected blend with n=0 to overwrite accumulation; got %v", got)
	}

	other, _ := dev.NewImage(2, 1)
	if err := dev.Blender().Blend(other, accum, 1); !errors.Is(err, tracer.ErrImageSizeMismatch) {
		t.Fatalf("expected ErrImageSizeMismatch; got %v", err)
	}
}

func TestHostBlenderHighSampleCount(t *testing.T) {
	const (
		samples   = 100000
		tolerance = 1e-3
	)

	dev := NewDevice(0)
	accum, _ := dev.NewImage(2, 1)
	sample, _ := dev.NewImage(2, 1)
	pix := sample.(*Image).Pix

	rng := rand.New(rand.NewSource(42))
	sums := make([]float64, len(pix))
	for n := 0; n < samples; n++ {
		for i := range pix {
			// Channels cover small, unit and large ranges.
			pix[i] = rng.Float32() * float32(math.Pow(10, float64(i%4-1)))
			sums[i] += float64(pix[i])
		}
		if err := dev.Blender().Blend(sample, accum, uint32(n)); err != nil {
			t.Fatal(err)
		}
	}

	for i, got := range accum.(*Image).Pix {
		exp := sums[i] / samples
		if relErr := math.Abs(float64(got)-exp) / exp; relErr > tolerance {
			t.Fatalf("channel %d: expected mean %f after %d samples; got %f (relative error %g)", i, exp, samples, got, relErr)
		}
	}
}
