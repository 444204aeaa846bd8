package renderer

import (
	"errors"
	"math"
	"testing"

	"github.com/achilleasa/spheretrace/asset/texture"
	"github.com/achilleasa/spheretrace/scene"
	"github.com/achilleasa/spheretrace/tracer"
	"github.com/achilleasa/spheretrace/tracer/cpu"
	"github.com/achilleasa/spheretrace/types"
)

func createTestPipeline(t *testing.T, dev tracer.Device, kernel tracer.Kernel, opts Options) *Pipeline {
	p := NewPipeline(dev, kernel, opts)
	if err := p.Init(newMockCamera(), nil); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestPipelineStationaryAndMovingCamera(t *testing.T) {
	kernel := &mockKernel{value: 0.5}
	p := createTestPipeline(t, cpu.NewDevice(0), kernel, DefaultOptions())
	defer p.Close()

	cam := newMockCamera()
	surface := &mockSurface{width: 16, height: 12}
	for frame := uint32(0); frame < 10; frame++ {
		if err := p.RenderFrame(cam, mockLight{}, surface); err != nil {
			t.Fatal(err)
		}
		if got := p.Stats().Sample; got != frame {
			t.Fatalf("[frame %d] expected sample index %d; got %d", frame, frame, got)
		}
		if got := surface.presented[frame]; got != frame+1 {
			t.Fatalf("[frame %d] expected presented sample count %d; got %d", frame, frame+1, got)
		}
	}
	if p.Stats().Resets != 0 {
		t.Fatalf("expected no resets for a stationary camera; got %d", p.Stats().Resets)
	}

	// Move camera
	cam.world = types.LookAtV(types.XYZ(1, 2, 3), types.XYZ(0, 0, 0), types.XYZ(0, 1, 0))
	if err := p.RenderFrame(cam, mockLight{}, surface); err != nil {
		t.Fatal(err)
	}
	if stats := p.Stats(); stats.Sample != 0 || stats.Resets != 1 {
		t.Fatalf("expected camera move to restart accumulation; got sample %d, resets %d", stats.Sample, stats.Resets)
	}
}

func TestPipelineRunningMean(t *testing.T) {
	dev := cpu.NewDevice(0)
	var frameValue float32
	kernel := cpu.NewKernel(func(_ *tracer.FrameParameters, _, _, _, _ uint32) types.Vec4 {
		return types.XYZW(frameValue, frameValue, frameValue, 1)
	}, 2)
	p := createTestPipeline(t, dev, kernel, DefaultOptions())
	defer p.Close()

	cam := newMockCamera()
	surface := NewMemorySurface(9, 7)
	for frame := 0; frame < 4; frame++ {
		frameValue = float32(frame)
		if err := p.RenderFrame(cam, mockLight{}, surface); err != nil {
			t.Fatal(err)
		}
	}

	// mean(0, 1, 2, 3)
	for i, v := range surface.Pixels {
		exp := 1.5
		if i%4 == 3 {
			exp = 1
		}
		if math.Abs(float64(v)-exp) > 1e-5 {
			t.Fatalf("expected channel %d to be %f; got %f", i, exp, v)
		}
	}
	if surface.SampleCount != 4 {
		t.Fatalf("expected sample count 4; got %d", surface.SampleCount)
	}
}

func TestPipelineDispatchGroups(t *testing.T) {
	type spec struct {
		w, h uint32
		exp  [3]uint32
	}
	specs := []spec{
		{8, 8, [3]uint32{1, 1, 1}},
		{13, 9, [3]uint32{2, 2, 1}},
		{1920, 1080, [3]uint32{240, 135, 1}},
	}

	for index, s := range specs {
		kernel := &mockKernel{}
		p := createTestPipeline(t, cpu.NewDevice(0), kernel, DefaultOptions())
		if err := p.RenderFrame(newMockCamera(), mockLight{}, &mockSurface{width: s.w, height: s.h}); err != nil {
			t.Fatal(err)
		}
		if kernel.lastGroups != s.exp {
			t.Fatalf("[spec %d] expected groups %v for a %dx%d frame; got %v", index, s.exp, s.w, s.h, kernel.lastGroups)
		}
		if kernel.lastParams.Skybox == nil || kernel.lastParams.Spheres == nil {
			t.Fatalf("[spec %d] expected skybox and sphere buffer to be bound", index)
		}
		p.Close()
		if !kernel.released {
			t.Fatalf("[spec %d] expected Close to release the kernel", index)
		}
	}
}

func TestPipelineMaxSamples(t *testing.T) {
	kernel := &mockKernel{value: 1}
	opts := DefaultOptions()
	opts.MaxSamples = 3
	p := createTestPipeline(t, cpu.NewDevice(0), kernel, opts)
	defer p.Close()

	surface := &mockSurface{width: 8, height: 8}
	for frame := 0; frame < 5; frame++ {
		if err := p.RenderFrame(newMockCamera(), mockLight{}, surface); err != nil {
			t.Fatal(err)
		}
		if expConverged := frame >= 3; p.Stats().Converged != expConverged {
			t.Fatalf("[frame %d] expected converged to be %t", frame, expConverged)
		}
	}

	if kernel.dispatches != 3 {
		t.Fatalf("expected 3 dispatches; got %d", kernel.dispatches)
	}
	if len(surface.presented) != 5 {
		t.Fatalf("expected every frame to be presented; got %d presents", len(surface.presented))
	}
	if last := surface.presented[4]; last != 3 {
		t.Fatalf("expected converged frames to present 3 samples; got %d", last)
	}
}

func TestPipelineZeroSizedSurface(t *testing.T) {
	kernel := &mockKernel{}
	p := createTestPipeline(t, cpu.NewDevice(0), kernel, DefaultOptions())
	defer p.Close()

	surface := &mockSurface{width: 0, height: 10}
	if err := p.RenderFrame(newMockCamera(), mockLight{}, surface); err != nil {
		t.Fatalf("expected zero-sized surface to be skipped; got %v", err)
	}
	if kernel.dispatches != 0 || len(surface.presented) != 0 {
		t.Fatal("expected no work for a zero-sized surface")
	}
}

func TestPipelineDispatchExhaustion(t *testing.T) {
	dev := cpu.NewDevice(0)
	kernel := &mockKernel{value: 0.25}
	p := createTestPipeline(t, dev, kernel, DefaultOptions())
	defer p.Close()

	cam := newMockCamera()
	surface := NewMemorySurface(8, 8)
	for frame := 0; frame < 3; frame++ {
		if err := p.RenderFrame(cam, mockLight{}, surface); err != nil {
			t.Fatal(err)
		}
	}

	kernel.err = tracer.ErrResourceExhausted
	kernel.value = 1
	err := p.RenderFrame(cam, mockLight{}, surface)
	if !tracer.IsResourceExhausted(err) {
		t.Fatalf("expected a resource exhaustion error; got %v", err)
	}
	if got := p.Accumulator().SampleCount(); got != 3 {
		t.Fatalf("expected sample count to stay at 3; got %d", got)
	}

	kernel.err = nil
	if err = p.RenderFrame(cam, mockLight{}, surface); err != nil {
		t.Fatal(err)
	}
	// (0.25 * 3 + 1) / 4
	if v := surface.Pixels[0]; math.Abs(float64(v)-0.4375) > 1e-5 {
		t.Fatalf("expected skipped frame to leave accumulation intact; got %f", v)
	}
}

func TestPipelineAllocationFailure(t *testing.T) {
	// Room for the default skybox and two 8x8 targets
	dev := cpu.NewDevice(16 + 2*8*8*16)
	kernel := &mockKernel{value: 1}
	p := createTestPipeline(t, dev, kernel, DefaultOptions())
	defer p.Close()

	cam := newMockCamera()
	surface := &mockSurface{width: 8, height: 8}
	for frame := 0; frame < 2; frame++ {
		if err := p.RenderFrame(cam, mockLight{}, surface); err != nil {
			t.Fatal(err)
		}
	}
	allocated := dev.Allocated()

	surface.width, surface.height = 16, 16
	err := p.RenderFrame(cam, mockLight{}, surface)
	if !tracer.IsResourceExhausted(err) {
		t.Fatalf("expected a resource exhaustion error; got %v", err)
	}
	if dev.Allocated() != allocated {
		t.Fatalf("expected failed allocation to keep existing targets (%d bytes); got %d bytes", allocated, dev.Allocated())
	}
	if kernel.dispatches != 2 || len(surface.presented) != 2 {
		t.Fatal("expected the frame to be skipped")
	}

	// Shrinking back works with the existing targets
	surface.width, surface.height = 8, 8
	if err = p.RenderFrame(cam, mockLight{}, surface); err != nil {
		t.Fatal(err)
	}
	if stats := p.Stats(); stats.Sample != 0 {
		t.Fatalf("expected resolution change to restart accumulation; got sample %d", stats.Sample)
	}
}

func TestPipelineSetupScene(t *testing.T) {
	dev := cpu.NewDevice(0)
	p := createTestPipeline(t, dev, &mockKernel{}, DefaultOptions())
	defer p.Close()
	base := dev.Allocated()

	opts := scene.DefaultOptions()
	opts.Seed = 3
	sc1, err := scene.New(opts)
	if err != nil {
		t.Fatal(err)
	}
	opts.MaxSpheres = 10
	sc2, err := scene.New(opts)
	if err != nil {
		t.Fatal(err)
	}

	if err = p.SetupScene(sc1); err != nil {
		t.Fatal(err)
	}
	if exp := base + uint64(len(sc1.Spheres)*scene.SphereStride); dev.Allocated() != exp {
		t.Fatalf("expected %d allocated bytes; got %d", exp, dev.Allocated())
	}

	cam := newMockCamera()
	surface := &mockSurface{width: 8, height: 8}
	for frame := 0; frame < 3; frame++ {
		if err = p.RenderFrame(cam, mockLight{}, surface); err != nil {
			t.Fatal(err)
		}
	}
	if got := p.Stats().Spheres; got != uint32(len(sc1.Spheres)) {
		t.Fatalf("expected %d spheres to be bound; got %d", len(sc1.Spheres), got)
	}
	targets := dev.Allocated() - base - uint64(len(sc1.Spheres)*scene.SphereStride)

	// Replacing the scene releases the old buffer and restarts accumulation
	if err = p.SetupScene(sc2); err != nil {
		t.Fatal(err)
	}
	if exp := base + targets + uint64(len(sc2.Spheres)*scene.SphereStride); dev.Allocated() != exp {
		t.Fatalf("expected %d allocated bytes after scene swap; got %d", exp, dev.Allocated())
	}
	if err = p.RenderFrame(cam, mockLight{}, surface); err != nil {
		t.Fatal(err)
	}
	if stats := p.Stats(); stats.Sample != 0 || stats.Resets != 1 {
		t.Fatalf("expected scene swap to restart accumulation; got sample %d, resets %d", stats.Sample, stats.Resets)
	}

	p.Close()
	if dev.Allocated() != 0 {
		t.Fatalf("expected Close to release all resources; %d bytes still allocated", dev.Allocated())
	}
}

func TestPipelineSceneUploadExhaustion(t *testing.T) {
	// Room for the default skybox, two 8x8 targets and a single sphere
	dev := cpu.NewDevice(16 + 2*8*8*16 + scene.SphereStride)
	kernel := &mockKernel{value: 1}
	p := createTestPipeline(t, dev, kernel, DefaultOptions())
	defer p.Close()

	cam := newMockCamera()
	surface := &mockSurface{width: 8, height: 8}
	if err := p.RenderFrame(cam, mockLight{}, surface); err != nil {
		t.Fatal(err)
	}

	sc, err := scene.New(scene.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(sc.Spheres) < 2 {
		t.Fatalf("expected the default scene to hold more than one sphere; got %d", len(sc.Spheres))
	}
	if err = p.SetupScene(sc); !tracer.IsResourceExhausted(err) {
		t.Fatalf("expected a resource exhaustion error; got %v", err)
	}

	// The pipeline keeps rendering with an empty scene
	if err = p.RenderFrame(cam, mockLight{}, surface); err != nil {
		t.Fatal(err)
	}
	if stats := p.Stats(); stats.Spheres != 0 || stats.Sample != 0 {
		t.Fatalf("expected an empty scene at sample 0; got %d spheres at sample %d", stats.Spheres, stats.Sample)
	}

	p.Close()
	if dev.Allocated() != 0 {
		t.Fatalf("expected Close to release all resources; %d bytes still allocated", dev.Allocated())
	}
}

func TestPipelineCloseAfterFailedUpload(t *testing.T) {
	dev := &failingDevice{Device: cpu.NewDevice(0)}
	p := createTestPipeline(t, dev, &mockKernel{}, DefaultOptions())

	sc, err := scene.New(scene.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	dev.failSpheres = true
	if err = p.SetupScene(sc); !tracer.IsResourceExhausted(err) {
		t.Fatalf("expected a resource exhaustion error; got %v", err)
	}
	err = p.RenderFrame(newMockCamera(), mockLight{}, &mockSurface{width: 8, height: 8})
	if !tracer.IsResourceExhausted(err) {
		t.Fatalf("expected frame without a sphere buffer to report exhaustion; got %v", err)
	}
	p.Close()
	if dev.Allocated() != 0 {
		t.Fatalf("expected Close to release all resources; %d bytes still allocated", dev.Allocated())
	}
}

func TestPipelineSetupEmptyScene(t *testing.T) {
	kernel := &mockKernel{}
	p := createTestPipeline(t, cpu.NewDevice(0), kernel, DefaultOptions())
	defer p.Close()

	opts := scene.DefaultOptions()
	opts.MaxSpheres = 0
	sc, err := scene.New(opts)
	if err != nil {
		t.Fatal(err)
	}
	if err = p.SetupScene(sc); err != nil {
		t.Fatal(err)
	}
	if err = p.RenderFrame(newMockCamera(), mockLight{}, &mockSurface{width: 8, height: 8}); err != nil {
		t.Fatal(err)
	}
	if kernel.lastParams.Spheres.Count() != 0 {
		t.Fatalf("expected an empty sphere buffer; got %d records", kernel.lastParams.Spheres.Count())
	}
}

func TestPipelineErrors(t *testing.T) {
	// Missing kernel
	p := NewPipeline(cpu.NewDevice(0), nil, DefaultOptions())
	if err := p.Init(newMockCamera(), nil); !tracer.IsFatal(err) || !errors.Is(err, ErrNoKernel) {
		t.Fatalf("expected fatal ErrNoKernel; got %v", err)
	}

	// Singular projection
	cam := newMockCamera()
	cam.proj = types.Mat4{}
	p = NewPipeline(cpu.NewDevice(0), &mockKernel{}, DefaultOptions())
	if err := p.Init(cam, nil); !tracer.IsFatal(err) || !errors.Is(err, types.ErrSingularMatrix) {
		t.Fatalf("expected fatal singular matrix error; got %v", err)
	}

	// Invalid options
	opts := DefaultOptions()
	opts.Exposure = 0
	p = NewPipeline(cpu.NewDevice(0), &mockKernel{}, opts)
	if err := p.Init(newMockCamera(), nil); !tracer.IsFatal(err) || !errors.Is(err, ErrInvalidOptions) {
		t.Fatalf("expected fatal ErrInvalidOptions; got %v", err)
	}

	// Use before init
	p = NewPipeline(cpu.NewDevice(0), &mockKernel{}, DefaultOptions())
	if err := p.RenderFrame(newMockCamera(), mockLight{}, &mockSurface{width: 8, height: 8}); !tracer.IsFatal(err) {
		t.Fatalf("expected fatal error rendering before init; got %v", err)
	}
	if err := p.SetupScene(&scene.Scene{}); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized; got %v", err)
	}

	// Present errors are reported
	p = createTestPipeline(t, cpu.NewDevice(0), &mockKernel{}, DefaultOptions())
	defer p.Close()
	presentErr := errors.New("present failed")
	if err := p.RenderFrame(newMockCamera(), mockLight{}, &mockSurface{width: 8, height: 8, err: presentErr}); !errors.Is(err, presentErr) {
		t.Fatalf("expected present error; got %v", err)
	}
}

func TestPipelineSkyboxUpload(t *testing.T) {
	dev := cpu.NewDevice(0)
	kernel := &mockKernel{}
	p := NewPipeline(dev, kernel, DefaultOptions())
	defer p.Close()

	sky := &texture.Texture{Width: 2, Height: 1, Data: []float32{1, 0, 0, 1, 0, 1, 0, 1}}
	if err := p.Init(newMockCamera(), sky); err != nil {
		t.Fatal(err)
	}
	if err := p.RenderFrame(newMockCamera(), mockLight{}, &mockSurface{width: 8, height: 8}); err != nil {
		t.Fatal(err)
	}

	img := kernel.lastParams.Skybox
	if img.Width() != 2 || img.Height() != 1 {
		t.Fatalf("expected a 2x1 skybox; got %dx%d", img.Width(), img.Height())
	}
	if px := img.(*cpu.Image).At(1, 0); px != types.XYZW(0, 1, 0, 1) {
		t.Fatalf("expected skybox texel (0, 1, 0, 1); got %v", px)
	}

	// Mismatched texture data
	bad := &texture.Texture{Width: 4, Height: 4, Data: []float32{1}}
	if err := NewPipeline(dev, &mockKernel{}, DefaultOptions()).Init(newMockCamera(), bad); !errors.Is(err, tracer.ErrImageSizeMismatch) {
		t.Fatalf("expected ErrImageSizeMismatch; got %v", err)
	}
}
