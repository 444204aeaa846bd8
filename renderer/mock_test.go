package renderer

import (
	"errors"
	"fmt"

	"github.com/achilleasa/spheretrace/scene"
	"github.com/achilleasa/spheretrace/tracer"
	"github.com/achilleasa/spheretrace/tracer/cpu"
	"github.com/achilleasa/spheretrace/types"
)

type mockCamera struct {
	world types.Mat4
	proj  types.Mat4
}

func newMockCamera() *mockCamera {
	return &mockCamera{
		world: types.Ident4(),
		proj:  types.Perspective4(45, 1, 0.3, 1000),
	}
}

func (c *mockCamera) WorldMatrix() types.Mat4      { return c.world }
func (c *mockCamera) ProjectionMatrix() types.Mat4 { return c.proj }

type mockLight struct{}

func (mockLight) Forward() types.Vec3 { return types.XYZ(0, -1, 0) }
func (mockLight) Intensity() float32  { return 2 }

type mockSurface struct {
	width, height uint32
	presented     []uint32
	err           error
}

func (s *mockSurface) Size() (uint32, uint32) {
	return s.width, s.height
}

func (s *mockSurface) Present(img tracer.Image, sampleCount uint32) error {
	if s.err != nil {
		return s.err
	}
	s.presented = append(s.presented, sampleCount)
	return nil
}

// A kernel that fills the output image with a constant value.
type mockKernel struct {
	value      float32
	err        error
	dispatches int
	lastGroups [3]uint32
	lastParams tracer.FrameParameters
	released   bool
}

func (k *mockKernel) Dispatch(params *tracer.FrameParameters, out tracer.Image, groups [3]uint32) error {
	k.dispatches++
	k.lastGroups = groups
	k.lastParams = *params
	if k.err != nil {
		return k.err
	}

	img, ok := out.(*cpu.Image)
	if !ok {
		return errors.New("mock kernel: expected a host image")
	}
	for i := range img.Pix {
		img.Pix[i] = k.value
	}
	return nil
}

func (k *mockKernel) Release() {
	k.released = true
}

// A random source replaying a fixed sequence.
type mockRandomSource struct {
	values []float32
	next   int
}

func (r *mockRandomSource) Float32() float32 {
	v := r.values[r.next%len(r.values)]
	r.next++
	return v
}

// A host device whose sphere uploads can be forced to fail.
type failingDevice struct {
	*cpu.Device
	failSpheres bool
}

func (d *failingDevice) NewSphereBuffer(spheres []scene.Sphere) (tracer.Buffer, error) {
	if d.failSpheres {
		return nil, fmt.Errorf("failing device: %w", tracer.ErrResourceExhausted)
	}
	return d.Device.NewSphereBuffer(spheres)
}
