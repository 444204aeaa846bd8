package renderer

import (
	"errors"
	"testing"

	"github.com/achilleasa/spheretrace/tracer"
	"github.com/achilleasa/spheretrace/tracer/cpu"
	"github.com/achilleasa/spheretrace/types"
)

func TestBuildFrameParameters(t *testing.T) {
	cam := newMockCamera()
	cam.world = types.LookAtV(types.XYZ(0, 10, 50), types.XYZ(0, 0, 0), types.XYZ(0, 1, 0))

	spheres, err := cpu.NewDevice(0).NewSphereBuffer(nil)
	if err != nil {
		t.Fatal(err)
	}

	jitter := &mockRandomSource{values: []float32{0.25, 0.75}}
	params, err := BuildFrameParameters(cam, mockLight{}, jitter, spheres)
	if err != nil {
		t.Fatal(err)
	}

	if params.CameraToWorld != cam.world {
		t.Fatalf("expected camera-to-world matrix to match the camera world matrix")
	}
	if !params.CameraInverseProjection.Mul4(cam.proj).ApproxEqual(types.Ident4(), 1e-4) {
		t.Fatalf("expected inverse projection * projection to be the identity")
	}
	if params.PixelOffset != types.XY(0.25, 0.75) {
		t.Fatalf("expected pixel offset (0.25, 0.75); got %v", params.PixelOffset)
	}
	if params.DirectionalLight != types.XYZW(0, -1, 0, 2) {
		t.Fatalf("expected directional light (0, -1, 0, 2); got %v", params.DirectionalLight)
	}
	if params.Spheres != spheres {
		t.Fatal("expected sphere buffer to be passed through")
	}
	if params.Skybox != nil {
		t.Fatal("expected skybox to be left unset")
	}
}

func TestBuildFrameParametersSingularProjection(t *testing.T) {
	cam := newMockCamera()
	cam.proj = types.Mat4{}

	_, err := BuildFrameParameters(cam, mockLight{}, &mockRandomSource{values: []float32{0}}, nil)
	if !tracer.IsFatal(err) {
		t.Fatalf("expected a fatal configuration error; got %v", err)
	}
	if !errors.Is(err, types.ErrSingularMatrix) {
		t.Fatalf("expected error to wrap ErrSingularMatrix; got %v", err)
	}
}
