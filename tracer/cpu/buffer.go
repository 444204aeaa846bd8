package cpu

import "github.com/achilleasa/spheretrace/scene"

// A sphere buffer stored in host memory.
type SphereBuffer struct {
	Spheres []scene.Sphere

	device *Device
	bytes  uint64
}

func (b *SphereBuffer) Count() uint32 {
	return uint32(len(b.Spheres))
}

func (b *SphereBuffer) Stride() uint32 {
	return scene.SphereStride
}

// Release the buffer memory.
func (b *SphereBuffer) Release() {
	if b == nil || b.Spheres == nil {
		return
	}
	if b.device != nil {
		b.device.free(b.bytes)
	}
	b.Spheres = nil
}
