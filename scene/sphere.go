package scene

import (
	"fmt"

	"github.com/achilleasa/spheretrace/types"
)

// The size in bytes of a sphere record as laid out in device memory.
const SphereStride = 40

// Specular reflectance used for non-metallic spheres.
const DielectricSpecular float32 = 0.04

// A sphere resting on the ground plane. The struct layout matches the record
// layout expected by the tracing kernel (10 packed float32 values).
type Sphere struct {
	Position types.Vec3
	Radius   float32
	Albedo   types.Vec3
	Specular types.Vec3
}

// Returns true if the two spheres intersect. Touching spheres do not
// overlap.
func (s Sphere) Overlaps(other Sphere) bool {
	minDist := s.Radius + other.Radius
	return s.Position.Sub(other.Position).LenSq() < minDist*minDist
}

// Returns true if the sphere uses the metallic material model. Metals carry
// their colour in the specular term and have no diffuse albedo.
func (s Sphere) IsMetal() bool {
	return s.Albedo == types.Vec3{}
}

func (s Sphere) String() string {
	return fmt.Sprintf(
		"pos: (%3.3f, %3.3f, %3.3f) r: %3.3f albedo: (%1.3f, %1.3f, %1.3f) specular: (%1.3f, %1.3f, %1.3f)",
		s.Position[0], s.Position[1], s.Position[2],
		s.Radius,
		s.Albedo[0], s.Albedo[1], s.Albedo[2],
		s.Specular[0], s.Specular[1], s.Specular[2],
	)
}
