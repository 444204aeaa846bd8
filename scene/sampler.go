package scene

import (
	"math/rand"

	"github.com/achilleasa/spheretrace/types"
	"github.com/chewxy/math32"
)

// A source of uniformly distributed random numbers in [0, 1).
type RandomSource interface {
	Float32() float32
}

// Create a deterministic random source for the given seed.
func NewRandomSource(seed int64) RandomSource {
	return rand.New(rand.NewSource(seed))
}

// Sample a point uniformly by area inside a disk of the given radius. The
// square root on the radial term compensates for the area of each annulus
// growing linearly with its distance from the centre.
func sampleDisk(rng RandomSource, radius float32) types.Vec2 {
	r := radius * math32.Sqrt(rng.Float32())
	theta := 2 * math32.Pi * rng.Float32()
	return types.XY(r*math32.Cos(theta), r*math32.Sin(theta))
}

// Convert a hue/saturation/value triplet (all in [0, 1]) to linear RGB.
func hsvToRGB(h, s, v float32) types.Vec3 {
	if s <= 0 {
		return types.XYZ(v, v, v)
	}

	h = (h - math32.Floor(h)) * 6
	sector := int(h)
	f := h - float32(sector)
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))

	switch sector {
	case 0:
		return types.XYZ(v, t, p)
	case 1:
		return types.XYZ(q, v, p)
	case 2:
		return types.XYZ(p, v, t)
	case 3:
		return types.XYZ(p, q, v)
	case 4:
		return types.XYZ(t, p, v)
	}
	return types.XYZ(v, p, q)
}
