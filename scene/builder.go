package scene

import (
	"errors"
	"fmt"

	"github.com/achilleasa/spheretrace/types"
)

var (
	ErrInvalidOptions = errors.New("scene: invalid options")
	ErrInvalidScene   = errors.New("scene: invalid sphere layout")
)

// Probability that an accepted sphere is assigned a metallic material.
const metalProbability float32 = 0.5

// Upper bound for the initial capacity of the accepted sphere list. Dense
// requests reject most candidates so the list grows on demand past this.
const maxPreallocatedSpheres uint32 = 1024

// Scene generation options.
type Options struct {
	// The number of placement attempts. The generated scene may contain
	// fewer spheres as overlapping candidates are discarded.
	MaxSpheres uint32

	// Sphere radius range.
	MinRadius float32
	MaxRadius float32

	// Radius of the disk on the ground plane where spheres are placed.
	PlacementRadius float32

	// Random generator seed.
	Seed int64
}

// Get the default scene generation options.
func DefaultOptions() Options {
	return Options{
		MaxSpheres:      100,
		MinRadius:       3,
		MaxRadius:       8,
		PlacementRadius: 100,
		Seed:            0,
	}
}

// Validate scene options.
func (opts Options) Validate() error {
	switch {
	case opts.MinRadius < 0:
		return fmt.Errorf("%w: negative minimum radius %f", ErrInvalidOptions, opts.MinRadius)
	case opts.MaxRadius < opts.MinRadius:
		return fmt.Errorf("%w: radius range [%f, %f] is inverted", ErrInvalidOptions, opts.MinRadius, opts.MaxRadius)
	case !(opts.PlacementRadius > 0):
		return fmt.Errorf("%w: placement radius must be positive; got %f", ErrInvalidOptions, opts.PlacementRadius)
	}
	return nil
}

// Generate a set of non-overlapping spheres resting on the ground plane.
// Each of the opts.MaxSpheres candidates is tried exactly once; candidates
// that intersect an already accepted sphere are dropped. The random source
// is consumed in a fixed order so the output is fully determined by it.
func Build(opts Options, rng RandomSource) []Sphere {
	spheres := make([]Sphere, 0, min(opts.MaxSpheres, maxPreallocatedSpheres))

	for slot := uint32(0); slot < opts.MaxSpheres; slot++ {
		radius := opts.MinRadius + rng.Float32()*(opts.MaxRadius-opts.MinRadius)
		pos := sampleDisk(rng, opts.PlacementRadius)
		candidate := Sphere{
			Position: types.XYZ(pos[0], radius, pos[1]),
			Radius:   radius,
		}

		if overlapsAny(candidate, spheres) {
			continue
		}

		color := hsvToRGB(rng.Float32(), rng.Float32(), rng.Float32())
		if rng.Float32() < metalProbability {
			candidate.Specular = color
		} else {
			candidate.Albedo = color
			candidate.Specular = types.XYZ(DielectricSpecular, DielectricSpecular, DielectricSpecular)
		}

		spheres = append(spheres, candidate)
	}

	return spheres
}

// Ensure that a sphere list satisfies the placement invariants: every sphere
// rests on the ground plane and no two spheres overlap.
func Validate(spheres []Sphere) error {
	for i, s := range spheres {
		if s.Radius < 0 {
			return fmt.Errorf("%w: sphere %d has negative radius %f", ErrInvalidScene, i, s.Radius)
		}
		if s.Position[1] != s.Radius {
			return fmt.Errorf("%w: sphere %d does not rest on the ground plane (y: %f, r: %f)", ErrInvalidScene, i, s.Position[1], s.Radius)
		}
		for j := 0; j < i; j++ {
			if s.Overlaps(spheres[j]) {
				return fmt.Errorf("%w: spheres %d and %d overlap", ErrInvalidScene, j, i)
			}
		}
	}
	return nil
}

func overlapsAny(candidate Sphere, spheres []Sphere) bool {
	for _, other := range spheres {
		if candidate.Overlaps(other) {
			return true
		}
	}
	return false
}
