package scene

import "github.com/achilleasa/spheretrace/types"

// A directional light source such as the sun.
type DirectionalLight struct {
	Direction types.Vec3
	Power     float32
}

// Create a directional light pointing towards dir.
func NewDirectionalLight(dir types.Vec3, intensity float32) *DirectionalLight {
	return &DirectionalLight{
		Direction: dir.Normalize(),
		Power:     intensity,
	}
}

// Get the normalized light direction.
func (l *DirectionalLight) Forward() types.Vec3 {
	return l.Direction
}

func (l *DirectionalLight) Intensity() float32 {
	return l.Power
}
