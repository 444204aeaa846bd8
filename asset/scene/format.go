// Package scene defines the on-disk layout of scene snapshots.
package scene

const (
	// Gob-encoded scene.Scene (generation options and spheres).
	DataFile = "scene.bin"

	// Raw little-endian sphere records using the device buffer layout.
	SphereFile = "spheres.bin"
)
