package scene

import (
	"github.com/achilleasa/spheretrace/types"
	"github.com/go-gl/mathgl/mgl32"
)

// Projection clip planes.
const (
	cameraNear float32 = 0.3
	cameraFar  float32 = 1000
)

// The camera type controls the scene camera.
type Camera struct {
	Position types.Vec3
	LookAt   types.Vec3
	Up       types.Vec3
	Pitch    float32
	Yaw      float32

	ViewMat  types.Mat4
	WorldMat types.Mat4
	ProjMat  types.Mat4

	// Camera FOV
	FOV float32
}

func NewCamera(fov float32) *Camera {
	return &Camera{
		ViewMat:  types.Ident4(),
		WorldMat: types.Ident4(),
		ProjMat:  types.Ident4(),
		Position: types.Vec3{0, 0, 0},
		LookAt:   types.Vec3{0, 0, -1},
		Up:       types.Vec3{0, 1, 0},
		FOV:      fov,
	}
}

// Setup camera projection matrix.
func (c *Camera) SetupProjection(aspect float32) {
	c.ProjMat = types.Perspective4(c.FOV, aspect, cameraNear, cameraFar)
	c.Update()
}

// Update camera. Any pending pitch and yaw angles (in radians) are applied
// to the view direction and then cleared.
func (c *Camera) Update() {
	if c.Pitch != 0 || c.Yaw != 0 {
		fwd := c.LookAt.Sub(c.Position)
		dist := fwd.Len()
		fwd = fwd.Normalize()

		pitchAxis := fwd.Cross(c.Up).Normalize()
		pitchQuat := mgl32.QuatRotate(c.Pitch, mgl32.Vec3(pitchAxis))
		yawQuat := mgl32.QuatRotate(c.Yaw, mgl32.Vec3(c.Up))
		orientQuat := pitchQuat.Mul(yawQuat).Normalize()
		c.Pitch, c.Yaw = 0, 0

		// Update direction
		dir := orientQuat.Rotate(mgl32.Vec3(fwd))
		c.LookAt = c.Position.Add(types.Vec3(dir).Mul(dist))
	}

	c.ViewMat = types.LookAtV(c.Position, c.LookAt, c.Up)
	c.WorldMat = types.Mat4(mgl32.Mat4(c.ViewMat).Inv())
}

// Rotate the camera position around the up axis passing through its look-at
// point.
func (c *Camera) Orbit(angle float32) {
	offset := mgl32.QuatRotate(angle, mgl32.Vec3(c.Up)).Rotate(mgl32.Vec3(c.Position.Sub(c.LookAt)))
	c.Position = c.LookAt.Add(types.Vec3(offset))
	c.Update()
}

// Get the camera-to-world transformation matrix.
func (c *Camera) WorldMatrix() types.Mat4 {
	return c.WorldMat
}

// Get the camera projection matrix.
func (c *Camera) ProjectionMatrix() types.Mat4 {
	return c.ProjMat
}
