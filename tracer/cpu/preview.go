package cpu

import (
	"github.com/achilleasa/spheretrace/tracer"
	"github.com/achilleasa/spheretrace/types"
	"github.com/chewxy/math32"
)

var (
	groundColor = types.XYZW(0.5, 0.5, 0.5, 1)
	skyColor    = types.XYZW(0.6, 0.7, 0.9, 1)
)

// An unlit preview kernel. It generates a jittered primary ray for each pixel
// and returns the flat color of the closest sphere, the ground plane color or
// the skybox color for rays that escape the scene.
func PreviewKernel(params *tracer.FrameParameters, x, y, width, height uint32) types.Vec4 {
	origin, dir := primaryRay(params, x, y, width, height)

	closest := math32.Inf(1)
	color := skyboxColor(params.Skybox, dir)

	// Ground plane at y = 0.
	if dir[1] < 0 {
		if t := -origin[1] / dir[1]; t > 0 {
			closest = t
			color = groundColor
		}
	}

	if buf, ok := params.Spheres.(*SphereBuffer); ok {
		for _, s := range buf.Spheres {
			t, hit := intersectSphere(origin, dir, s.Position, s.Radius)
			if !hit || t >= closest {
				continue
			}
			closest = t
			color = s.Albedo.Add(s.Specular).Vec4(1)
		}
	}

	return color
}

// Generate a world-space ray through pixel (x, y) offset by the frame jitter.
func primaryRay(params *tracer.FrameParameters, x, y, width, height uint32) (origin, dir types.Vec3) {
	ndcX := (float32(x)+params.PixelOffset[0])/float32(width)*2 - 1
	ndcY := 1 - (float32(y)+params.PixelOffset[1])/float32(height)*2

	origin = params.CameraToWorld.Mul4x1(types.XYZW(0, 0, 0, 1)).Vec3()
	dir = params.CameraInverseProjection.Mul4x1(types.XYZW(ndcX, ndcY, 0, 1)).Vec3()
	dir = params.CameraToWorld.Mul4x1(dir.Vec4(0)).Vec3().Normalize()
	return origin, dir
}

// Get the nearest positive intersection distance between a ray and a sphere.
func intersectSphere(origin, dir, center types.Vec3, radius float32) (float32, bool) {
	d := origin.Sub(center)
	p1 := -dir.Dot(d)
	p2sqr := p1*p1 - d.Dot(d) + radius*radius
	if p2sqr < 0 {
		return 0, false
	}
	p2 := math32.Sqrt(p2sqr)
	if t := p1 - p2; t > 0 {
		return t, true
	}
	if t := p1 + p2; t > 0 {
		return t, true
	}
	return 0, false
}

// Look up the skybox using an equirectangular mapping of dir.
func skyboxColor(skybox tracer.Image, dir types.Vec3) types.Vec4 {
	img, ok := skybox.(*Image)
	if !ok || img.Pix == nil {
		return skyColor
	}

	u := -math32.Atan2(dir[0], -dir[2]) / (2 * math32.Pi)
	v := math32.Acos(clamp(dir[1], -1, 1)) / math32.Pi
	if v >= 1 {
		v = 0.9999
	}
	return img.SampleWrapped(u, v)
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
