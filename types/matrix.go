package types

import (
	"errors"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Matrices whose determinant magnitude falls below this value are treated as
// singular.
const singularDetEpsilon float32 = 1e-12

var ErrSingularMatrix = errors.New("types: matrix is singular")

// A column-major 4x4 matrix laid out the same way as the GPU expects it.
type Mat4 mgl32.Mat4

// Create an identity matrix.
func Ident4() Mat4 {
	return Mat4(mgl32.Ident4())
}

// Create a right-handed perspective projection matrix. Fov is specified in
// degrees.
func Perspective4(fov, aspect, near, far float32) Mat4 {
	return Mat4(mgl32.Perspective(mgl32.DegToRad(fov), aspect, near, far))
}

// Create a view matrix for an eye located at eye looking at center.
func LookAtV(eye, center, up Vec3) Mat4 {
	return Mat4(mgl32.LookAtV(mgl32.Vec3(eye), mgl32.Vec3(center), mgl32.Vec3(up)))
}

// Multiply two matrices.
func (m Mat4) Mul4(m2 Mat4) Mat4 {
	return Mat4(mgl32.Mat4(m).Mul4(mgl32.Mat4(m2)))
}

// Multiply matrix with a column vector.
func (m Mat4) Mul4x1(v Vec4) Vec4 {
	return Vec4(mgl32.Mat4(m).Mul4x1(mgl32.Vec4(v)))
}

// Get the matrix determinant.
func (m Mat4) Det() float32 {
	return mgl32.Mat4(m).Det()
}

// Calculate the matrix inverse. An error is returned if the matrix is
// singular or contains non-finite values; mgl32 silently returns a zero
// matrix in that case.
func (m Mat4) Inverse() (Mat4, error) {
	det := m.Det()
	if math32.IsNaN(det) || math32.IsInf(det, 0) || math32.Abs(det) < singularDetEpsilon {
		return Mat4{}, ErrSingularMatrix
	}

	return Mat4(mgl32.Mat4(m).Inv()), nil
}

// Returns true if all matrix elements differ by at most eps.
func (m Mat4) ApproxEqual(m2 Mat4, eps float32) bool {
	for i := range m {
		if math32.Abs(m[i]-m2[i]) > eps {
			return false
		}
	}
	return true
}
