package arbor

import "github.com/go-gl/mathgl/mgl32"

// Transform2D composes a 2D local transformation from its parts.
//
// Composition order:
//
//	Scale -> Rotate -> Translate
func Transform2D(translation mgl32.Vec2, rotation float32, scaling mgl32.Vec2) mgl32.Mat3 {
	m := mgl32.Scale2D(scaling[0], scaling[1])
	if rotation != 0 {
		m = mgl32.HomogRotate2D(rotation).Mul3(m)
	}
	if translation != (mgl32.Vec2{}) {
		m = mgl32.Translate2D(translation[0], translation[1]).Mul3(m)
	}
	return m
}

// Transform3D composes a 3D local transformation from its parts, in the same
// order as Transform2D.
func Transform3D(translation mgl32.Vec3, rotation mgl32.Quat, scaling mgl32.Vec3) mgl32.Mat4 {
	m := mgl32.Scale3D(scaling[0], scaling[1], scaling[2])
	if rotation != mgl32.QuatIdent() {
		m = rotation.Normalize().Mat4().Mul4(m)
	}
	if translation != (mgl32.Vec3{}) {
		m = mgl32.Translate3D(translation[0], translation[1], translation[2]).Mul4(m)
	}
	return m
}

// TransformPoint2D applies a 2D affine matrix to a point.
func TransformPoint2D(m mgl32.Mat3, p mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{
		m[0]*p[0] + m[3]*p[1] + m[6],
		m[1]*p[0] + m[4]*p[1] + m[7],
	}
}

// AffineFromMat3 extracts the affine part of a 2D matrix.
//
//	Layout: [a, b, c, d, tx, ty]
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
func AffineFromMat3(m mgl32.Mat3) [6]float64 {
	return [6]float64{
		float64(m[0]), float64(m[1]),
		float64(m[3]), float64(m[4]),
		float64(m[6]), float64(m[7]),
	}
}

// Mat3FromAffine is the inverse of AffineFromMat3.
func Mat3FromAffine(a [6]float64) mgl32.Mat3 {
	return mgl32.Mat3{
		float32(a[0]), float32(a[1]), 0,
		float32(a[2]), float32(a[3]), 0,
		float32(a[4]), float32(a[5]), 1,
	}
}

// invertAffine computes the inverse of a 2D affine matrix.
// Returns the identity matrix if the matrix is singular.
func invertAffine(m mgl32.Mat3) mgl32.Mat3 {
	det := m[0]*m[4] - m[3]*m[1]
	if det > -1e-12 && det < 1e-12 {
		return mgl32.Ident3()
	}
	inv := 1 / det
	a := m[4] * inv
	b := -m[1] * inv
	c := -m[3] * inv
	d := m[0] * inv
	return mgl32.Mat3{
		a, b, 0,
		c, d, 0,
		-(a*m[6] + c*m[7]), -(b*m[6] + d*m[7]), 1,
	}
}

// InverseTransformPoint2D maps a point through the inverse of m, e.g. from
// world space back into an object's local space.
func InverseTransformPoint2D(m mgl32.Mat3, p mgl32.Vec2) mgl32.Vec2 {
	return TransformPoint2D(invertAffine(m), p)
}
