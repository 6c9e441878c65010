package math3d

import "math"

// Mat4 is a 4x4 matrix stored in column-major order.
//
// Memory layout (indices):
// | 0  4  8  12 |
// | 1  5  9  13 |
// | 2  6  10 14 |
// | 3  7  11 15 |
type Mat4 [16]float64

// Identity returns the identity matrix.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translate creates a translation matrix.
func Translate(v Vec3) Mat4 {
	m := Identity()
	m[12], m[13], m[14] = v.X, v.Y, v.Z
	return m
}

// Scale creates a scaling matrix.
func Scale(v Vec3) Mat4 {
	m := Identity()
	m[0], m[5], m[10] = v.X, v.Y, v.Z
	return m
}

// ScaleUniform creates a uniform scaling matrix.
func ScaleUniform(s float64) Mat4 {
	return Scale(V3(s, s, s))
}

// RotateX creates a rotation matrix around the X axis.
func RotateX(angle float64) Mat4 {
	c, s := math.Cos(angle), math.Sin(angle)
	m := Identity()
	m[5], m[6] = c, s
	m[9], m[10] = -s, c
	return m
}

// RotateY creates a rotation matrix around the Y axis.
func RotateY(angle float64) Mat4 {
	c, s := math.Cos(angle), math.Sin(angle)
	m := Identity()
	m[0], m[2] = c, -s
	m[8], m[10] = s, c
	return m
}

// RotateZ creates a rotation matrix around the Z axis.
func RotateZ(angle float64) Mat4 {
	c, s := math.Cos(angle), math.Sin(angle)
	m := Identity()
	m[0], m[1] = c, s
	m[4], m[5] = -s, c
	return m
}

// Rotate creates a rotation matrix of angle radians around axis.
func Rotate(axis Vec3, angle float64) Mat4 {
	axis = axis.Normalize()
	c, s := math.Cos(angle), math.Sin(angle)
	t := 1 - c
	x, y, z := axis.X, axis.Y, axis.Z

	return Mat4{
		t*x*x + c, t*x*y + s*z, t*x*z - s*y, 0,
		t*x*y - s*z, t*y*y + c, t*y*z + s*x, 0,
		t*x*z + s*y, t*y*z - s*x, t*z*z + c, 0,
		0, 0, 0, 1,
	}
}

// LookAt creates a view matrix looking from eye towards center.
func LookAt(eye, center, up Vec3) Mat4 {
	f := center.Sub(eye).Normalize()
	s := f.Cross(up).Normalize()
	u := s.Cross(f)

	return Mat4{
		s.X, u.X, -f.X, 0,
		s.Y, u.Y, -f.Y, 0,
		s.Z, u.Z, -f.Z, 0,
		-s.Dot(eye), -u.Dot(eye), f.Dot(eye), 1,
	}
}

// Perspective creates a perspective projection matrix.
// fovy is the vertical field of view in radians, aspect is width/height.
func Perspective(fovy, aspect, near, far float64) Mat4 {
	f := 1.0 / math.Tan(fovy/2)
	nf := 1.0 / (near - far)

	return Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, (far + near) * nf, -1,
		0, 0, 2 * far * near * nf, 0,
	}
}

// Mul multiplies two matrices: a * b.
func (a Mat4) Mul(b Mat4) Mat4 {
	var m Mat4
	for col := range 4 {
		for row := range 4 {
			var sum float64
			for k := range 4 {
				sum += a[row+k*4] * b[k+col*4]
			}
			m[row+col*4] = sum
		}
	}
	return m
}

// MulVec3 transforms a Vec3 as a point (w=1).
func (m Mat4) MulVec3(v Vec3) Vec3 {
	return m.MulVec4(V4FromV3(v, 1)).PerspectiveDivide()
}

// MulVec3Dir transforms a Vec3 as a direction (w=0, no translation).
func (m Mat4) MulVec3Dir(v Vec3) Vec3 {
	return m.MulVec4(V4FromV3(v, 0)).Vec3()
}

// MulVec4 transforms a Vec4.
func (m Mat4) MulVec4(v Vec4) Vec4 {
	return Vec4{
		m[0]*v.X + m[4]*v.Y + m[8]*v.Z + m[12]*v.W,
		m[1]*v.X + m[5]*v.Y + m[9]*v.Z + m[13]*v.W,
		m[2]*v.X + m[6]*v.Y + m[10]*v.Z + m[14]*v.W,
		m[3]*v.X + m[7]*v.Y + m[11]*v.Z + m[15]*v.W,
	}
}

// Transpose returns the transposed matrix.
func (m Mat4) Transpose() Mat4 {
	var t Mat4
	for col := range 4 {
		for row := range 4 {
			t[col+row*4] = m[row+col*4]
		}
	}
	return t
}

// Inverse returns the inverse of the matrix and whether it exists.
// A singular matrix yields the identity and false.
func (m Mat4) Inverse() (Mat4, bool) {
	// 2x2 sub-determinants of the upper and lower row pairs.
	s0 := m[0]*m[5] - m[1]*m[4]
	s1 := m[0]*m[9] - m[1]*m[8]
	s2 := m[0]*m[13] - m[1]*m[12]
	s3 := m[4]*m[9] - m[5]*m[8]
	s4 := m[4]*m[13] - m[5]*m[12]
	s5 := m[8]*m[13] - m[9]*m[12]

	c5 := m[10]*m[15] - m[11]*m[14]
	c4 := m[6]*m[15] - m[7]*m[14]
	c3 := m[6]*m[11] - m[7]*m[10]
	c2 := m[2]*m[15] - m[3]*m[14]
	c1 := m[2]*m[11] - m[3]*m[10]
	c0 := m[2]*m[7] - m[3]*m[6]

	det := s0*c5 - s1*c4 + s2*c3 + s3*c2 - s4*c1 + s5*c0
	if det == 0 || !isFinite(det) {
		return Identity(), false
	}
	inv := 1 / det

	return Mat4{
		(m[5]*c5 - m[9]*c4 + m[13]*c3) * inv,
		(-m[1]*c5 + m[9]*c2 - m[13]*c1) * inv,
		(m[1]*c4 - m[5]*c2 + m[13]*c0) * inv,
		(-m[1]*c3 + m[5]*c1 - m[9]*c0) * inv,

		(-m[4]*c5 + m[8]*c4 - m[12]*c3) * inv,
		(m[0]*c5 - m[8]*c2 + m[12]*c1) * inv,
		(-m[0]*c4 + m[4]*c2 - m[12]*c0) * inv,
		(m[0]*c3 - m[4]*c1 + m[8]*c0) * inv,

		(m[7]*s5 - m[11]*s4 + m[15]*s3) * inv,
		(-m[3]*s5 + m[11]*s2 - m[15]*s1) * inv,
		(m[3]*s4 - m[7]*s2 + m[15]*s0) * inv,
		(-m[3]*s3 + m[7]*s1 - m[11]*s0) * inv,

		(-m[6]*s5 + m[10]*s4 - m[14]*s3) * inv,
		(m[2]*s5 - m[10]*s2 + m[14]*s1) * inv,
		(-m[2]*s4 + m[6]*s2 - m[14]*s0) * inv,
		(m[2]*s3 - m[6]*s1 + m[10]*s0) * inv,
	}, true
}

// NormalMatrix returns the inverse transpose of m, which maps surface
// normals correctly under non-uniform scale. Translation is dropped.
func (m Mat4) NormalMatrix() Mat4 {
	inv, ok := m.Inverse()
	if !ok {
		return Identity()
	}
	n := inv.Transpose()
	n[3], n[7], n[11] = 0, 0, 0
	n[12], n[13], n[14], n[15] = 0, 0, 0, 1
	return n
}
