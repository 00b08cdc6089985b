package simdmath

import "github.com/go-gl/mathgl/mgl64"

// Matrix3x3Wide is a lane-wide 3x3 matrix bundle, stored by row.
type Matrix3x3Wide struct {
	X, Y, Z Vector3Wide // rows
}

func SplatMatrix3x3(m mgl64.Mat3) Matrix3x3Wide {
	return Matrix3x3Wide{
		X: SplatVector3(mgl64.Vec3{m[0], m[3], m[6]}),
		Y: SplatVector3(mgl64.Vec3{m[1], m[4], m[7]}),
		Z: SplatVector3(mgl64.Vec3{m[2], m[5], m[8]}),
	}
}

func (m Matrix3x3Wide) ReadLane(i int) mgl64.Mat3 {
	return mgl64.Mat3{
		m.X.X[i], m.Y.X[i], m.Z.X[i],
		m.X.Y[i], m.Y.Y[i], m.Z.Y[i],
		m.X.Z[i], m.Y.Z[i], m.Z.Z[i],
	}
}

func (m *Matrix3x3Wide) WriteLane(i int, value mgl64.Mat3) {
	m.X.X[i], m.X.Y[i], m.X.Z[i] = value[0], value[3], value[6]
	m.Y.X[i], m.Y.Y[i], m.Y.Z[i] = value[1], value[4], value[7]
	m.Z.X[i], m.Z.Y[i], m.Z.Z[i] = value[2], value[5], value[8]
}

// TransformVector applies m * v lane-wise.
func (m Matrix3x3Wide) TransformVector(v Vector3Wide) Vector3Wide {
	return Vector3Wide{
		X: m.X.Dot(v),
		Y: m.Y.Dot(v),
		Z: m.Z.Dot(v),
	}
}

// WorldInverseInertia computes R * Ilocal^-1 * R^T lane-wise, the quantity
// every constraint prestep needs (spec.md 4.6's effective-mass computation).
func WorldInverseInertia(orientation QuaternionWide, localInverseInertia Matrix3x3Wide) Matrix3x3Wide {
	rx := orientation.Rotate(Vector3Wide{X: Splat(1)})
	ry := orientation.Rotate(Vector3Wide{Y: Splat(1)})
	rz := orientation.Rotate(Vector3Wide{Z: Splat(1)})

	rCols := Matrix3x3Wide{X: rx, Y: ry, Z: rz} // columns of R, as rows of R^T

	// tmp = Ilocal^-1 * R^T  (acting column-wise: tmp's columns are
	// localInverseInertia applied to R^T's columns, i.e. rx/ry/rz).
	tmpX := localInverseInertia.TransformVector(rCols.X)
	tmpY := localInverseInertia.TransformVector(rCols.Y)
	tmpZ := localInverseInertia.TransformVector(rCols.Z)

	// world = R * tmp. R's rows are rx, ry, rz (since R columns are the
	// rotated basis vectors, R^T rows are rx,ry,rz, so R rows = same
	// vectors reinterpreted as the rotation is orthonormal).
	row := func(axis Vector3Wide) Vector3Wide {
		return Vector3Wide{
			X: axis.X.Mul(tmpX.X).Add(axis.Y.Mul(tmpY.X)).Add(axis.Z.Mul(tmpZ.X)),
			Y: axis.X.Mul(tmpX.Y).Add(axis.Y.Mul(tmpY.Y)).Add(axis.Z.Mul(tmpZ.Y)),
			Z: axis.X.Mul(tmpX.Z).Add(axis.Y.Mul(tmpY.Z)).Add(axis.Z.Mul(tmpZ.Z)),
		}
	}

	return Matrix3x3Wide{X: row(rx), Y: row(ry), Z: row(rz)}
}
