package spatialmath

import "github.com/golang/geo/r3"

// RotatePoint returns R·[x y z]ᵀ for the rotation given by alpha, beta and gamma (about x, y and z).
// Non-finite inputs propagate through the arithmetic.
func RotatePoint(x, y, z, alpha, beta, gamma float64) r3.Vector {
	rm := NewRotationMatrixFromEulerAngles(&EulerAngles{Roll: alpha, Pitch: beta, Yaw: gamma})
	return rm.Mul(r3.Vector{X: x, Y: y, Z: z})
}

// RotatePoints rotates every point and returns the rotated coordinates as three parallel slices
// in input order. An empty input yields three empty, non-nil slices.
func RotatePoints(pts []r3.Vector, ea *EulerAngles) (xs, ys, zs []float64) {
	rm := NewRotationMatrixFromEulerAngles(ea)
	xs = make([]float64, len(pts))
	ys = make([]float64, len(pts))
	zs = make([]float64, len(pts))
	for i, p := range pts {
		rp := rm.Mul(p)
		xs[i], ys[i], zs[i] = rp.X, rp.Y, rp.Z
	}
	return xs, ys, zs
}

// RotateVectors is like RotatePoints but returns the rotated points as vectors.
func RotateVectors(pts []r3.Vector, ea *EulerAngles) []r3.Vector {
	return TransformVectors(pts, NewRotationMatrixFromEulerAngles(ea))
}

// TransformVectors applies rm to each point, preserving order.
func TransformVectors(pts []r3.Vector, rm *RotationMatrix) []r3.Vector {
	out := make([]r3.Vector, len(pts))
	for i, p := range pts {
		out[i] = rm.Mul(p)
	}
	return out
}
