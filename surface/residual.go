package surface

import (
	"github.com/golang/geo/r3"

	"github.com/surfacemetrology/surfacefit/spatialmath"
)

// NumAngles is the number of rotation angles appended to the shape parameters in an optimizer vector.
const NumAngles = 3

// Evaluation holds the rotated point cloud and the model elevation at each rotated point.
// All four slices have one entry per input point.
type Evaluation struct {
	X, Y, Z   []float64
	Predicted []float64
}

// Residuals returns, for each point, the model elevation minus the rotated z coordinate.
// This is the vector a least-squares optimizer drives towards zero.
func Residuals(pts []r3.Vector, m Model, params []float64, ea *spatialmath.EulerAngles) []float64 {
	_, ys, zs := spatialmath.RotatePoints(pts, ea)
	res := make([]float64, len(pts))
	for i := range ys {
		res[i] = m.Elevation(ys[i], params) - zs[i]
	}
	return res
}

// Evaluate rotates the points and evaluates the model on the rotated transverse coordinate,
// returning the arrays needed to compare the fitted model with the data.
func Evaluate(pts []r3.Vector, m Model, params []float64, ea *spatialmath.EulerAngles) *Evaluation {
	xs, ys, zs := spatialmath.RotatePoints(pts, ea)
	predicted := make([]float64, len(ys))
	for i, y := range ys {
		predicted[i] = m.Elevation(y, params)
	}
	return &Evaluation{X: xs, Y: ys, Z: zs, Predicted: predicted}
}

// Residuals returns Predicted − Z.
func (ev *Evaluation) Residuals() []float64 {
	res := make([]float64, len(ev.Z))
	for i := range ev.Z {
		res[i] = ev.Predicted[i] - ev.Z[i]
	}
	return res
}

// Len is the number of evaluated points.
func (ev *Evaluation) Len() int {
	return len(ev.Z)
}

// SplitParams splits an optimizer vector into the shape parameters of m and the rotation angles.
// The returned shape slice aliases x.
func SplitParams(m Model, x []float64) ([]float64, *spatialmath.EulerAngles) {
	n := NumParams(m)
	return x[:n], spatialmath.NewEulerAnglesFromSlice(x[n : n+NumAngles])
}

// JoinParams builds an optimizer vector from shape parameters and angles.
func JoinParams(params []float64, ea *spatialmath.EulerAngles) []float64 {
	x := make([]float64, 0, len(params)+NumAngles)
	x = append(x, params...)
	return append(x, ea.Roll, ea.Pitch, ea.Yaw)
}

// Objective returns a function of the joint vector {shape params..., alpha, beta, gamma}
// that yields the residual vector for pts.
func Objective(pts []r3.Vector, m Model) func(x []float64) []float64 {
	return func(x []float64) []float64 {
		params, ea := SplitParams(m, x)
		return Residuals(pts, m, params, ea)
	}
}

// SumOfSquares returns Σ r². Any non-finite residual makes the sum non-finite.
func SumOfSquares(res []float64) float64 {
	var sum float64
	for _, r := range res {
		sum += r * r
	}
	return sum
}
