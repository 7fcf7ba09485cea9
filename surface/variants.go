package surface

import (
	"github.com/golang/geo/r3"

	"github.com/surfacemetrology/surfacefit/spatialmath"
)

var (
	parabolic = &Parabolic{}
	catenary  = &Cosh{}
	cylinder  = &Cylinder{}
)

func angles(alpha, beta, gamma float64) *spatialmath.EulerAngles {
	return &spatialmath.EulerAngles{Roll: alpha, Pitch: beta, Yaw: gamma}
}

// ParabolicResiduals is Residuals for the parabolic model with explicit arguments.
func ParabolicResiduals(pts []r3.Vector, a, y0, c, alpha, beta, gamma float64) []float64 {
	return Residuals(pts, parabolic, []float64{a, y0, c}, angles(alpha, beta, gamma))
}

// ParabolicValues is Evaluate for the parabolic model with explicit arguments.
func ParabolicValues(pts []r3.Vector, a, y0, c, alpha, beta, gamma float64) *Evaluation {
	return Evaluate(pts, parabolic, []float64{a, y0, c}, angles(alpha, beta, gamma))
}

// CoshResiduals is Residuals for the catenary model with explicit arguments.
func CoshResiduals(pts []r3.Vector, a, amplitude, y0, c, alpha, beta, gamma float64) []float64 {
	return Residuals(pts, catenary, []float64{a, amplitude, y0, c}, angles(alpha, beta, gamma))
}

// CoshValues is Evaluate for the catenary model with explicit arguments.
func CoshValues(pts []r3.Vector, a, amplitude, y0, c, alpha, beta, gamma float64) *Evaluation {
	return Evaluate(pts, catenary, []float64{a, amplitude, y0, c}, angles(alpha, beta, gamma))
}

// CylinderResiduals is Residuals for the cylinder model with explicit arguments.
func CylinderResiduals(pts []r3.Vector, y0, b, a, z0, alpha, beta, gamma float64) []float64 {
	return Residuals(pts, cylinder, []float64{y0, b, a, z0}, angles(alpha, beta, gamma))
}

// CylinderValues is Evaluate for the cylinder model with explicit arguments.
func CylinderValues(pts []r3.Vector, y0, b, a, z0, alpha, beta, gamma float64) *Evaluation {
	return Evaluate(pts, cylinder, []float64{y0, b, a, z0}, angles(alpha, beta, gamma))
}
