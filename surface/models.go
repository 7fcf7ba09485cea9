package surface

import "math"

// Model names.
const (
	ParabolicName       = "parabolic"
	ParabolicLegacyName = "parabolic-legacy"
	CoshName            = "cosh"
	CylinderName        = "cylinder"
)

// Parabolic is a parabolic cylinder, z = a·(y−y0)² + c, with params {a, y0, c}.
//
// With DoubleOffset set the offset is added twice, z = c + a·(y−y0)² + c. Earlier fits were made
// with that form; use it only to reproduce their parameters.
type Parabolic struct {
	DoubleOffset bool
}

// Name returns the registry key.
func (p *Parabolic) Name() string {
	if p.DoubleOffset {
		return ParabolicLegacyName
	}
	return ParabolicName
}

// ParamNames returns {a, y0, c}.
func (p *Parabolic) ParamNames() []string {
	return []string{"a", "y0", "c"}
}

// Elevation evaluates the parabola at y.
func (p *Parabolic) Elevation(y float64, params []float64) float64 {
	a, y0, c := params[0], params[1], params[2]
	d := y - y0
	if p.DoubleOffset {
		return c + a*d*d + c
	}
	return a*d*d + c
}

// Cosh is a catenary profile, z = A·(cosh(a·(y−y0)) − 1) + c, with params {a, A, y0, c}.
type Cosh struct{}

// Name returns the registry key.
func (*Cosh) Name() string {
	return CoshName
}

// ParamNames returns {a, A, y0, c}.
func (*Cosh) ParamNames() []string {
	return []string{"a", "A", "y0", "c"}
}

// Elevation evaluates the catenary at y.
func (*Cosh) Elevation(y float64, params []float64) float64 {
	a, amp, y0, c := params[0], params[1], params[2], params[3]
	return amp*(math.Cosh(a*(y-y0))-1) + c
}

// Cylinder is the lower half of an elliptic cylinder, z = z0 − b·√(1 − (y−y0)²/a²),
// with params {y0, b, a, z0}. For a circular cross section b equals a.
//
// Outside |y−y0| ≤ |a| the root is NaN, and a = 0 divides by zero; both are returned as is.
type Cylinder struct{}

// Name returns the registry key.
func (*Cylinder) Name() string {
	return CylinderName
}

// ParamNames returns {y0, b, a, z0}.
func (*Cylinder) ParamNames() []string {
	return []string{"y0", "b", "a", "z0"}
}

// Elevation evaluates the cylinder at y.
func (*Cylinder) Elevation(y float64, params []float64) float64 {
	y0, b, a, z0 := params[0], params[1], params[2], params[3]
	d := y - y0
	return z0 - b*math.Sqrt(1-d*d/(a*a))
}
