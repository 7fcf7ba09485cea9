package spatialmath

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// EulerAngles are three angles (in radians) used to represent the rotation of an object in 3D Euclidean space.
// Roll, Pitch and Yaw rotate about the x, y and z axes of the fixed measurement frame, applied in that order,
// so the composed rotation is Rz(Yaw)·Ry(Pitch)·Rx(Roll).
type EulerAngles struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// NewEulerAngles creates an empty EulerAngles struct, which signifies no rotation.
func NewEulerAngles() *EulerAngles {
	return &EulerAngles{Roll: 0, Pitch: 0, Yaw: 0}
}

// NewEulerAnglesFromSlice builds EulerAngles from a (roll, pitch, yaw) triple. It panics if fewer than
// three values are given.
func NewEulerAnglesFromSlice(angles []float64) *EulerAngles {
	return &EulerAngles{Roll: angles[0], Pitch: angles[1], Yaw: angles[2]}
}

// Slice returns the angles as (roll, pitch, yaw).
func (ea *EulerAngles) Slice() []float64 {
	return []float64{ea.Roll, ea.Pitch, ea.Yaw}
}

// EulerAngles returns orientation in Euler angle representation.
func (ea *EulerAngles) EulerAngles() *EulerAngles {
	return ea
}

// RotationMatrix returns the rotation matrix of these Euler angles.
func (ea *EulerAngles) RotationMatrix() *RotationMatrix {
	return NewRotationMatrixFromEulerAngles(ea)
}

// Quaternion returns the unit quaternion equivalent to Rz(Yaw)·Ry(Pitch)·Rx(Roll).
func (ea *EulerAngles) Quaternion() quat.Number {
	cr, sr := math.Cos(ea.Roll/2), math.Sin(ea.Roll/2)
	cp, sp := math.Cos(ea.Pitch/2), math.Sin(ea.Pitch/2)
	cy, sy := math.Cos(ea.Yaw/2), math.Sin(ea.Yaw/2)

	return quat.Number{
		Real: cr*cp*cy + sr*sp*sy,
		Imag: sr*cp*cy - cr*sp*sy,
		Jmag: cr*sp*cy + sr*cp*sy,
		Kmag: cr*cp*sy - sr*sp*cy,
	}
}
