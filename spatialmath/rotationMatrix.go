package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// RotationMatrix is a 3x3 matrix in row major order.
// m[3*r + c] is the element in the r'th row and c'th column.
type RotationMatrix struct {
	mat [9]float64
}

// NewRotationMatrix creates the rotation matrix from a slice of 9 values in row major order.
// The matrix is not checked for orthonormality.
func NewRotationMatrix(m []float64) (*RotationMatrix, error) {
	if len(m) != 9 {
		return nil, errors.New("input slice has wrong length to be a valid rotation matrix")
	}
	var rm RotationMatrix
	copy(rm.mat[:], m)
	return &rm, nil
}

// NewIdentityRotationMatrix returns the matrix of the zero rotation.
func NewIdentityRotationMatrix() *RotationMatrix {
	return &RotationMatrix{mat: [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}}
}

// NewRotationMatrixFromEulerAngles builds R = Rz(yaw)·Ry(pitch)·Rx(roll) in closed form.
func NewRotationMatrixFromEulerAngles(ea *EulerAngles) *RotationMatrix {
	sa, ca := math.Sincos(ea.Roll)
	sb, cb := math.Sincos(ea.Pitch)
	sg, cg := math.Sincos(ea.Yaw)

	return &RotationMatrix{mat: [9]float64{
		cb * cg, sa*sb*cg - ca*sg, ca*sb*cg + sa*sg,
		cb * sg, sa*sb*sg + ca*cg, ca*sb*sg - sa*cg,
		-sb, sa * cb, ca * cb,
	}}
}

// At returns the element at row, col.
func (rm *RotationMatrix) At(row, col int) float64 {
	return rm.mat[row*3+col]
}

// Row returns the row at the given index as a vector.
func (rm *RotationMatrix) Row(row int) r3.Vector {
	return r3.Vector{X: rm.mat[3*row], Y: rm.mat[3*row+1], Z: rm.mat[3*row+2]}
}

// Col returns the column at the given index as a vector.
func (rm *RotationMatrix) Col(col int) r3.Vector {
	return r3.Vector{X: rm.mat[col], Y: rm.mat[col+3], Z: rm.mat[col+6]}
}

// Mul returns R·v.
func (rm *RotationMatrix) Mul(v r3.Vector) r3.Vector {
	return r3.Vector{
		X: rm.mat[0]*v.X + rm.mat[1]*v.Y + rm.mat[2]*v.Z,
		Y: rm.mat[3]*v.X + rm.mat[4]*v.Y + rm.mat[5]*v.Z,
		Z: rm.mat[6]*v.X + rm.mat[7]*v.Y + rm.mat[8]*v.Z,
	}
}

// Compose returns the matrix product rm·other, i.e. other is applied first.
func (rm *RotationMatrix) Compose(other *RotationMatrix) *RotationMatrix {
	var out RotationMatrix
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out.mat[3*r+c] = rm.Row(r).Dot(other.Col(c))
		}
	}
	return &out
}

// Transpose returns the transpose, which for a proper rotation is also its inverse.
func (rm *RotationMatrix) Transpose() *RotationMatrix {
	m := rm.mat
	return &RotationMatrix{mat: [9]float64{
		m[0], m[3], m[6],
		m[1], m[4], m[7],
		m[2], m[5], m[8],
	}}
}

// Det returns the determinant.
func (rm *RotationMatrix) Det() float64 {
	return rm.Row(0).Dot(rm.Row(1).Cross(rm.Row(2)))
}

// Dense returns a copy of the matrix as a gonum dense matrix.
func (rm *RotationMatrix) Dense() *mat.Dense {
	data := make([]float64, 9)
	copy(data, rm.mat[:])
	return mat.NewDense(3, 3, data)
}

// IsOrthonormal reports whether R·Rᵀ is the identity and det(R) is 1, both within tol.
func (rm *RotationMatrix) IsOrthonormal(tol float64) bool {
	prod := rm.Compose(rm.Transpose())
	identity := NewIdentityRotationMatrix()
	for i := range prod.mat {
		if math.Abs(prod.mat[i]-identity.mat[i]) > tol {
			return false
		}
	}
	return math.Abs(rm.Det()-1) <= tol
}

func (rm *RotationMatrix) String() string {
	m := rm.mat
	return fmt.Sprintf("[%.6g %.6g %.6g; %.6g %.6g %.6g; %.6g %.6g %.6g]", m[0], m[1], m[2], m[3], m[4], m[5], m[6], m[7], m[8])
}
