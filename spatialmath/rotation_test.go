package spatialmath

import (
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

func elementalRotations(ea *EulerAngles) (rx, ry, rz *mat.Dense) {
	sa, ca := math.Sincos(ea.Roll)
	sb, cb := math.Sincos(ea.Pitch)
	sg, cg := math.Sincos(ea.Yaw)
	rx = mat.NewDense(3, 3, []float64{1, 0, 0, 0, ca, -sa, 0, sa, ca})
	ry = mat.NewDense(3, 3, []float64{cb, 0, sb, 0, 1, 0, -sb, 0, cb})
	rz = mat.NewDense(3, 3, []float64{cg, -sg, 0, sg, cg, 0, 0, 0, 1})
	return rx, ry, rz
}

func randomAngles(rnd *rand.Rand) *EulerAngles {
	return &EulerAngles{
		Roll:  (rnd.Float64()*2 - 1) * math.Pi,
		Pitch: (rnd.Float64()*2 - 1) * math.Pi,
		Yaw:   (rnd.Float64()*2 - 1) * math.Pi,
	}
}

func vectorsAlmostEqual(t *testing.T, a, b r3.Vector, tol float64) {
	t.Helper()
	test.That(t, a.X, test.ShouldAlmostEqual, b.X, tol)
	test.That(t, a.Y, test.ShouldAlmostEqual, b.Y, tol)
	test.That(t, a.Z, test.ShouldAlmostEqual, b.Z, tol)
}

func TestIdentityRotation(t *testing.T) {
	for _, p := range []r3.Vector{{X: 1, Y: 2, Z: 3}, {X: -4.5, Y: 0, Z: 1e3}, {X: 0, Y: 0, Z: 0}} {
		vectorsAlmostEqual(t, RotatePoint(p.X, p.Y, p.Z, 0, 0, 0), p, 1e-12)
	}
	rm := NewEulerAngles().RotationMatrix()
	test.That(t, rm.IsOrthonormal(1e-12), test.ShouldBeTrue)
	test.That(t, rm.Det(), test.ShouldAlmostEqual, 1.)
}

func TestSingleAxisRotations(t *testing.T) {
	half := math.Pi / 2
	vectorsAlmostEqual(t, RotatePoint(1, 0, 0, 0, 0, half), r3.Vector{X: 0, Y: 1, Z: 0}, 1e-12)
	vectorsAlmostEqual(t, RotatePoint(0, 1, 0, half, 0, 0), r3.Vector{X: 0, Y: 0, Z: 1}, 1e-12)
	vectorsAlmostEqual(t, RotatePoint(0, 0, 1, 0, half, 0), r3.Vector{X: 1, Y: 0, Z: 0}, 1e-12)
	vectorsAlmostEqual(t, RotatePoint(1, 0, 0, half, 0, 0), r3.Vector{X: 1, Y: 0, Z: 0}, 1e-12)
}

func TestClosedFormMatchesComposition(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		ea := randomAngles(rnd)
		rx, ry, rz := elementalRotations(ea)
		var zy, zyx mat.Dense
		zy.Mul(rz, ry)
		zyx.Mul(&zy, rx)
		test.That(t, mat.EqualApprox(&zyx, ea.RotationMatrix().Dense(), 1e-12), test.ShouldBeTrue)
	}
}

func TestOrthogonality(t *testing.T) {
	rnd := rand.New(rand.NewSource(2))
	identity := mat.NewDiagDense(3, []float64{1, 1, 1})
	for i := 0; i < 200; i++ {
		rm := randomAngles(rnd).RotationMatrix()
		dense := rm.Dense()

		var prod mat.Dense
		prod.Mul(dense, dense.T())
		test.That(t, mat.EqualApprox(&prod, identity, 1e-12), test.ShouldBeTrue)
		test.That(t, mat.Det(dense), test.ShouldAlmostEqual, 1., 1e-12)

		// The transpose is the inverse.
		var inv mat.Dense
		test.That(t, inv.Inverse(dense), test.ShouldBeNil)
		test.That(t, mat.EqualApprox(&inv, rm.Transpose().Dense(), 1e-9), test.ShouldBeTrue)
		test.That(t, rm.IsOrthonormal(1e-12), test.ShouldBeTrue)
	}
}

func TestRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	pts := make([]r3.Vector, 25)
	for i := range pts {
		pts[i] = r3.Vector{X: rnd.NormFloat64() * 10, Y: rnd.NormFloat64() * 10, Z: rnd.NormFloat64() * 10}
	}
	for i := 0; i < 20; i++ {
		ea := randomAngles(rnd)
		rm := ea.RotationMatrix()
		back := TransformVectors(RotateVectors(pts, ea), rm.Transpose())
		test.That(t, back, test.ShouldHaveLength, len(pts))
		for j := range pts {
			vectorsAlmostEqual(t, back[j], pts[j], 1e-9)
		}
	}

	// Negating the angles is not an inverse for a composed rotation.
	ea := &EulerAngles{Roll: 0.3, Pitch: -0.7, Yaw: 1.1}
	naive := RotateVectors(RotateVectors(pts[:1], ea), &EulerAngles{Roll: -0.3, Pitch: 0.7, Yaw: -1.1})
	test.That(t, naive[0].Sub(pts[0]).Norm(), test.ShouldBeGreaterThan, 1e-3)
}

func TestRotatePoints(t *testing.T) {
	xs, ys, zs := RotatePoints(nil, &EulerAngles{Roll: 1, Pitch: 2, Yaw: 3})
	test.That(t, xs, test.ShouldNotBeNil)
	test.That(t, xs, test.ShouldHaveLength, 0)
	test.That(t, ys, test.ShouldHaveLength, 0)
	test.That(t, zs, test.ShouldHaveLength, 0)

	ea := &EulerAngles{Roll: 0.1, Pitch: 0.2, Yaw: 0.3}
	for _, n := range []int{1, 2, 17} {
		pts := make([]r3.Vector, n)
		for i := range pts {
			pts[i] = r3.Vector{X: float64(i), Y: float64(2 * i), Z: float64(-i)}
		}
		xs, ys, zs := RotatePoints(pts, ea)
		test.That(t, xs, test.ShouldHaveLength, n)
		test.That(t, ys, test.ShouldHaveLength, n)
		test.That(t, zs, test.ShouldHaveLength, n)
		for i, p := range pts {
			vectorsAlmostEqual(t, r3.Vector{X: xs[i], Y: ys[i], Z: zs[i]}, RotatePoint(p.X, p.Y, p.Z, 0.1, 0.2, 0.3), 1e-12)
		}
	}
}

func TestNonFinitePropagates(t *testing.T) {
	p := RotatePoint(math.NaN(), 1, 1, 0.2, 0.2, 0.2)
	test.That(t, math.IsNaN(p.X), test.ShouldBeTrue)
	p = RotatePoint(1, 1, 1, math.Inf(1), 0, 0)
	test.That(t, math.IsNaN(p.Y), test.ShouldBeTrue)
}

func TestQuaternionAgreesWithMatrix(t *testing.T) {
	rnd := rand.New(rand.NewSource(4))
	for i := 0; i < 50; i++ {
		ea := randomAngles(rnd)
		q := ea.Quaternion()
		test.That(t, quat.Abs(q), test.ShouldAlmostEqual, 1., 1e-12)

		v := r3.Vector{X: rnd.Float64(), Y: rnd.Float64(), Z: rnd.Float64()}
		qv := quat.Mul(quat.Mul(q, quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}), quat.Conj(q))
		vectorsAlmostEqual(t, r3.Vector{X: qv.Imag, Y: qv.Jmag, Z: qv.Kmag}, ea.RotationMatrix().Mul(v), 1e-9)
	}
}

func TestRotationMatrixAccessors(t *testing.T) {
	_, err := NewRotationMatrix([]float64{1, 2})
	test.That(t, err, test.ShouldNotBeNil)

	rm, err := NewRotationMatrix([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rm.At(1, 2), test.ShouldEqual, 6.)
	test.That(t, rm.Row(2), test.ShouldResemble, r3.Vector{X: 7, Y: 8, Z: 9})
	test.That(t, rm.Col(0), test.ShouldResemble, r3.Vector{X: 1, Y: 4, Z: 7})
	test.That(t, rm.Transpose().Row(0), test.ShouldResemble, r3.Vector{X: 1, Y: 4, Z: 7})
	test.That(t, rm.IsOrthonormal(1e-6), test.ShouldBeFalse)

	ea := &EulerAngles{Roll: 0.4, Pitch: 0.5, Yaw: 0.6}
	test.That(t, NewEulerAnglesFromSlice(ea.Slice()), test.ShouldResemble, ea)
}
