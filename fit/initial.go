package fit

import (
	"math"
	"math/rand"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/surfacemetrology/surfacefit/pointcloud"
	"github.com/surfacemetrology/surfacefit/spatialmath"
	"github.com/surfacemetrology/surfacefit/surface"
)

// DefaultInitial guesses shape parameters for m from the bounding box of pts, assuming the
// surface is a trough whose lowest line runs along x near the middle of the y range.
// The rotation angles of the returned vector are zero.
func DefaultInitial(m surface.Model, pts []r3.Vector) ([]float64, error) {
	if len(pts) == 0 {
		return nil, errors.New("cannot guess initial parameters without points")
	}
	meta := pointcloud.Vectors(pts).Bounds()
	center := meta.Center()
	halfWidth := (meta.MaxY - meta.MinY) / 2
	if halfWidth == 0 {
		halfWidth = 1
	}
	depth := meta.MaxZ - meta.MinZ
	if depth == 0 {
		depth = 1
	}

	var params []float64
	switch m.Name() {
	case surface.ParabolicName:
		params = []float64{depth / (halfWidth * halfWidth), center.Y, meta.MinZ}
	case surface.ParabolicLegacyName:
		params = []float64{depth / (halfWidth * halfWidth), center.Y, meta.MinZ / 2}
	case surface.CoshName:
		params = []float64{1 / halfWidth, depth / (math.Cosh(1) - 1), center.Y, meta.MinZ}
	case surface.CylinderName:
		// Slightly wider than the data so every point starts inside the domain.
		radius := 1.05 * math.Max(halfWidth, depth)
		params = []float64{center.Y, radius, radius, meta.MinZ + radius}
	default:
		return nil, errors.Errorf("no initial guess for model %q", m.Name())
	}
	return surface.JoinParams(params, spatialmath.NewEulerAngles()), nil
}

// JitterStarts returns n starting vectors: initial itself followed by n-1 copies whose rotation
// angles are perturbed uniformly within ±spread radians.
func JitterStarts(m surface.Model, initial []float64, n int, spread float64, seed int64) [][]float64 {
	if n < 1 {
		n = 1
	}
	rnd := rand.New(rand.NewSource(seed)) //nolint:gosec
	starts := make([][]float64, 0, n)
	starts = append(starts, append([]float64(nil), initial...))
	nParams := surface.NumParams(m)
	for i := 1; i < n; i++ {
		x := append([]float64(nil), initial...)
		for j := nParams; j < len(x); j++ {
			x[j] += (rnd.Float64()*2 - 1) * spread
		}
		starts = append(starts, x)
	}
	return starts
}
