// Package pointcloud holds collections of measured 3-D points and reads and writes them.
//
// Points are r3.Vector values. A Vectors slice keeps the order in which points were read,
// and none of its methods modify the receiver.
package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
)

// NewVector convenience method for creating a vector.
func NewVector(x, y, z float64) r3.Vector {
	return r3.Vector{X: x, Y: y, Z: z}
}

// Vectors is a series of three-dimensional vectors.
type Vectors []r3.Vector

// Len returns the number of vectors.
func (vs Vectors) Len() int {
	return len(vs)
}

// FromColumns zips three equal length coordinate slices into points.
func FromColumns(xs, ys, zs []float64) Vectors {
	out := make(Vectors, len(xs))
	for i := range xs {
		out[i] = r3.Vector{X: xs[i], Y: ys[i], Z: zs[i]}
	}
	return out
}

// Columns splits the points into x, y and z slices.
func (vs Vectors) Columns() (xs, ys, zs []float64) {
	xs = make([]float64, len(vs))
	ys = make([]float64, len(vs))
	zs = make([]float64, len(vs))
	for i, v := range vs {
		xs[i], ys[i], zs[i] = v.X, v.Y, v.Z
	}
	return xs, ys, zs
}

// FilterMinZ returns the points whose z coordinate is at least minZ.
func (vs Vectors) FilterMinZ(minZ float64) Vectors {
	return vs.Filter(func(v r3.Vector) bool { return v.Z >= minZ })
}

// Filter returns the points for which keep returns true, in order.
func (vs Vectors) Filter(keep func(r3.Vector) bool) Vectors {
	out := make(Vectors, 0, len(vs))
	for _, v := range vs {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// MetaData is the axis aligned bounding box of a set of points.
type MetaData struct {
	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64
}

// NewMetaData returns bounds that any point will expand.
func NewMetaData() MetaData {
	return MetaData{
		MinX: math.MaxFloat64,
		MinY: math.MaxFloat64,
		MinZ: math.MaxFloat64,
		MaxX: -math.MaxFloat64,
		MaxY: -math.MaxFloat64,
		MaxZ: -math.MaxFloat64,
	}
}

// Merge expands the bounds to include v.
func (meta *MetaData) Merge(v r3.Vector) {
	meta.MinX = math.Min(meta.MinX, v.X)
	meta.MinY = math.Min(meta.MinY, v.Y)
	meta.MinZ = math.Min(meta.MinZ, v.Z)
	meta.MaxX = math.Max(meta.MaxX, v.X)
	meta.MaxY = math.Max(meta.MaxY, v.Y)
	meta.MaxZ = math.Max(meta.MaxZ, v.Z)
}

// Center returns the middle of the bounds.
func (meta MetaData) Center() r3.Vector {
	return r3.Vector{
		X: (meta.MinX + meta.MaxX) / 2,
		Y: (meta.MinY + meta.MaxY) / 2,
		Z: (meta.MinZ + meta.MaxZ) / 2,
	}
}

// Bounds returns the bounding box of the points. It returns NewMetaData() when there are none.
func (vs Vectors) Bounds() MetaData {
	meta := NewMetaData()
	for _, v := range vs {
		meta.Merge(v)
	}
	return meta
}
