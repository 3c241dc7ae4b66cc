// Copyright 2024 The Ttcr Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package geom implements the 3D geometric primitives and predicates used
// to index and query an unstructured tetrahedral mesh: points, tetrahedra,
// triangular faces, barycentric coordinates and point/segment/face tests.
package geom

import (
	"math"

	"github.com/cpmech/gosl/utl"
)

// Point is a position in 3D space, double precision.
type Point struct {
	X, Y, Z float64
}

// Sub returns a-b.
func (a Point) Sub(b Point) Point {
	return Point{a.X - b.X, a.Y - b.Y, a.Z - b.Z}
}

// Add returns a+b.
func (a Point) Add(b Point) Point {
	return Point{a.X + b.X, a.Y + b.Y, a.Z + b.Z}
}

// Scale returns a scaled by k.
func (a Point) Scale(k float64) Point {
	return Point{a.X * k, a.Y * k, a.Z * k}
}

// Dot returns the dot product a.b.
func (a Point) Dot(b Point) float64 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

// Cross returns the cross product a x b.
func (a Point) Cross(b Point) Point {
	return Point{
		a.Y*b.Z - a.Z*b.Y,
		a.Z*b.X - a.X*b.Z,
		a.X*b.Y - a.Y*b.X,
	}
}

// Norm returns the Euclidean length of a.
func (a Point) Norm() float64 {
	return math.Sqrt(a.Dot(a))
}

// Dist returns the Euclidean distance between a and b.
func (a Point) Dist(b Point) float64 {
	return a.Sub(b).Norm()
}

// Lerp returns the point at parameter t along the segment a->b (t=0 -> a, t=1 -> b).
func (a Point) Lerp(b Point, t float64) Point {
	return a.Add(b.Sub(a).Scale(t))
}

// Slice returns the point as a [3]float64 slice, the shape la.VecNorm and
// friends expect.
func (a Point) Slice() []float64 {
	return []float64{a.X, a.Y, a.Z}
}

// BBox is an axis-aligned bounding box.
type BBox struct {
	Min, Max Point
}

// Contains reports whether p lies inside the box enlarged by tol on every side.
func (b BBox) Contains(p Point, tol float64) bool {
	return p.X >= b.Min.X-tol && p.X <= b.Max.X+tol &&
		p.Y >= b.Min.Y-tol && p.Y <= b.Max.Y+tol &&
		p.Z >= b.Min.Z-tol && p.Z <= b.Max.Z+tol
}

// Expand grows the box to include p.
func (b *BBox) Expand(p Point) {
	b.Min.X = utl.Min(b.Min.X, p.X)
	b.Min.Y = utl.Min(b.Min.Y, p.Y)
	b.Min.Z = utl.Min(b.Min.Z, p.Z)
	b.Max.X = utl.Max(b.Max.X, p.X)
	b.Max.Y = utl.Max(b.Max.Y, p.Y)
	b.Max.Z = utl.Max(b.Max.Z, p.Z)
}

// NewBBox returns a degenerate box sitting at p, ready for Expand calls.
func NewBBox(p Point) BBox {
	return BBox{Min: p, Max: p}
}
