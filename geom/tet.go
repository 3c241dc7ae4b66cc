// Copyright 2024 The Ttcr Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package geom

import "math"

// Tet holds the four corner positions of a tetrahedron, in the order used to
// compute barycentric coordinates: vertex 0 is the apex opposite face (1,2,3).
type Tet struct {
	V [4]Point
}

// Volume returns the signed volume of the tetrahedron (positive for a
// right-handed vertex ordering).
func (t Tet) Volume() float64 {
	a := t.V[1].Sub(t.V[0])
	b := t.V[2].Sub(t.V[0])
	c := t.V[3].Sub(t.V[0])
	return a.Cross(b).Dot(c) / 6.0
}

// Centroid returns the arithmetic mean of the four corners.
func (t Tet) Centroid() Point {
	return Point{
		X: (t.V[0].X + t.V[1].X + t.V[2].X + t.V[3].X) / 4,
		Y: (t.V[0].Y + t.V[1].Y + t.V[2].Y + t.V[3].Y) / 4,
		Z: (t.V[0].Z + t.V[1].Z + t.V[2].Z + t.V[3].Z) / 4,
	}
}

// Barycentric returns the four barycentric weights of p with respect to t,
// such that p = w0*V0 + w1*V1 + w2*V2 + w3*V3 and w0+w1+w2+w3 = 1. ok is
// false for a degenerate (zero-volume) tetrahedron.
func (t Tet) Barycentric(p Point) (w [4]float64, ok bool) {
	vol6 := 6 * t.Volume()
	if math.Abs(vol6) < 1e-300 {
		return w, false
	}
	sub := func(a, b, c, d Point) float64 {
		// signed volume*6 of tetrahedron (a,b,c,d)
		u := b.Sub(a)
		v := c.Sub(a)
		ww := d.Sub(a)
		return u.Cross(v).Dot(ww)
	}
	w[0] = sub(p, t.V[1], t.V[2], t.V[3]) / vol6
	w[1] = sub(t.V[0], p, t.V[2], t.V[3]) / vol6
	w[2] = sub(t.V[0], t.V[1], p, t.V[3]) / vol6
	w[3] = 1 - w[0] - w[1] - w[2]
	return w, true
}

// Contains reports whether p lies inside t, allowing each barycentric weight
// to be negative by up to tol (a point-in-tetrahedron test with tolerance).
func (t Tet) Contains(p Point, tol float64) bool {
	w, ok := t.Barycentric(p)
	if !ok {
		return false
	}
	for _, wi := range w {
		if wi < -tol {
			return false
		}
	}
	return true
}

// Interp linearly interpolates per-vertex values val (length 4) at p using
// barycentric weights. ok is false if p's barycentric coordinates cannot be
// computed (degenerate tet).
func (t Tet) Interp(p Point, val [4]float64) (v float64, ok bool) {
	w, ok := t.Barycentric(p)
	if !ok {
		return 0, false
	}
	return w[0]*val[0] + w[1]*val[1] + w[2]*val[2] + w[3]*val[3], true
}

// faceLocalVerts lists, for each of the 4 faces of a tet, the local indices
// (into V) of the face's 3 corners, opposite the local vertex of the same
// index. Matches the convention used throughout gofem's shp package: face i
// is opposite vertex i.
var faceLocalVerts = [4][3]int{
	{1, 2, 3},
	{0, 2, 3},
	{0, 1, 3},
	{0, 1, 2},
}

// Face returns the local-index triangle opposite local vertex i (i in 0..3).
func (t Tet) Face(i int) Triangle {
	lv := faceLocalVerts[i]
	return Triangle{V: [3]Point{t.V[lv[0]], t.V[lv[1]], t.V[lv[2]]}}
}

// LongestEdge returns the length of the longest of the tetrahedron's six edges.
func (t Tet) LongestEdge() float64 {
	max := 0.0
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			if d := t.V[i].Dist(t.V[j]); d > max {
				max = d
			}
		}
	}
	return max
}

// BBox returns the axis-aligned bounding box of the tetrahedron's corners.
func (t Tet) BBox() BBox {
	b := NewBBox(t.V[0])
	b.Expand(t.V[1])
	b.Expand(t.V[2])
	b.Expand(t.V[3])
	return b
}
