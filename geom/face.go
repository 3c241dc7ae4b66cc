// Copyright 2024 The Ttcr Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package geom

import "math"

// Triangle is a planar face of a tetrahedron, given by its three corners.
type Triangle struct {
	V [3]Point
}

// Normal returns the (non-unit) normal vector of the triangle, following the
// right-hand rule over (V1-V0) x (V2-V0).
func (f Triangle) Normal() Point {
	return f.V[1].Sub(f.V[0]).Cross(f.V[2].Sub(f.V[0]))
}

// Centroid returns the triangle's barycenter.
func (f Triangle) Centroid() Point {
	return Point{
		X: (f.V[0].X + f.V[1].X + f.V[2].X) / 3,
		Y: (f.V[0].Y + f.V[1].Y + f.V[2].Y) / 3,
		Z: (f.V[0].Z + f.V[1].Z + f.V[2].Z) / 3,
	}
}

// Barycentric returns the barycentric weights of p projected onto the plane
// of f. ok is false for a degenerate (zero-area) triangle.
func (f Triangle) Barycentric(p Point) (w [3]float64, ok bool) {
	n := f.Normal()
	area2 := n.Norm()
	if area2 < 1e-300 {
		return w, false
	}
	nHat := n.Scale(1 / area2)
	sub := func(a, b, c Point) float64 {
		return b.Sub(a).Cross(c.Sub(a)).Dot(nHat)
	}
	total := sub(f.V[0], f.V[1], f.V[2])
	if math.Abs(total) < 1e-300 {
		return w, false
	}
	w[0] = sub(p, f.V[1], f.V[2]) / total
	w[1] = sub(f.V[0], p, f.V[2]) / total
	w[2] = 1 - w[0] - w[1]
	return w, true
}

// Contains reports whether p (assumed coplanar with f, within tol) lies
// inside the triangle.
func (f Triangle) Contains(p Point, tol float64) bool {
	w, ok := f.Barycentric(p)
	if !ok {
		return false
	}
	return w[0] >= -tol && w[1] >= -tol && w[2] >= -tol
}

// DistToPlane returns the signed distance from p to the plane of f, positive
// on the side the normal points to.
func (f Triangle) DistToPlane(p Point) float64 {
	n := f.Normal()
	nn := n.Norm()
	if nn < 1e-300 {
		return 0
	}
	return p.Sub(f.V[0]).Dot(n) / nn
}

// SegmentIntersect finds the intersection of the segment a->b with the plane
// of the triangle, and reports whether that intersection point falls inside
// the triangle itself (within tol). hit is only meaningful when ok is true.
func (f Triangle) SegmentIntersect(a, b Point, tol float64) (hit Point, ok bool) {
	n := f.Normal()
	denom := b.Sub(a).Dot(n)
	if math.Abs(denom) < 1e-300 {
		return hit, false // segment parallel to plane
	}
	t := f.V[0].Sub(a).Dot(n) / denom
	if t < -tol || t > 1+tol {
		return hit, false // intersection outside the segment
	}
	hit = a.Lerp(b, t)
	return hit, f.Contains(hit, tol)
}

// ClosestPoint returns the point on the (bounded) triangle closest to p.
func (f Triangle) ClosestPoint(p Point) Point {
	w, ok := f.Barycentric(projectOnPlane(f, p))
	if ok && w[0] >= 0 && w[1] >= 0 && w[2] >= 0 {
		return projectOnPlane(f, p)
	}
	// fall back to nearest edge/vertex
	best := f.V[0]
	bestD := p.Dist(f.V[0])
	edges := [3][2]Point{{f.V[0], f.V[1]}, {f.V[1], f.V[2]}, {f.V[2], f.V[0]}}
	for _, e := range edges {
		c := closestOnSegment(p, e[0], e[1])
		if d := p.Dist(c); d < bestD {
			bestD = d
			best = c
		}
	}
	return best
}

func projectOnPlane(f Triangle, p Point) Point {
	n := f.Normal()
	nn := n.Norm()
	if nn < 1e-300 {
		return p
	}
	nHat := n.Scale(1 / nn)
	d := p.Sub(f.V[0]).Dot(nHat)
	return p.Sub(nHat.Scale(d))
}

func closestOnSegment(p, a, b Point) Point {
	ab := b.Sub(a)
	denom := ab.Dot(ab)
	if denom < 1e-300 {
		return a
	}
	t := p.Sub(a).Dot(ab) / denom
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return a.Add(ab.Scale(t))
}
