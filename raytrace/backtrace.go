// Copyright 2024 The Ttcr Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package raytrace

import (
	"math"

	"github.com/cpmech/gosl/la"
	"github.com/hbueno/ttcr/geom"
	"github.com/hbueno/ttcr/mesh"
	"github.com/hbueno/ttcr/slowness"
	"github.com/hbueno/ttcr/solver"
	"github.com/hbueno/ttcr/ttcrerr"
)

// maxSteps bounds the walk so a pathological gradient field (e.g. a cycle
// produced by an under-converged FSM field) fails fast instead of looping.
const maxSteps = 10000

// gradTol is the minimum gradient magnitude the walk can still normalize
// into a direction; below it the walk reports RaytraceFailure.
const gradTol = 1e-12

// Backtrace walks backward from recv along -∇T, one tetrahedron at a time,
// until it reaches the tetrahedron containing srcPos, returning the
// resulting polyline starting at recv and ending at srcPos. On failure — a
// vanishing gradient, or a walk that runs off the edge of the mesh — it
// returns a RaytraceFailure error and a nil path; the caller keeps the
// solver's own traveltime and reports an empty raypath rather than failing
// the whole query.
func Backtrace(f solver.Field, method solver.GradientMethod, recv, srcPos geom.Point) ([]geom.Point, error) {
	msh := f.Mesh()
	cell := msh.Locate(recv)
	if cell == mesh.NotFound {
		return nil, ttcrerr.New(ttcrerr.OutOfGrid, "receiver %v lies outside the mesh", recv)
	}
	srcCell := msh.Locate(srcPos)
	if srcCell == mesh.NotFound {
		return nil, ttcrerr.New(ttcrerr.OutOfGrid, "source %v lies outside the mesh", srcPos)
	}

	path := []geom.Point{recv}
	cur := recv
	var dir geom.Point
	reflected := false
	for step := 0; step < maxSteps; step++ {
		if cell == srcCell {
			path = append(path, srcPos)
			return path, nil
		}

		if !reflected {
			g, err := Gradient(f, cell, cur, method)
			if err != nil {
				return nil, ttcrerr.New(ttcrerr.RaytraceFailure, "gradient reconstruction failed at %v: %v", cur, err)
			}
			gn := la.VecNorm(g.Slice())
			if gn < gradTol {
				return nil, ttcrerr.New(ttcrerr.RaytraceFailure, "vanishing gradient at %v", cur)
			}
			dir = g.Scale(-1 / gn)
		}
		reflected = false

		hit, li, ok := exitFace(msh, cell, cur, dir)
		if !ok {
			return nil, ttcrerr.New(ttcrerr.RaytraceFailure, "ray failed to exit tetrahedron %d from %v", cell, cur)
		}

		if msh.IsReflector(cell, li) {
			dir = reflect(dir, msh.Tet(cell).Face(li).Normal())
			reflected = true
			path = append(path, hit)
			cur = hit
			// the reflected ray re-enters the same tetrahedron; loop again
			// with the new direction without changing cell.
			continue
		}

		nb := msh.NeighborAcrossFace(cell, li)
		if nb == mesh.NotFound {
			return nil, ttcrerr.New(ttcrerr.RaytraceFailure, "raypath left the mesh through a non-reflector boundary face at %v", hit)
		}
		path = append(path, hit)
		cur = hit
		cell = nb
	}
	return nil, ttcrerr.New(ttcrerr.RaytraceFailure, "raypath exceeded %d segments without reaching the source", maxSteps)
}

// exitFace finds which of cell's 4 faces the ray from cur along dir exits
// through, returning the exit point and the face's local index.
func exitFace(msh *mesh.Grid3Dun, cell int, cur, dir geom.Point) (geom.Point, int, bool) {
	t := msh.Tet(cell)
	far := cur.Add(dir.Scale(t.LongestEdge() * 4))

	bestDist := math.Inf(1)
	bestFace := -1
	var bestHit geom.Point
	for li := 0; li < 4; li++ {
		hit, ok := t.Face(li).SegmentIntersect(cur, far, 1e-9)
		if !ok {
			continue
		}
		d := hit.Dist(cur)
		if d < 1e-12 {
			continue // the face we just stepped onto
		}
		if d < bestDist {
			bestDist = d
			bestFace = li
			bestHit = hit
		}
	}
	if bestFace == -1 {
		return geom.Point{}, 0, false
	}
	return bestHit, bestFace, true
}

// Integrate computes the traveltime along a raypath by integrating the
// medium's slowness arc-length-wise along each segment, used for the
// tt_from_rp refinement: the reported traveltime at a receiver is
// re-derived from the raypath instead of read directly from the solved
// Field.
func Integrate(msh *mesh.Grid3Dun, field *slowness.Field, t0 float64, path []geom.Point) float64 {
	tt := t0
	for i := 0; i+1 < len(path); i++ {
		a, b := path[i], path[i+1]
		mid := a.Lerp(b, 0.5)
		c := msh.Locate(mid)
		if c == mesh.NotFound {
			c = msh.Locate(a)
		}
		if c == mesh.NotFound {
			continue
		}
		vi := msh.Cell(c)
		s := field.InterpAt(mid, msh.Tet(c), c, vi)
		tt += s * a.Dist(b)
	}
	return tt
}
