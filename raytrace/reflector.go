// Copyright 2024 The Ttcr Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package raytrace

import (
	"github.com/cpmech/gosl/la"
	"github.com/hbueno/ttcr/geom"
	"github.com/hbueno/ttcr/mesh"
	"github.com/hbueno/ttcr/solver"
	"github.com/hbueno/ttcr/ttcrerr"
)

// reflect mirrors dir (assumed unit length) about the plane with normal n.
// A raypath that exits a tetrahedron through a face marked via
// mesh.Grid3Dun.MarkReflector bounces back into the same tetrahedron instead
// of crossing into a neighbor or failing as an out-of-mesh exit.
func reflect(dir, n geom.Point) geom.Point {
	nn := n.Norm()
	if nn < 1e-300 {
		return dir
	}
	nHat := n.Scale(1 / nn)
	return dir.Sub(nHat.Scale(2 * dir.Dot(nHat)))
}

// ReflectedPath reruns the same backward gradient walk as Backtrace from
// recv, but terminates at the first reflector-tagged face it crosses
// instead of continuing to the source, returning the reflection point and
// the partial raypath leading to it. It reuses the traveltime field already
// computed for the direct arrival rather than triggering a fresh solve.
func ReflectedPath(f solver.Field, method solver.GradientMethod, recv geom.Point) (geom.Point, []geom.Point, error) {
	msh := f.Mesh()
	cell := msh.Locate(recv)
	if cell == mesh.NotFound {
		return geom.Point{}, nil, ttcrerr.New(ttcrerr.OutOfGrid, "receiver %v lies outside the mesh", recv)
	}

	path := []geom.Point{recv}
	cur := recv
	for step := 0; step < maxSteps; step++ {
		g, err := Gradient(f, cell, cur, method)
		if err != nil {
			return geom.Point{}, nil, ttcrerr.New(ttcrerr.RaytraceFailure, "gradient reconstruction failed at %v: %v", cur, err)
		}
		gn := la.VecNorm(g.Slice())
		if gn < gradTol {
			return geom.Point{}, nil, ttcrerr.New(ttcrerr.RaytraceFailure, "vanishing gradient at %v", cur)
		}
		dir := g.Scale(-1 / gn)

		hit, li, ok := exitFace(msh, cell, cur, dir)
		if !ok {
			return geom.Point{}, nil, ttcrerr.New(ttcrerr.RaytraceFailure, "ray failed to exit tetrahedron %d from %v", cell, cur)
		}
		path = append(path, hit)
		if msh.IsReflector(cell, li) {
			return hit, path, nil
		}
		nb := msh.NeighborAcrossFace(cell, li)
		if nb == mesh.NotFound {
			return geom.Point{}, nil, ttcrerr.New(ttcrerr.RaytraceFailure, "raypath left the mesh before reaching a reflector, at %v", hit)
		}
		cur = hit
		cell = nb
	}
	return geom.Point{}, nil, ttcrerr.New(ttcrerr.RaytraceFailure, "raypath exceeded %d segments without reaching a reflector", maxSteps)
}
