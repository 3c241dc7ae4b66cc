// Copyright 2024 The Ttcr Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package raytrace reconstructs the local traveltime gradient and walks it
// backward from a receiver to a source, tracing the raypath as a polyline of
// straight segments within each tetrahedron. Gradient
// reconstruction is a small least-squares fit, delegated to
// gonum.org/v1/gonum/mat rather than hand-rolled normal equations — the same
// module the pack's solver/graph.go already pulls in for its Dijkstra search,
// extended here into its mat subpackage.
package raytrace

import (
	"errors"
	"sort"

	"github.com/hbueno/ttcr/geom"
	"github.com/hbueno/ttcr/mesh"
	"github.com/hbueno/ttcr/solver"
	"gonum.org/v1/gonum/mat"
)

var errDegenerate = errors.New("raytrace: degenerate gradient fit")

// Gradient estimates ∇T at point p inside cell c, using the method selected
// by the solver's GradientMethod option:
//
//   - LS1: exact fit over the 4 corners of the containing tetrahedron.
//   - LS2: least-squares fit over the first-ring neighborhood of the
//     containing tetrahedron's vertices. The fitted model is linear, the
//     same as LS1's; no quadratic terms are fitted.
//   - Average: barycentric-weighted average of each corner vertex's own
//     first-ring gradient.
func Gradient(f solver.Field, c int, p geom.Point, method solver.GradientMethod) (geom.Point, error) {
	msh := f.Mesh()
	switch method {
	case solver.LS2:
		return fitGradient(f, neighborhoodOfCell(msh, c), p)
	case solver.Average:
		return averageGradient(f, msh, c, p)
	default: // LS1
		vi := msh.Cell(c)
		return fitGradient(f, vi[:], p)
	}
}

// fitGradient solves the linear (or, for len(verts)>4, least-squares) system
// T(v) = T0 + g·(pos(v)-p) for the unknowns [gx,gy,gz,T0], returning g.
func fitGradient(f solver.Field, verts []int, p geom.Point) (geom.Point, error) {
	n := len(verts)
	if n < 4 {
		return geom.Point{}, errDegenerate
	}
	msh := f.Mesh()
	a := mat.NewDense(n, 4, nil)
	b := mat.NewVecDense(n, nil)
	for i, v := range verts {
		d := msh.Vertex(v).Sub(p)
		a.Set(i, 0, d.X)
		a.Set(i, 1, d.Y)
		a.Set(i, 2, d.Z)
		a.Set(i, 3, 1)
		b.SetVec(i, f.FieldAt(v))
	}
	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		return geom.Point{}, errDegenerate
	}
	return geom.Point{X: x.AtVec(0), Y: x.AtVec(1), Z: x.AtVec(2)}, nil
}

// neighborhoodOfCell returns the (deduplicated) vertex indices of every
// tetrahedron incident to any corner of cell c.
func neighborhoodOfCell(msh *mesh.Grid3Dun, c int) []int {
	set := make(map[int]bool)
	vi := msh.Cell(c)
	for _, v := range vi {
		for _, ci := range msh.IncidentCells(v) {
			for _, w := range msh.Cell(ci) {
				set[w] = true
			}
		}
	}
	return setToSlice(set)
}

// neighborhoodOfVertex returns the (deduplicated) vertex indices of every
// tetrahedron incident to v, including v itself.
func neighborhoodOfVertex(msh *mesh.Grid3Dun, v int) []int {
	set := make(map[int]bool)
	for _, ci := range msh.IncidentCells(v) {
		for _, w := range msh.Cell(ci) {
			set[w] = true
		}
	}
	return setToSlice(set)
}

// setToSlice flattens set into a sorted slice. The sort is load-bearing: Go's
// map iteration order is randomized per run, and an unsorted order would feed
// fitGradient's design matrix rows in a different sequence each time, letting
// floating-point summation order perturb the least-squares solution across
// otherwise-identical runs.
func setToSlice(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// averageGradient computes the gradient at each of cell c's 4 corners over
// its own first-ring neighborhood, then barycentric-interpolates at p.
func averageGradient(f solver.Field, msh *mesh.Grid3Dun, c int, p geom.Point) (geom.Point, error) {
	t := msh.Tet(c)
	w, ok := t.Barycentric(p)
	if !ok {
		return geom.Point{}, errDegenerate
	}
	vi := msh.Cell(c)
	var g geom.Point
	for i, v := range vi {
		gv, err := fitGradient(f, neighborhoodOfVertex(msh, v), msh.Vertex(v))
		if err != nil {
			return geom.Point{}, err
		}
		g = g.Add(gv.Scale(w[i]))
	}
	return g, nil
}
