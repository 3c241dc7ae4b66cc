// Copyright 2024 The Ttcr Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solver

import (
	"math"

	"github.com/hbueno/ttcr/geom"
	"github.com/hbueno/ttcr/mesh"
	"github.com/hbueno/ttcr/node"
	"github.com/hbueno/ttcr/ttcrerr"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

// SPM is the Shortest-Path Method: primary vertices plus secondary nodes on
// every mesh edge form a weighted graph (an edge for every pair of nodes
// sharing a tetrahedron face), searched with Dijkstra's algorithm from a
// virtual super-source connected to the located source node(s). The search
// itself is delegated to gonum's maintained implementation
// (gonum.org/v1/gonum/graph/path), in place of a hand-rolled priority queue.
type spmSolver struct {
	msh  *mesh.Grid3Dun
	opts Options
}

// NewSPM builds an SPM solver over msh. msh must have been constructed with
// NSecondary > 0 (mesh.Config.NSecondary).
func NewSPM(msh *mesh.Grid3Dun, opts Options) *spmSolver {
	return &spmSolver{msh: msh, opts: opts}
}

type graphField struct {
	msh   *mesh.Grid3Dun
	graph *overlayGraph
	dist  []float64
}

func (f *graphField) FieldAt(v int) float64   { return f.dist[v] }
func (f *graphField) NNodes() int             { return len(f.dist) }
func (f *graphField) Mesh() *mesh.Grid3Dun    { return f.msh }
func (f *graphField) NodeAt(v int) geom.Point { return f.graph.pos(v) }

// Solve runs Dijkstra's algorithm over the SPM graph from the given sources.
func (s *spmSolver) Solve(srcs []Source, scratch *node.Scratch, cancel <-chan struct{}) (Field, error) {
	field := s.msh.Slowness()
	if field == nil {
		return nil, ttcrerr.New(ttcrerr.WrongSize, "no slowness field installed")
	}
	og := newOverlayGraph(s.msh, nil)
	g := og.build(field)
	return solveOnGraph(s.msh, og, g, srcs, cancel)
}

// solveOnGraph seeds a virtual super-source connected to each source's
// containing tetrahedron's corners and secondary nodes, runs Dijkstra from
// it, and returns the per-node distances as the traveltime field. Shared by
// SPM and DSPM (DSPM calls it with a graph enlarged by a tertiary overlay).
func solveOnGraph(msh *mesh.Grid3Dun, og *overlayGraph, g *simple.WeightedUndirectedGraph, srcs []Source, cancel <-chan struct{}) (Field, error) {
	superID := int64(og.n())
	g.AddNode(simple.Node(superID))

	any := false
	for _, src := range srcs {
		c := msh.Locate(src.Pos)
		if c == mesh.NotFound {
			continue
		}
		field := msh.Slowness()
		vi := msh.Cell(c)
		seed := func(id int, pos geom.Point) {
			d := pos.Dist(src.Pos)
			w := src.T0 + field.InterpAt(src.Pos, msh.Tet(c), c, vi)*d
			if existingW, ok := g.Weight(superID, int64(id)); !ok || w < existingW {
				g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(superID), simple.Node(int64(id)), w))
			}
			any = true
		}
		for _, v := range vi {
			seed(v, msh.Vertex(v))
		}
		for li := 0; li < 4; li++ {
			for _, e := range msh.FaceEdges(c, li) {
				for _, sid := range og.onEdge(e[0], e[1]) {
					seed(sid, og.pos(sid))
				}
			}
		}
	}
	if !any {
		return nil, ttcrerr.New(ttcrerr.OutOfGrid, "no source lies inside the mesh")
	}

	select {
	case <-cancel:
		return nil, ttcrerr.New(ttcrerr.ConvergenceFailure, "cancelled before search")
	default:
	}

	shortest := path.DijkstraFrom(simple.Node(superID), g)
	dist := make([]float64, og.n())
	for v := 0; v < og.n(); v++ {
		_, w := shortest.To(int64(v))
		if math.IsNaN(w) {
			w = math.Inf(1)
		}
		dist[v] = w
	}
	return &graphField{msh: msh, graph: og, dist: dist}, nil
}
