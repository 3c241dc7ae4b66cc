// Copyright 2024 The Ttcr Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solver

import (
	"github.com/hbueno/ttcr/geom"
	"github.com/hbueno/ttcr/mesh"
	"github.com/hbueno/ttcr/slowness"
	"gonum.org/v1/gonum/graph/simple"
)

// overlayGraph maps the unified node-index space (primary vertices, then
// secondary nodes, then — for DSPM — tertiary nodes) to positions, and
// builds the weighted undirected graph SPM/DSPM search: an edge exists
// between any two nodes that lie on a common tetrahedron face, not merely a
// mesh edge, weighted by straight-line distance times the average slowness
// of the incident cell(s) sharing that face.
type overlayGraph struct {
	msh       *mesh.Grid3Dun
	tert      *mesh.TertiaryOverlay
	positions []geom.Point
}

func newOverlayGraph(msh *mesh.Grid3Dun, tert *mesh.TertiaryOverlay) *overlayGraph {
	n := msh.NVerts()
	s := msh.NSecondary()
	total := n + s
	if tert != nil {
		total += len(tert.Nodes)
	}
	pos := make([]geom.Point, total)
	for v := 0; v < n; v++ {
		pos[v] = msh.Vertex(v)
	}
	for i := 0; i < s; i++ {
		pos[n+i] = msh.Secondary(i).Pos
	}
	if tert != nil {
		for _, nd := range tert.Nodes {
			pos[nd.Index] = nd.Pos
		}
	}
	return &overlayGraph{msh: msh, tert: tert, positions: pos}
}

func (o *overlayGraph) pos(id int) geom.Point { return o.positions[id] }
func (o *overlayGraph) n() int                { return len(o.positions) }

func (o *overlayGraph) onEdge(a, b int) []int {
	ids := o.msh.SecondaryOnEdge(a, b)
	if o.tert != nil {
		ids = append(append([]int(nil), ids...), o.tert.OnEdge(a, b)...)
	}
	return ids
}

type nodePair struct{ a, b int64 }

// build assembles the weighted undirected graph: one edge per pair of nodes
// co-located on a tetrahedron face, weight averaged over every incident
// cell that contributes that pair.
func (o *overlayGraph) build(field *slowness.Field) *simple.WeightedUndirectedGraph {
	g := simple.NewWeightedUndirectedGraph(0, 0)
	for id := 0; id < o.n(); id++ {
		g.AddNode(simple.Node(int64(id)))
	}

	wsum := make(map[nodePair]float64)
	wcnt := make(map[nodePair]int)
	for c := 0; c < o.msh.NCells(); c++ {
		vi := o.msh.Cell(c)
		avgS := field.CellSlowness(c, vi)
		for li := 0; li < 4; li++ {
			fv := o.msh.FaceVertIDs(c, li)
			ids := []int{fv[0], fv[1], fv[2]}
			for _, e := range o.msh.FaceEdges(c, li) {
				ids = append(ids, o.onEdge(e[0], e[1])...)
			}
			for i := 0; i < len(ids); i++ {
				for j := i + 1; j < len(ids); j++ {
					a, b := int64(ids[i]), int64(ids[j])
					if a > b {
						a, b = b, a
					}
					k := nodePair{a, b}
					d := o.pos(int(a)).Dist(o.pos(int(b)))
					wsum[k] += d * avgS
					wcnt[k]++
				}
			}
		}
	}
	for k, sum := range wsum {
		w := sum / float64(wcnt[k])
		g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(k.a), simple.Node(k.b), w))
	}
	return g
}
