// Copyright 2024 The Ttcr Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mesh

import (
	"sort"

	"github.com/hbueno/ttcr/node"
)

// buildSecondaryNodes generates node.Secondary nodes uniformly along every
// unique edge of the mesh, n_secondary per edge. Edge order is the sorted
// order of their (a,b) keys, so node indices are deterministic regardless
// of tetrahedron traversal order, which SPM's graph construction depends on
// for repeatable results.
func (g *Grid3Dun) buildSecondaryNodes() {
	edgeSet := make(map[Edge]bool)
	for _, t := range g.tets {
		for i := 0; i < 4; i++ {
			for j := i + 1; j < 4; j++ {
				edgeSet[edgeKey(t[i], t[j])] = true
			}
		}
	}
	edges := make([]Edge, 0, len(edgeSet))
	for e := range edgeSet {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i][0] != edges[j][0] {
			return edges[i][0] < edges[j][0]
		}
		return edges[i][1] < edges[j][1]
	})

	g.secEdges = edges
	g.edgeToSec = make(map[Edge][]int, len(edges))
	params := node.EdgeNodes(g.nSecondary)

	next := len(g.verts)
	for _, e := range edges {
		a, b := e[0], e[1]
		ids := make([]int, 0, len(params))
		pa, pb := g.verts[a], g.verts[b]
		for _, t := range params {
			pos := pa.Lerp(pb, t)
			idx := next
			next++
			g.secondary = append(g.secondary, node.NewSecondary(idx, a, b, t, pos))
			ids = append(ids, idx)
		}
		g.edgeToSec[e] = ids
	}
}

// TertiaryOverlay holds the per-solve tertiary-node graph DSPM builds around
// a source and discards afterward. It is a pure overlay: it never touches
// Grid3Dun's own state, so repeated solves around different sources never
// accumulate nodes on the base mesh.
type TertiaryOverlay struct {
	Base       int // first free index: len(verts)+len(secondary)
	Nodes      []node.Node
	EdgeToTert map[Edge][]int
}

// OnEdge returns the tertiary node indices placed on edge (a,b), or nil if
// this overlay didn't cover that edge.
func (ov *TertiaryOverlay) OnEdge(a, b int) []int {
	return ov.EdgeToTert[edgeKey(a, b)]
}

// BuildTertiary places n_tertiary nodes on every edge of every tetrahedron
// whose centroid lies within radius of the centroid of the cell srcLocate
// returns (the cell containing the source). Edges
// already covered by secondary nodes still get their own, separate tertiary
// nodes: they live in the overlay only and never touch the base mesh's own
// secondary-node indices.
func (g *Grid3Dun) BuildTertiary(srcLocate func() (int, bool), radius float64, nTertiary int) *TertiaryOverlay {
	ov := &TertiaryOverlay{Base: len(g.verts) + len(g.secondary)}
	if nTertiary <= 0 || radius <= 0 {
		ov.EdgeToTert = map[Edge][]int{}
		return ov
	}
	ov.EdgeToTert = make(map[Edge][]int)
	edgeSet := make(map[Edge]bool)
	srcCell, ok := srcLocate()
	if !ok {
		return ov
	}
	src := g.Tet(srcCell).Centroid()
	for ci := 0; ci < len(g.tets); ci++ {
		if g.Tet(ci).Centroid().Dist(src) > radius {
			continue
		}
		vi := g.tets[ci]
		for i := 0; i < 4; i++ {
			for j := i + 1; j < 4; j++ {
				edgeSet[edgeKey(vi[i], vi[j])] = true
			}
		}
	}

	edges := make([]Edge, 0, len(edgeSet))
	for e := range edgeSet {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i][0] != edges[j][0] {
			return edges[i][0] < edges[j][0]
		}
		return edges[i][1] < edges[j][1]
	})

	params := node.EdgeNodes(nTertiary)
	next := ov.Base
	for _, e := range edges {
		pa, pb := g.verts[e[0]], g.verts[e[1]]
		ids := make([]int, 0, len(params))
		for _, t := range params {
			idx := next
			next++
			ov.Nodes = append(ov.Nodes, node.NewTertiary(idx, e[0], e[1], t, pa.Lerp(pb, t)))
			ids = append(ids, idx)
		}
		ov.EdgeToTert[e] = ids
	}
	return ov
}
