// Copyright 2024 The Ttcr Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package node implements the vertex and overlay-node representations that
// back the eikonal solvers: primary mesh vertices, secondary nodes added on
// edges for SPM/DSPM, and tertiary nodes added dynamically around a source
// for DSPM. All three share the Node contract the solvers operate on.
package node

import (
	"math"

	"github.com/hbueno/ttcr/geom"
)

// Kind identifies which of the three node families a Node belongs to.
type Kind int

const (
	// Primary is a corner vertex of the mesh.
	Primary Kind = iota
	// Secondary is a node placed uniformly along a tetrahedron edge.
	Secondary
	// Tertiary is a node placed near a source for DSPM, discarded after solve.
	Tertiary
)

func (k Kind) String() string {
	switch k {
	case Primary:
		return "primary"
	case Secondary:
		return "secondary"
	case Tertiary:
		return "tertiary"
	}
	return "unknown"
}

// Node is a point in the traveltime graph: a mesh corner, or an overlay node
// on an edge. Index is the position of this node in a worker's traveltime
// array (see solver.Field).
type Node struct {
	Index  int
	Kind   Kind
	Pos    geom.Point
	Cells  []int // indices of tetrahedra incident to this node (primary nodes only)
	Edge   [2]int // endpoint vertex indices of the edge this node sits on (secondary/tertiary only)
	Param  float64 // position along Edge, in (0,1), 0 and 1 excluded
}

// NewPrimary builds a primary node at the given mesh vertex index.
func NewPrimary(index int, pos geom.Point, cells []int) Node {
	return Node{Index: index, Kind: Primary, Pos: pos, Cells: cells}
}

// NewSecondary builds a node at parametric position t along edge (a,b).
func NewSecondary(index, a, b int, t float64, pos geom.Point) Node {
	return Node{Index: index, Kind: Secondary, Pos: pos, Edge: [2]int{a, b}, Param: t}
}

// NewTertiary builds a tertiary node, identical in shape to a secondary node
// but tagged separately so solvers can discard it after a solve.
func NewTertiary(index, a, b int, t float64, pos geom.Point) Node {
	return Node{Index: index, Kind: Tertiary, Pos: pos, Edge: [2]int{a, b}, Param: t}
}

// EdgeNodes places n evenly spaced interior nodes along the segment a->b
// (excluding the endpoints), returning their parametric positions in (0,1).
func EdgeNodes(n int) []float64 {
	if n <= 0 {
		return nil
	}
	ts := make([]float64, n)
	for i := 0; i < n; i++ {
		ts[i] = float64(i+1) / float64(n+1)
	}
	return ts
}

// Scratch is a worker's private traveltime workspace: the dense array T
// indexed by Node.Index, and a per-node "known" flag that Reset and Grow
// clear (the solvers in package solver do not read or set it). One Scratch
// exists per concurrently-running solve (see dispatch.Pool).
type Scratch struct {
	T     []float64
	Known []bool
}

// NewScratch allocates a scratch of size n, with every traveltime set to
// +Inf and every node unknown.
func NewScratch(n int) *Scratch {
	s := &Scratch{T: make([]float64, n), Known: make([]bool, n)}
	s.Reset()
	return s
}

// Reset reinitializes the scratch in place so it can be reused across solves
// without reallocating (each worker keeps one Scratch for its lifetime).
func (s *Scratch) Reset() {
	for i := range s.T {
		s.T[i] = math.Inf(1)
		s.Known[i] = false
	}
}

// Grow extends the scratch by extra overlay-node entries, set to +Inf and
// unknown, without disturbing existing entries.
func (s *Scratch) Grow(extra int) {
	for i := 0; i < extra; i++ {
		s.T = append(s.T, math.Inf(1))
		s.Known = append(s.Known, false)
	}
}

// Shrink truncates the scratch back to n entries, discarding any tertiary
// overlay appended by Grow.
func (s *Scratch) Shrink(n int) {
	s.T = s.T[:n]
	s.Known = s.Known[:n]
}
