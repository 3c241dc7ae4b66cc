// Copyright 2024 The Ttcr Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mesh implements Grid3Dun, the unstructured tetrahedral mesh index:
// the vertex array, the tetrahedron array, the face-adjacency table, the
// vertex-to-incident-cells table, the secondary-node overlay for SPM/DSPM,
// and the (atomically swappable) slowness field. Modeled on the derived-maps
// style of gofem's inp.Mesh (Verts/Cells + Tag2.../incidence maps built once
// at construction and never mutated afterward).
package mesh

import (
	"sync/atomic"

	"github.com/cpmech/gosl/utl"
	"github.com/hbueno/ttcr/geom"
	"github.com/hbueno/ttcr/node"
	"github.com/hbueno/ttcr/slowness"
	"github.com/hbueno/ttcr/ttcrerr"
)

// NotFound is returned by Locate when a point is not inside any tetrahedron.
const NotFound = -1

// bboxTolFrac is the tolerance (as a fraction of the mesh's diagonal) by which
// the bounding box is enlarged before a point is considered out of grid.
const bboxTolFrac = 1e-6

// Face identifies a triangular face by its three (sorted) vertex indices,
// used as a map key to build the face-incidence table.
type Face [3]int

func faceKey(a, b, c int) Face {
	utl.IntSort3(&a, &b, &c)
	return Face{a, b, c}
}

// faceIncidence records which tetrahedra (1 or 2) touch a face, and which
// local face index within each.
type faceIncidence struct {
	cells   []int
	localID []int
}

// Edge identifies a mesh edge by its two (sorted) vertex indices.
type Edge [2]int

func edgeKey(a, b int) Edge {
	if a > b {
		a, b = b, a
	}
	return Edge{a, b}
}

// Grid3Dun is the immutable (post-construction) index over an unstructured
// tetrahedral mesh. Vertex positions and tetrahedron connectivity never
// change after New; the slowness field is the one piece of state that can be
// atomically swapped between solves (see SetSlowness).
type Grid3Dun struct {
	verts []geom.Point
	tets  [][4]int
	bbox  geom.BBox
	tol   float64

	vertCells  [][]int          // vertex -> incident tetrahedra
	faces      map[Face]*faceIncidence
	reflectors map[Face]bool // faces tagged as reflector surfaces (§5 pass-through)

	// secondary-node overlay, built once at construction for SPM/DSPM; a
	// Grid3Dun built for FSM alone (nSecondary==0) has these empty.
	nSecondary int
	secEdges   []Edge           // which edges carry secondary nodes, in stable order
	edgeToSec  map[Edge][]int   // edge -> global node indices (len(verts)+i for Secondary(i)) of its interior nodes
	secondary  []node.Node      // secondary nodes, Index fields running right after len(verts)

	slowness atomic.Pointer[slowness.Field]
}

// Config bundles the inputs New needs beyond the raw arrays.
type Config struct {
	NSecondary int // secondary nodes per edge, for SPM/DSPM; 0 for FSM
}

// New builds the mesh index from a dense vertex array and a dense
// tetrahedron index array (each tet a quadruple of indices into verts, all
// in [0,len(verts))). It builds the vertex->incident-cells table, the
// face->incident-cells table, and (if cfg.NSecondary>0) the secondary-node
// overlay.
func New(verts []geom.Point, tets [][4]int, cfg Config) (*Grid3Dun, error) {
	if len(verts) == 0 {
		return nil, ttcrerr.New(ttcrerr.WrongSize, "mesh requires at least one vertex")
	}
	if len(tets) == 0 {
		return nil, ttcrerr.New(ttcrerr.WrongSize, "mesh requires at least one tetrahedron")
	}
	for i, t := range tets {
		seen := map[int]bool{}
		for _, v := range t {
			if v < 0 || v >= len(verts) {
				return nil, ttcrerr.New(ttcrerr.WrongSize, "tetrahedron %d references vertex %d out of range [0,%d)", i, v, len(verts))
			}
			if seen[v] {
				return nil, ttcrerr.New(ttcrerr.WrongSize, "tetrahedron %d has duplicated vertex %d", i, v)
			}
			seen[v] = true
		}
	}

	g := &Grid3Dun{
		verts: append([]geom.Point(nil), verts...),
		tets:  append([][4]int(nil), tets...),
	}

	g.bbox = geom.NewBBox(g.verts[0])
	for _, p := range g.verts[1:] {
		g.bbox.Expand(p)
	}
	diag := g.bbox.Min.Dist(g.bbox.Max)
	g.tol = diag * bboxTolFrac
	if g.tol == 0 {
		g.tol = 1e-9
	}

	g.vertCells = make([][]int, len(g.verts))
	g.faces = make(map[Face]*faceIncidence)
	for ci, t := range g.tets {
		for _, v := range t {
			g.vertCells[v] = append(g.vertCells[v], ci)
		}
		for fi := 0; fi < 4; fi++ {
			lv := faceLocalVerts[fi]
			k := faceKey(t[lv[0]], t[lv[1]], t[lv[2]])
			fe := g.faces[k]
			if fe == nil {
				fe = &faceIncidence{}
				g.faces[k] = fe
			}
			fe.cells = append(fe.cells, ci)
			fe.localID = append(fe.localID, fi)
		}
	}
	for _, fe := range g.faces {
		if len(fe.cells) > 2 {
			return nil, ttcrerr.New(ttcrerr.WrongSize, "face shared by more than 2 tetrahedra: duplicated tetrahedra in mesh")
		}
	}

	g.nSecondary = cfg.NSecondary
	if g.nSecondary > 0 {
		g.buildSecondaryNodes()
	}

	return g, nil
}

var faceLocalVerts = [4][3]int{
	{1, 2, 3},
	{0, 2, 3},
	{0, 1, 3},
	{0, 1, 2},
}

// NVerts returns the number of primary vertices.
func (g *Grid3Dun) NVerts() int { return len(g.verts) }

// NCells returns the number of tetrahedra.
func (g *Grid3Dun) NCells() int { return len(g.tets) }

// NSecondary returns the total number of secondary overlay nodes.
func (g *Grid3Dun) NSecondary() int { return len(g.secondary) }

// Vertex returns the position of primary vertex v.
func (g *Grid3Dun) Vertex(v int) geom.Point { return g.verts[v] }

// Cell returns the four vertex indices of tetrahedron c.
func (g *Grid3Dun) Cell(c int) [4]int { return g.tets[c] }

// Tet returns the geometric tetrahedron for cell c.
func (g *Grid3Dun) Tet(c int) geom.Tet {
	vi := g.tets[c]
	return geom.Tet{V: [4]geom.Point{g.verts[vi[0]], g.verts[vi[1]], g.verts[vi[2]], g.verts[vi[3]]}}
}

// IncidentCells returns the tetrahedra incident to vertex v.
func (g *Grid3Dun) IncidentCells(v int) []int { return g.vertCells[v] }

// Secondary returns the i-th secondary node (0 <= i < NSecondary()).
func (g *Grid3Dun) Secondary(i int) node.Node { return g.secondary[i] }

// SecondaryOnEdge returns the global node indices (len(verts)+i for
// Secondary(i)) of the nodes on edge (a,b), in order from the lower-numbered
// endpoint to the higher-numbered one.
func (g *Grid3Dun) SecondaryOnEdge(a, b int) []int {
	return g.edgeToSec[edgeKey(a, b)]
}

// IsInside reports whether p lies within the mesh bounding box, enlarged by
// the mesh's tolerance.
func (g *Grid3Dun) IsInside(p geom.Point) bool {
	return g.bbox.Contains(p, g.tol)
}

// Locate returns the index of a tetrahedron containing p, or NotFound.
// It first tests the cells incident to the vertex nearest p (via the
// `vertCells` table), then falls back to a linear scan, both with a
// barycentric point-in-tet test.
func (g *Grid3Dun) Locate(p geom.Point) int {
	if !g.IsInside(p) {
		return NotFound
	}
	// seed from the nearest vertex, then check its incident cells first —
	// this is the common case and avoids a full linear scan.
	if seed := g.nearestVertex(p); seed >= 0 {
		for _, c := range g.vertCells[seed] {
			if g.Tet(c).Contains(p, g.tol) {
				return c
			}
		}
	}
	for c := range g.tets {
		if g.Tet(c).Contains(p, g.tol) {
			return c
		}
	}
	return NotFound
}

func (g *Grid3Dun) nearestVertex(p geom.Point) int {
	best, bestD := -1, 0.0
	for i, v := range g.verts {
		d := v.Dist(p)
		if best == -1 || d < bestD {
			best, bestD = i, d
		}
	}
	return best
}

// FaceVertIDs returns the three primary vertex indices of the face of cell c
// opposite local vertex li (li in 0..3).
func (g *Grid3Dun) FaceVertIDs(c, li int) [3]int {
	t := g.tets[c]
	lv := faceLocalVerts[li]
	return [3]int{t[lv[0]], t[lv[1]], t[lv[2]]}
}

// FaceEdges returns the three edges bounding the face of cell c opposite
// local vertex li, as (vertex,vertex) pairs.
func (g *Grid3Dun) FaceEdges(c, li int) [3][2]int {
	fv := g.FaceVertIDs(c, li)
	return [3][2]int{{fv[0], fv[1]}, {fv[1], fv[2]}, {fv[2], fv[0]}}
}

// NeighborAcrossFace returns the tetrahedron on the other side of the face
// of cell c opposite local vertex li, or NotFound at a boundary face.
func (g *Grid3Dun) NeighborAcrossFace(c, li int) int {
	t := g.tets[c]
	lv := faceLocalVerts[li]
	k := faceKey(t[lv[0]], t[lv[1]], t[lv[2]])
	fe := g.faces[k]
	if fe == nil || len(fe.cells) < 2 {
		return NotFound
	}
	if fe.cells[0] == c {
		return fe.cells[1]
	}
	return fe.cells[0]
}

// MarkReflector tags the given mesh faces (vertex triples) as reflector
// surfaces, so the raytracer's ReflectedPath terminates a backward walk
// there instead of crossing into the next tetrahedron.
func (g *Grid3Dun) MarkReflector(faces [][3]int) {
	if g.reflectors == nil {
		g.reflectors = make(map[Face]bool)
	}
	for _, f := range faces {
		g.reflectors[faceKey(f[0], f[1], f[2])] = true
	}
}

// IsReflector reports whether the face of cell c opposite local vertex li is
// tagged as a reflector.
func (g *Grid3Dun) IsReflector(c, li int) bool {
	if len(g.reflectors) == 0 {
		return false
	}
	t := g.tets[c]
	lv := faceLocalVerts[li]
	return g.reflectors[faceKey(t[lv[0]], t[lv[1]], t[lv[2]])]
}

// N_params returns the length of the slowness array this mesh expects,
// given whether the field is per-cell or per-vertex.
func (g *Grid3Dun) N_params(cellSlowness bool) int {
	if cellSlowness {
		return len(g.tets)
	}
	return len(g.verts)
}

// SetSlowness validates and atomically installs a new slowness field.
// Callers must ensure no solve is in flight: this method performs only the
// atomic pointer swap, sequencing it ahead of an active solve is the
// caller's responsibility.
func (g *Grid3Dun) SetSlowness(vals []float64, perCell, interpVel bool) error {
	want := g.N_params(perCell)
	if len(vals) != want {
		return ttcrerr.New(ttcrerr.WrongSize, "slowness array has length %d, expected %d", len(vals), want)
	}
	f, err := slowness.New(vals, perCell, interpVel)
	if err != nil {
		return err
	}
	g.slowness.Store(f)
	return nil
}

// Slowness returns the currently installed slowness field, or nil if none
// has been set yet.
func (g *Grid3Dun) Slowness() *slowness.Field {
	return g.slowness.Load()
}
