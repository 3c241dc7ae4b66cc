// Copyright 2024 The Ttcr Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solver

import (
	"math"
	"sort"

	"github.com/hbueno/ttcr/geom"
	"github.com/hbueno/ttcr/mesh"
	"github.com/hbueno/ttcr/node"
	"github.com/hbueno/ttcr/ttcrerr"
)

// fsmSweepOrders holds the 8 vertex orderings FSM alternates between, one per
// sign combination of (±x,±y,±z), rebuilt once per mesh in NewFSM.
type fsmSweepOrders [8][]int

// FSM is the Fast Sweeping Method: a fixed-point iteration updating every
// primary vertex's traveltime from its incident tetrahedra, in 8 alternating
// sweep orderings, until the update no longer changes any value by more than
// Eps or Maxit passes (of 8 sweeps each) have elapsed.
type fsmSolver struct {
	msh    *mesh.Grid3Dun
	orders fsmSweepOrders
	opts   Options
}

// NewFSM builds an FSM solver over msh with the given options.
func NewFSM(msh *mesh.Grid3Dun, opts Options) *fsmSolver {
	return &fsmSolver{msh: msh, orders: buildSweepOrders(msh), opts: opts}
}

func buildSweepOrders(msh *mesh.Grid3Dun) fsmSweepOrders {
	n := msh.NVerts()
	signs := [8][3]float64{
		{1, 1, 1}, {1, 1, -1}, {1, -1, 1}, {1, -1, -1},
		{-1, 1, 1}, {-1, 1, -1}, {-1, -1, 1}, {-1, -1, -1},
	}
	var orders fsmSweepOrders
	for s, sgn := range signs {
		idx := make([]int, n)
		key := make([]float64, n)
		for v := 0; v < n; v++ {
			p := msh.Vertex(v)
			idx[v] = v
			key[v] = sgn[0]*p.X + sgn[1]*p.Y + sgn[2]*p.Z
		}
		sort.Slice(idx, func(i, j int) bool { return key[idx[i]] < key[idx[j]] })
		orders[s] = idx
	}
	return orders
}

// fsmField adapts a node.Scratch, indexed by primary vertex only, to the
// Field contract.
type fsmField struct {
	msh     *mesh.Grid3Dun
	scratch *node.Scratch
	failed  bool
}

func (f *fsmField) FieldAt(v int) float64      { return f.scratch.T[v] }
func (f *fsmField) NNodes() int                { return f.msh.NVerts() }
func (f *fsmField) Mesh() *mesh.Grid3Dun       { return f.msh }
func (f *fsmField) NodeAt(v int) geom.Point    { return f.msh.Vertex(v) }

// Solve runs the fast sweeping iteration for the given sources. On failure
// to converge within opts.Maxit it returns the best partial field together
// with a ConvergenceFailure error.
func (s *fsmSolver) Solve(srcs []Source, scratch *node.Scratch, cancel <-chan struct{}) (Field, error) {
	scratch.Reset()
	field := s.msh.Slowness()
	if field == nil {
		return nil, ttcrerr.New(ttcrerr.WrongSize, "no slowness field installed")
	}

	s.initializeSources(srcs, scratch)

	eps := s.opts.Eps
	if eps <= 0 {
		eps = 1e-9
	}
	maxit := s.opts.Maxit
	if maxit < 0 {
		maxit = 20
	}

	iter := 0
	for ; iter < maxit; iter++ {
		select {
		case <-cancel:
			return nil, ttcrerr.New(ttcrerr.ConvergenceFailure, "cancelled at iteration %d", iter)
		default:
		}
		maxDelta := 0.0
		for _, order := range s.orders {
			for _, v := range order {
				old := scratch.T[v]
				cand := s.localUpdate(v, scratch)
				if cand < old {
					scratch.T[v] = cand
					switch {
					case math.IsInf(old, 1):
						maxDelta = math.Inf(1) // a not-yet-reached vertex just got its first value
					case old-cand > maxDelta:
						maxDelta = old - cand
					}
				}
			}
		}
		if maxDelta <= eps {
			return &fsmField{msh: s.msh, scratch: scratch}, nil
		}
	}
	return &fsmField{msh: s.msh, scratch: scratch, failed: true},
		ttcrerr.New(ttcrerr.ConvergenceFailure, "FSM did not converge within %d iterations (eps=%g)", maxit, eps)
}

// initializeSources seeds scratch.T at (or near) each source, following the
// nearest-vertex rule: snap t0 + s*d onto every vertex of the source's
// containing tetrahedron, so the sweep has a correct causal seed regardless
// of whether the source sits exactly on a vertex.
func (s *fsmSolver) initializeSources(srcs []Source, scratch *node.Scratch) {
	field := s.msh.Slowness()
	for _, src := range srcs {
		c := s.msh.Locate(src.Pos)
		if c == mesh.NotFound {
			continue
		}
		vi := s.msh.Cell(c)
		for _, v := range vi {
			d := s.msh.Vertex(v).Dist(src.Pos)
			sl := field.InterpAt(src.Pos, s.msh.Tet(c), c, vi)
			t := src.T0 + sl*d
			if t < scratch.T[v] {
				scratch.T[v] = t
			}
		}
	}
}

// localUpdate computes the minimum candidate traveltime at vertex v across
// all its incident tetrahedra.
func (s *fsmSolver) localUpdate(v int, scratch *node.Scratch) float64 {
	best := scratch.T[v]
	field := s.msh.Slowness()
	pv := s.msh.Vertex(v)
	for _, c := range s.msh.IncidentCells(v) {
		vi := s.msh.Cell(c)
		var a, b, cc int
		i := 0
		for _, w := range vi {
			if w == v {
				continue
			}
			switch i {
			case 0:
				a = w
			case 1:
				b = w
			case 2:
				cc = w
			}
			i++
		}
		sK := field.CellSlowness(c, vi)
		pa, pb, pc := s.msh.Vertex(a), s.msh.Vertex(b), s.msh.Vertex(cc)
		ta, tb, tc := scratch.T[a], scratch.T[b], scratch.T[cc]

		if cand, ok := triangleUpdate(pa, pb, pc, ta, tb, tc, pv, sK); ok && cand < best {
			best = cand
		}
		if cand, ok := edgeUpdate(pa, pb, ta, tb, pv, sK); ok && cand < best {
			best = cand
		}
		if cand, ok := edgeUpdate(pb, pc, tb, tc, pv, sK); ok && cand < best {
			best = cand
		}
		if cand, ok := edgeUpdate(pc, pa, tc, ta, pv, sK); ok && cand < best {
			best = cand
		}
		if !math.IsInf(ta, 1) {
			if cand := ta + sK*pv.Dist(pa); cand < best {
				best = cand
			}
		}
		if !math.IsInf(tb, 1) {
			if cand := tb + sK*pv.Dist(pb); cand < best {
				best = cand
			}
		}
		if !math.IsInf(tc, 1) {
			if cand := tc + sK*pv.Dist(pc); cand < best {
				best = cand
			}
		}
	}
	return best
}

// triangleUpdate solves the 3D analogue of Sethian's upwind triangle update:
// given known times ta,tb,tc at the face (pa,pb,pc) opposite the apex v,
// find the point p on that triangle whose planar-wavefront arrival implies
// the shortest time at v, and accept it only if p falls inside the triangle
// and the causality condition |grad T| < s holds.
func triangleUpdate(pa, pb, pc geom.Point, ta, tb, tc float64, v geom.Point, s float64) (float64, bool) {
	if math.IsInf(ta, 1) || math.IsInf(tb, 1) || math.IsInf(tc, 1) {
		return 0, false
	}
	e1 := pb.Sub(pa)
	x1 := e1.Norm()
	if x1 < 1e-300 {
		return 0, false
	}
	e1 = e1.Scale(1 / x1)
	normal := e1.Cross(pc.Sub(pa))
	nn := normal.Norm()
	if nn < 1e-300 {
		return 0, false
	}
	normal = normal.Scale(1 / nn)
	e2 := normal.Cross(e1)

	p2 := pc.Sub(pa)
	x2, y2 := p2.Dot(e1), p2.Dot(e2)
	if math.Abs(y2) < 1e-300 {
		return 0, false
	}

	gx := (tb - ta) / x1
	gy := (tc - ta - gx*x2) / y2
	g2 := gx*gx + gy*gy
	if g2 >= s*s {
		return 0, false // causality violated: no in-plane solution
	}

	vRel := v.Sub(pa)
	xv, yv := vRel.Dot(e1), vRel.Dot(e2)
	h := vRel.Dot(normal)

	denom := 1 - g2/(s*s)
	if denom <= 1e-300 {
		return 0, false
	}
	d := math.Abs(h) / math.Sqrt(denom)
	px := xv - (gx/s)*d
	py := yv - (gy/s)*d

	// barycentric test in the local 2D frame: P0=(0,0), P1=(x1,0), P2=(x2,y2)
	w0, w1, w2, ok := baryTri2D(0, 0, x1, 0, x2, y2, px, py)
	const tol = 1e-9
	if !ok || w0 < -tol || w1 < -tol || w2 < -tol {
		return 0, false
	}
	t := ta + gx*px + gy*py + s*d
	return t, true
}

func baryTri2D(x0, y0, x1, y1, x2, y2, px, py float64) (w0, w1, w2 float64, ok bool) {
	denom := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if math.Abs(denom) < 1e-300 {
		return 0, 0, 0, false
	}
	w0 = ((y1-y2)*(px-x2) + (x2-x1)*(py-y2)) / denom
	w1 = ((y2-y0)*(px-x2) + (x0-x2)*(py-y2)) / denom
	w2 = 1 - w0 - w1
	return w0, w1, w2, true
}

// edgeUpdate solves the 1D (edge) analogue: given known times ta,tb at the
// endpoints of edge (pa,pb), find the point on that edge whose planar-wave
// arrival implies the shortest time at v.
func edgeUpdate(pa, pb geom.Point, ta, tb float64, v geom.Point, s float64) (float64, bool) {
	if math.IsInf(ta, 1) || math.IsInf(tb, 1) {
		return 0, false
	}
	L := pa.Dist(pb)
	if L < 1e-300 {
		return 0, false
	}
	u := pb.Sub(pa).Scale(1 / L)
	g := (tb - ta) / L
	if g*g >= s*s {
		return 0, false
	}
	vRel := v.Sub(pa)
	xv := vRel.Dot(u)
	h2 := vRel.Dot(vRel) - xv*xv
	if h2 < 0 {
		h2 = 0
	}
	h := math.Sqrt(h2)
	denom := 1 - (g*g)/(s*s)
	if denom <= 1e-300 {
		return 0, false
	}
	d := h / math.Sqrt(denom)
	x := xv - (g/s)*d
	const tol = 1e-9
	if x < -tol || x > L+tol {
		return 0, false
	}
	t := ta + g*x + s*d
	return t, true
}
