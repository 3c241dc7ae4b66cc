// Copyright 2024 The Ttcr Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solver

import (
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/hbueno/ttcr/geom"
	"github.com/hbueno/ttcr/mesh"
	"github.com/hbueno/ttcr/node"
)

func unitTetMesh(tst *testing.T, nSecondary int) *mesh.Grid3Dun {
	verts := []geom.Point{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 0, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: 1},
	}
	tets := [][4]int{{0, 1, 2, 3}}
	g, err := mesh.New(verts, tets, mesh.Config{NSecondary: nSecondary})
	if err != nil {
		tst.Fatalf("mesh.New failed: %v", err)
	}
	if err := g.SetSlowness([]float64{1.0}, true, false); err != nil {
		tst.Fatalf("SetSlowness failed: %v", err)
	}
	return g
}

func Test_fsm01(tst *testing.T) {

	chk.PrintTitle("fsm01. single-tet homogeneous medium converges to the straight-line time")

	g := unitTetMesh(tst, 0)
	s := NewFSM(g, Options{Eps: 1e-15, Maxit: 20})
	scratch := node.NewScratch(g.NVerts())

	field, err := s.Solve([]Source{{T0: 0, Pos: geom.Point{X: 0, Y: 0, Z: 0}}}, scratch, nil)
	if err != nil {
		tst.Fatalf("Solve failed: %v", err)
	}
	chk.Scalar(tst, "T(v1)", 1e-10, field.FieldAt(1), 1.0)
	chk.Scalar(tst, "T(v0)", 1e-10, field.FieldAt(0), 0.0)
}

func Test_fsm02(tst *testing.T) {

	chk.PrintTitle("fsm02. origin-time offset shifts every traveltime by the same amount")

	g := unitTetMesh(tst, 0)
	s := NewFSM(g, Options{Eps: 1e-15, Maxit: 20})
	scratch := node.NewScratch(g.NVerts())

	field, err := s.Solve([]Source{{T0: 3.0, Pos: geom.Point{X: 0, Y: 0, Z: 0}}}, scratch, nil)
	if err != nil {
		tst.Fatalf("Solve failed: %v", err)
	}
	chk.Scalar(tst, "T(v1)", 1e-10, field.FieldAt(1), 4.0)
}

func Test_fsm03(tst *testing.T) {

	chk.PrintTitle("fsm03. reports ConvergenceFailure with a usable partial field when maxit is too small")

	g := unitTetMesh(tst, 0)
	s := NewFSM(g, Options{Eps: 1e-300, Maxit: 0})
	scratch := node.NewScratch(g.NVerts())

	field, err := s.Solve([]Source{{T0: 0, Pos: geom.Point{X: 0, Y: 0, Z: 0}}}, scratch, nil)
	if err == nil {
		tst.Fatal("expected a convergence diagnostic with maxit=0")
	}
	if field == nil {
		tst.Fatal("expected a partial field even on convergence failure")
	}
}
