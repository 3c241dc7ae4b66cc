// Copyright 2024 The Ttcr Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solver

import (
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/hbueno/ttcr/geom"
	"github.com/hbueno/ttcr/node"
)

func Test_spm01(tst *testing.T) {

	chk.PrintTitle("spm01. single-tet homogeneous medium, direct edge dominates Dijkstra")

	g := unitTetMesh(tst, 2)
	s := NewSPM(g, Options{NSecondary: 2})
	scratch := node.NewScratch(g.NVerts() + g.NSecondary())

	field, err := s.Solve([]Source{{T0: 0, Pos: geom.Point{X: 0, Y: 0, Z: 0}}}, scratch, nil)
	if err != nil {
		tst.Fatalf("Solve failed: %v", err)
	}
	chk.Scalar(tst, "T(v1)", 1e-9, field.FieldAt(1), 1.0)
}

func Test_spm02(tst *testing.T) {

	chk.PrintTitle("spm02. out-of-grid source is rejected without a partial field")

	g := unitTetMesh(tst, 2)
	s := NewSPM(g, Options{NSecondary: 2})
	scratch := node.NewScratch(g.NVerts() + g.NSecondary())

	_, err := s.Solve([]Source{{T0: 0, Pos: geom.Point{X: 5, Y: 5, Z: 5}}}, scratch, nil)
	if err == nil {
		tst.Fatal("expected an error for a source outside the mesh")
	}
}
