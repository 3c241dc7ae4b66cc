// Copyright 2024 The Ttcr Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package raytrace

import (
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/hbueno/ttcr/geom"
	"github.com/hbueno/ttcr/node"
	"github.com/hbueno/ttcr/solver"
)

func Test_reflect01(tst *testing.T) {

	chk.PrintTitle("reflect01. a marked face is treated as a reflection boundary, not an exit")

	g := twoTetMesh(tst)
	// face {1,2,3} is the shared face between the two tets; tag it as a
	// reflector so ReflectedPath terminates there instead of crossing.
	g.MarkReflector([][3]int{{1, 2, 3}})

	s := solver.NewFSM(g, solver.Options{Eps: 1e-12, Maxit: 50})
	scratch := node.NewScratch(g.NVerts())
	field, err := s.Solve([]solver.Source{{T0: 0, Pos: geom.Point{X: 0, Y: 0, Z: 0}}}, scratch, nil)
	if err != nil {
		tst.Fatalf("Solve failed: %v", err)
	}

	recv := geom.Point{X: 1, Y: 1, Z: 1}
	point, path, err := ReflectedPath(field, solver.LS1, recv)
	if err != nil {
		tst.Fatalf("ReflectedPath failed: %v", err)
	}
	if len(path) < 2 {
		tst.Fatalf("expected a multi-point path to the reflector, got %d points", len(path))
	}
	// the reflection point must lie on the plane x+y+z=1 shared by the tets.
	chk.Scalar(tst, "reflection point on shared plane", 1e-9, point.X+point.Y+point.Z, 1.0)
}
