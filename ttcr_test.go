// Copyright 2024 The Ttcr Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ttcr

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/hbueno/ttcr/dispatch"
	"github.com/hbueno/ttcr/geom"
	"github.com/hbueno/ttcr/ttcrerr"
)

// unitTetMesh is the smallest mesh this system can solve on: one
// tetrahedron at the origin corner of the unit cube.
func unitTetMesh() ([]geom.Point, [][4]int) {
	verts := []geom.Point{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 0, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: 1},
	}
	return verts, [][4]int{{0, 1, 2, 3}}
}

func Test_ttcr01(tst *testing.T) {

	chk.PrintTitle("ttcr01. FSM homogeneous medium, source at a corner")

	verts, tets := unitTetMesh()
	cfg := DefaultConfig()
	cfg.CellSlowness = true
	cfg.Eps = 1e-15
	g, err := New(verts, tets, cfg)
	if err != nil {
		tst.Fatalf("New failed: %v", err)
	}
	if err := g.SetSlowness([]float64{1.0}); err != nil {
		tst.Fatalf("SetSlowness failed: %v", err)
	}

	src, err := dispatch.ParseSourceTable([][]float64{{0, 0, 0}})
	if err != nil {
		tst.Fatal(err)
	}
	recv, err := dispatch.ParseReceiverTable([][]float64{{1, 0, 0}})
	if err != nil {
		tst.Fatal(err)
	}

	tt, _, err := g.Raytrace(src, recv, nil, nil, false, false)
	if err != nil {
		tst.Fatalf("Raytrace failed: %v", err)
	}
	chk.Scalar(tst, "T(receiver)", 1e-6, tt[0], 1.0)
}

func Test_ttcr02(tst *testing.T) {

	chk.PrintTitle("ttcr02. origin-time offset shifts the traveltime exactly")

	verts, tets := unitTetMesh()
	cfg := DefaultConfig()
	cfg.CellSlowness = true
	cfg.Eps = 1e-15
	g, err := New(verts, tets, cfg)
	if err != nil {
		tst.Fatalf("New failed: %v", err)
	}
	if err := g.SetSlowness([]float64{1.0}); err != nil {
		tst.Fatal(err)
	}

	src, _ := dispatch.ParseSourceTable([][]float64{{5.0, 0, 0, 0}})
	recv, _ := dispatch.ParseReceiverTable([][]float64{{1, 0, 0}})

	tt, _, err := g.Raytrace(src, recv, nil, nil, false, false)
	if err != nil {
		tst.Fatalf("Raytrace failed: %v", err)
	}
	chk.Scalar(tst, "T(receiver)", 1e-6, tt[0], 6.0)
}

func Test_ttcr03(tst *testing.T) {

	chk.PrintTitle("ttcr03. source outside the mesh bounding box fails fast")

	verts, tets := unitTetMesh()
	cfg := DefaultConfig()
	cfg.CellSlowness = true
	g, err := New(verts, tets, cfg)
	if err != nil {
		tst.Fatalf("New failed: %v", err)
	}
	if err := g.SetSlowness([]float64{1.0}); err != nil {
		tst.Fatal(err)
	}

	src, _ := dispatch.ParseSourceTable([][]float64{{2, 0, 0}})
	recv, _ := dispatch.ParseReceiverTable([][]float64{{0.1, 0.1, 0.1}})

	_, _, err = g.Raytrace(src, recv, nil, nil, false, false)
	if err == nil {
		tst.Fatal("expected OutOfGrid error")
	}
	if !ttcrerr.Is(err, ttcrerr.OutOfGrid) {
		tst.Errorf("expected OutOfGrid, got %v", err)
	}
}

func Test_ttcr04(tst *testing.T) {

	chk.PrintTitle("ttcr04. DSPM rejects aggregate_src")

	verts, tets := unitTetMesh()
	cfg := DefaultConfig()
	cfg.Method = "DSPM"
	cfg.CellSlowness = true
	cfg.NSecondary = 2
	cfg.NTertiary = 2
	cfg.RadiusTertiary = 0.5
	g, err := New(verts, tets, cfg)
	if err != nil {
		tst.Fatalf("New failed: %v", err)
	}
	if err := g.SetSlowness([]float64{1.0}); err != nil {
		tst.Fatal(err)
	}

	src, _ := dispatch.ParseSourceTable([][]float64{{0, 0, 0}})
	recv, _ := dispatch.ParseReceiverTable([][]float64{{1, 0, 0}})

	_, _, err = g.Raytrace(src, recv, nil, nil, true, false)
	if err == nil {
		tst.Fatal("expected IncompatibleOptions error")
	}
	if !ttcrerr.Is(err, ttcrerr.IncompatibleOptions) {
		tst.Errorf("expected IncompatibleOptions, got %v", err)
	}
}

func Test_ttcr05(tst *testing.T) {

	chk.PrintTitle("ttcr05. SPM homogeneous medium is within the n_secondary error bound")

	verts, tets := unitTetMesh()
	cfg := DefaultConfig()
	cfg.Method = "SPM"
	cfg.CellSlowness = true
	cfg.NSecondary = 2
	g, err := New(verts, tets, cfg)
	if err != nil {
		tst.Fatalf("New failed: %v", err)
	}
	if err := g.SetSlowness([]float64{1.0}); err != nil {
		tst.Fatal(err)
	}

	src, _ := dispatch.ParseSourceTable([][]float64{{0, 0, 0}})
	recv, _ := dispatch.ParseReceiverTable([][]float64{{1, 0, 0}})

	tt, _, err := g.Raytrace(src, recv, nil, nil, false, false)
	if err != nil {
		tst.Fatalf("Raytrace failed: %v", err)
	}
	if math.Abs(tt[0]-1.0) > 0.01 {
		tst.Errorf("T(receiver) = %v, want 1.0 +/- 0.01", tt[0])
	}
}

// cubeMesh splits the unit cube into 6 tetrahedra sharing the 0-6 diagonal,
// giving every interior vertex a first-ring neighborhood big enough to
// exercise the LS2 gradient fit.
func cubeMesh() ([]geom.Point, [][4]int) {
	verts := []geom.Point{
		{X: 0, Y: 0, Z: 0}, // 0
		{X: 1, Y: 0, Z: 0}, // 1
		{X: 1, Y: 1, Z: 0}, // 2
		{X: 0, Y: 1, Z: 0}, // 3
		{X: 0, Y: 0, Z: 1}, // 4
		{X: 1, Y: 0, Z: 1}, // 5
		{X: 1, Y: 1, Z: 1}, // 6
		{X: 0, Y: 1, Z: 1}, // 7
	}
	tets := [][4]int{
		{0, 1, 2, 6},
		{0, 2, 3, 6},
		{0, 3, 7, 6},
		{0, 7, 4, 6},
		{0, 4, 5, 6},
		{0, 5, 1, 6},
	}
	return verts, tets
}

func Test_ttcr07(tst *testing.T) {

	chk.PrintTitle("ttcr07. raytrace is deterministic across nthreads")

	verts, tets := cubeMesh()
	srcTable := [][]float64{
		{0.1, 0.1, 0.1},
		{0.9, 0.1, 0.1},
		{0.9, 0.9, 0.1},
		{0.1, 0.9, 0.1},
		{0.1, 0.1, 0.9},
		{0.9, 0.1, 0.9},
	}
	recvTable := [][]float64{
		{0.9, 0.9, 0.9},
		{0.1, 0.9, 0.9},
		{0.5, 0.5, 0.5},
		{0.2, 0.8, 0.3},
		{0.8, 0.2, 0.7},
		{0.3, 0.3, 0.6},
	}

	run := func(nthreads int) ([]float64, [][]geom.Point) {
		cfg := DefaultConfig()
		cfg.CellSlowness = true
		cfg.GradientMethod = 1 // solver.LS2
		cfg.Nthreads = nthreads
		g, err := New(verts, tets, cfg)
		if err != nil {
			tst.Fatalf("New failed: %v", err)
		}
		slow := make([]float64, len(tets))
		for i := range slow {
			slow[i] = 1.0 + 0.1*float64(i)
		}
		if err := g.SetSlowness(slow); err != nil {
			tst.Fatalf("SetSlowness failed: %v", err)
		}
		src, err := dispatch.ParseSourceTable(srcTable)
		if err != nil {
			tst.Fatal(err)
		}
		recv, err := dispatch.ParseReceiverTable(recvTable)
		if err != nil {
			tst.Fatal(err)
		}
		tt, paths, err := g.Raytrace(src, recv, nil, nil, false, true)
		if err != nil {
			tst.Fatalf("Raytrace failed: %v", err)
		}
		return tt, paths
	}

	tt1, paths1 := run(1)
	tt4, paths4 := run(4)

	if len(tt1) != len(tt4) {
		tst.Fatalf("traveltime length mismatch: %d vs %d", len(tt1), len(tt4))
	}
	for i := range tt1 {
		if tt1[i] != tt4[i] {
			tst.Errorf("receiver %d: nthreads=1 gave %v, nthreads=4 gave %v (not byte-identical)", i, tt1[i], tt4[i])
		}
	}
	if len(paths1) != len(paths4) {
		tst.Fatalf("raypath count mismatch: %d vs %d", len(paths1), len(paths4))
	}
	for i := range paths1 {
		if len(paths1[i]) != len(paths4[i]) {
			tst.Errorf("receiver %d: raypath length differs between nthreads=1 (%d) and nthreads=4 (%d)", i, len(paths1[i]), len(paths4[i]))
			continue
		}
		for j := range paths1[i] {
			if paths1[i][j] != paths4[i][j] {
				tst.Errorf("receiver %d, point %d: nthreads=1 gave %v, nthreads=4 gave %v (not byte-identical)", i, j, paths1[i][j], paths4[i][j])
			}
		}
	}
}

func Test_ttcr06(tst *testing.T) {

	chk.PrintTitle("ttcr06. explicit thread_no out of range is rejected")

	verts, tets := unitTetMesh()
	cfg := DefaultConfig()
	cfg.CellSlowness = true
	g, err := New(verts, tets, cfg)
	if err != nil {
		tst.Fatalf("New failed: %v", err)
	}
	if err := g.SetSlowness([]float64{1.0}); err != nil {
		tst.Fatal(err)
	}

	src, _ := dispatch.ParseSourceTable([][]float64{{0, 0, 0}})
	recv, _ := dispatch.ParseReceiverTable([][]float64{{1, 0, 0}})

	bad := 5
	_, _, err = g.Raytrace(src, recv, nil, &bad, false, false)
	if !ttcrerr.Is(err, ttcrerr.ThreadOutOfRange) {
		tst.Errorf("expected ThreadOutOfRange, got %v", err)
	}
}
