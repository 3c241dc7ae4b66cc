// Copyright 2024 The Ttcr Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package slowness

import (
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/hbueno/ttcr/geom"
)

func Test_slowness01(tst *testing.T) {

	chk.PrintTitle("slowness01. rejects non-positive and non-finite values")

	if _, err := New([]float64{1, 0, 2}, true, false); err == nil {
		tst.Error("expected an error for a zero slowness value")
	}
	if _, err := New([]float64{1, -1}, true, false); err == nil {
		tst.Error("expected an error for a negative slowness value")
	}

	f, err := New([]float64{1, 2, 3}, true, false)
	if err != nil {
		tst.Fatalf("New failed: %v", err)
	}
	chk.IntAssert(f.Len(), 3)
}

func Test_slowness02(tst *testing.T) {

	chk.PrintTitle("slowness02. per-vertex interpolation inside the unit tetrahedron")

	f, err := New([]float64{1, 2, 3, 4}, false, false)
	if err != nil {
		tst.Fatalf("New failed: %v", err)
	}
	t := geom.Tet{V: [4]geom.Point{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 0, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: 1},
	}}
	vi := [4]int{0, 1, 2, 3}
	s := f.InterpAt(t.V[0], t, 0, vi)
	chk.Scalar(tst, "s@V0", 1e-14, s, 1.0)

	s = f.InterpAt(t.V[1], t, 0, vi)
	chk.Scalar(tst, "s@V1", 1e-14, s, 2.0)
}

func Test_slowness03(tst *testing.T) {

	chk.PrintTitle("slowness03. interp_vel mode interpolates velocity, not slowness")

	f, err := New([]float64{1, 2}, false, true) // velocities: v0=1, v1=2 => s0=1, s1=0.5
	if err != nil {
		tst.Fatalf("New failed: %v", err)
	}
	// CellSlowness averages slownessAtVertex over 4 indices; repeating vertex 0
	// four times isolates its slowness, 1/v0 = 1/1 = 1.0.
	chk.Scalar(tst, "s@V0", 1e-14, f.CellSlowness(0, [4]int{0, 0, 0, 0}), 1.0)
	chk.Scalar(tst, "v1 (raw stored value is velocity)", 1e-14, f.AtVertex(1), 2.0)
}
