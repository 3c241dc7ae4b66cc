// Copyright 2024 The Ttcr Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package slowness validates and holds the scalar slowness (or, for FSM's
// interp_vel mode, velocity) field that parameterizes the medium: one value
// per cell (piecewise constant) or one value per vertex (linearly
// interpolated inside each tetrahedron).
package slowness

import (
	"math"

	"github.com/hbueno/ttcr/geom"
	"github.com/hbueno/ttcr/ttcrerr"
)

// Field is a read-only, atomically-replaceable parameter field.
type Field struct {
	perCell   bool
	interpVel bool
	values    []float64
}

// New validates vals (must be strictly positive and finite) and wraps it.
// perCell selects whether vals is indexed by cell (true) or by vertex
// (false); interpVel only matters in the per-vertex case, and selects
// whether the FSM local update interpolates velocity (1/s) instead of
// slowness across a tetrahedron.
func New(vals []float64, perCell, interpVel bool) (*Field, error) {
	for i, v := range vals {
		if v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
			return nil, ttcrerr.New(ttcrerr.WrongSize, "slowness value at index %d must be finite and strictly positive, got %v", i, v)
		}
	}
	cp := make([]float64, len(vals))
	copy(cp, vals)
	return &Field{perCell: perCell, interpVel: interpVel, values: cp}, nil
}

// PerCell reports whether this field is indexed by cell.
func (f *Field) PerCell() bool { return f.perCell }

// InterpVel reports whether velocity, not slowness, should be interpolated
// across a tetrahedron in the per-vertex case.
func (f *Field) InterpVel() bool { return f.interpVel }

// Len returns the number of parameter values (n_params()).
func (f *Field) Len() int { return len(f.values) }

// AtCell returns the (constant) slowness of cell c, valid only when PerCell.
func (f *Field) AtCell(c int) float64 { return f.values[c] }

// AtVertex returns the slowness (or velocity, see InterpVel) at vertex v,
// valid only when !PerCell.
func (f *Field) AtVertex(v int) float64 { return f.values[v] }

// CellSlowness returns the representative slowness of cell c given its four
// vertex indices: the stored value directly for a per-cell field, or the
// average of the vertex values (converted from velocity if InterpVel) for a
// per-vertex field — used wherever a single scalar is needed for a whole
// tetrahedron (e.g. the SPM edge-weight average).
func (f *Field) CellSlowness(cellIdx int, vertIdx [4]int) float64 {
	if f.perCell {
		return f.values[cellIdx]
	}
	sum := 0.0
	for _, v := range vertIdx {
		sum += f.slownessAtVertex(v)
	}
	return sum / 4
}

// InterpAt interpolates the slowness at point p inside tetrahedron t whose
// corner vertex indices are vertIdx, for a per-vertex field. For a per-cell
// field it just returns the cell's constant value.
func (f *Field) InterpAt(p geom.Point, t geom.Tet, cellIdx int, vertIdx [4]int) float64 {
	if f.perCell {
		return f.values[cellIdx]
	}
	var val [4]float64
	for i, v := range vertIdx {
		if f.interpVel {
			val[i] = 1.0 / f.values[v]
		} else {
			val[i] = f.values[v]
		}
	}
	s, ok := t.Interp(p, val)
	if !ok {
		// degenerate tet: fall back to the plain average
		s = (val[0] + val[1] + val[2] + val[3]) / 4
	}
	if f.interpVel {
		return 1.0 / s
	}
	return s
}

func (f *Field) slownessAtVertex(v int) float64 {
	if f.interpVel {
		return 1.0 / f.values[v]
	}
	return f.values[v]
}
