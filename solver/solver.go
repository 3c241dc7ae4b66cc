// Copyright 2024 The Ttcr Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package solver implements the three interchangeable eikonal solvers named
// in this system's design: the Fast Sweeping Method (FSM), the Shortest-Path
// Method (SPM) and the Dynamic Shortest-Path Method (DSPM). They share one
// contract (Field) rather than a runtime dispatch hierarchy: the concrete
// type is selected once, at construction, exactly like gofem's fem.Solver /
// ele.Element "allocator map keyed by a type string" pattern (fem/solver.go,
// fem/element.go).
package solver

import (
	"github.com/hbueno/ttcr/geom"
	"github.com/hbueno/ttcr/mesh"
	"github.com/hbueno/ttcr/node"
	"github.com/hbueno/ttcr/ttcrerr"
)

// Method names one of the three eikonal solvers.
type Method int

const (
	FSM Method = iota
	SPM
	DSPM
)

func (m Method) String() string {
	switch m {
	case FSM:
		return "FSM"
	case SPM:
		return "SPM"
	case DSPM:
		return "DSPM"
	}
	return "unknown"
}

// ParseMethod maps a config string to a Method, or UnknownMethod.
func ParseMethod(s string) (Method, error) {
	switch s {
	case "FSM":
		return FSM, nil
	case "SPM":
		return SPM, nil
	case "DSPM":
		return DSPM, nil
	}
	return 0, ttcrerr.New(ttcrerr.UnknownMethod, "unknown method %q, expected FSM, SPM or DSPM", s)
}

// GradientMethod selects the raytracer's gradient reconstruction strategy.
type GradientMethod int

const (
	LS1     GradientMethod = iota // least-squares order-1 over the containing tet
	LS2                           // linear least-squares fit over the first-ring neighborhood (no quadratic terms)
	Average                       // barycentric-weighted average of per-vertex gradients
)

// Source is one origin point of a wavefront.
type Source struct {
	T0  float64
	Pos geom.Point
}

// Options bundles the solver parameters that affect the traveltime
// computation itself (as opposed to dispatch-level options).
type Options struct {
	GradientMethod GradientMethod
	TtFromRp       bool // SPM/DSPM: integrate slowness along ray for reported TT
	InterpVel      bool // FSM, vertex slowness: interpolate velocity not slowness
	Eps            float64
	Maxit          int
	NSecondary     int
	NTertiary      int
	RadiusTertiary float64
}

// Field is the common contract every solver's converged (or partially
// converged) output satisfies: a traveltime value at any node index, and
// enough self-knowledge for the raytracer to walk it backward.
type Field interface {
	// FieldAt returns the current traveltime at node index v.
	FieldAt(v int) float64
	// NNodes returns the number of entries in the field (primary vertices,
	// plus secondary and active tertiary nodes for SPM/DSPM).
	NNodes() int
	// Mesh returns the mesh this field was computed over.
	Mesh() *mesh.Grid3Dun
	// NodeAt returns the geometric position of node index v (primary,
	// secondary, or tertiary — whichever owns that index in this field).
	NodeAt(v int) geom.Point
}

// Solver is implemented by FSM, SPM and DSPM. Solve runs to completion (no
// mid-solve suspension points) and returns a Field the raytracer can walk,
// along with a ConvergenceFailure error for FSM when maxit is exceeded (the
// Field returned alongside is still the best partial result, with the
// error carrying a warning rather than discarding it).
type Solver interface {
	Solve(srcs []Source, scratch *node.Scratch, cancel <-chan struct{}) (Field, error)
}
