// Copyright 2024 The Ttcr Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ttcr computes first-arrival traveltimes and raypaths of a
// wavefront propagating through a heterogeneous 3D medium discretized as an
// unstructured tetrahedral mesh. Grid3D is the public entry point: it owns
// an immutable mesh.Grid3Dun, selects one of the three eikonal solvers
// (FSM, SPM, DSPM), and exposes the Raytrace operation.
package ttcr

import (
	"sort"

	"github.com/hbueno/ttcr/dispatch"
	"github.com/hbueno/ttcr/geom"
	"github.com/hbueno/ttcr/logx"
	"github.com/hbueno/ttcr/mesh"
	"github.com/hbueno/ttcr/node"
	"github.com/hbueno/ttcr/raytrace"
	"github.com/hbueno/ttcr/solver"
	"github.com/hbueno/ttcr/ttcrerr"
)

// Config bundles the construction-time options controlling solver choice,
// tolerances, and node densification. It mirrors gofem's
// inp.Data/inp.SolverData shape: exported fields with json tags, a
// DefaultConfig constructor, and a validate method that reports every
// input error before any computation begins.
type Config struct {
	CellSlowness   bool    `json:"cell_slowness"`
	Method         string  `json:"method"`
	GradientMethod int     `json:"gradient_method"`
	TtFromRp       bool    `json:"tt_from_rp"`
	InterpVel      bool    `json:"interp_vel"`
	Eps            float64 `json:"eps"`
	Maxit          int     `json:"maxit"`
	MinDist        float64 `json:"min_dist"`
	NSecondary     int     `json:"n_secondary"`
	NTertiary      int     `json:"n_tertiary"`
	RadiusTertiary float64 `json:"radius_tertiary"`
	Nthreads       int     `json:"nthreads"`

	// Log is an explicit sink for the method-selection banner and other
	// diagnostics; nil is a silent no-op, never a hidden global.
	Log logx.Sink `json:"-"`
}

// DefaultConfig returns a ready-to-use option set: FSM with a tight
// tolerance and at most 20 iterations, no secondary or tertiary
// densification, a single worker. A zero Config is not equivalent: validate
// rejects an empty Method and an Nthreads below 1.
func DefaultConfig() Config {
	return Config{
		Method:   "FSM",
		Eps:      1e-9,
		Maxit:    20,
		MinDist:  1e-5,
		Nthreads: 1,
	}
}

// validate checks every option that can be decided before a mesh exists,
// returning the resolved solver.Method.
func (c Config) validate() (solver.Method, error) {
	m, err := solver.ParseMethod(c.Method)
	if err != nil {
		return 0, err
	}
	if c.Nthreads < 1 {
		return 0, ttcrerr.New(ttcrerr.WrongSize, "nthreads must be >= 1, got %d", c.Nthreads)
	}
	if m != solver.FSM && c.NSecondary <= 0 {
		return 0, ttcrerr.New(ttcrerr.WrongSize, "%s requires n_secondary > 0", m)
	}
	return m, nil
}

func (c Config) gradientMethod() solver.GradientMethod {
	return solver.GradientMethod(c.GradientMethod)
}

// Grid3D is the public, immutable-after-construction mesh plus its selected
// solver and worker pool. The mesh index is cheaply shareable by multiple
// workers; per-worker mutable scratch is allocated on worker creation and
// lives for the lifetime of the mesh.
type Grid3D struct {
	msh    *mesh.Grid3Dun
	cfg    Config
	method solver.Method
	impl   solver.Solver
	pool   *dispatch.Pool
}

// New builds a Grid3D from a dense vertex array and a dense tetrahedron
// index array, validating cfg before any mesh work begins.
func New(verts []geom.Point, tets [][4]int, cfg Config) (*Grid3D, error) {
	method, err := cfg.validate()
	if err != nil {
		return nil, err
	}
	msh, err := mesh.New(verts, tets, mesh.Config{NSecondary: cfg.NSecondary})
	if err != nil {
		return nil, err
	}
	opts := solver.Options{
		GradientMethod: cfg.gradientMethod(),
		TtFromRp:       cfg.TtFromRp,
		InterpVel:      cfg.InterpVel,
		Eps:            cfg.Eps,
		Maxit:          cfg.Maxit,
		NSecondary:     cfg.NSecondary,
		NTertiary:      cfg.NTertiary,
		RadiusTertiary: cfg.RadiusTertiary,
	}
	var impl solver.Solver
	switch method {
	case solver.FSM:
		impl = solver.NewFSM(msh, opts)
	case solver.SPM:
		impl = solver.NewSPM(msh, opts)
	case solver.DSPM:
		impl = solver.NewDSPM(msh, opts)
	}
	nthreads := cfg.Nthreads
	if nthreads < 1 {
		nthreads = 1
	}
	scratchN := msh.NVerts() + msh.NSecondary()
	logx.Or(cfg.Log).Logf("%s method selected.", method)
	return &Grid3D{
		msh:    msh,
		cfg:    cfg,
		method: method,
		impl:   impl,
		pool:   dispatch.NewPool(nthreads, scratchN),
	}, nil
}

// NParams returns the length of the slowness array this grid expects.
func (g *Grid3D) NParams() int { return g.msh.N_params(g.cfg.CellSlowness) }

// SetSlowness validates and atomically installs the slowness field. Must
// not overlap with an active solve: callers sequence this before their
// next Raytrace call.
func (g *Grid3D) SetSlowness(vals []float64) error {
	return g.msh.SetSlowness(vals, g.cfg.CellSlowness, g.cfg.InterpVel)
}

// GetTraveltimeField returns the last computed field for the given worker,
// as a dense array of length |vertices|.
func (g *Grid3D) GetTraveltimeField(workerID int) ([]float64, error) {
	f, err := g.pool.FieldAt(workerID)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, ttcrerr.New(ttcrerr.WrongSize, "worker %d has not computed a field yet", workerID)
	}
	out := make([]float64, g.msh.NVerts())
	for v := range out {
		out[v] = f.FieldAt(v)
	}
	return out, nil
}

// Raytrace is the public operation:
//
//	raytrace(source_table, receiver_table, slowness?, thread_no?, aggregate_src?, return_rays?)
//	  -> traveltimes[, raypaths]
//
// srcRows/recvRows are pre-parsed typed records (dispatch.ParseSourceTable /
// dispatch.ParseReceiverTable perform the boundary conversion from a dense
// numeric table). All input-validation errors are reported before any
// computation begins.
func (g *Grid3D) Raytrace(srcRows []dispatch.SourceRow, recvRows []dispatch.ReceiverRow, slownessVals []float64, threadNo *int, aggregateSrc, returnRays bool) ([]float64, [][]geom.Point, error) {
	if g.method == solver.DSPM && aggregateSrc {
		return nil, nil, ttcrerr.New(ttcrerr.IncompatibleOptions, "DSPM does not support aggregate_src: tertiary-node placement is keyed to a single source location")
	}
	if threadNo != nil && (*threadNo < 0 || *threadNo >= g.pool.Nthreads()) {
		return nil, nil, ttcrerr.New(ttcrerr.ThreadOutOfRange, "thread_no %d is out of range [0,%d)", *threadNo, g.pool.Nthreads())
	}
	if slownessVals != nil {
		if err := g.SetSlowness(slownessVals); err != nil {
			return nil, nil, err
		}
	}
	if g.msh.Slowness() == nil {
		return nil, nil, ttcrerr.New(ttcrerr.WrongSize, "no slowness field installed")
	}

	events, err := dispatch.Group(srcRows, recvRows, aggregateSrc)
	if err != nil {
		return nil, nil, err
	}
	if err := g.validateInGrid(events, recvRows); err != nil {
		return nil, nil, err
	}

	solveFn := func(ev dispatch.Event, scratch *node.Scratch, cancel <-chan struct{}) (solver.Field, error) {
		return g.impl.Solve(ev.Sources, scratch, cancel)
	}

	var results []dispatch.Result
	if threadNo != nil {
		for _, ev := range events {
			f, solveErr := g.pool.RunOn(*threadNo, ev, solveFn)
			results = append(results, dispatch.Result{Event: ev, Field: f, Err: solveErr})
		}
	} else {
		results = g.pool.Run(events, solveFn)
	}

	travelTimes := make([]float64, len(recvRows))
	var raypaths [][]geom.Point
	if returnRays {
		raypaths = make([][]geom.Point, len(recvRows))
	}
	var convergenceWarning error
	for _, res := range results {
		if res.Err != nil {
			if ttcrerr.Is(res.Err, ttcrerr.ConvergenceFailure) {
				convergenceWarning = res.Err
			} else {
				return nil, nil, res.Err
			}
		}
		if res.Field == nil {
			continue
		}
		g.fillReceivers(res.Event, res.Field, recvRows, returnRays, travelTimes, raypaths)
	}
	return travelTimes, raypaths, convergenceWarning
}

// validateInGrid rejects any source or receiver lying outside the mesh
// before any solve starts: OutOfGrid is an input-validation error,
// reported up front.
func (g *Grid3D) validateInGrid(events []dispatch.Event, recvRows []dispatch.ReceiverRow) error {
	for _, ev := range events {
		for _, s := range ev.Sources {
			if g.msh.Locate(s.Pos) == mesh.NotFound {
				return ttcrerr.New(ttcrerr.OutOfGrid, "source %v lies outside the mesh", s.Pos)
			}
		}
	}
	for i, r := range recvRows {
		if g.msh.Locate(r.Pos) == mesh.NotFound {
			return ttcrerr.New(ttcrerr.OutOfGrid, "receiver %d (%v) lies outside the mesh", i, r.Pos)
		}
	}
	return nil
}

// fillReceivers writes the traveltime (and, when requested, the raypath)
// for every receiver paired to ev into the output slices.
func (g *Grid3D) fillReceivers(ev dispatch.Event, field solver.Field, recvRows []dispatch.ReceiverRow, returnRays bool, travelTimes []float64, raypaths [][]geom.Point) {
	srcPositions := make([]geom.Point, len(ev.Sources))
	for i, s := range ev.Sources {
		srcPositions[i] = s.Pos
	}

	for _, idx := range ev.ReceiverIdx {
		recv := recvRows[idx].Pos
		tt := g.interpField(field, recv)
		travelTimes[idx] = tt

		if !returnRays && !g.cfg.TtFromRp {
			continue
		}

		path, srcUsed, err := g.backtraceNearest(field, srcPositions, ev.Sources, recv)
		if err != nil {
			// keep the field-derived traveltime, leave the raypath empty
			// for this receiver.
			continue
		}
		if returnRays {
			raypaths[idx] = path
		}
		if g.cfg.TtFromRp && (g.method == solver.SPM || g.method == solver.DSPM) {
			travelTimes[idx] = raytrace.Integrate(g.msh, g.msh.Slowness(), srcUsed.T0, path)
		}
	}
}

// backtraceNearest tries raytrace.Backtrace against each of the event's
// sources, nearest-first, returning the first one that succeeds. A
// multi-source event's field is the superposition of all its sources; which
// one a given ray approaches isn't tracked by the solver, so nearest-first
// is this system's resolution (see DESIGN.md).
func (g *Grid3D) backtraceNearest(field solver.Field, srcPositions []geom.Point, srcs []solver.Source, recv geom.Point) ([]geom.Point, solver.Source, error) {
	order := make([]int, len(srcs))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return recv.Dist(srcPositions[order[a]]) < recv.Dist(srcPositions[order[b]])
	})

	var lastErr error
	for _, i := range order {
		path, err := raytrace.Backtrace(field, g.cfg.gradientMethod(), recv, srcPositions[i])
		if err == nil {
			return path, srcs[i], nil
		}
		lastErr = err
	}
	return nil, solver.Source{}, lastErr
}

// interpField reads the traveltime at an arbitrary point inside the mesh by
// locating its containing tetrahedron and barycentric-interpolating the
// field values at its four primary-vertex corners. Neither solver's field
// is dense at arbitrary points (FSM and the graph solvers are both only
// defined at mesh nodes), so every receiver not sitting exactly on a node
// goes through this interpolation; see DESIGN.md's Open Question decision.
func (g *Grid3D) interpField(field solver.Field, p geom.Point) float64 {
	c := g.msh.Locate(p)
	if c == mesh.NotFound {
		return field.FieldAt(0) // validateInGrid already rejected any out-of-mesh point
	}
	vi := g.msh.Cell(c)
	var val [4]float64
	for i, v := range vi {
		val[i] = field.FieldAt(v)
	}
	t := g.msh.Tet(c)
	v, ok := t.Interp(p, val)
	if !ok {
		sum := 0.0
		for _, x := range val {
			sum += x
		}
		return sum / 4
	}
	return v
}

// Reflect runs the reflector-surface pass-through: given the last field
// computed by a worker and a receiver, it walks backward
// along the gradient until it crosses a mesh.Grid3Dun.MarkReflector-tagged
// face, returning the reflection point and the partial raypath to it.
func (g *Grid3D) Reflect(workerID int, recv geom.Point) (geom.Point, []geom.Point, error) {
	field, err := g.pool.FieldAt(workerID)
	if err != nil {
		return geom.Point{}, nil, err
	}
	if field == nil {
		return geom.Point{}, nil, ttcrerr.New(ttcrerr.WrongSize, "worker %d has not computed a field yet", workerID)
	}
	return raytrace.ReflectedPath(field, g.cfg.gradientMethod(), recv)
}

// MarkReflector tags mesh faces (vertex triples) as reflector surfaces for
// Reflect; a thin pass-through to the mesh index.
func (g *Grid3D) MarkReflector(faces [][3]int) {
	g.msh.MarkReflector(faces)
}
