// Copyright 2024 The Ttcr Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package main is the CLI boundary adapter: it reads a JSON problem file
// (mesh, slowness, config, source/receiver tables), runs ttcr.Raytrace, and
// prints the traveltimes (and, if requested, the raypaths) as JSON. Mesh
// I/O, slowness serialization and scripting front-ends belong to external
// collaborators, not this core; this is the one adapter this repository
// ships to exercise the core from the command line, in gofem's own style of
// a thin main that reads one JSON file and calls into the library
// (inp.ReadSim / fem.NewFEM in fem/main.go).
package main

import (
	"encoding/json"
	"os"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/hbueno/ttcr"
	"github.com/hbueno/ttcr/dispatch"
	"github.com/hbueno/ttcr/geom"
	"github.com/hbueno/ttcr/logx"
)

// problemFile mirrors the JSON shape this adapter accepts: a dense vertex
// array, a dense tetrahedron index array, the solver configuration, the
// slowness field, and the source/receiver tables in one of the three
// accepted column shapes.
type problemFile struct {
	Vertices     [][3]float64 `json:"vertices"`
	Tetrahedra   [][4]int     `json:"tetrahedra"`
	Config       ttcr.Config  `json:"config"`
	Slowness     []float64    `json:"slowness"`
	Sources      [][]float64  `json:"sources"`
	Receivers    [][]float64  `json:"receivers"`
	ThreadNo     *int         `json:"thread_no"`
	AggregateSrc bool         `json:"aggregate_src"`
	ReturnRays   bool         `json:"return_rays"`
}

// result is the JSON shape printed to stdout.
type result struct {
	Traveltimes []float64      `json:"traveltimes"`
	Raypaths    [][]geom.Point `json:"raypaths,omitempty"`
}

func main() {
	defer func() {
		if err := recover(); err != nil {
			io.PfRed("\nERROR: %v\n", err)
			chk.Verbose = true
			for i := 5; i > 3; i-- {
				chk.CallerInfo(i)
			}
			os.Exit(1)
		}
	}()

	fnamepath, _ := io.ArgToFilename(0, "", ".json", true)
	verbose := io.ArgToBool(1, true)

	var prob problemFile
	raw, err := os.ReadFile(fnamepath)
	if err != nil {
		chk.Panic("cannot read problem file %q: %v", fnamepath, err)
	}
	if err := json.Unmarshal(raw, &prob); err != nil {
		chk.Panic("cannot parse problem file %q: %v", fnamepath, err)
	}

	if verbose {
		io.PfWhite("\nttcr -- tetrahedral-mesh traveltime and raypath computation\n")
		io.Pf("\n%v\n", io.ArgsTable("INPUT ARGUMENTS",
			"problem file", "fnamepath", fnamepath,
			"show messages", "verbose", verbose,
		))
	}

	verts := make([]geom.Point, len(prob.Vertices))
	for i, v := range prob.Vertices {
		verts[i] = geom.Point{X: v[0], Y: v[1], Z: v[2]}
	}

	cfg := prob.Config
	if verbose {
		cfg.Log = logx.Console{}
	}

	grid, err := ttcr.New(verts, prob.Tetrahedra, cfg)
	if err != nil {
		chk.Panic("failed to build the mesh: %v", err)
	}

	srcRows, err := dispatch.ParseSourceTable(prob.Sources)
	if err != nil {
		chk.Panic("failed to parse the source table: %v", err)
	}
	recvRows, err := dispatch.ParseReceiverTable(prob.Receivers)
	if err != nil {
		chk.Panic("failed to parse the receiver table: %v", err)
	}

	tt, rp, err := grid.Raytrace(srcRows, recvRows, prob.Slowness, prob.ThreadNo, prob.AggregateSrc, prob.ReturnRays)
	if err != nil {
		chk.Panic("raytrace failed: %v", err)
	}

	out, err := json.MarshalIndent(result{Traveltimes: tt, Raypaths: rp}, "", "  ")
	if err != nil {
		chk.Panic("failed to encode the result: %v", err)
	}
	io.Pf("%s\n", out)
}
