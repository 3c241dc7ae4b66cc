// Copyright 2024 The Ttcr Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dispatch

import (
	"sync"

	"github.com/hbueno/ttcr/node"
	"github.com/hbueno/ttcr/solver"
	"github.com/hbueno/ttcr/ttcrerr"
)

// SolveFunc runs one event's solve against a worker's private scratch,
// returning the converged (or partially converged) field.
type SolveFunc func(ev Event, scratch *node.Scratch, cancel <-chan struct{}) (solver.Field, error)

// Result pairs an Event with the field its solve produced (or the error).
type Result struct {
	Event Event
	Field solver.Field
	Err   error
}

// Pool is a fixed-size goroutine worker pool: each worker owns a private
// node.Scratch and runs events from a contiguous block assigned to it.
// There is no cross-worker coordination inside a dispatch; the mesh and
// slowness field are shared read-only and the pool's only shared mutable
// state is the fields slice guarded by mu, used to answer
// get_traveltime_field(worker_id) after the dispatch returns. The per-worker
// goroutine-plus-WaitGroup shape follows the concurrency pattern this
// retrieval pack's own production code uses for independent per-item work
// (s-neylon-inmap/emissions/slca/population.go's ncpu-wide fan-out), adapted
// from its strided partition to contiguous blocks.
type Pool struct {
	nthreads int
	scratchN int

	mu      sync.Mutex
	scratch []*node.Scratch
	fields  []solver.Field
	stopCh  chan struct{}
}

// NewPool builds a pool of nthreads workers, each with a scratch of size
// scratchN (typically |vertices|+|secondary nodes|).
func NewPool(nthreads, scratchN int) *Pool {
	if nthreads < 1 {
		nthreads = 1
	}
	p := &Pool{
		nthreads: nthreads,
		scratchN: scratchN,
		scratch:  make([]*node.Scratch, nthreads),
		fields:   make([]solver.Field, nthreads),
		stopCh:   make(chan struct{}),
	}
	for i := range p.scratch {
		p.scratch[i] = node.NewScratch(scratchN)
	}
	return p
}

// Nthreads returns the pool's worker count.
func (p *Pool) Nthreads() int { return p.nthreads }

// Cancel signals every worker's cooperative stop flag. FSM workers check it
// between sweep iterations; SPM/DSPM workers check it once, before the graph
// search starts, and the search itself is not interrupted. A cancelled solve
// returns no field, only a ConvergenceFailure error.
func (p *Pool) Cancel() { close(p.stopCh) }

// Run dispatches events across the pool. If there are fewer events than
// workers, or the pool has a single worker, every event solves sequentially
// on the calling goroutine. Otherwise events are partitioned into
// contiguous blocks, one per worker.
func (p *Pool) Run(events []Event, solve SolveFunc) []Result {
	results := make([]Result, len(events))
	if len(events) < p.nthreads || p.nthreads == 1 {
		for i, ev := range events {
			w := i % p.nthreads
			results[i] = p.solveOn(w, ev, solve)
		}
		return results
	}

	blocks := contiguousBlocks(len(events), p.nthreads)
	var wg sync.WaitGroup
	for w, blk := range blocks {
		if blk[0] >= blk[1] {
			continue
		}
		wg.Add(1)
		go func(w int, lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				results[i] = p.solveOn(w, events[i], solve)
			}
		}(w, blk[0], blk[1])
	}
	wg.Wait()
	return results
}

func (p *Pool) solveOn(w int, ev Event, solve SolveFunc) Result {
	f, err := solve(ev, p.scratch[w], p.stopCh)
	p.mu.Lock()
	p.fields[w] = f
	p.mu.Unlock()
	return Result{Event: ev, Field: f, Err: err}
}

// RunOn forces a single event onto an explicitly chosen worker, rather than
// letting Run pick its block — the explicit thread_no path of the public
// raytrace operation. It returns ThreadOutOfRange if w is not a valid
// worker index.
func (p *Pool) RunOn(w int, ev Event, solve SolveFunc) (solver.Field, error) {
	if w < 0 || w >= p.nthreads {
		return nil, ttcrerr.New(ttcrerr.ThreadOutOfRange, "thread_no %d is out of range [0,%d)", w, p.nthreads)
	}
	res := p.solveOn(w, ev, solve)
	return res.Field, res.Err
}

// FieldAt returns the last field computed by worker w (get_traveltime_field),
// or ThreadOutOfRange if w is invalid.
func (p *Pool) FieldAt(w int) (solver.Field, error) {
	if w < 0 || w >= p.nthreads {
		return nil, ttcrerr.New(ttcrerr.ThreadOutOfRange, "thread_no %d is out of range [0,%d)", w, p.nthreads)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fields[w], nil
}

// contiguousBlocks splits n items into up to k contiguous, near-equal
// ranges, [lo,hi) pairs indexed by worker.
func contiguousBlocks(n, k int) [][2]int {
	blocks := make([][2]int, k)
	base := n / k
	rem := n % k
	pos := 0
	for w := 0; w < k; w++ {
		size := base
		if w < rem {
			size++
		}
		blocks[w] = [2]int{pos, pos + size}
		pos += size
	}
	return blocks
}
