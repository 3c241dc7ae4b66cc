// Copyright 2024 The Ttcr Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dispatch

import (
	"testing"

	"github.com/hbueno/ttcr/node"
	"github.com/hbueno/ttcr/solver"
	"github.com/hbueno/ttcr/ttcrerr"
	"github.com/stretchr/testify/require"
)

func stubSolve(ev Event, scratch *node.Scratch, cancel <-chan struct{}) (solver.Field, error) {
	return nil, nil
}

func TestPoolRunSequentialBelowThreadCount(t *testing.T) {
	p := NewPool(4, 1)
	events := []Event{{ID: "a"}, {ID: "b"}}
	results := p.Run(events, stubSolve)
	require.Len(t, results, 2)
}

func TestPoolRunOnValidatesThreadRange(t *testing.T) {
	p := NewPool(2, 1)
	_, err := p.RunOn(5, Event{ID: "a"}, stubSolve)
	require.Error(t, err)
	require.True(t, ttcrerr.Is(err, ttcrerr.ThreadOutOfRange))
}

func TestContiguousBlocksCoverAllEventsExactlyOnce(t *testing.T) {
	blocks := contiguousBlocks(10, 3)
	seen := make([]bool, 10)
	for _, b := range blocks {
		for i := b[0]; i < b[1]; i++ {
			require.False(t, seen[i])
			seen[i] = true
		}
	}
	for i, s := range seen {
		require.True(t, s, "event %d not covered by any block", i)
	}
}

func TestPoolRunParallelPartitionsContiguously(t *testing.T) {
	p := NewPool(3, 1)
	events := make([]Event, 9)
	for i := range events {
		events[i] = Event{ID: string(rune('a' + i))}
	}
	results := p.Run(events, stubSolve)
	require.Len(t, results, 9)
	for i, r := range results {
		require.Equal(t, events[i].ID, r.Event.ID)
	}
}
