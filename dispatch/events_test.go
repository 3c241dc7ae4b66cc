// Copyright 2024 The Ttcr Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dispatch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSourceTableColumnShapes(t *testing.T) {
	rows, err := ParseSourceTable([][]float64{
		{1, 2, 3},
		{5, 1, 2, 3},
		{7, 5, 1, 2, 3},
	})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, 0.0, rows[0].T0)
	require.Equal(t, "", rows[0].EventID)
	require.Equal(t, 5.0, rows[1].T0)
	require.Equal(t, "7", rows[2].EventID)
	require.Equal(t, 5.0, rows[2].T0)
}

func TestParseSourceTableRejectsBadShape(t *testing.T) {
	_, err := ParseSourceTable([][]float64{{1, 2}})
	require.Error(t, err)
}

func TestGroupByEventID(t *testing.T) {
	src, err := ParseSourceTable([][]float64{
		{1, 0, 0, 0, 0},
		{1, 0, 1, 0, 0},
		{2, 0, 5, 5, 5},
	})
	require.NoError(t, err)
	recv, err := ParseReceiverTable([][]float64{
		{1, 1, 0, 0},
		{1, 2, 0, 0},
		{2, 6, 5, 5},
	})
	require.NoError(t, err)

	events, err := Group(src, recv, false)
	require.NoError(t, err)
	require.Len(t, events, 2)

	var ev1, ev2 *Event
	for i := range events {
		switch events[i].ID {
		case "1":
			ev1 = &events[i]
		case "2":
			ev2 = &events[i]
		}
	}
	require.NotNil(t, ev1)
	require.NotNil(t, ev2)
	require.Len(t, ev1.Sources, 2)
	require.Len(t, ev1.ReceiverIdx, 2)
	require.Len(t, ev2.Sources, 1)
	require.Len(t, ev2.ReceiverIdx, 1)
}

func TestGroupAggregateSrc(t *testing.T) {
	src, err := ParseSourceTable([][]float64{{0, 0, 0}, {0, 0, 1}})
	require.NoError(t, err)
	recv, err := ParseReceiverTable([][]float64{{1, 0, 0}, {2, 0, 0}, {3, 0, 0}})
	require.NoError(t, err)

	events, err := Group(src, recv, true)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Len(t, events[0].Sources, 2)
	require.Len(t, events[0].ReceiverIdx, 3)
	require.NotEmpty(t, events[0].ID)
}

func TestGroupPairwise(t *testing.T) {
	src, err := ParseSourceTable([][]float64{{0, 0, 0}, {1, 1, 1}})
	require.NoError(t, err)
	recv, err := ParseReceiverTable([][]float64{{1, 0, 0}, {2, 2, 2}})
	require.NoError(t, err)

	events, err := Group(src, recv, false)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, []int{0}, events[0].ReceiverIdx)
	require.Equal(t, []int{1}, events[1].ReceiverIdx)
}

func TestGroupPairwiseRequiresEqualCounts(t *testing.T) {
	src, err := ParseSourceTable([][]float64{{0, 0, 0}, {1, 1, 1}})
	require.NoError(t, err)
	recv, err := ParseReceiverTable([][]float64{{1, 0, 0}})
	require.NoError(t, err)

	_, err = Group(src, recv, false)
	require.Error(t, err)
}
