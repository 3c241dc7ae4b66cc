// Copyright 2024 The Ttcr Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dispatch groups the source/receiver input tables into independent
// events and runs each event's solve across a pool of worker goroutines.
// Source and receiver tables are typed records, not ragged numeric arrays —
// the conversion from the three accepted column shapes happens once, at
// this package's boundary.
package dispatch

import (
	"strconv"

	"github.com/google/uuid"
	"github.com/hbueno/ttcr/geom"
	"github.com/hbueno/ttcr/solver"
	"github.com/hbueno/ttcr/ttcrerr"
)

// SourceRow is one row of the source table after boundary conversion.
// EventID is empty when the input table carried no event-id column.
type SourceRow struct {
	EventID string
	T0      float64
	Pos     geom.Point
}

// ReceiverRow is one row of the receiver table after boundary conversion.
type ReceiverRow struct {
	EventID string
	Pos     geom.Point
}

// ParseSourceTable converts a dense numeric table into SourceRows, accepting
// three column shapes:
//
//	3 columns: (x,y,z)                 — t0 implicit 0, no event id
//	4 columns: (t0,x,y,z)               — no event id
//	5 columns: (event_id,t0,x,y,z)      — event id present
func ParseSourceTable(rows [][]float64) ([]SourceRow, error) {
	out := make([]SourceRow, len(rows))
	for i, r := range rows {
		switch len(r) {
		case 3:
			out[i] = SourceRow{T0: 0, Pos: geom.Point{X: r[0], Y: r[1], Z: r[2]}}
		case 4:
			out[i] = SourceRow{T0: r[0], Pos: geom.Point{X: r[1], Y: r[2], Z: r[3]}}
		case 5:
			out[i] = SourceRow{EventID: formatEventID(r[0]), T0: r[1], Pos: geom.Point{X: r[2], Y: r[3], Z: r[4]}}
		default:
			return nil, ttcrerr.New(ttcrerr.WrongSize, "source table row %d has %d columns, expected 3, 4 or 5", i, len(r))
		}
	}
	return out, nil
}

// ParseReceiverTable converts a dense numeric table into ReceiverRows,
// accepting either (x,y,z) or (event_id,x,y,z).
func ParseReceiverTable(rows [][]float64) ([]ReceiverRow, error) {
	out := make([]ReceiverRow, len(rows))
	for i, r := range rows {
		switch len(r) {
		case 3:
			out[i] = ReceiverRow{Pos: geom.Point{X: r[0], Y: r[1], Z: r[2]}}
		case 4:
			out[i] = ReceiverRow{EventID: formatEventID(r[0]), Pos: geom.Point{X: r[1], Y: r[2], Z: r[3]}}
		default:
			return nil, ttcrerr.New(ttcrerr.WrongSize, "receiver table row %d has %d columns, expected 3 or 4", i, len(r))
		}
	}
	return out, nil
}

// formatEventID renders a numeric event-id column as a stable string key,
// trimming the fractional part when the id is integral (the common case:
// event ids are row-group labels, not measured quantities).
func formatEventID(id float64) string {
	return strconv.FormatFloat(id, 'g', -1, 64)
}

// Event is one independent source/receiver problem: a group of sources
// (collectively one wavefront) and the indices, into the original receiver
// table, of the receivers paired to it. Events are independent and are the
// unit of parallelism.
type Event struct {
	ID          string
	Sources     []solver.Source
	ReceiverIdx []int
}

// Group implements three grouping rules, in priority order:
//
//  1. rows carrying an event id are grouped by that id: the event's sources
//     are the union of the positions of source rows sharing the id, and its
//     receivers are exactly the receiver rows sharing the same id;
//  2. absent an event id, aggregateSrc treats every source row as one
//     compound source, paired with the full receiver array;
//  3. otherwise every source row is its own event, paired 1:1 by row index
//     with the receiver array — which then must have the same length.
func Group(srcRows []SourceRow, recvRows []ReceiverRow, aggregateSrc bool) ([]Event, error) {
	if len(srcRows) == 0 {
		return nil, ttcrerr.New(ttcrerr.WrongSize, "source table is empty")
	}

	hasEventID := srcRows[0].EventID != ""
	for _, s := range srcRows {
		if (s.EventID != "") != hasEventID {
			return nil, ttcrerr.New(ttcrerr.WrongSize, "source table mixes rows with and without an event id")
		}
	}

	if hasEventID {
		return groupByEventID(srcRows, recvRows)
	}
	if aggregateSrc {
		return groupAggregate(srcRows, recvRows)
	}
	return groupPairwise(srcRows, recvRows)
}

func groupByEventID(srcRows []SourceRow, recvRows []ReceiverRow) ([]Event, error) {
	order := []string{}
	byID := map[string]*Event{}
	for _, s := range srcRows {
		ev, ok := byID[s.EventID]
		if !ok {
			ev = &Event{ID: s.EventID}
			byID[s.EventID] = ev
			order = append(order, s.EventID)
		}
		ev.Sources = append(ev.Sources, solver.Source{T0: s.T0, Pos: s.Pos})
	}
	for i, r := range recvRows {
		ev, ok := byID[r.EventID]
		if !ok {
			return nil, ttcrerr.New(ttcrerr.WrongSize, "receiver row %d has event id %q with no matching source event", i, r.EventID)
		}
		ev.ReceiverIdx = append(ev.ReceiverIdx, i)
	}
	out := make([]Event, len(order))
	for i, id := range order {
		out[i] = *byID[id]
	}
	return out, nil
}

func groupAggregate(srcRows []SourceRow, recvRows []ReceiverRow) ([]Event, error) {
	ev := Event{ID: uuid.NewString()}
	for _, s := range srcRows {
		ev.Sources = append(ev.Sources, solver.Source{T0: s.T0, Pos: s.Pos})
	}
	ev.ReceiverIdx = make([]int, len(recvRows))
	for i := range recvRows {
		ev.ReceiverIdx[i] = i
	}
	return []Event{ev}, nil
}

func groupPairwise(srcRows []SourceRow, recvRows []ReceiverRow) ([]Event, error) {
	if len(srcRows) != len(recvRows) {
		return nil, ttcrerr.New(ttcrerr.WrongSize, "source table has %d rows but receiver table has %d; pairwise dispatch requires equal counts", len(srcRows), len(recvRows))
	}
	out := make([]Event, len(srcRows))
	for i, s := range srcRows {
		out[i] = Event{
			ID:          uuid.NewString(),
			Sources:     []solver.Source{{T0: s.T0, Pos: s.Pos}},
			ReceiverIdx: []int{i},
		}
	}
	return out, nil
}
